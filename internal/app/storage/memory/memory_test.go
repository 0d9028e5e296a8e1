package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/archetype"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/recipe"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
)

func TestRegistryRoundTrip(t *testing.T) {
	store := New()
	ctx := context.Background()

	created, err := store.CreateRegistry(ctx, registry.Registry{Admin: "alice", Name: "elements"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.GetRegistry(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Admin)
	assert.Equal(t, "elements", got.Name)

	_, err = store.GetRegistry(ctx, "missing")
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestBasicsSetSemantics(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.AddBasic(ctx, "reg-1", "fire"))
	assert.ErrorIs(t, store.AddBasic(ctx, "reg-1", "fire"), registry.ErrAlreadyBasic)

	basic, err := store.IsBasic(ctx, "reg-1", "fire")
	require.NoError(t, err)
	assert.True(t, basic)

	// Membership is per registry.
	basic, err = store.IsBasic(ctx, "reg-2", "fire")
	require.NoError(t, err)
	assert.False(t, basic)

	require.NoError(t, store.RemoveBasic(ctx, "reg-1", "fire"))
	assert.ErrorIs(t, store.RemoveBasic(ctx, "reg-1", "fire"), registry.ErrNotBasic)
}

func TestRecipeWriteOnce(t *testing.T) {
	store := New()
	ctx := context.Background()

	first := recipe.Recipe{RegistryID: "reg-1", Result: "steam", InputA: "fire", InputB: "water"}
	_, err := store.CreateRecipe(ctx, first)
	require.NoError(t, err)

	_, err = store.CreateRecipe(ctx, recipe.Recipe{RegistryID: "reg-1", Result: "steam", InputA: "earth", InputB: "air"})
	assert.ErrorIs(t, err, recipe.ErrAlreadyDefined)

	// The same result in another registry is an independent key.
	_, err = store.CreateRecipe(ctx, recipe.Recipe{RegistryID: "reg-2", Result: "steam", InputA: "fire", InputB: "water"})
	require.NoError(t, err)

	got, err := store.GetRecipe(ctx, "reg-1", "steam")
	require.NoError(t, err)
	assert.Equal(t, "fire", got.InputA)
	assert.Equal(t, "water", got.InputB)
}

func TestArchetypeMetadataIsDefensivelyCopied(t *testing.T) {
	store := New()
	ctx := context.Background()

	payload := []byte(`{"name":"Fire"}`)
	created, err := store.CreateArchetype(ctx, archetype.Archetype{RegistryID: "reg-1", Metadata: payload})
	require.NoError(t, err)

	payload[2] = 'x'

	got, err := store.GetArchetype(ctx, created.ID)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Fire"}`, string(got.Metadata))
}

func TestInstanceQueries(t *testing.T) {
	store := New()
	ctx := context.Background()

	for _, owner := range []string{"bob", "bob", "carol"} {
		_, err := store.CreateInstance(ctx, instance.Instance{
			RegistryID:  "reg-1",
			ArchetypeID: "fire",
			Owner:       owner,
			MintedBy:    instance.MintKindStarter,
		})
		require.NoError(t, err)
	}

	byOwner, err := store.ListInstancesByOwner(ctx, "reg-1", "bob")
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)

	all, err := store.ListInstancesByRegistry(ctx, "reg-1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = store.GetInstance(ctx, "missing")
	assert.ErrorIs(t, err, instance.ErrNotFound)
}
