package crafting

import (
	"context"
	"errors"
	"testing"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/services/catalogue"
	"github.com/R3E-Network/crafting_registry/internal/app/services/ledger"
	"github.com/R3E-Network/crafting_registry/internal/app/services/recipes"
	"github.com/R3E-Network/crafting_registry/internal/app/services/registries"
	"github.com/R3E-Network/crafting_registry/internal/app/storage/memory"
)

type fixture struct {
	store     *memory.Store
	regs      *registries.Service
	catalogue *catalogue.Service
	recipes   *recipes.Service
	ledger    *ledger.Service
	crafting  *Service
	registry  string

	fire  string
	water string
	steam string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.New()
	feed := events.NewFeed(64)
	regs := registries.New(store, feed, nil)
	cat := catalogue.New(regs, store, store, feed, nil)
	recs := recipes.New(regs, store, feed, nil)
	led := ledger.New(store, feed, nil, nil)
	craft := New(regs, store, store, store, led, nil, nil)

	reg, err := regs.Create(ctx, "alice", "elements", nil)
	if err != nil {
		t.Fatalf("create registry: %v", err)
	}

	f := &fixture{
		store:     store,
		regs:      regs,
		catalogue: cat,
		recipes:   recs,
		ledger:    led,
		crafting:  craft,
		registry:  reg.ID,
	}

	fire, err := cat.DefineArchetype(ctx, reg.ID, "alice", []byte(`{"name":"Fire"}`))
	if err != nil {
		t.Fatalf("define fire: %v", err)
	}
	water, err := cat.DefineArchetype(ctx, reg.ID, "alice", []byte(`{"name":"Water"}`))
	if err != nil {
		t.Fatalf("define water: %v", err)
	}
	steam, err := cat.DefineArchetype(ctx, reg.ID, "alice", []byte(`{"name":"Steam"}`))
	if err != nil {
		t.Fatalf("define steam: %v", err)
	}
	f.fire, f.water, f.steam = fire.ID, water.ID, steam.ID

	for _, id := range []string{f.fire, f.water} {
		if err := cat.MarkBasic(ctx, reg.ID, "alice", id); err != nil {
			t.Fatalf("mark basic: %v", err)
		}
	}
	if _, err := recs.Define(ctx, reg.ID, "alice", f.steam, f.fire, f.water); err != nil {
		t.Fatalf("define recipe: %v", err)
	}
	return f
}

func (f *fixture) mintFor(t *testing.T, owner, archetypeID string) instance.Instance {
	t.Helper()
	authority, err := f.regs.Capability(f.registry)
	if err != nil {
		t.Fatalf("capability: %v", err)
	}
	inst, err := f.ledger.Mint(context.Background(), authority, f.registry, archetypeID, owner, instance.MintKindStarter)
	if err != nil {
		t.Fatalf("mint %s: %v", archetypeID, err)
	}
	return inst
}

func TestCombine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fireInst := f.mintFor(t, "bob", f.fire)
	waterInst := f.mintFor(t, "bob", f.water)

	minted, err := f.crafting.Combine(ctx, f.registry, "bob", f.steam, fireInst.ID, waterInst.ID)
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	if minted.ArchetypeID != f.steam {
		t.Fatalf("minted origin = %s, want steam", minted.ArchetypeID)
	}
	if minted.Owner != "bob" {
		t.Fatalf("minted owner = %s, want bob", minted.Owner)
	}
	if minted.MintedBy != instance.MintKindCombination {
		t.Fatalf("minted kind = %s, want combination", minted.MintedBy)
	}

	// Inputs survive: combination never consumes.
	for _, id := range []string{fireInst.ID, waterInst.ID} {
		if _, err := f.ledger.Get(ctx, id); err != nil {
			t.Fatalf("input %s missing after combine: %v", id, err)
		}
	}
}

func TestCombineIsOrderInsensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fireInst := f.mintFor(t, "bob", f.fire)
	waterInst := f.mintFor(t, "bob", f.water)

	// Recipe stores (fire, water); presenting (water, fire) must also work.
	if _, err := f.crafting.Combine(ctx, f.registry, "bob", f.steam, waterInst.ID, fireInst.ID); err != nil {
		t.Fatalf("swapped combine: %v", err)
	}
}

func TestCombineUnknownRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fireInst := f.mintFor(t, "bob", f.fire)
	waterInst := f.mintFor(t, "bob", f.water)

	// fire has no recipe of its own: unknown result, not a wrong pair.
	if _, err := f.crafting.Combine(ctx, f.registry, "bob", f.fire, fireInst.ID, waterInst.ID); !errors.Is(err, ErrUnknownRecipe) {
		t.Fatalf("got %v, want %v", err, ErrUnknownRecipe)
	}

	assertNoNewInstances(t, f, 2)
}

func TestCombineWrongPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fireA := f.mintFor(t, "bob", f.fire)
	fireB := f.mintFor(t, "bob", f.fire)

	if _, err := f.crafting.Combine(ctx, f.registry, "bob", f.steam, fireA.ID, fireB.ID); !errors.Is(err, ErrWrongCombination) {
		t.Fatalf("got %v, want %v", err, ErrWrongCombination)
	}

	assertNoNewInstances(t, f, 2)
}

func TestCombineMissingInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fireInst := f.mintFor(t, "bob", f.fire)
	if _, err := f.crafting.Combine(ctx, f.registry, "bob", f.steam, fireInst.ID, "missing"); err == nil {
		t.Fatalf("expected error for missing input")
	}

	assertNoNewInstances(t, f, 1)
}

func TestCombineIgnoresOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Inputs belong to carol and dave; bob combines them anyway. The engine
	// checks existence only, and the result goes to the caller.
	fireInst := f.mintFor(t, "carol", f.fire)
	waterInst := f.mintFor(t, "dave", f.water)

	minted, err := f.crafting.Combine(ctx, f.registry, "bob", f.steam, fireInst.ID, waterInst.ID)
	if err != nil {
		t.Fatalf("combine with foreign inputs: %v", err)
	}
	if minted.Owner != "bob" {
		t.Fatalf("result owner = %s, want bob", minted.Owner)
	}
}

func TestCombineWithItself(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lake, err := f.catalogue.DefineArchetype(ctx, f.registry, "alice", []byte(`{"name":"Lake"}`))
	if err != nil {
		t.Fatalf("define lake: %v", err)
	}
	if _, err := f.recipes.Define(ctx, f.registry, "alice", lake.ID, f.water, f.water); err != nil {
		t.Fatalf("define recipe: %v", err)
	}

	waterInst := f.mintFor(t, "bob", f.water)

	minted, err := f.crafting.CombineWithItself(ctx, f.registry, "bob", lake.ID, waterInst.ID)
	if err != nil {
		t.Fatalf("combine with itself: %v", err)
	}
	if minted.ArchetypeID != lake.ID {
		t.Fatalf("minted origin = %s, want lake", minted.ArchetypeID)
	}

	// A doubled origin must not satisfy a mixed-pair recipe.
	if _, err := f.crafting.CombineWithItself(ctx, f.registry, "bob", f.steam, waterInst.ID); !errors.Is(err, ErrWrongCombination) {
		t.Fatalf("got %v, want %v", err, ErrWrongCombination)
	}
}

func TestCombineEqualIDsIsSelfCombination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	lake, err := f.catalogue.DefineArchetype(ctx, f.registry, "alice", []byte(`{"name":"Lake"}`))
	if err != nil {
		t.Fatalf("define lake: %v", err)
	}
	if _, err := f.recipes.Define(ctx, f.registry, "alice", lake.ID, f.water, f.water); err != nil {
		t.Fatalf("define recipe: %v", err)
	}

	waterInst := f.mintFor(t, "bob", f.water)
	if _, err := f.crafting.Combine(ctx, f.registry, "bob", lake.ID, waterInst.ID, waterInst.ID); err != nil {
		t.Fatalf("combine with equal ids: %v", err)
	}
}

func TestVerifyCombination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		result  string
		originA string
		originB string
		wantErr error
	}{
		{"match", "", f.fire, f.water, nil},
		{"swapped match", "", f.water, f.fire, nil},
		{"wrong pair", "", f.fire, f.fire, ErrWrongCombination},
		{"unknown result", "nonexistent", f.fire, f.water, ErrUnknownRecipe},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := tc.result
			if result == "" {
				result = f.steam
			}
			err := f.crafting.VerifyCombination(ctx, f.registry, result, tc.originA, tc.originB)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMintStarters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("mixed candidates", func(t *testing.T) {
		// fire and water are basic; steam is not and is skipped silently.
		minted, err := f.crafting.MintStarters(ctx, f.registry, "bob", []string{f.fire, f.steam, f.water})
		if err != nil {
			t.Fatalf("mint starters: %v", err)
		}
		if len(minted) != 2 {
			t.Fatalf("expected 2 starters, got %d", len(minted))
		}
		if minted[0].ArchetypeID != f.fire || minted[1].ArchetypeID != f.water {
			t.Fatalf("unexpected starter origins: %+v", minted)
		}
		for _, inst := range minted {
			if inst.MintedBy != instance.MintKindStarter {
				t.Fatalf("kind = %s, want starter", inst.MintedBy)
			}
			if inst.Owner != "bob" {
				t.Fatalf("owner = %s, want bob", inst.Owner)
			}
		}
	})

	t.Run("repeated candidate mints twice", func(t *testing.T) {
		minted, err := f.crafting.MintStarters(ctx, f.registry, "carol", []string{f.fire, f.fire})
		if err != nil {
			t.Fatalf("mint starters: %v", err)
		}
		if len(minted) != 2 {
			t.Fatalf("expected 2 starters, got %d", len(minted))
		}
	})

	t.Run("all non-basic mints nothing", func(t *testing.T) {
		minted, err := f.crafting.MintStarters(ctx, f.registry, "dave", []string{f.steam, "missing"})
		if err != nil {
			t.Fatalf("mint starters: %v", err)
		}
		if len(minted) != 0 {
			t.Fatalf("expected no starters, got %d", len(minted))
		}
	})

	t.Run("too many candidates", func(t *testing.T) {
		batch := []string{f.fire, f.fire, f.fire, f.fire, f.fire}
		if _, err := f.crafting.MintStarters(ctx, f.registry, "bob", batch); !errors.Is(err, ErrTooManyCandidates) {
			t.Fatalf("got %v, want %v", err, ErrTooManyCandidates)
		}
	})

	t.Run("unknown registry", func(t *testing.T) {
		if _, err := f.crafting.MintStarters(ctx, "missing", "bob", []string{f.fire}); err == nil {
			t.Fatalf("expected error for unknown registry")
		}
	})

	t.Run("unmarked basic is skipped", func(t *testing.T) {
		if err := f.catalogue.UnmarkBasic(ctx, f.registry, "alice", f.water); err != nil {
			t.Fatalf("unmark basic: %v", err)
		}
		minted, err := f.crafting.MintStarters(ctx, f.registry, "bob", []string{f.water})
		if err != nil {
			t.Fatalf("mint starters: %v", err)
		}
		if len(minted) != 0 {
			t.Fatalf("expected no starters after unmark, got %d", len(minted))
		}
	})
}

func assertNoNewInstances(t *testing.T, f *fixture, want int) {
	t.Helper()
	all, err := f.ledger.ListByRegistry(context.Background(), f.registry)
	if err != nil {
		t.Fatalf("list instances: %v", err)
	}
	if len(all) != want {
		t.Fatalf("expected %d instances, got %d", want, len(all))
	}
}
