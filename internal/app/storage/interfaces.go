// Package storage declares the persistence contracts used by the application
// services. Implementations live in the memory and postgres subpackages.
package storage

import (
	"context"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/account"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/archetype"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/recipe"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
)

// AccountStore persists account records.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	GetAccount(ctx context.Context, id string) (account.Account, error)
	ListAccounts(ctx context.Context) ([]account.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// RegistryStore persists crafting registries.
type RegistryStore interface {
	CreateRegistry(ctx context.Context, reg registry.Registry) (registry.Registry, error)
	GetRegistry(ctx context.Context, id string) (registry.Registry, error)
	ListRegistries(ctx context.Context) ([]registry.Registry, error)
}

// ArchetypeStore persists archetype definitions. Archetypes are never
// deleted; there is deliberately no removal operation.
type ArchetypeStore interface {
	CreateArchetype(ctx context.Context, arch archetype.Archetype) (archetype.Archetype, error)
	GetArchetype(ctx context.Context, id string) (archetype.Archetype, error)
	ListArchetypes(ctx context.Context, registryID string) ([]archetype.Archetype, error)
}

// BasicsStore persists basics-set membership per registry. Membership is a
// set: AddBasic fails with registry.ErrAlreadyBasic on a present member and
// RemoveBasic fails with registry.ErrNotBasic on an absent one.
type BasicsStore interface {
	AddBasic(ctx context.Context, registryID, archetypeID string) error
	RemoveBasic(ctx context.Context, registryID, archetypeID string) error
	IsBasic(ctx context.Context, registryID, archetypeID string) (bool, error)
	ListBasics(ctx context.Context, registryID string) ([]string, error)
}

// RecipeStore persists combination recipes keyed by (registry, result).
// CreateRecipe must reject an existing key with recipe.ErrAlreadyDefined and
// leave the prior recipe intact; recipes are write-once per result.
type RecipeStore interface {
	CreateRecipe(ctx context.Context, rec recipe.Recipe) (recipe.Recipe, error)
	GetRecipe(ctx context.Context, registryID, result string) (recipe.Recipe, error)
	ListRecipes(ctx context.Context, registryID string) ([]recipe.Recipe, error)
}

// InstanceStore persists minted element instances.
type InstanceStore interface {
	CreateInstance(ctx context.Context, inst instance.Instance) (instance.Instance, error)
	GetInstance(ctx context.Context, id string) (instance.Instance, error)
	ListInstancesByOwner(ctx context.Context, registryID, owner string) ([]instance.Instance, error)
	ListInstancesByRegistry(ctx context.Context, registryID string) ([]instance.Instance, error)
}
