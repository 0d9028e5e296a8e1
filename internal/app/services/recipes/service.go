// Package recipes manages the write-once recipe table of a registry.
package recipes

import (
	"context"
	"fmt"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/recipe"
	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/services/registries"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

// Service manages combination recipes. A result archetype has at most one
// recipe, set once; redefinition fails and leaves the prior recipe intact.
type Service struct {
	registries *registries.Service
	store      storage.RecipeStore
	feed       *events.Feed
	log        *logger.Logger
}

// New constructs a recipe service.
func New(reg *registries.Service, store storage.RecipeStore, feed *events.Feed, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("recipes")
	}
	return &Service{registries: reg, store: store, feed: feed, log: log}
}

// Define sets the recipe for a result archetype. Admin-only and write-once:
// an existing recipe for the result fails with recipe.ErrAlreadyDefined.
// Inputs and result are not checked for existence, so recipes may reference
// archetypes defined later.
func (s *Service) Define(ctx context.Context, registryID, caller, result, inputA, inputB string) (recipe.Recipe, error) {
	if _, err := s.registries.RequireAdmin(ctx, registryID, caller); err != nil {
		return recipe.Recipe{}, err
	}
	if result == "" {
		return recipe.Recipe{}, fmt.Errorf("result is required")
	}
	if inputA == "" || inputB == "" {
		return recipe.Recipe{}, fmt.Errorf("both inputs are required")
	}

	created, err := s.store.CreateRecipe(ctx, recipe.Recipe{
		RegistryID: registryID,
		Result:     result,
		InputA:     inputA,
		InputB:     inputB,
	})
	if err != nil {
		return recipe.Recipe{}, err
	}

	if s.feed != nil {
		s.feed.Publish(events.Event{
			Type:       events.TypeRecipeDefined,
			RegistryID: registryID,
			Metadata: map[string]string{
				"result":  created.Result,
				"input_a": created.InputA,
				"input_b": created.InputB,
			},
		})
	}
	s.log.WithField("registry_id", registryID).Infof("recipe defined: %s + %s -> %s", created.InputA, created.InputB, created.Result)
	return created, nil
}

// Lookup returns the recipe for a result archetype. Pure read: absence
// surfaces as recipe.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, registryID, result string) (recipe.Recipe, error) {
	return s.store.GetRecipe(ctx, registryID, result)
}

// List returns all recipes defined in a registry.
func (s *Service) List(ctx context.Context, registryID string) ([]recipe.Recipe, error) {
	return s.store.ListRecipes(ctx, registryID)
}
