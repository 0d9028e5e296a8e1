// Package app wires the crafting registry services together and manages
// their lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/services/accounts"
	"github.com/R3E-Network/crafting_registry/internal/app/services/catalogue"
	"github.com/R3E-Network/crafting_registry/internal/app/services/crafting"
	"github.com/R3E-Network/crafting_registry/internal/app/services/ledger"
	"github.com/R3E-Network/crafting_registry/internal/app/services/recipes"
	"github.com/R3E-Network/crafting_registry/internal/app/services/registries"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
	"github.com/R3E-Network/crafting_registry/internal/app/storage/memory"
	"github.com/R3E-Network/crafting_registry/internal/app/system"
	"github.com/R3E-Network/crafting_registry/internal/metrics"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Accounts   storage.AccountStore
	Registries storage.RegistryStore
	Archetypes storage.ArchetypeStore
	Basics     storage.BasicsStore
	Recipes    storage.RecipeStore
	Instances  storage.InstanceStore
}

// Options configures optional application collaborators.
type Options struct {
	Metrics         *metrics.Metrics
	EventBufferSize int
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager *system.Manager
	log     *logger.Logger

	Accounts   *accounts.Service
	Registries *registries.Service
	Catalogue  *catalogue.Service
	Recipes    *recipes.Service
	Ledger     *ledger.Service
	Crafting   *crafting.Service
	Events     *events.Feed
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := memory.New()
	if stores.Accounts == nil {
		stores.Accounts = mem
	}
	if stores.Registries == nil {
		stores.Registries = mem
	}
	if stores.Archetypes == nil {
		stores.Archetypes = mem
	}
	if stores.Basics == nil {
		stores.Basics = mem
	}
	if stores.Recipes == nil {
		stores.Recipes = mem
	}
	if stores.Instances == nil {
		stores.Instances = mem
	}

	feed := events.NewFeed(opts.EventBufferSize)
	manager := system.NewManager()

	acctService := accounts.New(stores.Accounts, log)
	regService := registries.New(stores.Registries, feed, log)
	catService := catalogue.New(regService, stores.Archetypes, stores.Basics, feed, log)
	recService := recipes.New(regService, stores.Recipes, feed, log)
	ledgerService := ledger.New(stores.Instances, feed, opts.Metrics, log)
	craftService := crafting.New(regService, stores.Recipes, stores.Basics, stores.Instances, ledgerService, opts.Metrics, log)

	for _, name := range []string{"accounts", "registries", "catalogue", "recipes", "ledger", "crafting"} {
		if err := manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return &Application{
		manager:    manager,
		log:        log,
		Accounts:   acctService,
		Registries: regService,
		Catalogue:  catService,
		Recipes:    recService,
		Ledger:     ledgerService,
		Crafting:   craftService,
		Events:     feed,
	}, nil
}

// Attach registers an additional lifecycle-managed service. Call before Start.
func (a *Application) Attach(service system.Service) error {
	return a.manager.Register(service)
}

// Start begins all registered services and restores capability custody for
// registries already in the store.
func (a *Application) Start(ctx context.Context) error {
	if err := a.Registries.Restore(ctx); err != nil {
		return err
	}
	return a.manager.Start(ctx)
}

// Stop stops all services.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
