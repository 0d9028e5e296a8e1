// Package registries manages registry lifecycle and keeps custody of each
// registry's authority capability.
package registries

import (
	"context"
	"fmt"
	"sync"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

// Service creates and queries registries. The authority capability minted
// alongside each registry never leaves this process: it stays in the keeper
// and is handed out only to in-process collaborators via Capability.
type Service struct {
	store storage.RegistryStore
	feed  *events.Feed
	log   *logger.Logger

	mu           sync.RWMutex
	capabilities map[string]registry.Capability
}

// New constructs a registry service.
func New(store storage.RegistryStore, feed *events.Feed, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("registries")
	}
	return &Service{
		store:        store,
		feed:         feed,
		log:          log,
		capabilities: make(map[string]registry.Capability),
	}
}

// Create provisions a registry owned by admin. The admin identity is fixed
// for the registry's lifetime. The capability is minted exactly once, here,
// and retained in the keeper.
func (s *Service) Create(ctx context.Context, admin, name string, metadata map[string]string) (registry.Registry, error) {
	if admin == "" {
		return registry.Registry{}, fmt.Errorf("admin is required")
	}
	if name == "" {
		return registry.Registry{}, fmt.Errorf("name is required")
	}

	reg, authority := registry.New(admin, name, metadata)
	created, err := s.store.CreateRegistry(ctx, reg)
	if err != nil {
		return registry.Registry{}, err
	}

	s.mu.Lock()
	s.capabilities[created.ID] = authority.Bind(created.ID)
	s.mu.Unlock()

	if s.feed != nil {
		s.feed.Publish(events.Event{
			Type:       events.TypeRegistryCreated,
			RegistryID: created.ID,
			Metadata:   map[string]string{"admin": created.Admin, "name": created.Name},
		})
	}
	s.log.WithField("registry_id", created.ID).Infof("registry %q created for admin %s", created.Name, created.Admin)
	return created, nil
}

// Get retrieves a registry by identifier.
func (s *Service) Get(ctx context.Context, id string) (registry.Registry, error) {
	return s.store.GetRegistry(ctx, id)
}

// List returns all registries.
func (s *Service) List(ctx context.Context) ([]registry.Registry, error) {
	return s.store.ListRegistries(ctx)
}

// Capability returns the authority capability for a registry. It is for
// in-process wiring only and is never exposed over the API surface.
func (s *Service) Capability(registryID string) (registry.Capability, error) {
	s.mu.RLock()
	authority, ok := s.capabilities[registryID]
	s.mu.RUnlock()
	if !ok {
		return registry.Capability{}, registry.ErrNotFound
	}
	return authority, nil
}

// Restore re-mints capabilities for registries already in the store. Called
// once at startup so a restarted process regains custody of persisted
// registries.
func (s *Service) Restore(ctx context.Context) error {
	regs, err := s.store.ListRegistries(ctx)
	if err != nil {
		return fmt.Errorf("restore capabilities: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reg := range regs {
		if _, ok := s.capabilities[reg.ID]; ok {
			continue
		}
		_, authority := registry.New(reg.Admin, reg.Name, nil)
		s.capabilities[reg.ID] = authority.Bind(reg.ID)
	}
	return nil
}

// RequireAdmin fetches the registry and verifies the caller is its admin.
func (s *Service) RequireAdmin(ctx context.Context, registryID, caller string) (registry.Registry, error) {
	reg, err := s.store.GetRegistry(ctx, registryID)
	if err != nil {
		return registry.Registry{}, err
	}
	if !reg.IsAdmin(caller) {
		return registry.Registry{}, registry.ErrUnauthorized
	}
	return reg, nil
}
