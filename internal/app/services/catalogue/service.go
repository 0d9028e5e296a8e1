// Package catalogue manages the archetype catalogue of a registry and its
// basics subset.
package catalogue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/archetype"
	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/services/registries"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

// Service manages archetype definitions and basics membership. Archetype
// metadata is an opaque JSON document: the service stores it verbatim and
// never interprets it beyond pulling a display name for log lines.
type Service struct {
	registries *registries.Service
	store      storage.ArchetypeStore
	basics     storage.BasicsStore
	feed       *events.Feed
	log        *logger.Logger
}

// New constructs a catalogue service.
func New(reg *registries.Service, store storage.ArchetypeStore, basics storage.BasicsStore, feed *events.Feed, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("catalogue")
	}
	return &Service{registries: reg, store: store, basics: basics, feed: feed, log: log}
}

// DefineArchetype registers a new archetype in the registry's catalogue.
// Only the registry admin may define archetypes. Archetypes are immutable
// and never removed.
func (s *Service) DefineArchetype(ctx context.Context, registryID, caller string, metadata json.RawMessage) (archetype.Archetype, error) {
	if _, err := s.registries.RequireAdmin(ctx, registryID, caller); err != nil {
		return archetype.Archetype{}, err
	}
	if len(metadata) > 0 && !json.Valid(metadata) {
		return archetype.Archetype{}, fmt.Errorf("metadata is not valid JSON")
	}

	created, err := s.store.CreateArchetype(ctx, archetype.Archetype{
		RegistryID: registryID,
		Metadata:   metadata,
	})
	if err != nil {
		return archetype.Archetype{}, err
	}

	name := gjson.GetBytes(metadata, "name").String()
	if s.feed != nil {
		s.feed.Publish(events.Event{
			Type:       events.TypeArchetypeDefined,
			RegistryID: registryID,
			Metadata:   map[string]string{"archetype_id": created.ID, "name": name},
		})
	}
	s.log.WithField("registry_id", registryID).Infof("archetype %s (%q) defined", created.ID, name)
	return created, nil
}

// MarkBasic adds an archetype to the registry's basics set. Admin-only.
// Fails with registry.ErrAlreadyBasic if the archetype is already a member.
func (s *Service) MarkBasic(ctx context.Context, registryID, caller, archetypeID string) error {
	if _, err := s.registries.RequireAdmin(ctx, registryID, caller); err != nil {
		return err
	}
	arch, err := s.store.GetArchetype(ctx, archetypeID)
	if err != nil {
		return err
	}
	if arch.RegistryID != registryID {
		return archetype.ErrNotFound
	}

	if err := s.basics.AddBasic(ctx, registryID, archetypeID); err != nil {
		return err
	}
	if s.feed != nil {
		s.feed.Publish(events.Event{
			Type:       events.TypeBasicAdded,
			RegistryID: registryID,
			Metadata:   map[string]string{"archetype_id": archetypeID},
		})
	}
	s.log.WithField("registry_id", registryID).Infof("archetype %s marked basic", archetypeID)
	return nil
}

// UnmarkBasic removes an archetype from the basics set. Admin-only.
// Fails with registry.ErrNotBasic if the archetype is not a member.
func (s *Service) UnmarkBasic(ctx context.Context, registryID, caller, archetypeID string) error {
	if _, err := s.registries.RequireAdmin(ctx, registryID, caller); err != nil {
		return err
	}

	if err := s.basics.RemoveBasic(ctx, registryID, archetypeID); err != nil {
		return err
	}
	if s.feed != nil {
		s.feed.Publish(events.Event{
			Type:       events.TypeBasicRemoved,
			RegistryID: registryID,
			Metadata:   map[string]string{"archetype_id": archetypeID},
		})
	}
	s.log.WithField("registry_id", registryID).Infof("archetype %s unmarked basic", archetypeID)
	return nil
}

// Get retrieves an archetype by identifier.
func (s *Service) Get(ctx context.Context, archetypeID string) (archetype.Archetype, error) {
	return s.store.GetArchetype(ctx, archetypeID)
}

// List returns all archetypes defined in a registry.
func (s *Service) List(ctx context.Context, registryID string) ([]archetype.Archetype, error) {
	return s.store.ListArchetypes(ctx, registryID)
}

// ListBasics returns the archetype IDs in the registry's basics set.
func (s *Service) ListBasics(ctx context.Context, registryID string) ([]string, error) {
	return s.basics.ListBasics(ctx, registryID)
}

// IsBasic reports whether an archetype is in the registry's basics set.
func (s *Service) IsBasic(ctx context.Context, registryID, archetypeID string) (bool, error) {
	return s.basics.IsBasic(ctx, registryID, archetypeID)
}
