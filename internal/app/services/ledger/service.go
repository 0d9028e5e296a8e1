// Package ledger mints and queries element instances. Minting requires the
// registry's authority capability; there is no other write path.
package ledger

import (
	"context"
	"fmt"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
	"github.com/R3E-Network/crafting_registry/internal/metrics"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

// Service is the instance ledger. Every mint call produces exactly one
// instance; instances are never destroyed or mutated here.
type Service struct {
	store   storage.InstanceStore
	feed    *events.Feed
	metrics *metrics.Metrics
	log     *logger.Logger
}

// New constructs a ledger service.
func New(store storage.InstanceStore, feed *events.Feed, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ledger")
	}
	return &Service{store: store, feed: feed, metrics: m, log: log}
}

// Mint creates one instance of an archetype for an owner. The capability
// must grant authority over the registry; anything else fails with
// registry.ErrUnauthorized before any state changes.
func (s *Service) Mint(ctx context.Context, authority registry.Capability, registryID, archetypeID, owner string, kind instance.MintKind) (instance.Instance, error) {
	if !authority.Grants(registryID) {
		return instance.Instance{}, fmt.Errorf("mint: %w", registry.ErrUnauthorized)
	}
	if owner == "" {
		return instance.Instance{}, fmt.Errorf("owner is required")
	}

	minted, err := s.store.CreateInstance(ctx, instance.Instance{
		RegistryID:  registryID,
		ArchetypeID: archetypeID,
		Owner:       owner,
		MintedBy:    kind,
	})
	if err != nil {
		return instance.Instance{}, err
	}

	if s.metrics != nil {
		s.metrics.MintsTotal.WithLabelValues(string(kind)).Inc()
	}
	if s.feed != nil {
		s.feed.Publish(events.Event{
			Type:       events.TypeInstanceMinted,
			RegistryID: registryID,
			Metadata: map[string]string{
				"instance_id":  minted.ID,
				"archetype_id": minted.ArchetypeID,
				"owner":        minted.Owner,
				"minted_by":    string(kind),
			},
		})
	}
	s.log.WithField("registry_id", registryID).Infof("instance %s minted (%s) for %s", minted.ID, kind, owner)
	return minted, nil
}

// Get retrieves an instance by identifier.
func (s *Service) Get(ctx context.Context, id string) (instance.Instance, error) {
	return s.store.GetInstance(ctx, id)
}

// GetOrigin returns the origin archetype of an instance.
func (s *Service) GetOrigin(ctx context.Context, id string) (string, error) {
	inst, err := s.store.GetInstance(ctx, id)
	if err != nil {
		return "", err
	}
	return inst.ArchetypeID, nil
}

// OwnerOf returns the owner of an instance.
func (s *Service) OwnerOf(ctx context.Context, id string) (string, error) {
	inst, err := s.store.GetInstance(ctx, id)
	if err != nil {
		return "", err
	}
	return inst.Owner, nil
}

// ListByOwner returns the instances an owner holds in a registry.
func (s *Service) ListByOwner(ctx context.Context, registryID, owner string) ([]instance.Instance, error) {
	return s.store.ListInstancesByOwner(ctx, registryID, owner)
}

// ListByRegistry returns all instances minted in a registry.
func (s *Service) ListByRegistry(ctx context.Context, registryID string) ([]instance.Instance, error) {
	return s.store.ListInstancesByRegistry(ctx, registryID)
}
