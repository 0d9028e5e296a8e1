package registries

import (
	"context"
	"errors"
	"testing"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/storage/memory"
)

func TestCreateMintsCapability(t *testing.T) {
	store := memory.New()
	feed := events.NewFeed(8)
	svc := New(store, feed, nil)

	reg, err := svc.Create(context.Background(), "alice", "elements", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if reg.ID == "" {
		t.Fatalf("expected id to be generated")
	}
	if reg.Admin != "alice" {
		t.Fatalf("admin not recorded: %q", reg.Admin)
	}

	authority, err := svc.Capability(reg.ID)
	if err != nil {
		t.Fatalf("capability: %v", err)
	}
	if !authority.Grants(reg.ID) {
		t.Fatalf("capability does not grant its own registry")
	}
	if authority.Grants("other") {
		t.Fatalf("capability grants a foreign registry")
	}

	recent := feed.Recent(1)
	if len(recent) != 1 || recent[0].Type != events.TypeRegistryCreated {
		t.Fatalf("expected registry.created event, got %+v", recent)
	}
}

func TestCapabilityUnknownRegistry(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	if _, err := svc.Capability("missing"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, registry.ErrNotFound)
	}
}

func TestRequireAdmin(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	reg, err := svc.Create(context.Background(), "alice", "elements", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.RequireAdmin(context.Background(), reg.ID, "alice"); err != nil {
		t.Fatalf("admin rejected: %v", err)
	}
	if _, err := svc.RequireAdmin(context.Background(), reg.ID, "bob"); !errors.Is(err, registry.ErrUnauthorized) {
		t.Fatalf("got %v, want %v", err, registry.ErrUnauthorized)
	}
	if _, err := svc.RequireAdmin(context.Background(), "missing", "alice"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, registry.ErrNotFound)
	}
}

func TestRestoreRebuildsKeeper(t *testing.T) {
	store := memory.New()
	svc := New(store, nil, nil)
	reg, err := svc.Create(context.Background(), "alice", "elements", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A fresh service over the same store starts with an empty keeper.
	restarted := New(store, nil, nil)
	if _, err := restarted.Capability(reg.ID); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected empty keeper after restart, got %v", err)
	}

	if err := restarted.Restore(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	authority, err := restarted.Capability(reg.ID)
	if err != nil {
		t.Fatalf("capability after restore: %v", err)
	}
	if !authority.Grants(reg.ID) {
		t.Fatalf("restored capability does not grant its registry")
	}
}
