package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
	"github.com/R3E-Network/crafting_registry/internal/app/events"
	"github.com/R3E-Network/crafting_registry/internal/app/services/registries"
	"github.com/R3E-Network/crafting_registry/internal/app/storage/memory"
)

func newFixture(t *testing.T) (*Service, *registries.Service, string) {
	t.Helper()
	store := memory.New()
	regs := registries.New(store, nil, nil)
	reg, err := regs.Create(context.Background(), "alice", "elements", nil)
	if err != nil {
		t.Fatalf("create registry: %v", err)
	}
	return New(store, events.NewFeed(16), nil, nil), regs, reg.ID
}

func TestMintRecordsOriginAndOwner(t *testing.T) {
	svc, regs, regID := newFixture(t)
	ctx := context.Background()

	authority, err := regs.Capability(regID)
	if err != nil {
		t.Fatalf("capability: %v", err)
	}

	inst, err := svc.Mint(ctx, authority, regID, "fire", "bob", instance.MintKindStarter)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if inst.ID == "" {
		t.Fatalf("expected id to be generated")
	}

	origin, err := svc.GetOrigin(ctx, inst.ID)
	if err != nil || origin != "fire" {
		t.Fatalf("origin = %q, %v; want fire", origin, err)
	}
	owner, err := svc.OwnerOf(ctx, inst.ID)
	if err != nil || owner != "bob" {
		t.Fatalf("owner = %q, %v; want bob", owner, err)
	}

	held, err := svc.ListByOwner(ctx, regID, "bob")
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(held) != 1 || held[0].MintedBy != instance.MintKindStarter {
		t.Fatalf("unexpected holdings: %+v", held)
	}
}

func TestMintRequiresGrantingCapability(t *testing.T) {
	svc, regs, regID := newFixture(t)
	ctx := context.Background()

	t.Run("zero capability", func(t *testing.T) {
		var authority registry.Capability
		if _, err := svc.Mint(ctx, authority, regID, "fire", "bob", instance.MintKindStarter); !errors.Is(err, registry.ErrUnauthorized) {
			t.Fatalf("got %v, want %v", err, registry.ErrUnauthorized)
		}
	})

	t.Run("foreign capability", func(t *testing.T) {
		other, err := regs.Create(ctx, "carol", "minerals", nil)
		if err != nil {
			t.Fatalf("create registry: %v", err)
		}
		otherCap, err := regs.Capability(other.ID)
		if err != nil {
			t.Fatalf("capability: %v", err)
		}
		if _, err := svc.Mint(ctx, otherCap, regID, "fire", "bob", instance.MintKindStarter); !errors.Is(err, registry.ErrUnauthorized) {
			t.Fatalf("got %v, want %v", err, registry.ErrUnauthorized)
		}
	})

	// No instance may exist after the failed mints.
	all, err := svc.ListByRegistry(ctx, regID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no instances, got %d", len(all))
	}
}

func TestGetUnknownInstance(t *testing.T) {
	svc, _, _ := newFixture(t)
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, instance.ErrNotFound) {
		t.Fatalf("got %v, want %v", err, instance.ErrNotFound)
	}
}
