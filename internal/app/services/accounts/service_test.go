package accounts

import (
	"context"
	"errors"
	"testing"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/account"
	"github.com/R3E-Network/crafting_registry/internal/app/storage/memory"
)

func TestService(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)

	acct, err := svc.Create(context.Background(), "alice", map[string]string{"tier": "pro"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if acct.ID == "" {
		t.Fatalf("expected id to be generated")
	}

	updated, err := svc.UpdateMetadata(context.Background(), acct.ID, map[string]string{"tier": "enterprise"})
	if err != nil {
		t.Fatalf("update metadata: %v", err)
	}
	if updated.Metadata["tier"] != "enterprise" {
		t.Fatalf("metadata not updated")
	}

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 account, got %d", len(list))
	}

	if err := svc.Delete(context.Background(), acct.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), acct.ID); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestCreateRequiresOwner(t *testing.T) {
	svc := New(memory.New(), nil)
	if _, err := svc.Create(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty owner")
	}
}
