// Package accounts manages the accounts that own registries and instances.
package accounts

import (
	"context"
	"fmt"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/account"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

// Service manages account records.
type Service struct {
	store storage.AccountStore
	log   *logger.Logger
}

// New constructs an account service.
func New(store storage.AccountStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	return &Service{store: store, log: log}
}

// Create registers a new account for an owner.
func (s *Service) Create(ctx context.Context, owner string, metadata map[string]string) (account.Account, error) {
	if owner == "" {
		return account.Account{}, fmt.Errorf("owner is required")
	}

	created, err := s.store.CreateAccount(ctx, account.Account{Owner: owner, Metadata: metadata})
	if err != nil {
		return account.Account{}, err
	}
	s.log.Infof("account %s created for %s", created.ID, created.Owner)
	return created, nil
}

// UpdateMetadata replaces an account's metadata.
func (s *Service) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) (account.Account, error) {
	existing, err := s.store.GetAccount(ctx, id)
	if err != nil {
		return account.Account{}, err
	}
	existing.Metadata = metadata
	return s.store.UpdateAccount(ctx, existing)
}

// Get retrieves an account by identifier.
func (s *Service) Get(ctx context.Context, id string) (account.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]account.Account, error) {
	return s.store.ListAccounts(ctx)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.log.Infof("account %s deleted", id)
	return nil
}
