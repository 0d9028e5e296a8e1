// Package postgres implements the storage interfaces on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/account"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/archetype"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/recipe"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.AccountStore = (*Store)(nil)
var _ storage.RegistryStore = (*Store)(nil)
var _ storage.ArchetypeStore = (*Store)(nil)
var _ storage.BasicsStore = (*Store)(nil)
var _ storage.RecipeStore = (*Store)(nil)
var _ storage.InstanceStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// --- AccountStore -----------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	metadataJSON, err := json.Marshal(acct.Metadata)
	if err != nil {
		return account.Account{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO craft_accounts (id, owner, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, acct.ID, acct.Owner, metadataJSON, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		return account.Account{}, err
	}
	return acct, nil
}

func (s *Store) UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	existing, err := s.GetAccount(ctx, acct.ID)
	if err != nil {
		return account.Account{}, err
	}

	acct.CreatedAt = existing.CreatedAt
	acct.UpdatedAt = time.Now().UTC()

	metadataJSON, err := json.Marshal(acct.Metadata)
	if err != nil {
		return account.Account{}, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE craft_accounts
		SET owner = $2, metadata = $3, updated_at = $4
		WHERE id = $1
	`, acct.ID, acct.Owner, metadataJSON, acct.UpdatedAt)
	if err != nil {
		return account.Account{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (account.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner, metadata, created_at, updated_at
		FROM craft_accounts
		WHERE id = $1
	`, id)

	var (
		acct        account.Account
		metadataRaw []byte
	)
	if err := row.Scan(&acct.ID, &acct.Owner, &metadataRaw, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}
	if len(metadataRaw) > 0 {
		_ = json.Unmarshal(metadataRaw, &acct.Metadata)
	}
	return acct, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner, metadata, created_at, updated_at
		FROM craft_accounts
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []account.Account
	for rows.Next() {
		var (
			acct        account.Account
			metadataRaw []byte
		)
		if err := rows.Scan(&acct.ID, &acct.Owner, &metadataRaw, &acct.CreatedAt, &acct.UpdatedAt); err != nil {
			return nil, err
		}
		if len(metadataRaw) > 0 {
			_ = json.Unmarshal(metadataRaw, &acct.Metadata)
		}
		result = append(result, acct)
	}
	return result, rows.Err()
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM craft_accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return account.ErrNotFound
	}
	return nil
}

// --- RegistryStore ----------------------------------------------------------

func (s *Store) CreateRegistry(ctx context.Context, reg registry.Registry) (registry.Registry, error) {
	if reg.ID == "" {
		reg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now

	metadataJSON, err := json.Marshal(reg.Metadata)
	if err != nil {
		return registry.Registry{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO craft_registries (id, admin, name, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, reg.ID, reg.Admin, reg.Name, metadataJSON, reg.CreatedAt, reg.UpdatedAt)
	if err != nil {
		return registry.Registry{}, err
	}
	return reg, nil
}

func (s *Store) GetRegistry(ctx context.Context, id string) (registry.Registry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, admin, name, metadata, created_at, updated_at
		FROM craft_registries
		WHERE id = $1
	`, id)

	var (
		reg         registry.Registry
		metadataRaw []byte
	)
	if err := row.Scan(&reg.ID, &reg.Admin, &reg.Name, &metadataRaw, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return registry.Registry{}, registry.ErrNotFound
		}
		return registry.Registry{}, err
	}
	if len(metadataRaw) > 0 {
		_ = json.Unmarshal(metadataRaw, &reg.Metadata)
	}
	return reg, nil
}

func (s *Store) ListRegistries(ctx context.Context) ([]registry.Registry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, admin, name, metadata, created_at, updated_at
		FROM craft_registries
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []registry.Registry
	for rows.Next() {
		var (
			reg         registry.Registry
			metadataRaw []byte
		)
		if err := rows.Scan(&reg.ID, &reg.Admin, &reg.Name, &metadataRaw, &reg.CreatedAt, &reg.UpdatedAt); err != nil {
			return nil, err
		}
		if len(metadataRaw) > 0 {
			_ = json.Unmarshal(metadataRaw, &reg.Metadata)
		}
		result = append(result, reg)
	}
	return result, rows.Err()
}

// --- ArchetypeStore ---------------------------------------------------------

func (s *Store) CreateArchetype(ctx context.Context, arch archetype.Archetype) (archetype.Archetype, error) {
	if arch.ID == "" {
		arch.ID = uuid.NewString()
	}
	arch.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO craft_archetypes (id, registry_id, metadata, created_at)
		VALUES ($1, $2, $3, $4)
	`, arch.ID, arch.RegistryID, []byte(arch.Metadata), arch.CreatedAt)
	if err != nil {
		return archetype.Archetype{}, err
	}
	return arch, nil
}

func (s *Store) GetArchetype(ctx context.Context, id string) (archetype.Archetype, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, metadata, created_at
		FROM craft_archetypes
		WHERE id = $1
	`, id)

	var (
		arch        archetype.Archetype
		metadataRaw []byte
	)
	if err := row.Scan(&arch.ID, &arch.RegistryID, &metadataRaw, &arch.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return archetype.Archetype{}, archetype.ErrNotFound
		}
		return archetype.Archetype{}, err
	}
	arch.Metadata = metadataRaw
	return arch, nil
}

func (s *Store) ListArchetypes(ctx context.Context, registryID string) ([]archetype.Archetype, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, registry_id, metadata, created_at
		FROM craft_archetypes
		WHERE registry_id = $1
		ORDER BY created_at
	`, registryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []archetype.Archetype
	for rows.Next() {
		var (
			arch        archetype.Archetype
			metadataRaw []byte
		)
		if err := rows.Scan(&arch.ID, &arch.RegistryID, &metadataRaw, &arch.CreatedAt); err != nil {
			return nil, err
		}
		arch.Metadata = metadataRaw
		result = append(result, arch)
	}
	return result, rows.Err()
}

// --- BasicsStore ------------------------------------------------------------

func (s *Store) AddBasic(ctx context.Context, registryID, archetypeID string) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO craft_basics (registry_id, archetype_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (registry_id, archetype_id) DO NOTHING
	`, registryID, archetypeID, time.Now().UTC())
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return registry.ErrAlreadyBasic
	}
	return nil
}

func (s *Store) RemoveBasic(ctx context.Context, registryID, archetypeID string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM craft_basics
		WHERE registry_id = $1 AND archetype_id = $2
	`, registryID, archetypeID)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return registry.ErrNotBasic
	}
	return nil
}

func (s *Store) IsBasic(ctx context.Context, registryID, archetypeID string) (bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM craft_basics
			WHERE registry_id = $1 AND archetype_id = $2
		)
	`, registryID, archetypeID)

	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (s *Store) ListBasics(ctx context.Context, registryID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT archetype_id FROM craft_basics
		WHERE registry_id = $1
		ORDER BY archetype_id
	`, registryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// --- RecipeStore ------------------------------------------------------------

func (s *Store) CreateRecipe(ctx context.Context, rec recipe.Recipe) (recipe.Recipe, error) {
	rec.CreatedAt = time.Now().UTC()

	// Recipes are write-once per result archetype. ON CONFLICT DO NOTHING
	// keeps the prior recipe intact; zero affected rows means a duplicate.
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO craft_recipes (registry_id, result, input_a, input_b, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (registry_id, result) DO NOTHING
	`, rec.RegistryID, rec.Result, rec.InputA, rec.InputB, rec.CreatedAt)
	if err != nil {
		return recipe.Recipe{}, err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return recipe.Recipe{}, recipe.ErrAlreadyDefined
	}
	return rec, nil
}

func (s *Store) GetRecipe(ctx context.Context, registryID, result string) (recipe.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT registry_id, result, input_a, input_b, created_at
		FROM craft_recipes
		WHERE registry_id = $1 AND result = $2
	`, registryID, result)

	var rec recipe.Recipe
	if err := row.Scan(&rec.RegistryID, &rec.Result, &rec.InputA, &rec.InputB, &rec.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return recipe.Recipe{}, recipe.ErrNotFound
		}
		return recipe.Recipe{}, err
	}
	return rec, nil
}

func (s *Store) ListRecipes(ctx context.Context, registryID string) ([]recipe.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT registry_id, result, input_a, input_b, created_at
		FROM craft_recipes
		WHERE registry_id = $1
		ORDER BY created_at
	`, registryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []recipe.Recipe
	for rows.Next() {
		var rec recipe.Recipe
		if err := rows.Scan(&rec.RegistryID, &rec.Result, &rec.InputA, &rec.InputB, &rec.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	return result, rows.Err()
}

// --- InstanceStore ----------------------------------------------------------

func (s *Store) CreateInstance(ctx context.Context, inst instance.Instance) (instance.Instance, error) {
	if inst.ID == "" {
		inst.ID = uuid.NewString()
	}
	inst.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO craft_instances (id, registry_id, archetype_id, owner, minted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, inst.ID, inst.RegistryID, inst.ArchetypeID, inst.Owner, string(inst.MintedBy), inst.CreatedAt)
	if err != nil {
		return instance.Instance{}, err
	}
	return inst, nil
}

func (s *Store) GetInstance(ctx context.Context, id string) (instance.Instance, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, registry_id, archetype_id, owner, minted_by, created_at
		FROM craft_instances
		WHERE id = $1
	`, id)

	var (
		inst instance.Instance
		kind string
	)
	if err := row.Scan(&inst.ID, &inst.RegistryID, &inst.ArchetypeID, &inst.Owner, &kind, &inst.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return instance.Instance{}, instance.ErrNotFound
		}
		return instance.Instance{}, err
	}
	inst.MintedBy = instance.MintKind(kind)
	return inst, nil
}

func (s *Store) ListInstancesByOwner(ctx context.Context, registryID, owner string) ([]instance.Instance, error) {
	return s.listInstances(ctx, `
		SELECT id, registry_id, archetype_id, owner, minted_by, created_at
		FROM craft_instances
		WHERE registry_id = $1 AND owner = $2
		ORDER BY created_at
	`, registryID, owner)
}

func (s *Store) ListInstancesByRegistry(ctx context.Context, registryID string) ([]instance.Instance, error) {
	return s.listInstances(ctx, `
		SELECT id, registry_id, archetype_id, owner, minted_by, created_at
		FROM craft_instances
		WHERE registry_id = $1
		ORDER BY created_at
	`, registryID)
}

func (s *Store) listInstances(ctx context.Context, query string, args ...any) ([]instance.Instance, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []instance.Instance
	for rows.Next() {
		var (
			inst instance.Instance
			kind string
		)
		if err := rows.Scan(&inst.ID, &inst.RegistryID, &inst.ArchetypeID, &inst.Owner, &kind, &inst.CreatedAt); err != nil {
			return nil, err
		}
		inst.MintedBy = instance.MintKind(kind)
		result = append(result, inst)
	}
	return result, rows.Err()
}
