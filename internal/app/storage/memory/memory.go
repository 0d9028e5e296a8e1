// Package memory provides an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/account"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/archetype"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/recipe"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/registry"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces.
type Store struct {
	mu         sync.RWMutex
	nextID     int64
	accounts   map[string]account.Account
	registries map[string]registry.Registry
	archetypes map[string]archetype.Archetype
	basics     map[string]map[string]struct{} // registryID -> archetype set
	recipes    map[string]map[string]recipe.Recipe
	instances  map[string]instance.Instance
}

var _ storage.AccountStore = (*Store)(nil)
var _ storage.RegistryStore = (*Store)(nil)
var _ storage.ArchetypeStore = (*Store)(nil)
var _ storage.BasicsStore = (*Store)(nil)
var _ storage.RecipeStore = (*Store)(nil)
var _ storage.InstanceStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		nextID:     1,
		accounts:   make(map[string]account.Account),
		registries: make(map[string]registry.Registry),
		archetypes: make(map[string]archetype.Archetype),
		basics:     make(map[string]map[string]struct{}),
		recipes:    make(map[string]map[string]recipe.Recipe),
		instances:  make(map[string]instance.Instance),
	}
}

func (s *Store) nextIDLocked() string {
	id := s.nextID
	s.nextID++
	return fmt.Sprintf("%d", id)
}

// AccountStore implementation -------------------------------------------------

func (s *Store) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if acct.ID == "" {
		acct.ID = s.nextIDLocked()
	} else if _, exists := s.accounts[acct.ID]; exists {
		return account.Account{}, fmt.Errorf("account %s already exists", acct.ID)
	}

	now := time.Now().UTC()
	acct.CreatedAt = now
	acct.UpdatedAt = now
	acct.Metadata = cloneMap(acct.Metadata)

	s.accounts[acct.ID] = acct
	return acct, nil
}

func (s *Store) UpdateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.accounts[acct.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	acct.CreatedAt = original.CreatedAt
	acct.UpdatedAt = time.Now().UTC()
	acct.Metadata = cloneMap(acct.Metadata)

	s.accounts[acct.ID] = acct
	return acct, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acct, ok := s.accounts[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return acct, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]account.Account, 0, len(s.accounts))
	for _, acct := range s.accounts {
		result = append(result, acct)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) DeleteAccount(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return account.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// RegistryStore implementation ------------------------------------------------

func (s *Store) CreateRegistry(_ context.Context, reg registry.Registry) (registry.Registry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reg.ID == "" {
		reg.ID = s.nextIDLocked()
	} else if _, exists := s.registries[reg.ID]; exists {
		return registry.Registry{}, fmt.Errorf("registry %s already exists", reg.ID)
	}

	now := time.Now().UTC()
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = now
	}
	reg.UpdatedAt = now
	reg.Metadata = cloneMap(reg.Metadata)

	s.registries[reg.ID] = reg
	return reg, nil
}

func (s *Store) GetRegistry(_ context.Context, id string) (registry.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reg, ok := s.registries[id]
	if !ok {
		return registry.Registry{}, registry.ErrNotFound
	}
	return reg, nil
}

func (s *Store) ListRegistries(_ context.Context) ([]registry.Registry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]registry.Registry, 0, len(s.registries))
	for _, reg := range s.registries {
		result = append(result, reg)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ArchetypeStore implementation -----------------------------------------------

func (s *Store) CreateArchetype(_ context.Context, arch archetype.Archetype) (archetype.Archetype, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if arch.ID == "" {
		arch.ID = s.nextIDLocked()
	} else if _, exists := s.archetypes[arch.ID]; exists {
		return archetype.Archetype{}, fmt.Errorf("archetype %s already exists", arch.ID)
	}

	arch.CreatedAt = time.Now().UTC()
	arch.Metadata = append([]byte(nil), arch.Metadata...)

	s.archetypes[arch.ID] = arch
	return arch, nil
}

func (s *Store) GetArchetype(_ context.Context, id string) (archetype.Archetype, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	arch, ok := s.archetypes[id]
	if !ok {
		return archetype.Archetype{}, archetype.ErrNotFound
	}
	return arch, nil
}

func (s *Store) ListArchetypes(_ context.Context, registryID string) ([]archetype.Archetype, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []archetype.Archetype
	for _, arch := range s.archetypes {
		if arch.RegistryID == registryID {
			result = append(result, arch)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// BasicsStore implementation --------------------------------------------------

func (s *Store) AddBasic(_ context.Context, registryID, archetypeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.basics[registryID]
	if !ok {
		set = make(map[string]struct{})
		s.basics[registryID] = set
	}
	if _, exists := set[archetypeID]; exists {
		return registry.ErrAlreadyBasic
	}
	set[archetypeID] = struct{}{}
	return nil
}

func (s *Store) RemoveBasic(_ context.Context, registryID, archetypeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.basics[registryID]
	if !ok {
		return registry.ErrNotBasic
	}
	if _, exists := set[archetypeID]; !exists {
		return registry.ErrNotBasic
	}
	delete(set, archetypeID)
	return nil
}

func (s *Store) IsBasic(_ context.Context, registryID, archetypeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.basics[registryID]
	if !ok {
		return false, nil
	}
	_, exists := set[archetypeID]
	return exists, nil
}

func (s *Store) ListBasics(_ context.Context, registryID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.basics[registryID]
	result := make([]string, 0, len(set))
	for id := range set {
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}

// RecipeStore implementation --------------------------------------------------

func (s *Store) CreateRecipe(_ context.Context, rec recipe.Recipe) (recipe.Recipe, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, ok := s.recipes[rec.RegistryID]
	if !ok {
		table = make(map[string]recipe.Recipe)
		s.recipes[rec.RegistryID] = table
	}
	if _, exists := table[rec.Result]; exists {
		return recipe.Recipe{}, recipe.ErrAlreadyDefined
	}

	rec.CreatedAt = time.Now().UTC()
	table[rec.Result] = rec
	return rec, nil
}

func (s *Store) GetRecipe(_ context.Context, registryID, result string) (recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table, ok := s.recipes[registryID]
	if !ok {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	rec, exists := table[result]
	if !exists {
		return recipe.Recipe{}, recipe.ErrNotFound
	}
	return rec, nil
}

func (s *Store) ListRecipes(_ context.Context, registryID string) ([]recipe.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	table := s.recipes[registryID]
	result := make([]recipe.Recipe, 0, len(table))
	for _, rec := range table {
		result = append(result, rec)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Result < result[j].Result })
	return result, nil
}

// InstanceStore implementation ------------------------------------------------

func (s *Store) CreateInstance(_ context.Context, inst instance.Instance) (instance.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if inst.ID == "" {
		inst.ID = s.nextIDLocked()
	} else if _, exists := s.instances[inst.ID]; exists {
		return instance.Instance{}, fmt.Errorf("instance %s already exists", inst.ID)
	}

	inst.CreatedAt = time.Now().UTC()
	s.instances[inst.ID] = inst
	return inst, nil
}

func (s *Store) GetInstance(_ context.Context, id string) (instance.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[id]
	if !ok {
		return instance.Instance{}, instance.ErrNotFound
	}
	return inst, nil
}

func (s *Store) ListInstancesByOwner(_ context.Context, registryID, owner string) ([]instance.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []instance.Instance
	for _, inst := range s.instances {
		if inst.RegistryID == registryID && inst.Owner == owner {
			result = append(result, inst)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Store) ListInstancesByRegistry(_ context.Context, registryID string) ([]instance.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []instance.Instance
	for _, inst := range s.instances {
		if inst.RegistryID == registryID {
			result = append(result, inst)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func cloneMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
