// Package crafting implements the combination engine: it validates claimed
// recipes against presented instances and mints results through the ledger.
package crafting

import (
	"context"
	"errors"
	"fmt"

	"github.com/R3E-Network/crafting_registry/internal/app/domain/instance"
	"github.com/R3E-Network/crafting_registry/internal/app/domain/recipe"
	"github.com/R3E-Network/crafting_registry/internal/app/services/ledger"
	"github.com/R3E-Network/crafting_registry/internal/app/services/registries"
	"github.com/R3E-Network/crafting_registry/internal/app/storage"
	"github.com/R3E-Network/crafting_registry/internal/metrics"
	"github.com/R3E-Network/crafting_registry/pkg/logger"
)

// MaxStarterCandidates is the fixed width of a starter-mint batch.
const MaxStarterCandidates = 4

var (
	// ErrUnknownRecipe indicates the claimed result has no recipe defined.
	ErrUnknownRecipe = errors.New("no recipe defined for claimed result")

	// ErrWrongCombination indicates the presented instances do not satisfy
	// the recipe for the claimed result.
	ErrWrongCombination = errors.New("presented instances do not match the recipe")

	// ErrTooManyCandidates indicates a starter batch exceeded the fixed width.
	ErrTooManyCandidates = fmt.Errorf("starter batch accepts at most %d candidates", MaxStarterCandidates)
)

// Service is the combination engine. Combination is non-destructive: input
// instances are read, never consumed, and a success mints exactly one new
// instance for the caller.
type Service struct {
	registries *registries.Service
	recipes    storage.RecipeStore
	basics     storage.BasicsStore
	instances  storage.InstanceStore
	ledger     *ledger.Service
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New constructs a crafting service.
func New(reg *registries.Service, recipes storage.RecipeStore, basics storage.BasicsStore, instances storage.InstanceStore, led *ledger.Service, m *metrics.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("crafting")
	}
	return &Service{
		registries: reg,
		recipes:    recipes,
		basics:     basics,
		instances:  instances,
		ledger:     led,
		metrics:    m,
		log:        log,
	}
}

// VerifyCombination checks whether two origin archetypes produce the claimed
// result. Fail-closed: a result with no recipe is ErrUnknownRecipe, never a
// successful match. The input pair is unordered.
func (s *Service) VerifyCombination(ctx context.Context, registryID, result, originA, originB string) error {
	rec, err := s.recipes.GetRecipe(ctx, registryID, result)
	if err != nil {
		if errors.Is(err, recipe.ErrNotFound) {
			return ErrUnknownRecipe
		}
		return err
	}
	if !rec.Matches(originA, originB) {
		return ErrWrongCombination
	}
	return nil
}

// Combine validates a claimed recipe against two presented instances and, on
// success, mints one instance of the result for the caller. The inputs are
// checked for existence only: callers may combine instances they do not own,
// and the inputs are left untouched either way. Any failure aborts before
// the mint, so no state changes on error.
func (s *Service) Combine(ctx context.Context, registryID, caller, result, instanceAID, instanceBID string) (instance.Instance, error) {
	if instanceAID == instanceBID {
		return s.CombineWithItself(ctx, registryID, caller, result, instanceAID)
	}

	instA, err := s.instances.GetInstance(ctx, instanceAID)
	if err != nil {
		return instance.Instance{}, s.failCombination(fmt.Errorf("input a: %w", err))
	}
	instB, err := s.instances.GetInstance(ctx, instanceBID)
	if err != nil {
		return instance.Instance{}, s.failCombination(fmt.Errorf("input b: %w", err))
	}

	return s.combine(ctx, registryID, caller, result, instA.ArchetypeID, instB.ArchetypeID)
}

// CombineWithItself combines a single instance with itself: both origins of
// the pair are read from the one presented instance.
func (s *Service) CombineWithItself(ctx context.Context, registryID, caller, result, instanceID string) (instance.Instance, error) {
	inst, err := s.instances.GetInstance(ctx, instanceID)
	if err != nil {
		return instance.Instance{}, s.failCombination(fmt.Errorf("input: %w", err))
	}
	return s.combine(ctx, registryID, caller, result, inst.ArchetypeID, inst.ArchetypeID)
}

func (s *Service) combine(ctx context.Context, registryID, caller, result, originA, originB string) (instance.Instance, error) {
	if err := s.VerifyCombination(ctx, registryID, result, originA, originB); err != nil {
		return instance.Instance{}, s.failCombination(err)
	}

	authority, err := s.registries.Capability(registryID)
	if err != nil {
		return instance.Instance{}, s.failCombination(err)
	}

	minted, err := s.ledger.Mint(ctx, authority, registryID, result, caller, instance.MintKindCombination)
	if err != nil {
		return instance.Instance{}, s.failCombination(err)
	}

	if s.metrics != nil {
		s.metrics.CombinationsTotal.WithLabelValues("success").Inc()
	}
	s.log.WithField("registry_id", registryID).Infof("combination %s + %s -> %s for %s", originA, originB, result, caller)
	return minted, nil
}

func (s *Service) failCombination(err error) error {
	if s.metrics != nil {
		s.metrics.CombinationsTotal.WithLabelValues("failure").Inc()
	}
	return err
}

// MintStarters mints starter instances for the caller from up to
// MaxStarterCandidates candidate archetypes. Candidates are independent:
// each member of the basics set is minted, each non-member is skipped
// silently, and one candidate's outcome never affects another's. The
// returned slice holds only the minted instances, in candidate order. A
// mid-batch store failure returns the instances minted so far alongside the
// error; those grants stand.
func (s *Service) MintStarters(ctx context.Context, registryID, caller string, candidates []string) ([]instance.Instance, error) {
	if len(candidates) > MaxStarterCandidates {
		return nil, ErrTooManyCandidates
	}
	if caller == "" {
		return nil, fmt.Errorf("caller is required")
	}

	authority, err := s.registries.Capability(registryID)
	if err != nil {
		return nil, err
	}

	var minted []instance.Instance
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		basic, err := s.basics.IsBasic(ctx, registryID, candidate)
		if err != nil {
			return minted, err
		}
		if !basic {
			// Non-basics are skipped, not rejected.
			continue
		}
		inst, err := s.ledger.Mint(ctx, authority, registryID, candidate, caller, instance.MintKindStarter)
		if err != nil {
			return minted, err
		}
		minted = append(minted, inst)
	}
	return minted, nil
}
