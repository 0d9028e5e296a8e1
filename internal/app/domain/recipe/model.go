// Package recipe defines combination recipes: the unordered input pair
// required to produce a result archetype.
package recipe

import (
	"errors"
	"time"
)

// Recipe maps a result archetype to its two input archetypes. Recipes are
// keyed by (registry, result), so at most one recipe exists per result.
// The input pair is unordered: Matches treats (a,b) and (b,a) alike.
type Recipe struct {
	RegistryID string    `json:"registry_id"`
	Result     string    `json:"result"`
	InputA     string    `json:"input_a"`
	InputB     string    `json:"input_b"`
	CreatedAt  time.Time `json:"created_at"`
}

// Matches reports whether the two presented origins satisfy the recipe in
// either order.
func (r Recipe) Matches(originA, originB string) bool {
	return (r.InputA == originA && r.InputB == originB) ||
		(r.InputA == originB && r.InputB == originA)
}

var (
	// ErrNotFound indicates no recipe is defined for the result archetype.
	ErrNotFound = errors.New("no recipe defined for result archetype")

	// ErrAlreadyDefined indicates the result archetype already has a recipe.
	// Recipes are write-once per result; redefinition is rejected.
	ErrAlreadyDefined = errors.New("recipe already defined for result archetype")
)
