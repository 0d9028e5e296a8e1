package registry

import "errors"

// Shared failure modes surfaced by registry operations. Stores and services
// return these same sentinels so callers can branch with errors.Is.
var (
	// ErrUnauthorized indicates the caller is not the registry admin or does
	// not hold the authority capability.
	ErrUnauthorized = errors.New("caller is not authorized for this registry")

	// ErrAlreadyBasic indicates an archetype is already in the basics set.
	ErrAlreadyBasic = errors.New("archetype is already marked as basic")

	// ErrNotBasic indicates an archetype is absent from the basics set.
	ErrNotBasic = errors.New("archetype is not marked as basic")

	// ErrNotFound indicates the registry does not exist.
	ErrNotFound = errors.New("registry not found")
)
