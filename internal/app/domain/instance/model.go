// Package instance defines owned element instances minted from archetypes.
package instance

import (
	"errors"
	"time"
)

// MintKind records which operation produced an instance.
type MintKind string

const (
	MintKindStarter     MintKind = "starter"
	MintKindCombination MintKind = "combination"
)

// Instance is a concrete owned object referencing exactly one archetype, its
// origin. Instances are created only by the ledger under authority of the
// registry capability and are never destroyed here.
type Instance struct {
	ID          string    `json:"id"`
	RegistryID  string    `json:"registry_id"`
	ArchetypeID string    `json:"archetype_id"`
	Owner       string    `json:"owner"`
	MintedBy    MintKind  `json:"minted_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ErrNotFound indicates the instance does not exist.
var ErrNotFound = errors.New("instance not found")
