// Package archetype defines the element archetype (mould) template type.
package archetype

import (
	"encoding/json"
	"errors"
	"time"
)

// Archetype is an immutable element template. Metadata is an opaque JSON
// document the core never interprets; display fields inside it belong to the
// metadata collaborator.
type Archetype struct {
	ID         string          `json:"id"`
	RegistryID string          `json:"registry_id"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// ErrNotFound indicates the archetype does not exist.
var ErrNotFound = errors.New("archetype not found")
