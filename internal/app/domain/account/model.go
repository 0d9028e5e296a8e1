// Package account defines the account model for registry admins and crafters.
package account

import (
	"errors"
	"time"
)

// Account represents a logical owner of registries and instances.
type Account struct {
	ID        string            `json:"id"`
	Owner     string            `json:"owner"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ErrNotFound indicates the account does not exist.
var ErrNotFound = errors.New("account not found")
