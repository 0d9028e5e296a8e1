// Package registry defines the crafting registry aggregate: the admin-owned
// catalogue root that recipes, basics and minting authority hang off.
package registry

import "time"

// Registry is the shared root of a crafting catalogue. The admin account is
// fixed at creation; there is no rotation operation.
type Registry struct {
	ID        string            `json:"id"`
	Admin     string            `json:"admin"`
	Name      string            `json:"name"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Capability proves minting and catalogue-mutation authority over one
// registry. It is created exactly once, together with the registry, and
// cannot be constructed outside this package: code that holds a Capability
// got it from New or from whoever New handed it to.
type Capability struct {
	minted     bool
	registryID string
}

// New creates a registry owned by admin along with its authority capability.
func New(admin, name string, metadata map[string]string) (Registry, Capability) {
	now := time.Now().UTC()
	reg := Registry{
		Admin:     admin,
		Name:      name,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return reg, Capability{minted: true}
}

// Bind attaches the capability to a registry identifier once the store has
// allocated one. A capability binds at most once, and only a capability
// minted by New can bind: the zero value stays inert.
func (c Capability) Bind(registryID string) Capability {
	if c.minted && c.registryID == "" {
		c.registryID = registryID
	}
	return c
}

// Grants reports whether the capability carries authority over the registry.
func (c Capability) Grants(registryID string) bool {
	return c.registryID != "" && c.registryID == registryID
}

// IsAdmin reports whether caller holds mutation rights over the registry.
func (r Registry) IsAdmin(caller string) bool {
	return r.Admin != "" && r.Admin == caller
}
