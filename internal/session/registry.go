// Package session holds the single-slot registry of the user checked in at the bin.
package session

import (
	"sync"

	"github.com/gofrs/uuid/v5"
)

// Registry tracks which user, if any, currently receives credit for physical
// disposals. There is exactly one slot: a new check-in silently replaces the
// previous occupant. State is process-local and lost on restart.
type Registry struct {
	mu     sync.Mutex
	active uuid.UUID // uuid.Nil when vacant
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry { return &Registry{} }

// SetActive checks the user in, replacing any current occupant.
func (r *Registry) SetActive(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = userID
}

// Clear checks out whoever occupies the slot.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = uuid.Nil
}

// Active returns the checked-in user and whether the slot is occupied.
func (r *Registry) Active() (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.active != uuid.Nil
}

// IsActive reports whether userID currently occupies the slot.
func (r *Registry) IsActive(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != uuid.Nil && r.active == userID
}
