package auth

import (
	"sync"

	"github.com/google/uuid"
)

// CapabilityRegistry records the capability grants carried by validated
// tokens so approval guards can consult them by actor ID. The auth
// middleware refreshes an actor's entry on every authenticated request.
type CapabilityRegistry struct {
	mu     sync.RWMutex
	grants map[uuid.UUID]map[string]bool
}

// NewCapabilityRegistry creates an empty registry
func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{grants: make(map[uuid.UUID]map[string]bool)}
}

// Grant replaces the recorded capability set for an actor
func (r *CapabilityRegistry) Grant(actorID uuid.UUID, capabilities []string) {
	set := make(map[string]bool, len(capabilities))
	for _, c := range capabilities {
		set[c] = true
	}
	r.mu.Lock()
	r.grants[actorID] = set
	r.mu.Unlock()
}

// HasCapability reports whether the actor holds the capability
func (r *CapabilityRegistry) HasCapability(actorID uuid.UUID, capability string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.grants[actorID][capability]
}
