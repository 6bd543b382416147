package provider

import "sync"

// Registry is a reader/writer-locked directory from provider id to
// Session. Lifecycle operations (Add, which also replaces, Remove, Clear)
// take the write side; lookups take the read side, so state-cache polling, call
// routing, and operational queries never block each other. Returned
// Session values are shares: the registry may lose its reference to a
// session while a caller still holds one, and the caller's reference
// remains valid for its current operation.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add installs a session under its provider id. Replaces any existing
// entry for the same id without closing it; the caller is responsible for
// shutting down a replaced session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ProviderID()] = s
}

// Remove deletes the entry for providerID, if any.
func (r *Registry) Remove(providerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, providerID)
}

// Get returns the session for providerID, if registered.
func (r *Registry) Get(providerID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[providerID]
	return s, ok
}

// GetAll returns a value snapshot of the registry, decoupling iteration
// from concurrent mutation.
func (r *Registry) GetAll() map[string]*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		out[id] = s
	}
	return out
}

// Clear empties the registry. Callers must shut down the sessions
// themselves; Clear only drops the registry's references.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = make(map[string]*Session)
}
