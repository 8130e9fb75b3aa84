package relay

import "sync"

// Registry tracks every live connection by id. It is the single source of
// truth for who is connected. All reads and mutations go through one lock,
// so a broadcast never observes a half-applied connect or disconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register inserts a record for id. The id must not already be present.
func (r *Registry) Register(id string, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = c
}

// Unregister removes the record for id and reports whether it was present.
// Removing an absent id is a no-op, not an error: transport close and
// transport error can both request cleanup for the same connection.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	return true
}

// Get returns the connection registered under id.
func (r *Registry) Get(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Count returns the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ForEach visits every registered connection in unspecified order. The
// visitor may encounter connections that are no longer writable and must
// keep iterating past them.
func (r *Registry) ForEach(fn func(id string, c Conn)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.conns {
		fn(id, c)
	}
}
