package equipment

import (
	"fmt"
	"sync"
)

// Registry holds every equipment instance known to the engine, in
// registration order. It replaces ad hoc global equipment lists: the host
// builds one registry at bootstrap and hands it to the allocator's callers
// and to the release subsystem.
type Registry struct {
	mu     sync.Mutex
	items  []*Equipment
	byName map[string]*Equipment
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Equipment),
	}
}

// Add registers an equipment instance. Names must be unique.
func (r *Registry) Add(e *Equipment) error {
	if e == nil {
		return fmt.Errorf("nil equipment")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[e.Name]; exists {
		return fmt.Errorf("equipment %q already registered", e.Name)
	}
	r.byName[e.Name] = e
	r.items = append(r.items, e)
	return nil
}

// Get returns the equipment with the given name.
func (r *Registry) Get(name string) (*Equipment, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	return e, ok
}

// All returns the registered instances in registration order.
func (r *Registry) All() []*Equipment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Equipment, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
