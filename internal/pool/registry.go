package pool

import (
	"fmt"
	"sort"
	"sync"
)

// Factory builds a pool for a single batch run. workers is the local worker
// count or the distributed world size, depending on the backend.
type Factory func(workers int) Pool

// Registry maps backend names to pool factories, hiding the choice of
// execution backend from engine callers.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty backend registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a pool factory to the registry under the given backend name.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Resolve returns the factory registered for the given backend name.
func (r *Registry) Resolve(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("backend %q is not registered", name)
	}
	return f, nil
}

// List returns the registered backend names, sorted for stable output.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
