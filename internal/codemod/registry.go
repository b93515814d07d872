package codemod

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds codemod specs by ID.
type Registry struct {
	mu    sync.RWMutex
	specs map[string]Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]Spec)}
}

// DefaultRegistry returns a registry holding the bundled codemods.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, s := range Builtins() {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a spec. IDs must be unique and every spec needs a transform.
func (r *Registry) Register(s Spec) error {
	if s.ID == "" {
		return fmt.Errorf("cannot register codemod with empty ID")
	}
	if s.Transform == nil {
		return fmt.Errorf("codemod '%s' has no transform", s.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.specs[s.ID]; exists {
		return fmt.Errorf("codemod '%s' is already registered", s.ID)
	}
	r.specs[s.ID] = s
	return nil
}

// Get retrieves a spec by ID.
func (r *Registry) Get(id string) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.specs[id]
	return s, ok
}

// Specs returns every registered spec in ID order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]Spec, 0, len(r.specs))
	for _, s := range r.specs {
		specs = append(specs, s)
	}
	sort.Slice(specs, func(i, j int) bool { return specs[i].ID < specs[j].ID })
	return specs
}

// Len returns the number of registered specs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.specs)
}
