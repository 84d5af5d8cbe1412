package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DefaultName is the name a renderer is exposed under when none is given.
const DefaultName = "view"

// Registry stores renderers by name so HTTP handlers can look them up.
type Registry struct {
	mu        sync.RWMutex
	renderers map[string]*Renderer
}

// NewRegistry creates an empty registry instance.
func NewRegistry() *Registry {
	return &Registry{
		renderers: make(map[string]*Renderer),
	}
}

// Register adds a renderer under name, or DefaultName when name is empty.
// Duplicate names return an error.
func (r *Registry) Register(name string, renderer *Renderer) error {
	if renderer == nil {
		return fmt.Errorf("render: renderer is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.renderers[name]; exists {
		return fmt.Errorf("render: renderer %q already registered", name)
	}

	r.renderers[name] = renderer
	return nil
}

// MustRegister panics on registration failure. Useful for init-time wiring.
func (r *Registry) MustRegister(name string, renderer *Renderer) {
	if err := r.Register(name, renderer); err != nil {
		panic(err)
	}
}

// Get retrieves a renderer by name.
func (r *Registry) Get(name string) (*Renderer, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	renderer, ok := r.renderers[name]
	if !ok {
		return nil, fmt.Errorf("render: renderer %q not found", name)
	}
	return renderer, nil
}

// MustGet panics if the renderer is missing.
func (r *Registry) MustGet(name string) *Renderer {
	renderer, err := r.Get(name)
	if err != nil {
		panic(err)
	}
	return renderer
}

// List returns a sorted list of renderer names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.renderers))
	for name := range r.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a renderer is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.renderers[name]
	return ok
}
