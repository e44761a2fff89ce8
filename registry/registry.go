// Package registry resolves configured module identifiers into schema
// contributions.
//
// Modules are found through Sources. A compiled-in module registers a Loader
// with a Registry, usually the Default one from an init function:
//
//	func init() {
//		registry.MustRegister("blog", func(sb *schemabuilder.Schema) error {
//			sb.Query().FieldFunc("posts", listPosts)
//			return nil
//		})
//	}
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

// Loader fills sb with a module's query and mutation capabilities. Returning an
// error or panicking marks the module as failed.
type Loader func(sb *schemabuilder.Schema) error

// Source finds the loader of a module. ok is false when the source has no schema
// for id.
type Source interface {
	Lookup(id string) (loader Loader, ok bool)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(id string) (Loader, bool)

// Lookup implements Source.
func (f SourceFunc) Lookup(id string) (Loader, bool) {
	return f(id)
}

// Registry maintains loaders of compiled-in modules.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{loaders: map[string]Loader{}}
}

// Register installs a module loader. Returns an error if the ID already exists.
func (r *Registry) Register(id string, loader Loader) error {
	if id == "" {
		return fmt.Errorf("registry: id is required")
	}
	if loader == nil {
		return fmt.Errorf("registry: loader is required for %s", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loaders[id]; exists {
		return fmt.Errorf("registry: %s already registered", id)
	}
	r.loaders[id] = loader
	return nil
}

// MustRegister panics if registration fails.
func (r *Registry) MustRegister(id string, loader Loader) {
	if err := r.Register(id, loader); err != nil {
		panic(err)
	}
}

// Lookup implements Source.
func (r *Registry) Lookup(id string) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loader, ok := r.loaders[id]
	return loader, ok
}

// IDs returns a sorted list of registered module identifiers.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.loaders))
	for id := range r.loaders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Default is the registry compiled-in modules register with.
var Default = NewRegistry()

// Register installs loader in the Default registry.
func Register(id string, loader Loader) error {
	return Default.Register(id, loader)
}

// MustRegister installs loader in the Default registry and panics on failure.
func MustRegister(id string, loader Loader) {
	Default.MustRegister(id, loader)
}
