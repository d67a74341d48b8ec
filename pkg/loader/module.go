package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// Module is the runnable form of an extension, produced by the
// injected code-loading capability. Lifecycle hooks are optional and
// discovered by type assertion against Activator and Deactivator;
// absence of either hook is valid.
type Module interface{}

// Activator is the optional activation hook an extension module may
// implement.
type Activator interface {
	Activate(ctx context.Context, actx *ActivationContext) error
}

// Deactivator is the optional deactivation hook an extension module
// may implement.
type Deactivator interface {
	Deactivate(ctx context.Context) error
}

// Resolver is the injected code-loading capability: it maps an
// extension's install path to a runnable module. How code is located
// and executed is the host's concern; this is the seam where a host
// integrates its own dynamic-loading or plugin-registry mechanism.
type Resolver interface {
	Resolve(ctx context.Context, installPath string) (Module, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, installPath string) (Module, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, installPath string) (Module, error) {
	return f(ctx, installPath)
}

// ModuleRegistry is the built-in resolver for compiled-in extensions:
// module factories register under a key, and an install path resolves
// by its base name. This replaces filesystem-driven dynamic loading
// with a process-wide lookup.
type ModuleRegistry struct {
	mu        sync.RWMutex
	factories map[string]func() (Module, error)
}

// NewModuleRegistry creates an empty module registry.
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		factories: make(map[string]func() (Module, error)),
	}
}

// RegisterFactory registers a module factory under a key. Extensions
// linked into the host register themselves here, typically from an
// init function or explicit wiring in main.
func (r *ModuleRegistry) RegisterFactory(key string, factory func() (Module, error)) error {
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for %s", key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[key]; exists {
		return fmt.Errorf("module factory already registered: %s", key)
	}

	r.factories[key] = factory
	return nil
}

// Resolve implements Resolver. The install path's base name is the
// lookup key.
func (r *ModuleRegistry) Resolve(ctx context.Context, installPath string) (Module, error) {
	key := filepath.Base(installPath)

	r.mu.RLock()
	factory, exists := r.factories[key]
	r.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("no module registered for %s", key)
	}

	return factory()
}

// Keys returns the registered factory keys.
func (r *ModuleRegistry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}

	return keys
}
