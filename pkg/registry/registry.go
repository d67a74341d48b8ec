package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wovenlabs/loom/pkg/dependencies"
	"github.com/wovenlabs/loom/pkg/manifest"
)

// Registry tracks every installed extension and its dependency graph.
// It is safe for concurrent readers; lifecycle writes come from a
// single logical caller (the loader) per extension id.
type Registry struct {
	mu         sync.RWMutex
	extensions map[string]*ExtensionMetadata
	order      []string // registration order, drives deterministic ties
	graph      *dependencies.Graph
	log        *logrus.Logger
}

// NewRegistry creates an empty extension registry.
func NewRegistry(log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}

	return &Registry{
		extensions: make(map[string]*ExtensionMetadata),
		graph:      dependencies.NewGraph(),
		log:        log,
	}
}

// Register validates the manifest and records the extension as
// INSTALLED at installPath. Re-registering an id overwrites the
// previous record; install tooling re-registers on update. The
// manifest's non-optional dependencies become edges in the dependency
// graph.
func (r *Registry) Register(m *manifest.Manifest, installPath string) error {
	if err := manifest.ValidateManifest(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkConflicts(m); err != nil {
		return err
	}

	_, replacing := r.extensions[m.ID]
	r.extensions[m.ID] = &ExtensionMetadata{
		Manifest:    m,
		State:       StateInstalled,
		InstallPath: installPath,
		InstalledAt: time.Now(),
	}
	if !replacing {
		r.order = append(r.order, m.ID)
	}

	r.graph.AddNode(m.ID, m.RequiredDependencyIDs())

	r.log.WithFields(logrus.Fields{
		"extension": m.ID,
		"version":   m.Version,
		"replaced":  replacing,
	}).Info("Registered extension")

	return nil
}

// checkConflicts enforces the conflicts field in both directions.
// Caller holds the write lock.
func (r *Registry) checkConflicts(m *manifest.Manifest) error {
	for _, conflictID := range m.Conflicts {
		if conflictID == m.ID {
			continue
		}
		if _, installed := r.extensions[conflictID]; installed {
			return &ConflictError{ID: m.ID, ConflictID: conflictID}
		}
	}

	for _, other := range r.extensions {
		if other.Manifest.ID == m.ID {
			continue
		}
		for _, conflictID := range other.Manifest.Conflicts {
			if conflictID == m.ID {
				return &ConflictError{ID: m.ID, ConflictID: other.Manifest.ID}
			}
		}
	}

	return nil
}

// Unregister removes the extension and its graph node. Dependents
// keep their dangling edge; activation surfaces the missing
// dependency. Removing an unknown id is a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.extensions[id]; !exists {
		return
	}

	delete(r.extensions, id)
	for i, orderedID := range r.order {
		if orderedID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.graph.RemoveNode(id)

	r.log.WithField("extension", id).Info("Unregistered extension")
}

// Get retrieves an extension's metadata by id.
func (r *Registry) Get(id string) (*ExtensionMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.extensions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return meta, nil
}

// Has reports whether the id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.extensions[id]
	return exists
}

// List returns metadata for every registered extension in
// registration order.
func (r *Registry) List() []*ExtensionMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*ExtensionMetadata, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.extensions[id])
	}

	return result
}

// IDs returns every registered id in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Count returns the number of registered extensions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.extensions)
}

// SetState transitions the extension to the given state and clears
// any recorded error.
func (r *Registry) SetState(id string, state State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, exists := r.extensions[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	meta.State = state
	if state != StateError {
		meta.Err = ""
	}
	return nil
}

// SetError transitions the extension to the error state and records
// the failure reason, regardless of its prior state.
func (r *Registry) SetError(id, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, exists := r.extensions[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	meta.State = StateError
	meta.Err = message

	r.log.WithFields(logrus.Fields{
		"extension": id,
		"error":     message,
	}).Warn("Extension entered error state")

	return nil
}

// SetModule records or clears the loaded module reference.
func (r *Registry) SetModule(id string, module interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, exists := r.extensions[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	meta.Module = module
	return nil
}

// DependencyIDs returns the extension's direct non-optional
// dependency ids in declaration order.
func (r *Registry) DependencyIDs(id string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	meta, exists := r.extensions[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return meta.Manifest.RequiredDependencyIDs(), nil
}

// Dependents returns the ids that directly depend on id.
func (r *Registry) Dependents(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.graph.Dependents(id)
}

// TopologicalOrder orders the requested ids so that every extension
// precedes its dependents, breaking ties by registration order. It
// returns a *CircularDependencyError, before any side effect, when
// the requested subset contains a cycle.
func (r *Registry) TopologicalOrder(ids []string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := r.inRegistrationOrder(ids)
	result, cycle, ok := r.graph.TopologicalSort(ordered)
	if !ok {
		return nil, &CircularDependencyError{Path: cycle}
	}

	return result, nil
}

// inRegistrationOrder reorders ids to match registration order so
// topological ties resolve deterministically. Caller holds a lock.
func (r *Registry) inRegistrationOrder(ids []string) []string {
	requested := make(map[string]bool, len(ids))
	for _, id := range ids {
		requested[id] = true
	}

	ordered := make([]string, 0, len(ids))
	for _, id := range r.order {
		if requested[id] {
			ordered = append(ordered, id)
			delete(requested, id)
		}
	}
	// Unregistered ids keep their caller-supplied order at the end.
	for _, id := range ids {
		if requested[id] {
			ordered = append(ordered, id)
			delete(requested, id)
		}
	}

	return ordered
}

// GraphSnapshot returns the node and edge sets for host tooling.
func (r *Registry) GraphSnapshot() ([]string, map[string][]string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	nodes := make([]string, len(r.order))
	copy(nodes, r.order)

	edges := make(map[string][]string, len(r.order))
	for _, id := range r.order {
		edges[id] = r.graph.Dependencies(id)
	}

	return nodes, edges
}

// Clear removes every registered extension. Used for full resets.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.extensions = make(map[string]*ExtensionMetadata)
	r.order = nil
	r.graph = dependencies.NewGraph()
}
