package api

import (
	"errors"
	"net/http"

	"github.com/wovenlabs/loom/pkg/httputil"
	"github.com/wovenlabs/loom/pkg/registry"
)

// loadExtension handles POST /extensions/{id}/load
func (s *Server) loadExtension(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if _, err := s.loader.Load(r.Context(), id); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	httputil.WriteSuccessMessage(w, "extension loaded", map[string]string{"id": id})
}

// activateExtension handles POST /extensions/{id}/activate
func (s *Server) activateExtension(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.loader.Activate(r.Context(), id); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	httputil.WriteSuccessMessage(w, "extension activated", map[string]string{"id": id})
}

// deactivateExtension handles POST /extensions/{id}/deactivate
func (s *Server) deactivateExtension(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.loader.Deactivate(r.Context(), id); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	httputil.WriteSuccessMessage(w, "extension deactivated", map[string]string{"id": id})
}

// unloadExtension handles POST /extensions/{id}/unload
func (s *Server) unloadExtension(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if err := s.loader.Unload(r.Context(), id); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	httputil.WriteSuccessMessage(w, "extension unloaded", map[string]string{"id": id})
}

// reloadExtension handles POST /extensions/{id}/reload. Reload is
// unload followed by load and, if the extension was enabled before,
// activate.
func (s *Server) reloadExtension(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	meta, err := s.registry.Get(id)
	if err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	wasEnabled := meta.State == registry.StateEnabled

	if err := s.loader.Unload(r.Context(), id); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	if _, err := s.loader.Load(r.Context(), id); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	if wasEnabled {
		if err := s.loader.Activate(r.Context(), id); err != nil {
			s.writeLifecycleError(w, err)
			return
		}
	}

	httputil.WriteSuccessMessage(w, "extension reloaded", map[string]string{"id": id})
}

// loadAll handles POST /lifecycle/load
func (s *Server) loadAll(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.LoadAll(r.Context()); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	httputil.WriteSuccessMessage(w, "load pass complete", s.lifecycleSummary())
}

// activateAll handles POST /lifecycle/activate
func (s *Server) activateAll(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.ActivateAll(r.Context()); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	httputil.WriteSuccessMessage(w, "activation pass complete", s.lifecycleSummary())
}

// deactivateAll handles POST /lifecycle/deactivate
func (s *Server) deactivateAll(w http.ResponseWriter, r *http.Request) {
	if err := s.loader.DeactivateAll(r.Context()); err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	httputil.WriteSuccessMessage(w, "deactivation pass complete", s.lifecycleSummary())
}

// lifecycleSummary reports per-state extension counts after a bulk
// operation.
func (s *Server) lifecycleSummary() map[string]int {
	summary := make(map[string]int)
	for _, meta := range s.registry.List() {
		summary[string(meta.State)]++
	}
	return summary
}

// writeLifecycleError maps lifecycle errors to HTTP status codes.
func (s *Server) writeLifecycleError(w http.ResponseWriter, err error) {
	var cycleErr *registry.CircularDependencyError
	switch {
	case errors.Is(err, registry.ErrNotFound):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.As(err, &cycleErr):
		httputil.WriteConflict(w, err.Error())
	default:
		httputil.WriteInternalError(w, err)
	}
}
