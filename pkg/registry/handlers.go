package registry

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wovenlabs/loom/pkg/httputil"
)

// Handlers exposes read-only registry introspection over HTTP.
type Handlers struct {
	registry *Registry
}

// NewHandlers creates registry handlers.
func NewHandlers(registry *Registry) *Handlers {
	return &Handlers{registry: registry}
}

// RegisterRoutes registers registry routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/extensions", h.listExtensions).Methods("GET")
	router.HandleFunc("/extensions/graph", h.getGraph).Methods("GET")
	router.HandleFunc("/extensions/order", h.getOrder).Methods("GET")
	router.HandleFunc("/extensions/{id}", h.getExtension).Methods("GET")
	router.HandleFunc("/extensions/{id}/dependencies", h.getDependencies).Methods("GET")
	router.HandleFunc("/extensions/{id}/dependents", h.getDependents).Methods("GET")
}

// listExtensions handles GET /extensions
func (h *Handlers) listExtensions(w http.ResponseWriter, r *http.Request) {
	extensions := h.registry.List()

	// Optional ?state= filter
	if state := httputil.ParseQueryString(r, "state", ""); state != "" {
		filtered := extensions[:0:0]
		for _, meta := range extensions {
			if string(meta.State) == state {
				filtered = append(filtered, meta)
			}
		}
		extensions = filtered
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"extensions": extensions,
		"count":      len(extensions),
	})
}

// getExtension handles GET /extensions/{id}
func (h *Handlers) getExtension(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	meta, err := h.registry.Get(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.WriteNotFoundError(w, err.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, meta)
}

// getDependencies handles GET /extensions/{id}/dependencies
func (h *Handlers) getDependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	deps, err := h.registry.DependencyIDs(id)
	if err != nil {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"extension":    id,
		"dependencies": deps,
		"count":        len(deps),
	})
}

// getDependents handles GET /extensions/{id}/dependents
func (h *Handlers) getDependents(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	if !h.registry.Has(id) {
		httputil.WriteNotFoundError(w, "extension not found: "+id)
		return
	}

	dependents := h.registry.Dependents(id)
	httputil.WriteSuccess(w, map[string]interface{}{
		"extension":  id,
		"dependents": dependents,
		"count":      len(dependents),
	})
}

// getOrder handles GET /extensions/order
func (h *Handlers) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.registry.TopologicalOrder(h.registry.IDs())
	if err != nil {
		var cycleErr *CircularDependencyError
		if errors.As(err, &cycleErr) {
			httputil.WriteConflict(w, cycleErr.Error())
			return
		}
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{
		"order": order,
		"count": len(order),
	})
}

// getGraph handles GET /extensions/graph
func (h *Handlers) getGraph(w http.ResponseWriter, r *http.Request) {
	nodes, edgeMap := h.registry.GraphSnapshot()

	edges := make([]map[string]string, 0)
	for from, deps := range edgeMap {
		for _, to := range deps {
			edges = append(edges, map[string]string{
				"from": from,
				"to":   to,
			})
		}
	}

	response := map[string]interface{}{
		"nodes": nodes,
		"edges": edges,
	}

	if _, err := h.registry.TopologicalOrder(nodes); err != nil {
		var cycleErr *CircularDependencyError
		if errors.As(err, &cycleErr) {
			response["has_circular_dependency"] = true
			response["circular_path"] = cycleErr.Path
		}
	} else {
		response["has_circular_dependency"] = false
	}

	httputil.WriteSuccess(w, response)
}
