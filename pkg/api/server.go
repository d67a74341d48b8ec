package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/wovenlabs/loom/pkg/httputil"
	"github.com/wovenlabs/loom/pkg/loader"
	"github.com/wovenlabs/loom/pkg/manifest"
	"github.com/wovenlabs/loom/pkg/observability"
	"github.com/wovenlabs/loom/pkg/registry"
)

// maxBodyBytes caps request bodies; manifests are small.
const maxBodyBytes = 1 << 20

// Server is the administrative API server.
type Server struct {
	registry *registry.Registry
	loader   *loader.Loader
	router   *mux.Router
	metrics  *observability.Metrics
	events   *eventBuffer
}

// NewServer creates the API server and sets up its routes.
func NewServer(reg *registry.Registry, ld *loader.Loader) *Server {
	s := &Server{
		registry: reg,
		loader:   ld,
		router:   mux.NewRouter(),
		events:   &eventBuffer{},
	}

	s.events.subscribe(ld)
	s.setupRoutes()
	return s
}

// SetMetrics attaches HTTP metrics. Optional.
func (s *Server) SetMetrics(m *observability.Metrics) {
	s.metrics = m
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Registry introspection
	registry.NewHandlers(s.registry).RegisterRoutes(s.router)

	// Manifest validation
	s.router.HandleFunc("/manifests/validate", s.validateManifest).Methods("POST")

	// Lifecycle triggers
	s.router.HandleFunc("/extensions/{id}/load", s.loadExtension).Methods("POST")
	s.router.HandleFunc("/extensions/{id}/activate", s.activateExtension).Methods("POST")
	s.router.HandleFunc("/extensions/{id}/deactivate", s.deactivateExtension).Methods("POST")
	s.router.HandleFunc("/extensions/{id}/unload", s.unloadExtension).Methods("POST")
	s.router.HandleFunc("/extensions/{id}/reload", s.reloadExtension).Methods("POST")

	// Bulk lifecycle triggers
	s.router.HandleFunc("/lifecycle/load", s.loadAll).Methods("POST")
	s.router.HandleFunc("/lifecycle/activate", s.activateAll).Methods("POST")
	s.router.HandleFunc("/lifecycle/deactivate", s.deactivateAll).Methods("POST")

	// Lifecycle event introspection
	s.router.HandleFunc("/lifecycle/events", s.listEvents).Methods("GET")
}

// Handler returns the server's handler wrapped with tracing, request
// identification, logging, and panic recovery.
func (s *Server) Handler() http.Handler {
	var handler http.Handler = s.router
	if s.metrics != nil {
		handler = observability.HTTPMetricsMiddleware(s.metrics)(handler)
	}

	handler = httputil.Chain(
		httputil.RecoveryMiddleware,
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware,
		httputil.CORSMiddleware([]string{"*"}),
		httputil.MaxBytesMiddleware(maxBodyBytes),
	)(handler)

	return otelhttp.NewHandler(handler, "loom-api")
}

// validateManifest handles POST /manifests/validate. The body is raw
// manifest YAML; the response reports validity and field errors
// without registering anything. Size is capped by the middleware
// chain.
func (s *Server) validateManifest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequest(w, "failed to read request body: "+err.Error())
		return
	}

	result := manifest.Validate(body)
	httputil.WriteSuccess(w, result)
}
