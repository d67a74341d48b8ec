package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Lifecycle metrics
	LoadsTotal           *prometheus.CounterVec
	LoadDuration         prometheus.Histogram
	ActivationsTotal     *prometheus.CounterVec
	ActivationDuration   prometheus.Histogram
	DeactivationsTotal   *prometheus.CounterVec
	LifecycleErrorsTotal *prometheus.CounterVec

	// Manifest metrics
	ManifestValidationsTotal *prometheus.CounterVec

	// Business metrics
	ExtensionsRegistered prometheus.Gauge
	ExtensionsLoaded     prometheus.Gauge
	ExtensionsEnabled    prometheus.Gauge
	ExtensionsErrored    prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loom_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loom_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		LoadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loom_extension_loads_total",
				Help: "Total number of extension module loads",
			},
			[]string{"status"},
		),
		LoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loom_extension_load_duration_seconds",
				Help:    "Extension module load duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		ActivationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loom_extension_activations_total",
				Help: "Total number of extension activations",
			},
			[]string{"status"},
		),
		ActivationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "loom_extension_activation_duration_seconds",
				Help:    "Extension activation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		DeactivationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loom_extension_deactivations_total",
				Help: "Total number of extension deactivations",
			},
			[]string{"status"},
		),
		LifecycleErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loom_extension_lifecycle_errors_total",
				Help: "Total number of extension lifecycle failures",
			},
			[]string{"operation"},
		),

		ManifestValidationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loom_manifest_validations_total",
				Help: "Total number of manifest validations",
			},
			[]string{"status"},
		),

		ExtensionsRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loom_extensions_registered",
				Help: "Number of registered extensions",
			},
		),
		ExtensionsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loom_extensions_loaded",
				Help: "Number of extensions with a loaded module",
			},
		),
		ExtensionsEnabled: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loom_extensions_enabled",
				Help: "Number of enabled extensions",
			},
		),
		ExtensionsErrored: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "loom_extensions_errored",
				Help: "Number of extensions in the error state",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoadsTotal,
		m.LoadDuration,
		m.ActivationsTotal,
		m.ActivationDuration,
		m.DeactivationsTotal,
		m.LifecycleErrorsTotal,
		m.ManifestValidationsTotal,
		m.ExtensionsRegistered,
		m.ExtensionsLoaded,
		m.ExtensionsEnabled,
		m.ExtensionsErrored,
	)

	return m
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// RegisterMetricsEndpoint registers the /metrics endpoint
func RegisterMetricsEndpoint(mux *http.ServeMux, registry *prometheus.Registry) {
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
}
