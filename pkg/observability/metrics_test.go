package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewMetrics tests that all metrics register without collision
func TestNewMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	require.NotNil(t, m)

	m.LoadsTotal.WithLabelValues("success").Inc()
	m.ActivationsTotal.WithLabelValues("error").Inc()
	m.LifecycleErrorsTotal.WithLabelValues("activate").Inc()
	m.ExtensionsRegistered.Set(4)
	m.ExtensionsEnabled.Set(2)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["loom_extension_loads_total"])
	assert.True(t, names["loom_extension_activations_total"])
	assert.True(t, names["loom_extension_lifecycle_errors_total"])
	assert.True(t, names["loom_extensions_registered"])
	assert.True(t, names["loom_extensions_enabled"])
}

// TestHTTPMetricsMiddleware tests request counting with status labels
func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/extensions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)

	count := testutilCounterValue(t, registry, "loom_http_requests_total")
	assert.Equal(t, 1.0, count)
}

// TestRegisterMetricsEndpoint tests the /metrics exposition
func TestRegisterMetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.ExtensionsRegistered.Set(7)

	mux := http.NewServeMux()
	RegisterMetricsEndpoint(mux, registry)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "loom_extensions_registered 7"))
}

// testutilCounterValue sums the samples of a counter family.
func testutilCounterValue(t *testing.T, registry *prometheus.Registry, name string) float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
