package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wovenlabs/loom/pkg/loader"
	"github.com/wovenlabs/loom/pkg/manifest"
	"github.com/wovenlabs/loom/pkg/registry"
)

type testModule struct{}

func newTestServer(t *testing.T, ids ...string) (*Server, *registry.Registry) {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	reg := registry.NewRegistry(log)
	for _, id := range ids {
		m := &manifest.Manifest{
			ID:       id,
			Name:     "Extension " + id,
			Version:  "1.0.0",
			Category: manifest.CategoryUtility,
			Main:     "index",
		}
		require.NoError(t, reg.Register(m, "/ext/"+id))
	}

	resolver := loader.ResolverFunc(func(ctx context.Context, installPath string) (loader.Module, error) {
		return &testModule{}, nil
	})

	return NewServer(reg, loader.NewLoader(reg, resolver, log)), reg
}

func doRequest(t *testing.T, s *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// TestListExtensions tests GET /extensions
func TestListExtensions(t *testing.T) {
	s, _ := newTestServer(t, "flow-designer", "chart-widgets")

	rec := doRequest(t, s, "GET", "/extensions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

// TestGetExtension tests GET /extensions/{id} and the 404 case
func TestGetExtension(t *testing.T) {
	s, _ := newTestServer(t, "flow-designer")

	rec := doRequest(t, s, "GET", "/extensions/flow-designer", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "flow-designer")

	rec = doRequest(t, s, "GET", "/extensions/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// TestActivateEndpoint tests the activation trigger
func TestActivateEndpoint(t *testing.T) {
	s, reg := newTestServer(t, "flow-designer")

	rec := doRequest(t, s, "POST", "/extensions/flow-designer/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	meta, err := reg.Get("flow-designer")
	require.NoError(t, err)
	assert.Equal(t, registry.StateEnabled, meta.State)
}

// TestDeactivateEndpoint tests the deactivation trigger
func TestDeactivateEndpoint(t *testing.T) {
	s, reg := newTestServer(t, "flow-designer")

	doRequest(t, s, "POST", "/extensions/flow-designer/activate", "")
	rec := doRequest(t, s, "POST", "/extensions/flow-designer/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)

	meta, err := reg.Get("flow-designer")
	require.NoError(t, err)
	assert.Equal(t, registry.StateDisabled, meta.State)
}

// TestLifecycleBulkEndpoints tests the bulk lifecycle passes
func TestLifecycleBulkEndpoints(t *testing.T) {
	s, reg := newTestServer(t, "base", "top")

	rec := doRequest(t, s, "POST", "/lifecycle/load", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s, "POST", "/lifecycle/activate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, id := range []string{"base", "top"} {
		meta, err := reg.Get(id)
		require.NoError(t, err)
		assert.Equal(t, registry.StateEnabled, meta.State)
	}

	rec = doRequest(t, s, "POST", "/lifecycle/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	meta, err := reg.Get("base")
	require.NoError(t, err)
	assert.Equal(t, registry.StateDisabled, meta.State)
}

// TestLifecycleCycleConflict tests that a dependency cycle maps to 409
func TestLifecycleCycleConflict(t *testing.T) {
	s, reg := newTestServer(t)

	a := &manifest.Manifest{
		ID: "ext-a", Name: "A", Version: "1.0.0",
		Category: manifest.CategoryUtility, Main: "index",
		Dependencies: []manifest.Dependency{{ID: "ext-b", Version: "1.0.0"}},
	}
	b := &manifest.Manifest{
		ID: "ext-b", Name: "B", Version: "1.0.0",
		Category: manifest.CategoryUtility, Main: "index",
		Dependencies: []manifest.Dependency{{ID: "ext-a", Version: "1.0.0"}},
	}
	require.NoError(t, reg.Register(a, "/ext/ext-a"))
	require.NoError(t, reg.Register(b, "/ext/ext-b"))

	rec := doRequest(t, s, "POST", "/lifecycle/load", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Circular dependency")
}

// TestValidateManifestEndpoint tests POST /manifests/validate
func TestValidateManifestEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	valid := "id: flow-designer\nname: Flow\nversion: 1.0.0\ncategory: utility\nmain: index\n"
	rec := doRequest(t, s, "POST", "/manifests/validate", valid)
	require.Equal(t, http.StatusOK, rec.Code)

	var result manifest.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Valid)

	rec = doRequest(t, s, "POST", "/manifests/validate", "id: X\n")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

// TestListEventsEndpoint tests GET /lifecycle/events and its filter
func TestListEventsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, "flow-designer", "chart-widgets")

	doRequest(t, s, "POST", "/extensions/flow-designer/activate", "")
	doRequest(t, s, "POST", "/extensions/chart-widgets/activate", "")
	doRequest(t, s, "POST", "/extensions/flow-designer/deactivate", "")

	rec := doRequest(t, s, "GET", "/lifecycle/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count  int            `json:"count"`
		Events []loader.Event `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	// load + activate per extension, then one deactivate
	assert.Equal(t, 5, resp.Count)
	assert.Equal(t, loader.EventDeactivated, resp.Events[4].Type)

	rec = doRequest(t, s, "GET", "/lifecycle/events?extension=chart-widgets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	for _, event := range resp.Events {
		assert.Equal(t, "chart-widgets", event.ExtensionID)
	}
}

// TestReloadEndpoint tests unload plus load plus reactivation
func TestReloadEndpoint(t *testing.T) {
	s, reg := newTestServer(t, "flow-designer")

	doRequest(t, s, "POST", "/extensions/flow-designer/activate", "")

	rec := doRequest(t, s, "POST", "/extensions/flow-designer/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)

	meta, err := reg.Get("flow-designer")
	require.NoError(t, err)
	assert.Equal(t, registry.StateEnabled, meta.State)
}
