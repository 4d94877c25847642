package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/jsonindex/adapter"
	"github.com/c360/jsonindex/config"
	"github.com/c360/jsonindex/engine"
	"github.com/c360/jsonindex/metric"
)

func newGateway(t *testing.T) (*Server, *engine.Engine) {
	t.Helper()

	eng := engine.New(config.Default(), nil, nil)
	require.NoError(t, eng.Adapter().RegisterEntityType("entity", adapter.TypeConfig{IDProperty: "id"}))
	eng.Index(map[string]any{
		"entity": []any{
			map[string]any{"id": 1, "name": "A"},
			map[string]any{"id": 2, "name": "B"},
		},
		"tags": []any{"x", "y", "z"},
	})

	return New(eng, nil, nil, nil), eng
}

func get(t *testing.T, s *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestLookupKeyEndpoint(t *testing.T) {
	s, _ := newGateway(t)

	rec, body := get(t, s, "/v1/lookup/entity/name/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "entity", body["root"])
	assert.Equal(t, "name", body["field"])
	assert.Equal(t, "1", body["key"])
	assert.Equal(t, 1.0, body["count"])
	require.Len(t, body["items"], 1)
}

func TestLookupFieldEndpoint(t *testing.T) {
	s, _ := newGateway(t)

	rec, body := get(t, s, "/v1/lookup/entity/name")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2.0, body["count"])
}

func TestLookupRootEndpoint(t *testing.T) {
	s, _ := newGateway(t)

	rec, body := get(t, s, "/v1/lookup/tags")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"x", "y", "z"}, body["items"])
}

func TestLookupNotFound(t *testing.T) {
	s, _ := newGateway(t)

	rec, body := get(t, s, "/v1/lookup/missing")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "root collection not found")

	rec, _ = get(t, s, "/v1/lookup/entity/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = get(t, s, "/v1/lookup/entity/name/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRootsEndpoint(t *testing.T) {
	s, _ := newGateway(t)

	rec, body := get(t, s, "/v1/roots")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []any{"entity", "tags"}, body["roots"])
}

func TestHealthEndpoint(t *testing.T) {
	eng := engine.New(config.Default(), nil, nil)

	healthy := true
	s := New(eng, nil, nil, func() bool { return healthy })

	rec, body := get(t, s, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["healthy"])

	healthy = false
	rec, body = get(t, s, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["healthy"])
}

func TestMetricsEndpoint(t *testing.T) {
	eng := engine.New(config.Default(), nil, nil)
	registry := metric.NewRegistry()
	s := New(eng, nil, registry, nil)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestCounter(t *testing.T) {
	s, _ := newGateway(t)

	get(t, s, "/v1/lookup/tags")
	get(t, s, "/v1/lookup/missing")
	get(t, s, "/healthz") // not a lookup

	assert.Equal(t, int64(2), s.Requests())
}
