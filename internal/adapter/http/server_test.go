package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	opshttp "github.com/couchcryptid/weather-insights-service/internal/adapter/http"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(checks ...opshttp.Check) *opshttp.Server {
	return opshttp.NewServer(":0", slog.New(slog.NewTextHandler(io.Discard, nil)), checks...)
}

func get(t *testing.T, srv *opshttp.Server, path string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]string
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealthzReturns200(t *testing.T) {
	rec, body := get(t, newTestServer(), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenAllChecksPass(t *testing.T) {
	srv := newTestServer(
		opshttp.Check{Name: "store", Checker: opshttp.ReadinessFunc(func(context.Context) error { return nil })},
		opshttp.Check{Name: "pipeline", Checker: &mockReadiness{}},
	)

	rec, body := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns200WithoutChecks(t *testing.T) {
	rec, _ := get(t, newTestServer(), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenACheckFails(t *testing.T) {
	srv := newTestServer(
		opshttp.Check{Name: "store", Checker: &mockReadiness{}},
		opshttp.Check{Name: "pipeline", Checker: &mockReadiness{err: errors.New("not ready yet")}},
	)

	rec, body := get(t, srv, "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "pipeline: not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec, _ := get(t, newTestServer(), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
