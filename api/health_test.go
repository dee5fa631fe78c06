package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartcat-ai/askcat/internal/knowledge"
	"github.com/smartcat-ai/askcat/internal/log"
)

type fakeCounter struct {
	count int
	err   error
}

func (f *fakeCounter) Count(context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func getPath(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthHandler_Liveness(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerConfig{Assistant: &fakeAssistant{}, Logger: log.NewNop()})
	w := getPath(t, srv.Handler(), "/health")

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestHealthHandler_ReadinessReportsItems(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerConfig{
		Assistant: &fakeAssistant{},
		Store:     &fakeCounter{count: 42},
		Logger:    log.NewNop(),
	})
	w := getPath(t, srv.Handler(), "/ready")

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 42, resp.Items)
}

func TestHealthHandler_ReadinessStoreUnavailable(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerConfig{
		Assistant: &fakeAssistant{},
		Store:     &fakeCounter{err: fmt.Errorf("%w: entities table missing", knowledge.ErrStoreUnavailable)},
		Logger:    log.NewNop(),
	})
	w := getPath(t, srv.Handler(), "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "knowledge store unavailable")
}

func TestHealthHandler_ReadinessEmptyStore(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerConfig{
		Assistant: &fakeAssistant{},
		Store:     &fakeCounter{count: 0},
		Logger:    log.NewNop(),
	})
	w := getPath(t, srv.Handler(), "/ready")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "knowledge base not ready")
}
