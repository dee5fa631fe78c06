package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcat-ai/askcat/internal/log"
)

const healthCheckTimeout = 5 * time.Second

// HealthResponse is the response body for the probes.
type HealthResponse struct {
	Status string `json:"status"`
	Items  int    `json:"items,omitempty"`
}

// HealthHandler serves liveness and readiness probes. Liveness always
// succeeds while the process runs; readiness checks the database and
// reports the knowledge base size.
type HealthHandler struct {
	pool   *pgxpool.Pool
	store  ItemCounter
	logger log.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(pool *pgxpool.Pool, store ItemCounter, logger log.Logger) *HealthHandler {
	return &HealthHandler{pool: pool, store: store, logger: logger}
}

// RegisterRoutes registers the probe routes on the mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.handleLiveness)
	mux.HandleFunc("GET /ready", h.handleReadiness)
}

func (h *HealthHandler) handleLiveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *HealthHandler) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", "check", "database", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "database unavailable"})
			return
		}
	}

	items := 0
	if h.store != nil {
		n, err := h.store.Count(ctx)
		if err != nil {
			h.logger.Warn("readiness check failed", "check", "knowledge store", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "knowledge store unavailable"})
			return
		}
		if n == 0 {
			// An empty store answers every question with the no-results
			// sentinel; don't route traffic until an index run completes.
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "knowledge base not ready"})
			return
		}
		items = n
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Items: items})
}
