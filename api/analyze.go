package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/smartcat-ai/askcat/internal/assistant"
	"github.com/smartcat-ai/askcat/internal/log"
)

// AnalyzeHandler serves the page analysis endpoint.
type AnalyzeHandler struct {
	assistant Assistant
	logger    log.Logger
}

// NewAnalyzeHandler creates an analyze handler.
func NewAnalyzeHandler(a Assistant, logger log.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{assistant: a, logger: logger}
}

// RegisterRoutes registers the analyze route on the mux.
func (h *AnalyzeHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze-page", h.handleAnalyze)
}

func (h *AnalyzeHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req assistant.PageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	report, err := h.assistant.AnalyzePage(ctx, req)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
