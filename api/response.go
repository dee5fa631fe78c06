package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/smartcat-ai/askcat/internal/assistant"
	"github.com/smartcat-ai/askcat/internal/indexer"
	"github.com/smartcat-ai/askcat/internal/knowledge"
	"github.com/smartcat-ai/askcat/internal/log"
)

// ErrorResponse is the JSON error body for all endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; an encode failure here cannot be reported.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, ErrorResponse{Error: errType, Message: message})
}

// writeDomainError maps a domain error to an HTTP response. Upstream model
// provider failures surface as 502 so callers can tell them apart from bugs
// in this service.
func writeDomainError(w http.ResponseWriter, logger log.Logger, err error) {
	switch {
	case errors.Is(err, assistant.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, knowledge.ErrEmbedding), errors.Is(err, assistant.ErrGeneration):
		logger.Error("upstream provider error", "error", err)
		writeError(w, http.StatusBadGateway, "upstream_error", "AI provider request failed")
	case errors.Is(err, knowledge.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "knowledge base is not available")
	case errors.Is(err, indexer.ErrReindexRunning):
		writeError(w, http.StatusConflict, "reindex_running", "a reindex is already in progress")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
