package api

import (
	"net/http"

	"github.com/smartcat-ai/askcat/internal/log"
)

// ReindexResponse is the response body for POST /api/reindex.
type ReindexResponse struct {
	Indexed int `json:"indexed"`
}

// ReindexHandler triggers a full knowledge store rebuild. The rebuild is
// synchronous; a second request while one is running gets 409.
type ReindexHandler struct {
	indexer Reindexer
	logger  log.Logger
}

// NewReindexHandler creates a reindex handler.
func NewReindexHandler(idx Reindexer, logger log.Logger) *ReindexHandler {
	return &ReindexHandler{indexer: idx, logger: logger}
}

// RegisterRoutes registers the reindex route on the mux.
func (h *ReindexHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/reindex", h.handleReindex)
}

func (h *ReindexHandler) handleReindex(w http.ResponseWriter, r *http.Request) {
	// No request timeout here: embedding a full dataset legitimately takes
	// longer than a chat round trip. The write timeout still bounds it.
	count, err := h.indexer.Reindex(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	h.logger.Info("reindex completed", "indexed", count)
	writeJSON(w, http.StatusOK, ReindexResponse{Indexed: count})
}
