package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/smartcat-ai/askcat/internal/assistant"
	"github.com/smartcat-ai/askcat/internal/log"
	"github.com/smartcat-ai/askcat/internal/segment"
)

// ChatRequest is the request body for POST /api/chat.
type ChatRequest struct {
	Messages []assistant.Message `json:"messages"`
}

// ChatResponse is the response body for POST /api/chat.
type ChatResponse struct {
	Response string             `json:"response"`
	Segments []segment.Segment  `json:"segments"`
	Sources  []assistant.Source `json:"sources"`
}

// ChatHandler serves the grounded chat endpoint.
type ChatHandler struct {
	assistant Assistant
	logger    log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(a Assistant, logger log.Logger) *ChatHandler {
	return &ChatHandler{assistant: a, logger: logger}
}

// RegisterRoutes registers the chat route on the mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := h.assistant.ChatTurn(ctx, req.Messages)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response: result.Response,
		Segments: result.Segments,
		Sources:  result.Sources,
	})
}
