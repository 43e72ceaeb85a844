package handlers

import (
	"errors"
	"net/http"

	"github.com/nomadgrid/nomadgrid/internal/chat"
	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/log"
)

// Chat serves the assistant conversation.
type Chat struct {
	mgr    *chat.Manager
	logger log.Logger
}

// NewChat creates the chat handler.
func NewChat(mgr *chat.Manager, logger log.Logger) *Chat {
	return &Chat{mgr: mgr, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *Chat) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.Send)
	mux.HandleFunc("GET /api/chat/history", h.History)
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

// Send submits one user message and blocks until the assistant replies.
func (h *Chat) Send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	reply, err := h.mgr.Send(r.Context(), req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "empty_message", "message must not be empty")
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, "chat_busy", "a reply is already being generated")
	case err != nil:
		h.logger.Error("chat send failed", "error", err)
		writeError(w, http.StatusBadGateway, "chat_failed", "the assistant could not reply")
	default:
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply})
	}
}

// History returns the full conversation in order.
func (h *Chat) History(w http.ResponseWriter, _ *http.Request) {
	turns := h.mgr.History()
	if turns == nil {
		turns = []llm.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}
