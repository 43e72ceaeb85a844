package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nomadgrid/nomadgrid/internal/session"
)

// Sessions serves the in-memory session history.
type Sessions struct {
	store *session.Store
}

// NewSessions creates the session browsing handler.
func NewSessions(store *session.Store) *Sessions {
	return &Sessions{store: store}
}

// RegisterRoutes registers session routes on the given mux.
func (h *Sessions) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.List)
	mux.HandleFunc("GET /api/sessions/current", h.Current)
	mux.HandleFunc("GET /api/sessions/{id}", h.Get)
}

// List returns summaries of every session in creation order, newest last.
// Artifact content is reduced to a short text excerpt.
func (h *Sessions) List(w http.ResponseWriter, _ *http.Request) {
	sessions := h.store.Sessions()
	out := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSummary(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": out})
}

// Current returns the full current session, artifacts included.
func (h *Sessions) Current(w http.ResponseWriter, _ *http.Request) {
	sess, ok := h.store.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no_current_session", "no session has been generated yet")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// Get returns one full session by ID.
func (h *Sessions) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_session_id", "session ID must be a UUID")
		return
	}

	sess, err := h.store.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session_not_found", "no such session")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", "failed to load session")
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
