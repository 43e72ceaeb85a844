package handlers

import (
	"net/http"
	"strings"

	"github.com/nomadgrid/nomadgrid/internal/geo"
	"github.com/nomadgrid/nomadgrid/internal/log"
	"github.com/nomadgrid/nomadgrid/internal/section"
	"github.com/nomadgrid/nomadgrid/internal/web/sse"
)

// Generate streams portal generation over SSE.
type Generate struct {
	gen    *section.Generator
	logger log.Logger
}

// NewGenerate creates the generation handler.
func NewGenerate(gen *section.Generator, logger log.Logger) *Generate {
	return &Generate{gen: gen, logger: logger}
}

// RegisterRoutes registers generation routes on the given mux.
func (h *Generate) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate", h.Stream)
}

type generateRequest struct {
	Prompt   string           `json:"prompt"`
	Location *geo.Coordinates `json:"location,omitempty"`
}

// Stream validates the request, then streams patch/status events for every
// section as chunks arrive, ending with a done event carrying the session
// ID. Input errors are rejected as JSON before the stream opens; failures
// after that point arrive as SSE error events.
func (h *Generate) Stream(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "empty_prompt", "prompt must not be empty")
		return
	}

	writer, err := sse.NewWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming_unsupported", "response writer does not support streaming")
		return
	}

	// The browser reports coordinates it already obtained; absent means
	// the user declined or the lookup failed client-side.
	locator := geo.Unavailable()
	if req.Location != nil {
		locator = geo.Fixed(*req.Location)
	}

	ctx := r.Context()
	id, err := h.gen.Generate(ctx, req.Prompt, locator, func(p section.Patch) {
		event := "patch"
		if p.Status != "" {
			event = "status"
		}
		if werr := writer.WriteEvent(ctx, event, p); werr != nil {
			// Client gone; the request context cancels the streams.
			h.logger.Debug("sse write failed", "error", werr)
		}
	})
	if err != nil {
		h.logger.Error("generation failed", "error", err)
		_ = writer.WriteError("generation_failed", "portal generation failed")
		return
	}

	_ = writer.WriteEvent(ctx, "done", map[string]string{"sessionId": id.String()})
}
