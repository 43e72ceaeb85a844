package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/nomadgrid/nomadgrid/internal/log"
	"github.com/nomadgrid/nomadgrid/internal/speech"
)

// Speak serves text-to-speech synthesis. The decoded audio is re-encoded
// as WAV and returned base64-encoded for browser playback.
type Speak struct {
	player *speech.Player
	logger log.Logger
}

// NewSpeak creates the speech handler.
func NewSpeak(player *speech.Player, logger log.Logger) *Speak {
	return &Speak{player: player, logger: logger}
}

// RegisterRoutes registers speech routes on the given mux.
func (h *Speak) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/speak", h.Synthesize)
}

type speakRequest struct {
	Text string `json:"text"`
}

type speakResponse struct {
	Audio      string `json:"audio"` // base64 WAV
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
	DurationMS int64  `json:"durationMs"`
}

// wavCapture encodes the clip to an in-memory WAV and keeps the clip for
// response metadata.
type wavCapture struct {
	buf  bytes.Buffer
	clip *speech.Clip
}

func (o *wavCapture) Play(ctx context.Context, clip *speech.Clip) error {
	o.clip = clip
	return speech.NewWAVOutput(&o.buf).Play(ctx, clip)
}

// Synthesize converts text to audio. Returns 409 while a prior synthesis
// is still in flight and 204 when the model produces no audio.
func (h *Speak) Synthesize(w http.ResponseWriter, r *http.Request) {
	var req speakRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "empty_text", "text must not be empty")
		return
	}

	var out wavCapture
	err := h.player.Speak(r.Context(), req.Text, &out)
	switch {
	case errors.Is(err, speech.ErrSpeaking):
		writeError(w, http.StatusConflict, "speech_busy", "a playback is already in progress")
		return
	case err != nil:
		h.logger.Error("speech synthesis failed", "error", err)
		writeError(w, http.StatusBadGateway, "speech_failed", "speech synthesis failed")
		return
	}
	if out.clip == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	writeJSON(w, http.StatusOK, speakResponse{
		Audio:      base64.StdEncoding.EncodeToString(out.buf.Bytes()),
		SampleRate: out.clip.SampleRate,
		Channels:   len(out.clip.Channels),
		DurationMS: out.clip.Duration().Milliseconds(),
	})
}
