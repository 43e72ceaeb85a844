package llm

import (
	"strconv"
	"strings"

	"github.com/nomadgrid/nomadgrid/internal/geo"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a conversation sent to the model.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// StreamRequest parameterizes one streaming generation call.
type StreamRequest struct {
	// Prompt is the full user-facing request text.
	Prompt string

	// System is the system instruction (style directive).
	System string

	// GeoGrounded enables the location-retrieval tool on the request.
	GeoGrounded bool

	// Location optionally grounds retrieval at the caller's position.
	// Only consulted when GeoGrounded is set.
	Location *geo.Coordinates
}

// Audio is a synthesized speech payload: raw little-endian 16-bit signed
// PCM samples, interleaved by channel.
type Audio struct {
	Data       []byte
	SampleRate int
	Channels   int
	MIMEType   string
}

// Empty reports whether the service produced no audio, which is a valid
// non-error outcome.
func (a *Audio) Empty() bool {
	return a == nil || len(a.Data) == 0
}

// DefaultSampleRate is Gemini's speech output rate.
const DefaultSampleRate = 24000

// parsePCMRate extracts the sample rate from an audio MIME type such as
// "audio/L16;codec=pcm;rate=24000". Falls back to DefaultSampleRate.
func parsePCMRate(mimeType string) int {
	for _, part := range strings.Split(mimeType, ";") {
		part = strings.TrimSpace(part)
		if v, ok := strings.CutPrefix(part, "rate="); ok {
			if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return DefaultSampleRate
}
