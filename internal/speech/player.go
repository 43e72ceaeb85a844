package speech

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/log"
)

// OutputSampleRate is the fixed rate of the shared audio output.
const OutputSampleRate = 24000

// ErrSpeaking indicates a playback is already in progress. Overlapping
// requests are dropped, not queued; callers may treat this as a no-op.
var ErrSpeaking = errors.New("speech already playing")

// Synthesizer is the slice of the LLM client the player needs.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, text string) (*llm.Audio, error)
}

// Output plays a decoded clip through the platform audio device and
// returns when playback completes. In the web UI the device is the
// requesting browser; the CLI writes a WAV file instead.
type Output interface {
	Play(ctx context.Context, clip *Clip) error
}

// Player serializes spoken playback: at most one Speak is in flight, and
// the speaking flag clears exactly when playback ends — immediately on a
// synthesis or decode failure, in which case no audio plays.
type Player struct {
	mu       sync.Mutex
	speaking bool

	synth  Synthesizer
	logger log.Logger
}

// NewPlayer creates a Player.
func NewPlayer(synth Synthesizer, logger log.Logger) *Player {
	if synth == nil {
		panic("speech: Synthesizer is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Player{synth: synth, logger: logger}
}

// Speak synthesizes text and plays it through out, blocking until playback
// ends. Returns ErrSpeaking without side effects if a playback is already
// in progress. A synthesis failure is logged and returned; an empty
// synthesis result is a silent no-op.
func (p *Player) Speak(ctx context.Context, text string, out Output) error {
	p.mu.Lock()
	if p.speaking {
		p.mu.Unlock()
		return ErrSpeaking
	}
	p.speaking = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.speaking = false
		p.mu.Unlock()
	}()

	audio, err := p.synth.SynthesizeSpeech(ctx, text)
	if err != nil {
		p.logger.Error("speech synthesis failed", "error", err)
		return fmt.Errorf("synthesize: %w", err)
	}
	if audio.Empty() {
		p.logger.Debug("no audio produced", "text_len", len(text))
		return nil
	}

	clip, err := DecodePCM(audio.Data, audio.SampleRate, audio.Channels)
	if err != nil {
		p.logger.Error("audio decode failed", "error", err, "mime_type", audio.MIMEType)
		return fmt.Errorf("decode: %w", err)
	}

	if out == nil {
		return errors.New("speech: no output configured")
	}
	return out.Play(ctx, clip)
}

// Speaking reports whether a playback is in progress.
func (p *Player) Speaking() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.speaking
}
