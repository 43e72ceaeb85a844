// Package testutil provides shared test doubles: a deterministic fake LLM
// client and an SSE stream parser.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/nomadgrid/nomadgrid/internal/llm"
)

// StreamCall records one GenerateStream invocation.
type StreamCall struct {
	Prompt      string
	System      string
	GeoGrounded bool
	HasLocation bool
}

// FakeLLM is a deterministic in-memory stand-in for the Gemini client. It
// matches stream requests against registered prompt substrings and replays
// the scripted chunks. Thread-safe: section tasks call it concurrently.
type FakeLLM struct {
	mu sync.Mutex

	streamRules []streamRule
	streamCalls []StreamCall

	ChatResponse string
	ChatErr      error
	chatCalls    [][]llm.Message

	Audio     *llm.Audio
	SpeechErr error
	spoken    []string
}

type streamRule struct {
	pattern string // lowercase substring of the prompt
	chunks  []string
	err     error // returned after replaying chunks
}

// NewFakeLLM creates an empty fake. Unmatched stream requests produce no
// chunks and succeed.
func NewFakeLLM() *FakeLLM {
	return &FakeLLM{}
}

// AddStream registers chunks to replay when the prompt contains pattern
// (case-insensitive). Rules are checked in registration order.
func (f *FakeLLM) AddStream(pattern string, chunks ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamRules = append(f.streamRules, streamRule{
		pattern: strings.ToLower(pattern),
		chunks:  chunks,
	})
}

// FailStream registers a rule that replays chunks and then fails with err.
func (f *FakeLLM) FailStream(pattern string, err error, chunks ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamRules = append(f.streamRules, streamRule{
		pattern: strings.ToLower(pattern),
		chunks:  chunks,
		err:     err,
	})
}

// GenerateStream implements the section generator's Streamer interface.
func (f *FakeLLM) GenerateStream(ctx context.Context, req llm.StreamRequest, emit func(string) error) error {
	f.mu.Lock()
	f.streamCalls = append(f.streamCalls, StreamCall{
		Prompt:      req.Prompt,
		System:      req.System,
		GeoGrounded: req.GeoGrounded,
		HasLocation: req.Location != nil,
	})
	var matched *streamRule
	lower := strings.ToLower(req.Prompt)
	for i := range f.streamRules {
		if strings.Contains(lower, f.streamRules[i].pattern) {
			matched = &f.streamRules[i]
			break
		}
	}
	f.mu.Unlock()

	if matched == nil {
		return nil
	}
	for _, chunk := range matched.chunks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := emit(chunk); err != nil {
			return err
		}
	}
	return matched.err
}

// Generate implements the chat manager's Generator interface.
func (f *FakeLLM) Generate(ctx context.Context, history []llm.Message, system string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]llm.Message, len(history))
	copy(cp, history)
	f.chatCalls = append(f.chatCalls, cp)
	return f.ChatResponse, f.ChatErr
}

// SynthesizeSpeech implements the speech player's Synthesizer interface.
func (f *FakeLLM) SynthesizeSpeech(ctx context.Context, text string) (*llm.Audio, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return f.Audio, f.SpeechErr
}

// StreamCalls returns a copy of all recorded stream calls.
func (f *FakeLLM) StreamCalls() []StreamCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]StreamCall, len(f.streamCalls))
	copy(cp, f.streamCalls)
	return cp
}

// ChatCalls returns a copy of all recorded chat histories.
func (f *FakeLLM) ChatCalls() [][]llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([][]llm.Message, len(f.chatCalls))
	copy(cp, f.chatCalls)
	return cp
}

// Spoken returns a copy of all texts sent for synthesis.
func (f *FakeLLM) Spoken() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]string, len(f.spoken))
	copy(cp, f.spoken)
	return cp
}
