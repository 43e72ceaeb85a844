// Package chat maintains the assistant conversation: an ordered turn
// history with a single in-flight exchange at a time.
//
// The user's turn is appended synchronously on send, before any network
// call, so readers always see it immediately. The assistant's turn arrives
// when the remote call resolves. A send failure leaves the user's turn
// unanswered: the error is logged and nothing is appended to history.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/log"
)

// persona is the assistant's fixed system directive.
const persona = `You are Compass, the nomadgrid portal's assistant for digital nomads.
You help with destinations, cost of living, visas, coworking, connectivity and
remote-work logistics. Keep answers concise, warm and practical. Politely
decline topics outside nomad life and travel.`

// fallbackResponse is returned when the model produces an empty response.
const fallbackResponse = "I couldn't come up with an answer just now. Please try rephrasing your question."

var (
	// ErrEmptyMessage indicates the message was empty or whitespace-only.
	ErrEmptyMessage = errors.New("empty message")

	// ErrBusy indicates a prior send is still in flight. Overlapping
	// sends are rejected, not queued.
	ErrBusy = errors.New("chat call already in flight")
)

// Generator is the slice of the LLM client the manager needs.
type Generator interface {
	Generate(ctx context.Context, history []llm.Message, system string) (string, error)
}

// Manager owns the conversation history. Safe for concurrent use; the
// single-flight guard is enforced here, not left to callers.
type Manager struct {
	mu       sync.Mutex
	turns    []llm.Message
	inFlight bool

	llm    Generator
	logger log.Logger
}

// NewManager creates a Manager with empty history.
func NewManager(gen Generator, logger log.Logger) *Manager {
	if gen == nil {
		panic("chat: Generator is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{llm: gen, logger: logger}
}

// Send appends the user's turn immediately, then blocks on the remote call
// and appends the assistant's turn. It returns the assistant's text.
//
// Rejections: ErrEmptyMessage for blank input, ErrBusy while a prior send
// is outstanding. On a remote failure the error is returned and history
// keeps the unanswered user turn; the in-flight guard is cleared on every
// path.
func (m *Manager) Send(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	m.mu.Lock()
	if m.inFlight {
		m.mu.Unlock()
		return "", ErrBusy
	}
	m.inFlight = true
	m.turns = append(m.turns, llm.Message{Role: llm.RoleUser, Text: message})
	history := make([]llm.Message, len(m.turns))
	copy(history, m.turns)
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight = false
		m.mu.Unlock()
	}()

	reply, err := m.llm.Generate(ctx, history, persona)
	if err != nil {
		m.logger.Error("chat send failed", "error", err)
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackResponse
	}

	m.mu.Lock()
	m.turns = append(m.turns, llm.Message{Role: llm.RoleAssistant, Text: reply})
	m.mu.Unlock()

	return reply, nil
}

// History returns a copy of all turns in order.
func (m *Manager) History() []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]llm.Message, len(m.turns))
	copy(cp, m.turns)
	return cp
}

// InFlight reports whether a send is outstanding.
func (m *Manager) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}
