package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nomadgrid/nomadgrid/internal/log"
)

// Store is the append-only session collection. It is safe for concurrent
// use: the four section tasks of one generation (and any overlapping
// generations) all funnel their patches through the Store's lock, which
// acts as the single serialized reducer for artifact state.
//
// Sessions are never removed. Append always makes the new session current.
type Store struct {
	mu       sync.RWMutex
	sessions []Session
	current  int // index into sessions; -1 before the first append
	logger   log.Logger
}

// NewStore creates an empty store.
func NewStore(logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{current: -1, logger: logger}
}

// Append adds sess to the end of the sequence and makes it current.
func (s *Store) Append(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = append(s.sessions, sess.clone())
	s.current = len(s.sessions) - 1
	s.logger.Debug("session appended",
		"session_id", sess.ID, "prompt_len", len(sess.Prompt), "index", s.current)
}

// AppendText appends a streamed chunk to the artifact's content. The chunk
// is applied in arrival order; content never shrinks while streaming.
// Returns ErrArtifactSettled if the artifact already reached a terminal
// status.
func (s *Store) AppendText(sessionID uuid.UUID, artifactID, chunk string) error {
	return s.patch(sessionID, artifactID, func(a Artifact) (Artifact, error) {
		if a.Status.Terminal() {
			return a, fmt.Errorf("%w: %s/%s", ErrArtifactSettled, sessionID, artifactID)
		}
		a.Content += chunk
		return a, nil
	})
}

// Complete stores the sanitized final content and marks the artifact
// complete. The transition happens exactly once.
func (s *Store) Complete(sessionID uuid.UUID, artifactID, finalContent string) error {
	return s.patch(sessionID, artifactID, func(a Artifact) (Artifact, error) {
		if a.Status.Terminal() {
			return a, fmt.Errorf("%w: %s/%s", ErrArtifactSettled, sessionID, artifactID)
		}
		a.Content = finalContent
		a.Status = StatusComplete
		return a, nil
	})
}

// Fail marks the artifact failed, keeping whatever partial content arrived.
func (s *Store) Fail(sessionID uuid.UUID, artifactID string) error {
	return s.patch(sessionID, artifactID, func(a Artifact) (Artifact, error) {
		if a.Status.Terminal() {
			return a, fmt.Errorf("%w: %s/%s", ErrArtifactSettled, sessionID, artifactID)
		}
		a.Status = StatusFailed
		return a, nil
	})
}

// patch applies fn to one artifact copy-on-write: the artifact slice is
// replaced wholesale so readers holding an earlier snapshot never observe a
// partial write.
func (s *Store) patch(sessionID uuid.UUID, artifactID string, fn func(Artifact) (Artifact, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	si := -1
	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			si = i
			break
		}
	}
	if si < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}

	sess := &s.sessions[si]
	for ai := range sess.Artifacts {
		if sess.Artifacts[ai].ID != artifactID {
			continue
		}
		updated, err := fn(sess.Artifacts[ai])
		if err != nil {
			return err
		}
		next := make([]Artifact, len(sess.Artifacts))
		copy(next, sess.Artifacts)
		next[ai] = updated
		sess.Artifacts = next
		return nil
	}
	return fmt.Errorf("%w: %s in session %s", ErrArtifactNotFound, artifactID, sessionID)
}

// Get returns a deep copy of the session with the given id.
func (s *Store) Get(sessionID uuid.UUID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.sessions {
		if s.sessions[i].ID == sessionID {
			return s.sessions[i].clone(), nil
		}
	}
	return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
}

// Current returns a deep copy of the currently viewed session, or false if
// no session exists yet.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current < 0 {
		return Session{}, false
	}
	return s.sessions[s.current].clone(), true
}

// Sessions returns deep copies of all sessions in append order.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Session, len(s.sessions))
	for i := range s.sessions {
		out[i] = s.sessions[i].clone()
	}
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
