package session

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one section artifact.
type Status string

const (
	// StatusStreaming means chunks are still being appended.
	StatusStreaming Status = "streaming"

	// StatusComplete is terminal: content is sanitized and final.
	StatusComplete Status = "complete"

	// StatusFailed is terminal: the generation request errored.
	StatusFailed Status = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Artifact is the generated HTML content and status for one section within
// one session. Content only ever grows while streaming; it is replaced once
// by the sanitized final text on completion.
type Artifact struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
	Status      Status `json:"status"`
}

// Session is one user prompt and its resulting artifacts. Prompt and
// CreatedAt are immutable after creation; artifacts are patched in place by
// the section generator.
type Session struct {
	ID        uuid.UUID  `json:"id"`
	Prompt    string     `json:"prompt"`
	CreatedAt time.Time  `json:"createdAt"`
	Artifacts []Artifact `json:"artifacts"`
}

// Placeholder returns an empty streaming artifact for one section.
func Placeholder(id, displayName string) Artifact {
	return Artifact{ID: id, DisplayName: displayName, Status: StatusStreaming}
}

// New creates a session holding the given placeholder artifacts in order.
func New(prompt string, artifacts ...Artifact) Session {
	return Session{
		ID:        uuid.New(),
		Prompt:    prompt,
		CreatedAt: time.Now(),
		Artifacts: artifacts,
	}
}

// clone returns a deep copy so callers can never alias store-owned state.
func (s Session) clone() Session {
	cp := s
	cp.Artifacts = make([]Artifact, len(s.Artifacts))
	copy(cp.Artifacts, s.Artifacts)
	return cp
}

// Settled reports whether every artifact reached a terminal status.
func (s Session) Settled() bool {
	for _, a := range s.Artifacts {
		if !a.Status.Terminal() {
			return false
		}
	}
	return true
}
