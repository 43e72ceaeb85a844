package session

import "errors"

var (
	// ErrSessionNotFound is returned when the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrArtifactNotFound is returned when the artifact id does not match
	// any section of the session.
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrArtifactSettled is returned when a mutation targets an artifact
	// already in a terminal status.
	ErrArtifactSettled = errors.New("artifact already settled")
)
