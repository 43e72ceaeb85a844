package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/nomadgrid/nomadgrid/internal/section"
	"github.com/nomadgrid/nomadgrid/internal/session"
)

// excerptRunes caps artifact previews in session listings.
const excerptRunes = 160

type artifactSummary struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"displayName"`
	Status      session.Status `json:"status"`
	Excerpt     string         `json:"excerpt"`
}

type sessionSummary struct {
	ID        uuid.UUID         `json:"id"`
	Prompt    string            `json:"prompt"`
	CreatedAt time.Time         `json:"createdAt"`
	Artifacts []artifactSummary `json:"artifacts"`
}

func toSummary(s session.Session) sessionSummary {
	artifacts := make([]artifactSummary, 0, len(s.Artifacts))
	for _, a := range s.Artifacts {
		artifacts = append(artifacts, artifactSummary{
			ID:          a.ID,
			DisplayName: a.DisplayName,
			Status:      a.Status,
			Excerpt:     section.Excerpt(a.Content, excerptRunes),
		})
	}
	return sessionSummary{
		ID:        s.ID,
		Prompt:    s.Prompt,
		CreatedAt: s.CreatedAt,
		Artifacts: artifacts,
	}
}
