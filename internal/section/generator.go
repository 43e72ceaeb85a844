package section

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/nomadgrid/nomadgrid/internal/geo"
	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/log"
	"github.com/nomadgrid/nomadgrid/internal/session"
)

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/nomadgrid/nomadgrid/internal/section"

// ErrEmptyPrompt is returned when the prompt is empty or whitespace-only.
var ErrEmptyPrompt = errors.New("empty prompt")

// Streamer is the slice of the LLM client the generator needs.
type Streamer interface {
	GenerateStream(ctx context.Context, req llm.StreamRequest, emit func(chunk string) error) error
}

// Patch describes one observable artifact mutation. Exactly one of Delta
// (streamed content increment) or Status (terminal transition) is set.
type Patch struct {
	SessionID  uuid.UUID      `json:"sessionId"`
	ArtifactID string         `json:"artifactId"`
	Delta      string         `json:"delta,omitempty"`
	Status     session.Status `json:"status,omitempty"`
}

// Config contains required generator parameters.
type Config struct {
	Streamer   Streamer
	Store      *session.Store
	GeoTimeout time.Duration // budget for one best-effort position fix
	Logger     log.Logger
}

// Generator fans one prompt out into the fixed section set. Safe for
// concurrent use; overlapping Generate calls each own a distinct session
// and cannot interfere with one another.
type Generator struct {
	llm        Streamer
	store      *session.Store
	geoTimeout time.Duration
	logger     log.Logger
	tracer     trace.Tracer
}

// NewGenerator creates a Generator. Panics if a required dependency is
// missing; wiring bugs should fail at startup, not mid-request.
func NewGenerator(cfg Config) *Generator {
	if cfg.Streamer == nil {
		panic("section: Streamer is required")
	}
	if cfg.Store == nil {
		panic("section: Store is required")
	}
	if cfg.GeoTimeout <= 0 {
		cfg.GeoTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return &Generator{
		llm:        cfg.Streamer,
		store:      cfg.Store,
		geoTimeout: cfg.GeoTimeout,
		logger:     cfg.Logger,
		tracer:     otel.Tracer(tracerName),
	}
}

// Generate creates one session with all four placeholder artifacts, appends
// it to the store (making it current) before any network call, then runs
// the section tasks concurrently. It returns once every section settled.
//
// locator supplies the caller's position for geo-augmented sections; nil
// means no position is available. observe, if non-nil, receives every
// artifact patch in apply order; calls are serialized.
func (g *Generator) Generate(ctx context.Context, prompt string, locator geo.Locator, observe func(Patch)) (uuid.UUID, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return uuid.Nil, ErrEmptyPrompt
	}

	ctx, span := g.tracer.Start(ctx, "section.Generate",
		trace.WithAttributes(attribute.Int("sections", len(descriptors))))
	defer span.End()

	artifacts := make([]session.Artifact, 0, len(descriptors))
	for _, d := range descriptors {
		artifacts = append(artifacts, session.Placeholder(d.ID, d.DisplayName))
	}
	sess := session.New(prompt, artifacts...)

	// Callers must observe the placeholder session immediately.
	g.store.Append(sess)

	// Serialize observer calls so stream consumers see patches in the
	// order they were applied to the store.
	var obsMu sync.Mutex
	emit := func(p Patch) {
		if observe == nil {
			return
		}
		obsMu.Lock()
		defer obsMu.Unlock()
		observe(p)
	}

	var wg sync.WaitGroup
	for _, d := range descriptors {
		wg.Add(1)
		go func(d Descriptor) {
			defer wg.Done()
			g.generateSection(ctx, sess.ID, prompt, d, locator, emit)
		}(d)
	}
	wg.Wait()

	return sess.ID, nil
}

// generateSection runs one section's request end to end. All failures stop
// at this boundary: they are logged, the artifact moves to failed, and
// sibling sections continue undisturbed.
func (g *Generator) generateSection(ctx context.Context, sessionID uuid.UUID, prompt string, d Descriptor, locator geo.Locator, emit func(Patch)) {
	ctx, span := g.tracer.Start(ctx, "section.generateSection",
		trace.WithAttributes(attribute.String("section", d.ID)))
	defer span.End()

	grounded := wantsGeo(prompt) || wantsGeo(d.DisplayName)

	var coords *geo.Coordinates
	if grounded {
		coords = geo.Resolve(ctx, locator, g.geoTimeout, g.logger)
	}

	var buf strings.Builder
	req := llm.StreamRequest{
		Prompt:      sectionPrompt(d, prompt),
		System:      styleDirective,
		GeoGrounded: grounded,
		Location:    coords,
	}

	err := g.llm.GenerateStream(ctx, req, func(chunk string) error {
		if err := g.store.AppendText(sessionID, d.ID, chunk); err != nil {
			return err
		}
		buf.WriteString(chunk)
		emit(Patch{SessionID: sessionID, ArtifactID: d.ID, Delta: chunk})
		return nil
	})
	if err != nil {
		g.logger.Error("section generation failed",
			"session_id", sessionID, "section", d.ID, "error", err)
		if failErr := g.store.Fail(sessionID, d.ID); failErr != nil {
			g.logger.Warn("marking section failed", "section", d.ID, "error", failErr)
			return
		}
		emit(Patch{SessionID: sessionID, ArtifactID: d.ID, Status: session.StatusFailed})
		return
	}

	final := StripScripts(StripFences(buf.String()))
	if err := g.store.Complete(sessionID, d.ID, final); err != nil {
		g.logger.Warn("completing section", "section", d.ID, "error", err)
		return
	}
	emit(Patch{SessionID: sessionID, ArtifactID: d.ID, Status: session.StatusComplete})

	g.logger.Debug("section complete",
		"session_id", sessionID, "section", d.ID,
		"content_len", len(final), "geo_grounded", grounded)
}
