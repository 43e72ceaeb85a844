package llm

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/nomadgrid/nomadgrid/internal/log"
)

// tracerName identifies spans emitted by this package.
const tracerName = "github.com/nomadgrid/nomadgrid/internal/llm"

// warmDelivery prefixes synthesized text so the voice reads it in a warm,
// conversational register rather than flat narration.
const warmDelivery = "Say in a warm, friendly and reassuring tone: "

// Config contains all required parameters for the Gemini client.
type Config struct {
	APIKey      string
	TextModel   string  // streamed section generation
	ChatModel   string  // assistant conversation
	SpeechModel string  // text-to-speech synthesis
	Voice       string  // prebuilt voice name
	Temperature float32 // generation temperature

	// RequestsPerSecond and Burst bound outbound calls across all
	// concurrent section tasks and overlapping generations.
	RequestsPerSecond float64
	Burst             int
}

// validate checks required parameters.
func (cfg Config) validate() error {
	if cfg.APIKey == "" {
		return errors.New("api key is required")
	}
	if cfg.TextModel == "" || cfg.ChatModel == "" || cfg.SpeechModel == "" {
		return errors.New("all model names are required")
	}
	if cfg.RequestsPerSecond <= 0 || cfg.Burst < 1 {
		return errors.New("rate limit must be positive")
	}
	return nil
}

// Gemini talks to the Gemini API. Safe for concurrent use.
type Gemini struct {
	client  *genai.Client
	cfg     Config
	limiter *rate.Limiter
	tracer  trace.Tracer
	logger  log.Logger
}

// NewGemini creates a Gemini client.
func NewGemini(ctx context.Context, cfg Config, logger log.Logger) (*Gemini, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}
	if logger == nil {
		logger = log.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &Gemini{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
	}, nil
}

// GenerateStream issues one streaming generation request and calls emit for
// each text increment in arrival order. It returns when the remote signals
// end-of-stream, or with the first transport error. If emit returns an
// error, streaming stops and that error is returned.
func (g *Gemini) GenerateStream(ctx context.Context, req StreamRequest, emit func(chunk string) error) error {
	ctx, span := g.tracer.Start(ctx, "llm.GenerateStream",
		trace.WithAttributes(
			attribute.String("model", g.cfg.TextModel),
			attribute.Bool("geo_grounded", req.GeoGrounded),
		))
	defer span.End()

	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.cfg.Temperature),
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
	}
	if req.GeoGrounded {
		cfg.Tools = []*genai.Tool{{GoogleMaps: &genai.GoogleMaps{}}}
		if req.Location != nil {
			cfg.ToolConfig = &genai.ToolConfig{
				RetrievalConfig: &genai.RetrievalConfig{
					LatLng: &genai.LatLng{
						Latitude:  genai.Ptr(req.Location.Latitude),
						Longitude: genai.Ptr(req.Location.Longitude),
					},
				},
			}
		}
	}

	contents := []*genai.Content{genai.NewContentFromText(req.Prompt, genai.RoleUser)}

	for chunk, err := range g.client.Models.GenerateContentStream(ctx, g.cfg.TextModel, contents, cfg) {
		if err != nil {
			return fmt.Errorf("generation stream: %w", err)
		}
		text := chunk.Text()
		if text == "" {
			continue
		}
		if err := emit(text); err != nil {
			return err
		}
	}
	return nil
}

// Generate sends a multi-turn conversation and returns the model's single
// text response. The returned text may be empty; callers decide how to
// treat an empty response.
func (g *Gemini) Generate(ctx context.Context, history []Message, system string) (string, error) {
	ctx, span := g.tracer.Start(ctx, "llm.Generate",
		trace.WithAttributes(
			attribute.String("model", g.cfg.ChatModel),
			attribute.Int("turns", len(history)),
		))
	defer span.End()

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(g.cfg.Temperature),
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.ChatModel, toContents(history), cfg)
	if err != nil {
		return "", fmt.Errorf("chat generation: %w", err)
	}
	return resp.Text(), nil
}

// SynthesizeSpeech requests spoken audio for text with the configured voice.
// An empty payload is a valid non-error outcome; callers must check
// Audio.Empty().
func (g *Gemini) SynthesizeSpeech(ctx context.Context, text string) (*Audio, error) {
	ctx, span := g.tracer.Start(ctx, "llm.SynthesizeSpeech",
		trace.WithAttributes(
			attribute.String("model", g.cfg.SpeechModel),
			attribute.String("voice", g.cfg.Voice),
		))
	defer span.End()

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: g.cfg.Voice},
			},
		},
	}
	contents := []*genai.Content{
		genai.NewContentFromText(warmDelivery+text, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.SpeechModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			return &Audio{
				Data:       part.InlineData.Data,
				SampleRate: parsePCMRate(part.InlineData.MIMEType),
				Channels:   1,
				MIMEType:   part.InlineData.MIMEType,
			}, nil
		}
	}

	// No inline audio part: valid "no audio produced" outcome.
	g.logger.Debug("speech synthesis returned no audio payload")
	return nil, nil
}

// toContents converts chat history to the wire format. Assistant turns map
// to the model role.
func toContents(history []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.Role(genai.RoleUser)
		if m.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Text, role))
	}
	return contents
}
