package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nomadgrid/nomadgrid/internal/chat"
	"github.com/nomadgrid/nomadgrid/internal/config"
	"github.com/nomadgrid/nomadgrid/internal/llm"
	"github.com/nomadgrid/nomadgrid/internal/observability"
	"github.com/nomadgrid/nomadgrid/internal/section"
	"github.com/nomadgrid/nomadgrid/internal/session"
	"github.com/nomadgrid/nomadgrid/internal/speech"
	"github.com/nomadgrid/nomadgrid/internal/web"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 5 * time.Minute // SSE generation streams need a long window
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// runServe initializes and starts the HTTP server.
func runServe() error {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	addr := cfg.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()
	logger.Info("starting nomadgrid", "version", AppVersion)

	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		AgentHost:   cfg.Tracing.AgentHost,
		Environment: cfg.Tracing.Environment,
		ServiceName: cfg.Tracing.ServiceName,
	}, logger)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("trace flush failed", "error", err)
		}
	}()

	gemini, err := llm.NewGemini(ctx, llm.Config{
		APIKey:            cfg.APIKey,
		TextModel:         cfg.TextModel,
		ChatModel:         cfg.ChatModel,
		SpeechModel:       cfg.SpeechModel,
		Voice:             cfg.Voice,
		Temperature:       cfg.Temperature,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.RequestBurst,
	}, logger.With("component", "llm"))
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	store := session.NewStore(logger.With("component", "session"))
	generator := section.NewGenerator(section.Config{
		Streamer:   gemini,
		Store:      store,
		GeoTimeout: time.Duration(cfg.GeoTimeoutMS) * time.Millisecond,
		Logger:     logger.With("component", "section"),
	})

	server, err := web.NewServer(web.ServerConfig{
		Logger:    logger.With("component", "web"),
		Generator: generator,
		Store:     store,
		Chat:      chat.NewManager(gemini, logger.With("component", "chat")),
		Speech:    speech.NewPlayer(gemini, logger.With("component", "speech")),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready",
		"addr", addr,
		"api", "/api/*",
		"health", "/health, /ready",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}
