// Package web provides the portal HTTP server and its middleware stack.
package web

import (
	"errors"
	"net/http"

	"github.com/nomadgrid/nomadgrid/internal/chat"
	"github.com/nomadgrid/nomadgrid/internal/log"
	"github.com/nomadgrid/nomadgrid/internal/section"
	"github.com/nomadgrid/nomadgrid/internal/session"
	"github.com/nomadgrid/nomadgrid/internal/speech"
	"github.com/nomadgrid/nomadgrid/internal/web/handlers"
	"github.com/nomadgrid/nomadgrid/internal/web/static"
)

// Server is the portal HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// ServerConfig contains dependencies for creating a Server.
type ServerConfig struct {
	Logger    log.Logger
	Generator *section.Generator
	Store     *session.Store
	Chat      *chat.Manager
	Speech    *speech.Player
}

// NewServer creates a server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Generator == nil {
		return nil, errors.New("Generator is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("Store is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("Chat is required")
	}
	if cfg.Speech == nil {
		return nil, errors.New("Speech is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}

	mux := http.NewServeMux()

	// Health check routes (no middleware - for Docker/K8s probes)
	handlers.NewHealth().RegisterRoutes(mux)

	handlers.NewGenerate(cfg.Generator, cfg.Logger).RegisterRoutes(mux)
	handlers.NewSessions(cfg.Store).RegisterRoutes(mux)
	handlers.NewChat(cfg.Chat, cfg.Logger).RegisterRoutes(mux)
	handlers.NewSpeak(cfg.Speech, cfg.Logger).RegisterRoutes(mux)

	mux.HandleFunc("GET /{$}", index)
	mux.Handle("GET /static/", http.StripPrefix("/static/", static.Handler()))

	return &Server{mux: mux, logger: cfg.Logger}, nil
}

// ServeHTTP implements http.Handler with the middleware stack:
// Recovery catches panics from any layer below, Logging tracks requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setSecurityHeaders(w)

	handler := RecoveryMiddleware(s.logger)(LoggingMiddleware(s.logger)(s.mux))
	handler.ServeHTTP(w, r)
}

// setSecurityHeaders applies security headers for the portal UI.
func (s *Server) setSecurityHeaders(w http.ResponseWriter) {
	// Generated sections render in sandboxed srcdoc iframes and carry
	// inline styles, so style-src needs unsafe-inline.
	csp := "default-src 'self'; " +
		"script-src 'self'; " +
		"style-src 'self' 'unsafe-inline'; " +
		"img-src 'self' data: https:; " +
		"frame-src 'self'; " +
		"connect-src 'self'"
	w.Header().Set("Content-Security-Policy", csp)

	// Prevent MIME type sniffing
	w.Header().Set("X-Content-Type-Options", "nosniff")

	// Prevent clickjacking
	w.Header().Set("X-Frame-Options", "DENY")

	// Referrer policy
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
}

// Handler returns the server as an http.Handler for mounting.
func (s *Server) Handler() http.Handler {
	return s
}

func index(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(static.Index())
}
