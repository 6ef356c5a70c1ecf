// Package api exposes the analyst agent over a JSON HTTP API: chat
// (synchronous and SSE streaming), session CRUD, and a health probe.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/repolens/repolens/internal/session"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger       *slog.Logger
	Agent        ChatRunner     // Required
	SessionStore *session.Store // Required
	Runtime      RuntimeChecker // Optional: nil makes /health always report ok
	CORSOrigins  []string       // Allowed origins for CORS
	TrustProxy   bool           // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst    int            // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Agent == nil {
		return nil, errors.New("chat agent is required")
	}
	if cfg.SessionStore == nil {
		return nil, errors.New("session store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ch := &chatHandler{
		logger:   logger,
		runner:   cfg.Agent,
		sessions: cfg.SessionStore,
	}
	sh := &sessionHandler{
		logger: logger,
		store:  cfg.SessionStore,
	}

	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /chat", ch.send)
	mux.HandleFunc("POST /chat/stream", ch.stream)

	// Session CRUD
	mux.HandleFunc("POST /sessions", sh.createSession)
	mux.HandleFunc("GET /sessions", sh.listSessions)
	mux.HandleFunc("GET /sessions/{id}", sh.getSession)
	mux.HandleFunc("DELETE /sessions/{id}", sh.deleteSession)

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID sits before Logging so request_id is available in log
	// attributes. CORS sits before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Top-level mux keeps health probes outside the middleware stack so
	// orchestrator probes are never rate limited.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(cfg.Runtime))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
