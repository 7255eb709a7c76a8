package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/ashita-ai/aitools/internal/ratelimit"
	"github.com/ashita-ai/aitools/internal/service/catalog"
)

// Server is the aitools HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	logger     *slog.Logger
}

// Handler returns the root HTTP handler for use in tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServerConfig holds all dependencies and configuration for creating a Server.
// Optional fields (nil-safe): Limiter, MCPServer.
type ServerConfig struct {
	// Required dependencies.
	Service *catalog.Service
	Logger  *slog.Logger

	// Optional dependencies (nil = disabled).
	Limiter   ratelimit.Limiter
	MCPServer *mcpserver.MCPServer

	// HTTP server settings.
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Version      string
}

// New creates a new HTTP server with all routes configured.
func New(cfg ServerConfig) *Server {
	h := NewHandlers(HandlersDeps{
		Service: cfg.Service,
		Logger:  cfg.Logger,
		Version: cfg.Version,
	})

	mux := http.NewServeMux()

	// Catalog reads.
	mux.HandleFunc("GET /v1/tools", h.HandleListTools)
	mux.HandleFunc("GET /v1/tools/trending", h.HandleTrendingTools)
	mux.HandleFunc("GET /v1/tools/new", h.HandleNewTools)
	mux.HandleFunc("GET /v1/tools/{id}", h.HandleGetTool)
	mux.HandleFunc("GET /v1/categories", h.HandleCategories)
	mux.HandleFunc("GET /v1/categories/stats", h.HandleCategoryStats)
	mux.HandleFunc("GET /v1/pricing-options", h.HandlePricingOptions)

	// Cache inspection and forced refresh.
	mux.HandleFunc("GET /v1/cache", h.HandleCacheStatus)
	mux.HandleFunc("POST /v1/revalidate", h.HandleRevalidate)

	// MCP StreamableHTTP transport.
	if cfg.MCPServer != nil {
		mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(cfg.MCPServer))
	}

	// Health (no rate limit).
	mux.HandleFunc("GET /health", h.HandleHealth)

	route := func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			return pattern
		}
		return "unmatched"
	}

	// Middleware chain (outermost executes first):
	// request ID → security headers → tracing → logging → rate limit → recovery → handler.
	var handler http.Handler = mux
	handler = recoveryMiddleware(cfg.Logger, handler)
	if cfg.Limiter != nil {
		handler = rateLimitMiddleware(cfg.Limiter, cfg.Logger, handler)
	}
	handler = loggingMiddleware(cfg.Logger, handler)
	handler = tracingMiddleware(newHTTPMetrics(), route, handler)
	handler = securityHeadersMiddleware(handler)
	handler = requestIDMiddleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		handler: handler,
		logger:  cfg.Logger,
	}
}

// rateLimitMiddleware limits requests per client IP. Health checks are exempt
// so orchestrator probes never see a 429.
func rateLimitMiddleware(limiter ratelimit.Limiter, logger *slog.Logger, next http.Handler) http.Handler {
	reqIDFunc := func(r *http.Request) string {
		return RequestIDFromContext(r.Context())
	}
	keyFunc := func(r *http.Request) string {
		if r.URL.Path == "/health" {
			return ""
		}
		return "ip:" + ratelimit.IPKeyFunc(r)
	}
	return ratelimit.Middleware(limiter, keyFunc, reqIDFunc, logger)(next)
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
