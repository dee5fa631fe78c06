// Package api exposes askcat over HTTP.
//
// Endpoints:
//
//	POST /api/chat          →  grounded chat turn
//	POST /api/analyze-page  →  page analysis / outreach
//	POST /api/reindex       →  rebuild the knowledge store
//	GET  /health            →  liveness probe
//	GET  /ready             →  readiness probe (database + knowledge base)
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (request ID, logging, recovery)
//   - chat.go / analyze.go / reindex.go: endpoint handlers
//   - health.go: probes
//   - response.go: JSON response helpers and error mapping
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smartcat-ai/askcat/internal/assistant"
	"github.com/smartcat-ai/askcat/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:3400"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// requestTimeout bounds one request end to end, covering the embed,
	// search, and generation round trips.
	requestTimeout = 60 * time.Second

	// Slowloris protection.
	ReadHeaderTimeout = 10 * time.Second
	ReadTimeout       = 30 * time.Second
	WriteTimeout      = 90 * time.Second
	IdleTimeout       = 120 * time.Second
)

// Assistant is the orchestration surface the handlers call.
// Satisfied by *assistant.Assistant.
type Assistant interface {
	ChatTurn(ctx context.Context, messages []assistant.Message) (*assistant.ChatResult, error)
	AnalyzePage(ctx context.Context, req assistant.PageRequest) (*assistant.PageReport, error)
}

// Reindexer rebuilds the knowledge store. Satisfied by *indexer.Indexer.
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// ItemCounter reports the knowledge store size, for readiness.
// Satisfied by *knowledge.Store.
type ItemCounter interface {
	Count(ctx context.Context) (int, error)
}

// ServerConfig contains the dependencies for a Server.
type ServerConfig struct {
	Assistant Assistant
	Indexer   Reindexer
	Store     ItemCounter
	Pool      *pgxpool.Pool
	Logger    log.Logger
}

// Server is the askcat HTTP server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a server with all routes registered.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{mux: mux, logger: logger}

	NewHealthHandler(cfg.Pool, cfg.Store, logger).RegisterRoutes(mux)
	NewChatHandler(cfg.Assistant, logger).RegisterRoutes(mux)
	NewAnalyzeHandler(cfg.Assistant, logger).RegisterRoutes(mux)
	NewReindexHandler(cfg.Indexer, logger).RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → request ID → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		requestIDMiddleware,
		loggingMiddleware(s.logger),
	)
}

// Run starts the server and blocks until the context is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
