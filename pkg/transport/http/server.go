package http

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayhamallaham/testapp/pkg/auth"
	"github.com/ayhamallaham/testapp/pkg/observability"
	"github.com/ayhamallaham/testapp/pkg/transport"
)

// Server wraps an http.Server with the user API, the operational
// endpoints and the middleware chain, and manages the full lifecycle
// including startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the transport server.
type ServerConfig struct {
	Addr              string
	BasePath          string
	MaxBodySize       int64
	MetricsPath       string // empty disables the metrics endpoint
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RateLimiter       auth.RateLimiter
	Logger            *slog.Logger
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:              ":8080",
		BasePath:          "/api",
		MaxBodySize:       1 << 20, // 1 MiB
		MetricsPath:       "/metrics",
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		Logger:            slog.Default(),
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithBasePath sets the prefix the user API is mounted under.
func WithBasePath(p string) ServerOption {
	return func(s *Server) { s.config.BasePath = strings.TrimSuffix(p, "/") }
}

// WithMaxBodySize sets the maximum request body size.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) { s.config.MaxBodySize = n }
}

// WithMetricsPath sets the Prometheus endpoint path. An empty path
// disables the endpoint.
func WithMetricsPath(p string) ServerOption {
	return func(s *Server) { s.config.MetricsPath = p }
}

// WithTimeouts sets the http.Server read, write and idle timeouts. Zero
// values keep the defaults.
func WithTimeouts(readHeader, read, write, idle time.Duration) ServerOption {
	return func(s *Server) {
		if readHeader > 0 {
			s.config.ReadHeaderTimeout = readHeader
		}
		if read > 0 {
			s.config.ReadTimeout = read
		}
		if write > 0 {
			s.config.WriteTimeout = write
		}
		if idle > 0 {
			s.config.IdleTimeout = idle
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithRateLimiter enables per-identity rate limiting of protected requests.
func WithRateLimiter(l auth.RateLimiter) ServerOption {
	return func(s *Server) { s.config.RateLimiter = l }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// NewServer creates a server for svc guarded by gate.
//
// Every request passes through recovery, request ID, logging, metrics and
// the access gate, in that order. Public paths (as classified by the
// gate) reach their handler without credentials; every other path,
// including unknown ones, needs a passing vote.
func NewServer(svc transport.UserService, gate *auth.Gate, opts ...ServerOption) (*Server, error) {
	s := &Server{
		config: DefaultServerConfig(),
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	docs, err := LoadAPIDocs(context.Background(), s.config.BasePath)
	if err != nil {
		return nil, err
	}
	docsHandler, err := apiDocsHandler(docs)
	if err != nil {
		return nil, err
	}

	adapter := NewAdapter(svc, Config{
		BasePath:    s.config.BasePath,
		MaxBodySize: s.config.MaxBodySize,
	})

	mux := http.NewServeMux()
	if s.config.BasePath == "" {
		mux.Handle("/", adapter.Handler())
	} else {
		mux.Handle(s.config.BasePath+"/", adapter.Handler())
	}
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", readyzHandler(svc))
	if s.config.MetricsPath != "" {
		mux.Handle("GET "+s.config.MetricsPath, promhttp.Handler())
	}
	mux.Handle("GET "+APIDocsPath, docsHandler)
	mux.Handle(SwaggerUIPath, swaggerUIHandler())

	s.handler = transport.Chain(
		transport.Recovery(s.logger),
		transport.RequestID(),
		transport.Logging(s.logger),
		observability.MetricsMiddleware,
		auth.Middleware(gate, svc, s.config.RateLimiter),
	)(mux)

	s.httpServer = &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}

	return s, nil
}

// Handler returns the fully wrapped handler. Use this to test with httptest.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}

// readyzHandler reports ready when the user store answers a health check.
func readyzHandler(svc transport.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := svc.HealthCheck(ctx); err != nil {
			slog.Warn("readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("unavailable\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	}
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then gracefully shuts down,
// waiting for in-flight requests to complete within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.Run(ctx)
}

// Run starts the server and blocks until ctx is cancelled or the listener
// fails, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}
	return s.serve(ctx, ln)
}

// ServeOn starts the server on the given listener and blocks until ctx is
// cancelled. Used for testing.
func (s *Server) ServeOn(ctx context.Context, ln net.Listener) error {
	return s.serve(ctx, ln)
}

func (s *Server) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting", slog.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
