package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/httputil"
	"sync"

	"github.com/google/uuid"

	"github.com/RichardSufliarsky/apikeywall/pkg/config"
	"github.com/RichardSufliarsky/apikeywall/pkg/proxy/middleware"
	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/logging"
)

// Server is the forward proxy listener.
type Server struct {
	config     *config.ProxyConfig
	options    *Options
	shutdown   *Shutdown
	hooks      []RequestHook
	middleware []func(http.Handler) http.Handler
	transport  http.RoundTripper
	logger     *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithHooks appends request hooks. Hooks run in the order given.
func WithHooks(hooks ...RequestHook) ServerOption {
	return func(s *Server) {
		s.hooks = append(s.hooks, hooks...)
	}
}

// WithMiddleware wraps the engine with mw. Middleware added here runs after
// request ID assignment and logging, immediately before the hooks.
func WithMiddleware(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(s *Server) {
		s.middleware = append(s.middleware, mw...)
	}
}

// WithTransport overrides the upstream round tripper.
func WithTransport(rt http.RoundTripper) ServerOption {
	return func(s *Server) {
		s.transport = rt
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new proxy server.
func NewServer(cfg *config.ProxyConfig, options *Options, shutdown *Shutdown, opts ...ServerOption) *Server {
	s := &Server{
		config:   cfg,
		options:  options,
		shutdown: shutdown,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default().With("component", "proxy")
	}
	return s
}

// Start listens on the configured address and serves until ctx is cancelled,
// the shutdown flag is set or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		IdleTimeout:       s.options.IdleTimeout(),
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting proxy server",
			"address", ln.Addr().String(),
			"idle_timeout", s.options.IdleTimeout().String(),
			"upstream_tls", s.config.UpstreamTLS,
		)

		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case <-s.shutdown.Done():
		s.logger.Info("shutdown requested")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.shutdown.Set()
		return err
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("proxy server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes builds the engine and wraps it in the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	engine := &engine{
		options: s.options,
		hooks:   s.hooks,
		proxy: &httputil.ReverseProxy{
			Rewrite:       s.rewrite,
			Transport:     s.upstreamTransport(),
			FlushInterval: -1,
			ErrorHandler:  s.upstreamError,
			ErrorLog:      slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		},
	}

	var handler http.Handler = engine

	for i := len(s.middleware) - 1; i >= 0; i-- {
		handler = s.middleware[i](handler)
	}

	handler = middleware.LoggingMiddleware(s.logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// upstreamTransport returns the configured round tripper or a transport
// derived from http.DefaultTransport. Upstream connections never go through
// another proxy from the environment.
func (s *Server) upstreamTransport() http.RoundTripper {
	if s.transport != nil {
		return s.transport
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.IdleConnTimeout = s.options.IdleTimeout()
	return transport
}

func (s *Server) rewrite(pr *httputil.ProxyRequest) {
	pr.Out.Host = pr.In.Host
	if s.config.UpstreamTLS && pr.Out.URL.Scheme == "http" {
		pr.Out.URL.Scheme = "https"
		if pr.Out.URL.Port() == "80" {
			pr.Out.URL.Host = pr.Out.URL.Hostname()
		}
	}
}

func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logging.FromContext(r.Context(), s.logger)
	logger.WarnContext(r.Context(), "upstream request failed",
		"host", flowHost(r),
		"error", err,
	)
	http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
}

// engine validates proxy requests, runs hooks and forwards upstream.
type engine struct {
	options *Options
	hooks   []RequestHook
	proxy   *httputil.ReverseProxy
}

func (e *engine) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodConnect {
		w.Header().Set("Allow", "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS")
		http.Error(w, "CONNECT tunnelling is not supported", http.StatusMethodNotAllowed)
		return
	}
	if !r.URL.IsAbs() || r.URL.Host == "" {
		http.Error(w, "proxy requests must use an absolute URI", http.StatusBadRequest)
		return
	}

	flow := &Flow{
		Request: r,
		Host:    flowHost(r),
		ID:      middleware.GetRequestID(r.Context()),
	}
	if flow.ID == "" {
		flow.ID = uuid.NewString()
	}

	if e.options.Intercepts(flow.Host) {
		for _, hook := range e.hooks {
			hook.RequestHeaders(flow)
		}
	}

	e.proxy.ServeHTTP(w, flow.Request)
}
