package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/RichardSufliarsky/apikeywall/pkg/allowlist"
	"github.com/RichardSufliarsky/apikeywall/pkg/config"
	"github.com/RichardSufliarsky/apikeywall/pkg/interceptor"
	"github.com/RichardSufliarsky/apikeywall/pkg/journal"
	"github.com/RichardSufliarsky/apikeywall/pkg/proxy"
	"github.com/RichardSufliarsky/apikeywall/pkg/proxy/handlers"
	"github.com/RichardSufliarsky/apikeywall/pkg/reload"
	"github.com/RichardSufliarsky/apikeywall/pkg/rules"
	"github.com/RichardSufliarsky/apikeywall/pkg/secrets"
	"github.com/RichardSufliarsky/apikeywall/pkg/telemetry/metrics"
)

// Admin endpoints.
const (
	HealthPath  = "/healthz"
	JournalPath = "/journal"
)

// Gateway owns every component of a running apikeywall instance.
type Gateway struct {
	cfg    *config.Config
	logger *slog.Logger

	options     *proxy.Options
	shutdown    *proxy.Shutdown
	store       *rules.Store
	loader      *secrets.Loader
	projector   *allowlist.Projector
	reloader    *reload.Reloader
	scheduler   *reload.Scheduler
	interceptor *interceptor.Interceptor
	server      *proxy.Server
	metrics     *metrics.Collector
	journal     journal.Store

	registry  *prometheus.Registry
	transport http.RoundTripper

	mu        sync.Mutex
	adminAddr net.Addr
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the root logger. Components derive their loggers from it.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(g *Gateway) {
		g.registry = registry
	}
}

// WithTransport overrides the proxy's upstream round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(g *Gateway) {
		g.transport = rt
	}
}

// WithJournal sets the reload journal, overriding journal configuration.
func WithJournal(store journal.Store) Option {
	return func(g *Gateway) {
		g.journal = store
	}
}

// New builds a Gateway from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Gateway, error) {
	g := &Gateway{cfg: cfg}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}

	path, err := cfg.SecretsPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve secrets path: %w", err)
	}

	schedCfg, err := reload.SchedulerConfigFrom(cfg.Reload)
	if err != nil {
		return nil, fmt.Errorf("invalid reload configuration: %w", err)
	}

	g.metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, g.registry)
	g.options = proxy.NewOptions()
	g.shutdown = proxy.NewShutdown()
	g.store = rules.NewStore()

	g.loader = secrets.NewLoader(path,
		secrets.WithClaimSuffix(cfg.Secrets.ClaimSuffix),
		secrets.WithLogger(g.component("secrets")),
		secrets.WithCleanupFailureHook(func(string, error) {
			g.metrics.RecordCleanupFailure()
		}),
	)

	g.projector = allowlist.NewProjector(g.options,
		allowlist.WithLogger(g.component("allowlist")),
		allowlist.WithRecorder(g.metrics),
	)

	if g.journal == nil && cfg.Journal.Enabled {
		if g.journal, err = journal.Open(cfg.Journal); err != nil {
			return nil, fmt.Errorf("failed to open reload journal: %w", err)
		}
	}

	reloaderOpts := []reload.Option{
		reload.WithLogger(g.component("reload")),
		reload.WithRecorder(g.metrics),
	}
	if g.journal != nil {
		reloaderOpts = append(reloaderOpts, reload.WithJournal(g.journal))
	}
	g.reloader = reload.NewReloader(g.loader, g.store, g.projector, reloaderOpts...)

	g.scheduler, err = reload.NewScheduler(g.reloader, g.shutdown, path, schedCfg, g.component("reload.scheduler"))
	if err != nil {
		g.Close()
		return nil, err
	}

	g.interceptor = interceptor.New(g.store,
		interceptor.WithLogger(g.component("interceptor")),
		interceptor.WithRecorder(g.metrics),
	)

	serverOpts := []proxy.ServerOption{
		proxy.WithHooks(g.interceptor),
		proxy.WithMiddleware(g.scheduler.Middleware),
		proxy.WithLogger(g.component("proxy")),
	}
	if g.transport != nil {
		serverOpts = append(serverOpts, proxy.WithTransport(g.transport))
	}
	g.server = proxy.NewServer(&cfg.Proxy, g.options, g.shutdown, serverOpts...)

	return g, nil
}

func (g *Gateway) component(name string) *slog.Logger {
	return g.logger.With("component", name)
}

// Start performs the startup load and serves until ctx is cancelled, the
// shutdown flag is raised or a listener fails.
func (g *Gateway) Start(ctx context.Context) error {
	g.options.SetIdleTimeout(g.cfg.Proxy.IdleTimeout)
	g.logger.Info("set idle timeout", "idle_timeout", g.cfg.Proxy.IdleTimeout.String())

	if g.scheduler.Mode() == reload.ModeWatch {
		if err := os.MkdirAll(filepath.Dir(g.loader.Path()), 0o700); err != nil {
			return fmt.Errorf("failed to create secrets directory: %w", err)
		}
	}

	policy := reload.StartupRequire
	if g.cfg.Secrets.AllowMissingOnStartup {
		policy = reload.StartupTolerate
	}
	if err := g.reloader.Startup(policy, g.shutdown); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := g.scheduler.Run(ctx); err != nil {
			errChan <- fmt.Errorf("reload scheduler: %w", err)
			g.shutdown.Set()
		}
	}()

	if g.cfg.Telemetry.Metrics.Enabled {
		admin, ln, err := g.listenAdmin()
		if err != nil {
			g.shutdown.Set()
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := admin.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("admin server: %w", err)
				g.shutdown.Set()
			}
		}()
		go func() {
			<-ctx.Done()
			_ = admin.Close()
		}()
	}

	err := g.server.Start(ctx)
	g.shutdown.Set()
	cancel()
	wg.Wait()

	if err != nil {
		return err
	}
	select {
	case err := <-errChan:
		return err
	default:
		return nil
	}
}

func (g *Gateway) listenAdmin() (*http.Server, net.Listener, error) {
	addr := g.cfg.Telemetry.Metrics.ListenAddress
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen on admin address %s: %w", addr, err)
	}

	g.mu.Lock()
	g.adminAddr = ln.Addr()
	g.mu.Unlock()

	g.logger.Info("starting admin server",
		"address", ln.Addr().String(),
		"metrics_path", g.cfg.Telemetry.Metrics.Path,
	)

	return &http.Server{
		Handler:           g.AdminHandler(),
		ReadHeaderTimeout: g.cfg.Proxy.ReadHeaderTimeout,
	}, ln, nil
}

// AdminHandler serves metrics and health.
func (g *Gateway) AdminHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(g.cfg.Telemetry.Metrics.Path, g.metrics.Handler())
	mux.Handle(HealthPath, handlers.NewHealthHandler(g))
	if g.journal != nil {
		mux.Handle(JournalPath, handlers.NewJournalHandler(g.journal))
	}
	return mux
}

// Handler returns the proxy handler, for embedding or tests.
func (g *Gateway) Handler() http.Handler {
	return g.server.Handler()
}

// Status implements handlers.StatusSource.
func (g *Gateway) Status() handlers.Status {
	snap := g.store.Snapshot()
	return handlers.Status{
		Generation: snap.Generation(),
		Rules:      snap.Len(),
		AllowHosts: len(g.options.AllowHosts()),
		ShutDown:   g.shutdown.IsSet(),
	}
}

// ProxyAddr returns the bound proxy address once Start is serving.
func (g *Gateway) ProxyAddr() net.Addr {
	return g.server.Addr()
}

// AdminAddr returns the bound admin address once Start is serving.
func (g *Gateway) AdminAddr() net.Addr {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.adminAddr
}

// Shutdown raises the shutdown flag, stopping Start.
func (g *Gateway) Shutdown() {
	g.shutdown.Set()
}

// Close releases the reload journal. Call it after Start returns.
func (g *Gateway) Close() error {
	if g.journal == nil {
		return nil
	}
	return g.journal.Close()
}

// Store returns the rule store.
func (g *Gateway) Store() *rules.Store {
	return g.store
}
