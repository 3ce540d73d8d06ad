// Package server provides the HTTP server behind `stagehand serve`.
//
// The server exposes a REST API to inspect the component graph, trigger
// activation runs and browse their history.
//
// # Endpoints
//
//   - GET /health - Simple health check, returns "ok"
//   - GET /api/plan - Activation order of the configured root
//   - GET /api/status - Server properties, run status and next scheduled run
//   - POST /api/run - Starts a run in the background
//   - GET /api/history - Finished runs, most recent first
//   - GET /api/history/{id} - One finished run with its component logs
//   - POST /api/history/reload - Re-reads history from the state directory
//   - POST /api/reload - Reloads configuration from disk
//   - GET /api/config - Current configuration as YAML, settings redacted
//   - GET /metrics - Prometheus metrics
//
// # Architecture
//
// The host built from the configuration is swapped atomically on reload.
// Every run asks the current host for a fresh activator, so a reload takes
// effect on the next run without disturbing one in progress. The listen
// address, schedule and state directory are read once at startup. With
// server.watch_config the configuration is also reloaded when the file
// changes.
//
// # Example
//
//	srv, err := server.New("/etc/stagehand/config.yaml", server.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nomis52/stagehand/buildinfo"
	"github.com/nomis52/stagehand/component"
	"github.com/nomis52/stagehand/config"
	"github.com/nomis52/stagehand/host"
	"github.com/nomis52/stagehand/logging"
	"github.com/nomis52/stagehand/metrics"
	"github.com/nomis52/stagehand/server/handlers"
	"github.com/nomis52/stagehand/server/runner"
	"github.com/nomis52/stagehand/server/schedule"
	"github.com/nomis52/stagehand/server/types"
	"github.com/nomis52/stagehand/statusline"
)

const (
	defaultReadTimeout  = 10 * time.Second
	defaultWriteTimeout = 10 * time.Second
)

// Server is the HTTP server for stagehand.
type Server struct {
	addr       string
	configPath string
	logger     *slog.Logger
	hostOpts   []host.Option

	host     atomic.Pointer[host.Host]
	registry *metrics.ScrapeRegistry
	engine   *component.Metrics
	store    runner.StateStore
	runner   *runner.Runner
	schedule *schedule.Manager

	shutdownTimeout time.Duration
	properties      types.ServerProperties
	handler         http.Handler
}

// Option configures a Server.
type Option func(*Server) error

// WithListenAddr overrides the listen address from the configuration.
func WithListenAddr(addr string) Option {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithLogger sets the server's logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithRegistry serves metrics from reg instead of a new registry.
func WithRegistry(reg *metrics.ScrapeRegistry) Option {
	return func(s *Server) error {
		s.registry = reg
		return nil
	}
}

// WithHostOptions passes opts to every host the server builds.
func WithHostOptions(opts ...host.Option) Option {
	return func(s *Server) error {
		s.hostOpts = append(s.hostOpts, opts...)
		return nil
	}
}

// New creates a new Server with the given config path and options.
// It loads the configuration and initializes all dependencies.
func New(configPath string, opts ...Option) (*Server, error) {
	s := &Server{
		configPath: configPath,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.registry == nil {
		reg, err := metrics.NewScrapeRegistry(metrics.WithBuildInfo(buildinfo.Get().Labels()))
		if err != nil {
			return nil, fmt.Errorf("creating metrics registry: %w", err)
		}
		s.registry = reg
	}
	engineMetrics, err := component.NewMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("creating engine metrics: %w", err)
	}
	s.engine = engineMetrics

	if err := s.Reload(); err != nil {
		return nil, err
	}
	cfg := s.Config()

	if s.addr == "" {
		s.addr = cfg.Server.Listen
	}
	s.shutdownTimeout = cfg.Server.ShutdownTimeout

	if cfg.Server.StateDir != "" {
		store, err := runner.NewDiskStore(cfg.Server.StateDir, cfg.Server.HistorySize, s.logger)
		if err != nil {
			return nil, fmt.Errorf("opening state directory: %w", err)
		}
		s.store = store
	} else {
		s.store = runner.NewMemoryStore(cfg.Server.HistorySize)
	}
	s.runner = runner.New(s.logger, s, runner.WithStateStore(s.store))

	if cfg.Server.Schedule != "" {
		mgr, err := schedule.NewManager(cfg.Server.Schedule, s.runner, s.logger)
		if err != nil {
			return nil, fmt.Errorf("creating schedule: %w", err)
		}
		s.schedule = mgr
	}

	hostname, err := os.Hostname()
	if err != nil {
		s.logger.Warn("failed to read hostname", "error", err)
	}
	s.properties = types.ServerProperties{
		Build:      buildinfo.Get(),
		StartedAt:  time.Now(),
		Hostname:   hostname,
		ConfigPath: configPath,
	}
	if s.schedule != nil {
		s.properties.Schedule = s.schedule.Specs()
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)
	s.handler = mux
	return s, nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Reload reads the config from disk and rebuilds the host.
func (s *Server) Reload() error {
	cfg, err := config.LoadConfig(s.configPath)
	if err != nil {
		return err
	}

	opts := append([]host.Option{host.WithEngineMetrics(s.engine)}, s.hostOpts...)
	h, err := host.New(&cfg, s.logger, opts...)
	if err != nil {
		return fmt.Errorf("building host: %w", err)
	}
	s.host.Store(h)

	s.logger.Info("configuration loaded", "config_path", s.configPath, "root", h.Root().String())
	return nil
}

// Config returns the current configuration.
func (s *Server) Config() *config.Config {
	return s.host.Load().Config()
}

// Plan returns the static analysis of the current root.
func (s *Server) Plan() (*component.Plan, error) {
	return s.host.Load().Plan()
}

// Launch runs the current host. It lets the server act as the runner's
// launcher.
func (s *Server) Launch(hook logging.LoggerHook, statuses *statusline.Handler) (*component.Report, error) {
	return s.host.Load().Launch(hook, statuses)
}

// Runner returns the server's run manager.
func (s *Server) Runner() *runner.Runner {
	return s.runner
}

// NextRun returns the next scheduled run time, or nil if no schedule is configured.
func (s *Server) NextRun() *time.Time {
	if s.schedule == nil {
		return nil
	}
	next := s.schedule.NextRun()
	return &next
}

// Status returns the current run status by delegating to the runner.
func (s *Server) Status() runner.RunStatus {
	return s.runner.Status()
}

// Properties returns metadata about the running server.
func (s *Server) Properties() types.ServerProperties {
	props := s.properties
	props.Root = s.host.Load().Root().String()
	return props
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If a schedule is configured, it will be started automatically.
func (s *Server) Run(ctx context.Context) error {
	cfg := s.Config()
	httpServer := &http.Server{
		Addr:         s.addr,
		Handler:      s.handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}

	useTLS := cfg.Server.TLSCert != ""
	if useTLS {
		loader, err := NewCertLoader(cfg.Server.TLSCert, cfg.Server.TLSKey, s.logger)
		if err != nil {
			return err
		}
		httpServer.TLSConfig = &tls.Config{
			GetCertificate: loader.GetCertificate,
			MinVersion:     tls.VersionTLS12,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.schedule != nil {
		s.logger.Info("starting schedule", "next_run", s.schedule.NextRun())
		s.schedule.Start(gctx)
	}

	g.Go(func() error {
		s.logger.Info("starting server",
			"addr", s.addr,
			"tls", useTLS,
			"config_path", s.configPath,
		)
		var err error
		if useTLS {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	if cfg.Server.WatchConfig {
		watcher := newConfigWatcher(s.configPath, s.Reload, s.logger)
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		if s.runner.IsRunning() {
			s.logger.Warn("activation run still in progress at shutdown")
		}
		return nil
	})

	return g.Wait()
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/plan", handlers.NewPlanHandler(s.logger, s))
	mux.Handle("GET /api/status", handlers.NewStatusHandler(s))
	mux.Handle("POST /api/run", handlers.NewRunHandler(s.logger, s.runner))
	mux.Handle("GET /api/history", handlers.NewHistoryHandler(s.runner))
	mux.Handle("GET /api/history/{id}", handlers.NewHistoryRunHandler(s.runner))
	mux.Handle("POST /api/reload", handlers.NewReloadHandler(s.logger, "configuration", s))
	mux.Handle("GET /api/config", handlers.NewConfigHandler(s))
	mux.Handle("GET /metrics", s.registry.Handler())

	if reloadable, ok := s.store.(handlers.Reloader); ok {
		mux.Handle("POST /api/history/reload", handlers.NewReloadHandler(s.logger, "history", reloadable))
	}
}
