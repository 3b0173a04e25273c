// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/starford/visproject/internal/api"
	"github.com/starford/visproject/internal/docstore"
	"github.com/starford/visproject/internal/mcpserver"
	"github.com/starford/visproject/internal/records"
	"github.com/starford/visproject/internal/sse"
	"github.com/starford/visproject/internal/storage"
	"github.com/starford/visproject/internal/studyservice"
)

// Version is reported by the CLI and the MCP server.
var Version = "1.0.0"

// runtime holds the stores shared by both hosts.
type runtime struct {
	logger   *slog.Logger
	db       *records.DB
	trees    *docstore.TreeStore
	settings *docstore.SettingsStore
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// open initializes logging, the document stores and the record database.
func (a *application) open() (*runtime, error) {
	cfg := a.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_dir", cfg.Data.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, err := storage.NewFS(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	trees := docstore.NewTreeStore(store, cfg.Data.TreeFile, logger)
	if err := trees.Load(); err != nil {
		return nil, fmt.Errorf("load tree: %w", err)
	}
	settings := docstore.NewSettingsStore(store, cfg.Data.SettingsFile, logger)
	if err := settings.Load(); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLite.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := records.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init records: %w", err)
	}

	return &runtime{logger: logger, db: db, trees: trees, settings: settings}, nil
}

// watch reloads documents edited by another host until ctx is done.
func (rt *runtime) watch(ctx context.Context, dir string) error {
	if err := docstore.Watch(ctx, dir, rt.logger, rt.trees, rt.settings); err != nil {
		// Live reload is optional; the host keeps serving its own state.
		rt.logger.Error("watcher failed", slog.String("error", err.Error()))
	}
	return nil
}

// Run starts the HTTP host with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := app.open()
	if err != nil {
		return err
	}
	defer rt.db.Close()
	logger := rt.logger

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := studyservice.New(rt.trees, rt.settings, rt.db,
		studyservice.WithNotifier(broker),
		studyservice.WithLogger(logger))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: newHTTPHandler(svc, rt.db, broker, cfg.Auth),
	}

	sigs := app.signals
	if sigs == nil {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)
		sigs = quit
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	// Pick up edits made by the MCP host.
	g.Go(func() error {
		return rt.watch(gCtx, cfg.Data.Dir)
	})

	// Publish elapsed time of a running session.
	g.Go(func() error {
		return runTicker(gCtx, cfg.Session.TickInterval, svc.Tick)
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		awaitShutdown(gCtx, sigs, svc.CanShutdown, logger)
		logger.Info("Shutting down server...")

		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the MCP tool host over stdio until stdin closes or ctx is done.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.open()
	if err != nil {
		return err
	}
	defer rt.db.Close()

	svc := studyservice.New(rt.trees, rt.settings, rt.db, studyservice.WithLogger(rt.logger))
	srv := mcpserver.New(svc, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return rt.watch(gCtx, app.config.Data.Dir)
	})
	g.Go(func() error {
		defer cancel()
		rt.logger.Info("MCP server listening on stdio")
		if err := srv.ServeStdio(); err != nil {
			return fmt.Errorf("MCP server error: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// newHTTPHandler builds the root router: health probes, metrics and the API.
func newHTTPHandler(svc *studyservice.Service, db *records.DB, broker *sse.Broker, auth AuthConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Mount API routes under /api; SSE shares its auth.
	var events http.Handler
	if broker != nil {
		events = broker
	}
	r.Mount("/api", api.NewRouter(svc, auth.AuthEnabled(), auth.Token, events))
	return r
}

// awaitShutdown blocks until ctx is done or a signal arrives while canStop
// reports true. Signals received during an active session are logged and
// dropped so the running timer is not lost.
func awaitShutdown(ctx context.Context, sigs <-chan os.Signal, canStop func() bool, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("Context cancelled, initiating shutdown")
			return
		case sig := <-sigs:
			if !canStop() {
				logger.Warn("Shutdown rejected: a session is active, end it first",
					slog.String("signal", sig.String()))
				continue
			}
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
			return
		}
	}
}

// runTicker calls tick every interval until ctx is done.
func runTicker(ctx context.Context, every time.Duration, tick func(context.Context)) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			tick(ctx)
		}
	}
}
