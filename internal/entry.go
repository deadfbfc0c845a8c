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
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/eastgate/lore/internal/api"
	"github.com/eastgate/lore/internal/github"
	"github.com/eastgate/lore/internal/mcpserver"
	"github.com/eastgate/lore/internal/sse"
	"github.com/eastgate/lore/internal/store"
	"github.com/eastgate/lore/internal/syncer"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	if app.mcpMode {
		// stdout carries the MCP protocol; keep logs on stderr.
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("repo", cfg.Repo.Owner+"/"+cfg.Repo.Name+"@"+cfg.Repo.Branch),
		slog.String("base_path", cfg.Repo.BasePath),
		slog.Duration("freshness", cfg.Cache.Freshness),
		slog.Duration("poll_interval", cfg.Sync.PollInterval),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Durable snapshot store; advisory, so failure to open runs memory-only.
	var snap store.Snapshot
	if cfg.Cache.SnapshotPath != "" {
		sqliteSnap, err := store.OpenSnapshot(cfg.Cache.SnapshotPath)
		if err != nil {
			logger.Warn("snapshot store unavailable, running memory-only",
				slog.String("path", cfg.Cache.SnapshotPath),
				slog.String("error", err.Error()))
		} else {
			snap = sqliteSnap
			defer sqliteSnap.Close()
		}
	}

	cache := store.New(cfg.Cache.Freshness, snap)

	client := github.New(cfg.Repo.Owner, cfg.Repo.Name, cfg.Repo.Branch,
		cfg.Repo.BasePath, cfg.Repo.Token)

	engine := syncer.New(client, cache, syncer.NewNotifier(),
		cfg.Repo.BasePath, cfg.Sync.PollInterval, logger)

	if app.mcpMode {
		return runMCP(ctx, engine, logger)
	}

	// SSE broker, fed by engine change events.
	broker := sse.NewBroker()
	defer broker.Close()
	engine.Notifier().Subscribe(func(change syncer.Change) {
		broker.PublishDocsChanged(change)
	})

	// Build API router.
	apiRouter := api.NewRouter(engine, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
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
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		state := engine.State()
		if state == syncer.StateUninitialized {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"initializing"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(fmt.Sprintf(`{"status":"ok","state":%q}`, state)))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start the sync engine (initial refresh + polling loop).
	g.Go(func() error {
		return engine.Run(gCtx)
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
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// runMCP serves the MCP stdio transport, with the polling loop running in
// the background so tool responses stay current.
func runMCP(ctx context.Context, engine *syncer.Engine, logger *slog.Logger) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(gCtx)
	})
	g.Go(func() error {
		logger.Info("Starting MCP stdio server")
		return mcpserver.New(engine).ServeStdio()
	})

	return g.Wait()
}
