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
	"golang.org/x/text/language"

	"github.com/nlzhou/notebook/internal/api"
	"github.com/nlzhou/notebook/internal/assets"
	"github.com/nlzhou/notebook/internal/mcpserver"
	"github.com/nlzhou/notebook/internal/session"
	"github.com/nlzhou/notebook/internal/sse"
	"github.com/nlzhou/notebook/internal/storage"
	"github.com/nlzhou/notebook/internal/store"
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
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_backend", cfg.Store.Backend),
		slog.String("store_path", cfg.Store.Path),
		slog.String("assets_path", cfg.Assets.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Initialize the persistence provider.
	var (
		provider storage.Provider
		err      error
	)
	switch cfg.Store.Backend {
	case StoreBackendSQLite:
		provider, err = storage.NewSQLite(cfg.Store.Path)
	default:
		provider, err = storage.NewFile(cfg.Store.Path)
	}
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer provider.Close()

	// Rehydrate (or seed) the store.
	storeOpts := []store.Option{store.WithSaveDelay(cfg.Store.SaveDelay())}
	if cfg.Store.Locale != "" {
		tag, parseErr := language.Parse(cfg.Store.Locale)
		if parseErr != nil {
			return fmt.Errorf("parse locale %q: %w", cfg.Store.Locale, parseErr)
		}
		storeOpts = append(storeOpts, store.WithLocale(tag))
	}
	st, err := store.New(provider, logger, storeOpts...)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("store flush on shutdown failed", slog.String("error", closeErr.Error()))
		}
	}()

	// Asset directory.
	dir, err := assets.NewDir(cfg.Assets.Path)
	if err != nil {
		return fmt.Errorf("init assets: %w", err)
	}

	sessions := session.NewManager(st, logger, cfg.Session.SaveDelay())
	defer sessions.CloseAll()

	if app.mcpMode {
		logger.Info("Serving MCP tools over stdio")
		return mcpserver.New(st, dir).ServeStdio()
	}

	// SSE broker fed by the store change feed.
	broker := sse.NewBroker()
	defer broker.Close()
	st.Subscribe(func(ev store.Event) {
		broker.PublishChange(ev.Kind, ev.ID)
	})

	// Build API handler and router.
	h := api.NewHandler(st, sessions, dir)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the asset directory so clients learn about removed media files.
	g.Go(func() error {
		if watchErr := assets.Watch(gCtx, dir, logger, func(kind, name string) {
			broker.PublishChange(kind, name)
		}); watchErr != nil {
			logger.Warn("asset watcher failed", slog.String("error", watchErr.Error()))
		}
		return nil
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

		// Flush open editing sessions before the HTTP server stops.
		sessions.CloseAll()

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
