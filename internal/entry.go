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

	"github.com/starford/booker/internal/api"
	"github.com/starford/booker/internal/index"
	"github.com/starford/booker/internal/library"
	"github.com/starford/booker/internal/mcpserver"
	"github.com/starford/booker/internal/sse"
	"github.com/starford/booker/internal/storage"
)

// NewLogger builds the structured JSON logger. It writes to stderr so that
// stdout stays free for command output and the MCP stdio transport.
func NewLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// Library is an opened vault together with its catalog.
type Library struct {
	*library.Service
	Store *storage.FS
	DB    *index.DB
}

// Close releases the catalog database.
func (l *Library) Close() error {
	return l.DB.Close()
}

// OpenLibrary opens the vault and catalog described by the options. The
// caller must Close the result.
func OpenLibrary(opts ...Option) (*Library, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	return app.openLibrary()
}

func (app *application) openLibrary(svcOpts ...library.Option) (*Library, error) {
	cfg := app.config

	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	svcOpts = append([]library.Option{library.WithLogger(app.logger)}, svcOpts...)
	lib := &Library{
		Service: library.NewService(store, db, svcOpts...),
		Store:   store,
		DB:      db,
	}

	if cfg.Booker.SyncOnStart {
		if err := lib.Sync(context.Background()); err != nil {
			app.logger.Warn("initial sync failed", slog.String("error", err.Error()))
		}
	}
	return lib, nil
}

// watch keeps the catalog current with edits made outside booker until ctx
// is done. Watcher failures are logged, not fatal.
func (app *application) watch(ctx context.Context, lib *Library, cb index.EventCallback) {
	if err := index.Watch(ctx, lib.DB, lib.Store, lib.Store.Root(), app.logger, cb); err != nil {
		app.logger.Warn("watcher stopped", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.Events.LibraryThrottle)
	defer broker.Close()

	lib, err := app.openLibrary(library.WithEvents(broker))
	if err != nil {
		return err
	}
	defer lib.Close()

	apiRouter := api.NewRouter(lib.Service, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if err := lib.DB.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Events.Watch {
		g.Go(func() error {
			app.watch(gCtx, lib, broker.PublishDocumentEvent)
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.shutdownTimeout())
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown stops the errgroup so the watcher exits with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio until stdin is closed. The catalog
// is kept current by a background watcher.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	slog.SetDefault(app.logger)

	lib, err := app.openLibrary()
	if err != nil {
		return err
	}
	defer lib.Close()

	if app.config.Events.Watch {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go app.watch(ctx, lib, nil)
	}

	app.logger.Info("Starting MCP server", slog.String("vault_path", app.config.Vault.Path))
	return mcpserver.New(lib.Service, app.config.Booker.DefaultTemplate).ServeStdio()
}
