package main

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

	"github.com/example/cobunny/internal/application"
	"github.com/example/cobunny/internal/config"
	httptransport "github.com/example/cobunny/internal/http"
	"github.com/example/cobunny/internal/persistence"
	"github.com/example/cobunny/internal/persistence/memory"
	"github.com/example/cobunny/internal/persistence/redisstore"
	"github.com/example/cobunny/internal/persistence/sqlite"
)

type closableStore interface {
	persistence.Store
	Close() error
}

// app is the wired core behind the HTTP handler.
type app struct {
	directory *application.Directory
	session   *application.Session
	ledger    *application.Ledger
	handler   http.Handler
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	a, err := buildApp(ctx, cfg, store, time.Now, logger)
	if err != nil {
		logger.Error("failed to initialise services", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("cobunny API listening", "addr", server.Addr, "backend", cfg.StoreBackend, "namespace", cfg.Namespace)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// openStore opens the configured backend. SQLite databases are migrated before use.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (closableStore, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		store, err := sqlite.Open(cfg.SQLitePath, sqlite.Options{Namespace: cfg.Namespace, Logger: logger})
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return store, nil
	case config.BackendRedis:
		store, err := redisstore.Dial(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.Namespace)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

// buildApp seeds the directory, restores the session, loads the ledger and
// wires the HTTP router over them.
func buildApp(ctx context.Context, cfg config.Config, store persistence.Store, now func() time.Time, logger *slog.Logger) (*app, error) {
	defaults, err := application.LoadSeedUsers(cfg.SeedUsersPath)
	if err != nil {
		return nil, fmt.Errorf("load seed users: %w", err)
	}

	directory := application.NewDirectoryWithLogger(store, defaults, cfg.PasswordScheme, now, logger)
	if _, err := directory.EnsureSeeded(ctx); err != nil {
		return nil, fmt.Errorf("seed directory: %w", err)
	}

	session := application.NewSessionWithLogger(store, directory, logger)
	if err := session.Restore(ctx); err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}

	ledger := application.NewLedgerWithLogger(store, now, logger)
	if err := ledger.Load(ctx); err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(session, logger),
		Favorites:  httptransport.NewFavoriteHandler(session, logger),
		Bookings:   httptransport.NewBookingHandler(ledger, logger),
		Guard:      session,
		Logger:     logger,
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	return &app{directory: directory, session: session, ledger: ledger, handler: handler}, nil
}
