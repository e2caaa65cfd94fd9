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

	"github.com/example/stacklyhub/internal/application"
	"github.com/example/stacklyhub/internal/auth"
	"github.com/example/stacklyhub/internal/config"
	httptransport "github.com/example/stacklyhub/internal/http"
	"github.com/example/stacklyhub/internal/logging"
	"github.com/example/stacklyhub/internal/persistence"
	"github.com/example/stacklyhub/internal/persistence/memory"
	"github.com/example/stacklyhub/internal/persistence/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("stacklyhub exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	app, err := newApp(ctx, cfg, logger, time.Now)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("failed to close application", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
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

	logger.Info("stacklyhub API listening", "addr", server.Addr, "storage", cfg.Storage)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

// app holds the wired process: the store, its reminder watcher and the HTTP handler.
type app struct {
	handler http.Handler
	store   *application.Store
	watcher *application.ReminderWatcher
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, now func() time.Time) (*app, error) {
	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{closers: []func() error{closeStorage}}

	a.store = application.NewStore(application.StoreConfig{
		Storage:        storage,
		Passwords:      application.PasswordMatcherFor(cfg.PasswordHashing),
		ReminderWindow: cfg.ReminderWindow,
		Now:            now,
		Logger:         logger,
	})
	if cfg.SeedData {
		if err := a.store.Seed(ctx, application.SeedUsers(), application.SeedSessions(now())); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("seed roster: %w", err)
		}
	}

	a.watcher = application.NewReminderWatcher(a.store, cfg.ReminderInterval, now, logger)
	a.store.Subscribe(a.watcher)
	a.store.Restore(ctx)

	sessions := application.NewSessionServiceWithLogger(a.store, now, logger)
	users := application.NewUserServiceWithLogger(a.store, logger)
	accounts := application.NewAccountServiceWithLogger(a.store, logger)
	analytics := application.NewAnalyticsServiceWithLogger(a.store, logger)
	drafts := application.NewDrafts(storage, logger)
	tokens := auth.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTTL, auth.WithClock(now))

	a.handler = httptransport.NewRouter(httptransport.RouterConfig{
		Auth:          httptransport.NewAuthHandler(a.store, tokens, accounts, logger),
		Users:         httptransport.NewUserHandler(users, drafts, logger),
		Sessions:      httptransport.NewSessionHandler(sessions, drafts, logger),
		Notifications: httptransport.NewNotificationHandler(a.store, logger),
		Analytics:     httptransport.NewAnalyticsHandler(analytics, now, logger),
		Settings:      httptransport.NewSettingsHandler(a.store, accounts, logger),
		Drafts:        httptransport.NewDraftHandler(drafts, logger),
		Tokens:        tokens,
		Principals:    a.store,
		Logger:        logger,
		CORSOrigins:   cfg.CORSOrigins,
	})
	return a, nil
}

// Close stops the watcher and releases storage.
func (a *app) Close() error {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	var errs []error
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.ClientStorage, func() error, error) {
	if cfg.Storage == config.StorageMemory {
		return memory.New(), func() error { return nil }, nil
	}
	storage, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open client storage: %w", err)
	}
	return storage, storage.Close, nil
}
