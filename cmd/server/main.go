// Package main is the entrypoint for the CarYard API server.
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

	"github.com/caryardhq/caryard/internal/api"
	"github.com/caryardhq/caryard/internal/api/handler"
	mw "github.com/caryardhq/caryard/internal/api/middleware"
	"github.com/caryardhq/caryard/internal/cache"
	"github.com/caryardhq/caryard/internal/config"
	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/internal/importer"
	"github.com/caryardhq/caryard/internal/snapshot"
	"github.com/caryardhq/caryard/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "import_max_rows", cfg.Import.MaxRows)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store and services
	pgStore := store.NewPostgresStore(pool)
	importSvc := importer.NewService(pgStore, redisCache, logger, cfg.Import)
	snapshotSvc := snapshot.NewService(pgStore, logger)

	// The auth middleware binds the owner UID per request; everything
	// downstream resolves it from the context.
	resolver := identity.ContextResolver{}

	// 6. Build router with dependencies
	deps := api.Dependencies{
		Auth:      mw.NewAuth(pgStore),
		RateLimit: mw.NewRateLimit(redisCache, 60),

		HealthHandler: handler.NewHealthHandler(pgStore, redisCache),

		ListCustomers:  handler.NewListCustomersHandler(pgStore, resolver),
		GetCustomer:    handler.NewGetCustomerHandler(pgStore, resolver),
		UpsertCustomer: handler.NewUpsertCustomerHandler(pgStore, resolver),
		DeleteCustomer: handler.NewDeleteCustomerHandler(pgStore, resolver),

		ListRequests: handler.NewListRequestsHandler(pgStore, resolver),
		RecordView:   handler.NewRecordViewHandler(pgStore, redisCache, resolver),
		GetViews:     handler.NewGetViewsHandler(pgStore, redisCache, resolver),

		UploadImport:    handler.NewUploadImportHandler(importSvc, resolver),
		ListImportRuns:  handler.NewListImportRunsHandler(importSvc, resolver),
		GetImportRun:    handler.NewGetImportRunHandler(importSvc, resolver),
		ImportRunStatus: handler.NewImportRunStatusHandler(importSvc, resolver),
		CommitImport:    handler.NewCommitImportHandler(importSvc, resolver),
		ImportLogs:      handler.NewImportLogsHandler(importSvc, resolver),

		ExportSnapshot: handler.NewExportSnapshotHandler(snapshotSvc, resolver),
		ImportSnapshot: handler.NewImportSnapshotHandler(snapshotSvc, resolver),
		ExportCSV:      handler.NewExportCSVHandler(snapshotSvc, resolver),

		ListSettings:   handler.NewListSettingsHandler(pgStore, resolver),
		PutSettings:    handler.NewPutSettingsHandler(pgStore, resolver),
		ExportSettings: handler.NewExportSettingsHandler(pgStore, resolver),

		Backfill: handler.NewBackfillHandler(pgStore, resolver),

		CreateKeyHandler: handler.NewCreateKeyHandler(pgStore, resolver),
		ListKeysHandler:  handler.NewListKeysHandler(pgStore, resolver),
		RevokeKeyHandler: handler.NewRevokeKeyHandler(pgStore, resolver),
	}

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
