// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the civil registry HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start the backup scheduler and the HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taibuivan/civilregistry/internal/api"
	"github.com/taibuivan/civilregistry/internal/backup"
	"github.com/taibuivan/civilregistry/internal/platform/config"
	"github.com/taibuivan/civilregistry/internal/platform/constants"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/migration"
	pgstore "github.com/taibuivan/civilregistry/internal/platform/postgres"
	redisstore "github.com/taibuivan/civilregistry/internal/platform/redis"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/registry/birth"
	"github.com/taibuivan/civilregistry/internal/registry/certificate"
	"github.com/taibuivan/civilregistry/internal/registry/death"
	"github.com/taibuivan/civilregistry/internal/registry/document"
	"github.com/taibuivan/civilregistry/internal/registry/marriage"
	"github.com/taibuivan/civilregistry/internal/report"
	"github.com/taibuivan/civilregistry/internal/users/auth"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/internal/users/staff"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.String("timezone", cfg.SchedulerTimezone),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, 0, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Shared Infrastructure ──────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.New(registry)

	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	files, err := storage.NewDisk(cfg.StorageRoot)
	must(log, err, "open storage root")

	backupFiles, err := storage.NewDisk(cfg.BackupDir)
	must(log, err, "open backup directory")

	location := cfg.Location()
	people := directory.New(directory.NewPostgresRepository(pool), log)

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	authService := auth.NewService(auth.NewAccountRepository(pool), auth.NewRevocationStore(rdb), tokens, collector, log)

	staffService := staff.NewService(staff.NewPostgresRepository(pool), files, people, staff.NewLogNotifier(log), staff.Settings{
		PublicBaseURL: cfg.PublicBaseURL,
		AvatarMaxSize: cfg.AvatarMaxSize,
	}, log)

	documentService := document.NewService(document.NewPostgresRepository(pool), files, document.NewPDFExtractor(), people, collector, document.Settings{
		PublicBaseURL: cfg.PublicBaseURL,
		MaxSize:       cfg.DocumentMaxSize,
		Location:      location,
	}, log)

	certificates := certificate.NewPostgresRepository(pool)
	certificateService := certificate.NewService(certificates, certificates, people, collector, location, log)

	backupService := backup.NewService(
		backup.NewPostgresDumper(pool),
		backup.NewPostgresScheduleStore(pool),
		backupFiles,
		backup.NewRedisLock(rdb),
		collector,
		backup.Settings{Retention: cfg.BackupRetentionCount, Location: location},
		log,
	)

	handlers := api.Handlers{
		Liveness:     liveness,
		Readiness:    readiness,
		Auth:         auth.NewHandler(authService),
		Staff:        staff.NewHandler(staffService),
		Birth:        birth.NewHandler(birth.NewService(birth.NewPostgresRepository(pool), people, collector, log)),
		Marriage:     marriage.NewHandler(marriage.NewService(marriage.NewPostgresRepository(pool), people, collector, log)),
		Death:        death.NewHandler(death.NewService(death.NewPostgresRepository(pool), people, collector, log)),
		Documents:    document.NewHandler(documentService),
		Certificates: certificate.NewHandler(certificateService),
		Reports:      report.NewHandler(report.NewService(report.NewPostgresRepository(pool), location, log)),
		Backups:      backup.NewHandler(backupService),
	}

	// ── 9. Background Work ────────────────────────────────────────────────
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	var background sync.WaitGroup
	if cfg.SchedulerEnabled {
		background.Add(1)
		go func() {
			defer background.Done()
			backup.NewScheduler(backupService, log).Run(appCtx)
		}()
	} else {
		log.Info("backup_scheduler_disabled")
	}

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, collector, authService, handlers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
	}

	appCancel()
	background.Wait()

	log.Info("server stopped cleanly")
}

func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
