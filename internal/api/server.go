// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/civilregistry/internal/backup"
	"github.com/taibuivan/civilregistry/internal/platform/config"
	"github.com/taibuivan/civilregistry/internal/platform/constants"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/middleware"
	"github.com/taibuivan/civilregistry/internal/registry/birth"
	"github.com/taibuivan/civilregistry/internal/registry/certificate"
	"github.com/taibuivan/civilregistry/internal/registry/death"
	"github.com/taibuivan/civilregistry/internal/registry/document"
	"github.com/taibuivan/civilregistry/internal/registry/marriage"
	"github.com/taibuivan/civilregistry/internal/report"
	"github.com/taibuivan/civilregistry/internal/users/auth"
	"github.com/taibuivan/civilregistry/internal/users/staff"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler. It returns 200 while the process runs.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler. It returns 200 when Postgres and Redis answer.
	Readiness http.HandlerFunc

	Auth  *auth.Handler
	Staff *staff.Handler

	Birth    *birth.Handler
	Marriage *marriage.Handler
	Death    *death.Handler

	Documents    *document.Handler
	Certificates *certificate.Handler
	Reports      *report.Handler
	Backups      *backup.Handler
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(ctx context.Context, cfg *config.Config, log *slog.Logger, collectors *metrics.Metrics, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(middleware.Instrument(collectors))
	r.Use(middleware.RateLimit(ctx, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst))
	r.Use(middleware.PanicRecovery())
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated probes and the Prometheus scrape target.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Method(http.MethodGet, "/metrics", collectors.Handler())

	// # Application API
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Authenticate(verifier))

		api.Group(func(timed chi.Router) {
			timed.Use(chimw.Timeout(constants.GlobalRequestTimeout))

			// Public login plus self-service account routes.
			h.Auth.RegisterRoutes(timed)
			// Admin staff management plus the public avatar route.
			h.Staff.RegisterRoutes(timed)

			timed.Group(func(private chi.Router) {
				private.Use(middleware.RequireAuth)

				private.Route("/birth-records", h.Birth.RegisterRoutes)
				private.Route("/marriage-records", h.Marriage.RegisterRoutes)
				private.Route("/death-records", h.Death.RegisterRoutes)
				private.Route("/document-scanning", h.Documents.RegisterRoutes)
				private.Route("/certificate-issuance", h.Certificates.RegisterRoutes)
				private.Route("/reports", h.Reports.RegisterRoutes)
				private.Get("/dashboard/statistics", h.Reports.GetDashboard)
			})
		})

		// Dumps of a large database outlive the global request deadline.
		api.Route("/backup", func(backups chi.Router) {
			backups.Use(middleware.RequireAuth)
			backups.Use(chimw.Timeout(constants.BackupRequestTimeout))
			h.Backups.RegisterRoutes(backups)
		})
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.BackupRequestTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the router, for tests that drive the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
