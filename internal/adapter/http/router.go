package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/checkledger/internal/adapter/http/handler"
	"github.com/iho/checkledger/internal/adapter/http/middleware"
	"github.com/iho/checkledger/internal/infrastructure/metrics"
	"github.com/iho/checkledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler *handler.AccountHandler
	LedgerHandler  *handler.LedgerHandler
	EntryHandler   *handler.EntryHandler
	HealthHandler  *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore // optional
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter  // optional
	Authenticator    middleware.Authenticator // optional; nil disables auth
	Metrics          *metrics.Metrics         // optional
	Gatherer         prometheus.Gatherer      // defaults to prometheus.DefaultGatherer
	Logger           zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Authenticator != nil {
			r.Use(middleware.AuthMiddleware(cfg.Authenticator, cfg.Metrics))
		}
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.Get("/balance", cfg.AccountHandler.Balance)
				r.Get("/availability", cfg.AccountHandler.Availability)
				r.Get("/reconciliation", cfg.AccountHandler.Reconcile)

				r.Post("/credits", cfg.LedgerHandler.Credit)
				r.Post("/debits", cfg.LedgerHandler.Debit)
				r.Post("/reversals", cfg.LedgerHandler.Reverse)

				r.Get("/entries", cfg.EntryHandler.ListByAccount)
				r.Get("/entries/period", cfg.EntryHandler.ListByPeriod)
				r.Get("/report", cfg.EntryHandler.Report)
			})
		})

		// Transfers
		r.Post("/transfers", cfg.LedgerHandler.Transfer)
	})

	return r
}
