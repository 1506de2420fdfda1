package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/branchledger/internal/adapter/http/handler"
	"github.com/iho/branchledger/internal/adapter/http/middleware"
	"github.com/iho/branchledger/internal/domain"
	"github.com/iho/branchledger/internal/infrastructure/metrics"
	"github.com/iho/branchledger/internal/usecase"
)

// RouterConfig holds dependencies for the router. Optional parts are
// skipped when nil.
type RouterConfig struct {
	AccountHandler *handler.AccountHandler
	LedgerHandler  *handler.LedgerHandler
	EntryHandler   *handler.EntryHandler
	ReportHandler  *handler.ReportHandler
	HealthHandler  *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	// TokenVerifier enables bearer authentication on /api/v1.
	TokenVerifier middleware.TokenVerifier
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	canCreate := middleware.RequireRole(domain.Role.CanCreate)
	canDelete := middleware.RequireRole(domain.Role.CanDelete)
	canManage := middleware.RequireRole(domain.Role.CanManageAccounts)

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.TokenVerifier != nil {
			var onFailure func(string)
			if cfg.Metrics != nil {
				onFailure = func(reason string) { cfg.Metrics.AuthFailures.WithLabelValues(reason).Inc() }
			}
			r.Use(middleware.Auth(cfg.TokenVerifier, onFailure))
			r.Use(middleware.RequireRole(domain.Role.CanViewAll))
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.With(canManage).Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/default", cfg.AccountHandler.Default)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.With(canManage).Post("/lock", cfg.AccountHandler.Lock)
				r.With(canManage).Post("/unlock", cfg.AccountHandler.Unlock)

				r.Get("/ledgers", cfg.LedgerHandler.ListLedgers)
				r.With(canCreate).Post("/ledgers", cfg.LedgerHandler.CreateLedger)
				r.With(canCreate).Put("/ledgers/{ledgerId}", cfg.LedgerHandler.UpdateLedger)
				r.With(canDelete).Delete("/ledgers/{ledgerId}", cfg.LedgerHandler.DeleteLedger)

				r.Get("/groups", cfg.LedgerHandler.ListGroups)
				r.With(canCreate).Post("/groups", cfg.LedgerHandler.CreateGroup)
				r.With(canCreate).Put("/groups/{groupId}", cfg.LedgerHandler.UpdateGroup)
				r.With(canDelete).Delete("/groups/{groupId}", cfg.LedgerHandler.DeleteGroup)

				r.Get("/entry-types", cfg.LedgerHandler.ListEntryTypes)
				r.Get("/tags", cfg.LedgerHandler.ListTags)
				r.With(canCreate).Post("/tags", cfg.LedgerHandler.CreateTag)

				r.Get("/entries", cfg.EntryHandler.List)
				r.With(canCreate).Post("/entries", cfg.EntryHandler.Create)
				r.With(canCreate).Post("/entries/import", cfg.EntryHandler.Import)
				r.Get("/entries/{entryId}", cfg.EntryHandler.Get)
				r.With(canCreate).Put("/entries/{entryId}", cfg.EntryHandler.Update)
				r.With(canCreate).Delete("/entries/{entryId}", cfg.EntryHandler.Delete)
				r.With(canCreate).Post("/reconcile", cfg.EntryHandler.Reconcile)

				r.Route("/reports", func(r chi.Router) {
					r.Get("/chart", cfg.ReportHandler.Chart)
					r.Get("/balance-sheet", cfg.ReportHandler.BalanceSheet)
					r.Get("/profit-and-loss", cfg.ReportHandler.ProfitAndLoss)
					r.Get("/trial-balance", cfg.ReportHandler.TrialBalance)
					r.Get("/ledger-statement", cfg.ReportHandler.LedgerStatement)
					r.Get("/reconciliation-statement", cfg.ReportHandler.ReconciliationStatement)
				})
			})
		})
	})

	return r
}
