package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/ledgercore/internal/adapter/http/handler"
	"github.com/iho/ledgercore/internal/adapter/http/middleware"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
	"github.com/iho/ledgercore/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler      *handler.AccountHandler
	JournalHandler      *handler.JournalHandler
	AmortizationHandler *handler.AmortizationHandler
	LoanHandler         *handler.LoanHandler
	ReceivableHandler   *handler.ReceivableHandler
	ReturnHandler       *handler.ReturnHandler
	PostingHandler      *handler.PostingHandler
	DepreciationHandler *handler.DepreciationHandler
	StatementHandler    *handler.StatementHandler
	HealthHandler       *handler.HealthHandler

	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	// MetricsHandler serves /metrics; promhttp.Handler() when nil.
	MetricsHandler http.Handler
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery)
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Handle("/metrics", metricsHandler)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Tenant)
		r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)

		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/tree", cfg.AccountHandler.Tree)
			r.Post("/seed", cfg.AccountHandler.Seed)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Post("/{id}/deactivate", cfg.AccountHandler.Deactivate)
		})

		r.Route("/journal-entries", func(r chi.Router) {
			r.Post("/", cfg.JournalHandler.Create)
			r.Get("/", cfg.JournalHandler.List)
			r.Get("/{id}", cfg.JournalHandler.Get)
			r.Post("/{id}/reverse", cfg.JournalHandler.Reverse)
		})

		r.Route("/prepaid-expenses", func(r chi.Router) {
			r.Post("/", cfg.AmortizationHandler.CreatePrepaid)
			r.Get("/", cfg.AmortizationHandler.ListPrepaid)
			r.Get("/{id}", cfg.AmortizationHandler.GetPrepaid)
		})

		r.Route("/amortizations", func(r chi.Router) {
			r.Get("/pending", cfg.AmortizationHandler.ListPending)
			r.Post("/process-pending", cfg.AmortizationHandler.ProcessPending)
			r.Post("/{id}/process", cfg.AmortizationHandler.Process)
		})

		r.Route("/loans", func(r chi.Router) {
			r.Post("/", cfg.LoanHandler.Create)
			r.Get("/", cfg.LoanHandler.List)
			r.Get("/upcoming-payments", cfg.LoanHandler.Upcoming)
			r.Get("/interest-accrual", cfg.LoanHandler.InterestAccrual)
			r.Get("/{id}", cfg.LoanHandler.Get)
			r.Post("/{id}/payments", cfg.LoanHandler.RecordPayment)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", cfg.ReceivableHandler.CreateInvoice)
			r.Get("/{id}", cfg.ReceivableHandler.GetInvoice)
			r.Post("/{id}/post", cfg.PostingHandler.PostInvoice)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", cfg.ReceivableHandler.RecordPayment)
			r.Get("/{id}", cfg.ReceivableHandler.GetPayment)
			r.Post("/{id}/auto-match", cfg.ReceivableHandler.AutoMatch)
			r.Post("/{id}/post", cfg.PostingHandler.PostPayment)
		})

		r.Post("/bills/post", cfg.PostingHandler.PostBill)
		r.Post("/pos-sales/post", cfg.PostingHandler.PostPOSSale)

		r.Route("/returns", func(r chi.Router) {
			r.Post("/sales", cfg.ReturnHandler.CreateSales)
			r.Post("/purchases", cfg.ReturnHandler.CreatePurchase)
			r.Get("/{id}", cfg.ReturnHandler.Get)
		})

		r.Route("/depreciation", func(r chi.Router) {
			r.Post("/schedule", cfg.DepreciationHandler.Schedule)
			r.Post("/post", cfg.DepreciationHandler.Post)
		})

		r.Route("/statements", func(r chi.Router) {
			r.Get("/trial-balance", cfg.StatementHandler.TrialBalance)
			r.Get("/balance-sheet", cfg.StatementHandler.BalanceSheet)
			r.Get("/income-statement", cfg.StatementHandler.IncomeStatement)
			r.Get("/cash-flow", cfg.StatementHandler.CashFlow)
		})
	})

	return r
}
