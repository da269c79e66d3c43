package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Journal metrics
	JournalsPosted   *prometheus.CounterVec
	JournalsReversed prometheus.Counter
	JournalDuration  prometheus.Histogram
	JournalAmount    prometheus.Histogram
	JournalErrors    *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// Amortization metrics
	PrepaidsCreated        prometheus.Counter
	AmortizationsProcessed prometheus.Counter

	// Loan metrics
	LoansCreated prometheus.Counter
	LoanPayments prometheus.Counter

	// Receivable metrics
	PaymentMatches *prometheus.CounterVec

	// Return metrics
	ReturnsCreated *prometheus.CounterVec

	// Posting metrics
	DocumentsPosted *prometheus.CounterVec

	// Statement metrics
	StatementsGenerated *prometheus.CounterVec
	StatementCacheHits  *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxErrors    prometheus.Counter

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics on the default registerer
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them on reg
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		// Journal metrics
		JournalsPosted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_journals_posted_total",
				Help: "Total number of journal entries posted by source type",
			},
			[]string{"source_type"},
		),
		JournalsReversed: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_journals_reversed_total",
			Help: "Total number of journal entries reversed",
		}),
		JournalDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgercore_journal_duration_seconds",
			Help:    "Duration of journal posting transactions",
			Buckets: prometheus.DefBuckets,
		}),
		JournalAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "ledgercore_journal_amount",
			Help:    "Total debit of posted journal entries",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		JournalErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_journal_errors_total",
				Help: "Total number of rejected journal entries by type",
			},
			[]string{"error_type"},
		),

		// Account metrics
		AccountsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// Amortization metrics
		PrepaidsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_prepaid_expenses_created_total",
			Help: "Total number of prepaid expenses created",
		}),
		AmortizationsProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_amortizations_processed_total",
			Help: "Total number of amortization periods processed",
		}),

		// Loan metrics
		LoansCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_loans_created_total",
			Help: "Total number of loans created",
		}),
		LoanPayments: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_loan_payments_total",
			Help: "Total number of loan payments recorded",
		}),

		// Receivable metrics
		PaymentMatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_payment_applications_total",
				Help: "Total payment applications by match rule",
			},
			[]string{"rule"},
		),

		// Return metrics
		ReturnsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_returns_created_total",
				Help: "Total returns created by kind",
			},
			[]string{"kind"},
		),

		// Posting metrics
		DocumentsPosted: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_documents_posted_total",
				Help: "Total business documents posted to the ledger by source",
			},
			[]string{"source"},
		),

		// Statement metrics
		StatementsGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_statements_generated_total",
				Help: "Total statements computed by kind",
			},
			[]string{"kind"},
		),
		StatementCacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_statement_cache_hits_total",
				Help: "Total statements served from cache by kind",
			},
			[]string{"kind"},
		),

		// API metrics
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledgercore_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Rate limiting metrics
		RateLimitHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"tenant"},
		),

		// Outbox metrics
		OutboxPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_outbox_published_total",
			Help: "Total outbox events published",
		}),
		OutboxErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "ledgercore_outbox_errors_total",
			Help: "Total outbox publish failures",
		}),

		// Audit metrics
		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledgercore_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
