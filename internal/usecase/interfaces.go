package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

// AccountRepository defines data access for chart-of-accounts entries.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in the order given.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// ApplyDelta atomically adds delta to the stored balance and bumps the version.
	ApplyDelta(ctx context.Context, tx Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
	List(ctx context.Context, filter domain.AccountFilter) ([]*domain.Account, error)
}

// JournalRepository defines data access for journal entries and their lines.
type JournalRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.JournalEntry) error
	GetByID(ctx context.Context, id string) (*domain.JournalEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.JournalEntry, error)
	MarkReversed(ctx context.Context, tx Transaction, id, reversedByID string, at time.Time) error
	List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
}

// SequenceRepository allocates per-tenant document numbers.
type SequenceRepository interface {
	// Next returns the next value for prefix. The counter row stays locked
	// until tx ends, so concurrent callers are serialised.
	Next(ctx context.Context, tx Transaction, prefix string) (int64, error)
}

// PrepaidRepository defines data access for prepaid expenses and their schedules.
type PrepaidRepository interface {
	Create(ctx context.Context, tx Transaction, expense *domain.PrepaidExpense) error
	GetByID(ctx context.Context, id string) (*domain.PrepaidExpense, error)
	GetForUpdate(ctx context.Context, tx Transaction, id string) (*domain.PrepaidExpense, error)
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.PrepaidExpense, error)
	GetAmortizationForUpdate(ctx context.Context, tx Transaction, id string) (*domain.ExpenseAmortization, error)
	MarkAmortizationProcessed(ctx context.Context, tx Transaction, amortization *domain.ExpenseAmortization) error
	UpdateRecognition(ctx context.Context, tx Transaction, expense *domain.PrepaidExpense) error
	// ListPending returns unprocessed periods of active expenses dated on or
	// before asOf, oldest first.
	ListPending(ctx context.Context, asOf time.Time) ([]domain.PendingAmortization, error)
}

// LoanRepository defines data access for loans, schedules and payments.
type LoanRepository interface {
	Create(ctx context.Context, tx Transaction, loan *domain.Loan) error
	GetByID(ctx context.Context, id string) (*domain.Loan, error)
	GetForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Loan, error)
	Update(ctx context.Context, tx Transaction, loan *domain.Loan) error
	UpdateScheduleEntry(ctx context.Context, tx Transaction, entry *domain.LoanScheduleEntry) error
	CreatePayment(ctx context.Context, tx Transaction, payment *domain.LoanPayment) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Loan, error)
	// UpcomingPayments returns unpaid instalments of active loans due on or
	// before until, soonest first.
	UpcomingPayments(ctx context.Context, until time.Time) ([]domain.UpcomingLoanPayment, error)
}

// InvoiceRepository defines the receivable side consumed by the allocator.
type InvoiceRepository interface {
	Create(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	ListOpenByClientForUpdate(ctx context.Context, tx Transaction, clientID string) ([]*domain.Invoice, error)
	UpdatePayment(ctx context.Context, tx Transaction, invoice *domain.Invoice) error
}

// PaymentRepository defines data access for received payments.
type PaymentRepository interface {
	Create(ctx context.Context, tx Transaction, payment *domain.Payment) error
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Payment, error)
	Update(ctx context.Context, tx Transaction, payment *domain.Payment) error
	CreateApplication(ctx context.Context, tx Transaction, application *domain.PaymentApplication) error
}

// ReturnRepository defines data access for sales and purchase returns.
type ReturnRepository interface {
	Create(ctx context.Context, tx Transaction, ret *domain.Return) error
	GetByID(ctx context.Context, id string) (*domain.Return, error)
}

// ReportRepository aggregates journal lines for statements.
type ReportRepository interface {
	// AccountActivity sums debits and credits per account for entries dated
	// in [from, to). A nil bound is open. Every account of the tenant is
	// returned, including those without activity.
	AccountActivity(ctx context.Context, tx Transaction, from, to *time.Time) ([]domain.AccountActivity, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
}

// Repositories is the set of repositories bound to one tenant.
type Repositories struct {
	TenantID  string
	Accounts  AccountRepository
	Journals  JournalRepository
	Sequences SequenceRepository
	Prepaids  PrepaidRepository
	Loans     LoanRepository
	Invoices  InvoiceRepository
	Payments  PaymentRepository
	Returns   ReturnRepository
	Reports   ReportRepository
	Outbox    OutboxRepository
	Audit     AuditRepository
}

// Store hands out tenant-scoped repositories. Records of other tenants are
// invisible through them.
type Store interface {
	ForTenant(tenantID string) Repositories
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	// BeginReadOnly starts a snapshot transaction for consistent reads.
	BeginReadOnly(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation when the store reports a transient conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Get returns nil data without an error
// on a miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claim whose request failed so it can be retried.
	Release(ctx context.Context, key string) error
}
