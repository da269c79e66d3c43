package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/ledgercore/internal/usecase"
)

// Store hands out tenant-bound repositories over one pool.
type Store struct {
	db DBTX
}

// NewStore creates a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return newStoreWithDB(pool)
}

func newStoreWithDB(db DBTX) *Store {
	return &Store{db: db}
}

var _ usecase.Store = (*Store)(nil)

// ForTenant returns repositories bound to tenantID.
func (s *Store) ForTenant(tenantID string) usecase.Repositories {
	return usecase.Repositories{
		TenantID:  tenantID,
		Accounts:  &AccountRepository{db: s.db, tenantID: tenantID},
		Journals:  &JournalRepository{db: s.db, tenantID: tenantID},
		Sequences: &SequenceRepository{tenantID: tenantID},
		Prepaids:  &PrepaidRepository{db: s.db, tenantID: tenantID},
		Loans:     &LoanRepository{db: s.db, tenantID: tenantID},
		Invoices:  &InvoiceRepository{db: s.db, tenantID: tenantID},
		Payments:  &PaymentRepository{db: s.db, tenantID: tenantID},
		Returns:   &ReturnRepository{db: s.db, tenantID: tenantID},
		Reports:   &ReportRepository{tenantID: tenantID},
		Outbox:    &OutboxRepository{db: s.db},
		Audit:     &AuditRepository{},
	}
}

// Outbox returns the cross-tenant outbox used by the event publisher.
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{db: s.db}
}
