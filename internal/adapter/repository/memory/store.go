// Package memory is a transactional in-process implementation of the
// repository ports. Write transactions are serialised and work on a private
// copy of the data that replaces the committed copy on Commit, so a rolled
// back transaction leaves no trace. It backs STORAGE_DRIVER=memory and the
// use case tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used.
	ErrTxDone = errors.New("memory: transaction already finished")
	// ErrReadOnlyTx is returned when a read-only transaction writes.
	ErrReadOnlyTx = errors.New("memory: write in read-only transaction")
	// ErrForeignTx is returned for a transaction of another store.
	ErrForeignTx = errors.New("memory: transaction belongs to another store")
)

// Store holds every tenant's data.
type Store struct {
	writer chan struct{}

	mu        sync.RWMutex
	committed *state
	outbox    []*domain.OutboxEvent
	audit     []*domain.AuditLog
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		writer:    make(chan struct{}, 1),
		committed: newState(),
	}
}

var (
	_ usecase.Store              = (*Store)(nil)
	_ usecase.TransactionManager = (*Store)(nil)
)

// ForTenant returns repositories bound to tenantID.
func (s *Store) ForTenant(tenantID string) usecase.Repositories {
	return usecase.Repositories{
		TenantID:  tenantID,
		Accounts:  &AccountRepository{store: s, tenantID: tenantID},
		Journals:  &JournalRepository{store: s, tenantID: tenantID},
		Sequences: &SequenceRepository{store: s, tenantID: tenantID},
		Prepaids:  &PrepaidRepository{store: s, tenantID: tenantID},
		Loans:     &LoanRepository{store: s, tenantID: tenantID},
		Invoices:  &InvoiceRepository{store: s, tenantID: tenantID},
		Payments:  &PaymentRepository{store: s, tenantID: tenantID},
		Returns:   &ReturnRepository{store: s, tenantID: tenantID},
		Reports:   &ReportRepository{store: s, tenantID: tenantID},
		Outbox:    &OutboxRepository{store: s},
		Audit:     &AuditRepository{store: s},
	}
}

// Begin starts a write transaction, waiting for the running one to finish.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	select {
	case s.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	working := s.committed.clone()
	s.mu.RUnlock()

	return &Tx{store: s, state: working}, nil
}

// BeginReadOnly starts a snapshot transaction. It never blocks writers.
func (s *Store) BeginReadOnly(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	snapshot := s.committed
	s.mu.RUnlock()

	return &Tx{store: s, state: snapshot, readOnly: true}, nil
}

// Tx is a memory transaction.
type Tx struct {
	store    *Store
	state    *state
	readOnly bool
	done     bool

	events []*domain.OutboxEvent
	logs   []*domain.AuditLog
}

// Commit publishes the working copy. Outbox events and audit logs written
// in the transaction become visible at the same moment.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if t.readOnly {
		return nil
	}
	defer t.release()

	if err := ctx.Err(); err != nil {
		return err
	}

	t.store.mu.Lock()
	t.store.committed = t.state
	t.store.outbox = append(t.store.outbox, t.events...)
	t.store.audit = append(t.store.audit, t.logs...)
	t.store.mu.Unlock()
	return nil
}

// Rollback discards the working copy. Calling it after Commit is a no-op.
func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if !t.readOnly {
		t.release()
	}
	return nil
}

func (t *Tx) release() {
	<-t.store.writer
}

// writable returns the working state of tx for a write.
func (s *Store) writable(tx usecase.Transaction) (*state, *Tx, error) {
	t, err := s.own(tx)
	if err != nil {
		return nil, nil, err
	}
	if t.readOnly {
		return nil, nil, ErrReadOnlyTx
	}
	return t.state, t, nil
}

// readable returns the state tx sees.
func (s *Store) readable(tx usecase.Transaction) (*state, error) {
	t, err := s.own(tx)
	if err != nil {
		return nil, err
	}
	return t.state, nil
}

func (s *Store) own(tx usecase.Transaction) (*Tx, error) {
	t, ok := tx.(*Tx)
	if !ok || t.store != s {
		return nil, ErrForeignTx
	}
	if t.done {
		return nil, ErrTxDone
	}
	return t, nil
}

// snapshot returns the committed state for reads outside a transaction.
// Committed states are never mutated, so the caller may read it unlocked.
func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.committed
}
