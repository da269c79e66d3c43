package usecase

import (
	"context"
	"time"

	"github.com/iho/ledgercore/internal/domain"
)

// runInTx runs fn inside a transaction with DefaultTransactionTimeout. The
// whole attempt, including Begin and Commit, is repeated by retrier, so fn
// must load everything it changes through tx.
func runInTx(ctx context.Context, tm TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := tm.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return attempt()
	}
	return retrier.Retry(ctx, attempt)
}

// runReadOnly runs fn inside a snapshot transaction.
func runReadOnly(ctx context.Context, tm TransactionManager, fn func(ctx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := tm.BeginReadOnly(txCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}
	return tx.Commit(txCtx)
}

// recorder writes the outbox event and audit row that accompany a change.
type recorder struct {
	repos Repositories
	idGen IDGenerator
}

func (r recorder) record(ctx context.Context, tx Transaction, event *domain.OutboxEvent, audit *domain.AuditLog) error {
	if event != nil && r.repos.Outbox != nil {
		event.ID = r.idGen.Generate()
		if err := r.repos.Outbox.Create(ctx, tx, event); err != nil {
			return err
		}
	}

	if audit != nil && r.repos.Audit != nil {
		audit.RequestID = domain.RequestIDFromContext(ctx)
		if err := r.repos.Audit.CreateTx(ctx, tx, audit); err != nil {
			return err
		}
	}
	return nil
}

func now() time.Time {
	return time.Now().UTC()
}
