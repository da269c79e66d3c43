package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// ReportRepository implements usecase.ReportRepository.
type ReportRepository struct {
	tenantID string
}

// AccountActivity sums lines of POSTED and REVERSED entries dated in
// [from, to) per account. Every tenant account is returned, ordered by code.
func (r *ReportRepository) AccountActivity(ctx context.Context, tx usecase.Transaction, from, to *time.Time) ([]domain.AccountActivity, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	rows, err := pgxTx.Query(ctx, `
		SELECT `+prefixed("a", accountColumns)+`,
		       COALESCE(SUM(l.debit), 0) AS debit,
		       COALESCE(SUM(l.credit), 0) AS credit
		FROM accounts a
		LEFT JOIN journal_lines l ON l.account_id = a.id
		      AND EXISTS (
		          SELECT 1 FROM journal_entries e
		          WHERE e.id = l.journal_entry_id
		            AND e.tenant_id = $1
		            AND e.status IN ($2, $3)
		            AND ($4::date IS NULL OR e.entry_date >= $4)
		            AND ($5::date IS NULL OR e.entry_date < $5))
		WHERE a.tenant_id = $1
		GROUP BY a.id
		ORDER BY a.code`,
		r.tenantID,
		string(domain.JournalStatusPosted), string(domain.JournalStatusReversed),
		datePtrToPgDate(from), datePtrToPgDate(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activity []domain.AccountActivity
	for rows.Next() {
		var debit, credit pgtype.Numeric
		account, err := scanAccountWith(rows, &debit, &credit)
		if err != nil {
			return nil, err
		}
		activity = append(activity, domain.AccountActivity{
			Account: account,
			Debit:   numericToDecimal(debit),
			Credit:  numericToDecimal(credit),
		})
	}
	return activity, rows.Err()
}
