package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

const journalColumns = `id, tenant_id, journal_number, entry_date, description, source_type, reference,
	status, total_debit, total_credit, reversal_of_id, reversed_by_id, reversed_at, created_at, updated_at`

// JournalRepository implements usecase.JournalRepository.
type JournalRepository struct {
	db       DBTX
	tenantID string
}

// Create inserts the entry and its lines. A taken journal number yields
// ErrSequenceConflict; a business document already posted yields
// ErrAlreadyPosted.
func (r *JournalRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.JournalEntry) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO journal_entries (`+journalColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		entry.ID,
		r.tenantID,
		entry.JournalNumber,
		dateToPgDate(entry.EntryDate),
		entry.Description,
		string(entry.SourceType),
		entry.Reference,
		string(entry.Status),
		decimalToNumeric(entry.TotalDebit),
		decimalToNumeric(entry.TotalCredit),
		stringPtrToPgText(entry.ReversalOfID),
		stringPtrToPgText(entry.ReversedByID),
		timePtrToPgTimestamptz(entry.ReversedAt),
		timeToPgTimestamptz(entry.CreatedAt),
		timeToPgTimestamptz(entry.UpdatedAt),
	)
	if isUniqueViolation(err, "journal_entries_tenant_number_key") {
		return domain.ErrSequenceConflict
	}
	if isUniqueViolation(err, "journal_entries_source_document_key") {
		return domain.ErrAlreadyPosted
	}
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, l := range entry.Lines {
		batch.Queue(`
			INSERT INTO journal_lines (id, journal_entry_id, line_number, account_id, debit, credit, description)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, entry.ID, l.LineNumber, l.AccountID,
			decimalToNumeric(l.Debit), decimalToNumeric(l.Credit), l.Description)
	}
	if err := pgxTx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	entry.TenantID = r.tenantID
	return nil
}

// GetByID retrieves an entry with its lines.
func (r *JournalRepository) GetByID(ctx context.Context, id string) (*domain.JournalEntry, error) {
	return r.get(ctx, r.db, id, "")
}

// GetByIDForUpdate locks the entry row inside tx.
func (r *JournalRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.JournalEntry, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, pgxTx, id, " FOR UPDATE")
}

func (r *JournalRepository) get(ctx context.Context, db DBTX, id, lock string) (*domain.JournalEntry, error) {
	row := db.QueryRow(ctx, `SELECT `+journalColumns+` FROM journal_entries WHERE tenant_id = $1 AND id = $2`+lock, r.tenantID, id)
	entry, err := scanJournalEntry(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrJournalEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	lines, err := r.lines(ctx, db, []string{entry.ID})
	if err != nil {
		return nil, err
	}
	entry.Lines = lines[entry.ID]
	return entry, nil
}

// MarkReversed flags a POSTED entry REVERSED and links the reversal.
func (r *JournalRepository) MarkReversed(ctx context.Context, tx usecase.Transaction, id, reversedByID string, at time.Time) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE journal_entries
		SET status = $3, reversed_by_id = $4, reversed_at = $5, updated_at = $5
		WHERE tenant_id = $1 AND id = $2 AND status <> $3`,
		r.tenantID, id, string(domain.JournalStatusReversed), reversedByID, timeToPgTimestamptz(at))
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = pgxTx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal_entries WHERE tenant_id = $1 AND id = $2)`, r.tenantID, id).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyReversed
	}
	return domain.ErrJournalEntryNotFound
}

// List returns entries newest first, with their lines.
func (r *JournalRepository) List(ctx context.Context, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	var status, source *string
	if filter.Status != "" {
		s := string(filter.Status)
		status = &s
	}
	if filter.SourceType != "" {
		s := string(filter.SourceType)
		source = &s
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+journalColumns+` FROM journal_entries
		WHERE tenant_id = $1
		  AND ($2::date IS NULL OR entry_date >= $2)
		  AND ($3::date IS NULL OR entry_date <= $3)
		  AND ($4::text IS NULL OR status = $4)
		  AND ($5::text IS NULL OR source_type = $5)
		ORDER BY entry_date DESC, journal_number DESC
		LIMIT $6 OFFSET $7`,
		r.tenantID, datePtrToPgDate(filter.From), datePtrToPgDate(filter.To), status, source,
		limitOrAll(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}

	var entries []*domain.JournalEntry
	err = func() error {
		defer rows.Close()
		for rows.Next() {
			entry, err := scanJournalEntry(rows)
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return rows.Err()
	}()
	if err != nil || len(entries) == 0 {
		return entries, err
	}

	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	lines, err := r.lines(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		e.Lines = lines[e.ID]
	}
	return entries, nil
}

func (r *JournalRepository) lines(ctx context.Context, db DBTX, entryIDs []string) (map[string][]domain.JournalLine, error) {
	rows, err := db.Query(ctx, `
		SELECT id, journal_entry_id, line_number, account_id, debit, credit, description
		FROM journal_lines
		WHERE journal_entry_id = ANY($1)
		ORDER BY journal_entry_id, line_number`, entryIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]domain.JournalLine, len(entryIDs))
	for rows.Next() {
		var (
			l             domain.JournalLine
			debit, credit pgtype.Numeric
		)
		if err := rows.Scan(&l.ID, &l.JournalEntryID, &l.LineNumber, &l.AccountID, &debit, &credit, &l.Description); err != nil {
			return nil, err
		}
		l.Debit = numericToDecimal(debit)
		l.Credit = numericToDecimal(credit)
		out[l.JournalEntryID] = append(out[l.JournalEntryID], l)
	}
	return out, rows.Err()
}

func scanJournalEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var (
		e                       domain.JournalEntry
		entryDate               pgtype.Date
		sourceType, status      string
		totalDebit, totalCredit pgtype.Numeric
		reversalOf, reversedBy  pgtype.Text
		reversedAt              pgtype.Timestamptz
		createdAt, updatedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&e.ID,
		&e.TenantID,
		&e.JournalNumber,
		&entryDate,
		&e.Description,
		&sourceType,
		&e.Reference,
		&status,
		&totalDebit,
		&totalCredit,
		&reversalOf,
		&reversedBy,
		&reversedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.EntryDate = pgDateToTime(entryDate)
	e.SourceType = domain.SourceType(sourceType)
	e.Status = domain.JournalStatus(status)
	e.TotalDebit = numericToDecimal(totalDebit)
	e.TotalCredit = numericToDecimal(totalCredit)
	e.ReversalOfID = pgTextToPtr(reversalOf)
	e.ReversedByID = pgTextToPtr(reversedBy)
	e.ReversedAt = pgTimestamptzToPtr(reversedAt)
	e.CreatedAt = createdAt.Time.UTC()
	e.UpdatedAt = updatedAt.Time.UTC()

	return &e, nil
}

// SequenceRepository implements usecase.SequenceRepository on the
// document_sequences table.
type SequenceRepository struct {
	tenantID string
}

// Next upserts the counter row and returns the incremented value. The row
// lock is held until tx ends.
func (r *SequenceRepository) Next(ctx context.Context, tx usecase.Transaction, prefix string) (int64, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return 0, err
	}

	var value int64
	err = pgxTx.QueryRow(ctx, `
		INSERT INTO document_sequences (tenant_id, prefix, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, prefix)
		DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`, r.tenantID, prefix).Scan(&value)
	return value, err
}
