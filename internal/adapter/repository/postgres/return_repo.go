package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

const returnColumns = `id, tenant_id, kind, return_number, counterparty_id, source_document_id, return_date,
	reason, subtotal, tax_amount, total_amount, status, journal_entry_id, created_at`

// ReturnRepository implements usecase.ReturnRepository.
type ReturnRepository struct {
	db       DBTX
	tenantID string
}

// Create inserts a return with its items.
func (r *ReturnRepository) Create(ctx context.Context, tx usecase.Transaction, ret *domain.Return) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO returns (`+returnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		ret.ID,
		r.tenantID,
		string(ret.Kind),
		ret.ReturnNumber,
		ret.CounterpartyID,
		stringPtrToPgText(ret.SourceDocumentID),
		dateToPgDate(ret.ReturnDate),
		ret.Reason,
		decimalToNumeric(ret.Subtotal),
		decimalToNumeric(ret.TaxAmount),
		decimalToNumeric(ret.TotalAmount),
		ret.Status,
		stringPtrToPgText(ret.JournalEntryID),
		timeToPgTimestamptz(ret.CreatedAt),
	)
	if isUniqueViolation(err, "returns_tenant_number_key") {
		return domain.ErrSequenceConflict
	}
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for i, it := range ret.Items {
		batch.Queue(`
			INSERT INTO return_items (id, return_id, line_number, product_id, description, quantity, unit_price, tax_rate, total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			it.ID, ret.ID, i+1, it.ProductID, it.Description,
			decimalToNumeric(it.Quantity), decimalToNumeric(it.UnitPrice), decimalToNumeric(it.TaxRate), decimalToNumeric(it.Total))
	}
	if err := pgxTx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	ret.TenantID = r.tenantID
	return nil
}

// GetByID retrieves a return with its items.
func (r *ReturnRepository) GetByID(ctx context.Context, id string) (*domain.Return, error) {
	var (
		ret                  domain.Return
		kind                 string
		sourceDoc, journalID pgtype.Text
		returnDate           pgtype.Date
		subtotal, tax, total pgtype.Numeric
		createdAt            pgtype.Timestamptz
	)

	err := r.db.QueryRow(ctx, `SELECT `+returnColumns+` FROM returns WHERE tenant_id = $1 AND id = $2`, r.tenantID, id).Scan(
		&ret.ID,
		&ret.TenantID,
		&kind,
		&ret.ReturnNumber,
		&ret.CounterpartyID,
		&sourceDoc,
		&returnDate,
		&ret.Reason,
		&subtotal,
		&tax,
		&total,
		&ret.Status,
		&journalID,
		&createdAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrReturnNotFound
	}
	if err != nil {
		return nil, err
	}

	ret.Kind = domain.ReturnKind(kind)
	ret.SourceDocumentID = pgTextToPtr(sourceDoc)
	ret.ReturnDate = pgDateToTime(returnDate)
	ret.Subtotal = numericToDecimal(subtotal)
	ret.TaxAmount = numericToDecimal(tax)
	ret.TotalAmount = numericToDecimal(total)
	ret.JournalEntryID = pgTextToPtr(journalID)
	ret.CreatedAt = createdAt.Time.UTC()

	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, description, quantity, unit_price, tax_rate, total
		FROM return_items
		WHERE return_id = $1
		ORDER BY line_number`, ret.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			it                          domain.ReturnItem
			qty, price, rate, itemTotal pgtype.Numeric
		)
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Description, &qty, &price, &rate, &itemTotal); err != nil {
			return nil, err
		}
		it.Quantity = numericToDecimal(qty)
		it.UnitPrice = numericToDecimal(price)
		it.TaxRate = numericToDecimal(rate)
		it.Total = numericToDecimal(itemTotal)
		ret.Items = append(ret.Items, it)
	}
	return &ret, rows.Err()
}
