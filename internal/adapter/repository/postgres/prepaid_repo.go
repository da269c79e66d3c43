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

const prepaidColumns = `id, tenant_id, description, vendor_name, reference_number, total_amount,
	start_date, end_date, period_months, monthly_amount, recognized_amount, remaining_amount,
	expense_account_id, asset_account_id, last_recognized_at, is_active, notes, created_at, updated_at`

const amortizationColumns = `a.id, a.prepaid_expense_id, a.period_number, a.period_date, a.amount,
	a.is_processed, a.processed_at, a.journal_entry_id`

// PrepaidRepository implements usecase.PrepaidRepository.
type PrepaidRepository struct {
	db       DBTX
	tenantID string
}

// Create inserts the expense and its schedule.
func (r *PrepaidRepository) Create(ctx context.Context, tx usecase.Transaction, expense *domain.PrepaidExpense) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO prepaid_expenses (`+prepaidColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		expense.ID,
		r.tenantID,
		expense.Description,
		expense.VendorName,
		expense.ReferenceNumber,
		decimalToNumeric(expense.TotalAmount),
		dateToPgDate(expense.StartDate),
		dateToPgDate(expense.EndDate),
		expense.PeriodMonths,
		decimalToNumeric(expense.MonthlyAmount),
		decimalToNumeric(expense.RecognizedAmount),
		decimalToNumeric(expense.RemainingAmount),
		stringPtrToPgText(expense.ExpenseAccountID),
		stringPtrToPgText(expense.AssetAccountID),
		timePtrToPgTimestamptz(expense.LastRecognizedAt),
		expense.IsActive,
		expense.Notes,
		timeToPgTimestamptz(expense.CreatedAt),
		timeToPgTimestamptz(expense.UpdatedAt),
	)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, a := range expense.Schedule {
		batch.Queue(`
			INSERT INTO expense_amortizations (id, prepaid_expense_id, period_number, period_date, amount, is_processed, processed_at, journal_entry_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			a.ID, expense.ID, a.PeriodNumber, dateToPgDate(a.PeriodDate), decimalToNumeric(a.Amount),
			a.IsProcessed, timePtrToPgTimestamptz(a.ProcessedAt), stringPtrToPgText(a.JournalEntryID))
	}
	if err := pgxTx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	expense.TenantID = r.tenantID
	return nil
}

// GetByID retrieves an expense with its schedule.
func (r *PrepaidRepository) GetByID(ctx context.Context, id string) (*domain.PrepaidExpense, error) {
	return r.get(ctx, r.db, id, "")
}

// GetForUpdate locks the expense row inside tx.
func (r *PrepaidRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.PrepaidExpense, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, pgxTx, id, " FOR UPDATE")
}

func (r *PrepaidRepository) get(ctx context.Context, db DBTX, id, lock string) (*domain.PrepaidExpense, error) {
	row := db.QueryRow(ctx, `SELECT `+prepaidColumns+` FROM prepaid_expenses WHERE tenant_id = $1 AND id = $2`+lock, r.tenantID, id)
	expense, err := scanPrepaid(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPrepaidExpenseNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT `+amortizationColumns+`
		FROM expense_amortizations a
		WHERE a.prepaid_expense_id = $1
		ORDER BY a.period_number`, expense.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		a, err := scanAmortization(rows)
		if err != nil {
			return nil, err
		}
		expense.Schedule = append(expense.Schedule, *a)
	}
	return expense, rows.Err()
}

// List returns expenses by start date, newest first. Schedules are not loaded.
func (r *PrepaidRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.PrepaidExpense, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prepaidColumns+` FROM prepaid_expenses
		WHERE tenant_id = $1 AND (NOT $2 OR is_active)
		ORDER BY start_date DESC, id DESC
		LIMIT $3 OFFSET $4`,
		r.tenantID, activeOnly, limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []*domain.PrepaidExpense
	for rows.Next() {
		expense, err := scanPrepaid(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, rows.Err()
}

// GetAmortizationForUpdate locks one period of a tenant expense.
func (r *PrepaidRepository) GetAmortizationForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.ExpenseAmortization, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	row := pgxTx.QueryRow(ctx, `
		SELECT `+amortizationColumns+`
		FROM expense_amortizations a
		JOIN prepaid_expenses p ON p.id = a.prepaid_expense_id
		WHERE p.tenant_id = $1 AND a.id = $2
		FOR UPDATE OF a`, r.tenantID, id)
	a, err := scanAmortization(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAmortizationNotFound
	}
	return a, err
}

// MarkAmortizationProcessed stores the processed flag, time and journal link.
func (r *PrepaidRepository) MarkAmortizationProcessed(ctx context.Context, tx usecase.Transaction, amortization *domain.ExpenseAmortization) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE expense_amortizations a
		SET is_processed = $3, processed_at = $4, journal_entry_id = $5
		FROM prepaid_expenses p
		WHERE p.id = a.prepaid_expense_id AND p.tenant_id = $1 AND a.id = $2`,
		r.tenantID, amortization.ID, amortization.IsProcessed,
		timePtrToPgTimestamptz(amortization.ProcessedAt), stringPtrToPgText(amortization.JournalEntryID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAmortizationNotFound
	}
	return nil
}

// UpdateRecognition stores the running totals and active flag.
func (r *PrepaidRepository) UpdateRecognition(ctx context.Context, tx usecase.Transaction, expense *domain.PrepaidExpense) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE prepaid_expenses
		SET recognized_amount = $3, remaining_amount = $4, last_recognized_at = $5, is_active = $6, updated_at = $7
		WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, expense.ID,
		decimalToNumeric(expense.RecognizedAmount), decimalToNumeric(expense.RemainingAmount),
		timePtrToPgTimestamptz(expense.LastRecognizedAt), expense.IsActive, timeToPgTimestamptz(expense.UpdatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPrepaidExpenseNotFound
	}
	return nil
}

// ListPending returns unprocessed periods of active expenses dated on or
// before asOf, oldest first.
func (r *PrepaidRepository) ListPending(ctx context.Context, asOf time.Time) ([]domain.PendingAmortization, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+amortizationColumns+`, p.description
		FROM expense_amortizations a
		JOIN prepaid_expenses p ON p.id = a.prepaid_expense_id
		WHERE p.tenant_id = $1 AND p.is_active AND NOT a.is_processed AND a.period_date <= $2
		ORDER BY a.period_date, a.prepaid_expense_id, a.period_number`,
		r.tenantID, dateToPgDate(asOf))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []domain.PendingAmortization
	for rows.Next() {
		var (
			a              domain.ExpenseAmortization
			periodDate     pgtype.Date
			amount         pgtype.Numeric
			processedAt    pgtype.Timestamptz
			journalEntryID pgtype.Text
			description    string
		)
		if err := rows.Scan(&a.ID, &a.PrepaidExpenseID, &a.PeriodNumber, &periodDate, &amount,
			&a.IsProcessed, &processedAt, &journalEntryID, &description); err != nil {
			return nil, err
		}
		a.PeriodDate = pgDateToTime(periodDate)
		a.Amount = numericToDecimal(amount)
		a.ProcessedAt = pgTimestamptzToPtr(processedAt)
		a.JournalEntryID = pgTextToPtr(journalEntryID)
		pending = append(pending, domain.PendingAmortization{Amortization: a, Description: description})
	}
	return pending, rows.Err()
}

func scanPrepaid(row pgx.Row) (*domain.PrepaidExpense, error) {
	var (
		p                         domain.PrepaidExpense
		total, monthly            pgtype.Numeric
		recognized, remaining     pgtype.Numeric
		startDate, endDate        pgtype.Date
		expenseAccount, assetAcct pgtype.Text
		lastRecognized            pgtype.Timestamptz
		createdAt, updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.Description,
		&p.VendorName,
		&p.ReferenceNumber,
		&total,
		&startDate,
		&endDate,
		&p.PeriodMonths,
		&monthly,
		&recognized,
		&remaining,
		&expenseAccount,
		&assetAcct,
		&lastRecognized,
		&p.IsActive,
		&p.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.TotalAmount = numericToDecimal(total)
	p.StartDate = pgDateToTime(startDate)
	p.EndDate = pgDateToTime(endDate)
	p.MonthlyAmount = numericToDecimal(monthly)
	p.RecognizedAmount = numericToDecimal(recognized)
	p.RemainingAmount = numericToDecimal(remaining)
	p.ExpenseAccountID = pgTextToPtr(expenseAccount)
	p.AssetAccountID = pgTextToPtr(assetAcct)
	p.LastRecognizedAt = pgTimestamptzToPtr(lastRecognized)
	p.CreatedAt = createdAt.Time.UTC()
	p.UpdatedAt = updatedAt.Time.UTC()

	return &p, nil
}

func scanAmortization(row pgx.Row) (*domain.ExpenseAmortization, error) {
	var (
		a              domain.ExpenseAmortization
		periodDate     pgtype.Date
		amount         pgtype.Numeric
		processedAt    pgtype.Timestamptz
		journalEntryID pgtype.Text
	)

	if err := row.Scan(&a.ID, &a.PrepaidExpenseID, &a.PeriodNumber, &periodDate, &amount,
		&a.IsProcessed, &processedAt, &journalEntryID); err != nil {
		return nil, err
	}

	a.PeriodDate = pgDateToTime(periodDate)
	a.Amount = numericToDecimal(amount)
	a.ProcessedAt = pgTimestamptzToPtr(processedAt)
	a.JournalEntryID = pgTextToPtr(journalEntryID)

	return &a, nil
}
