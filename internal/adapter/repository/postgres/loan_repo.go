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

const loanColumns = `id, tenant_id, name, lender_name, reference_number, principal_amount, interest_rate,
	interest_type, start_date, end_date, term_months, payment_frequency, monthly_payment, total_interest,
	total_paid, principal_paid, interest_paid, remaining_balance, loan_account_id, interest_account_id,
	is_active, notes, created_at, updated_at`

const scheduleColumns = `s.id, s.loan_id, s.period_number, s.due_date, s.principal_due, s.interest_due,
	s.total_due, s.balance_after, s.paid_amount, s.is_paid, s.paid_at`

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	db       DBTX
	tenantID string
}

// Create inserts the loan and its schedule.
func (r *LoanRepository) Create(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`,
		loan.ID,
		r.tenantID,
		loan.Name,
		loan.LenderName,
		loan.ReferenceNumber,
		decimalToNumeric(loan.PrincipalAmount),
		decimalToNumeric(loan.InterestRate),
		string(loan.InterestType),
		dateToPgDate(loan.StartDate),
		dateToPgDate(loan.EndDate),
		loan.TermMonths,
		string(loan.PaymentFrequency),
		decimalToNumeric(loan.MonthlyPayment),
		decimalToNumeric(loan.TotalInterest),
		decimalToNumeric(loan.TotalPaid),
		decimalToNumeric(loan.PrincipalPaid),
		decimalToNumeric(loan.InterestPaid),
		decimalToNumeric(loan.RemainingBalance),
		stringPtrToPgText(loan.LoanAccountID),
		stringPtrToPgText(loan.InterestAccountID),
		loan.IsActive,
		loan.Notes,
		timeToPgTimestamptz(loan.CreatedAt),
		timeToPgTimestamptz(loan.UpdatedAt),
	)
	if err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, e := range loan.Schedule {
		batch.Queue(`
			INSERT INTO loan_schedules (id, loan_id, period_number, due_date, principal_due, interest_due, total_due, balance_after, paid_amount, is_paid, paid_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			e.ID, loan.ID, e.PeriodNumber, dateToPgDate(e.DueDate),
			decimalToNumeric(e.PrincipalDue), decimalToNumeric(e.InterestDue), decimalToNumeric(e.TotalDue),
			decimalToNumeric(e.BalanceAfter), decimalToNumeric(e.PaidAmount), e.IsPaid, timePtrToPgTimestamptz(e.PaidAt))
	}
	if err := pgxTx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	loan.TenantID = r.tenantID
	return nil
}

// GetByID retrieves a loan with schedule and payments.
func (r *LoanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	return r.get(ctx, r.db, id, "")
}

// GetForUpdate locks the loan row inside tx.
func (r *LoanRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, pgxTx, id, " FOR UPDATE")
}

func (r *LoanRepository) get(ctx context.Context, db DBTX, id, lock string) (*domain.Loan, error) {
	row := db.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE tenant_id = $1 AND id = $2`+lock, r.tenantID, id)
	loan, err := scanLoan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrLoanNotFound
	}
	if err != nil {
		return nil, err
	}

	if loan.Schedule, err = r.schedule(ctx, db, loan.ID); err != nil {
		return nil, err
	}
	if loan.Payments, err = r.payments(ctx, db, loan.ID); err != nil {
		return nil, err
	}
	return loan, nil
}

func (r *LoanRepository) schedule(ctx context.Context, db DBTX, loanID string) ([]domain.LoanScheduleEntry, error) {
	rows, err := db.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM loan_schedules s
		WHERE s.loan_id = $1
		ORDER BY s.period_number`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LoanScheduleEntry
	for rows.Next() {
		e, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (r *LoanRepository) payments(ctx context.Context, db DBTX, loanID string) ([]domain.LoanPayment, error) {
	rows, err := db.Query(ctx, `
		SELECT id, loan_id, payment_number, payment_date, principal_part, interest_part,
		       total_payment, balance_after, journal_entry_id, notes, created_at
		FROM loan_payments
		WHERE loan_id = $1
		ORDER BY payment_number`, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.LoanPayment
	for rows.Next() {
		var (
			p                   domain.LoanPayment
			paymentDate         pgtype.Date
			principal, interest pgtype.Numeric
			total, balanceAfter pgtype.Numeric
			journalEntryID      pgtype.Text
			createdAt           pgtype.Timestamptz
		)
		if err := rows.Scan(&p.ID, &p.LoanID, &p.PaymentNumber, &paymentDate, &principal, &interest,
			&total, &balanceAfter, &journalEntryID, &p.Notes, &createdAt); err != nil {
			return nil, err
		}
		p.PaymentDate = pgDateToTime(paymentDate)
		p.PrincipalPart = numericToDecimal(principal)
		p.InterestPart = numericToDecimal(interest)
		p.TotalPayment = numericToDecimal(total)
		p.BalanceAfter = numericToDecimal(balanceAfter)
		p.JournalEntryID = pgTextToPtr(journalEntryID)
		p.CreatedAt = createdAt.Time.UTC()
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Update stores the loan's running totals. Schedule and payments are
// written through their own methods.
func (r *LoanRepository) Update(ctx context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE loans
		SET total_paid = $3, principal_paid = $4, interest_paid = $5, remaining_balance = $6,
		    is_active = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, loan.ID,
		decimalToNumeric(loan.TotalPaid), decimalToNumeric(loan.PrincipalPaid), decimalToNumeric(loan.InterestPaid),
		decimalToNumeric(loan.RemainingBalance), loan.IsActive, timeToPgTimestamptz(loan.UpdatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// UpdateScheduleEntry stores the paid state of one instalment.
func (r *LoanRepository) UpdateScheduleEntry(ctx context.Context, tx usecase.Transaction, entry *domain.LoanScheduleEntry) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE loan_schedules s
		SET paid_amount = $4, is_paid = $5, paid_at = $6
		FROM loans l
		WHERE l.id = s.loan_id AND l.tenant_id = $1 AND s.loan_id = $2 AND s.id = $3`,
		r.tenantID, entry.LoanID, entry.ID,
		decimalToNumeric(entry.PaidAmount), entry.IsPaid, timePtrToPgTimestamptz(entry.PaidAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// CreatePayment inserts a payment of a tenant loan.
func (r *LoanRepository) CreatePayment(ctx context.Context, tx usecase.Transaction, payment *domain.LoanPayment) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		INSERT INTO loan_payments (id, loan_id, payment_number, payment_date, principal_part, interest_part,
		                           total_payment, balance_after, journal_entry_id, notes, created_at)
		SELECT $2::varchar, l.id, $3::int, $4::date, $5::numeric, $6::numeric, $7::numeric, $8::numeric,
		       $9::varchar, $10::text, $11::timestamptz
		FROM loans l
		WHERE l.tenant_id = $1 AND l.id = $12`,
		r.tenantID, payment.ID, payment.PaymentNumber, dateToPgDate(payment.PaymentDate),
		decimalToNumeric(payment.PrincipalPart), decimalToNumeric(payment.InterestPart),
		decimalToNumeric(payment.TotalPayment), decimalToNumeric(payment.BalanceAfter),
		stringPtrToPgText(payment.JournalEntryID), payment.Notes, timeToPgTimestamptz(payment.CreatedAt),
		payment.LoanID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrLoanNotFound
	}
	return nil
}

// List returns loans by start date, newest first. Schedules are not loaded.
func (r *LoanRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*domain.Loan, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+loanColumns+` FROM loans
		WHERE tenant_id = $1 AND (NOT $2 OR is_active)
		ORDER BY start_date DESC, id DESC
		LIMIT $3 OFFSET $4`,
		r.tenantID, activeOnly, limitOrAll(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var loans []*domain.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}
	return loans, rows.Err()
}

// UpcomingPayments returns unpaid instalments of active loans due on or
// before until, soonest first.
func (r *LoanRepository) UpcomingPayments(ctx context.Context, until time.Time) ([]domain.UpcomingLoanPayment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+scheduleColumns+`, l.name, l.lender_name
		FROM loan_schedules s
		JOIN loans l ON l.id = s.loan_id
		WHERE l.tenant_id = $1 AND l.is_active AND NOT s.is_paid AND s.due_date <= $2
		ORDER BY s.due_date, s.loan_id`,
		r.tenantID, dateToPgDate(until))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var upcoming []domain.UpcomingLoanPayment
	for rows.Next() {
		var (
			e                    domain.LoanScheduleEntry
			dueDate              pgtype.Date
			principal, interest  pgtype.Numeric
			total, balance, paid pgtype.Numeric
			paidAt               pgtype.Timestamptz
			loanName, lenderName string
		)
		if err := rows.Scan(&e.ID, &e.LoanID, &e.PeriodNumber, &dueDate, &principal, &interest,
			&total, &balance, &paid, &e.IsPaid, &paidAt, &loanName, &lenderName); err != nil {
			return nil, err
		}
		fillScheduleEntry(&e, dueDate, principal, interest, total, balance, paid, paidAt)
		upcoming = append(upcoming, domain.UpcomingLoanPayment{Entry: e, LoanName: loanName, LenderName: lenderName})
	}
	return upcoming, rows.Err()
}

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		l                            domain.Loan
		principal, rate              pgtype.Numeric
		interestType, frequency      string
		startDate, endDate           pgtype.Date
		monthly, totalInterest       pgtype.Numeric
		totalPaid, principalPaid     pgtype.Numeric
		interestPaid, remaining      pgtype.Numeric
		loanAccount, interestAccount pgtype.Text
		createdAt, updatedAt         pgtype.Timestamptz
	)

	err := row.Scan(
		&l.ID,
		&l.TenantID,
		&l.Name,
		&l.LenderName,
		&l.ReferenceNumber,
		&principal,
		&rate,
		&interestType,
		&startDate,
		&endDate,
		&l.TermMonths,
		&frequency,
		&monthly,
		&totalInterest,
		&totalPaid,
		&principalPaid,
		&interestPaid,
		&remaining,
		&loanAccount,
		&interestAccount,
		&l.IsActive,
		&l.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.PrincipalAmount = numericToDecimal(principal)
	l.InterestRate = numericToDecimal(rate)
	l.InterestType = domain.InterestType(interestType)
	l.StartDate = pgDateToTime(startDate)
	l.EndDate = pgDateToTime(endDate)
	l.PaymentFrequency = domain.PaymentFrequency(frequency)
	l.MonthlyPayment = numericToDecimal(monthly)
	l.TotalInterest = numericToDecimal(totalInterest)
	l.TotalPaid = numericToDecimal(totalPaid)
	l.PrincipalPaid = numericToDecimal(principalPaid)
	l.InterestPaid = numericToDecimal(interestPaid)
	l.RemainingBalance = numericToDecimal(remaining)
	l.LoanAccountID = pgTextToPtr(loanAccount)
	l.InterestAccountID = pgTextToPtr(interestAccount)
	l.CreatedAt = createdAt.Time.UTC()
	l.UpdatedAt = updatedAt.Time.UTC()

	return &l, nil
}

func scanScheduleEntry(row pgx.Row) (*domain.LoanScheduleEntry, error) {
	var (
		e                    domain.LoanScheduleEntry
		dueDate              pgtype.Date
		principal, interest  pgtype.Numeric
		total, balance, paid pgtype.Numeric
		paidAt               pgtype.Timestamptz
	)

	if err := row.Scan(&e.ID, &e.LoanID, &e.PeriodNumber, &dueDate, &principal, &interest,
		&total, &balance, &paid, &e.IsPaid, &paidAt); err != nil {
		return nil, err
	}
	fillScheduleEntry(&e, dueDate, principal, interest, total, balance, paid, paidAt)
	return &e, nil
}

func fillScheduleEntry(e *domain.LoanScheduleEntry, dueDate pgtype.Date, principal, interest, total, balance, paid pgtype.Numeric, paidAt pgtype.Timestamptz) {
	e.DueDate = pgDateToTime(dueDate)
	e.PrincipalDue = numericToDecimal(principal)
	e.InterestDue = numericToDecimal(interest)
	e.TotalDue = numericToDecimal(total)
	e.BalanceAfter = numericToDecimal(balance)
	e.PaidAmount = numericToDecimal(paid)
	e.PaidAt = pgTimestamptzToPtr(paidAt)
}
