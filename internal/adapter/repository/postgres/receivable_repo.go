package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

const invoiceColumns = `id, tenant_id, client_id, invoice_number, issue_date, due_date, total_amount,
	paid_amount, balance_due, payment_status, created_at, updated_at`

const paymentColumns = `id, tenant_id, client_id, payment_date, total_amount, applied_amount,
	unapplied_amount, payment_method, reference, status, created_at, updated_at`

// InvoiceRepository implements usecase.InvoiceRepository.
type InvoiceRepository struct {
	db       DBTX
	tenantID string
}

// Create inserts an invoice. A taken invoice number yields ErrSequenceConflict.
func (r *InvoiceRepository) Create(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		invoice.ID,
		r.tenantID,
		invoice.ClientID,
		invoice.InvoiceNumber,
		dateToPgDate(invoice.IssueDate),
		datePtrToPgDate(invoice.DueDate),
		decimalToNumeric(invoice.TotalAmount),
		decimalToNumeric(invoice.PaidAmount),
		decimalToNumeric(invoice.BalanceDue),
		string(invoice.PaymentStatus),
		timeToPgTimestamptz(invoice.CreatedAt),
		timeToPgTimestamptz(invoice.UpdatedAt),
	)
	if isUniqueViolation(err, "invoices_tenant_number_key") {
		return domain.ErrSequenceConflict
	}
	if err != nil {
		return err
	}

	invoice.TenantID = r.tenantID
	return nil
}

// GetByID retrieves an invoice.
func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE tenant_id = $1 AND id = $2`, r.tenantID, id)
	invoice, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvoiceNotFound
	}
	return invoice, err
}

// ListOpenByClientForUpdate locks the client's UNPAID and PARTIALLY_PAID
// invoices with a balance. Ordering is left to the allocator.
func (r *InvoiceRepository) ListOpenByClientForUpdate(ctx context.Context, tx usecase.Transaction, clientID string) ([]*domain.Invoice, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	rows, err := pgxTx.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE tenant_id = $1 AND client_id = $2
		  AND payment_status IN ($3, $4) AND balance_due > 0
		ORDER BY id
		FOR UPDATE`,
		r.tenantID, clientID, string(domain.InvoiceStatusUnpaid), string(domain.InvoiceStatusPartiallyPaid))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// UpdatePayment stores paid amount, balance and status.
func (r *InvoiceRepository) UpdatePayment(ctx context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE invoices
		SET paid_amount = $3, balance_due = $4, payment_status = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, invoice.ID,
		decimalToNumeric(invoice.PaidAmount), decimalToNumeric(invoice.BalanceDue),
		string(invoice.PaymentStatus), timeToPgTimestamptz(invoice.UpdatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func scanInvoice(row pgx.Row) (*domain.Invoice, error) {
	var (
		inv                  domain.Invoice
		issueDate, dueDate   pgtype.Date
		total, paid, balance pgtype.Numeric
		status               string
		createdAt, updatedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&inv.ID,
		&inv.TenantID,
		&inv.ClientID,
		&inv.InvoiceNumber,
		&issueDate,
		&dueDate,
		&total,
		&paid,
		&balance,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.IssueDate = pgDateToTime(issueDate)
	inv.DueDate = pgDateToPtr(dueDate)
	inv.TotalAmount = numericToDecimal(total)
	inv.PaidAmount = numericToDecimal(paid)
	inv.BalanceDue = numericToDecimal(balance)
	inv.PaymentStatus = domain.InvoiceStatus(status)
	inv.CreatedAt = createdAt.Time.UTC()
	inv.UpdatedAt = updatedAt.Time.UTC()

	return &inv, nil
}

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	db       DBTX
	tenantID string
}

// Create inserts a payment.
func (r *PaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		payment.ID,
		r.tenantID,
		payment.ClientID,
		dateToPgDate(payment.PaymentDate),
		decimalToNumeric(payment.TotalAmount),
		decimalToNumeric(payment.AppliedAmount),
		decimalToNumeric(payment.UnappliedAmount),
		payment.PaymentMethod,
		payment.Reference,
		string(payment.Status),
		timeToPgTimestamptz(payment.CreatedAt),
		timeToPgTimestamptz(payment.UpdatedAt),
	)
	if err != nil {
		return err
	}

	payment.TenantID = r.tenantID
	return nil
}

// GetByID retrieves a payment with its applications.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.get(ctx, r.db, id, "")
}

// GetByIDForUpdate locks the payment row inside tx.
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, pgxTx, id, " FOR UPDATE")
}

func (r *PaymentRepository) get(ctx context.Context, db DBTX, id, lock string) (*domain.Payment, error) {
	row := db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE tenant_id = $1 AND id = $2`+lock, r.tenantID, id)
	payment, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(ctx, `
		SELECT id, payment_id, invoice_id, applied_amount, match_confidence, match_reason, created_at
		FROM payment_applications
		WHERE payment_id = $1
		ORDER BY created_at, id`, payment.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a                   domain.PaymentApplication
			applied, confidence pgtype.Numeric
			createdAt           pgtype.Timestamptz
		)
		if err := rows.Scan(&a.ID, &a.PaymentID, &a.InvoiceID, &applied, &confidence, &a.MatchReason, &createdAt); err != nil {
			return nil, err
		}
		a.AppliedAmount = numericToDecimal(applied)
		a.MatchConfidence = numericToDecimal(confidence)
		a.CreatedAt = createdAt.Time.UTC()
		payment.Applications = append(payment.Applications, a)
	}
	return payment, rows.Err()
}

// Update stores applied and unapplied amounts and status.
func (r *PaymentRepository) Update(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := pgxTx.Exec(ctx, `
		UPDATE payments
		SET applied_amount = $3, unapplied_amount = $4, status = $5, updated_at = $6
		WHERE tenant_id = $1 AND id = $2`,
		r.tenantID, payment.ID,
		decimalToNumeric(payment.AppliedAmount), decimalToNumeric(payment.UnappliedAmount),
		string(payment.Status), timeToPgTimestamptz(payment.UpdatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// CreateApplication records part of a payment against an invoice.
func (r *PaymentRepository) CreateApplication(ctx context.Context, tx usecase.Transaction, application *domain.PaymentApplication) error {
	pgxTx, err := txFrom(tx)
	if err != nil {
		return err
	}

	_, err = pgxTx.Exec(ctx, `
		INSERT INTO payment_applications (id, payment_id, invoice_id, applied_amount, match_confidence, match_reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		application.ID, application.PaymentID, application.InvoiceID,
		decimalToNumeric(application.AppliedAmount), decimalToNumeric(application.MatchConfidence),
		application.MatchReason, timeToPgTimestamptz(application.CreatedAt))
	return err
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var (
		p                         domain.Payment
		paymentDate               pgtype.Date
		total, applied, unapplied pgtype.Numeric
		status                    string
		createdAt, updatedAt      pgtype.Timestamptz
	)

	err := row.Scan(
		&p.ID,
		&p.TenantID,
		&p.ClientID,
		&paymentDate,
		&total,
		&applied,
		&unapplied,
		&p.PaymentMethod,
		&p.Reference,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.PaymentDate = pgDateToTime(paymentDate)
	p.TotalAmount = numericToDecimal(total)
	p.AppliedAmount = numericToDecimal(applied)
	p.UnappliedAmount = numericToDecimal(unapplied)
	p.Status = domain.PaymentStatus(status)
	p.CreatedAt = createdAt.Time.UTC()
	p.UpdatedAt = updatedAt.Time.UTC()

	return &p, nil
}
