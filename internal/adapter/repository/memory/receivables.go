package memory

import (
	"context"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// InvoiceRepository implements usecase.InvoiceRepository.
type InvoiceRepository struct {
	store    *Store
	tenantID string
}

// Create stores an invoice. Invoice numbers are unique per tenant.
func (r *InvoiceRepository) Create(_ context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	for _, inv := range st.invoices {
		if inv.TenantID == r.tenantID && inv.InvoiceNumber == invoice.InvoiceNumber {
			return domain.ErrSequenceConflict
		}
	}
	inv := *invoice
	inv.TenantID = r.tenantID
	st.invoices[inv.ID] = inv
	return nil
}

// GetByID retrieves a committed invoice.
func (r *InvoiceRepository) GetByID(_ context.Context, id string) (*domain.Invoice, error) {
	inv, ok := r.store.snapshot().invoices[id]
	if !ok || inv.TenantID != r.tenantID {
		return nil, domain.ErrInvoiceNotFound
	}
	return copyInvoice(inv), nil
}

// ListOpenByClientForUpdate returns the client's UNPAID and PARTIALLY_PAID
// invoices with a balance. Ordering is left to the allocator.
func (r *InvoiceRepository) ListOpenByClientForUpdate(_ context.Context, tx usecase.Transaction, clientID string) ([]*domain.Invoice, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}
	var out []*domain.Invoice
	for _, inv := range st.invoices {
		if inv.TenantID != r.tenantID || inv.ClientID != clientID || !inv.IsOpen() {
			continue
		}
		out = append(out, copyInvoice(inv))
	}
	return out, nil
}

// UpdatePayment stores paid amount, balance and status.
func (r *InvoiceRepository) UpdatePayment(_ context.Context, tx usecase.Transaction, invoice *domain.Invoice) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	inv, ok := st.invoices[invoice.ID]
	if !ok || inv.TenantID != r.tenantID {
		return domain.ErrInvoiceNotFound
	}
	inv.PaidAmount = invoice.PaidAmount
	inv.BalanceDue = invoice.BalanceDue
	inv.PaymentStatus = invoice.PaymentStatus
	inv.UpdatedAt = invoice.UpdatedAt
	st.invoices[inv.ID] = inv
	return nil
}

// PaymentRepository implements usecase.PaymentRepository.
type PaymentRepository struct {
	store    *Store
	tenantID string
}

// Create stores a payment.
func (r *PaymentRepository) Create(_ context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	p := copyPayment(*payment)
	p.TenantID = r.tenantID
	st.payments[p.ID] = *p
	return nil
}

// GetByID retrieves a committed payment with its applications.
func (r *PaymentRepository) GetByID(_ context.Context, id string) (*domain.Payment, error) {
	return r.get(r.store.snapshot(), id)
}

// GetByIDForUpdate retrieves a payment inside tx.
func (r *PaymentRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Payment, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}
	return r.get(st, id)
}

// Update stores applied and unapplied amounts and status.
func (r *PaymentRepository) Update(_ context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	p, ok := st.payments[payment.ID]
	if !ok || p.TenantID != r.tenantID {
		return domain.ErrPaymentNotFound
	}
	p.AppliedAmount = payment.AppliedAmount
	p.UnappliedAmount = payment.UnappliedAmount
	p.Status = payment.Status
	p.UpdatedAt = payment.UpdatedAt
	st.payments[p.ID] = p
	return nil
}

// CreateApplication records part of a payment against an invoice.
func (r *PaymentRepository) CreateApplication(_ context.Context, tx usecase.Transaction, application *domain.PaymentApplication) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	p, ok := st.payments[application.PaymentID]
	if !ok || p.TenantID != r.tenantID {
		return domain.ErrPaymentNotFound
	}
	p.Applications = append(copySlice(p.Applications), *application)
	st.payments[p.ID] = p
	return nil
}

func (r *PaymentRepository) get(st *state, id string) (*domain.Payment, error) {
	p, ok := st.payments[id]
	if !ok || p.TenantID != r.tenantID {
		return nil, domain.ErrPaymentNotFound
	}
	return copyPayment(p), nil
}
