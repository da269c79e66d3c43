package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// InvoiceNumberPrefix prefixes generated invoice numbers.
const InvoiceNumberPrefix = "INV"

// PaymentUseCase records client payments and matches them to open invoices.
type PaymentUseCase struct {
	store     Store
	txManager TransactionManager
	retrier   Retrier
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewPaymentUseCase creates a new PaymentUseCase. retrier may be nil.
func NewPaymentUseCase(store Store, txManager TransactionManager, retrier Retrier, idGen IDGenerator, m *metrics.Metrics) *PaymentUseCase {
	return &PaymentUseCase{
		store:     store,
		txManager: txManager,
		retrier:   retrier,
		idGen:     idGen,
		metrics:   m,
	}
}

// RecordPaymentInput represents money received from a client.
type RecordPaymentInput struct {
	ClientID      string
	Amount        decimal.Decimal
	PaymentMethod string
	PaymentDate   time.Time
	Reference     string
}

// CreateInvoiceInput represents a receivable to be settled by payments.
// An empty InvoiceNumber is allocated from the tenant sequence.
type CreateInvoiceInput struct {
	ClientID      string
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       *time.Time
	TotalAmount   decimal.Decimal
}

// AutoMatchResult is the outcome of matching one payment.
type AutoMatchResult struct {
	Payment      *domain.Payment
	Applications []domain.PaymentApplication
}

// RecordPayment stores a PENDING, fully unapplied payment.
func (uc *PaymentUseCase) RecordPayment(ctx context.Context, tenantID string, input RecordPaymentInput) (*domain.Payment, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	date := input.PaymentDate
	if date.IsZero() {
		date = now()
	}
	payment, err := domain.NewPayment(strings.TrimSpace(input.ClientID), input.Amount, input.PaymentMethod, domain.DateOnly(date))
	if err != nil {
		return nil, err
	}

	ts := now()
	payment.ID = uc.idGen.Generate()
	payment.TenantID = tenantID
	payment.Reference = input.Reference
	payment.CreatedAt = ts
	payment.UpdatedAt = ts

	repos := uc.store.ForTenant(tenantID)
	err = runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		if err := repos.Payments.Create(ctx, tx, payment); err != nil {
			return err
		}
		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx, nil,
			domain.NewAuditLog(tenantID, domain.AuditActionPaymentCreate, domain.AggregateTypePayment, payment.ID, nil, payment, ts))
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// GetPayment returns the payment with its applications.
func (uc *PaymentUseCase) GetPayment(ctx context.Context, tenantID, id string) (*domain.Payment, error) {
	return uc.store.ForTenant(tenantID).Payments.GetByID(ctx, id)
}

// CreateInvoice stores an unpaid invoice.
func (uc *PaymentUseCase) CreateInvoice(ctx context.Context, tenantID string, input CreateInvoiceInput) (*domain.Invoice, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	issued := input.IssueDate
	if issued.IsZero() {
		issued = now()
	}
	var due *time.Time
	if input.DueDate != nil {
		d := domain.DateOnly(*input.DueDate)
		due = &d
	}

	invoice, err := domain.NewInvoice(strings.TrimSpace(input.ClientID), strings.TrimSpace(input.InvoiceNumber), input.TotalAmount, domain.DateOnly(issued), due)
	if err != nil {
		return nil, err
	}

	repos := uc.store.ForTenant(tenantID)
	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		ts := now()
		invoice.ID = uc.idGen.Generate()
		invoice.TenantID = tenantID
		invoice.CreatedAt = ts
		invoice.UpdatedAt = ts

		if input.InvoiceNumber == "" {
			seq, err := repos.Sequences.Next(ctx, tx, InvoiceNumberPrefix)
			if err != nil {
				return err
			}
			invoice.InvoiceNumber = domain.FormatDocumentNumber(InvoiceNumberPrefix, seq)
		}

		if err := repos.Invoices.Create(ctx, tx, invoice); err != nil {
			return err
		}
		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx, nil,
			domain.NewAuditLog(tenantID, domain.AuditActionInvoiceCreate, domain.AggregateTypeInvoice, invoice.ID, nil, invoice, ts))
	})
	if err != nil {
		return nil, err
	}
	return invoice, nil
}

// GetInvoice retrieves an invoice.
func (uc *PaymentUseCase) GetInvoice(ctx context.Context, tenantID, id string) (*domain.Invoice, error) {
	return uc.store.ForTenant(tenantID).Invoices.GetByID(ctx, id)
}

// AutoMatchPayment settles the payment's unapplied money against the
// client's open invoices. Having no open invoice is not an error; the
// payment is returned unchanged.
func (uc *PaymentUseCase) AutoMatchPayment(ctx context.Context, tenantID, paymentID string) (*AutoMatchResult, error) {
	repos := uc.store.ForTenant(tenantID)

	var result *AutoMatchResult
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		payment, err := repos.Payments.GetByIDForUpdate(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		result = &AutoMatchResult{Payment: payment}

		invoices, err := repos.Invoices.ListOpenByClientForUpdate(ctx, tx, payment.ClientID)
		if err != nil {
			return err
		}

		allocations := domain.AllocatePayment(payment.UnappliedAmount, invoices)
		if len(allocations) == 0 {
			return nil
		}

		before := *payment
		ts := now()
		applied := decimal.Zero
		invoiceIDs := make([]string, 0, len(allocations))

		for _, alloc := range allocations {
			alloc.Invoice.ApplyPayment(alloc.Amount, ts)
			if err := repos.Invoices.UpdatePayment(ctx, tx, alloc.Invoice); err != nil {
				return err
			}

			app := domain.PaymentApplication{
				ID:              uc.idGen.Generate(),
				PaymentID:       payment.ID,
				InvoiceID:       alloc.Invoice.ID,
				AppliedAmount:   alloc.Amount,
				MatchConfidence: alloc.Confidence,
				MatchReason:     alloc.Reason,
				CreatedAt:       ts,
			}
			if err := repos.Payments.CreateApplication(ctx, tx, &app); err != nil {
				return err
			}

			applied = applied.Add(alloc.Amount)
			invoiceIDs = append(invoiceIDs, alloc.Invoice.ID)
			result.Applications = append(result.Applications, app)
		}

		payment.RecordApplied(applied, ts)
		payment.Applications = append(payment.Applications, result.Applications...)
		if err := repos.Payments.Update(ctx, tx, payment); err != nil {
			return err
		}

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypePayment, payment.ID, domain.EventTypePaymentMatched, domain.PaymentMatchedEvent{
				PaymentID:       payment.ID,
				InvoiceIDs:      invoiceIDs,
				AppliedAmount:   applied.String(),
				UnappliedAmount: payment.UnappliedAmount.String(),
			}, ts),
			domain.NewAuditLog(tenantID, domain.AuditActionPaymentAutoMatch, domain.AggregateTypePayment, payment.ID, before, payment, ts),
		)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		for _, app := range result.Applications {
			uc.metrics.PaymentMatches.WithLabelValues(matchRule(app.MatchReason)).Inc()
		}
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("payment_id", paymentID).
		Int("applications", len(result.Applications)).
		Str("unapplied", result.Payment.UnappliedAmount.String()).
		Msg("payment matched")

	return result, nil
}

func matchRule(reason string) string {
	if reason == domain.MatchReasonExact {
		return "exact"
	}
	return "fifo"
}
