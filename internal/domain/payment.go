package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus tracks how much of a payment has been applied.
type PaymentStatus string

const (
	PaymentStatusPending          PaymentStatus = "PENDING"
	PaymentStatusPartiallyApplied PaymentStatus = "PARTIALLY_APPLIED"
	PaymentStatusApplied          PaymentStatus = "APPLIED"
)

// InvoiceStatus is the receivable side of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
)

// Match reasons recorded on applications.
const (
	MatchReasonExact = "Exact amount match"
	MatchReasonFIFO  = "FIFO matching"
)

var (
	ConfidenceExact = decimal.NewFromInt(1)
	ConfidenceFIFO  = decimal.New(9, -1)
)

// Payment is money received from a client.
type Payment struct {
	ID              string
	TenantID        string
	ClientID        string
	PaymentDate     time.Time
	TotalAmount     decimal.Decimal
	AppliedAmount   decimal.Decimal
	UnappliedAmount decimal.Decimal
	PaymentMethod   string
	Reference       string
	Status          PaymentStatus
	Applications    []PaymentApplication
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PaymentApplication links part of a payment to one invoice.
type PaymentApplication struct {
	ID              string
	PaymentID       string
	InvoiceID       string
	AppliedAmount   decimal.Decimal
	MatchConfidence decimal.Decimal
	MatchReason     string
	CreatedAt       time.Time
}

// Invoice is the receivable record the allocator settles.
type Invoice struct {
	ID            string
	TenantID      string
	ClientID      string
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       *time.Time
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceDue    decimal.Decimal
	PaymentStatus InvoiceStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsOpen reports whether the invoice can still receive payments.
func (inv *Invoice) IsOpen() bool {
	if inv.PaymentStatus != InvoiceStatusUnpaid && inv.PaymentStatus != InvoiceStatusPartiallyPaid {
		return false
	}
	return inv.BalanceDue.IsPositive()
}

// ApplyPayment records amount against the invoice and updates its status.
func (inv *Invoice) ApplyPayment(amount decimal.Decimal, at time.Time) {
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.BalanceDue = inv.BalanceDue.Sub(amount)
	if inv.BalanceDue.LessThanOrEqual(decimal.Zero) {
		inv.BalanceDue = decimal.Zero
		inv.PaymentStatus = InvoiceStatusPaid
	} else {
		inv.PaymentStatus = InvoiceStatusPartiallyPaid
	}
	inv.UpdatedAt = at
}

// NewPayment creates a pending, fully unapplied payment.
func NewPayment(clientID string, amount decimal.Decimal, method string, date time.Time) (*Payment, error) {
	if clientID == "" {
		return nil, ErrClientRequired
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	return &Payment{
		ClientID:        clientID,
		PaymentDate:     date,
		TotalAmount:     amount,
		AppliedAmount:   decimal.Zero,
		UnappliedAmount: amount,
		PaymentMethod:   method,
		Status:          PaymentStatusPending,
	}, nil
}

// NewInvoice creates an unpaid invoice whose balance equals its total.
func NewInvoice(clientID, number string, total decimal.Decimal, issued time.Time, due *time.Time) (*Invoice, error) {
	if clientID == "" {
		return nil, ErrClientRequired
	}
	if err := ValidateAmount(total); err != nil {
		return nil, err
	}
	return &Invoice{
		ClientID:      clientID,
		InvoiceNumber: number,
		IssueDate:     issued,
		DueDate:       due,
		TotalAmount:   total,
		PaidAmount:    decimal.Zero,
		BalanceDue:    total,
		PaymentStatus: InvoiceStatusUnpaid,
	}, nil
}

// Allocation is a planned application of payment money to an invoice.
type Allocation struct {
	Invoice    *Invoice
	Amount     decimal.Decimal
	Confidence decimal.Decimal
	Reason     string
}

// SortInvoicesByDueDate orders oldest due first; invoices without a due date
// go last, ties broken by issue date then creation time.
func SortInvoicesByDueDate(invoices []*Invoice) {
	sort.SliceStable(invoices, func(i, j int) bool {
		a, b := invoices[i], invoices[j]
		switch {
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate != nil && b.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		case !a.IssueDate.Equal(b.IssueDate):
			return a.IssueDate.Before(b.IssueDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

// AllocatePayment plans how unapplied money settles open invoices. If an
// open invoice's balance equals the unapplied amount within Tolerance the
// whole payment goes to the oldest such invoice. Otherwise invoices are
// filled oldest due first until the money runs out.
func AllocatePayment(unapplied decimal.Decimal, invoices []*Invoice) []Allocation {
	if !unapplied.IsPositive() {
		return nil
	}

	open := make([]*Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.IsOpen() {
			open = append(open, inv)
		}
	}
	SortInvoicesByDueDate(open)

	for _, inv := range open {
		if StrictlyWithinTolerance(inv.BalanceDue, unapplied) {
			return []Allocation{{
				Invoice:    inv,
				Amount:     inv.BalanceDue,
				Confidence: ConfidenceExact,
				Reason:     MatchReasonExact,
			}}
		}
	}

	var allocations []Allocation
	remaining := unapplied
	for _, inv := range open {
		if !remaining.IsPositive() {
			break
		}
		amount := decimal.Min(inv.BalanceDue, remaining)
		remaining = remaining.Sub(amount)
		allocations = append(allocations, Allocation{
			Invoice:    inv,
			Amount:     amount,
			Confidence: ConfidenceFIFO,
			Reason:     MatchReasonFIFO,
		})
	}
	return allocations
}

// RecordApplied adds applied money and recomputes unapplied and status.
func (p *Payment) RecordApplied(amount decimal.Decimal, at time.Time) {
	p.AppliedAmount = p.AppliedAmount.Add(amount)
	p.UnappliedAmount = p.TotalAmount.Sub(p.AppliedAmount)
	switch {
	case p.AppliedAmount.IsZero():
		p.Status = PaymentStatusPending
	case p.UnappliedAmount.IsPositive():
		p.Status = PaymentStatusPartiallyApplied
	default:
		p.Status = PaymentStatusApplied
	}
	p.UpdatedAt = at
}
