package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func openInvoice(id string, balance string, due time.Time) *Invoice {
	b := decimal.RequireFromString(balance)
	return &Invoice{
		ID:            id,
		TotalAmount:   b,
		PaidAmount:    decimal.Zero,
		BalanceDue:    b,
		PaymentStatus: InvoiceStatusUnpaid,
		IssueDate:     due.AddDate(0, -1, 0),
		DueDate:       &due,
	}
}

func TestAllocatePayment_ExactMatchWins(t *testing.T) {
	older := openInvoice("inv-200", "200.00", date(2024, 1, 10))
	exact := openInvoice("inv-500", "500.00", date(2024, 2, 10))

	allocs := AllocatePayment(decimal.RequireFromString("500.00"), []*Invoice{exact, older})
	if len(allocs) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(allocs))
	}
	if allocs[0].Invoice.ID != "inv-500" {
		t.Errorf("allocated to %s, want inv-500", allocs[0].Invoice.ID)
	}
	if !allocs[0].Amount.Equal(decimal.NewFromInt(500)) {
		t.Errorf("amount = %s", allocs[0].Amount)
	}
	if !allocs[0].Confidence.Equal(ConfidenceExact) || allocs[0].Reason != MatchReasonExact {
		t.Errorf("confidence/reason = %s/%s", allocs[0].Confidence, allocs[0].Reason)
	}
}

func TestAllocatePayment_FIFO(t *testing.T) {
	a := openInvoice("A", "200", date(2024, 1, 10))
	b := openInvoice("B", "150", date(2024, 2, 10))

	allocs := AllocatePayment(decimal.NewFromInt(300), []*Invoice{b, a})
	if len(allocs) != 2 {
		t.Fatalf("expected 2 allocations, got %d", len(allocs))
	}
	if allocs[0].Invoice.ID != "A" || !allocs[0].Amount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("first allocation = %s %s", allocs[0].Invoice.ID, allocs[0].Amount)
	}
	if allocs[1].Invoice.ID != "B" || !allocs[1].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("second allocation = %s %s", allocs[1].Invoice.ID, allocs[1].Amount)
	}
	for _, al := range allocs {
		if !al.Confidence.Equal(ConfidenceFIFO) || al.Reason != MatchReasonFIFO {
			t.Errorf("confidence/reason = %s/%s", al.Confidence, al.Reason)
		}
	}
}

func TestAllocatePayment_SkipsClosedInvoices(t *testing.T) {
	paid := openInvoice("paid", "100", date(2024, 1, 1))
	paid.PaymentStatus = InvoiceStatusPaid
	empty := openInvoice("empty", "0", date(2024, 1, 2))
	open := openInvoice("open", "80", date(2024, 1, 3))

	allocs := AllocatePayment(decimal.NewFromInt(100), []*Invoice{paid, empty, open})
	if len(allocs) != 1 || allocs[0].Invoice.ID != "open" {
		t.Fatalf("unexpected allocations: %+v", allocs)
	}
	if !allocs[0].Amount.Equal(decimal.NewFromInt(80)) {
		t.Errorf("amount = %s, want 80", allocs[0].Amount)
	}
}

func TestAllocatePayment_NoInvoices(t *testing.T) {
	if allocs := AllocatePayment(decimal.NewFromInt(100), nil); len(allocs) != 0 {
		t.Errorf("expected no allocations, got %d", len(allocs))
	}
}

func TestSortInvoicesByDueDate_NilDueLast(t *testing.T) {
	noDue := &Invoice{ID: "none", IssueDate: date(2023, 1, 1)}
	late := openInvoice("late", "1", date(2024, 6, 1))
	early := openInvoice("early", "1", date(2024, 1, 1))

	invoices := []*Invoice{noDue, late, early}
	SortInvoicesByDueDate(invoices)

	want := []string{"early", "late", "none"}
	for i, id := range want {
		if invoices[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, invoices[i].ID, id)
		}
	}
}

func TestPayment_ConservationAfterAllocation(t *testing.T) {
	p, err := NewPayment("client-1", decimal.NewFromInt(1000), "BANK", date(2024, 3, 1))
	if err != nil {
		t.Fatalf("NewPayment: %v", err)
	}
	invoices := []*Invoice{
		openInvoice("1", "300", date(2024, 1, 1)),
		openInvoice("2", "450", date(2024, 2, 1)),
	}

	applied := decimal.Zero
	for _, al := range AllocatePayment(p.UnappliedAmount, invoices) {
		al.Invoice.ApplyPayment(al.Amount, date(2024, 3, 1))
		p.RecordApplied(al.Amount, date(2024, 3, 1))
		applied = applied.Add(al.Amount)
	}

	if !p.AppliedAmount.Add(p.UnappliedAmount).Equal(p.TotalAmount) {
		t.Errorf("applied %s + unapplied %s != total %s", p.AppliedAmount, p.UnappliedAmount, p.TotalAmount)
	}
	if !applied.Equal(p.AppliedAmount) {
		t.Errorf("applications sum %s, payment applied %s", applied, p.AppliedAmount)
	}
	if p.Status != PaymentStatusPartiallyApplied {
		t.Errorf("Status = %s, want PARTIALLY_APPLIED", p.Status)
	}
	for _, inv := range invoices {
		if inv.PaymentStatus != InvoiceStatusPaid || !inv.BalanceDue.IsZero() {
			t.Errorf("invoice %s status %s balance %s", inv.ID, inv.PaymentStatus, inv.BalanceDue)
		}
	}
}

func TestInvoice_ApplyPaymentPartial(t *testing.T) {
	inv := openInvoice("x", "150", date(2024, 1, 1))
	inv.ApplyPayment(decimal.NewFromInt(100), date(2024, 1, 5))

	if inv.PaymentStatus != InvoiceStatusPartiallyPaid {
		t.Errorf("status = %s", inv.PaymentStatus)
	}
	if !inv.BalanceDue.Equal(decimal.NewFromInt(50)) || !inv.PaidAmount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance/paid = %s/%s", inv.BalanceDue, inv.PaidAmount)
	}
}
