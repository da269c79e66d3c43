package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
	"github.com/iho/ledgercore/internal/usecase"
)

func newInvoice(t *testing.T, uc *usecase.PaymentUseCase, client, total string, due time.Time) *domain.Invoice {
	t.Helper()
	inv, err := uc.CreateInvoice(context.Background(), tenantA, usecase.CreateInvoiceInput{
		ClientID:    client,
		IssueDate:   due.AddDate(0, 0, -30),
		DueDate:     &due,
		TotalAmount: dec(total),
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	return inv
}

func newPayment(t *testing.T, uc *usecase.PaymentUseCase, client, amount string) *domain.Payment {
	t.Helper()
	p, err := uc.RecordPayment(context.Background(), tenantA, usecase.RecordPaymentInput{
		ClientID:      client,
		Amount:        dec(amount),
		PaymentMethod: "BANK_TRANSFER",
		PaymentDate:   date(2024, 5, 1),
	})
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return p
}

func TestPaymentUseCase_CreateInvoiceNumbering(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewPaymentUseCase(env.store, env.store, nil, env.idGen, nil)

	first := newInvoice(t, uc, "client-1", "100", date(2024, 4, 1))
	second := newInvoice(t, uc, "client-1", "200", date(2024, 4, 15))
	if first.InvoiceNumber != "INV-000001" || second.InvoiceNumber != "INV-000002" {
		t.Errorf("unexpected numbers %s, %s", first.InvoiceNumber, second.InvoiceNumber)
	}
	if first.PaymentStatus != domain.InvoiceStatusUnpaid {
		t.Errorf("expected UNPAID, got %s", first.PaymentStatus)
	}
	assertDecimal(t, "balance due", first.BalanceDue, "100")

	_, err := uc.CreateInvoice(context.Background(), tenantA, usecase.CreateInvoiceInput{
		ClientID:      "client-1",
		InvoiceNumber: "INV-000001",
		TotalAmount:   dec("10"),
	})
	if !errors.Is(err, domain.ErrSequenceConflict) {
		t.Errorf("expected ErrSequenceConflict for a reused number, got %v", err)
	}
}

func TestPaymentUseCase_AutoMatchExact(t *testing.T) {
	env := newTestEnv(t)
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	uc := usecase.NewPaymentUseCase(env.store, env.store, nil, env.idGen, m)
	ctx := context.Background()

	older := newInvoice(t, uc, "client-1", "300", date(2024, 3, 1))
	exact := newInvoice(t, uc, "client-1", "450", date(2024, 4, 1))
	payment := newPayment(t, uc, "client-1", "450")

	result, err := uc.AutoMatchPayment(ctx, tenantA, payment.ID)
	if err != nil {
		t.Fatalf("auto match: %v", err)
	}
	if len(result.Applications) != 1 {
		t.Fatalf("expected one application, got %d", len(result.Applications))
	}
	app := result.Applications[0]
	if app.InvoiceID != exact.ID || app.MatchReason != domain.MatchReasonExact {
		t.Errorf("expected exact match on %s, got %+v", exact.ID, app)
	}
	assertDecimal(t, "confidence", app.MatchConfidence, "1")
	if result.Payment.Status != domain.PaymentStatusApplied {
		t.Errorf("expected APPLIED, got %s", result.Payment.Status)
	}

	untouched, err := uc.GetInvoice(ctx, tenantA, older.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	assertDecimal(t, "older balance", untouched.BalanceDue, "300")

	paid, err := uc.GetInvoice(ctx, tenantA, exact.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if paid.PaymentStatus != domain.InvoiceStatusPaid {
		t.Errorf("expected PAID, got %s", paid.PaymentStatus)
	}

	if got := testutil.ToFloat64(m.PaymentMatches.WithLabelValues("exact")); got != 1 {
		t.Errorf("expected 1 exact match counted, got %v", got)
	}
}

func TestPaymentUseCase_AutoMatchFIFO(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewPaymentUseCase(env.store, env.store, nil, env.idGen, nil)
	ctx := context.Background()

	later := newInvoice(t, uc, "client-1", "500", date(2024, 4, 1))
	oldest := newInvoice(t, uc, "client-1", "200", date(2024, 2, 1))
	newInvoice(t, uc, "client-2", "100", date(2024, 1, 1))
	payment := newPayment(t, uc, "client-1", "350")

	result, err := uc.AutoMatchPayment(ctx, tenantA, payment.ID)
	if err != nil {
		t.Fatalf("auto match: %v", err)
	}
	if len(result.Applications) != 2 {
		t.Fatalf("expected two applications, got %d", len(result.Applications))
	}
	if result.Applications[0].InvoiceID != oldest.ID || result.Applications[1].InvoiceID != later.ID {
		t.Errorf("expected oldest due first")
	}
	assertDecimal(t, "first applied", result.Applications[0].AppliedAmount, "200")
	assertDecimal(t, "second applied", result.Applications[1].AppliedAmount, "150")
	assertDecimal(t, "unapplied", result.Payment.UnappliedAmount, "0")

	partial, err := uc.GetInvoice(ctx, tenantA, later.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if partial.PaymentStatus != domain.InvoiceStatusPartiallyPaid {
		t.Errorf("expected PARTIALLY_PAID, got %s", partial.PaymentStatus)
	}
	assertDecimal(t, "balance due", partial.BalanceDue, "350")

	stored, err := uc.GetPayment(ctx, tenantA, payment.ID)
	if err != nil {
		t.Fatalf("get payment: %v", err)
	}
	if len(stored.Applications) != 2 {
		t.Errorf("expected stored applications, got %d", len(stored.Applications))
	}
}

func TestPaymentUseCase_AutoMatchLeavesRemainder(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewPaymentUseCase(env.store, env.store, nil, env.idGen, nil)
	ctx := context.Background()

	newInvoice(t, uc, "client-1", "100", date(2024, 4, 1))
	payment := newPayment(t, uc, "client-1", "250")

	result, err := uc.AutoMatchPayment(ctx, tenantA, payment.ID)
	if err != nil {
		t.Fatalf("auto match: %v", err)
	}
	assertDecimal(t, "applied", result.Payment.AppliedAmount, "100")
	assertDecimal(t, "unapplied", result.Payment.UnappliedAmount, "150")
	if result.Payment.Status != domain.PaymentStatusPartiallyApplied {
		t.Errorf("expected PARTIALLY_APPLIED, got %s", result.Payment.Status)
	}

	// Nothing left to match: a second run is a no-op.
	again, err := uc.AutoMatchPayment(ctx, tenantA, payment.ID)
	if err != nil {
		t.Fatalf("auto match again: %v", err)
	}
	if len(again.Applications) != 0 {
		t.Errorf("expected no new applications, got %d", len(again.Applications))
	}
	assertDecimal(t, "unapplied", again.Payment.UnappliedAmount, "150")
}

func TestPaymentUseCase_AutoMatchWithoutInvoices(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewPaymentUseCase(env.store, env.store, nil, env.idGen, nil)
	ctx := context.Background()
	payment := newPayment(t, uc, "client-9", "75")

	result, err := uc.AutoMatchPayment(ctx, tenantA, payment.ID)
	if err != nil {
		t.Fatalf("auto match: %v", err)
	}
	if len(result.Applications) != 0 {
		t.Errorf("expected no applications, got %d", len(result.Applications))
	}
	if result.Payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected PENDING, got %s", result.Payment.Status)
	}

	if _, err := uc.AutoMatchPayment(ctx, tenantB, payment.ID); !errors.Is(err, domain.ErrPaymentNotFound) {
		t.Errorf("expected ErrPaymentNotFound for another tenant, got %v", err)
	}
}

func TestPaymentUseCase_RecordPaymentValidation(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewPaymentUseCase(env.store, env.store, nil, env.idGen, nil)

	tests := []struct {
		name      string
		input     usecase.RecordPaymentInput
		expectErr error
	}{
		{"missing client", usecase.RecordPaymentInput{Amount: dec("10")}, domain.ErrClientRequired},
		{"zero amount", usecase.RecordPaymentInput{ClientID: "c", Amount: dec("0")}, domain.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := uc.RecordPayment(context.Background(), tenantA, tt.input); !errors.Is(err, tt.expectErr) {
				t.Fatalf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}
