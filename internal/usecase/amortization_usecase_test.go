package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

func newPrepaid(t *testing.T, env *testEnv, total string) *domain.PrepaidExpense {
	t.Helper()
	uc := usecase.NewAmortizationUseCase(env.store, env.store, env.idGen, nil)
	expense, err := uc.CreatePrepaidExpense(context.Background(), tenantA, usecase.CreatePrepaidExpenseInput{
		Description: "Annual insurance",
		VendorName:  "Acme Insurance",
		TotalAmount: dec(total),
		StartDate:   date(2024, 1, 1),
		EndDate:     date(2024, 12, 31),
	})
	if err != nil {
		t.Fatalf("create prepaid: %v", err)
	}
	return expense
}

func TestAmortizationUseCase_CreatePrepaidExpense(t *testing.T) {
	env := newTestEnv(t)
	expense := newPrepaid(t, env, "1000")

	if expense.PeriodMonths != 12 {
		t.Errorf("expected 12 periods, got %d", expense.PeriodMonths)
	}
	assertDecimal(t, "monthly", expense.MonthlyAmount, "83.33")
	if len(expense.Schedule) != 12 {
		t.Fatalf("expected 12 schedule rows, got %d", len(expense.Schedule))
	}
	assertDecimal(t, "last period", expense.Schedule[11].Amount, "83.37")
	for _, p := range expense.Schedule {
		if p.PrepaidExpenseID != expense.ID || p.ID == "" {
			t.Errorf("period %d not linked", p.PeriodNumber)
		}
	}

	uc := usecase.NewAmortizationUseCase(env.store, env.store, env.idGen, nil)
	stored, err := uc.GetPrepaidExpense(context.Background(), tenantA, expense.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(stored.Schedule) != 12 || stored.Schedule[0].PeriodNumber != 1 {
		t.Errorf("schedule not stored in period order")
	}
}

func TestAmortizationUseCase_CreatePrepaidExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewAmortizationUseCase(env.store, env.store, env.idGen, nil)
	missing := "missing-account"

	tests := []struct {
		name      string
		input     usecase.CreatePrepaidExpenseInput
		expectErr error
	}{
		{
			name:      "zero amount",
			input:     usecase.CreatePrepaidExpenseInput{Description: "Rent", TotalAmount: dec("0"), StartDate: date(2024, 1, 1), EndDate: date(2024, 6, 30)},
			expectErr: domain.ErrInvalidAmount,
		},
		{
			name:      "end before start",
			input:     usecase.CreatePrepaidExpenseInput{Description: "Rent", TotalAmount: dec("600"), StartDate: date(2024, 6, 1), EndDate: date(2024, 1, 1)},
			expectErr: domain.ErrInvalidDateRange,
		},
		{
			name:      "unknown expense account",
			input:     usecase.CreatePrepaidExpenseInput{Description: "Rent", TotalAmount: dec("600"), StartDate: date(2024, 1, 1), EndDate: date(2024, 6, 30), ExpenseAccountID: &missing},
			expectErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreatePrepaidExpense(context.Background(), tenantA, tt.input)
			if !errors.Is(err, tt.expectErr) {
				t.Fatalf("expected %v, got %v", tt.expectErr, err)
			}
		})
	}
}

func TestAmortizationUseCase_ProcessAmortization(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewAmortizationUseCase(env.store, env.store, env.idGen, nil)
	ctx := context.Background()
	expense := newPrepaid(t, env, "1200")
	first := expense.Schedule[0]

	result, err := uc.ProcessAmortization(ctx, tenantA, first.ID, nil)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	assertDecimal(t, "amount", result.Amount, "100")

	_, err = uc.ProcessAmortization(ctx, tenantA, first.ID, nil)
	if !errors.Is(err, domain.ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}

	stored, err := uc.GetPrepaidExpense(ctx, tenantA, expense.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertDecimal(t, "recognized", stored.RecognizedAmount, "100")
	assertDecimal(t, "remaining", stored.RemainingAmount, "1100")
	if !stored.Schedule[0].IsProcessed || stored.Schedule[0].ProcessedAt == nil {
		t.Errorf("first period should be processed")
	}

	ghost := "missing-entry"
	_, err = uc.ProcessAmortization(ctx, tenantA, expense.Schedule[1].ID, &ghost)
	if !errors.Is(err, domain.ErrJournalEntryNotFound) {
		t.Errorf("expected ErrJournalEntryNotFound, got %v", err)
	}

	_, err = uc.ProcessAmortization(ctx, tenantB, expense.Schedule[1].ID, nil)
	if !errors.Is(err, domain.ErrAmortizationNotFound) {
		t.Errorf("expected ErrAmortizationNotFound for another tenant, got %v", err)
	}
}

func TestAmortizationUseCase_ProcessAllPending(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewAmortizationUseCase(env.store, env.store, env.idGen, nil)
	ctx := context.Background()
	expense := newPrepaid(t, env, "1200")

	pending, err := uc.ListPendingAmortizations(ctx, tenantA, date(2024, 3, 15))
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending periods, got %d", len(pending))
	}
	if pending[0].Description != "Annual insurance" {
		t.Errorf("pending row should carry the description")
	}

	results, err := uc.ProcessAllPending(ctx, tenantA, date(2024, 3, 15))
	if err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	again, err := uc.ProcessAllPending(ctx, tenantA, date(2024, 3, 15))
	if err != nil {
		t.Fatalf("process pending again: %v", err)
	}
	if len(again) != 0 {
		t.Errorf("second run should process nothing, got %d", len(again))
	}

	if _, err := uc.ProcessAllPending(ctx, tenantA, date(2024, 12, 31)); err != nil {
		t.Fatalf("process rest: %v", err)
	}
	stored, err := uc.GetPrepaidExpense(ctx, tenantA, expense.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.IsActive {
		t.Error("fully recognised expense should be inactive")
	}
	assertDecimal(t, "recognized", stored.RecognizedAmount, "1200")
	assertDecimal(t, "remaining", stored.RemainingAmount, "0")

	active, err := uc.ListPrepaidExpenses(ctx, tenantA, true, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active expenses, got %d", len(active))
	}

	var processedEvents int
	for _, ev := range env.store.Events(tenantA) {
		if ev.EventType == domain.EventTypeAmortizationProcessed {
			processedEvents++
		}
	}
	if processedEvents != 12 {
		t.Errorf("expected 12 amortization events, got %d", processedEvents)
	}
}

func TestAmortizationUseCase_ProcessAllPendingSplitAcrossMonthEnds(t *testing.T) {
	env := newTestEnv(t)
	uc := usecase.NewAmortizationUseCase(env.store, env.store, env.idGen, nil)
	ctx := context.Background()

	expense, err := uc.CreatePrepaidExpense(ctx, tenantA, usecase.CreatePrepaidExpenseInput{
		Description: "Domain renewal",
		TotalAmount: dec("10.00"),
		StartDate:   date(2020, 1, 1),
		EndDate:     date(2024, 12, 31),
	})
	if err != nil {
		t.Fatalf("create prepaid: %v", err)
	}
	assertDecimal(t, "last period", expense.Schedule[59].Amount, "-0.03")

	first, err := uc.ProcessAllPending(ctx, tenantA, date(2024, 11, 30))
	if err != nil {
		t.Fatalf("process through november: %v", err)
	}
	if len(first) != 59 {
		t.Fatalf("expected 59 periods, got %d", len(first))
	}

	mid, err := uc.GetPrepaidExpense(ctx, tenantA, expense.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !mid.IsActive {
		t.Fatal("expense should stay active while its last period is pending")
	}

	second, err := uc.ProcessAllPending(ctx, tenantA, date(2024, 12, 31))
	if err != nil {
		t.Fatalf("process december: %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("expected the last period, got %d", len(second))
	}
	assertDecimal(t, "last amount", second[0].Amount, "-0.03")

	stored, err := uc.GetPrepaidExpense(ctx, tenantA, expense.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	assertDecimal(t, "recognized", stored.RecognizedAmount, "10.00")
	assertDecimal(t, "remaining", stored.RemainingAmount, "0")
	if stored.IsActive {
		t.Error("expense should be inactive once every period is processed")
	}
	if !stored.Schedule[59].IsProcessed {
		t.Error("last period should be processed")
	}
}
