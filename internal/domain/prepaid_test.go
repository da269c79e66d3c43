package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same month", date(2024, 1, 1), date(2024, 1, 31), 1},
		{"full year", date(2024, 1, 1), date(2024, 12, 31), 12},
		{"across years", date(2023, 11, 15), date(2024, 2, 14), 4},
		{"end before start floors at one", date(2024, 5, 1), date(2024, 3, 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsBetween(tt.start, tt.end); got != tt.want {
				t.Errorf("MonthsBetween() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{date(2024, 1, 31), 1, date(2024, 2, 29)},
		{date(2023, 1, 31), 1, date(2023, 2, 28)},
		{date(2024, 1, 15), 13, date(2025, 2, 15)},
		{date(2024, 8, 31), 1, date(2024, 9, 30)},
	}
	for _, tt := range tests {
		if got := AddMonths(tt.in, tt.n); !got.Equal(tt.want) {
			t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.in.Format(time.DateOnly), tt.n, got.Format(time.DateOnly), tt.want.Format(time.DateOnly))
		}
	}
}

func TestNewPrepaidExpense_ScheduleSumsExactly(t *testing.T) {
	total := decimal.NewFromInt(1000)
	p, err := NewPrepaidExpense("Insurance", total, date(2024, 1, 1), date(2024, 3, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.PeriodMonths != 3 {
		t.Fatalf("PeriodMonths = %d, want 3", p.PeriodMonths)
	}
	if !p.MonthlyAmount.Equal(decimal.RequireFromString("333.33")) {
		t.Errorf("MonthlyAmount = %s, want 333.33", p.MonthlyAmount)
	}
	if len(p.Schedule) != 3 {
		t.Fatalf("schedule length = %d", len(p.Schedule))
	}
	if !p.Schedule[2].Amount.Equal(decimal.RequireFromString("333.34")) {
		t.Errorf("last period = %s, want 333.34", p.Schedule[2].Amount)
	}

	sum := decimal.Zero
	for i, a := range p.Schedule {
		sum = sum.Add(a.Amount)
		if a.PeriodNumber != i+1 {
			t.Errorf("period %d numbered %d", i+1, a.PeriodNumber)
		}
		if a.IsProcessed {
			t.Errorf("period %d created processed", i+1)
		}
	}
	if !sum.Equal(total) {
		t.Errorf("schedule sums to %s, want %s", sum, total)
	}
	if !p.Schedule[1].PeriodDate.Equal(date(2024, 2, 1)) {
		t.Errorf("second period date = %s", p.Schedule[1].PeriodDate)
	}
}

func TestNewPrepaidExpense_Validation(t *testing.T) {
	if _, err := NewPrepaidExpense("", decimal.NewFromInt(10), date(2024, 1, 1), date(2024, 2, 1)); !errors.Is(err, ErrDescriptionRequired) {
		t.Errorf("expected ErrDescriptionRequired, got %v", err)
	}
	if _, err := NewPrepaidExpense("x", decimal.Zero, date(2024, 1, 1), date(2024, 2, 1)); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := NewPrepaidExpense("x", decimal.NewFromInt(10), date(2024, 3, 1), date(2024, 2, 1)); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestPrepaidExpense_RecognizeAllPeriods(t *testing.T) {
	total := decimal.RequireFromString("1200.10")
	p, err := NewPrepaidExpense("Software licence", total, date(2024, 1, 1), date(2024, 12, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := date(2025, 1, 1)
	for i := range p.Schedule {
		if err := p.Schedule[i].MarkProcessed(nil, now); err != nil {
			t.Fatalf("period %d: %v", i+1, err)
		}
		p.Recognize(p.Schedule[i], now)
	}

	if !p.RecognizedAmount.Equal(total) {
		t.Errorf("RecognizedAmount = %s, want %s", p.RecognizedAmount, total)
	}
	if !p.RemainingAmount.IsZero() {
		t.Errorf("RemainingAmount = %s, want 0", p.RemainingAmount)
	}
	if p.IsActive {
		t.Error("fully recognised expense should be inactive")
	}
	if p.LastRecognizedAt == nil || !p.LastRecognizedAt.Equal(now) {
		t.Error("LastRecognizedAt not stamped")
	}
}

func TestBuildAmortizationSchedule_NegativeLastPeriod(t *testing.T) {
	total := decimal.RequireFromString("10.00")
	monthly, schedule := BuildAmortizationSchedule(total, date(2020, 1, 1), 60)

	if !monthly.Equal(decimal.RequireFromString("0.17")) {
		t.Fatalf("monthly = %s, want 0.17", monthly)
	}
	if len(schedule) != 60 {
		t.Fatalf("schedule length = %d, want 60", len(schedule))
	}
	if !schedule[59].Amount.Equal(decimal.RequireFromString("-0.03")) {
		t.Errorf("last period = %s, want -0.03", schedule[59].Amount)
	}

	sum := decimal.Zero
	for _, a := range schedule {
		sum = sum.Add(a.Amount)
	}
	if !sum.Equal(total) {
		t.Errorf("schedule sums to %s, want %s", sum, total)
	}
}

func TestPrepaidExpense_StaysActiveUntilLastPeriod(t *testing.T) {
	total := decimal.RequireFromString("10.00")
	p, err := NewPrepaidExpense("Domain renewal", total, date(2020, 1, 1), date(2024, 12, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now := date(2025, 1, 1)
	for i := 0; i < 59; i++ {
		if err := p.Schedule[i].MarkProcessed(nil, now); err != nil {
			t.Fatalf("period %d: %v", i+1, err)
		}
		p.Recognize(p.Schedule[i], now)
	}

	if !p.RemainingAmount.Equal(decimal.RequireFromString("-0.03")) {
		t.Errorf("RemainingAmount after 59 periods = %s, want -0.03", p.RemainingAmount)
	}
	if !p.IsActive {
		t.Fatal("expense deactivated before its last period")
	}

	last := p.Schedule[59]
	if err := last.MarkProcessed(nil, now); err != nil {
		t.Fatalf("last period: %v", err)
	}
	p.Recognize(last, now)

	if p.IsActive {
		t.Error("expense should deactivate after its last period")
	}
	if !p.RecognizedAmount.Equal(total) || !p.RemainingAmount.IsZero() {
		t.Errorf("recognized/remaining = %s/%s, want 10/0", p.RecognizedAmount, p.RemainingAmount)
	}
}

func TestPrepaidExpense_CloneCopiesSchedule(t *testing.T) {
	p, err := NewPrepaidExpense("Rent", decimal.NewFromInt(300), date(2024, 1, 1), date(2024, 3, 31))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	before := p.Clone()
	period := p.Schedule[0]
	if err := period.MarkProcessed(nil, date(2024, 1, 31)); err != nil {
		t.Fatalf("mark: %v", err)
	}
	p.Recognize(period, date(2024, 1, 31))

	if before.Schedule[0].IsProcessed {
		t.Error("clone schedule shares the original's backing array")
	}
	if !p.Schedule[0].IsProcessed {
		t.Error("Recognize should record the period in the schedule")
	}
}

func TestExpenseAmortization_MarkProcessedTwice(t *testing.T) {
	journalID := "je-1"
	a := &ExpenseAmortization{Amount: decimal.NewFromInt(10)}

	if err := a.MarkProcessed(&journalID, date(2024, 1, 31)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.JournalEntryID == nil || *a.JournalEntryID != journalID {
		t.Error("journal entry not linked")
	}

	err := a.MarkProcessed(nil, date(2024, 2, 1))
	if !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}
	if !IsConflict(err) {
		t.Error("already processed should be a conflict")
	}
	if *a.JournalEntryID != journalID {
		t.Error("second call changed the period")
	}
}

func TestPrepaidExpense_ScheduleView(t *testing.T) {
	p, _ := NewPrepaidExpense("Rent", decimal.NewFromInt(300), date(2024, 1, 1), date(2024, 3, 1))
	rows := p.ScheduleView()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if !rows[1].CumulativeRecognized.Equal(decimal.NewFromInt(200)) || !rows[1].RemainingBalance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("row 2 = %s/%s", rows[1].CumulativeRecognized, rows[1].RemainingBalance)
	}
	if !rows[2].RemainingBalance.IsZero() {
		t.Errorf("last row remaining = %s", rows[2].RemainingBalance)
	}
}
