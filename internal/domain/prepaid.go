package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PrepaidExpense is a cost paid up front and recognised monthly.
type PrepaidExpense struct {
	ID               string
	TenantID         string
	Description      string
	VendorName       string
	ReferenceNumber  string
	TotalAmount      decimal.Decimal
	StartDate        time.Time
	EndDate          time.Time
	PeriodMonths     int
	MonthlyAmount    decimal.Decimal
	RecognizedAmount decimal.Decimal
	RemainingAmount  decimal.Decimal
	ExpenseAccountID *string
	AssetAccountID   *string
	LastRecognizedAt *time.Time
	IsActive         bool
	Notes            string
	Schedule         []ExpenseAmortization
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ExpenseAmortization is one recognition period of a prepaid expense.
type ExpenseAmortization struct {
	ID               string
	PrepaidExpenseID string
	PeriodNumber     int
	PeriodDate       time.Time
	Amount           decimal.Decimal
	IsProcessed      bool
	ProcessedAt      *time.Time
	JournalEntryID   *string
}

// PendingAmortization is an unprocessed period with its parent's description.
type PendingAmortization struct {
	Amortization ExpenseAmortization
	Description  string
}

// AmortizationResult is reported for every processed period.
type AmortizationResult struct {
	AmortizationID   string
	PrepaidExpenseID string
	Description      string
	Amount           decimal.Decimal
}

// MonthsBetween counts calendar months from start to end inclusive, at least 1.
func MonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	if months < 1 {
		return 1
	}
	return months
}

// AddMonths moves t forward n calendar months, clamping to the last day of
// the target month (Jan 31 + 1 month = Feb 28).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return first.AddDate(0, 0, d-1)
}

// BuildAmortizationSchedule splits total over months equal periods starting at
// start. Every period carries round2(total/months) except the last, which
// absorbs the rounding remainder so the periods sum to total exactly. When
// rounding up overshoots (10.00 over 60 months is 0.17 a month) the last
// period is negative and reverses the excess.
func BuildAmortizationSchedule(total decimal.Decimal, start time.Time, months int) (decimal.Decimal, []ExpenseAmortization) {
	if months < 1 {
		months = 1
	}

	monthly := Round2(total.Div(decimal.NewFromInt(int64(months))))
	last := total.Sub(monthly.Mul(decimal.NewFromInt(int64(months - 1))))

	schedule := make([]ExpenseAmortization, 0, months)
	for i := 0; i < months; i++ {
		amount := monthly
		if i == months-1 {
			amount = last
		}
		schedule = append(schedule, ExpenseAmortization{
			PeriodNumber: i + 1,
			PeriodDate:   AddMonths(start, i),
			Amount:       amount,
		})
	}
	return monthly, schedule
}

// NewPrepaidExpense derives period count, monthly amount and schedule.
// IDs are left for the caller to assign.
func NewPrepaidExpense(description string, total decimal.Decimal, start, end time.Time) (*PrepaidExpense, error) {
	if description == "" {
		return nil, ErrDescriptionRequired
	}
	if err := ValidateAmount(total); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	months := MonthsBetween(start, end)
	monthly, schedule := BuildAmortizationSchedule(total, start, months)

	return &PrepaidExpense{
		Description:      description,
		TotalAmount:      total,
		StartDate:        start,
		EndDate:          end,
		PeriodMonths:     months,
		MonthlyAmount:    monthly,
		RecognizedAmount: decimal.Zero,
		RemainingAmount:  total,
		IsActive:         true,
		Schedule:         schedule,
	}, nil
}

// Recognize books a processed period against the running totals and records
// it in the loaded schedule. The expense deactivates once every period is
// processed, not when RemainingAmount first reaches zero.
func (p *PrepaidExpense) Recognize(period ExpenseAmortization, at time.Time) {
	p.RecognizedAmount = p.RecognizedAmount.Add(period.Amount)
	p.RemainingAmount = p.RemainingAmount.Sub(period.Amount)
	p.LastRecognizedAt = &at
	p.UpdatedAt = at

	for i := range p.Schedule {
		if p.Schedule[i].PeriodNumber == period.PeriodNumber {
			p.Schedule[i] = period
		}
	}
	if p.fullyProcessed() {
		p.IsActive = false
	}
}

func (p *PrepaidExpense) fullyProcessed() bool {
	if len(p.Schedule) == 0 {
		return p.RemainingAmount.IsZero()
	}
	for _, a := range p.Schedule {
		if !a.IsProcessed {
			return false
		}
	}
	return true
}

// Clone copies the expense with its own schedule slice.
func (p *PrepaidExpense) Clone() PrepaidExpense {
	c := *p
	c.Schedule = append([]ExpenseAmortization(nil), p.Schedule...)
	return c
}

// MarkProcessed flags the period processed, linking an optional journal entry.
func (a *ExpenseAmortization) MarkProcessed(journalEntryID *string, at time.Time) error {
	if a.IsProcessed {
		return ErrAlreadyProcessed
	}
	a.IsProcessed = true
	a.ProcessedAt = &at
	a.JournalEntryID = journalEntryID
	return nil
}

// ScheduleRow is a period with cumulative recognition for display.
type ScheduleRow struct {
	ExpenseAmortization
	CumulativeRecognized decimal.Decimal
	RemainingBalance     decimal.Decimal
}

// ScheduleView adds running totals to the ordered schedule.
func (p *PrepaidExpense) ScheduleView() []ScheduleRow {
	rows := make([]ScheduleRow, 0, len(p.Schedule))
	cumulative := decimal.Zero
	for _, a := range p.Schedule {
		cumulative = cumulative.Add(a.Amount)
		rows = append(rows, ScheduleRow{
			ExpenseAmortization:  a,
			CumulativeRecognized: cumulative,
			RemainingBalance:     p.TotalAmount.Sub(cumulative),
		})
	}
	return rows
}
