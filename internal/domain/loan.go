package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// InterestType selects how total interest is quoted.
type InterestType string

const (
	InterestSimple   InterestType = "SIMPLE"
	InterestCompound InterestType = "COMPOUND"
)

// IsValid checks if the interest type is known.
func (t InterestType) IsValid() bool {
	return t == InterestSimple || t == InterestCompound
}

// PaymentFrequency is how often loan instalments fall due.
type PaymentFrequency string

const (
	FrequencyMonthly      PaymentFrequency = "MONTHLY"
	FrequencyQuarterly    PaymentFrequency = "QUARTERLY"
	FrequencySemiAnnually PaymentFrequency = "SEMI_ANNUALLY"
	FrequencyAnnually     PaymentFrequency = "ANNUALLY"
)

// MonthsPerPayment returns the number of months between instalments, or 0
// for an unknown frequency.
func (f PaymentFrequency) MonthsPerPayment() int {
	switch f {
	case FrequencyMonthly:
		return 1
	case FrequencyQuarterly:
		return 3
	case FrequencySemiAnnually:
		return 6
	case FrequencyAnnually:
		return 12
	}
	return 0
}

var twelve = decimal.NewFromInt(12)

// Loan is a borrowing with a level-payment amortization schedule.
// InterestRate is the annual rate as a fraction (0.12 = 12%).
type Loan struct {
	ID                string
	TenantID          string
	Name              string
	LenderName        string
	ReferenceNumber   string
	PrincipalAmount   decimal.Decimal
	InterestRate      decimal.Decimal
	InterestType      InterestType
	StartDate         time.Time
	EndDate           time.Time
	TermMonths        int
	PaymentFrequency  PaymentFrequency
	MonthlyPayment    decimal.Decimal
	TotalInterest     decimal.Decimal
	TotalPaid         decimal.Decimal
	PrincipalPaid     decimal.Decimal
	InterestPaid      decimal.Decimal
	RemainingBalance  decimal.Decimal
	LoanAccountID     *string
	InterestAccountID *string
	IsActive          bool
	Notes             string
	Schedule          []LoanScheduleEntry
	Payments          []LoanPayment
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Clone copies the loan with its own schedule and payment slices.
func (l *Loan) Clone() Loan {
	c := *l
	c.Schedule = append([]LoanScheduleEntry(nil), l.Schedule...)
	c.Payments = append([]LoanPayment(nil), l.Payments...)
	return c
}

// LoanScheduleEntry is one instalment. PaidAmount carries partial payments
// until TotalDue is covered.
type LoanScheduleEntry struct {
	ID           string
	LoanID       string
	PeriodNumber int
	DueDate      time.Time
	PrincipalDue decimal.Decimal
	InterestDue  decimal.Decimal
	TotalDue     decimal.Decimal
	BalanceAfter decimal.Decimal
	PaidAmount   decimal.Decimal
	IsPaid       bool
	PaidAt       *time.Time
}

// Outstanding is the part of the instalment not yet covered.
func (e *LoanScheduleEntry) Outstanding() decimal.Decimal {
	return e.TotalDue.Sub(e.PaidAmount)
}

// LoanPayment records money paid against a loan.
type LoanPayment struct {
	ID             string
	LoanID         string
	PaymentNumber  int
	PaymentDate    time.Time
	PrincipalPart  decimal.Decimal
	InterestPart   decimal.Decimal
	TotalPayment   decimal.Decimal
	BalanceAfter   decimal.Decimal
	JournalEntryID *string
	Notes          string
	CreatedAt      time.Time
}

// UpcomingLoanPayment is an unpaid instalment due within a horizon.
type UpcomingLoanPayment struct {
	Entry      LoanScheduleEntry
	LoanName   string
	LenderName string
}

// InterestAccrualLine is one loan's monthly interest on its current balance.
type InterestAccrualLine struct {
	LoanID          string
	LoanName        string
	LenderName      string
	Balance         decimal.Decimal
	MonthlyInterest decimal.Decimal
}

// InterestAccrual summarises month-end interest across active loans.
type InterestAccrual struct {
	AsOf         time.Time
	TotalAccrual decimal.Decimal
	Details      []InterestAccrualLine
}

// MonthlyPayment computes the level payment P*r(1+r)^n / ((1+r)^n - 1) with
// r = annualRate/12, or P/n without interest.
func MonthlyPayment(principal, annualRate decimal.Decimal, termMonths int) decimal.Decimal {
	n := decimal.NewFromInt(int64(termMonths))
	if annualRate.IsZero() {
		return Round2(principal.Div(n))
	}

	r := annualRate.Div(twelve)
	factor := decimal.NewFromInt(1).Add(r).Pow(n)
	payment := principal.Mul(r.Mul(factor)).Div(factor.Sub(decimal.NewFromInt(1)))
	return Round2(payment)
}

// TotalInterest quotes interest over the term: P*rate*years for SIMPLE,
// payments minus principal for COMPOUND.
func TotalInterest(principal, annualRate decimal.Decimal, termMonths int, interestType InterestType) decimal.Decimal {
	if interestType == InterestSimple {
		years := decimal.NewFromInt(int64(termMonths)).Div(twelve)
		return Round2(principal.Mul(annualRate).Mul(years))
	}
	payment := MonthlyPayment(principal, annualRate, termMonths)
	return Round2(payment.Mul(decimal.NewFromInt(int64(termMonths))).Sub(principal))
}

// GenerateLoanSchedule builds the instalments. Each period accrues
// balance*r*monthsPerPayment; the final instalment clears the balance.
func GenerateLoanSchedule(principal, annualRate decimal.Decimal, termMonths int, start time.Time, frequency PaymentFrequency) []LoanScheduleEntry {
	monthsPer := frequency.MonthsPerPayment()
	if monthsPer == 0 || termMonths < 1 {
		return nil
	}

	numPayments := (termMonths + monthsPer - 1) / monthsPer
	r := annualRate.Div(twelve)
	mp := decimal.NewFromInt(int64(monthsPer))
	paymentAmount := MonthlyPayment(principal, annualRate, termMonths).Mul(mp)

	schedule := make([]LoanScheduleEntry, 0, numPayments)
	balance := principal
	for i := 0; i < numPayments; i++ {
		interest := Round2(balance.Mul(r).Mul(mp))

		var principalPart, total decimal.Decimal
		if i == numPayments-1 {
			principalPart = balance
			total = balance.Add(interest)
		} else {
			principalPart = decimal.Min(paymentAmount.Sub(interest), balance)
			if principalPart.IsNegative() {
				principalPart = decimal.Zero
			}
			total = principalPart.Add(interest)
		}
		balance = balance.Sub(principalPart)

		schedule = append(schedule, LoanScheduleEntry{
			PeriodNumber: i + 1,
			DueDate:      AddMonths(start, monthsPer*(i+1)),
			PrincipalDue: principalPart,
			InterestDue:  interest,
			TotalDue:     total,
			BalanceAfter: balance,
			PaidAmount:   decimal.Zero,
		})
	}
	return schedule
}

// NewLoan validates terms and derives payment, interest, end date and schedule.
func NewLoan(name string, principal, annualRate decimal.Decimal, interestType InterestType,
	start time.Time, termMonths int, frequency PaymentFrequency,
) (*Loan, error) {
	if name == "" {
		return nil, ErrDescriptionRequired
	}
	if err := ValidateAmount(principal); err != nil {
		return nil, err
	}
	if annualRate.IsNegative() {
		return nil, ErrInvalidInterestRate
	}
	if termMonths < 1 {
		return nil, ErrInvalidLoanTerm
	}
	if interestType == "" {
		interestType = InterestCompound
	}
	if !interestType.IsValid() {
		return nil, ErrInvalidInterestType
	}
	if frequency == "" {
		frequency = FrequencyMonthly
	}
	if frequency.MonthsPerPayment() == 0 {
		return nil, ErrInvalidPaymentFrequency
	}

	return &Loan{
		Name:             name,
		PrincipalAmount:  principal,
		InterestRate:     annualRate,
		InterestType:     interestType,
		StartDate:        start,
		EndDate:          AddMonths(start, termMonths),
		TermMonths:       termMonths,
		PaymentFrequency: frequency,
		MonthlyPayment:   MonthlyPayment(principal, annualRate, termMonths),
		TotalInterest:    TotalInterest(principal, annualRate, termMonths, interestType),
		TotalPaid:        decimal.Zero,
		PrincipalPaid:    decimal.Zero,
		InterestPaid:     decimal.Zero,
		RemainingBalance: principal,
		IsActive:         true,
		Schedule:         GenerateLoanSchedule(principal, annualRate, termMonths, start, frequency),
	}, nil
}

// MonthlyInterest is one month of interest on the remaining balance.
func (l *Loan) MonthlyInterest() decimal.Decimal {
	return Round2(l.RemainingBalance.Mul(l.InterestRate.Div(twelve)))
}

// ApplyPayment splits amount into interest (one month on the remaining
// balance, paid first) and principal, then credits unpaid instalments in
// order. An instalment is marked paid once its TotalDue is covered; a
// remainder smaller than the next instalment is held in its PaidAmount.
// Payments larger than balance plus interest are rejected.
// Returns the payment and the schedule entries it touched.
func (l *Loan) ApplyPayment(date time.Time, amount decimal.Decimal, journalEntryID *string, notes string) (*LoanPayment, []*LoanScheduleEntry, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, nil, err
	}
	if !l.RemainingBalance.IsPositive() {
		return nil, nil, ErrLoanPaidOff
	}

	interestDue := l.MonthlyInterest()
	if amount.GreaterThan(l.RemainingBalance.Add(interestDue)) {
		return nil, nil, ErrPaymentExceedsBalance
	}

	interestPart := decimal.Min(interestDue, amount)
	principalPart := amount.Sub(interestPart)
	newBalance := l.RemainingBalance.Sub(principalPart)

	payment := &LoanPayment{
		LoanID:         l.ID,
		PaymentNumber:  len(l.Payments) + 1,
		PaymentDate:    date,
		PrincipalPart:  principalPart,
		InterestPart:   interestPart,
		TotalPayment:   amount,
		BalanceAfter:   newBalance,
		JournalEntryID: journalEntryID,
		Notes:          notes,
	}

	var touched []*LoanScheduleEntry
	credit := amount
	for i := range l.Schedule {
		entry := &l.Schedule[i]
		if entry.IsPaid {
			continue
		}
		if newBalance.IsZero() {
			entry.PaidAmount = entry.TotalDue
			entry.IsPaid = true
			entry.PaidAt = &date
			touched = append(touched, entry)
			continue
		}
		if !credit.IsPositive() {
			break
		}

		need := entry.Outstanding()
		if credit.GreaterThanOrEqual(need) {
			entry.PaidAmount = entry.TotalDue
			entry.IsPaid = true
			entry.PaidAt = &date
			credit = credit.Sub(need)
		} else {
			entry.PaidAmount = entry.PaidAmount.Add(credit)
			credit = decimal.Zero
		}
		touched = append(touched, entry)
	}

	l.TotalPaid = l.TotalPaid.Add(amount)
	l.PrincipalPaid = l.PrincipalPaid.Add(principalPart)
	l.InterestPaid = l.InterestPaid.Add(interestPart)
	l.RemainingBalance = newBalance
	l.IsActive = newBalance.IsPositive()
	l.Payments = append(l.Payments, *payment)

	return payment, touched, nil
}

// BuildInterestAccrual sums one month of interest over the active loans that
// still carry a balance.
func BuildInterestAccrual(asOf time.Time, loans []*Loan) *InterestAccrual {
	accrual := &InterestAccrual{AsOf: asOf, TotalAccrual: decimal.Zero}
	for _, l := range loans {
		if !l.IsActive || !l.RemainingBalance.IsPositive() {
			continue
		}
		interest := l.MonthlyInterest()
		accrual.Details = append(accrual.Details, InterestAccrualLine{
			LoanID:          l.ID,
			LoanName:        l.Name,
			LenderName:      l.LenderName,
			Balance:         l.RemainingBalance,
			MonthlyInterest: interest,
		})
		accrual.TotalAccrual = accrual.TotalAccrual.Add(interest)
	}
	return accrual
}
