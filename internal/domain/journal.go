package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// JournalStatus is the lifecycle state of a journal entry.
type JournalStatus string

const (
	JournalStatusPosted   JournalStatus = "POSTED"
	JournalStatusReversed JournalStatus = "REVERSED"
)

// SourceType records which business flow produced an entry.
type SourceType string

const (
	SourceManual       SourceType = "MANUAL"
	SourceInvoice      SourceType = "INVOICE"
	SourceBill         SourceType = "BILL"
	SourcePOS          SourceType = "POS"
	SourceReturn       SourceType = "RETURN"
	SourceAmortization SourceType = "AMORTIZATION"
	SourceLoan         SourceType = "LOAN"
	SourcePayment      SourceType = "PAYMENT"
	SourceDepreciation SourceType = "DEPRECIATION"
)

// IsValid checks if the source type is known.
func (s SourceType) IsValid() bool {
	switch s {
	case SourceManual, SourceInvoice, SourceBill, SourcePOS, SourceReturn, SourceAmortization, SourceLoan,
		SourcePayment, SourceDepreciation:
		return true
	}
	return false
}

// IsDocumentPosting reports whether entries of this source post a business
// document that may be in the ledger only once. The entry's Reference holds
// the document number.
func (s SourceType) IsDocumentPosting() bool {
	switch s {
	case SourceInvoice, SourcePayment, SourceBill, SourcePOS:
		return true
	}
	return false
}

// JournalNumberPrefix prefixes general journal numbers (JE-000001).
const JournalNumberPrefix = "JE"

// FormatDocumentNumber renders a tenant sequence value as PREFIX-NNNNNN.
func FormatDocumentNumber(prefix string, n int64) string {
	return fmt.Sprintf("%s-%06d", prefix, n)
}

// JournalEntry is a balanced set of lines posted to the general ledger.
type JournalEntry struct {
	ID            string
	TenantID      string
	JournalNumber string
	EntryDate     time.Time
	Description   string
	SourceType    SourceType
	Reference     string
	Status        JournalStatus
	TotalDebit    decimal.Decimal
	TotalCredit   decimal.Decimal
	ReversalOfID  *string
	ReversedByID  *string
	ReversedAt    *time.Time
	Lines         []JournalLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// JournalLine is one debit and/or credit against an account.
type JournalLine struct {
	ID             string
	JournalEntryID string
	LineNumber     int
	AccountID      string
	Debit          decimal.Decimal
	Credit         decimal.Decimal
	Description    string
}

// SumLines returns the debit and credit totals.
func SumLines(lines []JournalLine) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// ValidateLines checks line shape and the debit=credit invariant.
// Imbalance returns *UnbalancedEntryError.
func ValidateLines(lines []JournalLine) error {
	if len(lines) < 2 {
		return ErrTooFewLines
	}

	for i, l := range lines {
		if strings.TrimSpace(l.AccountID) == "" {
			return fmt.Errorf("%w: line %d has no account", ErrInvalidJournalLine, i+1)
		}
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return fmt.Errorf("%w: line %d has a negative amount", ErrInvalidJournalLine, i+1)
		}
		if l.Debit.IsZero() && l.Credit.IsZero() {
			return fmt.Errorf("%w: line %d has neither debit nor credit", ErrInvalidJournalLine, i+1)
		}
	}

	debit, credit := SumLines(lines)
	if !WithinTolerance(debit, credit) {
		return &UnbalancedEntryError{TotalDebit: debit, TotalCredit: credit}
	}
	return nil
}

// IsBalanced reports whether the stored totals agree within Tolerance.
func (e *JournalEntry) IsBalanced() bool {
	return WithinTolerance(e.TotalDebit, e.TotalCredit)
}

// CanReverse reports whether the entry may still be reversed.
func (e *JournalEntry) CanReverse() error {
	if e.Status == JournalStatusReversed {
		return fmt.Errorf("%w: %s", ErrAlreadyReversed, e.JournalNumber)
	}
	return nil
}

// ReversalLines returns copies of the lines with debit and credit swapped.
func (e *JournalEntry) ReversalLines() []JournalLine {
	lines := make([]JournalLine, 0, len(e.Lines))
	for _, l := range e.Lines {
		lines = append(lines, JournalLine{
			AccountID:   l.AccountID,
			Debit:       l.Credit,
			Credit:      l.Debit,
			Description: l.Description,
		})
	}
	return lines
}

// ReversalDescription is the description given to the counter-entry.
func (e *JournalEntry) ReversalDescription() string {
	return fmt.Sprintf("Reversal of %s: %s", e.JournalNumber, e.Description)
}

// JournalFilter narrows journal listings. Zero values disable a criterion.
type JournalFilter struct {
	From       *time.Time
	To         *time.Time
	Status     JournalStatus
	SourceType SourceType
	Limit      int
	Offset     int
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
