package domain

import "time"

// Event types
const (
	EventTypeAccountCreated        = "account.created"
	EventTypeJournalPosted         = "journal.posted"
	EventTypeJournalReversed       = "journal.reversed"
	EventTypePrepaidCreated        = "prepaid.created"
	EventTypeAmortizationProcessed = "amortization.processed"
	EventTypeLoanCreated           = "loan.created"
	EventTypeLoanPaymentRecorded   = "loan.payment_recorded"
	EventTypePaymentMatched        = "payment.matched"
	EventTypeReturnCreated         = "return.created"
)

// Aggregate types
const (
	AggregateTypeAccount      = "account"
	AggregateTypeJournalEntry = "journal_entry"
	AggregateTypePrepaid      = "prepaid_expense"
	AggregateTypeLoan         = "loan"
	AggregateTypeInvoice      = "invoice"
	AggregateTypePayment      = "payment"
	AggregateTypeReturn       = "return"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	TenantID      string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// JournalPostedEvent payload
type JournalPostedEvent struct {
	JournalEntryID string `json:"journal_entry_id"`
	JournalNumber  string `json:"journal_number"`
	EntryDate      string `json:"entry_date"`
	SourceType     string `json:"source_type"`
	TotalDebit     string `json:"total_debit"`
	TotalCredit    string `json:"total_credit"`
	ReversalOfID   string `json:"reversal_of_id,omitempty"`
}

// JournalReversedEvent payload
type JournalReversedEvent struct {
	OriginalEntryID string `json:"original_entry_id"`
	ReversalEntryID string `json:"reversal_entry_id"`
	JournalNumber   string `json:"journal_number"`
}

// AmortizationProcessedEvent payload
type AmortizationProcessedEvent struct {
	AmortizationID   string `json:"amortization_id"`
	PrepaidExpenseID string `json:"prepaid_expense_id"`
	Amount           string `json:"amount"`
	RemainingAmount  string `json:"remaining_amount"`
}

// LoanPaymentRecordedEvent payload
type LoanPaymentRecordedEvent struct {
	LoanID        string `json:"loan_id"`
	PaymentNumber int    `json:"payment_number"`
	PrincipalPart string `json:"principal_part"`
	InterestPart  string `json:"interest_part"`
	BalanceAfter  string `json:"balance_after"`
}

// PaymentMatchedEvent payload
type PaymentMatchedEvent struct {
	PaymentID       string   `json:"payment_id"`
	InvoiceIDs      []string `json:"invoice_ids"`
	AppliedAmount   string   `json:"applied_amount"`
	UnappliedAmount string   `json:"unapplied_amount"`
}

// NewEvent builds an unpublished outbox event from a payload struct.
func NewEvent(tenantID, aggregateType, aggregateID, eventType string, payload any, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		TenantID:      tenantID,
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       MarshalState(payload),
		CreatedAt:     at,
	}
}
