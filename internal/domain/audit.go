package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	TenantID     string
	Action       string // What action (journal.create, loan.payment, etc.)
	ResourceType string // Type of resource (journal_entry, loan, payment)
	ResourceID   string // ID of the resource
	RequestID    string // Request ID for tracing
	BeforeState  JSON   // State before the action
	AfterState   JSON   // State after the action
	Status       string // success, failure, error
	ErrorMessage string // If status=error, the error message
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	// Account actions
	AuditActionAccountCreate     AuditAction = "account.create"
	AuditActionAccountDeactivate AuditAction = "account.deactivate"

	// Journal actions
	AuditActionJournalCreate  AuditAction = "journal.create"
	AuditActionJournalReverse AuditAction = "journal.reverse"

	// Amortization actions
	AuditActionPrepaidCreate       AuditAction = "prepaid.create"
	AuditActionAmortizationProcess AuditAction = "amortization.process"

	// Loan actions
	AuditActionLoanCreate  AuditAction = "loan.create"
	AuditActionLoanPayment AuditAction = "loan.payment"

	// Receivable actions
	AuditActionInvoiceCreate    AuditAction = "invoice.create"
	AuditActionPaymentCreate    AuditAction = "payment.create"
	AuditActionPaymentAutoMatch AuditAction = "payment.auto_match"

	// Return actions
	AuditActionReturnCreate AuditAction = "return.create"

	// Posting actions
	AuditActionDocumentPost     AuditAction = "document.post"
	AuditActionDepreciationPost AuditAction = "depreciation.post"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// NewAuditLog records a successful action on a resource.
func NewAuditLog(tenantID string, action AuditAction, resourceType, resourceID string, before, after any, at time.Time) *AuditLog {
	return &AuditLog{
		TenantID:     tenantID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  MarshalState(before),
		AfterState:   MarshalState(after),
		Status:       string(AuditStatusSuccess),
		CreatedAt:    at,
	}
}

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}
