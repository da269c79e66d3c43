package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrDuplicateAccountCode = errors.New("account code already exists")
	ErrInvalidAccountType   = errors.New("invalid account type")
	ErrInvalidNormalBalance = errors.New("invalid normal balance side")
	ErrInvalidCategory      = errors.New("invalid account category")
	ErrInvalidParentAccount = errors.New("invalid parent account")

	// Journal errors
	ErrJournalEntryNotFound = errors.New("journal entry not found")
	ErrUnbalancedEntry      = errors.New("journal entry is not balanced")
	ErrAlreadyReversed      = errors.New("journal entry already reversed")
	ErrInvalidJournalLine   = errors.New("invalid journal line")
	ErrTooFewLines          = errors.New("journal entry needs at least two lines")
	ErrDescriptionRequired  = errors.New("description is required")
	ErrInvalidSourceType    = errors.New("invalid journal source type")
	ErrSequenceConflict     = errors.New("document number already taken")
	ErrAlreadyPosted        = errors.New("document already posted to the ledger")

	// Amortization errors
	ErrPrepaidExpenseNotFound = errors.New("prepaid expense not found")
	ErrAmortizationNotFound   = errors.New("amortization entry not found")
	ErrAlreadyProcessed       = errors.New("amortization entry already processed")
	ErrInvalidDateRange       = errors.New("end date is before start date")

	// Loan errors
	ErrLoanNotFound            = errors.New("loan not found")
	ErrLoanPaidOff             = errors.New("loan already fully paid")
	ErrPaymentExceedsBalance   = errors.New("payment exceeds outstanding loan balance")
	ErrInvalidLoanTerm         = errors.New("loan term must be positive")
	ErrInvalidInterestRate     = errors.New("interest rate must not be negative")
	ErrInvalidInterestType     = errors.New("invalid interest type")
	ErrInvalidPaymentFrequency = errors.New("invalid payment frequency")

	// Receivables errors
	ErrPaymentNotFound = errors.New("payment not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrClientRequired  = errors.New("client is required")

	// Return errors
	ErrReturnNotFound        = errors.New("return not found")
	ErrInvalidReturnItems    = errors.New("return needs at least one item with positive quantity and price")
	ErrPostingAccountMissing = errors.New("posting account is not configured")

	// Document posting errors
	ErrDocumentNumberRequired = errors.New("document number is required")
	ErrInvalidDocumentItems   = errors.New("document needs at least one item with positive quantity")

	// Depreciation errors
	ErrInvalidDepreciationMethod = errors.New("invalid depreciation method")
	ErrInvalidDepreciationRate   = errors.New("declining balance rate must be between 0 and 1")
	ErrUsefulLifeRequired        = errors.New("useful life is required for this depreciation method")
	ErrUnitsRequired             = errors.New("units produced are required for units-of-production depreciation")
	ErrInvalidResidualValue      = errors.New("residual value must be between zero and cost")
	ErrAssetNameRequired         = errors.New("asset name is required")

	// Shared
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrTenantRequired = errors.New("tenant is required")
)

// UnbalancedEntryError reports the totals of a rejected journal entry.
type UnbalancedEntryError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("%s: debits sum is %s and credits sum is %s",
		ErrUnbalancedEntry, e.TotalDebit.StringFixed(2), e.TotalCredit.StringFixed(2))
}

func (e *UnbalancedEntryError) Unwrap() error {
	return ErrUnbalancedEntry
}

var notFoundErrors = []error{
	ErrAccountNotFound,
	ErrJournalEntryNotFound,
	ErrPrepaidExpenseNotFound,
	ErrAmortizationNotFound,
	ErrLoanNotFound,
	ErrPaymentNotFound,
	ErrInvoiceNotFound,
	ErrReturnNotFound,
}

var conflictErrors = []error{
	ErrAlreadyReversed,
	ErrAlreadyProcessed,
	ErrDuplicateAccountCode,
	ErrSequenceConflict,
	ErrLoanPaidOff,
	ErrAlreadyPosted,
}

var validationErrors = []error{
	ErrAccountInactive,
	ErrInvalidAccountType,
	ErrInvalidNormalBalance,
	ErrInvalidCategory,
	ErrInvalidParentAccount,
	ErrUnbalancedEntry,
	ErrInvalidJournalLine,
	ErrTooFewLines,
	ErrDescriptionRequired,
	ErrInvalidSourceType,
	ErrInvalidDateRange,
	ErrPaymentExceedsBalance,
	ErrInvalidLoanTerm,
	ErrInvalidInterestRate,
	ErrInvalidInterestType,
	ErrInvalidPaymentFrequency,
	ErrClientRequired,
	ErrInvalidReturnItems,
	ErrPostingAccountMissing,
	ErrDocumentNumberRequired,
	ErrInvalidDocumentItems,
	ErrInvalidDepreciationMethod,
	ErrInvalidDepreciationRate,
	ErrUsefulLifeRequired,
	ErrUnitsRequired,
	ErrInvalidResidualValue,
	ErrAssetNameRequired,
	ErrInvalidAmount,
	ErrTenantRequired,
	ErrInvalidAccountCode,
	ErrInvalidAccountName,
	ErrAmountTooLarge,
	ErrAmountTooSmall,
}

// IsNotFound reports whether err refers to a missing or foreign record.
func IsNotFound(err error) bool {
	return matchesAny(err, notFoundErrors)
}

// IsConflict reports whether err is a state conflict such as a repeated reversal.
func IsConflict(err error) bool {
	return matchesAny(err, conflictErrors)
}

// IsValidation reports whether err was raised before any write happened.
func IsValidation(err error) bool {
	return matchesAny(err, validationErrors)
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
