package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Code          string  `json:"code"           validate:"required,max=20"`
	Name          string  `json:"name"           validate:"required,max=255"`
	Description   string  `json:"description"`
	Type          string  `json:"type"           validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	Category      string  `json:"category"`
	NormalBalance string  `json:"normal_balance" validate:"omitempty,oneof=DEBIT CREDIT"`
	ParentID      *string `json:"parent_id,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() usecase.CreateAccountInput {
	return usecase.CreateAccountInput{
		Code:          r.Code,
		Name:          r.Name,
		Description:   r.Description,
		Type:          domain.AccountType(r.Type),
		Category:      domain.AccountCategory(r.Category),
		NormalBalance: domain.NormalBalance(r.NormalBalance),
		ParentID:      r.ParentID,
	}
}

// JournalLineRequest is one line of a journal entry.
type JournalLineRequest struct {
	AccountID   string          `json:"account_id"  validate:"required"`
	Debit       decimal.Decimal `json:"debit"       validate:"gte=0"`
	Credit      decimal.Decimal `json:"credit"      validate:"gte=0"`
	Description string          `json:"description"`
}

// CreateJournalEntryRequest represents a request to post a journal entry.
type CreateJournalEntryRequest struct {
	EntryDate   *Date                `json:"entry_date,omitempty"`
	Description string               `json:"description" validate:"required"`
	SourceType  string               `json:"source_type" validate:"omitempty,oneof=MANUAL INVOICE BILL POS RETURN AMORTIZATION LOAN PAYMENT DEPRECIATION"`
	Reference   string               `json:"reference"`
	Lines       []JournalLineRequest `json:"lines"       validate:"required,min=2,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateJournalEntryRequest) ToUseCaseInput() usecase.CreateJournalEntryInput {
	lines := make([]usecase.JournalLineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.JournalLineInput{
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}
	return usecase.CreateJournalEntryInput{
		EntryDate:   r.EntryDate.TimeOrZero(),
		Description: r.Description,
		SourceType:  domain.SourceType(r.SourceType),
		Reference:   r.Reference,
		Lines:       lines,
	}
}

// CreatePrepaidExpenseRequest represents a request to register a prepaid expense.
type CreatePrepaidExpenseRequest struct {
	Description      string          `json:"description"  validate:"required"`
	VendorName       string          `json:"vendor_name"`
	ReferenceNumber  string          `json:"reference_number"`
	TotalAmount      decimal.Decimal `json:"total_amount" validate:"gt=0"`
	StartDate        Date            `json:"start_date"   validate:"required"`
	EndDate          Date            `json:"end_date"     validate:"required"`
	ExpenseAccountID *string         `json:"expense_account_id,omitempty"`
	AssetAccountID   *string         `json:"asset_account_id,omitempty"`
	Notes            string          `json:"notes"`
}

// ToUseCaseInput converts to use case input.
func (r *CreatePrepaidExpenseRequest) ToUseCaseInput() usecase.CreatePrepaidExpenseInput {
	return usecase.CreatePrepaidExpenseInput{
		Description:      r.Description,
		VendorName:       r.VendorName,
		ReferenceNumber:  r.ReferenceNumber,
		TotalAmount:      r.TotalAmount,
		StartDate:        r.StartDate.Time,
		EndDate:          r.EndDate.Time,
		ExpenseAccountID: r.ExpenseAccountID,
		AssetAccountID:   r.AssetAccountID,
		Notes:            r.Notes,
	}
}

// ProcessAmortizationRequest optionally links an existing journal entry.
type ProcessAmortizationRequest struct {
	JournalEntryID *string `json:"journal_entry_id,omitempty"`
}

// ProcessPendingRequest selects the cutoff date for batch processing.
type ProcessPendingRequest struct {
	AsOf *Date `json:"as_of,omitempty"`
}

// CreateLoanRequest represents a request to register a loan.
type CreateLoanRequest struct {
	Name              string          `json:"name"              validate:"required"`
	LenderName        string          `json:"lender_name"       validate:"required"`
	ReferenceNumber   string          `json:"reference_number"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"  validate:"gt=0"`
	InterestRate      decimal.Decimal `json:"interest_rate"     validate:"gte=0"`
	InterestType      string          `json:"interest_type"     validate:"omitempty,oneof=SIMPLE COMPOUND"`
	StartDate         Date            `json:"start_date"        validate:"required"`
	TermMonths        int             `json:"term_months"       validate:"gt=0"`
	PaymentFrequency  string          `json:"payment_frequency" validate:"omitempty,oneof=MONTHLY QUARTERLY SEMI_ANNUALLY ANNUALLY"`
	LoanAccountID     *string         `json:"loan_account_id,omitempty"`
	InterestAccountID *string         `json:"interest_account_id,omitempty"`
	Notes             string          `json:"notes"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateLoanRequest) ToUseCaseInput() usecase.CreateLoanInput {
	return usecase.CreateLoanInput{
		Name:              r.Name,
		LenderName:        r.LenderName,
		ReferenceNumber:   r.ReferenceNumber,
		PrincipalAmount:   r.PrincipalAmount,
		InterestRate:      r.InterestRate,
		InterestType:      domain.InterestType(r.InterestType),
		StartDate:         r.StartDate.Time,
		TermMonths:        r.TermMonths,
		PaymentFrequency:  domain.PaymentFrequency(r.PaymentFrequency),
		LoanAccountID:     r.LoanAccountID,
		InterestAccountID: r.InterestAccountID,
		Notes:             r.Notes,
	}
}

// RecordLoanPaymentRequest represents a payment against a loan.
type RecordLoanPaymentRequest struct {
	PaymentDate    *Date           `json:"payment_date,omitempty"`
	Amount         decimal.Decimal `json:"amount" validate:"gt=0"`
	JournalEntryID *string         `json:"journal_entry_id,omitempty"`
	Notes          string          `json:"notes"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordLoanPaymentRequest) ToUseCaseInput() usecase.RecordLoanPaymentInput {
	return usecase.RecordLoanPaymentInput{
		PaymentDate:    r.PaymentDate.TimeOrZero(),
		Amount:         r.Amount,
		JournalEntryID: r.JournalEntryID,
		Notes:          r.Notes,
	}
}

// CreateInvoiceRequest represents a receivable invoice.
type CreateInvoiceRequest struct {
	ClientID      string          `json:"client_id"    validate:"required"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     *Date           `json:"issue_date,omitempty"`
	DueDate       *Date           `json:"due_date,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount" validate:"gt=0"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateInvoiceRequest) ToUseCaseInput() usecase.CreateInvoiceInput {
	return usecase.CreateInvoiceInput{
		ClientID:      r.ClientID,
		InvoiceNumber: r.InvoiceNumber,
		IssueDate:     r.IssueDate.TimeOrZero(),
		DueDate:       r.DueDate.TimePtr(),
		TotalAmount:   r.TotalAmount,
	}
}

// RecordPaymentRequest represents an incoming client payment.
type RecordPaymentRequest struct {
	ClientID      string          `json:"client_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"    validate:"gt=0"`
	PaymentMethod string          `json:"payment_method"`
	PaymentDate   *Date           `json:"payment_date,omitempty"`
	Reference     string          `json:"reference"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordPaymentRequest) ToUseCaseInput() usecase.RecordPaymentInput {
	return usecase.RecordPaymentInput{
		ClientID:      r.ClientID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		PaymentDate:   r.PaymentDate.TimeOrZero(),
		Reference:     r.Reference,
	}
}

// ReturnItemRequest is one returned line.
type ReturnItemRequest struct {
	ProductID   string          `json:"product_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"   validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gt=0"`
	TaxRate     decimal.Decimal `json:"tax_rate"   validate:"gte=0"`
}

// CreateReturnRequest represents a sales or purchase return. The
// counterparty is the client for sales returns and the supplier for
// purchase returns.
type CreateReturnRequest struct {
	CounterpartyID   string              `json:"counterparty_id" validate:"required"`
	SourceDocumentID *string             `json:"source_document_id,omitempty"`
	ReturnDate       *Date               `json:"return_date,omitempty"`
	Reason           string              `json:"reason"`
	Items            []ReturnItemRequest `json:"items"           validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateReturnRequest) ToUseCaseInput() usecase.CreateReturnInput {
	items := make([]usecase.ReturnItemInput, len(r.Items))
	for i, it := range r.Items {
		items[i] = usecase.ReturnItemInput{
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		}
	}
	return usecase.CreateReturnInput{
		CounterpartyID:   r.CounterpartyID,
		SourceDocumentID: r.SourceDocumentID,
		ReturnDate:       r.ReturnDate.TimeOrZero(),
		Reason:           r.Reason,
		Items:            items,
	}
}

// PostInvoiceRequest carries the sales tax included in the invoice total.
type PostInvoiceRequest struct {
	Tax decimal.Decimal `json:"tax" validate:"gte=0"`
}

// DocumentItemRequest is one line of a bill or POS sale.
type DocumentItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"   validate:"gt=0"`
	UnitPrice   decimal.Decimal `json:"unit_price" validate:"gte=0"`
	UnitCost    decimal.Decimal `json:"unit_cost"  validate:"gte=0"`
	TaxRate     decimal.Decimal `json:"tax_rate"   validate:"gte=0"`
}

func documentItemsToInput(items []DocumentItemRequest) []usecase.DocumentItemInput {
	out := make([]usecase.DocumentItemInput, len(items))
	for i, it := range items {
		out[i] = usecase.DocumentItemInput{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
			TaxRate:     it.TaxRate,
		}
	}
	return out
}

// PostBillRequest represents a supplier bill to post.
type PostBillRequest struct {
	SupplierID string                `json:"supplier_id" validate:"required"`
	BillNumber string                `json:"bill_number" validate:"required,max=50"`
	BillDate   *Date                 `json:"bill_date,omitempty"`
	Items      []DocumentItemRequest `json:"items"       validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *PostBillRequest) ToUseCaseInput() usecase.PostBillInput {
	return usecase.PostBillInput{
		SupplierID: r.SupplierID,
		BillNumber: r.BillNumber,
		BillDate:   r.BillDate.TimeOrZero(),
		Items:      documentItemsToInput(r.Items),
	}
}

// PostPOSSaleRequest represents a point-of-sale sale to post.
type PostPOSSaleRequest struct {
	SaleNumber string                `json:"sale_number" validate:"required,max=50"`
	SaleDate   *Date                 `json:"sale_date,omitempty"`
	Items      []DocumentItemRequest `json:"items"       validate:"required,min=1,dive"`
}

// ToUseCaseInput converts to use case input.
func (r *PostPOSSaleRequest) ToUseCaseInput() usecase.PostPOSSaleInput {
	return usecase.PostPOSSaleInput{
		SaleNumber: r.SaleNumber,
		SaleDate:   r.SaleDate.TimeOrZero(),
		Items:      documentItemsToInput(r.Items),
	}
}

// DepreciationScheduleRequest describes a fixed asset to project.
type DepreciationScheduleRequest struct {
	Name                    string            `json:"name"`
	AcquisitionDate         *Date             `json:"acquisition_date,omitempty"`
	Cost                    decimal.Decimal   `json:"cost"                     validate:"gt=0"`
	ResidualValue           decimal.Decimal   `json:"residual_value"           validate:"gte=0"`
	Method                  string            `json:"method"                   validate:"required,oneof=STRAIGHT_LINE DECLINING_BALANCE UNITS_OF_PRODUCTION"`
	UsefulLifeYears         int               `json:"useful_life_years"        validate:"gte=0,lte=100"`
	UsefulLifeUnits         decimal.Decimal   `json:"useful_life_units"        validate:"gte=0"`
	DecliningRate           decimal.Decimal   `json:"declining_rate"           validate:"gte=0"`
	AccumulatedDepreciation decimal.Decimal   `json:"accumulated_depreciation" validate:"gte=0"`
	Periods                 int               `json:"periods"                  validate:"gte=0,lte=100"`
	Units                   []decimal.Decimal `json:"units,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *DepreciationScheduleRequest) ToUseCaseInput() usecase.DepreciationScheduleInput {
	return usecase.DepreciationScheduleInput{
		Asset: domain.FixedAsset{
			Name:                    r.Name,
			AcquisitionDate:         r.AcquisitionDate.TimeOrZero(),
			Cost:                    r.Cost,
			ResidualValue:           r.ResidualValue,
			Method:                  domain.DepreciationMethod(r.Method),
			UsefulLifeYears:         r.UsefulLifeYears,
			UsefulLifeUnits:         r.UsefulLifeUnits,
			DecliningRate:           r.DecliningRate,
			AccumulatedDepreciation: r.AccumulatedDepreciation,
		},
		Periods: r.Periods,
		Units:   r.Units,
	}
}

// PostDepreciationRequest is one period's depreciation charge.
type PostDepreciationRequest struct {
	AssetName      string          `json:"asset_name"      validate:"required,max=255"`
	AssetReference string          `json:"asset_reference" validate:"max=100"`
	Amount         decimal.Decimal `json:"amount"          validate:"gt=0"`
	EntryDate      *Date           `json:"entry_date,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *PostDepreciationRequest) ToUseCaseInput() usecase.PostDepreciationInput {
	return usecase.PostDepreciationInput{
		AssetName:      r.AssetName,
		AssetReference: r.AssetReference,
		Amount:         r.Amount,
		EntryDate:      r.EntryDate.TimeOrZero(),
	}
}
