package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Type          string          `json:"type"`
	Category      string          `json:"category,omitempty"`
	NormalBalance string          `json:"normal_balance"`
	Balance       decimal.Decimal `json:"balance"`
	ParentID      *string         `json:"parent_id,omitempty"`
	IsActive      bool            `json:"is_active"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:            a.ID,
		Code:          a.Code,
		Name:          a.Name,
		Description:   a.Description,
		Type:          string(a.Type),
		Category:      string(a.Category),
		NormalBalance: string(a.NormalBalance),
		Balance:       a.Balance,
		ParentID:      a.ParentID,
		IsActive:      a.IsActive,
		Version:       a.Version,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// AccountNodeResponse is one node of the account tree.
type AccountNodeResponse struct {
	Account       *AccountResponse       `json:"account"`
	RolledBalance decimal.Decimal        `json:"rolled_balance"`
	Children      []*AccountNodeResponse `json:"children,omitempty"`
}

// AccountTreeFromDomain converts the account tree.
func AccountTreeFromDomain(nodes []*domain.AccountNode) []*AccountNodeResponse {
	result := make([]*AccountNodeResponse, len(nodes))
	for i, n := range nodes {
		result[i] = &AccountNodeResponse{
			Account:       AccountFromDomain(n.Account),
			RolledBalance: n.RolledBalance,
			Children:      AccountTreeFromDomain(n.Children),
		}
	}
	return result
}

// SeedChartResponse reports the outcome of seeding the standard chart.
type SeedChartResponse struct {
	Created []*AccountResponse `json:"created"`
	Skipped []string           `json:"skipped"`
}

// SeedChartFromUseCase converts a seed result.
func SeedChartFromUseCase(r *usecase.SeedResult) *SeedChartResponse {
	skipped := r.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return &SeedChartResponse{
		Created: AccountsFromDomain(r.Created),
		Skipped: skipped,
	}
}

// JournalLineResponse represents a journal line.
type JournalLineResponse struct {
	ID          string          `json:"id"`
	LineNumber  int             `json:"line_number"`
	AccountID   string          `json:"account_id"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Description string          `json:"description,omitempty"`
}

// JournalEntryResponse represents a journal entry.
type JournalEntryResponse struct {
	ID            string                `json:"id"`
	JournalNumber string                `json:"journal_number"`
	EntryDate     Date                  `json:"entry_date"`
	Description   string                `json:"description"`
	SourceType    string                `json:"source_type"`
	Reference     string                `json:"reference,omitempty"`
	Status        string                `json:"status"`
	TotalDebit    decimal.Decimal       `json:"total_debit"`
	TotalCredit   decimal.Decimal       `json:"total_credit"`
	ReversalOfID  *string               `json:"reversal_of_id,omitempty"`
	ReversedByID  *string               `json:"reversed_by_id,omitempty"`
	ReversedAt    *time.Time            `json:"reversed_at,omitempty"`
	Lines         []JournalLineResponse `json:"lines"`
	CreatedAt     time.Time             `json:"created_at"`
}

// JournalEntryFromDomain converts a journal entry.
func JournalEntryFromDomain(e *domain.JournalEntry) *JournalEntryResponse {
	lines := make([]JournalLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = JournalLineResponse{
			ID:          l.ID,
			LineNumber:  l.LineNumber,
			AccountID:   l.AccountID,
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		}
	}
	return &JournalEntryResponse{
		ID:            e.ID,
		JournalNumber: e.JournalNumber,
		EntryDate:     NewDate(e.EntryDate),
		Description:   e.Description,
		SourceType:    string(e.SourceType),
		Reference:     e.Reference,
		Status:        string(e.Status),
		TotalDebit:    e.TotalDebit,
		TotalCredit:   e.TotalCredit,
		ReversalOfID:  e.ReversalOfID,
		ReversedByID:  e.ReversedByID,
		ReversedAt:    e.ReversedAt,
		Lines:         lines,
		CreatedAt:     e.CreatedAt,
	}
}

// JournalEntriesFromDomain converts journal entries.
func JournalEntriesFromDomain(entries []*domain.JournalEntry) []*JournalEntryResponse {
	result := make([]*JournalEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = JournalEntryFromDomain(e)
	}
	return result
}

// AmortizationResponse is one period of a prepaid schedule.
type AmortizationResponse struct {
	ID               string          `json:"id"`
	PrepaidExpenseID string          `json:"prepaid_expense_id"`
	PeriodNumber     int             `json:"period_number"`
	PeriodDate       Date            `json:"period_date"`
	Amount           decimal.Decimal `json:"amount"`
	IsProcessed      bool            `json:"is_processed"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty"`
	JournalEntryID   *string         `json:"journal_entry_id,omitempty"`
}

func amortizationFromDomain(a domain.ExpenseAmortization) AmortizationResponse {
	return AmortizationResponse{
		ID:               a.ID,
		PrepaidExpenseID: a.PrepaidExpenseID,
		PeriodNumber:     a.PeriodNumber,
		PeriodDate:       NewDate(a.PeriodDate),
		Amount:           a.Amount,
		IsProcessed:      a.IsProcessed,
		ProcessedAt:      a.ProcessedAt,
		JournalEntryID:   a.JournalEntryID,
	}
}

// PrepaidExpenseResponse represents a prepaid expense.
type PrepaidExpenseResponse struct {
	ID               string                 `json:"id"`
	Description      string                 `json:"description"`
	VendorName       string                 `json:"vendor_name,omitempty"`
	ReferenceNumber  string                 `json:"reference_number,omitempty"`
	TotalAmount      decimal.Decimal        `json:"total_amount"`
	StartDate        Date                   `json:"start_date"`
	EndDate          Date                   `json:"end_date"`
	PeriodMonths     int                    `json:"period_months"`
	MonthlyAmount    decimal.Decimal        `json:"monthly_amount"`
	RecognizedAmount decimal.Decimal        `json:"recognized_amount"`
	RemainingAmount  decimal.Decimal        `json:"remaining_amount"`
	ExpenseAccountID *string                `json:"expense_account_id,omitempty"`
	AssetAccountID   *string                `json:"asset_account_id,omitempty"`
	LastRecognizedAt *Date                  `json:"last_recognized_at,omitempty"`
	IsActive         bool                   `json:"is_active"`
	Notes            string                 `json:"notes,omitempty"`
	Schedule         []AmortizationResponse `json:"schedule,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
}

// PrepaidExpenseFromDomain converts a prepaid expense.
func PrepaidExpenseFromDomain(p *domain.PrepaidExpense) *PrepaidExpenseResponse {
	var schedule []AmortizationResponse
	for _, a := range p.Schedule {
		schedule = append(schedule, amortizationFromDomain(a))
	}
	return &PrepaidExpenseResponse{
		ID:               p.ID,
		Description:      p.Description,
		VendorName:       p.VendorName,
		ReferenceNumber:  p.ReferenceNumber,
		TotalAmount:      p.TotalAmount,
		StartDate:        NewDate(p.StartDate),
		EndDate:          NewDate(p.EndDate),
		PeriodMonths:     p.PeriodMonths,
		MonthlyAmount:    p.MonthlyAmount,
		RecognizedAmount: p.RecognizedAmount,
		RemainingAmount:  p.RemainingAmount,
		ExpenseAccountID: p.ExpenseAccountID,
		AssetAccountID:   p.AssetAccountID,
		LastRecognizedAt: datePtr(p.LastRecognizedAt),
		IsActive:         p.IsActive,
		Notes:            p.Notes,
		Schedule:         schedule,
		CreatedAt:        p.CreatedAt,
	}
}

// PrepaidExpensesFromDomain converts prepaid expenses.
func PrepaidExpensesFromDomain(items []*domain.PrepaidExpense) []*PrepaidExpenseResponse {
	result := make([]*PrepaidExpenseResponse, len(items))
	for i, p := range items {
		result[i] = PrepaidExpenseFromDomain(p)
	}
	return result
}

// PendingAmortizationResponse is an unprocessed period that is due.
type PendingAmortizationResponse struct {
	AmortizationResponse
	Description string `json:"description"`
}

// PendingAmortizationsFromDomain converts pending periods.
func PendingAmortizationsFromDomain(items []domain.PendingAmortization) []PendingAmortizationResponse {
	result := make([]PendingAmortizationResponse, len(items))
	for i, p := range items {
		result[i] = PendingAmortizationResponse{
			AmortizationResponse: amortizationFromDomain(p.Amortization),
			Description:          p.Description,
		}
	}
	return result
}

// AmortizationResultResponse reports one recognised period.
type AmortizationResultResponse struct {
	AmortizationID   string          `json:"amortization_id"`
	PrepaidExpenseID string          `json:"prepaid_expense_id"`
	Description      string          `json:"description"`
	Amount           decimal.Decimal `json:"amount"`
}

// AmortizationResultFromDomain converts a processing result.
func AmortizationResultFromDomain(r domain.AmortizationResult) AmortizationResultResponse {
	return AmortizationResultResponse{
		AmortizationID:   r.AmortizationID,
		PrepaidExpenseID: r.PrepaidExpenseID,
		Description:      r.Description,
		Amount:           r.Amount,
	}
}

// ProcessPendingResponse lists the periods processed in one batch.
type ProcessPendingResponse struct {
	Processed []AmortizationResultResponse `json:"processed"`
	Count     int                          `json:"count"`
	Total     decimal.Decimal              `json:"total"`
}

// ProcessPendingFromDomain converts batch results.
func ProcessPendingFromDomain(results []domain.AmortizationResult) ProcessPendingResponse {
	resp := ProcessPendingResponse{
		Processed: make([]AmortizationResultResponse, len(results)),
		Count:     len(results),
		Total:     decimal.Zero,
	}
	for i, r := range results {
		resp.Processed[i] = AmortizationResultFromDomain(r)
		resp.Total = resp.Total.Add(r.Amount)
	}
	return resp
}

// LoanScheduleEntryResponse is one instalment.
type LoanScheduleEntryResponse struct {
	ID           string          `json:"id"`
	PeriodNumber int             `json:"period_number"`
	DueDate      Date            `json:"due_date"`
	PrincipalDue decimal.Decimal `json:"principal_due"`
	InterestDue  decimal.Decimal `json:"interest_due"`
	TotalDue     decimal.Decimal `json:"total_due"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	IsPaid       bool            `json:"is_paid"`
	PaidAt       *Date           `json:"paid_at,omitempty"`
}

func loanScheduleEntryFromDomain(s domain.LoanScheduleEntry) LoanScheduleEntryResponse {
	return LoanScheduleEntryResponse{
		ID:           s.ID,
		PeriodNumber: s.PeriodNumber,
		DueDate:      NewDate(s.DueDate),
		PrincipalDue: s.PrincipalDue,
		InterestDue:  s.InterestDue,
		TotalDue:     s.TotalDue,
		BalanceAfter: s.BalanceAfter,
		PaidAmount:   s.PaidAmount,
		IsPaid:       s.IsPaid,
		PaidAt:       datePtr(s.PaidAt),
	}
}

// LoanPaymentResponse represents a recorded loan payment.
type LoanPaymentResponse struct {
	ID             string          `json:"id"`
	LoanID         string          `json:"loan_id"`
	PaymentNumber  int             `json:"payment_number"`
	PaymentDate    Date            `json:"payment_date"`
	PrincipalPart  decimal.Decimal `json:"principal_part"`
	InterestPart   decimal.Decimal `json:"interest_part"`
	TotalPayment   decimal.Decimal `json:"total_payment"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	JournalEntryID *string         `json:"journal_entry_id,omitempty"`
	Notes          string          `json:"notes,omitempty"`
}

// LoanPaymentFromDomain converts a loan payment.
func LoanPaymentFromDomain(p *domain.LoanPayment) *LoanPaymentResponse {
	return &LoanPaymentResponse{
		ID:             p.ID,
		LoanID:         p.LoanID,
		PaymentNumber:  p.PaymentNumber,
		PaymentDate:    NewDate(p.PaymentDate),
		PrincipalPart:  p.PrincipalPart,
		InterestPart:   p.InterestPart,
		TotalPayment:   p.TotalPayment,
		BalanceAfter:   p.BalanceAfter,
		JournalEntryID: p.JournalEntryID,
		Notes:          p.Notes,
	}
}

// LoanResponse represents a loan.
type LoanResponse struct {
	ID               string                      `json:"id"`
	Name             string                      `json:"name"`
	LenderName       string                      `json:"lender_name"`
	ReferenceNumber  string                      `json:"reference_number,omitempty"`
	PrincipalAmount  decimal.Decimal             `json:"principal_amount"`
	InterestRate     decimal.Decimal             `json:"interest_rate"`
	InterestType     string                      `json:"interest_type"`
	StartDate        Date                        `json:"start_date"`
	EndDate          Date                        `json:"end_date"`
	TermMonths       int                         `json:"term_months"`
	PaymentFrequency string                      `json:"payment_frequency"`
	MonthlyPayment   decimal.Decimal             `json:"monthly_payment"`
	TotalInterest    decimal.Decimal             `json:"total_interest"`
	TotalPaid        decimal.Decimal             `json:"total_paid"`
	PrincipalPaid    decimal.Decimal             `json:"principal_paid"`
	InterestPaid     decimal.Decimal             `json:"interest_paid"`
	RemainingBalance decimal.Decimal             `json:"remaining_balance"`
	IsActive         bool                        `json:"is_active"`
	Notes            string                      `json:"notes,omitempty"`
	Schedule         []LoanScheduleEntryResponse `json:"schedule,omitempty"`
	Payments         []*LoanPaymentResponse      `json:"payments,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
}

// LoanFromDomain converts a loan.
func LoanFromDomain(l *domain.Loan) *LoanResponse {
	resp := &LoanResponse{
		ID:               l.ID,
		Name:             l.Name,
		LenderName:       l.LenderName,
		ReferenceNumber:  l.ReferenceNumber,
		PrincipalAmount:  l.PrincipalAmount,
		InterestRate:     l.InterestRate,
		InterestType:     string(l.InterestType),
		StartDate:        NewDate(l.StartDate),
		EndDate:          NewDate(l.EndDate),
		TermMonths:       l.TermMonths,
		PaymentFrequency: string(l.PaymentFrequency),
		MonthlyPayment:   l.MonthlyPayment,
		TotalInterest:    l.TotalInterest,
		TotalPaid:        l.TotalPaid,
		PrincipalPaid:    l.PrincipalPaid,
		InterestPaid:     l.InterestPaid,
		RemainingBalance: l.RemainingBalance,
		IsActive:         l.IsActive,
		Notes:            l.Notes,
		CreatedAt:        l.CreatedAt,
	}
	for _, s := range l.Schedule {
		resp.Schedule = append(resp.Schedule, loanScheduleEntryFromDomain(s))
	}
	for i := range l.Payments {
		resp.Payments = append(resp.Payments, LoanPaymentFromDomain(&l.Payments[i]))
	}
	return resp
}

// LoansFromDomain converts loans.
func LoansFromDomain(loans []*domain.Loan) []*LoanResponse {
	result := make([]*LoanResponse, len(loans))
	for i, l := range loans {
		result[i] = LoanFromDomain(l)
	}
	return result
}

// UpcomingPaymentResponse is an unpaid instalment due soon.
type UpcomingPaymentResponse struct {
	LoanID     string `json:"loan_id"`
	LoanName   string `json:"loan_name"`
	LenderName string `json:"lender_name"`
	LoanScheduleEntryResponse
}

// UpcomingPaymentsFromDomain converts upcoming instalments.
func UpcomingPaymentsFromDomain(items []domain.UpcomingLoanPayment) []UpcomingPaymentResponse {
	result := make([]UpcomingPaymentResponse, len(items))
	for i, u := range items {
		result[i] = UpcomingPaymentResponse{
			LoanID:                    u.Entry.LoanID,
			LoanName:                  u.LoanName,
			LenderName:                u.LenderName,
			LoanScheduleEntryResponse: loanScheduleEntryFromDomain(u.Entry),
		}
	}
	return result
}

// InterestAccrualLineResponse is the accrual of one loan.
type InterestAccrualLineResponse struct {
	LoanID          string          `json:"loan_id"`
	LoanName        string          `json:"loan_name"`
	LenderName      string          `json:"lender_name"`
	Balance         decimal.Decimal `json:"balance"`
	MonthlyInterest decimal.Decimal `json:"monthly_interest"`
}

// InterestAccrualResponse reports one month of interest across loans.
type InterestAccrualResponse struct {
	AsOf         Date                          `json:"as_of"`
	TotalAccrual decimal.Decimal               `json:"total_accrual"`
	Details      []InterestAccrualLineResponse `json:"details"`
}

// InterestAccrualFromDomain converts an accrual report.
func InterestAccrualFromDomain(a *domain.InterestAccrual) *InterestAccrualResponse {
	resp := &InterestAccrualResponse{
		AsOf:         NewDate(a.AsOf),
		TotalAccrual: a.TotalAccrual,
		Details:      make([]InterestAccrualLineResponse, len(a.Details)),
	}
	for i, d := range a.Details {
		resp.Details[i] = InterestAccrualLineResponse{
			LoanID:          d.LoanID,
			LoanName:        d.LoanName,
			LenderName:      d.LenderName,
			Balance:         d.Balance,
			MonthlyInterest: d.MonthlyInterest,
		}
	}
	return resp
}

// InvoiceResponse represents a receivable invoice.
type InvoiceResponse struct {
	ID            string          `json:"id"`
	ClientID      string          `json:"client_id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     Date            `json:"issue_date"`
	DueDate       *Date           `json:"due_date,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	PaymentStatus string          `json:"payment_status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceFromDomain converts an invoice.
func InvoiceFromDomain(inv *domain.Invoice) *InvoiceResponse {
	return &InvoiceResponse{
		ID:            inv.ID,
		ClientID:      inv.ClientID,
		InvoiceNumber: inv.InvoiceNumber,
		IssueDate:     NewDate(inv.IssueDate),
		DueDate:       datePtr(inv.DueDate),
		TotalAmount:   inv.TotalAmount,
		PaidAmount:    inv.PaidAmount,
		BalanceDue:    inv.BalanceDue,
		PaymentStatus: string(inv.PaymentStatus),
		CreatedAt:     inv.CreatedAt,
	}
}

// PaymentApplicationResponse is the part of a payment applied to an invoice.
type PaymentApplicationResponse struct {
	ID              string          `json:"id"`
	InvoiceID       string          `json:"invoice_id"`
	AppliedAmount   decimal.Decimal `json:"applied_amount"`
	MatchConfidence decimal.Decimal `json:"match_confidence"`
	MatchReason     string          `json:"match_reason"`
}

func applicationsFromDomain(apps []domain.PaymentApplication) []PaymentApplicationResponse {
	result := make([]PaymentApplicationResponse, len(apps))
	for i, a := range apps {
		result[i] = PaymentApplicationResponse{
			ID:              a.ID,
			InvoiceID:       a.InvoiceID,
			AppliedAmount:   a.AppliedAmount,
			MatchConfidence: a.MatchConfidence,
			MatchReason:     a.MatchReason,
		}
	}
	return result
}

// PaymentResponse represents a client payment.
type PaymentResponse struct {
	ID              string                       `json:"id"`
	ClientID        string                       `json:"client_id"`
	PaymentDate     Date                         `json:"payment_date"`
	TotalAmount     decimal.Decimal              `json:"total_amount"`
	AppliedAmount   decimal.Decimal              `json:"applied_amount"`
	UnappliedAmount decimal.Decimal              `json:"unapplied_amount"`
	PaymentMethod   string                       `json:"payment_method,omitempty"`
	Reference       string                       `json:"reference,omitempty"`
	Status          string                       `json:"status"`
	Applications    []PaymentApplicationResponse `json:"applications"`
	CreatedAt       time.Time                    `json:"created_at"`
}

// PaymentFromDomain converts a payment.
func PaymentFromDomain(p *domain.Payment) *PaymentResponse {
	return &PaymentResponse{
		ID:              p.ID,
		ClientID:        p.ClientID,
		PaymentDate:     NewDate(p.PaymentDate),
		TotalAmount:     p.TotalAmount,
		AppliedAmount:   p.AppliedAmount,
		UnappliedAmount: p.UnappliedAmount,
		PaymentMethod:   p.PaymentMethod,
		Reference:       p.Reference,
		Status:          string(p.Status),
		Applications:    applicationsFromDomain(p.Applications),
		CreatedAt:       p.CreatedAt,
	}
}

// AutoMatchResponse reports the allocations made by one auto-match run.
type AutoMatchResponse struct {
	Payment      *PaymentResponse             `json:"payment"`
	Applications []PaymentApplicationResponse `json:"applications"`
}

// AutoMatchFromUseCase converts an auto-match result.
func AutoMatchFromUseCase(r *usecase.AutoMatchResult) *AutoMatchResponse {
	return &AutoMatchResponse{
		Payment:      PaymentFromDomain(r.Payment),
		Applications: applicationsFromDomain(r.Applications),
	}
}

// ReturnItemResponse is one returned line.
type ReturnItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Total       decimal.Decimal `json:"total"`
}

// ReturnResponse represents a sales or purchase return.
type ReturnResponse struct {
	ID               string               `json:"id"`
	Kind             string               `json:"kind"`
	ReturnNumber     string               `json:"return_number"`
	CounterpartyID   string               `json:"counterparty_id"`
	SourceDocumentID *string              `json:"source_document_id,omitempty"`
	ReturnDate       Date                 `json:"return_date"`
	Reason           string               `json:"reason,omitempty"`
	Subtotal         decimal.Decimal      `json:"subtotal"`
	TaxAmount        decimal.Decimal      `json:"tax_amount"`
	TotalAmount      decimal.Decimal      `json:"total_amount"`
	Status           string               `json:"status"`
	JournalEntryID   *string              `json:"journal_entry_id,omitempty"`
	Items            []ReturnItemResponse `json:"items"`
	CreatedAt        time.Time            `json:"created_at"`
}

// ReturnFromDomain converts a return.
func ReturnFromDomain(r *domain.Return) *ReturnResponse {
	items := make([]ReturnItemResponse, len(r.Items))
	for i, it := range r.Items {
		items[i] = ReturnItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			Total:       it.Total,
		}
	}
	return &ReturnResponse{
		ID:               r.ID,
		Kind:             string(r.Kind),
		ReturnNumber:     r.ReturnNumber,
		CounterpartyID:   r.CounterpartyID,
		SourceDocumentID: r.SourceDocumentID,
		ReturnDate:       NewDate(r.ReturnDate),
		Reason:           r.Reason,
		Subtotal:         r.Subtotal,
		TaxAmount:        r.TaxAmount,
		TotalAmount:      r.TotalAmount,
		Status:           r.Status,
		JournalEntryID:   r.JournalEntryID,
		Items:            items,
		CreatedAt:        r.CreatedAt,
	}
}

// DepreciationPeriodResponse is one row of a depreciation schedule.
type DepreciationPeriodResponse struct {
	Period                  int             `json:"period"`
	PeriodEnd               Date            `json:"period_end"`
	OpeningCarryingAmount   decimal.Decimal `json:"opening_carrying_amount"`
	Depreciation            decimal.Decimal `json:"depreciation"`
	AccumulatedDepreciation decimal.Decimal `json:"accumulated_depreciation"`
	ClosingCarryingAmount   decimal.Decimal `json:"closing_carrying_amount"`
}

// DepreciationScheduleResponse is a projected depreciation schedule.
type DepreciationScheduleResponse struct {
	Periods           []DepreciationPeriodResponse `json:"periods"`
	TotalDepreciation decimal.Decimal              `json:"total_depreciation"`
}

// DepreciationScheduleFromUseCase converts a projected schedule.
func DepreciationScheduleFromUseCase(res *usecase.DepreciationScheduleResult) *DepreciationScheduleResponse {
	periods := make([]DepreciationPeriodResponse, len(res.Periods))
	for i, p := range res.Periods {
		periods[i] = DepreciationPeriodResponse{
			Period:                  p.Period,
			PeriodEnd:               NewDate(p.PeriodEnd),
			OpeningCarryingAmount:   p.OpeningCarryingAmount,
			Depreciation:            p.Depreciation,
			AccumulatedDepreciation: p.AccumulatedDepreciation,
			ClosingCarryingAmount:   p.ClosingCarryingAmount,
		}
	}
	return &DepreciationScheduleResponse{Periods: periods, TotalDepreciation: res.TotalDepreciation}
}
