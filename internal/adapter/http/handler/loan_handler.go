package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// LoanService defines the behavior needed by LoanHandler.
type LoanService interface {
	CreateLoan(ctx context.Context, tenantID string, input usecase.CreateLoanInput) (*domain.Loan, error)
	GetLoan(ctx context.Context, tenantID, id string) (*domain.Loan, error)
	ListLoans(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]*domain.Loan, error)
	RecordLoanPayment(ctx context.Context, tenantID, loanID string, input usecase.RecordLoanPaymentInput) (*domain.LoanPayment, error)
	UpcomingPayments(ctx context.Context, tenantID string, daysAhead int) ([]domain.UpcomingLoanPayment, error)
	InterestAccrual(ctx context.Context, tenantID string, asOf time.Time) (*domain.InterestAccrual, error)
}

// LoanHandler handles loan requests.
type LoanHandler struct {
	loanUC LoanService
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanUC LoanService) *LoanHandler {
	return &LoanHandler{loanUC: loanUC}
}

// Create registers a loan and its repayment schedule.
func (h *LoanHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	loan, err := h.loanUC.CreateLoan(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create loan", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanFromDomain(loan))
}

// Get retrieves a loan with schedule and payments.
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loanUC.GetLoan(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get loan", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoanFromDomain(loan))
}

// List lists loans.
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loanUC.ListLoans(r.Context(), tenantID(r),
		parseBoolQuery(r, "active_only", false), parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, "failed to list loans", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"loans": dto.LoansFromDomain(loans),
		"total": len(loans),
	})
}

// RecordPayment applies a payment to a loan.
func (h *LoanHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordLoanPaymentRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	payment, err := h.loanUC.RecordLoanPayment(r.Context(), tenantID(r), chi.URLParam(r, "id"), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to record loan payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.LoanPaymentFromDomain(payment))
}

// Upcoming lists unpaid instalments due within days_ahead days.
func (h *LoanHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	days := parseIntQuery(r, "days_ahead", usecase.DefaultUpcomingDays)

	upcoming, err := h.loanUC.UpcomingPayments(r.Context(), tenantID(r), days)
	if err != nil {
		writeDomainError(w, r, "failed to list upcoming payments", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"upcoming": dto.UpcomingPaymentsFromDomain(upcoming),
		"total":    len(upcoming),
	})
}

// InterestAccrual reports a month of interest on every active loan.
func (h *LoanHandler) InterestAccrual(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	accrual, err := h.loanUC.InterestAccrual(r.Context(), tenantID(r), asOf)
	if err != nil {
		writeDomainError(w, r, "failed to compute interest accrual", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InterestAccrualFromDomain(accrual))
}
