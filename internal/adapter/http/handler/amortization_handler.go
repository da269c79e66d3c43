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

// AmortizationService defines the behavior needed by AmortizationHandler.
type AmortizationService interface {
	CreatePrepaidExpense(ctx context.Context, tenantID string, input usecase.CreatePrepaidExpenseInput) (*domain.PrepaidExpense, error)
	GetPrepaidExpense(ctx context.Context, tenantID, id string) (*domain.PrepaidExpense, error)
	ListPrepaidExpenses(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]*domain.PrepaidExpense, error)
	ListPendingAmortizations(ctx context.Context, tenantID string, asOf time.Time) ([]domain.PendingAmortization, error)
	ProcessAmortization(ctx context.Context, tenantID, amortizationID string, journalEntryID *string) (*domain.AmortizationResult, error)
	ProcessAllPending(ctx context.Context, tenantID string, asOf time.Time) ([]domain.AmortizationResult, error)
}

// AmortizationHandler handles prepaid expense and amortization requests.
type AmortizationHandler struct {
	amortizationUC AmortizationService
	now            func() time.Time
}

// NewAmortizationHandler creates a new AmortizationHandler.
func NewAmortizationHandler(amortizationUC AmortizationService) *AmortizationHandler {
	return &AmortizationHandler{amortizationUC: amortizationUC, now: time.Now}
}

// CreatePrepaid registers a prepaid expense and its schedule.
func (h *AmortizationHandler) CreatePrepaid(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePrepaidExpenseRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	prepaid, err := h.amortizationUC.CreatePrepaidExpense(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create prepaid expense", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PrepaidExpenseFromDomain(prepaid))
}

// GetPrepaid retrieves a prepaid expense with its schedule.
func (h *AmortizationHandler) GetPrepaid(w http.ResponseWriter, r *http.Request) {
	prepaid, err := h.amortizationUC.GetPrepaidExpense(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get prepaid expense", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PrepaidExpenseFromDomain(prepaid))
}

// ListPrepaid lists prepaid expenses.
func (h *AmortizationHandler) ListPrepaid(w http.ResponseWriter, r *http.Request) {
	items, err := h.amortizationUC.ListPrepaidExpenses(r.Context(), tenantID(r),
		parseBoolQuery(r, "active_only", false), parseIntQuery(r, "limit", 50), parseIntQuery(r, "offset", 0))
	if err != nil {
		writeDomainError(w, r, "failed to list prepaid expenses", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"prepaid_expenses": dto.PrepaidExpensesFromDomain(items),
		"total":            len(items),
	})
}

// ListPending lists unprocessed periods due on or before as_of (today by default).
func (h *AmortizationHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if asOf.IsZero() {
		asOf = h.now()
	}

	pending, err := h.amortizationUC.ListPendingAmortizations(r.Context(), tenantID(r), asOf)
	if err != nil {
		writeDomainError(w, r, "failed to list pending amortizations", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"pending": dto.PendingAmortizationsFromDomain(pending),
		"total":   len(pending),
	})
}

// Process recognises one amortization period.
func (h *AmortizationHandler) Process(w http.ResponseWriter, r *http.Request) {
	var req dto.ProcessAmortizationRequest
	if !decodeRequest(w, r, &req, true) {
		return
	}

	result, err := h.amortizationUC.ProcessAmortization(r.Context(), tenantID(r), chi.URLParam(r, "id"), req.JournalEntryID)
	if err != nil {
		writeDomainError(w, r, "failed to process amortization", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AmortizationResultFromDomain(*result))
}

// ProcessPending recognises every due period up to as_of.
func (h *AmortizationHandler) ProcessPending(w http.ResponseWriter, r *http.Request) {
	var req dto.ProcessPendingRequest
	if !decodeRequest(w, r, &req, true) {
		return
	}
	asOf := req.AsOf.TimeOrZero()
	if asOf.IsZero() {
		asOf = h.now()
	}

	results, err := h.amortizationUC.ProcessAllPending(r.Context(), tenantID(r), asOf)
	if err != nil {
		writeDomainError(w, r, "failed to process pending amortizations", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ProcessPendingFromDomain(results))
}
