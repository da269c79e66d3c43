package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/iho/ledgercore/internal/domain"
)

// StatementService defines the behavior needed by StatementHandler.
type StatementService interface {
	TrialBalance(ctx context.Context, tenantID string, start, end time.Time) (*domain.TrialBalance, error)
	BalanceSheet(ctx context.Context, tenantID string, asOf time.Time) (*domain.BalanceSheet, error)
	IncomeStatement(ctx context.Context, tenantID string, start, end time.Time) (*domain.IncomeStatement, error)
	CashFlowStatement(ctx context.Context, tenantID string, start, end time.Time) (*domain.CashFlowStatement, error)
}

// StatementHandler serves financial statements.
type StatementHandler struct {
	statementUC StatementService
	now         func() time.Time
}

// NewStatementHandler creates a new StatementHandler.
func NewStatementHandler(statementUC StatementService) *StatementHandler {
	return &StatementHandler{statementUC: statementUC, now: time.Now}
}

// TrialBalance serves the trial balance for [from, to].
func (h *StatementHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.period(w, r)
	if !ok {
		return
	}

	tb, err := h.statementUC.TrialBalance(r.Context(), tenantID(r), from, to)
	if err != nil {
		writeDomainError(w, r, "failed to build trial balance", err)
		return
	}

	writeJSON(w, http.StatusOK, tb)
}

// BalanceSheet serves the position as of as_of (today by default).
func (h *StatementHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	if asOf.IsZero() {
		asOf = domain.DateOnly(h.now())
	}

	bs, err := h.statementUC.BalanceSheet(r.Context(), tenantID(r), asOf)
	if err != nil {
		writeDomainError(w, r, "failed to build balance sheet", err)
		return
	}

	writeJSON(w, http.StatusOK, bs)
}

// IncomeStatement serves profit and loss for [from, to].
func (h *StatementHandler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.period(w, r)
	if !ok {
		return
	}

	is, err := h.statementUC.IncomeStatement(r.Context(), tenantID(r), from, to)
	if err != nil {
		writeDomainError(w, r, "failed to build income statement", err)
		return
	}

	writeJSON(w, http.StatusOK, is)
}

// CashFlow serves the indirect cash flow statement for [from, to].
func (h *StatementHandler) CashFlow(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.period(w, r)
	if !ok {
		return
	}

	cf, err := h.statementUC.CashFlowStatement(r.Context(), tenantID(r), from, to)
	if err != nil {
		writeDomainError(w, r, "failed to build cash flow statement", err)
		return
	}

	writeJSON(w, http.StatusOK, cf)
}

// period reads from/to, defaulting to the first of the current month
// through today.
func (h *StatementHandler) period(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return from, to, false
	}
	today := domain.DateOnly(h.now())
	if to.IsZero() {
		to = today
	}
	if from.IsZero() {
		from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return from, to, true
}
