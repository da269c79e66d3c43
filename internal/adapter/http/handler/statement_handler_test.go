package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
)

type statementServiceStub struct {
	start, end, asOf time.Time
}

func (s *statementServiceStub) TrialBalance(ctx context.Context, tenantID string, start, end time.Time) (*domain.TrialBalance, error) {
	s.start, s.end = start, end
	return &domain.TrialBalance{
		PeriodStart: start,
		PeriodEnd:   end,
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(100),
		Difference:  decimal.Zero,
		IsBalanced:  true,
	}, nil
}

func (s *statementServiceStub) BalanceSheet(ctx context.Context, tenantID string, asOf time.Time) (*domain.BalanceSheet, error) {
	s.asOf = asOf
	return &domain.BalanceSheet{AsOf: asOf}, nil
}

func (s *statementServiceStub) IncomeStatement(ctx context.Context, tenantID string, start, end time.Time) (*domain.IncomeStatement, error) {
	s.start, s.end = start, end
	return &domain.IncomeStatement{}, nil
}

func (s *statementServiceStub) CashFlowStatement(ctx context.Context, tenantID string, start, end time.Time) (*domain.CashFlowStatement, error) {
	if end.Before(start) {
		return nil, domain.ErrInvalidDateRange
	}
	s.start, s.end = start, end
	return &domain.CashFlowStatement{}, nil
}

func TestStatementHandler_TrialBalance(t *testing.T) {
	stub := &statementServiceStub{}
	handler := NewStatementHandler(stub)

	req := newTenantRequest(http.MethodGet, "/statements/trial-balance?from=2024-01-01&to=2024-01-31", nil)
	rec := httptest.NewRecorder()

	handler.TrialBalance(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if stub.start.Day() != 1 || stub.end.Day() != 31 {
		t.Fatalf("unexpected period %s..%s", stub.start, stub.end)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["is_balanced"] != true {
		t.Fatalf("expected is_balanced in response, got %v", resp)
	}
}

func TestStatementHandler_PeriodDefaultsToMonthToDate(t *testing.T) {
	stub := &statementServiceStub{}
	handler := NewStatementHandler(stub)
	handler.now = func() time.Time { return time.Date(2024, 6, 15, 18, 0, 0, 0, time.UTC) }

	req := newTenantRequest(http.MethodGet, "/statements/income-statement", nil)
	rec := httptest.NewRecorder()

	handler.IncomeStatement(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !stub.start.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected period start 2024-06-01, got %s", stub.start)
	}
	if !stub.end.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected period end 2024-06-15, got %s", stub.end)
	}
}

func TestStatementHandler_BalanceSheetAsOf(t *testing.T) {
	stub := &statementServiceStub{}
	handler := NewStatementHandler(stub)

	req := newTenantRequest(http.MethodGet, "/statements/balance-sheet?as_of=2024-12-31", nil)
	rec := httptest.NewRecorder()

	handler.BalanceSheet(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !stub.asOf.Equal(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected as_of 2024-12-31, got %s", stub.asOf)
	}
}

func TestStatementHandler_CashFlowInvertedRange(t *testing.T) {
	handler := NewStatementHandler(&statementServiceStub{})

	req := newTenantRequest(http.MethodGet, "/statements/cash-flow?from=2024-02-01&to=2024-01-01", nil)
	rec := httptest.NewRecorder()

	handler.CashFlow(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStatementHandler_BadQuery(t *testing.T) {
	handler := NewStatementHandler(&statementServiceStub{})

	req := newTenantRequest(http.MethodGet, "/statements/balance-sheet?as_of=last-week", nil)
	rec := httptest.NewRecorder()

	handler.BalanceSheet(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
