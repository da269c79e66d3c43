package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

type depreciationServiceStub struct {
	scheduleFn func(input usecase.DepreciationScheduleInput) (*usecase.DepreciationScheduleResult, error)
	postFn     func(ctx context.Context, tenantID string, input usecase.PostDepreciationInput) (*domain.JournalEntry, error)
}

func (s *depreciationServiceStub) Schedule(input usecase.DepreciationScheduleInput) (*usecase.DepreciationScheduleResult, error) {
	return s.scheduleFn(input)
}

func (s *depreciationServiceStub) PostDepreciation(ctx context.Context, tenantID string, input usecase.PostDepreciationInput) (*domain.JournalEntry, error) {
	return s.postFn(ctx, tenantID, input)
}

func TestDepreciationHandler_Schedule(t *testing.T) {
	var captured usecase.DepreciationScheduleInput
	handler := NewDepreciationHandler(&depreciationServiceStub{
		scheduleFn: func(input usecase.DepreciationScheduleInput) (*usecase.DepreciationScheduleResult, error) {
			captured = input
			return &usecase.DepreciationScheduleResult{
				Periods: []domain.DepreciationPeriod{{
					Period:                  1,
					OpeningCarryingAmount:   decimal.NewFromInt(1000),
					Depreciation:            decimal.NewFromInt(200),
					AccumulatedDepreciation: decimal.NewFromInt(200),
					ClosingCarryingAmount:   decimal.NewFromInt(800),
				}},
				TotalDepreciation: decimal.NewFromInt(200),
			}, nil
		},
	})

	body := `{"name": "Van", "acquisition_date": "2024-01-01", "cost": "1000",
		"method": "DECLINING_BALANCE", "declining_rate": "0.2", "periods": 1}`
	req := newTenantRequest(http.MethodPost, "/depreciation/schedule", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Schedule(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Asset.Method != domain.DepreciationDecliningBalance || captured.Periods != 1 {
		t.Errorf("unexpected input %+v", captured)
	}

	var resp dto.DepreciationScheduleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Periods) != 1 || !resp.TotalDepreciation.Equal(decimal.NewFromInt(200)) {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDepreciationHandler_Schedule_RejectsUnknownMethod(t *testing.T) {
	handler := NewDepreciationHandler(&depreciationServiceStub{
		scheduleFn: func(input usecase.DepreciationScheduleInput) (*usecase.DepreciationScheduleResult, error) {
			t.Fatal("Schedule should not be called")
			return nil, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/depreciation/schedule",
		bytes.NewBufferString(`{"cost": "1000", "method": "SUM_OF_YEARS"}`))
	rec := httptest.NewRecorder()

	handler.Schedule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDepreciationHandler_Schedule_DomainError(t *testing.T) {
	handler := NewDepreciationHandler(&depreciationServiceStub{
		scheduleFn: func(input usecase.DepreciationScheduleInput) (*usecase.DepreciationScheduleResult, error) {
			return nil, domain.ErrUsefulLifeRequired
		},
	})

	req := newTenantRequest(http.MethodPost, "/depreciation/schedule",
		bytes.NewBufferString(`{"cost": "1000", "method": "STRAIGHT_LINE"}`))
	rec := httptest.NewRecorder()

	handler.Schedule(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestDepreciationHandler_Post(t *testing.T) {
	var gotTenant string
	var captured usecase.PostDepreciationInput
	handler := NewDepreciationHandler(&depreciationServiceStub{
		postFn: func(ctx context.Context, tenantID string, input usecase.PostDepreciationInput) (*domain.JournalEntry, error) {
			gotTenant, captured = tenantID, input
			return &domain.JournalEntry{
				ID:            "je-9",
				JournalNumber: "JE-000009",
				SourceType:    domain.SourceDepreciation,
				Reference:     input.AssetReference,
				Status:        domain.JournalStatusPosted,
				TotalDebit:    input.Amount,
				TotalCredit:   input.Amount,
			}, nil
		},
	})

	body := `{"asset_name": "Van", "asset_reference": "FA-1", "amount": "250.00", "entry_date": "2024-12-31"}`
	req := newTenantRequest(http.MethodPost, "/depreciation/post", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()

	handler.Post(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotTenant != testTenant || captured.AssetName != "Van" || !captured.Amount.Equal(decimal.NewFromInt(250)) {
		t.Errorf("unexpected call tenant %s input %+v", gotTenant, captured)
	}

	var resp dto.JournalEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SourceType != "DEPRECIATION" || resp.Reference != "FA-1" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestDepreciationHandler_Post_RejectsZeroAmount(t *testing.T) {
	handler := NewDepreciationHandler(&depreciationServiceStub{
		postFn: func(ctx context.Context, tenantID string, input usecase.PostDepreciationInput) (*domain.JournalEntry, error) {
			t.Fatal("PostDepreciation should not be called")
			return nil, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/depreciation/post",
		bytes.NewBufferString(`{"asset_name": "Van", "amount": "0"}`))
	rec := httptest.NewRecorder()

	handler.Post(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
