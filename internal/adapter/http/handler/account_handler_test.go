package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

type accountServiceStub struct {
	createFn     func(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error)
	getFn        func(ctx context.Context, tenantID, id string) (*domain.Account, error)
	listFn       func(ctx context.Context, tenantID string, filter domain.AccountFilter) ([]*domain.Account, error)
	treeFn       func(ctx context.Context, tenantID string) ([]*domain.AccountNode, error)
	deactivateFn func(ctx context.Context, tenantID, id string) (*domain.Account, error)
	seedFn       func(ctx context.Context, tenantID string) (*usecase.SeedResult, error)
}

func (s *accountServiceStub) CreateAccount(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error) {
	return s.createFn(ctx, tenantID, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return s.getFn(ctx, tenantID, id)
}

func (s *accountServiceStub) ListAccounts(ctx context.Context, tenantID string, filter domain.AccountFilter) ([]*domain.Account, error) {
	return s.listFn(ctx, tenantID, filter)
}

func (s *accountServiceStub) AccountTree(ctx context.Context, tenantID string) ([]*domain.AccountNode, error) {
	return s.treeFn(ctx, tenantID)
}

func (s *accountServiceStub) DeactivateAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return s.deactivateFn(ctx, tenantID, id)
}

func (s *accountServiceStub) SeedStandardChart(ctx context.Context, tenantID string) (*usecase.SeedResult, error) {
	return s.seedFn(ctx, tenantID)
}

func TestAccountHandler_Create_Success(t *testing.T) {
	account := &domain.Account{
		ID:            "acc-1",
		Code:          "1000",
		Name:          "Cash",
		Type:          domain.AccountTypeAsset,
		NormalBalance: domain.NormalBalanceDebit,
		IsActive:      true,
	}

	var (
		captured       usecase.CreateAccountInput
		capturedTenant string
	)
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error) {
			captured = input
			capturedTenant = tenantID
			return account, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{
		Code: "1000",
		Name: "Cash",
		Type: "ASSET",
	})

	req := newTenantRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if capturedTenant != testTenant {
		t.Fatalf("expected tenant %s, got %s", testTenant, capturedTenant)
	}
	if captured.Code != "1000" || captured.Type != domain.AccountTypeAsset {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.ID != "acc-1" || resp.NormalBalance != "DEBIT" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Create_InvalidJSON(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called for invalid payload")
			return nil, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/accounts", bytes.NewBufferString("{invalid json"))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Create_ValidationFailure(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error) {
			t.Fatal("CreateAccount should not be called for invalid payload")
			return nil, nil
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Code: "1000", Name: "Cash", Type: "CASH"})
	req := newTenantRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Create_DuplicateCode(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, domain.ErrDuplicateAccountCode
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Code: "1000", Name: "Cash", Type: "ASSET"})
	req := newTenantRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestAccountHandler_Create_ServiceError(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		createFn: func(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error) {
			return nil, errors.New("db error")
		},
	})

	body, _ := json.Marshal(dto.CreateAccountRequest{Code: "1000", Name: "Cash", Type: "ASSET"})
	req := newTenantRequest(http.MethodPost, "/accounts", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.Create(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "internal error" {
		t.Fatalf("expected internal detail to be hidden, got %q", resp.Message)
	}
}

func TestAccountHandler_Get(t *testing.T) {
	account := &domain.Account{ID: "acc-1", Name: "test"}
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.Account, error) {
			if id != "acc-1" {
				t.Fatalf("expected id acc-1, got %s", id)
			}
			return account, nil
		},
	})

	req := newTenantRequest(http.MethodGet, "/accounts/acc-1", nil)
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Get_NotFound(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		getFn: func(ctx context.Context, tenantID, id string) (*domain.Account, error) {
			return nil, domain.ErrAccountNotFound
		},
	})

	req := newTenantRequest(http.MethodGet, "/accounts/acc-1", nil)
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAccountHandler_List(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		listFn: func(ctx context.Context, tenantID string, filter domain.AccountFilter) ([]*domain.Account, error) {
			if filter.Limit != 5 || filter.Offset != 2 {
				t.Fatalf("expected limit=5 offset=2, got %+v", filter)
			}
			if filter.Type != domain.AccountTypeExpense || !filter.ActiveOnly {
				t.Fatalf("expected EXPENSE active filter, got %+v", filter)
			}
			return []*domain.Account{{ID: "acc-1"}, {ID: "acc-2"}}, nil
		},
	})

	req := newTenantRequest(http.MethodGet, "/accounts?type=EXPENSE&active_only=true&limit=5&offset=2", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ListAccountsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Accounts) != 2 || resp.Total != 2 {
		t.Fatalf("expected 2 accounts, got %+v", resp)
	}
}

func TestAccountHandler_List_InvalidType(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{})

	req := newTenantRequest(http.MethodGet, "/accounts?type=CASH", nil)
	rec := httptest.NewRecorder()

	handler.List(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAccountHandler_Tree(t *testing.T) {
	parent := &domain.Account{ID: "p", Code: "1000"}
	child := &domain.Account{ID: "c", Code: "1010", ParentID: &parent.ID}
	handler := NewAccountHandler(&accountServiceStub{
		treeFn: func(ctx context.Context, tenantID string) ([]*domain.AccountNode, error) {
			return []*domain.AccountNode{{
				Account:       parent,
				RolledBalance: decimal.NewFromInt(300),
				Children:      []*domain.AccountNode{{Account: child, RolledBalance: decimal.NewFromInt(100)}},
			}}, nil
		},
	})

	req := newTenantRequest(http.MethodGet, "/accounts/tree", nil)
	rec := httptest.NewRecorder()

	handler.Tree(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp []dto.AccountNodeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || len(resp[0].Children) != 1 {
		t.Fatalf("unexpected tree %+v", resp)
	}
	if !resp[0].RolledBalance.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("expected rolled balance 300, got %s", resp[0].RolledBalance)
	}
}

func TestAccountHandler_Deactivate(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		deactivateFn: func(ctx context.Context, tenantID, id string) (*domain.Account, error) {
			return &domain.Account{ID: id, IsActive: false}, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/accounts/acc-1/deactivate", nil)
	req = setChiURLParam(req, "id", "acc-1")
	rec := httptest.NewRecorder()

	handler.Deactivate(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAccountHandler_Seed(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		seedFn: func(ctx context.Context, tenantID string) (*usecase.SeedResult, error) {
			return &usecase.SeedResult{
				Created: []*domain.Account{{ID: "a", Code: "1000"}},
				Skipped: []string{"1010"},
			}, nil
		},
	})

	req := newTenantRequest(http.MethodPost, "/accounts/seed", nil)
	rec := httptest.NewRecorder()

	handler.Seed(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.SeedChartResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Created) != 1 || len(resp.Skipped) != 1 || resp.Skipped[0] != "1010" {
		t.Fatalf("unexpected seed response %+v", resp)
	}
}

const testTenant = "tenant-1"

func newTenantRequest(method, target string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(domain.WithTenant(req.Context(), testTenant))
}

func setChiURLParam(r *http.Request, key, value string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, &chi.Context{
		URLParams: chi.RouteParams{
			Keys:   []string{key},
			Values: []string{value},
		},
	}))
}
