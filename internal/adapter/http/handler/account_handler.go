package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	CreateAccount(ctx context.Context, tenantID string, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, tenantID string, filter domain.AccountFilter) ([]*domain.Account, error)
	AccountTree(ctx context.Context, tenantID string) ([]*domain.AccountNode, error)
	DeactivateAccount(ctx context.Context, tenantID, id string) (*domain.Account, error)
	SeedStandardChart(ctx context.Context, tenantID string) (*usecase.SeedResult, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountUC AccountService) *AccountHandler {
	return &AccountHandler{accountUC: accountUC}
}

// Create creates a new account.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	account, err := h.accountUC.CreateAccount(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create account", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Get retrieves an account by ID.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), tenantID(r), id)
	if err != nil {
		writeDomainError(w, r, "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// List lists accounts, optionally filtered by type.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.AccountFilter{
		Type:       domain.AccountType(r.URL.Query().Get("type")),
		ActiveOnly: parseBoolQuery(r, "active_only", false),
		Limit:      parseIntQuery(r, "limit", 50),
		Offset:     parseIntQuery(r, "offset", 0),
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid account type", string(filter.Type))
		return
	}

	accounts, err := h.accountUC.ListAccounts(r.Context(), tenantID(r), filter)
	if err != nil {
		writeDomainError(w, r, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListAccountsResponse{
		Accounts: dto.AccountsFromDomain(accounts),
		Total:    int64(len(accounts)),
	})
}

// Tree returns the chart arranged by parent with rolled-up balances.
func (h *AccountHandler) Tree(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.accountUC.AccountTree(r.Context(), tenantID(r))
	if err != nil {
		writeDomainError(w, r, "failed to build account tree", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountTreeFromDomain(nodes))
}

// Deactivate marks an account inactive.
func (h *AccountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountUC.DeactivateAccount(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to deactivate account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// Seed creates the standard chart of accounts for the tenant.
func (h *AccountHandler) Seed(w http.ResponseWriter, r *http.Request) {
	result, err := h.accountUC.SeedStandardChart(r.Context(), tenantID(r))
	if err != nil {
		writeDomainError(w, r, "failed to seed chart of accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SeedChartFromUseCase(result))
}
