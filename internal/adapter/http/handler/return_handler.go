package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// ReturnService defines the behavior needed by ReturnHandler.
type ReturnService interface {
	CreateSalesReturn(ctx context.Context, tenantID string, input usecase.CreateReturnInput) (*domain.Return, error)
	CreatePurchaseReturn(ctx context.Context, tenantID string, input usecase.CreateReturnInput) (*domain.Return, error)
	GetReturn(ctx context.Context, tenantID, id string) (*domain.Return, error)
}

// ReturnHandler handles sales and purchase returns.
type ReturnHandler struct {
	returnUC ReturnService
}

// NewReturnHandler creates a new ReturnHandler.
func NewReturnHandler(returnUC ReturnService) *ReturnHandler {
	return &ReturnHandler{returnUC: returnUC}
}

// CreateSales records a sales return and posts it.
func (h *ReturnHandler) CreateSales(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.returnUC.CreateSalesReturn)
}

// CreatePurchase records a purchase return and posts it.
func (h *ReturnHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, h.returnUC.CreatePurchaseReturn)
}

func (h *ReturnHandler) create(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, tenantID string, input usecase.CreateReturnInput) (*domain.Return, error),
) {
	var req dto.CreateReturnRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	ret, err := fn(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create return", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReturnFromDomain(ret))
}

// Get retrieves a return with its items.
func (h *ReturnHandler) Get(w http.ResponseWriter, r *http.Request) {
	ret, err := h.returnUC.GetReturn(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get return", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReturnFromDomain(ret))
}
