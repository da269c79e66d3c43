package handler

import (
	"context"
	"net/http"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// DepreciationService defines the behavior needed by DepreciationHandler.
type DepreciationService interface {
	Schedule(input usecase.DepreciationScheduleInput) (*usecase.DepreciationScheduleResult, error)
	PostDepreciation(ctx context.Context, tenantID string, input usecase.PostDepreciationInput) (*domain.JournalEntry, error)
}

// DepreciationHandler handles fixed-asset depreciation requests.
type DepreciationHandler struct {
	depreciationUC DepreciationService
}

// NewDepreciationHandler creates a new DepreciationHandler.
func NewDepreciationHandler(depreciationUC DepreciationService) *DepreciationHandler {
	return &DepreciationHandler{depreciationUC: depreciationUC}
}

// Schedule projects an asset's depreciation without posting anything.
func (h *DepreciationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req dto.DepreciationScheduleRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	res, err := h.depreciationUC.Schedule(req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to build depreciation schedule", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DepreciationScheduleFromUseCase(res))
}

// Post books one period's depreciation.
func (h *DepreciationHandler) Post(w http.ResponseWriter, r *http.Request) {
	var req dto.PostDepreciationRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	entry, err := h.depreciationUC.PostDepreciation(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to post depreciation", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}
