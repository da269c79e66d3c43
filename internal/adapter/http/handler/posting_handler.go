package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// PostingService defines the behavior needed by PostingHandler.
type PostingService interface {
	PostInvoice(ctx context.Context, tenantID, invoiceID string, tax decimal.Decimal) (*domain.JournalEntry, error)
	PostPaymentReceived(ctx context.Context, tenantID, paymentID string) (*domain.JournalEntry, error)
	PostBill(ctx context.Context, tenantID string, input usecase.PostBillInput) (*domain.JournalEntry, error)
	PostPOSSale(ctx context.Context, tenantID string, input usecase.PostPOSSaleInput) (*domain.JournalEntry, error)
}

// PostingHandler posts business documents to the general ledger.
type PostingHandler struct {
	postingUC PostingService
}

// NewPostingHandler creates a new PostingHandler.
func NewPostingHandler(postingUC PostingService) *PostingHandler {
	return &PostingHandler{postingUC: postingUC}
}

// PostInvoice posts a stored invoice. The body is optional.
func (h *PostingHandler) PostInvoice(w http.ResponseWriter, r *http.Request) {
	var req dto.PostInvoiceRequest
	if !decodeRequest(w, r, &req, true) {
		return
	}

	entry, err := h.postingUC.PostInvoice(r.Context(), tenantID(r), chi.URLParam(r, "id"), req.Tax)
	h.respond(w, r, "failed to post invoice", entry, err)
}

// PostPayment posts a recorded client payment.
func (h *PostingHandler) PostPayment(w http.ResponseWriter, r *http.Request) {
	entry, err := h.postingUC.PostPaymentReceived(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	h.respond(w, r, "failed to post payment", entry, err)
}

// PostBill posts a supplier bill.
func (h *PostingHandler) PostBill(w http.ResponseWriter, r *http.Request) {
	var req dto.PostBillRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	entry, err := h.postingUC.PostBill(r.Context(), tenantID(r), req.ToUseCaseInput())
	h.respond(w, r, "failed to post bill", entry, err)
}

// PostPOSSale posts a point-of-sale sale.
func (h *PostingHandler) PostPOSSale(w http.ResponseWriter, r *http.Request) {
	var req dto.PostPOSSaleRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	entry, err := h.postingUC.PostPOSSale(r.Context(), tenantID(r), req.ToUseCaseInput())
	h.respond(w, r, "failed to post sale", entry, err)
}

func (h *PostingHandler) respond(w http.ResponseWriter, r *http.Request, message string, entry *domain.JournalEntry, err error) {
	if err != nil {
		writeDomainError(w, r, message, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}
