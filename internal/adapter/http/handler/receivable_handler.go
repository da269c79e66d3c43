package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// PaymentService defines the behavior needed by ReceivableHandler.
type PaymentService interface {
	CreateInvoice(ctx context.Context, tenantID string, input usecase.CreateInvoiceInput) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, tenantID, id string) (*domain.Invoice, error)
	RecordPayment(ctx context.Context, tenantID string, input usecase.RecordPaymentInput) (*domain.Payment, error)
	GetPayment(ctx context.Context, tenantID, id string) (*domain.Payment, error)
	AutoMatchPayment(ctx context.Context, tenantID, paymentID string) (*usecase.AutoMatchResult, error)
}

// ReceivableHandler handles invoice and payment requests.
type ReceivableHandler struct {
	paymentUC PaymentService
}

// NewReceivableHandler creates a new ReceivableHandler.
func NewReceivableHandler(paymentUC PaymentService) *ReceivableHandler {
	return &ReceivableHandler{paymentUC: paymentUC}
}

// CreateInvoice records an open receivable.
func (h *ReceivableHandler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateInvoiceRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	invoice, err := h.paymentUC.CreateInvoice(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create invoice", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.InvoiceFromDomain(invoice))
}

// GetInvoice retrieves an invoice.
func (h *ReceivableHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	invoice, err := h.paymentUC.GetInvoice(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get invoice", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.InvoiceFromDomain(invoice))
}

// RecordPayment records an unapplied client payment.
func (h *ReceivableHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.RecordPaymentRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	payment, err := h.paymentUC.RecordPayment(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to record payment", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PaymentFromDomain(payment))
}

// GetPayment retrieves a payment with its applications.
func (h *ReceivableHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, err := h.paymentUC.GetPayment(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PaymentFromDomain(payment))
}

// AutoMatch applies the payment's unapplied amount to open invoices.
func (h *ReceivableHandler) AutoMatch(w http.ResponseWriter, r *http.Request) {
	result, err := h.paymentUC.AutoMatchPayment(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to auto-match payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AutoMatchFromUseCase(result))
}
