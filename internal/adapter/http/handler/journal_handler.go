package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/ledgercore/internal/adapter/http/dto"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// JournalService defines the behavior needed by JournalHandler.
type JournalService interface {
	CreateJournalEntry(ctx context.Context, tenantID string, input usecase.CreateJournalEntryInput) (*domain.JournalEntry, error)
	ReverseJournalEntry(ctx context.Context, tenantID, id string) (*domain.JournalEntry, error)
	GetJournalEntry(ctx context.Context, tenantID, id string) (*domain.JournalEntry, error)
	ListJournalEntries(ctx context.Context, tenantID string, filter domain.JournalFilter) ([]*domain.JournalEntry, error)
}

// JournalHandler handles journal entry requests.
type JournalHandler struct {
	journalUC JournalService
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journalUC JournalService) *JournalHandler {
	return &JournalHandler{journalUC: journalUC}
}

// Create posts a balanced journal entry.
func (h *JournalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateJournalEntryRequest
	if !decodeRequest(w, r, &req, false) {
		return
	}

	entry, err := h.journalUC.CreateJournalEntry(r.Context(), tenantID(r), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to post journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(entry))
}

// Get retrieves a journal entry with its lines.
func (h *JournalHandler) Get(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journalUC.GetJournalEntry(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to get journal entry", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.JournalEntryFromDomain(entry))
}

// List lists journal entries filtered by date range, status and source.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseDateRange(w, r)
	if !ok {
		return
	}

	filter := domain.JournalFilter{
		Status:     domain.JournalStatus(r.URL.Query().Get("status")),
		SourceType: domain.SourceType(r.URL.Query().Get("source_type")),
		Limit:      parseIntQuery(r, "limit", 50),
		Offset:     parseIntQuery(r, "offset", 0),
	}
	if !from.IsZero() {
		filter.From = &from
	}
	if !to.IsZero() {
		filter.To = &to
	}

	entries, err := h.journalUC.ListJournalEntries(r.Context(), tenantID(r), filter)
	if err != nil {
		writeDomainError(w, r, "failed to list journal entries", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entries": dto.JournalEntriesFromDomain(entries),
		"total":   len(entries),
	})
}

// Reverse posts the mirror entry of a posted journal entry.
func (h *JournalHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	reversal, err := h.journalUC.ReverseJournalEntry(r.Context(), tenantID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, "failed to reverse journal entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.JournalEntryFromDomain(reversal))
}
