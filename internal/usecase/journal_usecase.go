package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// JournalUseCase posts and reverses general journal entries.
type JournalUseCase struct {
	store     Store
	txManager TransactionManager
	retrier   Retrier
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewJournalUseCase creates a new JournalUseCase. retrier may be nil.
func NewJournalUseCase(store Store, txManager TransactionManager, retrier Retrier, idGen IDGenerator, m *metrics.Metrics) *JournalUseCase {
	return &JournalUseCase{
		store:     store,
		txManager: txManager,
		retrier:   retrier,
		idGen:     idGen,
		metrics:   m,
	}
}

// JournalLineInput is one requested line.
type JournalLineInput struct {
	AccountID   string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// CreateJournalEntryInput represents input for posting an entry.
type CreateJournalEntryInput struct {
	EntryDate   time.Time
	Description string
	SourceType  domain.SourceType
	Reference   string
	Lines       []JournalLineInput
}

// postRequest is a validated entry ready to be written inside a transaction.
type postRequest struct {
	entryDate    time.Time
	description  string
	sourceType   domain.SourceType
	reference    string
	lines        []domain.JournalLine
	reversalOfID *string
}

// CreateJournalEntry validates and posts a balanced entry. The entry, its
// lines and every balance change commit together or not at all.
func (uc *JournalUseCase) CreateJournalEntry(ctx context.Context, tenantID string, input CreateJournalEntryInput) (*domain.JournalEntry, error) {
	req, err := buildPostRequest(input)
	if err != nil {
		uc.countError(err)
		return nil, err
	}
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	repos := uc.store.ForTenant(tenantID)
	started := time.Now()

	var entry *domain.JournalEntry
	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		posted, err := uc.post(ctx, tx, repos, req)
		if err != nil {
			return err
		}
		entry = posted

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx,
			postedEvent(tenantID, posted),
			domain.NewAuditLog(tenantID, domain.AuditActionJournalCreate, domain.AggregateTypeJournalEntry, posted.ID, nil, posted, posted.CreatedAt),
		)
	})
	if err != nil {
		uc.countError(err)
		return nil, err
	}

	uc.observePosted(entry, started)

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("journal_entry_id", entry.ID).
		Str("journal_number", entry.JournalNumber).
		Msg("journal entry posted")

	return entry, nil
}

// ReverseJournalEntry posts the counter-entry of id and marks id REVERSED.
// The original lines are left untouched. Returns the new reversal entry.
func (uc *JournalUseCase) ReverseJournalEntry(ctx context.Context, tenantID, id string) (*domain.JournalEntry, error) {
	repos := uc.store.ForTenant(tenantID)
	started := time.Now()

	var reversal *domain.JournalEntry
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		original, err := repos.Journals.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := original.CanReverse(); err != nil {
			return err
		}

		posted, err := uc.post(ctx, tx, repos, postRequest{
			entryDate:    domain.DateOnly(now()),
			description:  original.ReversalDescription(),
			sourceType:   original.SourceType,
			reference:    original.JournalNumber,
			lines:        original.ReversalLines(),
			reversalOfID: &original.ID,
		})
		if err != nil {
			return err
		}
		reversal = posted

		if err := repos.Journals.MarkReversed(ctx, tx, original.ID, posted.ID, posted.CreatedAt); err != nil {
			return err
		}

		before := *original
		original.Status = domain.JournalStatusReversed
		original.ReversedByID = &posted.ID
		original.ReversedAt = &posted.CreatedAt

		rec := recorder{repos: repos, idGen: uc.idGen}
		if err := rec.record(ctx, tx, postedEvent(tenantID, posted), nil); err != nil {
			return err
		}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypeJournalEntry, original.ID, domain.EventTypeJournalReversed, domain.JournalReversedEvent{
				OriginalEntryID: original.ID,
				ReversalEntryID: posted.ID,
				JournalNumber:   posted.JournalNumber,
			}, posted.CreatedAt),
			domain.NewAuditLog(tenantID, domain.AuditActionJournalReverse, domain.AggregateTypeJournalEntry, original.ID, before, original, posted.CreatedAt),
		)
	})
	if err != nil {
		uc.countError(err)
		return nil, err
	}

	uc.observePosted(reversal, started)
	if uc.metrics != nil {
		uc.metrics.JournalsReversed.Inc()
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("journal_entry_id", id).
		Str("reversal_id", reversal.ID).
		Msg("journal entry reversed")

	return reversal, nil
}

// GetJournalEntry retrieves an entry with its lines.
func (uc *JournalUseCase) GetJournalEntry(ctx context.Context, tenantID, id string) (*domain.JournalEntry, error) {
	return uc.store.ForTenant(tenantID).Journals.GetByID(ctx, id)
}

// ListJournalEntries lists entries newest first.
func (uc *JournalUseCase) ListJournalEntries(ctx context.Context, tenantID string, filter domain.JournalFilter) ([]*domain.JournalEntry, error) {
	filter.Limit, filter.Offset, _ = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.store.ForTenant(tenantID).Journals.List(ctx, filter)
}

func buildPostRequest(input CreateJournalEntryInput) (postRequest, error) {
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return postRequest{}, domain.ErrDescriptionRequired
	}

	sourceType := input.SourceType
	if sourceType == "" {
		sourceType = domain.SourceManual
	}
	if !sourceType.IsValid() {
		return postRequest{}, domain.ErrInvalidSourceType
	}

	lines := make([]domain.JournalLine, 0, len(input.Lines))
	for _, l := range input.Lines {
		lines = append(lines, domain.JournalLine{
			AccountID:   strings.TrimSpace(l.AccountID),
			Debit:       l.Debit,
			Credit:      l.Credit,
			Description: l.Description,
		})
	}
	if err := domain.ValidateLines(lines); err != nil {
		return postRequest{}, err
	}

	entryDate := input.EntryDate
	if entryDate.IsZero() {
		entryDate = now()
	}

	return postRequest{
		entryDate:   domain.DateOnly(entryDate),
		description: description,
		sourceType:  sourceType,
		reference:   input.Reference,
		lines:       lines,
	}, nil
}

// post writes an entry and applies its balance deltas inside tx. Accounts
// are locked in sorted id order so concurrent posts cannot deadlock.
// Reversals may touch deactivated accounts.
func (uc *JournalUseCase) post(ctx context.Context, tx Transaction, repos Repositories, req postRequest) (*domain.JournalEntry, error) {
	if err := domain.ValidateLines(req.lines); err != nil {
		return nil, err
	}

	ids := uniqueAccountIDs(req.lines)
	locked, err := repos.Accounts.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	accounts := make(map[string]*domain.Account, len(locked))
	for _, a := range locked {
		accounts[a.ID] = a
	}
	for _, id := range ids {
		acc, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
		}
		if !acc.IsActive && req.reversalOfID == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrAccountInactive, acc.Code)
		}
	}

	seq, err := repos.Sequences.Next(ctx, tx, domain.JournalNumberPrefix)
	if err != nil {
		return nil, err
	}

	ts := now()
	debit, credit := domain.SumLines(req.lines)
	entry := &domain.JournalEntry{
		ID:            uc.idGen.Generate(),
		TenantID:      repos.TenantID,
		JournalNumber: domain.FormatDocumentNumber(domain.JournalNumberPrefix, seq),
		EntryDate:     req.entryDate,
		Description:   req.description,
		SourceType:    req.sourceType,
		Reference:     req.reference,
		Status:        domain.JournalStatusPosted,
		TotalDebit:    debit,
		TotalCredit:   credit,
		ReversalOfID:  req.reversalOfID,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	for i, l := range req.lines {
		l.ID = uc.idGen.Generate()
		l.JournalEntryID = entry.ID
		l.LineNumber = i + 1
		entry.Lines = append(entry.Lines, l)
	}

	if err := repos.Journals.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	deltas := make(map[string]decimal.Decimal, len(ids))
	for _, l := range entry.Lines {
		deltas[l.AccountID] = deltas[l.AccountID].Add(accounts[l.AccountID].BalanceDelta(l.Debit, l.Credit))
	}
	for _, id := range ids {
		delta := deltas[id]
		if delta.IsZero() {
			continue
		}
		if err := repos.Accounts.ApplyDelta(ctx, tx, id, delta, ts); err != nil {
			return nil, err
		}
		accounts[id].Balance = accounts[id].Balance.Add(delta)
	}

	return entry, nil
}

func uniqueAccountIDs(lines []domain.JournalLine) []string {
	seen := make(map[string]bool, len(lines))
	var ids []string
	for _, l := range lines {
		if !seen[l.AccountID] {
			seen[l.AccountID] = true
			ids = append(ids, l.AccountID)
		}
	}
	sort.Strings(ids)
	return ids
}

func postedEvent(tenantID string, e *domain.JournalEntry) *domain.OutboxEvent {
	payload := domain.JournalPostedEvent{
		JournalEntryID: e.ID,
		JournalNumber:  e.JournalNumber,
		EntryDate:      e.EntryDate.Format(time.DateOnly),
		SourceType:     string(e.SourceType),
		TotalDebit:     e.TotalDebit.String(),
		TotalCredit:    e.TotalCredit.String(),
	}
	if e.ReversalOfID != nil {
		payload.ReversalOfID = *e.ReversalOfID
	}
	return domain.NewEvent(tenantID, domain.AggregateTypeJournalEntry, e.ID, domain.EventTypeJournalPosted, payload, e.CreatedAt)
}

func (uc *JournalUseCase) observePosted(e *domain.JournalEntry, started time.Time) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.JournalsPosted.WithLabelValues(string(e.SourceType)).Inc()
	uc.metrics.JournalDuration.Observe(time.Since(started).Seconds())
	uc.metrics.JournalAmount.Observe(e.TotalDebit.InexactFloat64())
}

func (uc *JournalUseCase) countError(err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.JournalErrors.WithLabelValues(errorType(err)).Inc()
}

// errorType buckets an error for metric labels.
func errorType(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnbalancedEntry):
		return "unbalanced"
	case domain.IsNotFound(err):
		return "not_found"
	case domain.IsConflict(err):
		return "conflict"
	case domain.IsValidation(err):
		return "validation"
	default:
		return "internal"
	}
}
