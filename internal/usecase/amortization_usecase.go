package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// AmortizationUseCase manages prepaid expenses and their monthly recognition.
type AmortizationUseCase struct {
	store     Store
	txManager TransactionManager
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewAmortizationUseCase creates a new AmortizationUseCase.
func NewAmortizationUseCase(store Store, txManager TransactionManager, idGen IDGenerator, m *metrics.Metrics) *AmortizationUseCase {
	return &AmortizationUseCase{
		store:     store,
		txManager: txManager,
		idGen:     idGen,
		metrics:   m,
	}
}

// CreatePrepaidExpenseInput represents input for creating a prepaid expense.
type CreatePrepaidExpenseInput struct {
	Description      string
	VendorName       string
	ReferenceNumber  string
	TotalAmount      decimal.Decimal
	StartDate        time.Time
	EndDate          time.Time
	ExpenseAccountID *string
	AssetAccountID   *string
	Notes            string
}

// CreatePrepaidExpense stores the expense together with its full schedule.
func (uc *AmortizationUseCase) CreatePrepaidExpense(ctx context.Context, tenantID string, input CreatePrepaidExpenseInput) (*domain.PrepaidExpense, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	expense, err := domain.NewPrepaidExpense(
		strings.TrimSpace(input.Description),
		input.TotalAmount,
		domain.DateOnly(input.StartDate),
		domain.DateOnly(input.EndDate),
	)
	if err != nil {
		return nil, err
	}

	repos := uc.store.ForTenant(tenantID)
	for _, id := range []*string{input.ExpenseAccountID, input.AssetAccountID} {
		if id == nil {
			continue
		}
		if _, err := repos.Accounts.GetByID(ctx, *id); err != nil {
			return nil, err
		}
	}

	ts := now()
	expense.ID = uc.idGen.Generate()
	expense.TenantID = tenantID
	expense.VendorName = input.VendorName
	expense.ReferenceNumber = input.ReferenceNumber
	expense.ExpenseAccountID = input.ExpenseAccountID
	expense.AssetAccountID = input.AssetAccountID
	expense.Notes = input.Notes
	expense.CreatedAt = ts
	expense.UpdatedAt = ts
	for i := range expense.Schedule {
		expense.Schedule[i].ID = uc.idGen.Generate()
		expense.Schedule[i].PrepaidExpenseID = expense.ID
	}

	err = runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		if err := repos.Prepaids.Create(ctx, tx, expense); err != nil {
			return err
		}
		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypePrepaid, expense.ID, domain.EventTypePrepaidCreated, map[string]any{
				"prepaid_expense_id": expense.ID,
				"total_amount":       expense.TotalAmount.String(),
				"period_months":      expense.PeriodMonths,
			}, ts),
			domain.NewAuditLog(tenantID, domain.AuditActionPrepaidCreate, domain.AggregateTypePrepaid, expense.ID, nil, expense, ts),
		)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PrepaidsCreated.Inc()
	}

	return expense, nil
}

// GetPrepaidExpense returns the expense with its schedule ordered by period.
func (uc *AmortizationUseCase) GetPrepaidExpense(ctx context.Context, tenantID, id string) (*domain.PrepaidExpense, error) {
	return uc.store.ForTenant(tenantID).Prepaids.GetByID(ctx, id)
}

// ListPrepaidExpenses lists expenses, optionally only those still recognising.
func (uc *AmortizationUseCase) ListPrepaidExpenses(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]*domain.PrepaidExpense, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.store.ForTenant(tenantID).Prepaids.List(ctx, activeOnly, limit, offset)
}

// ListPendingAmortizations returns unprocessed periods due on or before asOf.
func (uc *AmortizationUseCase) ListPendingAmortizations(ctx context.Context, tenantID string, asOf time.Time) ([]domain.PendingAmortization, error) {
	return uc.store.ForTenant(tenantID).Prepaids.ListPending(ctx, domain.DateOnly(asOf))
}

// ProcessAmortization recognises one period. journalEntryID optionally links
// a journal entry the caller already posted.
func (uc *AmortizationUseCase) ProcessAmortization(ctx context.Context, tenantID, amortizationID string, journalEntryID *string) (*domain.AmortizationResult, error) {
	repos := uc.store.ForTenant(tenantID)

	if journalEntryID != nil {
		if _, err := repos.Journals.GetByID(ctx, *journalEntryID); err != nil {
			return nil, err
		}
	}

	var result *domain.AmortizationResult
	err := runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		period, err := repos.Prepaids.GetAmortizationForUpdate(ctx, tx, amortizationID)
		if err != nil {
			return err
		}
		if period.IsProcessed {
			return domain.ErrAlreadyProcessed
		}

		expense, err := repos.Prepaids.GetForUpdate(ctx, tx, period.PrepaidExpenseID)
		if err != nil {
			return err
		}

		ts := now()
		if err := period.MarkProcessed(journalEntryID, ts); err != nil {
			return err
		}
		if err := repos.Prepaids.MarkAmortizationProcessed(ctx, tx, period); err != nil {
			return err
		}

		before := expense.Clone()
		expense.Recognize(*period, ts)
		if err := repos.Prepaids.UpdateRecognition(ctx, tx, expense); err != nil {
			return err
		}

		result = &domain.AmortizationResult{
			AmortizationID:   period.ID,
			PrepaidExpenseID: expense.ID,
			Description:      expense.Description,
			Amount:           period.Amount,
		}

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypePrepaid, expense.ID, domain.EventTypeAmortizationProcessed, domain.AmortizationProcessedEvent{
				AmortizationID:   period.ID,
				PrepaidExpenseID: expense.ID,
				Amount:           period.Amount.String(),
				RemainingAmount:  expense.RemainingAmount.String(),
			}, ts),
			domain.NewAuditLog(tenantID, domain.AuditActionAmortizationProcess, domain.AggregateTypePrepaid, expense.ID, before, expense, ts),
		)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AmortizationsProcessed.Inc()
	}

	zerolog.Ctx(ctx).Debug().
		Str("tenant_id", tenantID).
		Str("amortization_id", amortizationID).
		Str("amount", result.Amount.String()).
		Msg("amortization processed")

	return result, nil
}

// ProcessAllPending recognises every unprocessed period dated on or before
// asOf, oldest first. Each period commits on its own; a period processed
// concurrently is skipped. On failure the periods already committed are
// returned along with the error.
func (uc *AmortizationUseCase) ProcessAllPending(ctx context.Context, tenantID string, asOf time.Time) ([]domain.AmortizationResult, error) {
	pending, err := uc.ListPendingAmortizations(ctx, tenantID, asOf)
	if err != nil {
		return nil, err
	}

	results := make([]domain.AmortizationResult, 0, len(pending))
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := uc.ProcessAmortization(ctx, tenantID, p.Amortization.ID, nil)
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			continue
		}
		if err != nil {
			return results, fmt.Errorf("process amortization %s: %w", p.Amortization.ID, err)
		}
		results = append(results, *result)
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Time("as_of", asOf).
		Int("processed", len(results)).
		Msg("pending amortizations processed")

	return results, nil
}
