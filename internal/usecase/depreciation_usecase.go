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

// DepreciationAccountCodes are the chart codes depreciation posts against.
type DepreciationAccountCodes struct {
	Expense     string
	Accumulated string
}

// DefaultDepreciationAccountCodes matches the standard chart of accounts.
func DefaultDepreciationAccountCodes() DepreciationAccountCodes {
	return DepreciationAccountCodes{Expense: "6070", Accumulated: "1590"}
}

// DepreciationUseCase projects fixed-asset depreciation and books period
// charges.
type DepreciationUseCase struct {
	store     Store
	txManager TransactionManager
	retrier   Retrier
	idGen     IDGenerator
	journals  *JournalUseCase
	codes     DepreciationAccountCodes
	metrics   *metrics.Metrics
}

// NewDepreciationUseCase creates a new DepreciationUseCase. retrier may be nil.
func NewDepreciationUseCase(store Store, txManager TransactionManager, retrier Retrier, idGen IDGenerator,
	journals *JournalUseCase, codes DepreciationAccountCodes, m *metrics.Metrics,
) *DepreciationUseCase {
	return &DepreciationUseCase{
		store:     store,
		txManager: txManager,
		retrier:   retrier,
		idGen:     idGen,
		journals:  journals,
		codes:     codes,
		metrics:   m,
	}
}

// DepreciationScheduleInput describes an asset to project. Periods <= 0
// runs to the end of the useful life. Units lists the units produced per
// period for units-of-production.
type DepreciationScheduleInput struct {
	Asset   domain.FixedAsset
	Periods int
	Units   []decimal.Decimal
}

// DepreciationScheduleResult is a projected schedule and its total.
type DepreciationScheduleResult struct {
	Periods           []domain.DepreciationPeriod
	TotalDepreciation decimal.Decimal
}

// Schedule projects the asset's depreciation. Nothing is stored.
func (uc *DepreciationUseCase) Schedule(input DepreciationScheduleInput) (*DepreciationScheduleResult, error) {
	periods, err := domain.DepreciationSchedule(input.Asset, input.Periods, input.Units)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, p := range periods {
		total = total.Add(p.Depreciation)
	}
	return &DepreciationScheduleResult{Periods: periods, TotalDepreciation: total}, nil
}

// PostDepreciationInput is one period's charge for an asset.
// AssetReference identifies the asset in the entry's reference.
type PostDepreciationInput struct {
	AssetName      string
	AssetReference string
	Amount         decimal.Decimal
	EntryDate      time.Time
}

// PostDepreciation books Dr depreciation expense, Cr accumulated
// depreciation for the amount.
func (uc *DepreciationUseCase) PostDepreciation(ctx context.Context, tenantID string, input PostDepreciationInput) (*domain.JournalEntry, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	name := strings.TrimSpace(input.AssetName)
	if name == "" {
		return nil, domain.ErrAssetNameRequired
	}

	repos := uc.store.ForTenant(tenantID)
	expenseID, err := uc.lookup(ctx, repos, uc.codes.Expense)
	if err != nil {
		return nil, err
	}
	accumulatedID, err := uc.lookup(ctx, repos, uc.codes.Accumulated)
	if err != nil {
		return nil, err
	}
	lines, err := domain.DepreciationLines(expenseID, accumulatedID, name, input.Amount)
	if err != nil {
		return nil, err
	}

	date := input.EntryDate
	if date.IsZero() {
		date = now()
	}

	started := time.Now()
	var entry *domain.JournalEntry
	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		posted, err := uc.journals.post(ctx, tx, repos, postRequest{
			entryDate:   domain.DateOnly(date),
			description: "Depreciation: " + name,
			sourceType:  domain.SourceDepreciation,
			reference:   strings.TrimSpace(input.AssetReference),
			lines:       lines,
		})
		if err != nil {
			return err
		}
		entry = posted

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx, postedEvent(tenantID, posted),
			domain.NewAuditLog(tenantID, domain.AuditActionDepreciationPost, domain.AggregateTypeJournalEntry, posted.ID, nil, posted, posted.CreatedAt),
		)
	})
	if err != nil {
		return nil, err
	}

	uc.journals.observePosted(entry, started)
	if uc.metrics != nil {
		uc.metrics.DocumentsPosted.WithLabelValues(string(domain.SourceDepreciation)).Inc()
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("asset", name).
		Str("amount", input.Amount.String()).
		Str("journal_number", entry.JournalNumber).
		Msg("depreciation posted")

	return entry, nil
}

func (uc *DepreciationUseCase) lookup(ctx context.Context, repos Repositories, code string) (string, error) {
	if code == "" {
		return "", nil
	}
	acc, err := repos.Accounts.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve account %s: %w", code, err)
	}
	return acc.ID, nil
}
