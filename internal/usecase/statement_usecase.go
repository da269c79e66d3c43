package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// Statement kinds, used in cache keys and metric labels.
const (
	StatementTrialBalance    = "trial_balance"
	StatementBalanceSheet    = "balance_sheet"
	StatementIncomeStatement = "income_statement"
	StatementCashFlow        = "cash_flow"
)

// StatementUseCase derives financial statements from posted journal lines.
// Every statement reads inside one snapshot transaction.
type StatementUseCase struct {
	store     Store
	txManager TransactionManager
	cache     Cache
	cacheTTL  time.Duration
	cashFlow  domain.CashFlowConfig
	metrics   *metrics.Metrics
}

// NewStatementUseCase creates a new StatementUseCase. cache may be nil to
// disable caching; a non-positive ttl uses DefaultStatementCacheTTL.
func NewStatementUseCase(store Store, txManager TransactionManager, cache Cache, ttl time.Duration,
	cashFlow domain.CashFlowConfig, m *metrics.Metrics,
) *StatementUseCase {
	if ttl <= 0 {
		ttl = DefaultStatementCacheTTL
	}
	return &StatementUseCase{
		store:     store,
		txManager: txManager,
		cache:     cache,
		cacheTTL:  ttl,
		cashFlow:  cashFlow,
		metrics:   m,
	}
}

// TrialBalance sums debits and credits per account for entries dated within
// [start, end].
func (uc *StatementUseCase) TrialBalance(ctx context.Context, tenantID string, start, end time.Time) (*domain.TrialBalance, error) {
	start, end, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}
	return cachedStatement(ctx, uc, tenantID, StatementTrialBalance, start, end, func(ctx context.Context, tx Transaction, reports ReportRepository) (*domain.TrialBalance, error) {
		to := end.AddDate(0, 0, 1)
		activity, err := reports.AccountActivity(ctx, tx, &start, &to)
		if err != nil {
			return nil, err
		}
		return domain.BuildTrialBalance(start, end, activity), nil
	})
}

// BalanceSheet reports the position from all activity dated on or before asOf.
func (uc *StatementUseCase) BalanceSheet(ctx context.Context, tenantID string, asOf time.Time) (*domain.BalanceSheet, error) {
	if asOf.IsZero() {
		asOf = now()
	}
	asOf = domain.DateOnly(asOf)
	return cachedStatement(ctx, uc, tenantID, StatementBalanceSheet, asOf, asOf, func(ctx context.Context, tx Transaction, reports ReportRepository) (*domain.BalanceSheet, error) {
		to := asOf.AddDate(0, 0, 1)
		activity, err := reports.AccountActivity(ctx, tx, nil, &to)
		if err != nil {
			return nil, err
		}
		return domain.BuildBalanceSheet(asOf, activity), nil
	})
}

// IncomeStatement reports revenue and expenses for entries dated within
// [start, end].
func (uc *StatementUseCase) IncomeStatement(ctx context.Context, tenantID string, start, end time.Time) (*domain.IncomeStatement, error) {
	start, end, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}
	return cachedStatement(ctx, uc, tenantID, StatementIncomeStatement, start, end, func(ctx context.Context, tx Transaction, reports ReportRepository) (*domain.IncomeStatement, error) {
		to := end.AddDate(0, 0, 1)
		activity, err := reports.AccountActivity(ctx, tx, &start, &to)
		if err != nil {
			return nil, err
		}
		return domain.BuildIncomeStatement(start, end, activity), nil
	})
}

// CashFlowStatement builds the indirect-method statement for [start, end].
// Opening balances come from activity dated before start.
func (uc *StatementUseCase) CashFlowStatement(ctx context.Context, tenantID string, start, end time.Time) (*domain.CashFlowStatement, error) {
	start, end, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}
	return cachedStatement(ctx, uc, tenantID, StatementCashFlow, start, end, func(ctx context.Context, tx Transaction, reports ReportRepository) (*domain.CashFlowStatement, error) {
		opening, err := reports.AccountActivity(ctx, tx, nil, &start)
		if err != nil {
			return nil, err
		}
		to := end.AddDate(0, 0, 1)
		period, err := reports.AccountActivity(ctx, tx, &start, &to)
		if err != nil {
			return nil, err
		}
		return domain.BuildCashFlowStatement(start, end, opening, period, uc.cashFlow), nil
	})
}

func dateRange(start, end time.Time) (time.Time, time.Time, error) {
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	if end.Before(start) {
		return start, end, domain.ErrInvalidDateRange
	}
	return start, end, nil
}

// StatementCacheKey is the cache key of a statement for a tenant and range.
func StatementCacheKey(tenantID, kind string, from, to time.Time) string {
	return fmt.Sprintf("statements:%s:%s:%s:%s", tenantID, kind, from.Format(time.DateOnly), to.Format(time.DateOnly))
}

// cachedStatement serves a statement from the cache or builds it in a
// read-only transaction and stores it. Cache failures are logged and the
// statement is computed as if the cache were absent.
func cachedStatement[T any](ctx context.Context, uc *StatementUseCase, tenantID, kind string, from, to time.Time,
	build func(ctx context.Context, tx Transaction, reports ReportRepository) (*T, error),
) (*T, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	logger := zerolog.Ctx(ctx)
	key := StatementCacheKey(tenantID, kind, from, to)

	if uc.cache != nil {
		data, err := uc.cache.Get(ctx, key)
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("statement cache read failed")
		} else if data != nil {
			var cached T
			if err := json.Unmarshal(data, &cached); err == nil {
				if uc.metrics != nil {
					uc.metrics.StatementCacheHits.WithLabelValues(kind).Inc()
				}
				return &cached, nil
			}
		}
	}

	repos := uc.store.ForTenant(tenantID)
	var result *T
	err := runReadOnly(ctx, uc.txManager, func(ctx context.Context, tx Transaction) error {
		var err error
		result, err = build(ctx, tx, repos.Reports)
		return err
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.StatementsGenerated.WithLabelValues(kind).Inc()
	}

	if uc.cache != nil {
		data, err := json.Marshal(result)
		if err == nil {
			err = uc.cache.Set(ctx, key, data, uc.cacheTTL)
		}
		if err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("statement cache write failed")
		}
	}

	return result, nil
}
