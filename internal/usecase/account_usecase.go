package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// AccountUseCase handles chart-of-accounts business logic.
type AccountUseCase struct {
	store     Store
	txManager TransactionManager
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(store Store, txManager TransactionManager, idGen IDGenerator, m *metrics.Metrics) *AccountUseCase {
	return &AccountUseCase{
		store:     store,
		txManager: txManager,
		idGen:     idGen,
		metrics:   m,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Code          string
	Name          string
	Description   string
	Type          domain.AccountType
	Category      domain.AccountCategory
	NormalBalance domain.NormalBalance
	ParentID      *string
}

// CreateAccount creates a new account. The normal balance defaults to the
// type's natural side; a parent must belong to the tenant and share the type.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, tenantID string, input CreateAccountInput) (*domain.Account, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	nb := input.NormalBalance
	if nb == "" {
		nb = input.Type.DefaultNormalBalance()
	}

	ts := now()
	account := &domain.Account{
		ID:            uc.idGen.Generate(),
		TenantID:      tenantID,
		Code:          strings.TrimSpace(input.Code),
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Type:          input.Type,
		Category:      input.Category,
		NormalBalance: nb,
		Balance:       decimal.Zero,
		ParentID:      input.ParentID,
		IsActive:      true,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if err := account.Validate(); err != nil {
		return nil, err
	}

	repos := uc.store.ForTenant(tenantID)

	if account.ParentID != nil {
		parent, err := repos.Accounts.GetByID(ctx, *account.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				return nil, domain.ErrInvalidParentAccount
			}
			return nil, err
		}
		if parent.Type != account.Type {
			return nil, domain.ErrInvalidParentAccount
		}
	}

	err := runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		if err := repos.Accounts.Create(ctx, tx, account); err != nil {
			return err
		}
		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypeAccount, account.ID, domain.EventTypeAccountCreated, map[string]any{
				"account_id": account.ID,
				"code":       account.Code,
				"type":       account.Type,
			}, ts),
			domain.NewAuditLog(tenantID, domain.AuditActionAccountCreate, domain.AggregateTypeAccount, account.ID, nil, account, ts),
		)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Inc()
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	return uc.store.ForTenant(tenantID).Accounts.GetByID(ctx, id)
}

// GetAccountByCode retrieves an account by its chart code.
func (uc *AccountUseCase) GetAccountByCode(ctx context.Context, tenantID, code string) (*domain.Account, error) {
	return uc.store.ForTenant(tenantID).Accounts.GetByCode(ctx, code)
}

// ListAccounts lists accounts ordered by code.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, tenantID string, filter domain.AccountFilter) ([]*domain.Account, error) {
	filter.Limit, filter.Offset, _ = domain.ValidatePagination(filter.Limit, filter.Offset)
	return uc.store.ForTenant(tenantID).Accounts.List(ctx, filter)
}

// AccountTree returns every account of the tenant arranged by parent.
func (uc *AccountUseCase) AccountTree(ctx context.Context, tenantID string) ([]*domain.AccountNode, error) {
	accounts, err := uc.store.ForTenant(tenantID).Accounts.List(ctx, domain.AccountFilter{Limit: 0})
	if err != nil {
		return nil, err
	}
	return domain.BuildAccountTree(accounts), nil
}

// DeactivateAccount marks an account inactive. Accounts are never deleted
// because journal lines reference them.
func (uc *AccountUseCase) DeactivateAccount(ctx context.Context, tenantID, id string) (*domain.Account, error) {
	repos := uc.store.ForTenant(tenantID)

	var account *domain.Account
	err := runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		locked, err := repos.Accounts.GetByIDsForUpdate(ctx, tx, []string{id})
		if err != nil {
			return err
		}
		if len(locked) != 1 {
			return domain.ErrAccountNotFound
		}
		account = locked[0]
		if !account.IsActive {
			return nil
		}

		before := *account
		ts := now()
		if err := repos.Accounts.SetActive(ctx, tx, id, false, ts); err != nil {
			return err
		}
		account.IsActive = false
		account.UpdatedAt = ts

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx, nil,
			domain.NewAuditLog(tenantID, domain.AuditActionAccountDeactivate, domain.AggregateTypeAccount, id, before, account, ts))
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// SeedResult reports what SeedStandardChart did.
type SeedResult struct {
	Created []*domain.Account
	Skipped []string
}

// SeedStandardChart creates the embedded standard chart for the tenant.
// Codes that already exist are skipped; parents are linked by code.
func (uc *AccountUseCase) SeedStandardChart(ctx context.Context, tenantID string) (*SeedResult, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	template, err := domain.StandardChart()
	if err != nil {
		return nil, err
	}

	repos := uc.store.ForTenant(tenantID)
	result := &SeedResult{}

	err = runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		result.Created, result.Skipped = nil, nil
		ids := make(map[string]string, len(template))
		ts := now()

		for _, ta := range template {
			existing, err := repos.Accounts.GetByCode(ctx, ta.Code)
			if err == nil {
				ids[ta.Code] = existing.ID
				result.Skipped = append(result.Skipped, ta.Code)
				continue
			}
			if !errors.Is(err, domain.ErrAccountNotFound) {
				return err
			}

			account := ta.Account()
			account.ID = uc.idGen.Generate()
			account.TenantID = tenantID
			account.CreatedAt = ts
			account.UpdatedAt = ts
			if parentID, ok := ids[ta.Parent]; ok {
				account.ParentID = &parentID
			}

			if err := repos.Accounts.Create(ctx, tx, account); err != nil {
				return err
			}
			ids[ta.Code] = account.ID
			result.Created = append(result.Created, account)
		}

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx, nil,
			domain.NewAuditLog(tenantID, domain.AuditActionAccountCreate, "chart", tenantID, nil,
				map[string]any{"created": len(result.Created), "skipped": len(result.Skipped)}, ts))
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsCreated.Add(float64(len(result.Created)))
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Int("created", len(result.Created)).
		Int("skipped", len(result.Skipped)).
		Msg("chart of accounts seeded")

	return result, nil
}
