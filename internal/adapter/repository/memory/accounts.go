package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store    *Store
	tenantID string
}

// Create stores a new account. Codes are unique per tenant.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	codeKey := tenantKey(r.tenantID, account.Code)
	if _, exists := st.accountCodes[codeKey]; exists {
		return domain.ErrDuplicateAccountCode
	}
	a := *account
	a.TenantID = r.tenantID
	st.accounts[a.ID] = a
	st.accountCodes[codeKey] = a.ID
	return nil
}

// GetByID retrieves a committed account.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	return r.get(r.store.snapshot(), id)
}

// GetByCode retrieves a committed account by code.
func (r *AccountRepository) GetByCode(_ context.Context, code string) (*domain.Account, error) {
	st := r.store.snapshot()
	id, ok := st.accountCodes[tenantKey(r.tenantID, code)]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return r.get(st, id)
}

// GetByIDsForUpdate returns the accounts that exist, in the order given.
// The transaction already holds the store's write lock.
func (r *AccountRepository) GetByIDsForUpdate(_ context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}
	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		if a, err := r.get(st, id); err == nil {
			accounts = append(accounts, a)
		}
	}
	return accounts, nil
}

// ApplyDelta adds delta to the balance and bumps the version.
func (r *AccountRepository) ApplyDelta(_ context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	a, ok := st.accounts[id]
	if !ok || a.TenantID != r.tenantID {
		return domain.ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(delta)
	a.Version++
	a.UpdatedAt = updatedAt
	st.accounts[id] = a
	return nil
}

// SetActive toggles the active flag.
func (r *AccountRepository) SetActive(_ context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	a, ok := st.accounts[id]
	if !ok || a.TenantID != r.tenantID {
		return domain.ErrAccountNotFound
	}
	a.IsActive = active
	a.Version++
	a.UpdatedAt = updatedAt
	st.accounts[id] = a
	return nil
}

// List returns accounts ordered by code.
func (r *AccountRepository) List(_ context.Context, filter domain.AccountFilter) ([]*domain.Account, error) {
	st := r.store.snapshot()
	var out []*domain.Account
	for _, a := range st.accounts {
		if a.TenantID != r.tenantID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.ActiveOnly && !a.IsActive {
			continue
		}
		out = append(out, copyAccount(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *AccountRepository) get(st *state, id string) (*domain.Account, error) {
	a, ok := st.accounts[id]
	if !ok || a.TenantID != r.tenantID {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(a), nil
}
