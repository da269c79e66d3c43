package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// ReturnRepository implements usecase.ReturnRepository.
type ReturnRepository struct {
	store    *Store
	tenantID string
}

// Create stores a return with its items.
func (r *ReturnRepository) Create(_ context.Context, tx usecase.Transaction, ret *domain.Return) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	c := copyReturn(*ret)
	c.TenantID = r.tenantID
	st.returns[c.ID] = *c
	return nil
}

// GetByID retrieves a committed return.
func (r *ReturnRepository) GetByID(_ context.Context, id string) (*domain.Return, error) {
	ret, ok := r.store.snapshot().returns[id]
	if !ok || ret.TenantID != r.tenantID {
		return nil, domain.ErrReturnNotFound
	}
	return copyReturn(ret), nil
}

// ReportRepository implements usecase.ReportRepository.
type ReportRepository struct {
	store    *Store
	tenantID string
}

// AccountActivity sums lines of POSTED and REVERSED entries dated in
// [from, to) per account. Every tenant account is returned, ordered by code.
func (r *ReportRepository) AccountActivity(_ context.Context, tx usecase.Transaction, from, to *time.Time) ([]domain.AccountActivity, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}

	sums := map[string]*domain.AccountActivity{}
	var out []*domain.AccountActivity
	for _, a := range st.accounts {
		if a.TenantID != r.tenantID {
			continue
		}
		act := &domain.AccountActivity{Account: copyAccount(a), Debit: decimal.Zero, Credit: decimal.Zero}
		sums[a.ID] = act
		out = append(out, act)
	}

	for _, e := range st.journals {
		if e.TenantID != r.tenantID {
			continue
		}
		if from != nil && e.EntryDate.Before(*from) {
			continue
		}
		if to != nil && !e.EntryDate.Before(*to) {
			continue
		}
		for _, l := range e.Lines {
			if act, ok := sums[l.AccountID]; ok {
				act.Debit = act.Debit.Add(l.Debit)
				act.Credit = act.Credit.Add(l.Credit)
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Account.Code < out[j].Account.Code })
	result := make([]domain.AccountActivity, 0, len(out))
	for _, act := range out {
		result = append(result, *act)
	}
	return result, nil
}
