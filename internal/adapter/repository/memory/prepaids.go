package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// PrepaidRepository implements usecase.PrepaidRepository.
type PrepaidRepository struct {
	store    *Store
	tenantID string
}

// Create stores the expense and its schedule.
func (r *PrepaidRepository) Create(_ context.Context, tx usecase.Transaction, expense *domain.PrepaidExpense) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	p := copyPrepaid(*expense)
	p.TenantID = r.tenantID
	st.prepaids[p.ID] = *p
	for _, a := range p.Schedule {
		st.amortizations[a.ID] = p.ID
	}
	return nil
}

// GetByID retrieves a committed expense.
func (r *PrepaidRepository) GetByID(_ context.Context, id string) (*domain.PrepaidExpense, error) {
	return r.get(r.store.snapshot(), id)
}

// GetForUpdate retrieves an expense inside tx.
func (r *PrepaidRepository) GetForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.PrepaidExpense, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}
	return r.get(st, id)
}

// List returns expenses by start date, newest first.
func (r *PrepaidRepository) List(_ context.Context, activeOnly bool, limit, offset int) ([]*domain.PrepaidExpense, error) {
	st := r.store.snapshot()
	var out []*domain.PrepaidExpense
	for _, p := range st.prepaids {
		if p.TenantID != r.tenantID || (activeOnly && !p.IsActive) {
			continue
		}
		out = append(out, copyPrepaid(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, limit, offset), nil
}

// GetAmortizationForUpdate retrieves one period inside tx.
func (r *PrepaidRepository) GetAmortizationForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.ExpenseAmortization, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}
	p, idx, err := r.findPeriod(st, id)
	if err != nil {
		return nil, err
	}
	a := p.Schedule[idx]
	return &a, nil
}

// MarkAmortizationProcessed stores the processed flag, time and journal link.
func (r *PrepaidRepository) MarkAmortizationProcessed(_ context.Context, tx usecase.Transaction, amortization *domain.ExpenseAmortization) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	p, idx, err := r.findPeriod(st, amortization.ID)
	if err != nil {
		return err
	}
	p.Schedule = copySlice(p.Schedule)
	p.Schedule[idx].IsProcessed = amortization.IsProcessed
	p.Schedule[idx].ProcessedAt = amortization.ProcessedAt
	p.Schedule[idx].JournalEntryID = amortization.JournalEntryID
	st.prepaids[p.ID] = p
	return nil
}

// UpdateRecognition stores the running totals and active flag.
func (r *PrepaidRepository) UpdateRecognition(_ context.Context, tx usecase.Transaction, expense *domain.PrepaidExpense) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	p, ok := st.prepaids[expense.ID]
	if !ok || p.TenantID != r.tenantID {
		return domain.ErrPrepaidExpenseNotFound
	}
	p.RecognizedAmount = expense.RecognizedAmount
	p.RemainingAmount = expense.RemainingAmount
	p.LastRecognizedAt = expense.LastRecognizedAt
	p.IsActive = expense.IsActive
	p.UpdatedAt = expense.UpdatedAt
	st.prepaids[p.ID] = p
	return nil
}

// ListPending returns unprocessed periods of active expenses dated on or
// before asOf, oldest first.
func (r *PrepaidRepository) ListPending(_ context.Context, asOf time.Time) ([]domain.PendingAmortization, error) {
	st := r.store.snapshot()
	var out []domain.PendingAmortization
	for _, p := range st.prepaids {
		if p.TenantID != r.tenantID || !p.IsActive {
			continue
		}
		for _, a := range p.Schedule {
			if a.IsProcessed || a.PeriodDate.After(asOf) {
				continue
			}
			out = append(out, domain.PendingAmortization{Amortization: a, Description: p.Description})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Amortization, out[j].Amortization
		if !a.PeriodDate.Equal(b.PeriodDate) {
			return a.PeriodDate.Before(b.PeriodDate)
		}
		if a.PrepaidExpenseID != b.PrepaidExpenseID {
			return a.PrepaidExpenseID < b.PrepaidExpenseID
		}
		return a.PeriodNumber < b.PeriodNumber
	})
	return out, nil
}

func (r *PrepaidRepository) get(st *state, id string) (*domain.PrepaidExpense, error) {
	p, ok := st.prepaids[id]
	if !ok || p.TenantID != r.tenantID {
		return nil, domain.ErrPrepaidExpenseNotFound
	}
	return copyPrepaid(p), nil
}

func (r *PrepaidRepository) findPeriod(st *state, id string) (domain.PrepaidExpense, int, error) {
	prepaidID, ok := st.amortizations[id]
	if !ok {
		return domain.PrepaidExpense{}, 0, domain.ErrAmortizationNotFound
	}
	p, ok := st.prepaids[prepaidID]
	if !ok || p.TenantID != r.tenantID {
		return domain.PrepaidExpense{}, 0, domain.ErrAmortizationNotFound
	}
	for i, a := range p.Schedule {
		if a.ID == id {
			return p, i, nil
		}
	}
	return domain.PrepaidExpense{}, 0, domain.ErrAmortizationNotFound
}
