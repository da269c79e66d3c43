package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/usecase"
)

// LoanRepository implements usecase.LoanRepository.
type LoanRepository struct {
	store    *Store
	tenantID string
}

// Create stores the loan and its schedule.
func (r *LoanRepository) Create(_ context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	l := copyLoan(*loan)
	l.TenantID = r.tenantID
	st.loans[l.ID] = *l
	return nil
}

// GetByID retrieves a committed loan with schedule and payments.
func (r *LoanRepository) GetByID(_ context.Context, id string) (*domain.Loan, error) {
	return r.get(r.store.snapshot(), id)
}

// GetForUpdate retrieves a loan inside tx.
func (r *LoanRepository) GetForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Loan, error) {
	st, err := r.store.readable(tx)
	if err != nil {
		return nil, err
	}
	return r.get(st, id)
}

// Update stores the loan's running totals. Schedule and payments are
// written through their own methods.
func (r *LoanRepository) Update(_ context.Context, tx usecase.Transaction, loan *domain.Loan) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	l, ok := st.loans[loan.ID]
	if !ok || l.TenantID != r.tenantID {
		return domain.ErrLoanNotFound
	}
	l.TotalPaid = loan.TotalPaid
	l.PrincipalPaid = loan.PrincipalPaid
	l.InterestPaid = loan.InterestPaid
	l.RemainingBalance = loan.RemainingBalance
	l.IsActive = loan.IsActive
	l.UpdatedAt = loan.UpdatedAt
	st.loans[l.ID] = l
	return nil
}

// UpdateScheduleEntry stores the paid state of one instalment.
func (r *LoanRepository) UpdateScheduleEntry(_ context.Context, tx usecase.Transaction, entry *domain.LoanScheduleEntry) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	l, ok := st.loans[entry.LoanID]
	if !ok || l.TenantID != r.tenantID {
		return domain.ErrLoanNotFound
	}
	l.Schedule = copySlice(l.Schedule)
	for i := range l.Schedule {
		if l.Schedule[i].ID == entry.ID {
			l.Schedule[i].PaidAmount = entry.PaidAmount
			l.Schedule[i].IsPaid = entry.IsPaid
			l.Schedule[i].PaidAt = entry.PaidAt
			st.loans[l.ID] = l
			return nil
		}
	}
	return domain.ErrLoanNotFound
}

// CreatePayment appends a payment to the loan.
func (r *LoanRepository) CreatePayment(_ context.Context, tx usecase.Transaction, payment *domain.LoanPayment) error {
	st, _, err := r.store.writable(tx)
	if err != nil {
		return err
	}
	l, ok := st.loans[payment.LoanID]
	if !ok || l.TenantID != r.tenantID {
		return domain.ErrLoanNotFound
	}
	l.Payments = append(copySlice(l.Payments), *payment)
	st.loans[l.ID] = l
	return nil
}

// List returns loans by start date, newest first.
func (r *LoanRepository) List(_ context.Context, activeOnly bool, limit, offset int) ([]*domain.Loan, error) {
	st := r.store.snapshot()
	var out []*domain.Loan
	for _, l := range st.loans {
		if l.TenantID != r.tenantID || (activeOnly && !l.IsActive) {
			continue
		}
		out = append(out, copyLoan(l))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].ID > out[j].ID
	})
	return page(out, limit, offset), nil
}

// UpcomingPayments returns unpaid instalments of active loans due on or
// before until, soonest first.
func (r *LoanRepository) UpcomingPayments(_ context.Context, until time.Time) ([]domain.UpcomingLoanPayment, error) {
	st := r.store.snapshot()
	var out []domain.UpcomingLoanPayment
	for _, l := range st.loans {
		if l.TenantID != r.tenantID || !l.IsActive {
			continue
		}
		for _, e := range l.Schedule {
			if e.IsPaid || e.DueDate.After(until) {
				continue
			}
			out = append(out, domain.UpcomingLoanPayment{Entry: e, LoanName: l.Name, LenderName: l.LenderName})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Entry.DueDate.Equal(out[j].Entry.DueDate) {
			return out[i].Entry.DueDate.Before(out[j].Entry.DueDate)
		}
		return out[i].Entry.LoanID < out[j].Entry.LoanID
	})
	return out, nil
}

func (r *LoanRepository) get(st *state, id string) (*domain.Loan, error) {
	l, ok := st.loans[id]
	if !ok || l.TenantID != r.tenantID {
		return nil, domain.ErrLoanNotFound
	}
	return copyLoan(l), nil
}
