package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
)

// LoanUseCase manages loans, their schedules and payments.
type LoanUseCase struct {
	store     Store
	txManager TransactionManager
	retrier   Retrier
	idGen     IDGenerator
	metrics   *metrics.Metrics
}

// NewLoanUseCase creates a new LoanUseCase. retrier may be nil.
func NewLoanUseCase(store Store, txManager TransactionManager, retrier Retrier, idGen IDGenerator, m *metrics.Metrics) *LoanUseCase {
	return &LoanUseCase{
		store:     store,
		txManager: txManager,
		retrier:   retrier,
		idGen:     idGen,
		metrics:   m,
	}
}

// CreateLoanInput represents input for creating a loan.
type CreateLoanInput struct {
	Name              string
	LenderName        string
	ReferenceNumber   string
	PrincipalAmount   decimal.Decimal
	InterestRate      decimal.Decimal
	InterestType      domain.InterestType
	StartDate         time.Time
	TermMonths        int
	PaymentFrequency  domain.PaymentFrequency
	LoanAccountID     *string
	InterestAccountID *string
	Notes             string
}

// RecordLoanPaymentInput represents a payment made against a loan.
type RecordLoanPaymentInput struct {
	PaymentDate    time.Time
	Amount         decimal.Decimal
	JournalEntryID *string
	Notes          string
}

// CreateLoan derives the payment, total interest and schedule and stores them.
func (uc *LoanUseCase) CreateLoan(ctx context.Context, tenantID string, input CreateLoanInput) (*domain.Loan, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}

	loan, err := domain.NewLoan(
		strings.TrimSpace(input.Name),
		input.PrincipalAmount,
		input.InterestRate,
		input.InterestType,
		domain.DateOnly(input.StartDate),
		input.TermMonths,
		input.PaymentFrequency,
	)
	if err != nil {
		return nil, err
	}

	repos := uc.store.ForTenant(tenantID)
	for _, id := range []*string{input.LoanAccountID, input.InterestAccountID} {
		if id == nil {
			continue
		}
		if _, err := repos.Accounts.GetByID(ctx, *id); err != nil {
			return nil, err
		}
	}

	ts := now()
	loan.ID = uc.idGen.Generate()
	loan.TenantID = tenantID
	loan.LenderName = input.LenderName
	loan.ReferenceNumber = input.ReferenceNumber
	loan.LoanAccountID = input.LoanAccountID
	loan.InterestAccountID = input.InterestAccountID
	loan.Notes = input.Notes
	loan.CreatedAt = ts
	loan.UpdatedAt = ts
	for i := range loan.Schedule {
		loan.Schedule[i].ID = uc.idGen.Generate()
		loan.Schedule[i].LoanID = loan.ID
	}

	err = runInTx(ctx, uc.txManager, nil, func(ctx context.Context, tx Transaction) error {
		if err := repos.Loans.Create(ctx, tx, loan); err != nil {
			return err
		}
		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypeLoan, loan.ID, domain.EventTypeLoanCreated, map[string]any{
				"loan_id":          loan.ID,
				"principal_amount": loan.PrincipalAmount.String(),
				"monthly_payment":  loan.MonthlyPayment.String(),
				"term_months":      loan.TermMonths,
			}, ts),
			domain.NewAuditLog(tenantID, domain.AuditActionLoanCreate, domain.AggregateTypeLoan, loan.ID, nil, loan, ts),
		)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LoansCreated.Inc()
	}

	return loan, nil
}

// GetLoan returns the loan with its schedule and payments.
func (uc *LoanUseCase) GetLoan(ctx context.Context, tenantID, id string) (*domain.Loan, error) {
	return uc.store.ForTenant(tenantID).Loans.GetByID(ctx, id)
}

// ListLoans lists loans, optionally only those with a balance left.
func (uc *LoanUseCase) ListLoans(ctx context.Context, tenantID string, activeOnly bool, limit, offset int) ([]*domain.Loan, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.store.ForTenant(tenantID).Loans.List(ctx, activeOnly, limit, offset)
}

// RecordLoanPayment applies a payment to the loan and its earliest unpaid
// instalments in one transaction.
func (uc *LoanUseCase) RecordLoanPayment(ctx context.Context, tenantID, loanID string, input RecordLoanPaymentInput) (*domain.LoanPayment, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	paymentDate := input.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = now()
	}
	paymentDate = domain.DateOnly(paymentDate)

	repos := uc.store.ForTenant(tenantID)
	if input.JournalEntryID != nil {
		if _, err := repos.Journals.GetByID(ctx, *input.JournalEntryID); err != nil {
			return nil, err
		}
	}

	var payment *domain.LoanPayment
	err := runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		loan, err := repos.Loans.GetForUpdate(ctx, tx, loanID)
		if err != nil {
			return err
		}

		before := loan.Clone()
		applied, touched, err := loan.ApplyPayment(paymentDate, input.Amount, input.JournalEntryID, input.Notes)
		if err != nil {
			return err
		}

		ts := now()
		applied.ID = uc.idGen.Generate()
		applied.CreatedAt = ts
		loan.UpdatedAt = ts

		if err := repos.Loans.CreatePayment(ctx, tx, applied); err != nil {
			return err
		}
		for _, entry := range touched {
			if err := repos.Loans.UpdateScheduleEntry(ctx, tx, entry); err != nil {
				return err
			}
		}
		if err := repos.Loans.Update(ctx, tx, loan); err != nil {
			return err
		}
		payment = applied

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypeLoan, loan.ID, domain.EventTypeLoanPaymentRecorded, domain.LoanPaymentRecordedEvent{
				LoanID:        loan.ID,
				PaymentNumber: applied.PaymentNumber,
				PrincipalPart: applied.PrincipalPart.String(),
				InterestPart:  applied.InterestPart.String(),
				BalanceAfter:  applied.BalanceAfter.String(),
			}, ts),
			domain.NewAuditLog(tenantID, domain.AuditActionLoanPayment, domain.AggregateTypeLoan, loan.ID, before, loan, ts),
		)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.LoanPayments.Inc()
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("loan_id", loanID).
		Str("amount", input.Amount.String()).
		Str("balance_after", payment.BalanceAfter.String()).
		Msg("loan payment recorded")

	return payment, nil
}

// UpcomingPayments lists unpaid instalments due within daysAhead days.
// A non-positive daysAhead uses DefaultUpcomingDays.
func (uc *LoanUseCase) UpcomingPayments(ctx context.Context, tenantID string, daysAhead int) ([]domain.UpcomingLoanPayment, error) {
	if daysAhead <= 0 {
		daysAhead = DefaultUpcomingDays
	}
	until := domain.DateOnly(now()).AddDate(0, 0, daysAhead)
	return uc.store.ForTenant(tenantID).Loans.UpcomingPayments(ctx, until)
}

// InterestAccrual reports one month of interest on every active loan.
func (uc *LoanUseCase) InterestAccrual(ctx context.Context, tenantID string, asOf time.Time) (*domain.InterestAccrual, error) {
	if asOf.IsZero() {
		asOf = now()
	}
	loans, err := uc.store.ForTenant(tenantID).Loans.List(ctx, true, 0, 0)
	if err != nil {
		return nil, err
	}
	return domain.BuildInterestAccrual(domain.DateOnly(asOf), loans), nil
}
