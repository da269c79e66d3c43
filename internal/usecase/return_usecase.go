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

// ReturnAccountCodes are the chart codes returns post against.
type ReturnAccountCodes struct {
	Receivables  string
	Inventory    string
	Payables     string
	SalesTax     string
	SalesReturns string
}

// DefaultReturnAccountCodes matches the standard chart of accounts.
func DefaultReturnAccountCodes() ReturnAccountCodes {
	return ReturnAccountCodes{
		Receivables:  "1100",
		Inventory:    "1200",
		Payables:     "2010",
		SalesTax:     "2040",
		SalesReturns: "4900",
	}
}

// ReturnUseCase records sales and purchase returns and posts them to the
// general ledger through the journal engine.
type ReturnUseCase struct {
	store     Store
	txManager TransactionManager
	retrier   Retrier
	idGen     IDGenerator
	journals  *JournalUseCase
	codes     ReturnAccountCodes
	metrics   *metrics.Metrics
}

// NewReturnUseCase creates a new ReturnUseCase. retrier may be nil.
func NewReturnUseCase(store Store, txManager TransactionManager, retrier Retrier, idGen IDGenerator,
	journals *JournalUseCase, codes ReturnAccountCodes, m *metrics.Metrics,
) *ReturnUseCase {
	return &ReturnUseCase{
		store:     store,
		txManager: txManager,
		retrier:   retrier,
		idGen:     idGen,
		journals:  journals,
		codes:     codes,
		metrics:   m,
	}
}

// ReturnItemInput is one returned line.
type ReturnItemInput struct {
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
}

// CreateReturnInput represents a return. CounterpartyID is the client for
// sales returns and the supplier for purchase returns.
type CreateReturnInput struct {
	CounterpartyID   string
	SourceDocumentID *string
	ReturnDate       time.Time
	Reason           string
	Items            []ReturnItemInput
}

// CreateSalesReturn records a customer return (credit note).
func (uc *ReturnUseCase) CreateSalesReturn(ctx context.Context, tenantID string, input CreateReturnInput) (*domain.Return, error) {
	return uc.create(ctx, tenantID, domain.ReturnKindSales, input)
}

// CreatePurchaseReturn records goods sent back to a supplier (debit note).
func (uc *ReturnUseCase) CreatePurchaseReturn(ctx context.Context, tenantID string, input CreateReturnInput) (*domain.Return, error) {
	return uc.create(ctx, tenantID, domain.ReturnKindPurchase, input)
}

// GetReturn retrieves a return with its items.
func (uc *ReturnUseCase) GetReturn(ctx context.Context, tenantID, id string) (*domain.Return, error) {
	return uc.store.ForTenant(tenantID).Returns.GetByID(ctx, id)
}

func (uc *ReturnUseCase) create(ctx context.Context, tenantID string, kind domain.ReturnKind, input CreateReturnInput) (*domain.Return, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	counterparty := strings.TrimSpace(input.CounterpartyID)
	if counterparty == "" {
		return nil, domain.ErrClientRequired
	}

	items := make([]domain.ReturnItem, 0, len(input.Items))
	for _, it := range input.Items {
		items = append(items, domain.ReturnItem{
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
		})
	}
	subtotal, tax, total, err := domain.ComputeReturnTotals(items)
	if err != nil {
		return nil, err
	}

	repos := uc.store.ForTenant(tenantID)
	accounts, err := uc.resolveAccounts(ctx, repos)
	if err != nil {
		return nil, err
	}

	returnDate := input.ReturnDate
	if returnDate.IsZero() {
		returnDate = now()
	}

	started := time.Now()
	var (
		ret   *domain.Return
		entry *domain.JournalEntry
	)
	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		seq, err := repos.Sequences.Next(ctx, tx, kind.Prefix())
		if err != nil {
			return err
		}

		ts := now()
		r := &domain.Return{
			ID:               uc.idGen.Generate(),
			TenantID:         tenantID,
			Kind:             kind,
			ReturnNumber:     domain.FormatDocumentNumber(kind.Prefix(), seq),
			CounterpartyID:   counterparty,
			SourceDocumentID: input.SourceDocumentID,
			ReturnDate:       domain.DateOnly(returnDate),
			Reason:           input.Reason,
			Subtotal:         subtotal,
			TaxAmount:        tax,
			TotalAmount:      total,
			Status:           domain.ReturnStatusCompleted,
			CreatedAt:        ts,
		}
		for _, it := range items {
			it.ID = uc.idGen.Generate()
			r.Items = append(r.Items, it)
		}

		lines, err := r.PostingLines(accounts)
		if err != nil {
			return err
		}

		posted, err := uc.journals.post(ctx, tx, repos, postRequest{
			entryDate:   r.ReturnDate,
			description: r.JournalDescription(),
			sourceType:  domain.SourceReturn,
			reference:   r.ReturnNumber,
			lines:       lines,
		})
		if err != nil {
			return err
		}
		r.JournalEntryID = &posted.ID

		if err := repos.Returns.Create(ctx, tx, r); err != nil {
			return err
		}
		ret, entry = r, posted

		rec := recorder{repos: repos, idGen: uc.idGen}
		if err := rec.record(ctx, tx, postedEvent(tenantID, posted), nil); err != nil {
			return err
		}
		return rec.record(ctx, tx,
			domain.NewEvent(tenantID, domain.AggregateTypeReturn, r.ID, domain.EventTypeReturnCreated, map[string]any{
				"return_id":        r.ID,
				"kind":             r.Kind,
				"return_number":    r.ReturnNumber,
				"total_amount":     r.TotalAmount.String(),
				"journal_entry_id": posted.ID,
			}, ts),
			domain.NewAuditLog(tenantID, domain.AuditActionReturnCreate, domain.AggregateTypeReturn, r.ID, nil, r, ts),
		)
	})
	if err != nil {
		return nil, err
	}

	uc.journals.observePosted(entry, started)
	if uc.metrics != nil {
		uc.metrics.ReturnsCreated.WithLabelValues(string(kind)).Inc()
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("return_number", ret.ReturnNumber).
		Str("journal_number", entry.JournalNumber).
		Msg("return recorded")

	return ret, nil
}

// resolveAccounts looks up the configured codes. Codes absent from the
// tenant's chart stay empty and fail at posting time only if needed.
func (uc *ReturnUseCase) resolveAccounts(ctx context.Context, repos Repositories) (domain.ReturnAccounts, error) {
	var accts domain.ReturnAccounts
	targets := []struct {
		code string
		dst  *string
	}{
		{uc.codes.SalesReturns, &accts.SalesReturnsID},
		{uc.codes.SalesTax, &accts.SalesTaxID},
		{uc.codes.Receivables, &accts.ReceivablesID},
		{uc.codes.Payables, &accts.PayablesID},
		{uc.codes.Inventory, &accts.InventoryID},
	}
	for _, t := range targets {
		if t.code == "" {
			continue
		}
		acc, err := repos.Accounts.GetByCode(ctx, t.code)
		if errors.Is(err, domain.ErrAccountNotFound) {
			continue
		}
		if err != nil {
			return accts, fmt.Errorf("resolve account %s: %w", t.code, err)
		}
		*t.dst = acc.ID
	}
	return accts, nil
}
