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

// PostingAccountCodes are the chart codes business documents post against.
type PostingAccountCodes struct {
	Cash        string
	Bank        string
	Receivables string
	Payables    string
	Sales       string
	SalesTax    string
	COGS        string
	Inventory   string
}

// DefaultPostingAccountCodes matches the standard chart of accounts.
func DefaultPostingAccountCodes() PostingAccountCodes {
	return PostingAccountCodes{
		Cash:        "1010",
		Bank:        "1020",
		Receivables: "1100",
		Payables:    "2010",
		Sales:       "4010",
		SalesTax:    "2040",
		COGS:        "5000",
		Inventory:   "1200",
	}
}

// PostingUseCase turns invoices, received payments, supplier bills and POS
// sales into journal entries. A document posts at most once until its entry
// is reversed.
type PostingUseCase struct {
	store     Store
	txManager TransactionManager
	retrier   Retrier
	idGen     IDGenerator
	journals  *JournalUseCase
	codes     PostingAccountCodes
	metrics   *metrics.Metrics
}

// NewPostingUseCase creates a new PostingUseCase. retrier may be nil.
func NewPostingUseCase(store Store, txManager TransactionManager, retrier Retrier, idGen IDGenerator,
	journals *JournalUseCase, codes PostingAccountCodes, m *metrics.Metrics,
) *PostingUseCase {
	return &PostingUseCase{
		store:     store,
		txManager: txManager,
		retrier:   retrier,
		idGen:     idGen,
		journals:  journals,
		codes:     codes,
		metrics:   m,
	}
}

// DocumentItemInput is one line of a bill or POS sale.
type DocumentItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
	TaxRate     decimal.Decimal
}

// PostBillInput is a supplier bill to post.
type PostBillInput struct {
	SupplierID string
	BillNumber string
	BillDate   time.Time
	Items      []DocumentItemInput
}

// PostPOSSaleInput is a completed point-of-sale sale to post.
type PostPOSSaleInput struct {
	SaleNumber string
	SaleDate   time.Time
	Items      []DocumentItemInput
}

// documentPosting is one document ready to hit the ledger.
type documentPosting struct {
	source      domain.SourceType
	reference   string
	date        time.Time
	description string
	lines       func(domain.PostingAccounts) ([]domain.JournalLine, error)
}

// PostInvoice posts an invoice: Dr receivables, Cr sales and sales tax.
// tax is the portion of the invoice total owed as sales tax.
func (uc *PostingUseCase) PostInvoice(ctx context.Context, tenantID, invoiceID string, tax decimal.Decimal) (*domain.JournalEntry, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	inv, err := uc.store.ForTenant(tenantID).Invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}

	return uc.post(ctx, tenantID, documentPosting{
		source:      domain.SourceInvoice,
		reference:   inv.InvoiceNumber,
		date:        inv.IssueDate,
		description: "Invoice " + inv.InvoiceNumber,
		lines: func(a domain.PostingAccounts) ([]domain.JournalLine, error) {
			return domain.InvoicePostingLines(inv, tax, a)
		},
	})
}

// PostPaymentReceived posts a recorded client payment: Dr bank, Cr
// receivables.
func (uc *PostingUseCase) PostPaymentReceived(ctx context.Context, tenantID, paymentID string) (*domain.JournalEntry, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	payment, err := uc.store.ForTenant(tenantID).Payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	return uc.post(ctx, tenantID, documentPosting{
		source:      domain.SourcePayment,
		reference:   payment.ID,
		date:        payment.PaymentDate,
		description: "Payment received from " + payment.ClientID,
		lines: func(a domain.PostingAccounts) ([]domain.JournalLine, error) {
			return domain.PaymentPostingLines(payment, a)
		},
	})
}

// PostBill posts a supplier bill: Dr inventory and input tax, Cr payables.
func (uc *PostingUseCase) PostBill(ctx context.Context, tenantID string, input PostBillInput) (*domain.JournalEntry, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	supplier := strings.TrimSpace(input.SupplierID)
	if supplier == "" {
		return nil, domain.ErrClientRequired
	}
	number := strings.TrimSpace(input.BillNumber)
	if number == "" {
		return nil, domain.ErrDocumentNumberRequired
	}
	totals, err := domain.ComputeDocumentTotals(documentItems(input.Items))
	if err != nil {
		return nil, err
	}

	return uc.post(ctx, tenantID, documentPosting{
		source:      domain.SourceBill,
		reference:   number,
		date:        input.BillDate,
		description: "Bill " + number + " from " + supplier,
		lines: func(a domain.PostingAccounts) ([]domain.JournalLine, error) {
			return domain.BillPostingLines(number, totals, a)
		},
	})
}

// PostPOSSale posts a cash sale and, for items with a unit cost, its cost of
// goods sold.
func (uc *PostingUseCase) PostPOSSale(ctx context.Context, tenantID string, input PostPOSSaleInput) (*domain.JournalEntry, error) {
	if tenantID == "" {
		return nil, domain.ErrTenantRequired
	}
	number := strings.TrimSpace(input.SaleNumber)
	if number == "" {
		return nil, domain.ErrDocumentNumberRequired
	}
	totals, err := domain.ComputeDocumentTotals(documentItems(input.Items))
	if err != nil {
		return nil, err
	}

	return uc.post(ctx, tenantID, documentPosting{
		source:      domain.SourcePOS,
		reference:   number,
		date:        input.SaleDate,
		description: "POS sale " + number,
		lines: func(a domain.PostingAccounts) ([]domain.JournalLine, error) {
			return domain.POSSalePostingLines(number, totals, a)
		},
	})
}

func (uc *PostingUseCase) post(ctx context.Context, tenantID string, doc documentPosting) (*domain.JournalEntry, error) {
	repos := uc.store.ForTenant(tenantID)
	accounts, err := uc.resolveAccounts(ctx, repos)
	if err != nil {
		return nil, err
	}
	lines, err := doc.lines(accounts)
	if err != nil {
		return nil, err
	}

	date := doc.date
	if date.IsZero() {
		date = now()
	}

	started := time.Now()
	var entry *domain.JournalEntry
	err = runInTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		posted, err := uc.journals.post(ctx, tx, repos, postRequest{
			entryDate:   domain.DateOnly(date),
			description: doc.description,
			sourceType:  doc.source,
			reference:   doc.reference,
			lines:       lines,
		})
		if err != nil {
			return err
		}
		entry = posted

		rec := recorder{repos: repos, idGen: uc.idGen}
		return rec.record(ctx, tx, postedEvent(tenantID, posted),
			domain.NewAuditLog(tenantID, domain.AuditActionDocumentPost, domain.AggregateTypeJournalEntry, posted.ID, nil, posted, posted.CreatedAt),
		)
	})
	if err != nil {
		return nil, err
	}

	uc.journals.observePosted(entry, started)
	if uc.metrics != nil {
		uc.metrics.DocumentsPosted.WithLabelValues(string(doc.source)).Inc()
	}

	zerolog.Ctx(ctx).Info().
		Str("tenant_id", tenantID).
		Str("source_type", string(doc.source)).
		Str("reference", doc.reference).
		Str("journal_number", entry.JournalNumber).
		Msg("document posted")

	return entry, nil
}

// resolveAccounts looks up the configured codes. Codes absent from the
// tenant's chart stay empty and fail only for templates that need them.
func (uc *PostingUseCase) resolveAccounts(ctx context.Context, repos Repositories) (domain.PostingAccounts, error) {
	var accts domain.PostingAccounts
	targets := []struct {
		code string
		dst  *string
	}{
		{uc.codes.Cash, &accts.CashID},
		{uc.codes.Bank, &accts.BankID},
		{uc.codes.Receivables, &accts.ReceivablesID},
		{uc.codes.Payables, &accts.PayablesID},
		{uc.codes.Sales, &accts.SalesID},
		{uc.codes.SalesTax, &accts.SalesTaxID},
		{uc.codes.COGS, &accts.COGSID},
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

func documentItems(in []DocumentItemInput) []domain.DocumentItem {
	items := make([]domain.DocumentItem, 0, len(in))
	for _, it := range in {
		items = append(items, domain.DocumentItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
			TaxRate:     it.TaxRate,
		})
	}
	return items
}
