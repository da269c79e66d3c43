package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ReturnKind distinguishes customer returns from returns to suppliers.
type ReturnKind string

const (
	ReturnKindSales    ReturnKind = "SALES"
	ReturnKindPurchase ReturnKind = "PURCHASE"
)

// Prefix is the document number prefix for the kind.
func (k ReturnKind) Prefix() string {
	if k == ReturnKindPurchase {
		return "PR"
	}
	return "SR"
}

// ReturnStatusCompleted is the only status a return is created with.
const ReturnStatusCompleted = "COMPLETED"

// ReturnItem is one returned line. TaxRate is a percentage.
type ReturnItem struct {
	ID          string
	ProductID   string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal
	Total       decimal.Decimal
}

// Return is a credit note (sales) or debit note (purchase).
// CounterpartyID is the client for sales returns and the supplier otherwise;
// SourceDocumentID optionally points at the invoice or bill.
type Return struct {
	ID               string
	TenantID         string
	Kind             ReturnKind
	ReturnNumber     string
	CounterpartyID   string
	SourceDocumentID *string
	ReturnDate       time.Time
	Reason           string
	Subtotal         decimal.Decimal
	TaxAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	Status           string
	JournalEntryID   *string
	Items            []ReturnItem
	CreatedAt        time.Time
}

// ComputeReturnTotals fills each item's Total and returns subtotal, tax and
// grand total, all rounded to cents.
func ComputeReturnTotals(items []ReturnItem) (subtotal, tax, total decimal.Decimal, err error) {
	if len(items) == 0 {
		return decimal.Zero, decimal.Zero, decimal.Zero, ErrInvalidReturnItems
	}

	subtotal, tax = decimal.Zero, decimal.Zero
	for i := range items {
		it := &items[i]
		if !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() || it.TaxRate.IsNegative() {
			return decimal.Zero, decimal.Zero, decimal.Zero, fmt.Errorf("%w: item %d", ErrInvalidReturnItems, i+1)
		}
		net := it.Quantity.Mul(it.UnitPrice)
		itemTax := net.Mul(it.TaxRate).Div(hundred)
		it.Total = Round2(net.Add(itemTax))
		subtotal = subtotal.Add(net)
		tax = tax.Add(itemTax)
	}

	subtotal, tax = Round2(subtotal), Round2(tax)
	total = subtotal.Add(tax)
	if !total.IsPositive() {
		return decimal.Zero, decimal.Zero, decimal.Zero, ErrInvalidReturnItems
	}
	return subtotal, tax, total, nil
}

// ReturnAccounts are the ledger accounts a return posts to.
type ReturnAccounts struct {
	SalesReturnsID string
	SalesTaxID     string
	ReceivablesID  string
	PayablesID     string
	InventoryID    string
}

// PostingLines builds the journal lines for the return.
//
// Sales: Dr sales returns (subtotal), Dr sales tax (tax, when positive),
// Cr receivables (total). Purchase: Dr payables (total), Cr inventory (total).
func (r *Return) PostingLines(accts ReturnAccounts) ([]JournalLine, error) {
	if r.Kind == ReturnKindPurchase {
		if accts.PayablesID == "" || accts.InventoryID == "" {
			return nil, ErrPostingAccountMissing
		}
		return []JournalLine{
			{AccountID: accts.PayablesID, Debit: r.TotalAmount, Credit: decimal.Zero, Description: "Return to supplier: " + r.ReturnNumber},
			{AccountID: accts.InventoryID, Debit: decimal.Zero, Credit: r.TotalAmount, Description: "Inventory reduction: " + r.ReturnNumber},
		}, nil
	}

	if accts.SalesReturnsID == "" || accts.ReceivablesID == "" {
		return nil, ErrPostingAccountMissing
	}
	lines := []JournalLine{
		{AccountID: accts.SalesReturnsID, Debit: r.Subtotal, Credit: decimal.Zero, Description: "Return of items: " + r.ReturnNumber},
	}
	if r.TaxAmount.IsPositive() {
		if accts.SalesTaxID == "" {
			return nil, ErrPostingAccountMissing
		}
		lines = append(lines, JournalLine{AccountID: accts.SalesTaxID, Debit: r.TaxAmount, Credit: decimal.Zero, Description: "Tax reversal: " + r.ReturnNumber})
	}
	lines = append(lines, JournalLine{AccountID: accts.ReceivablesID, Debit: decimal.Zero, Credit: r.TotalAmount, Description: "Adjustment for return: " + r.ReturnNumber})
	return lines, nil
}

// JournalDescription describes the posting of the return.
func (r *Return) JournalDescription() string {
	if r.Kind == ReturnKindPurchase {
		return fmt.Sprintf("Purchase Return %s - Supplier %s", r.ReturnNumber, r.CounterpartyID)
	}
	return fmt.Sprintf("Sales Return %s - Client %s", r.ReturnNumber, r.CounterpartyID)
}
