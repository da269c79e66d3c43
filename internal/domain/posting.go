package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DocumentItem is one line of a bill or POS sale. TaxRate is a percentage;
// UnitCost is the inventory cost used for cost of goods sold.
type DocumentItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	UnitCost    decimal.Decimal
	TaxRate     decimal.Decimal
}

// DocumentTotals are the cent-rounded sums of a document's items.
type DocumentTotals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Cost     decimal.Decimal
}

// ComputeDocumentTotals sums net, tax and cost over items.
func ComputeDocumentTotals(items []DocumentItem) (DocumentTotals, error) {
	if len(items) == 0 {
		return DocumentTotals{}, ErrInvalidDocumentItems
	}

	subtotal, tax, cost := decimal.Zero, decimal.Zero, decimal.Zero
	for i, it := range items {
		if !it.Quantity.IsPositive() || it.UnitPrice.IsNegative() || it.UnitCost.IsNegative() || it.TaxRate.IsNegative() {
			return DocumentTotals{}, fmt.Errorf("%w: item %d", ErrInvalidDocumentItems, i+1)
		}
		net := it.Quantity.Mul(it.UnitPrice)
		subtotal = subtotal.Add(net)
		tax = tax.Add(net.Mul(it.TaxRate).Div(hundred))
		cost = cost.Add(it.Quantity.Mul(it.UnitCost))
	}

	t := DocumentTotals{Subtotal: Round2(subtotal), Tax: Round2(tax), Cost: Round2(cost)}
	t.Total = t.Subtotal.Add(t.Tax)
	if !t.Total.IsPositive() {
		return DocumentTotals{}, ErrInvalidDocumentItems
	}
	return t, nil
}

// PostingAccounts are the ledger accounts business documents post to.
// An empty id means the code is missing from the tenant's chart.
type PostingAccounts struct {
	CashID        string
	BankID        string
	ReceivablesID string
	PayablesID    string
	SalesID       string
	SalesTaxID    string
	COGSID        string
	InventoryID   string
}

func requireAccounts(ids ...string) error {
	for _, id := range ids {
		if id == "" {
			return ErrPostingAccountMissing
		}
	}
	return nil
}

func debitLine(accountID string, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountID: accountID, Debit: amount, Credit: decimal.Zero, Description: description}
}

func creditLine(accountID string, amount decimal.Decimal, description string) JournalLine {
	return JournalLine{AccountID: accountID, Debit: decimal.Zero, Credit: amount, Description: description}
}

// InvoicePostingLines recognises a sale on credit: Dr receivables (total),
// Cr sales (total - tax), Cr sales tax (tax, when positive).
func InvoicePostingLines(inv *Invoice, tax decimal.Decimal, a PostingAccounts) ([]JournalLine, error) {
	if tax.IsNegative() || !tax.LessThan(inv.TotalAmount) {
		return nil, fmt.Errorf("%w: tax must be below the invoice total", ErrInvalidAmount)
	}
	if err := requireAccounts(a.ReceivablesID, a.SalesID); err != nil {
		return nil, err
	}

	lines := []JournalLine{
		debitLine(a.ReceivablesID, inv.TotalAmount, "Invoice "+inv.InvoiceNumber),
		creditLine(a.SalesID, inv.TotalAmount.Sub(tax), "Sales revenue"),
	}
	if tax.IsPositive() {
		if err := requireAccounts(a.SalesTaxID); err != nil {
			return nil, err
		}
		lines = append(lines, creditLine(a.SalesTaxID, tax, "Sales tax payable"))
	}
	return lines, nil
}

// PaymentPostingLines records money received into the bank against
// receivables.
func PaymentPostingLines(p *Payment, a PostingAccounts) ([]JournalLine, error) {
	if err := requireAccounts(a.BankID, a.ReceivablesID); err != nil {
		return nil, err
	}
	return []JournalLine{
		debitLine(a.BankID, p.TotalAmount, "Payment from "+p.ClientID),
		creditLine(a.ReceivablesID, p.TotalAmount, "Reduce receivables"),
	}, nil
}

// BillPostingLines records a supplier bill: Dr inventory (subtotal), Dr sales
// tax (recoverable input tax, when positive), Cr payables (total).
func BillPostingLines(billNumber string, t DocumentTotals, a PostingAccounts) ([]JournalLine, error) {
	if err := requireAccounts(a.InventoryID, a.PayablesID); err != nil {
		return nil, err
	}
	lines := []JournalLine{debitLine(a.InventoryID, t.Subtotal, "Purchase "+billNumber)}
	if t.Tax.IsPositive() {
		if err := requireAccounts(a.SalesTaxID); err != nil {
			return nil, err
		}
		lines = append(lines, debitLine(a.SalesTaxID, t.Tax, "Input tax"))
	}
	return append(lines, creditLine(a.PayablesID, t.Total, "Accounts payable")), nil
}

// POSSalePostingLines records a cash sale: Dr cash (total), Cr sales
// (subtotal), Cr sales tax (tax), and when items carry a cost, Dr cost of
// goods sold and Cr inventory.
func POSSalePostingLines(saleNumber string, t DocumentTotals, a PostingAccounts) ([]JournalLine, error) {
	if err := requireAccounts(a.CashID, a.SalesID); err != nil {
		return nil, err
	}
	lines := []JournalLine{
		debitLine(a.CashID, t.Total, "POS sale "+saleNumber),
		creditLine(a.SalesID, t.Subtotal, "Sales revenue"),
	}
	if t.Tax.IsPositive() {
		if err := requireAccounts(a.SalesTaxID); err != nil {
			return nil, err
		}
		lines = append(lines, creditLine(a.SalesTaxID, t.Tax, "Sales tax"))
	}
	if t.Cost.IsPositive() {
		if err := requireAccounts(a.COGSID, a.InventoryID); err != nil {
			return nil, err
		}
		lines = append(lines,
			debitLine(a.COGSID, t.Cost, "Cost of goods sold"),
			creditLine(a.InventoryID, t.Cost, "Reduce inventory"),
		)
	}
	return lines, nil
}
