package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

var postingAccounts = PostingAccounts{
	CashID:        "cash",
	BankID:        "bank",
	ReceivablesID: "ar",
	PayablesID:    "ap",
	SalesID:       "sales",
	SalesTaxID:    "vat",
	COGSID:        "cogs",
	InventoryID:   "inv",
}

func lineAmounts(lines []JournalLine) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(lines))
	for _, l := range lines {
		out[l.AccountID] = out[l.AccountID].Add(l.Debit).Sub(l.Credit)
	}
	return out
}

func assertNet(t *testing.T, lines []JournalLine, want map[string]string) {
	t.Helper()
	if err := ValidateLines(lines); err != nil {
		t.Fatalf("lines should balance: %v", err)
	}
	got := lineAmounts(lines)
	if len(got) != len(want) {
		t.Errorf("expected %d accounts, got %d", len(want), len(got))
	}
	for id, w := range want {
		if !got[id].Equal(decimal.RequireFromString(w)) {
			t.Errorf("%s: expected net %s, got %s", id, w, got[id])
		}
	}
}

func TestComputeDocumentTotals(t *testing.T) {
	totals, err := ComputeDocumentTotals([]DocumentItem{
		{Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("9.99"), UnitCost: decimal.NewFromInt(5), TaxRate: decimal.NewFromInt(20)},
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
	})
	if err != nil {
		t.Fatalf("ComputeDocumentTotals() error = %v", err)
	}
	// 29.97 net at 20% is 5.994 tax, rounded once on the sum.
	if !totals.Subtotal.Equal(decimal.RequireFromString("39.97")) ||
		!totals.Tax.Equal(decimal.RequireFromString("5.99")) ||
		!totals.Total.Equal(decimal.RequireFromString("45.96")) ||
		!totals.Cost.Equal(decimal.NewFromInt(15)) {
		t.Errorf("unexpected totals %+v", totals)
	}

	if _, err := ComputeDocumentTotals(nil); !errors.Is(err, ErrInvalidDocumentItems) {
		t.Errorf("expected ErrInvalidDocumentItems for no items, got %v", err)
	}
	if _, err := ComputeDocumentTotals([]DocumentItem{{Quantity: decimal.Zero, UnitPrice: decimal.NewFromInt(1)}}); !errors.Is(err, ErrInvalidDocumentItems) {
		t.Errorf("expected ErrInvalidDocumentItems for zero quantity, got %v", err)
	}
	if _, err := ComputeDocumentTotals([]DocumentItem{{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.Zero}}); !errors.Is(err, ErrInvalidDocumentItems) {
		t.Errorf("expected ErrInvalidDocumentItems for a zero total, got %v", err)
	}
}

func TestInvoicePostingLines(t *testing.T) {
	inv := &Invoice{InvoiceNumber: "INV-000001", TotalAmount: decimal.NewFromInt(120)}

	lines, err := InvoicePostingLines(inv, decimal.NewFromInt(20), postingAccounts)
	if err != nil {
		t.Fatalf("InvoicePostingLines() error = %v", err)
	}
	assertNet(t, lines, map[string]string{"ar": "120", "sales": "-100", "vat": "-20"})

	lines, err = InvoicePostingLines(inv, decimal.Zero, postingAccounts)
	if err != nil {
		t.Fatalf("InvoicePostingLines() error = %v", err)
	}
	assertNet(t, lines, map[string]string{"ar": "120", "sales": "-120"})

	if _, err := InvoicePostingLines(inv, decimal.NewFromInt(120), postingAccounts); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount when tax covers the total, got %v", err)
	}
	noTax := postingAccounts
	noTax.SalesTaxID = ""
	if _, err := InvoicePostingLines(inv, decimal.NewFromInt(20), noTax); !errors.Is(err, ErrPostingAccountMissing) {
		t.Errorf("expected ErrPostingAccountMissing, got %v", err)
	}
}

func TestPaymentPostingLines(t *testing.T) {
	lines, err := PaymentPostingLines(&Payment{ClientID: "client-1", TotalAmount: decimal.NewFromInt(75)}, postingAccounts)
	if err != nil {
		t.Fatalf("PaymentPostingLines() error = %v", err)
	}
	assertNet(t, lines, map[string]string{"bank": "75", "ar": "-75"})
}

func TestBillPostingLines(t *testing.T) {
	totals := DocumentTotals{Subtotal: decimal.NewFromInt(100), Tax: decimal.NewFromInt(10), Total: decimal.NewFromInt(110)}

	lines, err := BillPostingLines("B-1", totals, postingAccounts)
	if err != nil {
		t.Fatalf("BillPostingLines() error = %v", err)
	}
	assertNet(t, lines, map[string]string{"inv": "100", "vat": "10", "ap": "-110"})
}

func TestPOSSalePostingLines(t *testing.T) {
	totals := DocumentTotals{
		Subtotal: decimal.NewFromInt(50),
		Tax:      decimal.NewFromInt(5),
		Total:    decimal.NewFromInt(55),
		Cost:     decimal.NewFromInt(30),
	}

	lines, err := POSSalePostingLines("POS-1", totals, postingAccounts)
	if err != nil {
		t.Fatalf("POSSalePostingLines() error = %v", err)
	}
	assertNet(t, lines, map[string]string{"cash": "55", "sales": "-50", "vat": "-5", "cogs": "30", "inv": "-30"})

	// Without a cost there is no inventory movement, so those accounts are optional.
	totals.Cost = decimal.Zero
	noStock := postingAccounts
	noStock.COGSID, noStock.InventoryID = "", ""
	lines, err = POSSalePostingLines("POS-2", totals, noStock)
	if err != nil {
		t.Fatalf("POSSalePostingLines() error = %v", err)
	}
	if len(lines) != 3 {
		t.Errorf("expected 3 lines, got %d", len(lines))
	}
}
