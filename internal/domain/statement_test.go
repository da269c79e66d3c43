package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func testAccount(id, code string, typ AccountType, cat AccountCategory, nb NormalBalance) *Account {
	return &Account{ID: id, Code: code, Name: code, Type: typ, Category: cat, NormalBalance: nb}
}

var (
	cashAcc        = testAccount("cash", "1010", AccountTypeAsset, CategoryCurrentAsset, NormalBalanceDebit)
	receivableAcc  = testAccount("ar", "1100", AccountTypeAsset, CategoryCurrentAsset, NormalBalanceDebit)
	equipmentAcc   = testAccount("equip", "1510", AccountTypeAsset, CategoryFixedAsset, NormalBalanceDebit)
	accumDepAcc    = testAccount("accdep", "1590", AccountTypeAsset, CategoryFixedAsset, NormalBalanceCredit)
	payableAcc     = testAccount("ap", "2010", AccountTypeLiability, CategoryCurrentLiability, NormalBalanceCredit)
	bankLoanAcc    = testAccount("loan", "2510", AccountTypeLiability, CategoryLongTermLiability, NormalBalanceCredit)
	capitalAcc     = testAccount("capital", "3010", AccountTypeEquity, CategoryCapital, NormalBalanceCredit)
	salesAcc       = testAccount("sales", "4010", AccountTypeRevenue, CategoryOperatingRevenue, NormalBalanceCredit)
	salesReturnAcc = testAccount("returns", "4900", AccountTypeRevenue, CategoryOperatingRevenue, NormalBalanceDebit)
	otherIncAcc    = testAccount("interest-inc", "4110", AccountTypeRevenue, CategoryOtherIncome, NormalBalanceCredit)
	cogsAcc        = testAccount("cogs", "5010", AccountTypeExpense, CategoryCostOfGoodsSold, NormalBalanceDebit)
	rentAcc        = testAccount("rent", "6020", AccountTypeExpense, CategoryOperatingExpense, NormalBalanceDebit)
	depExpAcc      = testAccount("depexp", "6070", AccountTypeExpense, CategoryOperatingExpense, NormalBalanceDebit)
	interestAcc    = testAccount("interest", "7010", AccountTypeExpense, CategoryOtherExpense, NormalBalanceDebit)
)

func act(acc *Account, debit, credit string) AccountActivity {
	return AccountActivity{
		Account: acc,
		Debit:   decimal.RequireFromString(debit),
		Credit:  decimal.RequireFromString(credit),
	}
}

func TestBuildTrialBalance(t *testing.T) {
	// Dr Cash 1000 / Cr Revenue 1000, Dr Expense 400 / Cr Cash 400
	activity := []AccountActivity{
		act(salesAcc, "0", "1000"),
		act(cashAcc, "1000", "400"),
		act(rentAcc, "400", "0"),
		act(payableAcc, "0", "0"),
	}

	tb := BuildTrialBalance(date(2024, 1, 1), date(2024, 12, 31), activity)

	if !tb.TotalDebit.Equal(decimal.NewFromInt(1400)) || !tb.TotalCredit.Equal(decimal.NewFromInt(1400)) {
		t.Errorf("totals = %s/%s, want 1400/1400", tb.TotalDebit, tb.TotalCredit)
	}
	if !tb.IsBalanced {
		t.Error("trial balance should be balanced")
	}
	if len(tb.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(tb.Items))
	}
	if tb.Items[0].AccountCode != "1010" {
		t.Errorf("first item = %s, want 1010", tb.Items[0].AccountCode)
	}
	if !tb.Items[0].NetDebit.Equal(decimal.NewFromInt(600)) || !tb.Items[0].NetCredit.IsZero() {
		t.Errorf("cash net = %s/%s", tb.Items[0].NetDebit, tb.Items[0].NetCredit)
	}
}

func TestBuildTrialBalance_ReportsImbalance(t *testing.T) {
	tb := BuildTrialBalance(date(2024, 1, 1), date(2024, 1, 31), []AccountActivity{
		act(cashAcc, "100", "0"),
		act(salesAcc, "0", "99.99"),
	})
	if tb.IsBalanced {
		t.Error("0.01 difference must not be balanced")
	}
	if !tb.Difference.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("Difference = %s", tb.Difference)
	}
}

func TestBuildBalanceSheet(t *testing.T) {
	activity := []AccountActivity{
		act(capitalAcc, "0", "5000"),
		act(cashAcc, "5000", "0"),
		act(equipmentAcc, "2000", "0"),
		act(bankLoanAcc, "0", "2000"),
		act(receivableAcc, "800", "0"),
		act(salesAcc, "0", "800"),
		act(rentAcc, "300", "0"),
		act(payableAcc, "0", "300"),
		act(accumDepAcc, "0", "100"),
		act(depExpAcc, "100", "0"),
	}

	bs := BuildBalanceSheet(date(2024, 12, 31), activity)

	if !bs.TotalAssets.Equal(decimal.NewFromInt(7700)) {
		t.Errorf("TotalAssets = %s, want 7700", bs.TotalAssets)
	}
	if !bs.FixedAssets.Total.Equal(decimal.NewFromInt(1900)) {
		t.Errorf("FixedAssets = %s, want 1900", bs.FixedAssets.Total)
	}
	if !bs.CurrentLiabilities.Total.Equal(decimal.NewFromInt(300)) || !bs.LongTermLiabilities.Total.Equal(decimal.NewFromInt(2000)) {
		t.Errorf("liabilities = %s/%s", bs.CurrentLiabilities.Total, bs.LongTermLiabilities.Total)
	}
	if !bs.RetainedEarnings.Equal(decimal.NewFromInt(400)) {
		t.Errorf("RetainedEarnings = %s, want 400", bs.RetainedEarnings)
	}
	if !bs.IsBalanced {
		t.Errorf("balance sheet should balance, difference %s", bs.Difference)
	}
}

func TestBuildBalanceSheet_ReportsImbalance(t *testing.T) {
	bs := BuildBalanceSheet(date(2024, 12, 31), []AccountActivity{
		act(cashAcc, "100", "0"),
		act(capitalAcc, "0", "90"),
	})
	if bs.IsBalanced {
		t.Error("expected an unbalanced sheet")
	}
	if !bs.Difference.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Difference = %s, want 10", bs.Difference)
	}
}

func TestBuildIncomeStatement(t *testing.T) {
	activity := []AccountActivity{
		act(salesAcc, "0", "10000"),
		act(salesReturnAcc, "500", "0"),
		act(otherIncAcc, "0", "200"),
		act(cogsAcc, "4000", "0"),
		act(rentAcc, "1500", "0"),
		act(interestAcc, "300", "0"),
		act(cashAcc, "9999", "0"),
	}

	is := BuildIncomeStatement(date(2024, 1, 1), date(2024, 12, 31), activity)

	if !is.Revenue.Total.Equal(decimal.NewFromInt(9500)) {
		t.Errorf("Revenue = %s, want 9500", is.Revenue.Total)
	}
	if !is.GrossProfit.Equal(decimal.NewFromInt(5500)) {
		t.Errorf("GrossProfit = %s, want 5500", is.GrossProfit)
	}
	if !is.OperatingProfit.Equal(decimal.NewFromInt(4000)) {
		t.Errorf("OperatingProfit = %s, want 4000", is.OperatingProfit)
	}
	if !is.NetIncome.Equal(decimal.NewFromInt(3900)) {
		t.Errorf("NetIncome = %s, want 3900", is.NetIncome)
	}
	if !is.GrossMargin.Equal(decimal.RequireFromString("57.89")) {
		t.Errorf("GrossMargin = %s, want 57.89", is.GrossMargin)
	}
	if !is.NetIncome.Equal(NetProfit(activity)) {
		t.Errorf("NetProfit() = %s, want %s", NetProfit(activity), is.NetIncome)
	}
}

func TestBuildIncomeStatement_ZeroRevenueMargins(t *testing.T) {
	is := BuildIncomeStatement(date(2024, 1, 1), date(2024, 1, 31), []AccountActivity{act(rentAcc, "100", "0")})
	if !is.GrossMargin.IsZero() || !is.NetMargin.IsZero() {
		t.Errorf("margins = %s/%s, want 0", is.GrossMargin, is.NetMargin)
	}
	if !is.NetIncome.Equal(decimal.NewFromInt(-100)) {
		t.Errorf("NetIncome = %s", is.NetIncome)
	}
}
