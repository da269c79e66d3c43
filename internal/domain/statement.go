package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// AccountActivity is the debit and credit total posted to one account over a
// date window. Statements are derived from these sums.
type AccountActivity struct {
	Account *Account
	Debit   decimal.Decimal
	Credit  decimal.Decimal
}

// Natural returns the activity signed the way the account's type grows.
func (a AccountActivity) Natural() decimal.Decimal {
	return a.Account.NaturalAmount(a.Debit, a.Credit)
}

// DebitChange returns debit minus credit.
func (a AccountActivity) DebitChange() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// TrialBalanceItem is one account row of a trial balance.
type TrialBalanceItem struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType AccountType     `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	NetDebit    decimal.Decimal `json:"net_debit"`
	NetCredit   decimal.Decimal `json:"net_credit"`
}

// TrialBalance lists posted debit and credit activity per account.
type TrialBalance struct {
	PeriodStart time.Time          `json:"period_start"`
	PeriodEnd   time.Time          `json:"period_end"`
	Items       []TrialBalanceItem `json:"items"`
	TotalDebit  decimal.Decimal    `json:"total_debit"`
	TotalCredit decimal.Decimal    `json:"total_credit"`
	Difference  decimal.Decimal    `json:"difference"`
	IsBalanced  bool               `json:"is_balanced"`
}

// BuildTrialBalance sums activity per account. Accounts without activity are
// omitted and rows are ordered by account code.
func BuildTrialBalance(start, end time.Time, activity []AccountActivity) *TrialBalance {
	tb := &TrialBalance{
		PeriodStart: start,
		PeriodEnd:   end,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}

	for _, a := range activity {
		if a.Debit.IsZero() && a.Credit.IsZero() {
			continue
		}
		item := TrialBalanceItem{
			AccountID:   a.Account.ID,
			AccountCode: a.Account.Code,
			AccountName: a.Account.Name,
			AccountType: a.Account.Type,
			Debit:       a.Debit,
			Credit:      a.Credit,
			NetDebit:    decimal.Zero,
			NetCredit:   decimal.Zero,
		}
		if net := a.DebitChange(); net.IsPositive() {
			item.NetDebit = net
		} else {
			item.NetCredit = net.Neg()
		}
		tb.Items = append(tb.Items, item)
		tb.TotalDebit = tb.TotalDebit.Add(a.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(a.Credit)
	}

	sort.Slice(tb.Items, func(i, j int) bool { return tb.Items[i].AccountCode < tb.Items[j].AccountCode })

	tb.Difference = tb.TotalDebit.Sub(tb.TotalCredit)
	tb.IsBalanced = StrictlyWithinTolerance(tb.TotalDebit, tb.TotalCredit)
	return tb
}

// StatementLine is an account and its amount within a statement section.
type StatementLine struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// StatementSection is a titled group of lines with their total.
type StatementSection struct {
	Lines []StatementLine `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *StatementSection) add(a AccountActivity, amount decimal.Decimal) {
	s.Lines = append(s.Lines, StatementLine{
		AccountID:   a.Account.ID,
		AccountCode: a.Account.Code,
		AccountName: a.Account.Name,
		Amount:      amount,
	})
	s.Total = s.Total.Add(amount)
}

func newSection() StatementSection {
	return StatementSection{Total: decimal.Zero}
}

// BalanceSheet is the position as of a date.
type BalanceSheet struct {
	AsOf                      time.Time        `json:"as_of"`
	CurrentAssets             StatementSection `json:"current_assets"`
	FixedAssets               StatementSection `json:"fixed_assets"`
	TotalAssets               decimal.Decimal  `json:"total_assets"`
	CurrentLiabilities        StatementSection `json:"current_liabilities"`
	LongTermLiabilities       StatementSection `json:"long_term_liabilities"`
	TotalLiabilities          decimal.Decimal  `json:"total_liabilities"`
	Equity                    StatementSection `json:"equity"`
	RetainedEarnings          decimal.Decimal  `json:"retained_earnings"`
	TotalEquity               decimal.Decimal  `json:"total_equity"`
	TotalLiabilitiesAndEquity decimal.Decimal  `json:"total_liabilities_and_equity"`
	Difference                decimal.Decimal  `json:"difference"`
	IsBalanced                bool             `json:"is_balanced"`
}

// BuildBalanceSheet groups cumulative activity up to asOf. Assets split on
// the CURRENT_ASSET category, liabilities on CURRENT_LIABILITY. Retained
// earnings is revenue minus expenses over the same activity.
func BuildBalanceSheet(asOf time.Time, activity []AccountActivity) *BalanceSheet {
	bs := &BalanceSheet{
		AsOf:                asOf,
		CurrentAssets:       newSection(),
		FixedAssets:         newSection(),
		CurrentLiabilities:  newSection(),
		LongTermLiabilities: newSection(),
		Equity:              newSection(),
		RetainedEarnings:    decimal.Zero,
	}

	for _, a := range sortedActivity(activity) {
		if a.Debit.IsZero() && a.Credit.IsZero() {
			continue
		}
		amount := a.Natural()
		switch a.Account.Type {
		case AccountTypeAsset:
			if a.Account.Category == CategoryCurrentAsset {
				bs.CurrentAssets.add(a, amount)
			} else {
				bs.FixedAssets.add(a, amount)
			}
		case AccountTypeLiability:
			if a.Account.Category == CategoryCurrentLiability {
				bs.CurrentLiabilities.add(a, amount)
			} else {
				bs.LongTermLiabilities.add(a, amount)
			}
		case AccountTypeEquity:
			bs.Equity.add(a, amount)
		case AccountTypeRevenue:
			bs.RetainedEarnings = bs.RetainedEarnings.Add(amount)
		case AccountTypeExpense:
			bs.RetainedEarnings = bs.RetainedEarnings.Sub(amount)
		}
	}

	bs.TotalAssets = bs.CurrentAssets.Total.Add(bs.FixedAssets.Total)
	bs.TotalLiabilities = bs.CurrentLiabilities.Total.Add(bs.LongTermLiabilities.Total)
	bs.TotalEquity = bs.Equity.Total.Add(bs.RetainedEarnings)
	bs.TotalLiabilitiesAndEquity = bs.TotalLiabilities.Add(bs.TotalEquity)
	bs.Difference = bs.TotalAssets.Sub(bs.TotalLiabilitiesAndEquity)
	bs.IsBalanced = StrictlyWithinTolerance(bs.TotalAssets, bs.TotalLiabilitiesAndEquity)
	return bs
}

// IncomeStatement is performance over a period.
type IncomeStatement struct {
	PeriodStart       time.Time        `json:"period_start"`
	PeriodEnd         time.Time        `json:"period_end"`
	Revenue           StatementSection `json:"revenue"`
	CostOfGoodsSold   StatementSection `json:"cost_of_goods_sold"`
	GrossProfit       decimal.Decimal  `json:"gross_profit"`
	OperatingExpenses StatementSection `json:"operating_expenses"`
	OperatingProfit   decimal.Decimal  `json:"operating_profit"`
	OtherIncome       StatementSection `json:"other_income"`
	OtherExpenses     StatementSection `json:"other_expenses"`
	TotalRevenue      decimal.Decimal  `json:"total_revenue"`
	TotalExpenses     decimal.Decimal  `json:"total_expenses"`
	NetIncome         decimal.Decimal  `json:"net_income"`
	GrossMargin       decimal.Decimal  `json:"gross_margin"`
	OperatingMargin   decimal.Decimal  `json:"operating_margin"`
	NetMargin         decimal.Decimal  `json:"net_margin"`
}

// BuildIncomeStatement classifies revenue and expense activity by category.
// Uncategorised revenue counts as operating revenue and uncategorised expense
// as operating expense. Margins are percentages of operating revenue.
func BuildIncomeStatement(start, end time.Time, activity []AccountActivity) *IncomeStatement {
	is := &IncomeStatement{
		PeriodStart:       start,
		PeriodEnd:         end,
		Revenue:           newSection(),
		CostOfGoodsSold:   newSection(),
		OperatingExpenses: newSection(),
		OtherIncome:       newSection(),
		OtherExpenses:     newSection(),
	}

	for _, a := range sortedActivity(activity) {
		if a.Debit.IsZero() && a.Credit.IsZero() {
			continue
		}
		amount := a.Natural()
		switch a.Account.Type {
		case AccountTypeRevenue:
			if a.Account.Category == CategoryOtherIncome {
				is.OtherIncome.add(a, amount)
			} else {
				is.Revenue.add(a, amount)
			}
		case AccountTypeExpense:
			switch a.Account.Category {
			case CategoryCostOfGoodsSold:
				is.CostOfGoodsSold.add(a, amount)
			case CategoryOtherExpense:
				is.OtherExpenses.add(a, amount)
			default:
				is.OperatingExpenses.add(a, amount)
			}
		}
	}

	is.GrossProfit = is.Revenue.Total.Sub(is.CostOfGoodsSold.Total)
	is.OperatingProfit = is.GrossProfit.Sub(is.OperatingExpenses.Total)
	is.TotalRevenue = is.Revenue.Total.Add(is.OtherIncome.Total)
	is.TotalExpenses = is.CostOfGoodsSold.Total.Add(is.OperatingExpenses.Total).Add(is.OtherExpenses.Total)
	is.NetIncome = is.TotalRevenue.Sub(is.TotalExpenses)
	is.GrossMargin = Percent(is.GrossProfit, is.Revenue.Total)
	is.OperatingMargin = Percent(is.OperatingProfit, is.Revenue.Total)
	is.NetMargin = Percent(is.NetIncome, is.Revenue.Total)
	return is
}

// NetProfit is revenue minus expenses for a set of activity.
func NetProfit(activity []AccountActivity) decimal.Decimal {
	total := decimal.Zero
	for _, a := range activity {
		switch a.Account.Type {
		case AccountTypeRevenue:
			total = total.Add(a.Natural())
		case AccountTypeExpense:
			total = total.Sub(a.Natural())
		}
	}
	return total
}

func sortedActivity(activity []AccountActivity) []AccountActivity {
	out := make([]AccountActivity, len(activity))
	copy(out, activity)
	sort.Slice(out, func(i, j int) bool { return out[i].Account.Code < out[j].Account.Code })
	return out
}
