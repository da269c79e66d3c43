package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashFlowConfig names the accounts the indirect method needs to recognise.
// Working-capital accounts not listed fall under "other".
type CashFlowConfig struct {
	CashAccountCodes []string
	ReceivablesCodes []string
	InventoryCodes   []string
	PrepaidCodes     []string
	PayablesCodes    []string
	AccruedCodes     []string
}

// DefaultCashFlowConfig matches the standard chart of accounts.
func DefaultCashFlowConfig() CashFlowConfig {
	return CashFlowConfig{
		CashAccountCodes: []string{"1000", "1010", "1020"},
		ReceivablesCodes: []string{"1100"},
		InventoryCodes:   []string{"1200"},
		PrepaidCodes:     []string{"1300"},
		PayablesCodes:    []string{"2010"},
		AccruedCodes:     []string{"2020"},
	}
}

// IsCash reports whether code is one of the configured cash accounts.
func (c CashFlowConfig) IsCash(code string) bool {
	return contains(c.CashAccountCodes, code)
}

func contains(codes []string, code string) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}

// CashFlowLine is one labelled amount; positive amounts are cash inflows.
type CashFlowLine struct {
	Label       string          `json:"label"`
	AccountCode string          `json:"account_code"`
	Amount      decimal.Decimal `json:"amount"`
}

// CashFlowSection groups lines of one activity type.
type CashFlowSection struct {
	Lines []CashFlowLine  `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *CashFlowSection) add(label, code string, amount decimal.Decimal) {
	if amount.IsZero() {
		return
	}
	s.Lines = append(s.Lines, CashFlowLine{Label: label, AccountCode: code, Amount: amount})
	s.Total = s.Total.Add(amount)
}

// CashFlowStatement is the indirect-method cash flow for a period.
type CashFlowStatement struct {
	PeriodStart         time.Time       `json:"period_start"`
	PeriodEnd           time.Time       `json:"period_end"`
	NetProfit           decimal.Decimal `json:"net_profit"`
	Depreciation        decimal.Decimal `json:"depreciation"`
	ChangeInReceivables decimal.Decimal `json:"change_in_receivables"`
	ChangeInInventory   decimal.Decimal `json:"change_in_inventory"`
	ChangeInPrepaid     decimal.Decimal `json:"change_in_prepaid"`
	ChangeInPayables    decimal.Decimal `json:"change_in_payables"`
	ChangeInAccrued     decimal.Decimal `json:"change_in_accrued"`
	OtherWorkingCapital decimal.Decimal `json:"other_working_capital"`
	Operating           CashFlowSection `json:"operating"`
	Investing           CashFlowSection `json:"investing"`
	Financing           CashFlowSection `json:"financing"`
	NetChange           decimal.Decimal `json:"net_change"`
	CashAtStart         decimal.Decimal `json:"cash_at_start"`
	CashAtEnd           decimal.Decimal `json:"cash_at_end"`
	ExchangeEffect      decimal.Decimal `json:"exchange_effect"`
	IsReconciled        bool            `json:"is_reconciled"`
}

// BuildCashFlowStatement derives the cash flow from account activity.
// opening is activity before start and only feeds cash at start; period is
// activity between start and end.
//
// Every non-cash balance sheet account contributes the negative of its debit
// change: credit-normal contra fixed assets are the depreciation add-back,
// other fixed assets are investing, current assets and current liabilities
// are working capital, long-term liabilities and capital are financing.
// For a balanced ledger the exchange effect is zero.
func BuildCashFlowStatement(start, end time.Time, opening, period []AccountActivity, cfg CashFlowConfig) *CashFlowStatement {
	cf := &CashFlowStatement{
		PeriodStart:         start,
		PeriodEnd:           end,
		NetProfit:           NetProfit(period),
		Depreciation:        decimal.Zero,
		ChangeInReceivables: decimal.Zero,
		ChangeInInventory:   decimal.Zero,
		ChangeInPrepaid:     decimal.Zero,
		ChangeInPayables:    decimal.Zero,
		ChangeInAccrued:     decimal.Zero,
		OtherWorkingCapital: decimal.Zero,
		Operating:           CashFlowSection{Total: decimal.Zero},
		Investing:           CashFlowSection{Total: decimal.Zero},
		Financing:           CashFlowSection{Total: decimal.Zero},
		CashAtStart:         decimal.Zero,
	}

	for _, a := range opening {
		if cfg.IsCash(a.Account.Code) {
			cf.CashAtStart = cf.CashAtStart.Add(a.DebitChange())
		}
	}

	cashChange := decimal.Zero
	var retained decimal.Decimal
	var otherLines []CashFlowLine

	for _, a := range sortedActivity(period) {
		acc := a.Account
		if cfg.IsCash(acc.Code) {
			cashChange = cashChange.Add(a.DebitChange())
			continue
		}
		if !acc.Type.IsBalanceSheet() {
			continue
		}

		amount := a.DebitChange().Neg()
		if amount.IsZero() {
			continue
		}

		switch acc.Type {
		case AccountTypeAsset:
			switch {
			case acc.Category == CategoryCurrentAsset:
				cf.addWorkingCapital(acc, amount, cfg, &otherLines)
			case acc.IsContra():
				cf.Depreciation = cf.Depreciation.Add(amount)
			default:
				cf.Investing.add(acc.Name, acc.Code, amount)
			}
		case AccountTypeLiability:
			if acc.Category == CategoryCurrentLiability {
				cf.addWorkingCapital(acc, amount, cfg, &otherLines)
			} else {
				cf.Financing.add(acc.Name, acc.Code, amount)
			}
		case AccountTypeEquity:
			if acc.Category == CategoryRetainedEarnings {
				retained = retained.Add(amount)
			} else {
				cf.Financing.add(acc.Name, acc.Code, amount)
			}
		}
	}

	cf.Operating.add("Net profit", "", cf.NetProfit)
	cf.Operating.add("Depreciation", "", cf.Depreciation)
	cf.Operating.add("Change in receivables", "", cf.ChangeInReceivables)
	cf.Operating.add("Change in inventory", "", cf.ChangeInInventory)
	cf.Operating.add("Change in prepaid expenses", "", cf.ChangeInPrepaid)
	cf.Operating.add("Change in payables", "", cf.ChangeInPayables)
	cf.Operating.add("Change in accrued liabilities", "", cf.ChangeInAccrued)
	for _, l := range otherLines {
		cf.Operating.add(l.Label, l.AccountCode, l.Amount)
	}
	cf.Operating.add("Retained earnings adjustments", "", retained)

	cf.NetChange = cf.Operating.Total.Add(cf.Investing.Total).Add(cf.Financing.Total)
	cf.CashAtEnd = cf.CashAtStart.Add(cashChange)
	cf.ExchangeEffect = cf.CashAtEnd.Sub(cf.CashAtStart).Sub(cf.NetChange)
	cf.IsReconciled = cf.ExchangeEffect.Abs().LessThan(Tolerance)
	return cf
}

func (cf *CashFlowStatement) addWorkingCapital(acc *Account, amount decimal.Decimal, cfg CashFlowConfig, other *[]CashFlowLine) {
	switch {
	case contains(cfg.ReceivablesCodes, acc.Code):
		cf.ChangeInReceivables = cf.ChangeInReceivables.Add(amount)
	case contains(cfg.InventoryCodes, acc.Code):
		cf.ChangeInInventory = cf.ChangeInInventory.Add(amount)
	case contains(cfg.PrepaidCodes, acc.Code):
		cf.ChangeInPrepaid = cf.ChangeInPrepaid.Add(amount)
	case contains(cfg.PayablesCodes, acc.Code):
		cf.ChangeInPayables = cf.ChangeInPayables.Add(amount)
	case contains(cfg.AccruedCodes, acc.Code):
		cf.ChangeInAccrued = cf.ChangeInAccrued.Add(amount)
	default:
		cf.OtherWorkingCapital = cf.OtherWorkingCapital.Add(amount)
		*other = append(*other, CashFlowLine{Label: "Change in " + acc.Name, AccountCode: acc.Code, Amount: amount})
	}
}
