package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType is the top-level classification of an account.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// IsValid checks if the type is known.
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DefaultNormalBalance is the side on which accounts of this type increase.
func (t AccountType) DefaultNormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// IsBalanceSheet reports whether the type appears on the balance sheet.
func (t AccountType) IsBalanceSheet() bool {
	return t == AccountTypeAsset || t == AccountTypeLiability || t == AccountTypeEquity
}

// NormalBalance is the side on which an account's balance increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "DEBIT"
	NormalBalanceCredit NormalBalance = "CREDIT"
)

// IsValid checks if the side is known.
func (n NormalBalance) IsValid() bool {
	return n == NormalBalanceDebit || n == NormalBalanceCredit
}

// AccountCategory refines an account type for statement grouping.
type AccountCategory string

const (
	CategoryCurrentAsset      AccountCategory = "CURRENT_ASSET"
	CategoryFixedAsset        AccountCategory = "FIXED_ASSET"
	CategoryCurrentLiability  AccountCategory = "CURRENT_LIABILITY"
	CategoryLongTermLiability AccountCategory = "LONG_TERM_LIABILITY"
	CategoryCapital           AccountCategory = "CAPITAL"
	CategoryRetainedEarnings  AccountCategory = "RETAINED_EARNINGS"
	CategoryOperatingRevenue  AccountCategory = "OPERATING_REVENUE"
	CategoryOtherIncome       AccountCategory = "OTHER_INCOME"
	CategoryCostOfGoodsSold   AccountCategory = "COST_OF_GOODS_SOLD"
	CategoryOperatingExpense  AccountCategory = "OPERATING_EXPENSE"
	CategoryOtherExpense      AccountCategory = "OTHER_EXPENSE"
)

var categoryTypes = map[AccountCategory]AccountType{
	CategoryCurrentAsset:      AccountTypeAsset,
	CategoryFixedAsset:        AccountTypeAsset,
	CategoryCurrentLiability:  AccountTypeLiability,
	CategoryLongTermLiability: AccountTypeLiability,
	CategoryCapital:           AccountTypeEquity,
	CategoryRetainedEarnings:  AccountTypeEquity,
	CategoryOperatingRevenue:  AccountTypeRevenue,
	CategoryOtherIncome:       AccountTypeRevenue,
	CategoryCostOfGoodsSold:   AccountTypeExpense,
	CategoryOperatingExpense:  AccountTypeExpense,
	CategoryOtherExpense:      AccountTypeExpense,
}

// Type returns the account type a category belongs to.
func (c AccountCategory) Type() (AccountType, bool) {
	t, ok := categoryTypes[c]
	return t, ok
}

// Account is a chart-of-accounts entry with a running balance.
// Balance is signed on the account's normal side.
type Account struct {
	ID            string
	TenantID      string
	Code          string
	Name          string
	Description   string
	Type          AccountType
	Category      AccountCategory
	NormalBalance NormalBalance
	Balance       decimal.Decimal
	ParentID      *string
	IsActive      bool
	Version       int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks type, category and normal balance consistency.
func (a *Account) Validate() error {
	if err := ValidateAccountCode(a.Code); err != nil {
		return err
	}
	if err := ValidateAccountName(a.Name); err != nil {
		return err
	}
	if !a.Type.IsValid() {
		return ErrInvalidAccountType
	}
	if !a.NormalBalance.IsValid() {
		return ErrInvalidNormalBalance
	}
	if a.Category != "" {
		t, ok := a.Category.Type()
		if !ok || t != a.Type {
			return ErrInvalidCategory
		}
	}
	return nil
}

// BalanceDelta converts a debit/credit pair into the change of the stored
// balance: debit-credit for DEBIT-normal accounts, credit-debit otherwise.
func (a *Account) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	change := debit.Sub(credit)
	if a.NormalBalance == NormalBalanceDebit {
		return change
	}
	return change.Neg()
}

// ApplyDelta returns the balance after posting debit and credit.
func (a *Account) ApplyDelta(debit, credit decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(a.BalanceDelta(debit, credit))
}

// IsContra reports whether the account's normal side is opposite to its type,
// e.g. accumulated depreciation or sales returns.
func (a *Account) IsContra() bool {
	return a.NormalBalance != a.Type.DefaultNormalBalance()
}

// NaturalAmount signs a debit/credit pair the way the account's type grows,
// so contra accounts come out negative inside their section.
func (a *Account) NaturalAmount(debit, credit decimal.Decimal) decimal.Decimal {
	change := debit.Sub(credit)
	if a.Type.DefaultNormalBalance() == NormalBalanceDebit {
		return change
	}
	return change.Neg()
}

// AccountFilter narrows account listings.
type AccountFilter struct {
	Type       AccountType
	ActiveOnly bool
	Limit      int
	Offset     int
}

// AccountNode is an account with its children for roll-up display.
type AccountNode struct {
	Account       *Account
	Children      []*AccountNode
	RolledBalance decimal.Decimal
}

// BuildAccountTree arranges accounts by parent and rolls balances up.
// Accounts whose parent is missing become roots.
func BuildAccountTree(accounts []*Account) []*AccountNode {
	nodes := make(map[string]*AccountNode, len(accounts))
	for _, a := range accounts {
		nodes[a.ID] = &AccountNode{Account: a}
	}

	var roots []*AccountNode
	for _, a := range accounts {
		node := nodes[a.ID]
		if a.ParentID != nil {
			if parent, ok := nodes[*a.ParentID]; ok && parent != node {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	for _, root := range roots {
		rollUp(root, map[*AccountNode]bool{})
	}
	return roots
}

func rollUp(node *AccountNode, seen map[*AccountNode]bool) decimal.Decimal {
	if seen[node] {
		return decimal.Zero
	}
	seen[node] = true

	total := node.Account.Balance
	for _, child := range node.Children {
		total = total.Add(rollUp(child, seen))
	}
	node.RolledBalance = total
	return total
}
