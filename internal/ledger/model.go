package ledger

import "time"

// AccountType enumerates chart-of-accounts categories.
type AccountType string

const (
	AccountTypeAsset        AccountType = "ASSET"
	AccountTypeLiability    AccountType = "LIABILITY"
	AccountTypeEquity       AccountType = "EQUITY"
	AccountTypeRevenue      AccountType = "REVENUE"
	AccountTypeCOGS         AccountType = "COGS"
	AccountTypeExpense      AccountType = "EXPENSE"
	AccountTypeOtherIncome  AccountType = "OTHER_INCOME"
	AccountTypeOtherExpense AccountType = "OTHER_EXPENSE"
)

// AccountTypes lists every category in display order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeCOGS,
	AccountTypeExpense,
	AccountTypeOtherIncome,
	AccountTypeOtherExpense,
}

// IsDebitNature reports whether balances of this type accumulate on the debit side.
func (t AccountType) IsDebitNature() bool {
	switch t {
	case AccountTypeAsset, AccountTypeExpense, AccountTypeCOGS, AccountTypeOtherExpense:
		return true
	}
	return false
}

// Account models a general-ledger account scoped to one entity.
type Account struct {
	ID         int64
	EntityID   int64
	Number     string
	Name       string
	Type       AccountType
	IsHeader   bool
	Balance    float64
	IsActive   bool
	TemplateID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ListOptions narrows account listings.
type ListOptions struct {
	ActiveOnly bool
	Type       AccountType
}

// TrialBalance is the set of all account balances for one entity, organised
// by account type. Header accounts are excluded from both totals.
type TrialBalance struct {
	EntityID       int64
	AccountsByType map[AccountType][]Account
	TotalDebits    float64
	TotalCredits   float64
}
