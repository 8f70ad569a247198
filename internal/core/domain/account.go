package domain

import "strings"

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Income    AccountType = "INCOME"
	Expense   AccountType = "EXPENSE"
)

// AccountTypes lists every account type in chart order.
var AccountTypes = []AccountType{Asset, Liability, Equity, Income, Expense}

// normalSides maps each account type to the side on which its balance grows.
var normalSides = map[AccountType]Direction{
	Asset:     Debit,
	Expense:   Debit,
	Liability: Credit,
	Equity:    Credit,
	Income:    Credit,
}

// ParseAccountType normalizes and validates an account type string.
func ParseAccountType(s string) (AccountType, bool) {
	t := AccountType(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := normalSides[t]
	return t, ok
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	_, ok := normalSides[t]
	return ok
}

// NormalSide returns the side on which balances of this type are positive.
func (t AccountType) NormalSide() Direction {
	return normalSides[t]
}

// Present converts a debit-positive amount into this type's normal-side sign,
// so an asset with a debit balance and an income account with a credit
// balance both present as positive numbers.
func (t AccountType) Present(debitPositive int64) int64 {
	if t.NormalSide() == Credit {
		return -debitPositive
	}
	return debitPositive
}

// Account represents a financial account within the chart of accounts.
type Account struct {
	AccountID    string      `json:"accountID"`
	Code         string      `json:"code"`
	Name         string      `json:"name"`
	AccountType  AccountType `json:"accountType"`
	CurrencyCode string      `json:"currencyCode"`
	IsActive     bool        `json:"isActive"`
	AuditFields
}
