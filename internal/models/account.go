package models

// Account is a row of the accounts table.
type Account struct {
	AccountID    string `db:"account_id"`
	Code         string `db:"code"`
	Name         string `db:"name"`
	AccountType  string `db:"account_type"`
	CurrencyCode string `db:"currency_code"`
	IsActive     bool   `db:"is_active"`
	AuditFields
}
