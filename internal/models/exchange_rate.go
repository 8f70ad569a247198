package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a row of exchange_rates.
type ExchangeRate struct {
	RateID           string          `db:"rate_id"`
	FromCurrency     string          `db:"from_currency"`
	ToCurrency       string          `db:"to_currency"`
	EffectiveDate    time.Time       `db:"effective_date"`
	Rate             decimal.Decimal `db:"rate"`
	Source           string          `db:"source"`
	UsedInConversion bool            `db:"used_in_conversion"`
	AuditFields
}
