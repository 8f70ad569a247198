package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a direct pair rate effective from a calendar date.
// One unit of FromCurrency buys Rate units of ToCurrency.
type ExchangeRate struct {
	RateID           string          `json:"rateID"`
	FromCurrency     string          `json:"fromCurrency"`
	ToCurrency       string          `json:"toCurrency"`
	EffectiveDate    time.Time       `json:"effectiveDate"`
	Rate             decimal.Decimal `json:"rate"`
	Source           string          `json:"source"`
	UsedInConversion bool            `json:"usedInConversion"`
	AuditFields
}

// RateIngestion is an upsert request for one pair and date.
type RateIngestion struct {
	FromCurrency  string
	ToCurrency    string
	EffectiveDate time.Time
	Rate          decimal.Decimal
	Source        string
}

// Conversion records how an amount was converted.
type Conversion struct {
	From   Money         `json:"from"`
	To     Money         `json:"to"`
	Rate   *ExchangeRate `json:"rate,omitempty"`
	OnDate time.Time     `json:"onDate"`
}

// LinesConversion is the result of converting several amounts together.
// Residual is Total minus the sum of Parts and must be booked, not dropped.
type LinesConversion struct {
	Parts    []int64       `json:"parts"`
	Total    int64         `json:"total"`
	Residual int64         `json:"residual"`
	Currency string        `json:"currency"`
	Rate     *ExchangeRate `json:"rate,omitempty"`
}
