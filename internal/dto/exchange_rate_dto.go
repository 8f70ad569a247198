package dto

import (
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// UpsertRateRequest ingests a direct rate for one pair and effective date.
type UpsertRateRequest struct {
	FromCurrency  string          `json:"fromCurrency" binding:"required,currency"`
	ToCurrency    string          `json:"toCurrency" binding:"required,currency"`
	EffectiveDate string          `json:"effectiveDate" binding:"required"`
	Rate          decimal.Decimal `json:"rate"`
	Source        string          `json:"source" binding:"max=128"`
}

// ToDomain converts the request.
func (r UpsertRateRequest) ToDomain() (domain.RateIngestion, error) {
	date, err := ParseDate("effectiveDate", r.EffectiveDate)
	if err != nil {
		return domain.RateIngestion{}, err
	}
	return domain.RateIngestion{
		FromCurrency:  r.FromCurrency,
		ToCurrency:    r.ToCurrency,
		EffectiveDate: date,
		Rate:          r.Rate,
		Source:        r.Source,
	}, nil
}

// CrossRateRequest derives from->to through a via currency on one date.
type CrossRateRequest struct {
	FromCurrency  string `json:"fromCurrency" binding:"required,currency"`
	ViaCurrency   string `json:"viaCurrency" binding:"required,currency"`
	ToCurrency    string `json:"toCurrency" binding:"required,currency"`
	EffectiveDate string `json:"effectiveDate" binding:"required"`
}

// ConvertParams are the query parameters of GET /rates/convert.
type ConvertParams struct {
	Amount int64  `form:"amount" binding:"gte=0"`
	From   string `form:"from" binding:"required,currency"`
	To     string `form:"to" binding:"required,currency"`
	Date   string `form:"date"`
}

// ListRatesParams filters the rate table by pair.
type ListRatesParams struct {
	From string `form:"from"`
	To   string `form:"to"`
}

// ListRatesResponse wraps the rate table.
type ListRatesResponse struct {
	Rates []domain.ExchangeRate `json:"rates"`
}
