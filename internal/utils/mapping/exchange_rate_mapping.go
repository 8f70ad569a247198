package mapping

import (
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
)

// ToModelExchangeRate converts a domain ExchangeRate to a model ExchangeRate
func ToModelExchangeRate(d domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		RateID:           d.RateID,
		FromCurrency:     d.FromCurrency,
		ToCurrency:       d.ToCurrency,
		EffectiveDate:    d.EffectiveDate,
		Rate:             d.Rate,
		Source:           d.Source,
		UsedInConversion: d.UsedInConversion,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainExchangeRate converts a model ExchangeRate to a domain ExchangeRate
func ToDomainExchangeRate(m models.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		RateID:           m.RateID,
		FromCurrency:     m.FromCurrency,
		ToCurrency:       m.ToCurrency,
		EffectiveDate:    domain.DateOnly(m.EffectiveDate),
		Rate:             m.Rate,
		Source:           m.Source,
		UsedInConversion: m.UsedInConversion,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
