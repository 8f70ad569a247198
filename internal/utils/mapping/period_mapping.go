package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
)

// ToModelPeriod converts a domain AccountingPeriod to a model AccountingPeriod
func ToModelPeriod(d domain.AccountingPeriod) (models.AccountingPeriod, error) {
	balances, err := json.Marshal(nonNil(d.ClosingBalances))
	if err != nil {
		return models.AccountingPeriod{}, fmt.Errorf("failed to encode closing balances: %w", err)
	}
	return models.AccountingPeriod{
		PeriodID:        d.PeriodID,
		Name:            d.Name,
		StartDate:       d.StartDate,
		EndDate:         d.EndDate,
		Status:          string(d.Status),
		ClosedAt:        d.ClosedAt,
		ClosingBalances: balances,
		AuditFields:     ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainPeriod converts a model AccountingPeriod to a domain AccountingPeriod
func ToDomainPeriod(m models.AccountingPeriod) (domain.AccountingPeriod, error) {
	d := domain.AccountingPeriod{
		PeriodID:    m.PeriodID,
		Name:        m.Name,
		StartDate:   domain.DateOnly(m.StartDate),
		EndDate:     domain.DateOnly(m.EndDate),
		Status:      domain.PeriodStatus(m.Status),
		ClosedAt:    m.ClosedAt,
		AuditFields: ToDomainAuditFields(m.AuditFields),
	}
	if err := json.Unmarshal(m.ClosingBalances, &d.ClosingBalances); err != nil {
		return domain.AccountingPeriod{}, fmt.Errorf("failed to decode closing balances of period %s: %w", m.PeriodID, err)
	}
	return d, nil
}
