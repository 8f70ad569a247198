package services

import (
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies.
// Every service shares the same unit of work, policy and options.
func NewServiceContainer(uow portsrepo.UnitOfWork, policy domain.LedgerPolicy, opts ...ServiceOption) (*portssvc.ServiceContainer, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger policy: %w", err)
	}
	return &portssvc.ServiceContainer{
		Chart:     NewChartService(uow, opts...),
		RateTable: NewRateTableService(uow, policy, opts...),
		Ledger:    NewLedgerService(uow, policy, opts...),
		Invoice:   NewInvoiceService(uow, policy, opts...),
		Period:    NewPeriodService(uow, opts...),
		Reporting: NewReportingService(uow, policy, opts...),
	}, nil
}
