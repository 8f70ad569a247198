package repositories

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// PeriodReader defines read operations for accounting periods.
type PeriodReader interface {
	FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// ListPeriods returns every period ordered by start date, closing balances included.
	ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error)
}

// PeriodWriter defines write operations for accounting periods.
type PeriodWriter interface {
	SavePeriod(ctx context.Context, period domain.AccountingPeriod) error

	// UpdatePeriod persists status, close time and closing balances.
	UpdatePeriod(ctx context.Context, period domain.AccountingPeriod) error
}

// PeriodRepositoryFacade combines period reads and writes.
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}
