package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// PeriodSvcFacade administers accounting periods.
type PeriodSvcFacade interface {
	OpenPeriod(ctx context.Context, name string, start, end time.Time, actor string) (*domain.AccountingPeriod, error)

	// Close fails with apperrors.ErrOpenPriorPeriod or apperrors.ErrUnbalancedPeriod.
	Close(ctx context.Context, periodID string, actor string) (*domain.AccountingPeriod, error)

	GetPeriod(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)
	ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error)
}
