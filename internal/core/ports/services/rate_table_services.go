package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// RateTableReaderSvc converts amounts with time-correct direct rates.
type RateTableReaderSvc interface {
	// Convert uses the latest direct rate effective on or before onDate.
	Convert(ctx context.Context, amount domain.Money, toCurrency string, onDate time.Time) (*domain.Conversion, error)

	// ConvertLines converts several amounts with one rate and reports the rounding residual.
	ConvertLines(ctx context.Context, amounts []int64, fromCurrency, toCurrency string, onDate time.Time) (*domain.LinesConversion, error)

	GetRate(ctx context.Context, fromCurrency, toCurrency string, onDate time.Time) (*domain.ExchangeRate, error)
	ListRates(ctx context.Context, fromCurrency, toCurrency string) ([]domain.ExchangeRate, error)
}

// RateTableWriterSvc ingests rates.
type RateTableWriterSvc interface {
	// IngestRate upserts a rate. Overwriting a rate already used in a
	// committed conversion fails with apperrors.ErrRateInUse.
	IngestRate(ctx context.Context, ingestion domain.RateIngestion, actor string) (*domain.ExchangeRate, error)

	// IngestCrossRate stores from->to derived from from->via and via->to on the same date.
	IngestCrossRate(ctx context.Context, fromCurrency, viaCurrency, toCurrency string, effectiveDate time.Time, actor string) (*domain.ExchangeRate, error)
}

// RateTableSvcFacade combines all rate table service interfaces.
type RateTableSvcFacade interface {
	RateTableReaderSvc
	RateTableWriterSvc
}
