package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rates.
type ExchangeRateReader interface {
	// FindRateOnDate returns the rate for the exact pair and effective date.
	FindRateOnDate(ctx context.Context, from, to string, effectiveDate time.Time) (*domain.ExchangeRate, error)

	// FindLatestRate returns the most recent direct rate effective on or before onDate.
	FindLatestRate(ctx context.Context, from, to string, onDate time.Time) (*domain.ExchangeRate, error)

	// ListRates returns all rates for a pair ordered by effective date. Empty codes match any currency.
	ListRates(ctx context.Context, from, to string) ([]domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for exchange rates.
type ExchangeRateWriter interface {
	// UpsertRate inserts or replaces the rate for the pair and effective date.
	UpsertRate(ctx context.Context, rate domain.ExchangeRate) error

	// MarkRatesUsed flags rates as used in a committed conversion.
	MarkRatesUsed(ctx context.Context, rateIDs []string) error
}

// ExchangeRateRepositoryFacade combines exchange rate reads and writes.
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
