package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
)

// PgxExchangeRateRepository implements portsrepo.ExchangeRateRepositoryFacade.
type PgxExchangeRateRepository struct {
	BaseRepository
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

const rateColumns = `rate_id, from_currency, to_currency, effective_date, rate, source, used_in_conversion,
	created_at, created_by, last_updated_at, last_updated_by`

func scanRate(row pgx.Row) (models.ExchangeRate, error) {
	var m models.ExchangeRate
	err := row.Scan(
		&m.RateID, &m.FromCurrency, &m.ToCurrency, &m.EffectiveDate, &m.Rate, &m.Source, &m.UsedInConversion,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func (r *PgxExchangeRateRepository) findOne(ctx context.Context, what, query string, args ...any) (*domain.ExchangeRate, error) {
	m, err := scanRate(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapPgError(err, what)
	}
	rate := mapping.ToDomainExchangeRate(m)
	return &rate, nil
}

func (r *PgxExchangeRateRepository) FindRateOnDate(ctx context.Context, from, to string, effectiveDate time.Time) (*domain.ExchangeRate, error) {
	return r.findOne(ctx, "rate "+from+"/"+to, `
		SELECT `+rateColumns+` FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND effective_date = $3`,
		from, to, domain.DateOnly(effectiveDate))
}

func (r *PgxExchangeRateRepository) FindLatestRate(ctx context.Context, from, to string, onDate time.Time) (*domain.ExchangeRate, error) {
	return r.findOne(ctx, "rate "+from+"/"+to, `
		SELECT `+rateColumns+` FROM exchange_rates
		WHERE from_currency = $1 AND to_currency = $2 AND effective_date <= $3
		ORDER BY effective_date DESC
		LIMIT 1`,
		from, to, domain.DateOnly(onDate))
}

func (r *PgxExchangeRateRepository) ListRates(ctx context.Context, from, to string) ([]domain.ExchangeRate, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+rateColumns+` FROM exchange_rates
		WHERE ($1::text = '' OR from_currency = $1) AND ($2::text = '' OR to_currency = $2)
		ORDER BY effective_date, from_currency, to_currency`, from, to)
	if err != nil {
		return nil, mapPgError(err, "failed to list exchange rates")
	}
	defer rows.Close()
	rates := make([]domain.ExchangeRate, 0)
	for rows.Next() {
		m, err := scanRate(rows)
		if err != nil {
			return nil, mapPgError(err, "failed to scan exchange rate")
		}
		rates = append(rates, mapping.ToDomainExchangeRate(m))
	}
	return rates, mapPgError(rows.Err(), "failed to iterate exchange rates")
}

// UpsertRate keeps the row identity of an existing pair and date.
func (r *PgxExchangeRateRepository) UpsertRate(ctx context.Context, rate domain.ExchangeRate) error {
	m := mapping.ToModelExchangeRate(rate)
	_, err := r.q.Exec(ctx, `
		INSERT INTO exchange_rates (`+rateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (from_currency, to_currency, effective_date) DO UPDATE
		SET rate = EXCLUDED.rate,
		    source = EXCLUDED.source,
		    used_in_conversion = exchange_rates.used_in_conversion OR EXCLUDED.used_in_conversion,
		    last_updated_at = EXCLUDED.last_updated_at,
		    last_updated_by = EXCLUDED.last_updated_by`,
		m.RateID, m.FromCurrency, m.ToCurrency, m.EffectiveDate, m.Rate, m.Source, m.UsedInConversion,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapPgError(err, "failed to upsert exchange rate")
}

func (r *PgxExchangeRateRepository) MarkRatesUsed(ctx context.Context, rateIDs []string) error {
	if len(rateIDs) == 0 {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		UPDATE exchange_rates SET used_in_conversion = TRUE
		WHERE rate_id = ANY($1) AND NOT used_in_conversion`, rateIDs)
	return mapPgError(err, "failed to mark rates used")
}
