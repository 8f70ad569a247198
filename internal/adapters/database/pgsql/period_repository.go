package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
)

// PgxPeriodRepository implements portsrepo.PeriodRepositoryFacade.
type PgxPeriodRepository struct {
	BaseRepository
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

const periodColumns = `period_id, name, start_date, end_date, status, closed_at, closing_balances,
	created_at, created_by, last_updated_at, last_updated_by`

func scanPeriod(row pgx.Row) (domain.AccountingPeriod, error) {
	var m models.AccountingPeriod
	err := row.Scan(
		&m.PeriodID, &m.Name, &m.StartDate, &m.EndDate, &m.Status, &m.ClosedAt, &m.ClosingBalances,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return domain.AccountingPeriod{}, err
	}
	return mapping.ToDomainPeriod(m)
}

func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	p, err := scanPeriod(r.q.QueryRow(ctx, `SELECT `+periodColumns+` FROM accounting_periods WHERE period_id = $1`, periodID))
	if err != nil {
		return nil, mapPgError(err, "period "+periodID)
	}
	return &p, nil
}

func (r *PgxPeriodRepository) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	rows, err := r.q.Query(ctx, `SELECT `+periodColumns+` FROM accounting_periods ORDER BY start_date`)
	if err != nil {
		return nil, mapPgError(err, "failed to list periods")
	}
	defer rows.Close()
	periods := make([]domain.AccountingPeriod, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, mapPgError(err, "failed to scan period")
		}
		periods = append(periods, p)
	}
	return periods, mapPgError(rows.Err(), "failed to iterate periods")
}

func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	m, err := mapping.ToModelPeriod(period)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO accounting_periods (`+periodColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.PeriodID, m.Name, m.StartDate, m.EndDate, m.Status, m.ClosedAt, m.ClosingBalances,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapPgError(err, "period "+m.PeriodID)
}

func (r *PgxPeriodRepository) UpdatePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	m, err := mapping.ToModelPeriod(period)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE accounting_periods
		SET status = $2, closed_at = $3, closing_balances = $4, last_updated_at = $5, last_updated_by = $6
		WHERE period_id = $1`,
		m.PeriodID, m.Status, m.ClosedAt, m.ClosingBalances, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "period "+m.PeriodID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("period %s: %w", m.PeriodID, apperrors.ErrNotFound)
	}
	return nil
}
