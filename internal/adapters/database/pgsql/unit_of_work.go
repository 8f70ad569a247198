// Package pgsql implements the repository ports on PostgreSQL through pgx.
// Writers run SERIALIZABLE so the gapless journal sequence and every
// read-check-write in the services hold under concurrency; readers get a
// REPEATABLE READ snapshot.
package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
)

// UnitOfWork implements portsrepo.UnitOfWork over a pgx pool.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

// NewUnitOfWork creates a UnitOfWork on the given pool.
func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

var _ portsrepo.UnitOfWork = (*UnitOfWork)(nil)

func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	return u.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, fn)
}

func (u *UnitOfWork) Read(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	return u.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (u *UnitOfWork) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	tx, err := u.pool.BeginTx(ctx, opts)
	if err != nil {
		return apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	// Will be ignored if the transaction is committed successfully
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, NewRepositoryProvider(tx)); err != nil {
		return mapPgError(err, "unit of work")
	}
	if err := tx.Commit(ctx); err != nil {
		return mapPgError(err, "failed to commit transaction")
	}
	return nil
}

// NewRepositoryProvider builds every repository on one querier.
func NewRepositoryProvider(tx pgx.Tx) portsrepo.RepositoryProvider {
	base := BaseRepository{q: tx}
	return portsrepo.RepositoryProvider{
		AccountRepo:      &PgxAccountRepository{BaseRepository: base},
		JournalRepo:      &PgxJournalRepository{BaseRepository: base},
		ExchangeRateRepo: &PgxExchangeRateRepository{BaseRepository: base},
		InvoiceRepo:      &PgxInvoiceRepository{BaseRepository: base},
		PeriodRepo:       &PgxPeriodRepository{BaseRepository: base},
	}
}
