package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
)

// SQLSTATE codes the adapter translates into domain errors.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgRaiseException       = "P0001"
)

const reversalUniqueConstraint = "journal_entries_reverses_entry_id_key"

// querier is the part of pgx.Tx the repositories need.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// BaseRepository provides common functionality for all repositories.
// Every repository runs on the transaction opened by the UnitOfWork.
type BaseRepository struct {
	q querier
}

// mapPgError translates driver errors into the apperrors taxonomy. Errors
// that did not come from Postgres pass through untouched.
func mapPgError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		if pgErr.ConstraintName == reversalUniqueConstraint {
			return fmt.Errorf("%s: %w", what, apperrors.ErrAlreadyReversed)
		}
		return fmt.Errorf("%s: %w (%s)", what, apperrors.ErrDuplicate, pgErr.ConstraintName)
	case pgSerializationFailure, pgDeadlockDetected:
		return fmt.Errorf("%s: %w", what, apperrors.ErrContention)
	case pgForeignKeyViolation, pgCheckViolation:
		return fmt.Errorf("%s: %w: %s", what, apperrors.ErrValidation, pgErr.Message)
	case pgRaiseException:
		return fmt.Errorf("%s: %w: %s", what, apperrors.ErrInvariantViolation, pgErr.Message)
	}
	return apperrors.NewAppError(500, what, err)
}
