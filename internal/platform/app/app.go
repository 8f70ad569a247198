// Package app assembles storage, outbound adapters and services from config.
// It is shared by the HTTP server and the ledgerctl admin tool.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/SscSPs/ledger_engine/internal/adapters/cache"
	"github.com/SscSPs/ledger_engine/internal/adapters/database/pgsql"
	"github.com/SscSPs/ledger_engine/internal/adapters/events"
	"github.com/SscSPs/ledger_engine/internal/adapters/memory"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/core/services"
	"github.com/SscSPs/ledger_engine/internal/platform/config"
	"github.com/SscSPs/ledger_engine/pkg/database"
)

// App holds the wired service container and everything that must be released on shutdown.
type App struct {
	Services *portssvc.ServiceContainer

	closers []func() error
}

// New connects storage, runs migrations for postgres, and wires the optional
// redis and kafka adapters.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{}

	uow, err := a.openStorage(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []services.ServiceOption{services.WithPostingRetries(cfg.PostingMaxRetries)}
	var publishers []portssvc.EventPublisher

	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, strings.Split(cfg.RedisAddr, ","), cfg.RedisPassword)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		opts = append(opts, services.WithReportCache(cache.NewRedisReportCache(client, "ledger:"), cfg.ReportCacheTTL))
		logger.Info("Report cache enabled", slog.String("redis", cfg.RedisAddr), slog.Duration("ttl", cfg.ReportCacheTTL))

		if cfg.RedisChannel != "" {
			publishers = append(publishers, events.NewRedisPublisher(client, cfg.RedisChannel))
			logger.Info("Publishing events to redis", slog.String("channel", cfg.RedisChannel))
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		publishers = append(publishers, events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic))
		logger.Info("Publishing events to kafka", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
	}

	publisher := events.NewMultiPublisher(publishers...)
	a.closers = append(a.closers, publisher.Close)
	opts = append(opts, services.WithEventPublisher(publisher))

	container, err := services.NewServiceContainer(uow, cfg.Policy, opts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Services = container

	if cfg.EnableDBCheck {
		if err := a.CheckIntegrity(ctx, logger); err != nil {
			a.Close()
			return nil, err
		}
	}
	return a, nil
}

// CheckIntegrity runs a trial balance over the whole journal. It fails with
// apperrors.ErrInvariantViolation when committed lines do not net to zero.
func (a *App) CheckIntegrity(ctx context.Context, logger *slog.Logger) error {
	tb, err := a.Services.Reporting.TrialBalance(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("journal integrity check: %w", err)
	}
	logger.Info("Journal integrity check passed",
		slog.Int("accounts", len(tb.Rows)),
		slog.Int64("total_debit", tb.TotalDebit),
	)
	return nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.UnitOfWork, error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; data is lost on exit")
		return memory.NewUnitOfWork(), nil
	case config.StoragePostgres:
		if err := runMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			return nil, err
		}
		pool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database pool: %w", err)
		}
		a.closers = append(a.closers, func() error {
			database.ClosePgxPool(pool)
			return nil
		})
		return pgsql.NewUnitOfWork(pool), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// Close releases adapters in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// runMigrations applies all pending "up" migrations through a short-lived
// database/sql connection using the pgx stdlib driver.
func runMigrations(databaseURL, migrationsPath string, logger *slog.Logger) error {
	logger.Info("Running database migrations...", slog.String("source", migrationsPath))

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	// Closing the driver also closes migrationDB; sql.DB.Close is idempotent.
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return fmt.Errorf("migration close: %w", errors.Join(sourceErr, dbErr))
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
