package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// ReportingSvcFacade computes read-only projections of the journal.
type ReportingSvcFacade interface {
	// TrialBalance fails with apperrors.ErrInvariantViolation if base balances do not sum to zero.
	TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error)
	ProfitAndLoss(ctx context.Context, start, end time.Time) (*domain.ProfitAndLoss, error)

	// BalanceSheet fails with apperrors.ErrInvariantViolation if assets != liabilities + equity.
	BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheet, error)
	AgedReceivables(ctx context.Context, asOf time.Time) (*domain.AgedReceivables, error)

	// IncomeExpense is ProfitAndLoss split into day, week, month or year rows.
	IncomeExpense(ctx context.Context, start, end time.Time, groupBy domain.ReportGrouping) (*domain.IncomeExpenseReport, error)

	// CashFlow covers the months calendar months ending with the month of end.
	CashFlow(ctx context.Context, end time.Time, months int) (*domain.CashFlowReport, error)
}
