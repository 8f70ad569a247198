package services

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// ChartReaderSvc defines read operations on the chart of accounts.
type ChartReaderSvc interface {
	// Lookup returns apperrors.ErrNotFound if the code was never created.
	Lookup(ctx context.Context, code string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
}

// ChartWriterSvc defines write operations on the chart of accounts.
type ChartWriterSvc interface {
	// CreateAccount fails with apperrors.ErrDuplicateCode if the code was ever used.
	CreateAccount(ctx context.Context, cmd domain.CreateAccountCommand) (*domain.Account, error)

	// Deactivate fails with apperrors.ErrAccountInUse if the account has a
	// non-zero balance or appears in an open-period entry.
	Deactivate(ctx context.Context, code string, actor string) (*domain.Account, error)

	// ChangeAccountType fails with apperrors.ErrAccountInUse once any entry references the account.
	ChangeAccountType(ctx context.Context, code string, accountType domain.AccountType, actor string) (*domain.Account, error)
}

// ChartSvcFacade combines all chart of accounts service interfaces.
type ChartSvcFacade interface {
	ChartReaderSvc
	ChartWriterSvc
}
