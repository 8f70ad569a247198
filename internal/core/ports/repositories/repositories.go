package repositories

import "context"

// RepositoryProvider holds the repositories bound to one unit of work.
type RepositoryProvider struct {
	AccountRepo      AccountRepositoryFacade
	JournalRepo      JournalRepositoryFacade
	ExchangeRateRepo ExchangeRateRepositoryFacade
	InvoiceRepo      InvoiceRepositoryFacade
	PeriodRepo       PeriodRepositoryFacade
}

// UnitOfWork runs repository calls atomically.
//
// Do executes fn in a serializable read-validate-write transaction: either
// every write made through repos commits or none does. Conflicting
// concurrent work surfaces as apperrors.ErrContention.
//
// Read executes fn against a consistent read-only snapshot.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos RepositoryProvider) error) error
	Read(ctx context.Context, fn func(ctx context.Context, repos RepositoryProvider) error) error
}
