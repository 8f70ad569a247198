// Package memory is an in-process implementation of the repository ports.
// A single RWMutex serializes writers; every Do runs against a private copy
// of the state that replaces the shared state only when fn succeeds.
package memory

import (
	"context"
	"errors"
	"sync"

	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
)

var errReadOnly = errors.New("memory: write attempted in a read-only unit of work")

// UnitOfWork implements portsrepo.UnitOfWork over in-memory state.
type UnitOfWork struct {
	mu sync.RWMutex
	st *state
}

// NewUnitOfWork creates an empty store.
func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{st: newState()}
}

var _ portsrepo.UnitOfWork = (*UnitOfWork)(nil)

// Do runs fn with exclusive access. Writes become visible only if fn returns nil.
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()

	work := u.st.clone()
	if err := fn(ctx, work.provider(false)); err != nil {
		return err
	}
	u.st = work
	return nil
}

// Read runs fn against the committed state. Concurrent readers share the lock.
func (u *UnitOfWork) Read(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.mu.RLock()
	defer u.mu.RUnlock()
	return fn(ctx, u.st.provider(true))
}

// store is the repository view handed to fn. One value implements every facade.
type store struct {
	st       *state
	readOnly bool
}

var (
	_ portsrepo.AccountRepositoryFacade      = (*store)(nil)
	_ portsrepo.JournalRepositoryFacade      = (*store)(nil)
	_ portsrepo.ExchangeRateRepositoryFacade = (*store)(nil)
	_ portsrepo.InvoiceRepositoryFacade      = (*store)(nil)
	_ portsrepo.PeriodRepositoryFacade       = (*store)(nil)
)

func (s *state) provider(readOnly bool) portsrepo.RepositoryProvider {
	st := &store{st: s, readOnly: readOnly}
	return portsrepo.RepositoryProvider{
		AccountRepo:      st,
		JournalRepo:      st,
		ExchangeRateRepo: st,
		InvoiceRepo:      st,
		PeriodRepo:       st,
	}
}

func (s *store) writable() error {
	if s.readOnly {
		return errReadOnly
	}
	return nil
}
