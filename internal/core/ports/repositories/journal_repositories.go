package repositories

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// JournalReader defines read operations for committed journal entries.
type JournalReader interface {
	// FindEntryByID retrieves an entry with its lines.
	FindEntryByID(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// FindEntryByIdempotencyKey returns apperrors.ErrNotFound if the key was never committed.
	FindEntryByIdempotencyKey(ctx context.Context, key string) (*domain.JournalEntry, error)

	// FindReversalOf returns the entry that reverses entryID, or apperrors.ErrNotFound.
	FindReversalOf(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries returns entries ordered by sequence.
	ListEntries(ctx context.Context, filter domain.EntryFilter) ([]domain.JournalEntry, error)

	// SumLines aggregates lines per account.
	SumLines(ctx context.Context, filter domain.LineFilter) ([]domain.AccountActivity, error)

	// LastSequence is the highest committed sequence number, zero for an empty journal.
	LastSequence(ctx context.Context) (int64, error)
}

// JournalWriter defines the single write operation on the journal. There is
// no update or delete.
type JournalWriter interface {
	// SaveEntry appends an entry and its lines. The entry's Sequence must be
	// LastSequence()+1. Returns apperrors.ErrDuplicate if the idempotency key
	// exists and apperrors.ErrContention if the sequence was taken concurrently.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error
}

// JournalRepositoryFacade combines all journal repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}
