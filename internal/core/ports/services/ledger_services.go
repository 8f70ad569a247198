package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// LedgerWriterSvc appends entries to the journal.
type LedgerWriterSvc interface {
	// Post commits a balanced entry or nothing. Resubmitting the same
	// idempotency key returns the entry committed the first time.
	Post(ctx context.Context, req domain.PostingRequest) (*domain.JournalEntry, error)

	// Reverse posts a new entry inverting every line of entryID.
	Reverse(ctx context.Context, entryID string, req domain.ReversalRequest) (*domain.JournalEntry, error)
}

// LedgerReaderSvc answers balance and entry queries from committed lines.
type LedgerReaderSvc interface {
	BalanceAsOf(ctx context.Context, accountCode string, asOf time.Time) (*domain.AccountBalance, error)
	BalanceAsOfSequence(ctx context.Context, accountCode string, sequence int64) (*domain.AccountBalance, error)
	GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error)

	// ListEntries pages through the journal in sequence order.
	ListEntries(ctx context.Context, filter domain.EntryFilter, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// LedgerSvcFacade combines all ledger service interfaces.
type LedgerSvcFacade interface {
	LedgerWriterSvc
	LedgerReaderSvc
}
