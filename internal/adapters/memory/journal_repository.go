package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
)

func (s *store) FindEntryByID(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	i, ok := s.st.entryByID[entryID]
	if !ok {
		return nil, fmt.Errorf("journal entry %s: %w", entryID, apperrors.ErrNotFound)
	}
	e := copyEntry(s.st.entries[i])
	return &e, nil
}

func (s *store) FindEntryByIdempotencyKey(_ context.Context, key string) (*domain.JournalEntry, error) {
	i, ok := s.st.entryByKey[key]
	if !ok {
		return nil, fmt.Errorf("idempotency key %s: %w", key, apperrors.ErrNotFound)
	}
	e := copyEntry(s.st.entries[i])
	return &e, nil
}

func (s *store) FindReversalOf(_ context.Context, entryID string) (*domain.JournalEntry, error) {
	i, ok := s.st.reversalOf[entryID]
	if !ok {
		return nil, fmt.Errorf("reversal of %s: %w", entryID, apperrors.ErrNotFound)
	}
	e := copyEntry(s.st.entries[i])
	return &e, nil
}

func (s *store) ListEntries(_ context.Context, filter domain.EntryFilter) ([]domain.JournalEntry, error) {
	out := make([]domain.JournalEntry, 0)
	for _, e := range s.st.entries {
		if e.Sequence <= filter.AfterSequence {
			continue
		}
		if filter.FromDate != nil && e.PostingDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.PostingDate.After(*filter.ToDate) {
			continue
		}
		if filter.AccountCode != "" && !e.Touches(filter.AccountCode) {
			continue
		}
		out = append(out, copyEntry(e))
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (s *store) SumLines(_ context.Context, filter domain.LineFilter) ([]domain.AccountActivity, error) {
	byAccount := accounting.Activity(s.st.entries, filter)
	out := make([]domain.AccountActivity, 0, len(byAccount))
	for _, a := range byAccount {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountCode < out[j].AccountCode })
	return out, nil
}

func (s *store) LastSequence(_ context.Context) (int64, error) {
	if len(s.st.entries) == 0 {
		return 0, nil
	}
	return s.st.entries[len(s.st.entries)-1].Sequence, nil
}

func (s *store) SaveEntry(ctx context.Context, entry domain.JournalEntry) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, exists := s.st.entryByKey[entry.IdempotencyKey]; exists {
		return fmt.Errorf("idempotency key %s: %w", entry.IdempotencyKey, apperrors.ErrDuplicate)
	}
	last, _ := s.LastSequence(ctx)
	if entry.Sequence != last+1 {
		return fmt.Errorf("sequence %d after %d: %w", entry.Sequence, last, apperrors.ErrContention)
	}
	if entry.ReversesEntryID != "" {
		if _, exists := s.st.reversalOf[entry.ReversesEntryID]; exists {
			return fmt.Errorf("entry %s: %w", entry.ReversesEntryID, apperrors.ErrAlreadyReversed)
		}
	}

	idx := len(s.st.entries)
	s.st.entries = append(s.st.entries, copyEntry(entry))
	s.st.entryByID[entry.EntryID] = idx
	s.st.entryByKey[entry.IdempotencyKey] = idx
	if entry.ReversesEntryID != "" {
		s.st.reversalOf[entry.ReversesEntryID] = idx
	}
	return nil
}
