package services_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/core/services"
)

// flakyUnitOfWork fails the first few writes with contention.
type flakyUnitOfWork struct {
	portsrepo.UnitOfWork
	failures int
	calls    int
}

func (f *flakyUnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) error) error {
	f.calls++
	if f.calls <= f.failures {
		return fmt.Errorf("simulated serialization failure: %w", apperrors.ErrContention)
	}
	return f.UnitOfWork.Do(ctx, fn)
}

type LedgerServiceTestSuite struct {
	ledgerSuite
}

func (s *LedgerServiceTestSuite) fund() {
	s.post("fund", day(2024, 3, 1), debit("1000", "USD", 10000), credit("3000", "USD", 10000))
}

func (s *LedgerServiceTestSuite) TestReverse_RoundTripRestoresBalances() {
	s.fund()
	rent := s.post("rent", day(2024, 3, 1), debit("5000", "USD", 2500), credit("1000", "USD", 2500))
	s.Equal(int64(7500), s.balance("1000", day(2024, 3, 31)))
	s.Equal(int64(2500), s.balance("5000", day(2024, 3, 31)))

	rev, err := s.svc.Ledger.Reverse(s.ctx, rent.EntryID, domain.ReversalRequest{Actor: "tester"})
	s.Require().NoError(err)

	s.Equal(rent.EntryID, rev.ReversesEntryID)
	s.Equal(day(2024, 3, 1), rev.PostingDate)
	s.Require().Len(rev.Lines, len(rent.Lines))
	for i, l := range rev.Lines {
		s.Equal(rent.Lines[i].AccountCode, l.AccountCode)
		s.Equal(rent.Lines[i].Direction.Invert(), l.Direction)
		s.Equal(rent.Lines[i].Amount, l.Amount)
		s.Equal(rent.Lines[i].BaseAmount, l.BaseAmount)
	}
	s.Equal(int64(10000), s.balance("1000", day(2024, 3, 31)))
	s.Equal(int64(0), s.balance("5000", day(2024, 3, 31)))
	s.Len(s.publisher.published(domain.EventEntryReversed), 1)
}

func (s *LedgerServiceTestSuite) TestReverse_Idempotent() {
	s.fund()
	rent := s.post("rent", day(2024, 3, 1), debit("5000", "USD", 2500), credit("1000", "USD", 2500))

	first, err := s.svc.Ledger.Reverse(s.ctx, rent.EntryID, domain.ReversalRequest{})
	s.Require().NoError(err)
	second, err := s.svc.Ledger.Reverse(s.ctx, rent.EntryID, domain.ReversalRequest{})
	s.Require().NoError(err)

	s.Equal(first.EntryID, second.EntryID)
	s.Equal(3, s.entryCount())
}

func (s *LedgerServiceTestSuite) TestReverse_AlreadyReversed() {
	s.fund()
	rent := s.post("rent", day(2024, 3, 1), debit("5000", "USD", 2500), credit("1000", "USD", 2500))
	_, err := s.svc.Ledger.Reverse(s.ctx, rent.EntryID, domain.ReversalRequest{})
	s.Require().NoError(err)

	_, err = s.svc.Ledger.Reverse(s.ctx, rent.EntryID, domain.ReversalRequest{IdempotencyKey: "another"})
	s.ErrorIs(err, apperrors.ErrAlreadyReversed)
	s.ErrorIs(err, apperrors.ErrStateConflict)
}

func (s *LedgerServiceTestSuite) TestReverse_ReversalCannotBeReversed() {
	s.fund()
	rent := s.post("rent", day(2024, 3, 1), debit("5000", "USD", 2500), credit("1000", "USD", 2500))
	rev, err := s.svc.Ledger.Reverse(s.ctx, rent.EntryID, domain.ReversalRequest{})
	s.Require().NoError(err)

	_, err = s.svc.Ledger.Reverse(s.ctx, rev.EntryID, domain.ReversalRequest{})
	s.ErrorIs(err, apperrors.ErrStateConflict)
}

func (s *LedgerServiceTestSuite) TestReverse_NotFound() {
	_, err := s.svc.Ledger.Reverse(s.ctx, "missing", domain.ReversalRequest{})
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestReverse_OriginalInClosedPeriodPostsToday() {
	original := s.post("jan", day(2024, 1, 10), debit("1000", "USD", 800), credit("3000", "USD", 800))
	s.closePeriod("2024-01")

	rev, err := s.svc.Ledger.Reverse(s.ctx, original.EntryID, domain.ReversalRequest{})
	s.Require().NoError(err)
	s.Equal(day(2024, 3, 15), rev.PostingDate)

	s.Equal(int64(800), s.balance("1000", day(2024, 1, 31)))
	s.Equal(int64(0), s.balance("1000", day(2024, 3, 15)))
}

func (s *LedgerServiceTestSuite) TestReverse_ExplicitDateInClosedPeriod() {
	original := s.post("jan", day(2024, 1, 10), debit("1000", "USD", 800), credit("3000", "USD", 800))
	s.closePeriod("2024-01")

	when := day(2024, 1, 20)
	_, err := s.svc.Ledger.Reverse(s.ctx, original.EntryID, domain.ReversalRequest{ReversalDate: &when})
	s.ErrorIs(err, apperrors.ErrPeriodClosed)
}

func (s *LedgerServiceTestSuite) TestReverse_CopiesBaseAmounts() {
	original := s.post("fx", day(2024, 1, 5), debit("1010", "EUR", 1001), credit("3000", "USD", 1102))
	s.ingestRate("EUR", "USD", day(2024, 2, 1), "1.25")

	when := day(2024, 2, 10)
	rev, err := s.svc.Ledger.Reverse(s.ctx, original.EntryID, domain.ReversalRequest{ReversalDate: &when})
	s.Require().NoError(err)

	s.Require().Len(rev.Lines, 3)
	for i, l := range rev.Lines {
		s.Equal(original.Lines[i].BaseAmount, l.BaseAmount)
		s.Equal(original.Lines[i].IsRounding, l.IsRounding)
	}
	b, err := s.svc.Ledger.BalanceAsOf(s.ctx, "1010", day(2024, 2, 10))
	s.Require().NoError(err)
	s.Zero(b.Balance)
	s.Zero(b.BaseBalance)
}

func (s *LedgerServiceTestSuite) TestBalanceAsOf_RespectsPostingDate() {
	s.post("jan", day(2024, 1, 10), debit("1000", "USD", 100), credit("3000", "USD", 100))
	s.post("feb", day(2024, 2, 10), debit("1000", "USD", 250), credit("3000", "USD", 250))

	s.Equal(int64(0), s.balance("1000", day(2024, 1, 9)))
	s.Equal(int64(100), s.balance("1000", day(2024, 1, 31)))
	s.Equal(int64(350), s.balance("1000", day(2024, 2, 10)))

	equity, err := s.svc.Ledger.BalanceAsOf(s.ctx, "3000", day(2024, 2, 29))
	s.Require().NoError(err)
	s.Equal(int64(-350), equity.Balance)
	s.Equal(int64(350), equity.NormalBalance)
	s.Equal(int64(2), equity.AsOfSequence)
}

func (s *LedgerServiceTestSuite) TestBalanceAsOf_BackdatedEntry() {
	s.post("feb", day(2024, 2, 10), debit("1000", "USD", 250), credit("3000", "USD", 250))
	s.post("late-jan", day(2024, 1, 20), debit("1000", "USD", 100), credit("3000", "USD", 100))

	s.Equal(int64(100), s.balance("1000", day(2024, 1, 31)))
	s.Equal(int64(350), s.balance("1000", day(2024, 2, 29)))
}

func (s *LedgerServiceTestSuite) TestBalanceAsOfSequence() {
	s.post("a", day(2024, 2, 10), debit("1000", "USD", 100), credit("3000", "USD", 100))
	s.post("b", day(2024, 1, 20), debit("1000", "USD", 40), credit("3000", "USD", 40))
	s.post("c", day(2024, 3, 1), debit("5000", "USD", 10), credit("1000", "USD", 10))

	b, err := s.svc.Ledger.BalanceAsOfSequence(s.ctx, "1000", 2)
	s.Require().NoError(err)
	s.Equal(int64(140), b.Balance)
	s.Equal(int64(2), b.AsOfSequence)
	s.Equal(day(2024, 1, 20), b.AsOf)

	b, err = s.svc.Ledger.BalanceAsOfSequence(s.ctx, "1000", 3)
	s.Require().NoError(err)
	s.Equal(int64(130), b.Balance)

	_, err = s.svc.Ledger.BalanceAsOfSequence(s.ctx, "1000", 4)
	s.ErrorIs(err, apperrors.ErrValidation)
	_, err = s.svc.Ledger.BalanceAsOfSequence(s.ctx, "1000", 0)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerServiceTestSuite) TestBalanceAsOf_UnknownAccount() {
	_, err := s.svc.Ledger.BalanceAsOf(s.ctx, "nope", day(2024, 1, 1))
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestListEntries_Pages() {
	for i := 1; i <= 5; i++ {
		s.post(fmt.Sprintf("k-%d", i), day(2024, 2, i), debit("1000", "USD", int64(i)), credit("3000", "USD", int64(i)))
	}

	var seqs []int64
	var token *string
	pages := 0
	for {
		page, next, err := s.svc.Ledger.ListEntries(s.ctx, domain.EntryFilter{Limit: 2}, token)
		s.Require().NoError(err)
		pages++
		for _, e := range page {
			seqs = append(seqs, e.Sequence)
		}
		if next == nil {
			break
		}
		token = next
	}
	s.Equal(3, pages)
	s.Equal([]int64{1, 2, 3, 4, 5}, seqs)
}

func (s *LedgerServiceTestSuite) TestListEntries_FilterByAccount() {
	s.fund()
	s.post("rent", day(2024, 3, 2), debit("5000", "USD", 100), credit("1000", "USD", 100))

	entries, next, err := s.svc.Ledger.ListEntries(s.ctx, domain.EntryFilter{AccountCode: "5000"}, nil)
	s.Require().NoError(err)
	s.Nil(next)
	s.Require().Len(entries, 1)
	s.Equal("rent", entries[0].IdempotencyKey)
}

func (s *LedgerServiceTestSuite) TestListEntries_BadToken() {
	bad := "%%%"
	_, _, err := s.svc.Ledger.ListEntries(s.ctx, domain.EntryFilter{}, &bad)
	s.ErrorIs(err, apperrors.ErrValidation)
}

func (s *LedgerServiceTestSuite) TestGetEntry() {
	entry := s.post("one", day(2024, 1, 2), debit("1000", "USD", 1), credit("3000", "USD", 1))

	got, err := s.svc.Ledger.GetEntry(s.ctx, entry.EntryID)
	s.Require().NoError(err)
	s.Equal(entry.Sequence, got.Sequence)

	_, err = s.svc.Ledger.GetEntry(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *LedgerServiceTestSuite) TestPost_RetriesContention() {
	flaky := &flakyUnitOfWork{UnitOfWork: s.uow, failures: 2}
	ledger := services.NewLedgerService(flaky, s.policy, services.WithClock(s.clock), services.WithPostingRetries(3))

	entry, err := ledger.Post(s.ctx, domain.PostingRequest{
		IdempotencyKey: "retry",
		PostingDate:    day(2024, 1, 2),
		Description:    "retried",
		Lines:          []domain.PostingLine{debit("1000", "USD", 7), credit("3000", "USD", 7)},
	})
	s.Require().NoError(err)
	s.Equal(int64(1), entry.Sequence)
	s.Equal(3, flaky.calls)
}

func (s *LedgerServiceTestSuite) TestPost_ContentionSurfacesAfterRetries() {
	flaky := &flakyUnitOfWork{UnitOfWork: s.uow, failures: 5}
	ledger := services.NewLedgerService(flaky, s.policy, services.WithClock(s.clock), services.WithPostingRetries(1))

	_, err := ledger.Post(s.ctx, domain.PostingRequest{
		IdempotencyKey: "retry",
		PostingDate:    day(2024, 1, 2),
		Description:    "retried",
		Lines:          []domain.PostingLine{debit("1000", "USD", 7), credit("3000", "USD", 7)},
	})
	s.ErrorIs(err, apperrors.ErrContention)
	s.Equal(2, flaky.calls)
	s.Equal(0, s.entryCount())
}

func (s *LedgerServiceTestSuite) TestPost_NonContentionErrorIsNotRetried() {
	flaky := &flakyUnitOfWork{UnitOfWork: s.uow}
	ledger := services.NewLedgerService(flaky, s.policy, services.WithClock(s.clock), services.WithPostingRetries(3))

	_, err := ledger.Post(s.ctx, domain.PostingRequest{
		IdempotencyKey: "no-period",
		PostingDate:    day(2025, 1, 2),
		Description:    "outside every period",
		Lines:          []domain.PostingLine{debit("1000", "USD", 7), credit("3000", "USD", 7)},
	})
	s.ErrorIs(err, services.ErrNoOpenPeriod)
	s.Equal(1, flaky.calls)
}

func (s *LedgerServiceTestSuite) TestPost_RetryStopsWhenContextCancelled() {
	flaky := &flakyUnitOfWork{UnitOfWork: s.uow, failures: 5}
	ledger := services.NewLedgerService(flaky, s.policy, services.WithClock(s.clock), services.WithPostingRetries(3))
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := ledger.Post(ctx, domain.PostingRequest{
		IdempotencyKey: "cancelled",
		PostingDate:    day(2024, 1, 2),
		Description:    "never retried",
		Lines:          []domain.PostingLine{debit("1000", "USD", 7), credit("3000", "USD", 7)},
	})
	s.ErrorIs(err, context.Canceled)
	s.LessOrEqual(flaky.calls, 1)
	s.Equal(0, s.entryCount())
}

func TestLedgerService(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}
