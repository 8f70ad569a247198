package services_test

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

type ConcurrencyTestSuite struct {
	ledgerSuite
}

func (s *ConcurrencyTestSuite) request(key string, on time.Time, amount int64) domain.PostingRequest {
	return domain.PostingRequest{
		IdempotencyKey: key,
		PostingDate:    on,
		Description:    "concurrent " + key,
		Lines:          []domain.PostingLine{debit("5000", "USD", amount), credit("1000", "USD", amount)},
		Actor:          "tester",
	}
}

func (s *ConcurrencyTestSuite) sequences() []int64 {
	entries, _, err := s.svc.Ledger.ListEntries(s.ctx, domain.EntryFilter{Limit: 500}, nil)
	s.Require().NoError(err)
	out := make([]int64, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Sequence)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *ConcurrencyTestSuite) TestSharedIdempotencyKeysPostOnce() {
	const workers, keys = 50, 10

	results := make([]*domain.JournalEntry, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			k := i % keys
			results[i], errs[i] = s.svc.Ledger.Post(s.ctx, s.request(fmt.Sprintf("key-%d", k), day(2024, 2, k+1), int64(100*(k+1))))
		}(i)
	}
	wg.Wait()

	byKey := make(map[string]string)
	for i := 0; i < workers; i++ {
		s.Require().NoError(errs[i], "worker %d", i)
		key := results[i].IdempotencyKey
		if id, ok := byKey[key]; ok {
			s.Equal(id, results[i].EntryID, "every caller for %s sees the same entry", key)
			continue
		}
		byKey[key] = results[i].EntryID
	}
	s.Len(byKey, keys)
	s.Equal(keys, s.entryCount())

	want := make([]int64, keys)
	for i := range want {
		want[i] = int64(i + 1)
	}
	s.Equal(want, s.sequences())

	// 100+200+...+1000
	s.Equal(int64(-5500), s.balance("1000", day(2024, 3, 31)))
}

func (s *ConcurrencyTestSuite) TestReportsRunAlongsidePosts() {
	s.post("seed", day(2024, 1, 2), debit("1000", "USD", 1_000_000), credit("3000", "USD", 1_000_000))

	const writers, perWriter, readers = 8, 5, 4

	var writeErrs, readErrs sync.Map
	var wg sync.WaitGroup
	done := make(chan struct{})

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for n := 0; n < perWriter; n++ {
				on := day(2024, time.Month(1+(w+n)%3), 1+n)
				if _, err := s.svc.Ledger.Post(s.ctx, s.request(fmt.Sprintf("w%d-%d", w, n), on, int64(10+w))); err != nil {
					writeErrs.Store(fmt.Sprintf("w%d-%d", w, n), err)
				}
			}
		}(w)
	}

	var readersWG sync.WaitGroup
	for r := 0; r < readers; r++ {
		readersWG.Add(1)
		go func(r int) {
			defer readersWG.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				tb, err := s.svc.Reporting.TrialBalance(s.ctx, day(2024, 3, 31))
				if err != nil {
					readErrs.Store(fmt.Sprintf("tb-%d", r), err)
					return
				}
				if tb.TotalDebit != tb.TotalCredit {
					readErrs.Store(fmt.Sprintf("tb-%d", r), fmt.Errorf("debits %d credits %d", tb.TotalDebit, tb.TotalCredit))
					return
				}
				if _, err := s.svc.Reporting.BalanceSheet(s.ctx, day(2024, 3, 31)); err != nil {
					readErrs.Store(fmt.Sprintf("bs-%d", r), err)
					return
				}
			}
		}(r)
	}

	wg.Wait()
	close(done)
	readersWG.Wait()

	writeErrs.Range(func(k, v any) bool {
		s.Failf("post failed", "%v: %v", k, v)
		return true
	})
	readErrs.Range(func(k, v any) bool {
		s.Failf("report failed", "%v: %v", k, v)
		return true
	})

	s.Equal(1+writers*perWriter, s.entryCount())
	seqs := s.sequences()
	for i, seq := range seqs {
		s.Equal(int64(i+1), seq)
	}
	s.assertBooksBalanceOnEveryPostingDate()
}

func (s *ConcurrencyTestSuite) assertBooksBalanceOnEveryPostingDate() {
	entries, _, err := s.svc.Ledger.ListEntries(s.ctx, domain.EntryFilter{Limit: 500}, nil)
	s.Require().NoError(err)

	dates := make(map[time.Time]struct{})
	for _, e := range entries {
		dates[e.PostingDate] = struct{}{}
	}
	s.Require().NotEmpty(dates)

	for on := range dates {
		tb, err := s.svc.Reporting.TrialBalance(s.ctx, on)
		s.Require().NoError(err, "trial balance on %s", on.Format(time.DateOnly))
		s.Equal(tb.TotalDebit, tb.TotalCredit, "trial balance on %s", on.Format(time.DateOnly))

		bs, err := s.svc.Reporting.BalanceSheet(s.ctx, on)
		s.Require().NoError(err, "balance sheet on %s", on.Format(time.DateOnly))
		s.Equal(bs.TotalAssets, bs.TotalLiabilities+bs.TotalEquity, "balance sheet on %s", on.Format(time.DateOnly))
	}
}

func TestConcurrency(t *testing.T) {
	suite.Run(t, new(ConcurrencyTestSuite))
}
