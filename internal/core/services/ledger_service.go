package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/utils/pagination"
)

// ledgerService is the single writer of the journal.
type ledgerService struct {
	BaseService
	uow     portsrepo.UnitOfWork
	poster  *journalPoster
	retries int
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(uow portsrepo.UnitOfWork, policy domain.LedgerPolicy, opts ...ServiceOption) portssvc.LedgerSvcFacade {
	o := buildOptions(opts)
	return &ledgerService{
		BaseService: o.base(),
		uow:         uow,
		poster:      newJournalPoster(policy, o.clock),
		retries:     o.postingRetries,
	}
}

var _ portssvc.LedgerSvcFacade = (*ledgerService)(nil)

// Bounds of the jittered exponential wait between contended attempts.
const (
	retryInitialInterval = 10 * time.Millisecond
	retryMaxInterval     = 250 * time.Millisecond
)

// withRetry runs a write unit of work, retrying only on contention with a
// jittered exponential backoff. Each attempt re-reads state, so a retried
// post sees whatever committed in between.
func withRetry(ctx context.Context, base *BaseService, retries int, fn func() error) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = retryInitialInterval
	policy.MaxInterval = retryMaxInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := fn()
		if err != nil && !errors.Is(err, apperrors.ErrContention) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(retries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			base.LogDebug(ctx, "Retrying contended write", slog.Int("attempt", attempt), slog.Duration("wait", wait))
		}),
	)
	return err
}

func (s *ledgerService) Post(ctx context.Context, req domain.PostingRequest) (*domain.JournalEntry, error) {
	if req.ReversesEntryID != "" {
		return nil, fmt.Errorf("%w: use Reverse to post a reversal", apperrors.ErrValidation)
	}

	var res *postResult
	err := withRetry(ctx, &s.BaseService, s.retries, func() error {
		return s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
			var err error
			res, err = s.poster.post(ctx, repos, req)
			return err
		})
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to post journal entry", slog.String("idempotency_key", req.IdempotencyKey))
		}
		return nil, err
	}

	if res.replayed {
		s.LogDebug(ctx, "Journal entry replayed", entryLogAttrs(res.entry)...)
		return res.entry, nil
	}
	s.LogInfo(ctx, "Journal entry posted", entryLogAttrs(res.entry)...)
	s.Publish(ctx, domain.Event{Type: domain.EventEntryPosted, Key: res.entry.EntryID, OccurredAt: s.Now(), Payload: res.entry})
	return res.entry, nil
}

func (s *ledgerService) Reverse(ctx context.Context, entryID string, req domain.ReversalRequest) (*domain.JournalEntry, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, fmt.Errorf("%w: entry ID is required", apperrors.ErrValidation)
	}

	var res *postResult
	err := withRetry(ctx, &s.BaseService, s.retries, func() error {
		return s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
			if err := guardInvoiceEntry(ctx, repos.InvoiceRepo, entryID); err != nil {
				return err
			}
			var err error
			res, err = s.poster.reverse(ctx, repos, entryID, req)
			return err
		})
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to reverse journal entry", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	if !res.replayed {
		s.LogInfo(ctx, "Journal entry reversed", append(entryLogAttrs(res.entry), slog.String("reverses_entry_id", entryID))...)
		s.Publish(ctx, domain.Event{Type: domain.EventEntryReversed, Key: entryID, OccurredAt: s.Now(), Payload: res.entry})
	}
	return res.entry, nil
}

// guardInvoiceEntry refuses direct reversal of entries an invoice depends on.
// Undoing them goes through Void or a credit note so the invoice and the
// books move together.
func guardInvoiceEntry(ctx context.Context, repo portsrepo.InvoiceReader, entryID string) error {
	inv, err := repo.FindInvoiceByEntryID(ctx, entryID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check invoice ownership of entry %s: %w", entryID, err)
	}
	return fmt.Errorf("%w: %s records invoice %s; void the invoice or apply a credit note instead",
		apperrors.ErrInvoiceEntry, entryID, inv.InvoiceNumber)
}

func (s *ledgerService) BalanceAsOf(ctx context.Context, accountCode string, asOf time.Time) (*domain.AccountBalance, error) {
	asOf = domain.DateOnly(asOf)
	var balance *domain.AccountBalance
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		last, err := repos.JournalRepo.LastSequence(ctx)
		if err != nil {
			return err
		}
		balance, err = accountBalance(ctx, repos, accountCode, domain.LineFilter{ToDate: &asOf})
		if err != nil {
			return err
		}
		balance.AsOf = asOf
		balance.AsOfSequence = last
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

func (s *ledgerService) BalanceAsOfSequence(ctx context.Context, accountCode string, sequence int64) (*domain.AccountBalance, error) {
	if sequence <= 0 {
		return nil, fmt.Errorf("%w: sequence must be positive", apperrors.ErrValidation)
	}
	var balance *domain.AccountBalance
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		last, err := repos.JournalRepo.LastSequence(ctx)
		if err != nil {
			return err
		}
		if sequence > last {
			return fmt.Errorf("%w: sequence %d is beyond the last committed entry %d", apperrors.ErrValidation, sequence, last)
		}
		balance, err = accountBalance(ctx, repos, accountCode, domain.LineFilter{MaxSequence: sequence})
		if err != nil {
			return err
		}
		at, err := repos.JournalRepo.ListEntries(ctx, domain.EntryFilter{AfterSequence: sequence - 1, Limit: 1})
		if err != nil {
			return err
		}
		if len(at) == 1 {
			balance.AsOf = at[0].PostingDate
		}
		balance.AsOfSequence = sequence
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}

// accountBalance replays one account's lines under filter.
func accountBalance(ctx context.Context, repos portsrepo.RepositoryProvider, accountCode string, filter domain.LineFilter) (*domain.AccountBalance, error) {
	account, err := repos.AccountRepo.FindAccountByCode(ctx, strings.TrimSpace(accountCode))
	if err != nil {
		return nil, err
	}
	filter.AccountCodes = []string{account.Code}
	activity, err := repos.JournalRepo.SumLines(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to sum lines: %w", err)
	}
	balance := &domain.AccountBalance{
		AccountCode:  account.Code,
		AccountName:  account.Name,
		AccountType:  account.AccountType,
		CurrencyCode: account.CurrencyCode,
	}
	for _, a := range activity {
		if a.AccountCode != account.Code {
			continue
		}
		balance.Balance += a.Net()
		balance.BaseBalance += a.NetBase()
	}
	balance.NormalBalance = account.AccountType.Present(balance.Balance)
	return balance, nil
}

func (s *ledgerService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	var entry *domain.JournalEntry
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		entry, err = repos.JournalRepo.FindEntryByID(ctx, entryID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListEntries returns one page and a token for the next, nil on the last page.
func (s *ledgerService) ListEntries(ctx context.Context, filter domain.EntryFilter, nextToken *string) ([]domain.JournalEntry, *string, error) {
	limit := pagination.ClampLimit(filter.Limit)
	if nextToken != nil && *nextToken != "" {
		after, err := pagination.DecodeSequenceToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		filter.AfterSequence = after
	}
	filter.Limit = limit + 1

	var entries []domain.JournalEntry
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		entries, err = repos.JournalRepo.ListEntries(ctx, filter)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list journal entries")
		return nil, nil, err
	}

	var next *string
	if len(entries) > limit {
		entries = entries[:limit]
		token := pagination.EncodeSequenceToken(entries[limit-1].Sequence)
		next = &token
	}
	return entries, next, nil
}
