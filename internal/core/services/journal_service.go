package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
)

const (
	maxIdempotencyKeyLength = 128
	maxDescriptionLength    = 500
	maxClassificationLength = 64
)

var (
	ErrJournalMinEntries  = fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrValidation)
	ErrDescriptionMissing = fmt.Errorf("%w: entry description is required", apperrors.ErrValidation)
	ErrIdempotencyMissing = fmt.Errorf("%w: idempotency key is required", apperrors.ErrValidation)
	ErrNoOpenPeriod       = fmt.Errorf("%w: no accounting period covers the posting date", apperrors.ErrValidation)
	ErrCurrencyMismatch   = fmt.Errorf("%w: line currency does not match account currency", apperrors.ErrValidation)
	ErrAccountInactive    = fmt.Errorf("%w: account is inactive", apperrors.ErrValidation)
	ErrReverseReversal    = fmt.Errorf("%w: a reversal cannot itself be reversed", apperrors.ErrStateConflict)
)

// journalPoster holds the posting rules. It never opens a unit of work of its
// own: the ledger and invoice services call it inside theirs, so an invoice
// transition and its entry commit together.
type journalPoster struct {
	policy    domain.LedgerPolicy
	converter rateConverter
	clock     domain.Clock
}

func newJournalPoster(policy domain.LedgerPolicy, clock domain.Clock) *journalPoster {
	return &journalPoster{
		policy:    policy,
		converter: rateConverter{rounding: policy.Rounding},
		clock:     clock,
	}
}

// postResult reports whether the entry was committed now or replayed from an
// earlier request with the same idempotency key.
type postResult struct {
	entry    *domain.JournalEntry
	replayed bool
}

func validatePostingRequest(req *domain.PostingRequest) error {
	req.IdempotencyKey = strings.TrimSpace(req.IdempotencyKey)
	req.Description = strings.TrimSpace(req.Description)
	req.ClassificationTag = strings.TrimSpace(req.ClassificationTag)

	if req.IdempotencyKey == "" {
		return ErrIdempotencyMissing
	}
	if len(req.IdempotencyKey) > maxIdempotencyKeyLength {
		return fmt.Errorf("%w: idempotency key must be at most %d characters", apperrors.ErrValidation, maxIdempotencyKeyLength)
	}
	if req.Description == "" {
		return ErrDescriptionMissing
	}
	if len(req.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description must be at most %d characters", apperrors.ErrValidation, maxDescriptionLength)
	}
	if len(req.ClassificationTag) > maxClassificationLength {
		return fmt.Errorf("%w: classification tag must be at most %d characters", apperrors.ErrValidation, maxClassificationLength)
	}
	if req.PostingDate.IsZero() {
		return fmt.Errorf("%w: posting date is required", apperrors.ErrValidation)
	}
	req.PostingDate = domain.DateOnly(req.PostingDate)

	if len(req.Lines) < 2 {
		return ErrJournalMinEntries
	}
	for i := range req.Lines {
		l := &req.Lines[i]
		l.AccountCode = strings.TrimSpace(l.AccountCode)
		l.CurrencyCode = normalizeCode(l.CurrencyCode)
		if l.AccountCode == "" {
			return fmt.Errorf("%w: line %d has no account code", apperrors.ErrValidation, i+1)
		}
		if l.Amount <= 0 {
			return fmt.Errorf("%w: line %d amount must be positive", apperrors.ErrValidation, i+1)
		}
		if !l.Direction.Valid() {
			return fmt.Errorf("%w: line %d direction must be DEBIT or CREDIT", apperrors.ErrValidation, i+1)
		}
		if !domain.IsKnownCurrency(l.CurrencyCode) {
			return fmt.Errorf("%w: line %d has unknown currency %q", apperrors.ErrValidation, i+1, l.CurrencyCode)
		}
	}
	return nil
}

// replay returns the entry already committed under key, if any.
func replay(ctx context.Context, repo portsrepo.JournalReader, key, fingerprint string) (*domain.JournalEntry, error) {
	existing, err := repo.FindEntryByIdempotencyKey(ctx, key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}
	if existing.Fingerprint != fingerprint {
		return nil, fmt.Errorf("%w: key %q", apperrors.ErrIdempotencyMismatch, key)
	}
	return existing, nil
}

// checkPeriodOpen rejects dates in closed periods or outside every period.
func checkPeriodOpen(ctx context.Context, repo portsrepo.PeriodReader, date time.Time) (*domain.AccountingPeriod, error) {
	periods, err := repo.ListPeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounting periods: %w", err)
	}
	period, ok := domain.FindCoveringPeriod(periods, date)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoOpenPeriod, date.Format(domain.DateLayout))
	}
	if !period.IsOpen() {
		return nil, fmt.Errorf("%w: %s falls in %s", apperrors.ErrPeriodClosed, date.Format(domain.DateLayout), period.Name)
	}
	return &period, nil
}

// post validates and commits a caller-built request.
func (p *journalPoster) post(ctx context.Context, repos portsrepo.RepositoryProvider, req domain.PostingRequest) (*postResult, error) {
	if err := validatePostingRequest(&req); err != nil {
		return nil, err
	}
	fingerprint := req.Fingerprint()

	existing, err := replay(ctx, repos.JournalRepo, req.IdempotencyKey, fingerprint)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &postResult{entry: existing, replayed: true}, nil
	}

	if _, err := checkPeriodOpen(ctx, repos.PeriodRepo, req.PostingDate); err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		codes = append(codes, l.AccountCode)
	}
	accounts, err := repos.AccountRepo.FindAccountsByCodes(ctx, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	lines := make([]domain.Line, 0, len(req.Lines)+1)
	usedRates := make(map[string]bool)
	converted := 0
	for i, pl := range req.Lines {
		account, ok := accounts[pl.AccountCode]
		if !ok {
			return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, pl.AccountCode)
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrAccountInactive, account.Code)
		}
		if account.CurrencyCode != pl.CurrencyCode {
			return nil, fmt.Errorf("%w: account %s is %s, line is %s", ErrCurrencyMismatch, account.Code, account.CurrencyCode, pl.CurrencyCode)
		}
		base, rate, err := p.converter.convert(ctx, repos.ExchangeRateRepo, pl.Amount, pl.CurrencyCode, p.policy.BaseCurrency, req.PostingDate)
		if err != nil {
			return nil, err
		}
		line := domain.Line{
			LineNo:       i + 1,
			AccountCode:  pl.AccountCode,
			Direction:    pl.Direction,
			Amount:       pl.Amount,
			CurrencyCode: pl.CurrencyCode,
			BaseAmount:   base,
		}
		if rate != nil {
			line.ExchangeRateID = rate.RateID
			usedRates[rate.RateID] = true
			converted++
		}
		lines = append(lines, line)
	}

	lines, err = p.balance(ctx, repos.AccountRepo, lines, converted)
	if err != nil {
		return nil, err
	}

	now := p.clock.Now()
	entry := domain.JournalEntry{
		EntryID:           uuid.NewString(),
		IdempotencyKey:    req.IdempotencyKey,
		Fingerprint:       fingerprint,
		PostingDate:       req.PostingDate,
		Description:       req.Description,
		ClassificationTag: req.ClassificationTag,
		BaseCurrency:      p.policy.BaseCurrency,
		Lines:             lines,
		AuditFields:       domain.NewAuditFields(req.Actor, now),
	}
	rateIDs := make([]string, 0, len(usedRates))
	for id := range usedRates {
		rateIDs = append(rateIDs, id)
	}
	sort.Strings(rateIDs)
	if err := p.commit(ctx, repos, &entry, rateIDs); err != nil {
		return nil, err
	}
	return &postResult{entry: &entry}, nil
}

// balance enforces debits == credits. Single-currency lines must balance
// natively. Converted lines may leave a base residual of at most one minor
// unit per converted line; it is booked to the rounding account.
func (p *journalPoster) balance(ctx context.Context, repo portsrepo.AccountReader, lines []domain.Line, converted int) ([]domain.Line, error) {
	currencies := make(map[string]int64)
	for _, l := range lines {
		currencies[l.CurrencyCode] += l.SignedAmount()
	}
	if len(currencies) == 1 {
		for cur, net := range currencies {
			if net != 0 {
				return nil, fmt.Errorf("%w: %s debits minus credits is %d", apperrors.ErrUnbalancedEntry, cur, net)
			}
		}
	}

	residual := accounting.BaseImbalance(lines)
	if residual == 0 {
		return lines, nil
	}
	if abs(residual) > int64(converted) {
		return nil, fmt.Errorf("%w: %s debits minus credits is %d after conversion", apperrors.ErrUnbalancedEntry, p.policy.BaseCurrency, residual)
	}

	rounding, err := repo.FindAccountByCode(ctx, p.policy.RoundingAccount)
	if err != nil {
		return nil, fmt.Errorf("rounding account %s: %w", p.policy.RoundingAccount, err)
	}
	if rounding.CurrencyCode != p.policy.BaseCurrency {
		return nil, fmt.Errorf("%w: rounding account %s must be in %s", apperrors.ErrValidation, rounding.Code, p.policy.BaseCurrency)
	}
	direction := domain.Credit
	if residual < 0 {
		direction = domain.Debit
	}
	return append(lines, domain.Line{
		LineNo:       len(lines) + 1,
		AccountCode:  rounding.Code,
		Direction:    direction,
		Amount:       abs(residual),
		CurrencyCode: p.policy.BaseCurrency,
		BaseAmount:   abs(residual),
		IsRounding:   true,
	}), nil
}

// commit assigns the next sequence and appends the entry.
func (p *journalPoster) commit(ctx context.Context, repos portsrepo.RepositoryProvider, entry *domain.JournalEntry, rateIDs []string) error {
	if err := accounting.ValidateEntryBalance(entry.Lines); err != nil {
		return fmt.Errorf("%w: entry %s: %v", apperrors.ErrInvariantViolation, entry.IdempotencyKey, err)
	}
	last, err := repos.JournalRepo.LastSequence(ctx)
	if err != nil {
		return fmt.Errorf("failed to read journal sequence: %w", err)
	}
	entry.Sequence = last + 1
	if err := repos.JournalRepo.SaveEntry(ctx, *entry); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return fmt.Errorf("%w: idempotency key %q committed concurrently", apperrors.ErrContention, entry.IdempotencyKey)
		}
		return fmt.Errorf("failed to save journal entry: %w", err)
	}
	if len(rateIDs) > 0 {
		if err := repos.ExchangeRateRepo.MarkRatesUsed(ctx, rateIDs); err != nil {
			return fmt.Errorf("failed to mark rates used: %w", err)
		}
	}
	return nil
}

// reverse posts an entry that inverts every line of the original. Base
// amounts are copied, not re-converted, so the pair nets to exactly zero.
func (p *journalPoster) reverse(ctx context.Context, repos portsrepo.RepositoryProvider, entryID string, req domain.ReversalRequest) (*postResult, error) {
	original, err := repos.JournalRepo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		key = "reversal:" + entryID
	}
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = "Reversal of entry " + entryID
	}

	if existing, err := repos.JournalRepo.FindEntryByIdempotencyKey(ctx, key); err == nil {
		if existing.ReversesEntryID != entryID {
			return nil, fmt.Errorf("%w: key %q", apperrors.ErrIdempotencyMismatch, key)
		}
		return &postResult{entry: existing, replayed: true}, nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	if original.IsReversal() {
		return nil, fmt.Errorf("%w: entry %s reverses %s", ErrReverseReversal, original.EntryID, original.ReversesEntryID)
	}
	if prior, err := repos.JournalRepo.FindReversalOf(ctx, entryID); err == nil {
		return nil, fmt.Errorf("%w: %s by %s", apperrors.ErrAlreadyReversed, entryID, prior.EntryID)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing reversal: %w", err)
	}

	date, err := p.reversalDate(ctx, repos.PeriodRepo, original, req.ReversalDate)
	if err != nil {
		return nil, err
	}
	if _, err := checkPeriodOpen(ctx, repos.PeriodRepo, date); err != nil {
		return nil, err
	}

	lines := make([]domain.Line, len(original.Lines))
	postingLines := make([]domain.PostingLine, len(original.Lines))
	for i, l := range original.Lines {
		l.Direction = l.Direction.Invert()
		lines[i] = l
		postingLines[i] = domain.PostingLine{AccountCode: l.AccountCode, CurrencyCode: l.CurrencyCode, Amount: l.Amount, Direction: l.Direction}
	}
	fingerprint := domain.PostingRequest{
		PostingDate:       date,
		Description:       description,
		ClassificationTag: original.ClassificationTag,
		Lines:             postingLines,
		ReversesEntryID:   entryID,
	}.Fingerprint()

	now := p.clock.Now()
	entry := domain.JournalEntry{
		EntryID:           uuid.NewString(),
		IdempotencyKey:    key,
		Fingerprint:       fingerprint,
		PostingDate:       date,
		Description:       description,
		ClassificationTag: original.ClassificationTag,
		BaseCurrency:      original.BaseCurrency,
		ReversesEntryID:   entryID,
		Lines:             lines,
		AuditFields:       domain.NewAuditFields(req.Actor, now),
	}
	if err := p.commit(ctx, repos, &entry, nil); err != nil {
		return nil, err
	}
	return &postResult{entry: &entry}, nil
}

// reversalDate picks the explicit date, else the original's date while its
// period is open, else today.
func (p *journalPoster) reversalDate(ctx context.Context, repo portsrepo.PeriodReader, original *domain.JournalEntry, requested *time.Time) (time.Time, error) {
	if requested != nil && !requested.IsZero() {
		return domain.DateOnly(*requested), nil
	}
	periods, err := repo.ListPeriods(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to load accounting periods: %w", err)
	}
	if period, ok := domain.FindCoveringPeriod(periods, original.PostingDate); ok && period.IsOpen() {
		return original.PostingDate, nil
	}
	return domain.DateOnly(p.clock.Now()), nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// entryLogAttrs summarizes an entry for structured logs.
func entryLogAttrs(e *domain.JournalEntry) []any {
	return []any{
		slog.String("entry_id", e.EntryID),
		slog.Int64("sequence", e.Sequence),
		slog.String("idempotency_key", e.IdempotencyKey),
		slog.String("posting_date", e.PostingDate.Format(domain.DateLayout)),
		slog.Int("line_count", len(e.Lines)),
	}
}
