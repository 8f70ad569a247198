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
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
)

const (
	maxClientRefLength   = 128
	maxItemDescLength    = 255
	maxSettlementNoteLen = 255
	maxInvoiceTextLength = 2000
)

// invoiceService drives invoices through their lifecycle. Every transition
// that touches the books posts through the shared journal poster inside the
// same unit of work as the invoice update.
type invoiceService struct {
	BaseService
	uow     portsrepo.UnitOfWork
	policy  domain.LedgerPolicy
	poster  *journalPoster
	retries int
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(uow portsrepo.UnitOfWork, policy domain.LedgerPolicy, opts ...ServiceOption) portssvc.InvoiceSvcFacade {
	o := buildOptions(opts)
	return &invoiceService{
		BaseService: o.base(),
		uow:         uow,
		policy:      policy,
		poster:      newJournalPoster(policy, o.clock),
		retries:     o.postingRetries,
	}
}

var _ portssvc.InvoiceSvcFacade = (*invoiceService)(nil)

func (s *invoiceService) asOf(t time.Time) time.Time {
	if t.IsZero() {
		return s.Today()
	}
	return domain.DateOnly(t)
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID string, asOf time.Time) (*domain.InvoiceView, error) {
	var inv *domain.Invoice
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		inv, err = repos.InvoiceRepo.FindInvoiceByID(ctx, invoiceID)
		return err
	})
	if err != nil {
		return nil, err
	}
	view := inv.ViewAsOf(s.asOf(asOf))
	return &view, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter domain.InvoiceFilter, asOf time.Time) ([]domain.InvoiceView, error) {
	var invoices []domain.Invoice
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		invoices, err = repos.InvoiceRepo.ListInvoices(ctx, filter)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list invoices")
		return nil, err
	}
	at := s.asOf(asOf)
	views := make([]domain.InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, inv.ViewAsOf(at))
	}
	return views, nil
}

// buildItems validates caller items and prices them in minor units.
func (s *invoiceService) buildItems(inputs []domain.InvoiceItemInput) ([]domain.InvoiceItem, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: invoice must have at least one item", apperrors.ErrValidation)
	}
	items := make([]domain.InvoiceItem, 0, len(inputs))
	for i, in := range inputs {
		desc := strings.TrimSpace(in.Description)
		if desc == "" || len(desc) > maxItemDescLength {
			return nil, fmt.Errorf("%w: item %d description must be 1-%d characters", apperrors.ErrValidation, i+1, maxItemDescLength)
		}
		if !in.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", apperrors.ErrValidation, i+1)
		}
		if in.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: item %d unit price must not be negative", apperrors.ErrValidation, i+1)
		}
		items = append(items, domain.InvoiceItem{
			Description: desc,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Amount:      accounting.LineTotal(in.Quantity, in.UnitPrice, s.policy.Rounding),
		})
	}
	return items, nil
}

// validateDraft checks the fields a draft must carry before it is saved.
func validateDraft(inv *domain.Invoice) error {
	inv.ClientRef = strings.TrimSpace(inv.ClientRef)
	inv.CurrencyCode = normalizeCode(inv.CurrencyCode)
	inv.Notes = strings.TrimSpace(inv.Notes)
	inv.Terms = strings.TrimSpace(inv.Terms)
	if inv.ClientRef == "" {
		return fmt.Errorf("%w: client reference is required", apperrors.ErrValidation)
	}
	if len(inv.ClientRef) > maxClientRefLength {
		return fmt.Errorf("%w: client reference must be at most %d characters", apperrors.ErrValidation, maxClientRefLength)
	}
	if !domain.IsKnownCurrency(inv.CurrencyCode) {
		return fmt.Errorf("%w: unknown currency %q", apperrors.ErrValidation, inv.CurrencyCode)
	}
	if inv.IssueDate.IsZero() || inv.DueDate.IsZero() {
		return fmt.Errorf("%w: issue and due dates are required", apperrors.ErrValidation)
	}
	inv.IssueDate, inv.DueDate = domain.DateOnly(inv.IssueDate), domain.DateOnly(inv.DueDate)
	if inv.DueDate.Before(inv.IssueDate) {
		return fmt.Errorf("%w: due date is before issue date", apperrors.ErrValidation)
	}
	if len(inv.Notes) > maxInvoiceTextLength || len(inv.Terms) > maxInvoiceTextLength {
		return fmt.Errorf("%w: notes and terms must be at most %d characters", apperrors.ErrValidation, maxInvoiceTextLength)
	}
	if inv.Total() <= 0 {
		return fmt.Errorf("%w: invoice total must be positive", apperrors.ErrValidation)
	}
	return nil
}

func (s *invoiceService) buildInvoice(cmd domain.CreateInvoiceCommand) (domain.Invoice, error) {
	items, err := s.buildItems(cmd.Items)
	if err != nil {
		return domain.Invoice{}, err
	}
	inv := domain.Invoice{
		InvoiceID:    uuid.NewString(),
		ClientRef:    cmd.ClientRef,
		CurrencyCode: cmd.CurrencyCode,
		Items:        items,
		IssueDate:    cmd.IssueDate,
		DueDate:      cmd.DueDate,
		Stage:        domain.StageDraft,
		Notes:        cmd.Notes,
		Terms:        cmd.Terms,
		Settlements:  []domain.Settlement{},
		AuditFields:  domain.NewAuditFields(cmd.Actor, s.Now()),
	}
	if err := validateDraft(&inv); err != nil {
		return domain.Invoice{}, err
	}
	return inv, nil
}

func (s *invoiceService) CreateInvoice(ctx context.Context, cmd domain.CreateInvoiceCommand) (*domain.InvoiceView, error) {
	inv, err := s.buildInvoice(cmd)
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		seq, err := repos.InvoiceRepo.NextInvoiceNumber(ctx, domain.InvoiceMonthKey(inv.IssueDate))
		if err != nil {
			return fmt.Errorf("failed to reserve invoice number: %w", err)
		}
		inv.InvoiceNumber = domain.FormatInvoiceNumber(inv.IssueDate, seq)
		return repos.InvoiceRepo.SaveInvoice(ctx, inv)
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to create invoice", slog.String("client_ref", inv.ClientRef))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Invoice created", slog.String("invoice_id", inv.InvoiceID), slog.String("invoice_number", inv.InvoiceNumber))
	s.Publish(ctx, domain.Event{Type: domain.EventInvoiceCreated, Key: inv.InvoiceID, OccurredAt: s.Now(), Payload: inv})
	view := inv.ViewAsOf(s.Today())
	return &view, nil
}

// UpdateInvoice edits a draft in place. Moving the issue date into another
// month reserves a number in that month, since numbers carry the issue month.
func (s *invoiceService) UpdateInvoice(ctx context.Context, invoiceID string, cmd domain.UpdateInvoiceCommand) (*domain.InvoiceView, error) {
	var items []domain.InvoiceItem
	if cmd.Items != nil {
		var err error
		if items, err = s.buildItems(cmd.Items); err != nil {
			return nil, err
		}
	}

	var inv *domain.Invoice
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		inv, err = repos.InvoiceRepo.FindInvoiceByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		switch {
		case inv.Stage == domain.StageVoid:
			return fmt.Errorf("%w: invoice %s is void", apperrors.ErrInvalidState, inv.InvoiceNumber)
		case inv.Stage != domain.StageDraft && cmd.ChangesDraftDetails():
			return fmt.Errorf("%w: invoice %s is %s; only notes and terms can change", apperrors.ErrInvalidState, inv.InvoiceNumber, inv.Stage)
		}

		previousMonth := domain.InvoiceMonthKey(inv.IssueDate)
		if cmd.ClientRef != nil {
			inv.ClientRef = *cmd.ClientRef
		}
		if cmd.CurrencyCode != nil {
			inv.CurrencyCode = *cmd.CurrencyCode
		}
		if items != nil {
			inv.Items = items
		}
		if cmd.IssueDate != nil {
			inv.IssueDate = *cmd.IssueDate
		}
		if cmd.DueDate != nil {
			inv.DueDate = *cmd.DueDate
		}
		if cmd.Notes != nil {
			inv.Notes = *cmd.Notes
		}
		if cmd.Terms != nil {
			inv.Terms = *cmd.Terms
		}
		if err := validateDraft(inv); err != nil {
			return err
		}

		if month := domain.InvoiceMonthKey(inv.IssueDate); month != previousMonth {
			seq, err := repos.InvoiceRepo.NextInvoiceNumber(ctx, month)
			if err != nil {
				return fmt.Errorf("failed to reserve invoice number: %w", err)
			}
			inv.InvoiceNumber = domain.FormatInvoiceNumber(inv.IssueDate, seq)
		}
		inv.Touch(cmd.Actor, s.Now())
		return repos.InvoiceRepo.UpdateInvoice(ctx, *inv)
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to update invoice", slog.String("invoice_id", invoiceID))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Invoice updated", slog.String("invoice_id", inv.InvoiceID), slog.String("invoice_number", inv.InvoiceNumber))
	s.Publish(ctx, domain.Event{Type: domain.EventInvoiceUpdated, Key: inv.InvoiceID, OccurredAt: s.Now(), Payload: inv})
	view := inv.ViewAsOf(s.Today())
	return &view, nil
}

// Summary groups by currency first; totals in different currencies are not added.
func (s *invoiceService) Summary(ctx context.Context, from, to *time.Time, asOf time.Time) (*domain.InvoiceSummary, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, fmt.Errorf("%w: end date is before start date", apperrors.ErrValidation)
	}
	var invoices []domain.Invoice
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		invoices, err = repos.InvoiceRepo.ListInvoices(ctx, domain.InvoiceFilter{})
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to summarize invoices")
		return nil, err
	}

	at := s.asOf(asOf)
	summary := &domain.InvoiceSummary{AsOf: at, From: from, To: to, Currencies: []domain.CurrencySummary{}}
	byCurrency := make(map[string]*domain.CurrencySummary)
	byClient := make(map[string]map[string]*domain.ClientSummary)
	for _, inv := range invoices {
		if from != nil && inv.IssueDate.Before(domain.DateOnly(*from)) {
			continue
		}
		if to != nil && inv.IssueDate.After(domain.DateOnly(*to)) {
			continue
		}
		view := inv.ViewAsOf(at)
		summary.TotalInvoices++

		cs, ok := byCurrency[inv.CurrencyCode]
		if !ok {
			cs = &domain.CurrencySummary{CurrencyCode: inv.CurrencyCode, ByStatus: make(map[domain.InvoiceStatus]domain.StatusSummary)}
			byCurrency[inv.CurrencyCode] = cs
			byClient[inv.CurrencyCode] = make(map[string]*domain.ClientSummary)
		}
		cs.Count++
		cs.Total += view.Total
		cs.Paid += view.Paid
		cs.Credited += view.Credited
		cs.Outstanding += view.Outstanding

		st := cs.ByStatus[view.Status]
		st.Count++
		st.Total += view.Total
		st.Outstanding += view.Outstanding
		cs.ByStatus[view.Status] = st

		client, ok := byClient[inv.CurrencyCode][inv.ClientRef]
		if !ok {
			client = &domain.ClientSummary{ClientRef: inv.ClientRef}
			byClient[inv.CurrencyCode][inv.ClientRef] = client
		}
		client.Count++
		client.Total += view.Total
		client.Paid += view.Paid
		client.Outstanding += view.Outstanding
	}

	for code, cs := range byCurrency {
		cs.ByClient = make([]domain.ClientSummary, 0, len(byClient[code]))
		for _, c := range byClient[code] {
			cs.ByClient = append(cs.ByClient, *c)
		}
		sort.Slice(cs.ByClient, func(i, j int) bool { return cs.ByClient[i].ClientRef < cs.ByClient[j].ClientRef })
		summary.Currencies = append(summary.Currencies, *cs)
	}
	sort.Slice(summary.Currencies, func(i, j int) bool {
		return summary.Currencies[i].CurrencyCode < summary.Currencies[j].CurrencyCode
	})
	return summary, nil
}

// transition runs fn inside a retried unit of work and publishes its events
// once the transition has committed.
func (s *invoiceService) transition(ctx context.Context, op, invoiceID string, fn func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.Invoice, []domain.Event, error)) (*domain.InvoiceView, error) {
	var (
		inv    *domain.Invoice
		events []domain.Event
	)
	err := withRetry(ctx, &s.BaseService, s.retries, func() error {
		return s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
			var err error
			inv, events, err = fn(ctx, repos)
			return err
		})
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Invoice transition failed", slog.String("op", op), slog.String("invoice_id", invoiceID))
		}
		return nil, err
	}
	if len(events) > 0 {
		s.LogInfo(ctx, "Invoice transition committed", slog.String("op", op), slog.String("invoice_id", invoiceID), slog.String("stage", string(inv.Stage)))
		s.Publish(ctx, events...)
	}
	at := s.Today()
	if last := inv.LastSettledOn(); last.After(at) {
		at = last
	}
	view := inv.ViewAsOf(at)
	return &view, nil
}

// policyAccount loads a policy account and requires it in the given currency.
func policyAccount(ctx context.Context, repo portsrepo.AccountReader, role, code, currency string) (*domain.Account, error) {
	account, err := repo.FindAccountByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s account %s: %w", role, code, err)
	}
	if currency != "" && account.CurrencyCode != currency {
		return nil, fmt.Errorf("%w: %s account %s must be in %s", apperrors.ErrValidation, role, code, currency)
	}
	return account, nil
}

func (s *invoiceService) Issue(ctx context.Context, invoiceID string, cmd domain.TransitionCommand) (*domain.InvoiceView, error) {
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" {
		key = "invoice:" + invoiceID + ":issue"
	}
	return s.transition(ctx, "issue", invoiceID, func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.Invoice, []domain.Event, error) {
		inv, err := repos.InvoiceRepo.FindInvoiceByID(ctx, invoiceID)
		if err != nil {
			return nil, nil, err
		}
		if inv.Stage != domain.StageDraft {
			if inv.IssueEntryID != "" && entryHasKey(ctx, repos.JournalRepo, inv.IssueEntryID, key) {
				return inv, nil, nil
			}
			return nil, nil, fmt.Errorf("%w: invoice %s is %s", apperrors.ErrInvalidState, inv.InvoiceNumber, inv.Stage)
		}

		ar, err := policyAccount(ctx, repos.AccountRepo, "receivable", s.policy.ReceivableAccount, s.policy.BaseCurrency)
		if err != nil {
			return nil, nil, err
		}
		revenue, err := policyAccount(ctx, repos.AccountRepo, "revenue", s.policy.RevenueAccount, "")
		if err != nil {
			return nil, nil, err
		}

		total := inv.Total()
		receivable, arRate, err := s.poster.converter.convert(ctx, repos.ExchangeRateRepo, total, inv.CurrencyCode, ar.CurrencyCode, inv.IssueDate)
		if err != nil {
			return nil, nil, err
		}
		revenueAmount, revenueRate := receivable, arRate
		if revenue.CurrencyCode != ar.CurrencyCode {
			revenueAmount, revenueRate, err = s.poster.converter.convert(ctx, repos.ExchangeRateRepo, total, inv.CurrencyCode, revenue.CurrencyCode, inv.IssueDate)
			if err != nil {
				return nil, nil, err
			}
		}

		res, err := s.poster.post(ctx, repos, domain.PostingRequest{
			IdempotencyKey:    key,
			PostingDate:       inv.IssueDate,
			Description:       fmt.Sprintf("Invoice %s issued to %s", inv.InvoiceNumber, inv.ClientRef),
			ClassificationTag: "invoice",
			Lines: []domain.PostingLine{
				{AccountCode: ar.Code, CurrencyCode: ar.CurrencyCode, Amount: receivable, Direction: domain.Debit},
				{AccountCode: revenue.Code, CurrencyCode: revenue.CurrencyCode, Amount: revenueAmount, Direction: domain.Credit},
			},
			Actor: cmd.Actor,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := markRatesUsed(ctx, repos.ExchangeRateRepo, arRate, revenueRate); err != nil {
			return nil, nil, err
		}

		inv.Stage = domain.StageIssued
		inv.ReceivableAmount = receivable
		inv.IssueEntryID = res.entry.EntryID
		inv.Touch(cmd.Actor, s.Now())
		if err := repos.InvoiceRepo.UpdateInvoice(ctx, *inv); err != nil {
			return nil, nil, fmt.Errorf("failed to update invoice: %w", err)
		}
		now := s.Now()
		return inv, []domain.Event{
			{Type: domain.EventEntryPosted, Key: res.entry.EntryID, OccurredAt: now, Payload: res.entry},
			{Type: domain.EventInvoiceIssued, Key: inv.InvoiceID, OccurredAt: now, Payload: inv},
		}, nil
	})
}

// markRatesUsed flags rates applied outside the poster, such as converting an
// invoice total into the receivable currency.
func markRatesUsed(ctx context.Context, repo portsrepo.ExchangeRateWriter, rates ...*domain.ExchangeRate) error {
	ids := make([]string, 0, len(rates))
	for _, r := range rates {
		if r != nil {
			ids = append(ids, r.RateID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if err := repo.MarkRatesUsed(ctx, ids); err != nil {
		return fmt.Errorf("failed to mark rates used: %w", err)
	}
	return nil
}

func entryHasKey(ctx context.Context, repo portsrepo.JournalReader, entryID, key string) bool {
	entry, err := repo.FindEntryByID(ctx, entryID)
	return err == nil && entry.IdempotencyKey == key
}

func (s *invoiceService) RecordPayment(ctx context.Context, invoiceID string, cmd domain.SettlementCommand) (*domain.InvoiceView, error) {
	return s.settle(ctx, domain.SettlementPayment, invoiceID, cmd)
}

func (s *invoiceService) ApplyCredit(ctx context.Context, invoiceID string, cmd domain.SettlementCommand) (*domain.InvoiceView, error) {
	return s.settle(ctx, domain.SettlementCredit, invoiceID, cmd)
}

func validateSettlement(cmd domain.SettlementCommand) (domain.SettlementCommand, error) {
	cmd.IdempotencyKey = strings.TrimSpace(cmd.IdempotencyKey)
	cmd.Note = strings.TrimSpace(cmd.Note)
	cmd.DepositAccountCode = strings.TrimSpace(cmd.DepositAccountCode)
	if cmd.IdempotencyKey == "" {
		return cmd, ErrIdempotencyMissing
	}
	if cmd.Amount <= 0 {
		return cmd, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if cmd.Date.IsZero() {
		return cmd, fmt.Errorf("%w: settlement date is required", apperrors.ErrValidation)
	}
	if len(cmd.Note) > maxSettlementNoteLen {
		return cmd, fmt.Errorf("%w: note must be at most %d characters", apperrors.ErrValidation, maxSettlementNoteLen)
	}
	cmd.Date = domain.DateOnly(cmd.Date)
	return cmd, nil
}

// settle records a payment or a credit note. The receivable is relieved at
// its issue-date carrying amount; any base difference against the
// counter line is realized on the FX gain/loss account.
func (s *invoiceService) settle(ctx context.Context, kind domain.SettlementKind, invoiceID string, cmd domain.SettlementCommand) (*domain.InvoiceView, error) {
	cmd, err := validateSettlement(cmd)
	if err != nil {
		return nil, err
	}
	op := string(kind)
	return s.transition(ctx, op, invoiceID, func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.Invoice, []domain.Event, error) {
		inv, err := repos.InvoiceRepo.FindInvoiceByID(ctx, invoiceID)
		if err != nil {
			return nil, nil, err
		}

		if prior, err := repos.JournalRepo.FindEntryByIdempotencyKey(ctx, cmd.IdempotencyKey); err == nil {
			for _, st := range inv.Settlements {
				if st.EntryID == prior.EntryID && st.Kind == kind && st.Amount == cmd.Amount {
					return inv, nil, nil
				}
			}
			return nil, nil, fmt.Errorf("%w: key %q", apperrors.ErrIdempotencyMismatch, cmd.IdempotencyKey)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, err
		}

		if inv.Stage != domain.StageIssued || inv.Outstanding() <= 0 {
			return nil, nil, fmt.Errorf("%w: invoice %s has no outstanding balance to settle", apperrors.ErrInvalidState, inv.InvoiceNumber)
		}
		if cmd.Amount > inv.Outstanding() {
			return nil, nil, fmt.Errorf("%w: %d exceeds outstanding %d", apperrors.ErrOverpaymentNotAllowed, cmd.Amount, inv.Outstanding())
		}
		if cmd.Date.Before(inv.IssueDate) {
			return nil, nil, fmt.Errorf("%w: settlement date is before the issue date", apperrors.ErrValidation)
		}

		ar, err := policyAccount(ctx, repos.AccountRepo, "receivable", s.policy.ReceivableAccount, s.policy.BaseCurrency)
		if err != nil {
			return nil, nil, err
		}
		counterCode, description, tag := s.policy.RevenueAccount, "Credit note against invoice "+inv.InvoiceNumber, "credit_note"
		if kind == domain.SettlementPayment {
			counterCode, description, tag = s.policy.CashAccount, "Payment received for invoice "+inv.InvoiceNumber, "payment"
			if cmd.DepositAccountCode != "" {
				counterCode = cmd.DepositAccountCode
			}
		}
		counter, err := repos.AccountRepo.FindAccountByCode(ctx, counterCode)
		if err != nil {
			if kind == domain.SettlementPayment && errors.Is(err, apperrors.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: deposit account %s does not exist", apperrors.ErrValidation, counterCode)
			}
			return nil, nil, err
		}
		if kind == domain.SettlementPayment {
			if err := s.checkDepositAccount(counter); err != nil {
				return nil, nil, err
			}
		}

		relief := inv.ReliefFor(cmd.Amount)
		counterAmount := relief
		var counterRate *domain.ExchangeRate
		if counter.CurrencyCode != ar.CurrencyCode || kind == domain.SettlementPayment {
			counterAmount, counterRate, err = s.poster.converter.convert(ctx, repos.ExchangeRateRepo, cmd.Amount, inv.CurrencyCode, counter.CurrencyCode, cmd.Date)
			if err != nil {
				return nil, nil, err
			}
		}
		counterBase, _, err := s.poster.converter.convert(ctx, repos.ExchangeRateRepo, counterAmount, counter.CurrencyCode, s.policy.BaseCurrency, cmd.Date)
		if err != nil {
			return nil, nil, err
		}

		lines := []domain.PostingLine{
			{AccountCode: counter.Code, CurrencyCode: counter.CurrencyCode, Amount: counterAmount, Direction: domain.Debit},
			{AccountCode: ar.Code, CurrencyCode: ar.CurrencyCode, Amount: relief, Direction: domain.Credit},
		}
		if fx := counterBase - relief; fx != 0 {
			if _, err := policyAccount(ctx, repos.AccountRepo, "fx gain/loss", s.policy.FXGainLossAccount, s.policy.BaseCurrency); err != nil {
				return nil, nil, err
			}
			direction := domain.Credit
			if fx < 0 {
				direction = domain.Debit
			}
			lines = append(lines, domain.PostingLine{AccountCode: s.policy.FXGainLossAccount, CurrencyCode: s.policy.BaseCurrency, Amount: abs(fx), Direction: direction})
		}

		res, err := s.poster.post(ctx, repos, domain.PostingRequest{
			IdempotencyKey:    cmd.IdempotencyKey,
			PostingDate:       cmd.Date,
			Description:       description,
			ClassificationTag: tag,
			Lines:             lines,
			Actor:             cmd.Actor,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := markRatesUsed(ctx, repos.ExchangeRateRepo, counterRate); err != nil {
			return nil, nil, err
		}

		now := s.Now()
		settlement := domain.Settlement{
			SettlementID:       uuid.NewString(),
			Kind:               kind,
			EntryID:            res.entry.EntryID,
			Amount:             cmd.Amount,
			SettledOn:          cmd.Date,
			ReceivableRelieved: relief,
			Note:               cmd.Note,
			CreatedAt:          now,
			CreatedBy:          cmd.Actor,
		}
		if kind == domain.SettlementPayment {
			settlement.DepositAccountCode = counter.Code
		}
		inv.Settlements = append(inv.Settlements, settlement)
		inv.Touch(cmd.Actor, now)
		if err := repos.InvoiceRepo.UpdateInvoice(ctx, *inv); err != nil {
			return nil, nil, fmt.Errorf("failed to update invoice: %w", err)
		}

		eventType := domain.EventInvoiceCredited
		if kind == domain.SettlementPayment {
			eventType = domain.EventInvoicePayment
		}
		return inv, []domain.Event{
			{Type: domain.EventEntryPosted, Key: res.entry.EntryID, OccurredAt: now, Payload: res.entry},
			{Type: eventType, Key: inv.InvoiceID, OccurredAt: now, Payload: settlement},
		}, nil
	})
}

// checkDepositAccount requires cash to land in an active asset account other
// than the receivable being relieved.
func (s *invoiceService) checkDepositAccount(account *domain.Account) error {
	switch {
	case !account.IsActive:
		return fmt.Errorf("%w: %s", ErrAccountInactive, account.Code)
	case account.AccountType != domain.Asset:
		return fmt.Errorf("%w: deposit account %s is %s, not an asset", apperrors.ErrValidation, account.Code, account.AccountType)
	case account.Code == s.policy.ReceivableAccount:
		return fmt.Errorf("%w: payments cannot be deposited into the receivable account %s", apperrors.ErrValidation, account.Code)
	}
	return nil
}

func (s *invoiceService) Void(ctx context.Context, invoiceID string, cmd domain.TransitionCommand) (*domain.InvoiceView, error) {
	key := strings.TrimSpace(cmd.IdempotencyKey)
	if key == "" {
		key = "invoice:" + invoiceID + ":void"
	}
	return s.transition(ctx, "void", invoiceID, func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.Invoice, []domain.Event, error) {
		inv, err := repos.InvoiceRepo.FindInvoiceByID(ctx, invoiceID)
		if err != nil {
			return nil, nil, err
		}
		now := s.Now()

		switch inv.Stage {
		case domain.StageVoid:
			if inv.VoidEntryID != "" && entryHasKey(ctx, repos.JournalRepo, inv.VoidEntryID, key) {
				return inv, nil, nil
			}
			return nil, nil, fmt.Errorf("%w: invoice %s is already void", apperrors.ErrInvalidState, inv.InvoiceNumber)

		case domain.StageDraft:
			inv.Stage = domain.StageVoid
			inv.Touch(cmd.Actor, now)
			if err := repos.InvoiceRepo.UpdateInvoice(ctx, *inv); err != nil {
				return nil, nil, fmt.Errorf("failed to update invoice: %w", err)
			}
			return inv, []domain.Event{{Type: domain.EventInvoiceVoided, Key: inv.InvoiceID, OccurredAt: now, Payload: inv}}, nil
		}

		if inv.SettledAmount() > 0 {
			return nil, nil, fmt.Errorf("%w: %s has %d settled", apperrors.ErrCannotVoidPaidInvoice, inv.InvoiceNumber, inv.SettledAmount())
		}
		res, err := s.poster.reverse(ctx, repos, inv.IssueEntryID, domain.ReversalRequest{
			IdempotencyKey: key,
			Description:    "Void invoice " + inv.InvoiceNumber,
			Actor:          cmd.Actor,
		})
		if err != nil {
			return nil, nil, err
		}

		inv.Stage = domain.StageVoid
		inv.VoidEntryID = res.entry.EntryID
		inv.Touch(cmd.Actor, now)
		if err := repos.InvoiceRepo.UpdateInvoice(ctx, *inv); err != nil {
			return nil, nil, fmt.Errorf("failed to update invoice: %w", err)
		}
		return inv, []domain.Event{
			{Type: domain.EventEntryReversed, Key: inv.IssueEntryID, OccurredAt: now, Payload: res.entry},
			{Type: domain.EventInvoiceVoided, Key: inv.InvoiceID, OccurredAt: now, Payload: inv},
		}, nil
	})
}
