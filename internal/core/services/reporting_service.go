package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

// reportingService implements the ReportingSvcFacade interface
type reportingService struct {
	BaseService
	uow      portsrepo.UnitOfWork
	policy   domain.LedgerPolicy
	cache    portssvc.ReportCache
	cacheTTL time.Duration
}

// NewReportingService creates a new reporting service with the provided options
func NewReportingService(uow portsrepo.UnitOfWork, policy domain.LedgerPolicy, opts ...ServiceOption) portssvc.ReportingSvcFacade {
	o := buildOptions(opts)
	return &reportingService{
		BaseService: o.base(),
		uow:         uow,
		policy:      policy,
		cache:       o.cache,
		cacheTTL:    o.cacheTTL,
	}
}

// Ensure reportingService implements the ReportingSvcFacade interface
var _ portssvc.ReportingSvcFacade = (*reportingService)(nil)

// cachedReport computes a report inside one read snapshot. The cache key
// carries the snapshot's last sequence, so a hit always describes the same
// journal state a fresh computation would.
func cachedReport[T any](ctx context.Context, s *reportingService, name, params string, compute func(ctx context.Context, repos portsrepo.RepositoryProvider) (*T, error)) (*T, error) {
	var report *T
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var key string
		if s.cache != nil {
			last, err := repos.JournalRepo.LastSequence(ctx)
			if err != nil {
				return err
			}
			key = fmt.Sprintf("report:%s:%s:%s:seq=%d", name, s.policy.BaseCurrency, params, last)
			var hit T
			found, err := s.cache.Get(ctx, key, &hit)
			if err != nil {
				s.LogDebug(ctx, "Report cache read failed", slog.String("key", key), slog.String("error", err.Error()))
			} else if found {
				report = &hit
				return nil
			}
		}

		var err error
		report, err = compute(ctx, repos)
		if err != nil {
			return err
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
				s.LogDebug(ctx, "Report cache write failed", slog.String("key", key), slog.String("error", err.Error()))
			}
		}
		return nil
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to generate report", slog.String("report", name), slog.String("params", params))
		}
		return nil, err
	}
	return report, nil
}

// TrialBalance generates a trial balance report as of a specific date
func (s *reportingService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error) {
	asOf = domain.DateOnly(asOf)
	report, err := cachedReport(ctx, s, "trial-balance", asOf.Format(domain.DateLayout), func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.TrialBalance, error) {
		accounts, err := repos.AccountRepo.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		activity, err := activityByAccount(ctx, repos.JournalRepo, domain.LineFilter{ToDate: &asOf})
		if err != nil {
			return nil, err
		}

		tb := &domain.TrialBalance{AsOf: asOf, BaseCurrency: s.policy.BaseCurrency, Rows: make([]domain.TrialBalanceRow, 0, len(accounts))}
		for _, acc := range accounts {
			a := activity[acc.Code]
			row := domain.TrialBalanceRow{
				AccountCode:  acc.Code,
				AccountName:  acc.Name,
				AccountType:  acc.AccountType,
				CurrencyCode: acc.CurrencyCode,
				Balance:      a.Net(),
				BaseBalance:  a.NetBase(),
			}
			if row.BaseBalance >= 0 {
				row.Debit = row.BaseBalance
			} else {
				row.Credit = -row.BaseBalance
			}
			tb.TotalDebit += row.Debit
			tb.TotalCredit += row.Credit
			tb.Rows = append(tb.Rows, row)
		}
		if tb.TotalDebit != tb.TotalCredit {
			return nil, fmt.Errorf("%w: trial balance as of %s is off by %d", apperrors.ErrInvariantViolation, asOf.Format(domain.DateLayout), tb.TotalDebit-tb.TotalCredit)
		}
		return tb, nil
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Trial balance report generated successfully",
		slog.String("asOf", asOf.Format(domain.DateLayout)),
		slog.Int("row_count", len(report.Rows)))
	return report, nil
}

// ProfitAndLoss generates a profit and loss report for a specific period
func (s *reportingService) ProfitAndLoss(ctx context.Context, start, end time.Time) (*domain.ProfitAndLoss, error) {
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date is before start date", apperrors.ErrValidation)
	}
	params := start.Format(domain.DateLayout) + ".." + end.Format(domain.DateLayout)
	return cachedReport(ctx, s, "profit-and-loss", params, func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.ProfitAndLoss, error) {
		accounts, err := repos.AccountRepo.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		activity, err := activityByAccount(ctx, repos.JournalRepo, domain.LineFilter{FromDate: &start, ToDate: &end})
		if err != nil {
			return nil, err
		}

		pl := &domain.ProfitAndLoss{
			StartDate:    start,
			EndDate:      end,
			BaseCurrency: s.policy.BaseCurrency,
			Income:       []domain.AccountAmount{},
			Expenses:     []domain.AccountAmount{},
		}
		for _, acc := range accounts {
			a, ok := activity[acc.Code]
			if !ok || a.LineCount == 0 {
				continue
			}
			amount := domain.AccountAmount{AccountCode: acc.Code, Name: acc.Name, Amount: acc.AccountType.Present(a.NetBase())}
			switch acc.AccountType {
			case domain.Income:
				pl.Income = append(pl.Income, amount)
				pl.TotalIncome += amount.Amount
			case domain.Expense:
				pl.Expenses = append(pl.Expenses, amount)
				pl.TotalExpense += amount.Amount
			}
		}
		pl.NetIncome = pl.TotalIncome - pl.TotalExpense
		return pl, nil
	})
}

// BalanceSheet generates a balance sheet report as of a specific date
func (s *reportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheet, error) {
	asOf = domain.DateOnly(asOf)
	return cachedReport(ctx, s, "balance-sheet", asOf.Format(domain.DateLayout), func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.BalanceSheet, error) {
		accounts, err := repos.AccountRepo.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		activity, err := activityByAccount(ctx, repos.JournalRepo, domain.LineFilter{ToDate: &asOf})
		if err != nil {
			return nil, err
		}

		bs := &domain.BalanceSheet{
			AsOf:         asOf,
			BaseCurrency: s.policy.BaseCurrency,
			Assets:       []domain.AccountAmount{},
			Liabilities:  []domain.AccountAmount{},
			Equity:       []domain.AccountAmount{},
		}
		var equity int64
		for _, acc := range accounts {
			a, ok := activity[acc.Code]
			if !ok || a.LineCount == 0 {
				continue
			}
			amount := domain.AccountAmount{AccountCode: acc.Code, Name: acc.Name, Amount: acc.AccountType.Present(a.NetBase())}
			switch acc.AccountType {
			case domain.Asset:
				bs.Assets = append(bs.Assets, amount)
				bs.TotalAssets += amount.Amount
			case domain.Liability:
				bs.Liabilities = append(bs.Liabilities, amount)
				bs.TotalLiabilities += amount.Amount
			case domain.Equity:
				bs.Equity = append(bs.Equity, amount)
				equity += amount.Amount
			case domain.Income:
				bs.CurrentEarnings += amount.Amount
			case domain.Expense:
				bs.CurrentEarnings -= amount.Amount
			}
		}
		bs.TotalEquity = equity + bs.CurrentEarnings
		if bs.TotalAssets != bs.TotalLiabilities+bs.TotalEquity {
			return nil, fmt.Errorf("%w: assets %d != liabilities %d + equity %d as of %s",
				apperrors.ErrInvariantViolation, bs.TotalAssets, bs.TotalLiabilities, bs.TotalEquity, asOf.Format(domain.DateLayout))
		}
		return bs, nil
	})
}

// AgedReceivables buckets issued invoices by days past due. Settlements
// dated after asOf are ignored, so the report can be rerun for past dates.
func (s *reportingService) AgedReceivables(ctx context.Context, asOf time.Time) (*domain.AgedReceivables, error) {
	asOf = domain.DateOnly(asOf)
	return cachedReport(ctx, s, "aged-receivables", asOf.Format(domain.DateLayout), func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.AgedReceivables, error) {
		invoices, err := repos.InvoiceRepo.ListInvoices(ctx, domain.InvoiceFilter{Stage: domain.StageIssued})
		if err != nil {
			return nil, err
		}

		report := &domain.AgedReceivables{AsOf: asOf, Invoices: []domain.AgedInvoice{}, Totals: []domain.AgingTotal{}}
		totals := make(map[string]*domain.AgingTotal)
		for _, inv := range invoices {
			if inv.IssueDate.After(asOf) {
				continue
			}
			outstanding := inv.OutstandingAsOf(asOf)
			if outstanding <= 0 {
				continue
			}
			days := inv.DaysPastDue(asOf)
			bucket := domain.BucketFor(days)
			report.Invoices = append(report.Invoices, domain.AgedInvoice{
				InvoiceID:     inv.InvoiceID,
				InvoiceNumber: inv.InvoiceNumber,
				ClientRef:     inv.ClientRef,
				CurrencyCode:  inv.CurrencyCode,
				DueDate:       inv.DueDate,
				Outstanding:   outstanding,
				DaysPastDue:   days,
				Bucket:        bucket,
			})
			t, ok := totals[inv.CurrencyCode]
			if !ok {
				t = &domain.AgingTotal{CurrencyCode: inv.CurrencyCode, Buckets: make(map[domain.AgingBucket]int64, len(domain.AgingBuckets))}
				for _, b := range domain.AgingBuckets {
					t.Buckets[b] = 0
				}
				totals[inv.CurrencyCode] = t
			}
			t.Buckets[bucket] += outstanding
			t.Total += outstanding
		}
		for _, t := range totals {
			report.Totals = append(report.Totals, *t)
		}
		sort.Slice(report.Totals, func(i, j int) bool { return report.Totals[i].CurrencyCode < report.Totals[j].CurrencyCode })
		sort.SliceStable(report.Invoices, func(i, j int) bool { return report.Invoices[i].DaysPastDue > report.Invoices[j].DaysPastDue })
		return report, nil
	})
}

func activityByAccount(ctx context.Context, repo portsrepo.JournalReader, filter domain.LineFilter) (map[string]domain.AccountActivity, error) {
	rows, err := repo.SumLines(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to sum lines: %w", err)
	}
	out := make(map[string]domain.AccountActivity, len(rows))
	for _, a := range rows {
		out[a.AccountCode] = a
	}
	return out, nil
}

// maxReportRows bounds time-series reports; a year of daily rows fits.
const maxReportRows = 366

// IncomeExpense sums income and expense accounts per bucket in base currency.
func (s *reportingService) IncomeExpense(ctx context.Context, start, end time.Time, groupBy domain.ReportGrouping) (*domain.IncomeExpenseReport, error) {
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date is before start date", apperrors.ErrValidation)
	}
	if _, ok := domain.ParseReportGrouping(string(groupBy)); !ok || groupBy == "" {
		return nil, fmt.Errorf("%w: group by must be day, week, month or year", apperrors.ErrValidation)
	}
	buckets := groupBy.Buckets(start, end)
	if len(buckets) > maxReportRows {
		return nil, fmt.Errorf("%w: %d rows requested, at most %d allowed; use a wider grouping", apperrors.ErrValidation, len(buckets), maxReportRows)
	}

	params := start.Format(domain.DateLayout) + ".." + end.Format(domain.DateLayout) + ":" + string(groupBy)
	return cachedReport(ctx, s, "income-expense", params, func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.IncomeExpenseReport, error) {
		accounts, err := repos.AccountRepo.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		var codes []string
		types := make(map[string]domain.AccountType)
		for _, acc := range accounts {
			if acc.AccountType == domain.Income || acc.AccountType == domain.Expense {
				codes = append(codes, acc.Code)
				types[acc.Code] = acc.AccountType
			}
		}

		report := &domain.IncomeExpenseReport{
			StartDate:    start,
			EndDate:      end,
			GroupBy:      groupBy,
			BaseCurrency: s.policy.BaseCurrency,
			Rows:         make([]domain.IncomeExpenseRow, 0, len(buckets)),
		}
		for _, b := range buckets {
			row := domain.IncomeExpenseRow{DateBucket: b}
			if len(codes) > 0 {
				from, to := b.Start, b.End
				activity, err := repos.JournalRepo.SumLines(ctx, domain.LineFilter{AccountCodes: codes, FromDate: &from, ToDate: &to})
				if err != nil {
					return nil, fmt.Errorf("failed to sum lines: %w", err)
				}
				for _, a := range activity {
					switch t := types[a.AccountCode]; t {
					case domain.Income:
						row.Income += t.Present(a.NetBase())
					case domain.Expense:
						row.Expense += t.Present(a.NetBase())
					}
				}
			}
			row.Net = row.Income - row.Expense
			report.TotalIncome += row.Income
			report.TotalExpense += row.Expense
			report.Rows = append(report.Rows, row)
		}
		report.NetIncome = report.TotalIncome - report.TotalExpense
		return report, nil
	})
}

// CashFlow reports monthly debits and credits on cash accounts: every asset
// account other than the receivable.
func (s *reportingService) CashFlow(ctx context.Context, end time.Time, months int) (*domain.CashFlowReport, error) {
	end = domain.DateOnly(end)
	if months <= 0 || months > 120 {
		return nil, fmt.Errorf("%w: months must be between 1 and 120", apperrors.ErrValidation)
	}
	start := time.Date(end.Year(), end.Month()-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)

	params := fmt.Sprintf("%s:%d", end.Format(domain.DateLayout), months)
	return cachedReport(ctx, s, "cash-flow", params, func(ctx context.Context, repos portsrepo.RepositoryProvider) (*domain.CashFlowReport, error) {
		accounts, err := repos.AccountRepo.ListAccounts(ctx)
		if err != nil {
			return nil, err
		}
		codes := []string{}
		for _, acc := range accounts {
			if acc.AccountType == domain.Asset && acc.Code != s.policy.ReceivableAccount {
				codes = append(codes, acc.Code)
			}
		}
		sort.Strings(codes)

		report := &domain.CashFlowReport{
			StartDate:    start,
			EndDate:      end,
			BaseCurrency: s.policy.BaseCurrency,
			Accounts:     codes,
			Rows:         []domain.CashFlowRow{},
		}
		sum := func(filter domain.LineFilter) (in, out int64, err error) {
			if len(codes) == 0 {
				return 0, 0, nil
			}
			filter.AccountCodes = codes
			activity, err := repos.JournalRepo.SumLines(ctx, filter)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to sum lines: %w", err)
			}
			for _, a := range activity {
				in += a.BaseDebit
				out += a.BaseCredit
			}
			return in, out, nil
		}

		dayBefore := start.AddDate(0, 0, -1)
		in, out, err := sum(domain.LineFilter{ToDate: &dayBefore})
		if err != nil {
			return nil, err
		}
		report.OpeningBalance = in - out
		running := report.OpeningBalance
		for _, b := range domain.GroupByMonth.Buckets(start, end) {
			from, to := b.Start, b.End
			in, out, err := sum(domain.LineFilter{FromDate: &from, ToDate: &to})
			if err != nil {
				return nil, err
			}
			running += in - out
			report.TotalInflow += in
			report.TotalOutflow += out
			report.Rows = append(report.Rows, domain.CashFlowRow{DateBucket: b, Inflow: in, Outflow: out, Net: in - out, RunningBalance: running})
		}
		report.ClosingBalance = running
		return report, nil
	})
}
