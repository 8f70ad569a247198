package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/platform/app"
)

var errUsage = errors.New("usage")

// cliEnv is what every subcommand shares: how to reach the services and where to write.
type cliEnv struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader
	actor  string
	open   func(ctx context.Context) (*app.App, error)
}

type registration struct {
	cmd   subcommands.Command
	group string
}

func commands(env *cliEnv) []registration {
	return []registration{
		{&openPeriodCmd{env: env}, "periods"},
		{&closePeriodCmd{env: env}, "periods"},
		{&listPeriodsCmd{env: env}, "periods"},
		{&ingestRateCmd{env: env}, "rates"},
		{&crossRateCmd{env: env}, "rates"},
		{&postCmd{env: env}, "journal"},
		{&trialBalanceCmd{env: env}, "reports"},
		{&agedReceivablesCmd{env: env}, "reports"},
		{&checkCmd{env: env}, "reports"},
	}
}

// run opens the services, executes fn and prints its result as indented JSON.
func (e *cliEnv) run(ctx context.Context, fn func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error)) subcommands.ExitStatus {
	a, err := e.open(ctx)
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return subcommands.ExitFailure
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			fmt.Fprintln(e.stderr, cerr)
		}
	}()

	out, err := fn(ctx, a.Services)
	if errors.Is(err, errUsage) {
		fmt.Fprintln(e.stderr, err)
		return subcommands.ExitUsageError
	}
	if err != nil {
		fmt.Fprintln(e.stderr, err)
		return subcommands.ExitFailure
	}

	enc := json.NewEncoder(e.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(e.stderr, err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func today() time.Time {
	return domain.DateOnly(time.Now())
}

type openPeriodCmd struct {
	env   *cliEnv
	name  string
	start string
	end   string
}

func (*openPeriodCmd) Name() string     { return "open-period" }
func (*openPeriodCmd) Synopsis() string { return "open a new accounting period" }
func (*openPeriodCmd) Usage() string {
	return `ledgerctl open-period -name <name> -start <YYYY-MM-DD> -end <YYYY-MM-DD>

  Opens a period covering [start, end]. Periods may not overlap.
`
}

func (c *openPeriodCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "Period name, e.g. 2024-03.")
	f.StringVar(&c.start, "start", "", "First day of the period.")
	f.StringVar(&c.end, "end", "", "Last day of the period.")
}

func (c *openPeriodCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		if c.name == "" {
			return nil, fmt.Errorf("%w: -name is required", errUsage)
		}
		start, err := dto.ParseDate("start", c.start)
		if err != nil {
			return nil, err
		}
		end, err := dto.ParseDate("end", c.end)
		if err != nil {
			return nil, err
		}
		return svc.Period.OpenPeriod(ctx, c.name, start, end, c.env.actor)
	})
}

type closePeriodCmd struct {
	env *cliEnv
	id  string
}

func (*closePeriodCmd) Name() string     { return "close-period" }
func (*closePeriodCmd) Synopsis() string { return "close an accounting period and snapshot its balances" }
func (*closePeriodCmd) Usage() string {
	return `ledgerctl close-period -id <periodID>

  Closes the period. Every earlier period must already be closed and the
  period's base-currency activity must net to zero.
`
}

func (c *closePeriodCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "Period ID.")
}

func (c *closePeriodCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		if c.id == "" {
			return nil, fmt.Errorf("%w: -id is required", errUsage)
		}
		return svc.Period.Close(ctx, c.id, c.env.actor)
	})
}

type listPeriodsCmd struct {
	env *cliEnv
}

func (*listPeriodsCmd) Name() string             { return "periods" }
func (*listPeriodsCmd) Synopsis() string         { return "list accounting periods" }
func (*listPeriodsCmd) Usage() string            { return "ledgerctl periods\n" }
func (*listPeriodsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *listPeriodsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		return svc.Period.ListPeriods(ctx)
	})
}

type ingestRateCmd struct {
	env    *cliEnv
	from   string
	to     string
	date   string
	rate   string
	source string
}

func (*ingestRateCmd) Name() string     { return "ingest-rate" }
func (*ingestRateCmd) Synopsis() string { return "store a direct exchange rate" }
func (*ingestRateCmd) Usage() string {
	return `ledgerctl ingest-rate -from <CCY> -to <CCY> -date <YYYY-MM-DD> -rate <decimal> [-source <name>]

  One unit of -from equals -rate units of -to from -date onwards. The
  inverse pair is not derived.
`
}

func (c *ingestRateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source currency.")
	f.StringVar(&c.to, "to", "", "Target currency.")
	f.StringVar(&c.date, "date", "", "Effective date (defaults to today).")
	f.StringVar(&c.rate, "rate", "", "Exchange rate as a decimal.")
	f.StringVar(&c.source, "source", "ledgerctl", "Where the rate came from.")
}

func (c *ingestRateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		rate, err := decimal.NewFromString(c.rate)
		if err != nil {
			return nil, fmt.Errorf("%w: -rate %q is not a decimal", errUsage, c.rate)
		}
		date, err := dto.ParseOptionalDate("date", c.date, today())
		if err != nil {
			return nil, err
		}
		return svc.RateTable.IngestRate(ctx, domain.RateIngestion{
			FromCurrency:  c.from,
			ToCurrency:    c.to,
			EffectiveDate: date,
			Rate:          rate,
			Source:        c.source,
		}, c.env.actor)
	})
}

type crossRateCmd struct {
	env  *cliEnv
	from string
	via  string
	to   string
	date string
}

func (*crossRateCmd) Name() string     { return "cross-rate" }
func (*crossRateCmd) Synopsis() string { return "derive and store a rate through an intermediate currency" }
func (*crossRateCmd) Usage() string {
	return `ledgerctl cross-rate -from <CCY> -via <CCY> -to <CCY> [-date <YYYY-MM-DD>]
`
}

func (c *crossRateCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "Source currency.")
	f.StringVar(&c.via, "via", "", "Intermediate currency.")
	f.StringVar(&c.to, "to", "", "Target currency.")
	f.StringVar(&c.date, "date", "", "Effective date (defaults to today).")
}

func (c *crossRateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		date, err := dto.ParseOptionalDate("date", c.date, today())
		if err != nil {
			return nil, err
		}
		return svc.RateTable.IngestCrossRate(ctx, c.from, c.via, c.to, date, c.env.actor)
	})
}

type postCmd struct {
	env  *cliEnv
	file string
}

func (*postCmd) Name() string     { return "post" }
func (*postCmd) Synopsis() string { return "post a batch of journal entries from a JSON file" }
func (*postCmd) Usage() string {
	return `ledgerctl post -f <entries.json | ->

  The file holds a JSON array of entries shaped like the body of
  POST /api/v1/ledger/entries. Entries are posted in order and the command
  stops at the first failure. Already-posted idempotency keys are replayed.
`
}

func (c *postCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "Entries file, or - for stdin.")
}

func (c *postCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		reqs, err := c.readEntries()
		if err != nil {
			return nil, err
		}
		out := make([]dto.PostEntryResponse, 0, len(reqs))
		for i, r := range reqs {
			posting, err := r.ToDomain(c.env.actor)
			if err != nil {
				return out, fmt.Errorf("entry %d: %w", i, err)
			}
			entry, err := svc.Ledger.Post(ctx, posting)
			if err != nil {
				return out, fmt.Errorf("entry %d (%s): %w", i, r.IdempotencyKey, err)
			}
			out = append(out, dto.ToPostEntryResponse(entry))
		}
		return out, nil
	})
}

func (c *postCmd) readEntries() ([]dto.PostEntryRequest, error) {
	var r io.Reader = c.env.stdin
	if c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var reqs []dto.PostEntryRequest
	if err := json.NewDecoder(r).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}

	// Same rules as the HTTP binding.
	v := validator.New()
	v.SetTagName("binding")
	if err := dto.RegisterValidations(v); err != nil {
		return nil, err
	}
	for i, req := range reqs {
		if err := v.Struct(req); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return reqs, nil
}

type trialBalanceCmd struct {
	env  *cliEnv
	asOf string
}

func (*trialBalanceCmd) Name() string     { return "trial-balance" }
func (*trialBalanceCmd) Synopsis() string { return "print the trial balance" }
func (*trialBalanceCmd) Usage() string {
	return "ledgerctl trial-balance [-as-of <YYYY-MM-DD>]\n"
}

func (c *trialBalanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asOf, "as-of", "", "Report date (defaults to today).")
}

func (c *trialBalanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		asOf, err := dto.ParseOptionalDate("as-of", c.asOf, today())
		if err != nil {
			return nil, err
		}
		return svc.Reporting.TrialBalance(ctx, asOf)
	})
}

type agedReceivablesCmd struct {
	env  *cliEnv
	asOf string
}

func (*agedReceivablesCmd) Name() string     { return "aged-receivables" }
func (*agedReceivablesCmd) Synopsis() string { return "print outstanding invoices by age bucket" }
func (*agedReceivablesCmd) Usage() string {
	return "ledgerctl aged-receivables [-as-of <YYYY-MM-DD>]\n"
}

func (c *agedReceivablesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.asOf, "as-of", "", "Report date (defaults to today).")
}

func (c *agedReceivablesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		asOf, err := dto.ParseOptionalDate("as-of", c.asOf, today())
		if err != nil {
			return nil, err
		}
		return svc.Reporting.AgedReceivables(ctx, asOf)
	})
}

type checkCmd struct {
	env *cliEnv
}

func (*checkCmd) Name() string             { return "check" }
func (*checkCmd) Synopsis() string         { return "verify that the journal and balance sheet balance" }
func (*checkCmd) Usage() string            { return "ledgerctl check\n" }
func (*checkCmd) SetFlags(_ *flag.FlagSet) {}

func (c *checkCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return c.env.run(ctx, func(ctx context.Context, svc *portssvc.ServiceContainer) (any, error) {
		asOf := today()
		tb, err := svc.Reporting.TrialBalance(ctx, asOf)
		if err != nil {
			return nil, err
		}
		bs, err := svc.Reporting.BalanceSheet(ctx, asOf)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"asOf":        asOf.Format(time.DateOnly),
			"accounts":    len(tb.Rows),
			"totalDebit":  tb.TotalDebit,
			"totalAssets": bs.TotalAssets,
			"ok":          true,
		}, nil
	})
}
