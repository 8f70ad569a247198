package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAccountType_Present(t *testing.T) {
	assert.Equal(t, int64(500), Asset.Present(500))
	assert.Equal(t, int64(500), Expense.Present(500))
	assert.Equal(t, int64(500), Income.Present(-500))
	assert.Equal(t, int64(-500), Liability.Present(500))
	assert.Equal(t, int64(500), Equity.Present(-500))

	parsed, ok := ParseAccountType(" income ")
	assert.True(t, ok)
	assert.Equal(t, Income, parsed)

	_, ok = ParseAccountType("revenue")
	assert.False(t, ok)
}

func TestDirection(t *testing.T) {
	assert.Equal(t, Credit, Debit.Invert())
	assert.Equal(t, Debit, Credit.Invert())
	assert.Equal(t, int64(1), Debit.Sign())
	assert.Equal(t, int64(-1), Credit.Sign())
	assert.False(t, Direction("SIDEWAYS").Valid())

	l := Line{Direction: Credit, Amount: 70, BaseAmount: 77}
	assert.Equal(t, int64(-70), l.SignedAmount())
	assert.Equal(t, int64(-77), l.SignedBaseAmount())
}

func TestPostingRequest_Fingerprint(t *testing.T) {
	req := PostingRequest{
		IdempotencyKey: "k",
		PostingDate:    time.Date(2024, 3, 1, 15, 4, 5, 0, time.UTC),
		Description:    "rent",
		Lines: []PostingLine{
			{AccountCode: "5000", CurrencyCode: "USD", Amount: 100, Direction: Debit},
			{AccountCode: "1000", CurrencyCode: "USD", Amount: 100, Direction: Credit},
		},
		Actor: "alice",
	}
	base := req.Fingerprint()

	sameDay := req
	sameDay.PostingDate = date(2024, 3, 1)
	sameDay.Actor = "bob"
	assert.Equal(t, base, sameDay.Fingerprint(), "time of day and actor are not economic content")

	changed := req
	changed.Lines = append([]PostingLine(nil), req.Lines...)
	changed.Lines[0].Amount = 101
	assert.NotEqual(t, base, changed.Fingerprint())

	reversal := req
	reversal.ReversesEntryID = "e1"
	assert.NotEqual(t, base, reversal.Fingerprint())
}

func TestAccountActivity_Add(t *testing.T) {
	var a AccountActivity
	a.Add(Line{Direction: Debit, Amount: 100, BaseAmount: 110})
	a.Add(Line{Direction: Credit, Amount: 30, BaseAmount: 33})
	assert.Equal(t, int64(70), a.Net())
	assert.Equal(t, int64(77), a.NetBase())
	assert.Equal(t, 2, a.LineCount)
}

func TestAccountingPeriod(t *testing.T) {
	p := AccountingPeriod{Name: "2024-01", StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31), Status: PeriodOpen}

	assert.True(t, p.Contains(time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, p.Contains(date(2024, 1, 1)))
	assert.False(t, p.Contains(date(2024, 2, 1)))

	assert.True(t, p.Overlaps(date(2024, 1, 31), date(2024, 2, 28)))
	assert.False(t, p.Overlaps(date(2024, 2, 1), date(2024, 2, 28)))

	p.ClosingBalances = []ClosingBalance{{AccountCode: "1000", Balance: 5}}
	assert.Equal(t, int64(5), p.ClosingBalanceFor("1000").Balance)
	assert.Zero(t, p.ClosingBalanceFor("2000").Balance)

	feb := AccountingPeriod{Name: "2024-02", StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 29)}
	periods := []AccountingPeriod{feb, p}
	SortPeriods(periods)
	assert.Equal(t, "2024-01", periods[0].Name)

	found, ok := FindCoveringPeriod(periods, date(2024, 2, 29))
	require.True(t, ok)
	assert.Equal(t, "2024-02", found.Name)
	_, ok = FindCoveringPeriod(periods, date(2024, 3, 1))
	assert.False(t, ok)
}

func issuedInvoice() Invoice {
	return Invoice{
		CurrencyCode:     "EUR",
		Items:            []InvoiceItem{{Quantity: decimal.NewFromInt(1), UnitPrice: 6000, Amount: 6000}, {Quantity: decimal.NewFromInt(2), UnitPrice: 2000, Amount: 4000}},
		IssueDate:        date(2024, 3, 1),
		DueDate:          date(2024, 3, 31),
		Stage:            StageIssued,
		ReceivableAmount: 11000,
	}
}

func TestInvoice_Settlements(t *testing.T) {
	inv := issuedInvoice()
	assert.Equal(t, int64(10000), inv.Total())
	assert.Equal(t, int64(10000), inv.Outstanding())

	relief := inv.ReliefFor(4000)
	assert.Equal(t, int64(4400), relief)
	inv.Settlements = append(inv.Settlements, Settlement{Kind: SettlementPayment, Amount: 4000, ReceivableRelieved: relief})

	inv.Settlements = append(inv.Settlements, Settlement{Kind: SettlementCredit, Amount: 1000, ReceivableRelieved: inv.ReliefFor(1000)})
	assert.Equal(t, int64(4000), inv.PaidAmount())
	assert.Equal(t, int64(1000), inv.CreditedAmount())
	assert.Equal(t, int64(5000), inv.Outstanding())

	assert.Equal(t, int64(11000-4400-1100), inv.ReliefFor(5000), "the final settlement clears the remaining receivable")
}

func TestInvoice_StatusAsOf(t *testing.T) {
	inv := issuedInvoice()
	assert.Equal(t, StatusIssued, inv.StatusAsOf(date(2024, 3, 31)))
	assert.Equal(t, StatusOverdue, inv.StatusAsOf(date(2024, 4, 1)))
	assert.Equal(t, 1, inv.DaysPastDue(date(2024, 4, 1)))
	assert.Zero(t, inv.DaysPastDue(date(2024, 3, 15)))

	inv.Settlements = []Settlement{{Kind: SettlementPayment, Amount: 1}}
	assert.Equal(t, StatusPartiallyPaid, inv.StatusAsOf(date(2024, 3, 15)))

	inv.Settlements = []Settlement{{Kind: SettlementPayment, Amount: 10000}}
	assert.Equal(t, StatusPaid, inv.StatusAsOf(date(2024, 5, 1)))
	assert.Zero(t, inv.Outstanding())

	inv.Stage = StageVoid
	assert.Equal(t, StatusVoid, inv.StatusAsOf(date(2024, 5, 1)))
	assert.Zero(t, inv.Outstanding())

	inv.Stage = StageDraft
	assert.Equal(t, StatusDraft, inv.StatusAsOf(date(2024, 5, 1)))
}

func TestInvoice_ViewAsOfIgnoresLaterSettlements(t *testing.T) {
	inv := issuedInvoice()
	inv.Settlements = []Settlement{
		{Kind: SettlementCredit, Amount: 1000, SettledOn: date(2024, 3, 1)},
		{Kind: SettlementPayment, Amount: 9000, SettledOn: date(2024, 3, 10)},
	}

	before := inv.ViewAsOf(date(2024, 3, 2))
	assert.Equal(t, StatusPartiallyPaid, before.Status)
	assert.Zero(t, before.Paid)
	assert.Equal(t, int64(1000), before.Credited)
	assert.Equal(t, int64(9000), before.Outstanding)
	assert.Len(t, before.Settlements, 1)
	assert.Len(t, inv.Settlements, 2, "the stored invoice keeps every settlement")

	onDay := inv.ViewAsOf(date(2024, 3, 10))
	assert.Equal(t, StatusPaid, onDay.Status)
	assert.Equal(t, int64(9000), onDay.Paid)
	assert.Zero(t, onDay.Outstanding)

	assert.Equal(t, StatusIssued, inv.StatusAsOf(date(2024, 2, 29)))
	assert.Equal(t, int64(10000), inv.OutstandingAsOf(date(2024, 2, 29)))
	assert.Equal(t, date(2024, 3, 10), inv.LastSettledOn())
}

func TestReportGrouping_Buckets(t *testing.T) {
	weeks := GroupByWeek.Buckets(date(2024, 3, 6), date(2024, 3, 19))
	require.Len(t, weeks, 3)
	assert.Equal(t, DateBucket{Label: "2024-W10", Start: date(2024, 3, 6), End: date(2024, 3, 10)}, weeks[0])
	assert.Equal(t, DateBucket{Label: "2024-W11", Start: date(2024, 3, 11), End: date(2024, 3, 17)}, weeks[1])
	assert.Equal(t, DateBucket{Label: "2024-W12", Start: date(2024, 3, 18), End: date(2024, 3, 19)}, weeks[2])

	months := GroupByMonth.Buckets(date(2024, 1, 31), date(2024, 3, 1))
	require.Len(t, months, 3)
	assert.Equal(t, "2024-02", months[1].Label)
	assert.Equal(t, date(2024, 2, 29), months[1].End)

	years := GroupByYear.Buckets(date(2023, 11, 15), date(2024, 2, 1))
	require.Len(t, years, 2)
	assert.Equal(t, DateBucket{Label: "2023", Start: date(2023, 11, 15), End: date(2023, 12, 31)}, years[0])

	days := GroupByDay.Buckets(date(2024, 2, 28), date(2024, 3, 1))
	assert.Len(t, days, 3)
	assert.Equal(t, "2024-02-29", days[1].Label)

	assert.Empty(t, GroupByDay.Buckets(date(2024, 3, 2), date(2024, 3, 1)))

	g, ok := ParseReportGrouping(" Week ")
	assert.True(t, ok)
	assert.Equal(t, GroupByWeek, g)
	g, ok = ParseReportGrouping("")
	assert.True(t, ok)
	assert.Equal(t, GroupByMonth, g)
	_, ok = ParseReportGrouping("quarter")
	assert.False(t, ok)
}

func TestInvoiceNumbering(t *testing.T) {
	assert.Equal(t, "INV-202403-0007", FormatInvoiceNumber(date(2024, 3, 9), 7))
	assert.Equal(t, "202412", InvoiceMonthKey(date(2024, 12, 31)))
}

func TestBucketFor(t *testing.T) {
	cases := map[int]AgingBucket{
		-3: BucketCurrent, 0: BucketCurrent, 1: Bucket1To30, 30: Bucket1To30,
		31: Bucket31To60, 60: Bucket31To60, 61: Bucket61To90, 90: Bucket61To90, 91: BucketOver90,
	}
	for days, want := range cases {
		assert.Equal(t, want, BucketFor(days), "days=%d", days)
	}
}

func TestLedgerPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultLedgerPolicy().Validate())

	p := DefaultLedgerPolicy()
	p.BaseCurrency = "XYZ"
	assert.Error(t, p.Validate())

	p = DefaultLedgerPolicy()
	p.Rounding = "truncate"
	assert.Error(t, p.Validate())

	p = DefaultLedgerPolicy()
	p.CashAccount = " "
	assert.Error(t, p.Validate())
}

func TestLookupCurrency(t *testing.T) {
	jpy, err := LookupCurrency("jpy")
	require.NoError(t, err)
	assert.Equal(t, "JPY", jpy.Code)
	assert.Zero(t, jpy.Fraction)

	usd, err := LookupCurrency("USD")
	require.NoError(t, err)
	assert.Equal(t, 2, usd.Fraction)

	assert.False(t, IsKnownCurrency("ABC"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), d)

	_, err = ParseDate("2024-02-30")
	assert.Error(t, err)
}
