package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountBalance is the replayed balance of one account. Balance is in the
// account currency and BaseBalance in the ledger base currency, both debit positive.
type AccountBalance struct {
	AccountCode  string      `json:"accountCode"`
	AccountName  string      `json:"accountName"`
	AccountType  AccountType `json:"accountType"`
	CurrencyCode string      `json:"currencyCode"`
	Balance      int64       `json:"balance"`
	BaseBalance  int64       `json:"baseBalance"`
	// NormalBalance is Balance signed by the account type's normal side.
	NormalBalance int64     `json:"normalBalance"`
	AsOf          time.Time `json:"asOf"`
	AsOfSequence  int64     `json:"asOfSequence,omitempty"`
}

// TrialBalanceRow represents a single row in a trial balance report.
type TrialBalanceRow struct {
	AccountCode  string      `json:"accountCode"`
	AccountName  string      `json:"accountName"`
	AccountType  AccountType `json:"accountType"`
	CurrencyCode string      `json:"currencyCode"`
	Balance      int64       `json:"balance"`
	BaseBalance  int64       `json:"baseBalance"`
	Debit        int64       `json:"debit"`
	Credit       int64       `json:"credit"`
}

// TrialBalance lists every account's balance; base balances sum to zero.
type TrialBalance struct {
	AsOf         time.Time         `json:"asOf"`
	BaseCurrency string            `json:"baseCurrency"`
	Rows         []TrialBalanceRow `json:"rows"`
	TotalDebit   int64             `json:"totalDebit"`
	TotalCredit  int64             `json:"totalCredit"`
}

// AccountAmount is one account's contribution to a statement, signed by its
// normal side and expressed in base currency.
type AccountAmount struct {
	AccountCode string `json:"accountCode"`
	Name        string `json:"name"`
	Amount      int64  `json:"amount"`
}

// ProfitAndLoss covers income and expense activity within a date range.
type ProfitAndLoss struct {
	StartDate    time.Time       `json:"startDate"`
	EndDate      time.Time       `json:"endDate"`
	BaseCurrency string          `json:"baseCurrency"`
	Income       []AccountAmount `json:"income"`
	Expenses     []AccountAmount `json:"expenses"`
	TotalIncome  int64           `json:"totalIncome"`
	TotalExpense int64           `json:"totalExpense"`
	NetIncome    int64           `json:"netIncome"`
}

// BalanceSheet partitions balances at a date. TotalEquity includes
// CurrentEarnings, the cumulative income minus expense not yet closed to equity.
type BalanceSheet struct {
	AsOf             time.Time       `json:"asOf"`
	BaseCurrency     string          `json:"baseCurrency"`
	Assets           []AccountAmount `json:"assets"`
	Liabilities      []AccountAmount `json:"liabilities"`
	Equity           []AccountAmount `json:"equity"`
	CurrentEarnings  int64           `json:"currentEarnings"`
	TotalAssets      int64           `json:"totalAssets"`
	TotalLiabilities int64           `json:"totalLiabilities"`
	TotalEquity      int64           `json:"totalEquity"`
}

// AgingBucket labels a days-past-due range.
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	Bucket1To30   AgingBucket = "1-30"
	Bucket31To60  AgingBucket = "31-60"
	Bucket61To90  AgingBucket = "61-90"
	BucketOver90  AgingBucket = "90+"
)

// AgingBuckets lists buckets in display order.
var AgingBuckets = []AgingBucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor maps days past due to a bucket.
func BucketFor(daysPastDue int) AgingBucket {
	switch {
	case daysPastDue <= 0:
		return BucketCurrent
	case daysPastDue <= 30:
		return Bucket1To30
	case daysPastDue <= 60:
		return Bucket31To60
	case daysPastDue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgedInvoice is one open invoice in the aged receivables report.
type AgedInvoice struct {
	InvoiceID     string      `json:"invoiceID"`
	InvoiceNumber string      `json:"invoiceNumber"`
	ClientRef     string      `json:"clientRef"`
	CurrencyCode  string      `json:"currencyCode"`
	DueDate       time.Time   `json:"dueDate"`
	Outstanding   int64       `json:"outstanding"`
	DaysPastDue   int         `json:"daysPastDue"`
	Bucket        AgingBucket `json:"bucket"`
}

// AgingTotal sums outstanding amounts per bucket for one currency.
type AgingTotal struct {
	CurrencyCode string                `json:"currencyCode"`
	Buckets      map[AgingBucket]int64 `json:"buckets"`
	Total        int64                 `json:"total"`
}

// AgedReceivables buckets open invoices by how far past due they are.
type AgedReceivables struct {
	AsOf     time.Time     `json:"asOf"`
	Invoices []AgedInvoice `json:"invoices"`
	Totals   []AgingTotal  `json:"totals"`
}

// ReportGrouping is the width of one row in a time-series report.
type ReportGrouping string

const (
	GroupByDay   ReportGrouping = "day"
	GroupByWeek  ReportGrouping = "week"
	GroupByMonth ReportGrouping = "month"
	GroupByYear  ReportGrouping = "year"
)

// ParseReportGrouping accepts day, week, month or year; empty means month.
func ParseReportGrouping(s string) (ReportGrouping, bool) {
	switch g := ReportGrouping(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GroupByMonth, true
	case GroupByDay, GroupByWeek, GroupByMonth, GroupByYear:
		return g, true
	}
	return "", false
}

// DateBucket is one row's inclusive date range.
type DateBucket struct {
	Label string    `json:"period"`
	Start time.Time `json:"startDate"`
	End   time.Time `json:"endDate"`
}

// Buckets splits [start, end] into calendar-aligned ranges. The first and
// last ranges are clipped to the window. Weeks are ISO weeks starting Monday.
func (g ReportGrouping) Buckets(start, end time.Time) []DateBucket {
	start, end = DateOnly(start), DateOnly(end)
	var out []DateBucket
	for cur := start; !cur.After(end); {
		var next time.Time
		switch g {
		case GroupByDay:
			next = cur.AddDate(0, 0, 1)
		case GroupByWeek:
			offset := (int(cur.Weekday()) + 6) % 7
			next = cur.AddDate(0, 0, 7-offset)
		case GroupByYear:
			next = time.Date(cur.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		default:
			next = time.Date(cur.Year(), cur.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		}
		last := next.AddDate(0, 0, -1)
		if last.After(end) {
			last = end
		}
		out = append(out, DateBucket{Label: g.label(cur), Start: cur, End: last})
		cur = next
	}
	return out
}

func (g ReportGrouping) label(t time.Time) string {
	switch g {
	case GroupByDay:
		return t.Format(DateLayout)
	case GroupByWeek:
		y, w := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", y, w)
	case GroupByYear:
		return fmt.Sprintf("%04d", t.Year())
	default:
		return t.Format("2006-01")
	}
}

// IncomeExpenseRow is income and expense activity within one bucket, in base currency.
type IncomeExpenseRow struct {
	DateBucket
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Net     int64 `json:"net"`
}

// IncomeExpenseReport is profit and loss as a time series.
type IncomeExpenseReport struct {
	StartDate    time.Time          `json:"startDate"`
	EndDate      time.Time          `json:"endDate"`
	GroupBy      ReportGrouping     `json:"groupBy"`
	BaseCurrency string             `json:"baseCurrency"`
	Rows         []IncomeExpenseRow `json:"rows"`
	TotalIncome  int64              `json:"totalIncome"`
	TotalExpense int64              `json:"totalExpense"`
	NetIncome    int64              `json:"netIncome"`
}

// CashFlowRow is the movement of cash accounts within one month, in base currency.
type CashFlowRow struct {
	DateBucket
	Inflow         int64 `json:"inflow"`
	Outflow        int64 `json:"outflow"`
	Net            int64 `json:"net"`
	RunningBalance int64 `json:"runningBalance"`
}

// CashFlowReport tracks monthly movement of every asset account except the
// receivable. RunningBalance starts from OpeningBalance, the cash held at the
// end of the day before StartDate.
type CashFlowReport struct {
	StartDate      time.Time     `json:"startDate"`
	EndDate        time.Time     `json:"endDate"`
	BaseCurrency   string        `json:"baseCurrency"`
	Accounts       []string      `json:"accounts"`
	OpeningBalance int64         `json:"openingBalance"`
	Rows           []CashFlowRow `json:"rows"`
	TotalInflow    int64         `json:"totalInflow"`
	TotalOutflow   int64         `json:"totalOutflow"`
	ClosingBalance int64         `json:"closingBalance"`
}
