package domain

import (
	"sort"
	"time"
)

// PeriodStatus is OPEN or CLOSED.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// ClosingBalance is an account's balance at a period's end date. It becomes
// the opening balance of the following period.
type ClosingBalance struct {
	AccountCode  string `json:"accountCode"`
	CurrencyCode string `json:"currencyCode"`
	Balance      int64  `json:"balance"`
	BaseBalance  int64  `json:"baseBalance"`
}

// AccountingPeriod is an inclusive date range that can be locked.
type AccountingPeriod struct {
	PeriodID        string           `json:"periodID"`
	Name            string           `json:"name"`
	StartDate       time.Time        `json:"startDate"`
	EndDate         time.Time        `json:"endDate"`
	Status          PeriodStatus     `json:"status"`
	ClosedAt        *time.Time       `json:"closedAt,omitempty"`
	ClosingBalances []ClosingBalance `json:"closingBalances,omitempty"`
	AuditFields
}

// IsOpen reports whether postings may land in the period.
func (p AccountingPeriod) IsOpen() bool { return p.Status == PeriodOpen }

// Contains reports whether date falls inside the period.
func (p AccountingPeriod) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(p.StartDate) && !d.After(p.EndDate)
}

// Overlaps reports whether [start, end] intersects the period.
func (p AccountingPeriod) Overlaps(start, end time.Time) bool {
	return !DateOnly(end).Before(p.StartDate) && !DateOnly(start).After(p.EndDate)
}

// ClosingBalanceFor returns the stored closing balance of an account, zero if absent.
func (p AccountingPeriod) ClosingBalanceFor(accountCode string) ClosingBalance {
	for _, cb := range p.ClosingBalances {
		if cb.AccountCode == accountCode {
			return cb
		}
	}
	return ClosingBalance{AccountCode: accountCode}
}

// FindCoveringPeriod returns the period containing date, if any.
func FindCoveringPeriod(periods []AccountingPeriod, date time.Time) (AccountingPeriod, bool) {
	for _, p := range periods {
		if p.Contains(date) {
			return p, true
		}
	}
	return AccountingPeriod{}, false
}

// SortPeriods orders periods by start date.
func SortPeriods(periods []AccountingPeriod) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].StartDate.Before(periods[j].StartDate)
	})
}
