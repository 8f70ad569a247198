package memory

import (
	"maps"
	"slices"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

type rateKey struct {
	from, to string
	date     time.Time
}

type state struct {
	accounts map[string]domain.Account

	entries    []domain.JournalEntry
	entryByID  map[string]int
	entryByKey map[string]int
	reversalOf map[string]int

	rates map[rateKey]domain.ExchangeRate

	invoices        map[string]domain.Invoice
	invoiceCounters map[string]int

	periods map[string]domain.AccountingPeriod
}

func newState() *state {
	return &state{
		accounts:        make(map[string]domain.Account),
		entryByID:       make(map[string]int),
		entryByKey:      make(map[string]int),
		reversalOf:      make(map[string]int),
		rates:           make(map[rateKey]domain.ExchangeRate),
		invoices:        make(map[string]domain.Invoice),
		invoiceCounters: make(map[string]int),
		periods:         make(map[string]domain.AccountingPeriod),
	}
}

// clone copies the containers. Journal entries are immutable once stored, so
// the entries themselves are shared; invoices and periods are copied on write.
func (s *state) clone() *state {
	return &state{
		accounts:        maps.Clone(s.accounts),
		entries:         slices.Clone(s.entries),
		entryByID:       maps.Clone(s.entryByID),
		entryByKey:      maps.Clone(s.entryByKey),
		reversalOf:      maps.Clone(s.reversalOf),
		rates:           maps.Clone(s.rates),
		invoices:        maps.Clone(s.invoices),
		invoiceCounters: maps.Clone(s.invoiceCounters),
		periods:         maps.Clone(s.periods),
	}
}

func copyEntry(e domain.JournalEntry) domain.JournalEntry {
	e.Lines = slices.Clone(e.Lines)
	return e
}

func copyInvoice(inv domain.Invoice) domain.Invoice {
	inv.Items = slices.Clone(inv.Items)
	inv.Settlements = slices.Clone(inv.Settlements)
	return inv
}

func copyPeriod(p domain.AccountingPeriod) domain.AccountingPeriod {
	p.ClosingBalances = slices.Clone(p.ClosingBalances)
	if p.ClosedAt != nil {
		t := *p.ClosedAt
		p.ClosedAt = &t
	}
	return p
}
