package mapping

import (
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
)

// ToModelJournalEntry splits a domain entry into its header row and line rows.
func ToModelJournalEntry(d domain.JournalEntry) (models.JournalEntry, []models.JournalLine) {
	entry := models.JournalEntry{
		EntryID:           d.EntryID,
		Sequence:          d.Sequence,
		IdempotencyKey:    d.IdempotencyKey,
		Fingerprint:       d.Fingerprint,
		PostingDate:       d.PostingDate,
		Description:       d.Description,
		ClassificationTag: d.ClassificationTag,
		BaseCurrency:      d.BaseCurrency,
		ReversesEntryID:   nullable(d.ReversesEntryID),
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
	lines := make([]models.JournalLine, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = models.JournalLine{
			EntryID:        d.EntryID,
			LineNo:         l.LineNo,
			AccountCode:    l.AccountCode,
			Direction:      string(l.Direction),
			Amount:         l.Amount,
			CurrencyCode:   l.CurrencyCode,
			BaseAmount:     l.BaseAmount,
			ExchangeRateID: nullable(l.ExchangeRateID),
			IsRounding:     l.IsRounding,
		}
	}
	return entry, lines
}

// ToDomainJournalEntry joins a header row with its line rows.
func ToDomainJournalEntry(m models.JournalEntry, lines []models.JournalLine) domain.JournalEntry {
	d := domain.JournalEntry{
		EntryID:           m.EntryID,
		Sequence:          m.Sequence,
		IdempotencyKey:    m.IdempotencyKey,
		Fingerprint:       m.Fingerprint,
		PostingDate:       domain.DateOnly(m.PostingDate),
		Description:       m.Description,
		ClassificationTag: m.ClassificationTag,
		BaseCurrency:      m.BaseCurrency,
		ReversesEntryID:   deref(m.ReversesEntryID),
		AuditFields:       ToDomainAuditFields(m.AuditFields),
		Lines:             make([]domain.Line, len(lines)),
	}
	for i, l := range lines {
		d.Lines[i] = domain.Line{
			LineNo:         l.LineNo,
			AccountCode:    l.AccountCode,
			Direction:      domain.Direction(l.Direction),
			Amount:         l.Amount,
			CurrencyCode:   l.CurrencyCode,
			BaseAmount:     l.BaseAmount,
			ExchangeRateID: deref(l.ExchangeRateID),
			IsRounding:     l.IsRounding,
		}
	}
	return d
}
