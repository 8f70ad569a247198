package models

import "time"

// JournalEntry is a row of journal_entries. Lines live in journal_lines.
type JournalEntry struct {
	EntryID           string    `db:"entry_id"`
	Sequence          int64     `db:"sequence"`
	IdempotencyKey    string    `db:"idempotency_key"`
	Fingerprint       string    `db:"fingerprint"`
	PostingDate       time.Time `db:"posting_date"`
	Description       string    `db:"description"`
	ClassificationTag string    `db:"classification_tag"`
	BaseCurrency      string    `db:"base_currency"`
	ReversesEntryID   *string   `db:"reverses_entry_id"` // Nullable
	AuditFields
}

// JournalLine is a row of journal_lines.
type JournalLine struct {
	EntryID        string  `db:"entry_id"`
	LineNo         int     `db:"line_no"`
	AccountCode    string  `db:"account_code"`
	Direction      string  `db:"direction"`
	Amount         int64   `db:"amount"`
	CurrencyCode   string  `db:"currency_code"`
	BaseAmount     int64   `db:"base_amount"`
	ExchangeRateID *string `db:"exchange_rate_id"` // Nullable
	IsRounding     bool    `db:"is_rounding"`
}
