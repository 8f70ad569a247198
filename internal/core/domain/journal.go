package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Direction is the side of a journal line.
type Direction string

const (
	Debit  Direction = "DEBIT"
	Credit Direction = "CREDIT"
)

// Valid reports whether d is DEBIT or CREDIT.
func (d Direction) Valid() bool {
	return d == Debit || d == Credit
}

// Invert returns the opposite side.
func (d Direction) Invert() Direction {
	if d == Debit {
		return Credit
	}
	return Debit
}

// Sign is +1 for debits and -1 for credits.
func (d Direction) Sign() int64 {
	if d == Debit {
		return 1
	}
	return -1
}

// Line is one leg of a journal entry. Amount is in the account's currency,
// BaseAmount in the entry's base currency. Both are positive minor units.
type Line struct {
	LineNo         int       `json:"lineNo"`
	AccountCode    string    `json:"accountCode"`
	Direction      Direction `json:"direction"`
	Amount         int64     `json:"amount"`
	CurrencyCode   string    `json:"currencyCode"`
	BaseAmount     int64     `json:"baseAmount"`
	ExchangeRateID string    `json:"exchangeRateID,omitempty"`
	IsRounding     bool      `json:"isRounding"`
}

// SignedAmount is the native amount, debit positive.
func (l Line) SignedAmount() int64 { return l.Direction.Sign() * l.Amount }

// SignedBaseAmount is the base amount, debit positive.
func (l Line) SignedBaseAmount() int64 { return l.Direction.Sign() * l.BaseAmount }

// JournalEntry is an immutable, balanced ledger record.
type JournalEntry struct {
	EntryID           string    `json:"entryID"`
	Sequence          int64     `json:"sequence"`
	IdempotencyKey    string    `json:"idempotencyKey"`
	Fingerprint       string    `json:"-"`
	PostingDate       time.Time `json:"postingDate"`
	Description       string    `json:"description"`
	ClassificationTag string    `json:"classificationTag,omitempty"`
	BaseCurrency      string    `json:"baseCurrency"`
	ReversesEntryID   string    `json:"reversesEntryID,omitempty"`
	Lines             []Line    `json:"lines"`
	AuditFields
}

// IsReversal reports whether the entry reverses another.
func (e JournalEntry) IsReversal() bool { return e.ReversesEntryID != "" }

// Touches reports whether any line posts to the account.
func (e JournalEntry) Touches(accountCode string) bool {
	for _, l := range e.Lines {
		if l.AccountCode == accountCode {
			return true
		}
	}
	return false
}

// PostingLine is a caller-supplied line before conversion.
type PostingLine struct {
	AccountCode  string    `json:"accountCode"`
	CurrencyCode string    `json:"currency"`
	Amount       int64     `json:"amount"`
	Direction    Direction `json:"direction"`
}

// PostingRequest is the inbound request to commit a journal entry.
type PostingRequest struct {
	IdempotencyKey    string        `json:"idempotencyKey"`
	PostingDate       time.Time     `json:"postingDate"`
	Description       string        `json:"description"`
	ClassificationTag string        `json:"classificationTag"`
	Lines             []PostingLine `json:"lines"`

	// ReversesEntryID is set only by the ledger itself when reversing.
	ReversesEntryID string `json:"reversesEntryID,omitempty"`
	// Actor is recorded in the audit fields. Not part of the fingerprint.
	Actor string `json:"-"`
}

// Fingerprint hashes the economic content of the request so a reused
// idempotency key with a different payload can be detected.
func (r PostingRequest) Fingerprint() string {
	payload := struct {
		Date    string        `json:"d"`
		Desc    string        `json:"s"`
		Tag     string        `json:"t"`
		Lines   []PostingLine `json:"l"`
		Reverse string        `json:"r"`
	}{
		Date:    DateOnly(r.PostingDate).Format(DateLayout),
		Desc:    r.Description,
		Tag:     r.ClassificationTag,
		Lines:   r.Lines,
		Reverse: r.ReversesEntryID,
	}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// EntryFilter narrows ListEntries. Zero values mean "no constraint".
type EntryFilter struct {
	FromDate      *time.Time
	ToDate        *time.Time
	AccountCode   string
	AfterSequence int64
	Limit         int
}

// LineFilter narrows line aggregation. Dates are inclusive.
type LineFilter struct {
	AccountCodes []string
	FromDate     *time.Time
	ToDate       *time.Time
	MaxSequence  int64
}

// AccountActivity aggregates the lines of one account.
type AccountActivity struct {
	AccountCode  string `json:"accountCode"`
	CurrencyCode string `json:"currencyCode"`
	Debit        int64  `json:"debit"`
	Credit       int64  `json:"credit"`
	BaseDebit    int64  `json:"baseDebit"`
	BaseCredit   int64  `json:"baseCredit"`
	LineCount    int    `json:"lineCount"`
}

// Net is the native balance, debit positive.
func (a AccountActivity) Net() int64 { return a.Debit - a.Credit }

// NetBase is the base balance, debit positive.
func (a AccountActivity) NetBase() int64 { return a.BaseDebit - a.BaseCredit }

// Add accumulates one line.
func (a *AccountActivity) Add(l Line) {
	if l.Direction == Debit {
		a.Debit += l.Amount
		a.BaseDebit += l.BaseAmount
	} else {
		a.Credit += l.Amount
		a.BaseCredit += l.BaseAmount
	}
	a.LineCount++
}

// Classification tags recognised out of the box. Other tags are stored as
// opaque codes for downstream tax tooling.
var ClassificationTags = []string{
	"service", "product_sale", "interest", "refund", "other_income",
	"office_supplies", "rent", "utilities", "salary", "contractor",
	"software", "hardware", "travel", "meals", "marketing",
	"professional_services", "insurance", "taxes", "other_expense",
	"invoice", "payment", "credit_note", "reversal", "fx",
}

// IsKnownClassification reports whether tag is in ClassificationTags.
func IsKnownClassification(tag string) bool {
	for _, t := range ClassificationTags {
		if t == tag {
			return true
		}
	}
	return false
}
