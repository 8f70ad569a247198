package dto

import (
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// PostingLineRequest is one leg of a posting request. Amounts are positive
// integers in the currency's minor unit.
type PostingLineRequest struct {
	AccountCode string `json:"accountCode" binding:"required"`
	Currency    string `json:"currency" binding:"required,currency"`
	Amount      int64  `json:"amount" binding:"required,gt=0"`
	Direction   string `json:"direction" binding:"required,oneof=DEBIT CREDIT"`
}

// PostEntryRequest is the body of POST /ledger/entries.
type PostEntryRequest struct {
	IdempotencyKey    string               `json:"idempotencyKey" binding:"required,max=128"`
	PostingDate       string               `json:"postingDate" binding:"required"`
	Description       string               `json:"description" binding:"required,max=500"`
	ClassificationTag string               `json:"classificationTag" binding:"max=64"`
	Lines             []PostingLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// ToDomain converts the request to a posting request.
func (r PostEntryRequest) ToDomain(actor string) (domain.PostingRequest, error) {
	date, err := ParseDate("postingDate", r.PostingDate)
	if err != nil {
		return domain.PostingRequest{}, err
	}
	lines := make([]domain.PostingLine, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = domain.PostingLine{
			AccountCode:  l.AccountCode,
			CurrencyCode: l.Currency,
			Amount:       l.Amount,
			Direction:    domain.Direction(l.Direction),
		}
	}
	return domain.PostingRequest{
		IdempotencyKey:    r.IdempotencyKey,
		PostingDate:       date,
		Description:       r.Description,
		ClassificationTag: r.ClassificationTag,
		Lines:             lines,
		Actor:             actor,
	}, nil
}

// PostEntryResponse echoes the committed entry's identity and content.
type PostEntryResponse struct {
	EntryID  string              `json:"entryID"`
	Sequence int64               `json:"sequence"`
	Entry    domain.JournalEntry `json:"entry"`
}

// ToPostEntryResponse converts a committed entry.
func ToPostEntryResponse(e *domain.JournalEntry) PostEntryResponse {
	return PostEntryResponse{EntryID: e.EntryID, Sequence: e.Sequence, Entry: *e}
}

// ReverseEntryRequest is the optional body of POST /ledger/entries/:entryID/reverse.
type ReverseEntryRequest struct {
	ReversalDate   string `json:"reversalDate"`
	IdempotencyKey string `json:"idempotencyKey" binding:"max=128"`
	Description    string `json:"description" binding:"required,max=500"`
}

// ToDomain converts the request; an empty date lets the ledger choose.
func (r ReverseEntryRequest) ToDomain(actor string) (domain.ReversalRequest, error) {
	req := domain.ReversalRequest{
		IdempotencyKey: r.IdempotencyKey,
		Description:    r.Description,
		Actor:          actor,
	}
	if r.ReversalDate != "" {
		d, err := ParseDate("reversalDate", r.ReversalDate)
		if err != nil {
			return req, err
		}
		req.ReversalDate = &d
	}
	return req, nil
}

// ListEntriesParams defines query parameters for listing journal entries.
type ListEntriesParams struct {
	From        string  `form:"from"`
	To          string  `form:"to"`
	AccountCode string  `form:"accountCode"`
	Limit       int     `form:"limit" binding:"omitempty,min=1,max=200"`
	NextToken   *string `form:"nextToken"`
}

// ToFilter converts the query parameters.
func (p ListEntriesParams) ToFilter() (domain.EntryFilter, error) {
	filter := domain.EntryFilter{AccountCode: p.AccountCode, Limit: p.Limit}
	if p.From != "" {
		d, err := ParseDate("from", p.From)
		if err != nil {
			return filter, err
		}
		filter.FromDate = &d
	}
	if p.To != "" {
		d, err := ParseDate("to", p.To)
		if err != nil {
			return filter, err
		}
		filter.ToDate = &d
	}
	return filter, nil
}

// ListEntriesResponse is one page of the journal.
type ListEntriesResponse struct {
	Entries   []domain.JournalEntry `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}

// BalanceResponse is the replayed balance of an account.
type BalanceResponse struct {
	domain.AccountBalance
	QueriedAt time.Time `json:"queriedAt"`
}
