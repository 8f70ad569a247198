package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateAccountCommand adds an account to the chart.
type CreateAccountCommand struct {
	Code         string
	Name         string
	AccountType  AccountType
	CurrencyCode string
	Actor        string
}

// ReversalRequest controls how an entry is reversed. A nil ReversalDate lets
// the ledger pick the original's date when its period is open, else today.
type ReversalRequest struct {
	ReversalDate   *time.Time
	IdempotencyKey string
	Description    string
	Actor          string
}

// InvoiceItemInput is a line item as supplied by the caller.
type InvoiceItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   int64
}

// CreateInvoiceCommand creates a draft invoice.
type CreateInvoiceCommand struct {
	ClientRef    string
	CurrencyCode string
	Items        []InvoiceItemInput
	IssueDate    time.Time
	DueDate      time.Time
	Notes        string
	Terms        string
	Actor        string
}

// UpdateInvoiceCommand edits an invoice. Nil fields are left unchanged.
// Notes and Terms may change while the invoice is issued; every other field
// only while it is a draft.
type UpdateInvoiceCommand struct {
	ClientRef    *string
	CurrencyCode *string
	Items        []InvoiceItemInput
	IssueDate    *time.Time
	DueDate      *time.Time
	Notes        *string
	Terms        *string
	Actor        string
}

// ChangesDraftDetails reports whether cmd touches anything beyond notes and terms.
func (c UpdateInvoiceCommand) ChangesDraftDetails() bool {
	return c.ClientRef != nil || c.CurrencyCode != nil || c.Items != nil || c.IssueDate != nil || c.DueDate != nil
}

// TransitionCommand carries the caller's idempotency key for issue and void.
type TransitionCommand struct {
	IdempotencyKey string
	Actor          string
}

// SettlementCommand records a payment or a credit note against an invoice.
// DepositAccountCode overrides the policy cash account for payments.
type SettlementCommand struct {
	Amount             int64
	Date               time.Time
	DepositAccountCode string
	Note               string
	IdempotencyKey     string
	Actor              string
}
