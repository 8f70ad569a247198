package domain

import "time"

// Event types published after commit.
const (
	EventEntryPosted     = "ledger.entry.posted"
	EventEntryReversed   = "ledger.entry.reversed"
	EventInvoiceCreated  = "invoice.created"
	EventInvoiceUpdated  = "invoice.updated"
	EventInvoiceIssued   = "invoice.issued"
	EventInvoicePayment  = "invoice.payment_recorded"
	EventInvoiceCredited = "invoice.credit_applied"
	EventInvoiceVoided   = "invoice.voided"
	EventPeriodClosed    = "period.closed"
)

// Event is an outbound notification. Key groups related events for ordered delivery.
type Event struct {
	Type       string    `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}
