package models

import "time"

// Invoice is a row of invoices. Items and settlements are stored as JSONB
// because they are only ever read and written with their invoice.
type Invoice struct {
	InvoiceID        string    `db:"invoice_id"`
	InvoiceNumber    string    `db:"invoice_number"`
	ClientRef        string    `db:"client_ref"`
	CurrencyCode     string    `db:"currency_code"`
	Items            []byte    `db:"items"`
	IssueDate        time.Time `db:"issue_date"`
	DueDate          time.Time `db:"due_date"`
	Stage            string    `db:"stage"`
	Notes            string    `db:"notes"`
	Terms            string    `db:"terms"`
	ReceivableAmount int64     `db:"receivable_amount"`
	IssueEntryID     *string   `db:"issue_entry_id"` // Nullable
	VoidEntryID      *string   `db:"void_entry_id"`  // Nullable
	Settlements      []byte    `db:"settlements"`
	AuditFields
}
