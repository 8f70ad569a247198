package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStage is the persisted lifecycle stage. Payment progress and
// overdue-ness are never stored; see Invoice.StatusAsOf.
type InvoiceStage string

const (
	StageDraft  InvoiceStage = "draft"
	StageIssued InvoiceStage = "issued"
	StageVoid   InvoiceStage = "void"
)

// InvoiceStatus is the status shown to callers, derived on read.
type InvoiceStatus string

const (
	StatusDraft         InvoiceStatus = "draft"
	StatusIssued        InvoiceStatus = "issued"
	StatusPartiallyPaid InvoiceStatus = "partially_paid"
	StatusPaid          InvoiceStatus = "paid"
	StatusOverdue       InvoiceStatus = "overdue"
	StatusVoid          InvoiceStatus = "void"
)

// InvoiceItem is one billable line. Amount is quantity x unit price, rounded
// to the invoice currency's minor unit when the invoice is created.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   int64           `json:"unitPrice"`
	Amount      int64           `json:"amount"`
}

// SettlementKind distinguishes cash payments from credit notes.
type SettlementKind string

const (
	SettlementPayment SettlementKind = "payment"
	SettlementCredit  SettlementKind = "credit"
)

// Settlement reduces an invoice's outstanding balance and references the
// ledger entry that recorded it. ReceivableRelieved is in the receivable
// account's currency.
type Settlement struct {
	SettlementID       string         `json:"settlementID"`
	Kind               SettlementKind `json:"kind"`
	EntryID            string         `json:"entryID"`
	Amount             int64          `json:"amount"`
	SettledOn          time.Time      `json:"settledOn"`
	ReceivableRelieved int64          `json:"receivableRelieved"`
	DepositAccountCode string         `json:"depositAccountCode,omitempty"`
	Note               string         `json:"note,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
	CreatedBy          string         `json:"createdBy"`
}

// Invoice is a bill to an external client.
type Invoice struct {
	InvoiceID     string        `json:"invoiceID"`
	InvoiceNumber string        `json:"invoiceNumber"`
	ClientRef     string        `json:"clientRef"`
	CurrencyCode  string        `json:"currencyCode"`
	Items         []InvoiceItem `json:"items"`
	IssueDate     time.Time     `json:"issueDate"`
	DueDate       time.Time     `json:"dueDate"`
	Stage         InvoiceStage  `json:"stage"`
	Notes         string        `json:"notes,omitempty"`
	Terms         string        `json:"terms,omitempty"`
	// ReceivableAmount is the total as carried in the receivable account at issue.
	ReceivableAmount int64        `json:"receivableAmount"`
	IssueEntryID     string       `json:"issueEntryID,omitempty"`
	VoidEntryID      string       `json:"voidEntryID,omitempty"`
	Settlements      []Settlement `json:"settlements"`
	AuditFields
}

// Total is the sum of item amounts.
func (inv Invoice) Total() int64 {
	var total int64
	for _, it := range inv.Items {
		total += it.Amount
	}
	return total
}

func (inv Invoice) settled(kind SettlementKind) int64 {
	var sum int64
	for _, s := range inv.Settlements {
		if s.Kind == kind {
			sum += s.Amount
		}
	}
	return sum
}

// PaidAmount is the cumulative cash received.
func (inv Invoice) PaidAmount() int64 { return inv.settled(SettlementPayment) }

// CreditedAmount is the cumulative credit notes applied.
func (inv Invoice) CreditedAmount() int64 { return inv.settled(SettlementCredit) }

// SettledAmount is payments plus credits.
func (inv Invoice) SettledAmount() int64 { return inv.PaidAmount() + inv.CreditedAmount() }

// Outstanding is what the client still owes.
func (inv Invoice) Outstanding() int64 {
	if inv.Stage != StageIssued {
		return 0
	}
	return inv.Total() - inv.SettledAmount()
}

// ReceivableRelieved is how much of ReceivableAmount settlements have cleared.
func (inv Invoice) ReceivableRelieved() int64 {
	var sum int64
	for _, s := range inv.Settlements {
		sum += s.ReceivableRelieved
	}
	return sum
}

// ReliefFor returns the receivable to clear for a settlement of amount.
// The final settlement clears the exact remainder so no residue is left in
// the receivable account.
func (inv Invoice) ReliefFor(amount int64) int64 {
	remainingReceivable := inv.ReceivableAmount - inv.ReceivableRelieved()
	if amount >= inv.Outstanding() {
		return remainingReceivable
	}
	if inv.Total() == 0 {
		return 0
	}
	return decimal.NewFromInt(inv.ReceivableAmount).
		Mul(decimal.NewFromInt(amount)).
		Div(decimal.NewFromInt(inv.Total())).
		RoundBank(0).IntPart()
}

// StatusAsOf derives the visible status from the stage, the settlements
// dated on or before asOf, and the due date.
func (inv Invoice) StatusAsOf(asOf time.Time) InvoiceStatus {
	switch inv.Stage {
	case StageVoid:
		return StatusVoid
	case StageDraft:
		return StatusDraft
	}
	settled := inv.SettledAmountAsOf(asOf)
	if settled >= inv.Total() {
		return StatusPaid
	}
	if DateOnly(asOf).After(inv.DueDate) {
		return StatusOverdue
	}
	if settled > 0 {
		return StatusPartiallyPaid
	}
	return StatusIssued
}

// SettlementsAsOf returns the settlements dated on or before asOf.
func (inv Invoice) SettlementsAsOf(asOf time.Time) []Settlement {
	d := DateOnly(asOf)
	out := make([]Settlement, 0, len(inv.Settlements))
	for _, s := range inv.Settlements {
		if !s.SettledOn.After(d) {
			out = append(out, s)
		}
	}
	return out
}

// SettledAmountAsOf is payments plus credits dated on or before asOf.
func (inv Invoice) SettledAmountAsOf(asOf time.Time) int64 {
	var sum int64
	for _, s := range inv.SettlementsAsOf(asOf) {
		sum += s.Amount
	}
	return sum
}

// OutstandingAsOf is what the client owed at the end of asOf.
func (inv Invoice) OutstandingAsOf(asOf time.Time) int64 {
	if inv.Stage != StageIssued {
		return 0
	}
	return inv.Total() - inv.SettledAmountAsOf(asOf)
}

// DaysPastDue is zero when not yet due.
func (inv Invoice) DaysPastDue(asOf time.Time) int {
	d := DateOnly(asOf)
	if !d.After(inv.DueDate) {
		return 0
	}
	return int(d.Sub(inv.DueDate).Hours() / 24)
}

// FormatInvoiceNumber renders INV-YYYYMM-NNNN.
func FormatInvoiceNumber(month time.Time, seq int) string {
	return fmt.Sprintf("INV-%04d%02d-%04d", month.Year(), int(month.Month()), seq)
}

// InvoiceMonthKey is the YYYYMM key invoice numbers restart on.
func InvoiceMonthKey(t time.Time) string {
	return fmt.Sprintf("%04d%02d", t.Year(), int(t.Month()))
}

// InvoiceView is an invoice plus its derived figures at a given date.
type InvoiceView struct {
	Invoice
	Status      InvoiceStatus `json:"status"`
	Total       int64         `json:"total"`
	Paid        int64         `json:"paid"`
	Credited    int64         `json:"credited"`
	Outstanding int64         `json:"outstanding"`
	AsOf        time.Time     `json:"asOf"`
}

// ViewAsOf builds an InvoiceView. Settlements dated after asOf are left
// out, so a view for a past date matches what the books showed then.
func (inv Invoice) ViewAsOf(asOf time.Time) InvoiceView {
	at := inv
	at.Settlements = inv.SettlementsAsOf(asOf)
	return InvoiceView{
		Invoice:     at,
		Status:      at.StatusAsOf(asOf),
		Total:       at.Total(),
		Paid:        at.PaidAmount(),
		Credited:    at.CreditedAmount(),
		Outstanding: at.Outstanding(),
		AsOf:        DateOnly(asOf),
	}
}

// LastSettledOn is the latest settlement date, zero when there are none.
func (inv Invoice) LastSettledOn() time.Time {
	var last time.Time
	for _, s := range inv.Settlements {
		if s.SettledOn.After(last) {
			last = s.SettledOn
		}
	}
	return last
}

// InvoiceFilter narrows ListInvoices.
type InvoiceFilter struct {
	Stage     InvoiceStage
	ClientRef string
}

// StatusSummary counts invoices and sums their totals for one status.
type StatusSummary struct {
	Count       int   `json:"count"`
	Total       int64 `json:"total"`
	Outstanding int64 `json:"outstanding"`
}

// ClientSummary counts invoices and sums their totals for one client.
type ClientSummary struct {
	ClientRef   string `json:"clientRef"`
	Count       int    `json:"count"`
	Total       int64  `json:"total"`
	Paid        int64  `json:"paid"`
	Outstanding int64  `json:"outstanding"`
}

// CurrencySummary holds the figures for invoices billed in one currency.
// Amounts in different currencies are never added together.
type CurrencySummary struct {
	CurrencyCode string                          `json:"currencyCode"`
	Count        int                             `json:"count"`
	Total        int64                           `json:"total"`
	Paid         int64                           `json:"paid"`
	Credited     int64                           `json:"credited"`
	Outstanding  int64                           `json:"outstanding"`
	ByStatus     map[InvoiceStatus]StatusSummary `json:"byStatus"`
	ByClient     []ClientSummary                 `json:"byClient"`
}

// InvoiceSummary aggregates invoices issued within a date window, with
// statuses derived at AsOf.
type InvoiceSummary struct {
	AsOf          time.Time         `json:"asOf"`
	From          *time.Time        `json:"from,omitempty"`
	To            *time.Time        `json:"to,omitempty"`
	TotalInvoices int               `json:"totalInvoices"`
	Currencies    []CurrencySummary `json:"currencies"`
}
