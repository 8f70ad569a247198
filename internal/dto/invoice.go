package dto

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// InvoiceItemRequest is a billable line. UnitPrice is in minor units.
type InvoiceItemRequest struct {
	Description string          `json:"description" binding:"max=512"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   int64           `json:"unitPrice" binding:"gte=0"`
}

// CreateInvoiceRequest creates a draft invoice.
type CreateInvoiceRequest struct {
	ClientRef    string               `json:"clientRef" binding:"required,max=128"`
	CurrencyCode string               `json:"currencyCode" binding:"required,currency"`
	Items        []InvoiceItemRequest `json:"items" binding:"required,min=1,dive"`
	IssueDate    string               `json:"issueDate" binding:"required"`
	DueDate      string               `json:"dueDate" binding:"required"`
	Notes        string               `json:"notes" binding:"max=2000"`
	Terms        string               `json:"terms" binding:"max=2000"`
}

// ToCommand converts the request.
func (r CreateInvoiceRequest) ToCommand(actor string) (domain.CreateInvoiceCommand, error) {
	issue, err := ParseDate("issueDate", r.IssueDate)
	if err != nil {
		return domain.CreateInvoiceCommand{}, err
	}
	due, err := ParseDate("dueDate", r.DueDate)
	if err != nil {
		return domain.CreateInvoiceCommand{}, err
	}
	return domain.CreateInvoiceCommand{
		ClientRef:    r.ClientRef,
		CurrencyCode: r.CurrencyCode,
		Items:        itemInputs(r.Items),
		IssueDate:    issue,
		DueDate:      due,
		Notes:        r.Notes,
		Terms:        r.Terms,
		Actor:        actor,
	}, nil
}

func itemInputs(reqs []InvoiceItemRequest) []domain.InvoiceItemInput {
	items := make([]domain.InvoiceItemInput, len(reqs))
	for i, it := range reqs {
		items[i] = domain.InvoiceItemInput{Description: it.Description, Quantity: it.Quantity, UnitPrice: it.UnitPrice}
	}
	return items
}

// UpdateInvoiceRequest patches an invoice. Absent fields are left unchanged.
type UpdateInvoiceRequest struct {
	ClientRef    *string              `json:"clientRef" binding:"omitempty,min=1,max=128"`
	CurrencyCode *string              `json:"currencyCode" binding:"omitempty,currency"`
	Items        []InvoiceItemRequest `json:"items" binding:"omitempty,min=1,dive"`
	IssueDate    *string              `json:"issueDate"`
	DueDate      *string              `json:"dueDate"`
	Notes        *string              `json:"notes" binding:"omitempty,max=2000"`
	Terms        *string              `json:"terms" binding:"omitempty,max=2000"`
}

// ToCommand converts the request.
func (r UpdateInvoiceRequest) ToCommand(actor string) (domain.UpdateInvoiceCommand, error) {
	cmd := domain.UpdateInvoiceCommand{
		ClientRef:    r.ClientRef,
		CurrencyCode: r.CurrencyCode,
		Notes:        r.Notes,
		Terms:        r.Terms,
		Actor:        actor,
	}
	if r.Items != nil {
		cmd.Items = itemInputs(r.Items)
	}
	if r.IssueDate != nil {
		d, err := ParseDate("issueDate", *r.IssueDate)
		if err != nil {
			return domain.UpdateInvoiceCommand{}, err
		}
		cmd.IssueDate = &d
	}
	if r.DueDate != nil {
		d, err := ParseDate("dueDate", *r.DueDate)
		if err != nil {
			return domain.UpdateInvoiceCommand{}, err
		}
		cmd.DueDate = &d
	}
	return cmd, nil
}

// TransitionRequest is the optional body of issue and void.
type TransitionRequest struct {
	IdempotencyKey string `json:"idempotencyKey" binding:"max=128"`
}

// SettlementRequest records a payment or a credit note.
type SettlementRequest struct {
	Amount             int64  `json:"amount" binding:"required,gt=0"`
	Date               string `json:"date" binding:"required"`
	DepositAccountCode string `json:"depositAccountCode"`
	Note               string `json:"note" binding:"max=512"`
	IdempotencyKey     string `json:"idempotencyKey" binding:"required,max=128"`
}

// ToCommand converts the request.
func (r SettlementRequest) ToCommand(actor string) (domain.SettlementCommand, error) {
	date, err := ParseDate("date", r.Date)
	if err != nil {
		return domain.SettlementCommand{}, err
	}
	return domain.SettlementCommand{
		Amount:             r.Amount,
		Date:               date,
		DepositAccountCode: r.DepositAccountCode,
		Note:               r.Note,
		IdempotencyKey:     r.IdempotencyKey,
		Actor:              actor,
	}, nil
}

// ListInvoicesParams filters invoices; AsOf drives the derived status.
type ListInvoicesParams struct {
	Stage     string `form:"stage" binding:"omitempty,oneof=draft issued void"`
	ClientRef string `form:"clientRef"`
	AsOf      string `form:"asOf"`
}

// ListInvoicesResponse wraps invoice views.
type ListInvoicesResponse struct {
	Invoices []domain.InvoiceView `json:"invoices"`
}

// InvoiceSummaryParams bounds the summary by issue date.
type InvoiceSummaryParams struct {
	From string `form:"from"`
	To   string `form:"to"`
	AsOf string `form:"asOf"`
}

// Range parses the optional bounds.
func (p InvoiceSummaryParams) Range() (from, to *time.Time, err error) {
	if strings.TrimSpace(p.From) != "" {
		d, err := ParseDate("from", p.From)
		if err != nil {
			return nil, nil, err
		}
		from = &d
	}
	if strings.TrimSpace(p.To) != "" {
		d, err := ParseDate("to", p.To)
		if err != nil {
			return nil, nil, err
		}
		to = &d
	}
	return from, to, nil
}
