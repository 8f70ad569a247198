package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// InvoiceReaderSvc returns invoices with their status derived at asOf.
type InvoiceReaderSvc interface {
	GetInvoice(ctx context.Context, invoiceID string, asOf time.Time) (*domain.InvoiceView, error)
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter, asOf time.Time) ([]domain.InvoiceView, error)

	// Summary totals invoices by status and by client. from and to filter on
	// the issue date and may be nil.
	Summary(ctx context.Context, from, to *time.Time, asOf time.Time) (*domain.InvoiceSummary, error)
}

// InvoiceTransitionSvc drives the invoice state machine. Each transition's
// ledger entry and invoice update commit together or not at all.
type InvoiceTransitionSvc interface {
	CreateInvoice(ctx context.Context, cmd domain.CreateInvoiceCommand) (*domain.InvoiceView, error)

	// UpdateInvoice edits a draft, or only the notes and terms of an issued
	// invoice. Other changes fail with apperrors.ErrInvalidState.
	UpdateInvoice(ctx context.Context, invoiceID string, cmd domain.UpdateInvoiceCommand) (*domain.InvoiceView, error)
	Issue(ctx context.Context, invoiceID string, cmd domain.TransitionCommand) (*domain.InvoiceView, error)
	RecordPayment(ctx context.Context, invoiceID string, cmd domain.SettlementCommand) (*domain.InvoiceView, error)
	ApplyCredit(ctx context.Context, invoiceID string, cmd domain.SettlementCommand) (*domain.InvoiceView, error)
	Void(ctx context.Context, invoiceID string, cmd domain.TransitionCommand) (*domain.InvoiceView, error)
}

// InvoiceSvcFacade combines all invoice service interfaces.
type InvoiceSvcFacade interface {
	InvoiceReaderSvc
	InvoiceTransitionSvc
}
