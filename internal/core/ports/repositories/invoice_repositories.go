package repositories

import (
	"context"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// InvoiceReader defines read operations for invoices.
type InvoiceReader interface {
	FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error)

	// FindInvoiceByEntryID returns the invoice whose issuance, void or
	// settlement was recorded by entryID, or apperrors.ErrNotFound.
	FindInvoiceByEntryID(ctx context.Context, entryID string) (*domain.Invoice, error)
}

// InvoiceWriter defines write operations for invoices.
type InvoiceWriter interface {
	SaveInvoice(ctx context.Context, invoice domain.Invoice) error

	// UpdateInvoice persists every mutable field: draft details, the stage,
	// entry references and any new settlements.
	UpdateInvoice(ctx context.Context, invoice domain.Invoice) error

	// NextInvoiceNumber reserves the next per-month sequence for monthKey (YYYYMM).
	NextInvoiceNumber(ctx context.Context, monthKey string) (int, error)
}

// InvoiceRepositoryFacade combines invoice reads and writes.
type InvoiceRepositoryFacade interface {
	InvoiceReader
	InvoiceWriter
}
