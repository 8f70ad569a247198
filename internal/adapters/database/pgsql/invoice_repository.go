package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	"github.com/SscSPs/ledger_engine/internal/models"
	"github.com/SscSPs/ledger_engine/internal/utils/mapping"
)

// PgxInvoiceRepository implements portsrepo.InvoiceRepositoryFacade.
type PgxInvoiceRepository struct {
	BaseRepository
}

var _ portsrepo.InvoiceRepositoryFacade = (*PgxInvoiceRepository)(nil)

const invoiceColumns = `invoice_id, invoice_number, client_ref, currency_code, items, issue_date, due_date,
	stage, notes, terms, receivable_amount, issue_entry_id, void_entry_id, settlements,
	created_at, created_by, last_updated_at, last_updated_by`

func scanInvoice(row pgx.Row) (domain.Invoice, error) {
	var m models.Invoice
	err := row.Scan(
		&m.InvoiceID, &m.InvoiceNumber, &m.ClientRef, &m.CurrencyCode, &m.Items, &m.IssueDate, &m.DueDate,
		&m.Stage, &m.Notes, &m.Terms, &m.ReceivableAmount, &m.IssueEntryID, &m.VoidEntryID, &m.Settlements,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return domain.Invoice{}, err
	}
	return mapping.ToDomainInvoice(m)
}

func (r *PgxInvoiceRepository) FindInvoiceByID(ctx context.Context, invoiceID string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE invoice_id = $1`, invoiceID))
	if err != nil {
		return nil, mapPgError(err, "invoice "+invoiceID)
	}
	return &inv, nil
}

func (r *PgxInvoiceRepository) ListInvoices(ctx context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE ($1::text = '' OR stage = $1) AND ($2::text = '' OR client_ref = $2)
		ORDER BY invoice_number`, string(filter.Stage), filter.ClientRef)
	if err != nil {
		return nil, mapPgError(err, "failed to list invoices")
	}
	defer rows.Close()
	invoices := make([]domain.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, mapPgError(err, "failed to scan invoice")
		}
		invoices = append(invoices, inv)
	}
	return invoices, mapPgError(rows.Err(), "failed to iterate invoices")
}

// FindInvoiceByEntryID matches settlement entries through the JSONB
// containment index on settlements.
func (r *PgxInvoiceRepository) FindInvoiceByEntryID(ctx context.Context, entryID string) (*domain.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, `
		SELECT `+invoiceColumns+` FROM invoices
		WHERE issue_entry_id = $1 OR void_entry_id = $1
		   OR settlements @> jsonb_build_array(jsonb_build_object('entryID', $1::text))
		LIMIT 1`, entryID))
	if err != nil {
		return nil, mapPgError(err, "invoice for entry "+entryID)
	}
	return &inv, nil
}

func (r *PgxInvoiceRepository) SaveInvoice(ctx context.Context, invoice domain.Invoice) error {
	m, err := mapping.ToModelInvoice(invoice)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO invoices (`+invoiceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		m.InvoiceID, m.InvoiceNumber, m.ClientRef, m.CurrencyCode, m.Items, m.IssueDate, m.DueDate,
		m.Stage, m.Notes, m.Terms, m.ReceivableAmount, m.IssueEntryID, m.VoidEntryID, m.Settlements,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	return mapPgError(err, "invoice "+m.InvoiceID)
}

func (r *PgxInvoiceRepository) UpdateInvoice(ctx context.Context, invoice domain.Invoice) error {
	m, err := mapping.ToModelInvoice(invoice)
	if err != nil {
		return err
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE invoices
		SET invoice_number = $2, client_ref = $3, currency_code = $4, items = $5, issue_date = $6, due_date = $7,
		    stage = $8, notes = $9, terms = $10, receivable_amount = $11, issue_entry_id = $12, void_entry_id = $13,
		    settlements = $14, last_updated_at = $15, last_updated_by = $16
		WHERE invoice_id = $1`,
		m.InvoiceID, m.InvoiceNumber, m.ClientRef, m.CurrencyCode, m.Items, m.IssueDate, m.DueDate,
		m.Stage, m.Notes, m.Terms, m.ReceivableAmount, m.IssueEntryID, m.VoidEntryID,
		m.Settlements, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapPgError(err, "invoice "+m.InvoiceID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", m.InvoiceID, apperrors.ErrNotFound)
	}
	return nil
}

// NextInvoiceNumber increments the month's counter; the row lock it takes
// serializes concurrent invoice creation within a month.
func (r *PgxInvoiceRepository) NextInvoiceNumber(ctx context.Context, monthKey string) (int, error) {
	var next int
	err := r.q.QueryRow(ctx, `
		INSERT INTO invoice_counters (month_key, last_value) VALUES ($1, 1)
		ON CONFLICT (month_key) DO UPDATE SET last_value = invoice_counters.last_value + 1
		RETURNING last_value`, monthKey).Scan(&next)
	if err != nil {
		return 0, mapPgError(err, "failed to allocate invoice number")
	}
	return next, nil
}
