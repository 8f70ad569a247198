package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/SscSPs/ledger_engine/internal/models"
)

// ToModelInvoice converts a domain Invoice to a model Invoice, encoding the
// items and settlements as JSON documents.
func ToModelInvoice(d domain.Invoice) (models.Invoice, error) {
	items, err := json.Marshal(nonNil(d.Items))
	if err != nil {
		return models.Invoice{}, fmt.Errorf("failed to encode invoice items: %w", err)
	}
	settlements, err := json.Marshal(nonNil(d.Settlements))
	if err != nil {
		return models.Invoice{}, fmt.Errorf("failed to encode invoice settlements: %w", err)
	}
	return models.Invoice{
		InvoiceID:        d.InvoiceID,
		InvoiceNumber:    d.InvoiceNumber,
		ClientRef:        d.ClientRef,
		CurrencyCode:     d.CurrencyCode,
		Items:            items,
		IssueDate:        d.IssueDate,
		DueDate:          d.DueDate,
		Stage:            string(d.Stage),
		Notes:            d.Notes,
		Terms:            d.Terms,
		ReceivableAmount: d.ReceivableAmount,
		IssueEntryID:     nullable(d.IssueEntryID),
		VoidEntryID:      nullable(d.VoidEntryID),
		Settlements:      settlements,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}, nil
}

// ToDomainInvoice converts a model Invoice to a domain Invoice
func ToDomainInvoice(m models.Invoice) (domain.Invoice, error) {
	d := domain.Invoice{
		InvoiceID:        m.InvoiceID,
		InvoiceNumber:    m.InvoiceNumber,
		ClientRef:        m.ClientRef,
		CurrencyCode:     m.CurrencyCode,
		IssueDate:        domain.DateOnly(m.IssueDate),
		DueDate:          domain.DateOnly(m.DueDate),
		Stage:            domain.InvoiceStage(m.Stage),
		Notes:            m.Notes,
		Terms:            m.Terms,
		ReceivableAmount: m.ReceivableAmount,
		IssueEntryID:     deref(m.IssueEntryID),
		VoidEntryID:      deref(m.VoidEntryID),
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
	if err := json.Unmarshal(m.Items, &d.Items); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to decode items of invoice %s: %w", m.InvoiceID, err)
	}
	if err := json.Unmarshal(m.Settlements, &d.Settlements); err != nil {
		return domain.Invoice{}, fmt.Errorf("failed to decode settlements of invoice %s: %w", m.InvoiceID, err)
	}
	return d, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
