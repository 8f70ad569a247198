package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

func (s *store) FindInvoiceByID(_ context.Context, invoiceID string) (*domain.Invoice, error) {
	inv, ok := s.st.invoices[invoiceID]
	if !ok {
		return nil, fmt.Errorf("invoice %s: %w", invoiceID, apperrors.ErrNotFound)
	}
	c := copyInvoice(inv)
	return &c, nil
}

func (s *store) ListInvoices(_ context.Context, filter domain.InvoiceFilter) ([]domain.Invoice, error) {
	out := make([]domain.Invoice, 0)
	for _, inv := range s.st.invoices {
		if filter.Stage != "" && inv.Stage != filter.Stage {
			continue
		}
		if filter.ClientRef != "" && inv.ClientRef != filter.ClientRef {
			continue
		}
		out = append(out, copyInvoice(inv))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber < out[j].InvoiceNumber })
	return out, nil
}

func (s *store) FindInvoiceByEntryID(_ context.Context, entryID string) (*domain.Invoice, error) {
	for _, inv := range s.st.invoices {
		if inv.IssueEntryID == entryID || inv.VoidEntryID == entryID {
			c := copyInvoice(inv)
			return &c, nil
		}
		for _, st := range inv.Settlements {
			if st.EntryID == entryID {
				c := copyInvoice(inv)
				return &c, nil
			}
		}
	}
	return nil, fmt.Errorf("invoice for entry %s: %w", entryID, apperrors.ErrNotFound)
}

func (s *store) SaveInvoice(_ context.Context, invoice domain.Invoice) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, exists := s.st.invoices[invoice.InvoiceID]; exists {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrDuplicate)
	}
	s.st.invoices[invoice.InvoiceID] = copyInvoice(invoice)
	return nil
}

func (s *store) UpdateInvoice(_ context.Context, invoice domain.Invoice) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, exists := s.st.invoices[invoice.InvoiceID]; !exists {
		return fmt.Errorf("invoice %s: %w", invoice.InvoiceID, apperrors.ErrNotFound)
	}
	s.st.invoices[invoice.InvoiceID] = copyInvoice(invoice)
	return nil
}

func (s *store) NextInvoiceNumber(_ context.Context, monthKey string) (int, error) {
	if err := s.writable(); err != nil {
		return 0, err
	}
	s.st.invoiceCounters[monthKey]++
	return s.st.invoiceCounters[monthKey], nil
}
