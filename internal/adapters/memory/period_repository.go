package memory

import (
	"context"
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

func (s *store) FindPeriodByID(_ context.Context, periodID string) (*domain.AccountingPeriod, error) {
	p, ok := s.st.periods[periodID]
	if !ok {
		return nil, fmt.Errorf("period %s: %w", periodID, apperrors.ErrNotFound)
	}
	c := copyPeriod(p)
	return &c, nil
}

func (s *store) ListPeriods(_ context.Context) ([]domain.AccountingPeriod, error) {
	out := make([]domain.AccountingPeriod, 0, len(s.st.periods))
	for _, p := range s.st.periods {
		out = append(out, copyPeriod(p))
	}
	domain.SortPeriods(out)
	return out, nil
}

func (s *store) SavePeriod(_ context.Context, period domain.AccountingPeriod) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, exists := s.st.periods[period.PeriodID]; exists {
		return fmt.Errorf("period %s: %w", period.PeriodID, apperrors.ErrDuplicate)
	}
	s.st.periods[period.PeriodID] = copyPeriod(period)
	return nil
}

func (s *store) UpdatePeriod(_ context.Context, period domain.AccountingPeriod) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, exists := s.st.periods[period.PeriodID]; !exists {
		return fmt.Errorf("period %s: %w", period.PeriodID, apperrors.ErrNotFound)
	}
	s.st.periods[period.PeriodID] = copyPeriod(period)
	return nil
}
