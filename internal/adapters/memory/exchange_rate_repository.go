package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

func (s *store) FindRateOnDate(_ context.Context, from, to string, effectiveDate time.Time) (*domain.ExchangeRate, error) {
	r, ok := s.st.rates[rateKey{from: from, to: to, date: domain.DateOnly(effectiveDate)}]
	if !ok {
		return nil, fmt.Errorf("rate %s/%s on %s: %w", from, to, effectiveDate.Format(domain.DateLayout), apperrors.ErrNotFound)
	}
	return &r, nil
}

func (s *store) FindLatestRate(_ context.Context, from, to string, onDate time.Time) (*domain.ExchangeRate, error) {
	day := domain.DateOnly(onDate)
	var best *domain.ExchangeRate
	for k, r := range s.st.rates {
		if k.from != from || k.to != to || k.date.After(day) {
			continue
		}
		if best == nil || k.date.After(best.EffectiveDate) {
			rc := r
			best = &rc
		}
	}
	if best == nil {
		return nil, fmt.Errorf("rate %s/%s on or before %s: %w", from, to, day.Format(domain.DateLayout), apperrors.ErrNotFound)
	}
	return best, nil
}

func (s *store) ListRates(_ context.Context, from, to string) ([]domain.ExchangeRate, error) {
	out := make([]domain.ExchangeRate, 0)
	for k, r := range s.st.rates {
		if (from == "" || k.from == from) && (to == "" || k.to == to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.Before(out[j].EffectiveDate)
		}
		if out[i].FromCurrency != out[j].FromCurrency {
			return out[i].FromCurrency < out[j].FromCurrency
		}
		return out[i].ToCurrency < out[j].ToCurrency
	})
	return out, nil
}

func (s *store) UpsertRate(_ context.Context, rate domain.ExchangeRate) error {
	if err := s.writable(); err != nil {
		return err
	}
	s.st.rates[rateKey{from: rate.FromCurrency, to: rate.ToCurrency, date: domain.DateOnly(rate.EffectiveDate)}] = rate
	return nil
}

func (s *store) MarkRatesUsed(_ context.Context, rateIDs []string) error {
	if err := s.writable(); err != nil {
		return err
	}
	ids := make(map[string]bool, len(rateIDs))
	for _, id := range rateIDs {
		ids[id] = true
	}
	for k, r := range s.st.rates {
		if ids[r.RateID] && !r.UsedInConversion {
			r.UsedInConversion = true
			s.st.rates[k] = r
		}
	}
	return nil
}
