package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

func (s *store) FindAccountByCode(_ context.Context, code string) (*domain.Account, error) {
	a, ok := s.st.accounts[code]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", code, apperrors.ErrNotFound)
	}
	return &a, nil
}

func (s *store) FindAccountsByCodes(_ context.Context, codes []string) (map[string]domain.Account, error) {
	out := make(map[string]domain.Account, len(codes))
	for _, c := range codes {
		if a, ok := s.st.accounts[c]; ok {
			out[c] = a
		}
	}
	return out, nil
}

func (s *store) ListAccounts(_ context.Context) ([]domain.Account, error) {
	out := make([]domain.Account, 0, len(s.st.accounts))
	for _, a := range s.st.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *store) SaveAccount(_ context.Context, account domain.Account) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, exists := s.st.accounts[account.Code]; exists {
		return fmt.Errorf("account %s: %w", account.Code, apperrors.ErrDuplicate)
	}
	s.st.accounts[account.Code] = account
	return nil
}

func (s *store) UpdateAccount(_ context.Context, account domain.Account) error {
	if err := s.writable(); err != nil {
		return err
	}
	if _, exists := s.st.accounts[account.Code]; !exists {
		return fmt.Errorf("account %s: %w", account.Code, apperrors.ErrNotFound)
	}
	s.st.accounts[account.Code] = account
	return nil
}
