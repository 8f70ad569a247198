package services_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

type ChartServiceTestSuite struct {
	ledgerSuite
}

func (s *ChartServiceTestSuite) TestCreateAccount_Normalizes() {
	acc, err := s.svc.Chart.CreateAccount(s.ctx, domain.CreateAccountCommand{
		Code: " 6000 ", Name: " Travel ", AccountType: domain.Expense, CurrencyCode: "usd", Actor: "tester",
	})
	s.Require().NoError(err)
	s.Equal("6000", acc.Code)
	s.Equal("Travel", acc.Name)
	s.Equal("USD", acc.CurrencyCode)
	s.True(acc.IsActive)
	s.Equal("tester", acc.CreatedBy)
}

func (s *ChartServiceTestSuite) TestCreateAccount_DuplicateCode() {
	_, err := s.svc.Chart.CreateAccount(s.ctx, domain.CreateAccountCommand{
		Code: "1000", Name: "Another cash", AccountType: domain.Asset, CurrencyCode: "USD",
	})
	s.ErrorIs(err, apperrors.ErrDuplicateCode)
	s.ErrorIs(err, apperrors.ErrDuplicate)
}

func (s *ChartServiceTestSuite) TestCreateAccount_DeactivatedCodeNotReused() {
	_, err := s.svc.Chart.Deactivate(s.ctx, "2000", "tester")
	s.Require().NoError(err)

	_, err = s.svc.Chart.CreateAccount(s.ctx, domain.CreateAccountCommand{
		Code: "2000", Name: "Payables again", AccountType: domain.Liability, CurrencyCode: "USD",
	})
	s.ErrorIs(err, apperrors.ErrDuplicateCode)
}

func (s *ChartServiceTestSuite) TestCreateAccount_Validation() {
	for name, cmd := range map[string]domain.CreateAccountCommand{
		"no code":      {Name: "x", AccountType: domain.Asset, CurrencyCode: "USD"},
		"no name":      {Code: "x", AccountType: domain.Asset, CurrencyCode: "USD"},
		"bad type":     {Code: "x", Name: "x", AccountType: "REVENUE", CurrencyCode: "USD"},
		"bad currency": {Code: "x", Name: "x", AccountType: domain.Asset, CurrencyCode: "ABC"},
	} {
		_, err := s.svc.Chart.CreateAccount(s.ctx, cmd)
		s.ErrorIs(err, apperrors.ErrValidation, name)
	}
}

func (s *ChartServiceTestSuite) TestLookup() {
	acc, err := s.svc.Chart.Lookup(s.ctx, "A101")
	s.Require().NoError(err)
	s.Equal(domain.Asset, acc.AccountType)

	_, err = s.svc.Chart.Lookup(s.ctx, "nope")
	s.ErrorIs(err, apperrors.ErrNotFound)

	accounts, err := s.svc.Chart.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Len(accounts, 10)
	s.Equal("1000", accounts[0].Code)
}

func (s *ChartServiceTestSuite) TestDeactivate_Unused() {
	acc, err := s.svc.Chart.Deactivate(s.ctx, "2000", "tester")
	s.Require().NoError(err)
	s.False(acc.IsActive)

	again, err := s.svc.Chart.Deactivate(s.ctx, "2000", "tester")
	s.Require().NoError(err)
	s.False(again.IsActive)
}

func (s *ChartServiceTestSuite) TestDeactivate_NonZeroBalance() {
	s.post("fund", day(2024, 1, 2), debit("1000", "USD", 100), credit("3000", "USD", 100))

	_, err := s.svc.Chart.Deactivate(s.ctx, "1000", "tester")
	s.ErrorIs(err, apperrors.ErrAccountInUse)
	s.ErrorIs(err, apperrors.ErrStateConflict)
}

func (s *ChartServiceTestSuite) TestDeactivate_LinesInOpenPeriod() {
	entry := s.post("fund", day(2024, 1, 2), debit("2000", "USD", 100), credit("3000", "USD", 100))
	_, err := s.svc.Ledger.Reverse(s.ctx, entry.EntryID, domain.ReversalRequest{})
	s.Require().NoError(err)
	s.Equal(int64(0), s.balance("2000", s.clock.Now()))

	_, err = s.svc.Chart.Deactivate(s.ctx, "2000", "tester")
	s.ErrorIs(err, apperrors.ErrAccountInUse)

	s.closePeriod("2024-01")
	acc, err := s.svc.Chart.Deactivate(s.ctx, "2000", "tester")
	s.Require().NoError(err)
	s.False(acc.IsActive)
}

func (s *ChartServiceTestSuite) TestChangeAccountType() {
	acc, err := s.svc.Chart.ChangeAccountType(s.ctx, "2000", domain.Equity, "tester")
	s.Require().NoError(err)
	s.Equal(domain.Equity, acc.AccountType)

	s.post("fund", day(2024, 1, 2), debit("1000", "USD", 100), credit("3000", "USD", 100))
	_, err = s.svc.Chart.ChangeAccountType(s.ctx, "1000", domain.Liability, "tester")
	s.ErrorIs(err, apperrors.ErrAccountInUse)

	_, err = s.svc.Chart.ChangeAccountType(s.ctx, "2000", "BOGUS", "tester")
	s.ErrorIs(err, apperrors.ErrValidation)
}

func TestChartService(t *testing.T) {
	suite.Run(t, new(ChartServiceTestSuite))
}
