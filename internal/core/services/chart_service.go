package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

const (
	maxAccountCodeLength = 32
	maxAccountNameLength = 255
)

// chartService manages the chart of accounts.
type chartService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

// NewChartService creates a new chart of accounts service.
func NewChartService(uow portsrepo.UnitOfWork, opts ...ServiceOption) portssvc.ChartSvcFacade {
	o := buildOptions(opts)
	return &chartService{BaseService: o.base(), uow: uow}
}

var _ portssvc.ChartSvcFacade = (*chartService)(nil)

func (s *chartService) Lookup(ctx context.Context, code string) (*domain.Account, error) {
	var account *domain.Account
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		account, err = repos.AccountRepo.FindAccountByCode(ctx, strings.TrimSpace(code))
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *chartService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	var accounts []domain.Account
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		accounts, err = repos.AccountRepo.ListAccounts(ctx)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts")
		return nil, err
	}
	return accounts, nil
}

func validateCreateAccount(cmd domain.CreateAccountCommand) (domain.CreateAccountCommand, error) {
	cmd.Code = strings.TrimSpace(cmd.Code)
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.CurrencyCode = normalizeCode(cmd.CurrencyCode)

	if cmd.Code == "" {
		return cmd, fmt.Errorf("%w: account code is required", apperrors.ErrValidation)
	}
	if len(cmd.Code) > maxAccountCodeLength {
		return cmd, fmt.Errorf("%w: account code must be at most %d characters", apperrors.ErrValidation, maxAccountCodeLength)
	}
	if cmd.Name == "" {
		return cmd, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}
	if len(cmd.Name) > maxAccountNameLength {
		return cmd, fmt.Errorf("%w: account name must be at most %d characters", apperrors.ErrValidation, maxAccountNameLength)
	}
	if !cmd.AccountType.Valid() {
		return cmd, fmt.Errorf("%w: invalid account type %q", apperrors.ErrValidation, cmd.AccountType)
	}
	if !domain.IsKnownCurrency(cmd.CurrencyCode) {
		return cmd, fmt.Errorf("%w: unknown currency %q", apperrors.ErrValidation, cmd.CurrencyCode)
	}
	return cmd, nil
}

func (s *chartService) CreateAccount(ctx context.Context, cmd domain.CreateAccountCommand) (*domain.Account, error) {
	cmd, err := validateCreateAccount(cmd)
	if err != nil {
		return nil, err
	}

	account := domain.Account{
		AccountID:    uuid.NewString(),
		Code:         cmd.Code,
		Name:         cmd.Name,
		AccountType:  cmd.AccountType,
		CurrencyCode: cmd.CurrencyCode,
		IsActive:     true,
		AuditFields:  domain.NewAuditFields(cmd.Actor, s.Now()),
	}
	err = s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		if _, err := repos.AccountRepo.FindAccountByCode(ctx, account.Code); err == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrDuplicateCode, account.Code)
		} else if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}
		if err := repos.AccountRepo.SaveAccount(ctx, account); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return fmt.Errorf("%w: %s", apperrors.ErrDuplicateCode, account.Code)
			}
			return fmt.Errorf("failed to save account: %w", err)
		}
		return nil
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to create account", slog.String("code", account.Code))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Account created",
		slog.String("code", account.Code),
		slog.String("account_type", string(account.AccountType)),
		slog.String("currency", account.CurrencyCode))
	return &account, nil
}

// Deactivate hides an account from new postings. Accounts are never deleted.
func (s *chartService) Deactivate(ctx context.Context, code string, actor string) (*domain.Account, error) {
	var account *domain.Account
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		account, err = repos.AccountRepo.FindAccountByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if !account.IsActive {
			return nil
		}

		total, err := repos.JournalRepo.SumLines(ctx, domain.LineFilter{AccountCodes: []string{account.Code}})
		if err != nil {
			return err
		}
		for _, a := range total {
			if a.Net() != 0 || a.NetBase() != 0 {
				return fmt.Errorf("%w: %s has a non-zero balance", apperrors.ErrAccountInUse, account.Code)
			}
		}

		periods, err := repos.PeriodRepo.ListPeriods(ctx)
		if err != nil {
			return err
		}
		for _, p := range periods {
			if !p.IsOpen() {
				continue
			}
			start, end := p.StartDate, p.EndDate
			inPeriod, err := repos.JournalRepo.SumLines(ctx, domain.LineFilter{AccountCodes: []string{account.Code}, FromDate: &start, ToDate: &end})
			if err != nil {
				return err
			}
			for _, a := range inPeriod {
				if a.LineCount > 0 {
					return fmt.Errorf("%w: %s has entries in open period %s", apperrors.ErrAccountInUse, account.Code, p.Name)
				}
			}
		}

		account.IsActive = false
		account.Touch(actor, s.Now())
		return repos.AccountRepo.UpdateAccount(ctx, *account)
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to deactivate account", slog.String("code", code))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Account deactivated", slog.String("code", account.Code))
	return account, nil
}

// ChangeAccountType is allowed only while no entry references the account,
// since the type decides how existing balances present.
func (s *chartService) ChangeAccountType(ctx context.Context, code string, accountType domain.AccountType, actor string) (*domain.Account, error) {
	if !accountType.Valid() {
		return nil, fmt.Errorf("%w: invalid account type %q", apperrors.ErrValidation, accountType)
	}
	var account *domain.Account
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		account, err = repos.AccountRepo.FindAccountByCode(ctx, strings.TrimSpace(code))
		if err != nil {
			return err
		}
		if account.AccountType == accountType {
			return nil
		}
		activity, err := repos.JournalRepo.SumLines(ctx, domain.LineFilter{AccountCodes: []string{account.Code}})
		if err != nil {
			return err
		}
		for _, a := range activity {
			if a.LineCount > 0 {
				return fmt.Errorf("%w: %s already has entries", apperrors.ErrAccountInUse, account.Code)
			}
		}
		account.AccountType = accountType
		account.Touch(actor, s.Now())
		return repos.AccountRepo.UpdateAccount(ctx, *account)
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to change account type", slog.String("code", code))
		}
		return nil, err
	}
	return account, nil
}
