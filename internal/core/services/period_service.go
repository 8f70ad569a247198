package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

const maxPeriodNameLength = 100

// periodService opens and closes accounting periods.
type periodService struct {
	BaseService
	uow portsrepo.UnitOfWork
}

// NewPeriodService creates a new accounting period service.
func NewPeriodService(uow portsrepo.UnitOfWork, opts ...ServiceOption) portssvc.PeriodSvcFacade {
	o := buildOptions(opts)
	return &periodService{BaseService: o.base(), uow: uow}
}

var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) OpenPeriod(ctx context.Context, name string, start, end time.Time, actor string) (*domain.AccountingPeriod, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("%w: period start and end dates are required", apperrors.ErrValidation)
	}
	start, end = domain.DateOnly(start), domain.DateOnly(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: period end date is before its start date", apperrors.ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = start.Format(domain.DateLayout) + ".." + end.Format(domain.DateLayout)
	}
	if len(name) > maxPeriodNameLength {
		return nil, fmt.Errorf("%w: period name must be at most %d characters", apperrors.ErrValidation, maxPeriodNameLength)
	}

	period := domain.AccountingPeriod{
		PeriodID:    uuid.NewString(),
		Name:        name,
		StartDate:   start,
		EndDate:     end,
		Status:      domain.PeriodOpen,
		AuditFields: domain.NewAuditFields(actor, s.Now()),
	}
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		periods, err := repos.PeriodRepo.ListPeriods(ctx)
		if err != nil {
			return err
		}
		for _, p := range periods {
			if p.Overlaps(start, end) {
				return fmt.Errorf("%w: %s overlaps period %s", apperrors.ErrStateConflict, name, p.Name)
			}
			if !p.IsOpen() && start.Before(p.EndDate) {
				return fmt.Errorf("%w: %s starts before closed period %s ends", apperrors.ErrStateConflict, name, p.Name)
			}
		}
		return repos.PeriodRepo.SavePeriod(ctx, period)
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to open period", slog.String("name", name))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Accounting period opened",
		slog.String("period_id", period.PeriodID),
		slog.String("start", start.Format(domain.DateLayout)),
		slog.String("end", end.Format(domain.DateLayout)))
	return &period, nil
}

// Close locks a period once it rolls forward: the previous closing snapshot
// plus this period's activity must equal the replayed balance at its end,
// and the activity must net to zero in base currency.
func (s *periodService) Close(ctx context.Context, periodID string, actor string) (*domain.AccountingPeriod, error) {
	var period *domain.AccountingPeriod
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		period, err = repos.PeriodRepo.FindPeriodByID(ctx, periodID)
		if err != nil {
			return err
		}
		if !period.IsOpen() {
			return fmt.Errorf("%w: period %s is already closed", apperrors.ErrStateConflict, period.Name)
		}

		periods, err := repos.PeriodRepo.ListPeriods(ctx)
		if err != nil {
			return err
		}
		domain.SortPeriods(periods)
		var previous *domain.AccountingPeriod
		for i := range periods {
			p := periods[i]
			if !p.EndDate.Before(period.StartDate) {
				continue
			}
			if p.IsOpen() {
				return fmt.Errorf("%w: %s", apperrors.ErrOpenPriorPeriod, p.Name)
			}
			previous = &periods[i]
		}

		closing, err := rollForward(ctx, repos.JournalRepo, previous, *period)
		if err != nil {
			return err
		}

		now := s.Now()
		period.Status = domain.PeriodClosed
		period.ClosedAt = &now
		period.ClosingBalances = closing
		period.Touch(actor, now)
		return repos.PeriodRepo.UpdatePeriod(ctx, *period)
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to close period", slog.String("period_id", periodID))
		}
		return nil, err
	}

	s.LogInfo(ctx, "Accounting period closed",
		slog.String("period_id", period.PeriodID),
		slog.Int("closing_balances", len(period.ClosingBalances)))
	s.Publish(ctx, domain.Event{Type: domain.EventPeriodClosed, Key: period.PeriodID, OccurredAt: s.Now(), Payload: period})
	return period, nil
}

// rollForward verifies the period and returns its closing balances.
func rollForward(ctx context.Context, repo portsrepo.JournalReader, previous *domain.AccountingPeriod, period domain.AccountingPeriod) ([]domain.ClosingBalance, error) {
	opening := make(map[string]domain.ClosingBalance)
	if previous != nil {
		prevEnd := previous.EndDate
		replayed, err := repo.SumLines(ctx, domain.LineFilter{ToDate: &prevEnd})
		if err != nil {
			return nil, err
		}
		for _, a := range replayed {
			cb := previous.ClosingBalanceFor(a.AccountCode)
			if cb.Balance != a.Net() || cb.BaseBalance != a.NetBase() {
				return nil, fmt.Errorf("%w: %s closing balance of %s no longer matches the journal", apperrors.ErrUnbalancedPeriod, previous.Name, a.AccountCode)
			}
		}
		for _, cb := range previous.ClosingBalances {
			opening[cb.AccountCode] = cb
		}
	}

	start, end := period.StartDate, period.EndDate
	activity, err := repo.SumLines(ctx, domain.LineFilter{FromDate: &start, ToDate: &end})
	if err != nil {
		return nil, err
	}
	replayed, err := repo.SumLines(ctx, domain.LineFilter{ToDate: &end})
	if err != nil {
		return nil, err
	}

	moved := make(map[string]domain.AccountActivity, len(activity))
	var baseNet int64
	for _, a := range activity {
		moved[a.AccountCode] = a
		baseNet += a.NetBase()
	}
	if baseNet != 0 {
		return nil, fmt.Errorf("%w: activity nets to %d in base currency", apperrors.ErrUnbalancedPeriod, baseNet)
	}

	closing := make([]domain.ClosingBalance, 0, len(replayed))
	seen := make(map[string]bool, len(replayed))
	for _, r := range replayed {
		seen[r.AccountCode] = true
		o, m := opening[r.AccountCode], moved[r.AccountCode]
		if o.Balance+m.Net() != r.Net() || o.BaseBalance+m.NetBase() != r.NetBase() {
			return nil, fmt.Errorf("%w: %s does not roll forward from its opening balance", apperrors.ErrUnbalancedPeriod, r.AccountCode)
		}
		closing = append(closing, domain.ClosingBalance{
			AccountCode:  r.AccountCode,
			CurrencyCode: r.CurrencyCode,
			Balance:      r.Net(),
			BaseBalance:  r.NetBase(),
		})
	}
	for code, o := range opening {
		if !seen[code] && (o.Balance != 0 || o.BaseBalance != 0) {
			return nil, fmt.Errorf("%w: %s has an opening balance but no lines", apperrors.ErrUnbalancedPeriod, code)
		}
	}
	sort.Slice(closing, func(i, j int) bool { return closing[i].AccountCode < closing[j].AccountCode })
	return closing, nil
}

func (s *periodService) GetPeriod(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	var period *domain.AccountingPeriod
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		period, err = repos.PeriodRepo.FindPeriodByID(ctx, periodID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

func (s *periodService) ListPeriods(ctx context.Context) ([]domain.AccountingPeriod, error) {
	var periods []domain.AccountingPeriod
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		periods, err = repos.PeriodRepo.ListPeriods(ctx)
		return err
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list periods")
		return nil, err
	}
	return periods, nil
}
