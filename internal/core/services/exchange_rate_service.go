package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/ledger_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/utils/accounting"
)

const maxRateSourceLength = 255

// rateConverter performs conversions against whatever repository view it is
// handed, so the ledger can convert inside its own unit of work.
type rateConverter struct {
	rounding domain.RoundingMode
}

// rateFor returns the latest direct rate effective on or before onDate.
func (c rateConverter) rateFor(ctx context.Context, repo portsrepo.ExchangeRateReader, from, to string, onDate time.Time) (*domain.ExchangeRate, error) {
	rate, err := repo.FindLatestRate(ctx, from, to, domain.DateOnly(onDate))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s on or before %s", apperrors.ErrNoRateAvailable, from, to, onDate.Format(domain.DateLayout))
		}
		return nil, fmt.Errorf("failed to look up rate %s/%s: %w", from, to, err)
	}
	if !rate.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: %s/%s effective %s is %s", apperrors.ErrInvalidRate, from, to, rate.EffectiveDate.Format(domain.DateLayout), rate.Rate.String())
	}
	return rate, nil
}

// convert converts amount minor units. Same-currency conversions need no rate.
func (c rateConverter) convert(ctx context.Context, repo portsrepo.ExchangeRateReader, amount int64, from, to string, onDate time.Time) (int64, *domain.ExchangeRate, error) {
	if from == to {
		return amount, nil, nil
	}
	fromCur, toCur, err := lookupPair(from, to)
	if err != nil {
		return 0, nil, err
	}
	rate, err := c.rateFor(ctx, repo, from, to, onDate)
	if err != nil {
		return 0, nil, err
	}
	return accounting.ConvertMinorUnits(amount, fromCur, toCur, rate.Rate, c.rounding), rate, nil
}

// convertLines converts each amount and the total with one rate. The residual
// is what the parts lack to reach the converted total.
func (c rateConverter) convertLines(ctx context.Context, repo portsrepo.ExchangeRateReader, amounts []int64, from, to string, onDate time.Time) (*domain.LinesConversion, error) {
	out := &domain.LinesConversion{Parts: make([]int64, len(amounts)), Currency: to}
	var total, partsSum int64
	for _, a := range amounts {
		total += a
	}
	if from == to {
		copy(out.Parts, amounts)
		out.Total = total
		return out, nil
	}
	fromCur, toCur, err := lookupPair(from, to)
	if err != nil {
		return nil, err
	}
	rate, err := c.rateFor(ctx, repo, from, to, onDate)
	if err != nil {
		return nil, err
	}
	for i, a := range amounts {
		out.Parts[i] = accounting.ConvertMinorUnits(a, fromCur, toCur, rate.Rate, c.rounding)
		partsSum += out.Parts[i]
	}
	out.Total = accounting.ConvertMinorUnits(total, fromCur, toCur, rate.Rate, c.rounding)
	out.Residual = out.Total - partsSum
	out.Rate = rate
	return out, nil
}

func lookupPair(from, to string) (domain.Currency, domain.Currency, error) {
	fromCur, err := domain.LookupCurrency(from)
	if err != nil {
		return domain.Currency{}, domain.Currency{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	toCur, err := domain.LookupCurrency(to)
	if err != nil {
		return domain.Currency{}, domain.Currency{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return fromCur, toCur, nil
}

// rateTableService provides business logic for exchange rates.
type rateTableService struct {
	BaseService
	uow       portsrepo.UnitOfWork
	converter rateConverter
}

// NewRateTableService creates a new rate table service.
func NewRateTableService(uow portsrepo.UnitOfWork, policy domain.LedgerPolicy, opts ...ServiceOption) portssvc.RateTableSvcFacade {
	o := buildOptions(opts)
	return &rateTableService{
		BaseService: o.base(),
		uow:         uow,
		converter:   rateConverter{rounding: policy.Rounding},
	}
}

var _ portssvc.RateTableSvcFacade = (*rateTableService)(nil)

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *rateTableService) Convert(ctx context.Context, amount domain.Money, toCurrency string, onDate time.Time) (*domain.Conversion, error) {
	from, to := normalizeCode(amount.Currency), normalizeCode(toCurrency)
	result := &domain.Conversion{From: domain.Money{Amount: amount.Amount, Currency: from}, OnDate: domain.DateOnly(onDate)}
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		converted, rate, err := s.converter.convert(ctx, repos.ExchangeRateRepo, amount.Amount, from, to, onDate)
		if err != nil {
			return err
		}
		result.To = domain.Money{Amount: converted, Currency: to}
		result.Rate = rate
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *rateTableService) ConvertLines(ctx context.Context, amounts []int64, fromCurrency, toCurrency string, onDate time.Time) (*domain.LinesConversion, error) {
	if len(amounts) == 0 {
		return nil, fmt.Errorf("%w: at least one amount is required", apperrors.ErrValidation)
	}
	var result *domain.LinesConversion
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		result, err = s.converter.convertLines(ctx, repos.ExchangeRateRepo, amounts, normalizeCode(fromCurrency), normalizeCode(toCurrency), onDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *rateTableService) GetRate(ctx context.Context, fromCurrency, toCurrency string, onDate time.Time) (*domain.ExchangeRate, error) {
	var rate *domain.ExchangeRate
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		rate, err = s.converter.rateFor(ctx, repos.ExchangeRateRepo, normalizeCode(fromCurrency), normalizeCode(toCurrency), onDate)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rate, nil
}

func (s *rateTableService) ListRates(ctx context.Context, fromCurrency, toCurrency string) ([]domain.ExchangeRate, error) {
	var rates []domain.ExchangeRate
	err := s.uow.Read(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		rates, err = repos.ExchangeRateRepo.ListRates(ctx, normalizeCode(fromCurrency), normalizeCode(toCurrency))
		return err
	})
	if err != nil {
		return nil, err
	}
	return rates, nil
}

func validateIngestion(in domain.RateIngestion) (domain.RateIngestion, error) {
	in.FromCurrency = normalizeCode(in.FromCurrency)
	in.ToCurrency = normalizeCode(in.ToCurrency)
	in.Source = strings.TrimSpace(in.Source)
	if _, _, err := lookupPair(in.FromCurrency, in.ToCurrency); err != nil {
		return in, err
	}
	if in.FromCurrency == in.ToCurrency {
		return in, fmt.Errorf("%w: from and to currency codes cannot be the same", apperrors.ErrValidation)
	}
	if !in.Rate.IsPositive() {
		return in, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if in.EffectiveDate.IsZero() {
		return in, fmt.Errorf("%w: effective date is required", apperrors.ErrValidation)
	}
	if in.Source == "" {
		in.Source = "manual"
	}
	if len(in.Source) > maxRateSourceLength {
		return in, fmt.Errorf("%w: source must be at most %d characters", apperrors.ErrValidation, maxRateSourceLength)
	}
	in.EffectiveDate = domain.DateOnly(in.EffectiveDate)
	return in, nil
}

// upsertRate applies the overwrite rule inside an open unit of work.
func (s *rateTableService) upsertRate(ctx context.Context, repo portsrepo.ExchangeRateRepositoryFacade, in domain.RateIngestion, actor string) (*domain.ExchangeRate, error) {
	now := s.Now()
	existing, err := repo.FindRateOnDate(ctx, in.FromCurrency, in.ToCurrency, in.EffectiveDate)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up existing rate: %w", err)
	}

	if existing != nil {
		if existing.Rate.Equal(in.Rate) && existing.Source == in.Source {
			return existing, nil
		}
		if existing.UsedInConversion {
			return nil, fmt.Errorf("%w: %s/%s effective %s; ingest it under a new effective date",
				apperrors.ErrRateInUse, in.FromCurrency, in.ToCurrency, in.EffectiveDate.Format(domain.DateLayout))
		}
		existing.Rate = in.Rate
		existing.Source = in.Source
		existing.Touch(actor, now)
		if err := repo.UpsertRate(ctx, *existing); err != nil {
			return nil, fmt.Errorf("failed to update rate: %w", err)
		}
		return existing, nil
	}

	rate := domain.ExchangeRate{
		RateID:        uuid.NewString(),
		FromCurrency:  in.FromCurrency,
		ToCurrency:    in.ToCurrency,
		EffectiveDate: in.EffectiveDate,
		Rate:          in.Rate,
		Source:        in.Source,
		AuditFields:   domain.NewAuditFields(actor, now),
	}
	if err := repo.UpsertRate(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to save rate: %w", err)
	}
	return &rate, nil
}

func (s *rateTableService) IngestRate(ctx context.Context, ingestion domain.RateIngestion, actor string) (*domain.ExchangeRate, error) {
	in, err := validateIngestion(ingestion)
	if err != nil {
		return nil, err
	}

	var rate *domain.ExchangeRate
	err = s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		var err error
		rate, err = s.upsertRate(ctx, repos.ExchangeRateRepo, in, actor)
		return err
	})
	if err != nil {
		if shouldLog(err) {
			s.LogError(ctx, err, "Failed to ingest exchange rate", slog.String("pair", in.FromCurrency+"/"+in.ToCurrency))
		}
		return nil, err
	}
	s.LogInfo(ctx, "Exchange rate ingested",
		slog.String("rate_id", rate.RateID),
		slog.String("pair", rate.FromCurrency+"/"+rate.ToCurrency),
		slog.String("effective_date", rate.EffectiveDate.Format(domain.DateLayout)),
		slog.String("rate", rate.Rate.String()))
	return rate, nil
}

// IngestCrossRate multiplies two direct legs in effect on effectiveDate and
// stores the product as a direct rate whose source names both legs.
func (s *rateTableService) IngestCrossRate(ctx context.Context, fromCurrency, viaCurrency, toCurrency string, effectiveDate time.Time, actor string) (*domain.ExchangeRate, error) {
	from, via, to := normalizeCode(fromCurrency), normalizeCode(viaCurrency), normalizeCode(toCurrency)
	if via == from || via == to {
		return nil, fmt.Errorf("%w: cross currency must differ from both ends of the pair", apperrors.ErrValidation)
	}
	date := domain.DateOnly(effectiveDate)

	var rate *domain.ExchangeRate
	err := s.uow.Do(ctx, func(ctx context.Context, repos portsrepo.RepositoryProvider) error {
		first, err := s.converter.rateFor(ctx, repos.ExchangeRateRepo, from, via, date)
		if err != nil {
			return err
		}
		second, err := s.converter.rateFor(ctx, repos.ExchangeRateRepo, via, to, date)
		if err != nil {
			return err
		}
		in, err := validateIngestion(domain.RateIngestion{
			FromCurrency:  from,
			ToCurrency:    to,
			EffectiveDate: date,
			Rate:          first.Rate.Mul(second.Rate),
			Source:        crossRateSource(first, second),
		})
		if err != nil {
			return err
		}
		rate, err = s.upsertRate(ctx, repos.ExchangeRateRepo, in, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.LogInfo(ctx, "Cross rate ingested", slog.String("pair", from+"/"+to), slog.String("via", via), slog.String("rate", rate.Rate.String()))
	return rate, nil
}

func crossRateSource(first, second *domain.ExchangeRate) string {
	leg := func(r *domain.ExchangeRate) string {
		return fmt.Sprintf("%s/%s@%s=%s", r.FromCurrency, r.ToCurrency, r.EffectiveDate.Format(domain.DateLayout), r.Rate.String())
	}
	return "cross:" + leg(first) + "*" + leg(second)
}
