package services_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_engine/internal/adapters/memory"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/core/services"
)

// --- Mock EventPublisher ---
type MockEventPublisher struct {
	mock.Mock
}

var _ portssvc.EventPublisher = (*MockEventPublisher)(nil)

func (m *MockEventPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// published returns every event of the given type, in publish order.
func (m *MockEventPublisher) published(eventType string) []domain.Event {
	var out []domain.Event
	for _, call := range m.Calls {
		if call.Method != "Publish" {
			continue
		}
		for _, e := range call.Arguments.Get(1).([]domain.Event) {
			if e.Type == eventType {
				out = append(out, e)
			}
		}
	}
	return out
}

// --- Mock ReportCache ---
type MockReportCache struct {
	mock.Mock
}

var _ portssvc.ReportCache = (*MockReportCache)(nil)

func (m *MockReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	args := m.Called(ctx, key, dst)
	return args.Bool(0), args.Error(1)
}

func (m *MockReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func debit(code, currency string, amount int64) domain.PostingLine {
	return domain.PostingLine{AccountCode: code, CurrencyCode: currency, Amount: amount, Direction: domain.Debit}
}

func credit(code, currency string, amount int64) domain.PostingLine {
	return domain.PostingLine{AccountCode: code, CurrencyCode: currency, Amount: amount, Direction: domain.Credit}
}

// ledgerSuite wires every service over a fresh in-memory store with a small
// chart, the first quarter of 2024 open, and EUR/USD rates from January 1st.
type ledgerSuite struct {
	suite.Suite
	ctx       context.Context
	uow       *memory.UnitOfWork
	policy    domain.LedgerPolicy
	clock     domain.FixedClock
	publisher *MockEventPublisher
	svc       *portssvc.ServiceContainer
	periods   map[string]string
}

func (s *ledgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.uow = memory.NewUnitOfWork()
	s.policy = domain.LedgerPolicy{
		BaseCurrency:       "USD",
		ReceivableAccount:  "A101",
		RevenueAccount:     "A401",
		CashAccount:        "1000",
		RoundingAccount:    "7990",
		FXGainLossAccount:  "7900",
		Rounding:           domain.RoundHalfEven,
		RevenueRecognition: domain.RecognizeOnIssue,
	}
	s.clock = domain.FixedClock{At: time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)}
	s.publisher = new(MockEventPublisher)
	s.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	svc, err := services.NewServiceContainer(s.uow, s.policy, s.options()...)
	s.Require().NoError(err)
	s.svc = svc

	s.seedChart()
	s.seedPeriods()
	s.seedRates()
}

func (s *ledgerSuite) options(extra ...services.ServiceOption) []services.ServiceOption {
	return append([]services.ServiceOption{
		services.WithClock(s.clock),
		services.WithEventPublisher(s.publisher),
	}, extra...)
}

func (s *ledgerSuite) seedChart() {
	for _, cmd := range []domain.CreateAccountCommand{
		{Code: "1000", Name: "Cash", AccountType: domain.Asset, CurrencyCode: "USD"},
		{Code: "1010", Name: "Cash EUR", AccountType: domain.Asset, CurrencyCode: "EUR"},
		{Code: "1020", Name: "Cash GBP", AccountType: domain.Asset, CurrencyCode: "GBP"},
		{Code: "A101", Name: "Accounts Receivable", AccountType: domain.Asset, CurrencyCode: "USD"},
		{Code: "2000", Name: "Accounts Payable", AccountType: domain.Liability, CurrencyCode: "USD"},
		{Code: "3000", Name: "Owner Equity", AccountType: domain.Equity, CurrencyCode: "USD"},
		{Code: "A401", Name: "Revenue", AccountType: domain.Income, CurrencyCode: "USD"},
		{Code: "5000", Name: "Rent", AccountType: domain.Expense, CurrencyCode: "USD"},
		{Code: "7900", Name: "Realized FX", AccountType: domain.Expense, CurrencyCode: "USD"},
		{Code: "7990", Name: "Rounding", AccountType: domain.Expense, CurrencyCode: "USD"},
	} {
		cmd.Actor = "tester"
		_, err := s.svc.Chart.CreateAccount(s.ctx, cmd)
		s.Require().NoError(err)
	}
}

func (s *ledgerSuite) seedPeriods() {
	s.periods = make(map[string]string)
	for _, m := range []time.Month{time.January, time.February, time.March} {
		start := day(2024, m, 1)
		end := start.AddDate(0, 1, -1)
		p, err := s.svc.Period.OpenPeriod(s.ctx, start.Format("2006-01"), start, end, "tester")
		s.Require().NoError(err)
		s.periods[p.Name] = p.PeriodID
	}
}

func (s *ledgerSuite) seedRates() {
	s.ingestRate("USD", "EUR", day(2024, 1, 1), "0.90")
	s.ingestRate("EUR", "USD", day(2024, 1, 1), "1.10")
}

func (s *ledgerSuite) ingestRate(from, to string, on time.Time, rate string) *domain.ExchangeRate {
	r, err := s.svc.RateTable.IngestRate(s.ctx, domain.RateIngestion{
		FromCurrency:  from,
		ToCurrency:    to,
		EffectiveDate: on,
		Rate:          decimal.RequireFromString(rate),
		Source:        "test",
	}, "tester")
	s.Require().NoError(err)
	return r
}

func (s *ledgerSuite) post(key string, on time.Time, lines ...domain.PostingLine) *domain.JournalEntry {
	entry, err := s.svc.Ledger.Post(s.ctx, domain.PostingRequest{
		IdempotencyKey: key,
		PostingDate:    on,
		Description:    "entry " + key,
		Lines:          lines,
		Actor:          "tester",
	})
	s.Require().NoError(err)
	return entry
}

func (s *ledgerSuite) balance(code string, on time.Time) int64 {
	b, err := s.svc.Ledger.BalanceAsOf(s.ctx, code, on)
	s.Require().NoError(err)
	return b.Balance
}

func (s *ledgerSuite) closePeriod(name string) *domain.AccountingPeriod {
	p, err := s.svc.Period.Close(s.ctx, s.periods[name], "tester")
	s.Require().NoError(err)
	return p
}

func (s *ledgerSuite) entryCount() int {
	entries, _, err := s.svc.Ledger.ListEntries(s.ctx, domain.EntryFilter{Limit: 200}, nil)
	s.Require().NoError(err)
	return len(entries)
}

func (s *ledgerSuite) createInvoice(currency string, unitPrice int64, issue, due time.Time) *domain.InvoiceView {
	view, err := s.svc.Invoice.CreateInvoice(s.ctx, domain.CreateInvoiceCommand{
		ClientRef:    "client-42",
		CurrencyCode: currency,
		Items: []domain.InvoiceItemInput{
			{Description: "Consulting", Quantity: decimal.NewFromInt(1), UnitPrice: unitPrice},
		},
		IssueDate: issue,
		DueDate:   due,
		Actor:     "tester",
	})
	s.Require().NoError(err)
	return view
}
