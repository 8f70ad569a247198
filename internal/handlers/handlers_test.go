package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/handlers"
	"github.com/SscSPs/ledger_engine/internal/platform/config"
)

// --- Mock LedgerService ---
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) Post(ctx context.Context, req domain.PostingRequest) (*domain.JournalEntry, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) Reverse(ctx context.Context, entryID string, req domain.ReversalRequest) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) BalanceAsOf(ctx context.Context, accountCode string, asOf time.Time) (*domain.AccountBalance, error) {
	args := m.Called(ctx, accountCode, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountBalance), args.Error(1)
}

func (m *MockLedgerService) BalanceAsOfSequence(ctx context.Context, accountCode string, sequence int64) (*domain.AccountBalance, error) {
	args := m.Called(ctx, accountCode, sequence)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountBalance), args.Error(1)
}

func (m *MockLedgerService) GetEntry(ctx context.Context, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockLedgerService) ListEntries(ctx context.Context, filter domain.EntryFilter, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, filter, nextToken)
	var next *string
	if v := args.Get(1); v != nil {
		next = v.(*string)
	}
	return args.Get(0).([]domain.JournalEntry), next, args.Error(2)
}

var _ portssvc.LedgerSvcFacade = (*MockLedgerService)(nil)

// --- Mock ChartService ---
type MockChartService struct {
	mock.Mock
}

func (m *MockChartService) Lookup(ctx context.Context, code string) (*domain.Account, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockChartService) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockChartService) CreateAccount(ctx context.Context, cmd domain.CreateAccountCommand) (*domain.Account, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockChartService) Deactivate(ctx context.Context, code string, actor string) (*domain.Account, error) {
	args := m.Called(ctx, code, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockChartService) ChangeAccountType(ctx context.Context, code string, accountType domain.AccountType, actor string) (*domain.Account, error) {
	args := m.Called(ctx, code, accountType, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

var _ portssvc.ChartSvcFacade = (*MockChartService)(nil)

// --- Mock ReportingService ---
type MockReportingService struct {
	mock.Mock
}

func (m *MockReportingService) TrialBalance(ctx context.Context, asOf time.Time) (*domain.TrialBalance, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrialBalance), args.Error(1)
}

func (m *MockReportingService) ProfitAndLoss(ctx context.Context, start, end time.Time) (*domain.ProfitAndLoss, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProfitAndLoss), args.Error(1)
}

func (m *MockReportingService) BalanceSheet(ctx context.Context, asOf time.Time) (*domain.BalanceSheet, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceSheet), args.Error(1)
}

func (m *MockReportingService) AgedReceivables(ctx context.Context, asOf time.Time) (*domain.AgedReceivables, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AgedReceivables), args.Error(1)
}

func (m *MockReportingService) IncomeExpense(ctx context.Context, start, end time.Time, groupBy domain.ReportGrouping) (*domain.IncomeExpenseReport, error) {
	args := m.Called(ctx, start, end, groupBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IncomeExpenseReport), args.Error(1)
}

func (m *MockReportingService) CashFlow(ctx context.Context, end time.Time, months int) (*domain.CashFlowReport, error) {
	args := m.Called(ctx, end, months)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CashFlowReport), args.Error(1)
}

var _ portssvc.ReportingSvcFacade = (*MockReportingService)(nil)

// --- Mock InvoiceService ---
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) view(args mock.Arguments) (*domain.InvoiceView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceView), args.Error(1)
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, invoiceID string, asOf time.Time) (*domain.InvoiceView, error) {
	return m.view(m.Called(ctx, invoiceID, asOf))
}

func (m *MockInvoiceService) ListInvoices(ctx context.Context, filter domain.InvoiceFilter, asOf time.Time) ([]domain.InvoiceView, error) {
	args := m.Called(ctx, filter, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvoiceView), args.Error(1)
}

func (m *MockInvoiceService) Summary(ctx context.Context, from, to *time.Time, asOf time.Time) (*domain.InvoiceSummary, error) {
	args := m.Called(ctx, from, to, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceSummary), args.Error(1)
}

func (m *MockInvoiceService) CreateInvoice(ctx context.Context, cmd domain.CreateInvoiceCommand) (*domain.InvoiceView, error) {
	return m.view(m.Called(ctx, cmd))
}

func (m *MockInvoiceService) UpdateInvoice(ctx context.Context, invoiceID string, cmd domain.UpdateInvoiceCommand) (*domain.InvoiceView, error) {
	return m.view(m.Called(ctx, invoiceID, cmd))
}

func (m *MockInvoiceService) Issue(ctx context.Context, invoiceID string, cmd domain.TransitionCommand) (*domain.InvoiceView, error) {
	return m.view(m.Called(ctx, invoiceID, cmd))
}

func (m *MockInvoiceService) RecordPayment(ctx context.Context, invoiceID string, cmd domain.SettlementCommand) (*domain.InvoiceView, error) {
	return m.view(m.Called(ctx, invoiceID, cmd))
}

func (m *MockInvoiceService) ApplyCredit(ctx context.Context, invoiceID string, cmd domain.SettlementCommand) (*domain.InvoiceView, error) {
	return m.view(m.Called(ctx, invoiceID, cmd))
}

func (m *MockInvoiceService) Void(ctx context.Context, invoiceID string, cmd domain.TransitionCommand) (*domain.InvoiceView, error) {
	return m.view(m.Called(ctx, invoiceID, cmd))
}

var _ portssvc.InvoiceSvcFacade = (*MockInvoiceService)(nil)

// --- Test Suite ---
type HandlerTestSuite struct {
	suite.Suite
	router    *gin.Engine
	ledger    *MockLedgerService
	chart     *MockChartService
	reporting *MockReportingService
	invoices  *MockInvoiceService
	cfg       *config.Config
}

const testUser = "user-1"

// generateTestToken creates a signed JWT for testing.
func (s *HandlerTestSuite) generateTestToken(userID string) string {
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.JWTIssuer,
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.FailNow("Failed to sign test token", err.Error())
	}
	return signed
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.cfg = &config.Config{JWTSecret: "test-secret-key-that-is-long-enough", JWTIssuer: "ledger-test", IsProduction: true}

	s.ledger = new(MockLedgerService)
	s.chart = new(MockChartService)
	s.reporting = new(MockReportingService)
	s.invoices = new(MockInvoiceService)

	s.Require().NoError(handlers.RegisterRoutes(s.router, s.cfg, &portssvc.ServiceContainer{
		Chart:     s.chart,
		Ledger:    s.ledger,
		Reporting: s.reporting,
		Invoice:   s.invoices,
	}))
}

func (s *HandlerTestSuite) do(method, url string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Authorization", "Bearer "+s.generateTestToken(testUser))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body dto.ErrorResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func postBody() dto.PostEntryRequest {
	return dto.PostEntryRequest{
		IdempotencyKey: "rent-2024-03",
		PostingDate:    "2024-03-01",
		Description:    "March rent",
		Lines: []dto.PostingLineRequest{
			{AccountCode: "5000", Currency: "usd", Amount: 150000, Direction: "DEBIT"},
			{AccountCode: "1000", Currency: "USD", Amount: 150000, Direction: "CREDIT"},
		},
	}
}

// --- Test Cases ---

func (s *HandlerTestSuite) TestHealthIsPublic() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerTestSuite) TestRequiresBearerToken() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	claims := jwt.RegisteredClaims{Issuer: "someone-else", Subject: testUser, ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	req.Header.Set("Authorization", "Bearer "+forged)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.chart.AssertNotCalled(s.T(), "ListAccounts", mock.Anything)
}

func (s *HandlerTestSuite) TestPostEntry_Success() {
	entry := &domain.JournalEntry{EntryID: "e-1", Sequence: 7}
	s.ledger.On("Post", mock.Anything, mock.MatchedBy(func(req domain.PostingRequest) bool {
		return req.Actor == testUser &&
			req.IdempotencyKey == "rent-2024-03" &&
			req.PostingDate.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			len(req.Lines) == 2 && req.Lines[0].Direction == domain.Debit
	})).Return(entry, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries", postBody())

	s.Equal(http.StatusCreated, w.Code)
	var resp dto.PostEntryResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("e-1", resp.EntryID)
	s.Equal(int64(7), resp.Sequence)
	s.ledger.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestPostEntry_BindingErrors() {
	oneLine := postBody()
	oneLine.Lines = oneLine.Lines[:1]

	badCurrency := postBody()
	badCurrency.Lines[1].Currency = "XYZ"

	badDirection := postBody()
	badDirection.Lines[0].Direction = "SIDEWAYS"

	zeroAmount := postBody()
	zeroAmount.Lines[0].Amount = 0

	badDate := postBody()
	badDate.PostingDate = "03/01/2024"

	noDescription := postBody()
	noDescription.Description = ""

	longDescription := postBody()
	longDescription.Description = strings.Repeat("x", 501)

	for name, body := range map[string]dto.PostEntryRequest{
		"one line": oneLine, "unknown currency": badCurrency, "bad direction": badDirection,
		"zero amount": zeroAmount, "bad date": badDate, "no description": noDescription,
		"long description": longDescription,
	} {
		w := s.do(http.MethodPost, "/api/v1/ledger/entries", body)
		s.Equal(http.StatusBadRequest, w.Code, name)
		s.Equal("validation", s.errorCode(w), name)
	}
	s.ledger.AssertNotCalled(s.T(), "Post", mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestPostEntry_ErrorMapping() {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("post: %w", apperrors.ErrContention), http.StatusConflict, "contention"},
		{fmt.Errorf("post: %w", apperrors.ErrIdempotencyMismatch), http.StatusUnprocessableEntity, "idempotency_mismatch"},
		{fmt.Errorf("post: %w", apperrors.ErrUnbalancedEntry), http.StatusUnprocessableEntity, "unbalanced_entry"},
		{fmt.Errorf("post: %w", apperrors.ErrPeriodClosed), http.StatusConflict, "period_closed"},
		{fmt.Errorf("post: %w", apperrors.ErrNoRateAvailable), http.StatusUnprocessableEntity, "no_rate_available"},
		{fmt.Errorf("post: %w", apperrors.ErrNotFound), http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		s.ledger.On("Post", mock.Anything, mock.Anything).Return(nil, tt.err).Once()
		w := s.do(http.MethodPost, "/api/v1/ledger/entries", postBody())
		s.Equal(tt.status, w.Code, tt.code)
		s.Equal(tt.code, s.errorCode(w))
		if tt.code == "contention" {
			s.Equal("1", w.Header().Get("Retry-After"))
		}
	}
}

func (s *HandlerTestSuite) TestReverseEntry_DefaultsDate() {
	s.ledger.On("Reverse", mock.Anything, "e-1", mock.MatchedBy(func(req domain.ReversalRequest) bool {
		return req.ReversalDate == nil && req.Actor == testUser
	})).Return(&domain.JournalEntry{EntryID: "e-2", Sequence: 8, ReversesEntryID: "e-1"}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/ledger/entries/e-1/reverse", nil)
	s.Equal(http.StatusCreated, w.Code)

	s.ledger.On("Reverse", mock.Anything, "e-1", mock.Anything).Return(nil, fmt.Errorf("reverse: %w", apperrors.ErrAlreadyReversed)).Once()
	w = s.do(http.MethodPost, "/api/v1/ledger/entries/e-1/reverse", dto.ReverseEntryRequest{ReversalDate: "2024-04-01"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("already_reversed", s.errorCode(w))
	s.ledger.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestListEntries_PassesToken() {
	token := "c2VxfDQy"
	next := "c2VxfDUw"
	s.ledger.On("ListEntries", mock.Anything, mock.MatchedBy(func(f domain.EntryFilter) bool {
		return f.AccountCode == "1000" && f.Limit == 10 && f.FromDate != nil
	}), &token).Return([]domain.JournalEntry{{EntryID: "e-43"}}, &next, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/ledger/entries?accountCode=1000&limit=10&from=2024-01-01&nextToken="+token, nil)

	s.Equal(http.StatusOK, w.Code)
	var resp dto.ListEntriesResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Len(resp.Entries, 1)
	s.Require().NotNil(resp.NextToken)
	s.Equal(next, *resp.NextToken)
}

func (s *HandlerTestSuite) TestGetBalance() {
	s.ledger.On("BalanceAsOfSequence", mock.Anything, "1000", int64(12)).
		Return(&domain.AccountBalance{AccountCode: "1000", Balance: 500, AsOfSequence: 12}, nil).Once()
	w := s.do(http.MethodGet, "/api/v1/accounts/1000/balance?sequence=12", nil)
	s.Equal(http.StatusOK, w.Code)

	s.ledger.On("BalanceAsOf", mock.Anything, "1000", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)).
		Return(&domain.AccountBalance{AccountCode: "1000", Balance: 400}, nil).Once()
	w = s.do(http.MethodGet, "/api/v1/accounts/1000/balance?asOf=2024-01-31", nil)
	s.Equal(http.StatusOK, w.Code)
	var resp dto.BalanceResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(int64(400), resp.Balance)

	w = s.do(http.MethodGet, "/api/v1/accounts/1000/balance?asOf=yesterday", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.ledger.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestCreateAccount() {
	s.chart.On("CreateAccount", mock.Anything, domain.CreateAccountCommand{
		Code: "1200", Name: "Inventory", AccountType: domain.Asset, CurrencyCode: "USD", Actor: testUser,
	}).Return(&domain.Account{Code: "1200", AccountType: domain.Asset}, nil).Once()

	w := s.do(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{Code: "1200", Name: "Inventory", AccountType: "asset", CurrencyCode: "USD"})
	s.Equal(http.StatusCreated, w.Code)

	s.chart.On("CreateAccount", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("create: %w", apperrors.ErrDuplicateCode)).Once()
	w = s.do(http.MethodPost, "/api/v1/accounts", dto.CreateAccountRequest{Code: "1200", Name: "Inventory", AccountType: "ASSET", CurrencyCode: "USD"})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("duplicate_code", s.errorCode(w))
	s.chart.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestDeactivateAccountInUse() {
	s.chart.On("Deactivate", mock.Anything, "1000", testUser).Return(nil, fmt.Errorf("deactivate: %w", apperrors.ErrAccountInUse)).Once()
	w := s.do(http.MethodPost, "/api/v1/accounts/1000/deactivate", nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("account_in_use", s.errorCode(w))
}

func (s *HandlerTestSuite) TestTrialBalance_InvariantViolation() {
	s.reporting.On("TrialBalance", mock.Anything, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)).
		Return(nil, fmt.Errorf("trial balance: %w", apperrors.ErrInvariantViolation)).Once()

	w := s.do(http.MethodGet, "/api/v1/reports/trial-balance?asOf=2024-03-31", nil)
	s.Equal(http.StatusInternalServerError, w.Code)
	s.Equal("invariant_violation", s.errorCode(w))
}

func (s *HandlerTestSuite) TestProfitAndLoss_RequiresRange() {
	w := s.do(http.MethodGet, "/api/v1/reports/profit-and-loss?start=2024-01-01", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.reporting.AssertNotCalled(s.T(), "ProfitAndLoss", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestIncomeExpense_DefaultsToMonth() {
	start, end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	s.reporting.On("IncomeExpense", mock.Anything, start, end, domain.GroupByMonth).
		Return(&domain.IncomeExpenseReport{GroupBy: domain.GroupByMonth, NetIncome: 42}, nil).Once()
	s.reporting.On("IncomeExpense", mock.Anything, start, end, domain.GroupByWeek).
		Return(&domain.IncomeExpenseReport{GroupBy: domain.GroupByWeek}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/reports/income-expense?start=2024-01-01&end=2024-03-31", nil)
	s.Equal(http.StatusOK, w.Code)
	var report domain.IncomeExpenseReport
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &report))
	s.Equal(int64(42), report.NetIncome)

	w = s.do(http.MethodGet, "/api/v1/reports/income-expense?start=2024-01-01&end=2024-03-31&groupBy=week", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/reports/income-expense?start=2024-01-01&end=2024-03-31&groupBy=quarter", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.reporting.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestCashFlow() {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	s.reporting.On("CashFlow", mock.Anything, end, 12).Return(&domain.CashFlowReport{ClosingBalance: 91101}, nil).Once()
	s.reporting.On("CashFlow", mock.Anything, end, 3).Return(&domain.CashFlowReport{}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/reports/cash-flow?end=2024-03-31", nil)
	s.Equal(http.StatusOK, w.Code)
	var report domain.CashFlowReport
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &report))
	s.Equal(int64(91101), report.ClosingBalance)

	w = s.do(http.MethodGet, "/api/v1/reports/cash-flow?end=2024-03-31&months=3", nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/reports/cash-flow?end=2024-03-31&months=0", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.reporting.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestInvoiceSummary() {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	asOf := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	s.invoices.On("Summary", mock.Anything, &from, (*time.Time)(nil), asOf).
		Return(&domain.InvoiceSummary{AsOf: asOf, TotalInvoices: 4}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/invoices/summary?from=2024-03-01&asOf=2024-03-15", nil)
	s.Equal(http.StatusOK, w.Code)
	var summary domain.InvoiceSummary
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &summary))
	s.Equal(4, summary.TotalInvoices)

	w = s.do(http.MethodGet, "/api/v1/invoices/summary?to=March", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.invoices.AssertExpectations(s.T())
	s.invoices.AssertNotCalled(s.T(), "GetInvoice", mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerTestSuite) TestUpdateInvoice() {
	notes := "Thanks for your business"
	s.invoices.On("UpdateInvoice", mock.Anything, "inv-1", mock.MatchedBy(func(cmd domain.UpdateInvoiceCommand) bool {
		return cmd.Actor == testUser && cmd.Notes != nil && *cmd.Notes == notes &&
			cmd.DueDate != nil && cmd.DueDate.Equal(time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)) &&
			cmd.ClientRef == nil && cmd.Items == nil && cmd.ChangesDraftDetails()
	})).Return(&domain.InvoiceView{Invoice: domain.Invoice{InvoiceID: "inv-1", Notes: notes}}, nil).Once()

	due := "2024-04-30"
	w := s.do(http.MethodPatch, "/api/v1/invoices/inv-1", dto.UpdateInvoiceRequest{Notes: &notes, DueDate: &due})
	s.Equal(http.StatusOK, w.Code)

	s.invoices.On("UpdateInvoice", mock.Anything, "inv-2", mock.Anything).
		Return(nil, fmt.Errorf("update: %w", apperrors.ErrInvalidState)).Once()
	w = s.do(http.MethodPatch, "/api/v1/invoices/inv-2", dto.UpdateInvoiceRequest{DueDate: &due})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("invalid_state", s.errorCode(w))

	badDate := "30/04/2024"
	w = s.do(http.MethodPatch, "/api/v1/invoices/inv-1", dto.UpdateInvoiceRequest{DueDate: &badDate})
	s.Equal(http.StatusBadRequest, w.Code)

	long := strings.Repeat("n", 2001)
	w = s.do(http.MethodPatch, "/api/v1/invoices/inv-1", dto.UpdateInvoiceRequest{Terms: &long})
	s.Equal(http.StatusBadRequest, w.Code)
	s.invoices.AssertExpectations(s.T())
}

func (s *HandlerTestSuite) TestReverseInvoiceEntryConflicts() {
	s.ledger.On("Reverse", mock.Anything, "e-9", mock.Anything).
		Return(nil, fmt.Errorf("reverse: %w", apperrors.ErrInvoiceEntry)).Once()
	w := s.do(http.MethodPost, "/api/v1/ledger/entries/e-9/reverse", nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("invoice_entry", s.errorCode(w))
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}
