package accounting

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

var (
	usd = domain.Currency{Code: "USD", Fraction: 2}
	eur = domain.Currency{Code: "EUR", Fraction: 2}
	jpy = domain.Currency{Code: "JPY", Fraction: 0}
	bhd = domain.Currency{Code: "BHD", Fraction: 3}
)

func TestConvertMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		from   domain.Currency
		to     domain.Currency
		rate   string
		mode   domain.RoundingMode
		want   int64
	}{
		{"plain", 10000, usd, eur, "0.90", domain.RoundHalfEven, 9000},
		{"half to even rounds down", 1, usd, eur, "0.5", domain.RoundHalfEven, 0},
		{"half up rounds up", 1, usd, eur, "0.5", domain.RoundHalfUp, 1},
		{"half to even rounds up to even", 3, usd, eur, "0.5", domain.RoundHalfEven, 2},
		{"zero-decimal source", 100, jpy, usd, "0.0067", domain.RoundHalfEven, 67},
		{"zero-decimal target", 100, eur, jpy, "165", domain.RoundHalfEven, 165},
		{"three-decimal source", 1000, bhd, usd, "2.65", domain.RoundHalfEven, 265},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertMinorUnits(tt.amount, tt.from, tt.to, decimal.RequireFromString(tt.rate), tt.mode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, int64(8332), LineTotal(decimal.RequireFromString("2.5"), 3333, domain.RoundHalfEven))
	assert.Equal(t, int64(8333), LineTotal(decimal.RequireFromString("2.5"), 3333, domain.RoundHalfUp))
	assert.Equal(t, int64(300), LineTotal(decimal.NewFromInt(3), 100, domain.RoundHalfEven))
}

func TestCalculateSignedAmount(t *testing.T) {
	line := domain.Line{AccountCode: "4000", Direction: domain.Credit, Amount: 250}

	got, err := CalculateSignedAmount(line, domain.Income)
	assert.NoError(t, err)
	assert.Equal(t, int64(250), got)

	got, err = CalculateSignedAmount(line, domain.Asset)
	assert.NoError(t, err)
	assert.Equal(t, int64(-250), got)

	_, err = CalculateSignedAmount(line, "REVENUE")
	assert.Error(t, err)
}

func TestValidateEntryBalance(t *testing.T) {
	balanced := []domain.Line{
		{Direction: domain.Debit, Amount: 100, CurrencyCode: "USD", BaseAmount: 100},
		{Direction: domain.Credit, Amount: 100, CurrencyCode: "USD", BaseAmount: 100},
	}
	assert.NoError(t, ValidateEntryBalance(balanced))

	assert.Error(t, ValidateEntryBalance(balanced[:1]))

	nativeOff := []domain.Line{
		{Direction: domain.Debit, Amount: 101, CurrencyCode: "USD", BaseAmount: 100},
		{Direction: domain.Credit, Amount: 100, CurrencyCode: "USD", BaseAmount: 100},
	}
	assert.Error(t, ValidateEntryBalance(nativeOff))

	mixed := []domain.Line{
		{Direction: domain.Debit, Amount: 1001, CurrencyCode: "EUR", BaseAmount: 1101},
		{Direction: domain.Debit, Amount: 1, CurrencyCode: "USD", BaseAmount: 1, IsRounding: true},
		{Direction: domain.Credit, Amount: 1102, CurrencyCode: "USD", BaseAmount: 1102},
	}
	assert.NoError(t, ValidateEntryBalance(mixed))
	assert.Zero(t, BaseImbalance(mixed))

	mixed[1].BaseAmount = 2
	assert.Error(t, ValidateEntryBalance(mixed))
}

func TestActivity(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	entries := []domain.JournalEntry{
		{Sequence: 1, PostingDate: jan, Lines: []domain.Line{
			{AccountCode: "1000", Direction: domain.Debit, Amount: 100, BaseAmount: 100, CurrencyCode: "USD"},
			{AccountCode: "3000", Direction: domain.Credit, Amount: 100, BaseAmount: 100, CurrencyCode: "USD"},
		}},
		{Sequence: 2, PostingDate: feb, Lines: []domain.Line{
			{AccountCode: "5000", Direction: domain.Debit, Amount: 40, BaseAmount: 40, CurrencyCode: "USD"},
			{AccountCode: "1000", Direction: domain.Credit, Amount: 40, BaseAmount: 40, CurrencyCode: "USD"},
		}},
	}

	all := Activity(entries, domain.LineFilter{})
	assert.Equal(t, int64(60), all["1000"].Net())
	assert.Equal(t, 2, all["1000"].LineCount)

	upTo := jan
	janOnly := Activity(entries, domain.LineFilter{ToDate: &upTo})
	assert.Equal(t, int64(100), janOnly["1000"].Net())
	assert.NotContains(t, janOnly, "5000")

	bySeq := Activity(entries, domain.LineFilter{MaxSequence: 1, AccountCodes: []string{"3000"}})
	assert.Len(t, bySeq, 1)
	assert.Equal(t, int64(-100), bySeq["3000"].Net())

	from := feb
	febOnly := Activity(entries, domain.LineFilter{FromDate: &from})
	assert.Equal(t, int64(-40), febOnly["1000"].Net())
}
