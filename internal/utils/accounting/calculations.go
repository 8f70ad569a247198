package accounting

import (
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Round rounds d to an integer using the given mode.
func Round(d decimal.Decimal, mode domain.RoundingMode) int64 {
	if mode == domain.RoundHalfUp {
		return d.Round(0).IntPart()
	}
	return d.RoundBank(0).IntPart()
}

// ConvertMinorUnits converts an amount in minor units of one currency into
// minor units of another. The rate is applied to the major-unit value and
// the result is rounded once, at the target minor unit.
func ConvertMinorUnits(amount int64, from, to domain.Currency, rate decimal.Decimal, mode domain.RoundingMode) int64 {
	major := decimal.New(amount, int32(-from.Fraction))
	return Round(major.Mul(rate).Shift(int32(to.Fraction)), mode)
}

// LineTotal multiplies a decimal quantity by a minor-unit price.
func LineTotal(quantity decimal.Decimal, unitPrice int64, mode domain.RoundingMode) int64 {
	return Round(quantity.Mul(decimal.NewFromInt(unitPrice)), mode)
}

// CalculateSignedAmount applies the account type's normal side to a line,
// returning the change to the account's presented balance.
func CalculateSignedAmount(line domain.Line, accountType domain.AccountType) (int64, error) {
	if !accountType.Valid() {
		return 0, fmt.Errorf("unknown account type '%s' encountered for account %s", accountType, line.AccountCode)
	}
	return accountType.Present(line.SignedAmount()), nil
}

// BaseImbalance returns sum(debit base) - sum(credit base).
func BaseImbalance(lines []domain.Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.SignedBaseAmount()
	}
	return sum
}

// ValidateEntryBalance checks that debits equal credits in base currency
// and, when every line shares one currency, in that currency too.
func ValidateEntryBalance(lines []domain.Line) error {
	if len(lines) < 2 {
		return fmt.Errorf("entry must have at least two lines")
	}
	if imbalance := BaseImbalance(lines); imbalance != 0 {
		return fmt.Errorf("base amounts do not balance: debits minus credits is %d", imbalance)
	}
	currency := lines[0].CurrencyCode
	var native int64
	for _, l := range lines {
		if l.CurrencyCode != currency {
			return nil
		}
		native += l.SignedAmount()
	}
	if native != 0 {
		return fmt.Errorf("%s amounts do not balance: debits minus credits is %d", currency, native)
	}
	return nil
}

// Activity aggregates entry lines per account.
func Activity(entries []domain.JournalEntry, filter domain.LineFilter) map[string]*domain.AccountActivity {
	wanted := make(map[string]bool, len(filter.AccountCodes))
	for _, c := range filter.AccountCodes {
		wanted[c] = true
	}
	out := make(map[string]*domain.AccountActivity)
	for _, e := range entries {
		if filter.MaxSequence > 0 && e.Sequence > filter.MaxSequence {
			continue
		}
		if filter.FromDate != nil && e.PostingDate.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && e.PostingDate.After(*filter.ToDate) {
			continue
		}
		for _, l := range e.Lines {
			if len(wanted) > 0 && !wanted[l.AccountCode] {
				continue
			}
			a, ok := out[l.AccountCode]
			if !ok {
				a = &domain.AccountActivity{AccountCode: l.AccountCode, CurrencyCode: l.CurrencyCode}
				out[l.AccountCode] = a
			}
			a.Add(l)
		}
	}
	return out
}
