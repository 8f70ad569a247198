package domain

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
)

// Currency is an ISO-4217 currency with the number of digits in its minor unit.
type Currency struct {
	Code     string `json:"code"`
	Fraction int    `json:"fraction"`
}

// LookupCurrency resolves an ISO-4217 code against the go-money currency table.
func LookupCurrency(code string) (Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	c := money.GetCurrency(code)
	if c == nil {
		return Currency{}, fmt.Errorf("unknown currency %q", code)
	}
	return Currency{Code: c.Code, Fraction: c.Fraction}, nil
}

// IsKnownCurrency reports whether code is a recognised ISO-4217 code.
func IsKnownCurrency(code string) bool {
	_, err := LookupCurrency(code)
	return err == nil
}

// Money is an amount in minor units of a currency.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}
