package domain

import (
	"fmt"
	"strings"
)

// RoundingMode selects how conversions round to the target minor unit.
type RoundingMode string

const (
	// RoundHalfEven is banker's rounding.
	RoundHalfEven RoundingMode = "half_even"
	// RoundHalfUp rounds halves away from zero.
	RoundHalfUp RoundingMode = "half_up"
)

// RevenueRecognition selects when invoice revenue hits the ledger.
type RevenueRecognition string

const (
	RecognizeOnIssue RevenueRecognition = "issue_date"
)

// LedgerPolicy collects the configurable accounting choices. It is passed to
// the services explicitly instead of living in package globals.
type LedgerPolicy struct {
	BaseCurrency       string
	ReceivableAccount  string
	RevenueAccount     string
	CashAccount        string
	RoundingAccount    string
	FXGainLossAccount  string
	Rounding           RoundingMode
	RevenueRecognition RevenueRecognition
}

// DefaultLedgerPolicy returns the policy used when nothing is configured.
func DefaultLedgerPolicy() LedgerPolicy {
	return LedgerPolicy{
		BaseCurrency:       "USD",
		ReceivableAccount:  "1100",
		RevenueAccount:     "4000",
		CashAccount:        "1000",
		RoundingAccount:    "7990",
		FXGainLossAccount:  "7900",
		Rounding:           RoundHalfEven,
		RevenueRecognition: RecognizeOnIssue,
	}
}

// Validate checks the policy is internally consistent.
func (p LedgerPolicy) Validate() error {
	if !IsKnownCurrency(p.BaseCurrency) {
		return fmt.Errorf("policy: unknown base currency %q", p.BaseCurrency)
	}
	switch p.Rounding {
	case RoundHalfEven, RoundHalfUp:
	default:
		return fmt.Errorf("policy: unsupported rounding mode %q", p.Rounding)
	}
	if p.RevenueRecognition != RecognizeOnIssue {
		return fmt.Errorf("policy: unsupported revenue recognition %q", p.RevenueRecognition)
	}
	for name, code := range map[string]string{
		"receivable": p.ReceivableAccount,
		"revenue":    p.RevenueAccount,
		"cash":       p.CashAccount,
		"rounding":   p.RoundingAccount,
		"fx":         p.FXGainLossAccount,
	} {
		if strings.TrimSpace(code) == "" {
			return fmt.Errorf("policy: %s account code is required", name)
		}
	}
	return nil
}
