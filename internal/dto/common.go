package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// RegisterValidations adds the "currency" tag, which accepts known ISO-4217
// codes in any letter case.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return domain.IsKnownCurrency(fl.Field().String())
	})
}

// ParseDate parses a YYYY-MM-DD field, naming the field in the error.
func ParseDate(field, value string) (time.Time, error) {
	d, err := domain.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", apperrors.ErrValidation, field)
	}
	return d, nil
}

// ParseOptionalDate returns fallback when value is empty.
func ParseOptionalDate(field, value string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return ParseDate(field, value)
}
