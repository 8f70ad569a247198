package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrStateConflict indicates an invalid lifecycle transition.
var ErrStateConflict = errors.New("state conflict")

// ErrPeriodClosed indicates a posting attempt into a closed accounting period.
var ErrPeriodClosed = errors.New("accounting period is closed")

// ErrNoRateAvailable indicates no exchange rate exists on or before the requested date.
var ErrNoRateAvailable = errors.New("no exchange rate available")

// ErrInvalidRate indicates a stored exchange rate is not positive.
var ErrInvalidRate = errors.New("invalid exchange rate")

// ErrContention indicates a concurrent write conflict. Safe to retry with the same idempotency key.
var ErrContention = errors.New("concurrent write conflict")

// ErrInvariantViolation indicates the books failed a correctness check. Never retried.
var ErrInvariantViolation = errors.New("ledger invariant violation")

// ErrInternal is used for unexpected infrastructure failures.
var ErrInternal = errors.New("internal error")

// Specific errors. Each wraps one of the categories above so callers can match either.
var (
	ErrDuplicateCode         = fmt.Errorf("%w: account code already exists", ErrDuplicate)
	ErrAccountInUse          = fmt.Errorf("%w: account is in use", ErrStateConflict)
	ErrInvalidState          = fmt.Errorf("%w: invalid invoice state", ErrStateConflict)
	ErrOverpaymentNotAllowed = fmt.Errorf("%w: amount exceeds remaining balance", ErrValidation)
	ErrCannotVoidPaidInvoice = fmt.Errorf("%w: cannot void an invoice with settlements", ErrStateConflict)
	ErrOpenPriorPeriod       = fmt.Errorf("%w: an earlier period is still open", ErrStateConflict)
	ErrUnbalancedPeriod      = fmt.Errorf("%w: period does not roll forward", ErrStateConflict)
	ErrUnbalancedEntry       = fmt.Errorf("%w: debits do not equal credits", ErrValidation)
	ErrRateInUse             = fmt.Errorf("%w: rate already used in a committed conversion", ErrStateConflict)
	ErrIdempotencyMismatch   = fmt.Errorf("%w: idempotency key reused with a different request", ErrValidation)
	ErrAlreadyReversed       = fmt.Errorf("%w: entry already reversed", ErrStateConflict)
	ErrInvoiceEntry          = fmt.Errorf("%w: entry is owned by an invoice", ErrStateConflict)
)

// AppError carries an HTTP-ish status code alongside a wrapped cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

// NewAppError creates an AppError.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}
