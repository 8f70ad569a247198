package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/dto"
	"github.com/SscSPs/ledger_engine/internal/middleware"
)

// retryAfterSeconds is advertised on contention; clients retry with the same idempotency key.
const retryAfterSeconds = "1"

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: specific errors come before the category they wrap.
var errorMappings = []errorMapping{
	{apperrors.ErrInvariantViolation, http.StatusInternalServerError, "invariant_violation"},
	{apperrors.ErrContention, http.StatusConflict, "contention"},
	{apperrors.ErrIdempotencyMismatch, http.StatusUnprocessableEntity, "idempotency_mismatch"},
	{apperrors.ErrOverpaymentNotAllowed, http.StatusUnprocessableEntity, "overpayment_not_allowed"},
	{apperrors.ErrUnbalancedEntry, http.StatusUnprocessableEntity, "unbalanced_entry"},
	{apperrors.ErrValidation, http.StatusBadRequest, "validation"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrDuplicateCode, http.StatusConflict, "duplicate_code"},
	{apperrors.ErrDuplicate, http.StatusConflict, "duplicate"},
	{apperrors.ErrPeriodClosed, http.StatusConflict, "period_closed"},
	{apperrors.ErrAccountInUse, http.StatusConflict, "account_in_use"},
	{apperrors.ErrRateInUse, http.StatusConflict, "rate_in_use"},
	{apperrors.ErrCannotVoidPaidInvoice, http.StatusConflict, "cannot_void_paid_invoice"},
	{apperrors.ErrInvalidState, http.StatusConflict, "invalid_state"},
	{apperrors.ErrOpenPriorPeriod, http.StatusConflict, "open_prior_period"},
	{apperrors.ErrUnbalancedPeriod, http.StatusConflict, "unbalanced_period"},
	{apperrors.ErrAlreadyReversed, http.StatusConflict, "already_reversed"},
	{apperrors.ErrInvoiceEntry, http.StatusConflict, "invoice_entry"},
	{apperrors.ErrStateConflict, http.StatusConflict, "state_conflict"},
	{apperrors.ErrNoRateAvailable, http.StatusUnprocessableEntity, "no_rate_available"},
	{apperrors.ErrInvalidRate, http.StatusUnprocessableEntity, "invalid_rate"},
}

// respondWithError maps the error taxonomy to HTTP status codes in one place.
func respondWithError(c *gin.Context, err error, msg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status >= http.StatusInternalServerError {
			logger.Error(msg, slog.String("error", err.Error()), slog.Bool("invariant_violation", true))
			c.JSON(m.status, dto.ErrorResponse{Error: "The books failed a consistency check", Code: m.code})
			return
		}
		if m.target == apperrors.ErrContention {
			c.Header("Retry-After", retryAfterSeconds)
		}
		logger.Warn(msg, slog.String("error", err.Error()), slog.String("code", m.code))
		c.JSON(m.status, dto.ErrorResponse{Error: err.Error(), Code: m.code})
		return
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code >= 400 && appErr.Code < 500 {
		logger.Warn(msg, slog.String("error", err.Error()))
		c.JSON(appErr.Code, dto.ErrorResponse{Error: appErr.Message})
		return
	}

	logger.Error(msg, slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: msg})
}

// respondBindError reports a malformed body or query string.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request: " + err.Error(), Code: "validation"})
}

// actor returns the authenticated subject, or aborts with 401.
func actor(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
		return "", false
	}
	return userID, true
}
