package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/ledger_engine/internal/apperrors"
	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
	"github.com/SscSPs/ledger_engine/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	clock     domain.Clock
	publisher portssvc.EventPublisher
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	logger := middleware.GetLoggerFromCtx(ctx)
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	if errors.Is(err, apperrors.ErrInvariantViolation) {
		args = append(args, slog.Bool("invariant_violation", true))
	}
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// Now returns the injected clock's time.
func (s *BaseService) Now() time.Time {
	if s.clock == nil {
		return domain.SystemClock{}.Now()
	}
	return s.clock.Now()
}

// Today is Now truncated to a calendar date.
func (s *BaseService) Today() time.Time {
	return domain.DateOnly(s.Now())
}

// Publish sends events after commit. Delivery failures are logged, never
// returned: the books are already committed.
func (s *BaseService) Publish(ctx context.Context, events ...domain.Event) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.LogError(ctx, err, "Failed to publish events", slog.Int("event_count", len(events)), slog.String("event_type", events[0].Type))
	}
}

// shouldLog reports whether err is unexpected enough to log at ERROR level.
func shouldLog(err error) bool {
	for _, expected := range []error{
		apperrors.ErrValidation, apperrors.ErrNotFound, apperrors.ErrStateConflict,
		apperrors.ErrPeriodClosed, apperrors.ErrNoRateAvailable, apperrors.ErrDuplicate,
		apperrors.ErrContention,
	} {
		if errors.Is(err, expected) {
			return false
		}
	}
	return true
}
