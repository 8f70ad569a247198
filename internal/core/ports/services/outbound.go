package services

import (
	"context"
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
)

// EventPublisher delivers domain events after their unit of work commits.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event) error
	Close() error
}

// ReportCache stores computed reports. Keys embed the last committed
// sequence number, so an entry never outlives the journal state it describes.
type ReportCache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
