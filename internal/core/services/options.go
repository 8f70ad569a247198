package services

import (
	"time"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

const (
	defaultPostingRetries = 3
	defaultReportCacheTTL = 10 * time.Minute
)

type serviceOptions struct {
	clock          domain.Clock
	publisher      portssvc.EventPublisher
	cache          portssvc.ReportCache
	cacheTTL       time.Duration
	postingRetries int
}

// ServiceOption is a functional option shared by the service constructors.
type ServiceOption func(*serviceOptions)

// WithClock overrides the wall clock.
func WithClock(clock domain.Clock) ServiceOption {
	return func(o *serviceOptions) {
		o.clock = clock
	}
}

// WithEventPublisher publishes domain events after each commit.
func WithEventPublisher(publisher portssvc.EventPublisher) ServiceOption {
	return func(o *serviceOptions) {
		o.publisher = publisher
	}
}

// WithReportCache caches reports keyed by the last committed sequence.
func WithReportCache(cache portssvc.ReportCache, ttl time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.cache = cache
		if ttl > 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithPostingRetries sets how many times a contended post is retried.
func WithPostingRetries(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n >= 0 {
			o.postingRetries = n
		}
	}
}

func buildOptions(opts []ServiceOption) serviceOptions {
	o := serviceOptions{
		clock:          domain.SystemClock{},
		cacheTTL:       defaultReportCacheTTL,
		postingRetries: defaultPostingRetries,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o serviceOptions) base() BaseService {
	return BaseService{clock: o.clock, publisher: o.publisher}
}
