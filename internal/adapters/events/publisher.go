// Package events delivers domain events to outbound transports after the
// unit of work that produced them has committed.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/SscSPs/ledger_engine/internal/core/domain"
	portssvc "github.com/SscSPs/ledger_engine/internal/core/ports/services"
)

var (
	_ portssvc.EventPublisher = NoopPublisher{}
	_ portssvc.EventPublisher = MultiPublisher{}
)

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...domain.Event) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }

// MultiPublisher fans events out to several transports. Every transport is
// attempted; their failures are joined.
type MultiPublisher []portssvc.EventPublisher

// NewMultiPublisher skips nil transports and collapses to a single publisher
// or a NoopPublisher where it can.
func NewMultiPublisher(publishers ...portssvc.EventPublisher) portssvc.EventPublisher {
	var out MultiPublisher
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	switch len(out) {
	case 0:
		return NoopPublisher{}
	case 1:
		return out[0]
	}
	return out
}

func (m MultiPublisher) Publish(ctx context.Context, events ...domain.Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func encode(e domain.Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s event: %w", e.Type, err)
	}
	return data, nil
}
