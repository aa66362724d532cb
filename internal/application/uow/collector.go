package uow

import (
	"context"
	"fmt"
	"sync"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
)

// EventCollector accumulates the events raised within one transaction
type EventCollector struct {
	mu      sync.Mutex
	pending []Envelope
}

// NewEventCollector creates an empty collector
func NewEventCollector() *EventCollector {
	return &EventCollector{}
}

// Collect enqueues the pending events of aggregate and clears them from it.
// The actor is the principal stored in ctx, or the system principal.
func (c *EventCollector) Collect(ctx context.Context, aggregate shared.AggregateRoot) {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	actor, ok := access.PrincipalFrom(ctx)
	if !ok {
		actor = access.System()
	}

	c.mu.Lock()
	for _, e := range events {
		c.pending = append(c.pending, Envelope{Event: e, Actor: actor})
	}
	c.mu.Unlock()
	aggregate.ClearDomainEvents()
}

// Drain returns and removes every pending envelope
func (c *EventCollector) Drain() []Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.pending
	c.pending = nil
	return out
}

// Len returns the number of pending envelopes
func (c *EventCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Settle drains the collector through dispatcher until no event is left.
// It returns every settled event in raise order, for publication after commit.
func Settle(ctx context.Context, repos Repositories, collector *EventCollector, dispatcher Dispatcher, maxRounds int) ([]shared.DomainEvent, error) {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	var settled []shared.DomainEvent
	for round := 0; ; round++ {
		batch := collector.Drain()
		if len(batch) == 0 {
			return settled, nil
		}
		if round >= maxRounds {
			return nil, fmt.Errorf("cascade did not settle after %d rounds (%d events pending)", maxRounds, len(batch))
		}
		for _, env := range batch {
			settled = append(settled, env.Event)
			if dispatcher == nil {
				continue
			}
			if err := dispatcher.Dispatch(ctx, repos, env); err != nil {
				return nil, err
			}
		}
	}
}
