// Package testutil wires a complete lifecycle engine over a private in-memory
// SQLite database and records what it publishes.
package testutil

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/fixflow/backend/internal/domain/shared"
)

// EventRecorder subscribes to every event and keeps them in delivery order
type EventRecorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// NewEventRecorder creates an empty recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// EventTypes is empty so the recorder sees every event
func (r *EventRecorder) EventTypes() []string {
	return nil
}

// Handle records event
func (r *EventRecorder) Handle(_ context.Context, event shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Handled returns a copy of the recorded events
func (r *EventRecorder) Handled() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]shared.DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}

// TypesFor returns, in order, the types of the events raised by aggregateID
func (r *EventRecorder) TypesFor(aggregateID uuid.UUID) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var types []string
	for _, e := range r.events {
		if e.AggregateID() == aggregateID {
			types = append(types, e.EventType())
		}
	}
	return types
}

// Reset forgets everything recorded so far
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
