// Package audit records every status transition of the lifecycle aggregates.
package audit

import (
	"context"
	"time"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StatusTransition is one row of the audit trail
type StatusTransition struct {
	ID            uuid.UUID
	AgencyID      uuid.UUID
	AggregateType string
	AggregateID   uuid.UUID
	FromStatus    string
	ToStatus      string
	EventType     string
	EventID       uuid.UUID
	ActorRole     string
	ActorID       *uuid.UUID
	OccurredAt    time.Time
}

// NewStatusTransition builds the audit row of a status change made by actor
func NewStatusTransition(change shared.StatusChange, actor access.Principal) *StatusTransition {
	return &StatusTransition{
		ID:            uuid.New(),
		AgencyID:      change.AgencyID(),
		AggregateType: change.AggregateType(),
		AggregateID:   change.AggregateID(),
		FromStatus:    change.FromStatus(),
		ToStatus:      change.ToStatus(),
		EventType:     change.EventType(),
		EventID:       change.EventID(),
		ActorRole:     actor.ActorRole(),
		ActorID:       actor.ActorID(),
		OccurredAt:    change.OccurredAt(),
	}
}

// Repository persists the audit trail. Rows are append-only.
type Repository interface {
	// Append inserts a row; appending the same event twice is a no-op
	Append(ctx context.Context, t *StatusTransition) error
	// FindByAggregate returns the trail of one aggregate, oldest first
	FindByAggregate(ctx context.Context, scope access.Scope, aggregateType string, aggregateID uuid.UUID) ([]StatusTransition, error)
}
