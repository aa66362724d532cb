// Package audit exposes the status transition trail of lifecycle aggregates.
package audit

import (
	"context"
	"time"

	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/audit"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
)

var aggregateTypes = map[string]bool{
	tenancy.AggregateTypeAgency:          true,
	maintenance.AggregateTypeWorkRequest: true,
	maintenance.AggregateTypeWorkOrder:   true,
	invoicing.AggregateTypeInvoice:       true,
}

// TransitionResponse represents one audit row in API responses
type TransitionResponse struct {
	EventID    uuid.UUID  `json:"event_id"`
	EventType  string     `json:"event_type"`
	FromStatus string     `json:"from_status"`
	ToStatus   string     `json:"to_status"`
	ActorRole  string     `json:"actor_role"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// TrailService reads the audit trail
type TrailService struct {
	runner *operation.Runner
}

// NewTrailService creates a new TrailService
func NewTrailService(runner *operation.Runner) *TrailService {
	return &TrailService{runner: runner}
}

// Trail returns the transitions of one aggregate, oldest first. Only the owning agency reads it.
func (s *TrailService) Trail(ctx context.Context, p access.Principal, aggregateType string, aggregateID uuid.UUID) ([]TransitionResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	if !aggregateTypes[aggregateType] {
		return nil, shared.ValidationFailed("INVALID_AGGREGATE_TYPE", "Unknown aggregate type: "+aggregateType)
	}
	var items []TransitionResponse
	err := s.runner.Run(ctx, p, "audit", "trail", func(ctx context.Context, repos uow.Repositories) error {
		rows, err := repos.Audit().FindByAggregate(ctx, p.Scope(), aggregateType, aggregateID)
		if err != nil {
			return err
		}
		items = toResponses(rows)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func toResponses(rows []audit.StatusTransition) []TransitionResponse {
	out := make([]TransitionResponse, len(rows))
	for i, r := range rows {
		out[i] = TransitionResponse{
			EventID:    r.EventID,
			EventType:  r.EventType,
			FromStatus: r.FromStatus,
			ToStatus:   r.ToStatus,
			ActorRole:  r.ActorRole,
			ActorID:    r.ActorID,
			OccurredAt: r.OccurredAt,
		}
	}
	return out
}
