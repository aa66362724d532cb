package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents an event that occurred in the domain
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	AgencyID() uuid.UUID
}

// StatusChange is implemented by events that record a status transition.
// The audit trail is built from these.
type StatusChange interface {
	DomainEvent
	FromStatus() string
	ToStatus() string
}

// BaseDomainEvent provides common fields for all domain events
type BaseDomainEvent struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggID         uuid.UUID `json:"aggregate_id"`
	AggType       string    `json:"aggregate_type"`
	AgencyIDValue uuid.UUID `json:"agency_id"`
}

// EventID returns the unique event identifier
func (e *BaseDomainEvent) EventID() uuid.UUID {
	return e.ID
}

// EventType returns the type of the event
func (e *BaseDomainEvent) EventType() string {
	return e.Type
}

// OccurredAt returns when the event occurred
func (e *BaseDomainEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID returns the ID of the aggregate that produced this event
func (e *BaseDomainEvent) AggregateID() uuid.UUID {
	return e.AggID
}

// AggregateType returns the type of the aggregate
func (e *BaseDomainEvent) AggregateType() string {
	return e.AggType
}

// AgencyID returns the owning agency
func (e *BaseDomainEvent) AgencyID() uuid.UUID {
	return e.AgencyIDValue
}

// NewBaseDomainEvent creates a new base domain event
func NewBaseDomainEvent(eventType, aggType string, aggID, agencyID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:            uuid.New(),
		Type:          eventType,
		Timestamp:     time.Now(),
		AggID:         aggID,
		AggType:       aggType,
		AgencyIDValue: agencyID,
	}
}

// BaseStatusChangeEvent is embedded by events that move an aggregate between statuses
type BaseStatusChangeEvent struct {
	BaseDomainEvent
	From string `json:"from_status"`
	To   string `json:"to_status"`
}

// FromStatus returns the status before the transition
func (e *BaseStatusChangeEvent) FromStatus() string {
	return e.From
}

// ToStatus returns the status after the transition
func (e *BaseStatusChangeEvent) ToStatus() string {
	return e.To
}

// NewBaseStatusChangeEvent creates a status change event base
func NewBaseStatusChangeEvent(eventType, aggType string, aggID, agencyID uuid.UUID, from, to string) BaseStatusChangeEvent {
	return BaseStatusChangeEvent{
		BaseDomainEvent: NewBaseDomainEvent(eventType, aggType, aggID, agencyID),
		From:            from,
		To:              to,
	}
}
