package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps. Directory records that never
// raise events (buildings, units) embed it directly.
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity stamps a fresh identity
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// Touch stamps UpdatedAt with t and returns t
func (e *BaseEntity) Touch(t time.Time) time.Time {
	e.UpdatedAt = t
	return t
}

// AggregateRoot is a consistency boundary whose pending events are collected
// by the unit of work and published once its transaction commits.
type AggregateRoot interface {
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot adds the optimistic-locking version and pending events.
// Version starts at 1 and moves by one on every locked write.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent
}

var _ AggregateRoot = (*BaseAggregateRoot)(nil)

// NewBaseAggregateRoot creates a version 1 aggregate with no pending events
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// Saved records a successful locked write against the current version
func (a *BaseAggregateRoot) Saved() {
	a.Version++
}

// AddDomainEvent queues event until the transaction commits
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the queued events, oldest first
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the queued events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

// AgencyAggregateRoot is a lifecycle record denormalized with its owning
// agency, the key of every isolation filter.
type AgencyAggregateRoot struct {
	BaseAggregateRoot
	AgencyID uuid.UUID
}

// NewAgencyAggregateRoot creates a version 1 aggregate owned by agencyID
func NewAgencyAggregateRoot(agencyID uuid.UUID) AgencyAggregateRoot {
	return AgencyAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), AgencyID: agencyID}
}
