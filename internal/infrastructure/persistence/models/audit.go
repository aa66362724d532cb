package models

import (
	"time"

	"github.com/fixflow/backend/internal/domain/audit"
	"github.com/google/uuid"
)

// StatusTransitionModel is the persistence model for one audit trail row.
type StatusTransitionModel struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key"`
	AgencyID      uuid.UUID  `gorm:"type:uuid;not null;index"`
	AggregateType string     `gorm:"type:varchar(50);not null;index:idx_status_transitions_aggregate,priority:1"`
	AggregateID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_status_transitions_aggregate,priority:2"`
	FromStatus    string     `gorm:"type:varchar(20)"`
	ToStatus      string     `gorm:"type:varchar(20);not null"`
	EventType     string     `gorm:"type:varchar(50);not null"`
	EventID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex"`
	ActorRole     string     `gorm:"type:varchar(20);not null"`
	ActorID       *uuid.UUID `gorm:"type:uuid"`
	OccurredAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusTransitionModel) TableName() string {
	return "status_transitions"
}

// ToDomain converts the persistence model to a domain StatusTransition.
func (m *StatusTransitionModel) ToDomain() audit.StatusTransition {
	return audit.StatusTransition{
		ID:            m.ID,
		AgencyID:      m.AgencyID,
		AggregateType: m.AggregateType,
		AggregateID:   m.AggregateID,
		FromStatus:    m.FromStatus,
		ToStatus:      m.ToStatus,
		EventType:     m.EventType,
		EventID:       m.EventID,
		ActorRole:     m.ActorRole,
		ActorID:       m.ActorID,
		OccurredAt:    m.OccurredAt,
	}
}

// StatusTransitionModelFromDomain creates a new persistence model from a domain StatusTransition.
func StatusTransitionModelFromDomain(t *audit.StatusTransition) *StatusTransitionModel {
	return &StatusTransitionModel{
		ID:            t.ID,
		AgencyID:      t.AgencyID,
		AggregateType: t.AggregateType,
		AggregateID:   t.AggregateID,
		FromStatus:    t.FromStatus,
		ToStatus:      t.ToStatus,
		EventType:     t.EventType,
		EventID:       t.EventID,
		ActorRole:     t.ActorRole,
		ActorID:       t.ActorID,
		OccurredAt:    t.OccurredAt,
	}
}

// All returns every persistence model, for schema creation in tests and tooling
func All() []interface{} {
	return []interface{}{
		&AgencyModel{},
		&ServiceCompanyModel{},
		&TechnicianModel{},
		&TenantModel{},
		&BuildingModel{},
		&UnitModel{},
		&UserAccountModel{},
		&WorkRequestModel{},
		&WorkRequestTargetModel{},
		&WorkOrderModel{},
		&InvoiceModel{},
		&InvoiceLineModel{},
		&InvoiceSequenceModel{},
		&StatusTransitionModel{},
	}
}
