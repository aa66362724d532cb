package maintenance

import (
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeWorkRequest = "WorkRequest"
	AggregateTypeWorkOrder   = "WorkOrder"
)

// Event type constants
const (
	EventTypeWorkRequestCreated   = "WorkRequestCreated"
	EventTypeWorkRequestDiffused  = "WorkRequestDiffused"
	EventTypeWorkRequestLocked    = "WorkRequestLocked"
	EventTypeWorkRequestReleased  = "WorkRequestReleased"
	EventTypeWorkRequestClosed    = "WorkRequestClosed"
	EventTypeWorkRequestCancelled = "WorkRequestCancelled"

	EventTypeWorkOrderCreated   = "WorkOrderCreated"
	EventTypeTechnicianAssigned = "TechnicianAssigned"
	EventTypeWorkOrderStarted   = "WorkOrderStarted"
	EventTypeWorkOrderCompleted = "WorkOrderCompleted"
	EventTypeWorkOrderValidated = "WorkOrderValidated"
	EventTypeWorkOrderCancelled = "WorkOrderCancelled"
)

// WorkRequestCreatedEvent is raised when a tenant opens a request
type WorkRequestCreatedEvent struct {
	shared.BaseStatusChangeEvent
	TenantID uuid.UUID `json:"tenant_id"`
	UnitID   uuid.UUID `json:"unit_id"`
	Category string    `json:"category"`
}

// NewWorkRequestCreatedEvent creates a new WorkRequestCreatedEvent
func NewWorkRequestCreatedEvent(r *WorkRequest) *WorkRequestCreatedEvent {
	return &WorkRequestCreatedEvent{
		BaseStatusChangeEvent: requestChange(EventTypeWorkRequestCreated, r, ""),
		TenantID:              r.TenantID,
		UnitID:                r.UnitID,
		Category:              r.Category,
	}
}

// WorkRequestDiffusedEvent is raised when the agency exposes a request to companies
type WorkRequestDiffusedEvent struct {
	shared.BaseStatusChangeEvent
	Mode             DiffusionMode `json:"mode"`
	TargetCompanyIDs []uuid.UUID   `json:"target_company_ids,omitempty"`
}

// NewWorkRequestDiffusedEvent creates a new WorkRequestDiffusedEvent
func NewWorkRequestDiffusedEvent(r *WorkRequest, from RequestStatus) *WorkRequestDiffusedEvent {
	return &WorkRequestDiffusedEvent{
		BaseStatusChangeEvent: requestChange(EventTypeWorkRequestDiffused, r, from),
		Mode:                  r.DiffusionMode,
		TargetCompanyIDs:      r.TargetCompanyIDs,
	}
}

// WorkRequestLockedEvent is raised when a company's order takes the request
type WorkRequestLockedEvent struct {
	shared.BaseStatusChangeEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewWorkRequestLockedEvent creates a new WorkRequestLockedEvent
func NewWorkRequestLockedEvent(r *WorkRequest, from RequestStatus, orderID uuid.UUID) *WorkRequestLockedEvent {
	return &WorkRequestLockedEvent{
		BaseStatusChangeEvent: requestChange(EventTypeWorkRequestLocked, r, from),
		OrderID:               orderID,
	}
}

// WorkRequestReleasedEvent is raised when the lock is released by order cancellation
type WorkRequestReleasedEvent struct {
	shared.BaseStatusChangeEvent
	OrderID uuid.UUID `json:"order_id"`
}

// NewWorkRequestReleasedEvent creates a new WorkRequestReleasedEvent
func NewWorkRequestReleasedEvent(r *WorkRequest, from RequestStatus, orderID uuid.UUID) *WorkRequestReleasedEvent {
	return &WorkRequestReleasedEvent{
		BaseStatusChangeEvent: requestChange(EventTypeWorkRequestReleased, r, from),
		OrderID:               orderID,
	}
}

// WorkRequestClosedEvent is raised by the payment cascade
type WorkRequestClosedEvent struct {
	shared.BaseStatusChangeEvent
}

// NewWorkRequestClosedEvent creates a new WorkRequestClosedEvent
func NewWorkRequestClosedEvent(r *WorkRequest, from RequestStatus) *WorkRequestClosedEvent {
	return &WorkRequestClosedEvent{BaseStatusChangeEvent: requestChange(EventTypeWorkRequestClosed, r, from)}
}

// WorkRequestCancelledEvent is raised when a request is withdrawn
type WorkRequestCancelledEvent struct {
	shared.BaseStatusChangeEvent
	Reason string `json:"reason"`
}

// NewWorkRequestCancelledEvent creates a new WorkRequestCancelledEvent
func NewWorkRequestCancelledEvent(r *WorkRequest, from RequestStatus) *WorkRequestCancelledEvent {
	return &WorkRequestCancelledEvent{
		BaseStatusChangeEvent: requestChange(EventTypeWorkRequestCancelled, r, from),
		Reason:                r.CancelReason,
	}
}

func requestChange(eventType string, r *WorkRequest, from RequestStatus) shared.BaseStatusChangeEvent {
	return shared.NewBaseStatusChangeEvent(eventType, AggregateTypeWorkRequest, r.ID, r.AgencyID, string(from), string(r.Status))
}

// WorkOrderCreatedEvent is raised when a company accepts a request
type WorkOrderCreatedEvent struct {
	shared.BaseStatusChangeEvent
	RequestID uuid.UUID            `json:"request_id"`
	CompanyID uuid.UUID            `json:"company_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
}

// NewWorkOrderCreatedEvent creates a new WorkOrderCreatedEvent
func NewWorkOrderCreatedEvent(o *WorkOrder) *WorkOrderCreatedEvent {
	return &WorkOrderCreatedEvent{
		BaseStatusChangeEvent: orderChange(EventTypeWorkOrderCreated, o, ""),
		RequestID:             o.RequestID,
		CompanyID:             o.CompanyID,
		Amount:                o.Amount,
		Currency:              o.Currency,
	}
}

// TechnicianAssignedEvent is raised when a technician is assigned or replaced
type TechnicianAssignedEvent struct {
	shared.BaseDomainEvent
	TechnicianID         uuid.UUID  `json:"technician_id"`
	PreviousTechnicianID *uuid.UUID `json:"previous_technician_id,omitempty"`
}

// NewTechnicianAssignedEvent creates a new TechnicianAssignedEvent
func NewTechnicianAssignedEvent(o *WorkOrder, previous *uuid.UUID) *TechnicianAssignedEvent {
	return &TechnicianAssignedEvent{
		BaseDomainEvent:      shared.NewBaseDomainEvent(EventTypeTechnicianAssigned, AggregateTypeWorkOrder, o.ID, o.AgencyID),
		TechnicianID:         *o.TechnicianID,
		PreviousTechnicianID: previous,
	}
}

// WorkOrderStartedEvent is raised when work begins
type WorkOrderStartedEvent struct {
	shared.BaseStatusChangeEvent
}

// NewWorkOrderStartedEvent creates a new WorkOrderStartedEvent
func NewWorkOrderStartedEvent(o *WorkOrder, from OrderStatus) *WorkOrderStartedEvent {
	return &WorkOrderStartedEvent{BaseStatusChangeEvent: orderChange(EventTypeWorkOrderStarted, o, from)}
}

// WorkOrderCompletedEvent triggers invoice creation
type WorkOrderCompletedEvent struct {
	shared.BaseStatusChangeEvent
	RequestID uuid.UUID            `json:"request_id"`
	CompanyID uuid.UUID            `json:"company_id"`
	Amount    decimal.Decimal      `json:"amount"`
	Currency  valueobject.Currency `json:"currency"`
	ReportRef string               `json:"report_ref,omitempty"`
}

// NewWorkOrderCompletedEvent creates a new WorkOrderCompletedEvent
func NewWorkOrderCompletedEvent(o *WorkOrder, from OrderStatus) *WorkOrderCompletedEvent {
	return &WorkOrderCompletedEvent{
		BaseStatusChangeEvent: orderChange(EventTypeWorkOrderCompleted, o, from),
		RequestID:             o.RequestID,
		CompanyID:             o.CompanyID,
		Amount:                o.Amount,
		Currency:              o.Currency,
		ReportRef:             o.ReportRef,
	}
}

// WorkOrderValidatedEvent is raised when the agency accepts the work
type WorkOrderValidatedEvent struct {
	shared.BaseStatusChangeEvent
	RequestID uuid.UUID `json:"request_id"`
}

// NewWorkOrderValidatedEvent creates a new WorkOrderValidatedEvent
func NewWorkOrderValidatedEvent(o *WorkOrder, from OrderStatus) *WorkOrderValidatedEvent {
	return &WorkOrderValidatedEvent{
		BaseStatusChangeEvent: orderChange(EventTypeWorkOrderValidated, o, from),
		RequestID:             o.RequestID,
	}
}

// WorkOrderCancelledEvent triggers the release of the request lock
type WorkOrderCancelledEvent struct {
	shared.BaseStatusChangeEvent
	RequestID uuid.UUID `json:"request_id"`
	Reason    string    `json:"reason"`
}

// NewWorkOrderCancelledEvent creates a new WorkOrderCancelledEvent
func NewWorkOrderCancelledEvent(o *WorkOrder, from OrderStatus) *WorkOrderCancelledEvent {
	return &WorkOrderCancelledEvent{
		BaseStatusChangeEvent: orderChange(EventTypeWorkOrderCancelled, o, from),
		RequestID:             o.RequestID,
		Reason:                o.CancelReason,
	}
}

func orderChange(eventType string, o *WorkOrder, from OrderStatus) shared.BaseStatusChangeEvent {
	return shared.NewBaseStatusChangeEvent(eventType, AggregateTypeWorkOrder, o.ID, o.AgencyID, string(from), string(o.Status))
}
