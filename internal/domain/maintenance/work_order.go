package maintenance

import (
	"strings"
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of a work order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusValidated  OrderStatus = "VALIDATED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusValidated, OrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	switch s {
	case OrderStatusPending:
		return target == OrderStatusInProgress || target == OrderStatusCancelled
	case OrderStatusInProgress:
		return target == OrderStatusCompleted || target == OrderStatusCancelled
	case OrderStatusCompleted:
		return target == OrderStatusValidated
	case OrderStatusValidated, OrderStatusCancelled:
		return false // Terminal states; a validated order is never reopened
	}
	return false
}

// IsActive reports whether the order still holds its request
func (s OrderStatus) IsActive() bool {
	return s != OrderStatusCancelled
}

// ParseOrderStatus validates a status value at the boundary
func ParseOrderStatus(s string) (OrderStatus, error) {
	v := OrderStatus(strings.ToUpper(s))
	if !v.IsValid() {
		return "", shared.ValidationFailed("INVALID_STATUS", "Unknown work order status: "+s)
	}
	return v, nil
}

// WorkOrder is a service company's execution of an accepted work request
type WorkOrder struct {
	shared.AgencyAggregateRoot
	RequestID    uuid.UUID
	CompanyID    uuid.UUID
	TechnicianID *uuid.UUID
	Status       OrderStatus
	Amount       decimal.Decimal
	tenancy.CurrencySetting
	ReportRef    string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ValidatedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// NewWorkOrder creates a pending order for request on behalf of companyID.
// Without an explicit currency the order inherits the request's setting.
func NewWorkOrder(request *WorkRequest, companyID uuid.UUID, amount decimal.Decimal, currency string) (*WorkOrder, error) {
	if companyID == uuid.Nil {
		return nil, shared.ValidationFailed("INVALID_COMPANY", "Company ID cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.ValidationFailed("INVALID_AMOUNT", "Amount cannot be negative")
	}
	setting := tenancy.Inherit(request.CurrencySetting)
	if currency != "" {
		c, err := valueobject.ParseCurrency(currency)
		if err != nil {
			return nil, shared.ValidationFailed("INVALID_CURRENCY", err.Error())
		}
		setting = tenancy.CurrencySetting{Currency: c, Explicit: true}
	}

	o := &WorkOrder{
		AgencyAggregateRoot: shared.NewAgencyAggregateRoot(request.AgencyID),
		RequestID:           request.ID,
		CompanyID:           companyID,
		Status:              OrderStatusPending,
		Amount:              valueobject.RoundAmount(amount),
		CurrencySetting:     setting,
	}
	o.AddDomainEvent(NewWorkOrderCreatedEvent(o))
	return o, nil
}

// AssignTechnician assigns or reassigns the technician doing the work
func (o *WorkOrder) AssignTechnician(tech *tenancy.Technician) error {
	if tech.CompanyID != o.CompanyID {
		return shared.Forbidden("TECHNICIAN_NOT_EMPLOYED", "Technician does not belong to the order's company")
	}
	if !tech.Active {
		return shared.PreconditionFailed("TECHNICIAN_INACTIVE", "Technician is not active")
	}
	if o.Status != OrderStatusPending && o.Status != OrderStatusInProgress {
		return shared.PreconditionFailed("INVALID_STATE", "Cannot assign a technician to a "+string(o.Status)+" work order")
	}
	if o.TechnicianID != nil && *o.TechnicianID == tech.ID {
		return nil
	}
	previous := o.TechnicianID
	id := tech.ID
	o.TechnicianID = &id
	o.Touch(time.Now())
	o.AddDomainEvent(NewTechnicianAssignedEvent(o, previous))
	return nil
}

// Start begins work; a technician must be assigned
func (o *WorkOrder) Start() error {
	if err := o.checkTransition(OrderStatusInProgress); err != nil {
		return err
	}
	if o.TechnicianID == nil {
		return shared.PreconditionFailed("TECHNICIAN_REQUIRED", "A technician must be assigned before starting")
	}
	now := time.Now()
	o.StartedAt = &now
	from := o.setStatus(OrderStatusInProgress, now)
	o.AddDomainEvent(NewWorkOrderStartedEvent(o, from))
	return nil
}

// Complete finishes work. A non-nil amount replaces the quoted amount.
func (o *WorkOrder) Complete(reportRef string, amount *decimal.Decimal) error {
	if err := o.checkTransition(OrderStatusCompleted); err != nil {
		return err
	}
	if amount != nil {
		if amount.IsNegative() {
			return shared.ValidationFailed("INVALID_AMOUNT", "Amount cannot be negative")
		}
		o.Amount = valueobject.RoundAmount(*amount)
	}
	if ref := strings.TrimSpace(reportRef); ref != "" {
		o.ReportRef = ref
	}
	now := time.Now()
	o.CompletedAt = &now
	from := o.setStatus(OrderStatusCompleted, now)
	o.AddDomainEvent(NewWorkOrderCompletedEvent(o, from))
	return nil
}

// Validate accepts the completed work. Validating a validated order is a no-op.
func (o *WorkOrder) Validate() error {
	if o.Status == OrderStatusValidated {
		return nil
	}
	if err := o.checkTransition(OrderStatusValidated); err != nil {
		return err
	}
	now := time.Now()
	o.ValidatedAt = &now
	from := o.setStatus(OrderStatusValidated, now)
	o.AddDomainEvent(NewWorkOrderValidatedEvent(o, from))
	return nil
}

// Cancel abandons the order before completion, releasing its request
func (o *WorkOrder) Cancel(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.ValidationFailed("REASON_REQUIRED", "Cancel reason is required")
	}
	if err := o.checkTransition(OrderStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	o.CancelledAt = &now
	o.CancelReason = reason
	from := o.setStatus(OrderStatusCancelled, now)
	o.AddDomainEvent(NewWorkOrderCancelledEvent(o, from))
	return nil
}

// IsAssignedTo reports whether technicianID is the assigned technician
func (o *WorkOrder) IsAssignedTo(technicianID uuid.UUID) bool {
	return o.TechnicianID != nil && *o.TechnicianID == technicianID
}

// AmountMoney returns the amount in the order currency
func (o *WorkOrder) AmountMoney() valueobject.Money {
	return valueobject.NewMoney(o.Amount, o.Currency)
}

func (o *WorkOrder) checkTransition(target OrderStatus) error {
	if !o.Status.CanTransitionTo(target) {
		return shared.PreconditionFailed("INVALID_STATE",
			"Cannot move work order from "+string(o.Status)+" to "+string(target))
	}
	return nil
}

// setStatus moves to s and returns the previous status
func (o *WorkOrder) setStatus(s OrderStatus, at time.Time) OrderStatus {
	from := o.Status
	o.Status = s
	o.Touch(at)
	return from
}
