package event

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
)

// EventSerializer encodes lifecycle events as JSON and decodes them by event type.
// The set of known types is fixed at construction.
type EventSerializer struct {
	factories map[string]func() shared.DomainEvent
}

// NewLifecycleSerializer returns a serializer knowing every lifecycle event type
func NewLifecycleSerializer() *EventSerializer {
	return &EventSerializer{factories: map[string]func() shared.DomainEvent{
		tenancy.EventTypeAgencyRegistered:      func() shared.DomainEvent { return &tenancy.AgencyRegisteredEvent{} },
		tenancy.EventTypeAgencyStatusChanged:   func() shared.DomainEvent { return &tenancy.AgencyStatusChangedEvent{} },
		tenancy.EventTypeAgencyCurrencyChanged: func() shared.DomainEvent { return &tenancy.AgencyCurrencyChangedEvent{} },
		tenancy.EventTypeCompanyRelinked:       func() shared.DomainEvent { return &tenancy.CompanyRelinkedEvent{} },
		tenancy.EventTypeTenantMoved:           func() shared.DomainEvent { return &tenancy.TenantMovedEvent{} },

		maintenance.EventTypeWorkRequestCreated:   func() shared.DomainEvent { return &maintenance.WorkRequestCreatedEvent{} },
		maintenance.EventTypeWorkRequestDiffused:  func() shared.DomainEvent { return &maintenance.WorkRequestDiffusedEvent{} },
		maintenance.EventTypeWorkRequestLocked:    func() shared.DomainEvent { return &maintenance.WorkRequestLockedEvent{} },
		maintenance.EventTypeWorkRequestReleased:  func() shared.DomainEvent { return &maintenance.WorkRequestReleasedEvent{} },
		maintenance.EventTypeWorkRequestClosed:    func() shared.DomainEvent { return &maintenance.WorkRequestClosedEvent{} },
		maintenance.EventTypeWorkRequestCancelled: func() shared.DomainEvent { return &maintenance.WorkRequestCancelledEvent{} },

		maintenance.EventTypeWorkOrderCreated:   func() shared.DomainEvent { return &maintenance.WorkOrderCreatedEvent{} },
		maintenance.EventTypeTechnicianAssigned: func() shared.DomainEvent { return &maintenance.TechnicianAssignedEvent{} },
		maintenance.EventTypeWorkOrderStarted:   func() shared.DomainEvent { return &maintenance.WorkOrderStartedEvent{} },
		maintenance.EventTypeWorkOrderCompleted: func() shared.DomainEvent { return &maintenance.WorkOrderCompletedEvent{} },
		maintenance.EventTypeWorkOrderValidated: func() shared.DomainEvent { return &maintenance.WorkOrderValidatedEvent{} },
		maintenance.EventTypeWorkOrderCancelled: func() shared.DomainEvent { return &maintenance.WorkOrderCancelledEvent{} },

		invoicing.EventTypeInvoiceCreated: func() shared.DomainEvent { return &invoicing.InvoiceCreatedEvent{} },
		invoicing.EventTypeInvoiceEdited:  func() shared.DomainEvent { return &invoicing.InvoiceEditedEvent{} },
		invoicing.EventTypeInvoiceSent:    func() shared.DomainEvent { return &invoicing.InvoiceSentEvent{} },
		invoicing.EventTypeInvoicePaid:    func() shared.DomainEvent { return &invoicing.InvoicePaidEvent{} },
		invoicing.EventTypeInvoiceRefused: func() shared.DomainEvent { return &invoicing.InvoiceRefusedEvent{} },
	}}
}

// Serialize encodes event as JSON
func (s *EventSerializer) Serialize(event shared.DomainEvent) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", event.EventType(), err)
	}
	return data, nil
}

// Deserialize decodes data as an event of eventType
func (s *EventSerializer) Deserialize(eventType string, data []byte) (shared.DomainEvent, error) {
	factory, ok := s.factories[eventType]
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
	event := factory()
	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", eventType, err)
	}
	return event, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *EventSerializer) IsRegistered(eventType string) bool {
	_, ok := s.factories[eventType]
	return ok
}

// RegisteredTypes returns the known event types in sorted order
func (s *EventSerializer) RegisteredTypes() []string {
	types := make([]string, 0, len(s.factories))
	for t := range s.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
