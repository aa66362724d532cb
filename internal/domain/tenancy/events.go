package tenancy

import (
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeAgency         = "Agency"
	AggregateTypeServiceCompany = "ServiceCompany"
	AggregateTypeTenant         = "Tenant"
)

// Event type constants
const (
	EventTypeAgencyRegistered      = "AgencyRegistered"
	EventTypeAgencyStatusChanged   = "AgencyStatusChanged"
	EventTypeAgencyCurrencyChanged = "AgencyCurrencyChanged"
	EventTypeCompanyRelinked       = "CompanyRelinked"
	EventTypeTenantMoved           = "TenantMoved"
)

// AgencyRegisteredEvent is raised when a new agency is registered
type AgencyRegisteredEvent struct {
	shared.BaseDomainEvent
	Name     string               `json:"name"`
	Currency valueobject.Currency `json:"currency"`
}

// NewAgencyRegisteredEvent creates a new AgencyRegisteredEvent
func NewAgencyRegisteredEvent(a *Agency) *AgencyRegisteredEvent {
	return &AgencyRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgencyRegistered, AggregateTypeAgency, a.ID, a.ID),
		Name:            a.Name,
		Currency:        a.Currency,
	}
}

// AgencyStatusChangedEvent is raised when an agency is validated or suspended
type AgencyStatusChangedEvent struct {
	shared.BaseStatusChangeEvent
}

// NewAgencyStatusChangedEvent creates a new AgencyStatusChangedEvent
func NewAgencyStatusChangedEvent(a *Agency, from ValidationStatus) *AgencyStatusChangedEvent {
	return &AgencyStatusChangedEvent{
		BaseStatusChangeEvent: shared.NewBaseStatusChangeEvent(EventTypeAgencyStatusChanged, AggregateTypeAgency, a.ID, a.ID,
			string(from), string(a.ValidationStatus)),
	}
}

// AgencyCurrencyChangedEvent triggers currency propagation through the agency subtree
type AgencyCurrencyChangedEvent struct {
	shared.BaseDomainEvent
	OldCurrency valueobject.Currency `json:"old_currency"`
	NewCurrency valueobject.Currency `json:"new_currency"`
}

// NewAgencyCurrencyChangedEvent creates a new AgencyCurrencyChangedEvent
func NewAgencyCurrencyChangedEvent(a *Agency, from valueobject.Currency) *AgencyCurrencyChangedEvent {
	return &AgencyCurrencyChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAgencyCurrencyChanged, AggregateTypeAgency, a.ID, a.ID),
		OldCurrency:     from,
		NewCurrency:     a.Currency,
	}
}

// CompanyRelinkedEvent is raised when a company moves to another agency
type CompanyRelinkedEvent struct {
	shared.BaseDomainEvent
	FromAgencyID uuid.UUID            `json:"from_agency_id"`
	Currency     valueobject.Currency `json:"currency"`
}

// NewCompanyRelinkedEvent creates a new CompanyRelinkedEvent
func NewCompanyRelinkedEvent(c *ServiceCompany, from uuid.UUID) *CompanyRelinkedEvent {
	return &CompanyRelinkedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCompanyRelinked, AggregateTypeServiceCompany, c.ID, c.AgencyID),
		FromAgencyID:    from,
		Currency:        c.Currency,
	}
}

// TenantMovedEvent is raised when a tenant is assigned to another unit
type TenantMovedEvent struct {
	shared.BaseDomainEvent
	FromAgencyID uuid.UUID            `json:"from_agency_id"`
	UnitID       uuid.UUID            `json:"unit_id"`
	Currency     valueobject.Currency `json:"currency"`
}

// NewTenantMovedEvent creates a new TenantMovedEvent
func NewTenantMovedEvent(t *Tenant, from uuid.UUID) *TenantMovedEvent {
	var unitID uuid.UUID
	if t.UnitID != nil {
		unitID = *t.UnitID
	}
	return &TenantMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTenantMoved, AggregateTypeTenant, t.ID, t.AgencyID),
		FromAgencyID:    from,
		UnitID:          unitID,
		Currency:        t.Currency,
	}
}
