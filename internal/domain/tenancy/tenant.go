package tenancy

import (
	"strings"
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Tenant is a residential tenant of an agency, optionally assigned to a unit
type Tenant struct {
	shared.BaseAggregateRoot
	AgencyID uuid.UUID
	UnitID   *uuid.UUID
	Name     string
	CurrencySetting
}

// NewTenant creates a tenant of agency, assigned to unit when given
func NewTenant(agency *Agency, unit *Unit, name, currency string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationFailed("INVALID_NAME", "Tenant name cannot be empty")
	}
	var unitID *uuid.UUID
	if unit != nil {
		if unit.AgencyID != agency.ID {
			return nil, shared.ValidationFailed("UNIT_AGENCY_MISMATCH", "Unit does not belong to the agency")
		}
		id := unit.ID
		unitID = &id
	}
	setting, err := ResolveCurrency(agency.Currency, currency)
	if err != nil {
		return nil, err
	}
	return &Tenant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AgencyID:          agency.ID,
		UnitID:            unitID,
		Name:              name,
		CurrencySetting:   setting,
	}, nil
}

// MoveTo assigns the tenant to unit, owned by agency.
// Moving across agencies re-parents the currency.
func (t *Tenant) MoveTo(unit *Unit, agency *Agency) error {
	if unit.AgencyID != agency.ID {
		return shared.ValidationFailed("UNIT_AGENCY_MISMATCH", "Unit does not belong to the agency")
	}
	setting, err := t.CurrencySetting.Reparent(agency.Currency)
	if err != nil {
		return err
	}
	from := t.AgencyID
	id := unit.ID
	t.UnitID = &id
	t.AgencyID = agency.ID
	t.CurrencySetting = setting
	t.Touch(time.Now())
	t.AddDomainEvent(NewTenantMovedEvent(t, from))
	return nil
}

// Occupies reports whether the tenant may report issues for unit.
// A tenant without an assigned unit may report for any unit of its agency.
func (t *Tenant) Occupies(unit *Unit) bool {
	if unit.AgencyID != t.AgencyID {
		return false
	}
	return t.UnitID == nil || *t.UnitID == unit.ID
}
