package tenancy

import (
	"strings"
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ValidationStatus is the onboarding status of an agency
type ValidationStatus string

const (
	ValidationStatusPending   ValidationStatus = "PENDING"
	ValidationStatusValidated ValidationStatus = "VALIDATED"
	ValidationStatusSuspended ValidationStatus = "SUSPENDED"
)

// IsValid checks if the status is a valid ValidationStatus
func (s ValidationStatus) IsValid() bool {
	switch s {
	case ValidationStatusPending, ValidationStatusValidated, ValidationStatusSuspended:
		return true
	}
	return false
}

// String returns the string representation of ValidationStatus
func (s ValidationStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s ValidationStatus) CanTransitionTo(target ValidationStatus) bool {
	switch s {
	case ValidationStatusPending:
		return target == ValidationStatusValidated || target == ValidationStatusSuspended
	case ValidationStatusValidated:
		return target == ValidationStatusSuspended
	case ValidationStatusSuspended:
		return target == ValidationStatusValidated
	}
	return false
}

// ParseValidationStatus validates a status value at the boundary
func ParseValidationStatus(s string) (ValidationStatus, error) {
	v := ValidationStatus(strings.ToUpper(s))
	if !v.IsValid() {
		return "", shared.ValidationFailed("INVALID_STATUS", "Unknown agency status: "+s)
	}
	return v, nil
}

// Agency owns buildings, tenants and linked service companies.
// Its currency is the root of every dependent record's currency.
type Agency struct {
	shared.BaseAggregateRoot
	Name             string
	Currency         valueobject.Currency
	ValidationStatus ValidationStatus
	TaxRate          decimal.Decimal
	CommissionRate   decimal.Decimal
}

// NewAgency creates a pending agency
func NewAgency(name, currency string, taxRate, commissionRate decimal.Decimal) (*Agency, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ValidationFailed("INVALID_NAME", "Agency name cannot be empty")
	}
	c, err := valueobject.ParseCurrency(currency)
	if err != nil {
		return nil, shared.ValidationFailed("INVALID_CURRENCY", err.Error())
	}
	if err := validateRate(taxRate); err != nil {
		return nil, err
	}
	if err := validateRate(commissionRate); err != nil {
		return nil, err
	}

	a := &Agency{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Currency:          c,
		ValidationStatus:  ValidationStatusPending,
		TaxRate:           taxRate,
		CommissionRate:    commissionRate,
	}
	a.AddDomainEvent(NewAgencyRegisteredEvent(a))
	return a, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return shared.ValidationFailed("INVALID_RATE", "Rate must be between 0 and 1")
	}
	return nil
}

// Validate marks the agency as validated, allowing it to diffuse requests
func (a *Agency) Validate() error {
	return a.transition(ValidationStatusValidated)
}

// Suspend blocks further diffusion
func (a *Agency) Suspend() error {
	return a.transition(ValidationStatusSuspended)
}

func (a *Agency) transition(target ValidationStatus) error {
	if a.ValidationStatus == target {
		return nil
	}
	if !a.ValidationStatus.CanTransitionTo(target) {
		return shared.PreconditionFailed("INVALID_STATE",
			"Cannot move agency from "+string(a.ValidationStatus)+" to "+string(target))
	}
	from := a.ValidationStatus
	a.ValidationStatus = target
	a.Touch(time.Now())
	a.AddDomainEvent(NewAgencyStatusChangedEvent(a, from))
	return nil
}

// IsValidated reports whether the agency may diffuse requests
func (a *Agency) IsValidated() bool {
	return a.ValidationStatus == ValidationStatusValidated
}

// ChangeCurrency sets a new root currency; dependents follow via propagation
func (a *Agency) ChangeCurrency(code string) error {
	c, err := valueobject.ParseCurrency(code)
	if err != nil {
		return shared.ValidationFailed("INVALID_CURRENCY", err.Error())
	}
	if c == a.Currency {
		return nil
	}
	from := a.Currency
	a.Currency = c
	a.Touch(time.Now())
	a.AddDomainEvent(NewAgencyCurrencyChangedEvent(a, from))
	return nil
}

// SetRates updates the tax and commission rates snapshotted into new invoices
func (a *Agency) SetRates(taxRate, commissionRate decimal.Decimal) error {
	if err := validateRate(taxRate); err != nil {
		return err
	}
	if err := validateRate(commissionRate); err != nil {
		return err
	}
	a.TaxRate = taxRate
	a.CommissionRate = commissionRate
	a.Touch(time.Now())
	return nil
}
