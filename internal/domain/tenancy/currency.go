package tenancy

import (
	"fmt"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
)

// CurrencySetting is the currency of a record that depends on an agency.
// An explicit currency was supplied at creation and is never overwritten;
// an inherited one follows the owning agency.
type CurrencySetting struct {
	Currency valueobject.Currency
	Explicit bool
}

// ResolveCurrency computes the currency of a new dependent record.
// An empty explicit code inherits the agency currency.
func ResolveCurrency(agencyCurrency valueobject.Currency, explicit string) (CurrencySetting, error) {
	if explicit == "" {
		return CurrencySetting{Currency: agencyCurrency}, nil
	}
	c, err := valueobject.ParseCurrency(explicit)
	if err != nil {
		return CurrencySetting{}, shared.ValidationFailed("INVALID_CURRENCY", err.Error())
	}
	return CurrencySetting{Currency: c, Explicit: true}, nil
}

// Inherit returns the setting inherited from a parent record (e.g. an order from its request).
// The explicit flag is carried over so a parent override stays protected downstream.
func Inherit(parent CurrencySetting) CurrencySetting {
	return parent
}

// Reparent computes the setting under a new owning agency.
// An explicit currency that differs from the new agency's is rejected.
func (s CurrencySetting) Reparent(newAgencyCurrency valueobject.Currency) (CurrencySetting, error) {
	if !s.Explicit {
		return CurrencySetting{Currency: newAgencyCurrency}, nil
	}
	if s.Currency != newAgencyCurrency {
		return s, shared.ValidationFailed("CURRENCY_MISMATCH",
			fmt.Sprintf("Explicit currency %s does not match agency currency %s", s.Currency, newAgencyCurrency))
	}
	return s, nil
}

// Propagate returns the setting after the agency currency changed, and whether it moved
func (s CurrencySetting) Propagate(agencyCurrency valueobject.Currency) (CurrencySetting, bool) {
	if s.Explicit || s.Currency == agencyCurrency {
		return s, false
	}
	return CurrencySetting{Currency: agencyCurrency}, true
}
