package currency

import (
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
)

// ChangeCurrencyRequest sets a new agency currency
type ChangeCurrencyRequest struct {
	Currency string `json:"currency" binding:"required,currency"`
}

// RelinkCompanyRequest moves a service company to another agency
type RelinkCompanyRequest struct {
	AgencyID uuid.UUID `json:"agency_id" binding:"required"`
}

// MoveTenantRequest assigns a tenant to another unit
type MoveTenantRequest struct {
	UnitID uuid.UUID `json:"unit_id" binding:"required"`
}

// CurrencyChangeResponse reports an agency currency change
type CurrencyChangeResponse struct {
	AgencyID    uuid.UUID `json:"agency_id"`
	OldCurrency string    `json:"old_currency"`
	NewCurrency string    `json:"new_currency"`
	Changed     bool      `json:"changed"`
}

// PropagationResponse reports the rows one propagation pass rewrote
type PropagationResponse struct {
	AgencyID uuid.UUID                 `json:"agency_id"`
	Currency string                    `json:"currency"`
	Rows     tenancy.PropagationResult `json:"rows"`
	Total    int64                     `json:"total"`
}

// RelinkResponse reports a company's agency link and currency after re-parenting
type RelinkResponse struct {
	CompanyID        uuid.UUID `json:"company_id"`
	AgencyID         uuid.UUID `json:"agency_id"`
	Currency         string    `json:"currency"`
	CurrencyExplicit bool      `json:"currency_explicit"`
}

// MoveTenantResponse reports a tenant's placement and currency after a move
type MoveTenantResponse struct {
	TenantID         uuid.UUID `json:"tenant_id"`
	AgencyID         uuid.UUID `json:"agency_id"`
	UnitID           uuid.UUID `json:"unit_id"`
	Currency         string    `json:"currency"`
	CurrencyExplicit bool      `json:"currency_explicit"`
}
