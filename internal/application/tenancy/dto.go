package tenancy

import (
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateDefaults are applied to agencies registered without explicit rates
type RateDefaults struct {
	TaxRate        decimal.Decimal
	CommissionRate decimal.Decimal
}

// ==================== Requests ====================

// RegisterAgencyRequest registers a property agency
type RegisterAgencyRequest struct {
	Name           string           `json:"name" binding:"required,min=1,max=200"`
	Currency       string           `json:"currency" binding:"required,currency"`
	TaxRate        *decimal.Decimal `json:"tax_rate"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
}

// SetRatesRequest updates the rates snapshotted into new invoices
type SetRatesRequest struct {
	TaxRate        decimal.Decimal `json:"tax_rate" binding:"required"`
	CommissionRate decimal.Decimal `json:"commission_rate" binding:"required"`
}

// RegisterCompanyRequest registers a service company linked to an agency.
// AgencyID is taken from the caller when it is an agency.
type RegisterCompanyRequest struct {
	AgencyID *uuid.UUID `json:"agency_id"`
	Name     string     `json:"name" binding:"required,min=1,max=200"`
	Currency string     `json:"currency" binding:"omitempty,currency"`
}

// RegisterTechnicianRequest registers a technician.
// CompanyID is taken from the caller when it is a company.
type RegisterTechnicianRequest struct {
	CompanyID *uuid.UUID `json:"company_id"`
	Name      string     `json:"name" binding:"required,min=1,max=200"`
}

// RegisterTenantRequest registers a residential tenant
type RegisterTenantRequest struct {
	AgencyID *uuid.UUID `json:"agency_id"`
	UnitID   *uuid.UUID `json:"unit_id"`
	Name     string     `json:"name" binding:"required,min=1,max=200"`
	Currency string     `json:"currency" binding:"omitempty,currency"`
}

// RegisterBuildingRequest registers a building
type RegisterBuildingRequest struct {
	AgencyID *uuid.UUID `json:"agency_id"`
	Name     string     `json:"name" binding:"required,min=1,max=200"`
	Address  string     `json:"address" binding:"max=500"`
}

// RegisterUnitRequest registers a unit in a building
type RegisterUnitRequest struct {
	Label string `json:"label" binding:"required,min=1,max=100"`
}

// CreateAccountRequest creates the login of an agency, company, technician or tenant
type CreateAccountRequest struct {
	Email     string    `json:"email" binding:"required,email"`
	Role      string    `json:"role" binding:"required"`
	SubjectID uuid.UUID `json:"subject_id" binding:"required"`
}

// ListFilter represents paging options of directory lists
type ListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f ListFilter) toDomainFilter() shared.Filter {
	return shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
	}.Normalize()
}

// ==================== Responses ====================

// AgencyResponse represents an agency in API responses
type AgencyResponse struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Currency         string          `json:"currency"`
	ValidationStatus string          `json:"validation_status"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	CommissionRate   decimal.Decimal `json:"commission_rate"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToAgencyResponse converts a domain Agency to AgencyResponse
func ToAgencyResponse(a *tenancy.Agency) AgencyResponse {
	return AgencyResponse{
		ID:               a.ID,
		Name:             a.Name,
		Currency:         a.Currency.String(),
		ValidationStatus: string(a.ValidationStatus),
		TaxRate:          a.TaxRate,
		CommissionRate:   a.CommissionRate,
		Version:          a.Version,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

// CompanyResponse represents a service company in API responses
type CompanyResponse struct {
	ID               uuid.UUID `json:"id"`
	AgencyID         uuid.UUID `json:"agency_id"`
	Name             string    `json:"name"`
	Currency         string    `json:"currency"`
	CurrencyExplicit bool      `json:"currency_explicit"`
	CreatedAt        time.Time `json:"created_at"`
}

// ToCompanyResponse converts a domain ServiceCompany to CompanyResponse
func ToCompanyResponse(c *tenancy.ServiceCompany) CompanyResponse {
	return CompanyResponse{
		ID:               c.ID,
		AgencyID:         c.AgencyID,
		Name:             c.Name,
		Currency:         c.Currency.String(),
		CurrencyExplicit: c.Explicit,
		CreatedAt:        c.CreatedAt,
	}
}

// TechnicianResponse represents a technician in API responses
type TechnicianResponse struct {
	ID        uuid.UUID `json:"id"`
	CompanyID uuid.UUID `json:"company_id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToTechnicianResponse converts a domain Technician to TechnicianResponse
func ToTechnicianResponse(t *tenancy.Technician) TechnicianResponse {
	return TechnicianResponse{
		ID:        t.ID,
		CompanyID: t.CompanyID,
		Name:      t.Name,
		Active:    t.Active,
		CreatedAt: t.CreatedAt,
	}
}

// TenantResponse represents a residential tenant in API responses
type TenantResponse struct {
	ID               uuid.UUID  `json:"id"`
	AgencyID         uuid.UUID  `json:"agency_id"`
	UnitID           *uuid.UUID `json:"unit_id,omitempty"`
	Name             string     `json:"name"`
	Currency         string     `json:"currency"`
	CurrencyExplicit bool       `json:"currency_explicit"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToTenantResponse converts a domain Tenant to TenantResponse
func ToTenantResponse(t *tenancy.Tenant) TenantResponse {
	return TenantResponse{
		ID:               t.ID,
		AgencyID:         t.AgencyID,
		UnitID:           t.UnitID,
		Name:             t.Name,
		Currency:         t.Currency.String(),
		CurrencyExplicit: t.Explicit,
		CreatedAt:        t.CreatedAt,
	}
}

// BuildingResponse represents a building in API responses
type BuildingResponse struct {
	ID       uuid.UUID `json:"id"`
	AgencyID uuid.UUID `json:"agency_id"`
	Name     string    `json:"name"`
	Address  string    `json:"address,omitempty"`
}

// UnitResponse represents a unit in API responses
type UnitResponse struct {
	ID         uuid.UUID `json:"id"`
	BuildingID uuid.UUID `json:"building_id"`
	AgencyID   uuid.UUID `json:"agency_id"`
	Label      string    `json:"label"`
}

// ToUnitResponse converts a domain Unit to UnitResponse
func ToUnitResponse(u *tenancy.Unit) UnitResponse {
	return UnitResponse{ID: u.ID, BuildingID: u.BuildingID, AgencyID: u.AgencyID, Label: u.Label}
}

// AccountResponse represents a user account in API responses
type AccountResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	SubjectID uuid.UUID `json:"subject_id"`
	Active    bool      `json:"active"`
}

// ToAccountResponse converts a domain UserAccount to AccountResponse
func ToAccountResponse(u *tenancy.UserAccount) AccountResponse {
	return AccountResponse{ID: u.ID, Email: u.Email, Role: string(u.Role), SubjectID: u.SubjectID, Active: u.Active}
}
