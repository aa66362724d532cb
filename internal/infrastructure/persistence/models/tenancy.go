package models

import (
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgencyModel is the persistence model for the Agency domain entity.
type AgencyModel struct {
	AggregateModel
	Name             string                   `gorm:"type:varchar(200);not null"`
	Currency         valueobject.Currency     `gorm:"type:varchar(3);not null"`
	ValidationStatus tenancy.ValidationStatus `gorm:"type:varchar(20);not null;default:'PENDING'"`
	TaxRate          decimal.Decimal          `gorm:"type:decimal(6,4);not null;default:0"`
	CommissionRate   decimal.Decimal          `gorm:"type:decimal(6,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (AgencyModel) TableName() string {
	return "agencies"
}

// ToDomain converts the persistence model to a domain Agency entity.
func (m *AgencyModel) ToDomain() *tenancy.Agency {
	return &tenancy.Agency{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Currency:          m.Currency,
		ValidationStatus:  m.ValidationStatus,
		TaxRate:           m.TaxRate,
		CommissionRate:    m.CommissionRate,
	}
}

// FromDomain populates the persistence model from a domain Agency entity.
func (m *AgencyModel) FromDomain(a *tenancy.Agency) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.Name = a.Name
	m.Currency = a.Currency
	m.ValidationStatus = a.ValidationStatus
	m.TaxRate = a.TaxRate
	m.CommissionRate = a.CommissionRate
}

// AgencyModelFromDomain creates a new persistence model from a domain Agency entity.
func AgencyModelFromDomain(a *tenancy.Agency) *AgencyModel {
	m := &AgencyModel{}
	m.FromDomain(a)
	return m
}

// ServiceCompanyModel is the persistence model for the ServiceCompany domain entity.
type ServiceCompanyModel struct {
	AggregateModel
	Name     string    `gorm:"type:varchar(200);not null"`
	AgencyID uuid.UUID `gorm:"type:uuid;not null;index"`
	CurrencyColumns
}

// TableName returns the table name for GORM
func (ServiceCompanyModel) TableName() string {
	return "service_companies"
}

// ToDomain converts the persistence model to a domain ServiceCompany entity.
func (m *ServiceCompanyModel) ToDomain() *tenancy.ServiceCompany {
	return &tenancy.ServiceCompany{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		AgencyID:          m.AgencyID,
		CurrencySetting:   m.ToSetting(),
	}
}

// FromDomain populates the persistence model from a domain ServiceCompany entity.
func (m *ServiceCompanyModel) FromDomain(c *tenancy.ServiceCompany) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.AgencyID = c.AgencyID
	m.FromSetting(c.CurrencySetting)
}

// ServiceCompanyModelFromDomain creates a new persistence model from a domain ServiceCompany entity.
func ServiceCompanyModelFromDomain(c *tenancy.ServiceCompany) *ServiceCompanyModel {
	m := &ServiceCompanyModel{}
	m.FromDomain(c)
	return m
}

// TechnicianModel is the persistence model for the Technician domain entity.
type TechnicianModel struct {
	AggregateModel
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	Active    bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TechnicianModel) TableName() string {
	return "technicians"
}

// ToDomain converts the persistence model to a domain Technician entity.
func (m *TechnicianModel) ToDomain() *tenancy.Technician {
	return &tenancy.Technician{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CompanyID:         m.CompanyID,
		Name:              m.Name,
		Active:            m.Active,
	}
}

// FromDomain populates the persistence model from a domain Technician entity.
func (m *TechnicianModel) FromDomain(t *tenancy.Technician) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.CompanyID = t.CompanyID
	m.Name = t.Name
	m.Active = t.Active
}

// TechnicianModelFromDomain creates a new persistence model from a domain Technician entity.
func TechnicianModelFromDomain(t *tenancy.Technician) *TechnicianModel {
	m := &TechnicianModel{}
	m.FromDomain(t)
	return m
}

// TenantModel is the persistence model for the residential Tenant domain entity.
type TenantModel struct {
	AggregateModel
	AgencyID uuid.UUID  `gorm:"type:uuid;not null;index"`
	UnitID   *uuid.UUID `gorm:"type:uuid;index"`
	Name     string     `gorm:"type:varchar(200);not null"`
	CurrencyColumns
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant entity.
func (m *TenantModel) ToDomain() *tenancy.Tenant {
	return &tenancy.Tenant{
		BaseAggregateRoot: m.ToAggregateRoot(),
		AgencyID:          m.AgencyID,
		UnitID:            m.UnitID,
		Name:              m.Name,
		CurrencySetting:   m.ToSetting(),
	}
}

// FromDomain populates the persistence model from a domain Tenant entity.
func (m *TenantModel) FromDomain(t *tenancy.Tenant) {
	m.FromDomainAggregateRoot(t.BaseAggregateRoot)
	m.AgencyID = t.AgencyID
	m.UnitID = t.UnitID
	m.Name = t.Name
	m.FromSetting(t.CurrencySetting)
}

// TenantModelFromDomain creates a new persistence model from a domain Tenant entity.
func TenantModelFromDomain(t *tenancy.Tenant) *TenantModel {
	m := &TenantModel{}
	m.FromDomain(t)
	return m
}

// BuildingModel is the persistence model for the Building domain entity.
type BuildingModel struct {
	BaseModel
	AgencyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name     string    `gorm:"type:varchar(200);not null"`
	Address  string    `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (BuildingModel) TableName() string {
	return "buildings"
}

// ToDomain converts the persistence model to a domain Building entity.
func (m *BuildingModel) ToDomain() *tenancy.Building {
	return &tenancy.Building{
		BaseEntity: m.BaseModel.ToDomain(),
		AgencyID:   m.AgencyID,
		Name:       m.Name,
		Address:    m.Address,
	}
}

// BuildingModelFromDomain creates a new persistence model from a domain Building entity.
func BuildingModelFromDomain(b *tenancy.Building) *BuildingModel {
	m := &BuildingModel{
		AgencyID: b.AgencyID,
		Name:     b.Name,
		Address:  b.Address,
	}
	m.FromDomainBaseEntity(b.BaseEntity)
	return m
}

// UnitModel is the persistence model for the Unit domain entity.
type UnitModel struct {
	BaseModel
	BuildingID uuid.UUID `gorm:"type:uuid;not null;index"`
	AgencyID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Label      string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (UnitModel) TableName() string {
	return "units"
}

// ToDomain converts the persistence model to a domain Unit entity.
func (m *UnitModel) ToDomain() *tenancy.Unit {
	return &tenancy.Unit{
		BaseEntity: m.BaseModel.ToDomain(),
		BuildingID: m.BuildingID,
		AgencyID:   m.AgencyID,
		Label:      m.Label,
	}
}

// UnitModelFromDomain creates a new persistence model from a domain Unit entity.
func UnitModelFromDomain(u *tenancy.Unit) *UnitModel {
	m := &UnitModel{
		BuildingID: u.BuildingID,
		AgencyID:   u.AgencyID,
		Label:      u.Label,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}

// UserAccountModel is the persistence model for the UserAccount domain entity.
type UserAccountModel struct {
	BaseModel
	Email     string      `gorm:"type:varchar(200);not null;uniqueIndex"`
	Role      access.Role `gorm:"type:varchar(20);not null"`
	SubjectID uuid.UUID   `gorm:"type:uuid;not null;index"`
	Active    bool        `gorm:"not null"`
}

// TableName returns the table name for GORM
func (UserAccountModel) TableName() string {
	return "user_accounts"
}

// ToDomain converts the persistence model to a domain UserAccount entity.
func (m *UserAccountModel) ToDomain() *tenancy.UserAccount {
	return &tenancy.UserAccount{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Email:      m.Email,
		Role:       m.Role,
		SubjectID:  m.SubjectID,
		Active:     m.Active,
	}
}

// UserAccountModelFromDomain creates a new persistence model from a domain UserAccount entity.
func UserAccountModelFromDomain(u *tenancy.UserAccount) *UserAccountModel {
	m := &UserAccountModel{
		Email:     u.Email,
		Role:      u.Role,
		SubjectID: u.SubjectID,
		Active:    u.Active,
	}
	m.FromDomainBaseEntity(u.BaseEntity)
	return m
}
