package models

import (
	"time"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel provides common persistence fields for aggregate roots.
// It extends BaseModel with version for optimistic locking.
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToAggregateRoot converts AggregateModel to domain BaseAggregateRoot
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	return shared.BaseAggregateRoot{
		BaseEntity: m.BaseModel.ToDomain(),
		Version:    m.Version,
	}
}

// AgencyAggregateModel provides common persistence fields for agency-scoped aggregate roots.
// The owning agency is denormalized onto every lifecycle row for isolation filtering.
type AgencyAggregateModel struct {
	AggregateModel
	AgencyID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// FromDomainAgencyAggregateRoot populates AgencyAggregateModel from domain AgencyAggregateRoot
func (m *AgencyAggregateModel) FromDomainAgencyAggregateRoot(a shared.AgencyAggregateRoot) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.AgencyID = a.AgencyID
}

// ToAgencyAggregateRoot converts AgencyAggregateModel to domain AgencyAggregateRoot
func (m *AgencyAggregateModel) ToAgencyAggregateRoot() shared.AgencyAggregateRoot {
	return shared.AgencyAggregateRoot{
		BaseAggregateRoot: m.ToAggregateRoot(),
		AgencyID:          m.AgencyID,
	}
}

// CurrencyColumns stores a dependent record's currency and whether it was explicit
type CurrencyColumns struct {
	Currency         valueobject.Currency `gorm:"type:varchar(3);not null"`
	CurrencyExplicit bool                 `gorm:"not null;default:false"`
}

// FromSetting populates the columns from a domain currency setting
func (c *CurrencyColumns) FromSetting(s tenancy.CurrencySetting) {
	c.Currency = s.Currency
	c.CurrencyExplicit = s.Explicit
}

// ToSetting converts the columns to a domain currency setting
func (c CurrencyColumns) ToSetting() tenancy.CurrencySetting {
	return tenancy.CurrencySetting{Currency: c.Currency, Explicit: c.CurrencyExplicit}
}
