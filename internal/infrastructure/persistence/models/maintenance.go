package models

import (
	"time"

	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WorkRequestModel is the persistence model for the WorkRequest domain entity.
type WorkRequestModel struct {
	AgencyAggregateModel
	UnitID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	TenantID      uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Category      string                    `gorm:"type:varchar(50);not null"`
	Description   string                    `gorm:"type:text"`
	DiffusionMode maintenance.DiffusionMode `gorm:"type:varchar(20);not null"`
	CurrencyColumns
	Status       maintenance.RequestStatus `gorm:"type:varchar(20);not null;index"`
	DiffusedAt   *time.Time
	LockedAt     *time.Time
	ClosedAt     *time.Time
	CancelledAt  *time.Time
	CancelReason string                   `gorm:"type:varchar(500)"`
	Targets      []WorkRequestTargetModel `gorm:"foreignKey:RequestID;references:ID"`
}

// TableName returns the table name for GORM
func (WorkRequestModel) TableName() string {
	return "work_requests"
}

// ToDomain converts the persistence model to a domain WorkRequest entity.
func (m *WorkRequestModel) ToDomain() *maintenance.WorkRequest {
	var targets []uuid.UUID
	if len(m.Targets) > 0 {
		targets = make([]uuid.UUID, len(m.Targets))
		for i, t := range m.Targets {
			targets[i] = t.CompanyID
		}
	}
	return &maintenance.WorkRequest{
		AgencyAggregateRoot: m.ToAgencyAggregateRoot(),
		UnitID:              m.UnitID,
		TenantID:            m.TenantID,
		Category:            m.Category,
		Description:         m.Description,
		DiffusionMode:       m.DiffusionMode,
		TargetCompanyIDs:    targets,
		CurrencySetting:     m.ToSetting(),
		Status:              m.Status,
		DiffusedAt:          m.DiffusedAt,
		LockedAt:            m.LockedAt,
		ClosedAt:            m.ClosedAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain WorkRequest entity.
func (m *WorkRequestModel) FromDomain(r *maintenance.WorkRequest) {
	m.FromDomainAgencyAggregateRoot(r.AgencyAggregateRoot)
	m.UnitID = r.UnitID
	m.TenantID = r.TenantID
	m.Category = r.Category
	m.Description = r.Description
	m.DiffusionMode = r.DiffusionMode
	m.FromSetting(r.CurrencySetting)
	m.Status = r.Status
	m.DiffusedAt = r.DiffusedAt
	m.LockedAt = r.LockedAt
	m.ClosedAt = r.ClosedAt
	m.CancelledAt = r.CancelledAt
	m.CancelReason = r.CancelReason
	m.Targets = make([]WorkRequestTargetModel, len(r.TargetCompanyIDs))
	for i, companyID := range r.TargetCompanyIDs {
		m.Targets[i] = WorkRequestTargetModel{RequestID: r.ID, CompanyID: companyID}
	}
}

// WorkRequestModelFromDomain creates a new persistence model from a domain WorkRequest entity.
func WorkRequestModelFromDomain(r *maintenance.WorkRequest) *WorkRequestModel {
	m := &WorkRequestModel{}
	m.FromDomain(r)
	return m
}

// WorkRequestTargetModel links a restricted request to one company allowed to see it.
type WorkRequestTargetModel struct {
	RequestID uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (WorkRequestTargetModel) TableName() string {
	return "work_request_targets"
}

// WorkOrderModel is the persistence model for the WorkOrder domain entity.
// At most one non-cancelled order exists per request (partial unique index idx_work_orders_active_request).
type WorkOrderModel struct {
	AgencyAggregateModel
	RequestID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	CompanyID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	TechnicianID *uuid.UUID              `gorm:"type:uuid;index"`
	Status       maintenance.OrderStatus `gorm:"type:varchar(20);not null;index"`
	Amount       decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	CurrencyColumns
	ReportRef    string `gorm:"type:varchar(500)"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ValidatedAt  *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (WorkOrderModel) TableName() string {
	return "work_orders"
}

// ToDomain converts the persistence model to a domain WorkOrder entity.
func (m *WorkOrderModel) ToDomain() *maintenance.WorkOrder {
	return &maintenance.WorkOrder{
		AgencyAggregateRoot: m.ToAgencyAggregateRoot(),
		RequestID:           m.RequestID,
		CompanyID:           m.CompanyID,
		TechnicianID:        m.TechnicianID,
		Status:              m.Status,
		Amount:              m.Amount,
		CurrencySetting:     m.ToSetting(),
		ReportRef:           m.ReportRef,
		StartedAt:           m.StartedAt,
		CompletedAt:         m.CompletedAt,
		ValidatedAt:         m.ValidatedAt,
		CancelledAt:         m.CancelledAt,
		CancelReason:        m.CancelReason,
	}
}

// FromDomain populates the persistence model from a domain WorkOrder entity.
func (m *WorkOrderModel) FromDomain(o *maintenance.WorkOrder) {
	m.FromDomainAgencyAggregateRoot(o.AgencyAggregateRoot)
	m.RequestID = o.RequestID
	m.CompanyID = o.CompanyID
	m.TechnicianID = o.TechnicianID
	m.Status = o.Status
	m.Amount = o.Amount
	m.FromSetting(o.CurrencySetting)
	m.ReportRef = o.ReportRef
	m.StartedAt = o.StartedAt
	m.CompletedAt = o.CompletedAt
	m.ValidatedAt = o.ValidatedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
}

// WorkOrderModelFromDomain creates a new persistence model from a domain WorkOrder entity.
func WorkOrderModelFromDomain(o *maintenance.WorkOrder) *WorkOrderModel {
	m := &WorkOrderModel{}
	m.FromDomain(o)
	return m
}
