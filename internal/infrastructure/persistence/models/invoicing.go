package models

import (
	"time"

	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice domain entity.
type InvoiceModel struct {
	AgencyAggregateModel
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CompanyID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	Number           string          `gorm:"type:varchar(30);not null"`
	Year             int             `gorm:"not null"`
	Sequence         int64           `gorm:"not null"`
	NetAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	GrossAmount      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CommissionAmount decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TaxRate          decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0"`
	CommissionRate   decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0"`
	CurrencyColumns
	Status        invoicing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	Notes         string                  `gorm:"type:text"`
	RefusalReason string                  `gorm:"type:varchar(500)"`
	SentAt        *time.Time
	PaidAt        *time.Time
	RefusedAt     *time.Time
	Lines         []InvoiceLineModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice entity.
func (m *InvoiceModel) ToDomain() *invoicing.Invoice {
	lines := make([]invoicing.InvoiceLine, len(m.Lines))
	for i := range m.Lines {
		lines[i] = m.Lines[i].ToDomain()
	}
	return &invoicing.Invoice{
		AgencyAggregateRoot: m.ToAgencyAggregateRoot(),
		OrderID:             m.OrderID,
		CompanyID:           m.CompanyID,
		Number:              m.Number,
		Year:                m.Year,
		Sequence:            m.Sequence,
		NetAmount:           m.NetAmount,
		TaxAmount:           m.TaxAmount,
		GrossAmount:         m.GrossAmount,
		CommissionAmount:    m.CommissionAmount,
		TaxRate:             m.TaxRate,
		CommissionRate:      m.CommissionRate,
		CurrencySetting:     m.ToSetting(),
		Status:              m.Status,
		Notes:               m.Notes,
		RefusalReason:       m.RefusalReason,
		SentAt:              m.SentAt,
		PaidAt:              m.PaidAt,
		RefusedAt:           m.RefusedAt,
		Lines:               lines,
	}
}

// FromDomain populates the persistence model from a domain Invoice entity.
func (m *InvoiceModel) FromDomain(i *invoicing.Invoice) {
	m.FromDomainAgencyAggregateRoot(i.AgencyAggregateRoot)
	m.OrderID = i.OrderID
	m.CompanyID = i.CompanyID
	m.Number = i.Number
	m.Year = i.Year
	m.Sequence = i.Sequence
	m.NetAmount = i.NetAmount
	m.TaxAmount = i.TaxAmount
	m.GrossAmount = i.GrossAmount
	m.CommissionAmount = i.CommissionAmount
	m.TaxRate = i.TaxRate
	m.CommissionRate = i.CommissionRate
	m.FromSetting(i.CurrencySetting)
	m.Status = i.Status
	m.Notes = i.Notes
	m.RefusalReason = i.RefusalReason
	m.SentAt = i.SentAt
	m.PaidAt = i.PaidAt
	m.RefusedAt = i.RefusedAt
	m.Lines = make([]InvoiceLineModel, len(i.Lines))
	for idx := range i.Lines {
		m.Lines[idx] = InvoiceLineModelFromDomain(i.Lines[idx])
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice entity.
func InvoiceModelFromDomain(i *invoicing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(i)
	return m
}

// InvoiceLineModel is the persistence model for one invoice line.
type InvoiceLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position    int             `gorm:"not null"`
	Description string          `gorm:"type:varchar(500);not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (InvoiceLineModel) TableName() string {
	return "invoice_lines"
}

// ToDomain converts the persistence model to a domain InvoiceLine.
func (m *InvoiceLineModel) ToDomain() invoicing.InvoiceLine {
	return invoicing.InvoiceLine{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Position:    m.Position,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		LineTotal:   m.LineTotal,
	}
}

// InvoiceLineModelFromDomain creates a new persistence model from a domain InvoiceLine.
func InvoiceLineModelFromDomain(l invoicing.InvoiceLine) InvoiceLineModel {
	return InvoiceLineModel{
		ID:          l.ID,
		InvoiceID:   l.InvoiceID,
		Position:    l.Position,
		Description: l.Description,
		Quantity:    l.Quantity,
		UnitPrice:   l.UnitPrice,
		LineTotal:   l.LineTotal,
	}
}

// InvoiceSequenceModel is the per-agency, per-year invoice number counter.
type InvoiceSequenceModel struct {
	AgencyID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Year      int       `gorm:"primaryKey"`
	LastValue int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
