package invoicing

import (
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypeInvoice = "Invoice"

// Event type constants
const (
	EventTypeInvoiceCreated = "InvoiceCreated"
	EventTypeInvoiceEdited  = "InvoiceEdited"
	EventTypeInvoiceSent    = "InvoiceSent"
	EventTypeInvoicePaid    = "InvoicePaid"
	EventTypeInvoiceRefused = "InvoiceRefused"
)

// InvoiceCreatedEvent is raised when a draft is generated for a completed order
type InvoiceCreatedEvent struct {
	shared.BaseStatusChangeEvent
	OrderID     uuid.UUID            `json:"order_id"`
	Number      string               `json:"number"`
	GrossAmount decimal.Decimal      `json:"gross_amount"`
	Currency    valueobject.Currency `json:"currency"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(i *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseStatusChangeEvent: invoiceChange(EventTypeInvoiceCreated, i, ""),
		OrderID:               i.OrderID,
		Number:                i.Number,
		GrossAmount:           i.GrossAmount,
		Currency:              i.Currency,
	}
}

// InvoiceEditedEvent is raised when a draft's lines or notes change
type InvoiceEditedEvent struct {
	shared.BaseDomainEvent
	NetAmount   decimal.Decimal `json:"net_amount"`
	GrossAmount decimal.Decimal `json:"gross_amount"`
	LineCount   int             `json:"line_count"`
}

// NewInvoiceEditedEvent creates a new InvoiceEditedEvent
func NewInvoiceEditedEvent(i *Invoice) *InvoiceEditedEvent {
	return &InvoiceEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceEdited, AggregateTypeInvoice, i.ID, i.AgencyID),
		NetAmount:       i.NetAmount,
		GrossAmount:     i.GrossAmount,
		LineCount:       len(i.Lines),
	}
}

// InvoiceSentEvent is raised when the company issues the invoice
type InvoiceSentEvent struct {
	shared.BaseStatusChangeEvent
	Number string `json:"number"`
}

// NewInvoiceSentEvent creates a new InvoiceSentEvent
func NewInvoiceSentEvent(i *Invoice, from InvoiceStatus) *InvoiceSentEvent {
	return &InvoiceSentEvent{
		BaseStatusChangeEvent: invoiceChange(EventTypeInvoiceSent, i, from),
		Number:                i.Number,
	}
}

// InvoicePaidEvent triggers validation of the order and closure of the request
type InvoicePaidEvent struct {
	shared.BaseStatusChangeEvent
	OrderID     uuid.UUID            `json:"order_id"`
	GrossAmount decimal.Decimal      `json:"gross_amount"`
	Currency    valueobject.Currency `json:"currency"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(i *Invoice, from InvoiceStatus) *InvoicePaidEvent {
	return &InvoicePaidEvent{
		BaseStatusChangeEvent: invoiceChange(EventTypeInvoicePaid, i, from),
		OrderID:               i.OrderID,
		GrossAmount:           i.GrossAmount,
		Currency:              i.Currency,
	}
}

// InvoiceRefusedEvent is raised when the agency refuses the invoice
type InvoiceRefusedEvent struct {
	shared.BaseStatusChangeEvent
	Reason string `json:"reason"`
}

// NewInvoiceRefusedEvent creates a new InvoiceRefusedEvent
func NewInvoiceRefusedEvent(i *Invoice, from InvoiceStatus) *InvoiceRefusedEvent {
	return &InvoiceRefusedEvent{
		BaseStatusChangeEvent: invoiceChange(EventTypeInvoiceRefused, i, from),
		Reason:                i.RefusalReason,
	}
}

func invoiceChange(eventType string, i *Invoice, from InvoiceStatus) shared.BaseStatusChangeEvent {
	return shared.NewBaseStatusChangeEvent(eventType, AggregateTypeInvoice, i.ID, i.AgencyID, string(from), string(i.Status))
}
