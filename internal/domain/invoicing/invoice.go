package invoicing

import (
	"strings"
	"time"

	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft   InvoiceStatus = "DRAFT"
	InvoiceStatusSent    InvoiceStatus = "SENT"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusRefused InvoiceStatus = "REFUSED"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusRefused:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s InvoiceStatus) CanTransitionTo(target InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft:
		return target == InvoiceStatusSent
	case InvoiceStatusSent:
		return target == InvoiceStatusPaid || target == InvoiceStatusRefused
	case InvoiceStatusPaid, InvoiceStatusRefused:
		return false // Terminal states
	}
	return false
}

// ParseInvoiceStatus validates a status value at the boundary
func ParseInvoiceStatus(s string) (InvoiceStatus, error) {
	v := InvoiceStatus(strings.ToUpper(s))
	if !v.IsValid() {
		return "", shared.ValidationFailed("INVALID_STATUS", "Unknown invoice status: "+s)
	}
	return v, nil
}

// InvoiceLine is one billed item
type InvoiceLine struct {
	ID          uuid.UUID
	InvoiceID   uuid.UUID
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// LineInput is the editable content of a line
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

func newInvoiceLine(invoiceID uuid.UUID, position int, in LineInput) (InvoiceLine, error) {
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		return InvoiceLine{}, shared.ValidationFailed("INVALID_LINE", "Line description cannot be empty")
	}
	if !in.Quantity.IsPositive() {
		return InvoiceLine{}, shared.ValidationFailed("INVALID_QUANTITY", "Quantity must be positive")
	}
	if in.UnitPrice.IsNegative() {
		return InvoiceLine{}, shared.ValidationFailed("INVALID_PRICE", "Unit price cannot be negative")
	}
	return InvoiceLine{
		ID:          uuid.New(),
		InvoiceID:   invoiceID,
		Position:    position,
		Description: desc,
		Quantity:    in.Quantity,
		UnitPrice:   in.UnitPrice,
		LineTotal:   valueobject.RoundAmount(in.Quantity.Mul(in.UnitPrice)),
	}, nil
}

// Invoice bills the agency for a completed work order.
// Amounts are derived from the lines and the rates snapshotted at creation.
type Invoice struct {
	shared.AgencyAggregateRoot
	OrderID          uuid.UUID
	CompanyID        uuid.UUID
	Number           string
	Year             int
	Sequence         int64
	NetAmount        decimal.Decimal
	TaxAmount        decimal.Decimal
	GrossAmount      decimal.Decimal
	CommissionAmount decimal.Decimal
	TaxRate          decimal.Decimal
	CommissionRate   decimal.Decimal
	tenancy.CurrencySetting
	Status        InvoiceStatus
	Notes         string
	RefusalReason string
	SentAt        *time.Time
	PaidAt        *time.Time
	RefusedAt     *time.Time
	Lines         []InvoiceLine
}

// NewInvoiceForOrder creates a draft invoice seeded with one line equal to the order amount.
// The currency follows the order, keeping an explicit override protected.
func NewInvoiceForOrder(order *maintenance.WorkOrder, format NumberFormat, year int, seq int64, taxRate, commissionRate decimal.Decimal) (*Invoice, error) {
	if order.Status != maintenance.OrderStatusCompleted {
		return nil, shared.PreconditionFailed("ORDER_NOT_COMPLETED", "Invoices are created for completed work orders only")
	}
	if seq <= 0 {
		return nil, shared.ValidationFailed("INVALID_SEQUENCE", "Invoice sequence must be positive")
	}

	inv := &Invoice{
		AgencyAggregateRoot: shared.NewAgencyAggregateRoot(order.AgencyID),
		OrderID:             order.ID,
		CompanyID:           order.CompanyID,
		Number:              format.Format(year, seq),
		Year:                year,
		Sequence:            seq,
		TaxRate:             taxRate,
		CommissionRate:      commissionRate,
		CurrencySetting:     tenancy.Inherit(order.CurrencySetting),
		Status:              InvoiceStatusDraft,
	}
	line, err := newInvoiceLine(inv.ID, 1, LineInput{
		Description: "Work order " + order.ID.String(),
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   order.Amount,
	})
	if err != nil {
		return nil, err
	}
	inv.Lines = []InvoiceLine{line}
	inv.recalculate()
	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))
	return inv, nil
}

// Edit replaces the lines and/or notes of a draft. A nil argument keeps the current value.
func (i *Invoice) Edit(lines []LineInput, notes *string) error {
	if i.Status != InvoiceStatusDraft {
		return shared.PreconditionFailed("INVOICE_NOT_DRAFT", "Only draft invoices can be edited")
	}
	if lines != nil {
		if len(lines) == 0 {
			return shared.ValidationFailed("EMPTY_LINES", "Invoice must have at least one line")
		}
		built := make([]InvoiceLine, 0, len(lines))
		for idx, in := range lines {
			line, err := newInvoiceLine(i.ID, idx+1, in)
			if err != nil {
				return err
			}
			built = append(built, line)
		}
		i.Lines = built
		i.recalculate()
	}
	if notes != nil {
		i.Notes = strings.TrimSpace(*notes)
	}
	i.Touch(time.Now())
	i.AddDomainEvent(NewInvoiceEditedEvent(i))
	return nil
}

// recalculate derives every amount from the lines and the snapshotted rates
func (i *Invoice) recalculate() {
	net := decimal.Zero
	for _, l := range i.Lines {
		net = net.Add(l.LineTotal)
	}
	i.NetAmount = valueobject.RoundAmount(net)
	i.TaxAmount = valueobject.ApplyRate(i.NetAmount, i.TaxRate)
	i.GrossAmount = i.NetAmount.Add(i.TaxAmount)
	i.CommissionAmount = valueobject.ApplyRate(i.NetAmount, i.CommissionRate)
}

// Send issues the draft to the agency. Sending a sent invoice is a no-op.
func (i *Invoice) Send() error {
	if i.Status == InvoiceStatusSent {
		return nil
	}
	if err := i.checkTransition(InvoiceStatusSent); err != nil {
		return err
	}
	now := time.Now()
	if i.SentAt == nil {
		i.SentAt = &now
	}
	from := i.setStatus(InvoiceStatusSent, now)
	i.AddDomainEvent(NewInvoiceSentEvent(i, from))
	return nil
}

// SetStatus records the agency's decision on a sent invoice.
// Repeating the decision already recorded is a no-op.
func (i *Invoice) SetStatus(target InvoiceStatus, reason string) error {
	switch target {
	case InvoiceStatusPaid:
		return i.MarkPaid()
	case InvoiceStatusRefused:
		return i.Refuse(reason)
	}
	return shared.ValidationFailed("INVALID_TARGET_STATUS", "Invoice status can only be set to PAID or REFUSED")
}

// MarkPaid settles the invoice; the invoice is immutable afterwards
func (i *Invoice) MarkPaid() error {
	if i.Status == InvoiceStatusPaid {
		return nil
	}
	if err := i.checkTransition(InvoiceStatusPaid); err != nil {
		return err
	}
	now := time.Now()
	i.PaidAt = &now
	from := i.setStatus(InvoiceStatusPaid, now)
	i.AddDomainEvent(NewInvoicePaidEvent(i, from))
	return nil
}

// Refuse rejects the invoice with a reason; refusal is terminal
func (i *Invoice) Refuse(reason string) error {
	if i.Status == InvoiceStatusRefused {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.ValidationFailed("REASON_REQUIRED", "Refusal reason is required")
	}
	if err := i.checkTransition(InvoiceStatusRefused); err != nil {
		return err
	}
	now := time.Now()
	i.RefusedAt = &now
	i.RefusalReason = reason
	from := i.setStatus(InvoiceStatusRefused, now)
	i.AddDomainEvent(NewInvoiceRefusedEvent(i, from))
	return nil
}

// GrossMoney returns the gross amount in the invoice currency
func (i *Invoice) GrossMoney() valueobject.Money {
	return valueobject.NewMoney(i.GrossAmount, i.Currency)
}

func (i *Invoice) checkTransition(target InvoiceStatus) error {
	if !i.Status.CanTransitionTo(target) {
		return shared.PreconditionFailed("INVALID_STATE",
			"Cannot move invoice from "+string(i.Status)+" to "+string(target))
	}
	return nil
}

// setStatus moves to s and returns the previous status
func (i *Invoice) setStatus(s InvoiceStatus, at time.Time) InvoiceStatus {
	from := i.Status
	i.Status = s
	i.Touch(at)
	return from
}
