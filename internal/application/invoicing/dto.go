package invoicing

import (
	"time"

	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceLineInput represents one line in an edit request
type InvoiceLineInput struct {
	Description string          `json:"description" binding:"required,min=1,max=500"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
}

// EditInvoiceRequest replaces the lines and/or notes of a draft.
// An absent field keeps the current value.
type EditInvoiceRequest struct {
	Lines []InvoiceLineInput `json:"lines" binding:"omitempty,dive"`
	Notes *string            `json:"notes" binding:"omitempty,max=2000"`
}

func (r EditInvoiceRequest) lineInputs() []invoicing.LineInput {
	if r.Lines == nil {
		return nil
	}
	out := make([]invoicing.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		out[i] = invoicing.LineInput{Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return out
}

// SetInvoiceStatusRequest records the agency's decision on a sent invoice
type SetInvoiceStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=PAID REFUSED paid refused"`
	Reason string `json:"reason" binding:"max=500"`
}

// InvoiceListFilter represents filter options for invoice list
type InvoiceListFilter struct {
	Status    string     `form:"status"`
	OrderID   *uuid.UUID `form:"order_id"`
	CompanyID *uuid.UUID `form:"company_id"`
	Year      int        `form:"year" binding:"omitempty,min=2000,max=9999"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f InvoiceListFilter) toDomainFilter() (shared.Filter, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if f.Status != "" {
		status, err := invoicing.ParseInvoiceStatus(f.Status)
		if err != nil {
			return filter, err
		}
		filter.Filters["status"] = string(status)
	}
	if f.OrderID != nil {
		filter.Filters["order_id"] = *f.OrderID
	}
	if f.CompanyID != nil {
		filter.Filters["company_id"] = *f.CompanyID
	}
	if f.Year > 0 {
		filter.Filters["year"] = f.Year
	}
	return filter.Normalize(), nil
}

// InvoiceLineResponse represents an invoice line in API responses
type InvoiceLineResponse struct {
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	AgencyID         uuid.UUID             `json:"agency_id"`
	OrderID          uuid.UUID             `json:"order_id"`
	CompanyID        uuid.UUID             `json:"company_id"`
	Number           string                `json:"number"`
	Status           string                `json:"status"`
	NetAmount        decimal.Decimal       `json:"net_amount"`
	TaxAmount        decimal.Decimal       `json:"tax_amount"`
	GrossAmount      decimal.Decimal       `json:"gross_amount"`
	CommissionAmount decimal.Decimal       `json:"commission_amount"`
	TaxRate          decimal.Decimal       `json:"tax_rate"`
	CommissionRate   decimal.Decimal       `json:"commission_rate"`
	Currency         string                `json:"currency"`
	CurrencyExplicit bool                  `json:"currency_explicit"`
	Notes            string                `json:"notes,omitempty"`
	RefusalReason    string                `json:"refusal_reason,omitempty"`
	SentAt           *time.Time            `json:"sent_at,omitempty"`
	PaidAt           *time.Time            `json:"paid_at,omitempty"`
	RefusedAt        *time.Time            `json:"refused_at,omitempty"`
	Lines            []InvoiceLineResponse `json:"lines"`
	Version          int                   `json:"version"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ToInvoiceResponse converts a domain Invoice to InvoiceResponse
func ToInvoiceResponse(i *invoicing.Invoice) InvoiceResponse {
	lines := make([]InvoiceLineResponse, len(i.Lines))
	for idx, l := range i.Lines {
		lines[idx] = InvoiceLineResponse{
			Position:    l.Position,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			LineTotal:   l.LineTotal,
		}
	}
	return InvoiceResponse{
		ID:               i.ID,
		AgencyID:         i.AgencyID,
		OrderID:          i.OrderID,
		CompanyID:        i.CompanyID,
		Number:           i.Number,
		Status:           string(i.Status),
		NetAmount:        i.NetAmount,
		TaxAmount:        i.TaxAmount,
		GrossAmount:      i.GrossAmount,
		CommissionAmount: i.CommissionAmount,
		TaxRate:          i.TaxRate,
		CommissionRate:   i.CommissionRate,
		Currency:         i.Currency.String(),
		CurrencyExplicit: i.Explicit,
		Notes:            i.Notes,
		RefusalReason:    i.RefusalReason,
		SentAt:           i.SentAt,
		PaidAt:           i.PaidAt,
		RefusedAt:        i.RefusedAt,
		Lines:            lines,
		Version:          i.Version,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
	}
}

// ToInvoiceResponses converts a slice of domain Invoices
func ToInvoiceResponses(invoices []invoicing.Invoice) []InvoiceResponse {
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i])
	}
	return out
}
