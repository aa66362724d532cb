package maintenance

import (
	"time"

	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Work Request DTOs ====================

// CreateWorkRequestRequest represents a tenant reporting an issue on a unit
type CreateWorkRequestRequest struct {
	UnitID        uuid.UUID `json:"unit_id" binding:"required"`
	Category      string    `json:"category" binding:"required,min=1,max=50"`
	Description   string    `json:"description" binding:"max=2000"`
	DiffusionMode string    `json:"diffusion_mode" binding:"omitempty,oneof=BROADCAST RESTRICTED broadcast restricted"`
	Currency      string    `json:"currency" binding:"omitempty,currency"`
}

// DiffuseWorkRequestRequest represents an agency exposing a request to companies.
// An empty mode keeps the mode chosen at creation.
type DiffuseWorkRequestRequest struct {
	DiffusionMode string      `json:"diffusion_mode" binding:"omitempty,oneof=BROADCAST RESTRICTED broadcast restricted"`
	CompanyIDs    []uuid.UUID `json:"company_ids"`
}

// CancelRequest carries the mandatory cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// WorkRequestListFilter represents filter options for work request list
type WorkRequestListFilter struct {
	Status   string     `form:"status"`
	UnitID   *uuid.UUID `form:"unit_id"`
	TenantID *uuid.UUID `form:"tenant_id"`
	Category string     `form:"category"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// toDomainFilter validates the status and builds the repository filter
func (f WorkRequestListFilter) toDomainFilter() (shared.Filter, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if f.Status != "" {
		status, err := maintenance.ParseRequestStatus(f.Status)
		if err != nil {
			return filter, err
		}
		filter.Filters["status"] = string(status)
	}
	if f.UnitID != nil {
		filter.Filters["unit_id"] = *f.UnitID
	}
	if f.TenantID != nil {
		filter.Filters["tenant_id"] = *f.TenantID
	}
	if f.Category != "" {
		filter.Filters["category"] = f.Category
	}
	return filter.Normalize(), nil
}

// WorkRequestResponse represents a work request in API responses
type WorkRequestResponse struct {
	ID               uuid.UUID   `json:"id"`
	AgencyID         uuid.UUID   `json:"agency_id"`
	UnitID           uuid.UUID   `json:"unit_id"`
	TenantID         uuid.UUID   `json:"tenant_id"`
	Category         string      `json:"category"`
	Description      string      `json:"description"`
	DiffusionMode    string      `json:"diffusion_mode"`
	TargetCompanyIDs []uuid.UUID `json:"target_company_ids,omitempty"`
	Currency         string      `json:"currency"`
	CurrencyExplicit bool        `json:"currency_explicit"`
	Status           string      `json:"status"`
	DiffusedAt       *time.Time  `json:"diffused_at,omitempty"`
	LockedAt         *time.Time  `json:"locked_at,omitempty"`
	ClosedAt         *time.Time  `json:"closed_at,omitempty"`
	CancelledAt      *time.Time  `json:"cancelled_at,omitempty"`
	CancelReason     string      `json:"cancel_reason,omitempty"`
	Version          int         `json:"version"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// ToWorkRequestResponse converts a domain WorkRequest to WorkRequestResponse
func ToWorkRequestResponse(r *maintenance.WorkRequest) WorkRequestResponse {
	return WorkRequestResponse{
		ID:               r.ID,
		AgencyID:         r.AgencyID,
		UnitID:           r.UnitID,
		TenantID:         r.TenantID,
		Category:         r.Category,
		Description:      r.Description,
		DiffusionMode:    string(r.DiffusionMode),
		TargetCompanyIDs: r.TargetCompanyIDs,
		Currency:         r.Currency.String(),
		CurrencyExplicit: r.Explicit,
		Status:           string(r.Status),
		DiffusedAt:       r.DiffusedAt,
		LockedAt:         r.LockedAt,
		ClosedAt:         r.ClosedAt,
		CancelledAt:      r.CancelledAt,
		CancelReason:     r.CancelReason,
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

// ToWorkRequestResponses converts a slice of domain WorkRequests
func ToWorkRequestResponses(requests []maintenance.WorkRequest) []WorkRequestResponse {
	out := make([]WorkRequestResponse, len(requests))
	for i := range requests {
		out[i] = ToWorkRequestResponse(&requests[i])
	}
	return out
}

// ==================== Work Order DTOs ====================

// AcceptWorkRequestRequest represents a company taking on a diffused request
type AcceptWorkRequestRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	Currency string           `json:"currency" binding:"omitempty,currency"`
}

// AssignTechnicianRequest names the technician doing the work
type AssignTechnicianRequest struct {
	TechnicianID uuid.UUID `json:"technician_id" binding:"required"`
}

// CompleteWorkOrderRequest closes the work with an optional report and final amount
type CompleteWorkOrderRequest struct {
	ReportRef string           `json:"report_ref" binding:"max=500"`
	Amount    *decimal.Decimal `json:"amount"`
}

// WorkOrderListFilter represents filter options for work order list
type WorkOrderListFilter struct {
	Status       string     `form:"status"`
	RequestID    *uuid.UUID `form:"request_id"`
	CompanyID    *uuid.UUID `form:"company_id"`
	TechnicianID *uuid.UUID `form:"technician_id"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

func (f WorkOrderListFilter) toDomainFilter() (shared.Filter, error) {
	filter := shared.Filter{
		Page:     f.Page,
		PageSize: f.PageSize,
		OrderBy:  f.OrderBy,
		OrderDir: f.OrderDir,
		Filters:  make(map[string]interface{}),
	}
	if f.Status != "" {
		status, err := maintenance.ParseOrderStatus(f.Status)
		if err != nil {
			return filter, err
		}
		filter.Filters["status"] = string(status)
	}
	if f.RequestID != nil {
		filter.Filters["request_id"] = *f.RequestID
	}
	if f.CompanyID != nil {
		filter.Filters["company_id"] = *f.CompanyID
	}
	if f.TechnicianID != nil {
		filter.Filters["technician_id"] = *f.TechnicianID
	}
	return filter.Normalize(), nil
}

// WorkOrderResponse represents a work order in API responses
type WorkOrderResponse struct {
	ID               uuid.UUID       `json:"id"`
	AgencyID         uuid.UUID       `json:"agency_id"`
	RequestID        uuid.UUID       `json:"request_id"`
	CompanyID        uuid.UUID       `json:"company_id"`
	TechnicianID     *uuid.UUID      `json:"technician_id,omitempty"`
	Status           string          `json:"status"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	CurrencyExplicit bool            `json:"currency_explicit"`
	ReportRef        string          `json:"report_ref,omitempty"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	ValidatedAt      *time.Time      `json:"validated_at,omitempty"`
	CancelledAt      *time.Time      `json:"cancelled_at,omitempty"`
	CancelReason     string          `json:"cancel_reason,omitempty"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ToWorkOrderResponse converts a domain WorkOrder to WorkOrderResponse
func ToWorkOrderResponse(o *maintenance.WorkOrder) WorkOrderResponse {
	return WorkOrderResponse{
		ID:               o.ID,
		AgencyID:         o.AgencyID,
		RequestID:        o.RequestID,
		CompanyID:        o.CompanyID,
		TechnicianID:     o.TechnicianID,
		Status:           string(o.Status),
		Amount:           o.Amount,
		Currency:         o.Currency.String(),
		CurrencyExplicit: o.Explicit,
		ReportRef:        o.ReportRef,
		StartedAt:        o.StartedAt,
		CompletedAt:      o.CompletedAt,
		ValidatedAt:      o.ValidatedAt,
		CancelledAt:      o.CancelledAt,
		CancelReason:     o.CancelReason,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// ToWorkOrderResponses converts a slice of domain WorkOrders
func ToWorkOrderResponses(orders []maintenance.WorkOrder) []WorkOrderResponse {
	out := make([]WorkOrderResponse, len(orders))
	for i := range orders {
		out[i] = ToWorkOrderResponse(&orders[i])
	}
	return out
}
