package maintenance

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// WorkRequestRepository defines the interface for work request persistence.
// Every read takes the caller's scope; rows outside it are reported as not found.
type WorkRequestRepository interface {
	// FindByID finds a request with its diffusion targets
	FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*WorkRequest, error)
	// FindAll lists requests; supported filters: status, unit_id, tenant_id, category
	FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]WorkRequest, error)
	Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error)
	Create(ctx context.Context, request *WorkRequest) error
	// SaveWithLock saves with optimistic locking (version check) and rewrites the targets
	SaveWithLock(ctx context.Context, request *WorkRequest) error
}

// WorkOrderRepository defines the interface for work order persistence
type WorkOrderRepository interface {
	FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*WorkOrder, error)
	// FindActiveByRequest finds the non-cancelled order of a request
	FindActiveByRequest(ctx context.Context, scope access.Scope, requestID uuid.UUID) (*WorkOrder, error)
	// FindAll lists orders; supported filters: status, request_id, company_id, technician_id
	FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]WorkOrder, error)
	Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error)
	// Create inserts an order; a second active order for the same request is a conflict
	Create(ctx context.Context, order *WorkOrder) error
	SaveWithLock(ctx context.Context, order *WorkOrder) error
}
