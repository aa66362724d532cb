package invoicing

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceRepository defines the interface for invoice persistence.
// Every read takes the caller's scope; rows outside it are reported as not found.
type InvoiceRepository interface {
	// FindByID finds an invoice with its lines
	FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Invoice, error)
	// FindByOrder finds the invoice of a work order
	FindByOrder(ctx context.Context, scope access.Scope, orderID uuid.UUID) (*Invoice, error)
	// ExistsForOrder reports whether the order already has an invoice
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	// FindAll lists invoices; supported filters: status, order_id, company_id, year
	FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]Invoice, error)
	Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error)
	// Create inserts an invoice with its lines; a second invoice for the same order is a conflict
	Create(ctx context.Context, invoice *Invoice) error
	// SaveWithLock saves with optimistic locking (version check) and rewrites the lines
	SaveWithLock(ctx context.Context, invoice *Invoice) error
}

// SequenceRepository allocates invoice numbers
type SequenceRepository interface {
	// Next returns the next sequence value for agencyID in year, starting at 1.
	// The counter row is updated in the caller's transaction, so a rolled back
	// invoice leaves no gap and concurrent allocations serialize on the row.
	Next(ctx context.Context, agencyID uuid.UUID, year int) (int64, error)
}
