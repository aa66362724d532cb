package persistence

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/persistence/datascope"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var workOrderFilterColumns = map[string]string{
	"status":        "work_orders.status",
	"request_id":    "work_orders.request_id",
	"company_id":    "work_orders.company_id",
	"technician_id": "work_orders.technician_id",
}

// GormWorkOrderRepository implements WorkOrderRepository using GORM
type GormWorkOrderRepository struct {
	db *gorm.DB
}

// NewGormWorkOrderRepository creates a new GormWorkOrderRepository
func NewGormWorkOrderRepository(db *gorm.DB) *GormWorkOrderRepository {
	return &GormWorkOrderRepository{db: db}
}

func (r *GormWorkOrderRepository) scoped(ctx context.Context, scope access.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.WorkOrderModel{}).Scopes(datascope.Apply(scope, datascope.WorkOrders))
}

// FindByID finds an order visible in scope
func (r *GormWorkOrderRepository) FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*maintenance.WorkOrder, error) {
	var model models.WorkOrderModel
	if err := r.scoped(ctx, scope).Where("work_orders.id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err, "Work order")
	}
	return model.ToDomain(), nil
}

// FindActiveByRequest finds the non-cancelled order of a request
func (r *GormWorkOrderRepository) FindActiveByRequest(ctx context.Context, scope access.Scope, requestID uuid.UUID) (*maintenance.WorkOrder, error) {
	var model models.WorkOrderModel
	if err := r.scoped(ctx, scope).
		Where("work_orders.request_id = ? AND work_orders.status <> ?", requestID, maintenance.OrderStatusCancelled).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Work order")
	}
	return model.ToDomain(), nil
}

// FindAll lists the orders visible in scope
func (r *GormWorkOrderRepository) FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]maintenance.WorkOrder, error) {
	var rows []models.WorkOrderModel
	query := listQuery(r.scoped(ctx, scope), "work_orders", filter, workOrderFilterColumns, WorkOrderSortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]maintenance.WorkOrder, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts the orders visible in scope
func (r *GormWorkOrderRepository) Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error) {
	var count int64
	err := whereFilter(r.scoped(ctx, scope), filter, workOrderFilterColumns).Count(&count).Error
	return count, err
}

// Create inserts a new order. The partial unique index on active orders turns
// a second concurrent acceptance into a duplicate key, reported as a conflict.
func (r *GormWorkOrderRepository) Create(ctx context.Context, order *maintenance.WorkOrder) error {
	return translateError(r.db.WithContext(ctx).Create(models.WorkOrderModelFromDomain(order)).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormWorkOrderRepository) SaveWithLock(ctx context.Context, order *maintenance.WorkOrder) error {
	err := lockedUpdate(r.db.WithContext(ctx), &models.WorkOrderModel{}, order.ID, order.Version, map[string]interface{}{
		"technician_id":     order.TechnicianID,
		"status":            order.Status,
		"amount":            order.Amount,
		"currency":          order.Currency,
		"currency_explicit": order.Explicit,
		"report_ref":        order.ReportRef,
		"started_at":        order.StartedAt,
		"completed_at":      order.CompletedAt,
		"validated_at":      order.ValidatedAt,
		"cancelled_at":      order.CancelledAt,
		"cancel_reason":     order.CancelReason,
		"updated_at":        order.UpdatedAt,
	})
	if err != nil {
		return err
	}
	order.Saved()
	return nil
}

var _ maintenance.WorkOrderRepository = (*GormWorkOrderRepository)(nil)
