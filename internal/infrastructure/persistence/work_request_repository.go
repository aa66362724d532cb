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

var workRequestFilterColumns = map[string]string{
	"status":    "work_requests.status",
	"unit_id":   "work_requests.unit_id",
	"tenant_id": "work_requests.tenant_id",
	"category":  "work_requests.category",
}

// GormWorkRequestRepository implements WorkRequestRepository using GORM
type GormWorkRequestRepository struct {
	db *gorm.DB
}

// NewGormWorkRequestRepository creates a new GormWorkRequestRepository
func NewGormWorkRequestRepository(db *gorm.DB) *GormWorkRequestRepository {
	return &GormWorkRequestRepository{db: db}
}

func (r *GormWorkRequestRepository) scoped(ctx context.Context, scope access.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.WorkRequestModel{}).Scopes(datascope.Apply(scope, datascope.WorkRequests))
}

// FindByID finds a request visible in scope, with its targets
func (r *GormWorkRequestRepository) FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*maintenance.WorkRequest, error) {
	var model models.WorkRequestModel
	if err := r.scoped(ctx, scope).
		Preload("Targets").
		Where("work_requests.id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Work request")
	}
	return model.ToDomain(), nil
}

// FindAll lists the requests visible in scope
func (r *GormWorkRequestRepository) FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]maintenance.WorkRequest, error) {
	var rows []models.WorkRequestModel
	query := listQuery(r.scoped(ctx, scope).Preload("Targets"), "work_requests", filter, workRequestFilterColumns, WorkRequestSortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]maintenance.WorkRequest, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts the requests visible in scope
func (r *GormWorkRequestRepository) Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error) {
	var count int64
	err := whereFilter(r.scoped(ctx, scope), filter, workRequestFilterColumns).Count(&count).Error
	return count, err
}

// Create inserts a new request and its targets
func (r *GormWorkRequestRepository) Create(ctx context.Context, request *maintenance.WorkRequest) error {
	return translateError(r.db.WithContext(ctx).Create(models.WorkRequestModelFromDomain(request)).Error)
}

// SaveWithLock saves with optimistic locking (version check) and rewrites the targets
func (r *GormWorkRequestRepository) SaveWithLock(ctx context.Context, request *maintenance.WorkRequest) error {
	db := r.db.WithContext(ctx)
	err := lockedUpdate(db, &models.WorkRequestModel{}, request.ID, request.Version, map[string]interface{}{
		"category":          request.Category,
		"description":       request.Description,
		"diffusion_mode":    request.DiffusionMode,
		"currency":          request.Currency,
		"currency_explicit": request.Explicit,
		"status":            request.Status,
		"diffused_at":       request.DiffusedAt,
		"locked_at":         request.LockedAt,
		"closed_at":         request.ClosedAt,
		"cancelled_at":      request.CancelledAt,
		"cancel_reason":     request.CancelReason,
		"updated_at":        request.UpdatedAt,
	})
	if err != nil {
		return err
	}

	if err := db.Where("request_id = ?", request.ID).Delete(&models.WorkRequestTargetModel{}).Error; err != nil {
		return err
	}
	if len(request.TargetCompanyIDs) > 0 {
		targets := make([]models.WorkRequestTargetModel, len(request.TargetCompanyIDs))
		for i, companyID := range request.TargetCompanyIDs {
			targets[i] = models.WorkRequestTargetModel{RequestID: request.ID, CompanyID: companyID}
		}
		if err := db.Create(&targets).Error; err != nil {
			return translateError(err)
		}
	}

	request.Saved()
	return nil
}

var _ maintenance.WorkRequestRepository = (*GormWorkRequestRepository)(nil)
