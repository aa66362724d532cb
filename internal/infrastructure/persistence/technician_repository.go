package persistence

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/fixflow/backend/internal/infrastructure/persistence/datascope"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var technicianFilterColumns = map[string]string{
	"company_id": "technicians.company_id",
	"active":     "technicians.active",
}

// GormTechnicianRepository implements TechnicianRepository using GORM
type GormTechnicianRepository struct {
	db *gorm.DB
}

// NewGormTechnicianRepository creates a new GormTechnicianRepository
func NewGormTechnicianRepository(db *gorm.DB) *GormTechnicianRepository {
	return &GormTechnicianRepository{db: db}
}

func (r *GormTechnicianRepository) scoped(ctx context.Context, scope access.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.TechnicianModel{}).Scopes(datascope.Apply(scope, datascope.Technicians))
}

// FindByID finds a technician visible in scope
func (r *GormTechnicianRepository) FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*tenancy.Technician, error) {
	var model models.TechnicianModel
	if err := r.scoped(ctx, scope).Where("technicians.id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err, "Technician")
	}
	return model.ToDomain(), nil
}

// FindAll lists the technicians visible in scope
func (r *GormTechnicianRepository) FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]tenancy.Technician, error) {
	var rows []models.TechnicianModel
	query := listQuery(r.scoped(ctx, scope), "technicians", filter, technicianFilterColumns, DirectorySortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tenancy.Technician, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts the technicians visible in scope
func (r *GormTechnicianRepository) Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error) {
	var count int64
	err := whereFilter(r.scoped(ctx, scope), filter, technicianFilterColumns).Count(&count).Error
	return count, err
}

// Create inserts a new technician
func (r *GormTechnicianRepository) Create(ctx context.Context, technician *tenancy.Technician) error {
	return translateError(r.db.WithContext(ctx).Create(models.TechnicianModelFromDomain(technician)).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormTechnicianRepository) SaveWithLock(ctx context.Context, technician *tenancy.Technician) error {
	err := lockedUpdate(r.db.WithContext(ctx), &models.TechnicianModel{}, technician.ID, technician.Version, map[string]interface{}{
		"name":       technician.Name,
		"active":     technician.Active,
		"updated_at": technician.UpdatedAt,
	})
	if err != nil {
		return err
	}
	technician.Saved()
	return nil
}

var _ tenancy.TechnicianRepository = (*GormTechnicianRepository)(nil)
