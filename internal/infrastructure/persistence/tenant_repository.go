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

var tenantFilterColumns = map[string]string{
	"agency_id": "tenants.agency_id",
	"unit_id":   "tenants.unit_id",
}

// GormTenantRepository implements TenantRepository using GORM
type GormTenantRepository struct {
	db *gorm.DB
}

// NewGormTenantRepository creates a new GormTenantRepository
func NewGormTenantRepository(db *gorm.DB) *GormTenantRepository {
	return &GormTenantRepository{db: db}
}

func (r *GormTenantRepository) scoped(ctx context.Context, scope access.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.TenantModel{}).Scopes(datascope.Apply(scope, datascope.Tenants))
}

// FindByID finds a tenant visible in scope
func (r *GormTenantRepository) FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*tenancy.Tenant, error) {
	var model models.TenantModel
	if err := r.scoped(ctx, scope).Where("tenants.id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err, "Tenant")
	}
	return model.ToDomain(), nil
}

// FindAll lists the tenants visible in scope
func (r *GormTenantRepository) FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]tenancy.Tenant, error) {
	var rows []models.TenantModel
	query := listQuery(r.scoped(ctx, scope), "tenants", filter, tenantFilterColumns, DirectorySortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tenancy.Tenant, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts the tenants visible in scope
func (r *GormTenantRepository) Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error) {
	var count int64
	err := whereFilter(r.scoped(ctx, scope), filter, tenantFilterColumns).Count(&count).Error
	return count, err
}

// Create inserts a new tenant
func (r *GormTenantRepository) Create(ctx context.Context, tenant *tenancy.Tenant) error {
	return translateError(r.db.WithContext(ctx).Create(models.TenantModelFromDomain(tenant)).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormTenantRepository) SaveWithLock(ctx context.Context, tenant *tenancy.Tenant) error {
	err := lockedUpdate(r.db.WithContext(ctx), &models.TenantModel{}, tenant.ID, tenant.Version, map[string]interface{}{
		"agency_id":         tenant.AgencyID,
		"unit_id":           tenant.UnitID,
		"name":              tenant.Name,
		"currency":          tenant.Currency,
		"currency_explicit": tenant.Explicit,
		"updated_at":        tenant.UpdatedAt,
	})
	if err != nil {
		return err
	}
	tenant.Saved()
	return nil
}

var _ tenancy.TenantRepository = (*GormTenantRepository)(nil)
