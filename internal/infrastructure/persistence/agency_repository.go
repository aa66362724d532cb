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

var agencyFilterColumns = map[string]string{
	"validation_status": "agencies.validation_status",
	"currency":          "agencies.currency",
}

// GormAgencyRepository implements AgencyRepository using GORM
type GormAgencyRepository struct {
	db *gorm.DB
}

// NewGormAgencyRepository creates a new GormAgencyRepository
func NewGormAgencyRepository(db *gorm.DB) *GormAgencyRepository {
	return &GormAgencyRepository{db: db}
}

// FindByID finds an agency visible in scope
func (r *GormAgencyRepository) FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*tenancy.Agency, error) {
	var model models.AgencyModel
	if err := r.db.WithContext(ctx).
		Scopes(datascope.Apply(scope, datascope.Agencies)).
		Where("agencies.id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Agency")
	}
	return model.ToDomain(), nil
}

// FindAll lists the agencies visible in scope
func (r *GormAgencyRepository) FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]tenancy.Agency, error) {
	var rows []models.AgencyModel
	query := listQuery(
		r.db.WithContext(ctx).Model(&models.AgencyModel{}).Scopes(datascope.Apply(scope, datascope.Agencies)),
		"agencies", filter, agencyFilterColumns, DirectorySortFields,
	)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tenancy.Agency, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts the agencies visible in scope
func (r *GormAgencyRepository) Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error) {
	var count int64
	err := whereFilter(
		r.db.WithContext(ctx).Model(&models.AgencyModel{}).Scopes(datascope.Apply(scope, datascope.Agencies)),
		filter, agencyFilterColumns,
	).Count(&count).Error
	return count, err
}

// Create inserts a new agency
func (r *GormAgencyRepository) Create(ctx context.Context, agency *tenancy.Agency) error {
	return translateError(r.db.WithContext(ctx).Create(models.AgencyModelFromDomain(agency)).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormAgencyRepository) SaveWithLock(ctx context.Context, agency *tenancy.Agency) error {
	err := lockedUpdate(r.db.WithContext(ctx), &models.AgencyModel{}, agency.ID, agency.Version, map[string]interface{}{
		"name":              agency.Name,
		"currency":          agency.Currency,
		"validation_status": agency.ValidationStatus,
		"tax_rate":          agency.TaxRate,
		"commission_rate":   agency.CommissionRate,
		"updated_at":        agency.UpdatedAt,
	})
	if err != nil {
		return err
	}
	agency.Saved()
	return nil
}

var _ tenancy.AgencyRepository = (*GormAgencyRepository)(nil)
