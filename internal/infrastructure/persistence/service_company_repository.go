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

var companyFilterColumns = map[string]string{
	"agency_id": "service_companies.agency_id",
	"currency":  "service_companies.currency",
}

// GormServiceCompanyRepository implements ServiceCompanyRepository using GORM
type GormServiceCompanyRepository struct {
	db *gorm.DB
}

// NewGormServiceCompanyRepository creates a new GormServiceCompanyRepository
func NewGormServiceCompanyRepository(db *gorm.DB) *GormServiceCompanyRepository {
	return &GormServiceCompanyRepository{db: db}
}

func (r *GormServiceCompanyRepository) scoped(ctx context.Context, scope access.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.ServiceCompanyModel{}).Scopes(datascope.Apply(scope, datascope.ServiceCompanies))
}

// FindByID finds a company visible in scope
func (r *GormServiceCompanyRepository) FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*tenancy.ServiceCompany, error) {
	var model models.ServiceCompanyModel
	if err := r.scoped(ctx, scope).Where("service_companies.id = ?", id).First(&model).Error; err != nil {
		return nil, notFound(err, "Service company")
	}
	return model.ToDomain(), nil
}

// FindByIDs returns the companies among ids visible in scope
func (r *GormServiceCompanyRepository) FindByIDs(ctx context.Context, scope access.Scope, ids []uuid.UUID) ([]tenancy.ServiceCompany, error) {
	if len(ids) == 0 {
		return []tenancy.ServiceCompany{}, nil
	}
	var rows []models.ServiceCompanyModel
	if err := r.scoped(ctx, scope).Where("service_companies.id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tenancy.ServiceCompany, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// FindAll lists the companies visible in scope
func (r *GormServiceCompanyRepository) FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]tenancy.ServiceCompany, error) {
	var rows []models.ServiceCompanyModel
	query := listQuery(r.scoped(ctx, scope), "service_companies", filter, companyFilterColumns, DirectorySortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tenancy.ServiceCompany, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts the companies visible in scope
func (r *GormServiceCompanyRepository) Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error) {
	var count int64
	err := whereFilter(r.scoped(ctx, scope), filter, companyFilterColumns).Count(&count).Error
	return count, err
}

// Create inserts a new company
func (r *GormServiceCompanyRepository) Create(ctx context.Context, company *tenancy.ServiceCompany) error {
	return translateError(r.db.WithContext(ctx).Create(models.ServiceCompanyModelFromDomain(company)).Error)
}

// SaveWithLock saves with optimistic locking (version check)
func (r *GormServiceCompanyRepository) SaveWithLock(ctx context.Context, company *tenancy.ServiceCompany) error {
	err := lockedUpdate(r.db.WithContext(ctx), &models.ServiceCompanyModel{}, company.ID, company.Version, map[string]interface{}{
		"name":              company.Name,
		"agency_id":         company.AgencyID,
		"currency":          company.Currency,
		"currency_explicit": company.Explicit,
		"updated_at":        company.UpdatedAt,
	})
	if err != nil {
		return err
	}
	company.Saved()
	return nil
}

var _ tenancy.ServiceCompanyRepository = (*GormServiceCompanyRepository)(nil)
