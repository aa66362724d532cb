package persistence

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/fixflow/backend/internal/infrastructure/persistence/datascope"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPropertyRepository implements PropertyRepository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// FindBuilding finds a building visible in scope
func (r *GormPropertyRepository) FindBuilding(ctx context.Context, scope access.Scope, id uuid.UUID) (*tenancy.Building, error) {
	var model models.BuildingModel
	if err := r.db.WithContext(ctx).
		Scopes(datascope.Apply(scope, datascope.Buildings)).
		Where("buildings.id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Building")
	}
	return model.ToDomain(), nil
}

// FindUnit finds a unit visible in scope
func (r *GormPropertyRepository) FindUnit(ctx context.Context, scope access.Scope, id uuid.UUID) (*tenancy.Unit, error) {
	var model models.UnitModel
	if err := r.db.WithContext(ctx).
		Scopes(datascope.Apply(scope, datascope.Units)).
		Where("units.id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Unit")
	}
	return model.ToDomain(), nil
}

// FindUnitsByBuilding lists the units of a building visible in scope
func (r *GormPropertyRepository) FindUnitsByBuilding(ctx context.Context, scope access.Scope, buildingID uuid.UUID) ([]tenancy.Unit, error) {
	var rows []models.UnitModel
	if err := r.db.WithContext(ctx).
		Scopes(datascope.Apply(scope, datascope.Units)).
		Where("units.building_id = ?", buildingID).
		Order("units.label ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]tenancy.Unit, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CreateBuilding inserts a new building
func (r *GormPropertyRepository) CreateBuilding(ctx context.Context, building *tenancy.Building) error {
	return translateError(r.db.WithContext(ctx).Create(models.BuildingModelFromDomain(building)).Error)
}

// CreateUnit inserts a new unit
func (r *GormPropertyRepository) CreateUnit(ctx context.Context, unit *tenancy.Unit) error {
	return translateError(r.db.WithContext(ctx).Create(models.UnitModelFromDomain(unit)).Error)
}

var _ tenancy.PropertyRepository = (*GormPropertyRepository)(nil)
