package persistence

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/audit"
	"github.com/fixflow/backend/internal/infrastructure/persistence/datascope"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditRepository implements audit.Repository using GORM
type GormAuditRepository struct {
	db *gorm.DB
}

// NewGormAuditRepository creates a new GormAuditRepository
func NewGormAuditRepository(db *gorm.DB) *GormAuditRepository {
	return &GormAuditRepository{db: db}
}

// Append inserts a transition; a row for the same event already present is kept
func (r *GormAuditRepository) Append(ctx context.Context, t *audit.StatusTransition) error {
	return translateError(r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(models.StatusTransitionModelFromDomain(t)).Error)
}

// FindByAggregate returns the trail of one aggregate, oldest first
func (r *GormAuditRepository) FindByAggregate(ctx context.Context, scope access.Scope, aggregateType string, aggregateID uuid.UUID) ([]audit.StatusTransition, error) {
	var rows []models.StatusTransitionModel
	if err := r.db.WithContext(ctx).
		Scopes(datascope.Apply(scope, datascope.StatusTransitions)).
		Where("status_transitions.aggregate_type = ? AND status_transitions.aggregate_id = ?", aggregateType, aggregateID).
		Order("status_transitions.occurred_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]audit.StatusTransition, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ audit.Repository = (*GormAuditRepository)(nil)
