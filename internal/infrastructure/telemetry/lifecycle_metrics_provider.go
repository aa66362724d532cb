package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLifecycleMetricsProvider implements LifecycleMetricsProvider with aggregate queries
type GormLifecycleMetricsProvider struct {
	db *gorm.DB
}

// NewGormLifecycleMetricsProvider creates a new GormLifecycleMetricsProvider.
func NewGormLifecycleMetricsProvider(db *gorm.DB) *GormLifecycleMetricsProvider {
	return &GormLifecycleMetricsProvider{db: db}
}

// OpenOrdersByAgency counts the work orders not yet validated or cancelled, per agency
func (p *GormLifecycleMetricsProvider) OpenOrdersByAgency(ctx context.Context) (map[uuid.UUID]int64, error) {
	type result struct {
		AgencyID uuid.UUID `gorm:"column:agency_id"`
		Open     int64     `gorm:"column:open"`
	}

	var results []result
	err := p.db.WithContext(ctx).
		Table("work_orders").
		Select("agency_id, COUNT(*) AS open").
		Where("status NOT IN ?", []string{"VALIDATED", "CANCELLED"}).
		Group("agency_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}

	m := make(map[uuid.UUID]int64, len(results))
	for _, r := range results {
		m[r.AgencyID] = r.Open
	}
	return m, nil
}
