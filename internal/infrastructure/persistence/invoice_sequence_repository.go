package persistence

import (
	"context"
	"fmt"

	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormInvoiceSequenceRepository allocates invoice numbers from a counter row per agency and year
type GormInvoiceSequenceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceSequenceRepository creates a new GormInvoiceSequenceRepository
func NewGormInvoiceSequenceRepository(db *gorm.DB) *GormInvoiceSequenceRepository {
	return &GormInvoiceSequenceRepository{db: db}
}

// Next increments and returns the counter. The upsert holds the row lock until
// the surrounding transaction ends.
func (r *GormInvoiceSequenceRepository) Next(ctx context.Context, agencyID uuid.UUID, year int) (int64, error) {
	db := r.db.WithContext(ctx)
	row := models.InvoiceSequenceModel{AgencyID: agencyID, Year: year, LastValue: 1}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "agency_id"}, {Name: "year"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"last_value": gorm.Expr("invoice_sequences.last_value + 1"),
		}),
	}).Create(&row).Error
	if err != nil {
		return 0, fmt.Errorf("failed to advance invoice sequence: %w", err)
	}

	var current models.InvoiceSequenceModel
	if err := db.Where("agency_id = ? AND year = ?", agencyID, year).First(&current).Error; err != nil {
		return 0, fmt.Errorf("failed to read invoice sequence: %w", err)
	}
	return current.LastValue, nil
}

var _ invoicing.SequenceRepository = (*GormInvoiceSequenceRepository)(nil)
