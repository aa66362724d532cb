package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCurrencyPropagationRepository rewrites inherited currencies with bulk guarded updates
type GormCurrencyPropagationRepository struct {
	db *gorm.DB
}

// NewGormCurrencyPropagationRepository creates a new GormCurrencyPropagationRepository
func NewGormCurrencyPropagationRepository(db *gorm.DB) *GormCurrencyPropagationRepository {
	return &GormCurrencyPropagationRepository{db: db}
}

// Propagate sets currency on every inherited dependent of agencyID that differs from it.
// Each rewritten row gets a version bump, so concurrent holders of a stale copy lose their save.
func (r *GormCurrencyPropagationRepository) Propagate(ctx context.Context, agencyID uuid.UUID, currency valueobject.Currency) (tenancy.PropagationResult, error) {
	var result tenancy.PropagationResult
	now := time.Now()
	db := r.db.WithContext(ctx)

	steps := []struct {
		name   string
		model  interface{}
		extra  string
		target *int64
	}{
		{"service_companies", &models.ServiceCompanyModel{}, "", &result.Companies},
		{"tenants", &models.TenantModel{}, "", &result.Tenants},
		{"work_requests", &models.WorkRequestModel{}, "", &result.Requests},
		{"work_orders", &models.WorkOrderModel{}, "", &result.Orders},
		// a paid invoice keeps the currency it was settled in
		{"invoices", &models.InvoiceModel{}, "status <> '" + string(invoicing.InvoiceStatusPaid) + "'", &result.Invoices},
	}

	for _, step := range steps {
		query := db.Model(step.model).
			Where("agency_id = ? AND currency_explicit = ? AND currency <> ?", agencyID, false, currency)
		if step.extra != "" {
			query = query.Where(step.extra)
		}
		res := query.Updates(map[string]interface{}{
			"currency":   currency,
			"version":    gorm.Expr("version + 1"),
			"updated_at": now,
		})
		if res.Error != nil {
			return result, fmt.Errorf("failed to propagate currency to %s: %w", step.name, res.Error)
		}
		*step.target = res.RowsAffected
	}
	return result, nil
}

var _ tenancy.CurrencyPropagationRepository = (*GormCurrencyPropagationRepository)(nil)
