package persistence

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/persistence/datascope"
	"github.com/fixflow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var invoiceFilterColumns = map[string]string{
	"status":     "invoices.status",
	"order_id":   "invoices.order_id",
	"company_id": "invoices.company_id",
	"year":       "invoices.year",
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

func (r *GormInvoiceRepository) scoped(ctx context.Context, scope access.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(datascope.Apply(scope, datascope.Invoices))
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("invoice_lines.position ASC")
}

// FindByID finds an invoice visible in scope, with its lines
func (r *GormInvoiceRepository) FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.scoped(ctx, scope).
		Preload("Lines", orderedLines).
		Where("invoices.id = ?", id).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Invoice")
	}
	return model.ToDomain(), nil
}

// FindByOrder finds the invoice of a work order
func (r *GormInvoiceRepository) FindByOrder(ctx context.Context, scope access.Scope, orderID uuid.UUID) (*invoicing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.scoped(ctx, scope).
		Preload("Lines", orderedLines).
		Where("invoices.order_id = ?", orderID).
		First(&model).Error; err != nil {
		return nil, notFound(err, "Invoice")
	}
	return model.ToDomain(), nil
}

// ExistsForOrder reports whether the order already has an invoice
func (r *GormInvoiceRepository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindAll lists the invoices visible in scope
func (r *GormInvoiceRepository) FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]invoicing.Invoice, error) {
	var rows []models.InvoiceModel
	query := listQuery(r.scoped(ctx, scope).Preload("Lines", orderedLines), "invoices", filter, invoiceFilterColumns, InvoiceSortFields)
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]invoicing.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Count counts the invoices visible in scope
func (r *GormInvoiceRepository) Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error) {
	var count int64
	err := whereFilter(r.scoped(ctx, scope), filter, invoiceFilterColumns).Count(&count).Error
	return count, err
}

// Create inserts a new invoice with its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *invoicing.Invoice) error {
	return translateError(r.db.WithContext(ctx).Create(models.InvoiceModelFromDomain(invoice)).Error)
}

// SaveWithLock saves with optimistic locking (version check) and rewrites the lines
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, invoice *invoicing.Invoice) error {
	db := r.db.WithContext(ctx)
	err := lockedUpdate(db, &models.InvoiceModel{}, invoice.ID, invoice.Version, map[string]interface{}{
		"net_amount":        invoice.NetAmount,
		"tax_amount":        invoice.TaxAmount,
		"gross_amount":      invoice.GrossAmount,
		"commission_amount": invoice.CommissionAmount,
		"tax_rate":          invoice.TaxRate,
		"commission_rate":   invoice.CommissionRate,
		"currency":          invoice.Currency,
		"currency_explicit": invoice.Explicit,
		"status":            invoice.Status,
		"notes":             invoice.Notes,
		"refusal_reason":    invoice.RefusalReason,
		"sent_at":           invoice.SentAt,
		"paid_at":           invoice.PaidAt,
		"refused_at":        invoice.RefusedAt,
		"updated_at":        invoice.UpdatedAt,
	})
	if err != nil {
		return err
	}

	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineModel{}).Error; err != nil {
		return err
	}
	if len(invoice.Lines) > 0 {
		lines := make([]models.InvoiceLineModel, len(invoice.Lines))
		for i := range invoice.Lines {
			lines[i] = models.InvoiceLineModelFromDomain(invoice.Lines[i])
		}
		if err := db.Create(&lines).Error; err != nil {
			return translateError(err)
		}
	}

	invoice.Saved()
	return nil
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
