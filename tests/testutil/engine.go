package testutil

import (
	"context"
	"fmt"
	"testing"

	appaudit "github.com/fixflow/backend/internal/application/audit"
	"github.com/fixflow/backend/internal/application/currency"
	appinvoicing "github.com/fixflow/backend/internal/application/invoicing"
	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	apptenancy "github.com/fixflow/backend/internal/application/tenancy"
	"github.com/fixflow/backend/internal/bootstrap"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine is a fully wired lifecycle engine, by default over a private in-memory SQLite database
type Engine struct {
	DB        *gorm.DB
	Published *EventRecorder

	Requests  *appmaintenance.RequestService
	Orders    *appmaintenance.OrderService
	Invoices  *appinvoicing.InvoiceService
	Currency  *currency.Service
	Directory *apptenancy.DirectoryService
	Resolver  *apptenancy.PrincipalResolver
	Trail     *appaudit.TrailService
}

// EngineOption tunes NewEngine
type EngineOption func(*engineConfig)

type engineConfig struct {
	logger   *zap.Logger
	prefix   string
	defaults apptenancy.RateDefaults
}

// WithEngineLogger routes service and cascade logs to l
func WithEngineLogger(l *zap.Logger) EngineOption {
	return func(c *engineConfig) { c.logger = l }
}

// WithInvoicePrefix sets the invoice number prefix
func WithInvoicePrefix(prefix string) EngineOption {
	return func(c *engineConfig) { c.prefix = prefix }
}

// WithRateDefaults sets the rates of agencies registered without explicit rates
func WithRateDefaults(tax, commission string) EngineOption {
	return func(c *engineConfig) {
		c.defaults = apptenancy.RateDefaults{
			TaxRate:        decimal.RequireFromString(tax),
			CommissionRate: decimal.RequireFromString(commission),
		}
	}
}

// NewEngine migrates a fresh in-memory database and wires every service the way the server does
func NewEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	database, err := persistence.NewSQLiteDatabase(dsn, persistence.Options{})
	require.NoError(t, err, "Failed to open sqlite database")
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, persistence.AutoMigrate(context.Background(), database.DB), "Failed to migrate schema")

	return NewEngineWithDB(t, database.DB, opts...)
}

// NewEngineWithDB wires every service over an already migrated database
func NewEngineWithDB(t *testing.T, db *gorm.DB, opts ...EngineOption) *Engine {
	t.Helper()

	cfg := engineConfig{logger: zap.NewNop(), prefix: invoicing.DefaultNumberPrefix}
	for _, opt := range opts {
		opt(&cfg)
	}

	services, err := bootstrap.NewServices(db, bootstrap.Config{
		Logger:        cfg.logger,
		InvoicePrefix: cfg.prefix,
		RateDefaults:  cfg.defaults,
	})
	require.NoError(t, err)

	published := NewEventRecorder()
	services.Bus.Subscribe(published)

	return &Engine{
		DB:        db,
		Published: published,
		Requests:  services.Requests,
		Orders:    services.Orders,
		Invoices:  services.Invoices,
		Currency:  services.Currency,
		Directory: services.Directory,
		Resolver:  services.Resolver,
		Trail:     services.Trail,
	}
}

// World is one validated agency with a linked company, an active technician,
// a building with one unit and a tenant living in it.
type World struct {
	AgencyID     uuid.UUID
	CompanyID    uuid.UUID
	TechnicianID uuid.UUID
	BuildingID   uuid.UUID
	UnitID       uuid.UUID
	TenantID     uuid.UUID

	Agency     access.Principal
	Company    access.Principal
	Technician access.Principal
	Tenant     access.Principal
}

// Seed registers a World priced in currencyCode with the given rates
func (e *Engine) Seed(t *testing.T, currencyCode, taxRate, commissionRate string) World {
	t.Helper()
	ctx := context.Background()
	sys := access.System()

	tax := decimal.RequireFromString(taxRate)
	commission := decimal.RequireFromString(commissionRate)
	agency, err := e.Directory.RegisterAgency(ctx, sys, apptenancy.RegisterAgencyRequest{
		Name: "Agency " + uuid.NewString()[:8], Currency: currencyCode, TaxRate: &tax, CommissionRate: &commission,
	})
	require.NoError(t, err)
	_, err = e.Directory.ValidateAgency(ctx, sys, agency.ID)
	require.NoError(t, err)

	company := e.SeedCompany(t, agency.ID, "")
	tech, err := e.Directory.RegisterTechnician(ctx, sys, apptenancy.RegisterTechnicianRequest{CompanyID: &company, Name: "Technician"})
	require.NoError(t, err)

	building, err := e.Directory.RegisterBuilding(ctx, sys, apptenancy.RegisterBuildingRequest{AgencyID: &agency.ID, Name: "Building", Address: "1 Main Street"})
	require.NoError(t, err)
	unit, err := e.Directory.RegisterUnit(ctx, sys, building.ID, apptenancy.RegisterUnitRequest{Label: "A1"})
	require.NoError(t, err)
	tenant, err := e.Directory.RegisterTenant(ctx, sys, apptenancy.RegisterTenantRequest{AgencyID: &agency.ID, UnitID: &unit.ID, Name: "Tenant"})
	require.NoError(t, err)

	w := World{
		AgencyID:     agency.ID,
		CompanyID:    company,
		TechnicianID: tech.ID,
		BuildingID:   building.ID,
		UnitID:       unit.ID,
		TenantID:     tenant.ID,
	}
	w.Agency = access.NewAgencyPrincipal(uuid.New(), w.AgencyID)
	w.Company = CompanyPrincipal(w.CompanyID, w.AgencyID)
	w.Technician = access.NewTechnicianPrincipal(uuid.New(), w.TechnicianID, w.CompanyID)
	w.Tenant = access.NewTenantPrincipal(uuid.New(), w.TenantID, w.AgencyID, &w.UnitID)
	return w
}

// SeedCompany registers a company linked to agencyID, optionally with an explicit currency
func (e *Engine) SeedCompany(t *testing.T, agencyID uuid.UUID, currencyCode string) uuid.UUID {
	t.Helper()
	company, err := e.Directory.RegisterCompany(context.Background(), access.System(), apptenancy.RegisterCompanyRequest{
		AgencyID: &agencyID, Name: "Company " + uuid.NewString()[:8], Currency: currencyCode,
	})
	require.NoError(t, err)
	return company.ID
}

// CompanyPrincipal acts as companyID linked to agencyID
func CompanyPrincipal(companyID, agencyID uuid.UUID) access.Principal {
	linked := agencyID
	return access.NewCompanyPrincipal(uuid.New(), companyID, &linked)
}

// OpenRequest has the tenant open a broadcast request and the agency diffuse it
func (e *Engine) OpenRequest(t *testing.T, w World) *appmaintenance.WorkRequestResponse {
	t.Helper()
	ctx := context.Background()
	created, err := e.Requests.Create(ctx, w.Tenant, appmaintenance.CreateWorkRequestRequest{
		UnitID: w.UnitID, Category: "plumbing", Description: "Leaking tap",
	})
	require.NoError(t, err)
	diffused, err := e.Requests.Diffuse(ctx, w.Agency, created.ID, appmaintenance.DiffuseWorkRequestRequest{})
	require.NoError(t, err)
	return diffused
}

// CompleteOrder runs a diffused request through accept, assignment, start and completion
func (e *Engine) CompleteOrder(t *testing.T, w World, requestID uuid.UUID, amount string) *appmaintenance.WorkOrderResponse {
	t.Helper()
	ctx := context.Background()
	value := decimal.RequireFromString(amount)
	order, err := e.Orders.Accept(ctx, w.Company, requestID, appmaintenance.AcceptWorkRequestRequest{Amount: &value})
	require.NoError(t, err)
	_, err = e.Orders.AssignTechnician(ctx, w.Company, order.ID, appmaintenance.AssignTechnicianRequest{TechnicianID: w.TechnicianID})
	require.NoError(t, err)
	_, err = e.Orders.Start(ctx, w.Technician, order.ID)
	require.NoError(t, err)
	completed, err := e.Orders.Complete(ctx, w.Technician, order.ID, appmaintenance.CompleteWorkOrderRequest{ReportRef: "reports/" + order.ID.String() + ".pdf"})
	require.NoError(t, err)
	return completed
}
