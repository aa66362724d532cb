// Package bootstrap wires the lifecycle engine over an open database.
// The server, the admin CLI and the test harness all build their services here.
package bootstrap

import (
	"fmt"

	appaudit "github.com/fixflow/backend/internal/application/audit"
	"github.com/fixflow/backend/internal/application/cascade"
	"github.com/fixflow/backend/internal/application/currency"
	appinvoicing "github.com/fixflow/backend/internal/application/invoicing"
	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	"github.com/fixflow/backend/internal/application/operation"
	apptenancy "github.com/fixflow/backend/internal/application/tenancy"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/infrastructure/event"
	"github.com/fixflow/backend/internal/infrastructure/persistence"
	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Config holds the knobs of the engine wiring. Zero values are usable.
type Config struct {
	Logger        *zap.Logger
	InvoicePrefix string
	RateDefaults  apptenancy.RateDefaults
	// Metrics, when set, is fed by the runner, the cascade rules and the
	// committed event stream.
	Metrics *telemetry.BusinessMetrics
	// Reports checks completion report references and signs download links
	Reports appmaintenance.ReportVerifier
}

// Services is the wired engine
type Services struct {
	Bus    *event.InMemoryEventBus
	Runner *operation.Runner

	Requests  *appmaintenance.RequestService
	Orders    *appmaintenance.OrderService
	Invoices  *appinvoicing.InvoiceService
	Currency  *currency.Service
	Directory *apptenancy.DirectoryService
	Resolver  *apptenancy.PrincipalResolver
	Trail     *appaudit.TrailService
}

// NewServices builds the cascade, the unit of work and every application service over db
func NewServices(db *gorm.DB, cfg Config) (*Services, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	format, err := invoicing.NewNumberFormat(cfg.InvoicePrefix)
	if err != nil {
		return nil, fmt.Errorf("invoice number format: %w", err)
	}

	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(event.NewLoggingHandler(log, event.NewLifecycleSerializer()))

	orchestrator := cascade.NewOrchestrator(log, cascade.DefaultRules(format, log)...)
	unitOfWork := persistence.NewGormUnitOfWork(db,
		persistence.WithDispatcher(orchestrator),
		persistence.WithPublisher(bus),
		persistence.WithLogger(log),
	)
	runner := operation.NewRunner(unitOfWork, log)

	s := &Services{
		Bus:       bus,
		Runner:    runner,
		Requests:  appmaintenance.NewRequestService(runner, log),
		Orders:    appmaintenance.NewOrderService(runner, log),
		Invoices:  appinvoicing.NewInvoiceService(runner, log),
		Currency:  currency.NewService(runner, log),
		Directory: apptenancy.NewDirectoryService(runner, log, cfg.RateDefaults),
		Resolver:  apptenancy.NewPrincipalResolver(runner),
		Trail:     appaudit.NewTrailService(runner),
	}

	if cfg.Metrics != nil {
		runner.SetBusinessMetrics(cfg.Metrics)
		orchestrator.SetBusinessMetrics(cfg.Metrics)
		s.Currency.SetBusinessMetrics(cfg.Metrics)
		bus.Subscribe(event.NewMetricsHandler(cfg.Metrics))
	}
	if cfg.Reports != nil {
		s.Orders.SetReportVerifier(cfg.Reports)
	}
	return s, nil
}
