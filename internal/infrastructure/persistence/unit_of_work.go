package persistence

import (
	"context"

	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/audit"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormUnitOfWork implements uow.UnitOfWork using GORM transactions.
// Saved aggregates enqueue their events; the dispatcher settles them before
// commit and the publisher receives them after commit.
type GormUnitOfWork struct {
	db         *gorm.DB
	dispatcher uow.Dispatcher
	publisher  shared.EventPublisher
	maxRounds  int
	logger     *zap.Logger
}

// UnitOfWorkOption configures a GormUnitOfWork
type UnitOfWorkOption func(*GormUnitOfWork)

// WithDispatcher sets the in-transaction event dispatcher
func WithDispatcher(d uow.Dispatcher) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		u.dispatcher = d
	}
}

// WithPublisher sets the post-commit event publisher
func WithPublisher(p shared.EventPublisher) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		u.publisher = p
	}
}

// WithMaxRounds bounds the cascade depth
func WithMaxRounds(n int) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		u.maxRounds = n
	}
}

// WithLogger sets the logger used for publish failures
func WithLogger(l *zap.Logger) UnitOfWorkOption {
	return func(u *GormUnitOfWork) {
		u.logger = l
	}
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB, opts ...UnitOfWorkOption) *GormUnitOfWork {
	u := &GormUnitOfWork{
		db:        db,
		maxRounds: uow.DefaultMaxRounds,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Execute runs fn and the cascade it triggers in one transaction.
// Committed events are published afterwards; a publish failure is logged, never
// returned, because the state change is already durable.
func (u *GormUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repos uow.Repositories) error) error {
	var settled []shared.DomainEvent
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		collector := uow.NewEventCollector()
		repos := &gormTransactionalRepositories{tx: tx, collector: collector}
		if err := fn(ctx, repos); err != nil {
			return err
		}
		events, err := uow.Settle(ctx, repos, collector, u.dispatcher, u.maxRounds)
		if err != nil {
			return err
		}
		settled = events
		return nil
	})
	if err != nil {
		return err
	}

	if u.publisher != nil && len(settled) > 0 {
		if pubErr := u.publisher.Publish(ctx, settled...); pubErr != nil {
			u.logger.Warn("Failed to publish committed events",
				zap.Int("events", len(settled)),
				zap.Error(pubErr),
			)
		}
	}
	return nil
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx        *gorm.DB
	collector *uow.EventCollector
}

func (r *gormTransactionalRepositories) Agencies() tenancy.AgencyRepository {
	return &collectingAgencyRepository{AgencyRepository: NewGormAgencyRepository(r.tx), collector: r.collector}
}

func (r *gormTransactionalRepositories) Companies() tenancy.ServiceCompanyRepository {
	return &collectingCompanyRepository{ServiceCompanyRepository: NewGormServiceCompanyRepository(r.tx), collector: r.collector}
}

func (r *gormTransactionalRepositories) Technicians() tenancy.TechnicianRepository {
	return NewGormTechnicianRepository(r.tx)
}

func (r *gormTransactionalRepositories) Tenants() tenancy.TenantRepository {
	return &collectingTenantRepository{TenantRepository: NewGormTenantRepository(r.tx), collector: r.collector}
}

func (r *gormTransactionalRepositories) Properties() tenancy.PropertyRepository {
	return NewGormPropertyRepository(r.tx)
}

func (r *gormTransactionalRepositories) Accounts() tenancy.UserAccountRepository {
	return NewGormUserAccountRepository(r.tx)
}

func (r *gormTransactionalRepositories) CurrencyPropagation() tenancy.CurrencyPropagationRepository {
	return NewGormCurrencyPropagationRepository(r.tx)
}

func (r *gormTransactionalRepositories) WorkRequests() maintenance.WorkRequestRepository {
	return &collectingWorkRequestRepository{WorkRequestRepository: NewGormWorkRequestRepository(r.tx), collector: r.collector}
}

func (r *gormTransactionalRepositories) WorkOrders() maintenance.WorkOrderRepository {
	return &collectingWorkOrderRepository{WorkOrderRepository: NewGormWorkOrderRepository(r.tx), collector: r.collector}
}

func (r *gormTransactionalRepositories) Invoices() invoicing.InvoiceRepository {
	return &collectingInvoiceRepository{InvoiceRepository: NewGormInvoiceRepository(r.tx), collector: r.collector}
}

func (r *gormTransactionalRepositories) InvoiceSequences() invoicing.SequenceRepository {
	return NewGormInvoiceSequenceRepository(r.tx)
}

func (r *gormTransactionalRepositories) Audit() audit.Repository {
	return NewGormAuditRepository(r.tx)
}

// The collecting decorators enqueue an aggregate's events once its write succeeded.

type collectingAgencyRepository struct {
	tenancy.AgencyRepository
	collector *uow.EventCollector
}

func (r *collectingAgencyRepository) Create(ctx context.Context, a *tenancy.Agency) error {
	if err := r.AgencyRepository.Create(ctx, a); err != nil {
		return err
	}
	r.collector.Collect(ctx, a)
	return nil
}

func (r *collectingAgencyRepository) SaveWithLock(ctx context.Context, a *tenancy.Agency) error {
	if err := r.AgencyRepository.SaveWithLock(ctx, a); err != nil {
		return err
	}
	r.collector.Collect(ctx, a)
	return nil
}

type collectingCompanyRepository struct {
	tenancy.ServiceCompanyRepository
	collector *uow.EventCollector
}

func (r *collectingCompanyRepository) Create(ctx context.Context, c *tenancy.ServiceCompany) error {
	if err := r.ServiceCompanyRepository.Create(ctx, c); err != nil {
		return err
	}
	r.collector.Collect(ctx, c)
	return nil
}

func (r *collectingCompanyRepository) SaveWithLock(ctx context.Context, c *tenancy.ServiceCompany) error {
	if err := r.ServiceCompanyRepository.SaveWithLock(ctx, c); err != nil {
		return err
	}
	r.collector.Collect(ctx, c)
	return nil
}

type collectingTenantRepository struct {
	tenancy.TenantRepository
	collector *uow.EventCollector
}

func (r *collectingTenantRepository) Create(ctx context.Context, t *tenancy.Tenant) error {
	if err := r.TenantRepository.Create(ctx, t); err != nil {
		return err
	}
	r.collector.Collect(ctx, t)
	return nil
}

func (r *collectingTenantRepository) SaveWithLock(ctx context.Context, t *tenancy.Tenant) error {
	if err := r.TenantRepository.SaveWithLock(ctx, t); err != nil {
		return err
	}
	r.collector.Collect(ctx, t)
	return nil
}

type collectingWorkRequestRepository struct {
	maintenance.WorkRequestRepository
	collector *uow.EventCollector
}

func (r *collectingWorkRequestRepository) Create(ctx context.Context, wr *maintenance.WorkRequest) error {
	if err := r.WorkRequestRepository.Create(ctx, wr); err != nil {
		return err
	}
	r.collector.Collect(ctx, wr)
	return nil
}

func (r *collectingWorkRequestRepository) SaveWithLock(ctx context.Context, wr *maintenance.WorkRequest) error {
	if err := r.WorkRequestRepository.SaveWithLock(ctx, wr); err != nil {
		return err
	}
	r.collector.Collect(ctx, wr)
	return nil
}

type collectingWorkOrderRepository struct {
	maintenance.WorkOrderRepository
	collector *uow.EventCollector
}

func (r *collectingWorkOrderRepository) Create(ctx context.Context, o *maintenance.WorkOrder) error {
	if err := r.WorkOrderRepository.Create(ctx, o); err != nil {
		return err
	}
	r.collector.Collect(ctx, o)
	return nil
}

func (r *collectingWorkOrderRepository) SaveWithLock(ctx context.Context, o *maintenance.WorkOrder) error {
	if err := r.WorkOrderRepository.SaveWithLock(ctx, o); err != nil {
		return err
	}
	r.collector.Collect(ctx, o)
	return nil
}

type collectingInvoiceRepository struct {
	invoicing.InvoiceRepository
	collector *uow.EventCollector
}

func (r *collectingInvoiceRepository) Create(ctx context.Context, i *invoicing.Invoice) error {
	if err := r.InvoiceRepository.Create(ctx, i); err != nil {
		return err
	}
	r.collector.Collect(ctx, i)
	return nil
}

func (r *collectingInvoiceRepository) SaveWithLock(ctx context.Context, i *invoicing.Invoice) error {
	if err := r.InvoiceRepository.SaveWithLock(ctx, i); err != nil {
		return err
	}
	r.collector.Collect(ctx, i)
	return nil
}

var _ uow.UnitOfWork = (*GormUnitOfWork)(nil)
var _ uow.Repositories = (*gormTransactionalRepositories)(nil)
