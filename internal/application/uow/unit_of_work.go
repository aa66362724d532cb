// Package uow defines the transaction boundary of every engine operation.
//
// An operation runs inside UnitOfWork.Execute. Repositories handed to the
// operation share one database transaction and enqueue the domain events of
// every aggregate they save. Before commit the queue is settled: each event is
// handed to the Dispatcher (the cascade rules), which may save further
// aggregates and so enqueue further events. A failure anywhere rolls back the
// whole operation. Events are published to the post-commit bus only once the
// transaction has committed.
package uow

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/audit"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
)

// DefaultMaxRounds bounds how many generations of cascaded events one operation may produce
const DefaultMaxRounds = 8

// Repositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type Repositories interface {
	Agencies() tenancy.AgencyRepository
	Companies() tenancy.ServiceCompanyRepository
	Technicians() tenancy.TechnicianRepository
	Tenants() tenancy.TenantRepository
	Properties() tenancy.PropertyRepository
	Accounts() tenancy.UserAccountRepository
	CurrencyPropagation() tenancy.CurrencyPropagationRepository
	WorkRequests() maintenance.WorkRequestRepository
	WorkOrders() maintenance.WorkOrderRepository
	Invoices() invoicing.InvoiceRepository
	InvoiceSequences() invoicing.SequenceRepository
	Audit() audit.Repository
}

// UnitOfWork runs a function within a database transaction.
// If the function or any cascaded rule returns an error, the transaction is rolled back.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// Envelope pairs a domain event with the principal whose operation raised it
type Envelope struct {
	Event shared.DomainEvent
	Actor access.Principal
}

// Dispatcher handles events inside the transaction that raised them
type Dispatcher interface {
	Dispatch(ctx context.Context, repos Repositories, env Envelope) error
}
