package tenancy

import (
	"context"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// AgencyRepository defines the interface for agency persistence.
// Every read takes the caller's scope; rows outside it are reported as not found.
type AgencyRepository interface {
	FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Agency, error)
	FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]Agency, error)
	Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error)
	Create(ctx context.Context, agency *Agency) error
	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, agency *Agency) error
}

// ServiceCompanyRepository defines the interface for service company persistence
type ServiceCompanyRepository interface {
	FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*ServiceCompany, error)
	// FindByIDs returns the companies among ids visible in scope, in no particular order
	FindByIDs(ctx context.Context, scope access.Scope, ids []uuid.UUID) ([]ServiceCompany, error)
	FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]ServiceCompany, error)
	Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error)
	Create(ctx context.Context, company *ServiceCompany) error
	SaveWithLock(ctx context.Context, company *ServiceCompany) error
}

// TechnicianRepository defines the interface for technician persistence
type TechnicianRepository interface {
	FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Technician, error)
	FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]Technician, error)
	Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error)
	Create(ctx context.Context, technician *Technician) error
	SaveWithLock(ctx context.Context, technician *Technician) error
}

// TenantRepository defines the interface for residential tenant persistence
type TenantRepository interface {
	FindByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Tenant, error)
	FindAll(ctx context.Context, scope access.Scope, filter shared.Filter) ([]Tenant, error)
	Count(ctx context.Context, scope access.Scope, filter shared.Filter) (int64, error)
	Create(ctx context.Context, tenant *Tenant) error
	SaveWithLock(ctx context.Context, tenant *Tenant) error
}

// PropertyRepository defines the interface for building and unit persistence
type PropertyRepository interface {
	FindBuilding(ctx context.Context, scope access.Scope, id uuid.UUID) (*Building, error)
	FindUnit(ctx context.Context, scope access.Scope, id uuid.UUID) (*Unit, error)
	FindUnitsByBuilding(ctx context.Context, scope access.Scope, buildingID uuid.UUID) ([]Unit, error)
	CreateBuilding(ctx context.Context, building *Building) error
	CreateUnit(ctx context.Context, unit *Unit) error
}

// UserAccountRepository defines the interface for user account persistence.
// Accounts are read only by the principal resolver and administrative tooling, so reads are unscoped.
type UserAccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserAccount, error)
	FindByEmail(ctx context.Context, email string) (*UserAccount, error)
	Create(ctx context.Context, account *UserAccount) error
	Save(ctx context.Context, account *UserAccount) error
}

// PropagationResult counts the dependent rows rewritten by one propagation pass
type PropagationResult struct {
	Companies int64 `json:"companies"`
	Tenants   int64 `json:"tenants"`
	Requests  int64 `json:"requests"`
	Orders    int64 `json:"orders"`
	Invoices  int64 `json:"invoices"`
}

// Total returns the number of rewritten rows
func (r PropagationResult) Total() int64 {
	return r.Companies + r.Tenants + r.Requests + r.Orders + r.Invoices
}

// CurrencyPropagationRepository rewrites inherited currencies in an agency subtree
type CurrencyPropagationRepository interface {
	// Propagate sets currency on every non-explicit dependent of agencyID that differs from it.
	// Paid invoices are settled and keep the currency they were paid in.
	Propagate(ctx context.Context, agencyID uuid.UUID, currency valueobject.Currency) (PropagationResult, error)
}
