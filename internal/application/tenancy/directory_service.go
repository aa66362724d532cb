// Package tenancy hosts the directory operations and resolves authenticated
// accounts into principals.
package tenancy

import (
	"context"
	"errors"

	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const directoryService = "directory"

// DirectoryService registers and looks up agencies, companies, technicians,
// tenants, properties and accounts
type DirectoryService struct {
	runner   *operation.Runner
	logger   *zap.Logger
	defaults RateDefaults
}

// NewDirectoryService creates a new DirectoryService
func NewDirectoryService(runner *operation.Runner, logger *zap.Logger, defaults RateDefaults) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{runner: runner, logger: logger, defaults: defaults}
}

// ==================== Agencies ====================

// RegisterAgency registers a pending agency. Agencies are onboarded by administrators.
func (s *DirectoryService) RegisterAgency(ctx context.Context, p access.Principal, req RegisterAgencyRequest) (*AgencyResponse, error) {
	if err := requireSystem(p); err != nil {
		return nil, err
	}
	tax, commission := s.defaults.TaxRate, s.defaults.CommissionRate
	if req.TaxRate != nil {
		tax = *req.TaxRate
	}
	if req.CommissionRate != nil {
		commission = *req.CommissionRate
	}

	var resp AgencyResponse
	err := s.runner.Run(ctx, p, directoryService, "register_agency", func(ctx context.Context, repos uow.Repositories) error {
		agency, err := tenancy.NewAgency(req.Name, req.Currency, tax, commission)
		if err != nil {
			return err
		}
		if err := repos.Agencies().Create(ctx, agency); err != nil {
			return err
		}
		s.logger.Info("Agency registered",
			zap.String("agency_id", agency.ID.String()),
			zap.String("currency", agency.Currency.String()),
		)
		resp = ToAgencyResponse(agency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateAgency allows an agency to diffuse requests
func (s *DirectoryService) ValidateAgency(ctx context.Context, p access.Principal, agencyID uuid.UUID) (*AgencyResponse, error) {
	return s.changeAgency(ctx, p, "validate_agency", agencyID, func(a *tenancy.Agency) error {
		return a.Validate()
	})
}

// SuspendAgency blocks an agency from diffusing requests
func (s *DirectoryService) SuspendAgency(ctx context.Context, p access.Principal, agencyID uuid.UUID) (*AgencyResponse, error) {
	return s.changeAgency(ctx, p, "suspend_agency", agencyID, func(a *tenancy.Agency) error {
		return a.Suspend()
	})
}

func (s *DirectoryService) changeAgency(ctx context.Context, p access.Principal, method string, agencyID uuid.UUID, change func(*tenancy.Agency) error) (*AgencyResponse, error) {
	if err := requireSystem(p); err != nil {
		return nil, err
	}
	var resp AgencyResponse
	err := s.runner.Run(ctx, p, directoryService, method, func(ctx context.Context, repos uow.Repositories) error {
		agency, err := repos.Agencies().FindByID(ctx, p.Scope(), agencyID)
		if err != nil {
			return err
		}
		if err := change(agency); err != nil {
			return err
		}
		if len(agency.GetDomainEvents()) > 0 {
			if err := repos.Agencies().SaveWithLock(ctx, agency); err != nil {
				return err
			}
			s.logger.Info("Agency status changed",
				zap.String("agency_id", agency.ID.String()),
				zap.String("status", string(agency.ValidationStatus)),
			)
		}
		resp = ToAgencyResponse(agency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetAgencyRates updates the rates of the caller's agency; existing invoices keep their snapshot
func (s *DirectoryService) SetAgencyRates(ctx context.Context, p access.Principal, agencyID uuid.UUID, req SetRatesRequest) (*AgencyResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	var resp AgencyResponse
	err := s.runner.Run(ctx, p, directoryService, "set_agency_rates", func(ctx context.Context, repos uow.Repositories) error {
		agency, err := repos.Agencies().FindByID(ctx, p.Scope(), agencyID)
		if err != nil {
			return err
		}
		if err := agency.SetRates(req.TaxRate, req.CommissionRate); err != nil {
			return err
		}
		if err := repos.Agencies().SaveWithLock(ctx, agency); err != nil {
			return err
		}
		resp = ToAgencyResponse(agency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAgency returns an agency visible to p
func (s *DirectoryService) GetAgency(ctx context.Context, p access.Principal, agencyID uuid.UUID) (*AgencyResponse, error) {
	var resp AgencyResponse
	err := s.runner.Run(ctx, p, directoryService, "get_agency", func(ctx context.Context, repos uow.Repositories) error {
		agency, err := repos.Agencies().FindByID(ctx, p.Scope(), agencyID)
		if err != nil {
			return err
		}
		resp = ToAgencyResponse(agency)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ==================== Companies and technicians ====================

// RegisterCompany registers a service company linked to the caller's agency
func (s *DirectoryService) RegisterCompany(ctx context.Context, p access.Principal, req RegisterCompanyRequest) (*CompanyResponse, error) {
	agencyID, err := owningAgency(p, req.AgencyID)
	if err != nil {
		return nil, err
	}
	var resp CompanyResponse
	err = s.runner.Run(ctx, p, directoryService, "register_company", func(ctx context.Context, repos uow.Repositories) error {
		agency, err := repos.Agencies().FindByID(ctx, p.Scope(), agencyID)
		if err != nil {
			return err
		}
		company, err := tenancy.NewServiceCompany(agency, req.Name, req.Currency)
		if err != nil {
			return err
		}
		if err := repos.Companies().Create(ctx, company); err != nil {
			return err
		}
		s.logger.Info("Service company registered",
			zap.String("company_id", company.ID.String()),
			zap.String("agency_id", agency.ID.String()),
		)
		resp = ToCompanyResponse(company)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterTechnician registers a technician of the caller's company
func (s *DirectoryService) RegisterTechnician(ctx context.Context, p access.Principal, req RegisterTechnicianRequest) (*TechnicianResponse, error) {
	var companyID uuid.UUID
	switch {
	case p.Role == access.RoleCompany:
		companyID = p.SubjectID
	case p.IsSystem() && req.CompanyID != nil:
		companyID = *req.CompanyID
	case p.IsSystem():
		return nil, shared.ValidationFailed("COMPANY_REQUIRED", "Company ID is required")
	default:
		return nil, shared.Forbidden("ROLE_NOT_ALLOWED", "Only service companies can register technicians")
	}

	var resp TechnicianResponse
	err := s.runner.Run(ctx, p, directoryService, "register_technician", func(ctx context.Context, repos uow.Repositories) error {
		company, err := repos.Companies().FindByID(ctx, p.Scope(), companyID)
		if err != nil {
			return err
		}
		tech, err := tenancy.NewTechnician(company.ID, req.Name)
		if err != nil {
			return err
		}
		if err := repos.Technicians().Create(ctx, tech); err != nil {
			return err
		}
		s.logger.Info("Technician registered",
			zap.String("technician_id", tech.ID.String()),
			zap.String("company_id", company.ID.String()),
		)
		resp = ToTechnicianResponse(tech)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeactivateTechnician prevents further assignments and logins of a technician of the caller's company
func (s *DirectoryService) DeactivateTechnician(ctx context.Context, p access.Principal, technicianID uuid.UUID) (*TechnicianResponse, error) {
	if err := p.Require(access.RoleCompany); err != nil {
		return nil, err
	}
	var resp TechnicianResponse
	err := s.runner.Run(ctx, p, directoryService, "deactivate_technician", func(ctx context.Context, repos uow.Repositories) error {
		tech, err := repos.Technicians().FindByID(ctx, p.Scope(), technicianID)
		if err != nil {
			return err
		}
		if tech.Active {
			tech.Deactivate()
			if err := repos.Technicians().SaveWithLock(ctx, tech); err != nil {
				return err
			}
			s.logger.Info("Technician deactivated", zap.String("technician_id", tech.ID.String()))
		}
		resp = ToTechnicianResponse(tech)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListCompanies returns the companies visible to p
func (s *DirectoryService) ListCompanies(ctx context.Context, p access.Principal, filter ListFilter) ([]CompanyResponse, int64, error) {
	var (
		items []CompanyResponse
		total int64
	)
	f := filter.toDomainFilter()
	err := s.runner.Run(ctx, p, directoryService, "list_companies", func(ctx context.Context, repos uow.Repositories) error {
		companies, err := repos.Companies().FindAll(ctx, p.Scope(), f)
		if err != nil {
			return err
		}
		if total, err = repos.Companies().Count(ctx, p.Scope(), f); err != nil {
			return err
		}
		items = make([]CompanyResponse, len(companies))
		for i := range companies {
			items[i] = ToCompanyResponse(&companies[i])
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListTechnicians returns the technicians visible to p
func (s *DirectoryService) ListTechnicians(ctx context.Context, p access.Principal, filter ListFilter) ([]TechnicianResponse, int64, error) {
	var (
		items []TechnicianResponse
		total int64
	)
	f := filter.toDomainFilter()
	err := s.runner.Run(ctx, p, directoryService, "list_technicians", func(ctx context.Context, repos uow.Repositories) error {
		techs, err := repos.Technicians().FindAll(ctx, p.Scope(), f)
		if err != nil {
			return err
		}
		if total, err = repos.Technicians().Count(ctx, p.Scope(), f); err != nil {
			return err
		}
		items = make([]TechnicianResponse, len(techs))
		for i := range techs {
			items[i] = ToTechnicianResponse(&techs[i])
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ==================== Tenants and properties ====================

// RegisterTenant registers a residential tenant of the caller's agency
func (s *DirectoryService) RegisterTenant(ctx context.Context, p access.Principal, req RegisterTenantRequest) (*TenantResponse, error) {
	agencyID, err := owningAgency(p, req.AgencyID)
	if err != nil {
		return nil, err
	}
	var resp TenantResponse
	err = s.runner.Run(ctx, p, directoryService, "register_tenant", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		agency, err := repos.Agencies().FindByID(ctx, scope, agencyID)
		if err != nil {
			return err
		}
		var unit *tenancy.Unit
		if req.UnitID != nil {
			if unit, err = repos.Properties().FindUnit(ctx, scope, *req.UnitID); err != nil {
				return err
			}
		}
		tenant, err := tenancy.NewTenant(agency, unit, req.Name, req.Currency)
		if err != nil {
			return err
		}
		if err := repos.Tenants().Create(ctx, tenant); err != nil {
			return err
		}
		s.logger.Info("Tenant registered",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("agency_id", agency.ID.String()),
		)
		resp = ToTenantResponse(tenant)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTenants returns the tenants visible to p
func (s *DirectoryService) ListTenants(ctx context.Context, p access.Principal, filter ListFilter) ([]TenantResponse, int64, error) {
	var (
		items []TenantResponse
		total int64
	)
	f := filter.toDomainFilter()
	err := s.runner.Run(ctx, p, directoryService, "list_tenants", func(ctx context.Context, repos uow.Repositories) error {
		tenants, err := repos.Tenants().FindAll(ctx, p.Scope(), f)
		if err != nil {
			return err
		}
		if total, err = repos.Tenants().Count(ctx, p.Scope(), f); err != nil {
			return err
		}
		items = make([]TenantResponse, len(tenants))
		for i := range tenants {
			items[i] = ToTenantResponse(&tenants[i])
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// RegisterBuilding registers a building of the caller's agency
func (s *DirectoryService) RegisterBuilding(ctx context.Context, p access.Principal, req RegisterBuildingRequest) (*BuildingResponse, error) {
	agencyID, err := owningAgency(p, req.AgencyID)
	if err != nil {
		return nil, err
	}
	var resp BuildingResponse
	err = s.runner.Run(ctx, p, directoryService, "register_building", func(ctx context.Context, repos uow.Repositories) error {
		agency, err := repos.Agencies().FindByID(ctx, p.Scope(), agencyID)
		if err != nil {
			return err
		}
		building, err := tenancy.NewBuilding(agency.ID, req.Name, req.Address)
		if err != nil {
			return err
		}
		if err := repos.Properties().CreateBuilding(ctx, building); err != nil {
			return err
		}
		resp = BuildingResponse{ID: building.ID, AgencyID: building.AgencyID, Name: building.Name, Address: building.Address}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterUnit registers a unit in a building of the caller's agency
func (s *DirectoryService) RegisterUnit(ctx context.Context, p access.Principal, buildingID uuid.UUID, req RegisterUnitRequest) (*UnitResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	var resp UnitResponse
	err := s.runner.Run(ctx, p, directoryService, "register_unit", func(ctx context.Context, repos uow.Repositories) error {
		building, err := repos.Properties().FindBuilding(ctx, p.Scope(), buildingID)
		if err != nil {
			return err
		}
		unit, err := tenancy.NewUnit(building, req.Label)
		if err != nil {
			return err
		}
		if err := repos.Properties().CreateUnit(ctx, unit); err != nil {
			return err
		}
		resp = ToUnitResponse(unit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUnits returns the units of a building visible to p
func (s *DirectoryService) ListUnits(ctx context.Context, p access.Principal, buildingID uuid.UUID) ([]UnitResponse, error) {
	var items []UnitResponse
	err := s.runner.Run(ctx, p, directoryService, "list_units", func(ctx context.Context, repos uow.Repositories) error {
		units, err := repos.Properties().FindUnitsByBuilding(ctx, p.Scope(), buildingID)
		if err != nil {
			return err
		}
		items = make([]UnitResponse, len(units))
		for i := range units {
			items[i] = ToUnitResponse(&units[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ==================== Accounts ====================

// CreateAccount creates the login of an existing agency, company, technician or tenant
func (s *DirectoryService) CreateAccount(ctx context.Context, p access.Principal, req CreateAccountRequest) (*AccountResponse, error) {
	if err := requireSystem(p); err != nil {
		return nil, err
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		return nil, err
	}
	var resp AccountResponse
	err = s.runner.Run(ctx, p, directoryService, "create_account", func(ctx context.Context, repos uow.Repositories) error {
		if err := subjectExists(ctx, repos, role, req.SubjectID); err != nil {
			return err
		}
		account, err := tenancy.NewUserAccount(req.Email, role, req.SubjectID)
		if err != nil {
			return err
		}
		if err := repos.Accounts().Create(ctx, account); err != nil {
			if errors.Is(err, shared.ErrDuplicate) {
				return shared.Conflict("EMAIL_TAKEN", "An account with this email already exists")
			}
			return err
		}
		s.logger.Info("Account created",
			zap.String("account_id", account.ID.String()),
			zap.String("role", string(account.Role)),
		)
		resp = ToAccountResponse(account)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeactivateAccount blocks an account from authenticating
func (s *DirectoryService) DeactivateAccount(ctx context.Context, p access.Principal, accountID uuid.UUID) (*AccountResponse, error) {
	if err := requireSystem(p); err != nil {
		return nil, err
	}
	var resp AccountResponse
	err := s.runner.Run(ctx, p, directoryService, "deactivate_account", func(ctx context.Context, repos uow.Repositories) error {
		account, err := repos.Accounts().FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		account.Deactivate()
		if err := repos.Accounts().Save(ctx, account); err != nil {
			return err
		}
		resp = ToAccountResponse(account)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func subjectExists(ctx context.Context, repos uow.Repositories, role access.Role, id uuid.UUID) error {
	scope := access.System().Scope()
	var err error
	switch role {
	case access.RoleAgency:
		_, err = repos.Agencies().FindByID(ctx, scope, id)
	case access.RoleCompany:
		_, err = repos.Companies().FindByID(ctx, scope, id)
	case access.RoleTechnician:
		_, err = repos.Technicians().FindByID(ctx, scope, id)
	case access.RoleTenant:
		_, err = repos.Tenants().FindByID(ctx, scope, id)
	}
	return err
}

// owningAgency returns the agency a registration belongs to: the caller's own
// agency, or the requested one for the system principal
func owningAgency(p access.Principal, requested *uuid.UUID) (uuid.UUID, error) {
	switch {
	case p.Role == access.RoleAgency:
		return p.SubjectID, nil
	case p.IsSystem() && requested != nil:
		return *requested, nil
	case p.IsSystem():
		return uuid.Nil, shared.ValidationFailed("AGENCY_REQUIRED", "Agency ID is required")
	}
	return uuid.Nil, shared.Forbidden("ROLE_NOT_ALLOWED", "Only agencies can register directory entries")
}

func requireSystem(p access.Principal) error {
	if !p.IsSystem() {
		return shared.Forbidden("ROLE_NOT_ALLOWED", "Only administrators can perform this operation")
	}
	return nil
}
