package tenancy

import (
	"context"

	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// PrincipalResolver builds the principal of an authenticated account from the
// account's own directory records, never from request input
type PrincipalResolver struct {
	runner *operation.Runner
}

// NewPrincipalResolver creates a new PrincipalResolver
func NewPrincipalResolver(runner *operation.Runner) *PrincipalResolver {
	return &PrincipalResolver{runner: runner}
}

// Resolve returns the principal of accountID.
// Unknown or inactive accounts and inactive technicians are forbidden.
func (r *PrincipalResolver) Resolve(ctx context.Context, accountID uuid.UUID) (access.Principal, error) {
	var p access.Principal
	err := r.runner.Run(ctx, access.System(), "principal", "resolve", func(ctx context.Context, repos uow.Repositories) error {
		account, err := repos.Accounts().FindByID(ctx, accountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return shared.Forbidden("ACCOUNT_INACTIVE", "Account is deactivated")
		}

		scope := access.System().Scope()
		switch account.Role {
		case access.RoleAgency:
			agency, err := repos.Agencies().FindByID(ctx, scope, account.SubjectID)
			if err != nil {
				return err
			}
			p = access.NewAgencyPrincipal(account.ID, agency.ID)
		case access.RoleCompany:
			company, err := repos.Companies().FindByID(ctx, scope, account.SubjectID)
			if err != nil {
				return err
			}
			agencyID := company.AgencyID
			p = access.NewCompanyPrincipal(account.ID, company.ID, &agencyID)
		case access.RoleTechnician:
			tech, err := repos.Technicians().FindByID(ctx, scope, account.SubjectID)
			if err != nil {
				return err
			}
			if !tech.Active {
				return shared.Forbidden("TECHNICIAN_INACTIVE", "Technician is deactivated")
			}
			p = access.NewTechnicianPrincipal(account.ID, tech.ID, tech.CompanyID)
		case access.RoleTenant:
			tenant, err := repos.Tenants().FindByID(ctx, scope, account.SubjectID)
			if err != nil {
				return err
			}
			p = access.NewTenantPrincipal(account.ID, tenant.ID, tenant.AgencyID, tenant.UnitID)
		default:
			return shared.Forbidden("INVALID_ROLE", "Account role cannot act on the engine")
		}
		return nil
	})
	if shared.IsKind(err, shared.KindNotFound) {
		return access.Principal{}, shared.Forbidden("ACCOUNT_UNKNOWN", "Account or its subject does not exist")
	}
	if err != nil {
		return access.Principal{}, err
	}
	return p, nil
}
