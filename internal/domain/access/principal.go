// Package access models the authenticated caller of the lifecycle engine.
//
// A Principal is always built server-side from the caller's own user account
// record, never from request input. Its Scope is passed to every repository
// query as a mandatory filter.
package access

import (
	"fmt"

	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Principal is the resolved identity an engine operation runs as
type Principal struct {
	AccountID uuid.UUID
	Role      Role
	// SubjectID is the agency, company, technician or tenant row the account acts as
	SubjectID uuid.UUID

	// Affiliations resolved from the directory
	AgencyID  *uuid.UUID // agency: itself; company: linked agency; tenant: owning agency
	CompanyID *uuid.UUID // company: itself; technician: employer
	UnitID    *uuid.UUID // tenant: assigned unit, if any
}

// NewAgencyPrincipal creates the principal of an agency account
func NewAgencyPrincipal(accountID, agencyID uuid.UUID) Principal {
	return Principal{AccountID: accountID, Role: RoleAgency, SubjectID: agencyID, AgencyID: ptr(agencyID)}
}

// NewCompanyPrincipal creates the principal of a service company account
func NewCompanyPrincipal(accountID, companyID uuid.UUID, linkedAgencyID *uuid.UUID) Principal {
	return Principal{AccountID: accountID, Role: RoleCompany, SubjectID: companyID, AgencyID: linkedAgencyID, CompanyID: ptr(companyID)}
}

// NewTechnicianPrincipal creates the principal of a technician account
func NewTechnicianPrincipal(accountID, technicianID, companyID uuid.UUID) Principal {
	return Principal{AccountID: accountID, Role: RoleTechnician, SubjectID: technicianID, CompanyID: ptr(companyID)}
}

// NewTenantPrincipal creates the principal of a residential tenant account
func NewTenantPrincipal(accountID, tenantID, agencyID uuid.UUID, unitID *uuid.UUID) Principal {
	return Principal{AccountID: accountID, Role: RoleTenant, SubjectID: tenantID, AgencyID: ptr(agencyID), UnitID: unitID}
}

// System returns the in-process principal used by cascade rules and bootstrap.
// It is never produced by the principal resolver.
func System() Principal {
	return Principal{Role: RoleSystem}
}

// IsSystem reports whether p is the system principal
func (p Principal) IsSystem() bool {
	return p.Role == RoleSystem
}

// Scope derives the isolation scope of the principal.
// A technician is scoped to its own orders only, never to its employer's.
func (p Principal) Scope() Scope {
	switch p.Role {
	case RoleSystem:
		return Scope{system: true}
	case RoleAgency:
		return Scope{AgencyID: ptr(p.SubjectID)}
	case RoleCompany:
		return Scope{CompanyID: ptr(p.SubjectID), LinkedAgencyID: p.AgencyID}
	case RoleTechnician:
		return Scope{TechnicianID: ptr(p.SubjectID)}
	case RoleTenant:
		return Scope{TenantID: ptr(p.SubjectID)}
	}
	return Scope{}
}

// Require rejects the principal unless it holds one of roles.
// The system principal passes every gate.
func (p Principal) Require(roles ...Role) error {
	if p.IsSystem() {
		return nil
	}
	for _, r := range roles {
		if p.Role == r {
			return nil
		}
	}
	return shared.Forbidden("ROLE_NOT_ALLOWED", fmt.Sprintf("Role %s is not allowed to perform this operation", p.Role))
}

// Is reports whether p acts as the given subject in the given role
func (p Principal) Is(role Role, subjectID uuid.UUID) bool {
	return p.Role == role && p.SubjectID == subjectID
}

// ActorRole returns the role recorded in the audit trail
func (p Principal) ActorRole() string {
	return string(p.Role)
}

// ActorID returns the subject recorded in the audit trail, nil for the system principal
func (p Principal) ActorID() *uuid.UUID {
	if p.IsSystem() || p.SubjectID == uuid.Nil {
		return nil
	}
	return ptr(p.SubjectID)
}

// String implements fmt.Stringer for log fields
func (p Principal) String() string {
	if p.IsSystem() {
		return "SYSTEM"
	}
	return fmt.Sprintf("%s:%s", p.Role, p.SubjectID)
}
