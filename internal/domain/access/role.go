package access

import (
	"strings"

	"github.com/fixflow/backend/internal/domain/shared"
)

// Role is the kind of tenant a user account acts as
type Role string

const (
	RoleAgency     Role = "AGENCY"
	RoleCompany    Role = "COMPANY"
	RoleTechnician Role = "TECHNICIAN"
	RoleTenant     Role = "TENANT"
	// RoleSystem is never assigned to an account; it exists only for cascade rules and bootstrap.
	RoleSystem Role = "SYSTEM"
)

// IsValid checks if the role can be held by a user account
func (r Role) IsValid() bool {
	switch r {
	case RoleAgency, RoleCompany, RoleTechnician, RoleTenant:
		return true
	}
	return false
}

// String returns the string representation of Role
func (r Role) String() string {
	return string(r)
}

// ParseRole validates an account role at the boundary
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", shared.ValidationFailed("INVALID_ROLE", "Unknown role: "+s)
	}
	return r, nil
}
