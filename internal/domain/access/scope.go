package access

import "github.com/google/uuid"

// Scope is the set of row-ownership dimensions a caller may see.
// A row is visible when any present dimension matches it.
type Scope struct {
	AgencyID     *uuid.UUID
	CompanyID    *uuid.UUID
	TechnicianID *uuid.UUID
	TenantID     *uuid.UUID

	// LinkedAgencyID is the agency a company is linked to; broadcast
	// requests of that agency are visible to the company once diffused.
	LinkedAgencyID *uuid.UUID

	system bool
}

// IsSystem reports whether this is the unrestricted scope used by cascade rules
func (s Scope) IsSystem() bool {
	return s.system
}

// IsEmpty reports whether the scope grants no dimension at all
func (s Scope) IsEmpty() bool {
	return !s.system && s.AgencyID == nil && s.CompanyID == nil && s.TechnicianID == nil && s.TenantID == nil
}

// HasAgency reports whether id is the agency dimension of the scope
func (s Scope) HasAgency(id uuid.UUID) bool {
	return s.system || (s.AgencyID != nil && *s.AgencyID == id)
}

// HasCompany reports whether id is the company dimension of the scope
func (s Scope) HasCompany(id uuid.UUID) bool {
	return s.system || (s.CompanyID != nil && *s.CompanyID == id)
}

// HasTechnician reports whether id is the technician dimension of the scope
func (s Scope) HasTechnician(id uuid.UUID) bool {
	return s.system || (s.TechnicianID != nil && *s.TechnicianID == id)
}

// HasTenant reports whether id is the tenant dimension of the scope
func (s Scope) HasTenant(id uuid.UUID) bool {
	return s.system || (s.TenantID != nil && *s.TenantID == id)
}

func ptr(id uuid.UUID) *uuid.UUID {
	return &id
}
