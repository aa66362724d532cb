// Package datascope turns an access.Scope into the mandatory SQL predicate of a query.
//
// Each resource defines one clause per ownership dimension. The predicate of a
// scope is the OR of the clauses of the dimensions it carries; a scope with no
// dimension matches nothing, and the system scope matches everything.
//
// Usage:
//
//	db.Scopes(datascope.Apply(scope, datascope.WorkOrders)).Find(&orders)
package datascope

import (
	"strings"

	"github.com/fixflow/backend/internal/domain/access"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Resource names a scoped table
type Resource string

const (
	Agencies          Resource = "agencies"
	ServiceCompanies  Resource = "service_companies"
	Technicians       Resource = "technicians"
	Tenants           Resource = "tenants"
	Buildings         Resource = "buildings"
	Units             Resource = "units"
	WorkRequests      Resource = "work_requests"
	WorkOrders        Resource = "work_orders"
	Invoices          Resource = "invoices"
	StatusTransitions Resource = "status_transitions"
)

// dimension selectors
func agency(s access.Scope) *uuid.UUID     { return s.AgencyID }
func company(s access.Scope) *uuid.UUID    { return s.CompanyID }
func technician(s access.Scope) *uuid.UUID { return s.TechnicianID }
func tenant(s access.Scope) *uuid.UUID     { return s.TenantID }

// rule is the condition contributed by one ownership dimension
type rule struct {
	dimension func(access.Scope) *uuid.UUID
	build     func(access.Scope) (string, []interface{})
}

func single(sql string, dim func(access.Scope) *uuid.UUID) rule {
	return rule{
		dimension: dim,
		build: func(s access.Scope) (string, []interface{}) {
			return sql, []interface{}{*dim(s)}
		},
	}
}

// companyRequests matches requests currently open for acceptance by the
// company, either by broadcast within its linked agency or as a restricted
// target, plus any request the company already holds an order for. Once
// another company locks a request it drops out of view.
var companyRequests = rule{
	dimension: company,
	build: func(s access.Scope) (string, []interface{}) {
		const targeted = "work_requests.id IN (SELECT request_id FROM work_request_targets WHERE company_id = ?)"
		const ordered = "work_requests.id IN (SELECT request_id FROM work_orders WHERE company_id = ?)"
		const open = "work_requests.status = 'DIFFUSED'"
		if s.LinkedAgencyID == nil {
			return "(" + open + " AND " + targeted + ") OR " + ordered,
				[]interface{}{*s.CompanyID, *s.CompanyID}
		}
		return "(" + open + " AND ((work_requests.diffusion_mode = 'BROADCAST' AND work_requests.agency_id = ?) OR " + targeted + ")) OR " + ordered,
			[]interface{}{*s.LinkedAgencyID, *s.CompanyID, *s.CompanyID}
	},
}

var rules = map[Resource][]rule{
	Agencies: {
		single("agencies.id = ?", agency),
		single("agencies.id IN (SELECT agency_id FROM service_companies WHERE id = ?)", company),
		single("agencies.id IN (SELECT agency_id FROM tenants WHERE id = ?)", tenant),
	},
	ServiceCompanies: {
		single("service_companies.agency_id = ?", agency),
		single("service_companies.id = ?", company),
		single("service_companies.id IN (SELECT company_id FROM technicians WHERE id = ?)", technician),
	},
	Technicians: {
		single("technicians.company_id IN (SELECT id FROM service_companies WHERE agency_id = ?)", agency),
		single("technicians.company_id = ?", company),
		single("technicians.id = ?", technician),
	},
	Tenants: {
		single("tenants.agency_id = ?", agency),
		single("tenants.id = ?", tenant),
	},
	Buildings: {
		single("buildings.agency_id = ?", agency),
		single("buildings.agency_id IN (SELECT agency_id FROM tenants WHERE id = ?)", tenant),
	},
	Units: {
		single("units.agency_id = ?", agency),
		single("units.agency_id IN (SELECT agency_id FROM tenants WHERE id = ?)", tenant),
	},
	WorkRequests: {
		single("work_requests.agency_id = ?", agency),
		companyRequests,
		single("work_requests.id IN (SELECT request_id FROM work_orders WHERE technician_id = ?)", technician),
		single("work_requests.tenant_id = ?", tenant),
	},
	WorkOrders: {
		single("work_orders.agency_id = ?", agency),
		single("work_orders.company_id = ?", company),
		single("work_orders.technician_id = ?", technician),
		single("work_orders.request_id IN (SELECT id FROM work_requests WHERE tenant_id = ?)", tenant),
	},
	Invoices: {
		single("invoices.agency_id = ?", agency),
		single("invoices.company_id = ?", company),
	},
	StatusTransitions: {
		single("status_transitions.agency_id = ?", agency),
	},
}

// Predicate returns the SQL condition and arguments restricting resource to scope.
// An empty string means no restriction.
func Predicate(scope access.Scope, resource Resource) (string, []interface{}) {
	if scope.IsSystem() {
		return "", nil
	}

	var parts []string
	var args []interface{}
	for _, r := range rules[resource] {
		if r.dimension(scope) == nil {
			continue
		}
		sql, a := r.build(scope)
		parts = append(parts, "("+sql+")")
		args = append(args, a...)
	}
	if len(parts) == 0 {
		return "1 = 0", nil
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// Apply returns a GORM scope function restricting resource to scope
func Apply(scope access.Scope, resource Resource) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		sql, args := Predicate(scope, resource)
		if sql == "" {
			return db
		}
		return db.Where(sql, args...)
	}
}
