// Package currency hosts the operations that keep dependent currencies consistent
// with their owning agency. No operation here ever converts an amount.
package currency

import (
	"context"

	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/fixflow/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const currencyService = "currency"

// Service handles currency changes, propagation and re-parenting
type Service struct {
	runner          *operation.Runner
	logger          *zap.Logger
	businessMetrics *telemetry.BusinessMetrics
}

// NewService creates a new currency Service
func NewService(runner *operation.Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, logger: logger}
}

// SetBusinessMetrics sets the business metrics recorder
func (s *Service) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// ChangeAgencyCurrency sets the agency's currency. The propagation cascade rewrites
// every inherited dependent currency in the same transaction.
func (s *Service) ChangeAgencyCurrency(ctx context.Context, p access.Principal, agencyID uuid.UUID, req ChangeCurrencyRequest) (*CurrencyChangeResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	var resp CurrencyChangeResponse
	err := s.runner.Run(ctx, p, currencyService, "change_agency_currency", func(ctx context.Context, repos uow.Repositories) error {
		agency, err := repos.Agencies().FindByID(ctx, p.Scope(), agencyID)
		if err != nil {
			return err
		}
		old := agency.Currency
		if err := agency.ChangeCurrency(req.Currency); err != nil {
			return err
		}
		resp = CurrencyChangeResponse{
			AgencyID:    agency.ID,
			OldCurrency: old.String(),
			NewCurrency: agency.Currency.String(),
			Changed:     agency.Currency != old,
		}
		if !resp.Changed {
			return nil
		}
		if err := repos.Agencies().SaveWithLock(ctx, agency); err != nil {
			return err
		}
		s.logger.Info("Agency currency changed",
			zap.String("agency_id", agency.ID.String()),
			zap.String("old_currency", resp.OldCurrency),
			zap.String("new_currency", resp.NewCurrency),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Propagate re-runs the propagation pass for an agency. It is idempotent: a second
// pass over a consistent subtree rewrites nothing.
func (s *Service) Propagate(ctx context.Context, p access.Principal, agencyID uuid.UUID) (*PropagationResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	var resp PropagationResponse
	err := s.runner.Run(ctx, p, currencyService, "propagate", func(ctx context.Context, repos uow.Repositories) error {
		agency, err := repos.Agencies().FindByID(ctx, p.Scope(), agencyID)
		if err != nil {
			return err
		}
		result, err := repos.CurrencyPropagation().Propagate(ctx, agency.ID, agency.Currency)
		if err != nil {
			return err
		}
		resp = PropagationResponse{
			AgencyID: agency.ID,
			Currency: agency.Currency.String(),
			Rows:     result,
			Total:    result.Total(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.businessMetrics != nil {
		s.businessMetrics.RecordPropagation(ctx, resp.AgencyID, resp.Total)
	}
	s.logger.Info("Currency propagation pass finished",
		zap.String("agency_id", resp.AgencyID.String()),
		zap.String("currency", resp.Currency),
		zap.Int64("rows", resp.Total),
	)
	return &resp, nil
}

// RelinkCompany moves a company to another agency. Only the system principal may
// re-parent, since neither agency alone owns the move.
func (s *Service) RelinkCompany(ctx context.Context, p access.Principal, companyID uuid.UUID, req RelinkCompanyRequest) (*RelinkResponse, error) {
	if !p.IsSystem() {
		return nil, shared.Forbidden("ROLE_NOT_ALLOWED", "Only administrators can relink service companies")
	}
	var resp RelinkResponse
	err := s.runner.Run(ctx, p, currencyService, "relink_company", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		company, err := repos.Companies().FindByID(ctx, scope, companyID)
		if err != nil {
			return err
		}
		agency, err := repos.Agencies().FindByID(ctx, scope, req.AgencyID)
		if err != nil {
			return err
		}
		if err := company.Relink(agency); err != nil {
			return err
		}
		if len(company.GetDomainEvents()) > 0 {
			if err := repos.Companies().SaveWithLock(ctx, company); err != nil {
				return err
			}
			s.logger.Info("Service company relinked",
				zap.String("company_id", company.ID.String()),
				zap.String("agency_id", agency.ID.String()),
				zap.String("currency", company.Currency.String()),
			)
		}
		resp = RelinkResponse{
			CompanyID:        company.ID,
			AgencyID:         company.AgencyID,
			Currency:         company.Currency.String(),
			CurrencyExplicit: company.Explicit,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// MoveTenant assigns a tenant to a unit. An agency may move its tenants between its own
// units; moves across agencies are reserved to the system principal.
func (s *Service) MoveTenant(ctx context.Context, p access.Principal, tenantID uuid.UUID, req MoveTenantRequest) (*MoveTenantResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	var resp MoveTenantResponse
	err := s.runner.Run(ctx, p, currencyService, "move_tenant", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		tenant, err := repos.Tenants().FindByID(ctx, scope, tenantID)
		if err != nil {
			return err
		}
		unit, err := repos.Properties().FindUnit(ctx, scope, req.UnitID)
		if err != nil {
			return err
		}
		agency, err := repos.Agencies().FindByID(ctx, access.System().Scope(), unit.AgencyID)
		if err != nil {
			return err
		}
		if err := tenant.MoveTo(unit, agency); err != nil {
			return err
		}
		if err := repos.Tenants().SaveWithLock(ctx, tenant); err != nil {
			return err
		}
		s.logger.Info("Tenant moved",
			zap.String("tenant_id", tenant.ID.String()),
			zap.String("unit_id", unit.ID.String()),
			zap.String("agency_id", agency.ID.String()),
		)
		resp = MoveTenantResponse{
			TenantID:         tenant.ID,
			AgencyID:         tenant.AgencyID,
			UnitID:           unit.ID,
			Currency:         tenant.Currency.String(),
			CurrencyExplicit: tenant.Explicit,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
