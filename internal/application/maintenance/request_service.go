// Package maintenance hosts the work request and work order operations.
package maintenance

import (
	"context"
	"fmt"

	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestService = "work_request"

// RequestService handles work request operations
type RequestService struct {
	runner *operation.Runner
	logger *zap.Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(runner *operation.Runner, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{runner: runner, logger: logger}
}

// Create opens a work request. Only a tenant may report an issue, on a unit of its
// own agency and, when it is assigned a unit, on that unit only.
func (s *RequestService) Create(ctx context.Context, p access.Principal, req CreateWorkRequestRequest) (*WorkRequestResponse, error) {
	if p.Role != access.RoleTenant {
		return nil, shared.Forbidden("ROLE_NOT_ALLOWED", "Only tenants can open work requests")
	}
	mode, err := maintenance.ParseDiffusionMode(req.DiffusionMode)
	if err != nil {
		return nil, err
	}

	var resp WorkRequestResponse
	err = s.runner.Run(ctx, p, requestService, "create", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		tenant, err := repos.Tenants().FindByID(ctx, scope, p.SubjectID)
		if err != nil {
			return err
		}
		unit, err := repos.Properties().FindUnit(ctx, scope, req.UnitID)
		if err != nil {
			return err
		}
		agency, err := repos.Agencies().FindByID(ctx, scope, unit.AgencyID)
		if err != nil {
			return err
		}
		request, err := maintenance.NewWorkRequest(tenant, unit, agency, req.Category, req.Description, mode, req.Currency)
		if err != nil {
			return err
		}
		if err := repos.WorkRequests().Create(ctx, request); err != nil {
			return err
		}
		s.logger.Info("Work request opened",
			zap.String("request_id", request.ID.String()),
			zap.String("agency_id", request.AgencyID.String()),
			zap.String("unit_id", request.UnitID.String()),
			zap.String("category", request.Category),
		)
		resp = ToWorkRequestResponse(request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Diffuse exposes an open request to service companies. The owning agency must be validated,
// and restricted targets must all be companies linked to it.
func (s *RequestService) Diffuse(ctx context.Context, p access.Principal, requestID uuid.UUID, req DiffuseWorkRequestRequest) (*WorkRequestResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	var mode maintenance.DiffusionMode
	if req.DiffusionMode != "" {
		parsed, err := maintenance.ParseDiffusionMode(req.DiffusionMode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}

	var resp WorkRequestResponse
	err := s.runner.Run(ctx, p, requestService, "diffuse", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		request, err := repos.WorkRequests().FindByID(ctx, scope, requestID)
		if err != nil {
			return err
		}
		agency, err := repos.Agencies().FindByID(ctx, scope, request.AgencyID)
		if err != nil {
			return err
		}
		if !agency.IsValidated() {
			return shared.PreconditionFailed("AGENCY_NOT_VALIDATED", "Agency must be validated before diffusing requests")
		}
		if err := request.Diffuse(mode, req.CompanyIDs); err != nil {
			return err
		}
		if request.DiffusionMode == maintenance.DiffusionRestricted {
			if err := checkTargetsLinked(ctx, repos, request); err != nil {
				return err
			}
		}
		if err := repos.WorkRequests().SaveWithLock(ctx, request); err != nil {
			return err
		}
		s.logger.Info("Work request diffused",
			zap.String("request_id", request.ID.String()),
			zap.String("mode", string(request.DiffusionMode)),
			zap.Int("targets", len(request.TargetCompanyIDs)),
		)
		resp = ToWorkRequestResponse(request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// checkTargetsLinked rejects restricted targets that are not linked to the request's agency
func checkTargetsLinked(ctx context.Context, repos uow.Repositories, request *maintenance.WorkRequest) error {
	agencyID := request.AgencyID
	linked, err := repos.Companies().FindByIDs(ctx, access.Scope{AgencyID: &agencyID}, request.TargetCompanyIDs)
	if err != nil {
		return err
	}
	found := make(map[uuid.UUID]struct{}, len(linked))
	for _, c := range linked {
		found[c.ID] = struct{}{}
	}
	for _, id := range request.TargetCompanyIDs {
		if _, ok := found[id]; !ok {
			return shared.ValidationFailed("COMPANY_NOT_LINKED",
				fmt.Sprintf("Company %s is not linked to the agency", id))
		}
	}
	return nil
}

// Cancel withdraws a request that has not been accepted. The owning tenant or agency may cancel.
func (s *RequestService) Cancel(ctx context.Context, p access.Principal, requestID uuid.UUID, req CancelRequest) (*WorkRequestResponse, error) {
	if err := p.Require(access.RoleTenant, access.RoleAgency); err != nil {
		return nil, err
	}

	var resp WorkRequestResponse
	err := s.runner.Run(ctx, p, requestService, "cancel", func(ctx context.Context, repos uow.Repositories) error {
		request, err := repos.WorkRequests().FindByID(ctx, p.Scope(), requestID)
		if err != nil {
			return err
		}
		if err := request.Cancel(req.Reason); err != nil {
			return err
		}
		if err := repos.WorkRequests().SaveWithLock(ctx, request); err != nil {
			return err
		}
		s.logger.Info("Work request cancelled",
			zap.String("request_id", request.ID.String()),
			zap.String("actor", p.String()),
		)
		resp = ToWorkRequestResponse(request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns a request visible to p
func (s *RequestService) Get(ctx context.Context, p access.Principal, requestID uuid.UUID) (*WorkRequestResponse, error) {
	var resp WorkRequestResponse
	err := s.runner.Run(ctx, p, requestService, "get", func(ctx context.Context, repos uow.Repositories) error {
		request, err := repos.WorkRequests().FindByID(ctx, p.Scope(), requestID)
		if err != nil {
			return err
		}
		resp = ToWorkRequestResponse(request)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the requests visible to p and their total count
func (s *RequestService) List(ctx context.Context, p access.Principal, filter WorkRequestListFilter) ([]WorkRequestResponse, int64, error) {
	domainFilter, err := filter.toDomainFilter()
	if err != nil {
		return nil, 0, err
	}

	var (
		items []WorkRequestResponse
		total int64
	)
	err = s.runner.Run(ctx, p, requestService, "list", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		requests, err := repos.WorkRequests().FindAll(ctx, scope, domainFilter)
		if err != nil {
			return err
		}
		if total, err = repos.WorkRequests().Count(ctx, scope, domainFilter); err != nil {
			return err
		}
		items = ToWorkRequestResponses(requests)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
