package maintenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const orderService = "work_order"

// OrderService handles work order operations
type OrderService struct {
	runner   *operation.Runner
	logger   *zap.Logger
	verifier ReportVerifier
	linker   ReportLinker
}

// NewOrderService creates a new OrderService
func NewOrderService(runner *operation.Runner, logger *zap.Logger) *OrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{runner: runner, logger: logger}
}

// SetReportVerifier enables checking completion reports against report storage
func (s *OrderService) SetReportVerifier(v ReportVerifier) {
	s.verifier = v
	s.linker, _ = v.(ReportLinker)
}

// Accept creates a pending order for a diffused request and locks the request.
// Of concurrent accepts on one request exactly one succeeds; the others get a conflict
// from the request's version guard or from the single active order index.
func (s *OrderService) Accept(ctx context.Context, p access.Principal, requestID uuid.UUID, req AcceptWorkRequestRequest) (*WorkOrderResponse, error) {
	if p.Role != access.RoleCompany {
		return nil, shared.Forbidden("ROLE_NOT_ALLOWED", "Only service companies can accept work requests")
	}
	amount := decimal.Zero
	if req.Amount != nil {
		amount = *req.Amount
	}

	var resp WorkOrderResponse
	err := s.runner.Run(ctx, p, orderService, "accept", func(ctx context.Context, repos uow.Repositories) error {
		request, err := acceptable(ctx, repos, p, requestID)
		if err != nil {
			return err
		}
		order, err := maintenance.NewWorkOrder(request, p.SubjectID, amount, req.Currency)
		if err != nil {
			return err
		}
		if err := request.Lock(order.ID); err != nil {
			return err
		}
		if err := repos.WorkRequests().SaveWithLock(ctx, request); err != nil {
			return err
		}
		if err := repos.WorkOrders().Create(ctx, order); err != nil {
			return err
		}
		s.logger.Info("Work request accepted",
			zap.String("request_id", request.ID.String()),
			zap.String("order_id", order.ID.String()),
			zap.String("company_id", order.CompanyID.String()),
			zap.Stringer("amount", order.AmountMoney()),
		)
		resp = ToWorkOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// acceptable loads the request p wants to accept. A request already taken by
// another company is out of p's scope; when it had been offered to p it is
// still returned, so that Lock reports the lost race as a conflict.
func acceptable(ctx context.Context, repos uow.Repositories, p access.Principal, requestID uuid.UUID) (*maintenance.WorkRequest, error) {
	request, err := repos.WorkRequests().FindByID(ctx, p.Scope(), requestID)
	if !shared.IsKind(err, shared.KindNotFound) {
		return request, err
	}
	taken, lookupErr := repos.WorkRequests().FindByID(ctx, access.System().Scope(), requestID)
	if lookupErr != nil || !taken.OfferedTo(p.SubjectID, p.AgencyID) {
		return nil, err
	}
	return taken, nil
}

// AssignTechnician assigns one of the owning company's active technicians
func (s *OrderService) AssignTechnician(ctx context.Context, p access.Principal, orderID uuid.UUID, req AssignTechnicianRequest) (*WorkOrderResponse, error) {
	if err := p.Require(access.RoleCompany); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, "assign_technician", orderID, func(ctx context.Context, repos uow.Repositories, order *maintenance.WorkOrder) error {
		// Loaded unscoped so a foreign technician is refused rather than reported missing
		tech, err := repos.Technicians().FindByID(ctx, access.System().Scope(), req.TechnicianID)
		if err != nil {
			return err
		}
		return order.AssignTechnician(tech)
	})
}

// Start begins work on a pending order. The owning company or the assigned technician may start.
func (s *OrderService) Start(ctx context.Context, p access.Principal, orderID uuid.UUID) (*WorkOrderResponse, error) {
	if err := p.Require(access.RoleCompany, access.RoleTechnician); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, "start", orderID, func(_ context.Context, _ uow.Repositories, order *maintenance.WorkOrder) error {
		if err := requireAssigned(p, order); err != nil {
			return err
		}
		return order.Start()
	})
}

// Complete finishes work in progress; the draft invoice is created by the cascade.
// A configured report store is checked before the transaction opens.
func (s *OrderService) Complete(ctx context.Context, p access.Principal, orderID uuid.UUID, req CompleteWorkOrderRequest) (*WorkOrderResponse, error) {
	if err := p.Require(access.RoleCompany, access.RoleTechnician); err != nil {
		return nil, err
	}
	if ref := strings.TrimSpace(req.ReportRef); ref != "" && s.verifier != nil {
		ok, err := s.verifier.Exists(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("verify report %q: %w", ref, err)
		}
		if !ok {
			return nil, shared.ValidationFailed("REPORT_NOT_FOUND", "Report "+ref+" does not exist")
		}
	}
	return s.mutate(ctx, p, "complete", orderID, func(_ context.Context, _ uow.Repositories, order *maintenance.WorkOrder) error {
		if err := requireAssigned(p, order); err != nil {
			return err
		}
		return order.Complete(req.ReportRef, req.Amount)
	})
}

// Validate accepts completed work. Validating a validated order returns it unchanged.
func (s *OrderService) Validate(ctx context.Context, p access.Principal, orderID uuid.UUID) (*WorkOrderResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, "validate", orderID, func(_ context.Context, _ uow.Repositories, order *maintenance.WorkOrder) error {
		return order.Validate()
	})
}

// Cancel abandons an order before completion; the cascade releases the request
func (s *OrderService) Cancel(ctx context.Context, p access.Principal, orderID uuid.UUID, req CancelRequest) (*WorkOrderResponse, error) {
	if err := p.Require(access.RoleCompany, access.RoleAgency); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, "cancel", orderID, func(_ context.Context, _ uow.Repositories, order *maintenance.WorkOrder) error {
		return order.Cancel(req.Reason)
	})
}

// mutate loads the order visible to p, applies change and saves it unless change was a no-op
func (s *OrderService) mutate(ctx context.Context, p access.Principal, method string, orderID uuid.UUID,
	change func(ctx context.Context, repos uow.Repositories, order *maintenance.WorkOrder) error) (*WorkOrderResponse, error) {
	var resp WorkOrderResponse
	err := s.runner.Run(ctx, p, orderService, method, func(ctx context.Context, repos uow.Repositories) error {
		order, err := repos.WorkOrders().FindByID(ctx, p.Scope(), orderID)
		if err != nil {
			return err
		}
		if err := change(ctx, repos, order); err != nil {
			return err
		}
		// every effective transition raises an event; none means an idempotent no-op
		if len(order.GetDomainEvents()) == 0 {
			s.logger.Debug("Work order unchanged", zap.String("order_id", order.ID.String()), zap.String("operation", method))
			resp = ToWorkOrderResponse(order)
			return nil
		}
		if err := repos.WorkOrders().SaveWithLock(ctx, order); err != nil {
			return err
		}
		s.logger.Info("Work order updated",
			zap.String("order_id", order.ID.String()),
			zap.String("operation", method),
			zap.String("status", string(order.Status)),
		)
		resp = ToWorkOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func requireAssigned(p access.Principal, order *maintenance.WorkOrder) error {
	if p.Role == access.RoleTechnician && !order.IsAssignedTo(p.SubjectID) {
		return shared.Forbidden("NOT_ASSIGNED", "Technician is not assigned to this work order")
	}
	return nil
}

// Get returns an order visible to p
func (s *OrderService) Get(ctx context.Context, p access.Principal, orderID uuid.UUID) (*WorkOrderResponse, error) {
	var resp WorkOrderResponse
	err := s.runner.Run(ctx, p, orderService, "get", func(ctx context.Context, repos uow.Repositories) error {
		order, err := repos.WorkOrders().FindByID(ctx, p.Scope(), orderID)
		if err != nil {
			return err
		}
		resp = ToWorkOrderResponse(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReportLink returns a temporary download link to the report of an order visible to p
func (s *OrderService) ReportLink(ctx context.Context, p access.Principal, orderID uuid.UUID) (*ReportLinkResponse, error) {
	order, err := s.Get(ctx, p, orderID)
	if err != nil {
		return nil, err
	}
	if order.ReportRef == "" {
		return nil, shared.PreconditionFailed("NO_REPORT", "Work order has no report")
	}
	if s.linker == nil {
		return nil, shared.PreconditionFailed("REPORT_STORAGE_DISABLED", "Report storage is not configured")
	}
	url, expiresAt, err := s.linker.DownloadURL(ctx, order.ReportRef, ReportLinkTTL)
	if err != nil {
		return nil, fmt.Errorf("link report %q: %w", order.ReportRef, err)
	}
	return &ReportLinkResponse{
		OrderID:   order.ID.String(),
		ReportRef: order.ReportRef,
		URL:       url,
		ExpiresAt: expiresAt,
	}, nil
}

// List returns the orders visible to p and their total count.
// A technician always sees its own orders only; a technician filter is ignored.
func (s *OrderService) List(ctx context.Context, p access.Principal, filter WorkOrderListFilter) ([]WorkOrderResponse, int64, error) {
	if p.Role == access.RoleTechnician {
		filter.TechnicianID = nil
	}
	domainFilter, err := filter.toDomainFilter()
	if err != nil {
		return nil, 0, err
	}

	var (
		items []WorkOrderResponse
		total int64
	)
	err = s.runner.Run(ctx, p, orderService, "list", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		orders, err := repos.WorkOrders().FindAll(ctx, scope, domainFilter)
		if err != nil {
			return err
		}
		if total, err = repos.WorkOrders().Count(ctx, scope, domainFilter); err != nil {
			return err
		}
		items = ToWorkOrderResponses(orders)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
