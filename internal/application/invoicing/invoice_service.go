// Package invoicing hosts the invoice operations. Invoices are never created here:
// the completion cascade creates the draft.
package invoicing

import (
	"context"

	"github.com/fixflow/backend/internal/application/operation"
	"github.com/fixflow/backend/internal/application/uow"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const invoiceService = "invoice"

// InvoiceService handles invoice operations
type InvoiceService struct {
	runner *operation.Runner
	logger *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(runner *operation.Runner, logger *zap.Logger) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{runner: runner, logger: logger}
}

// Edit changes the lines or notes of a draft invoice of the caller's company
func (s *InvoiceService) Edit(ctx context.Context, p access.Principal, invoiceID uuid.UUID, req EditInvoiceRequest) (*InvoiceResponse, error) {
	if err := p.Require(access.RoleCompany); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, "edit", invoiceID, func(inv *invoicing.Invoice) error {
		return inv.Edit(req.lineInputs(), req.Notes)
	})
}

// Send issues a draft invoice to the agency
func (s *InvoiceService) Send(ctx context.Context, p access.Principal, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	if err := p.Require(access.RoleCompany); err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, "send", invoiceID, func(inv *invoicing.Invoice) error {
		return inv.Send()
	})
}

// SetStatus records the agency's payment or refusal of a sent invoice.
// Paying fires the settlement cascade; repeating a recorded decision changes nothing.
func (s *InvoiceService) SetStatus(ctx context.Context, p access.Principal, invoiceID uuid.UUID, req SetInvoiceStatusRequest) (*InvoiceResponse, error) {
	if err := p.Require(access.RoleAgency); err != nil {
		return nil, err
	}
	target, err := invoicing.ParseInvoiceStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, p, "set_status", invoiceID, func(inv *invoicing.Invoice) error {
		return inv.SetStatus(target, req.Reason)
	})
}

func (s *InvoiceService) mutate(ctx context.Context, p access.Principal, method string, invoiceID uuid.UUID, change func(*invoicing.Invoice) error) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	err := s.runner.Run(ctx, p, invoiceService, method, func(ctx context.Context, repos uow.Repositories) error {
		inv, err := repos.Invoices().FindByID(ctx, p.Scope(), invoiceID)
		if err != nil {
			return err
		}
		if err := change(inv); err != nil {
			return err
		}
		if len(inv.GetDomainEvents()) == 0 {
			s.logger.Debug("Invoice unchanged", zap.String("invoice_id", inv.ID.String()), zap.String("operation", method))
			resp = ToInvoiceResponse(inv)
			return nil
		}
		if err := repos.Invoices().SaveWithLock(ctx, inv); err != nil {
			return err
		}
		s.logger.Info("Invoice updated",
			zap.String("invoice_id", inv.ID.String()),
			zap.String("number", inv.Number),
			zap.String("operation", method),
			zap.String("status", string(inv.Status)),
			zap.Stringer("gross", inv.GrossMoney()),
		)
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns an invoice visible to p
func (s *InvoiceService) Get(ctx context.Context, p access.Principal, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	err := s.runner.Run(ctx, p, invoiceService, "get", func(ctx context.Context, repos uow.Repositories) error {
		inv, err := repos.Invoices().FindByID(ctx, p.Scope(), invoiceID)
		if err != nil {
			return err
		}
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByOrder returns the invoice of a work order visible to p
func (s *InvoiceService) GetByOrder(ctx context.Context, p access.Principal, orderID uuid.UUID) (*InvoiceResponse, error) {
	var resp InvoiceResponse
	err := s.runner.Run(ctx, p, invoiceService, "get_by_order", func(ctx context.Context, repos uow.Repositories) error {
		inv, err := repos.Invoices().FindByOrder(ctx, p.Scope(), orderID)
		if err != nil {
			return err
		}
		resp = ToInvoiceResponse(inv)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the invoices visible to p and their total count
func (s *InvoiceService) List(ctx context.Context, p access.Principal, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter, err := filter.toDomainFilter()
	if err != nil {
		return nil, 0, err
	}
	var (
		items []InvoiceResponse
		total int64
	)
	err = s.runner.Run(ctx, p, invoiceService, "list", func(ctx context.Context, repos uow.Repositories) error {
		scope := p.Scope()
		invoices, err := repos.Invoices().FindAll(ctx, scope, domainFilter)
		if err != nil {
			return err
		}
		if total, err = repos.Invoices().Count(ctx, scope, domainFilter); err != nil {
			return err
		}
		items = ToInvoiceResponses(invoices)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
