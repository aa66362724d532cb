package handler

import (
	"context"

	appinvoicing "github.com/fixflow/backend/internal/application/invoicing"
	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	"github.com/fixflow/backend/internal/domain/access"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WorkOrderHandler handles work order endpoints
type WorkOrderHandler struct {
	BaseHandler
	orders   *appmaintenance.OrderService
	invoices *appinvoicing.InvoiceService
}

// NewWorkOrderHandler creates a new WorkOrderHandler
func NewWorkOrderHandler(orders *appmaintenance.OrderService, invoices *appinvoicing.InvoiceService) *WorkOrderHandler {
	return &WorkOrderHandler{orders: orders, invoices: invoices}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *WorkOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/work-orders")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.GET("/:id/invoice", h.GetInvoice)
	g.GET("/:id/report", h.GetReportLink)
	g.POST("/:id/assign", h.AssignTechnician)
	g.POST("/:id/start", h.transition(h.orders.Start))
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/validate", h.transition(h.orders.Validate))
	g.POST("/:id/cancel", h.Cancel)
}

type orderTransition func(ctx context.Context, p access.Principal, orderID uuid.UUID) (*appmaintenance.WorkOrderResponse, error)

// transition serves the body-less order transitions
//
// @ID           startWorkOrder
// @Summary      Start or validate a work order
// @Description  POST /work-orders/{id}/start is called by the assigned technician. POST /work-orders/{id}/validate is called by the owning agency.
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appmaintenance.WorkOrderResponse}
// @Failure      403 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id}/start [post]
func (h *WorkOrderHandler) transition(apply orderTransition) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := h.principal(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c, "id")
		if !ok {
			return
		}
		resp, err := apply(c.Request.Context(), p, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, resp)
	}
}

// List godoc
// @ID           listWorkOrders
// @Summary      List work orders
// @Description  Technicians only ever see the orders assigned to them, whatever the filter says
// @Tags         work-orders
// @Produce      json
// @Param        status        query string false "Status filter"
// @Param        request_id    query string false "Work request filter"
// @Param        technician_id query string false "Technician filter"
// @Param        page          query int    false "Page number" default(1)
// @Param        page_size     query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]appmaintenance.WorkOrderResponse}
// @Security     BearerAuth
// @Router       /work-orders [get]
func (h *WorkOrderHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter appmaintenance.WorkOrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.orders.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getWorkOrder
// @Summary      Get a work order
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appmaintenance.WorkOrderResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id} [get]
func (h *WorkOrderHandler) Get(c *gin.Context) {
	h.transition(h.orders.Get)(c)
}

// GetInvoice godoc
// @ID           getWorkOrderInvoice
// @Summary      Get the invoice of a work order
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinvoicing.InvoiceResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id}/invoice [get]
func (h *WorkOrderHandler) GetInvoice(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.invoices.GetByOrder(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetReportLink godoc
// @ID           getWorkOrderReportLink
// @Summary      Get a download link to the completion report
// @Description  Returns a presigned link valid for a short time
// @Tags         work-orders
// @Produce      json
// @Param        id path string true "Work order ID" format(uuid)
// @Success      200 {object} dto.Response{data=appmaintenance.ReportLinkResponse}
// @Failure      404 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id}/report [get]
func (h *WorkOrderHandler) GetReportLink(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.orders.ReportLink(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AssignTechnician godoc
// @ID           assignWorkOrderTechnician
// @Summary      Assign a technician
// @Description  The order's company assigns one of its active technicians
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                                 true "Work order ID" format(uuid)
// @Param        request body appmaintenance.AssignTechnicianRequest true "Technician"
// @Success      200 {object} dto.Response{data=appmaintenance.WorkOrderResponse}
// @Failure      403 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id}/assign [post]
func (h *WorkOrderHandler) AssignTechnician(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appmaintenance.AssignTechnicianRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.AssignTechnician(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Complete godoc
// @ID           completeWorkOrder
// @Summary      Complete a work order
// @Description  The assigned technician closes the work. A draft invoice is generated in the same transaction.
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                                  true  "Work order ID" format(uuid)
// @Param        request body appmaintenance.CompleteWorkOrderRequest false "Report and final amount"
// @Success      200 {object} dto.Response{data=appmaintenance.WorkOrderResponse}
// @Failure      403 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id}/complete [post]
func (h *WorkOrderHandler) Complete(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appmaintenance.CompleteWorkOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.orders.Complete(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelWorkOrder
// @Summary      Cancel a work order
// @Description  Cancelling reopens the parent request for another company
// @Tags         work-orders
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Work order ID" format(uuid)
// @Param        request body appmaintenance.CancelRequest true "Cancellation reason"
// @Success      200 {object} dto.Response{data=appmaintenance.WorkOrderResponse}
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id}/cancel [post]
func (h *WorkOrderHandler) Cancel(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appmaintenance.CancelRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.orders.Cancel(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
