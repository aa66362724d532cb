package handler

import (
	appinvoicing "github.com/fixflow/backend/internal/application/invoicing"
	"github.com/gin-gonic/gin"
)

// InvoiceHandler handles invoice endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices *appinvoicing.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices *appinvoicing.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/invoices")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Edit)
	g.POST("/:id/send", h.Send)
	g.POST("/:id/status", h.SetStatus)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        status    query string false "Status filter"
// @Param        year      query int    false "Issue year"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]appinvoicing.InvoiceResponse}
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter appinvoicing.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.invoices.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getInvoice
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinvoicing.InvoiceResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.invoices.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Edit godoc
// @ID           editInvoice
// @Summary      Edit a draft invoice
// @Description  Replaces lines and notes of a DRAFT. Totals are recomputed from the lines.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                          true "Invoice ID" format(uuid)
// @Param        request body appinvoicing.EditInvoiceRequest true "New lines and notes"
// @Success      200 {object} dto.Response{data=appinvoicing.InvoiceResponse}
// @Failure      412 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id} [patch]
func (h *InvoiceHandler) Edit(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinvoicing.EditInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.invoices.Edit(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Send godoc
// @ID           sendInvoice
// @Summary      Send an invoice to the agency
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} dto.Response{data=appinvoicing.InvoiceResponse}
// @Failure      403 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.invoices.Send(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetStatus godoc
// @ID           setInvoiceStatus
// @Summary      Mark an invoice paid or refused
// @Description  The agency settles a SENT invoice. PAID validates the work order and closes the request. Repeating the same status is a no-op.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id      path string                               true "Invoice ID" format(uuid)
// @Param        request body appinvoicing.SetInvoiceStatusRequest true "Decision"
// @Success      200 {object} dto.Response{data=appinvoicing.InvoiceResponse}
// @Failure      403 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /invoices/{id}/status [post]
func (h *InvoiceHandler) SetStatus(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinvoicing.SetInvoiceStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.invoices.SetStatus(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
