package handler

import (
	appmaintenance "github.com/fixflow/backend/internal/application/maintenance"
	"github.com/gin-gonic/gin"
)

// WorkRequestHandler handles work request endpoints
type WorkRequestHandler struct {
	BaseHandler
	requests *appmaintenance.RequestService
	orders   *appmaintenance.OrderService
}

// NewWorkRequestHandler creates a new WorkRequestHandler
func NewWorkRequestHandler(requests *appmaintenance.RequestService, orders *appmaintenance.OrderService) *WorkRequestHandler {
	return &WorkRequestHandler{requests: requests, orders: orders}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *WorkRequestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/work-requests")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("/:id/diffuse", h.Diffuse)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/accept", h.Accept)
}

// Create godoc
// @ID           createWorkRequest
// @Summary      Open a work request
// @Description  A tenant reports an issue on its unit. The request starts in OPEN.
// @Tags         work-requests
// @Accept       json
// @Produce      json
// @Param        request body appmaintenance.CreateWorkRequestRequest true "Work request"
// @Success      201 {object} dto.Response{data=appmaintenance.WorkRequestResponse}
// @Failure      400 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-requests [post]
func (h *WorkRequestHandler) Create(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req appmaintenance.CreateWorkRequestRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.requests.Create(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List godoc
// @ID           listWorkRequests
// @Summary      List work requests
// @Description  Lists the requests visible to the caller
// @Tags         work-requests
// @Produce      json
// @Param        status    query string false "Status filter"
// @Param        unit_id   query string false "Unit filter"
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]appmaintenance.WorkRequestResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-requests [get]
func (h *WorkRequestHandler) List(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter appmaintenance.WorkRequestListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.requests.List(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Get godoc
// @ID           getWorkRequest
// @Summary      Get a work request
// @Tags         work-requests
// @Produce      json
// @Param        id path string true "Work request ID" format(uuid)
// @Success      200 {object} dto.Response{data=appmaintenance.WorkRequestResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-requests/{id} [get]
func (h *WorkRequestHandler) Get(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.requests.Get(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Diffuse godoc
// @ID           diffuseWorkRequest
// @Summary      Diffuse a work request to companies
// @Description  The owning agency exposes the request to every linked company or to a restricted target list
// @Tags         work-requests
// @Accept       json
// @Produce      json
// @Param        id      path string                                   true  "Work request ID" format(uuid)
// @Param        request body appmaintenance.DiffuseWorkRequestRequest false "Diffusion options"
// @Success      200 {object} dto.Response{data=appmaintenance.WorkRequestResponse}
// @Failure      403 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-requests/{id}/diffuse [post]
func (h *WorkRequestHandler) Diffuse(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appmaintenance.DiffuseWorkRequestRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.requests.Diffuse(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel godoc
// @ID           cancelWorkRequest
// @Summary      Cancel a work request
// @Tags         work-requests
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Work request ID" format(uuid)
// @Param        request body appmaintenance.CancelRequest true "Cancellation reason"
// @Success      200 {object} dto.Response{data=appmaintenance.WorkRequestResponse}
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-requests/{id}/cancel [post]
func (h *WorkRequestHandler) Cancel(c *gin.Context) {
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
	resp, err := h.requests.Cancel(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Accept godoc
// @ID           acceptWorkRequest
// @Summary      Accept a diffused work request
// @Description  A linked company takes the request on. This opens a PENDING work order and locks the request.
// @Tags         work-requests
// @Accept       json
// @Produce      json
// @Param        id      path string                                  true  "Work request ID" format(uuid)
// @Param        request body appmaintenance.AcceptWorkRequestRequest false "Quoted amount"
// @Success      201 {object} dto.Response{data=appmaintenance.WorkOrderResponse}
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      412 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-requests/{id}/accept [post]
func (h *WorkRequestHandler) Accept(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appmaintenance.AcceptWorkRequestRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.orders.Accept(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
