package handler

import (
	appaudit "github.com/fixflow/backend/internal/application/audit"
	"github.com/fixflow/backend/internal/domain/invoicing"
	"github.com/fixflow/backend/internal/domain/maintenance"
	"github.com/fixflow/backend/internal/domain/tenancy"
	"github.com/gin-gonic/gin"
)

// AuditHandler serves the status transition trail of lifecycle aggregates
type AuditHandler struct {
	BaseHandler
	trail *appaudit.TrailService
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(trail *appaudit.TrailService) *AuditHandler {
	return &AuditHandler{trail: trail}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *AuditHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/agencies/:id/transitions", h.Transitions(tenancy.AggregateTypeAgency))
	rg.GET("/work-requests/:id/transitions", h.Transitions(maintenance.AggregateTypeWorkRequest))
	rg.GET("/work-orders/:id/transitions", h.Transitions(maintenance.AggregateTypeWorkOrder))
	rg.GET("/invoices/:id/transitions", h.Transitions(invoicing.AggregateTypeInvoice))
}

// Transitions godoc
// @ID           listWorkOrderTransitions
// @Summary      List status transitions
// @Description  Oldest first. The same endpoint exists under /agencies, /work-requests and /invoices. Only the owning agency reads it.
// @Tags         audit
// @Produce      json
// @Param        id path string true "Aggregate ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]appaudit.TransitionResponse}
// @Failure      403 {object} dto.Response
// @Security     BearerAuth
// @Router       /work-orders/{id}/transitions [get]
func (h *AuditHandler) Transitions(aggregateType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := h.principal(c)
		if !ok {
			return
		}
		id, ok := h.pathID(c, "id")
		if !ok {
			return
		}
		items, err := h.trail.Trail(c.Request.Context(), p, aggregateType, id)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, items)
	}
}
