package handler

import (
	"github.com/fixflow/backend/internal/application/currency"
	"github.com/gin-gonic/gin"
)

// CurrencyHandler handles agency currency changes and the re-parenting moves
// that re-derive a record's currency
type CurrencyHandler struct {
	BaseHandler
	currency *currency.Service
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(svc *currency.Service) *CurrencyHandler {
	return &CurrencyHandler{currency: svc}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *CurrencyHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("/agencies/:id/currency", h.ChangeAgencyCurrency)
	rg.POST("/agencies/:id/currency/propagate", h.Propagate)
	rg.POST("/tenants/:id/move", h.MoveTenant)
}

// ChangeAgencyCurrency godoc
// @ID           changeAgencyCurrency
// @Summary      Change an agency's currency
// @Description  Propagates the new currency to linked companies, tenants, open requests, open orders and unsettled invoices. Explicit overrides are kept.
// @Tags         currency
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Agency ID" format(uuid)
// @Param        request body currency.ChangeCurrencyRequest true "New currency"
// @Success      200 {object} dto.Response{data=currency.CurrencyChangeResponse}
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /agencies/{id}/currency [put]
func (h *CurrencyHandler) ChangeAgencyCurrency(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req currency.ChangeCurrencyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.currency.ChangeAgencyCurrency(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Propagate godoc
// @ID           propagateAgencyCurrency
// @Summary      Re-run currency propagation
// @Description  Idempotent. A pass over consistent data rewrites nothing.
// @Tags         currency
// @Produce      json
// @Param        id path string true "Agency ID" format(uuid)
// @Success      200 {object} dto.Response{data=currency.PropagationResponse}
// @Security     BearerAuth
// @Router       /agencies/{id}/currency/propagate [post]
func (h *CurrencyHandler) Propagate(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.currency.Propagate(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MoveTenant godoc
// @ID           moveTenant
// @Summary      Move a tenant to another unit
// @Tags         currency
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Tenant ID" format(uuid)
// @Param        request body currency.MoveTenantRequest true "Target unit"
// @Success      200 {object} dto.Response{data=currency.MoveTenantResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /tenants/{id}/move [post]
func (h *CurrencyHandler) MoveTenant(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req currency.MoveTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.currency.MoveTenant(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
