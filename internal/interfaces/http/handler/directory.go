package handler

import (
	apptenancy "github.com/fixflow/backend/internal/application/tenancy"
	"github.com/gin-gonic/gin"
)

// DirectoryHandler handles the registration of agencies, companies,
// technicians, tenants and property. Agency onboarding and accounts are
// administrator operations and are served by fixflowctl instead.
type DirectoryHandler struct {
	BaseHandler
	directory *apptenancy.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler
func NewDirectoryHandler(directory *apptenancy.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// RegisterRoutes implements router.RouteRegistrar
func (h *DirectoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	agencies := rg.Group("/agencies")
	agencies.GET("/:id", h.GetAgency)
	agencies.PUT("/:id/rates", h.SetAgencyRates)

	companies := rg.Group("/companies")
	companies.POST("", h.RegisterCompany)
	companies.GET("", h.ListCompanies)

	technicians := rg.Group("/technicians")
	technicians.POST("", h.RegisterTechnician)
	technicians.GET("", h.ListTechnicians)
	technicians.POST("/:id/deactivate", h.DeactivateTechnician)

	tenants := rg.Group("/tenants")
	tenants.POST("", h.RegisterTenant)
	tenants.GET("", h.ListTenants)

	buildings := rg.Group("/buildings")
	buildings.POST("", h.RegisterBuilding)
	buildings.POST("/:id/units", h.RegisterUnit)
	buildings.GET("/:id/units", h.ListUnits)
}

// GetAgency godoc
// @ID           getAgency
// @Summary      Get an agency
// @Tags         directory
// @Produce      json
// @Param        id path string true "Agency ID" format(uuid)
// @Success      200 {object} dto.Response{data=apptenancy.AgencyResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /agencies/{id} [get]
func (h *DirectoryHandler) GetAgency(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.directory.GetAgency(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SetAgencyRates godoc
// @ID           setAgencyRates
// @Summary      Set tax and commission rates
// @Description  New rates apply to invoices generated afterwards
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        id      path string                     true "Agency ID" format(uuid)
// @Param        request body apptenancy.SetRatesRequest true "Rates"
// @Success      200 {object} dto.Response{data=apptenancy.AgencyResponse}
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /agencies/{id}/rates [put]
func (h *DirectoryHandler) SetAgencyRates(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apptenancy.SetRatesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.directory.SetAgencyRates(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterCompany godoc
// @ID           registerCompany
// @Summary      Register a service company
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        request body apptenancy.RegisterCompanyRequest true "Company"
// @Success      201 {object} dto.Response{data=apptenancy.CompanyResponse}
// @Security     BearerAuth
// @Router       /companies [post]
func (h *DirectoryHandler) RegisterCompany(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req apptenancy.RegisterCompanyRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.directory.RegisterCompany(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListCompanies godoc
// @ID           listCompanies
// @Summary      List service companies
// @Tags         directory
// @Produce      json
// @Param        page      query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]apptenancy.CompanyResponse}
// @Security     BearerAuth
// @Router       /companies [get]
func (h *DirectoryHandler) ListCompanies(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter apptenancy.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.directory.ListCompanies(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// RegisterTechnician godoc
// @ID           registerTechnician
// @Summary      Register a technician
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        request body apptenancy.RegisterTechnicianRequest true "Technician"
// @Success      201 {object} dto.Response{data=apptenancy.TechnicianResponse}
// @Security     BearerAuth
// @Router       /technicians [post]
func (h *DirectoryHandler) RegisterTechnician(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req apptenancy.RegisterTechnicianRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.directory.RegisterTechnician(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListTechnicians godoc
// @ID           listTechnicians
// @Summary      List technicians
// @Tags         directory
// @Produce      json
// @Success      200 {object} dto.Response{data=[]apptenancy.TechnicianResponse}
// @Security     BearerAuth
// @Router       /technicians [get]
func (h *DirectoryHandler) ListTechnicians(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter apptenancy.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.directory.ListTechnicians(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// DeactivateTechnician godoc
// @ID           deactivateTechnician
// @Summary      Deactivate a technician
// @Description  An inactive technician can no longer be assigned nor sign in
// @Tags         directory
// @Produce      json
// @Param        id path string true "Technician ID" format(uuid)
// @Success      200 {object} dto.Response{data=apptenancy.TechnicianResponse}
// @Security     BearerAuth
// @Router       /technicians/{id}/deactivate [post]
func (h *DirectoryHandler) DeactivateTechnician(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.directory.DeactivateTechnician(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterTenant godoc
// @ID           registerTenant
// @Summary      Register a tenant
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        request body apptenancy.RegisterTenantRequest true "Tenant"
// @Success      201 {object} dto.Response{data=apptenancy.TenantResponse}
// @Security     BearerAuth
// @Router       /tenants [post]
func (h *DirectoryHandler) RegisterTenant(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req apptenancy.RegisterTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.directory.RegisterTenant(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListTenants godoc
// @ID           listTenants
// @Summary      List tenants
// @Tags         directory
// @Produce      json
// @Success      200 {object} dto.Response{data=[]apptenancy.TenantResponse}
// @Security     BearerAuth
// @Router       /tenants [get]
func (h *DirectoryHandler) ListTenants(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var filter apptenancy.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	items, total, err := h.directory.ListTenants(c.Request.Context(), p, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// RegisterBuilding godoc
// @ID           registerBuilding
// @Summary      Register a building
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        request body apptenancy.RegisterBuildingRequest true "Building"
// @Success      201 {object} dto.Response{data=apptenancy.BuildingResponse}
// @Security     BearerAuth
// @Router       /buildings [post]
func (h *DirectoryHandler) RegisterBuilding(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	var req apptenancy.RegisterBuildingRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.directory.RegisterBuilding(c.Request.Context(), p, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RegisterUnit godoc
// @ID           registerUnit
// @Summary      Register a unit in a building
// @Tags         directory
// @Accept       json
// @Produce      json
// @Param        id      path string                         true "Building ID" format(uuid)
// @Param        request body apptenancy.RegisterUnitRequest true "Unit"
// @Success      201 {object} dto.Response{data=apptenancy.UnitResponse}
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /buildings/{id}/units [post]
func (h *DirectoryHandler) RegisterUnit(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apptenancy.RegisterUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.directory.RegisterUnit(c.Request.Context(), p, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListUnits godoc
// @ID           listUnits
// @Summary      List the units of a building
// @Tags         directory
// @Produce      json
// @Param        id path string true "Building ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]apptenancy.UnitResponse}
// @Security     BearerAuth
// @Router       /buildings/{id}/units [get]
func (h *DirectoryHandler) ListUnits(c *gin.Context) {
	p, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	items, err := h.directory.ListUnits(c.Request.Context(), p, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}
