package handler

import (
	"time"

	catalogapp "github.com/channelsync/backend/internal/application/catalog"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler handles product catalog API endpoints
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.CatalogServiceImpl
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *catalogapp.CatalogServiceImpl) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// CatalogFiltersInput represents catalog membership filters in requests
// @Description Membership predicate evaluated against cached product attributes
type CatalogFiltersInput struct {
	Collections []string `json:"collections"`
	Tags        []string `json:"tags"`
	Vendor      string   `json:"vendor" example:"Acme"`
}

func (in *CatalogFiltersInput) toDomain() catalog.Filters {
	return catalog.Filters{
		Collections: in.Collections,
		Tags:        in.Tags,
		Vendor:      in.Vendor,
	}
}

// CreateCatalogRequest represents a request to create a catalog
// @Description Request body for creating a product catalog
type CreateCatalogRequest struct {
	Name            string                `json:"name" binding:"required,min=1,max=200" example:"Summer Sale"`
	Description     string                `json:"description" binding:"omitempty,max=2000" example:"Seasonal promotion catalog"`
	CatalogType     string                `json:"catalog_type" binding:"omitempty,oneof=standard seasonal promotional custom" example:"seasonal"`
	Filters         *CatalogFiltersInput  `json:"filters"`
	PricingStrategy *PricingStrategyInput `json:"pricing_strategy"`
}

// UpdateCatalogRequest represents a partial catalog update
// @Description Request body for updating a catalog; omitted fields are unchanged
type UpdateCatalogRequest struct {
	Name            *string               `json:"name" binding:"omitempty,min=1,max=200"`
	Description     *string               `json:"description" binding:"omitempty,max=2000"`
	Filters         *CatalogFiltersInput  `json:"filters"`
	PricingStrategy *PricingStrategyInput `json:"pricing_strategy"`
	IsActive        *bool                 `json:"is_active"`
}

// CatalogResponse represents a catalog in API responses
type CatalogResponse struct {
	ID              string                  `json:"id"`
	Name            string                  `json:"name"`
	Description     string                  `json:"description,omitempty"`
	CatalogType     string                  `json:"catalog_type"`
	Filters         catalog.Filters         `json:"filters"`
	PricingStrategy catalog.PricingStrategy `json:"pricing_strategy"`
	IsActive        bool                    `json:"is_active"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func toCatalogResponse(c *catalog.Catalog) CatalogResponse {
	return CatalogResponse{
		ID:              c.ID.String(),
		Name:            c.Name,
		Description:     c.Description,
		CatalogType:     c.CatalogType.String(),
		Filters:         c.Filters,
		PricingStrategy: c.PricingStrategy,
		IsActive:        c.IsActive,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// Create godoc
// @Summary      Create a product catalog
// @Tags         catalogs
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        request body CreateCatalogRequest true "Catalog creation request"
// @Success      201 {object} dto.Response{data=CatalogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalogs [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var req CreateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := catalogapp.CreateCatalogRequest{
		Name:        req.Name,
		Description: req.Description,
		CatalogType: catalog.CatalogType(req.CatalogType),
	}
	if req.Filters != nil {
		appReq.Filters = req.Filters.toDomain()
	}
	if req.PricingStrategy != nil {
		strategy := req.PricingStrategy.toDomain()
		appReq.PricingStrategy = &strategy
	}

	created, err := h.catalogService.CreateCatalog(c.Request.Context(), shopID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCatalogResponse(created))
}

// List godoc
// @Summary      List product catalogs
// @Tags         catalogs
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Success      200 {object} dto.Response{data=[]CatalogResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalogs [get]
func (h *CatalogHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	catalogs, err := h.catalogService.ListCatalogs(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CatalogResponse, 0, len(catalogs))
	for i := range catalogs {
		responses = append(responses, toCatalogResponse(&catalogs[i]))
	}
	h.Success(c, responses)
}

// Get godoc
// @Summary      Get a product catalog
// @Tags         catalogs
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Catalog ID"
// @Success      200 {object} dto.Response{data=CatalogResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalogs/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	found, err := h.catalogService.GetCatalog(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCatalogResponse(found))
}

// Update godoc
// @Summary      Update a product catalog
// @Description  Partial update; the pricing strategy patch replaces the whole strategy after validation
// @Tags         catalogs
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Catalog ID"
// @Param        request body UpdateCatalogRequest true "Catalog update request"
// @Success      200 {object} dto.Response{data=CatalogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalogs/{id} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	var req UpdateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := catalogapp.UpdateCatalogRequest{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	if req.Filters != nil {
		filters := req.Filters.toDomain()
		appReq.Filters = &filters
	}
	if req.PricingStrategy != nil {
		strategy := req.PricingStrategy.toDomain()
		appReq.PricingStrategy = &strategy
	}

	updated, err := h.catalogService.UpdateCatalog(c.Request.Context(), shopID, id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toCatalogResponse(updated))
}

// Delete godoc
// @Summary      Delete a product catalog
// @Tags         catalogs
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Catalog ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalogs/{id} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	if err := h.catalogService.DeleteCatalog(c.Request.Context(), shopID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Products godoc
// @Summary      Resolve catalog members
// @Description  Returns the cached products matching the catalog's filters, priced by its strategy
// @Tags         catalogs
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Catalog ID"
// @Success      200 {object} dto.Response{data=[]catalogapp.PricedProduct}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /catalogs/{id}/products [get]
func (h *CatalogHandler) Products(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid catalog ID format")
		return
	}

	members, err := h.catalogService.ResolveMembers(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, members)
}
