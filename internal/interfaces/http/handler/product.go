package handler

import (
	"time"

	catalogapp "github.com/channelsync/backend/internal/application/catalog"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles source product import and browsing endpoints
type ProductHandler struct {
	BaseHandler
	importService *catalogapp.ProductImportServiceImpl
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(importService *catalogapp.ProductImportServiceImpl) *ProductHandler {
	return &ProductHandler{importService: importService}
}

// SourceProductResponse represents a cached source product in API responses
type SourceProductResponse struct {
	ID              string    `json:"id"`
	SourceProductID string    `json:"source_product_id"`
	SourceVariantID string    `json:"source_variant_id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	Handle          string    `json:"handle,omitempty"`
	Vendor          string    `json:"vendor,omitempty"`
	ProductType     string    `json:"product_type,omitempty"`
	Tags            []string  `json:"tags"`
	Collections     []string  `json:"collections"`
	SKU             string    `json:"sku,omitempty"`
	Price           string    `json:"price"`
	CompareAtPrice  string    `json:"compare_at_price,omitempty"`
	Currency        string    `json:"currency"`
	Inventory       int       `json:"inventory"`
	ImageURLs       []string  `json:"image_urls"`
	SyncedAt        time.Time `json:"synced_at"`
}

func toSourceProductResponse(p *catalog.SourceProduct) SourceProductResponse {
	resp := SourceProductResponse{
		ID:              p.ID.String(),
		SourceProductID: p.SourceProductID,
		SourceVariantID: p.SourceVariantID,
		Title:           p.Title,
		Description:     p.Description,
		Handle:          p.Handle,
		Vendor:          p.Vendor,
		ProductType:     p.ProductType,
		Tags:            p.Tags,
		Collections:     p.Collections,
		SKU:             p.SKU,
		Price:           p.Price.String(),
		Currency:        p.Currency,
		Inventory:       p.Inventory,
		ImageURLs:       p.ImageURLs,
		SyncedAt:        p.SyncedAt,
	}
	if p.CompareAtPrice != nil {
		resp.CompareAtPrice = p.CompareAtPrice.String()
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.Collections == nil {
		resp.Collections = []string{}
	}
	if resp.ImageURLs == nil {
		resp.ImageURLs = []string{}
	}
	return resp
}

// Import godoc
// @Summary      Import products from the source platform
// @Description  Fetches all products from the connected store and upserts them into the local cache. One product's failure does not stop the run.
// @Tags         products
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Success      200 {object} dto.Response{data=catalogapp.ImportResult}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products/import [post]
func (h *ProductHandler) Import(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	result, err := h.importService.ImportProducts(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @Summary      List cached source products
// @Tags         products
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        vendor query string false "Filter by vendor"
// @Param        product_type query string false "Filter by product type"
// @Param        tag query string false "Filter by tag"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]SourceProductResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /products [get]
func (h *ProductHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var query struct {
		Vendor      string `form:"vendor"`
		ProductType string `form:"product_type"`
		Tag         string `form:"tag"`
		Page        *int   `form:"page" binding:"omitempty,min=1"`
		PageSize    *int   `form:"page_size" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := catalog.ProductFilter{
		Vendor:      query.Vendor,
		ProductType: query.ProductType,
		Tag:         query.Tag,
		Page:        query.Page,
		PageSize:    query.PageSize,
	}

	products, total, err := h.importService.ListProducts(c.Request.Context(), shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]SourceProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, toSourceProductResponse(&products[i]))
	}

	page, pageSize := 1, 20
	if query.Page != nil {
		page = *query.Page
	}
	if query.PageSize != nil {
		pageSize = *query.PageSize
	}
	h.SuccessWithMeta(c, responses, total, page, pageSize)
}
