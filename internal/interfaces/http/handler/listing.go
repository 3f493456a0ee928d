package handler

import (
	"time"

	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ListingHandler handles marketplace listing API endpoints
type ListingHandler struct {
	BaseHandler
	listingService *marketplaceapp.ListingSyncServiceImpl
}

// NewListingHandler creates a new ListingHandler
func NewListingHandler(listingService *marketplaceapp.ListingSyncServiceImpl) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// CreateListingRequest represents a request to list a product on a connection
// @Description Request body for creating a draft listing; remote publication happens on sync
type CreateListingRequest struct {
	ConnectionID    string                `json:"connection_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	SourceProductID string                `json:"source_product_id" binding:"required" example:"8561380130936"`
	PricingStrategy *PricingStrategyInput `json:"pricing_strategy"`
}

// PricingStrategyInput represents a pricing strategy in requests
// @Description Markup applied to the source price, then rounded
type PricingStrategyInput struct {
	MarkupType   string  `json:"markup_type" binding:"required,oneof=percentage fixed" example:"percentage"`
	MarkupValue  float64 `json:"markup_value" example:"10"`
	RoundingRule string  `json:"rounding_rule" binding:"omitempty,oneof=none to_99 to_dollar" example:"to_99"`
}

func (in *PricingStrategyInput) toDomain() catalog.PricingStrategy {
	strategy := catalog.PricingStrategy{
		MarkupType:   catalog.MarkupType(in.MarkupType),
		MarkupValue:  toDecimal(in.MarkupValue),
		RoundingRule: catalog.RoundingRule(in.RoundingRule),
	}
	if strategy.RoundingRule == "" {
		strategy.RoundingRule = catalog.RoundingRuleNone
	}
	return strategy
}

// BulkSyncRequest represents a request to sync a batch of listings
// @Description Request body for syncing multiple listings
type BulkSyncRequest struct {
	ListingIDs []string `json:"listing_ids" binding:"required,min=1,dive,uuid"`
}

// ListingResponse represents a listing in API responses
type ListingResponse struct {
	ID                   string     `json:"id"`
	ConnectionID         string     `json:"connection_id"`
	SourceProductID      string     `json:"source_product_id"`
	SourceVariantID      string     `json:"source_variant_id,omitempty"`
	MarketplaceListingID string     `json:"marketplace_listing_id,omitempty"`
	MarketplaceSKU       string     `json:"marketplace_sku,omitempty"`
	Title                string     `json:"title"`
	Price                string     `json:"price"`
	CompareAtPrice       string     `json:"compare_at_price,omitempty"`
	Inventory            int        `json:"inventory"`
	Status               string     `json:"status"`
	SyncStatus           string     `json:"sync_status"`
	LastSyncAt           *time.Time `json:"last_sync_at,omitempty"`
	ErrorMessage         string     `json:"error_message,omitempty"`
	RetryCount           int        `json:"retry_count,omitempty"`
	NextRetryAt          *time.Time `json:"next_retry_at,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func toListingResponse(l *marketplace.Listing) ListingResponse {
	resp := ListingResponse{
		ID:                   l.ID.String(),
		ConnectionID:         l.ConnectionID.String(),
		SourceProductID:      l.SourceProductID,
		SourceVariantID:      l.SourceVariantID,
		MarketplaceListingID: l.MarketplaceListingID,
		MarketplaceSKU:       l.MarketplaceSKU,
		Title:                l.Title,
		Price:                l.Price.String(),
		Inventory:            l.Inventory,
		Status:               l.Status.String(),
		SyncStatus:           l.SyncStatus.String(),
		LastSyncAt:           l.LastSyncAt,
		ErrorMessage:         l.ErrorMessage,
		RetryCount:           l.RetryCount,
		NextRetryAt:          l.NextRetryAt,
		CreatedAt:            l.CreatedAt,
		UpdatedAt:            l.UpdatedAt,
	}
	if !l.CompareAtPrice.IsZero() {
		resp.CompareAtPrice = l.CompareAtPrice.String()
	}
	return resp
}

// Create godoc
// @Summary      List a product on a marketplace connection
// @Description  Creates a draft listing snapshotted from the cached source product
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        request body CreateListingRequest true "Listing request"
// @Success      201 {object} dto.Response{data=ListingResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/listings [post]
func (h *ListingHandler) Create(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	connectionID, err := uuid.Parse(req.ConnectionID)
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	var strategy *catalog.PricingStrategy
	if req.PricingStrategy != nil {
		s := req.PricingStrategy.toDomain()
		if err := s.Validate(); err != nil {
			h.HandleError(c, err)
			return
		}
		strategy = &s
	}

	listing, err := h.listingService.ListProduct(c.Request.Context(), shopID, connectionID, req.SourceProductID, strategy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toListingResponse(listing))
}

// List godoc
// @Summary      List marketplace listings
// @Tags         listings
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        connection_id query string false "Filter by connection"
// @Param        status query string false "Filter by listing status" Enums(draft, pending, active, inactive, error)
// @Param        sync_status query string false "Filter by sync status" Enums(not_synced, pending, synced, error)
// @Param        source_product_id query string false "Filter by source product"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]ListingResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/listings [get]
func (h *ListingHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var listReq struct {
		ConnectionID    string `form:"connection_id" binding:"omitempty,uuid"`
		Status          string `form:"status" binding:"omitempty,oneof=draft pending active inactive error"`
		SyncStatus      string `form:"sync_status" binding:"omitempty,oneof=not_synced pending synced error"`
		SourceProductID string `form:"source_product_id"`
		Page            int    `form:"page,default=1" binding:"omitempty,min=1"`
		PageSize        int    `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := marketplace.ListingFilter{
		SourceProductID: listReq.SourceProductID,
		Page:            listReq.Page,
		PageSize:        listReq.PageSize,
	}
	if listReq.ConnectionID != "" {
		connectionID, _ := uuid.Parse(listReq.ConnectionID)
		filter.ConnectionID = &connectionID
	}
	if listReq.Status != "" {
		status := marketplace.ListingStatus(listReq.Status)
		filter.Status = &status
	}
	if listReq.SyncStatus != "" {
		syncStatus := marketplace.SyncStatus(listReq.SyncStatus)
		filter.SyncStatus = &syncStatus
	}

	listings, total, err := h.listingService.ListListings(c.Request.Context(), shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		responses = append(responses, toListingResponse(&listings[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Get godoc
// @Summary      Get a marketplace listing
// @Tags         listings
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Listing ID"
// @Success      200 {object} dto.Response{data=ListingResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/listings/{id} [get]
func (h *ListingHandler) Get(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	listing, err := h.listingService.GetListing(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toListingResponse(listing))
}

// Delete godoc
// @Summary      Delete a marketplace listing
// @Description  Removes the local record and withdraws the remote listing when one exists
// @Tags         listings
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Listing ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/listings/{id} [delete]
func (h *ListingHandler) Delete(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	if err := h.listingService.DeleteListing(c.Request.Context(), shopID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Sync godoc
// @Summary      Sync a listing to its marketplace
// @Description  Pushes the local listing state; at most one sync may be pending per listing
// @Tags         listings
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Listing ID"
// @Success      200 {object} dto.Response{data=marketplaceapp.SyncResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/listings/{id}/sync [post]
func (h *ListingHandler) Sync(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	result, err := h.listingService.SyncListing(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SyncBulk godoc
// @Summary      Sync a batch of listings
// @Description  Syncs listings concurrently; one listing's failure never blocks the others
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        request body BulkSyncRequest true "Listing IDs to sync"
// @Success      200 {object} dto.Response{data=[]marketplaceapp.SyncResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/listings/sync [post]
func (h *ListingHandler) SyncBulk(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var req BulkSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ListingIDs))
	for _, raw := range req.ListingIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid listing ID format: "+raw)
			return
		}
		ids = append(ids, id)
	}

	results := h.listingService.SyncListings(c.Request.Context(), shopID, ids)
	h.Success(c, results)
}

// Retry godoc
// @Summary      Retry an errored listing
// @Description  Resets the retry budget and pushes the listing again
// @Tags         listings
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Listing ID"
// @Success      200 {object} dto.Response{data=marketplaceapp.SyncResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/listings/{id}/retry [post]
func (h *ListingHandler) Retry(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid listing ID format")
		return
	}

	result, err := h.listingService.RetryListing(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
