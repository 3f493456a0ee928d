package handler

import (
	"time"

	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ConnectionHandler handles marketplace connection API endpoints
type ConnectionHandler struct {
	BaseHandler
	connService    *marketplaceapp.ConnectionServiceImpl
	listingService *marketplaceapp.ListingSyncServiceImpl
	orderService   *marketplaceapp.OrderSyncServiceImpl
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(
	connService *marketplaceapp.ConnectionServiceImpl,
	listingService *marketplaceapp.ListingSyncServiceImpl,
	orderService *marketplaceapp.OrderSyncServiceImpl,
) *ConnectionHandler {
	return &ConnectionHandler{
		connService:    connService,
		listingService: listingService,
		orderService:   orderService,
	}
}

// CreateConnectionRequest represents a request to connect a marketplace account
// @Description Request body for connecting a marketplace account
type CreateConnectionRequest struct {
	Marketplace          string                     `json:"marketplace" binding:"required" example:"amazon"`
	MarketplaceAccountID string                     `json:"marketplace_account_id" example:"A1B2C3D4E5"`
	Credentials          marketplace.Credentials    `json:"credentials"`
	Settings             *marketplace.SettingsPatch `json:"settings"`
	SalesChannelID       *string                    `json:"sales_channel_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// UpdateConnectionRequest represents a partial connection update
// @Description Request body for updating a connection; omitted fields are unchanged
type UpdateConnectionRequest struct {
	Credentials    *marketplace.Credentials   `json:"credentials"`
	Settings       *marketplace.SettingsPatch `json:"settings"`
	SalesChannelID *string                    `json:"sales_channel_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ConnectionResponse represents a marketplace connection in API responses.
// Credentials are write-only and never echoed back.
type ConnectionResponse struct {
	ID                   string               `json:"id"`
	Marketplace          string               `json:"marketplace"`
	MarketplaceName      string               `json:"marketplace_name"`
	MarketplaceAccountID string               `json:"marketplace_account_id,omitempty"`
	Status               string               `json:"status"`
	Settings             marketplace.Settings `json:"settings"`
	LastSyncAt           *time.Time           `json:"last_sync_at,omitempty"`
	ErrorMessage         string               `json:"error_message,omitempty"`
	SalesChannelID       *string              `json:"sales_channel_id,omitempty"`
	IsActive             bool                 `json:"is_active"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// ConnectionDetailResponse is a connection with its listing and order counts
type ConnectionDetailResponse struct {
	ConnectionResponse
	ListingCount int64 `json:"listing_count"`
	OrderCount   int64 `json:"order_count"`
}

// ConnectionTestResponse represents a connectivity test outcome
type ConnectionTestResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

func toConnectionResponse(conn *marketplace.Connection) ConnectionResponse {
	resp := ConnectionResponse{
		ID:                   conn.ID.String(),
		Marketplace:          conn.Marketplace.String(),
		MarketplaceName:      conn.Marketplace.DisplayName(),
		MarketplaceAccountID: conn.MarketplaceAccountID,
		Status:               conn.Status.String(),
		Settings:             conn.Settings,
		LastSyncAt:           conn.LastSyncAt,
		ErrorMessage:         conn.ErrorMessage,
		IsActive:             conn.IsActive,
		CreatedAt:            conn.CreatedAt,
		UpdatedAt:            conn.UpdatedAt,
	}
	if conn.SalesChannelID != nil {
		id := conn.SalesChannelID.String()
		resp.SalesChannelID = &id
	}
	return resp
}

// Create godoc
// @Summary      Connect a marketplace account
// @Description  Creates a pending connection; run a connection test to activate it
// @Tags         connections
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        request body CreateConnectionRequest true "Connection request"
// @Success      201 {object} dto.Response{data=ConnectionResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/connections [post]
func (h *ConnectionHandler) Create(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var req CreateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := marketplaceapp.CreateConnectionRequest{
		Marketplace:          marketplace.Marketplace(req.Marketplace),
		MarketplaceAccountID: req.MarketplaceAccountID,
		Credentials:          req.Credentials,
		Settings:             req.Settings,
	}
	if req.SalesChannelID != nil && *req.SalesChannelID != "" {
		channelID, err := uuid.Parse(*req.SalesChannelID)
		if err != nil {
			h.BadRequest(c, "Invalid sales channel ID format")
			return
		}
		appReq.SalesChannelID = &channelID
	}

	conn, err := h.connService.CreateConnection(c.Request.Context(), shopID, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toConnectionResponse(conn))
}

// List godoc
// @Summary      List marketplace connections
// @Tags         connections
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Success      200 {object} dto.Response{data=[]ConnectionResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/connections [get]
func (h *ConnectionHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	conns, err := h.connService.ListConnections(c.Request.Context(), shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ConnectionResponse, 0, len(conns))
	for i := range conns {
		responses = append(responses, toConnectionResponse(&conns[i]))
	}
	h.Success(c, responses)
}

// Get godoc
// @Summary      Get a marketplace connection
// @Description  Returns the connection with its listing and order counts
// @Tags         connections
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Connection ID"
// @Success      200 {object} dto.Response{data=ConnectionDetailResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/connections/{id} [get]
func (h *ConnectionHandler) Get(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	conn, err := h.connService.GetConnection(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	detail := ConnectionDetailResponse{ConnectionResponse: toConnectionResponse(conn)}

	_, listingCount, err := h.listingService.ListListings(c.Request.Context(), shopID, marketplace.ListingFilter{
		ConnectionID: &conn.ID,
		PageSize:     1,
	})
	if err == nil {
		detail.ListingCount = listingCount
	}
	_, orderCount, err := h.orderService.ListOrders(c.Request.Context(), shopID, order.Filter{
		ConnectionID: &conn.ID,
		PageSize:     1,
	})
	if err == nil {
		detail.OrderCount = orderCount
	}

	h.Success(c, detail)
}

// Test godoc
// @Summary      Test a marketplace connection
// @Description  Runs the adapter connectivity check; success activates the connection
// @Tags         connections
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Connection ID"
// @Success      200 {object} dto.Response{data=ConnectionTestResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/connections/{id}/test [post]
func (h *ConnectionHandler) Test(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	result, err := h.connService.TestConnection(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	conn, err := h.connService.GetConnection(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ConnectionTestResponse{
		Success: result.Success,
		Message: result.Message,
		Status:  conn.Status.String(),
	})
}

// Update godoc
// @Summary      Update a marketplace connection
// @Description  Field-level merge of credentials and settings; changed credentials put the connection back to pending
// @Tags         connections
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Connection ID"
// @Param        request body UpdateConnectionRequest true "Connection update"
// @Success      200 {object} dto.Response{data=ConnectionResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/connections/{id} [put]
func (h *ConnectionHandler) Update(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	var req UpdateConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := marketplaceapp.UpdateConnectionRequest{
		Credentials: req.Credentials,
		Settings:    req.Settings,
	}
	if req.SalesChannelID != nil && *req.SalesChannelID != "" {
		channelID, err := uuid.Parse(*req.SalesChannelID)
		if err != nil {
			h.BadRequest(c, "Invalid sales channel ID format")
			return
		}
		appReq.SalesChannelID = &channelID
	}

	conn, err := h.connService.UpdateConnection(c.Request.Context(), shopID, id, appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toConnectionResponse(conn))
}

// Deactivate godoc
// @Summary      Deactivate a marketplace connection
// @Description  Suspends syncing without deleting anything
// @Tags         connections
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Connection ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/connections/{id}/deactivate [post]
func (h *ConnectionHandler) Deactivate(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	if err := h.connService.Deactivate(c.Request.Context(), shopID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Disconnect godoc
// @Summary      Disconnect a marketplace account
// @Description  Soft-deletes the connection and its listings; historical orders are kept with the connection reference nulled
// @Tags         connections
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Connection ID"
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/connections/{id} [delete]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	if err := h.connService.Disconnect(c.Request.Context(), shopID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
