package handler

import (
	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MarketplaceMetaHandler handles marketplace metadata and dashboard endpoints
type MarketplaceMetaHandler struct {
	BaseHandler
	registry       marketplace.Registry
	connService    *marketplaceapp.ConnectionServiceImpl
	listingService *marketplaceapp.ListingSyncServiceImpl
	orderService   *marketplaceapp.OrderSyncServiceImpl
}

// NewMarketplaceMetaHandler creates a new MarketplaceMetaHandler
func NewMarketplaceMetaHandler(
	registry marketplace.Registry,
	connService *marketplaceapp.ConnectionServiceImpl,
	listingService *marketplaceapp.ListingSyncServiceImpl,
	orderService *marketplaceapp.OrderSyncServiceImpl,
) *MarketplaceMetaHandler {
	return &MarketplaceMetaHandler{
		registry:       registry,
		connService:    connService,
		listingService: listingService,
		orderService:   orderService,
	}
}

// CredentialField describes one credential input a marketplace requires
type CredentialField struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	Secret   bool   `json:"secret"`
}

// SupportedMarketplace describes a marketplace the server can connect to
type SupportedMarketplace struct {
	Marketplace      string            `json:"marketplace"`
	Name             string            `json:"name"`
	CredentialFields []CredentialField `json:"credential_fields"`
}

// credentialFields lists the connection credentials each marketplace needs.
// Unlisted marketplaces fall back to the generic API key pair.
var credentialFields = map[marketplace.Marketplace][]CredentialField{
	marketplace.MarketplaceAmazon: {
		{Name: "seller_id", Label: "Seller ID", Required: true},
		{Name: "marketplace_id", Label: "Marketplace ID", Required: true},
		{Name: "client_id", Label: "LWA Client ID", Required: true},
		{Name: "client_secret", Label: "LWA Client Secret", Required: true, Secret: true},
		{Name: "refresh_token", Label: "Refresh Token", Required: true, Secret: true},
	},
	marketplace.MarketplaceEbay: {
		{Name: "client_id", Label: "Client ID", Required: true},
		{Name: "client_secret", Label: "Client Secret", Required: true, Secret: true},
		{Name: "refresh_token", Label: "Refresh Token", Required: true, Secret: true},
		{Name: "fulfillment_policy_id", Label: "Fulfillment Policy ID"},
		{Name: "payment_policy_id", Label: "Payment Policy ID"},
		{Name: "return_policy_id", Label: "Return Policy ID"},
	},
}

var genericCredentialFields = []CredentialField{
	{Name: "api_key", Label: "API Key", Required: true},
	{Name: "api_secret", Label: "API Secret", Required: true, Secret: true},
}

// Supported godoc
// @Summary      List supported marketplaces
// @Description  Marketplaces with a registered adapter, with the credential fields each connection needs
// @Tags         marketplaces
// @Produce      json
// @Success      200 {object} dto.Response{data=[]SupportedMarketplace}
// @Router       /marketplace/supported [get]
func (h *MarketplaceMetaHandler) Supported(c *gin.Context) {
	supported := h.registry.Supported()
	responses := make([]SupportedMarketplace, 0, len(supported))
	for _, m := range supported {
		fields, ok := credentialFields[m]
		if !ok {
			fields = genericCredentialFields
		}
		responses = append(responses, SupportedMarketplace{
			Marketplace:      m.String(),
			Name:             m.DisplayName(),
			CredentialFields: fields,
		})
	}
	h.Success(c, responses)
}

// DashboardResponse aggregates a shop's integration state
type DashboardResponse struct {
	Connections       ConnectionStats `json:"connections"`
	Listings          ListingStats    `json:"listings"`
	Orders            OrderStats      `json:"orders"`
	SupportedCount    int             `json:"supported_count"`
	ConnectedCount    int             `json:"connected_count"`
	MarketplacesInUse []string        `json:"marketplaces_in_use"`
}

// ConnectionStats summarizes connections by status
type ConnectionStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
	Error  int `json:"error"`
}

// ListingStats summarizes listings by sync status
type ListingStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Synced  int64 `json:"synced"`
	Error   int64 `json:"error"`
}

// OrderStats summarizes orders
type OrderStats struct {
	Total   int64 `json:"total"`
	Pending int64 `json:"pending"`
	Shipped int64 `json:"shipped"`
}

// Dashboard godoc
// @Summary      Integration dashboard
// @Description  Connection, listing, and order aggregates for the shop
// @Tags         marketplaces
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Success      200 {object} dto.Response{data=DashboardResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/dashboard [get]
func (h *MarketplaceMetaHandler) Dashboard(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	ctx := c.Request.Context()

	connections, err := h.connService.ListConnections(ctx, shopID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := DashboardResponse{SupportedCount: len(h.registry.Supported())}
	inUse := make(map[marketplace.Marketplace]bool)
	for i := range connections {
		conn := &connections[i]
		resp.Connections.Total++
		switch conn.Status {
		case marketplace.ConnectionStatusActive:
			resp.Connections.Active++
		case marketplace.ConnectionStatusError:
			resp.Connections.Error++
		}
		if conn.IsActive {
			inUse[conn.Marketplace] = true
		}
	}
	resp.ConnectedCount = len(inUse)
	resp.MarketplacesInUse = make([]string, 0, len(inUse))
	for _, m := range h.registry.Supported() {
		if inUse[m] {
			resp.MarketplacesInUse = append(resp.MarketplacesInUse, m.String())
		}
	}

	resp.Listings.Total = h.countListings(c, shopID, nil)
	resp.Listings.Pending = h.countListings(c, shopID, syncStatusPtr(marketplace.SyncStatusPending))
	resp.Listings.Synced = h.countListings(c, shopID, syncStatusPtr(marketplace.SyncStatusSynced))
	resp.Listings.Error = h.countListings(c, shopID, syncStatusPtr(marketplace.SyncStatusError))

	resp.Orders.Total = h.countOrders(c, shopID, nil)
	resp.Orders.Pending = h.countOrders(c, shopID, orderStatusPtr(order.StatusPending))
	resp.Orders.Shipped = h.countOrders(c, shopID, orderStatusPtr(order.StatusShipped))

	h.Success(c, resp)
}

// countListings returns a listing count, treating failures as zero so one
// bad aggregate does not take down the dashboard
func (h *MarketplaceMetaHandler) countListings(c *gin.Context, shopID uuid.UUID, syncStatus *marketplace.SyncStatus) int64 {
	_, count, err := h.listingService.ListListings(c.Request.Context(), shopID, marketplace.ListingFilter{
		SyncStatus: syncStatus,
		Page:       1,
		PageSize:   1,
	})
	if err != nil {
		return 0
	}
	return count
}

func (h *MarketplaceMetaHandler) countOrders(c *gin.Context, shopID uuid.UUID, status *order.Status) int64 {
	_, count, err := h.orderService.ListOrders(c.Request.Context(), shopID, order.Filter{
		Status:   status,
		Page:     1,
		PageSize: 1,
	})
	if err != nil {
		return 0
	}
	return count
}

func syncStatusPtr(s marketplace.SyncStatus) *marketplace.SyncStatus { return &s }

func orderStatusPtr(s order.Status) *order.Status { return &s }
