package handler

import (
	"time"

	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles unified order API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *marketplaceapp.OrderSyncServiceImpl
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *marketplaceapp.OrderSyncServiceImpl) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// PullOrdersRequest represents a request to pull marketplace orders
// @Description Request body for pulling orders from a marketplace connection
type PullOrdersRequest struct {
	ConnectionID  string     `json:"connection_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	CreatedAfter  *time.Time `json:"created_after" example:"2026-08-01T00:00:00Z"`
	CreatedBefore *time.Time `json:"created_before" example:"2026-08-30T00:00:00Z"`
}

// ShipOrderRequest represents a request to confirm shipment
// @Description Request body for confirming shipment with tracking info
type ShipOrderRequest struct {
	TrackingNumber string     `json:"tracking_number" binding:"required" example:"1Z999AA10123456784"`
	Carrier        string     `json:"carrier" binding:"required" example:"UPS"`
	ShippedAt      *time.Time `json:"shipped_at"`
}

// CancelOrderRequest represents a request to cancel an order
// @Description Request body for cancelling an order on the marketplace
type CancelOrderRequest struct {
	Reason string `json:"reason" example:"out_of_stock"`
}

// RefundOrderRequest represents a request to refund an order
// @Description Request body for issuing a refund on the marketplace
type RefundOrderRequest struct {
	Amount  float64 `json:"amount" binding:"required,gt=0" example:"25.99"`
	Reason  string  `json:"reason" example:"customer_return"`
	Comment string  `json:"comment" example:"Returned unopened"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID                 string              `json:"id"`
	ConnectionID       *string             `json:"connection_id,omitempty"`
	SourceOrderID      string              `json:"source_order_id,omitempty"`
	MarketplaceOrderID string              `json:"marketplace_order_id,omitempty"`
	OrderNumber        string              `json:"order_number,omitempty"`
	Source             string              `json:"source"`
	Status             string              `json:"status"`
	FinancialStatus    string              `json:"financial_status,omitempty"`
	FulfillmentStatus  string              `json:"fulfillment_status,omitempty"`
	Currency           string              `json:"currency"`
	Subtotal           string              `json:"subtotal"`
	TotalTax           string              `json:"total_tax"`
	TotalShipping      string              `json:"total_shipping"`
	TotalDiscount      string              `json:"total_discount"`
	Total              string              `json:"total"`
	CustomerEmail      string              `json:"customer_email,omitempty"`
	CustomerName       string              `json:"customer_name,omitempty"`
	ShippingAddress    *order.Address      `json:"shipping_address,omitempty"`
	BillingAddress     *order.Address      `json:"billing_address,omitempty"`
	LineItems          []order.LineItem    `json:"line_items"`
	Tracking           *order.TrackingInfo `json:"tracking,omitempty"`
	SyncStatus         string              `json:"sync_status"`
	LastSyncAt         *time.Time          `json:"last_sync_at,omitempty"`
	ErrorMessage       string              `json:"error_message,omitempty"`
	OrderedAt          *time.Time          `json:"ordered_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func toOrderResponse(o *order.Order) OrderResponse {
	resp := OrderResponse{
		ID:                 o.ID.String(),
		SourceOrderID:      o.SourceOrderID,
		MarketplaceOrderID: o.MarketplaceOrderID,
		OrderNumber:        o.OrderNumber,
		Source:             o.Source.String(),
		Status:             o.Status.String(),
		FinancialStatus:    o.FinancialStatus,
		FulfillmentStatus:  o.FulfillmentStatus,
		Currency:           o.Currency,
		Subtotal:           o.Subtotal.String(),
		TotalTax:           o.TotalTax.String(),
		TotalShipping:      o.TotalShipping.String(),
		TotalDiscount:      o.TotalDiscount.String(),
		Total:              o.Total.String(),
		CustomerEmail:      o.CustomerEmail,
		CustomerName:       o.CustomerName,
		ShippingAddress:    o.ShippingAddress,
		BillingAddress:     o.BillingAddress,
		LineItems:          o.LineItems,
		Tracking:           o.Tracking,
		SyncStatus:         o.SyncStatus.String(),
		LastSyncAt:         o.LastSyncAt,
		ErrorMessage:       o.ErrorMessage,
		OrderedAt:          o.OrderedAt,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
	if o.ConnectionID != nil {
		id := o.ConnectionID.String()
		resp.ConnectionID = &id
	}
	if resp.LineItems == nil {
		resp.LineItems = make([]order.LineItem, 0)
	}
	return resp
}

// Pull godoc
// @Summary      Pull orders from a marketplace
// @Description  Fetches orders in the date window and upserts them; stale updates are discarded
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        request body PullOrdersRequest true "Pull request"
// @Success      200 {object} dto.Response{data=marketplaceapp.PullResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/orders/pull [post]
func (h *OrderHandler) Pull(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var req PullOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	connectionID, err := uuid.Parse(req.ConnectionID)
	if err != nil {
		h.BadRequest(c, "Invalid connection ID format")
		return
	}

	result, err := h.orderService.PullOrders(c.Request.Context(), shopID, connectionID, req.CreatedAfter, req.CreatedBefore)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        source query string false "Filter by order source" Enums(shopify, amazon, ebay, walmart, target, etsy, other)
// @Param        status query string false "Filter by canonical status" Enums(pending, processing, shipped, delivered, cancelled, refunded)
// @Param        connection_id query string false "Filter by connection"
// @Param        sync_status query string false "Filter by sync status" Enums(not_synced, pending, synced, error)
// @Param        ordered_after query string false "Orders placed after (RFC3339)"
// @Param        ordered_before query string false "Orders placed before (RFC3339)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]OrderResponse,meta=dto.Meta}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}

	var listReq struct {
		Source        string     `form:"source" binding:"omitempty,oneof=shopify amazon ebay walmart target etsy other"`
		Status        string     `form:"status" binding:"omitempty,oneof=pending processing shipped delivered cancelled refunded"`
		ConnectionID  string     `form:"connection_id" binding:"omitempty,uuid"`
		SyncStatus    string     `form:"sync_status" binding:"omitempty,oneof=not_synced pending synced error"`
		OrderedAfter  *time.Time `form:"ordered_after" time_format:"2006-01-02T15:04:05Z07:00"`
		OrderedBefore *time.Time `form:"ordered_before" time_format:"2006-01-02T15:04:05Z07:00"`
		Page          int        `form:"page,default=1" binding:"omitempty,min=1"`
		PageSize      int        `form:"page_size,default=20" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := order.Filter{
		OrderedAfter:  listReq.OrderedAfter,
		OrderedBefore: listReq.OrderedBefore,
		Page:          listReq.Page,
		PageSize:      listReq.PageSize,
	}
	if listReq.Source != "" {
		source := order.Source(listReq.Source)
		filter.Source = &source
	}
	if listReq.Status != "" {
		status := order.Status(listReq.Status)
		filter.Status = &status
	}
	if listReq.ConnectionID != "" {
		connectionID, _ := uuid.Parse(listReq.ConnectionID)
		filter.ConnectionID = &connectionID
	}
	if listReq.SyncStatus != "" {
		syncStatus := order.SyncStatus(listReq.SyncStatus)
		filter.SyncStatus = &syncStatus
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), shopID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, toOrderResponse(&orders[i]))
	}
	h.SuccessWithMeta(c, responses, total, filter.Page, filter.PageSize)
}

// Get godoc
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Order ID"
// @Success      200 {object} dto.Response{data=OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), shopID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Ship godoc
// @Summary      Confirm shipment of an order
// @Description  Pushes the shipment confirmation to the marketplace, then records tracking locally
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Order ID"
// @Param        request body ShipOrderRequest true "Shipment details"
// @Success      200 {object} dto.Response{data=OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	shipment := marketplace.Shipment{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		ShippedAt:      time.Now(),
	}
	if req.ShippedAt != nil {
		shipment.ShippedAt = *req.ShippedAt
	}

	o, err := h.orderService.ShipOrder(c.Request.Context(), shopID, id, shipment)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Cancel godoc
// @Summary      Cancel an order
// @Description  Cancels the order on the marketplace, then locally
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Order ID"
// @Param        request body CancelOrderRequest false "Cancellation reason"
// @Success      200 {object} dto.Response{data=OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		h.BadRequest(c, err.Error())
		return
	}

	o, err := h.orderService.CancelOrder(c.Request.Context(), shopID, id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}

// Refund godoc
// @Summary      Refund an order
// @Description  Issues the refund on the marketplace, then records it locally
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        X-Shop-ID header string false "Shop ID (fallback when no JWT)"
// @Param        id path string true "Order ID"
// @Param        request body RefundOrderRequest true "Refund details"
// @Success      200 {object} dto.Response{data=OrderResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      502 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /marketplace/orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *gin.Context) {
	shopID, err := getShopID(c)
	if err != nil {
		h.Unauthorized(c, "Shop identification required")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req RefundOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	refund := marketplace.Refund{
		Amount:  toDecimal(req.Amount),
		Reason:  req.Reason,
		Comment: req.Comment,
	}

	o, err := h.orderService.RefundOrder(c.Request.Context(), shopID, id, refund)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOrderResponse(o))
}
