package handler

import (
	"io"
	"net/http"

	webhookapp "github.com/channelsync/backend/internal/application/webhook"
	"github.com/channelsync/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Maximum webhook payload size (256KB - Shopify order payloads can be large)
const maxWebhookPayloadSize = 262144

// ShopifyWebhookHandler handles Shopify webhook endpoints.
// These endpoints are called by Shopify and authenticate via HMAC signature
// instead of a bearer token.
type ShopifyWebhookHandler struct {
	BaseHandler
	webhookService *webhookapp.ShopifyWebhookService
}

// NewShopifyWebhookHandler creates a new ShopifyWebhookHandler
func NewShopifyWebhookHandler(webhookService *webhookapp.ShopifyWebhookService) *ShopifyWebhookHandler {
	return &ShopifyWebhookHandler{
		webhookService: webhookService,
	}
}

// ShopifyWebhookResponse represents the response for a Shopify webhook
//
//	@Description	Shopify webhook response
type ShopifyWebhookResponse struct {
	Received bool   `json:"received" example:"true"`
	Topic    string `json:"topic,omitempty" example:"products/update"`
	Message  string `json:"message,omitempty" example:"Webhook processed successfully"`
}

// HandleShopifyWebhook godoc
//
//	@ID				handleShopifyWebhook
//	@Summary		Handle Shopify webhook
//	@Description	Receive product and order events from the connected Shopify store
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			shopId					path		string					true	"Shop ID the webhook is registered for"
//	@Param			X-Shopify-Hmac-Sha256	header		string					true	"Shopify webhook signature"
//	@Param			X-Shopify-Topic			header		string					true	"Shopify webhook topic"
//	@Success		200						{object}	ShopifyWebhookResponse	"Webhook processed"
//	@Failure		400						{object}	ShopifyWebhookResponse	"Invalid request"
//	@Failure		401						{object}	ShopifyWebhookResponse	"Invalid signature"
//	@Failure		413						{object}	ShopifyWebhookResponse	"Payload too large"
//	@Router			/webhooks/shopify/{shopId} [post]
func (h *ShopifyWebhookHandler) HandleShopifyWebhook(c *gin.Context) {
	shopID, err := uuid.Parse(c.Param("shopId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ShopifyWebhookResponse{
			Received: false,
			Message:  "Invalid shop ID",
		})
		return
	}

	// Signature verification needs the raw body; cap the read to keep
	// oversized deliveries from tying up the server
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ShopifyWebhookResponse{
			Received: false,
			Message:  "Failed to read request body",
		})
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.JSON(http.StatusRequestEntityTooLarge, ShopifyWebhookResponse{
			Received: false,
			Message:  "Payload too large",
		})
		return
	}

	signature := c.GetHeader("X-Shopify-Hmac-Sha256")
	if !h.webhookService.VerifySignature(payload, signature) {
		c.JSON(http.StatusUnauthorized, ShopifyWebhookResponse{
			Received: false,
			Message:  "Webhook signature verification failed",
		})
		return
	}

	topic := c.GetHeader("X-Shopify-Topic")
	result, err := h.webhookService.Process(c.Request.Context(), shopID, topic, payload)
	if err != nil {
		// Still return 200: transient store-side failures surface in logs,
		// and a retry storm from Shopify will not fix a bad payload
		logger.L(c.Request.Context()).Warn("shopify webhook processing failed",
			zap.String("topic", topic), zap.Error(err))
		c.JSON(http.StatusOK, ShopifyWebhookResponse{
			Received: true,
			Topic:    topic,
			Message:  "Webhook received but processing encountered an issue",
		})
		return
	}

	c.JSON(http.StatusOK, ShopifyWebhookResponse{
		Received: true,
		Topic:    result.Topic,
		Message:  result.Message,
	})
}
