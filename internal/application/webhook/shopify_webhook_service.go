// Package webhook processes source-platform webhook deliveries. Shopify signs
// each delivery with an HMAC-SHA256 of the raw body; payloads are applied
// idempotently so redeliveries are safe.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goshopify "github.com/bold-commerce/go-shopify/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/order"
	"github.com/channelsync/backend/internal/infrastructure/shopify"
)

// Errors for webhook processing
var (
	ErrInvalidSignature = errors.New("webhook: invalid signature")
	ErrUnknownTopic     = errors.New("webhook: unknown topic")
	ErrInvalidPayload   = errors.New("webhook: invalid payload")
)

// Shopify webhook topics this service handles
const (
	TopicProductsCreate = "products/create"
	TopicProductsUpdate = "products/update"
	TopicProductsDelete = "products/delete"
	TopicOrdersCreate   = "orders/create"
	TopicOrdersUpdated  = "orders/updated"
	TopicOrdersCancel   = "orders/cancelled"
)

// ShopifyWebhookService applies Shopify webhook deliveries to the local
// product cache, listings, and orders
type ShopifyWebhookService struct {
	secret         string
	productRepo    catalog.ProductRepository
	orderRepo      order.Repository
	listingService *marketplaceapp.ListingSyncServiceImpl
	logger         *zap.Logger
}

// NewShopifyWebhookService creates a new ShopifyWebhookService
func NewShopifyWebhookService(
	secret string,
	productRepo catalog.ProductRepository,
	orderRepo order.Repository,
	listingService *marketplaceapp.ListingSyncServiceImpl,
	logger *zap.Logger,
) *ShopifyWebhookService {
	return &ShopifyWebhookService{
		secret:         secret,
		productRepo:    productRepo,
		orderRepo:      orderRepo,
		listingService: listingService,
		logger:         logger,
	}
}

// VerifySignature checks the X-Shopify-Hmac-Sha256 header against the raw
// body. An empty configured secret rejects every delivery.
func (s *ShopifyWebhookService) VerifySignature(payload []byte, signature string) bool {
	if s.secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(s.secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Result summarizes what a processed delivery changed
type Result struct {
	Topic     string `json:"topic"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
}

// Process dispatches a verified delivery by topic. Unknown topics are
// acknowledged without processing so Shopify does not retry them.
func (s *ShopifyWebhookService) Process(ctx context.Context, shopID uuid.UUID, topic string, payload []byte) (*Result, error) {
	result := &Result{Topic: topic, Processed: true}

	var err error
	switch topic {
	case TopicProductsCreate, TopicProductsUpdate:
		err = s.applyProductUpsert(ctx, shopID, payload)
	case TopicProductsDelete:
		err = s.applyProductDelete(ctx, shopID, payload)
	case TopicOrdersCreate, TopicOrdersUpdated, TopicOrdersCancel:
		err = s.applyOrderEvent(ctx, shopID, topic, payload)
	default:
		s.logger.Debug("unhandled webhook topic", zap.String("topic", topic))
		result.Processed = false
		result.Message = "Topic not handled"
		return result, nil
	}

	if err != nil {
		s.logger.Error("webhook processing failed",
			zap.String("shop_id", shopID.String()),
			zap.String("topic", topic),
			zap.Error(err),
		)
		result.Processed = false
		result.Message = err.Error()
		return result, err
	}
	return result, nil
}

// applyProductUpsert refreshes the cached snapshots for the product and
// flags its synced listings for re-sync.
func (s *ShopifyWebhookService) applyProductUpsert(ctx context.Context, shopID uuid.UUID, payload []byte) error {
	var p goshopify.Product
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.Id == 0 {
		return fmt.Errorf("%w: missing product id", ErrInvalidPayload)
	}

	for _, snapshot := range shopify.ProductSnapshots(p) {
		if err := s.upsertSnapshot(ctx, shopID, snapshot); err != nil {
			return err
		}
	}

	sourceProductID := strconv.FormatUint(p.Id, 10)
	if err := s.listingService.MarkSourceChanged(ctx, shopID, sourceProductID); err != nil {
		return err
	}
	return nil
}

func (s *ShopifyWebhookService) upsertSnapshot(ctx context.Context, shopID uuid.UUID, incoming catalog.SourceProduct) error {
	existing, err := s.productRepo.FindBySourceProductID(ctx, shopID, incoming.SourceProductID)
	if err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
		return err
	}

	if existing == nil {
		p, err := catalog.NewSourceProduct(shopID, incoming.SourceProductID)
		if err != nil {
			return err
		}
		p.Refresh(incoming)
		return s.productRepo.Save(ctx, p)
	}

	existing.Refresh(incoming)
	return s.productRepo.Save(ctx, existing)
}

// applyProductDelete drops the cached snapshot. Listings keep their frozen
// snapshot and are not touched; a delete is not a content change.
func (s *ShopifyWebhookService) applyProductDelete(ctx context.Context, shopID uuid.UUID, payload []byte) error {
	var p struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.ID == 0 {
		return fmt.Errorf("%w: missing product id", ErrInvalidPayload)
	}

	existing, err := s.productRepo.FindBySourceProductID(ctx, shopID, strconv.FormatUint(p.ID, 10))
	if errors.Is(err, catalog.ErrProductNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, existing.ID)
}

// orderPayload is the subset of the Shopify order webhook body this service
// consumes. Money fields arrive as JSON strings.
type orderPayload struct {
	ID                uint64            `json:"id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	Currency          string            `json:"currency"`
	FinancialStatus   string            `json:"financial_status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	SubtotalPrice     decimal.Decimal   `json:"subtotal_price"`
	TotalTax          decimal.Decimal   `json:"total_tax"`
	TotalDiscounts    decimal.Decimal   `json:"total_discounts"`
	TotalPrice        decimal.Decimal   `json:"total_price"`
	CreatedAt         *time.Time        `json:"created_at"`
	UpdatedAt         *time.Time        `json:"updated_at"`
	CancelledAt       *time.Time        `json:"cancelled_at"`
	Customer          *customerPayload  `json:"customer"`
	ShippingAddress   *addressPayload   `json:"shipping_address"`
	BillingAddress    *addressPayload   `json:"billing_address"`
	LineItems         []lineItemPayload `json:"line_items"`
}

type customerPayload struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type addressPayload struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2"`
	City     string `json:"city"`
	Province string `json:"province"`
	Country  string `json:"country"`
	Zip      string `json:"zip"`
	Phone    string `json:"phone"`
}

type lineItemPayload struct {
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	SKU      string          `json:"sku"`
	Price    decimal.Decimal `json:"price"`
}

// applyOrderEvent upserts a source-platform order. The payload's updated_at
// is the event timestamp; stale deliveries are discarded.
func (s *ShopifyWebhookService) applyOrderEvent(ctx context.Context, shopID uuid.UUID, topic string, payload []byte) error {
	var p orderPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if p.ID == 0 {
		return fmt.Errorf("%w: missing order id", ErrInvalidPayload)
	}

	eventAt := time.Now()
	if p.UpdatedAt != nil {
		eventAt = *p.UpdatedAt
	}
	sourceOrderID := strconv.FormatUint(p.ID, 10)

	existing, err := s.orderRepo.FindBySourceOrder(ctx, shopID, sourceOrderID)
	if err != nil && !errors.Is(err, order.ErrOrderNotFound) {
		return err
	}

	if existing == nil {
		o, err := order.New(shopID, order.SourceShopify)
		if err != nil {
			return err
		}
		o.SourceOrderID = sourceOrderID
		applyPayload(o, topic, &p)
		o.LastEventAt = &eventAt
		return s.orderRepo.Save(ctx, o)
	}

	err = existing.ApplyEvent(eventAt, func(o *order.Order) {
		applyPayload(o, topic, &p)
	})
	if errors.Is(err, order.ErrStaleOrderEvent) {
		s.logger.Debug("stale order webhook discarded",
			zap.String("shop_id", shopID.String()),
			zap.String("source_order_id", sourceOrderID),
		)
		return nil
	}
	if err != nil {
		return err
	}
	return s.orderRepo.Save(ctx, existing)
}

// applyPayload maps the Shopify order body onto the unified order
func applyPayload(o *order.Order, topic string, p *orderPayload) {
	o.OrderNumber = p.Name
	if p.Currency != "" {
		o.Currency = p.Currency
	}
	o.FinancialStatus = p.FinancialStatus
	o.FulfillmentStatus = p.FulfillmentStatus
	o.Subtotal = p.SubtotalPrice
	o.TotalTax = p.TotalTax
	o.TotalDiscount = p.TotalDiscounts
	o.Total = p.TotalPrice
	o.Status = mapOrderStatus(topic, p)
	if p.CreatedAt != nil {
		o.OrderedAt = p.CreatedAt
	}

	o.CustomerEmail = p.Email
	if p.Customer != nil {
		if o.CustomerEmail == "" {
			o.CustomerEmail = p.Customer.Email
		}
		name := p.Customer.FirstName
		if p.Customer.LastName != "" {
			if name != "" {
				name += " "
			}
			name += p.Customer.LastName
		}
		o.CustomerName = name
	}

	if p.ShippingAddress != nil {
		o.ShippingAddress = toAddress(p.ShippingAddress)
	}
	if p.BillingAddress != nil {
		o.BillingAddress = toAddress(p.BillingAddress)
	}

	items := make([]order.LineItem, 0, len(p.LineItems))
	for _, item := range p.LineItems {
		items = append(items, order.LineItem{
			Title:    item.Title,
			Quantity: item.Quantity,
			SKU:      item.SKU,
			Price:    item.Price,
		})
	}
	o.LineItems = items
}

func toAddress(a *addressPayload) *order.Address {
	return &order.Address{
		Name:     a.Name,
		Address1: a.Address1,
		Address2: a.Address2,
		City:     a.City,
		Province: a.Province,
		Country:  a.Country,
		Zip:      a.Zip,
		Phone:    a.Phone,
	}
}

// mapOrderStatus maps the Shopify vocabulary onto the canonical status
func mapOrderStatus(topic string, p *orderPayload) order.Status {
	if topic == TopicOrdersCancel || p.CancelledAt != nil {
		return order.StatusCancelled
	}
	if p.FinancialStatus == "refunded" {
		return order.StatusRefunded
	}
	switch p.FulfillmentStatus {
	case "fulfilled":
		return order.StatusShipped
	case "partial":
		return order.StatusProcessing
	}
	if p.FinancialStatus == "paid" || p.FinancialStatus == "partially_paid" {
		return order.StatusProcessing
	}
	return order.StatusPending
}
