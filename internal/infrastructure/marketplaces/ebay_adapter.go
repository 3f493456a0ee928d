package marketplaces

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

const (
	// maxEbayResponseSize limits the response body size to prevent memory exhaustion
	maxEbayResponseSize = 10 * 1024 * 1024 // 10MB max response
	// ebayInventoryPath is the sell/inventory API base path
	ebayInventoryPath = "/sell/inventory/v1"
	// ebayFulfillmentPath is the sell/fulfillment API base path
	ebayFulfillmentPath = "/sell/fulfillment/v1"
	// ebayDefaultPageSize is used when the caller does not set a limit
	ebayDefaultPageSize = 50
)

// EbayAdapter implements marketplace.Adapter for eBay via the sell/inventory
// and sell/fulfillment APIs. eBay pages with limit/offset; the opaque cursor
// carries the offset of the next page.
type EbayAdapter struct {
	config     *EbayConfig
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewEbayAdapter creates an eBay adapter bound to one seller's credentials
func NewEbayAdapter(config *EbayConfig) (*EbayAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &EbayAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}, nil
}

// Marketplace returns the marketplace this adapter handles
func (a *EbayAdapter) Marketplace() marketplace.Marketplace {
	return marketplace.MarketplaceEbay
}

// TestConnection performs a minimal read against the inventory API
func (a *EbayAdapter) TestConnection(ctx context.Context) (*marketplace.ConnectionTestResult, error) {
	_, err := a.doRequest(ctx, http.MethodGet, ebayInventoryPath+"/inventory_item?limit=1", nil)
	if err != nil {
		if marketplace.IsAuthError(err) {
			return &marketplace.ConnectionTestResult{Success: false, Message: err.Error()}, nil
		}
		return nil, err
	}
	return &marketplace.ConnectionTestResult{Success: true, Message: "connected to eBay"}, nil
}

// ---------------------------------------------------------------------------
// Listing Operations
// ---------------------------------------------------------------------------

// ListListings retrieves the seller's inventory items one page at a time
func (a *EbayAdapter) ListListings(ctx context.Context, opts marketplace.PageOptions) (*marketplace.ListingPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = ebayDefaultPageSize
	}
	offset, err := decodeOffsetCursor(opts.Cursor)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s/inventory_item?limit=%d&offset=%d", ebayInventoryPath, limit, offset)
	body, err := a.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var resp EbayInventoryItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ebay: failed to parse inventory response: %w", err)
	}

	page := &marketplace.ListingPage{
		Listings: make([]marketplace.RemoteListing, 0, len(resp.InventoryItems)),
	}
	for _, item := range resp.InventoryItems {
		listing := marketplace.RemoteListing{
			ListingID: item.SKU,
			SKU:       item.SKU,
			Status:    marketplace.ListingStatusActive,
		}
		if item.Product != nil {
			listing.Title = item.Product.Title
		}
		if item.Availability != nil && item.Availability.ShipToLocationAvailability != nil {
			listing.Quantity = item.Availability.ShipToLocationAvailability.Quantity
		}
		page.Listings = append(page.Listings, listing)
	}
	if next := offset + len(resp.InventoryItems); next < resp.Total {
		page.PageInfo = marketplace.PageInfo{HasNextPage: true, NextCursor: strconv.Itoa(next)}
	}
	return page, nil
}

// CreateListing publishes a product on eBay. The flow is inventory item,
// then offer, then publish; the returned listing ID is the offer ID so later
// price and quantity updates can address the offer directly.
func (a *EbayAdapter) CreateListing(ctx context.Context, product *marketplace.ProductSnapshot) (*marketplace.RemoteListing, error) {
	if product.SKU == "" {
		return nil, marketplace.ErrInvalidProductID
	}

	item, err := a.TransformProduct(product)
	if err != nil {
		return nil, err
	}
	itemPath := ebayInventoryPath + "/inventory_item/" + url.PathEscape(product.SKU)
	if _, err := a.doRequest(ctx, http.MethodPut, itemPath, item); err != nil {
		return nil, err
	}

	offer := EbayOffer{
		SKU:               product.SKU,
		MarketplaceID:     a.config.EbayMarketplaceID,
		Format:            "FIXED_PRICE",
		AvailableQuantity: product.InventoryQuantity,
		PricingSummary: &EbayPricingSummary{
			Price: EbayAmount{Currency: product.Currency, Value: product.Price.StringFixed(2)},
		},
		ListingPolicies: &EbayListingPolicies{
			FulfillmentPolicyID: a.config.FulfillmentPolicyID,
			PaymentPolicyID:     a.config.PaymentPolicyID,
			ReturnPolicyID:      a.config.ReturnPolicyID,
		},
		ListingDescription: product.Description,
	}
	body, err := a.doRequest(ctx, http.MethodPost, ebayInventoryPath+"/offer", offer)
	if err != nil {
		return nil, err
	}
	var created EbayCreateOfferResponse
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, fmt.Errorf("ebay: failed to parse offer response: %w", err)
	}

	publishPath := ebayInventoryPath + "/offer/" + url.PathEscape(created.OfferID) + "/publish"
	if _, err := a.doRequest(ctx, http.MethodPost, publishPath, nil); err != nil {
		return nil, err
	}

	return &marketplace.RemoteListing{
		ListingID: created.OfferID,
		SKU:       product.SKU,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  product.InventoryQuantity,
		Status:    marketplace.ListingStatusActive,
	}, nil
}

// UpdateListing applies a partial update. Price and quantity land on the
// offer; title and description land on the inventory item behind it.
func (a *EbayAdapter) UpdateListing(ctx context.Context, listingID string, update marketplace.ListingUpdate) error {
	offer, err := a.getOffer(ctx, listingID)
	if err != nil {
		return err
	}

	if update.Title != nil || update.Description != nil {
		item := map[string]any{"product": map[string]any{}}
		product := item["product"].(map[string]any)
		if update.Title != nil {
			product["title"] = *update.Title
		}
		if update.Description != nil {
			product["description"] = *update.Description
		}
		itemPath := ebayInventoryPath + "/inventory_item/" + url.PathEscape(offer.SKU)
		if _, err := a.doRequest(ctx, http.MethodPut, itemPath, item); err != nil {
			return err
		}
	}

	if update.Price != nil || update.Quantity != nil {
		if update.Price != nil {
			offer.PricingSummary = &EbayPricingSummary{
				Price: EbayAmount{Currency: "USD", Value: update.Price.StringFixed(2)},
			}
		}
		if update.Quantity != nil {
			offer.AvailableQuantity = *update.Quantity
		}
		return a.putOffer(ctx, listingID, offer)
	}
	return nil
}

// DeleteListing withdraws the published offer and deletes it
func (a *EbayAdapter) DeleteListing(ctx context.Context, listingID string) error {
	withdrawPath := ebayInventoryPath + "/offer/" + url.PathEscape(listingID) + "/withdraw"
	if _, err := a.doRequest(ctx, http.MethodPost, withdrawPath, nil); err != nil {
		return err
	}
	_, err := a.doRequest(ctx, http.MethodDelete, ebayInventoryPath+"/offer/"+url.PathEscape(listingID), nil)
	return err
}

// UpdateInventory sets the available quantity on the offer
func (a *EbayAdapter) UpdateInventory(ctx context.Context, listingID string, quantity int) error {
	if quantity < 0 {
		return marketplace.ErrNegativeQuantity
	}
	offer, err := a.getOffer(ctx, listingID)
	if err != nil {
		return err
	}
	offer.AvailableQuantity = quantity
	return a.putOffer(ctx, listingID, offer)
}

// UpdatePrice sets the offer price
func (a *EbayAdapter) UpdatePrice(ctx context.Context, listingID string, price decimal.Decimal) error {
	if price.IsNegative() {
		return marketplace.ErrNegativePrice
	}
	offer, err := a.getOffer(ctx, listingID)
	if err != nil {
		return err
	}
	currency := "USD"
	if offer.PricingSummary != nil && offer.PricingSummary.Price.Currency != "" {
		currency = offer.PricingSummary.Price.Currency
	}
	offer.PricingSummary = &EbayPricingSummary{
		Price: EbayAmount{Currency: currency, Value: price.StringFixed(2)},
	}
	return a.putOffer(ctx, listingID, offer)
}

// getOffer fetches one offer by its ID
func (a *EbayAdapter) getOffer(ctx context.Context, offerID string) (*EbayOffer, error) {
	body, err := a.doRequest(ctx, http.MethodGet, ebayInventoryPath+"/offer/"+url.PathEscape(offerID), nil)
	if err != nil {
		return nil, err
	}
	var offer EbayOffer
	if err := json.Unmarshal(body, &offer); err != nil {
		return nil, fmt.Errorf("ebay: failed to parse offer response: %w", err)
	}
	return &offer, nil
}

// putOffer replaces one offer
func (a *EbayAdapter) putOffer(ctx context.Context, offerID string, offer *EbayOffer) error {
	_, err := a.doRequest(ctx, http.MethodPut, ebayInventoryPath+"/offer/"+url.PathEscape(offerID), offer)
	return err
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// ListOrders retrieves orders in a date range, normalized
func (a *EbayAdapter) ListOrders(ctx context.Context, opts marketplace.OrderListOptions) (*marketplace.OrderPage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = ebayDefaultPageSize
	}
	offset, err := decodeOffsetCursor(opts.Cursor)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	if opts.CreatedAfter != nil || opts.CreatedBefore != nil {
		query.Set("filter", creationDateFilter(opts.CreatedAfter, opts.CreatedBefore))
	}

	body, err := a.doRequest(ctx, http.MethodGet, ebayFulfillmentPath+"/order?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var resp EbayOrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ebay: failed to parse orders response: %w", err)
	}

	page := &marketplace.OrderPage{
		Orders: make([]order.Order, 0, len(resp.Orders)),
	}
	for _, remote := range resp.Orders {
		page.Orders = append(page.Orders, *a.normalizeOrder(&remote))
	}
	if next := offset + len(resp.Orders); next < resp.Total {
		page.PageInfo = marketplace.PageInfo{HasNextPage: true, NextCursor: strconv.Itoa(next)}
	}
	return page, nil
}

// AcknowledgeOrder is a no-op: eBay has no acknowledgement call
func (a *EbayAdapter) AcknowledgeOrder(_ context.Context, _ string) error {
	return nil
}

// ShipOrder creates a shipping fulfillment with tracking info
func (a *EbayAdapter) ShipOrder(ctx context.Context, orderID string, shipment marketplace.Shipment) error {
	payload := map[string]any{
		"trackingNumber":      shipment.TrackingNumber,
		"shippingCarrierCode": shipment.Carrier,
		"shippedDate":         shipment.ShippedAt.UTC().Format(time.RFC3339),
	}
	path := ebayFulfillmentPath + "/order/" + url.PathEscape(orderID) + "/shipping_fulfillment"
	_, err := a.doRequest(ctx, http.MethodPost, path, payload)
	return err
}

// CancelOrder cancels a remote order
func (a *EbayAdapter) CancelOrder(ctx context.Context, orderID string, reason string) error {
	payload := map[string]any{
		"cancelReason": reason,
	}
	path := ebayFulfillmentPath + "/order/" + url.PathEscape(orderID) + "/cancel"
	_, err := a.doRequest(ctx, http.MethodPost, path, payload)
	return err
}

// RefundOrder issues a refund for a remote order
func (a *EbayAdapter) RefundOrder(ctx context.Context, orderID string, refund marketplace.Refund) error {
	payload := map[string]any{
		"reasonForRefund": refund.Reason,
		"comment":         refund.Comment,
		"orderLevelRefundAmount": map[string]any{
			"currency": "USD",
			"value":    refund.Amount.StringFixed(2),
		},
	}
	path := ebayFulfillmentPath + "/order/" + url.PathEscape(orderID) + "/issue_refund"
	_, err := a.doRequest(ctx, http.MethodPost, path, payload)
	return err
}

// ---------------------------------------------------------------------------
// Transformations
// ---------------------------------------------------------------------------

// TransformProduct converts a product snapshot into an inventory item payload
func (a *EbayAdapter) TransformProduct(product *marketplace.ProductSnapshot) (map[string]any, error) {
	if product.SKU == "" {
		return nil, marketplace.ErrInvalidProductID
	}

	productAttrs := map[string]any{
		"title": product.Title,
	}
	if product.Description != "" {
		productAttrs["description"] = product.Description
	}
	if product.Vendor != "" {
		productAttrs["brand"] = product.Vendor
	}
	if len(product.ImageURLs) > 0 {
		productAttrs["imageUrls"] = product.ImageURLs
	}

	return map[string]any{
		"sku":     product.SKU,
		"locale":  "en_US",
		"product": productAttrs,
		"availability": map[string]any{
			"shipToLocationAvailability": map[string]any{
				"quantity": product.InventoryQuantity,
			},
		},
		"condition": "NEW",
	}, nil
}

// TransformOrder converts a native eBay order payload into the canonical
// order shape. Unmapped statuses default to pending.
func (a *EbayAdapter) TransformOrder(raw map[string]any) (*order.Order, error) {
	rawBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to marshal order payload: %w", err)
	}
	var remote EbayOrder
	if err := json.Unmarshal(rawBytes, &remote); err != nil {
		return nil, fmt.Errorf("ebay: failed to parse order payload: %w", err)
	}
	return a.normalizeOrder(&remote), nil
}

// normalizeOrder maps one eBay order into the canonical order shape
func (a *EbayAdapter) normalizeOrder(remote *EbayOrder) *order.Order {
	o := &order.Order{
		MarketplaceOrderID: remote.OrderID,
		OrderNumber:        remote.LegacyOrderID,
		Source:             order.SourceEbay,
		Status:             mapEbayOrderStatus(remote.OrderFulfillmentStatus, remote.OrderPaymentStatus),
		FinancialStatus:    strings.ToLower(remote.OrderPaymentStatus),
		FulfillmentStatus:  strings.ToLower(remote.OrderFulfillmentStatus),
		Currency:           "USD",
		LineItems:          make([]order.LineItem, 0, len(remote.LineItems)),
	}
	if o.OrderNumber == "" {
		o.OrderNumber = remote.OrderID
	}

	if remote.PricingSummary != nil {
		p := remote.PricingSummary
		if p.Total != nil {
			o.Total = parseEbayAmount(*p.Total)
			if p.Total.Currency != "" {
				o.Currency = p.Total.Currency
			}
		}
		if p.PriceSubtotal != nil {
			o.Subtotal = parseEbayAmount(*p.PriceSubtotal)
		}
		if p.DeliveryCost != nil {
			o.TotalShipping = parseEbayAmount(*p.DeliveryCost)
		}
		if p.Tax != nil {
			o.TotalTax = parseEbayAmount(*p.Tax)
		}
		if p.PriceDiscount != nil {
			o.TotalDiscount = parseEbayAmount(*p.PriceDiscount)
		}
	}
	if remote.Buyer != nil {
		o.CustomerName = remote.Buyer.Username
	}
	for _, instr := range remote.FulfillmentStartInstructions {
		if instr.ShippingStep == nil || instr.ShippingStep.ShipTo == nil {
			continue
		}
		shipTo := instr.ShippingStep.ShipTo
		if shipTo.FullName != "" {
			o.CustomerName = shipTo.FullName
		}
		o.CustomerEmail = shipTo.Email
		addr := &order.Address{Name: shipTo.FullName}
		if shipTo.PrimaryPhone != nil {
			addr.Phone = shipTo.PrimaryPhone.PhoneNumber
		}
		if shipTo.ContactAddress != nil {
			addr.Address1 = shipTo.ContactAddress.AddressLine1
			addr.Address2 = shipTo.ContactAddress.AddressLine2
			addr.City = shipTo.ContactAddress.City
			addr.Province = shipTo.ContactAddress.StateOrProvince
			addr.Zip = shipTo.ContactAddress.PostalCode
			addr.Country = shipTo.ContactAddress.CountryCode
		}
		o.ShippingAddress = addr
		break
	}
	for _, line := range remote.LineItems {
		item := order.LineItem{
			Title:    line.Title,
			SKU:      line.SKU,
			Quantity: line.Quantity,
		}
		if line.LineItemCost != nil {
			item.Price = parseEbayAmount(*line.LineItemCost)
		}
		o.LineItems = append(o.LineItems, item)
	}
	if t, err := time.Parse(time.RFC3339, remote.CreationDate); err == nil {
		o.OrderedAt = &t
	}
	if t, err := time.Parse(time.RFC3339, remote.LastModifiedDate); err == nil {
		o.UpdatedAt = t
	}
	return o
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// token returns a valid OAuth access token, refreshing it when stale
func (a *EbayAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry.Add(-tokenExpirySlack)) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", a.config.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.AuthEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("ebay: failed to create token request: %w", err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(a.config.ClientID + ":" + a.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", marketplace.NewTransportError(marketplace.MarketplaceEbay, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEbayResponseSize))
	if err != nil {
		return "", fmt.Errorf("ebay: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", marketplace.NewAdapterError(marketplace.MarketplaceEbay, http.StatusUnauthorized, strings.TrimSpace(string(body)))
	}

	var token EbayTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("ebay: failed to parse token response: %w", err)
	}

	a.accessToken = token.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return a.accessToken, nil
}

// doRequest performs one authenticated eBay API request
func (a *EbayAdapter) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("ebay: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.config.Endpoint+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Language", "en-US")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, marketplace.NewTransportError(marketplace.MarketplaceEbay, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEbayResponseSize))
	if err != nil {
		return nil, fmt.Errorf("ebay: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		var errResp EbayErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message() != "" {
			msg = errResp.Message()
		}
		return nil, marketplace.NewAdapterError(marketplace.MarketplaceEbay, resp.StatusCode, msg)
	}
	return body, nil
}

// decodeOffsetCursor parses an offset cursor, empty meaning the first page
func decodeOffsetCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("ebay: invalid page cursor %q", cursor)
	}
	return offset, nil
}

// creationDateFilter builds the fulfillment API creationdate range filter
func creationDateFilter(after, before *time.Time) string {
	from := ""
	to := ""
	if after != nil {
		from = after.UTC().Format(time.RFC3339)
	}
	if before != nil {
		to = before.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("creationdate:[%s..%s]", from, to)
}

// parseEbayAmount parses the eBay string money value, zero on failure
func parseEbayAmount(m EbayAmount) decimal.Decimal {
	d, err := decimal.NewFromString(m.Value)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// mapEbayOrderStatus maps eBay fulfillment/payment statuses to the canonical
// vocabulary
func mapEbayOrderStatus(fulfillment, payment string) order.Status {
	if strings.EqualFold(payment, "FULLY_REFUNDED") {
		return order.StatusRefunded
	}
	switch strings.ToUpper(fulfillment) {
	case "FULFILLED":
		return order.StatusShipped
	case "IN_PROGRESS":
		return order.StatusProcessing
	case "NOT_STARTED":
		return order.StatusPending
	case "CANCELED", "CANCELLED":
		return order.StatusCancelled
	default:
		return order.StatusPending
	}
}

// Ensure EbayAdapter implements the adapter port
var _ marketplace.Adapter = (*EbayAdapter)(nil)
