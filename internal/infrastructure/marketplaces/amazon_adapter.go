package marketplaces

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

const (
	// maxAmazonResponseSize limits the response body size to prevent memory exhaustion
	maxAmazonResponseSize = 10 * 1024 * 1024 // 10MB max response
	// amazonListingsPath is the Listings Items API base path
	amazonListingsPath = "/listings/2021-08-01/items"
	// amazonOrdersPath is the Orders API base path
	amazonOrdersPath = "/orders/v0/orders"
	// tokenExpirySlack refreshes the LWA token this long before it expires
	tokenExpirySlack = 60 * time.Second
)

// AmazonAdapter implements marketplace.Adapter for Amazon Seller Central via
// the SP-API. One instance is bound to one connection's seller credentials.
// The LWA access token is cached and refreshed lazily before each call.
type AmazonAdapter struct {
	config     *AmazonConfig
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewAmazonAdapter creates an Amazon adapter bound to one seller's credentials
func NewAmazonAdapter(config *AmazonConfig) (*AmazonAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &AmazonAdapter{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		// SP-API rate plans sit around 5 rps with small bursts
		limiter: rate.NewLimiter(rate.Limit(5), 10),
	}, nil
}

// Marketplace returns the marketplace this adapter handles
func (a *AmazonAdapter) Marketplace() marketplace.Marketplace {
	return marketplace.MarketplaceAmazon
}

// TestConnection performs a minimal read against the sellers API. A token
// grant rejection or a 401/403 is reported in the result, not as an error.
func (a *AmazonAdapter) TestConnection(ctx context.Context) (*marketplace.ConnectionTestResult, error) {
	_, err := a.doRequest(ctx, http.MethodGet, "/sellers/v1/marketplaceParticipations", nil, nil)
	if err != nil {
		if marketplace.IsAuthError(err) {
			return &marketplace.ConnectionTestResult{Success: false, Message: err.Error()}, nil
		}
		return nil, err
	}
	return &marketplace.ConnectionTestResult{Success: true, Message: "connected to Amazon SP-API"}, nil
}

// ---------------------------------------------------------------------------
// Listing Operations
// ---------------------------------------------------------------------------

// ListListings retrieves the seller's listings items one page at a time.
// The opaque cursor maps onto the SP-API pageToken.
func (a *AmazonAdapter) ListListings(ctx context.Context, opts marketplace.PageOptions) (*marketplace.ListingPage, error) {
	query := url.Values{}
	query.Set("marketplaceIds", a.config.MarketplaceID)
	query.Set("includedData", "summaries,offers")
	if opts.Limit > 0 {
		query.Set("pageSize", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("pageToken", opts.Cursor)
	}

	body, err := a.doRequest(ctx, http.MethodGet, amazonListingsPath+"/"+a.config.SellerID, query, nil)
	if err != nil {
		return nil, err
	}

	var resp AmazonListingsSearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazon: failed to parse listings response: %w", err)
	}

	page := &marketplace.ListingPage{
		Listings: make([]marketplace.RemoteListing, 0, len(resp.Items)),
	}
	for _, item := range resp.Items {
		page.Listings = append(page.Listings, a.toRemoteListing(item))
	}
	if resp.Pagination != nil && resp.Pagination.NextToken != "" {
		page.PageInfo = marketplace.PageInfo{HasNextPage: true, NextCursor: resp.Pagination.NextToken}
	}
	return page, nil
}

// CreateListing publishes a product as a new listings item. Amazon keys
// listings by seller SKU, so the returned listing ID is the SKU.
func (a *AmazonAdapter) CreateListing(ctx context.Context, product *marketplace.ProductSnapshot) (*marketplace.RemoteListing, error) {
	payload, err := a.TransformProduct(product)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("marketplaceIds", a.config.MarketplaceID)

	body, err := a.doRequest(ctx, http.MethodPut, a.itemPath(product.SKU), query, payload)
	if err != nil {
		return nil, err
	}

	var resp AmazonSubmissionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazon: failed to parse submission response: %w", err)
	}
	if strings.EqualFold(resp.Status, "INVALID") {
		return nil, marketplace.NewAdapterError(marketplace.MarketplaceAmazon, http.StatusBadRequest, submissionIssues(resp.Issues))
	}

	return &marketplace.RemoteListing{
		ListingID: product.SKU,
		SKU:       product.SKU,
		Title:     product.Title,
		Price:     product.Price,
		Quantity:  product.InventoryQuantity,
		Status:    marketplace.ListingStatusActive,
	}, nil
}

// UpdateListing applies a partial update to a listings item via JSON patches
func (a *AmazonAdapter) UpdateListing(ctx context.Context, listingID string, update marketplace.ListingUpdate) error {
	patches := make([]map[string]any, 0, 4)
	if update.Title != nil {
		patches = append(patches, attributePatch("item_name", map[string]any{"value": *update.Title}))
	}
	if update.Description != nil {
		patches = append(patches, attributePatch("product_description", map[string]any{"value": *update.Description}))
	}
	if update.Price != nil {
		patches = append(patches, attributePatch("purchasable_offer", a.priceAttribute(*update.Price)))
	}
	if update.Quantity != nil {
		patches = append(patches, attributePatch("fulfillment_availability", map[string]any{
			"fulfillment_channel_code": "DEFAULT",
			"quantity":                 *update.Quantity,
		}))
	}
	if len(patches) == 0 {
		return nil
	}
	return a.patchItem(ctx, listingID, patches)
}

// DeleteListing withdraws a listings item
func (a *AmazonAdapter) DeleteListing(ctx context.Context, listingID string) error {
	query := url.Values{}
	query.Set("marketplaceIds", a.config.MarketplaceID)
	_, err := a.doRequest(ctx, http.MethodDelete, a.itemPath(listingID), query, nil)
	return err
}

// UpdateInventory sets the available quantity for a listings item
func (a *AmazonAdapter) UpdateInventory(ctx context.Context, listingID string, quantity int) error {
	if quantity < 0 {
		return marketplace.ErrNegativeQuantity
	}
	return a.patchItem(ctx, listingID, []map[string]any{
		attributePatch("fulfillment_availability", map[string]any{
			"fulfillment_channel_code": "DEFAULT",
			"quantity":                 quantity,
		}),
	})
}

// UpdatePrice sets the listing price for a listings item
func (a *AmazonAdapter) UpdatePrice(ctx context.Context, listingID string, price decimal.Decimal) error {
	if price.IsNegative() {
		return marketplace.ErrNegativePrice
	}
	return a.patchItem(ctx, listingID, []map[string]any{
		attributePatch("purchasable_offer", a.priceAttribute(price)),
	})
}

// patchItem submits a PATCH against one listings item
func (a *AmazonAdapter) patchItem(ctx context.Context, sku string, patches []map[string]any) error {
	query := url.Values{}
	query.Set("marketplaceIds", a.config.MarketplaceID)

	payload := map[string]any{
		"productType": "PRODUCT",
		"patches":     patches,
	}
	_, err := a.doRequest(ctx, http.MethodPatch, a.itemPath(sku), query, payload)
	return err
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// ListOrders retrieves orders in a date range, normalized. Line items require
// a follow-up call per order, so pages are fetched item-by-item.
func (a *AmazonAdapter) ListOrders(ctx context.Context, opts marketplace.OrderListOptions) (*marketplace.OrderPage, error) {
	query := url.Values{}
	query.Set("MarketplaceIds", a.config.MarketplaceID)
	if opts.CreatedAfter != nil {
		query.Set("CreatedAfter", opts.CreatedAfter.UTC().Format(time.RFC3339))
	}
	if opts.CreatedBefore != nil {
		query.Set("CreatedBefore", opts.CreatedBefore.UTC().Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		query.Set("MaxResultsPerPage", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("NextToken", opts.Cursor)
	}

	body, err := a.doRequest(ctx, http.MethodGet, amazonOrdersPath, query, nil)
	if err != nil {
		return nil, err
	}

	var resp AmazonOrdersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazon: failed to parse orders response: %w", err)
	}

	page := &marketplace.OrderPage{
		Orders: make([]order.Order, 0, len(resp.Payload.Orders)),
	}
	for _, remote := range resp.Payload.Orders {
		normalized := a.normalizeOrder(&remote)
		items, err := a.fetchOrderItems(ctx, remote.AmazonOrderID)
		if err != nil {
			return nil, err
		}
		normalized.LineItems = items
		page.Orders = append(page.Orders, *normalized)
	}
	if resp.Payload.NextToken != "" {
		page.PageInfo = marketplace.PageInfo{HasNextPage: true, NextCursor: resp.Payload.NextToken}
	}
	return page, nil
}

// fetchOrderItems retrieves the line items for one order
func (a *AmazonAdapter) fetchOrderItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	body, err := a.doRequest(ctx, http.MethodGet, amazonOrdersPath+"/"+orderID+"/orderItems", nil, nil)
	if err != nil {
		return nil, err
	}

	var resp AmazonOrderItemsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("amazon: failed to parse order items response: %w", err)
	}

	items := make([]order.LineItem, 0, len(resp.Payload.OrderItems))
	for _, item := range resp.Payload.OrderItems {
		line := order.LineItem{
			Title:    item.Title,
			SKU:      item.SellerSKU,
			Quantity: item.QuantityOrdered,
		}
		if item.ItemPrice != nil {
			line.Price = parseAmazonMoney(*item.ItemPrice)
		}
		items = append(items, line)
	}
	return items, nil
}

// AcknowledgeOrder is a no-op: Amazon has no acknowledgement call, orders are
// implicitly acknowledged on retrieval.
func (a *AmazonAdapter) AcknowledgeOrder(_ context.Context, _ string) error {
	return nil
}

// ShipOrder confirms shipment with tracking info
func (a *AmazonAdapter) ShipOrder(ctx context.Context, orderID string, shipment marketplace.Shipment) error {
	payload := map[string]any{
		"marketplaceId": a.config.MarketplaceID,
		"packageDetail": map[string]any{
			"packageReferenceId": "1",
			"carrierCode":        shipment.Carrier,
			"trackingNumber":     shipment.TrackingNumber,
			"shipDate":           shipment.ShippedAt.UTC().Format(time.RFC3339),
		},
	}
	_, err := a.doRequest(ctx, http.MethodPost, amazonOrdersPath+"/"+orderID+"/shipmentConfirmation", nil, payload)
	return err
}

// CancelOrder cancels a remote order
func (a *AmazonAdapter) CancelOrder(ctx context.Context, orderID string, reason string) error {
	payload := map[string]any{
		"marketplaceId":      a.config.MarketplaceID,
		"cancellationReason": reason,
	}
	_, err := a.doRequest(ctx, http.MethodPost, amazonOrdersPath+"/"+orderID+"/cancellation", nil, payload)
	return err
}

// RefundOrder issues a refund for a remote order
func (a *AmazonAdapter) RefundOrder(ctx context.Context, orderID string, refund marketplace.Refund) error {
	payload := map[string]any{
		"marketplaceId": a.config.MarketplaceID,
		"refundAmount": map[string]any{
			"currencyCode": "USD",
			"amount":       refund.Amount.StringFixed(2),
		},
		"reason":  refund.Reason,
		"comment": refund.Comment,
	}
	_, err := a.doRequest(ctx, http.MethodPost, amazonOrdersPath+"/"+orderID+"/refund", nil, payload)
	return err
}

// ---------------------------------------------------------------------------
// Transformations
// ---------------------------------------------------------------------------

// TransformProduct converts a product snapshot into a listings item payload
func (a *AmazonAdapter) TransformProduct(product *marketplace.ProductSnapshot) (map[string]any, error) {
	if product.SKU == "" {
		return nil, marketplace.ErrInvalidProductID
	}

	attributes := map[string]any{
		"item_name": []map[string]any{
			{"value": product.Title, "marketplace_id": a.config.MarketplaceID},
		},
		"purchasable_offer": []map[string]any{
			a.priceAttribute(product.Price),
		},
		"fulfillment_availability": []map[string]any{
			{"fulfillment_channel_code": "DEFAULT", "quantity": product.InventoryQuantity},
		},
	}
	if product.Description != "" {
		attributes["product_description"] = []map[string]any{
			{"value": product.Description, "marketplace_id": a.config.MarketplaceID},
		}
	}
	if product.Vendor != "" {
		attributes["brand"] = []map[string]any{
			{"value": product.Vendor, "marketplace_id": a.config.MarketplaceID},
		}
	}
	if len(product.ImageURLs) > 0 {
		attributes["main_product_image_locator"] = []map[string]any{
			{"media_location": product.ImageURLs[0], "marketplace_id": a.config.MarketplaceID},
		}
	}

	return map[string]any{
		"productType": "PRODUCT",
		"attributes":  attributes,
	}, nil
}

// TransformOrder converts a native Amazon order payload into the canonical
// order shape. Unmapped statuses default to pending.
func (a *AmazonAdapter) TransformOrder(raw map[string]any) (*order.Order, error) {
	rawBytes, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("amazon: failed to marshal order payload: %w", err)
	}
	var remote AmazonOrder
	if err := json.Unmarshal(rawBytes, &remote); err != nil {
		return nil, fmt.Errorf("amazon: failed to parse order payload: %w", err)
	}
	return a.normalizeOrder(&remote), nil
}

// normalizeOrder maps one Amazon order into the canonical order shape
func (a *AmazonAdapter) normalizeOrder(remote *AmazonOrder) *order.Order {
	o := &order.Order{
		MarketplaceOrderID: remote.AmazonOrderID,
		OrderNumber:        remote.AmazonOrderID,
		Source:             order.SourceAmazon,
		Status:             mapAmazonOrderStatus(remote.OrderStatus),
		Currency:           "USD",
		LineItems:          make([]order.LineItem, 0),
	}

	if remote.OrderTotal != nil {
		o.Total = parseAmazonMoney(*remote.OrderTotal)
		if remote.OrderTotal.CurrencyCode != "" {
			o.Currency = remote.OrderTotal.CurrencyCode
		}
	}
	if remote.BuyerInfo != nil {
		o.CustomerEmail = remote.BuyerInfo.BuyerEmail
		o.CustomerName = remote.BuyerInfo.BuyerName
	}
	if remote.ShippingAddress != nil {
		o.ShippingAddress = &order.Address{
			Name:     remote.ShippingAddress.Name,
			Address1: remote.ShippingAddress.AddressLine1,
			Address2: remote.ShippingAddress.AddressLine2,
			City:     remote.ShippingAddress.City,
			Province: remote.ShippingAddress.StateOrRegion,
			Country:  remote.ShippingAddress.CountryCode,
			Zip:      remote.ShippingAddress.PostalCode,
			Phone:    remote.ShippingAddress.Phone,
		}
	}
	if t, err := time.Parse(time.RFC3339, remote.PurchaseDate); err == nil {
		o.OrderedAt = &t
	}
	if t, err := time.Parse(time.RFC3339, remote.LastUpdateDate); err == nil {
		o.UpdatedAt = t
	}
	return o
}

// toRemoteListing maps one listings item into the normalized listing shape
func (a *AmazonAdapter) toRemoteListing(item AmazonListingsItem) marketplace.RemoteListing {
	listing := marketplace.RemoteListing{
		ListingID: item.SKU,
		SKU:       item.SKU,
		Status:    marketplace.ListingStatusActive,
	}
	for _, summary := range item.Summaries {
		if summary.MarketplaceID != a.config.MarketplaceID {
			continue
		}
		listing.Title = summary.ItemName
		for _, status := range summary.Status {
			if strings.EqualFold(status, "DISCOVERABLE") {
				listing.Status = marketplace.ListingStatusActive
			}
		}
	}
	for _, offer := range item.Offers {
		if offer.MarketplaceID == a.config.MarketplaceID {
			listing.Price = parseAmazonMoney(offer.Price)
		}
	}
	return listing
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// token returns a valid LWA access token, refreshing it when stale
func (a *AmazonAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpiry.Add(-tokenExpirySlack)) {
		return a.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", a.config.RefreshToken)
	form.Set("client_id", a.config.ClientID)
	form.Set("client_secret", a.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.AuthEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("amazon: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", marketplace.NewTransportError(marketplace.MarketplaceAmazon, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAmazonResponseSize))
	if err != nil {
		return "", fmt.Errorf("amazon: failed to read token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		// a rejected grant means the stored refresh token is no longer valid
		return "", marketplace.NewAdapterError(marketplace.MarketplaceAmazon, http.StatusUnauthorized, strings.TrimSpace(string(body)))
	}

	var token AmazonTokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return "", fmt.Errorf("amazon: failed to parse token response: %w", err)
	}

	a.accessToken = token.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	return a.accessToken, nil
}

// doRequest performs one authenticated SP-API request
func (a *AmazonAdapter) doRequest(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := a.config.Endpoint + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("amazon: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("amazon: failed to create request: %w", err)
	}
	req.Header.Set("x-amz-access-token", token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, marketplace.NewTransportError(marketplace.MarketplaceAmazon, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAmazonResponseSize))
	if err != nil {
		return nil, fmt.Errorf("amazon: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		var errResp AmazonErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message() != "" {
			msg = errResp.Message()
		}
		return nil, marketplace.NewAdapterError(marketplace.MarketplaceAmazon, resp.StatusCode, msg)
	}
	return body, nil
}

// itemPath is the listings item path for one seller SKU
func (a *AmazonAdapter) itemPath(sku string) string {
	return amazonListingsPath + "/" + a.config.SellerID + "/" + url.PathEscape(sku)
}

// priceAttribute is the purchasable_offer attribute shape for a price
func (a *AmazonAdapter) priceAttribute(price decimal.Decimal) map[string]any {
	return map[string]any{
		"marketplace_id": a.config.MarketplaceID,
		"our_price": []map[string]any{
			{"schedule": []map[string]any{{"value_with_tax": price.StringFixed(2)}}},
		},
	}
}

// attributePatch is one JSON patch replacing a listings attribute
func attributePatch(attribute string, value map[string]any) map[string]any {
	return map[string]any{
		"op":    "replace",
		"path":  "/attributes/" + attribute,
		"value": []map[string]any{value},
	}
}

// submissionIssues flattens submission issues into one message
func submissionIssues(issues []AmazonIssue) string {
	if len(issues) == 0 {
		return "listing submission rejected"
	}
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		msgs = append(msgs, issue.Message)
	}
	return strings.Join(msgs, "; ")
}

// parseAmazonMoney parses the SP-API string money amount, zero on failure
func parseAmazonMoney(m AmazonMoney) decimal.Decimal {
	d, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// mapAmazonOrderStatus maps Amazon order statuses to the canonical vocabulary
func mapAmazonOrderStatus(status string) order.Status {
	switch status {
	case "Pending", "PendingAvailability":
		return order.StatusPending
	case "Unshipped", "PartiallyShipped", "InvoiceUnconfirmed":
		return order.StatusProcessing
	case "Shipped":
		return order.StatusShipped
	case "Canceled", "Unfulfillable":
		return order.StatusCancelled
	default:
		return order.StatusPending
	}
}

// Ensure AmazonAdapter implements the adapter port
var _ marketplace.Adapter = (*AmazonAdapter)(nil)
