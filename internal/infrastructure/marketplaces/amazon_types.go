package marketplaces

// Wire types for the Amazon SP-API subset the adapter uses. Field sets are
// trimmed to what the adapter reads; unknown fields are ignored on decode.

// AmazonTokenResponse is the LWA token grant response
type AmazonTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// AmazonErrorResponse is the uniform SP-API error envelope
type AmazonErrorResponse struct {
	Errors []AmazonError `json:"errors"`
}

// AmazonError is a single SP-API error entry
type AmazonError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Message returns the first error message, or empty
func (r *AmazonErrorResponse) Message() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// ---------------------------------------------------------------------------
// Listings Items API (2021-08-01)
// ---------------------------------------------------------------------------

// AmazonListingsSearchResponse is a page of listings items
type AmazonListingsSearchResponse struct {
	Items      []AmazonListingsItem `json:"items"`
	Pagination *AmazonPagination    `json:"pagination,omitempty"`
}

// AmazonPagination carries the continuation token for listings searches
type AmazonPagination struct {
	NextToken string `json:"nextToken,omitempty"`
}

// AmazonListingsItem is one listings item with its summaries
type AmazonListingsItem struct {
	SKU       string                 `json:"sku"`
	Summaries []AmazonListingSummary `json:"summaries,omitempty"`
	Offers    []AmazonListingOffer   `json:"offers,omitempty"`
}

// AmazonListingSummary is the per-marketplace summary of a listings item
type AmazonListingSummary struct {
	MarketplaceID string   `json:"marketplaceId"`
	ASIN          string   `json:"asin,omitempty"`
	ItemName      string   `json:"itemName,omitempty"`
	Status        []string `json:"status,omitempty"`
}

// AmazonListingOffer is the per-marketplace offer of a listings item
type AmazonListingOffer struct {
	MarketplaceID string      `json:"marketplaceId"`
	OfferType     string      `json:"offerType,omitempty"`
	Price         AmazonMoney `json:"price"`
}

// AmazonMoney is the SP-API money shape (amount as string)
type AmazonMoney struct {
	CurrencyCode string `json:"currencyCode"`
	Amount       string `json:"amount"`
}

// AmazonSubmissionResponse is the result of a listings item PUT/PATCH/DELETE
type AmazonSubmissionResponse struct {
	SKU          string        `json:"sku"`
	Status       string        `json:"status"`
	SubmissionID string        `json:"submissionId,omitempty"`
	Issues       []AmazonIssue `json:"issues,omitempty"`
}

// AmazonIssue is a listings submission issue
type AmazonIssue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// ---------------------------------------------------------------------------
// Orders API (v0)
// ---------------------------------------------------------------------------

// AmazonOrdersResponse is the orders list envelope
type AmazonOrdersResponse struct {
	Payload AmazonOrdersPayload `json:"payload"`
}

// AmazonOrdersPayload is a page of orders plus the continuation token
type AmazonOrdersPayload struct {
	Orders    []AmazonOrder `json:"Orders"`
	NextToken string        `json:"NextToken,omitempty"`
}

// AmazonOrder is one marketplace order
type AmazonOrder struct {
	AmazonOrderID      string           `json:"AmazonOrderId"`
	PurchaseDate       string           `json:"PurchaseDate"`
	LastUpdateDate     string           `json:"LastUpdateDate"`
	OrderStatus        string           `json:"OrderStatus"`
	FulfillmentChannel string           `json:"FulfillmentChannel,omitempty"`
	OrderTotal         *AmazonMoney     `json:"OrderTotal,omitempty"`
	BuyerInfo          *AmazonBuyerInfo `json:"BuyerInfo,omitempty"`
	ShippingAddress    *AmazonAddress   `json:"ShippingAddress,omitempty"`
}

// AmazonBuyerInfo carries the (possibly redacted) buyer contact info
type AmazonBuyerInfo struct {
	BuyerEmail string `json:"BuyerEmail,omitempty"`
	BuyerName  string `json:"BuyerName,omitempty"`
}

// AmazonAddress is an order shipping address
type AmazonAddress struct {
	Name          string `json:"Name,omitempty"`
	AddressLine1  string `json:"AddressLine1,omitempty"`
	AddressLine2  string `json:"AddressLine2,omitempty"`
	City          string `json:"City,omitempty"`
	StateOrRegion string `json:"StateOrRegion,omitempty"`
	CountryCode   string `json:"CountryCode,omitempty"`
	PostalCode    string `json:"PostalCode,omitempty"`
	Phone         string `json:"Phone,omitempty"`
}

// AmazonOrderItemsResponse is the order items envelope
type AmazonOrderItemsResponse struct {
	Payload AmazonOrderItemsPayload `json:"payload"`
}

// AmazonOrderItemsPayload is the order line items for one order
type AmazonOrderItemsPayload struct {
	OrderItems []AmazonOrderItem `json:"OrderItems"`
}

// AmazonOrderItem is one ordered line
type AmazonOrderItem struct {
	Title           string       `json:"Title"`
	SellerSKU       string       `json:"SellerSKU,omitempty"`
	QuantityOrdered int          `json:"QuantityOrdered"`
	ItemPrice       *AmazonMoney `json:"ItemPrice,omitempty"`
}
