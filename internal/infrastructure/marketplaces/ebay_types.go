package marketplaces

// Wire types for the eBay sell/inventory and sell/fulfillment API subset the
// adapter uses.

// EbayTokenResponse is the OAuth token grant response
type EbayTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// EbayErrorResponse is the uniform eBay error envelope
type EbayErrorResponse struct {
	Errors []EbayError `json:"errors"`
}

// EbayError is a single eBay error entry
type EbayError struct {
	ErrorID     int    `json:"errorId"`
	Category    string `json:"category"`
	Message     string `json:"message"`
	LongMessage string `json:"longMessage,omitempty"`
}

// Message returns the first error message, or empty
func (r *EbayErrorResponse) Message() string {
	if len(r.Errors) == 0 {
		return ""
	}
	if r.Errors[0].LongMessage != "" {
		return r.Errors[0].LongMessage
	}
	return r.Errors[0].Message
}

// ---------------------------------------------------------------------------
// Inventory API
// ---------------------------------------------------------------------------

// EbayInventoryItemsResponse is a page of inventory items
type EbayInventoryItemsResponse struct {
	InventoryItems []EbayInventoryItem `json:"inventoryItems"`
	Total          int                 `json:"total"`
	Size           int                 `json:"size"`
	Offset         int                 `json:"offset"`
	Limit          int                 `json:"limit"`
}

// EbayInventoryItem is one inventory item
type EbayInventoryItem struct {
	SKU          string            `json:"sku"`
	Product      *EbayProduct      `json:"product,omitempty"`
	Availability *EbayAvailability `json:"availability,omitempty"`
}

// EbayProduct carries the catalog attributes of an inventory item
type EbayProduct struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	ImageURLs   []string `json:"imageUrls,omitempty"`
}

// EbayAvailability carries the sellable quantity of an inventory item
type EbayAvailability struct {
	ShipToLocationAvailability *EbayShipToLocationAvailability `json:"shipToLocationAvailability,omitempty"`
}

// EbayShipToLocationAvailability is the quantity shape inside availability
type EbayShipToLocationAvailability struct {
	Quantity int `json:"quantity"`
}

// EbayOffer is an offer tying an inventory item to a listing
type EbayOffer struct {
	OfferID            string               `json:"offerId,omitempty"`
	SKU                string               `json:"sku"`
	MarketplaceID      string               `json:"marketplaceId"`
	Format             string               `json:"format"`
	ListingID          string               `json:"listingId,omitempty"`
	AvailableQuantity  int                  `json:"availableQuantity"`
	PricingSummary     *EbayPricingSummary  `json:"pricingSummary,omitempty"`
	ListingPolicies    *EbayListingPolicies `json:"listingPolicies,omitempty"`
	ListingDescription string               `json:"listingDescription,omitempty"`
	Status             string               `json:"status,omitempty"`
}

// EbayPricingSummary carries the offer price
type EbayPricingSummary struct {
	Price EbayAmount `json:"price"`
}

// EbayAmount is the eBay money shape (value as string)
type EbayAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// EbayListingPolicies are the business policies attached to an offer
type EbayListingPolicies struct {
	FulfillmentPolicyID string `json:"fulfillmentPolicyId,omitempty"`
	PaymentPolicyID     string `json:"paymentPolicyId,omitempty"`
	ReturnPolicyID      string `json:"returnPolicyId,omitempty"`
}

// EbayCreateOfferResponse is the offer creation result
type EbayCreateOfferResponse struct {
	OfferID string `json:"offerId"`
}

// EbayPublishResponse is the offer publish result
type EbayPublishResponse struct {
	ListingID string `json:"listingId"`
}

// ---------------------------------------------------------------------------
// Fulfillment API
// ---------------------------------------------------------------------------

// EbayOrdersResponse is a page of fulfillment orders
type EbayOrdersResponse struct {
	Orders []EbayOrder `json:"orders"`
	Total  int         `json:"total"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

// EbayOrder is one eBay order
type EbayOrder struct {
	OrderID                      string                       `json:"orderId"`
	LegacyOrderID                string                       `json:"legacyOrderId,omitempty"`
	CreationDate                 string                       `json:"creationDate"`
	LastModifiedDate             string                       `json:"lastModifiedDate"`
	OrderFulfillmentStatus       string                       `json:"orderFulfillmentStatus"`
	OrderPaymentStatus           string                       `json:"orderPaymentStatus,omitempty"`
	Buyer                        *EbayBuyer                   `json:"buyer,omitempty"`
	PricingSummary               *EbayOrderPricing            `json:"pricingSummary,omitempty"`
	LineItems                    []EbayOrderLineItem          `json:"lineItems,omitempty"`
	FulfillmentStartInstructions []EbayFulfillmentInstruction `json:"fulfillmentStartInstructions,omitempty"`
}

// EbayBuyer carries buyer identity
type EbayBuyer struct {
	Username string `json:"username,omitempty"`
}

// EbayOrderPricing carries the order money breakdown
type EbayOrderPricing struct {
	PriceSubtotal *EbayAmount `json:"priceSubtotal,omitempty"`
	DeliveryCost  *EbayAmount `json:"deliveryCost,omitempty"`
	Tax           *EbayAmount `json:"tax,omitempty"`
	PriceDiscount *EbayAmount `json:"priceDiscount,omitempty"`
	Total         *EbayAmount `json:"total,omitempty"`
}

// EbayOrderLineItem is one ordered line
type EbayOrderLineItem struct {
	LineItemID   string      `json:"lineItemId"`
	Title        string      `json:"title"`
	SKU          string      `json:"sku,omitempty"`
	Quantity     int         `json:"quantity"`
	LineItemCost *EbayAmount `json:"lineItemCost,omitempty"`
}

// EbayFulfillmentInstruction carries the ship-to details
type EbayFulfillmentInstruction struct {
	ShippingStep *EbayShippingStep `json:"shippingStep,omitempty"`
}

// EbayShippingStep carries the shipping contact
type EbayShippingStep struct {
	ShipTo *EbayShipTo `json:"shipTo,omitempty"`
}

// EbayShipTo is the delivery contact and address
type EbayShipTo struct {
	FullName       string       `json:"fullName,omitempty"`
	Email          string       `json:"email,omitempty"`
	PrimaryPhone   *EbayPhone   `json:"primaryPhone,omitempty"`
	ContactAddress *EbayAddress `json:"contactAddress,omitempty"`
}

// EbayPhone is a phone number wrapper
type EbayPhone struct {
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// EbayAddress is a delivery address
type EbayAddress struct {
	AddressLine1    string `json:"addressLine1,omitempty"`
	AddressLine2    string `json:"addressLine2,omitempty"`
	City            string `json:"city,omitempty"`
	StateOrProvince string `json:"stateOrProvince,omitempty"`
	PostalCode      string `json:"postalCode,omitempty"`
	CountryCode     string `json:"countryCode,omitempty"`
}
