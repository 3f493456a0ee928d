package marketplace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/order"
)

// ---------------------------------------------------------------------------
// AdapterError
// ---------------------------------------------------------------------------

// AdapterError is the uniform failure shape every adapter returns for remote
// errors. The originating marketplace message is preserved verbatim for
// operator diagnosis.
type AdapterError struct {
	// Marketplace is the marketplace that produced the error
	Marketplace Marketplace
	// StatusCode is the remote HTTP status, 0 for transport-level failures
	StatusCode int
	// Message is the remote error message, verbatim
	Message string
	// Retryable indicates the caller may retry with backoff
	Retryable bool
	// Auth indicates invalid or expired credentials
	Auth bool
}

// Error implements the error interface
func (e *AdapterError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Marketplace, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Marketplace, e.Message)
}

// NewAdapterError creates an AdapterError classifying retryability from the
// HTTP status: 5xx, 408 and 429 are retryable; 401/403 are auth errors;
// remaining 4xx are non-retryable business rejections.
func NewAdapterError(m Marketplace, statusCode int, message string) *AdapterError {
	return &AdapterError{
		Marketplace: m,
		StatusCode:  statusCode,
		Message:     message,
		Retryable:   statusCode >= 500 || statusCode == 408 || statusCode == 429,
		Auth:        statusCode == 401 || statusCode == 403,
	}
}

// NewTransportError creates a retryable AdapterError for network-level
// failures (connection refused, timeout). Timeouts are treated as retryable.
func NewTransportError(m Marketplace, err error) *AdapterError {
	return &AdapterError{
		Marketplace: m,
		Message:     err.Error(),
		Retryable:   true,
	}
}

// IsRetryable returns true if err is an AdapterError marked retryable
func IsRetryable(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// IsAuthError returns true if err is an AdapterError caused by bad credentials
func IsAuthError(err error) bool {
	var ae *AdapterError
	if errors.As(err, &ae) {
		return ae.Auth
	}
	return false
}

// ---------------------------------------------------------------------------
// Adapter Value Objects
// ---------------------------------------------------------------------------

// ConnectionTestResult is the outcome of a connectivity test. Expected auth
// failures are reported with Success=false, never as an error.
type ConnectionTestResult struct {
	Success bool
	Message string
}

// PageOptions carries pagination state for listing queries. Cursor is an
// opaque continuation value; adapters map it onto their native paging idiom
// (token-based or offset-based). An empty cursor starts from the beginning.
type PageOptions struct {
	Cursor string
	Limit  int
}

// PageInfo carries the continuation state returned by a paged call
type PageInfo struct {
	HasNextPage bool
	NextCursor  string
}

// ProductSnapshot is the locally cached product state handed to an adapter
// for listing creation and transformation. Adapters never fetch source data.
type ProductSnapshot struct {
	ProductID         string
	VariantID         string
	Title             string
	Description       string
	Handle            string
	Vendor            string
	ProductType       string
	Tags              []string
	SKU               string
	Price             decimal.Decimal
	CompareAtPrice    decimal.Decimal
	Currency          string
	InventoryQuantity int
	ImageURLs         []string
}

// RemoteListing is a normalized view of a marketplace-side listing
type RemoteListing struct {
	ListingID string
	SKU       string
	Title     string
	Price     decimal.Decimal
	Quantity  int
	Status    ListingStatus
	// Raw is the native marketplace payload, kept for diagnosis
	Raw map[string]any
}

// ListingPage is one page of remote listings
type ListingPage struct {
	Listings []RemoteListing
	PageInfo PageInfo
}

// ListingUpdate is a partial update applied to a remote listing.
// Nil fields are left unchanged.
type ListingUpdate struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Quantity    *int
}

// OrderListOptions filters remote order retrieval by creation date range
// plus an opaque continuation cursor.
type OrderListOptions struct {
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Cursor        string
	Limit         int
}

// OrderPage is one page of normalized marketplace orders
type OrderPage struct {
	Orders   []order.Order
	PageInfo PageInfo
}

// Shipment carries the data needed to confirm shipment of a remote order
type Shipment struct {
	TrackingNumber string
	Carrier        string
	ShippedAt      time.Time
}

// Refund carries the data needed to issue a refund for a remote order
type Refund struct {
	Amount  decimal.Decimal
	Reason  string
	Comment string
}

// ---------------------------------------------------------------------------
// Adapter Port Interface
// ---------------------------------------------------------------------------

// Adapter is the uniform contract every marketplace implementation fulfils.
// An Adapter instance is bound to one connection's credentials and settings.
//
// Idempotency: CreateListing is NOT idempotent; callers must not invoke it
// twice for the same (connection, product) pair. The listing sync service
// enforces this with its at-most-one-pending gate.
//
// Every call is a potentially blocking external I/O boundary; callers apply
// a per-call timeout via ctx and treat timeouts as retryable.
type Adapter interface {
	// Marketplace returns the marketplace this adapter handles
	Marketplace() Marketplace

	// TestConnection performs a minimal authenticated call. It never mutates
	// remote state. Expected auth failures are reported in the result, not
	// as an error; only unexpected transport failures return an error.
	TestConnection(ctx context.Context) (*ConnectionTestResult, error)

	// ---------------------------------------------------------------------------
	// Listing Operations
	// ---------------------------------------------------------------------------

	// ListListings retrieves remote listings one page at a time
	ListListings(ctx context.Context, opts PageOptions) (*ListingPage, error)

	// CreateListing publishes a product on the marketplace
	CreateListing(ctx context.Context, product *ProductSnapshot) (*RemoteListing, error)

	// UpdateListing applies a partial update to a remote listing
	UpdateListing(ctx context.Context, listingID string, update ListingUpdate) error

	// DeleteListing withdraws a remote listing
	DeleteListing(ctx context.Context, listingID string) error

	// UpdateInventory sets the available quantity. Negative quantities are
	// rejected with ErrNegativeQuantity, never clamped.
	UpdateInventory(ctx context.Context, listingID string, quantity int) error

	// UpdatePrice sets the listing price. Negative prices are rejected with
	// ErrNegativePrice.
	UpdatePrice(ctx context.Context, listingID string, price decimal.Decimal) error

	// ---------------------------------------------------------------------------
	// Order Operations
	// ---------------------------------------------------------------------------

	// ListOrders retrieves marketplace orders in a date range, normalized
	ListOrders(ctx context.Context, opts OrderListOptions) (*OrderPage, error)

	// AcknowledgeOrder confirms receipt of an order
	AcknowledgeOrder(ctx context.Context, orderID string) error

	// ShipOrder confirms shipment with tracking info
	ShipOrder(ctx context.Context, orderID string, shipment Shipment) error

	// CancelOrder cancels a remote order
	CancelOrder(ctx context.Context, orderID string, reason string) error

	// RefundOrder issues a refund for a remote order
	RefundOrder(ctx context.Context, orderID string, refund Refund) error

	// ---------------------------------------------------------------------------
	// Transformations (pure, no I/O)
	// ---------------------------------------------------------------------------

	// TransformProduct converts a product snapshot into the marketplace's
	// native listing payload
	TransformProduct(product *ProductSnapshot) (map[string]any, error)

	// TransformOrder converts a native marketplace order payload into the
	// canonical order shape. The marketplace status vocabulary is mapped via
	// a total table; unmapped statuses default to pending, never error.
	TransformOrder(raw map[string]any) (*order.Order, error)
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Registry resolves a connection to the adapter for its marketplace,
// bound to that connection's credentials and settings.
type Registry interface {
	// ForConnection returns an adapter bound to the connection's credentials.
	// Returns ErrMarketplaceNotSupported when no adapter is registered for
	// the connection's marketplace.
	ForConnection(conn *Connection) (Adapter, error)

	// Supported returns the marketplaces with a registered adapter
	Supported() []Marketplace
}
