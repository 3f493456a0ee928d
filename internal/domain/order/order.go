// Package order contains the Order bounded context.
// Orders from the source platform and from external marketplaces are unified
// into a single entity; marketplace adapters normalize their native order
// shapes into this model.
package order

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/shared"
)

var (
	ErrOrderNotFound   = errors.New("order: order not found")
	ErrInvalidShopID   = errors.New("order: invalid shop ID")
	ErrMissingTotal    = errors.New("order: total is required")
	ErrStaleOrderEvent = errors.New("order: event is older than the last applied event")
)

// ---------------------------------------------------------------------------
// Source represents where an order originated
// ---------------------------------------------------------------------------

// Source represents where an order originated
type Source string

const (
	SourceShopify Source = "shopify"
	SourceAmazon  Source = "amazon"
	SourceEbay    Source = "ebay"
	SourceWalmart Source = "walmart"
	SourceTarget  Source = "target"
	SourceEtsy    Source = "etsy"
	SourceOther   Source = "other"
)

// IsValid returns true if the source is valid
func (s Source) IsValid() bool {
	switch s {
	case SourceShopify, SourceAmazon, SourceEbay, SourceWalmart, SourceTarget, SourceEtsy, SourceOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of Source
func (s Source) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Status represents the canonical order status
// ---------------------------------------------------------------------------

// Status is the canonical order status every marketplace vocabulary maps into
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsFinal returns true if the status is a terminal state
func (s Status) IsFinal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// SyncStatus mirrors the listing sync status vocabulary
// ---------------------------------------------------------------------------

// SyncStatus tracks whether local and marketplace order data agree
type SyncStatus string

const (
	SyncStatusNotSynced SyncStatus = "not_synced"
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusError     SyncStatus = "error"
)

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Address is a shipping or billing address as reported by the source
type Address struct {
	Name     string `json:"name,omitempty"`
	Address1 string `json:"address1,omitempty"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city,omitempty"`
	Province string `json:"province,omitempty"`
	Country  string `json:"country,omitempty"`
	Zip      string `json:"zip,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// LineItem is one ordered product line
type LineItem struct {
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	SKU      string          `json:"sku,omitempty"`
	Price    decimal.Decimal `json:"price"`
}

// TrackingInfo carries shipment tracking details
type TrackingInfo struct {
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Carrier        string `json:"carrier,omitempty"`
	TrackingURL    string `json:"trackingUrl,omitempty"`
}

// ---------------------------------------------------------------------------
// Order Entity
// ---------------------------------------------------------------------------

// Order unifies orders from the source platform and from marketplaces.
// Money fields are stored as reported; total = subtotal + tax + shipping - discount
// is a target, not an enforced constraint (marketplace data may not reconcile).
type Order struct {
	shared.BaseEntity
	ShopID             uuid.UUID
	ConnectionID       *uuid.UUID
	SourceOrderID      string
	MarketplaceOrderID string
	OrderNumber        string
	Source             Source
	Status             Status
	FinancialStatus    string
	FulfillmentStatus  string
	Currency           string
	Subtotal           decimal.Decimal
	TotalTax           decimal.Decimal
	TotalShipping      decimal.Decimal
	TotalDiscount      decimal.Decimal
	Total              decimal.Decimal
	CustomerEmail      string
	CustomerName       string
	ShippingAddress    *Address
	BillingAddress     *Address
	LineItems          []LineItem
	Tracking           *TrackingInfo
	SyncStatus         SyncStatus
	LastSyncAt         *time.Time
	ErrorMessage       string
	OrderedAt          *time.Time
	// LastEventAt is the timestamp of the last applied external event.
	// Events older than this are discarded (out-of-order delivery guard).
	LastEventAt *time.Time
}

// New creates a new Order owned by the given shop
func New(shopID uuid.UUID, source Source) (*Order, error) {
	if shopID == uuid.Nil {
		return nil, ErrInvalidShopID
	}
	if !source.IsValid() {
		source = SourceOther
	}
	return &Order{
		BaseEntity: shared.NewBaseEntity(),
		ShopID:     shopID,
		Source:     source,
		Status:     StatusPending,
		Currency:   "USD",
		SyncStatus: SyncStatusNotSynced,
		LineItems:  make([]LineItem, 0),
	}, nil
}

// ApplyEvent applies an external order event (webhook or marketplace pull).
// Events arriving out of order are rejected: if eventAt is older than the
// last applied event the order is left untouched and ErrStaleOrderEvent is
// returned.
func (o *Order) ApplyEvent(eventAt time.Time, mutate func(*Order)) error {
	if o.LastEventAt != nil && eventAt.Before(*o.LastEventAt) {
		return ErrStaleOrderEvent
	}
	mutate(o)
	o.LastEventAt = &eventAt
	o.UpdatedAt = time.Now()
	return nil
}

// MarkShipped records shipment tracking and advances the status
func (o *Order) MarkShipped(tracking TrackingInfo) {
	o.Status = StatusShipped
	o.FulfillmentStatus = "fulfilled"
	o.Tracking = &tracking
	o.UpdatedAt = time.Now()
}

// MarkCancelled cancels the order
func (o *Order) MarkCancelled() {
	o.Status = StatusCancelled
	o.UpdatedAt = time.Now()
}

// MarkRefunded records a refund
func (o *Order) MarkRefunded() {
	o.Status = StatusRefunded
	o.FinancialStatus = "refunded"
	o.UpdatedAt = time.Now()
}

// RecordSyncSuccess records a successful sync against the marketplace
func (o *Order) RecordSyncSuccess() {
	now := time.Now()
	o.SyncStatus = SyncStatusSynced
	o.LastSyncAt = &now
	o.ErrorMessage = ""
	o.UpdatedAt = now
}

// RecordSyncFailure records a failed sync; lastSyncAt is left unchanged
func (o *Order) RecordSyncFailure(errMsg string) {
	o.SyncStatus = SyncStatusError
	o.ErrorMessage = errMsg
	o.UpdatedAt = time.Now()
}

// DetachConnection nulls the connection reference when a connection is
// disconnected. Orders are an audit trail and are never cascaded.
func (o *Order) DetachConnection() {
	o.ConnectionID = nil
	o.UpdatedAt = time.Now()
}
