package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter defines filter criteria for listing orders
type Filter struct {
	// Source filters by order source (optional)
	Source *Source
	// Status filters by canonical status (optional)
	Status *Status
	// ConnectionID filters by marketplace connection (optional)
	ConnectionID *uuid.UUID
	// SyncStatus filters by sync status (optional)
	SyncStatus *SyncStatus
	// OrderedAfter filters orders placed after this time (optional)
	OrderedAfter *time.Time
	// OrderedBefore filters orders placed before this time (optional)
	OrderedBefore *time.Time
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// Repository defines the interface for order persistence
type Repository interface {
	// Save creates or updates an order
	Save(ctx context.Context, o *Order) error

	// FindByID finds an order by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByMarketplaceOrder finds an order by connection and marketplace order ID
	FindByMarketplaceOrder(ctx context.Context, connectionID uuid.UUID, marketplaceOrderID string) (*Order, error)

	// FindBySourceOrder finds an order by shop and source platform order ID
	FindBySourceOrder(ctx context.Context, shopID uuid.UUID, sourceOrderID string) (*Order, error)

	// FindAll finds all orders for a shop matching the filter
	FindAll(ctx context.Context, shopID uuid.UUID, filter Filter) ([]Order, error)

	// Count counts orders matching the filter
	Count(ctx context.Context, shopID uuid.UUID, filter Filter) (int64, error)

	// DetachConnection nulls the connection reference on all orders of a
	// connection. Used on disconnect; orders are never deleted.
	DetachConnection(ctx context.Context, connectionID uuid.UUID) error
}
