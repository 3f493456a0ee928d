package marketplace

import "errors"

var (
	// Connection errors
	ErrConnectionNotFound      = errors.New("marketplace: connection not found")
	ErrConnectionAlreadyExists = errors.New("marketplace: connection already exists for this marketplace account")
	ErrConnectionNotActive     = errors.New("marketplace: connection is not active")
	ErrConnectionSuspended     = errors.New("marketplace: connection is in error state, run a connection test to resume")
	ErrInvalidShopID           = errors.New("marketplace: invalid shop ID")
	ErrInvalidMarketplace      = errors.New("marketplace: invalid marketplace")

	// Adapter errors
	ErrMarketplaceNotSupported = errors.New("marketplace: no adapter registered for this marketplace")
	ErrAdapterNotConfigured    = errors.New("marketplace: adapter credentials not configured")

	// Listing errors
	ErrListingNotFound     = errors.New("marketplace: listing not found")
	ErrListingExists       = errors.New("marketplace: product is already listed on this connection")
	ErrSyncAlreadyPending  = errors.New("marketplace: a sync for this listing is already pending")
	ErrNegativeQuantity    = errors.New("marketplace: quantity must not be negative")
	ErrNegativePrice       = errors.New("marketplace: price must not be negative")
	ErrInvalidProductID    = errors.New("marketplace: invalid source product ID")
	ErrRetryBudgetExceeded = errors.New("marketplace: retry budget exceeded")

	// Order errors
	ErrOrderNotFound     = errors.New("marketplace: order not found on marketplace")
	ErrOrderSyncDisabled = errors.New("marketplace: order sync is disabled on this connection")
	ErrOrderNotPushable  = errors.New("marketplace: order has no marketplace connection to push to")
)
