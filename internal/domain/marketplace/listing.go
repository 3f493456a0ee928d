package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/channelsync/backend/internal/domain/shared"
)

// Retry policy for retryable sync failures: exponential backoff starting at
// retryBaseDelay, doubling per attempt, capped at retryMaxDelay, at most
// maxRetries attempts before the listing is marked error.
const (
	maxRetries     = 3
	retryBaseDelay = time.Second
	retryMaxDelay  = 5 * time.Minute
)

// ---------------------------------------------------------------------------
// Listing Entity
// ---------------------------------------------------------------------------

// Listing represents one product's presence on one marketplace connection.
// A product may have many listings, one per connection; a listing is unique
// on (connection, marketplace listing id) once the remote id is assigned.
type Listing struct {
	shared.BaseEntity
	ShopID               uuid.UUID
	ConnectionID         uuid.UUID
	SourceProductID      string
	SourceVariantID      string
	MarketplaceListingID string
	MarketplaceSKU       string
	Title                string
	Price                decimal.Decimal
	CompareAtPrice       decimal.Decimal
	Inventory            int
	Status               ListingStatus
	SyncStatus           SyncStatus
	LastSyncAt           *time.Time
	ErrorMessage         string
	Metadata             map[string]any
	// Retry bookkeeping for retryable sync failures
	RetryCount  int
	NextRetryAt *time.Time
}

// NewListing creates a draft listing for a product on a connection
func NewListing(shopID, connectionID uuid.UUID, sourceProductID string) (*Listing, error) {
	if shopID == uuid.Nil {
		return nil, ErrInvalidShopID
	}
	if sourceProductID == "" {
		return nil, ErrInvalidProductID
	}
	return &Listing{
		BaseEntity:      shared.NewBaseEntity(),
		ShopID:          shopID,
		ConnectionID:    connectionID,
		SourceProductID: sourceProductID,
		Status:          ListingStatusDraft,
		SyncStatus:      SyncStatusNotSynced,
		Metadata:        make(map[string]any),
	}, nil
}

// BeginSync transitions the listing into the pending sync state. Only one
// sync may be pending per listing at a time; this gate closes the
// idempotency hole left open by CreateListing.
func (l *Listing) BeginSync() error {
	if l.SyncStatus == SyncStatusPending {
		return ErrSyncAlreadyPending
	}
	l.SyncStatus = SyncStatusPending
	if l.Status == ListingStatusDraft {
		l.Status = ListingStatusPending
	}
	l.UpdatedAt = time.Now()
	return nil
}

// CompleteSync records a successful sync: state becomes synced, the sync
// timestamp is stamped and any previous error is cleared.
func (l *Listing) CompleteSync(remote *RemoteListing) {
	now := time.Now()
	l.SyncStatus = SyncStatusSynced
	l.Status = ListingStatusActive
	l.LastSyncAt = &now
	l.ErrorMessage = ""
	l.RetryCount = 0
	l.NextRetryAt = nil
	if remote != nil {
		if remote.ListingID != "" {
			l.MarketplaceListingID = remote.ListingID
		}
		if remote.SKU != "" {
			l.MarketplaceSKU = remote.SKU
		}
	}
	l.UpdatedAt = now
}

// FailSync records a non-retryable failure: the remote message is preserved
// verbatim and lastSyncAt is left unchanged.
func (l *Listing) FailSync(errMsg string) {
	l.SyncStatus = SyncStatusError
	l.Status = ListingStatusError
	l.ErrorMessage = errMsg
	l.RetryCount = 0
	l.NextRetryAt = nil
	l.UpdatedAt = time.Now()
}

// ScheduleRetry handles a retryable failure: the listing stays pending and is
// re-queued with exponential backoff. Once the retry budget is exhausted the
// listing transitions to error and ErrRetryBudgetExceeded is returned.
func (l *Listing) ScheduleRetry(errMsg string) error {
	if l.RetryCount >= maxRetries {
		l.FailSync(errMsg)
		return ErrRetryBudgetExceeded
	}
	l.RetryCount++
	delay := retryBaseDelay * time.Duration(1<<(l.RetryCount-1))
	if delay > retryMaxDelay {
		delay = retryMaxDelay
	}
	next := time.Now().Add(delay)
	l.NextRetryAt = &next
	l.UpdatedAt = time.Now()
	return nil
}

// RetryDue returns true if a scheduled retry is due at the given time
func (l *Listing) RetryDue(now time.Time) bool {
	return l.SyncStatus == SyncStatusPending && l.NextRetryAt != nil && !now.Before(*l.NextRetryAt)
}

// MarkSourceChanged flags a synced listing for re-sync after the source
// product changed (price, inventory, title) or a re-sync interval elapsed.
func (l *Listing) MarkSourceChanged() {
	if l.SyncStatus == SyncStatusSynced {
		l.SyncStatus = SyncStatusPending
		l.UpdatedAt = time.Now()
	}
}

// ResetForRetry permits a manual retry of an errored listing
func (l *Listing) ResetForRetry() error {
	if l.SyncStatus != SyncStatusError {
		return shared.ErrInvalidState
	}
	l.SyncStatus = SyncStatusPending
	l.RetryCount = 0
	l.NextRetryAt = nil
	l.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// ListingRepository Interface
// ---------------------------------------------------------------------------

// ListingFilter defines filter criteria for listings
type ListingFilter struct {
	// ConnectionID filters by connection (optional)
	ConnectionID *uuid.UUID
	// Status filters by listing status (optional)
	Status *ListingStatus
	// SyncStatus filters by sync status (optional)
	SyncStatus *SyncStatus
	// SourceProductID filters by source product (optional)
	SourceProductID string
	// Page number (1-indexed)
	Page int
	// Page size
	PageSize int
}

// ListingRepository defines the interface for listing persistence
type ListingRepository interface {
	// Save creates or updates a listing
	Save(ctx context.Context, l *Listing) error

	// FindByID finds a listing by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Listing, error)

	// FindByConnectionAndProduct finds the listing of a product on a connection
	FindByConnectionAndProduct(ctx context.Context, connectionID uuid.UUID, sourceProductID string) (*Listing, error)

	// FindByMarketplaceListing finds a listing by its remote id
	FindByMarketplaceListing(ctx context.Context, connectionID uuid.UUID, marketplaceListingID string) (*Listing, error)

	// FindAll finds listings for a shop matching the filter
	FindAll(ctx context.Context, shopID uuid.UUID, filter ListingFilter) ([]Listing, error)

	// Count counts listings matching the filter
	Count(ctx context.Context, shopID uuid.UUID, filter ListingFilter) (int64, error)

	// FindSyncDue finds listings whose sync is pending and due (new syncs and
	// scheduled retries) for a connection
	FindSyncDue(ctx context.Context, connectionID uuid.UUID, now time.Time, limit int) ([]Listing, error)

	// FindBySourceProduct finds all listings of a source product across
	// connections for a shop
	FindBySourceProduct(ctx context.Context, shopID uuid.UUID, sourceProductID string) ([]Listing, error)

	// Delete removes the local listing record only; the remote listing is
	// withdrawn separately
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByConnection removes all listings of a connection on disconnect
	DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error
}
