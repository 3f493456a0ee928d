package marketplace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/marketplace"
)

// leaseTTL bounds how long a sync lease outlives a dead holder. It must
// exceed the adapter call timeout.
const leaseTTL = adapterCallTimeout + 15*time.Second

// ListingSyncServiceImpl drives the listing sync state machine: it gates
// transitions into pending, holds a per-listing lease across the remote
// call, and records the outcome on the listing and its connection.
type ListingSyncServiceImpl struct {
	connRepo    marketplace.ConnectionRepository
	listingRepo marketplace.ListingRepository
	productRepo catalog.ProductRepository
	registry    marketplace.Registry
	lease       marketplace.SyncLease
	logger      *zap.Logger
}

// NewListingSyncService creates a new ListingSyncServiceImpl
func NewListingSyncService(
	connRepo marketplace.ConnectionRepository,
	listingRepo marketplace.ListingRepository,
	productRepo catalog.ProductRepository,
	registry marketplace.Registry,
	lease marketplace.SyncLease,
	logger *zap.Logger,
) *ListingSyncServiceImpl {
	return &ListingSyncServiceImpl{
		connRepo:    connRepo,
		listingRepo: listingRepo,
		productRepo: productRepo,
		registry:    registry,
		lease:       lease,
		logger:      logger,
	}
}

// ---------------------------------------------------------------------------
// Listing CRUD
// ---------------------------------------------------------------------------

// ListProduct creates a draft listing for a cached source product on a
// connection. The listing snapshot (title, price, inventory) is taken from
// the local cache; an optional pricing strategy reprices it for the
// marketplace. Remote creation happens on Sync, not here.
func (s *ListingSyncServiceImpl) ListProduct(
	ctx context.Context,
	shopID, connectionID uuid.UUID,
	sourceProductID string,
	strategy *catalog.PricingStrategy,
) (*marketplace.Listing, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.ShopID != shopID {
		return nil, marketplace.ErrConnectionNotFound
	}

	existing, err := s.listingRepo.FindByConnectionAndProduct(ctx, connectionID, sourceProductID)
	if err != nil && !errors.Is(err, marketplace.ErrListingNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, marketplace.ErrListingExists
	}

	product, err := s.productRepo.FindBySourceProductID(ctx, shopID, sourceProductID)
	if err != nil {
		return nil, err
	}

	listing, err := marketplace.NewListing(shopID, connectionID, sourceProductID)
	if err != nil {
		return nil, err
	}
	listing.SourceVariantID = product.SourceVariantID
	listing.Title = product.Title
	listing.Price = product.Price
	if product.CompareAtPrice != nil {
		listing.CompareAtPrice = *product.CompareAtPrice
	}
	listing.Inventory = product.Inventory

	if strategy != nil {
		price, perr := strategy.ComputePrice(product.Price)
		if perr != nil {
			return nil, perr
		}
		listing.Price = price
	}

	if err := s.listingRepo.Save(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// GetListing retrieves a listing scoped to a shop
func (s *ListingSyncServiceImpl) GetListing(ctx context.Context, shopID, id uuid.UUID) (*marketplace.Listing, error) {
	listing, err := s.listingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.ShopID != shopID {
		return nil, marketplace.ErrListingNotFound
	}
	return listing, nil
}

// ListListings lists listings for a shop with filtering and pagination
func (s *ListingSyncServiceImpl) ListListings(
	ctx context.Context,
	shopID uuid.UUID,
	filter marketplace.ListingFilter,
) ([]marketplace.Listing, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	listings, err := s.listingRepo.FindAll(ctx, shopID, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.listingRepo.Count(ctx, shopID, filter)
	if err != nil {
		return nil, 0, err
	}
	return listings, count, nil
}

// DeleteListing removes the local listing record and withdraws the remote
// listing when one was created. Remote withdrawal failure does not block the
// local delete.
func (s *ListingSyncServiceImpl) DeleteListing(ctx context.Context, shopID, id uuid.UUID) error {
	listing, err := s.GetListing(ctx, shopID, id)
	if err != nil {
		return err
	}

	if listing.MarketplaceListingID != "" {
		if err := s.withdrawRemote(ctx, listing); err != nil {
			s.logger.Warn("remote listing withdrawal failed",
				zap.String("listing_id", listing.ID.String()), zap.Error(err))
		}
	}
	return s.listingRepo.Delete(ctx, listing.ID)
}

func (s *ListingSyncServiceImpl) withdrawRemote(ctx context.Context, listing *marketplace.Listing) error {
	conn, err := s.connRepo.FindByID(ctx, listing.ConnectionID)
	if err != nil {
		return err
	}
	adapter, err := s.registry.ForConnection(conn)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()
	return adapter.DeleteListing(callCtx, listing.MarketplaceListingID)
}

// ---------------------------------------------------------------------------
// Sync State Machine
// ---------------------------------------------------------------------------

// SyncResult reports the outcome of syncing one listing
type SyncResult struct {
	ListingID  uuid.UUID              `json:"listing_id"`
	Success    bool                   `json:"success"`
	SyncStatus marketplace.SyncStatus `json:"sync_status"`
	Error      string                 `json:"error,omitempty"`
}

// SyncListing pushes one listing to its marketplace. The transition into
// pending is gated twice: by the listing state (at most one pending sync per
// listing) and by a per-listing lease held for the duration of the remote
// call, so concurrent callers cannot trigger duplicate remote creation.
func (s *ListingSyncServiceImpl) SyncListing(ctx context.Context, shopID, id uuid.UUID) (*SyncResult, error) {
	listing, err := s.GetListing(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	conn, err := s.connRepo.FindByID(ctx, listing.ConnectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status == marketplace.ConnectionStatusError {
		return nil, marketplace.ErrConnectionSuspended
	}
	if !conn.IsActive || conn.Status != marketplace.ConnectionStatusActive {
		return nil, marketplace.ErrConnectionNotActive
	}

	return s.syncUnderLease(ctx, conn, listing, listing.BeginSync)
}

// syncUnderLease takes the per-listing lease, applies the pending transition
// and runs the remote call. transition is the state-machine entry edge
// (BeginSync for a fresh sync, ResetForRetry for a manual retry).
func (s *ListingSyncServiceImpl) syncUnderLease(
	ctx context.Context,
	conn *marketplace.Connection,
	listing *marketplace.Listing,
	transition func() error,
) (*SyncResult, error) {
	key := syncLeaseKey(listing.ConnectionID, listing.ID)
	token, err := s.lease.Acquire(ctx, key, leaseTTL)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, marketplace.ErrSyncAlreadyPending
	}
	defer func() {
		if err := s.lease.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Warn("sync lease release failed", zap.String("key", key), zap.Error(err))
		}
	}()

	if err := transition(); err != nil {
		return nil, err
	}
	if err := s.listingRepo.Save(ctx, listing); err != nil {
		return nil, err
	}

	return s.runSync(ctx, conn, listing), nil
}

// runSync performs the remote call and applies the outcome to the listing
// and the connection's failure circuit. The listing is already pending and
// the lease is held.
func (s *ListingSyncServiceImpl) runSync(
	ctx context.Context,
	conn *marketplace.Connection,
	listing *marketplace.Listing,
) *SyncResult {
	adapter, err := s.registry.ForConnection(conn)
	if err != nil {
		listing.FailSync(err.Error())
		s.persistOutcome(ctx, conn, listing, outcomeFailure, err.Error())
		return &SyncResult{ListingID: listing.ID, SyncStatus: listing.SyncStatus, Error: err.Error()}
	}

	callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()

	var remote *marketplace.RemoteListing
	var callErr error
	snapshot := listingSnapshot(listing)

	if listing.MarketplaceListingID == "" {
		remote, callErr = adapter.CreateListing(callCtx, snapshot)
	} else {
		callErr = s.pushUpdate(callCtx, adapter, listing)
	}

	switch {
	case callErr == nil:
		listing.CompleteSync(remote)
		s.persistOutcome(ctx, conn, listing, outcomeSuccess, "")
		return &SyncResult{ListingID: listing.ID, Success: true, SyncStatus: listing.SyncStatus}

	case marketplace.IsRetryable(callErr):
		outcome := outcomeRetryScheduled
		if retryErr := listing.ScheduleRetry(callErr.Error()); retryErr != nil {
			outcome = outcomeFailure
		}
		s.persistOutcome(ctx, conn, listing, outcome, callErr.Error())
		return &SyncResult{ListingID: listing.ID, SyncStatus: listing.SyncStatus, Error: callErr.Error()}

	default:
		listing.FailSync(callErr.Error())
		s.persistOutcome(ctx, conn, listing, outcomeFailure, callErr.Error())
		return &SyncResult{ListingID: listing.ID, SyncStatus: listing.SyncStatus, Error: callErr.Error()}
	}
}

// pushUpdate applies the local snapshot to an existing remote listing,
// honoring the connection's sync toggles.
func (s *ListingSyncServiceImpl) pushUpdate(
	ctx context.Context,
	adapter marketplace.Adapter,
	listing *marketplace.Listing,
) error {
	update := marketplace.ListingUpdate{Title: &listing.Title}
	if err := adapter.UpdateListing(ctx, listing.MarketplaceListingID, update); err != nil {
		return err
	}
	if err := adapter.UpdateInventory(ctx, listing.MarketplaceListingID, listing.Inventory); err != nil {
		return err
	}
	return adapter.UpdatePrice(ctx, listing.MarketplaceListingID, listing.Price)
}

// syncOutcome classifies how a sync attempt ended for the connection circuit
type syncOutcome int

const (
	outcomeSuccess syncOutcome = iota
	outcomeFailure
	// outcomeRetryScheduled: the listing stays pending with a backoff; the
	// attempt counts neither for nor against the connection streak
	outcomeRetryScheduled
)

// persistOutcome saves the listing and updates the connection failure
// circuit: a success resets the streak, the third consecutive failure flips
// the connection to error and suspends automatic syncs.
func (s *ListingSyncServiceImpl) persistOutcome(
	ctx context.Context,
	conn *marketplace.Connection,
	listing *marketplace.Listing,
	outcome syncOutcome,
	errMsg string,
) {
	if err := s.listingRepo.Save(ctx, listing); err != nil {
		s.logger.Error("failed to persist listing sync outcome",
			zap.String("listing_id", listing.ID.String()), zap.Error(err))
	}

	switch outcome {
	case outcomeSuccess:
		conn.RecordListingSyncSuccess()
	case outcomeFailure:
		if tripped := conn.RecordListingSyncFailure(errMsg); tripped {
			s.logger.Warn("connection suspended after consecutive sync failures",
				zap.String("connection_id", conn.ID.String()),
				zap.Int("failures", conn.ConsecutiveFailures),
			)
		}
	case outcomeRetryScheduled:
	}
	if err := s.connRepo.Save(ctx, conn); err != nil {
		s.logger.Error("failed to persist connection sync state",
			zap.String("connection_id", conn.ID.String()), zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Bulk Sync
// ---------------------------------------------------------------------------

// bulkSyncConcurrency bounds the fan-out of a bulk sync
const bulkSyncConcurrency = 4

// SyncListings syncs a batch of listings. Listings fan out concurrently but
// each holds its own lease; one listing's failure never blocks or rolls back
// the others. Results are reported per listing id. Cancellation affects only
// not-yet-started items.
func (s *ListingSyncServiceImpl) SyncListings(ctx context.Context, shopID uuid.UUID, ids []uuid.UUID) []SyncResult {
	results := make([]SyncResult, len(ids))
	sem := make(chan struct{}, bulkSyncConcurrency)
	var wg sync.WaitGroup

	for i, id := range ids {
		if ctx.Err() != nil {
			results[i] = SyncResult{ListingID: id, SyncStatus: marketplace.SyncStatusNotSynced, Error: ctx.Err().Error()}
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := s.SyncListing(ctx, shopID, id)
			if err != nil {
				results[i] = SyncResult{ListingID: id, Error: err.Error()}
				return
			}
			results[i] = *result
		}(i, id)
	}

	wg.Wait()
	return results
}

// ---------------------------------------------------------------------------
// Re-sync Triggers
// ---------------------------------------------------------------------------

// RetryListing permits a manual retry of an errored listing
func (s *ListingSyncServiceImpl) RetryListing(ctx context.Context, shopID, id uuid.UUID) (*SyncResult, error) {
	listing, err := s.GetListing(ctx, shopID, id)
	if err != nil {
		return nil, err
	}
	conn, err := s.connRepo.FindByID(ctx, listing.ConnectionID)
	if err != nil {
		return nil, err
	}
	if !conn.IsActive || conn.Status != marketplace.ConnectionStatusActive {
		return nil, marketplace.ErrConnectionNotActive
	}
	return s.syncUnderLease(ctx, conn, listing, listing.ResetForRetry)
}

// SyncDueListings pushes a connection's due pending listings: source-change
// re-syncs and scheduled retries whose backoff has elapsed. These listings
// are already pending, so no state transition is applied; the per-listing
// lease still serializes against concurrent manual syncs. Called by the
// background sync scheduler.
func (s *ListingSyncServiceImpl) SyncDueListings(ctx context.Context, connectionID uuid.UUID, limit int) ([]SyncResult, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.Status == marketplace.ConnectionStatusError {
		return nil, marketplace.ErrConnectionSuspended
	}
	if !conn.IsActive || conn.Status != marketplace.ConnectionStatusActive {
		return nil, marketplace.ErrConnectionNotActive
	}

	due, err := s.listingRepo.FindSyncDue(ctx, connectionID, time.Now(), limit)
	if err != nil {
		return nil, err
	}

	noTransition := func() error { return nil }
	results := make([]SyncResult, 0, len(due))
	for i := range due {
		listing := &due[i]
		if ctx.Err() != nil {
			break
		}
		result, err := s.syncUnderLease(ctx, conn, listing, noTransition)
		if err != nil {
			results = append(results, SyncResult{ListingID: listing.ID, SyncStatus: listing.SyncStatus, Error: err.Error()})
		} else {
			results = append(results, *result)
		}
		// The failure circuit may have tripped mid-pass; stop pushing.
		if conn.Status == marketplace.ConnectionStatusError {
			break
		}
	}
	return results, nil
}

// MarkSourceChanged flags every synced listing of a source product for
// re-sync. Called by webhook ingestion when the source product changes.
func (s *ListingSyncServiceImpl) MarkSourceChanged(ctx context.Context, shopID uuid.UUID, sourceProductID string) error {
	listings, err := s.listingRepo.FindBySourceProduct(ctx, shopID, sourceProductID)
	if err != nil {
		return err
	}
	for i := range listings {
		listing := &listings[i]
		if listing.SyncStatus != marketplace.SyncStatusSynced {
			continue
		}
		listing.MarkSourceChanged()
		if err := s.listingRepo.Save(ctx, listing); err != nil {
			return err
		}
	}
	return nil
}

func syncLeaseKey(connectionID, listingID uuid.UUID) string {
	return fmt.Sprintf("sync:listing:%s:%s", connectionID, listingID)
}

func listingSnapshot(l *marketplace.Listing) *marketplace.ProductSnapshot {
	return &marketplace.ProductSnapshot{
		ProductID:         l.SourceProductID,
		VariantID:         l.SourceVariantID,
		Title:             l.Title,
		SKU:               l.MarketplaceSKU,
		Price:             l.Price,
		CompareAtPrice:    l.CompareAtPrice,
		InventoryQuantity: l.Inventory,
	}
}
