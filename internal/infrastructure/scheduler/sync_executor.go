package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appmarketplace "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/marketplace"
)

// ---------------------------------------------------------------------------
// Service Interfaces
// ---------------------------------------------------------------------------

// ListingSyncer pushes a connection's due listings to its marketplace
type ListingSyncer interface {
	SyncDueListings(ctx context.Context, connectionID uuid.UUID, limit int) ([]appmarketplace.SyncResult, error)
}

// OrderPuller fetches marketplace orders for a connection into the unified
// order store
type OrderPuller interface {
	PullOrders(ctx context.Context, shopID, connectionID uuid.UUID, createdAfter, createdBefore *time.Time) (*appmarketplace.PullResult, error)
}

// ---------------------------------------------------------------------------
// SyncExecutorImpl
// ---------------------------------------------------------------------------

// SyncExecutorImpl runs one sync pass for a connection: due listings go out,
// new orders come in. Either half failing leaves the other half's results
// intact; the job status reflects the combined outcome.
type SyncExecutorImpl struct {
	connRepo     marketplace.ConnectionRepository
	listingSync  ListingSyncer
	orderPuller  OrderPuller
	listingBatch int
	logger       *zap.Logger

	// Optional callback invoked after each completed pass
	onSyncCompleted func(ctx context.Context, job *SyncJob) error
}

// NewSyncExecutor creates a new connection sync executor
func NewSyncExecutor(
	connRepo marketplace.ConnectionRepository,
	listingSync ListingSyncer,
	orderPuller OrderPuller,
	listingBatch int,
	logger *zap.Logger,
) *SyncExecutorImpl {
	return &SyncExecutorImpl{
		connRepo:     connRepo,
		listingSync:  listingSync,
		orderPuller:  orderPuller,
		listingBatch: listingBatch,
		logger:       logger,
	}
}

// SetOnSyncCompletedCallback sets the callback for when a pass completes
func (e *SyncExecutorImpl) SetOnSyncCompletedCallback(cb func(ctx context.Context, job *SyncJob) error) {
	e.onSyncCompleted = cb
}

// Execute runs the sync pass for the job's connection
func (e *SyncExecutorImpl) Execute(ctx context.Context, job *SyncJob) error {
	conn, err := e.connRepo.FindByID(ctx, job.ConnectionID)
	if err != nil {
		if errors.Is(err, marketplace.ErrConnectionNotFound) {
			// Connection was disconnected after the job was queued
			job.Status = SyncJobStatusCancelled
			return nil
		}
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	// The connection may have been suspended or switched off after queueing
	if !conn.CanAutoSync() {
		e.logger.Debug("Skipping sync for connection that can no longer auto-sync",
			zap.String("connection_id", conn.ID.String()),
			zap.String("status", string(conn.Status)),
		)
		job.Status = SyncJobStatusCancelled
		return nil
	}

	e.logger.Info("Starting connection sync pass",
		zap.String("job_id", job.ID.String()),
		zap.String("connection_id", conn.ID.String()),
		zap.String("marketplace", string(conn.Marketplace)),
		zap.Time("start_time", job.StartTime),
		zap.Time("end_time", job.EndTime),
	)

	listingErr := e.syncListings(ctx, job)
	orderErr := e.pullOrders(ctx, job, conn)

	if listingErr != nil && orderErr != nil {
		return fmt.Errorf("%w: listings: %v; orders: %v", ErrSyncFailed, listingErr, orderErr)
	}

	job.Complete()

	if e.onSyncCompleted != nil {
		if err := e.onSyncCompleted(ctx, job); err != nil {
			e.logger.Warn("Sync completed callback failed",
				zap.String("job_id", job.ID.String()),
				zap.Error(err),
			)
		}
	}

	return nil
}

// syncListings pushes the connection's due listings and records the counts
func (e *SyncExecutorImpl) syncListings(ctx context.Context, job *SyncJob) error {
	results, err := e.listingSync.SyncDueListings(ctx, job.ConnectionID, e.listingBatch)
	if err != nil {
		// A suspended connection is an expected skip, not a pass failure
		if errors.Is(err, marketplace.ErrConnectionSuspended) || errors.Is(err, marketplace.ErrConnectionNotActive) {
			e.logger.Debug("Listing push skipped",
				zap.String("connection_id", job.ConnectionID.String()),
				zap.Error(err),
			)
			return nil
		}
		e.logger.Error("Listing push failed for connection",
			zap.String("job_id", job.ID.String()),
			zap.String("connection_id", job.ConnectionID.String()),
			zap.Error(err),
		)
		return err
	}

	for _, r := range results {
		if r.Success {
			job.ListingsSynced++
		} else {
			job.ListingsFailed++
		}
	}
	return nil
}

// pullOrders pulls the window's marketplace orders and records the counts
func (e *SyncExecutorImpl) pullOrders(ctx context.Context, job *SyncJob, conn *marketplace.Connection) error {
	if !conn.Settings.SyncOrders {
		return nil
	}

	result, err := e.orderPuller.PullOrders(ctx, job.ShopID, job.ConnectionID, &job.StartTime, &job.EndTime)
	if err != nil {
		e.logger.Error("Order pull failed for connection",
			zap.String("job_id", job.ID.String()),
			zap.String("connection_id", job.ConnectionID.String()),
			zap.Error(err),
		)
		return err
	}

	job.OrdersFetched = result.Fetched
	job.OrdersCreated = result.Created
	job.OrdersUpdated = result.Updated
	job.OrdersFailed = result.Failed
	return nil
}

// Ensure SyncExecutorImpl implements SyncExecutor
var _ SyncExecutor = (*SyncExecutorImpl)(nil)
