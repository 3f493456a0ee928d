package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

// pullPageSize is the page size requested from adapters during an order pull
const pullPageSize = 50

// OrderSyncServiceImpl pulls marketplace orders into the local store and
// pushes fulfillment, cancellation and refunds back out.
type OrderSyncServiceImpl struct {
	connRepo  marketplace.ConnectionRepository
	orderRepo order.Repository
	registry  marketplace.Registry
	lease     marketplace.SyncLease
	archiver  order.PayloadArchiver
	logger    *zap.Logger
}

// NewOrderSyncService creates a new OrderSyncServiceImpl. archiver may be
// nil when payload archiving is disabled.
func NewOrderSyncService(
	connRepo marketplace.ConnectionRepository,
	orderRepo order.Repository,
	registry marketplace.Registry,
	lease marketplace.SyncLease,
	archiver order.PayloadArchiver,
	logger *zap.Logger,
) *OrderSyncServiceImpl {
	return &OrderSyncServiceImpl{
		connRepo:  connRepo,
		orderRepo: orderRepo,
		registry:  registry,
		lease:     lease,
		archiver:  archiver,
		logger:    logger,
	}
}

// ---------------------------------------------------------------------------
// Order Pull
// ---------------------------------------------------------------------------

// PullResult summarizes one order pull run for a connection
type PullResult struct {
	ConnectionID uuid.UUID `json:"connection_id"`
	Fetched      int       `json:"fetched"`
	Created      int       `json:"created"`
	Updated      int       `json:"updated"`
	Discarded    int       `json:"discarded"`
	Failed       int       `json:"failed"`
}

// PullOrders fetches marketplace orders created in the given window and
// upserts them by (connection, marketplace order id), following the
// adapter's cursor until the last page. Updates to known orders go through
// the event-ordering guard; stale snapshots are discarded, not applied.
func (s *OrderSyncServiceImpl) PullOrders(
	ctx context.Context,
	shopID, connectionID uuid.UUID,
	createdAfter, createdBefore *time.Time,
) (*PullResult, error) {
	conn, err := s.connRepo.FindByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if conn.ShopID != shopID {
		return nil, marketplace.ErrConnectionNotFound
	}
	if !conn.IsActive || conn.Status != marketplace.ConnectionStatusActive {
		return nil, marketplace.ErrConnectionNotActive
	}
	if !conn.Settings.SyncOrders {
		return nil, marketplace.ErrOrderSyncDisabled
	}

	adapter, err := s.registry.ForConnection(conn)
	if err != nil {
		return nil, err
	}

	key := orderPullLeaseKey(connectionID)
	token, err := s.lease.Acquire(ctx, key, leaseTTL)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, marketplace.ErrSyncAlreadyPending
	}
	defer func() {
		if err := s.lease.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Warn("order pull lease release failed", zap.String("key", key), zap.Error(err))
		}
	}()

	result := &PullResult{ConnectionID: connectionID}
	cursor := ""
	for {
		callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
		page, err := adapter.ListOrders(callCtx, marketplace.OrderListOptions{
			CreatedAfter:  createdAfter,
			CreatedBefore: createdBefore,
			Cursor:        cursor,
			Limit:         pullPageSize,
		})
		cancel()
		if err != nil {
			return result, err
		}

		result.Fetched += len(page.Orders)
		for i := range page.Orders {
			if err := s.upsertOrder(ctx, conn, &page.Orders[i], result); err != nil {
				result.Failed++
				s.logger.Error("order upsert failed",
					zap.String("connection_id", connectionID.String()),
					zap.String("marketplace_order_id", page.Orders[i].MarketplaceOrderID),
					zap.Error(err),
				)
			}
		}

		if !page.PageInfo.HasNextPage {
			break
		}
		cursor = page.PageInfo.NextCursor
		// cancellation takes effect between adapter calls, never mid-call
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
	}

	now := time.Now()
	conn.LastSyncAt = &now
	if err := s.connRepo.Save(ctx, conn); err != nil {
		s.logger.Error("failed to persist connection pull state",
			zap.String("connection_id", connectionID.String()), zap.Error(err))
	}
	return result, nil
}

// upsertOrder inserts a new marketplace order or applies it as an update
// event to the existing one.
func (s *OrderSyncServiceImpl) upsertOrder(
	ctx context.Context,
	conn *marketplace.Connection,
	incoming *order.Order,
	result *PullResult,
) error {
	eventAt := incoming.UpdatedAt
	if eventAt.IsZero() {
		eventAt = time.Now()
	}

	existing, err := s.orderRepo.FindByMarketplaceOrder(ctx, conn.ID, incoming.MarketplaceOrderID)
	if err != nil && !errors.Is(err, order.ErrOrderNotFound) {
		return err
	}

	if existing == nil {
		incoming.ShopID = conn.ShopID
		incoming.ConnectionID = &conn.ID
		incoming.LastEventAt = &eventAt
		incoming.RecordSyncSuccess()
		if err := s.orderRepo.Save(ctx, incoming); err != nil {
			return err
		}
		result.Created++
		s.archivePayload(ctx, conn.ShopID, incoming)
		return nil
	}

	err = existing.ApplyEvent(eventAt, func(o *order.Order) {
		o.Status = incoming.Status
		o.FinancialStatus = incoming.FinancialStatus
		o.FulfillmentStatus = incoming.FulfillmentStatus
		o.Subtotal = incoming.Subtotal
		o.TotalTax = incoming.TotalTax
		o.TotalShipping = incoming.TotalShipping
		o.TotalDiscount = incoming.TotalDiscount
		o.Total = incoming.Total
		o.LineItems = incoming.LineItems
		if incoming.Tracking != nil {
			o.Tracking = incoming.Tracking
		}
	})
	if errors.Is(err, order.ErrStaleOrderEvent) {
		result.Discarded++
		return nil
	}
	if err != nil {
		return err
	}

	existing.RecordSyncSuccess()
	if err := s.orderRepo.Save(ctx, existing); err != nil {
		return err
	}
	result.Updated++
	s.archivePayload(ctx, conn.ShopID, existing)
	return nil
}

// archivePayload stores the normalized order payload for audit. Failures
// are logged, never propagated into the sync outcome.
func (s *OrderSyncServiceImpl) archivePayload(ctx context.Context, shopID uuid.UUID, o *order.Order) {
	if s.archiver == nil {
		return
	}
	payload, err := json.Marshal(o)
	if err != nil {
		s.logger.Warn("order payload marshal failed", zap.String("order_id", o.ID.String()), zap.Error(err))
		return
	}
	if _, err := s.archiver.Archive(ctx, shopID, o.MarketplaceOrderID, payload); err != nil {
		s.logger.Warn("order payload archive failed", zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// GetOrder retrieves an order scoped to a shop
func (s *OrderSyncServiceImpl) GetOrder(ctx context.Context, shopID, id uuid.UUID) (*order.Order, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.ShopID != shopID {
		return nil, order.ErrOrderNotFound
	}
	return o, nil
}

// ListOrders lists orders for a shop with filtering and pagination
func (s *OrderSyncServiceImpl) ListOrders(
	ctx context.Context,
	shopID uuid.UUID,
	filter order.Filter,
) ([]order.Order, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	orders, err := s.orderRepo.FindAll(ctx, shopID, filter)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.orderRepo.Count(ctx, shopID, filter)
	if err != nil {
		return nil, 0, err
	}
	return orders, count, nil
}

// ---------------------------------------------------------------------------
// Fulfillment Push
// ---------------------------------------------------------------------------

// ShipOrder confirms shipment on the marketplace and records the tracking
// info locally. The local order is updated only after the remote push
// succeeds.
func (s *OrderSyncServiceImpl) ShipOrder(
	ctx context.Context,
	shopID, id uuid.UUID,
	shipment marketplace.Shipment,
) (*order.Order, error) {
	o, adapter, err := s.orderForPush(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()
	if err := adapter.ShipOrder(callCtx, o.MarketplaceOrderID, shipment); err != nil {
		o.RecordSyncFailure(err.Error())
		s.saveBestEffort(ctx, o)
		return nil, err
	}

	o.MarkShipped(order.TrackingInfo{
		TrackingNumber: shipment.TrackingNumber,
		Carrier:        shipment.Carrier,
	})
	o.RecordSyncSuccess()
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// CancelOrder cancels the order on the marketplace, then locally
func (s *OrderSyncServiceImpl) CancelOrder(ctx context.Context, shopID, id uuid.UUID, reason string) (*order.Order, error) {
	o, adapter, err := s.orderForPush(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()
	if err := adapter.CancelOrder(callCtx, o.MarketplaceOrderID, reason); err != nil {
		o.RecordSyncFailure(err.Error())
		s.saveBestEffort(ctx, o)
		return nil, err
	}

	o.MarkCancelled()
	o.RecordSyncSuccess()
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// RefundOrder issues a refund on the marketplace, then records it locally
func (s *OrderSyncServiceImpl) RefundOrder(
	ctx context.Context,
	shopID, id uuid.UUID,
	refund marketplace.Refund,
) (*order.Order, error) {
	o, adapter, err := s.orderForPush(ctx, shopID, id)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, adapterCallTimeout)
	defer cancel()
	if err := adapter.RefundOrder(callCtx, o.MarketplaceOrderID, refund); err != nil {
		o.RecordSyncFailure(err.Error())
		s.saveBestEffort(ctx, o)
		return nil, err
	}

	o.MarkRefunded()
	o.RecordSyncSuccess()
	if err := s.orderRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// orderForPush loads an order and resolves the adapter of its connection
func (s *OrderSyncServiceImpl) orderForPush(
	ctx context.Context,
	shopID, id uuid.UUID,
) (*order.Order, marketplace.Adapter, error) {
	o, err := s.GetOrder(ctx, shopID, id)
	if err != nil {
		return nil, nil, err
	}
	if o.ConnectionID == nil || o.MarketplaceOrderID == "" {
		return nil, nil, marketplace.ErrOrderNotPushable
	}

	conn, err := s.connRepo.FindByID(ctx, *o.ConnectionID)
	if err != nil {
		return nil, nil, err
	}
	adapter, err := s.registry.ForConnection(conn)
	if err != nil {
		return nil, nil, err
	}
	return o, adapter, nil
}

func (s *OrderSyncServiceImpl) saveBestEffort(ctx context.Context, o *order.Order) {
	if err := s.orderRepo.Save(ctx, o); err != nil {
		s.logger.Error("failed to persist order sync state",
			zap.String("order_id", o.ID.String()), zap.Error(err))
	}
}

func orderPullLeaseKey(connectionID uuid.UUID) string {
	return "sync:orders:" + connectionID.String()
}
