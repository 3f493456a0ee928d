package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

type orderSyncFixture struct {
	connRepo  *MockConnectionRepository
	orderRepo *MockOrderRepository
	registry  *MockRegistry
	adapter   *MockAdapter
	lease     *MockSyncLease
	archiver  *MockArchiver
	svc       *OrderSyncServiceImpl
}

func newOrderSyncFixture() *orderSyncFixture {
	f := &orderSyncFixture{
		connRepo:  new(MockConnectionRepository),
		orderRepo: new(MockOrderRepository),
		registry:  new(MockRegistry),
		adapter:   new(MockAdapter),
		lease:     new(MockSyncLease),
		archiver:  new(MockArchiver),
	}
	f.svc = NewOrderSyncService(f.connRepo, f.orderRepo, f.registry, f.lease, f.archiver, zap.NewNop())
	return f
}

func remoteOrder(shopID uuid.UUID, marketplaceOrderID string, updatedAt time.Time) order.Order {
	o, _ := order.New(shopID, order.SourceAmazon)
	o.MarketplaceOrderID = marketplaceOrderID
	o.Status = order.StatusProcessing
	o.Total = decimal.NewFromFloat(42.00)
	o.UpdatedAt = updatedAt
	return *o
}

func TestPullOrdersCreatesAndPaginates(t *testing.T) {
	f := newOrderSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)

	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)

	now := time.Now()
	f.adapter.On("ListOrders", mock.Anything, mock.MatchedBy(func(opts marketplace.OrderListOptions) bool {
		return opts.Cursor == ""
	})).Return(&marketplace.OrderPage{
		Orders:   []order.Order{remoteOrder(shopID, "AMZ-100", now)},
		PageInfo: marketplace.PageInfo{HasNextPage: true, NextCursor: "page-2"},
	}, nil)
	f.adapter.On("ListOrders", mock.Anything, mock.MatchedBy(func(opts marketplace.OrderListOptions) bool {
		return opts.Cursor == "page-2"
	})).Return(&marketplace.OrderPage{
		Orders: []order.Order{remoteOrder(shopID, "AMZ-101", now)},
	}, nil)

	f.orderRepo.On("FindByMarketplaceOrder", mock.Anything, conn.ID, mock.Anything).
		Return(nil, order.ErrOrderNotFound)
	f.orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
	f.archiver.On("Archive", mock.Anything, shopID, mock.Anything, mock.Anything).Return("key", nil)
	f.connRepo.On("Save", mock.Anything, conn).Return(nil)

	result, err := f.svc.PullOrders(context.Background(), shopID, conn.ID, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Fetched)
	assert.Equal(t, 2, result.Created)
	assert.Zero(t, result.Failed)
	f.adapter.AssertNumberOfCalls(t, "ListOrders", 2)
}

func TestPullOrdersDiscardsStaleUpdates(t *testing.T) {
	f := newOrderSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)

	latest := time.Now()
	existing, _ := order.New(shopID, order.SourceAmazon)
	existing.MarketplaceOrderID = "AMZ-100"
	existing.ConnectionID = &conn.ID
	existing.Status = order.StatusShipped
	existing.LastEventAt = &latest

	// the incoming snapshot predates the applied fulfillment event
	stale := remoteOrder(shopID, "AMZ-100", latest.Add(-time.Hour))

	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)
	f.adapter.On("ListOrders", mock.Anything, mock.Anything).
		Return(&marketplace.OrderPage{Orders: []order.Order{stale}}, nil)
	f.orderRepo.On("FindByMarketplaceOrder", mock.Anything, conn.ID, "AMZ-100").Return(existing, nil)
	f.connRepo.On("Save", mock.Anything, conn).Return(nil)

	result, err := f.svc.PullOrders(context.Background(), shopID, conn.ID, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Discarded)
	assert.Zero(t, result.Updated)
	// shipped status survives the out-of-order processing snapshot
	assert.Equal(t, order.StatusShipped, existing.Status)
	f.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestPullOrdersAppliesNewerUpdates(t *testing.T) {
	f := newOrderSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)

	earlier := time.Now().Add(-time.Hour)
	existing, _ := order.New(shopID, order.SourceAmazon)
	existing.MarketplaceOrderID = "AMZ-100"
	existing.ConnectionID = &conn.ID
	existing.LastEventAt = &earlier

	newer := remoteOrder(shopID, "AMZ-100", time.Now())
	newer.Status = order.StatusShipped

	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)
	f.adapter.On("ListOrders", mock.Anything, mock.Anything).
		Return(&marketplace.OrderPage{Orders: []order.Order{newer}}, nil)
	f.orderRepo.On("FindByMarketplaceOrder", mock.Anything, conn.ID, "AMZ-100").Return(existing, nil)
	f.orderRepo.On("Save", mock.Anything, existing).Return(nil)
	f.archiver.On("Archive", mock.Anything, shopID, "AMZ-100", mock.Anything).Return("key", nil)
	f.connRepo.On("Save", mock.Anything, conn).Return(nil)

	result, err := f.svc.PullOrders(context.Background(), shopID, conn.ID, nil, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, order.StatusShipped, existing.Status)
}

func TestPullOrdersRespectsSyncOrdersToggle(t *testing.T) {
	f := newOrderSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	conn.Settings.SyncOrders = false

	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)

	_, err := f.svc.PullOrders(context.Background(), shopID, conn.ID, nil, nil)
	assert.ErrorIs(t, err, marketplace.ErrOrderSyncDisabled)
}

func TestShipOrderPushesBeforeLocalUpdate(t *testing.T) {
	f := newOrderSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)

	o, _ := order.New(shopID, order.SourceAmazon)
	o.MarketplaceOrderID = "AMZ-100"
	o.ConnectionID = &conn.ID

	shipment := marketplace.Shipment{TrackingNumber: "1Z999", Carrier: "UPS"}

	f.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)
	f.adapter.On("ShipOrder", mock.Anything, "AMZ-100", shipment).Return(nil)
	f.orderRepo.On("Save", mock.Anything, o).Return(nil)

	shipped, err := f.svc.ShipOrder(context.Background(), shopID, o.ID, shipment)

	require.NoError(t, err)
	assert.Equal(t, order.StatusShipped, shipped.Status)
	require.NotNil(t, shipped.Tracking)
	assert.Equal(t, "1Z999", shipped.Tracking.TrackingNumber)
	assert.Equal(t, order.SyncStatusSynced, shipped.SyncStatus)
}

func TestShipOrderRemoteFailureKeepsLocalState(t *testing.T) {
	f := newOrderSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)

	o, _ := order.New(shopID, order.SourceAmazon)
	o.MarketplaceOrderID = "AMZ-100"
	o.ConnectionID = &conn.ID

	remoteErr := marketplace.NewAdapterError(marketplace.MarketplaceAmazon, 400, "already shipped")

	f.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)
	f.adapter.On("ShipOrder", mock.Anything, "AMZ-100", mock.Anything).Return(remoteErr)
	f.orderRepo.On("Save", mock.Anything, o).Return(nil)

	_, err := f.svc.ShipOrder(context.Background(), shopID, o.ID, marketplace.Shipment{TrackingNumber: "1Z999"})

	assert.Error(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.SyncStatusError, o.SyncStatus)
	assert.Contains(t, o.ErrorMessage, "already shipped")
}

func TestCancelOrderWithoutConnectionRejected(t *testing.T) {
	f := newOrderSyncFixture()
	shopID := uuid.New()

	o, _ := order.New(shopID, order.SourceShopify)

	f.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

	_, err := f.svc.CancelOrder(context.Background(), shopID, o.ID, "customer request")
	assert.ErrorIs(t, err, marketplace.ErrOrderNotPushable)
}
