package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/channel"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

// MockConnectionRepository implements marketplace.ConnectionRepository
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) Save(ctx context.Context, conn *marketplace.Connection) error {
	args := m.Called(ctx, conn)
	return args.Error(0)
}

func (m *MockConnectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Connection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindByShopAndMarketplace(ctx context.Context, shopID uuid.UUID, mp marketplace.Marketplace, accountID string) (*marketplace.Connection, error) {
	args := m.Called(ctx, shopID, mp, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]marketplace.Connection, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.Connection), args.Error(1)
}

func (m *MockConnectionRepository) FindAutoSyncEnabled(ctx context.Context) ([]marketplace.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.Connection), args.Error(1)
}

func (m *MockConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ marketplace.ConnectionRepository = (*MockConnectionRepository)(nil)

// MockListingRepository implements marketplace.ListingRepository
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Save(ctx context.Context, l *marketplace.Listing) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByConnectionAndProduct(ctx context.Context, connectionID uuid.UUID, sourceProductID string) (*marketplace.Listing, error) {
	args := m.Called(ctx, connectionID, sourceProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) FindByMarketplaceListing(ctx context.Context, connectionID uuid.UUID, marketplaceListingID string) (*marketplace.Listing, error) {
	args := m.Called(ctx, connectionID, marketplaceListingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) FindAll(ctx context.Context, shopID uuid.UUID, filter marketplace.ListingFilter) ([]marketplace.Listing, error) {
	args := m.Called(ctx, shopID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) Count(ctx context.Context, shopID uuid.UUID, filter marketplace.ListingFilter) (int64, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockListingRepository) FindSyncDue(ctx context.Context, connectionID uuid.UUID, now time.Time, limit int) ([]marketplace.Listing, error) {
	args := m.Called(ctx, connectionID, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) FindBySourceProduct(ctx context.Context, shopID uuid.UUID, sourceProductID string) ([]marketplace.Listing, error) {
	args := m.Called(ctx, shopID, sourceProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]marketplace.Listing), args.Error(1)
}

func (m *MockListingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) DeleteByConnection(ctx context.Context, connectionID uuid.UUID) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

var _ marketplace.ListingRepository = (*MockListingRepository)(nil)

// MockOrderRepository implements order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByMarketplaceOrder(ctx context.Context, connectionID uuid.UUID, marketplaceOrderID string) (*order.Order, error) {
	args := m.Called(ctx, connectionID, marketplaceOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindBySourceOrder(ctx context.Context, shopID uuid.UUID, sourceOrderID string) (*order.Order, error) {
	args := m.Called(ctx, shopID, sourceOrderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindAll(ctx context.Context, shopID uuid.UUID, filter order.Filter) ([]order.Order, error) {
	args := m.Called(ctx, shopID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) Count(ctx context.Context, shopID uuid.UUID, filter order.Filter) (int64, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOrderRepository) DetachConnection(ctx context.Context, connectionID uuid.UUID) error {
	args := m.Called(ctx, connectionID)
	return args.Error(0)
}

var _ order.Repository = (*MockOrderRepository)(nil)

// MockProductRepository implements catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) Save(ctx context.Context, p *catalog.SourceProduct) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.SourceProduct, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.SourceProduct), args.Error(1)
}

func (m *MockProductRepository) FindBySourceProductID(ctx context.Context, shopID uuid.UUID, sourceProductID string) (*catalog.SourceProduct, error) {
	args := m.Called(ctx, shopID, sourceProductID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.SourceProduct), args.Error(1)
}

func (m *MockProductRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID, filter catalog.ProductFilter) ([]catalog.SourceProduct, error) {
	args := m.Called(ctx, shopID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.SourceProduct), args.Error(1)
}

func (m *MockProductRepository) CountForShop(ctx context.Context, shopID uuid.UUID, filter catalog.ProductFilter) (int64, error) {
	args := m.Called(ctx, shopID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ catalog.ProductRepository = (*MockProductRepository)(nil)

// MockCatalogRepository implements catalog.Repository
type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) Save(ctx context.Context, c *catalog.Catalog) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Catalog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Catalog), args.Error(1)
}

func (m *MockCatalogRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Catalog, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*catalog.Catalog), args.Error(1)
}

func (m *MockCatalogRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]catalog.Catalog, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Catalog), args.Error(1)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ catalog.Repository = (*MockCatalogRepository)(nil)

// MockChannelRepository implements channel.Repository
type MockChannelRepository struct {
	mock.Mock
}

func (m *MockChannelRepository) Save(ctx context.Context, ch *channel.SalesChannel) error {
	args := m.Called(ctx, ch)
	return args.Error(0)
}

func (m *MockChannelRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.SalesChannel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.SalesChannel), args.Error(1)
}

func (m *MockChannelRepository) FindAllForShop(ctx context.Context, shopID uuid.UUID) ([]channel.SalesChannel, error) {
	args := m.Called(ctx, shopID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.SalesChannel), args.Error(1)
}

func (m *MockChannelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ channel.Repository = (*MockChannelRepository)(nil)

// MockCatalogLinkRepository implements channel.CatalogLinkRepository
type MockCatalogLinkRepository struct {
	mock.Mock
}

func (m *MockCatalogLinkRepository) Save(ctx context.Context, link *channel.CatalogLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockCatalogLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.CatalogLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.CatalogLink), args.Error(1)
}

func (m *MockCatalogLinkRepository) FindByChannelAndCatalog(ctx context.Context, channelID, catalogID uuid.UUID) (*channel.CatalogLink, error) {
	args := m.Called(ctx, channelID, catalogID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.CatalogLink), args.Error(1)
}

func (m *MockCatalogLinkRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]channel.CatalogLink, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.CatalogLink), args.Error(1)
}

func (m *MockCatalogLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ channel.CatalogLinkRepository = (*MockCatalogLinkRepository)(nil)

// MockTenantLinkRepository implements channel.TenantLinkRepository
type MockTenantLinkRepository struct {
	mock.Mock
}

func (m *MockTenantLinkRepository) Save(ctx context.Context, link *channel.TenantLink) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockTenantLinkRepository) FindByID(ctx context.Context, id uuid.UUID) (*channel.TenantLink, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.TenantLink), args.Error(1)
}

func (m *MockTenantLinkRepository) FindByShopAndChannel(ctx context.Context, shopID, channelID uuid.UUID) (*channel.TenantLink, error) {
	args := m.Called(ctx, shopID, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*channel.TenantLink), args.Error(1)
}

func (m *MockTenantLinkRepository) FindAllForChannel(ctx context.Context, channelID uuid.UUID) ([]channel.TenantLink, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]channel.TenantLink), args.Error(1)
}

func (m *MockTenantLinkRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ channel.TenantLinkRepository = (*MockTenantLinkRepository)(nil)

// MockSourceClient implements catalog.SourceClient
type MockSourceClient struct {
	mock.Mock
}

func (m *MockSourceClient) FetchProducts(ctx context.Context, cursor string, limit int) ([]catalog.SourceProduct, string, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]catalog.SourceProduct), args.String(1), args.Error(2)
}

var _ catalog.SourceClient = (*MockSourceClient)(nil)

// MockRegistry implements marketplace.Registry
type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) ForConnection(conn *marketplace.Connection) (marketplace.Adapter, error) {
	args := m.Called(conn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(marketplace.Adapter), args.Error(1)
}

func (m *MockRegistry) Supported() []marketplace.Marketplace {
	args := m.Called()
	return args.Get(0).([]marketplace.Marketplace)
}

var _ marketplace.Registry = (*MockRegistry)(nil)

// MockAdapter implements marketplace.Adapter
type MockAdapter struct {
	mock.Mock
}

func (m *MockAdapter) Marketplace() marketplace.Marketplace {
	args := m.Called()
	return args.Get(0).(marketplace.Marketplace)
}

func (m *MockAdapter) TestConnection(ctx context.Context) (*marketplace.ConnectionTestResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.ConnectionTestResult), args.Error(1)
}

func (m *MockAdapter) ListListings(ctx context.Context, opts marketplace.PageOptions) (*marketplace.ListingPage, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.ListingPage), args.Error(1)
}

func (m *MockAdapter) CreateListing(ctx context.Context, product *marketplace.ProductSnapshot) (*marketplace.RemoteListing, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.RemoteListing), args.Error(1)
}

func (m *MockAdapter) UpdateListing(ctx context.Context, listingID string, update marketplace.ListingUpdate) error {
	args := m.Called(ctx, listingID, update)
	return args.Error(0)
}

func (m *MockAdapter) DeleteListing(ctx context.Context, listingID string) error {
	args := m.Called(ctx, listingID)
	return args.Error(0)
}

func (m *MockAdapter) UpdateInventory(ctx context.Context, listingID string, quantity int) error {
	args := m.Called(ctx, listingID, quantity)
	return args.Error(0)
}

func (m *MockAdapter) UpdatePrice(ctx context.Context, listingID string, price decimal.Decimal) error {
	args := m.Called(ctx, listingID, price)
	return args.Error(0)
}

func (m *MockAdapter) ListOrders(ctx context.Context, opts marketplace.OrderListOptions) (*marketplace.OrderPage, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*marketplace.OrderPage), args.Error(1)
}

func (m *MockAdapter) AcknowledgeOrder(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *MockAdapter) ShipOrder(ctx context.Context, orderID string, shipment marketplace.Shipment) error {
	args := m.Called(ctx, orderID, shipment)
	return args.Error(0)
}

func (m *MockAdapter) CancelOrder(ctx context.Context, orderID string, reason string) error {
	args := m.Called(ctx, orderID, reason)
	return args.Error(0)
}

func (m *MockAdapter) RefundOrder(ctx context.Context, orderID string, refund marketplace.Refund) error {
	args := m.Called(ctx, orderID, refund)
	return args.Error(0)
}

func (m *MockAdapter) TransformProduct(product *marketplace.ProductSnapshot) (map[string]any, error) {
	args := m.Called(product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockAdapter) TransformOrder(raw map[string]any) (*order.Order, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

var _ marketplace.Adapter = (*MockAdapter)(nil)

// MockSyncLease implements marketplace.SyncLease
type MockSyncLease struct {
	mock.Mock
}

func (m *MockSyncLease) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

func (m *MockSyncLease) Release(ctx context.Context, key, token string) error {
	args := m.Called(ctx, key, token)
	return args.Error(0)
}

var _ marketplace.SyncLease = (*MockSyncLease)(nil)
