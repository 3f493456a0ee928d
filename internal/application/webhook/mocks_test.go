package webhook

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

// MockProductRepository is a mock implementation of catalog.ProductRepository
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

// MockOrderRepository is a mock implementation of order.Repository
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

// MockListingRepository is a mock implementation of marketplace.ListingRepository
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

// MockConnectionRepository is a mock implementation of marketplace.ConnectionRepository
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

// MockRegistry is a mock implementation of marketplace.Registry
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

// MockSyncLease is a mock implementation of marketplace.SyncLease
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
