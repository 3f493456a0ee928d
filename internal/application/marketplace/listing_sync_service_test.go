package marketplace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/marketplace"
)

type listingSyncFixture struct {
	connRepo    *MockConnectionRepository
	listingRepo *MockListingRepository
	productRepo *MockProductRepository
	registry    *MockRegistry
	adapter     *MockAdapter
	lease       *MockSyncLease
	svc         *ListingSyncServiceImpl
}

func newListingSyncFixture() *listingSyncFixture {
	f := &listingSyncFixture{
		connRepo:    new(MockConnectionRepository),
		listingRepo: new(MockListingRepository),
		productRepo: new(MockProductRepository),
		registry:    new(MockRegistry),
		adapter:     new(MockAdapter),
		lease:       new(MockSyncLease),
	}
	f.svc = NewListingSyncService(f.connRepo, f.listingRepo, f.productRepo, f.registry, f.lease, zap.NewNop())
	return f
}

func draftListing(shopID uuid.UUID, conn *marketplace.Connection) *marketplace.Listing {
	l, _ := marketplace.NewListing(shopID, conn.ID, "prod-1")
	l.Title = "Widget"
	l.Price = decimal.NewFromFloat(19.99)
	l.Inventory = 5
	return l
}

func TestListProductAppliesPricingStrategy(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)

	product := &catalog.SourceProduct{
		SourceProductID: "prod-1",
		Title:           "Widget",
		Price:           decimal.NewFromFloat(20.00),
		Inventory:       7,
	}

	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.listingRepo.On("FindByConnectionAndProduct", mock.Anything, conn.ID, "prod-1").
		Return(nil, marketplace.ErrListingNotFound)
	f.productRepo.On("FindBySourceProductID", mock.Anything, shopID, "prod-1").Return(product, nil)
	f.listingRepo.On("Save", mock.Anything, mock.AnythingOfType("*marketplace.Listing")).Return(nil)

	strategy := &catalog.PricingStrategy{
		MarkupType:   catalog.MarkupTypePercentage,
		MarkupValue:  decimal.NewFromInt(10),
		RoundingRule: catalog.RoundingRuleTo99,
	}

	listing, err := f.svc.ListProduct(context.Background(), shopID, conn.ID, "prod-1", strategy)

	require.NoError(t, err)
	assert.True(t, listing.Price.Equal(decimal.NewFromFloat(21.99)), "got %s", listing.Price)
	assert.Equal(t, marketplace.SyncStatusNotSynced, listing.SyncStatus)
	assert.Equal(t, 7, listing.Inventory)
}

func TestListProductRejectsDuplicate(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	existing := draftListing(shopID, conn)

	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.listingRepo.On("FindByConnectionAndProduct", mock.Anything, conn.ID, "prod-1").Return(existing, nil)

	_, err := f.svc.ListProduct(context.Background(), shopID, conn.ID, "prod-1", nil)
	assert.ErrorIs(t, err, marketplace.ErrListingExists)
}

func TestSyncListingCreatesRemoteListing(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	listing := draftListing(shopID, conn)

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)
	f.adapter.On("CreateListing", mock.Anything, mock.AnythingOfType("*marketplace.ProductSnapshot")).
		Return(&marketplace.RemoteListing{ListingID: "AMZ-1", SKU: "SKU-1"}, nil)
	f.listingRepo.On("Save", mock.Anything, listing).Return(nil)
	f.connRepo.On("Save", mock.Anything, conn).Return(nil)

	result, err := f.svc.SyncListing(context.Background(), shopID, listing.ID)

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, marketplace.SyncStatusSynced, listing.SyncStatus)
	assert.Equal(t, "AMZ-1", listing.MarketplaceListingID)
	assert.Equal(t, "SKU-1", listing.MarketplaceSKU)
	assert.NotNil(t, listing.LastSyncAt)
	assert.Zero(t, conn.ConsecutiveFailures)
	f.lease.AssertCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncListingHeldLeaseRejectsConcurrentSync(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	listing := draftListing(shopID, conn)

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("", nil)

	_, err := f.svc.SyncListing(context.Background(), shopID, listing.ID)

	assert.ErrorIs(t, err, marketplace.ErrSyncAlreadyPending)
	f.adapter.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything)
}

func TestSyncListingPendingStateRejectsSecondSync(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	listing := draftListing(shopID, conn)
	require.NoError(t, listing.BeginSync())

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.SyncListing(context.Background(), shopID, listing.ID)

	assert.ErrorIs(t, err, marketplace.ErrSyncAlreadyPending)
	f.adapter.AssertNotCalled(t, "CreateListing", mock.Anything, mock.Anything)
}

func TestSyncListingNonRetryableErrorPreservesMessage(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	listing := draftListing(shopID, conn)

	remoteErr := marketplace.NewAdapterError(marketplace.MarketplaceAmazon, 400, "invalid product type")

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)
	f.adapter.On("CreateListing", mock.Anything, mock.Anything).Return(nil, remoteErr)
	f.listingRepo.On("Save", mock.Anything, listing).Return(nil)
	f.connRepo.On("Save", mock.Anything, conn).Return(nil)

	result, err := f.svc.SyncListing(context.Background(), shopID, listing.ID)

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, marketplace.SyncStatusError, listing.SyncStatus)
	assert.Contains(t, listing.ErrorMessage, "invalid product type")
	assert.Nil(t, listing.LastSyncAt)
	assert.Equal(t, 1, conn.ConsecutiveFailures)
}

func TestSyncListingRetryableErrorSchedulesRetry(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	listing := draftListing(shopID, conn)

	remoteErr := marketplace.NewAdapterError(marketplace.MarketplaceAmazon, 503, "service unavailable")

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	f.registry.On("ForConnection", conn).Return(f.adapter, nil)
	f.adapter.On("CreateListing", mock.Anything, mock.Anything).Return(nil, remoteErr)
	f.listingRepo.On("Save", mock.Anything, listing).Return(nil)
	f.connRepo.On("Save", mock.Anything, conn).Return(nil)

	result, err := f.svc.SyncListing(context.Background(), shopID, listing.ID)

	require.NoError(t, err)
	assert.Equal(t, marketplace.SyncStatusPending, result.SyncStatus)
	assert.NotNil(t, listing.NextRetryAt)
	// a scheduled retry counts neither for nor against the connection streak
	assert.Zero(t, conn.ConsecutiveFailures)
}

func TestSyncListingSuspendedConnectionRejected(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	conn.MarkError("three strikes")
	listing := draftListing(shopID, conn)

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)

	_, err := f.svc.SyncListing(context.Background(), shopID, listing.ID)

	assert.ErrorIs(t, err, marketplace.ErrConnectionSuspended)
	f.lease.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything, mock.Anything)
}

func TestSyncListingsReportsPerItemResults(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()

	// five listings on separate connections, one of which the marketplace rejects
	products := []string{"prod-a", "prod-b", "prod-bad", "prod-d", "prod-e"}
	ids := make([]uuid.UUID, len(products))
	for i, productID := range products {
		c := activeConnection(shopID)
		l, _ := marketplace.NewListing(shopID, c.ID, productID)
		l.Title = "Widget"
		l.Price = decimal.NewFromInt(10)
		ids[i] = l.ID
		f.listingRepo.On("FindByID", mock.Anything, l.ID).Return(l, nil)
		f.connRepo.On("FindByID", mock.Anything, c.ID).Return(c, nil)
		f.registry.On("ForConnection", c).Return(f.adapter, nil)
	}

	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	f.adapter.On("CreateListing", mock.Anything, mock.MatchedBy(func(p *marketplace.ProductSnapshot) bool {
		return p.ProductID == "prod-bad"
	})).Return(nil, marketplace.NewAdapterError(marketplace.MarketplaceAmazon, 422, "rejected"))
	f.adapter.On("CreateListing", mock.Anything, mock.Anything).
		Return(&marketplace.RemoteListing{ListingID: "AMZ-ok"}, nil)
	f.listingRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.connRepo.On("Save", mock.Anything, mock.Anything).Return(nil)

	results := f.svc.SyncListings(context.Background(), shopID, ids)

	require.Len(t, results, 5)
	succeeded := 0
	failed := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
			assert.NotEmpty(t, r.Error)
		}
	}
	assert.Equal(t, 4, succeeded)
	assert.Equal(t, 1, failed)
}

func TestRetryListingRequiresErrorState(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)
	listing := draftListing(shopID, conn)
	listing.CompleteSync(&marketplace.RemoteListing{ListingID: "AMZ-1"})

	f.listingRepo.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	f.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	f.lease.On("Acquire", mock.Anything, mock.Anything, mock.Anything).Return("lease-token", nil)
	f.lease.On("Release", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.RetryListing(context.Background(), shopID, listing.ID)
	assert.Error(t, err)
}

func TestMarkSourceChangedFlagsOnlySyncedListings(t *testing.T) {
	f := newListingSyncFixture()
	shopID := uuid.New()
	conn := activeConnection(shopID)

	synced := draftListing(shopID, conn)
	synced.CompleteSync(&marketplace.RemoteListing{ListingID: "AMZ-1"})
	errored := draftListing(shopID, conn)
	errored.FailSync("boom")

	f.listingRepo.On("FindBySourceProduct", mock.Anything, shopID, "prod-1").
		Return([]marketplace.Listing{*synced, *errored}, nil)
	f.listingRepo.On("Save", mock.Anything, mock.MatchedBy(func(l *marketplace.Listing) bool {
		return l.SyncStatus == marketplace.SyncStatusPending
	})).Return(nil).Once()

	err := f.svc.MarkSourceChanged(context.Background(), shopID, "prod-1")

	require.NoError(t, err)
	f.listingRepo.AssertExpectations(t)
}
