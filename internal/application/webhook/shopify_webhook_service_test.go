package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
)

const testWebhookSecret = "shpss_test_secret"

var webhookShopID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

type webhookTestEnv struct {
	productRepo *MockProductRepository
	orderRepo   *MockOrderRepository
	listingRepo *MockListingRepository
	service     *ShopifyWebhookService
}

func setupWebhookTest(secret string) *webhookTestEnv {
	env := &webhookTestEnv{
		productRepo: new(MockProductRepository),
		orderRepo:   new(MockOrderRepository),
		listingRepo: new(MockListingRepository),
	}
	listingService := marketplaceapp.NewListingSyncService(
		new(MockConnectionRepository),
		env.listingRepo,
		env.productRepo,
		new(MockRegistry),
		new(MockSyncLease),
		zap.NewNop(),
	)
	env.service = NewShopifyWebhookService(secret, env.productRepo, env.orderRepo, listingService, zap.NewNop())
	return env
}

func signPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestShopifyWebhookService_VerifySignature(t *testing.T) {
	payload := []byte(`{"id":632910392}`)

	t.Run("accepts a valid signature", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)
		assert.True(t, env.service.VerifySignature(payload, signPayload(testWebhookSecret, payload)))
	})

	t.Run("rejects a signature computed with another secret", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)
		assert.False(t, env.service.VerifySignature(payload, signPayload("wrong_secret", payload)))
	})

	t.Run("rejects a missing signature", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)
		assert.False(t, env.service.VerifySignature(payload, ""))
	})

	t.Run("rejects everything when no secret is configured", func(t *testing.T) {
		env := setupWebhookTest("")
		assert.False(t, env.service.VerifySignature(payload, signPayload("", payload)))
	})
}

func TestShopifyWebhookService_ProductUpsert(t *testing.T) {
	payload := []byte(`{
		"id": 632910392,
		"title": "Espresso Grinder",
		"vendor": "Acme",
		"product_type": "Grinders",
		"tags": "coffee, kitchen",
		"variants": [
			{"id": 808950810, "sku": "GRIND-01", "price": "129.90", "inventory_quantity": 12}
		]
	}`)

	t.Run("creates the cached product and flags synced listings", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		env.productRepo.On("FindBySourceProductID", mock.Anything, webhookShopID, "632910392").
			Return(nil, catalog.ErrProductNotFound)
		var saved *catalog.SourceProduct
		env.productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.SourceProduct")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*catalog.SourceProduct)
			}).
			Return(nil)

		listing, err := marketplace.NewListing(webhookShopID, uuid.New(), "632910392")
		require.NoError(t, err)
		require.NoError(t, listing.BeginSync())
		listing.CompleteSync(&marketplace.RemoteListing{ListingID: "B0EXAMPLE1"})
		env.listingRepo.On("FindBySourceProduct", mock.Anything, webhookShopID, "632910392").
			Return([]marketplace.Listing{*listing}, nil)
		env.listingRepo.On("Save", mock.Anything, mock.MatchedBy(func(l *marketplace.Listing) bool {
			return l.SyncStatus == marketplace.SyncStatusPending
		})).Return(nil)

		result, err := env.service.Process(context.Background(), webhookShopID, TopicProductsCreate, payload)
		require.NoError(t, err)
		assert.True(t, result.Processed)
		assert.Equal(t, TopicProductsCreate, result.Topic)

		require.NotNil(t, saved)
		assert.Equal(t, "Espresso Grinder", saved.Title)
		assert.Equal(t, "GRIND-01", saved.SKU)
		assert.Equal(t, "808950810", saved.SourceVariantID)
		assert.Equal(t, 12, saved.Inventory)
		assert.True(t, saved.Price.Equal(decimal.RequireFromString("129.90")))
		assert.Equal(t, []string{"coffee", "kitchen"}, saved.Tags)

		env.listingRepo.AssertExpectations(t)
	})

	t.Run("refreshes an existing cached product", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		existing, err := catalog.NewSourceProduct(webhookShopID, "632910392")
		require.NoError(t, err)
		existing.Title = "Old Title"
		env.productRepo.On("FindBySourceProductID", mock.Anything, webhookShopID, "632910392").
			Return(existing, nil)
		env.productRepo.On("Save", mock.Anything, existing).Return(nil)
		env.listingRepo.On("FindBySourceProduct", mock.Anything, webhookShopID, "632910392").
			Return([]marketplace.Listing{}, nil)

		_, err = env.service.Process(context.Background(), webhookShopID, TopicProductsUpdate, payload)
		require.NoError(t, err)
		assert.Equal(t, "Espresso Grinder", existing.Title)
	})

	t.Run("rejects a body with no product id", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		result, err := env.service.Process(context.Background(), webhookShopID, TopicProductsCreate, []byte(`{"title":"x"}`))
		assert.ErrorIs(t, err, ErrInvalidPayload)
		assert.False(t, result.Processed)
	})
}

func TestShopifyWebhookService_ProductDelete(t *testing.T) {
	payload := []byte(`{"id":632910392}`)

	t.Run("removes the cached product", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		existing, err := catalog.NewSourceProduct(webhookShopID, "632910392")
		require.NoError(t, err)
		env.productRepo.On("FindBySourceProductID", mock.Anything, webhookShopID, "632910392").
			Return(existing, nil)
		env.productRepo.On("Delete", mock.Anything, existing.ID).Return(nil)

		result, err := env.service.Process(context.Background(), webhookShopID, TopicProductsDelete, payload)
		require.NoError(t, err)
		assert.True(t, result.Processed)
		env.productRepo.AssertExpectations(t)
	})

	t.Run("acks a delete for a product never imported", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		env.productRepo.On("FindBySourceProductID", mock.Anything, webhookShopID, "632910392").
			Return(nil, catalog.ErrProductNotFound)

		_, err := env.service.Process(context.Background(), webhookShopID, TopicProductsDelete, payload)
		require.NoError(t, err)
		env.productRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestShopifyWebhookService_OrderEvents(t *testing.T) {
	orderBody := []byte(`{
		"id": 450789469,
		"name": "#1001",
		"email": "bob@example.com",
		"currency": "USD",
		"financial_status": "paid",
		"subtotal_price": "44.00",
		"total_tax": "5.99",
		"total_price": "49.99",
		"updated_at": "2026-08-29T10:00:00Z",
		"customer": {"first_name": "Bob", "last_name": "Norman"},
		"shipping_address": {"address1": "105 Victoria St", "city": "Toronto", "country": "Canada", "zip": "M5C1N7"},
		"line_items": [
			{"title": "Espresso Grinder", "quantity": 1, "sku": "GRIND-01", "price": "44.00"}
		]
	}`)

	t.Run("creates a local order for a new source order", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		env.orderRepo.On("FindBySourceOrder", mock.Anything, webhookShopID, "450789469").
			Return(nil, order.ErrOrderNotFound)
		var saved *order.Order
		env.orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).
			Run(func(args mock.Arguments) {
				saved = args.Get(1).(*order.Order)
			}).
			Return(nil)

		result, err := env.service.Process(context.Background(), webhookShopID, TopicOrdersCreate, orderBody)
		require.NoError(t, err)
		assert.True(t, result.Processed)

		require.NotNil(t, saved)
		assert.Equal(t, order.SourceShopify, saved.Source)
		assert.Equal(t, "450789469", saved.SourceOrderID)
		assert.Equal(t, "#1001", saved.OrderNumber)
		assert.Equal(t, order.StatusProcessing, saved.Status)
		assert.Equal(t, "Bob Norman", saved.CustomerName)
		assert.Equal(t, "bob@example.com", saved.CustomerEmail)
		assert.True(t, saved.Total.Equal(decimal.RequireFromString("49.99")))
		require.Len(t, saved.LineItems, 1)
		assert.Equal(t, "GRIND-01", saved.LineItems[0].SKU)
		require.NotNil(t, saved.LastEventAt)
		assert.Equal(t, time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC), saved.LastEventAt.UTC())
		require.NotNil(t, saved.ShippingAddress)
		assert.Equal(t, "Toronto", saved.ShippingAddress.City)
	})

	t.Run("applies an update to an existing order", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		existing, err := order.New(webhookShopID, order.SourceShopify)
		require.NoError(t, err)
		existing.SourceOrderID = "450789469"
		earlier := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
		existing.LastEventAt = &earlier

		env.orderRepo.On("FindBySourceOrder", mock.Anything, webhookShopID, "450789469").
			Return(existing, nil)
		env.orderRepo.On("Save", mock.Anything, existing).Return(nil)

		_, err = env.service.Process(context.Background(), webhookShopID, TopicOrdersUpdated, orderBody)
		require.NoError(t, err)
		assert.Equal(t, order.StatusProcessing, existing.Status)
		assert.Equal(t, "#1001", existing.OrderNumber)
	})

	t.Run("discards a stale delivery without failing", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		existing, err := order.New(webhookShopID, order.SourceShopify)
		require.NoError(t, err)
		existing.SourceOrderID = "450789469"
		existing.OrderNumber = "#1001"
		later := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
		existing.LastEventAt = &later

		env.orderRepo.On("FindBySourceOrder", mock.Anything, webhookShopID, "450789469").
			Return(existing, nil)

		result, err := env.service.Process(context.Background(), webhookShopID, TopicOrdersUpdated, orderBody)
		require.NoError(t, err)
		assert.True(t, result.Processed)
		env.orderRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("cancellation topic moves the order to cancelled", func(t *testing.T) {
		env := setupWebhookTest(testWebhookSecret)

		existing, err := order.New(webhookShopID, order.SourceShopify)
		require.NoError(t, err)
		existing.SourceOrderID = "450789469"

		env.orderRepo.On("FindBySourceOrder", mock.Anything, webhookShopID, "450789469").
			Return(existing, nil)
		env.orderRepo.On("Save", mock.Anything, existing).Return(nil)

		_, err = env.service.Process(context.Background(), webhookShopID, TopicOrdersCancel, orderBody)
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, existing.Status)
	})
}

func TestShopifyWebhookService_UnknownTopic(t *testing.T) {
	env := setupWebhookTest(testWebhookSecret)

	result, err := env.service.Process(context.Background(), webhookShopID, "collections/update", []byte(`{}`))
	require.NoError(t, err)
	assert.False(t, result.Processed)
	assert.Equal(t, "Topic not handled", result.Message)
}
