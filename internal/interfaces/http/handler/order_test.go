package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	marketplaceapp "github.com/channelsync/backend/internal/application/marketplace"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/channelsync/backend/internal/domain/order"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type orderTestEnv struct {
	connRepo  *MockConnectionRepository
	orderRepo *MockOrderRepository
	registry  *MockRegistry
	lease     *MockSyncLease
	handler   *OrderHandler
	router    *gin.Engine
}

func setupOrderTest() *orderTestEnv {
	env := &orderTestEnv{
		connRepo:  new(MockConnectionRepository),
		orderRepo: new(MockOrderRepository),
		registry:  new(MockRegistry),
		lease:     new(MockSyncLease),
	}
	service := marketplaceapp.NewOrderSyncService(
		env.connRepo, env.orderRepo, env.registry, env.lease, nil, zap.NewNop())
	env.handler = NewOrderHandler(service)

	env.router = gin.New()
	env.router.Use(shopContextMiddleware(testShopID))
	return env
}

func createTestOrder(shopID, connectionID uuid.UUID) *order.Order {
	o, _ := order.New(shopID, order.SourceAmazon)
	o.ConnectionID = &connectionID
	o.MarketplaceOrderID = "111-2223334-5556667"
	o.OrderNumber = "111-2223334-5556667"
	o.Total = decimal.RequireFromString("49.99")
	o.Subtotal = decimal.RequireFromString("45.99")
	return o
}

func marketplaceTestOrder(marketplaceOrderID string, updatedAt time.Time) order.Order {
	o := order.Order{
		MarketplaceOrderID: marketplaceOrderID,
		Source:             order.SourceAmazon,
		Status:             order.StatusPending,
		Currency:           "USD",
		Subtotal:           decimal.RequireFromString("45.99"),
		Total:              decimal.RequireFromString("49.99"),
	}
	o.UpdatedAt = updatedAt
	return o
}

func TestOrderHandler_Pull(t *testing.T) {
	t.Run("pulls and upserts orders across pages", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/pull", env.handler.Pull)

		conn := activeTestConnection(testShopID)
		adapter := new(MockAdapter)
		now := time.Now()

		env.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
		env.registry.On("ForConnection", conn).Return(adapter, nil)
		env.lease.On("Acquire", mock.Anything, "sync:orders:"+conn.ID.String(), mock.Anything).Return("test-token", nil)
		env.lease.On("Release", mock.Anything, "sync:orders:"+conn.ID.String(), mock.AnythingOfType("string")).Return(nil)

		adapter.On("ListOrders", mock.Anything, mock.MatchedBy(func(opts marketplace.OrderListOptions) bool {
			return opts.Cursor == ""
		})).Return(&marketplace.OrderPage{
			Orders:   []order.Order{marketplaceTestOrder("111-0000001", now)},
			PageInfo: marketplace.PageInfo{HasNextPage: true, NextCursor: "page2"},
		}, nil)
		adapter.On("ListOrders", mock.Anything, mock.MatchedBy(func(opts marketplace.OrderListOptions) bool {
			return opts.Cursor == "page2"
		})).Return(&marketplace.OrderPage{
			Orders: []order.Order{marketplaceTestOrder("111-0000002", now)},
		}, nil)

		env.orderRepo.On("FindByMarketplaceOrder", mock.Anything, conn.ID, mock.AnythingOfType("string")).
			Return(nil, order.ErrOrderNotFound)
		env.orderRepo.On("Save", mock.Anything, mock.AnythingOfType("*order.Order")).Return(nil)
		env.connRepo.On("Save", mock.Anything, conn).Return(nil)

		body, _ := json.Marshal(PullOrdersRequest{ConnectionID: conn.ID.String()})
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/pull", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data marketplaceapp.PullResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Fetched)
		assert.Equal(t, 2, resp.Data.Created)
		assert.Equal(t, 0, resp.Data.Failed)
	})

	t.Run("refuses when order sync is disabled", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/pull", env.handler.Pull)

		conn := activeTestConnection(testShopID)
		conn.Settings.SyncOrders = false
		env.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)

		body, _ := json.Marshal(PullOrdersRequest{ConnectionID: conn.ID.String()})
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/pull", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("returns conflict when a pull is already running", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/pull", env.handler.Pull)

		conn := activeTestConnection(testShopID)
		adapter := new(MockAdapter)
		env.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
		env.registry.On("ForConnection", conn).Return(adapter, nil)
		env.lease.On("Acquire", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return("", nil)

		body, _ := json.Marshal(PullOrdersRequest{ConnectionID: conn.ID.String()})
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/pull", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOrderHandler_List(t *testing.T) {
	env := setupOrderTest()
	env.router.GET("/marketplace/orders", env.handler.List)

	connID := uuid.New()
	orders := []order.Order{*createTestOrder(testShopID, connID)}
	env.orderRepo.On("FindAll", mock.Anything, testShopID, mock.MatchedBy(func(f order.Filter) bool {
		return f.Status != nil && *f.Status == order.StatusPending && f.Page == 1 && f.PageSize == 20
	})).Return(orders, nil)
	env.orderRepo.On("Count", mock.Anything, testShopID, mock.Anything).Return(int64(1), nil)

	req := httptest.NewRequest(http.MethodGet, "/marketplace/orders?status=pending", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "amazon", resp.Data[0].Source)
	assert.Equal(t, "49.99", resp.Data[0].Total)
	assert.NotNil(t, resp.Data[0].LineItems)
}

func TestOrderHandler_Get(t *testing.T) {
	t.Run("returns the order", func(t *testing.T) {
		env := setupOrderTest()
		env.router.GET("/marketplace/orders/:id", env.handler.Get)

		o := createTestOrder(testShopID, uuid.New())
		env.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		req := httptest.NewRequest(http.MethodGet, "/marketplace/orders/"+o.ID.String(), nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("hides other shops' orders", func(t *testing.T) {
		env := setupOrderTest()
		env.router.GET("/marketplace/orders/:id", env.handler.Get)

		o := createTestOrder(uuid.New(), uuid.New())
		env.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		req := httptest.NewRequest(http.MethodGet, "/marketplace/orders/"+o.ID.String(), nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_Ship(t *testing.T) {
	t.Run("pushes shipment then records tracking", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/:id/ship", env.handler.Ship)

		conn := activeTestConnection(testShopID)
		o := createTestOrder(testShopID, conn.ID)
		adapter := new(MockAdapter)

		env.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		env.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
		env.registry.On("ForConnection", conn).Return(adapter, nil)
		adapter.On("ShipOrder", mock.Anything, o.MarketplaceOrderID, mock.MatchedBy(func(s marketplace.Shipment) bool {
			return s.TrackingNumber == "1Z999AA10123456784" && s.Carrier == "UPS"
		})).Return(nil)
		env.orderRepo.On("Save", mock.Anything, o).Return(nil)

		body, _ := json.Marshal(ShipOrderRequest{TrackingNumber: "1Z999AA10123456784", Carrier: "UPS"})
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/"+o.ID.String()+"/ship", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data OrderResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "shipped", resp.Data.Status)
		require.NotNil(t, resp.Data.Tracking)
		assert.Equal(t, "1Z999AA10123456784", resp.Data.Tracking.TrackingNumber)
		adapter.AssertExpectations(t)
	})

	t.Run("keeps local state when the marketplace rejects the push", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/:id/ship", env.handler.Ship)

		conn := activeTestConnection(testShopID)
		o := createTestOrder(testShopID, conn.ID)
		adapter := new(MockAdapter)

		env.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		env.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
		env.registry.On("ForConnection", conn).Return(adapter, nil)
		adapter.On("ShipOrder", mock.Anything, o.MarketplaceOrderID, mock.Anything).
			Return(marketplace.NewAdapterError(marketplace.MarketplaceAmazon, http.StatusServiceUnavailable, "service unavailable"))
		env.orderRepo.On("Save", mock.Anything, o).Return(nil)

		body, _ := json.Marshal(ShipOrderRequest{TrackingNumber: "1Z999AA10123456784", Carrier: "UPS"})
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/"+o.ID.String()+"/ship", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, order.StatusPending, o.Status)
		assert.Equal(t, order.SyncStatusError, o.SyncStatus)
	})

	t.Run("rejects orders without a marketplace reference", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/:id/ship", env.handler.Ship)

		o, _ := order.New(testShopID, order.SourceShopify)
		env.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)

		body, _ := json.Marshal(ShipOrderRequest{TrackingNumber: "1Z999AA10123456784", Carrier: "UPS"})
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/"+o.ID.String()+"/ship", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestOrderHandler_Cancel(t *testing.T) {
	env := setupOrderTest()
	env.router.POST("/marketplace/orders/:id/cancel", env.handler.Cancel)

	conn := activeTestConnection(testShopID)
	o := createTestOrder(testShopID, conn.ID)
	adapter := new(MockAdapter)

	env.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
	env.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
	env.registry.On("ForConnection", conn).Return(adapter, nil)
	adapter.On("CancelOrder", mock.Anything, o.MarketplaceOrderID, "out_of_stock").Return(nil)
	env.orderRepo.On("Save", mock.Anything, o).Return(nil)

	body, _ := json.Marshal(CancelOrderRequest{Reason: "out_of_stock"})
	req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/"+o.ID.String()+"/cancel", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data OrderResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Data.Status)
}

func TestOrderHandler_Refund(t *testing.T) {
	t.Run("issues the refund remotely first", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/:id/refund", env.handler.Refund)

		conn := activeTestConnection(testShopID)
		o := createTestOrder(testShopID, conn.ID)
		adapter := new(MockAdapter)

		env.orderRepo.On("FindByID", mock.Anything, o.ID).Return(o, nil)
		env.connRepo.On("FindByID", mock.Anything, conn.ID).Return(conn, nil)
		env.registry.On("ForConnection", conn).Return(adapter, nil)
		adapter.On("RefundOrder", mock.Anything, o.MarketplaceOrderID, mock.MatchedBy(func(r marketplace.Refund) bool {
			return r.Amount.Equal(decimal.RequireFromString("25.99")) && r.Reason == "customer_return"
		})).Return(nil)
		env.orderRepo.On("Save", mock.Anything, o).Return(nil)

		body, _ := json.Marshal(RefundOrderRequest{Amount: 25.99, Reason: "customer_return"})
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/"+o.ID.String()+"/refund", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data OrderResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "refunded", resp.Data.Status)
		adapter.AssertExpectations(t)
	})

	t.Run("rejects a non-positive amount", func(t *testing.T) {
		env := setupOrderTest()
		env.router.POST("/marketplace/orders/:id/refund", env.handler.Refund)

		body := []byte(`{"amount": 0}`)
		req := httptest.NewRequest(http.MethodPost, "/marketplace/orders/"+uuid.NewString()+"/refund", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
