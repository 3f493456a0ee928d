package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	catalogapp "github.com/channelsync/backend/internal/application/catalog"
	"github.com/channelsync/backend/internal/domain/catalog"
	"github.com/channelsync/backend/internal/domain/marketplace"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type productTestEnv struct {
	productRepo *MockProductRepository
	source      *MockSourceClient
	handler     *ProductHandler
	router      *gin.Engine
}

func setupProductTest() *productTestEnv {
	env := &productTestEnv{
		productRepo: new(MockProductRepository),
		source:      new(MockSourceClient),
	}
	service := catalogapp.NewProductImportService(env.productRepo, env.source, zap.NewNop())
	env.handler = NewProductHandler(service)

	env.router = gin.New()
	env.router.Use(shopContextMiddleware(testShopID))
	return env
}

func TestProductHandler_Import(t *testing.T) {
	t.Run("imports products page by page", func(t *testing.T) {
		env := setupProductTest()
		env.router.POST("/products/import", env.handler.Import)

		firstPage := []catalog.SourceProduct{
			{SourceProductID: "8561380130936", Title: "Espresso Grinder"},
		}
		secondPage := []catalog.SourceProduct{
			{SourceProductID: "8561380130937", Title: "Drip Kettle"},
		}
		env.source.On("FetchProducts", mock.Anything, "", 100).Return(firstPage, "cursor-2", nil)
		env.source.On("FetchProducts", mock.Anything, "cursor-2", 100).Return(secondPage, "", nil)

		// first product exists, second is new
		existing, _ := catalog.NewSourceProduct(testShopID, "8561380130936")
		env.productRepo.On("FindBySourceProductID", mock.Anything, testShopID, "8561380130936").
			Return(existing, nil)
		env.productRepo.On("FindBySourceProductID", mock.Anything, testShopID, "8561380130937").
			Return(nil, catalog.ErrProductNotFound)
		env.productRepo.On("Save", mock.Anything, mock.AnythingOfType("*catalog.SourceProduct")).Return(nil)

		req := httptest.NewRequest(http.MethodPost, "/products/import", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data catalogapp.ImportResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Fetched)
		assert.Equal(t, 1, resp.Data.Created)
		assert.Equal(t, 1, resp.Data.Updated)
		assert.Equal(t, 0, resp.Data.Failed)
	})

	t.Run("maps source platform failures to bad gateway", func(t *testing.T) {
		env := setupProductTest()
		env.router.POST("/products/import", env.handler.Import)

		env.source.On("FetchProducts", mock.Anything, "", 100).
			Return(nil, "", marketplace.NewTransportError(marketplace.Marketplace("shopify"), assert.AnError))

		req := httptest.NewRequest(http.MethodPost, "/products/import", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
	})
}

func TestProductHandler_List(t *testing.T) {
	t.Run("lists cached products with filters", func(t *testing.T) {
		env := setupProductTest()
		env.router.GET("/products", env.handler.List)

		products := []catalog.SourceProduct{*createTestSourceProduct(testShopID)}
		env.productRepo.On("FindAllForShop", mock.Anything, testShopID, mock.MatchedBy(func(f catalog.ProductFilter) bool {
			return f.Vendor == "Acme" && f.Page != nil && *f.Page == 1
		})).Return(products, nil)
		env.productRepo.On("CountForShop", mock.Anything, testShopID, mock.Anything).Return(int64(1), nil)

		req := httptest.NewRequest(http.MethodGet, "/products?vendor=Acme", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data []SourceProductResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Espresso Grinder", resp.Data[0].Title)
		assert.Equal(t, "129.9", resp.Data[0].Price)
		assert.NotNil(t, resp.Data[0].Tags)
	})

	t.Run("rejects an oversized page size", func(t *testing.T) {
		env := setupProductTest()
		env.router.GET("/products", env.handler.List)

		req := httptest.NewRequest(http.MethodGet, "/products?page_size=500", nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
