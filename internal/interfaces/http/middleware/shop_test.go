package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockShopValidator is a test implementation of ShopValidator
type mockShopValidator struct {
	ValidShops map[string]bool
	ShouldFail bool
	FailError  error
}

func (m *mockShopValidator) ValidateShop(shopID string) error {
	if m.ShouldFail {
		return m.FailError
	}
	if m.ValidShops[shopID] {
		return nil
	}
	return errors.New("shop not found")
}

func setupShopTestRouter(cfg ShopMiddlewareConfig) *gin.Engine {
	router := gin.New()
	router.Use(ShopMiddlewareWithConfig(cfg))
	router.GET("/api/v1/resource", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shop_id": GetShopID(c)})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestShopMiddleware_HeaderExtraction(t *testing.T) {
	shopID := uuid.New().String()
	router := setupShopTestRouter(DefaultShopConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.Header.Set(ShopHeaderKey, shopID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), shopID)
}

func TestShopMiddleware_JWTTakesPrecedenceOverHeader(t *testing.T) {
	jwtShopID := uuid.New().String()
	headerShopID := uuid.New().String()

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(JWTShopIDKey, jwtShopID)
		c.Next()
	})
	router.Use(ShopMiddlewareWithConfig(DefaultShopConfig()))
	router.GET("/api/v1/resource", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shop_id": GetShopID(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.Header.Set(ShopHeaderKey, headerShopID)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), jwtShopID)
	assert.NotContains(t, w.Body.String(), headerShopID)
}

func TestShopMiddleware_MissingShop(t *testing.T) {
	router := setupShopTestRouter(DefaultShopConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Shop identification required")
}

func TestShopMiddleware_NotRequired(t *testing.T) {
	cfg := DefaultShopConfig()
	cfg.Required = false
	router := setupShopTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShopMiddleware_InvalidShopIDFormat(t *testing.T) {
	router := setupShopTestRouter(DefaultShopConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.Header.Set(ShopHeaderKey, "not-a-uuid")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid shop ID format")
}

func TestShopMiddleware_SkipsHealthPath(t *testing.T) {
	router := setupShopTestRouter(DefaultShopConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestShopMiddleware_Validator(t *testing.T) {
	validShop := uuid.New().String()
	unknownShop := uuid.New().String()

	cfg := DefaultShopConfig()
	cfg.Validator = &mockShopValidator{ValidShops: map[string]bool{validShop: true}}
	router := setupShopTestRouter(cfg)

	// Known shop passes
	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.Header.Set(ShopHeaderKey, validShop)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// Unknown shop is rejected
	req = httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	req.Header.Set(ShopHeaderKey, unknownShop)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or inactive shop")
}

func TestGetShopUUID(t *testing.T) {
	shopID := uuid.New()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set(ShopIDKey, shopID.String())

	parsed, err := GetShopUUID(c)
	require.NoError(t, err)
	assert.Equal(t, shopID, parsed)
}

func TestGetShopUUID_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	parsed, err := GetShopUUID(c)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, parsed)
}

func TestMustGetShopUUID_Panics(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	assert.Panics(t, func() {
		MustGetShopUUID(c)
	})
}

func TestOptionalShopMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(OptionalShopMiddleware())
	router.GET("/api/v1/resource", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"shop_id": GetShopID(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/resource", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
