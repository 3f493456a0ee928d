package middleware

import (
	"net/http"
	"strings"

	"github.com/channelsync/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ShopContextKey is the key used to store shop information in gin.Context
const (
	ShopIDKey     = "shop_id"
	ShopHeaderKey = "X-Shop-ID"
)

// ShopValidator defines the interface for validating a shop
type ShopValidator interface {
	ValidateShop(shopID string) error
}

// ShopMiddlewareConfig holds configuration for shop middleware
type ShopMiddlewareConfig struct {
	// HeaderEnabled enables X-Shop-ID header extraction
	HeaderEnabled bool
	// JWTEnabled enables JWT claim extraction (requires JWT middleware to run first)
	JWTEnabled bool
	// SkipPaths are paths that don't require shop context (e.g., health check)
	SkipPaths []string
	// SkipPathPrefixes are path prefixes that don't require shop context
	SkipPathPrefixes []string
	// Required determines if shop context is mandatory
	Required bool
	// Validator is an optional validator to check if the shop exists and is active
	Validator ShopValidator
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultShopConfig returns default shop middleware configuration
func DefaultShopConfig() ShopMiddlewareConfig {
	return ShopMiddlewareConfig{
		HeaderEnabled:    true,
		JWTEnabled:       true,
		SkipPaths:        []string{"/health", "/healthz", "/ready", "/metrics", "/api/v1/health"},
		SkipPathPrefixes: []string{"/swagger", "/api-docs", "/api/v1/webhooks"},
		Required:         true,
		Validator:        nil,
		Logger:           nil,
	}
}

// ShopMiddleware extracts shop information from the request.
// Extraction order: JWT claims > X-Shop-ID header.
func ShopMiddleware() gin.HandlerFunc {
	return ShopMiddlewareWithConfig(DefaultShopConfig())
}

// ShopMiddlewareWithConfig returns shop middleware with custom configuration
func ShopMiddlewareWithConfig(cfg ShopMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		var shopID string
		var extractionMethod string

		// Priority 1: JWT claims (if JWT middleware has already run)
		if cfg.JWTEnabled {
			if jwtShopID, exists := c.Get(JWTShopIDKey); exists {
				if sid, ok := jwtShopID.(string); ok && sid != "" {
					shopID = sid
					extractionMethod = "jwt"
				}
			}
		}

		// Priority 2: X-Shop-ID header
		if shopID == "" && cfg.HeaderEnabled {
			if headerShopID := c.GetHeader(ShopHeaderKey); headerShopID != "" {
				shopID = headerShopID
				extractionMethod = "header"
			}
		}

		// Validate shop ID format if present
		if shopID != "" {
			if _, err := uuid.Parse(shopID); err != nil {
				respondUnauthorized(c, "Invalid shop ID format")
				return
			}
		}

		if shopID == "" && cfg.Required {
			respondUnauthorized(c, "Shop identification required")
			return
		}

		// Optional: Validate shop exists and is active
		if shopID != "" && cfg.Validator != nil {
			if err := cfg.Validator.ValidateShop(shopID); err != nil {
				log := cfg.Logger
				if log == nil {
					log = logger.FromContext(c.Request.Context())
				}
				log.Warn("Shop validation failed",
					zap.String("shop_id", shopID),
					zap.Error(err),
				)
				respondUnauthorized(c, "Invalid or inactive shop")
				return
			}
		}

		if shopID != "" {
			c.Set(ShopIDKey, shopID)

			// Set in request context for service layer access
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithShopID(ctx, log, shopID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("Shop identified",
					zap.String("shop_id", shopID),
					zap.String("method", extractionMethod),
				)
			}
		}

		c.Next()
	}
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetShopID retrieves the shop ID from gin.Context
func GetShopID(c *gin.Context) string {
	if shopID, exists := c.Get(ShopIDKey); exists {
		if sid, ok := shopID.(string); ok {
			return sid
		}
	}
	return ""
}

// GetShopUUID retrieves the shop ID as UUID from gin.Context
func GetShopUUID(c *gin.Context) (uuid.UUID, error) {
	shopID := GetShopID(c)
	if shopID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(shopID)
}

// MustGetShopUUID retrieves the shop ID as UUID or panics if not found.
// Use this only in handlers where shop context is guaranteed to exist.
func MustGetShopUUID(c *gin.Context) uuid.UUID {
	shopUUID, err := GetShopUUID(c)
	if err != nil || shopUUID == uuid.Nil {
		panic("valid shop_id not found in context")
	}
	return shopUUID
}

// OptionalShopMiddleware creates middleware that doesn't require shop context
func OptionalShopMiddleware() gin.HandlerFunc {
	cfg := DefaultShopConfig()
	cfg.Required = false
	return ShopMiddlewareWithConfig(cfg)
}
