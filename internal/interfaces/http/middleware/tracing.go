// Package middleware provides HTTP middleware for the ChannelSync API.
package middleware

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxRequestIDLength caps request IDs copied from headers into trace attributes.
	MaxRequestIDLength = 128
	// MaxShopIDLength caps shop IDs accepted from the X-Shop-ID header.
	MaxShopIDLength = 64
)

// Shop IDs arriving via header must be UUIDs, anything else is discarded.
var shopIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	// ServiceName identifies this service in emitted spans.
	ServiceName string
	// Enabled controls whether tracing is active.
	Enabled bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "channelsync-backend",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig wraps otelgin and enriches each HTTP span with
// request_id, shop_id and user_id attributes. The span name follows the
// "METHOD route_pattern" convention, e.g. "GET /api/v1/listings/:id".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	otelMiddleware := otelgin.Middleware(cfg.ServiceName)

	return func(c *gin.Context) {
		// otelgin creates the span and stores it on the request context.
		otelMiddleware(c)

		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			annotateSpan(c, span)
		}
	}
}

// annotateSpan copies request identity attributes onto the span.
func annotateSpan(c *gin.Context, span trace.Span) {
	if requestID := getRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if shopID := getShopID(c); shopID != "" {
		span.SetAttributes(attribute.String("shop_id", shopID))
	}
	if userID := getUserID(c); userID != "" {
		span.SetAttributes(attribute.String("user_id", userID))
	}
}

// getRequestID prefers the ID set by the RequestID middleware and falls
// back to the X-Request-ID header, truncated to MaxRequestIDLength.
func getRequestID(c *gin.Context) string {
	if v, exists := c.Get("request_id"); exists {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}

	headerID := c.GetHeader("X-Request-ID")
	if len(headerID) > MaxRequestIDLength {
		headerID = headerID[:MaxRequestIDLength]
	}
	return headerID
}

// getShopID resolves the tenant for the current request. JWT claims are
// the trusted source; the X-Shop-ID header is accepted only for
// unauthenticated requests and only when it parses as a UUID, so
// arbitrary header content never reaches trace storage.
func getShopID(c *gin.Context) string {
	if v, exists := c.Get(JWTShopIDKey); exists {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}

	if headerShopID := c.GetHeader("X-Shop-ID"); headerShopID != "" && isValidShopID(headerShopID) {
		return headerShopID
	}
	return ""
}

// isValidShopID reports whether a header-supplied shop ID is a UUID.
func isValidShopID(shopID string) bool {
	return len(shopID) <= MaxShopIDLength && shopIDPattern.MatchString(shopID)
}

// getUserID retrieves the user ID placed in the context by the JWT middleware.
func getUserID(c *gin.Context) string {
	if v, exists := c.Get(JWTUserIDKey); exists {
		if id, ok := v.(string); ok && id != "" {
			return id
		}
	}
	return ""
}

// SpanErrorMarker marks spans whose response ended in a 4xx or 5xx with
// codes.Error. Place it after the Tracing middleware in the chain.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}

		var message string
		switch {
		case statusCode >= http.StatusInternalServerError:
			message = "Internal Server Error"
		case statusCode == http.StatusUnauthorized:
			message = "Unauthorized"
		case statusCode == http.StatusForbidden:
			message = "Forbidden"
		case statusCode == http.StatusNotFound:
			message = "Not Found"
		default:
			message = "Client Error"
		}

		span.SetStatus(codes.Error, message)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
	}
}

// TracingAttributeInjector re-annotates the current span after the JWT
// middleware has populated the context, so shop_id and user_id from
// claims end up on spans created earlier in the chain. Place it after
// both Tracing and JWT middleware.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			annotateSpan(c, span)
		}
		c.Next()
	}
}
