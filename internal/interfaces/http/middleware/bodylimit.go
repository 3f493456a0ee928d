package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// BodyLimit returns a middleware that caps request body size. Marketplace
// webhook payloads and bulk sync requests are the largest bodies this API
// accepts, so the cap is configured rather than hard-coded.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error": gin.H{
					"code":      "REQUEST_TOO_LARGE",
					"message":   "Request body exceeds maximum allowed size",
					"max_bytes": maxBytes,
				},
			})
			return
		}

		// Content-Length can be absent or lie; MaxBytesReader enforces the cap
		// while the body is actually read.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
