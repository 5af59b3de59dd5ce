package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ibsurgeon/fts-udr-go/internal/ratelimit"
)

// APIKeyAuthMiddleware returns middleware that checks for a valid API key.
// Health endpoint is exempt. No-op if apiKey is empty.
func APIKeyAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}

		if c.Request.URL.Path == "/api/v1/health" {
			c.Next()
			return
		}

		// Check Authorization: Bearer <key>
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] == apiKey {
				c.Next()
				return
			}
		}

		// Check X-API-Key header
		if c.GetHeader("X-API-Key") == apiKey {
			c.Next()
			return
		}

		UnauthorizedError(c, "Invalid or missing API key")
		c.Abort()
	}
}

// routeToRoutineCategory maps API routes to rate limiter routine
// categories; the expensive maintenance routines carry their own buckets.
func routeToRoutineCategory(path string) string {
	switch {
	case strings.Contains(path, "/search"):
		return "search"
	case strings.Contains(path, "/analyze") || strings.Contains(path, "/highlight"):
		return "analyze"
	case strings.HasSuffix(path, "/rebuild"):
		return "rebuild_index"
	case strings.HasSuffix(path, "/optimize"):
		return "optimize_index"
	case strings.HasSuffix(path, "/update-indexes"):
		return "update_indexes"
	default:
		return ""
	}
}

// RateLimitMiddleware returns middleware that rate-limits requests using the provided limiter
func RateLimitMiddleware(limiter *ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		category := routeToRoutineCategory(c.Request.URL.Path)
		if category == "" {
			category = "default"
		}

		result := limiter.Allow(category)
		if !result.Allowed {
			retryAfter := int(result.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			TooManyRequestsError(c, fmt.Sprintf("Rate limit exceeded for %s. Retry after %d seconds.", result.LimitType, retryAfter))
			c.Abort()
			return
		}

		c.Next()
	}
}

// MaxBodySizeMiddleware returns middleware that limits request body size
func MaxBodySizeMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.ContentLength > maxBytes {
			PayloadTooLargeError(c, fmt.Sprintf("Request body too large. Maximum: %d bytes", maxBytes))
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

const (
	// MaxLimit caps SEARCH's row limit over the bridge.
	MaxLimit = 10000
	// DefaultBodyLimit bounds request bodies.
	DefaultBodyLimit = 1 * 1024 * 1024
)

// clampLimit folds an oversized limit back onto the cap; negative limits
// fall back to def (zero is a valid "no rows" request).
func clampLimit(limit, def int) int {
	if limit < 0 {
		return def
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
