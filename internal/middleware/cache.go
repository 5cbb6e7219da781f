package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CacheControl sets cache headers on GET responses. Everything else is
// marked no-store; record state changes too often to cache.
func CacheControl(maxAgeSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Header("Cache-Control", "no-store")
		} else {
			c.Header("Cache-Control", "private, max-age="+strconv.Itoa(maxAgeSeconds))
			c.Header("Vary", "Accept, Authorization")
		}
		c.Next()
	}
}
