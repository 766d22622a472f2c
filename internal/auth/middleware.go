// Package auth guards the mutating HTTP endpoints with a shared API key.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// KeyFromRequest returns the key presented as "Authorization: Bearer <key>"
// or, failing that, in the x-api-key header.
func KeyFromRequest(c *gin.Context) string {
	if v := strings.TrimSpace(c.GetHeader("Authorization")); strings.HasPrefix(v, "Bearer ") {
		if got := strings.TrimSpace(strings.TrimPrefix(v, "Bearer ")); got != "" {
			return got
		}
	}
	return strings.TrimSpace(c.GetHeader("x-api-key"))
}

// Middleware rejects requests whose key does not match apiKey. An empty
// apiKey disables the check.
func Middleware(apiKey string) gin.HandlerFunc {
	expected := strings.TrimSpace(apiKey)
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}
		got := KeyFromRequest(c)
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1 {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": "unauthorized",
		})
	}
}
