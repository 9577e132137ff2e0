package auth

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyAPIKey is the key for storing API key in gin context
	ContextKeyAPIKey = "apiKey"
)

// Middleware extracts and validates API key from request
// Sets apiKey in context if valid
func Middleware(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get API key from header
		apiKey := c.GetHeader("Authorization")
		if apiKey == "" {
			apiKey = c.GetHeader("X-API-Key")
		}

		if apiKey != "" {
			key, err := m.ValidateKey(c.Request.Context(), apiKey)
			if err == nil {
				c.Set(ContextKeyAPIKey, key)
			}
		}

		c.Next()
	}
}

// RequireScope rejects requests whose key does not carry the scope.
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := GetAPIKey(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "API key required. Include 'Authorization: Bearer sk_...' header.",
			})
			return
		}
		if !key.HasScope(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "API key does not grant " + scope,
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin admits requests presenting the configured admin secret or a
// key with the admin scope. The secret bootstraps the first key issuance.
func RequireAdmin(adminSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminSecret != "" {
			secret := c.GetHeader("X-Admin-Secret")
			if subtle.ConstantTimeCompare([]byte(secret), []byte(adminSecret)) == 1 {
				c.Next()
				return
			}
		}
		if key, ok := GetAPIKey(c); ok && key.HasScope(ScopeAdmin) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Admin secret or admin-scoped API key required.",
		})
	}
}

// GetAPIKey returns the API key from context (if authenticated)
func GetAPIKey(c *gin.Context) (*APIKey, bool) {
	key, exists := c.Get(ContextKeyAPIKey)
	if !exists {
		return nil, false
	}
	apiKey, ok := key.(*APIKey)
	return apiKey, ok
}

// IsAuthenticated checks if the request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ContextKeyAPIKey)
	return exists
}
