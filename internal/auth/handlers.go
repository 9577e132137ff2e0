package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for API key management
type Handler struct {
	manager *Manager
}

// NewHandler creates a new auth handler
func NewHandler(m *Manager) *Handler {
	return &Handler{manager: m}
}

// RegisterAdminRoutes mounts key management endpoints. The group is expected
// to already carry the admin middleware.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/keys", h.ListKeys)
	r.POST("/keys", h.CreateKey)
	r.DELETE("/keys/:keyId", h.RevokeKey)
}

// Info returns auth configuration info
func (h *Handler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"type":      "api_key",
		"header":    "Authorization: Bearer sk_...",
		"altHeader": "X-API-Key: sk_...",
		"scopes":    AllScopes,
		"note":      "Keys are issued through POST /v1/admin/keys. Store them securely.",
		"publicEndpoints": []string{
			"GET /health",
			"GET /health/live",
			"GET /health/ready",
			"GET /metrics",
			"GET /api",
		},
		"protectedEndpoints": []string{
			"POST /v1/sanctions/search",
			"POST /v1/tron/reputation",
			"POST /v1/web/reputation",
			"POST /v1/tasks",
		},
	})
}

// ListKeys returns all issued API keys
func (h *Handler) ListKeys(c *gin.Context) {
	keys, err := h.manager.ListKeys(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to list keys",
		})
		return
	}

	// Don't expose hashes
	safeKeys := make([]gin.H, len(keys))
	for i, k := range keys {
		safeKeys[i] = gin.H{
			"id":        k.ID,
			"name":      k.Name,
			"scopes":    k.Scopes,
			"createdAt": k.CreatedAt,
			"lastUsed":  k.LastUsed,
			"revoked":   k.Revoked,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"keys":  safeKeys,
		"count": len(safeKeys),
	})
}

// CreateKeyRequest is the request body for creating a key
type CreateKeyRequest struct {
	Name       string   `json:"name"`
	Scopes     []string `json:"scopes" binding:"required"`
	TTLSeconds int64    `json:"ttl_seconds"`
}

// CreateKey issues a new API key
func (h *Handler) CreateKey(c *gin.Context) {
	var req CreateKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain a 'scopes' array",
		})
		return
	}
	if req.Name == "" {
		req.Name = "Unnamed key"
	}

	rawKey, newKey, err := h.manager.GenerateKey(
		c.Request.Context(),
		req.Name,
		req.Scopes,
		time.Duration(req.TTLSeconds)*time.Second,
	)
	if err != nil {
		if err == ErrInvalidScope {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_scope",
				"message": "Scopes must be a non-empty subset of the known scopes",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to create key",
			"message": "Failed to create API key",
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"apiKey":  rawKey,
		"keyId":   newKey.ID,
		"name":    newKey.Name,
		"scopes":  newKey.Scopes,
		"warning": "Store this key securely. It will not be shown again.",
	})
}

// RevokeKey revokes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	keyID := c.Param("keyId")

	if err := h.manager.RevokeKey(c.Request.Context(), keyID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "key_not_found",
			"message": "Key not found or already revoked",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Key revoked",
		"keyId":   keyID,
	})
}
