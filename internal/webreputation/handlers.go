package webreputation

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides the HTTP endpoint for URL reputation lookups
type Handler struct {
	client *Client
}

// NewHandler creates a new web reputation handler. A nil client means the
// upstream is not configured; the endpoint then answers 503.
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes sets up the reputation endpoint
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/web/reputation", h.Lookup)
}

type lookupRequest struct {
	URL string `json:"url" binding:"required"`
}

// Lookup proxies a URL reputation query to the upstream.
// POST /v1/web/reputation
func (h *Handler) Lookup(c *gin.Context) {
	var req lookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain a 'url' string",
		})
		return
	}

	verdict, err := h.client.Lookup(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "not_configured",
				"message": "Web reputation lookups are not configured",
			})
		case errors.Is(err, ErrInvalidURL):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_url",
				"message": "url must be a valid http(s) URL",
			})
		case errors.Is(err, ErrUpstream):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "upstream_unavailable",
				"message": "Reputation upstream could not be reached",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "lookup_failed",
				"message": "Failed to look up URL reputation",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     req.URL,
		"verdict": verdict,
	})
}
