package screening

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/sanctions"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/tron"
)

// Handler provides HTTP endpoints for screening
type Handler struct {
	service *Service
}

// NewHandler creates a new screening handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type searchRequest struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	MinScore int    `json:"min_score"`
	DOB      string `json:"dob"`
}

// SearchSanctions runs a fuzzy name search against the sanctions dataset.
// POST /v1/sanctions/search
func (h *Handler) SearchSanctions(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must be a JSON object",
		})
		return
	}

	if req.Limit < 0 || req.Limit > MaxSearchLimit {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_limit",
			"message": "limit must be between 0 and 20",
		})
		return
	}
	if req.MinScore < 0 || req.MinScore > 100 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_min_score",
			"message": "min_score must be between 0 and 100",
		})
		return
	}

	params := SearchParams{
		Query:    req.Query,
		Limit:    req.Limit,
		MinScore: req.MinScore,
	}
	if req.DOB != "" {
		d, err := time.ParseInLocation(birthDateLayout, req.DOB, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_dob",
				"message": "dob must be formatted as YYYY-MM-DD",
			})
			return
		}
		params.DOB = &d
	}

	result, err := h.service.SearchSanctions(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, sanctions.ErrDatasetUnavailable) || errors.Is(err, sanctions.ErrDatasetParse) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "dataset_unavailable",
				"message": "Sanctions dataset is currently unavailable",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

type assessRequest struct {
	Address    string `json:"address" binding:"required"`
	IncludeRaw bool   `json:"include_raw"`
}

// AssessAccount scores a Tron account by live explorer telemetry.
// POST /v1/tron/reputation
func (h *Handler) AssessAccount(c *gin.Context) {
	var req assessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain an 'address' string",
		})
		return
	}

	assessment, err := h.service.AssessAccount(c.Request.Context(), req.Address, req.IncludeRaw)
	if err != nil {
		switch {
		case errors.Is(err, tron.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid_address",
				"message": "A non-empty account address is required",
			})
		case errors.Is(err, tron.ErrTelemetryUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{
				"error":   "telemetry_unavailable",
				"message": "Account telemetry could not be fetched from the explorer API",
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "assessment_failed",
				"message": "Failed to assess account",
			})
		}
		return
	}

	c.JSON(http.StatusOK, assessment)
}

// Status reports screening subsystem readiness.
// GET /v1/screening/status
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status(c.Request.Context()))
}

// ListEvents returns the most recent audit events.
// GET /v1/screening/events?limit=
func (h *Handler) ListEvents(c *gin.Context) {
	limit := 100
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	events, err := h.service.Events(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to query screening events",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}
