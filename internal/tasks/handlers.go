package tasks

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP endpoints for the task queue
type Handler struct {
	queue *Queue
}

// NewHandler creates a new task handler. The queue may be nil when Redis is
// not configured; endpoints then answer 503.
func NewHandler(queue *Queue) *Handler {
	return &Handler{queue: queue}
}

// RegisterRoutes sets up task endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/tasks", h.CreateTask)
	r.GET("/tasks/:taskId", h.GetTask)
}

type createTaskRequest struct {
	Type    string          `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload" binding:"required"`
}

// CreateTask accepts a screening task for asynchronous processing.
// POST /v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "tasks_disabled",
			"message": "Async screening requires Redis (set REDIS_URL)",
		})
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Request body must contain 'type' and 'payload'",
		})
		return
	}

	task, err := h.queue.Enqueue(c.Request.Context(), req.Type, req.Payload)
	if err != nil {
		if errors.Is(err, ErrUnknownType) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "unknown_type",
				"message": "type must be sanctions_search or account_assessment",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "enqueue_failed",
			"message": "Failed to enqueue task",
		})
		return
	}

	c.JSON(http.StatusAccepted, task)
}

// GetTask returns the state of a queued task.
// GET /v1/tasks/:taskId
func (h *Handler) GetTask(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "tasks_disabled",
			"message": "Async screening requires Redis (set REDIS_URL)",
		})
		return
	}

	task, err := h.queue.Get(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "task_not_found",
				"message": "Task not found or its result has expired",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "query_failed",
			"message": "Failed to load task",
		})
		return
	}

	c.JSON(http.StatusOK, task)
}
