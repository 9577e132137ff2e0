// Package tasks provides the asynchronous screening queue. Requests are
// accepted immediately, pushed onto a Redis-backed queue, and processed by a
// worker pool; callers poll the task ID for the result. Task records expire
// after a configurable TTL, so results are a handoff, not an archive.
package tasks

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrTaskNotFound = errors.New("task not found or expired")
	ErrUnknownType  = errors.New("unknown task type")
)

// Task types accepted by the queue.
const (
	TypeSanctionsSearch   = "sanctions_search"
	TypeAccountAssessment = "account_assessment"
)

// Task lifecycle states.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task is one queued screening request and, eventually, its outcome.
type Task struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ValidType reports whether t is a known task type.
func ValidType(t string) bool {
	return t == TypeSanctionsSearch || t == TypeAccountAssessment
}
