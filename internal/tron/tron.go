// Package tron profiles Tron blockchain accounts: it fetches raw account
// telemetry from a TronScan-style explorer API and converts it into a risk
// assessment through a deterministic rule table.
package tron

import "errors"

// Errors reported by the client. Scoring itself never fails.
var (
	// ErrInvalidAddress means the caller supplied a blank account address.
	ErrInvalidAddress = errors.New("address is required")
	// ErrTelemetryUnavailable means the explorer API could not be reached
	// or returned an unusable payload.
	ErrTelemetryUnavailable = errors.New("account telemetry unavailable")
)

// Telemetry is the raw attribute bag returned by the explorer API for one
// account. It is treated as a generic JSON document (numbers, strings,
// nested maps and slices) rather than a fixed schema, used once per scoring
// call and never persisted.
type Telemetry map[string]any

// Risk tiers derived from the numeric score.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Assessment is the scoring output for a single account.
type Assessment struct {
	Address string             `json:"address"`
	Risk    string             `json:"risk"`
	Score   int                `json:"score"`
	Reasons []string           `json:"reasons"`
	Stats   map[string]float64 `json:"stats"`
	Raw     Telemetry          `json:"raw,omitempty"`
}
