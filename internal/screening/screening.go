// Package screening is the compliance facade of the gateway. It combines
// sanctions name matching and blockchain account risk scoring behind one
// service, records an audit trail of every screening decision, and exposes
// the HTTP surface for both checks.
package screening

import (
	"context"
	"time"
)

// Event kinds recorded in the audit trail.
const (
	EventSanctionsSearch   = "sanctions_search"
	EventAccountAssessment = "account_assessment"
)

// Event is one audit record of a screening operation. Events capture the
// decision, not the raw inputs: the subject is the queried name or address,
// never the full telemetry payload.
type Event struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Subject   string    `json:"subject"`
	Outcome   string    `json:"outcome"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists screening audit events.
type Store interface {
	// Record appends one event to the audit trail.
	Record(ctx context.Context, event *Event) error
	// List returns the most recent events, newest first, up to limit.
	List(ctx context.Context, limit int) ([]*Event, error)
}
