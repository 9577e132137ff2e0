package screening

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/metrics"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/sanctions"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/traces"
	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/tron"
)

// Defaults and bounds for sanctions searches.
const (
	DefaultSearchLimit = 5
	MaxSearchLimit     = 20
	DefaultMinScore    = 70
)

const birthDateLayout = "2006-01-02"

// SearchParams are the caller-facing knobs of a sanctions search. Zero
// values fall back to the defaults above.
type SearchParams struct {
	Query    string
	Limit    int
	MinScore int
	DOB      *time.Time
}

// MatchResult is the wire form of one sanctions match.
type MatchResult struct {
	EntityID   string   `json:"entity_id"`
	Name       string   `json:"name"`
	Score      int      `json:"score"`
	Datasets   []string `json:"datasets,omitempty"`
	Topics     []string `json:"topics,omitempty"`
	Countries  []string `json:"countries,omitempty"`
	BirthDates []string `json:"birth_dates,omitempty"`
}

// SearchResult is the outcome of a sanctions search against one snapshot.
type SearchResult struct {
	Query          string        `json:"query"`
	Matches        []MatchResult `json:"matches"`
	Total          int           `json:"total"`
	DatasetRecords int           `json:"dataset_records"`
	DatasetLoaded  time.Time     `json:"dataset_loaded_at"`
	Stale          bool          `json:"stale"`
	Warning        string        `json:"warning,omitempty"`
}

// Component readiness levels reported by Status.
const (
	StateReady       = "ready"
	StateDegraded    = "degraded"
	StateUnavailable = "unavailable"
)

// ComponentStatus describes one screening subsystem.
type ComponentStatus struct {
	State  string `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// StatusReport is the aggregate screening readiness view. Status never
// fails; a broken subsystem is reported, not surfaced as an error.
type StatusReport struct {
	Sanctions      ComponentStatus `json:"sanctions"`
	Tron           ComponentStatus `json:"tron"`
	DatasetRecords int             `json:"dataset_records"`
	DatasetLoaded  *time.Time      `json:"dataset_loaded_at,omitempty"`
	CheckedAt      time.Time       `json:"checked_at"`
}

// Service coordinates the two screening checks and the audit trail.
type Service struct {
	cache  *sanctions.Cache
	tron   *tron.Client
	store  Store
	logger *slog.Logger
}

// NewService wires a screening service. The store may be a memory store;
// it must not be nil.
func NewService(cache *sanctions.Cache, tronClient *tron.Client, store Store, logger *slog.Logger) *Service {
	return &Service{
		cache:  cache,
		tron:   tronClient,
		store:  store,
		logger: logger,
	}
}

// SearchSanctions runs a fuzzy name search against the current dataset
// snapshot, refreshing it first when stale. Parameter defaults and bounds
// are applied here so every caller (HTTP, tasks, MCP) sees one behavior.
func (s *Service) SearchSanctions(ctx context.Context, params SearchParams) (*SearchResult, error) {
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		// A blank query matches nothing; it is not an error.
		result := &SearchResult{Matches: []MatchResult{}}
		if snap := s.cache.Snapshot(); snap != nil {
			result.DatasetRecords = len(snap.Records)
			result.DatasetLoaded = snap.LoadedAt
			result.Stale = snap.Stale
		}
		return result, nil
	}
	if params.Limit <= 0 {
		params.Limit = DefaultSearchLimit
	}
	if params.Limit > MaxSearchLimit {
		params.Limit = MaxSearchLimit
	}
	if params.MinScore <= 0 {
		params.MinScore = DefaultMinScore
	}

	ctx, span := traces.StartSpan(ctx, "screening.search_sanctions", traces.Query(params.Query))
	defer span.End()

	snap, err := s.cache.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	found := sanctions.Search(snap.Records, params.Query, params.Limit, params.MinScore, params.DOB)
	span.SetAttributes(traces.MatchCount(len(found)))
	metrics.SanctionsSearchesTotal.Inc()

	result := &SearchResult{
		Query:          params.Query,
		Matches:        make([]MatchResult, 0, len(found)),
		Total:          len(found),
		DatasetRecords: len(snap.Records),
		DatasetLoaded:  snap.LoadedAt,
		Stale:          snap.Stale,
	}
	if snap.Stale {
		result.Warning = "serving stale dataset: " + snap.LoadErr
	}
	for _, m := range found {
		result.Matches = append(result.Matches, toMatchResult(m))
	}

	s.audit(ctx, &Event{
		Kind:    EventSanctionsSearch,
		Subject: params.Query,
		Outcome: fmt.Sprintf("%d matches", len(found)),
		Score:   topScore(found),
	})
	return result, nil
}

// AssessAccount fetches live telemetry for an address and scores it.
func (s *Service) AssessAccount(ctx context.Context, address string, includeRaw bool) (*tron.Assessment, error) {
	ctx, span := traces.StartSpan(ctx, "screening.assess_account", traces.Address(address))
	defer span.End()

	payload, err := s.tron.FetchAccount(ctx, address)
	if err != nil {
		return nil, err
	}

	assessment := s.Assess(address, payload)
	if !includeRaw {
		assessment.Raw = nil
	}
	span.SetAttributes(traces.RiskTier(assessment.Risk))

	s.audit(ctx, &Event{
		Kind:    EventAccountAssessment,
		Subject: address,
		Outcome: assessment.Risk,
		Score:   assessment.Score,
	})
	return assessment, nil
}

// Assess scores an already-fetched telemetry payload. It is deterministic
// and does no I/O, so callers can replay stored payloads through it.
func (s *Service) Assess(address string, payload tron.Telemetry) *tron.Assessment {
	assessment := tron.Score(address, payload)
	metrics.AssessmentsTotal.WithLabelValues(assessment.Risk).Inc()
	return assessment
}

// Status reports per-subsystem readiness without performing remote calls.
func (s *Service) Status(ctx context.Context) *StatusReport {
	report := &StatusReport{
		Tron:      ComponentStatus{State: StateReady},
		CheckedAt: time.Now().UTC(),
	}

	snap := s.cache.Snapshot()
	switch {
	case snap == nil:
		report.Sanctions = ComponentStatus{
			State:  StateUnavailable,
			Detail: "dataset not loaded yet",
		}
	case snap.Stale:
		report.Sanctions = ComponentStatus{
			State:  StateDegraded,
			Detail: snap.LoadErr,
		}
	default:
		report.Sanctions = ComponentStatus{State: StateReady}
	}

	if snap != nil {
		report.DatasetRecords = len(snap.Records)
		loaded := snap.LoadedAt
		report.DatasetLoaded = &loaded
	}
	return report
}

// Events returns the most recent audit events, newest first.
func (s *Service) Events(ctx context.Context, limit int) ([]*Event, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.store.List(ctx, limit)
}

// audit records an event best-effort. Screening results are never held
// hostage to audit persistence; failures are logged and dropped.
func (s *Service) audit(ctx context.Context, event *Event) {
	event.ID = uuid.NewString()
	event.CreatedAt = time.Now().UTC()
	if err := s.store.Record(ctx, event); err != nil {
		s.logger.Warn("audit record failed", "kind", event.Kind, "error", err)
	}
}

func toMatchResult(m sanctions.Match) MatchResult {
	r := MatchResult{
		EntityID:  m.Record.EntityID,
		Name:      m.Record.Name,
		Score:     m.Score,
		Datasets:  m.Record.Datasets,
		Topics:    m.Record.Topics,
		Countries: m.Record.Countries,
	}
	for _, d := range m.Record.BirthDates {
		r.BirthDates = append(r.BirthDates, d.Format(birthDateLayout))
	}
	return r
}

func topScore(matches []sanctions.Match) int {
	if len(matches) == 0 {
		return 0
	}
	return matches[0].Score
}
