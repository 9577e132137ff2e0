package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/screening"
)

// ScreeningRunner executes queued tasks against the screening service.
type ScreeningRunner struct {
	service *screening.Service
}

// NewScreeningRunner creates a runner backed by the screening service.
func NewScreeningRunner(service *screening.Service) *ScreeningRunner {
	return &ScreeningRunner{service: service}
}

type searchPayload struct {
	Query    string `json:"query"`
	Limit    int    `json:"limit"`
	MinScore int    `json:"min_score"`
	DOB      string `json:"dob"`
}

type assessPayload struct {
	Address    string `json:"address"`
	IncludeRaw bool   `json:"include_raw"`
}

// Run dispatches one task by type.
func (r *ScreeningRunner) Run(ctx context.Context, task *Task) (any, error) {
	switch task.Type {
	case TypeSanctionsSearch:
		var p searchPayload
		if err := json.Unmarshal(task.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		params := screening.SearchParams{
			Query:    p.Query,
			Limit:    p.Limit,
			MinScore: p.MinScore,
		}
		if p.DOB != "" {
			d, err := time.ParseInLocation("2006-01-02", p.DOB, time.UTC)
			if err != nil {
				return nil, fmt.Errorf("invalid dob: %w", err)
			}
			params.DOB = &d
		}
		return r.service.SearchSanctions(ctx, params)

	case TypeAccountAssessment:
		var p assessPayload
		if err := json.Unmarshal(task.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		return r.service.AssessAccount(ctx, p.Address, p.IncludeRaw)

	default:
		return nil, ErrUnknownType
	}
}
