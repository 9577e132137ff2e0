package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hrbrlife/INSTAKYC-SCREENING/internal/validation"
)

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	client *ScreeningClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(client *ScreeningClient) *Handlers {
	return &Handlers{client: client}
}

// HandleSearchSanctions runs a sanctions name search.
func (h *Handlers) HandleSearchSanctions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := validation.SanitizeString(req.GetString("query", ""), 200)
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	limit := req.GetInt("limit", 0)
	minScore := req.GetInt("min_score", 0)
	dob := req.GetString("dob", "")

	raw, err := h.client.SearchSanctions(ctx, query, limit, minScore, dob)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Search failed: %v", err)), nil
	}

	text, err := formatSearchResult(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse search result: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleAssessAddress scores a Tron account.
func (h *Handlers) HandleAssessAddress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	address := strings.TrimSpace(req.GetString("address", ""))
	if address == "" {
		return mcp.NewToolResultError("address is required"), nil
	}
	if !validation.IsValidTronAddress(address) {
		return mcp.NewToolResultError("address must be a base58 Tron address starting with 'T'"), nil
	}
	includeRaw := req.GetBool("include_raw", false)

	raw, err := h.client.AssessAddress(ctx, address, includeRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Assessment failed: %v", err)), nil
	}

	text, err := formatAssessment(raw, includeRaw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse assessment: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleScreeningStatus reports gateway readiness.
func (h *Handlers) HandleScreeningStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := h.client.ScreeningStatus(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Status check failed: %v", err)), nil
	}

	text, err := formatStatus(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse status: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// HandleEnqueueScreening submits an async screening task.
func (h *Handlers) HandleEnqueueScreening(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskType := req.GetString("type", "")
	if taskType == "" {
		return mcp.NewToolResultError("type is required"), nil
	}

	payload := make(map[string]any)
	if raw := req.GetArguments()["payload"]; raw != nil {
		if m, ok := raw.(map[string]any); ok {
			payload = m
		}
	}
	if len(payload) == 0 {
		return mcp.NewToolResultError("payload is required"), nil
	}

	raw, err := h.client.EnqueueTask(ctx, taskType, payload)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Enqueue failed: %v", err)), nil
	}

	var task struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &task); err != nil || task.ID == "" {
		return mcp.NewToolResultError(fmt.Sprintf("Unexpected enqueue response: %s", string(raw))), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Task enqueued.\nTask ID: %s\nStatus: %s\n\nPoll with get_task to retrieve the result.",
		task.ID, task.Status)), nil
}

// HandleGetTask fetches the state of a queued task.
func (h *Handlers) HandleGetTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	taskID := req.GetString("task_id", "")
	if taskID == "" {
		return mcp.NewToolResultError("task_id is required"), nil
	}

	raw, err := h.client.GetTask(ctx, taskID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Task lookup failed: %v", err)), nil
	}

	text, err := formatTask(raw)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse task: %v", err)), nil
	}

	return mcp.NewToolResultText(text), nil
}

// --- Formatting helpers ---

func formatSearchResult(raw json.RawMessage) (string, error) {
	var result struct {
		Query   string `json:"query"`
		Matches []struct {
			EntityID   string   `json:"entity_id"`
			Name       string   `json:"name"`
			Score      int      `json:"score"`
			Datasets   []string `json:"datasets"`
			Topics     []string `json:"topics"`
			BirthDates []string `json:"birth_dates"`
		} `json:"matches"`
		Total          int    `json:"total"`
		DatasetRecords int    `json:"dataset_records"`
		Stale          bool   `json:"stale"`
		Warning        string `json:"warning"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(result.Matches) == 0 {
		fmt.Fprintf(&sb, "No sanctions matches for %q (%d records screened).\n", result.Query, result.DatasetRecords)
	} else {
		fmt.Fprintf(&sb, "Found %d match(es) for %q:\n\n", result.Total, result.Query)
		for i, m := range result.Matches {
			fmt.Fprintf(&sb, "%d. %s (score %d)\n", i+1, m.Name, m.Score)
			fmt.Fprintf(&sb, "   Entity: %s\n", m.EntityID)
			if len(m.Datasets) > 0 {
				fmt.Fprintf(&sb, "   Lists: %s\n", strings.Join(m.Datasets, ", "))
			}
			if len(m.BirthDates) > 0 {
				fmt.Fprintf(&sb, "   Born: %s\n", strings.Join(m.BirthDates, ", "))
			}
		}
	}
	if result.Warning != "" {
		fmt.Fprintf(&sb, "\nWarning: %s\n", result.Warning)
	}
	return sb.String(), nil
}

func formatAssessment(raw json.RawMessage, includeRaw bool) (string, error) {
	var a struct {
		Address string             `json:"address"`
		Risk    string             `json:"risk"`
		Score   int                `json:"score"`
		Reasons []string           `json:"reasons"`
		Stats   map[string]float64 `json:"stats"`
		Raw     json.RawMessage    `json:"raw"`
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Account: %s\n", a.Address)
	fmt.Fprintf(&sb, "Risk: %s (score %d/100)\n", strings.ToUpper(a.Risk), a.Score)
	if len(a.Reasons) > 0 {
		sb.WriteString("\nSignals:\n")
		for _, r := range a.Reasons {
			fmt.Fprintf(&sb, "  - %s\n", r)
		}
	}
	if len(a.Stats) > 0 {
		sb.WriteString("\nTelemetry:\n")
		for _, k := range sortedKeys(a.Stats) {
			fmt.Fprintf(&sb, "  %s: %g\n", k, a.Stats[k])
		}
	}
	if includeRaw && len(a.Raw) > 0 {
		fmt.Fprintf(&sb, "\nRaw telemetry:\n%s\n", formatJSON(a.Raw))
	}
	return sb.String(), nil
}

func formatStatus(raw json.RawMessage) (string, error) {
	var st struct {
		Sanctions struct {
			State  string `json:"state"`
			Detail string `json:"detail"`
		} `json:"sanctions"`
		Tron struct {
			State string `json:"state"`
		} `json:"tron"`
		DatasetRecords int    `json:"dataset_records"`
		DatasetLoaded  string `json:"dataset_loaded_at"`
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Screening gateway status:\n")
	fmt.Fprintf(&sb, "  Sanctions dataset: %s", st.Sanctions.State)
	if st.Sanctions.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", st.Sanctions.Detail)
	}
	sb.WriteString("\n")
	if st.DatasetRecords > 0 {
		fmt.Fprintf(&sb, "  Records: %d (loaded %s)\n", st.DatasetRecords, st.DatasetLoaded)
	}
	fmt.Fprintf(&sb, "  Tron explorer: %s\n", st.Tron.State)
	return sb.String(), nil
}

func formatTask(raw json.RawMessage) (string, error) {
	var task struct {
		ID     string          `json:"id"`
		Type   string          `json:"type"`
		Status string          `json:"status"`
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &task); err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Task %s (%s): %s\n", task.ID, task.Type, task.Status)
	if task.Error != "" {
		fmt.Fprintf(&sb, "Error: %s\n", task.Error)
	}
	if len(task.Result) > 0 && string(task.Result) != "null" {
		fmt.Fprintf(&sb, "\nResult:\n%s\n", formatJSON(task.Result))
	}
	return sb.String(), nil
}

func formatJSON(raw json.RawMessage) string {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return string(raw)
	}
	return pretty.String()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}
