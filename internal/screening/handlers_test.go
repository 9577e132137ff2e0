package screening

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc, store := newTestService(t)
	r := gin.New()
	h := NewHandler(svc)
	v1 := r.Group("/v1")
	v1.POST("/sanctions/search", h.SearchSanctions)
	v1.POST("/tron/reputation", h.AssessAccount)
	v1.GET("/screening/status", h.Status)
	v1.GET("/screening/events", h.ListEvents)
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/sanctions/search", `{"query": "John Doe"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || resp.Matches[0].Name != "John Doe" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestSearchEndpointMissingQueryReturnsEmpty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/sanctions/search", `{}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for a missing query, got %d: %s", w.Code, w.Body.String())
	}

	var resp SearchResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 0 || len(resp.Matches) != 0 {
		t.Fatalf("missing query should match nothing, got %+v", resp)
	}
}

func TestSearchEndpointLimitOutOfRange(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/sanctions/search", `{"query": "x", "limit": 50}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_limit") {
		t.Fatalf("expected invalid_limit error, got %s", w.Body.String())
	}

	// Zero is not an error; it applies the default limit.
	w = doJSON(t, r, "POST", "/v1/sanctions/search", `{"query": "x", "limit": 0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for limit 0, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSearchEndpointBadDOB(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/sanctions/search", `{"query": "x", "dob": "12/03/1965"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid_dob") {
		t.Fatalf("expected invalid_dob error, got %s", w.Body.String())
	}
}

func TestSearchEndpointDOBFilter(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/sanctions/search", `{"query": "John Doe", "dob": "1965-03-12"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp SearchResult
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 1 {
		t.Fatalf("expected the matching record, got %+v", resp)
	}

	w = doJSON(t, r, "POST", "/v1/sanctions/search", `{"query": "John Doe", "dob": "1990-01-01"}`)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 0 {
		t.Fatalf("non-matching dob should filter everything, got %+v", resp)
	}
}

func TestAssessEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/tron/reputation", `{"address": "TXYZ"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["risk"] != "medium" || resp["score"] != float64(40) {
		t.Fatalf("unexpected assessment: %v", resp)
	}
	if _, ok := resp["raw"]; ok {
		t.Fatal("raw telemetry should not be present by default")
	}
}

func TestAssessEndpointMissingAddress(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/v1/tron/reputation", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/screening/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp StatusReport
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if resp.Sanctions.State == "" || resp.Tron.State == "" {
		t.Fatalf("status must always report both subsystems: %+v", resp)
	}
}

func TestEventsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	// Generate a couple of audit events first.
	doJSON(t, r, "POST", "/v1/sanctions/search", `{"query": "John Doe"}`)
	doJSON(t, r, "POST", "/v1/tron/reputation", `{"address": "TXYZ"}`)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/v1/screening/events?limit=1", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Events []*Event `json:"events"`
		Count  int      `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode events: %v", err)
	}
	if resp.Count != 1 {
		t.Fatalf("expected limit to apply, got %d events", resp.Count)
	}
	// Newest first: the assessment came last.
	if resp.Events[0].Kind != EventAccountAssessment {
		t.Fatalf("expected newest event first, got %+v", resp.Events[0])
	}
}
