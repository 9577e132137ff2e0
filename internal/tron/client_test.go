package tron

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("address"); got != "TAddr" {
			t.Errorf("expected address query param, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"balance": 1000000, "witness": true}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AccountURL: srv.URL})
	payload, err := c.FetchAccount(context.Background(), "TAddr")
	if err != nil {
		t.Fatalf("FetchAccount: %v", err)
	}
	if payload["balance"] != float64(1000000) {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestFetchAccountBlankAddress(t *testing.T) {
	c := NewClient(ClientConfig{AccountURL: "http://localhost:0"})
	if _, err := c.FetchAccount(context.Background(), "   "); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestFetchAccountUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AccountURL: srv.URL})
	if _, err := c.FetchAccount(context.Background(), "TAddr"); !errors.Is(err, ErrTelemetryUnavailable) {
		t.Fatalf("expected ErrTelemetryUnavailable, got %v", err)
	}
}

func TestFetchAccountBadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AccountURL: srv.URL})
	if _, err := c.FetchAccount(context.Background(), "TAddr"); !errors.Is(err, ErrTelemetryUnavailable) {
		t.Fatalf("expected ErrTelemetryUnavailable, got %v", err)
	}
}

func TestFetchAccountRetriesTransientFailure(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			http.Error(w, "boom", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"balance": 42}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AccountURL: srv.URL})
	payload, err := c.FetchAccount(context.Background(), "TAddr")
	if err != nil {
		t.Fatalf("FetchAccount: %v", err)
	}
	if payload["balance"] != float64(42) {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if hits != 3 {
		t.Fatalf("expected 3 attempts, got %d", hits)
	}
}

func TestFetchAccountNoRetryOnClientError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{AccountURL: srv.URL})
	if _, err := c.FetchAccount(context.Background(), "TAddr"); !errors.Is(err, ErrTelemetryUnavailable) {
		t.Fatalf("expected ErrTelemetryUnavailable, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected a single attempt, got %d", hits)
	}
}
