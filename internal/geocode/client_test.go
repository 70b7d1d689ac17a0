package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/direct" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "london" {
			t.Errorf("Expected q=london, got %s", got)
		}
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("Expected appid=test-key, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name":"London","lat":51.5074,"lon":-0.1278,"country":"GB"},
			{"name":"London","lat":42.9849,"lon":-81.2453,"country":"CA","state":"Ontario"}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", 5*time.Second)

	candidates, err := client.Search(context.Background(), "london", 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].Country != "GB" {
		t.Errorf("Expected GB, got %s", candidates[0].Country)
	}
	if candidates[1].State != "Ontario" {
		t.Errorf("Expected Ontario, got %s", candidates[1].State)
	}
	if candidates[0].Lat != 51.5074 {
		t.Errorf("Expected lat 51.5074, got %v", candidates[0].Lat)
	}
}

func TestClient_SearchUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad-key", 5*time.Second)

	if _, err := client.Search(context.Background(), "london", 5); err == nil {
		t.Error("Expected error for non-200 upstream response")
	}
}
