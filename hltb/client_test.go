package hltb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesResults(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"title":"Hollow Knight","times":{"main":27.5,"allStyles":63}}]}`))
	}))
	defer server.Close()

	client, err := New(server.URL)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	candidates, err := client.Search(context.Background(), "Hollow Knight")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if gotQuery != "Hollow Knight" {
		t.Fatalf("expected query 'Hollow Knight', got %q", gotQuery)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Title != "Hollow Knight" {
		t.Fatalf("unexpected candidate title %q", candidates[0].Title)
	}
	if candidates[0].Times.Main == nil || *candidates[0].Times.Main != 27.5 {
		t.Fatalf("unexpected main time %v", candidates[0].Times.Main)
	}
	if candidates[0].Times.MainExtra != nil {
		t.Fatalf("absent milestones must stay nil")
	}
}

func TestSearchEmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	client, _ := New(server.URL)
	candidates, err := client.Search(context.Background(), "No Such Game")
	if err != nil {
		t.Fatalf("an empty result set is not an error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestSearchNon200IsError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := New(server.URL)
	if _, err := client.Search(context.Background(), "Hollow Knight"); err == nil {
		t.Fatalf("expected an error for a 500 response")
	}
	if requests != 1 {
		t.Fatalf("a non 200 response is unrecoverable, expected 1 request, got %d", requests)
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected an error for a blank base url")
	}
}
