package sonar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_AnalyzePolicy(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"summary": "broad academic support",
			"sources": [
				{"id": "s1", "title": "Wage floors revisited", "journal": "J Labor Econ", "year": 2024, "sentiment": 0.8}
			],
			"model": "sonar-pro"
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	analysis, err := c.AnalyzePolicy(context.Background(), "Minimum wage increase to $15 per hour", FocusAcademic)
	if err != nil {
		t.Fatalf("AnalyzePolicy: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotPath != "/analyze" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["focus"] != "academic" || gotBody["include_historical"] != true {
		t.Errorf("request body = %v", gotBody)
	}
	if len(analysis.Sources) != 1 || analysis.Sources[0].Journal != "J Labor Econ" {
		t.Errorf("sources = %+v", analysis.Sources)
	}
	if analysis.Raw["model"] != "sonar-pro" {
		t.Errorf("raw payload not retained: %v", analysis.Raw)
	}
}

func TestClient_DefaultFocus(t *testing.T) {
	var gotFocus string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotFocus, _ = body["focus"].(string)
		w.Write([]byte(`{"summary":"","sources":[]}`))
	}))
	defer srv.Close()

	if _, err := NewClient("k", srv.URL).AnalyzePolicy(context.Background(), "text", ""); err != nil {
		t.Fatalf("AnalyzePolicy: %v", err)
	}
	if gotFocus != FocusComprehensive {
		t.Errorf("focus = %q, want comprehensive default", gotFocus)
	}
}

func TestClient_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", srv.URL).AnalyzePolicy(context.Background(), "text", FocusEconomic)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("status = %d", apiErr.StatusCode)
	}
	if !strings.Contains(apiErr.Error(), "rate limited") {
		t.Errorf("error should carry response body: %v", apiErr)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient("k", srv.URL).AnalyzePolicy(ctx, "text", ""); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
