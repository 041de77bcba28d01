// Package sonar wraps the external policy analysis API.
package sonar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Analysis focus values understood by the API.
const (
	FocusComprehensive = "comprehensive"
	FocusEconomic      = "economic"
	FocusSocial        = "social"
	FocusEnvironmental = "environmental"
	FocusAcademic      = "academic"
	FocusNews          = "news"
)

// Source is one cited source in an analysis response. Academic sources carry
// a publication year; news sources carry an ISO date.
type Source struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Journal   string  `json:"journal"`
	Year      int     `json:"year"`
	Date      string  `json:"date,omitempty"`
	Sentiment float64 `json:"sentiment"`
	URL       string  `json:"url,omitempty"`
}

// Analysis is the API's response envelope. Fields beyond the typed ones stay
// available through Raw.
type Analysis struct {
	Summary string                 `json:"summary"`
	Sources []Source               `json:"sources"`
	Raw     map[string]interface{} `json:"-"`
}

// APIError is a non-2xx response from the analysis API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("sonar: API request failed: %d - %s", e.StatusCode, e.Body)
}

// Client calls the policy analysis API.
type Client struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewClient returns a client for the API at baseURL authenticating with
// apiKey.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// AnalyzePolicy submits policyText for analysis with the given focus. An
// empty focus defaults to comprehensive.
func (c *Client) AnalyzePolicy(ctx context.Context, policyText, focus string) (*Analysis, error) {
	if focus == "" {
		focus = FocusComprehensive
	}
	payload, err := json.Marshal(map[string]interface{}{
		"text":               policyText,
		"focus":              focus,
		"include_historical": true,
	})
	if err != nil {
		return nil, fmt.Errorf("sonar: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("sonar: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sonar: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sonar: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var analysis Analysis
	if err := json.Unmarshal(body, &analysis); err != nil {
		return nil, fmt.Errorf("sonar: decode response: %w", err)
	}
	if err := json.Unmarshal(body, &analysis.Raw); err != nil {
		return nil, fmt.Errorf("sonar: decode response: %w", err)
	}
	return &analysis, nil
}
