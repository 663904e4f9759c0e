package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/TimurManjosov/segmentd/internal/evaluation"
	"github.com/TimurManjosov/segmentd/internal/snapshot"
	"github.com/TimurManjosov/segmentd/internal/store"
)

// Client is an HTTP client for the segmentd API
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UpsertSegment creates or updates a segment
func (c *Client) UpsertSegment(ctx context.Context, params store.UpsertParams) error {
	body, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/segments", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// ListSegments retrieves all segments from the server snapshot, sorted by key
func (c *Client) ListSegments(ctx context.Context) ([]snapshot.SegmentView, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/segments", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var snap snapshot.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	segments := make([]snapshot.SegmentView, 0, len(snap.Segments))
	for _, seg := range snap.Segments {
		segments = append(segments, seg)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Key < segments[j].Key })

	return segments, nil
}

// GetSegment retrieves a single segment by key
func (c *Client) GetSegment(ctx context.Context, key string) (*snapshot.SegmentView, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.BaseURL+"/v1/segments/"+key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("segment not found: %s", key)
	}
	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var seg snapshot.SegmentView
	if err := json.NewDecoder(resp.Body).Decode(&seg); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &seg, nil
}

// DeleteSegment deletes a segment
func (c *Client) DeleteSegment(ctx context.Context, key string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.BaseURL+"/v1/segments/"+key, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	return nil
}

// EvaluateRequest is the payload for POST /v1/evaluate.
type EvaluateRequest struct {
	User     EvaluateUser      `json:"user"`
	Segments map[string]string `json:"segments,omitempty"`
	Keys     []string          `json:"keys,omitempty"`
}

// EvaluateUser is the user document under evaluation.
type EvaluateUser struct {
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// EvaluateResponse is the server's evaluation answer.
type EvaluateResponse struct {
	Results     []evaluation.Result `json:"results"`
	ETag        string              `json:"etag,omitempty"`
	EvaluatedAt string              `json:"evaluatedAt"`
}

// Evaluate runs a user document against stored or ad-hoc segments
func (c *Client) Evaluate(ctx context.Context, evalReq EvaluateRequest) (*EvaluateResponse, error) {
	body, err := json.Marshal(evalReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var result EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
