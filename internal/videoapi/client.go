// Package videoapi is the HTTP client for the external video platform's
// progress API. The platform is the source of truth for per-video watch
// state; this client only reports and queries, it never caches.
package videoapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/example/lessontrack/internal/platform/signing"
)

// ServiceError wraps any transport, status or decode failure from the
// platform API. Callers must not record progress locally when they see one.
type ServiceError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("videoapi: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("videoapi: %s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// ProgressReport is one progress call to the platform. ResourceRef is empty
// when resource-level aggregation should not be evaluated server-side.
type ProgressReport struct {
	ExternalRef     string
	DurationSeconds int
	Status          string
	ResourceRef     string
	ResourceType    string
	ResetEpoch      int64
}

// ProgressResult carries the platform's aggregation verdict.
// CompletionStatus is true once every video in the resource has been
// watched after the given reset epoch.
type ProgressResult struct {
	CompletionStatus bool
}

// Counts is the resource-level video tally used for reconciliation.
type Counts struct {
	VideoCount   int
	WatchedCount int
}

type Client struct {
	BaseURL    string
	APIKey     string
	Origin     string
	Signer     *signing.Signer
	HTTPClient *http.Client
}

func New(baseURL, apiKey, origin string, signer *signing.Signer) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		Origin:     origin,
		Signer:     signer,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type progressResponse struct {
	Result struct {
		CompletionStatus bool `json:"completionstatus"`
	} `json:"result"`
}

type countsResponse struct {
	Result struct {
		VideoCount   int `json:"videocount"`
		WatchedCount int `json:"watchedcount"`
	} `json:"result"`
}

// ReportProgress posts one watch report. One signed call per invocation,
// no retries; retry policy belongs to the caller.
func (c *Client) ReportProgress(ctx context.Context, r ProgressReport) (ProgressResult, error) {
	if strings.TrimSpace(r.ExternalRef) == "" {
		return ProgressResult{}, &ServiceError{Op: "report_progress", Err: fmt.Errorf("externalref required")}
	}
	payload := map[string]any{
		"externalref": r.ExternalRef,
		"duration":    r.DurationSeconds,
		"status":      r.Status,
		"resourceref": r.ResourceRef,
		"type":        r.ResourceType,
		"resetdate":   r.ResetEpoch,
	}
	var out progressResponse
	if err := c.post(ctx, "report_progress", "/api/v1/update_progress", payload, &out); err != nil {
		return ProgressResult{}, err
	}
	return ProgressResult{CompletionStatus: out.Result.CompletionStatus}, nil
}

// VideoCounts returns the total and watched video counts for a resource.
// Always a fresh read.
func (c *Client) VideoCounts(ctx context.Context, externalRef, resourceType string) (Counts, error) {
	if strings.TrimSpace(externalRef) == "" {
		return Counts{}, &ServiceError{Op: "video_counts", Err: fmt.Errorf("externalref required")}
	}
	payload := map[string]any{
		"externalref": externalRef,
		"type":        resourceType,
	}
	var out countsResponse
	if err := c.post(ctx, "video_counts", "/api/v1/video_counts", payload, &out); err != nil {
		return Counts{}, err
	}
	return Counts{VideoCount: out.Result.VideoCount, WatchedCount: out.Result.WatchedCount}, nil
}

func (c *Client) post(ctx context.Context, op, path string, payload map[string]any, out any) error {
	token, err := c.Signer.SignPayload(payload)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(token))
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/jose")
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	if c.Origin != "" {
		req.Header.Set("Origin", c.Origin)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("body=%q", string(b[:min(len(b), 200)]))}
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode,
			Err: fmt.Errorf("decode error: %w body=%q", err, string(b[:min(len(b), 200)]))}
	}
	return nil
}
