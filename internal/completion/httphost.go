package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPHost talks to the host LMS's completion webservice.
type HTTPHost struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewHTTPHost(baseURL, token string) *HTTPHost {
	return &HTTPHost{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type stateResponse struct {
	AlreadyComplete       bool `json:"alreadycomplete"`
	TrackingEnabled       bool `json:"completiontracking"`
	WatchedAllRuleEnabled bool `json:"watchedallrule"`
}

func (h *HTTPHost) CompletionState(ctx context.Context, activityID, userID int64) (State, error) {
	u := fmt.Sprintf("%s/completion/state?cmid=%d&userid=%d", h.BaseURL, activityID, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return State{}, err
	}
	var out stateResponse
	if err := h.do(req, &out); err != nil {
		return State{}, fmt.Errorf("completion: state for activity %d: %w", activityID, err)
	}
	return State{
		AlreadyComplete:       out.AlreadyComplete,
		TrackingEnabled:       out.TrackingEnabled,
		WatchedAllRuleEnabled: out.WatchedAllRuleEnabled,
	}, nil
}

func (h *HTTPHost) MarkComplete(ctx context.Context, activityID, userID int64) (Fragment, error) {
	body, _ := json.Marshal(map[string]int64{"cmid": activityID, "userid": userID})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/completion/complete", bytes.NewReader(body))
	if err != nil {
		return Fragment{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var frag Fragment
	if err := h.do(req, &frag); err != nil {
		return Fragment{}, fmt.Errorf("completion: mark complete for activity %d: %w", activityID, err)
	}
	return frag, nil
}

func (h *HTTPHost) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d body=%q", resp.StatusCode, string(b[:min(len(b), 200)]))
	}
	return json.Unmarshal(b, out)
}
