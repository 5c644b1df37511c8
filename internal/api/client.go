package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// HTTPDoer describes the HTTP client used to reach the daemon.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a running splice daemon over its HTTP API.
type Client struct {
	baseURL string
	client  HTTPDoer
}

// NewClient builds a client for the daemon at bind (host:port or full URL).
func NewClient(bind string, doer HTTPDoer) *Client {
	base := strings.TrimSpace(bind)
	if base != "" && !strings.Contains(base, "://") {
		base = "http://" + base
	}
	if doer == nil {
		doer = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		client:  doer,
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.getJSON(ctx, "/api/status", nil, &status)
	return status, err
}

// Jobs fetches the most recent job records. A limit <= 0 asks for the
// server default.
func (c *Client) Jobs(ctx context.Context, limit int) ([]JobRecord, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var payload JobListResponse
	if err := c.getJSON(ctx, "/api/jobs", query, &payload); err != nil {
		return nil, err
	}
	return payload.Jobs, nil
}

// Job fetches one job record by id.
func (c *Client) Job(ctx context.Context, id string) (JobRecord, error) {
	var payload JobResponse
	err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(strings.TrimSpace(id)), nil, &payload)
	return payload.Job, err
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("daemon address not configured")
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach daemon at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeErrorResponse(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		if payload.Details != "" {
			return fmt.Errorf("daemon returned %d: %s: %s", resp.StatusCode, payload.Error, payload.Details)
		}
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("daemon returned %d", resp.StatusCode)
}
