package skylanesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal Skylane HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Mission is a stored mission set (metadata only).
type Mission struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ConflictRecord is one detected conflict.
type ConflictRecord struct {
	Kind         string `json:"kind"`
	PrimaryIndex int    `json:"primary_index"`
	OtherID      string `json:"other_id"`
	OtherIndex   int    `json:"other_index"`
	WindowStart  int    `json:"window_start"`
	WindowEnd    int    `json:"window_end"`
	Description  string `json:"description"`
}

// CheckRun is a persisted conflict check and its verdict.
type CheckRun struct {
	ID            string           `json:"id"`
	MissionID     *string          `json:"mission_id,omitempty"`
	PrimaryID     string           `json:"primary_id"`
	Buffer        float64          `json:"buffer"`
	ConflictFound bool             `json:"conflict_found"`
	CreatedAt     string           `json:"created_at"`
	Records       []ConflictRecord `json:"records,omitempty"`
}

// Event represents a log entry.
type Event struct {
	ID         int64  `json:"id"`
	TS         string `json:"ts"`
	Type       string `json:"type"`
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id,omitempty"`
	ActorID    string `json:"actor_id"`
	Payload    string `json:"payload"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// ImportMission validates and stores a mission set document.
func (c *Client) ImportMission(ctx context.Context, name string, mission map[string]any) (Mission, error) {
	body := map[string]any{"mission": mission}
	if name != "" {
		body["name"] = name
	}
	var resp Mission
	err := c.do(ctx, http.MethodPost, "v0/missions", body, &resp)
	return resp, err
}

// ListMissions returns the stored missions.
func (c *Client) ListMissions(ctx context.Context) ([]Mission, error) {
	var resp []Mission
	err := c.do(ctx, http.MethodGet, "v0/missions", nil, &resp)
	return resp, err
}

// GetMission fetches one mission by id.
func (c *Client) GetMission(ctx context.Context, id string) (Mission, error) {
	var resp Mission
	err := c.do(ctx, http.MethodGet, "v0/missions/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// DeleteMission removes a mission.
func (c *Client) DeleteMission(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "v0/missions/"+url.PathEscape(id), nil, nil)
}

// RunCheck runs a conflict check against a stored mission. A nil buffer
// uses the server's configured default.
func (c *Client) RunCheck(ctx context.Context, missionID string, buffer *float64) (CheckRun, error) {
	body := map[string]any{"mission_id": missionID}
	if buffer != nil {
		body["buffer"] = *buffer
	}
	var resp CheckRun
	err := c.do(ctx, http.MethodPost, "v0/checks", body, &resp)
	return resp, err
}

// RunCheckInline runs a conflict check against an inline mission document.
func (c *Client) RunCheckInline(ctx context.Context, mission map[string]any, buffer *float64) (CheckRun, error) {
	body := map[string]any{"mission": mission}
	if buffer != nil {
		body["buffer"] = *buffer
	}
	var resp CheckRun
	err := c.do(ctx, http.MethodPost, "v0/checks", body, &resp)
	return resp, err
}

// GetCheck fetches a check run with its records.
func (c *Client) GetCheck(ctx context.Context, id string) (CheckRun, error) {
	var resp CheckRun
	err := c.do(ctx, http.MethodGet, "v0/checks/"+url.PathEscape(id), nil, &resp)
	return resp, err
}

// ListChecks returns recent check runs.
func (c *Client) ListChecks(ctx context.Context, limit int) ([]CheckRun, error) {
	endpoint := "v0/checks"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []CheckRun
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	endpoint := "v0/events"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp []Event
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
