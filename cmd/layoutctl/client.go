package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/xelth-com/facilitymap/internal/layout"
	"github.com/xelth-com/facilitymap/internal/models"
)

// apiError is the body of {"error": ...}
type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *apiError) Error() string {
	if field, ok := e.Details["field"]; ok {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

// Client talks to the facility map API
type Client struct {
	httpClient *resty.Client
}

// NewClient builds a client for baseURL authenticating with token
func NewClient(baseURL, token string) *Client {
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &Client{httpClient: client}
}

// do sends a request and unwraps the response envelope into out
func (c *Client) do(method, path string, body, out any) error {
	var env envelope
	req := c.httpClient.R().SetResult(&env).SetError(&env)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	if env.Error != nil {
		return env.Error
	}
	if resp.IsError() {
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode())
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// FloorPlan fetches a plan snapshot by id
func (c *Client) FloorPlan(id string) (*models.FloorPlan, error) {
	var fp models.FloorPlan
	if err := c.do(resty.MethodGet, "/api/floorplans/"+id, nil, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// FloorPlanOfFloor fetches the plan attached to a floor
func (c *Client) FloorPlanOfFloor(floorID string) (*models.FloorPlan, error) {
	var fp models.FloorPlan
	if err := c.do(resty.MethodGet, "/api/floors/"+floorID+"/floorplan", nil, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}

// BulkUpdate applies in to the plan and returns the resulting snapshot
func (c *Client) BulkUpdate(id string, in layout.BulkUpdateInput) (*models.FloorPlan, error) {
	var fp models.FloorPlan
	if err := c.do(resty.MethodPut, "/api/floorplans/"+id+"/bulk", in, &fp); err != nil {
		return nil, err
	}
	return &fp, nil
}
