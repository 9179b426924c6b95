package atmosphere

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"atmodensity/internal/models"
)

// RunPath is the model service endpoint evaluating one timestamp over a grid
const RunPath = "/run"

// runRequest is the JSON body posted to the model service
type runRequest struct {
	Time    time.Time      `json:"time"`
	AltKm   float64        `json:"alt_km"`
	GLat    [][]float64    `json:"glat"`
	GLon    [][]float64    `json:"glon"`
	Indices models.Indices `json:"indices"`
}

// Client calls an atmospheric model service over HTTP
type Client struct {
	client  *resty.Client
	baseURL string
}

// NewClient creates a model client with its own resty instance
func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	return NewClientWithResty(client, baseURL)
}

// NewClientWithResty creates a model client on an existing resty client
func NewClientWithResty(client *resty.Client, baseURL string) *Client {
	return &Client{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Run evaluates the model at t and altKm over grid. Nil indices are omitted
// from the request so the service falls back to its own value for each one.
func (c *Client) Run(ctx context.Context, t time.Time, altKm float64, grid models.Grid, idx models.Indices) (*models.Dataset, error) {
	body := runRequest{
		Time:    t.UTC(),
		AltKm:   altKm,
		GLat:    grid.Lat,
		GLon:    grid.Lon,
		Indices: idx,
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.baseURL + RunPath)
	if err != nil {
		return nil, fmt.Errorf("failed to call atmospheric model: %w", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("atmospheric model returned status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var ds models.Dataset
	if err := json.Unmarshal(resp.Body(), &ds); err != nil {
		return nil, fmt.Errorf("failed to parse atmospheric model response: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid atmospheric model dataset: %w", err)
	}
	return &ds, nil
}
