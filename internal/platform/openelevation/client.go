// Package openelevation implements domain.ElevationSource on top of the
// Open-Elevation lookup API.
package openelevation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// DefaultURL is the public lookup endpoint.
const DefaultURL = "https://api.open-elevation.com/api/v1/lookup"

var errNoResults = errors.New("empty results")

// Client queries terrain elevation one point at a time.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an Open-Elevation client. An empty baseURL selects
// DefaultURL and a zero timeout selects 10 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// Elevation returns the elevation in meters at (lat, lon). Every failure is
// reported as domain.ErrExternalUnavailable so callers can fall back.
func (c *Client) Elevation(ctx context.Context, lat, lon float64) (float64, error) {
	if err := domain.ValidateCoordinates(lat, lon); err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Set("locations", strconv.FormatFloat(lat, 'f', 6, 64)+","+strconv.FormatFloat(lon, 'f', 6, 64))

	var resp lookupResponse
	if err := c.doGet(ctx, params, &resp); err != nil {
		return 0, domain.Unavailable("open-elevation", fmt.Errorf("openelevation: lookup %.4f,%.4f: %w", lat, lon, err))
	}
	if len(resp.Results) == 0 || resp.Results[0].Elevation == nil {
		return 0, domain.Unavailable("open-elevation", fmt.Errorf("openelevation: lookup %.4f,%.4f: %w", lat, lon, errNoResults))
	}
	return *resp.Results[0].Elevation, nil
}

func (c *Client) doGet(ctx context.Context, params url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
