// Package geocode resolves street addresses to coordinates through a
// Nominatim-compatible search endpoint.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mbodj/retam/internal/logger"
)

// DefaultBaseURL is the public Nominatim instance.
const DefaultBaseURL = "https://nominatim.openstreetmap.org"

const defaultTimeout = 10 * time.Second

// ErrServiceUnavailable means the upstream geocoder could not be reached
// or answered with a non-200 status.
var ErrServiceUnavailable = errors.New("geocoding service unavailable")

// Result is one geocoding candidate.
type Result struct {
	DisplayName string  `json:"displayName"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// Client queries a Nominatim-compatible endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logger.Logger
}

// NewClient creates a geocoding client. An empty baseURL falls back to the
// public Nominatim instance.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// nominatimHit mirrors the subset of the Nominatim response we read.
// Coordinates arrive as strings.
type nominatimHit struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search geocodes an address and returns up to limit candidates. Upstream
// failures surface as ErrServiceUnavailable.
func (c *Client) Search(ctx context.Context, address string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {strconv.Itoa(limit)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", "retam/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("Geocoding request failed", map[string]interface{}{
			"address": address,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", ErrServiceUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("Geocoding service returned non-200", map[string]interface{}{
			"address": address,
			"status":  resp.StatusCode,
		})
		return nil, fmt.Errorf("%w: status %d", ErrServiceUnavailable, resp.StatusCode)
	}

	var hits []nominatimHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, fmt.Errorf("%w: malformed response", ErrServiceUnavailable)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		lat, errLat := strconv.ParseFloat(h.Lat, 64)
		lon, errLon := strconv.ParseFloat(h.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		results = append(results, Result{
			DisplayName: h.DisplayName,
			Lat:         lat,
			Lon:         lon,
		})
	}

	return results, nil
}
