// Package geocode resolves free-text city names to coordinates via an
// OpenWeather-style direct geocoding API. The API itself is an external
// collaborator; only the fields consumed here are part of the contract.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/nmehta6/aqi-server/internal/search"
)

// Client calls the geocoding API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a geocoding client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// wireCity is the upstream response shape.
type wireCity struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
}

// Search returns up to limit candidates for a city-name query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]search.Candidate, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("appid", c.apiKey)

	endpoint := fmt.Sprintf("%s/direct?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocoding request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned status %d", resp.StatusCode)
	}

	var cities []wireCity
	if err := json.NewDecoder(resp.Body).Decode(&cities); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}

	candidates := make([]search.Candidate, 0, len(cities))
	for _, city := range cities {
		candidates = append(candidates, search.Candidate{
			Name:    city.Name,
			Country: city.Country,
			State:   city.State,
			Lat:     city.Lat,
			Lon:     city.Lon,
		})
	}

	return candidates, nil
}
