// Package pollution fetches pollutant concentrations for a coordinate from
// an OpenWeather-style air pollution API.
package pollution

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Reading is a pollutant measurement snapshot for a location. Read-only to
// the conversion engine.
type Reading struct {
	PM25      float64   `json:"pm2_5"`
	PM10      float64   `json:"pm10"`
	NO2       float64   `json:"no2"`
	SO2       float64   `json:"so2"`
	O3        float64   `json:"o3"`
	CO        float64   `json:"co"`
	Timestamp time.Time `json:"timestamp"`
}

// Client calls the air pollution API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a pollution client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Upstream response shape: a list with one entry per timestamp.
type wireResponse struct {
	List []struct {
		Dt         int64 `json:"dt"`
		Components struct {
			CO   float64 `json:"co"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			SO2  float64 `json:"so2"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}

// Current returns the latest reading for a coordinate.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*Reading, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)

	endpoint := fmt.Sprintf("%s/air_pollution?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build pollution request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pollution request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pollution API returned status %d", resp.StatusCode)
	}

	var wire wireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode pollution response: %w", err)
	}

	if len(wire.List) == 0 {
		return nil, fmt.Errorf("pollution API returned no data for (%v, %v)", lat, lon)
	}

	entry := wire.List[0]
	return &Reading{
		PM25:      entry.Components.PM25,
		PM10:      entry.Components.PM10,
		NO2:       entry.Components.NO2,
		SO2:       entry.Components.SO2,
		O3:        entry.Components.O3,
		CO:        entry.Components.CO,
		Timestamp: time.Unix(entry.Dt, 0).UTC(),
	}, nil
}
