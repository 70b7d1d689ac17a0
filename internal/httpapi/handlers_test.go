package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nmehta6/aqi-server/internal/database"
	"github.com/nmehta6/aqi-server/internal/pollution"
	"github.com/nmehta6/aqi-server/internal/protocol"
	"github.com/nmehta6/aqi-server/internal/search"
	"github.com/nmehta6/aqi-server/internal/state"
)

type fakeGeocoder struct {
	candidates []search.Candidate
	err        error
}

func (f *fakeGeocoder) Search(ctx context.Context, query string, limit int) ([]search.Candidate, error) {
	return f.candidates, f.err
}

type fakePollution struct {
	reading *pollution.Reading
	err     error
	calls   int
}

func (f *fakePollution) Current(ctx context.Context, lat, lon float64) (*pollution.Reading, error) {
	f.calls++
	return f.reading, f.err
}

type fakeCache struct {
	readings    map[string]*pollution.Reading
	frequencies map[string]int
	increments  []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		readings:    make(map[string]*pollution.Reading),
		frequencies: make(map[string]int),
	}
}

func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f:%.4f", lat, lon)
}

func (f *fakeCache) GetReading(ctx context.Context, lat, lon float64) (*pollution.Reading, error) {
	return f.readings[coordKey(lat, lon)], nil
}

func (f *fakeCache) SetReading(ctx context.Context, lat, lon float64, reading *pollution.Reading, ttl time.Duration) error {
	f.readings[coordKey(lat, lon)] = reading
	return nil
}

func (f *fakeCache) IncrementFrequency(ctx context.Context, cityKey string) error {
	f.increments = append(f.increments, cityKey)
	return nil
}

func (f *fakeCache) GetFrequencies(ctx context.Context) (map[string]int, error) {
	return f.frequencies, nil
}

type fakePublisher struct {
	keys     []string
	payloads [][]byte
}

func (f *fakePublisher) Publish(ctx context.Context, key string, value []byte) error {
	f.keys = append(f.keys, key)
	f.payloads = append(f.payloads, value)
	return nil
}

type fakeHistory struct {
	city *database.City
	rows []*database.DailyAirQuality
}

func (f *fakeHistory) GetCity(name, country, state string) (*database.City, error) {
	return f.city, nil
}

func (f *fakeHistory) GetDailyAirQuality(cityID int64, days int) ([]*database.DailyAirQuality, error) {
	return f.rows, nil
}

var testReading = &pollution.Reading{
	PM25:      35.4,
	PM10:      40.0,
	NO2:       12.0,
	Timestamp: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
}

func londonGeocoder() *fakeGeocoder {
	return &fakeGeocoder{candidates: []search.Candidate{
		{Name: "London", Country: "GB", Lat: 51.5074, Lon: -0.1278},
		{Name: "London", Country: "CA", State: "Ontario", Lat: 42.9849, Lon: -81.2453},
	}}
}

func newTestServer(geocoder Geocoder, pollutionSource PollutionSource, cache ReadingCache, publisher Publisher, history HistoryStore) *Server {
	return NewServer(geocoder, pollutionSource, cache, publisher, history, state.NewContainer(), nil, 10*time.Minute, 5)
}

func TestHandleSearch_ShortQuery(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{}, newFakeCache(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cities/search?q=l", nil)
	rec := httptest.NewRecorder()
	server.HandleSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("Expected no results for a one-rune query, got %d", len(resp.Results))
	}
}

func TestHandleSearch_RanksCandidates(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{}, newFakeCache(), nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cities/search?q=lon", nil)
	rec := httptest.NewRecorder()
	server.HandleSearch(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var resp searchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Candidate.Name != "London" {
		t.Errorf("Expected London first, got %s", resp.Results[0].Candidate.Name)
	}
	if resp.Results[0].Score < resp.Results[1].Score {
		t.Errorf("Results not sorted by score: %v then %v", resp.Results[0].Score, resp.Results[1].Score)
	}
}

func TestHandleAQI(t *testing.T) {
	cache := newFakeCache()
	publisher := &fakePublisher{}
	pollutionSource := &fakePollution{reading: testReading}
	server := newTestServer(londonGeocoder(), pollutionSource, cache, publisher, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aqi?city=London", nil)
	rec := httptest.NewRecorder()
	server.HandleAQI(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp aqiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if resp.AQI != 100 {
		t.Errorf("Expected AQI 100 for PM2.5 35.4, got %d", resp.AQI)
	}
	if resp.Category != "moderate" {
		t.Errorf("Expected category moderate, got %s", resp.Category)
	}
	if resp.CigarettesPerDay != 1.61 {
		t.Errorf("Expected 1.61 cigarettes/day, got %v", resp.CigarettesPerDay)
	}
	if resp.QueryID == "" {
		t.Error("Expected a query ID")
	}
	if resp.Cached {
		t.Error("First lookup must not be served from cache")
	}

	if len(publisher.keys) != 1 || publisher.keys[0] != "london||gb" {
		t.Errorf("Expected one published message keyed london||gb, got %v", publisher.keys)
	}
	msg, err := protocol.DecodeReadingMessage(publisher.payloads[0])
	if err != nil {
		t.Fatalf("Published payload does not decode: %v", err)
	}
	if msg.PM25 != 35.4 || msg.QueryID != resp.QueryID {
		t.Errorf("Published message does not match response: %+v", msg)
	}

	if len(cache.increments) != 1 || cache.increments[0] != "london||gb" {
		t.Errorf("Expected one frequency increment for london||gb, got %v", cache.increments)
	}
	if _, ok := server.states.Get("london||gb"); !ok {
		t.Error("Expected a state snapshot for london||gb")
	}
}

func TestHandleAQI_MissingCity(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{reading: testReading}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aqi", nil)
	rec := httptest.NewRecorder()
	server.HandleAQI(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestHandleAQI_CountryFilter(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{reading: testReading}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aqi?city=London&country=CA", nil)
	rec := httptest.NewRecorder()
	server.HandleAQI(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp aqiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Country != "CA" || resp.State != "Ontario" {
		t.Errorf("Expected the Canadian London, got %s/%s", resp.Country, resp.State)
	}
}

func TestHandleAQI_UnknownCity(t *testing.T) {
	server := newTestServer(&fakeGeocoder{}, &fakePollution{reading: testReading}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aqi?city=Atlantis", nil)
	rec := httptest.NewRecorder()
	server.HandleAQI(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestHandleAQI_CacheHit(t *testing.T) {
	cache := newFakeCache()
	cache.readings[coordKey(51.5074, -0.1278)] = testReading
	pollutionSource := &fakePollution{err: fmt.Errorf("upstream must not be called")}
	server := newTestServer(londonGeocoder(), pollutionSource, cache, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aqi?city=London", nil)
	rec := httptest.NewRecorder()
	server.HandleAQI(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if pollutionSource.calls != 0 {
		t.Errorf("Expected no upstream calls on a cache hit, got %d", pollutionSource.calls)
	}

	var resp aqiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Cached {
		t.Error("Expected the response to be marked cached")
	}
}

func TestHandleAQI_Adjusted(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{reading: testReading}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aqi?city=London&temperature=35&humidity=90", nil)
	rec := httptest.NewRecorder()
	server.HandleAQI(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp aqiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.AdjustedAQI == nil {
		t.Fatal("Expected an adjusted AQI")
	}
	// Base 100 scaled by 1 + 0.01*10 + 0.005*20 = 1.2.
	if *resp.AdjustedAQI != 120 {
		t.Errorf("Expected adjusted AQI 120, got %d", *resp.AdjustedAQI)
	}
	if resp.AdjustedCategory == nil || *resp.AdjustedCategory != "unhealthy-sensitive" {
		t.Errorf("Expected adjusted category unhealthy-sensitive, got %v", resp.AdjustedCategory)
	}
}

func TestHandleAQI_InvalidTemperature(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{reading: testReading}, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/aqi?city=London&temperature=warm", nil)
	rec := httptest.NewRecorder()
	server.HandleAQI(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestHandleHistory(t *testing.T) {
	minAQI, maxAQI := 42, 128
	avgAQI := 85.5
	history := &fakeHistory{
		city: &database.City{ID: 7, Name: "London", Country: "GB"},
		rows: []*database.DailyAirQuality{
			{
				CityID:      7,
				Date:        time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC),
				MinAQI:      &minAQI,
				AvgAQI:      &avgAQI,
				MaxAQI:      &maxAQI,
				SampleCount: 12,
			},
		},
	}
	server := newTestServer(londonGeocoder(), &fakePollution{}, nil, nil, history)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?city=London&country=GB&days=3", nil)
	rec := httptest.NewRecorder()
	server.HandleHistory(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Days != 3 {
		t.Errorf("Expected days 3, got %d", resp.Days)
	}
	if len(resp.History) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(resp.History))
	}
	if resp.History[0].Date != "2026-08-23" {
		t.Errorf("Expected date 2026-08-23, got %s", resp.History[0].Date)
	}
	if resp.History[0].MaxAQI == nil || *resp.History[0].MaxAQI != 128 {
		t.Errorf("Expected max AQI 128, got %v", resp.History[0].MaxAQI)
	}
}

func TestHandleHistory_UnknownCity(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{}, nil, nil, &fakeHistory{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history?city=Atlantis", nil)
	rec := httptest.NewRecorder()
	server.HandleHistory(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestRoutes(t *testing.T) {
	server := newTestServer(londonGeocoder(), &fakePollution{reading: testReading}, newFakeCache(), nil, nil)
	router := server.Routes()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 from /health, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/aqi?city=London", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405 for POST, got %d", rec.Code)
	}
}
