package httpapi

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nmehta6/aqi-server/internal/aqi"
	"github.com/nmehta6/aqi-server/internal/pollution"
	"github.com/nmehta6/aqi-server/internal/protocol"
	"github.com/nmehta6/aqi-server/internal/search"
	"github.com/nmehta6/aqi-server/internal/state"
)

const (
	defaultHistoryDays = 7
	maxHistoryDays     = 90
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// HandleHealth reports liveness and the number of tracked cities.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"tracked_cities": s.states.Count(),
	})
}

type searchResponse struct {
	Query   string          `json:"query"`
	Results []search.Result `json:"results"`
}

// HandleSearch resolves a free-text query to ranked city candidates.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	// Sub-minimum queries are a valid request with an empty answer, not an
	// error: clients fire these on every keystroke.
	if len([]rune(query)) < search.MinQueryLength {
		writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: []search.Result{}})
		return
	}

	candidates, err := s.geocoder.Search(r.Context(), query, s.geoLimit)
	if err != nil {
		s.metrics.UpstreamError("geocoding")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("geocoding lookup failed: %v", err))
		return
	}

	frequencies := map[string]int{}
	if s.cache != nil {
		if freq, err := s.cache.GetFrequencies(r.Context()); err == nil {
			frequencies = freq
		} else {
			log.Printf("Failed to load search frequencies: %v", err)
		}
	}

	matcher := search.NewMatcher()
	matcher.Update(candidates, frequencies)
	results := matcher.Match(query)
	if results == nil {
		results = []search.Result{}
	}

	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}

type aqiResponse struct {
	QueryID          string        `json:"query_id"`
	City             string        `json:"city"`
	Country          string        `json:"country"`
	State            string        `json:"state,omitempty"`
	Lat              float64       `json:"lat"`
	Lon              float64       `json:"lon"`
	PM25             float64       `json:"pm2_5"`
	PM10             float64       `json:"pm10"`
	AQI              int           `json:"aqi"`
	Category         aqi.Category  `json:"category"`
	CategoryLabel    string        `json:"category_label"`
	CigarettesPerDay float64       `json:"cigarettes_per_day"`
	AdjustedAQI      *int          `json:"adjusted_aqi,omitempty"`
	AdjustedCategory *aqi.Category `json:"adjusted_category,omitempty"`
	MeasuredAt       time.Time     `json:"measured_at"`
	Cached           bool          `json:"cached"`
}

// HandleAQI resolves a city, fetches (or recalls) its pollution reading,
// derives the AQI view, and queues the served reading for persistence.
func (s *Server) HandleAQI(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	cityQuery := strings.TrimSpace(params.Get("city"))
	if cityQuery == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: city")
		return
	}
	country := strings.TrimSpace(params.Get("country"))

	candidate, err := s.resolveCity(r, cityQuery, country)
	if err != nil {
		s.metrics.UpstreamError("geocoding")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("geocoding lookup failed: %v", err))
		return
	}
	if candidate == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no city found for %q", cityQuery))
		return
	}

	reading, cached, err := s.currentReading(r, candidate.Lat, candidate.Lon)
	if err != nil {
		s.metrics.UpstreamError("pollution")
		writeError(w, http.StatusBadGateway, fmt.Sprintf("pollution lookup failed: %v", err))
		return
	}

	result, err := aqi.Compute(reading.PM25)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("cannot derive AQI: %v", err))
		return
	}

	response := aqiResponse{
		QueryID:          uuid.New().String(),
		City:             candidate.Name,
		Country:          candidate.Country,
		State:            candidate.State,
		Lat:              candidate.Lat,
		Lon:              candidate.Lon,
		PM25:             reading.PM25,
		PM10:             reading.PM10,
		AQI:              result.AQI,
		Category:         result.Category,
		CategoryLabel:    result.Category.Label(),
		CigarettesPerDay: result.CigarettesPerDay,
		MeasuredAt:       reading.Timestamp,
		Cached:           cached,
	}

	if adjusted, ok, err := adjustedFromParams(params, reading.PM25); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	} else if ok {
		category := aqi.ClassifyRisk(adjusted)
		response.AdjustedAQI = &adjusted
		response.AdjustedCategory = &category
	}

	s.recordServed(r, candidate, reading, result, response.QueryID)

	writeJSON(w, http.StatusOK, response)
}

// resolveCity picks the best geocoding candidate, honoring an explicit
// country filter when the client supplied one.
func (s *Server) resolveCity(r *http.Request, cityQuery, country string) (*search.Candidate, error) {
	candidates, err := s.geocoder.Search(r.Context(), cityQuery, s.geoLimit)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if country != "" {
		for i := range candidates {
			if strings.EqualFold(candidates[i].Country, country) {
				return &candidates[i], nil
			}
		}
		return nil, nil
	}

	return &candidates[0], nil
}

// currentReading consults the cache before the upstream API.
func (s *Server) currentReading(r *http.Request, lat, lon float64) (*pollution.Reading, bool, error) {
	ctx := r.Context()

	if s.cache != nil {
		reading, err := s.cache.GetReading(ctx, lat, lon)
		if err != nil {
			log.Printf("Reading cache lookup failed: %v", err)
		}
		if reading != nil {
			s.metrics.CacheHit()
			return reading, true, nil
		}
		s.metrics.CacheMiss()
	}

	reading, err := s.pollution.Current(ctx, lat, lon)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.SetReading(ctx, lat, lon, reading, s.cacheTTL); err != nil {
			log.Printf("Failed to cache reading: %v", err)
		}
	}

	return reading, false, nil
}

// adjustedFromParams applies the temperature/humidity heuristic when the
// client supplied either parameter. Missing values fall back to defaults.
func adjustedFromParams(params map[string][]string, pm25 float64) (int, bool, error) {
	values := func(key string) (float64, bool, error) {
		raw, ok := params[key]
		if !ok || len(raw) == 0 || raw[0] == "" {
			return 0, false, nil
		}
		v, err := strconv.ParseFloat(raw[0], 64)
		if err != nil {
			return 0, false, fmt.Errorf("invalid %s: %q", key, raw[0])
		}
		return v, true, nil
	}

	temperature, hasTemp, err := values("temperature")
	if err != nil {
		return 0, false, err
	}
	humidity, hasHum, err := values("humidity")
	if err != nil {
		return 0, false, err
	}
	if !hasTemp && !hasHum {
		return 0, false, nil
	}

	if !hasTemp {
		temperature = aqi.DefaultTemperature
	}
	if !hasHum {
		humidity = aqi.DefaultHumidity
	}

	adjusted, err := aqi.AdjustedAQI(pm25, temperature, humidity)
	if err != nil {
		return 0, false, fmt.Errorf("cannot derive adjusted AQI: %v", err)
	}
	return adjusted, true, nil
}

// recordServed fans the served reading out to the queue, the frequency
// counters and the in-memory state. Failures are logged, never surfaced:
// the client already has its answer.
func (s *Server) recordServed(r *http.Request, candidate *search.Candidate, reading *pollution.Reading, result aqi.Result, queryID string) {
	ctx := r.Context()
	cityKey := candidate.Key()

	if s.publisher != nil {
		msg := &protocol.ReadingMessage{
			QueryID:    queryID,
			CityName:   candidate.Name,
			Country:    candidate.Country,
			State:      candidate.State,
			Lat:        candidate.Lat,
			Lon:        candidate.Lon,
			PM25:       reading.PM25,
			PM10:       reading.PM10,
			NO2:        reading.NO2,
			SO2:        reading.SO2,
			O3:         reading.O3,
			CO:         reading.CO,
			MeasuredAt: reading.Timestamp,
			ServedAt:   time.Now().UTC(),
		}
		if data, err := protocol.EncodeReadingMessage(msg); err != nil {
			log.Printf("Failed to encode reading message: %v", err)
		} else if err := s.publisher.Publish(ctx, cityKey, data); err != nil {
			log.Printf("Failed to publish reading for %s: %v", cityKey, err)
		}
	}

	if s.cache != nil {
		if err := s.cache.IncrementFrequency(ctx, cityKey); err != nil {
			log.Printf("Failed to increment search frequency for %s: %v", cityKey, err)
		}
	}

	s.states.Update(state.Snapshot{
		CityKey:   cityKey,
		CityName:  candidate.DisplayName(),
		Lat:       candidate.Lat,
		Lon:       candidate.Lon,
		PM25:      reading.PM25,
		Result:    result,
		UpdatedAt: time.Now().UTC(),
	})
}

type historyDay struct {
	Date        string   `json:"date"`
	MinAQI      *int     `json:"min_aqi"`
	AvgAQI      *float64 `json:"avg_aqi"`
	MaxAQI      *int     `json:"max_aqi"`
	MinPM25     *float64 `json:"min_pm2_5"`
	AvgPM25     *float64 `json:"avg_pm2_5"`
	MaxPM25     *float64 `json:"max_pm2_5"`
	SampleCount int      `json:"sample_count"`
}

type historyResponse struct {
	City    string       `json:"city"`
	Country string       `json:"country"`
	State   string       `json:"state,omitempty"`
	Days    int          `json:"days"`
	History []historyDay `json:"history"`
}

// HandleHistory returns the daily AQI rollups for a known city.
func (s *Server) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history storage is not configured")
		return
	}

	params := r.URL.Query()
	cityName := strings.TrimSpace(params.Get("city"))
	if cityName == "" {
		writeError(w, http.StatusBadRequest, "missing required parameter: city")
		return
	}
	country := strings.TrimSpace(params.Get("country"))
	stateName := strings.TrimSpace(params.Get("state"))

	days := defaultHistoryDays
	if raw := params.Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid days: %q", raw))
			return
		}
		days = parsed
	}
	if days > maxHistoryDays {
		days = maxHistoryDays
	}

	city, err := s.history.GetCity(cityName, country, stateName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("city lookup failed: %v", err))
		return
	}
	if city == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no history for city %q", cityName))
		return
	}

	rows, err := s.history.GetDailyAirQuality(city.ID, days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("history lookup failed: %v", err))
		return
	}

	history := make([]historyDay, 0, len(rows))
	for _, row := range rows {
		history = append(history, historyDay{
			Date:        row.Date.Format("2006-01-02"),
			MinAQI:      row.MinAQI,
			AvgAQI:      row.AvgAQI,
			MaxAQI:      row.MaxAQI,
			MinPM25:     row.MinPM25,
			AvgPM25:     row.AvgPM25,
			MaxPM25:     row.MaxPM25,
			SampleCount: row.SampleCount,
		})
	}

	writeJSON(w, http.StatusOK, historyResponse{
		City:    city.Name,
		Country: city.Country,
		State:   city.State,
		Days:    days,
		History: history,
	})
}
