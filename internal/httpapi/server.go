// Package httpapi exposes the public HTTP surface: city search, on-demand
// AQI lookups, and per-city history.
package httpapi

import (
	"context"
	"time"

	"github.com/nmehta6/aqi-server/internal/database"
	"github.com/nmehta6/aqi-server/internal/observability"
	"github.com/nmehta6/aqi-server/internal/pollution"
	"github.com/nmehta6/aqi-server/internal/search"
	"github.com/nmehta6/aqi-server/internal/state"
)

// Geocoder resolves free-text city queries to candidates.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]search.Candidate, error)
}

// PollutionSource returns the current reading for a coordinate.
type PollutionSource interface {
	Current(ctx context.Context, lat, lon float64) (*pollution.Reading, error)
}

// ReadingCache is the Redis-backed cache of readings and search counters.
type ReadingCache interface {
	GetReading(ctx context.Context, lat, lon float64) (*pollution.Reading, error)
	SetReading(ctx context.Context, lat, lon float64, reading *pollution.Reading, ttl time.Duration) error
	IncrementFrequency(ctx context.Context, cityKey string) error
	GetFrequencies(ctx context.Context) (map[string]int, error)
}

// Publisher hands served readings to the persistence queue.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

// HistoryStore reads aggregated history from the database.
type HistoryStore interface {
	GetCity(name, country, state string) (*database.City, error)
	GetDailyAirQuality(cityID int64, days int) ([]*database.DailyAirQuality, error)
}

// Server holds the handlers' collaborators.
type Server struct {
	geocoder   Geocoder
	pollution  PollutionSource
	cache      ReadingCache
	publisher  Publisher
	history    HistoryStore
	states     *state.Container
	metrics    *observability.Metrics
	cacheTTL   time.Duration
	geoLimit   int
}

// NewServer creates the HTTP API server. publisher, history, cache and
// metrics may be nil; the corresponding features degrade gracefully.
func NewServer(
	geocoder Geocoder,
	pollutionSource PollutionSource,
	cache ReadingCache,
	publisher Publisher,
	history HistoryStore,
	states *state.Container,
	metrics *observability.Metrics,
	cacheTTL time.Duration,
	geoLimit int,
) *Server {
	if states == nil {
		states = state.NewContainer()
	}
	if geoLimit <= 0 {
		geoLimit = 5
	}
	return &Server{
		geocoder:  geocoder,
		pollution: pollutionSource,
		cache:     cache,
		publisher: publisher,
		history:   history,
		states:    states,
		metrics:   metrics,
		cacheTTL:  cacheTTL,
		geoLimit:  geoLimit,
	}
}
