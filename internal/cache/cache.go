// Package cache holds the short-lived Redis state: the most-recent pollution
// snapshot per coordinate, and the accumulated search-frequency counters that
// feed the matcher's popularity tiebreak.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nmehta6/aqi-server/internal/pollution"
)

// Cache manages reading snapshots and frequency counters in Redis.
type Cache struct {
	redis *redis.Client
}

// New creates a new cache
func New(redisClient *redis.Client) *Cache {
	return &Cache{redis: redisClient}
}

func readingKey(lat, lon float64) string {
	// Four decimals is ~11m, more than enough to identify a city centroid.
	return fmt.Sprintf("reading:%.4f:%.4f", lat, lon)
}

// GetReading returns the cached reading for a coordinate, or nil on a miss.
func (c *Cache) GetReading(ctx context.Context, lat, lon float64) (*pollution.Reading, error) {
	data, err := c.redis.Get(ctx, readingKey(lat, lon)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading from Redis: %w", err)
	}

	var reading pollution.Reading
	if err := json.Unmarshal([]byte(data), &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached reading: %w", err)
	}

	return &reading, nil
}

// SetReading caches a reading for a coordinate with the given TTL.
func (c *Cache) SetReading(ctx context.Context, lat, lon float64, reading *pollution.Reading, ttl time.Duration) error {
	data, err := json.Marshal(reading)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	if err := c.redis.Set(ctx, readingKey(lat, lon), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set reading in Redis: %w", err)
	}

	return nil
}

const frequencyPrefix = "search_freq:"

// IncrementFrequency bumps the search counter for a city identity key.
func (c *Cache) IncrementFrequency(ctx context.Context, cityKey string) error {
	if err := c.redis.Incr(ctx, frequencyPrefix+cityKey).Err(); err != nil {
		return fmt.Errorf("failed to increment frequency: %w", err)
	}
	return nil
}

// GetFrequencies returns all accumulated search counters, keyed by city
// identity. Counters that fail to parse are skipped.
func (c *Cache) GetFrequencies(ctx context.Context) (map[string]int, error) {
	keys, err := c.redis.Keys(ctx, frequencyPrefix+"*").Result()
	if err != nil {
		return nil, err
	}

	frequencies := make(map[string]int, len(keys))
	for _, key := range keys {
		count, err := c.redis.Get(ctx, key).Int()
		if err != nil {
			continue
		}
		frequencies[key[len(frequencyPrefix):]] = count
	}

	return frequencies, nil
}
