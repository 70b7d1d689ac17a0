// Package protocol defines the JSON message types carried on the readings
// topic between the API server and the persistence worker.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// ReadingMessage is published by the API server for every pollution reading
// it serves, keyed by city so a city's readings stay on one partition.
type ReadingMessage struct {
	QueryID    string    `json:"query_id"`
	CityName   string    `json:"city_name"`
	Country    string    `json:"country"`
	State      string    `json:"state,omitempty"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	PM25       float64   `json:"pm2_5"`
	PM10       float64   `json:"pm10"`
	NO2        float64   `json:"no2"`
	SO2        float64   `json:"so2"`
	O3         float64   `json:"o3"`
	CO         float64   `json:"co"`
	MeasuredAt time.Time `json:"measured_at"`
	ServedAt   time.Time `json:"served_at"`
}

// CityKey is the Kafka partition key and the identity used for frequency
// counts: (name, state, country), lower-cased.
func (m *ReadingMessage) CityKey() string {
	return strings.ToLower(m.CityName + "|" + m.State + "|" + m.Country)
}

// Validate checks the fields the worker depends on.
func (m *ReadingMessage) Validate() error {
	if m.QueryID == "" {
		return fmt.Errorf("query_id is required")
	}
	if m.CityName == "" {
		return fmt.Errorf("city_name is required")
	}
	if m.Country == "" {
		return fmt.Errorf("country is required")
	}
	if m.MeasuredAt.IsZero() {
		return fmt.Errorf("measured_at is required")
	}
	if math.IsNaN(m.PM25) || math.IsInf(m.PM25, 0) {
		return fmt.Errorf("pm2_5 is not a finite number")
	}
	return nil
}

// EncodeReadingMessage encodes a ReadingMessage to JSON.
func EncodeReadingMessage(msg *ReadingMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeReadingMessage decodes and validates JSON into a ReadingMessage.
func DecodeReadingMessage(data []byte) (*ReadingMessage, error) {
	var msg ReadingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reading message: %w", err)
	}
	return &msg, nil
}
