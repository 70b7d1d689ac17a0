package database

import (
	"time"
)

// City represents a geocoded city we have served readings for.
// Identity is (name, country, state).
type City struct {
	ID        int64
	Name      string
	Country   string
	State     string
	Lat       float64
	Lon       float64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AirReading represents one served pollution reading with its derived index.
type AirReading struct {
	ID               int64
	QueryID          string
	CityID           int64
	MeasuredAt       time.Time
	PM25             float64
	PM10             *float64
	NO2              *float64
	SO2              *float64
	O3               *float64
	CO               *float64
	AQI              int
	Category         string
	CigarettesPerDay float64
	ReceivedAt       time.Time
}

// DailyAirQuality represents a daily rollup of served readings for a city.
type DailyAirQuality struct {
	ID          int64
	CityID      int64
	Date        time.Time
	MinAQI      *int
	AvgAQI      *float64
	MaxAQI      *int
	MinPM25     *float64
	AvgPM25     *float64
	MaxPM25     *float64
	SampleCount int
	CreatedAt   time.Time
}
