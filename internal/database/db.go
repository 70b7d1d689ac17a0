package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/lib/pq"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// Connect establishes a connection to the database
func Connect(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return &DB{db}, nil
}

// RunMigrations executes all SQL migration files in order
func (db *DB) RunMigrations(migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var sqlFiles []string
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".sql") {
			sqlFiles = append(sqlFiles, file.Name())
		}
	}
	sort.Strings(sqlFiles)

	for _, filename := range sqlFiles {
		fmt.Printf("Running migration: %s\n", filename)

		filePath := filepath.Join(migrationsDir, filename)
		content, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		if _, err := db.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", filename, err)
		}
	}

	fmt.Println("All migrations completed successfully")
	return nil
}

// UpsertCity inserts or updates a city and returns its ID
func (db *DB) UpsertCity(city *City) error {
	query := `
		INSERT INTO cities (name, country, state, lat, lon)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name, country, state) DO UPDATE
		SET lat = EXCLUDED.lat,
		    lon = EXCLUDED.lon,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`
	return db.QueryRow(query, city.Name, city.Country, city.State, city.Lat, city.Lon).Scan(&city.ID)
}

// GetCity retrieves a city by name, case-insensitively. Empty country or
// state match any value.
func (db *DB) GetCity(name, country, state string) (*City, error) {
	query := `
		SELECT id, name, country, state, lat, lon, created_at, updated_at
		FROM cities
		WHERE LOWER(name) = LOWER($1)
		  AND ($2 = '' OR LOWER(country) = LOWER($2))
		  AND ($3 = '' OR LOWER(state) = LOWER($3))
		ORDER BY id
		LIMIT 1
	`

	var city City
	err := db.QueryRow(query, name, country, state).Scan(
		&city.ID,
		&city.Name,
		&city.Country,
		&city.State,
		&city.Lat,
		&city.Lon,
		&city.CreatedAt,
		&city.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &city, nil
}

// InsertAirReading inserts a served pollution reading with its derived index
func (db *DB) InsertAirReading(reading *AirReading) error {
	query := `
		INSERT INTO air_readings (
			query_id, city_id, measured_at, pm2_5, pm10, no2, so2, o3, co,
			aqi, category, cigarettes_per_day, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	return db.QueryRow(
		query,
		reading.QueryID,
		reading.CityID,
		reading.MeasuredAt,
		reading.PM25,
		reading.PM10,
		reading.NO2,
		reading.SO2,
		reading.O3,
		reading.CO,
		reading.AQI,
		reading.Category,
		reading.CigarettesPerDay,
		reading.ReceivedAt,
	).Scan(&reading.ID)
}

// GetDailyAirQuality retrieves daily rollups for a city, newest first
func (db *DB) GetDailyAirQuality(cityID int64, days int) ([]*DailyAirQuality, error) {
	query := `
		SELECT id, city_id, date, min_aqi, avg_aqi, max_aqi,
		       min_pm2_5, avg_pm2_5, max_pm2_5, sample_count, created_at
		FROM daily_air_quality
		WHERE city_id = $1 AND date >= CURRENT_DATE - $2::int
		ORDER BY date DESC
	`

	rows, err := db.Query(query, cityID, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*DailyAirQuality
	for rows.Next() {
		var s DailyAirQuality
		if err := rows.Scan(
			&s.ID,
			&s.CityID,
			&s.Date,
			&s.MinAQI,
			&s.AvgAQI,
			&s.MaxAQI,
			&s.MinPM25,
			&s.AvgPM25,
			&s.MaxPM25,
			&s.SampleCount,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}

	return summaries, rows.Err()
}
