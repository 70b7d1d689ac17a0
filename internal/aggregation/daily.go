// Package aggregation rolls served readings up into daily per-city air
// quality summaries backing the history endpoint.
package aggregation

import (
	"fmt"
	"time"

	"github.com/nmehta6/aqi-server/internal/database"
)

// DailyAggregator performs daily aggregation
type DailyAggregator struct {
	db *database.DB
}

// NewDailyAggregator creates a new daily aggregator
func NewDailyAggregator(db *database.DB) *DailyAggregator {
	return &DailyAggregator{db: db}
}

// Aggregate performs daily aggregation for the specified date
func (d *DailyAggregator) Aggregate(targetDate time.Time) error {
	date := targetDate.Truncate(24 * time.Hour)

	fmt.Printf("Running daily air quality rollup for %s\n", date.Format("2006-01-02"))

	query := `
		INSERT INTO daily_air_quality (
			city_id, date,
			min_aqi, avg_aqi, max_aqi,
			min_pm2_5, avg_pm2_5, max_pm2_5,
			sample_count
		)
		SELECT
			city_id,
			$1::date AS date,
			MIN(aqi) AS min_aqi,
			AVG(aqi) AS avg_aqi,
			MAX(aqi) AS max_aqi,
			MIN(pm2_5) AS min_pm2_5,
			AVG(pm2_5) AS avg_pm2_5,
			MAX(pm2_5) AS max_pm2_5,
			COUNT(*) AS sample_count
		FROM
			air_readings
		WHERE
			DATE(measured_at) = $1::date
		GROUP BY
			city_id
		ON CONFLICT (city_id, date) DO UPDATE
		SET
			min_aqi = EXCLUDED.min_aqi,
			avg_aqi = EXCLUDED.avg_aqi,
			max_aqi = EXCLUDED.max_aqi,
			min_pm2_5 = EXCLUDED.min_pm2_5,
			avg_pm2_5 = EXCLUDED.avg_pm2_5,
			max_pm2_5 = EXCLUDED.max_pm2_5,
			sample_count = EXCLUDED.sample_count
	`

	result, err := d.db.Exec(query, date)
	if err != nil {
		return fmt.Errorf("failed to aggregate daily data: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	fmt.Printf("Daily rollup completed: %d cities processed\n", rowsAffected)

	return nil
}

// AggregatePreviousDay aggregates the previous full day
func (d *DailyAggregator) AggregatePreviousDay() error {
	now := time.Now()
	yesterday := now.AddDate(0, 0, -1).Truncate(24 * time.Hour)
	return d.Aggregate(yesterday)
}

// CalculateNextRunTime calculates when the daily rollup should next run.
// It runs at a specific time each day (e.g., 00:05:00).
func (d *DailyAggregator) CalculateNextRunTime(timeOfDay string) (time.Time, error) {
	now := time.Now()

	// Parse time of day (format: "HH:MM")
	var hour, minute int
	if _, err := fmt.Sscanf(timeOfDay, "%d:%d", &hour, &minute); err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %s (expected HH:MM)", timeOfDay)
	}

	todayRun := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	if now.After(todayRun) {
		return todayRun.AddDate(0, 0, 1), nil
	}

	return todayRun, nil
}
