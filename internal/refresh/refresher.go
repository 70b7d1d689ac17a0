// Package refresh keeps tracked cities current: every interval it re-fetches
// the pollution reading for each city in the state container, rewarms the
// cache and republishes the snapshot, so the gauge and cache stay fresh
// between user queries.
package refresh

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nmehta6/aqi-server/internal/aqi"
	"github.com/nmehta6/aqi-server/internal/pollution"
	"github.com/nmehta6/aqi-server/internal/schedule"
	"github.com/nmehta6/aqi-server/internal/state"
)

const jobID = "reading-refresh"

// PollutionSource returns the current reading for a coordinate.
type PollutionSource interface {
	Current(ctx context.Context, lat, lon float64) (*pollution.Reading, error)
}

// ReadingCache stores refreshed readings.
type ReadingCache interface {
	SetReading(ctx context.Context, lat, lon float64, reading *pollution.Reading, ttl time.Duration) error
}

// Refresher periodically re-fetches readings for every tracked city.
type Refresher struct {
	scheduler *schedule.Scheduler
	states    *state.Container
	source    PollutionSource
	cache     ReadingCache
	interval  time.Duration
	ttl       time.Duration
}

// New creates a refresher. cache may be nil.
func New(scheduler *schedule.Scheduler, states *state.Container, source PollutionSource, cache ReadingCache, interval, ttl time.Duration) *Refresher {
	return &Refresher{
		scheduler: scheduler,
		states:    states,
		source:    source,
		cache:     cache,
		interval:  interval,
		ttl:       ttl,
	}
}

// Start schedules the first refresh cycle.
func (r *Refresher) Start() {
	r.scheduleNext()
}

func (r *Refresher) scheduleNext() {
	callback := func() {
		r.RefreshAll(context.Background())
		r.scheduleNext()
	}
	if err := r.scheduler.Schedule(jobID, time.Now().Add(r.interval), callback); err != nil {
		log.Printf("Failed to schedule refresh: %v", err)
	}
}

// RefreshAll re-fetches every tracked city once.
func (r *Refresher) RefreshAll(ctx context.Context) {
	snapshots := r.states.All()
	if len(snapshots) == 0 {
		return
	}

	refreshed := 0
	for _, snapshot := range snapshots {
		if err := r.refreshOne(ctx, snapshot); err != nil {
			log.Printf("Failed to refresh %s: %v", snapshot.CityKey, err)
			continue
		}
		refreshed++
	}
	fmt.Printf("Refreshed %d/%d tracked cities\n", refreshed, len(snapshots))
}

func (r *Refresher) refreshOne(ctx context.Context, snapshot state.Snapshot) error {
	reading, err := r.source.Current(ctx, snapshot.Lat, snapshot.Lon)
	if err != nil {
		return err
	}

	result, err := aqi.Compute(reading.PM25)
	if err != nil {
		return err
	}

	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.SetReading(ctx, snapshot.Lat, snapshot.Lon, reading, r.ttl); err != nil {
			log.Printf("Failed to rewarm cache for %s: %v", snapshot.CityKey, err)
		}
	}

	snapshot.PM25 = reading.PM25
	snapshot.Result = result
	snapshot.UpdatedAt = time.Now().UTC()
	r.states.Update(snapshot)

	return nil
}
