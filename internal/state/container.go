// Package state holds the latest computed air-quality snapshot per city and
// notifies subscribers on change. Snapshots are immutable values replaced
// wholesale on update, never mutated field-by-field, so readers always see a
// consistent entry.
package state

import (
	"sync"
	"time"

	"github.com/nmehta6/aqi-server/internal/aqi"
)

// Snapshot is the current air-quality view for one city.
type Snapshot struct {
	CityKey   string
	CityName  string
	Lat       float64
	Lon       float64
	PM25      float64
	Result    aqi.Result
	UpdatedAt time.Time
}

// Change carries the previous and new snapshot to listeners. Old is nil when
// the city is seen for the first time.
type Change struct {
	Old *Snapshot
	New Snapshot
}

// Listener receives change notifications.
type Listener func(Change)

// Container manages the per-city snapshots.
type Container struct {
	mu        sync.RWMutex
	current   map[string]Snapshot
	listeners []Listener
}

// NewContainer creates an empty container.
func NewContainer() *Container {
	return &Container{
		current: make(map[string]Snapshot),
	}
}

// Subscribe registers a listener for future updates.
func (c *Container) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Update replaces the snapshot for the city and notifies listeners with the
// diff. Listeners run synchronously, outside the lock.
func (c *Container) Update(s Snapshot) {
	c.mu.Lock()

	var old *Snapshot
	if prev, ok := c.current[s.CityKey]; ok {
		copied := prev
		old = &copied
	}
	c.current[s.CityKey] = s

	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	change := Change{Old: old, New: s}
	for _, l := range listeners {
		l(change)
	}
}

// Get returns the snapshot for a city identity key.
func (c *Container) Get(cityKey string) (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.current[cityKey]
	return s, ok
}

// All returns a copy of every current snapshot.
func (c *Container) All() map[string]Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]Snapshot, len(c.current))
	for k, v := range c.current {
		result[k] = v
	}
	return result
}

// Count returns the number of tracked cities.
func (c *Container) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.current)
}
