package state

import (
	"testing"
	"time"

	"github.com/nmehta6/aqi-server/internal/aqi"
)

func snapshot(key string, index int) Snapshot {
	return Snapshot{
		CityKey:  key,
		CityName: "London",
		PM25:     35.4,
		Result: aqi.Result{
			AQI:              index,
			Category:         aqi.ClassifyRisk(index),
			CigarettesPerDay: 1.61,
		},
		UpdatedAt: time.Now(),
	}
}

func TestContainer_UpdateAndGet(t *testing.T) {
	c := NewContainer()

	if _, ok := c.Get("london||gb"); ok {
		t.Error("Expected miss on empty container")
	}

	c.Update(snapshot("london||gb", 100))

	s, ok := c.Get("london||gb")
	if !ok {
		t.Fatal("Snapshot not found after Update")
	}
	if s.Result.AQI != 100 {
		t.Errorf("Expected AQI 100, got %d", s.Result.AQI)
	}
	if c.Count() != 1 {
		t.Errorf("Expected 1 tracked city, got %d", c.Count())
	}
}

func TestContainer_NotifiesListeners(t *testing.T) {
	c := NewContainer()

	var changes []Change
	c.Subscribe(func(ch Change) {
		changes = append(changes, ch)
	})

	c.Update(snapshot("london||gb", 100))
	c.Update(snapshot("london||gb", 150))

	if len(changes) != 2 {
		t.Fatalf("Expected 2 notifications, got %d", len(changes))
	}

	if changes[0].Old != nil {
		t.Error("First update should carry a nil Old snapshot")
	}
	if changes[0].New.Result.AQI != 100 {
		t.Errorf("Expected New AQI 100, got %d", changes[0].New.Result.AQI)
	}

	if changes[1].Old == nil {
		t.Fatal("Second update should carry the previous snapshot")
	}
	if changes[1].Old.Result.AQI != 100 || changes[1].New.Result.AQI != 150 {
		t.Errorf("Unexpected diff: old=%d new=%d",
			changes[1].Old.Result.AQI, changes[1].New.Result.AQI)
	}
}

func TestContainer_AllReturnsCopy(t *testing.T) {
	c := NewContainer()
	c.Update(snapshot("london||gb", 100))
	c.Update(snapshot("paris||fr", 50))

	all := c.All()
	if len(all) != 2 {
		t.Fatalf("Expected 2 snapshots, got %d", len(all))
	}

	delete(all, "london||gb")
	if c.Count() != 2 {
		t.Error("Mutating the returned map must not affect the container")
	}
}
