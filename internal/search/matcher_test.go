package search

import (
	"reflect"
	"testing"
)

func testCandidates() []Candidate {
	return []Candidate{
		{Name: "London", Country: "GB", Lat: 51.5074, Lon: -0.1278},
		{Name: "London", Country: "CA", State: "Ontario", Lat: 42.9849, Lon: -81.2453},
		{Name: "New York", Country: "US", State: "NY", Lat: 40.7128, Lon: -74.006},
		{Name: "Lodz", Country: "PL", Lat: 51.7592, Lon: 19.456},
		{Name: "Paris", Country: "FR", Lat: 48.8566, Lon: 2.3522},
	}
}

func TestRank_PrefixMatch(t *testing.T) {
	results := Rank("lon", testCandidates(), nil)
	if len(results) == 0 {
		t.Fatal("Expected results for query 'lon'")
	}

	top := results[0]
	if top.Candidate.Name != "London" {
		t.Errorf("Expected London first, got %s", top.Candidate.DisplayName())
	}
	if top.MatchType != MatchPrefix && top.MatchType != MatchFuzzy {
		t.Errorf("Expected prefix or fuzzy match, got %s", top.MatchType)
	}
	if top.Score < 0.6 {
		t.Errorf("Expected score >= 0.6, got %v", top.Score)
	}
}

func TestRank_NoMatch(t *testing.T) {
	results := Rank("xyzzy", testCandidates(), nil)
	if len(results) != 0 {
		t.Errorf("Expected empty result for 'xyzzy', got %d results", len(results))
	}
}

func TestRank_ShortQuery(t *testing.T) {
	if results := Rank("l", testCandidates(), nil); results != nil {
		t.Errorf("Expected nil for 1-char query, got %v", results)
	}
	if results := Rank("  ", testCandidates(), nil); results != nil {
		t.Errorf("Expected nil for whitespace query, got %v", results)
	}
}

func TestRank_FuzzyTypo(t *testing.T) {
	results := Rank("londn", testCandidates(), nil)
	if len(results) == 0 {
		t.Fatal("Expected fuzzy results for 'londn'")
	}
	if results[0].Candidate.Name != "London" {
		t.Errorf("Expected London first, got %s", results[0].Candidate.DisplayName())
	}
}

func TestRank_SubstringBoostCapped(t *testing.T) {
	candidates := []Candidate{{Name: "London"}}

	results := Rank("ondon", candidates, nil)
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if results[0].MatchType != MatchFuzzy {
		t.Errorf("Expected fuzzy match, got %s", results[0].MatchType)
	}
	if results[0].Score > 1.0 {
		t.Errorf("Score must be capped at 1.0, got %v", results[0].Score)
	}
}

func TestRank_WordFallback(t *testing.T) {
	results := Rank("york, us", testCandidates(), nil)
	if len(results) == 0 {
		t.Fatal("Expected word-fallback results for 'york, us'")
	}

	top := results[0]
	if top.Candidate.Name != "New York" {
		t.Errorf("Expected New York, got %s", top.Candidate.DisplayName())
	}
	if top.MatchType != MatchWord {
		t.Errorf("Expected word match, got %s", top.MatchType)
	}
	if top.Score != 1.0 {
		t.Errorf("Expected score 1.0 (both tokens matched), got %v", top.Score)
	}
}

func TestRank_PopularityTiebreak(t *testing.T) {
	candidates := []Candidate{
		{Name: "Lodz", Country: "PL"},
		{Name: "London", Country: "GB"},
	}

	// Equal prefix scores: the well-known list puts London first.
	results := Rank("lo", candidates, nil)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Candidate.Name != "London" {
		t.Errorf("Expected London first on well-known rank, got %s", results[0].Candidate.Name)
	}

	// Accumulated frequency counts outrank the fixed list.
	freqs := map[string]int{
		Candidate{Name: "Lodz", Country: "PL"}.Key(): 5,
	}
	results = Rank("lo", candidates, freqs)
	if results[0].Candidate.Name != "Lodz" {
		t.Errorf("Expected Lodz first on frequency, got %s", results[0].Candidate.Name)
	}
}

func TestRank_Deterministic(t *testing.T) {
	candidates := testCandidates()
	freqs := map[string]int{candidates[0].Key(): 2}

	first := Rank("lon", candidates, freqs)
	second := Rank("lon", candidates, freqs)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Same query produced different orderings:\n%v\n%v", first, second)
	}
}

func TestMatcher_UpdateSwapsIndex(t *testing.T) {
	m := NewMatcher()

	if results := m.Match("lon"); len(results) != 0 {
		t.Errorf("Expected no results from empty index, got %d", len(results))
	}

	m.Update(testCandidates(), nil)
	if results := m.Match("lon"); len(results) == 0 {
		t.Error("Expected results after Update")
	}

	m.Update(nil, nil)
	if results := m.Match("lon"); len(results) != 0 {
		t.Errorf("Expected no results after clearing index, got %d", len(results))
	}
}

func TestCandidate_DisplayName(t *testing.T) {
	c := Candidate{Name: "New York", Country: "US", State: "NY"}
	if got := c.DisplayName(); got != "New York, NY, US" {
		t.Errorf("DisplayName = %q", got)
	}

	c = Candidate{Name: "London", Country: "GB"}
	if got := c.DisplayName(); got != "London, GB" {
		t.Errorf("DisplayName = %q", got)
	}
}
