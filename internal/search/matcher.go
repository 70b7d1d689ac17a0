// Package search ranks geocoding candidates against a partial city-name
// query for autocomplete. Matching is pure computation: no I/O, no
// randomness, deterministic ordering for a fixed candidate list and
// frequency state.
package search

import (
	"sort"
	"strings"
	"sync/atomic"
	"unicode"
	"unicode/utf8"
)

const (
	// MinQueryLength is the shortest query that produces results.
	MinQueryLength = 2

	// fuzzyThreshold is the minimum normalized similarity for a fuzzy match.
	fuzzyThreshold = 0.6

	// substringBoost is added when one string contains the other, capped at 1.0.
	substringBoost = 0.2

	// wordSimilarity is the per-token similarity floor for the word fallback.
	wordSimilarity = 0.8
)

// Candidate is a location record returned by geocoding. Identity is
// (Name, Country, State).
type Candidate struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	State   string  `json:"state,omitempty"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// DisplayName renders the candidate as "Name, State, Country", skipping
// empty parts.
func (c Candidate) DisplayName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Name, c.State, c.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Key returns the candidate's identity key, used for frequency counts.
func (c Candidate) Key() string {
	return strings.ToLower(c.Name + "|" + c.State + "|" + c.Country)
}

// MatchType says which pass produced a result.
type MatchType string

const (
	MatchPrefix MatchType = "prefix"
	MatchFuzzy  MatchType = "fuzzy"
	MatchWord   MatchType = "word"
)

// matchPriority orders prefix > fuzzy > word when scores tie.
func matchPriority(t MatchType) int {
	switch t {
	case MatchPrefix:
		return 0
	case MatchFuzzy:
		return 1
	default:
		return 2
	}
}

// Result is an ephemeral, per-query ranking entry.
type Result struct {
	Candidate Candidate `json:"city"`
	Score     float64   `json:"score"`
	MatchType MatchType `json:"match_type"`
}

// index is an immutable snapshot of the candidate list and frequency state.
// It is only ever replaced wholesale, never mutated, so readers need no lock.
type index struct {
	candidates  []Candidate
	frequencies map[string]int
}

// Matcher ranks candidates for autocomplete. Safe for concurrent use: the
// index is swapped atomically on update.
type Matcher struct {
	idx atomic.Pointer[index]
}

// NewMatcher creates a matcher with an empty candidate list.
func NewMatcher() *Matcher {
	m := &Matcher{}
	m.idx.Store(&index{})
	return m
}

// Update rebuilds the index from a new candidate list and frequency state.
// Full rebuild is fine at autocomplete list sizes (tens of entries).
func (m *Matcher) Update(candidates []Candidate, frequencies map[string]int) {
	snapshot := &index{
		candidates:  append([]Candidate(nil), candidates...),
		frequencies: make(map[string]int, len(frequencies)),
	}
	for k, v := range frequencies {
		snapshot.frequencies[k] = v
	}
	m.idx.Store(snapshot)
}

// Match ranks the current candidate list against the query.
func (m *Matcher) Match(query string) []Result {
	idx := m.idx.Load()
	return Rank(query, idx.candidates, idx.frequencies)
}

// Rank scores candidates against the query and returns them best-first.
// Queries shorter than MinQueryLength yield an empty result, not an error.
//
// Three passes: exact display-name prefix (score 1.0), normalized edit
// distance with a substring boost (threshold 0.6), and a token-level fallback
// that only runs when the first two passes matched nothing.
func Rank(query string, candidates []Candidate, frequencies map[string]int) []Result {
	q := strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil
	}

	var results []Result
	matched := make([]bool, len(candidates))

	// Prefix pass.
	for i, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.DisplayName()), q) {
			results = append(results, Result{Candidate: c, Score: 1.0, MatchType: MatchPrefix})
			matched[i] = true
		}
	}

	// Fuzzy pass over the remainder.
	for i, c := range candidates {
		if matched[i] {
			continue
		}
		name := strings.ToLower(c.DisplayName())
		score := similarity(q, name)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			score += substringBoost
			if score > 1.0 {
				score = 1.0
			}
		}
		if score >= fuzzyThreshold {
			results = append(results, Result{Candidate: c, Score: score, MatchType: MatchFuzzy})
			matched[i] = true
		}
	}

	// Word fallback, only when nothing matched at all.
	if len(results) == 0 {
		queryTokens := tokenize(q)
		if len(queryTokens) > 0 {
			for _, c := range candidates {
				nameTokens := tokenize(strings.ToLower(c.DisplayName()))
				matches := 0
				for _, qt := range queryTokens {
					for _, nt := range nameTokens {
						if similarity(qt, nt) > wordSimilarity {
							matches++
							break
						}
					}
				}
				if matches > 0 {
					score := float64(matches) / float64(len(queryTokens))
					results = append(results, Result{Candidate: c, Score: score, MatchType: MatchWord})
				}
			}
		}
	}

	sortResults(results, frequencies)
	return results
}

// sortResults orders by score desc, then match-type priority, then
// popularity (frequency count desc, well-known rank asc), then display name
// so the ordering is fully deterministic.
func sortResults(results []Result, frequencies map[string]int) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := matchPriority(a.MatchType), matchPriority(b.MatchType); pa != pb {
			return pa < pb
		}
		if fa, fb := frequencies[a.Candidate.Key()], frequencies[b.Candidate.Key()]; fa != fb {
			return fa > fb
		}
		if ra, rb := wellKnownRank(a.Candidate.Name), wellKnownRank(b.Candidate.Name); ra != rb {
			return ra < rb
		}
		return a.Candidate.DisplayName() < b.Candidate.DisplayName()
	})
}

// tokenize splits on whitespace and commas.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}
