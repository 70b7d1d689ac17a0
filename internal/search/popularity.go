package search

import "strings"

// wellKnownCities breaks score ties in favor of cities a user is most likely
// to mean, ranked by position. Accumulated search-frequency counts take
// precedence over this list.
var wellKnownCities = []string{
	"london",
	"new york",
	"tokyo",
	"paris",
	"delhi",
	"beijing",
	"shanghai",
	"los angeles",
	"mumbai",
	"moscow",
	"istanbul",
	"berlin",
	"madrid",
	"toronto",
	"singapore",
	"sydney",
	"mexico city",
	"cairo",
	"lagos",
	"karachi",
}

// wellKnownRank returns the position of a city name in the well-known list,
// or len(wellKnownCities) when absent, so unlisted cities sort last.
func wellKnownRank(name string) int {
	lower := strings.ToLower(name)
	for i, city := range wellKnownCities {
		if city == lower {
			return i
		}
	}
	return len(wellKnownCities)
}
