package search

import (
	"cmp"
	"math"
	"slices"

	"github.com/yablochko8/color-finder-semantic-search/domain/color"
)

// Match is a stored color and its distance from the query.
type Match struct {
	color    color.Color
	distance float64
}

// NewMatch creates a Match.
func NewMatch(c color.Color, distance float64) Match {
	return Match{color: c, distance: distance}
}

// Color returns the matched color.
func (m Match) Color() color.Color { return m.color }

// Distance returns the distance to the query. Smaller is closer.
func (m Match) Distance() float64 { return m.distance }

// SortMatches orders matches by ascending distance, then by store id.
// NaN distances sort last.
func SortMatches(matches []Match) {
	slices.SortStableFunc(matches, func(a, b Match) int {
		if c := compareDistance(a.distance, b.distance); c != 0 {
			return c
		}
		return cmp.Compare(a.color.ID(), b.color.ID())
	})
}

func compareDistance(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	}
	return cmp.Compare(a, b)
}

// DropUndefined removes matches whose distance is NaN, such as cosine
// distance against a zero vector. It filters in place.
func DropUndefined(matches []Match) []Match {
	return slices.DeleteFunc(matches, func(m Match) bool {
		return math.IsNaN(m.distance)
	})
}
