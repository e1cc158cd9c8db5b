package search

import "math"

// ListsFor sizes an ivfflat index following pgvector's guidance:
// rows/1000 clusters up to a million rows, sqrt(rows) beyond.
func ListsFor(rows int64) int {
	if rows <= 1_000_000 {
		return max(int(rows/1000), 1)
	}
	return int(math.Sqrt(float64(rows)))
}

// ProbesFor returns sqrt(lists) for an index sized by ListsFor, never below 10.
func ProbesFor(rows int64) int {
	return max(int(math.Sqrt(float64(ListsFor(rows)))), 10)
}
