package analytics

import (
	"time"
)

type cellKey[G comparable] struct {
	bucket string
	group  G
}

// densify walks the full buckets × groups grid in order, emitting the raw
// count for each cell or zero where the aggregate had no row. Buckets and
// groups must already be sorted ascending. It returns the number of raw
// cells that fell outside the grid.
func densify[G comparable](buckets []time.Time, groups []G, counts map[cellKey[G]]int64, emit func(bucket time.Time, group G, filings int64)) int {
	used := 0
	for _, b := range buckets {
		key := b.Format(dateLayout)
		for _, g := range groups {
			n, ok := counts[cellKey[G]{bucket: key, group: g}]
			if ok {
				used++
			}
			emit(b, g, n)
		}
	}
	return len(counts) - used
}
