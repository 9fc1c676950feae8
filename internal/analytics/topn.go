package analytics

import (
	"context"
)

// TopCourts returns up to n court slugs with the most filings in the range
// and NOS slice, busiest first. Ties break on slug so equal inputs give
// equal output. Fewer than n courts are returned as-is.
func (s *Store) TopCourts(ctx context.Context, r DateRange, codes []int, n int) ([]string, error) {
	if n <= 0 {
		return nil, invalidf("top N must be positive, got %d", n)
	}
	if err := r.validate(); err != nil {
		return nil, err
	}

	f := Filter{Codes: codes, Range: r}
	var rows []CourtCount
	err := s.run("top_courts", func() error {
		return where(s.cases(ctx), f.predicates(true)).
			Where("court_slug IS NOT NULL").
			Select("court_slug AS court, COUNT(*) AS filings").
			Group("court_slug").
			Order("filings DESC").
			Order("court_slug ASC").
			Limit(n).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Court)
	}
	return out, nil
}
