package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// BucketCount is one point of an ungrouped filing series.
type BucketCount struct {
	Bucket  time.Time `json:"bucket"`
	Filings int64     `json:"filings"`
}

// CourtBucketCount is one cell of a bucket × court series.
type CourtBucketCount struct {
	Bucket  time.Time `json:"bucket"`
	Court   string    `json:"court_slug"`
	Filings int64     `json:"filings"`
}

// NOSBucketCount is one cell of a bucket × NOS series.
type NOSBucketCount struct {
	Bucket  time.Time `json:"bucket"`
	NOS     int       `json:"nos"`
	Filings int64     `json:"filings"`
}

// CourtCount is the case total for one court.
type CourtCount struct {
	Court   string `json:"court_slug"`
	Filings int64  `json:"filings"`
}

// NOSCount is the case total for one NOS code.
type NOSCount struct {
	NOS   int   `json:"nos" gorm:"column:nos"`
	Count int64 `json:"count" gorm:"column:cnt"`
}

// CourtSeries selects the courts of a bucket × court series. Explicit
// Courts win; otherwise TopN > 0 derives the busiest courts; otherwise
// every court with a matching filing is used.
type CourtSeries struct {
	Filter
	TopN int
}

type stringCell struct {
	Bucket  string
	Grp     string
	Filings int64
}

type intCell struct {
	Bucket  string
	Grp     int
	Filings int64
}

// series validates g and the range, then returns the bucket sequence the
// output must cover. An open bound is taken from the store extent.
func (s *Store) series(ctx context.Context, g Granularity, r DateRange) ([]time.Time, error) {
	if err := g.valid(); err != nil {
		return nil, err
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	closed, err := s.closeRange(ctx, r)
	if err != nil {
		return nil, err
	}
	return g.Series(closed.Start, closed.End), nil
}

// FilingsByBucket counts filings per bucket, one row per bucket of the
// range.
func (s *Store) FilingsByBucket(ctx context.Context, g Granularity, f Filter) ([]BucketCount, error) {
	buckets, err := s.series(ctx, g, f.Range)
	if err != nil {
		return nil, err
	}
	out := make([]BucketCount, 0, len(buckets))
	if len(buckets) == 0 {
		return out, nil
	}

	var rows []stringCell
	err = s.run("filings_by_bucket", func() error {
		return where(s.cases(ctx), f.predicates(true)).
			Select(fmt.Sprintf("%s AS bucket, COUNT(*) AS filings", s.dialect.bucket(g, colFilingDate))).
			Group("bucket").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[cellKey[struct{}]]int64, len(rows))
	for _, r := range rows {
		counts[cellKey[struct{}]{bucket: r.Bucket}] = r.Filings
	}
	stray := densify(buckets, []struct{}{{}}, counts, func(b time.Time, _ struct{}, n int64) {
		out = append(out, BucketCount{Bucket: b, Filings: n})
	})
	s.warnStray("filings_by_bucket", stray)
	return out, nil
}

// FilingsByCourt counts filings per bucket and court over the full
// buckets × courts grid, sorted by bucket then court.
func (s *Store) FilingsByCourt(ctx context.Context, g Granularity, req CourtSeries) ([]CourtBucketCount, error) {
	buckets, err := s.series(ctx, g, req.Range)
	if err != nil {
		return nil, err
	}
	if req.TopN < 0 {
		return nil, invalidf("top N must not be negative, got %d", req.TopN)
	}

	courts, err := s.seriesCourts(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]CourtBucketCount, 0, len(buckets)*len(courts))
	if len(buckets) == 0 || len(courts) == 0 {
		return out, nil
	}

	f := req.Filter
	f.Courts = courts
	var rows []stringCell
	err = s.run("filings_by_court", func() error {
		return where(s.cases(ctx), f.predicates(true)).
			Select(fmt.Sprintf("%s AS bucket, court_slug AS grp, COUNT(*) AS filings", s.dialect.bucket(g, colFilingDate))).
			Group("bucket, grp").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[cellKey[string]]int64, len(rows))
	for _, r := range rows {
		counts[cellKey[string]{bucket: r.Bucket, group: r.Grp}] = r.Filings
	}
	stray := densify(buckets, courts, counts, func(b time.Time, court string, n int64) {
		out = append(out, CourtBucketCount{Bucket: b, Court: court, Filings: n})
	})
	s.warnStray("filings_by_court", stray)
	return out, nil
}

func (s *Store) seriesCourts(ctx context.Context, req CourtSeries) ([]string, error) {
	if len(req.Courts) > 0 {
		return uniqueStrings(req.Courts), nil
	}
	if req.TopN > 0 {
		top, err := s.TopCourts(ctx, req.Range, req.Codes, req.TopN)
		if err != nil {
			return nil, err
		}
		sort.Strings(top)
		return top, nil
	}

	courts := []string{}
	err := s.run("series_courts", func() error {
		return where(s.cases(ctx), req.Filter.predicates(true)).
			Where("court_slug IS NOT NULL").
			Distinct().
			Order("court_slug").
			Pluck("court_slug", &courts).Error
	})
	return courts, err
}

// FilingsByNOS counts filings per bucket and NOS code over the full
// buckets × codes grid. At least one code is required.
func (s *Store) FilingsByNOS(ctx context.Context, g Granularity, f Filter) ([]NOSBucketCount, error) {
	if err := g.valid(); err != nil {
		return nil, err
	}
	if len(f.Codes) == 0 {
		return nil, invalidf("at least one NOS code is required")
	}
	buckets, err := s.series(ctx, g, f.Range)
	if err != nil {
		return nil, err
	}
	codes := uniqueInts(f.Codes)
	out := make([]NOSBucketCount, 0, len(buckets)*len(codes))
	if len(buckets) == 0 {
		return out, nil
	}

	var rows []intCell
	err = s.run("filings_by_nos", func() error {
		return where(s.cases(ctx), f.predicates(true)).
			Select(fmt.Sprintf("%s AS bucket, nature_of_suit_numeric AS grp, COUNT(*) AS filings", s.dialect.bucket(g, colFilingDate))).
			Group("bucket, grp").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	counts := make(map[cellKey[int]]int64, len(rows))
	for _, r := range rows {
		counts[cellKey[int]{bucket: r.Bucket, group: r.Grp}] = r.Filings
	}
	stray := densify(buckets, codes, counts, func(b time.Time, code int, n int64) {
		out = append(out, NOSBucketCount{Bucket: b, NOS: code, Filings: n})
	})
	s.warnStray("filings_by_nos", stray)
	return out, nil
}

func (s *Store) warnStray(op string, n int) {
	if n > 0 {
		s.logger.Warn("Aggregate rows fell outside the bucket grid", "operation", op, "rows", n)
	}
}

// CountByCourt totals filings per court. Cases without a court report
// under the empty slug.
func (s *Store) CountByCourt(ctx context.Context, f Filter) ([]CourtCount, error) {
	if err := f.Range.validate(); err != nil {
		return nil, err
	}
	out := []CourtCount{}
	err := s.run("count_by_court", func() error {
		return where(s.cases(ctx), f.predicates(true)).
			Select("COALESCE(court_slug, '') AS court, COUNT(*) AS filings").
			Group("court").
			Order("court").
			Scan(&out).Error
	})
	return out, err
}

// CountByNOS totals filings per NOS code for the given courts and range,
// busiest first. Cases without a code are left out.
func (s *Store) CountByNOS(ctx context.Context, courts []string, r DateRange) ([]NOSCount, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	f := Filter{Courts: courts, Range: r}
	out := []NOSCount{}
	err := s.run("count_by_nos", func() error {
		return where(s.cases(ctx), f.predicates(false)).
			Where("nature_of_suit_numeric IS NOT NULL").
			Select("nature_of_suit_numeric AS nos, COUNT(*) AS cnt").
			Group("nos").
			Order("cnt DESC").
			Order("nos ASC").
			Scan(&out).Error
	})
	return out, err
}

// Summary is the KPI row of a dashboard.
type Summary struct {
	Total          int64   `json:"total"`
	Closed         int64   `json:"closed"`
	OpenRate       float64 `json:"open_rate"`
	AvgDaysToClose float64 `json:"avg_days_to_close"`
}

// Summary returns case totals for f.
func (s *Store) Summary(ctx context.Context, f Filter) (Summary, error) {
	if err := f.Range.validate(); err != nil {
		return Summary{}, err
	}
	var row struct {
		Total   int64
		Closed  int64
		AvgDays *float64
	}
	days := s.dialect.absDays(colFilingDate, colClosingDate)
	err := s.run("summary", func() error {
		return where(s.cases(ctx), f.predicates(true)).
			Select(fmt.Sprintf(`COUNT(*) AS total,
				COALESCE(SUM(CASE WHEN closing_date IS NOT NULL THEN 1 ELSE 0 END), 0) AS closed,
				AVG(CASE WHEN closing_date IS NOT NULL THEN %s END) AS avg_days`, days)).
			Scan(&row).Error
	})
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: row.Total, Closed: row.Closed}
	if row.Total > 0 {
		sum.OpenRate = 1 - float64(row.Closed)/float64(row.Total)
	}
	if row.AvgDays != nil {
		sum.AvgDaysToClose = *row.AvgDays
	}
	return sum, nil
}

// Completeness measures how many filed cases lack a NOS code.
type Completeness struct {
	Missing int64 `json:"missing"`
	Total   int64 `json:"total"`
}

// Ratio is Missing/Total, or zero for an empty slice.
func (c Completeness) Ratio() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Missing) / float64(c.Total)
}

// Completeness counts cases for the courts and range and how many of them
// have no NOS code. The NOS filter never applies here: it would make the
// denominator depend on the very column being measured.
func (s *Store) Completeness(ctx context.Context, courts []string, r DateRange) (Completeness, error) {
	if err := r.validate(); err != nil {
		return Completeness{}, err
	}
	f := Filter{Courts: courts, Range: r}
	var out Completeness
	err := s.run("completeness", func() error {
		return where(s.cases(ctx), f.predicates(false)).
			Select(`COALESCE(SUM(CASE WHEN nature_of_suit_numeric IS NULL THEN 1 ELSE 0 END), 0) AS missing,
				COUNT(*) AS total`).
			Scan(&out).Error
	})
	return out, err
}
