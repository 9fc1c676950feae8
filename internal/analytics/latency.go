package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// GroupDimension is the column latency samples are grouped by.
type GroupDimension string

const (
	GroupByCourt GroupDimension = "court"
	GroupByNOS   GroupDimension = "nos"
)

// ParseGroupDimension accepts "court" or "nos".
func ParseGroupDimension(s string) (GroupDimension, error) {
	d := GroupDimension(strings.ToLower(strings.TrimSpace(s)))
	if err := d.valid(); err != nil {
		return "", err
	}
	return d, nil
}

func (d GroupDimension) valid() error {
	switch d {
	case GroupByCourt, GroupByNOS:
		return nil
	}
	return invalidf("group dimension must be %q or %q, got %q", GroupByCourt, GroupByNOS, string(d))
}

// Label is the axis caption for the dimension.
func (d GroupDimension) Label() string {
	if d == GroupByNOS {
		return "NOS Code(s)"
	}
	return "District Court(s)"
}

// LatencySample is one closed case. Court and NOS carry the raw column
// values, nil when missing. Group is the grouping key for the requested
// dimension: the court slug or the NOS code in base 10, "" when missing.
type LatencySample struct {
	Group       string  `json:"group"`
	Court       *string `json:"court"`
	NOS         *int    `json:"nos"`
	DaysToClose int     `json:"days_to_close"`
}

type latencyRow struct {
	Court       *string
	NOS         *int `gorm:"column:nos"`
	DaysToClose int
}

// LatencySamples returns one row per closed case matching f. Open cases
// are left out entirely.
func (s *Store) LatencySamples(ctx context.Context, dim GroupDimension, f Filter) ([]LatencySample, error) {
	if err := dim.valid(); err != nil {
		return nil, err
	}
	if err := f.Range.validate(); err != nil {
		return nil, err
	}

	groupCol := colCourt
	if dim == GroupByNOS {
		groupCol = colNOS
	}

	var rows []latencyRow
	err := s.run("latency_samples", func() error {
		return where(s.cases(ctx), f.predicates(true)).
			Where(fmt.Sprintf("%s IS NOT NULL", colClosingDate)).
			Select(fmt.Sprintf("court_slug AS court, nature_of_suit_numeric AS nos, %s AS days_to_close",
				s.dialect.absDays(colFilingDate, colClosingDate))).
			Order(groupCol).
			Order("days_to_close").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	out := make([]LatencySample, 0, len(rows))
	for _, row := range rows {
		sample := LatencySample{Court: row.Court, NOS: row.NOS, DaysToClose: row.DaysToClose}
		switch dim {
		case GroupByCourt:
			if row.Court != nil {
				sample.Group = *row.Court
			}
		case GroupByNOS:
			if row.NOS != nil {
				sample.Group = strconv.Itoa(*row.NOS)
			}
		}
		out = append(out, sample)
	}
	return out, nil
}

// GroupStats summarizes the latency distribution of one group.
type GroupStats struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q1     float64 `json:"q1"`
	Q3     float64 `json:"q3"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Stat names a GroupStats field used for ordering.
type Stat string

const (
	StatMean   Stat = "mean"
	StatMedian Stat = "median"
	StatQ1     Stat = "q1"
	StatQ3     Stat = "q3"
	StatMin    Stat = "min"
	StatMax    Stat = "max"
)

// ParseStat accepts a stat name; empty means mean.
func ParseStat(s string) (Stat, error) {
	st := Stat(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case "":
		return StatMean, nil
	case StatMean, StatMedian, StatQ1, StatQ3, StatMin, StatMax:
		return st, nil
	}
	return "", invalidf("unrecognized sort statistic %q", s)
}

func (g GroupStats) value(st Stat) float64 {
	switch st {
	case StatMedian:
		return g.Median
	case StatQ1:
		return g.Q1
	case StatQ3:
		return g.Q3
	case StatMin:
		return g.Min
	case StatMax:
		return g.Max
	default:
		return g.Mean
	}
}

// Summarize computes per-group statistics, ordered by group.
func Summarize(samples []LatencySample) []GroupStats {
	byGroup := make(map[string][]float64)
	for _, s := range samples {
		byGroup[s.Group] = append(byGroup[s.Group], float64(s.DaysToClose))
	}

	out := make([]GroupStats, 0, len(byGroup))
	for group, days := range byGroup {
		sort.Float64s(days)
		var sum float64
		for _, d := range days {
			sum += d
		}
		out = append(out, GroupStats{
			Group:  group,
			Count:  len(days),
			Mean:   sum / float64(len(days)),
			Median: quantile(days, 0.5),
			Q1:     quantile(days, 0.25),
			Q3:     quantile(days, 0.75),
			Min:    days[0],
			Max:    days[len(days)-1],
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group < out[j].Group })
	return out
}

// SortStats orders groups by the chosen statistic, group name breaking
// ties.
func SortStats(stats []GroupStats, st Stat, ascending bool) {
	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i].value(st), stats[j].value(st)
		if a != b {
			if ascending {
				return a < b
			}
			return a > b
		}
		return stats[i].Group < stats[j].Group
	})
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return sorted[int(lo)]
	}
	return sorted[int(lo)] + (sorted[int(hi)]-sorted[int(lo)])*(pos-lo)
}
