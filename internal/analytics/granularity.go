package analytics

import (
	"strings"
	"time"
)

// Granularity is the width of a time bucket.
type Granularity int

const (
	Day Granularity = iota + 1
	Week
	Month
	Year
)

// Granularities lists every supported bucket width, finest first.
var Granularities = []Granularity{Day, Week, Month, Year}

// ParseGranularity accepts the canonical names (day, week, month, year)
// and the dashboard labels (Daily, Weekly, Monthly, Yearly).
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "daily":
		return Day, nil
	case "week", "weekly":
		return Week, nil
	case "month", "monthly":
		return Month, nil
	case "year", "yearly":
		return Year, nil
	}
	return 0, invalidf("unrecognized granularity %q", s)
}

func (g Granularity) String() string {
	switch g {
	case Day:
		return "day"
	case Week:
		return "week"
	case Month:
		return "month"
	case Year:
		return "year"
	}
	return "unknown"
}

// Label is the dashboard caption, e.g. "Monthly".
func (g Granularity) Label() string {
	switch g {
	case Day:
		return "Daily"
	case Week:
		return "Weekly"
	case Month:
		return "Monthly"
	case Year:
		return "Yearly"
	}
	return "Unknown"
}

// Validate fails with ErrInvalidParameter for an unknown granularity.
func (g Granularity) Validate() error {
	return g.valid()
}

func (g Granularity) valid() error {
	if g < Day || g > Year {
		return invalidf("unrecognized granularity %d", int(g))
	}
	return nil
}

func (g Granularity) MarshalText() ([]byte, error) {
	if err := g.valid(); err != nil {
		return nil, err
	}
	return []byte(g.String()), nil
}

func (g *Granularity) UnmarshalText(b []byte) error {
	parsed, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Truncate returns the start of the bucket containing t, at UTC midnight.
// Weeks start on Monday.
func (g Granularity) Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	switch g {
	case Week:
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

// Next returns the start of the bucket after the one beginning at t.
func (g Granularity) Next(t time.Time) time.Time {
	switch g {
	case Week:
		return t.AddDate(0, 0, 7)
	case Month:
		return t.AddDate(0, 1, 0)
	case Year:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Series returns every bucket start from the bucket holding start through
// the bucket holding end, inclusive. It is empty when either bound is zero
// or end precedes start.
func (g Granularity) Series(start, end time.Time) []time.Time {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}
	last := g.Truncate(end)
	var out []time.Time
	for cur := g.Truncate(start); !cur.After(last); cur = g.Next(cur) {
		out = append(out, cur)
	}
	return out
}
