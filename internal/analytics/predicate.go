package analytics

import (
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Columns a predicate may reference.
const (
	colCourt       = "court_slug"
	colFilingDate  = "filing_date"
	colClosingDate = "closing_date"
	colNOS         = "nature_of_suit_numeric"
)

// Operator is a comparison a predicate applies.
type Operator string

const (
	OpEq      Operator = "="
	OpIn      Operator = "IN"
	OpGte     Operator = ">="
	OpLte     Operator = "<="
	OpIsNull  Operator = "IS NULL"
	OpNotNull Operator = "IS NOT NULL"
)

// Predicate is one bound filter condition.
type Predicate struct {
	Column string
	Op     Operator
	Value  interface{}
}

func (p Predicate) sql() (string, []interface{}) {
	switch p.Op {
	case OpIsNull, OpNotNull:
		return fmt.Sprintf("%s %s", p.Column, p.Op), nil
	case OpIn:
		return fmt.Sprintf("%s IN ?", p.Column), []interface{}{p.Value}
	default:
		return fmt.Sprintf("%s %s ?", p.Column, p.Op), []interface{}{p.Value}
	}
}

// where folds predicates into the query as AND-ed conditions.
func where(tx *gorm.DB, preds []Predicate) *gorm.DB {
	for _, p := range preds {
		clause, args := p.sql()
		tx = tx.Where(clause, args...)
	}
	return tx
}

// DateRange bounds filing dates, inclusive on both ends. A zero bound is
// open.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Open reports whether either bound is missing.
func (r DateRange) Open() bool {
	return r.Start.IsZero() || r.End.IsZero()
}

// Validate rejects a range whose end precedes its start.
func (r DateRange) Validate() error {
	return r.validate()
}

func (r DateRange) validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return invalidf("date range end %s precedes start %s",
			r.End.Format(dateLayout), r.Start.Format(dateLayout))
	}
	return nil
}

func (r DateRange) predicates() []Predicate {
	var preds []Predicate
	if !r.Start.IsZero() {
		preds = append(preds, Predicate{Column: colFilingDate, Op: OpGte, Value: dateOnly(r.Start)})
	}
	if !r.End.IsZero() {
		preds = append(preds, Predicate{Column: colFilingDate, Op: OpLte, Value: dateOnly(r.End)})
	}
	return preds
}

// Filter is the resolved filter set shared by every query of one render.
// Nil or empty lists mean no restriction.
type Filter struct {
	Courts []string  `json:"courts,omitempty"`
	Codes  []int     `json:"codes,omitempty"`
	Range  DateRange `json:"range"`
}

// predicates returns the filed-case conditions for f. withCodes controls
// whether the NOS restriction participates.
func (f Filter) predicates(withCodes bool) []Predicate {
	preds := []Predicate{{Column: colFilingDate, Op: OpNotNull}}
	preds = append(preds, f.Range.predicates()...)
	if len(f.Courts) > 0 {
		preds = append(preds, Predicate{Column: colCourt, Op: OpIn, Value: uniqueStrings(f.Courts)})
	}
	if withCodes && len(f.Codes) > 0 {
		preds = append(preds, Predicate{Column: colNOS, Op: OpIn, Value: uniqueInts(f.Codes)})
	}
	return preds
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func uniqueInts(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, n := range in {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

const dateLayout = "2006-01-02"

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD date. The empty string is the zero time.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, invalidf("bad date %q", s)
	}
	return t, nil
}

func parseBucket(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}
