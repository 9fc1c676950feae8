package analytics

import (
	"context"
	"strconv"
	"strings"
)

// DefaultTopN is the size of a derived selection when none is given.
const DefaultTopN = 5

// SelectionMode is how the user picked a filter dimension.
type SelectionMode int

const (
	SelectAll SelectionMode = iota
	SelectTopN
	SelectExplicit
)

func (m SelectionMode) String() string {
	switch m {
	case SelectTopN:
		return "top"
	case SelectExplicit:
		return "explicit"
	default:
		return "all"
	}
}

func (m SelectionMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *SelectionMode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "all":
		*m = SelectAll
	case "top":
		*m = SelectTopN
	case "explicit":
		*m = SelectExplicit
	default:
		return invalidf("unrecognized selection mode %q", string(b))
	}
	return nil
}

// CourtSelection is the raw court filter.
type CourtSelection struct {
	Mode   SelectionMode
	Courts []string
}

// NOSSelection is the raw NOS filter.
type NOSSelection struct {
	Mode  SelectionMode
	Codes []int
}

// Selections is the raw filter state of one render.
type Selections struct {
	Courts CourtSelection
	NOS    NOSSelection
	Range  DateRange
	TopN   int
}

// Resolved is the concrete filter set every query of one render shares.
type Resolved struct {
	// Courts is nil when no court restriction applies.
	Courts     []string      `json:"courts"`
	CourtsMode SelectionMode `json:"courts_mode"`

	// CandidateNOS ranks the NOS codes present under the court filter; it
	// backs the NOS picker and its top-N.
	CandidateNOS []NOSCount `json:"candidate_nos"`

	// Codes is nil when no NOS restriction applies.
	Codes   []int         `json:"codes"`
	NOSMode SelectionMode `json:"nos_mode"`
	Range   DateRange     `json:"range"`
	TopN    int           `json:"top_n"`
}

// Filter returns the resolved restrictions as a query filter.
func (r *Resolved) Filter() Filter {
	return Filter{Courts: r.Courts, Codes: r.Codes, Range: r.Range}
}

// AllCourts reports whether no court restriction applies.
func (r *Resolved) AllCourts() bool {
	return r.CourtsMode == SelectAll
}

// HasNOSSelection reports whether the user narrowed NOS codes.
func (r *Resolved) HasNOSSelection() bool {
	return r.NOSMode != SelectAll && len(r.Codes) > 0
}

const (
	sentinelAll = "all"
	sentinelTop = "top"
)

func selectionMode(values []string) (SelectionMode, []string) {
	var explicit []string
	top := false
	for _, raw := range values {
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			lower := strings.ToLower(v)
			switch {
			case v == "":
			case lower == sentinelAll:
				return SelectAll, nil
			case strings.HasPrefix(lower, sentinelTop):
				top = true
			default:
				explicit = append(explicit, v)
			}
		}
	}
	if top {
		return SelectTopN, nil
	}
	if len(explicit) == 0 {
		return SelectAll, nil
	}
	return SelectExplicit, explicit
}

// ParseCourtSelection reads raw picker values. "All" anywhere wins,
// then any "Top..." sentinel; an empty list is All. Values may be
// comma-separated.
func ParseCourtSelection(values []string) CourtSelection {
	mode, explicit := selectionMode(values)
	return CourtSelection{Mode: mode, Courts: explicit}
}

// ParseNOSSelection is ParseCourtSelection for NOS codes, which must be
// integers.
func ParseNOSSelection(values []string) (NOSSelection, error) {
	mode, explicit := selectionMode(values)
	sel := NOSSelection{Mode: mode}
	for _, v := range explicit {
		code, err := strconv.Atoi(v)
		if err != nil {
			return NOSSelection{}, invalidf("NOS code %q is not an integer", v)
		}
		sel.Codes = append(sel.Codes, code)
	}
	return sel, nil
}

// Resolve turns raw selections into one concrete filter set:
//
//  1. courts: explicit list, or none (Top-N is deferred to step 3)
//  2. NOS: candidates are ranked under the step-1 courts, then the
//     selection picks all, explicit codes or the first N candidates
//  3. courts, if Top-N: the busiest N under the step-2 codes
//
// Open range bounds are closed from the store extent first.
func (s *Store) Resolve(ctx context.Context, sel Selections) (*Resolved, error) {
	if err := sel.Range.validate(); err != nil {
		return nil, err
	}
	if sel.TopN < 0 {
		return nil, invalidf("top N must not be negative, got %d", sel.TopN)
	}
	topN := sel.TopN
	if topN == 0 {
		topN = DefaultTopN
	}

	dateRange, err := s.closeRange(ctx, sel.Range)
	if err != nil {
		return nil, err
	}

	courtsMode := sel.Courts.Mode
	if courtsMode == SelectExplicit && len(sel.Courts.Courts) == 0 {
		courtsMode = SelectAll
	}
	var stepCourts []string
	if courtsMode == SelectExplicit {
		stepCourts = uniqueStrings(sel.Courts.Courts)
	}

	candidateNOS, err := s.CountByNOS(ctx, stepCourts, dateRange)
	if err != nil {
		return nil, err
	}

	nosMode := sel.NOS.Mode
	if nosMode == SelectExplicit && len(sel.NOS.Codes) == 0 {
		nosMode = SelectAll
	}
	var resolvedNOS []int
	switch nosMode {
	case SelectExplicit:
		resolvedNOS = uniqueInts(sel.NOS.Codes)
	case SelectTopN:
		for i := 0; i < len(candidateNOS) && i < topN; i++ {
			resolvedNOS = append(resolvedNOS, candidateNOS[i].NOS)
		}
	}

	resolvedCourts := stepCourts
	if courtsMode == SelectTopN {
		resolvedCourts, err = s.TopCourts(ctx, dateRange, resolvedNOS, topN)
		if err != nil {
			return nil, err
		}
	}

	s.logger.Debug("Filters resolved",
		"courts_mode", courtsMode.String(),
		"courts", len(resolvedCourts),
		"nos_mode", nosMode.String(),
		"codes", len(resolvedNOS),
	)

	return &Resolved{
		Courts:       resolvedCourts,
		CourtsMode:   courtsMode,
		CandidateNOS: candidateNOS,
		Codes:        resolvedNOS,
		NOSMode:      nosMode,
		Range:        dateRange,
		TopN:         topN,
	}, nil
}
