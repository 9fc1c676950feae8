package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/JustJay7/docket-dashboard/internal/database"
)

var (
	courtSlugPattern = regexp.MustCompile(`/courts/([^/]+)/?$`)
	caseIDPattern    = regexp.MustCompile(`/(\d+)/?$`)
	nosCodePattern   = regexp.MustCompile(`^\s*(\d{3})`)
)

// ErrMissingID is returned for records that carry no usable case id.
var ErrMissingID = errors.New("record has no case id")

// docketRecord mirrors the fields of a CourtListener docket object that
// the cases table keeps.
type docketRecord struct {
	ID             *int64  `json:"id"`
	AbsoluteURL    string  `json:"absolute_url"`
	Court          *string `json:"court"`
	DocketNumber   string  `json:"docket_number"`
	DateFiled      *string `json:"date_filed"`
	DateTerminated *string `json:"date_terminated"`
	NatureOfSuit   *string `json:"nature_of_suit"`
	Disposition    *string `json:"disposition"`
}

type outcomeRecord struct {
	Case   string `json:"case"`
	Winner *bool  `json:"winner"`
}

// Outcome is the result flag for one case.
type Outcome struct {
	CaseID int64
	Win    *bool
}

// ParseDocket decodes one JSONL docket line into a case row.
func ParseDocket(line []byte) (*database.Case, error) {
	var rec docketRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode docket: %w", err)
	}
	if rec.ID == nil || *rec.ID <= 0 {
		return nil, ErrMissingID
	}

	filed, err := parseDate(rec.DateFiled)
	if err != nil {
		return nil, fmt.Errorf("case %d: date_filed: %w", *rec.ID, err)
	}
	closed, err := parseDate(rec.DateTerminated)
	if err != nil {
		return nil, fmt.Errorf("case %d: date_terminated: %w", *rec.ID, err)
	}

	return &database.Case{
		CaseID:              *rec.ID,
		URL:                 rec.AbsoluteURL,
		CourtSlug:           CourtSlug(rec.Court),
		DocketNumber:        rec.DocketNumber,
		FilingDate:          filed,
		ClosingDate:         closed,
		NatureOfSuitNumeric: NOSCode(rec.NatureOfSuit),
		Disposition:         nonEmpty(rec.Disposition),
	}, nil
}

// ParseOutcome decodes one JSONL outcome line. The case id is the last
// path segment of the case URL.
func ParseOutcome(line []byte) (Outcome, error) {
	var rec outcomeRecord
	if err := json.Unmarshal(line, &rec); err != nil {
		return Outcome{}, fmt.Errorf("failed to decode outcome: %w", err)
	}

	m := caseIDPattern.FindStringSubmatch(rec.Case)
	if m == nil {
		return Outcome{}, ErrMissingID
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Outcome{}, fmt.Errorf("case id %q: %w", m[1], err)
	}
	return Outcome{CaseID: id, Win: rec.Winner}, nil
}

// CourtSlug extracts the slug from a court API URL such as
// https://www.courtlistener.com/api/rest/v4/courts/dcd/. A value without
// slashes is taken as the slug itself.
func CourtSlug(raw *string) *string {
	if raw == nil {
		return nil
	}
	v := strings.TrimSpace(*raw)
	if m := courtSlugPattern.FindStringSubmatch(v); m != nil {
		return &m[1]
	}
	if v == "" || strings.Contains(v, "/") {
		return nil
	}
	return &v
}

// NOSCode reads the leading 3-digit code of a nature-of-suit label,
// e.g. "440 Civil Rights: Other".
func NOSCode(raw *string) *int {
	if raw == nil {
		return nil
	}
	m := nosCodePattern.FindStringSubmatch(*raw)
	if m == nil {
		return nil
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &code
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	v := strings.TrimSpace(*raw)
	if v == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, v); err == nil {
			return database.DatePtr(t), nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", v)
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
