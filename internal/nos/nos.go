// Package nos holds the static Nature-of-Suit reference table.
package nos

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed nos.yaml
var asset []byte

// Unknown is the title reported for codes missing from the table.
const Unknown = "Unknown"

// Entry is one row of the reference table.
type Entry struct {
	Code    int    `yaml:"code" json:"code"`
	Title   string `yaml:"title" json:"title"`
	Chapter string `yaml:"chapter" json:"chapter"`
}

// Reference is a read-only code lookup.
type Reference struct {
	entries []Entry
	byCode  map[int]Entry
}

var (
	defaultOnce sync.Once
	defaultRef  *Reference
)

// Load parses the bundled reference table.
func Load() (*Reference, error) {
	return parse(asset)
}

// Default returns the bundled table, parsed on first use.
func Default() *Reference {
	defaultOnce.Do(func() {
		ref, err := Load()
		if err != nil {
			panic(fmt.Sprintf("nos: bundled reference table is invalid: %v", err))
		}
		defaultRef = ref
	})
	return defaultRef
}

func parse(data []byte) (*Reference, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse NOS table: %w", err)
	}

	ref := &Reference{byCode: make(map[int]Entry, len(entries))}
	for _, e := range entries {
		if e.Code < 100 || e.Code > 999 {
			return nil, fmt.Errorf("NOS code %d is not three digits", e.Code)
		}
		if _, dup := ref.byCode[e.Code]; dup {
			return nil, fmt.Errorf("duplicate NOS code %d", e.Code)
		}
		ref.byCode[e.Code] = e
		ref.entries = append(ref.entries, e)
	}
	sort.Slice(ref.entries, func(i, j int) bool { return ref.entries[i].Code < ref.entries[j].Code })

	return ref, nil
}

func (r *Reference) Lookup(code int) (Entry, bool) {
	e, ok := r.byCode[code]
	return e, ok
}

// Title returns the official title, or Unknown.
func (r *Reference) Title(code int) string {
	if e, ok := r.byCode[code]; ok {
		return e.Title
	}
	return Unknown
}

// Chapter returns the broader category, or "" for unmapped codes.
func (r *Reference) Chapter(code int) string {
	return r.byCode[code].Chapter
}

// Label formats a code for chart legends, e.g. "830 · Patent".
func (r *Reference) Label(code int) string {
	return fmt.Sprintf("%d · %s", code, r.Title(code))
}

// Entries returns a copy of the table ordered by code.
func (r *Reference) Entries() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

func (r *Reference) Len() int {
	return len(r.entries)
}
