package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JustJay7/docket-dashboard/internal/database"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	store, err := NewStore(db, logger.NewNop())
	require.NoError(t, err)
	return store, db
}

// docket describes a seeded case. Empty strings and zero codes are stored
// as NULL.
type docket struct {
	court  string
	filed  string
	closed string
	nos    int
}

func seed(t *testing.T, db *gorm.DB, dockets ...docket) {
	t.Helper()

	var existing int64
	require.NoError(t, db.Model(&database.Case{}).Count(&existing).Error)

	rows := make([]database.Case, 0, len(dockets))
	for i, d := range dockets {
		c := database.Case{CaseID: existing + int64(i) + 1}
		if d.court != "" {
			court := d.court
			c.CourtSlug = &court
		}
		if d.filed != "" {
			c.FilingDate = database.DatePtr(day(t, d.filed))
		}
		if d.closed != "" {
			c.ClosingDate = database.DatePtr(day(t, d.closed))
		}
		if d.nos != 0 {
			code := d.nos
			c.NatureOfSuitNumeric = &code
		}
		rows = append(rows, c)
	}
	require.NoError(t, db.CreateInBatches(rows, 500).Error)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(dateLayout, s)
	require.NoError(t, err)
	return d
}

func span(t *testing.T, start, end string) DateRange {
	t.Helper()
	return DateRange{Start: day(t, start), End: day(t, end)}
}
