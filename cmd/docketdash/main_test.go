package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
	"github.com/JustJay7/docket-dashboard/internal/config"
	"github.com/JustJay7/docket-dashboard/internal/database"
	"github.com/JustJay7/docket-dashboard/internal/nos"
)

func TestOpenDBAcrossRuns(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = &config.Config{
		DatabaseDriver: "sqlite",
		DatabasePath:   filepath.Join(t.TempDir(), "data", "court_outcomes.db"),
	}

	// migrate, then ingest, then serve each open the same file.
	for run := 1; run <= 3; run++ {
		db, err := openDB()
		require.NoError(t, err, "run %d", run)
		require.NoError(t, database.Close(db))
	}
}

func TestSelectEntries(t *testing.T) {
	ref := nos.Default()

	all, err := selectEntries(ref, nil)
	require.NoError(t, err)
	assert.Len(t, all, ref.Len())

	some, err := selectEntries(ref, []string{"830", "110"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "Patent", some[0].Title)
	assert.Equal(t, "Insurance", some[1].Title)

	_, err = selectEntries(ref, []string{"abc"})
	assert.Error(t, err)
	_, err = selectEntries(ref, []string{"1"})
	assert.Error(t, err)
}

func TestPrintNOSTable(t *testing.T) {
	var buf bytes.Buffer
	printNOSTable(&buf, []nos.Entry{{Code: 830, Title: "Patent", Chapter: "Property Rights"}})

	out := buf.String()
	assert.Contains(t, out, "Code")
	assert.Contains(t, out, "830")
	assert.Contains(t, out, "Property Rights")
}

func TestPrintCourtTable(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printCourtTable(&buf, []analytics.CourtBucketCount{
		{Bucket: jan, Court: "dcd", Filings: 4},
		{Bucket: jan, Court: "nysd", Filings: 0},
		{Bucket: feb, Court: "dcd", Filings: 1},
		{Bucket: feb, Court: "nysd", Filings: 7},
	})

	lines := strings.Split(buf.String(), "\n")
	var rows []string
	for _, l := range lines {
		if strings.Contains(l, "2024-") {
			rows = append(rows, strings.Join(strings.Fields(strings.ReplaceAll(l, "|", " ")), " "))
		}
	}
	assert.Equal(t, []string{"2024-01-01 4 0", "2024-02-01 1 7"}, rows)
}

func TestPrintCompositeTable(t *testing.T) {
	var buf bytes.Buffer
	printCompositeTable(&buf, []analytics.BucketCount{
		{Bucket: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Filings: 2},
		{Bucket: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Filings: 0},
	})
	out := buf.String()
	assert.Contains(t, out, "2024-01-02")
	assert.Contains(t, out, "Total")
}

func TestFormatDay(t *testing.T) {
	assert.Equal(t, "-", formatDay(time.Time{}))
	assert.Equal(t, "2024-02-29", formatDay(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)))
}
