package analytics

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencySamples(t *testing.T) {
	store, db := newTestStore(t)
	seed(t, db,
		docket{court: "dcd", filed: "2024-03-10", closed: "2024-03-01", nos: 440},
		docket{court: "dcd", filed: "2024-01-01", closed: "2024-01-31", nos: 110},
		docket{court: "nysd", filed: "2024-01-05", closed: "2024-01-07"},
		docket{court: "nysd", filed: "2024-02-01", nos: 110},
		docket{filed: "2024-02-01", closed: "2024-02-05", nos: 830},
	)
	ctx := context.Background()

	byCourt, err := store.LatencySamples(ctx, GroupByCourt, Filter{})
	require.NoError(t, err)
	require.Len(t, byCourt, 4, "open cases are excluded")

	counts := map[string][]int{}
	for _, s := range byCourt {
		counts[s.Group] = append(counts[s.Group], s.DaysToClose)
	}
	assert.ElementsMatch(t, []int{9, 30}, counts["dcd"])
	assert.Equal(t, []int{2}, counts["nysd"])
	assert.Equal(t, []int{4}, counts[""])

	byNOS, err := store.LatencySamples(ctx, GroupByNOS, Filter{Courts: []string{"dcd", "nysd"}})
	require.NoError(t, err)
	groups := map[string]int{}
	for _, s := range byNOS {
		groups[s.Group] = s.DaysToClose
		if s.Group == "" {
			assert.Nil(t, s.NOS)
			continue
		}
		require.NotNil(t, s.NOS)
		assert.Equal(t, s.Group, strconv.Itoa(*s.NOS))
	}
	assert.Equal(t, map[string]int{"110": 30, "440": 9, "": 2}, groups)

	filtered, err := store.LatencySamples(ctx, GroupByCourt, Filter{Codes: []int{440}})
	require.NoError(t, err)
	court, code := "dcd", 440
	assert.Equal(t, []LatencySample{{Group: "dcd", Court: &court, NOS: &code, DaysToClose: 9}}, filtered)

	noCourt, err := store.LatencySamples(ctx, GroupByCourt, Filter{Codes: []int{830}})
	require.NoError(t, err)
	require.Len(t, noCourt, 1)
	assert.Nil(t, noCourt[0].Court, "missing court stays nil")
	require.NotNil(t, noCourt[0].NOS)
	assert.Equal(t, 830, *noCourt[0].NOS)
}

func TestLatencySamplesInvalidDimension(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.LatencySamples(context.Background(), GroupDimension("judge"), Filter{})
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	_, err = ParseGroupDimension("judge")
	assert.True(t, errors.Is(err, ErrInvalidParameter))

	d, err := ParseGroupDimension(" NOS ")
	require.NoError(t, err)
	assert.Equal(t, GroupByNOS, d)
	assert.Equal(t, "NOS Code(s)", d.Label())
	assert.Equal(t, "District Court(s)", GroupByCourt.Label())
}

func TestSummarize(t *testing.T) {
	samples := []LatencySample{
		{Group: "b", DaysToClose: 4},
		{Group: "b", DaysToClose: 1},
		{Group: "b", DaysToClose: 3},
		{Group: "b", DaysToClose: 2},
		{Group: "a", DaysToClose: 10},
	}

	got := Summarize(samples)
	require.Len(t, got, 2)

	assert.Equal(t, GroupStats{Group: "a", Count: 1, Mean: 10, Median: 10, Q1: 10, Q3: 10, Min: 10, Max: 10}, got[0])

	b := got[1]
	assert.Equal(t, "b", b.Group)
	assert.Equal(t, 4, b.Count)
	assert.InDelta(t, 2.5, b.Mean, 1e-9)
	assert.InDelta(t, 2.5, b.Median, 1e-9)
	assert.InDelta(t, 1.75, b.Q1, 1e-9)
	assert.InDelta(t, 3.25, b.Q3, 1e-9)
	assert.Equal(t, 1.0, b.Min)
	assert.Equal(t, 4.0, b.Max)

	assert.Empty(t, Summarize(nil))
}

func TestSortStats(t *testing.T) {
	stats := []GroupStats{
		{Group: "c", Mean: 5, Max: 9},
		{Group: "a", Mean: 7, Max: 9},
		{Group: "b", Mean: 5, Max: 20},
	}

	SortStats(stats, StatMean, false)
	assert.Equal(t, []string{"a", "b", "c"}, groupNames(stats))

	SortStats(stats, StatMean, true)
	assert.Equal(t, []string{"b", "c", "a"}, groupNames(stats))

	SortStats(stats, StatMax, false)
	assert.Equal(t, []string{"b", "a", "c"}, groupNames(stats))
}

func TestParseStat(t *testing.T) {
	st, err := ParseStat("")
	require.NoError(t, err)
	assert.Equal(t, StatMean, st)

	st, err = ParseStat("Median")
	require.NoError(t, err)
	assert.Equal(t, StatMedian, st)

	_, err = ParseStat("p99")
	assert.True(t, errors.Is(err, ErrInvalidParameter))
}

func TestCheckGroups(t *testing.T) {
	assert.NoError(t, CheckGroups(20, 20))
	assert.NoError(t, CheckGroups(500, 0))

	err := CheckGroups(21, 20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyGroups))
	assert.False(t, errors.Is(err, ErrInvalidParameter))

	var tooMany *TooManyGroupsError
	require.True(t, errors.As(err, &tooMany))
	assert.Equal(t, 21, tooMany.Groups)
	assert.Equal(t, 20, tooMany.Limit)
}

func groupNames(stats []GroupStats) []string {
	out := make([]string, 0, len(stats))
	for _, s := range stats {
		out = append(out, s.Group)
	}
	return out
}
