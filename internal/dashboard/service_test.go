package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
	"github.com/JustJay7/docket-dashboard/internal/cache"
	"github.com/JustJay7/docket-dashboard/internal/database"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
)

type fixture struct {
	court  string
	filed  string
	closed string
	nos    int
}

func newTestService(t *testing.T, opts Options, rows ...fixture) (*Service, *gorm.DB) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	cases := make([]database.Case, 0, len(rows))
	for i, r := range rows {
		c := database.Case{CaseID: int64(i + 1), URL: fmt.Sprintf("/docket/%d/", i+1)}
		if r.court != "" {
			court := r.court
			c.CourtSlug = &court
		}
		c.FilingDate = datePtr(t, r.filed)
		c.ClosingDate = datePtr(t, r.closed)
		if r.nos != 0 {
			code := r.nos
			c.NatureOfSuitNumeric = &code
		}
		cases = append(cases, c)
	}
	if len(cases) > 0 {
		require.NoError(t, db.Create(&cases).Error)
	}

	store, err := analytics.NewStore(db, logger.NewNop())
	require.NoError(t, err)
	return NewService(store, cache.NewCache[*View](10, time.Minute), logger.NewNop(), opts), db
}

func datePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	if s == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return &d
}

var docketFixtures = []fixture{
	{court: "dcd", filed: "2024-01-02", closed: "2024-01-12", nos: 440},
	{court: "dcd", filed: "2024-01-20", nos: 440},
	{court: "dcd", filed: "2024-02-03", closed: "2024-01-30", nos: 830},
	{court: "nysd", filed: "2024-02-10", closed: "2024-03-01", nos: 110},
	{court: "nysd", filed: "2024-03-05"},
	{court: "cand", filed: "2024-03-15", nos: 999},
}

func TestRenderAllCourts(t *testing.T) {
	svc, _ := newTestService(t, Options{}, docketFixtures...)

	view, err := svc.Render(context.Background(), Request{Granularity: analytics.Month})
	require.NoError(t, err)

	assert.True(t, view.Filters.AllCourts())
	assert.Equal(t, int64(6), view.KPIs.Total)
	assert.Equal(t, int64(3), view.KPIs.Closed)
	assert.InDelta(t, 0.5, view.KPIs.OpenRate, 1e-9)

	assert.Equal(t, "Monthly Filings by District Courts", view.Filings.Title)
	assert.Nil(t, view.Filings.ByCourt)
	require.Len(t, view.Filings.Composite, 3)
	assert.Equal(t, []int64{2, 2, 2}, []int64{
		view.Filings.Composite[0].Filings,
		view.Filings.Composite[1].Filings,
		view.Filings.Composite[2].Filings,
	})

	assert.Len(t, view.Geography, 3)

	// 999 has no chapter and is dropped from the treemap.
	require.Len(t, view.Treemap.Nodes, 3)
	assert.Equal(t, int64(4), view.Treemap.Total)
	for _, n := range view.Treemap.Nodes {
		assert.NotEqual(t, 999, n.NOS)
	}

	assert.Equal(t, noticeSelectNOS, view.NOSTrend.Notice)
	assert.Empty(t, view.NOSTrend.Series)

	assert.Empty(t, view.Latency.Notice)
	require.Len(t, view.Latency.Stats, 2)
	assert.Equal(t, "nysd", view.Latency.Stats[0].Group, "default sort is mean descending")
	assert.Equal(t, 20.0, view.Latency.Stats[0].Mean)
	assert.Equal(t, 7.0, view.Latency.Stats[1].Mean)

	assert.Equal(t, int64(1), view.Completeness.Missing)
	assert.Equal(t, int64(6), view.Completeness.Total)
	assert.Contains(t, view.Completeness.Caption, "Of the 6 dockets")
}

func TestRenderExplicitSelection(t *testing.T) {
	svc, _ := newTestService(t, Options{}, docketFixtures...)

	nosSel, err := analytics.ParseNOSSelection([]string{"440"})
	require.NoError(t, err)

	view, err := svc.Render(context.Background(), Request{
		Granularity: analytics.Month,
		Courts:      analytics.ParseCourtSelection([]string{"dcd", "nysd"}),
		NOS:         nosSel,
		GroupBy:     analytics.GroupByNOS,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"dcd", "nysd"}, view.Filters.Courts)
	assert.Equal(t, int64(2), view.KPIs.Total)

	assert.Nil(t, view.Filings.Composite)
	require.Len(t, view.Filings.ByCourt, 6, "3 months x 2 courts")

	require.Len(t, view.NOSTrend.Series, 3)
	assert.Equal(t, map[int]string{440: "440 · Other Civil Rights"}, view.NOSTrend.Labels)

	require.Len(t, view.Treemap.Nodes, 1)
	assert.Equal(t, 440, view.Treemap.Nodes[0].NOS)

	assert.Equal(t, "NOS Code(s)", view.Latency.Label)
	require.Len(t, view.Latency.Stats, 1)
	assert.Equal(t, "440", view.Latency.Stats[0].Group)

	// The NOS filter does not narrow completeness.
	assert.Equal(t, int64(5), view.Completeness.Total)
	assert.Equal(t, int64(1), view.Completeness.Missing)
}

func TestRenderTopCourts(t *testing.T) {
	svc, _ := newTestService(t, Options{TopN: 1}, docketFixtures...)

	view, err := svc.Render(context.Background(), Request{
		Granularity: analytics.Year,
		Courts:      analytics.ParseCourtSelection([]string{"Top 5 (by count)"}),
	})
	require.NoError(t, err)

	assert.Equal(t, analytics.SelectTopN, view.Filters.CourtsMode)
	assert.Equal(t, []string{"dcd"}, view.Filters.Courts)
	require.Len(t, view.Filings.ByCourt, 1)
	assert.Equal(t, int64(3), view.Filings.ByCourt[0].Filings)
}

func TestRenderTooManyGroups(t *testing.T) {
	svc, _ := newTestService(t, Options{MaxGroups: 1}, docketFixtures...)

	view, err := svc.Render(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, tooManyGroupsNotice(1), view.Latency.Notice)
	assert.Empty(t, view.Latency.Stats)
}

func TestRenderEmptyStore(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	view, err := svc.Render(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, analytics.Summary{}, view.KPIs)
	assert.Empty(t, view.Filings.Composite)
	assert.Equal(t, noticeNoNOS, view.Treemap.Notice)
	assert.Equal(t, noticeNoClosed, view.Latency.Notice)
	assert.Zero(t, view.Completeness.Ratio)
}

func TestRenderRejectsInvalidRequest(t *testing.T) {
	svc, _ := newTestService(t, Options{}, docketFixtures...)
	ctx := context.Background()

	tests := []Request{
		{Granularity: analytics.Granularity(42)},
		{GroupBy: analytics.GroupDimension("judge")},
		{SortBy: analytics.Stat("p99")},
		{TopN: -2},
		{Range: analytics.DateRange{Start: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}},
	}
	for i, req := range tests {
		_, err := svc.Render(ctx, req)
		assert.True(t, errors.Is(err, analytics.ErrInvalidParameter), "request %d: %v", i, err)
	}
}

func TestRenderCachesByFingerprint(t *testing.T) {
	svc, db := newTestService(t, Options{}, docketFixtures...)
	ctx := context.Background()

	first, err := svc.Render(ctx, Request{Granularity: analytics.Month})
	require.NoError(t, err)

	require.NoError(t, db.Create(&database.Case{CaseID: 100, FilingDate: datePtr(t, "2024-02-02")}).Error)

	cached, err := svc.Render(ctx, Request{Granularity: analytics.Month})
	require.NoError(t, err)
	assert.Same(t, first, cached)
	assert.Equal(t, int64(1), svc.CacheStats().Hits)

	svc.Invalidate()
	fresh, err := svc.Render(ctx, Request{Granularity: analytics.Month})
	require.NoError(t, err)
	assert.Equal(t, int64(7), fresh.KPIs.Total)
}

func TestRenderOpenRangeFollowsExtent(t *testing.T) {
	svc, db := newTestService(t, Options{}, docketFixtures...)
	ctx := context.Background()

	first, err := svc.Render(ctx, Request{Granularity: analytics.Month})
	require.NoError(t, err)
	require.Len(t, first.Filings.Composite, 3)

	// Another process ingests a later docket.
	require.NoError(t, db.Create(&database.Case{CaseID: 100, FilingDate: datePtr(t, "2024-05-20")}).Error)

	fresh, err := svc.Render(ctx, Request{Granularity: analytics.Month})
	require.NoError(t, err)
	assert.NotSame(t, first, fresh)
	assert.Equal(t, int64(7), fresh.KPIs.Total)
	require.Len(t, fresh.Filings.Composite, 5)
	assert.Equal(t, int64(1), fresh.Filings.Composite[4].Filings)
	assert.Equal(t, int64(0), svc.CacheStats().Hits)

	// A closed range is unaffected by the wider extent.
	closed := analytics.DateRange{Start: *datePtr(t, "2024-01-01"), End: *datePtr(t, "2024-03-31")}
	a, err := svc.Render(ctx, Request{Granularity: analytics.Month, Range: closed})
	require.NoError(t, err)
	b, err := svc.Render(ctx, Request{Granularity: analytics.Month, Range: closed})
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestRenderStoreFailure(t *testing.T) {
	svc, db := newTestService(t, Options{}, docketFixtures...)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.Render(context.Background(), Request{})
	assert.True(t, errors.Is(err, analytics.ErrStoreUnavailable))
}

func TestFingerprintDistinguishesRequests(t *testing.T) {
	a := Request{Granularity: analytics.Day}
	b := Request{Granularity: analytics.Week}
	c := Request{Granularity: analytics.Day, Courts: analytics.ParseCourtSelection([]string{"dcd"})}

	assert.NotEqual(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.Equal(t, a.Fingerprint(), Request{Granularity: analytics.Day}.Fingerprint())
}
