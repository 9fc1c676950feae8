package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
	"github.com/JustJay7/docket-dashboard/internal/cache"
	"github.com/JustJay7/docket-dashboard/internal/nos"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
)

// DefaultMaxGroups is the largest latency grouping that is rendered.
const DefaultMaxGroups = 20

// Options tunes rendering.
type Options struct {
	TopN int
	// MaxGroups caps latency groups; negative disables the cap.
	MaxGroups int
}

// Request is the raw filter state of one dashboard render.
type Request struct {
	Granularity analytics.Granularity
	Courts      analytics.CourtSelection
	NOS         analytics.NOSSelection
	Range       analytics.DateRange
	TopN        int
	GroupBy     analytics.GroupDimension
	SortBy      analytics.Stat
	Ascending   bool
}

// Fingerprint identifies the rendered result of r.
func (r Request) Fingerprint() string {
	return cache.GenerateCacheKey("dashboard",
		r.Granularity.String(),
		r.Courts.Mode.String(), strings.Join(r.Courts.Courts, ","),
		r.NOS.Mode.String(), joinInts(r.NOS.Codes),
		formatDate(r.Range.Start), formatDate(r.Range.End),
		strconv.Itoa(r.TopN),
		string(r.GroupBy), string(r.SortBy), strconv.FormatBool(r.Ascending),
	)
}

// View is one fully rendered dashboard.
type View struct {
	Filters      *analytics.Resolved    `json:"filters"`
	Granularity  analytics.Granularity  `json:"granularity"`
	KPIs         analytics.Summary      `json:"kpis"`
	Geography    []analytics.CourtCount `json:"geography"`
	Filings      FilingsPanel           `json:"filings"`
	Treemap      TreemapPanel           `json:"treemap"`
	NOSTrend     NOSTrendPanel          `json:"nos_trend"`
	Latency      LatencyPanel           `json:"latency"`
	Completeness CompletenessPanel      `json:"completeness"`
	GeneratedAt  time.Time              `json:"generated_at"`
}

// Service renders dashboards from the aggregate store.
type Service struct {
	store  *analytics.Store
	cache  cache.Cache[*View]
	ref    *nos.Reference
	logger *logger.Logger
	opts   Options
}

// NewService wires a renderer. A nil cache disables result caching.
func NewService(store *analytics.Store, c cache.Cache[*View], log *logger.Logger, opts Options) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	if opts.TopN <= 0 {
		opts.TopN = analytics.DefaultTopN
	}
	if opts.MaxGroups == 0 {
		opts.MaxGroups = DefaultMaxGroups
	}
	return &Service{store: store, cache: c, ref: nos.Default(), logger: log, opts: opts}
}

func (s *Service) normalize(req Request) Request {
	if req.Granularity == 0 {
		req.Granularity = analytics.Day
	}
	if req.TopN == 0 {
		req.TopN = s.opts.TopN
	}
	if req.GroupBy == "" {
		req.GroupBy = analytics.GroupByCourt
	}
	if req.SortBy == "" {
		req.SortBy = analytics.StatMean
	}
	return req
}

// Render resolves the filters once and runs every panel query
// concurrently against the same resolved filter set.
func (s *Service) Render(ctx context.Context, req Request) (*View, error) {
	req = s.normalize(req)
	if err := req.Granularity.Validate(); err != nil {
		return nil, err
	}
	if _, err := analytics.ParseGroupDimension(string(req.GroupBy)); err != nil {
		return nil, err
	}
	if _, err := analytics.ParseStat(string(req.SortBy)); err != nil {
		return nil, err
	}
	if err := req.Range.Validate(); err != nil {
		return nil, err
	}

	// Open bounds are keyed by the current extent so an ingest that widens
	// it misses the cache. Rows added inside a cached range still wait for
	// the TTL or Invalidate.
	if req.Range.Open() {
		rng, err := s.store.CloseRange(ctx, req.Range)
		if err != nil {
			return nil, err
		}
		req.Range = rng
	}

	key := req.Fingerprint()
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			s.logger.Debug("Dashboard served from cache", "key", key)
			return v, nil
		}
	}

	start := time.Now()
	res, err := s.store.Resolve(ctx, analytics.Selections{
		Courts: req.Courts,
		NOS:    req.NOS,
		Range:  req.Range,
		TopN:   req.TopN,
	})
	if err != nil {
		return nil, err
	}

	view := &View{Filters: res, Granularity: req.Granularity, GeneratedAt: time.Now().UTC()}
	f := res.Filter()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sum, err := s.store.Summary(gctx, f)
		view.KPIs = sum
		return err
	})

	g.Go(func() error {
		geo, err := s.store.CountByCourt(gctx, f)
		view.Geography = geo
		return err
	})

	g.Go(func() error {
		panel, err := s.filings(gctx, req.Granularity, res)
		view.Filings = panel
		return err
	})

	g.Go(func() error {
		counts, err := s.store.CountByNOS(gctx, res.Courts, res.Range)
		if err != nil {
			return err
		}
		view.Treemap = Treemap(counts, res.Codes, s.ref)
		return nil
	})

	g.Go(func() error {
		panel, err := s.nosTrend(gctx, req.Granularity, res)
		view.NOSTrend = panel
		return err
	})

	g.Go(func() error {
		panel, err := s.latency(gctx, req, f)
		view.Latency = panel
		return err
	})

	g.Go(func() error {
		c, err := s.store.Completeness(gctx, res.Courts, res.Range)
		if err != nil {
			return err
		}
		view.Completeness = completenessPanel(c)
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn("Dashboard render failed", "error", err)
		return nil, err
	}

	s.logger.Info("Dashboard rendered",
		"granularity", req.Granularity.String(),
		"courts_mode", res.CourtsMode.String(),
		"nos_mode", res.NOSMode.String(),
		"duration", time.Since(start).String(),
	)
	if s.cache != nil {
		s.cache.Set(key, view)
	}
	return view, nil
}

func (s *Service) filings(ctx context.Context, g analytics.Granularity, res *analytics.Resolved) (FilingsPanel, error) {
	panel := FilingsPanel{Title: fmt.Sprintf("%s Filings by District Courts", g.Label())}

	if res.AllCourts() {
		series, err := s.store.FilingsByBucket(ctx, g, res.Filter())
		panel.Composite = series
		return panel, err
	}

	if len(res.Courts) == 0 {
		panel.ByCourt = []analytics.CourtBucketCount{}
		return panel, nil
	}
	series, err := s.store.FilingsByCourt(ctx, g, analytics.CourtSeries{Filter: res.Filter()})
	panel.ByCourt = series
	return panel, err
}

func (s *Service) nosTrend(ctx context.Context, g analytics.Granularity, res *analytics.Resolved) (NOSTrendPanel, error) {
	panel := NOSTrendPanel{Title: fmt.Sprintf("%s Filings by NOS Code", g.Label())}
	if !res.HasNOSSelection() {
		panel.Notice = noticeSelectNOS
		return panel, nil
	}

	series, err := s.store.FilingsByNOS(ctx, g, res.Filter())
	if err != nil {
		return panel, err
	}
	panel.Series = series
	panel.Labels = nosLabels(res.Codes, s.ref)
	return panel, nil
}

func (s *Service) latency(ctx context.Context, req Request, f analytics.Filter) (LatencyPanel, error) {
	panel := LatencyPanel{
		Label:     req.GroupBy.Label(),
		GroupBy:   req.GroupBy,
		SortBy:    req.SortBy,
		Ascending: req.Ascending,
	}

	samples, err := s.store.LatencySamples(ctx, req.GroupBy, f)
	if err != nil {
		return panel, err
	}
	if len(samples) == 0 {
		panel.Notice = noticeNoClosed
		return panel, nil
	}

	if err := analytics.CheckGroups(distinctGroups(samples), s.opts.MaxGroups); err != nil {
		var tooMany *analytics.TooManyGroupsError
		if errors.As(err, &tooMany) {
			panel.Notice = tooManyGroupsNotice(tooMany.Limit)
			return panel, nil
		}
		return panel, err
	}

	stats := analytics.Summarize(samples)
	analytics.SortStats(stats, req.SortBy, req.Ascending)
	panel.Samples = samples
	panel.Stats = stats
	return panel, nil
}

// Invalidate drops every cached render, e.g. after an ingest.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Clear()
	}
}

// CacheStats reports render cache usage.
func (s *Service) CacheStats() cache.CacheStats {
	if s.cache == nil {
		return cache.CacheStats{}
	}
	return s.cache.Stats()
}

// Store exposes the underlying aggregate store.
func (s *Service) Store() *analytics.Store {
	return s.store
}

func joinInts(in []int) string {
	parts := make([]string, len(in))
	for i, n := range in {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
