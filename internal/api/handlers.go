package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
	"github.com/JustJay7/docket-dashboard/internal/config"
	"github.com/JustJay7/docket-dashboard/internal/dashboard"
	"github.com/JustJay7/docket-dashboard/internal/nos"
	"github.com/JustJay7/docket-dashboard/pkg/logger"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	db     *gorm.DB
	store  *analytics.Store
	dash   *dashboard.Service
	ref    *nos.Reference
	logger *logger.Logger
	cfg    *config.Config
}

// NewHandlers creates a new handlers instance
func NewHandlers(db *gorm.DB, dash *dashboard.Service, logger *logger.Logger, cfg *config.Config) *Handlers {
	return &Handlers{
		db:     db,
		store:  dash.Store(),
		dash:   dash,
		ref:    nos.Default(),
		logger: logger,
		cfg:    cfg,
	}
}

func (h *Handlers) queryContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.cfg.QueryTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.cfg.QueryTimeout)
}

// resolve parses the shared filters and resolves them against the store.
func (h *Handlers) resolve(c *gin.Context) (context.Context, context.CancelFunc, filterParams, *analytics.Resolved, error) {
	ctx, cancel := h.queryContext(c)
	p, err := h.parseFilters(c)
	if err != nil {
		return ctx, cancel, p, nil, err
	}
	res, err := h.store.Resolve(ctx, p.selections())
	return ctx, cancel, p, res, err
}

// HealthCheck returns the health status
func (h *Handlers) HealthCheck(c *gin.Context) {
	dbHealthy := false
	if sqlDB, err := h.db.DB(); err == nil {
		dbHealthy = sqlDB.PingContext(c.Request.Context()) == nil
	}

	status := http.StatusOK
	state := "healthy"
	if !dbHealthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}

	c.JSON(status, gin.H{
		"status":   state,
		"database": dbHealthy,
		"dialect":  h.store.Dialect(),
		"cache":    h.dash.CacheStats(),
		"time":     time.Now().Unix(),
	})
}

// Options lists the values the filter pickers offer.
func (h *Handlers) Options(c *gin.Context) {
	ctx, cancel := h.queryContext(c)
	defer cancel()

	courts, err := h.store.Courts(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}
	extent, err := h.store.Extent(ctx)
	if err != nil {
		h.respondError(c, err)
		return
	}

	granularities := make([]gin.H, 0, len(analytics.Granularities))
	for _, g := range analytics.Granularities {
		granularities = append(granularities, gin.H{"value": g.String(), "label": g.Label()})
	}

	topLabel := fmt.Sprintf("Top %d (by count)", h.cfg.DefaultTopN)
	respondData(c, gin.H{
		"courts":              courts,
		"court_options":       append([]string{"All", topLabel}, courts...),
		"extent":              extent,
		"granularities":       granularities,
		"default_granularity": h.cfg.DefaultGranularity,
		"top_n":               h.cfg.DefaultTopN,
		"max_groups":          h.cfg.MaxGroups,
		"group_dimensions":    []analytics.GroupDimension{analytics.GroupByCourt, analytics.GroupByNOS},
		"sort_stats": []analytics.Stat{
			analytics.StatMean, analytics.StatMedian, analytics.StatQ1,
			analytics.StatQ3, analytics.StatMin, analytics.StatMax,
		},
	})
}

// NOSReference returns the code table, or one entry with ?code=.
func (h *Handlers) NOSReference(c *gin.Context) {
	raw := c.Query("code")
	if raw == "" {
		respondData(c, h.ref.Entries())
		return
	}

	code, err := strconv.Atoi(raw)
	if err != nil {
		h.respondError(c, invalidParam("code must be an integer, got %q", raw))
		return
	}
	entry, ok := h.ref.Lookup(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error":   fmt.Sprintf("NOS code %d not found", code),
		})
		return
	}
	respondData(c, entry)
}

type nosCountItem struct {
	analytics.NOSCount
	Label   string `json:"label"`
	Chapter string `json:"chapter"`
}

// NOSCounts ranks NOS codes under the court and date filters.
func (h *Handlers) NOSCounts(c *gin.Context) {
	_, cancel, _, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	items := make([]nosCountItem, 0, len(res.CandidateNOS))
	for _, n := range res.CandidateNOS {
		items = append(items, nosCountItem{NOSCount: n, Label: h.ref.Label(n.NOS), Chapter: h.ref.Chapter(n.NOS)})
	}
	respondData(c, items, gin.H{"filters": res})
}

// Filings returns the composite filing series.
func (h *Handlers) Filings(c *gin.Context) {
	ctx, cancel, p, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	series, err := h.store.FilingsByBucket(ctx, p.Granularity, res.Filter())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, series, gin.H{"filters": res, "granularity": p.Granularity})
}

// FilingsByCourt returns one filing series per resolved court.
func (h *Handlers) FilingsByCourt(c *gin.Context) {
	ctx, cancel, p, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	series := []analytics.CourtBucketCount{}
	if res.AllCourts() || len(res.Courts) > 0 {
		series, err = h.store.FilingsByCourt(ctx, p.Granularity, analytics.CourtSeries{Filter: res.Filter()})
		if err != nil {
			h.respondError(c, err)
			return
		}
	}
	respondData(c, series, gin.H{"filters": res, "granularity": p.Granularity})
}

// FilingsByNOS returns one filing series per resolved NOS code.
func (h *Handlers) FilingsByNOS(c *gin.Context) {
	ctx, cancel, p, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	series, err := h.store.FilingsByNOS(ctx, p.Granularity, res.Filter())
	if err != nil {
		h.respondError(c, err)
		return
	}
	labels := make(map[string]string, len(res.Codes))
	for _, code := range res.Codes {
		labels[strconv.Itoa(code)] = h.ref.Label(code)
	}
	respondData(c, series, gin.H{"filters": res, "granularity": p.Granularity, "labels": labels})
}

// CourtCounts returns case totals per court.
func (h *Handlers) CourtCounts(c *gin.Context) {
	ctx, cancel, _, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	counts, err := h.store.CountByCourt(ctx, res.Filter())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, counts, gin.H{"filters": res})
}

// TopCourts returns the busiest courts under the date and NOS filters.
func (h *Handlers) TopCourts(c *gin.Context) {
	ctx, cancel, p, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	courts, err := h.store.TopCourts(ctx, res.Range, res.Codes, p.TopN)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, courts, gin.H{"filters": res, "top_n": p.TopN})
}

// Latency returns days-to-close samples and per-group statistics.
func (h *Handlers) Latency(c *gin.Context) {
	dim, err := analytics.ParseGroupDimension(c.DefaultQuery("group", string(analytics.GroupByCourt)))
	if err != nil {
		h.respondError(c, err)
		return
	}
	stat, err := analytics.ParseStat(c.Query("sort"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ascending, err := parseOrder(c.Query("order"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx, cancel, _, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	samples, err := h.store.LatencySamples(ctx, dim, res.Filter())
	if err != nil {
		h.respondError(c, err)
		return
	}
	stats := analytics.Summarize(samples)
	if err := analytics.CheckGroups(len(stats), h.cfg.MaxGroups); err != nil {
		h.respondError(c, err)
		return
	}
	analytics.SortStats(stats, stat, ascending)

	respondData(c, gin.H{
		"label":   dim.Label(),
		"samples": samples,
		"stats":   stats,
	}, gin.H{"filters": res})
}

// Completeness reports how many filed cases lack a NOS code.
func (h *Handlers) Completeness(c *gin.Context) {
	ctx, cancel, _, res, err := h.resolve(c)
	defer cancel()
	if err != nil {
		h.respondError(c, err)
		return
	}

	comp, err := h.store.Completeness(ctx, res.Courts, res.Range)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, gin.H{
		"missing": comp.Missing,
		"total":   comp.Total,
		"ratio":   comp.Ratio(),
	}, gin.H{"filters": res})
}

// Dashboard renders every panel for the current filters.
func (h *Handlers) Dashboard(c *gin.Context) {
	p, err := h.parseFilters(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	dim, err := analytics.ParseGroupDimension(c.DefaultQuery("group", string(analytics.GroupByCourt)))
	if err != nil {
		h.respondError(c, err)
		return
	}
	stat, err := analytics.ParseStat(c.Query("sort"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	ascending, err := parseOrder(c.Query("order"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	ctx, cancel := h.queryContext(c)
	defer cancel()

	view, err := h.dash.Render(ctx, dashboard.Request{
		Granularity: p.Granularity,
		Courts:      p.Courts,
		NOS:         p.NOS,
		Range:       p.Range,
		TopN:        p.TopN,
		GroupBy:     dim,
		SortBy:      stat,
		Ascending:   ascending,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondData(c, view)
}

// CacheStats returns render cache statistics
func (h *Handlers) CacheStats(c *gin.Context) {
	stats := h.dash.CacheStats()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}

// ClearCache drops every cached render.
func (h *Handlers) ClearCache(c *gin.Context) {
	h.dash.Invalidate()
	h.logger.Info("Render cache cleared", "ip", c.ClientIP())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
