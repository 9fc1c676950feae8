package api

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
)

// filterParams is the shared query string of every aggregate endpoint.
type filterParams struct {
	Granularity analytics.Granularity
	Courts      analytics.CourtSelection
	NOS         analytics.NOSSelection
	Range       analytics.DateRange
	TopN        int
}

func (p filterParams) selections() analytics.Selections {
	return analytics.Selections{Courts: p.Courts, NOS: p.NOS, Range: p.Range, TopN: p.TopN}
}

func invalidParam(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", analytics.ErrInvalidParameter, fmt.Sprintf(format, args...))
}

// parseFilters reads granularity, courts, nos, start, end and top.
func (h *Handlers) parseFilters(c *gin.Context) (filterParams, error) {
	var p filterParams
	var err error

	raw := c.Query("granularity")
	if raw == "" {
		raw = h.cfg.DefaultGranularity
	}
	if p.Granularity, err = analytics.ParseGranularity(raw); err != nil {
		return p, err
	}

	p.Courts = analytics.ParseCourtSelection(c.QueryArray("courts"))
	if p.NOS, err = analytics.ParseNOSSelection(c.QueryArray("nos")); err != nil {
		return p, err
	}

	if p.Range.Start, err = analytics.ParseDate(c.Query("start")); err != nil {
		return p, err
	}
	if p.Range.End, err = analytics.ParseDate(c.Query("end")); err != nil {
		return p, err
	}

	if p.TopN, err = parseTop(c.Query("top"), h.cfg.DefaultTopN); err != nil {
		return p, err
	}
	return p, nil
}

func parseTop(raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, invalidParam("top must be a positive integer, got %q", raw)
	}
	return n, nil
}

func parseOrder(raw string) (ascending bool, err error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "desc", "descending":
		return false, nil
	case "asc", "ascending":
		return true, nil
	}
	return false, invalidParam("order must be asc or desc, got %q", raw)
}
