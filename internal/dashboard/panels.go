package dashboard

import (
	"fmt"
	"sort"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
	"github.com/JustJay7/docket-dashboard/internal/nos"
)

const (
	noticeSelectNOS = "Select one or more NOS codes to see trends."
	noticeNoClosed  = "No closed cases match the current filters."
	noticeNoNOS     = "No data for selected NOS."
)

// FilingsPanel is the filing-volume chart. Exactly one of Composite and
// ByCourt is set.
type FilingsPanel struct {
	Title     string                       `json:"title"`
	Composite []analytics.BucketCount      `json:"composite,omitempty"`
	ByCourt   []analytics.CourtBucketCount `json:"by_court,omitempty"`
}

// TreemapNode is one NOS leaf under its chapter.
type TreemapNode struct {
	Chapter string `json:"chapter"`
	NOS     int    `json:"nos"`
	Label   string `json:"label"`
	Count   int64  `json:"count"`
}

// TreemapPanel is the cumulative filings by NOS chapter and code.
type TreemapPanel struct {
	Title  string        `json:"title"`
	Total  int64         `json:"total"`
	Cutoff float64       `json:"cutoff"`
	Nodes  []TreemapNode `json:"nodes"`
	Notice string        `json:"notice,omitempty"`
}

// NOSTrendPanel is the per-code filing series.
type NOSTrendPanel struct {
	Title  string                     `json:"title"`
	Series []analytics.NOSBucketCount `json:"series,omitempty"`
	Labels map[int]string             `json:"labels,omitempty"`
	Notice string                     `json:"notice,omitempty"`
}

// LatencyPanel is the days-to-close distribution per group.
type LatencyPanel struct {
	Label     string                    `json:"label"`
	GroupBy   analytics.GroupDimension  `json:"group_by"`
	SortBy    analytics.Stat            `json:"sort_by"`
	Ascending bool                      `json:"ascending"`
	Samples   []analytics.LatencySample `json:"samples,omitempty"`
	Stats     []analytics.GroupStats    `json:"stats,omitempty"`
	Notice    string                    `json:"notice,omitempty"`
}

// CompletenessPanel is the NOS data-quality caption.
type CompletenessPanel struct {
	Missing int64   `json:"missing"`
	Total   int64   `json:"total"`
	Ratio   float64 `json:"ratio"`
	Caption string  `json:"caption"`
}

// Treemap shapes NOS counts into chapter/code nodes. Codes outside the
// reference chapters are dropped, as are codes below max(1, total/10000).
func Treemap(counts []analytics.NOSCount, codes []int, ref *nos.Reference) TreemapPanel {
	panel := TreemapPanel{Title: "Cumulative Filings by NOS Code", Nodes: []TreemapNode{}}

	keep := make(map[int]bool, len(codes))
	for _, c := range codes {
		keep[c] = true
	}

	merged := make(map[int]int64)
	for _, c := range counts {
		if len(keep) > 0 && !keep[c.NOS] {
			continue
		}
		if ref.Chapter(c.NOS) == "" {
			continue
		}
		merged[c.NOS] += c.Count
		panel.Total += c.Count
	}
	if len(merged) == 0 {
		panel.Notice = noticeNoNOS
		return panel
	}

	panel.Cutoff = float64(panel.Total) * 0.0001
	if panel.Cutoff < 1 {
		panel.Cutoff = 1
	}
	for code, n := range merged {
		if float64(n) < panel.Cutoff {
			continue
		}
		panel.Nodes = append(panel.Nodes, TreemapNode{
			Chapter: ref.Chapter(code),
			NOS:     code,
			Label:   ref.Label(code),
			Count:   n,
		})
	}
	sort.Slice(panel.Nodes, func(i, j int) bool {
		a, b := panel.Nodes[i], panel.Nodes[j]
		if a.Chapter != b.Chapter {
			return a.Chapter < b.Chapter
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.NOS < b.NOS
	})
	return panel
}

func nosLabels(codes []int, ref *nos.Reference) map[int]string {
	labels := make(map[int]string, len(codes))
	for _, c := range codes {
		labels[c] = ref.Label(c)
	}
	return labels
}

func completenessPanel(c analytics.Completeness) CompletenessPanel {
	p := CompletenessPanel{Missing: c.Missing, Total: c.Total, Ratio: c.Ratio()}
	p.Caption = fmt.Sprintf("Of the %d dockets in the current filters, %d (%.1f%%) have no Nature of Suit (NOS) code.",
		c.Total, c.Missing, p.Ratio*100)
	return p
}

func tooManyGroupsNotice(limit int) string {
	return fmt.Sprintf("Too many groups selected; refine filters to %d or fewer to view the latency distribution.", limit)
}

func distinctGroups(samples []analytics.LatencySample) int {
	seen := make(map[string]struct{})
	for _, s := range samples {
		seen[s.Group] = struct{}{}
	}
	return len(seen)
}
