package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/JustJay7/docket-dashboard/internal/analytics"
	"github.com/JustJay7/docket-dashboard/internal/database"
)

var (
	reportGranularity string
	reportCourts      []string
	reportNOS         []string
	reportStart       string
	reportEnd         string
	reportTop         int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a dense filings table for the given filters",
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := analytics.ParseGranularity(firstNonEmpty(reportGranularity, cfg.DefaultGranularity))
		if err != nil {
			return err
		}
		nosSel, err := analytics.ParseNOSSelection(reportNOS)
		if err != nil {
			return err
		}
		var r analytics.DateRange
		if r.Start, err = analytics.ParseDate(reportStart); err != nil {
			return err
		}
		if r.End, err = analytics.ParseDate(reportEnd); err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		store, err := analytics.NewStore(db, log)
		if err != nil {
			return err
		}

		top := reportTop
		if top == 0 {
			top = cfg.DefaultTopN
		}
		res, err := store.Resolve(cmd.Context(), analytics.Selections{
			Courts: analytics.ParseCourtSelection(reportCourts),
			NOS:    nosSel,
			Range:  r,
			TopN:   top,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s filings, %s to %s\n", g.Label(), formatDay(res.Range.Start), formatDay(res.Range.End))
		if len(res.Codes) > 0 {
			fmt.Fprintf(out, "NOS codes: %s\n", joinCodes(res.Codes))
		}

		if res.AllCourts() {
			series, err := store.FilingsByBucket(cmd.Context(), g, res.Filter())
			if err != nil {
				return err
			}
			printCompositeTable(out, series)
			return nil
		}

		series := []analytics.CourtBucketCount{}
		if len(res.Courts) > 0 {
			series, err = store.FilingsByCourt(cmd.Context(), g, analytics.CourtSeries{Filter: res.Filter()})
			if err != nil {
				return err
			}
		}
		printCourtTable(out, series)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportGranularity, "granularity", "", "day, week, month or year (default DEFAULT_GRANULARITY)")
	reportCmd.Flags().StringSliceVar(&reportCourts, "courts", nil, "court slugs, \"all\" or \"top\"")
	reportCmd.Flags().StringSliceVar(&reportNOS, "nos", nil, "NOS codes, \"all\" or \"top\"")
	reportCmd.Flags().StringVar(&reportStart, "start", "", "first filing date, YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportEnd, "end", "", "last filing date, YYYY-MM-DD")
	reportCmd.Flags().IntVar(&reportTop, "top", 0, "size of top-N selections (default DEFAULT_TOP_N)")
}

func printCompositeTable(w io.Writer, series []analytics.BucketCount) {
	table := newTable(w)
	table.SetHeader([]string{"Bucket", "Filings"})

	var total int64
	for _, row := range series {
		table.Append([]string{formatDay(row.Bucket), strconv.FormatInt(row.Filings, 10)})
		total += row.Filings
	}
	table.SetFooter([]string{"Total", strconv.FormatInt(total, 10)})
	table.Render()
}

// printCourtTable pivots the series to one row per bucket and one column
// per court.
func printCourtTable(w io.Writer, series []analytics.CourtBucketCount) {
	var courts []string
	seen := map[string]bool{}
	var buckets []string
	cells := map[string]map[string]int64{}

	for _, row := range series {
		if !seen[row.Court] {
			seen[row.Court] = true
			courts = append(courts, row.Court)
		}
		b := formatDay(row.Bucket)
		if cells[b] == nil {
			cells[b] = map[string]int64{}
			buckets = append(buckets, b)
		}
		cells[b][row.Court] = row.Filings
	}
	sort.Strings(courts)

	table := newTable(w)
	table.SetHeader(append([]string{"Bucket"}, courts...))
	for _, b := range buckets {
		line := []string{b}
		for _, c := range courts {
			line = append(line, strconv.FormatInt(cells[b][c], 10))
		}
		table.Append(line)
	}
	table.Render()
}

func newTable(w io.Writer) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	return table
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func joinCodes(codes []int) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
