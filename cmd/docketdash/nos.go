package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/JustJay7/docket-dashboard/internal/nos"
)

var nosCmd = &cobra.Command{
	Use:   "nos [code...]",
	Short: "Print the nature-of-suit reference table",
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := selectEntries(nos.Default(), args)
		if err != nil {
			return err
		}
		printNOSTable(cmd.OutOrStdout(), entries)
		return nil
	},
}

func selectEntries(ref *nos.Reference, args []string) ([]nos.Entry, error) {
	if len(args) == 0 {
		return ref.Entries(), nil
	}
	entries := make([]nos.Entry, 0, len(args))
	for _, arg := range args {
		code, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid NOS code %q", arg)
		}
		e, ok := ref.Lookup(code)
		if !ok {
			return nil, fmt.Errorf("unknown NOS code %d", code)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func printNOSTable(w io.Writer, entries []nos.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Code", "Title", "Chapter"})

	for _, e := range entries {
		table.Append([]string{strconv.Itoa(e.Code), e.Title, e.Chapter})
	}
	table.Render()
}
