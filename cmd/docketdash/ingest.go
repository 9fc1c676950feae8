package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JustJay7/docket-dashboard/internal/database"
	"github.com/JustJay7/docket-dashboard/internal/ingest"
)

var (
	ingestDir       string
	ingestBatchSize int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load dockets_*.jsonl and outcomes_*.jsonl exports into the store",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ingestDir
		if dir == "" {
			dir = cfg.DataDir
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close(db)

		res, err := ingest.NewLoader(db, log).WithBatchSize(ingestBatchSize).LoadDir(cmd.Context(), dir)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "read %d, inserted %d, updated %d, skipped %d, malformed %d\n",
			res.Read, res.Inserted, res.Updated, res.Skipped, res.Malformed)
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "directory holding the JSONL exports (default DATA_DIR)")
	ingestCmd.Flags().IntVar(&ingestBatchSize, "batch-size", ingest.DefaultBatchSize, "rows per insert")
}
