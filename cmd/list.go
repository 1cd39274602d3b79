package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/report"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored runs",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No runs stored yet. Run 'popmetrics run --phases <csv> --events <csv>' to add one.")
		return nil
	}
	report.PrintRuns(os.Stdout, runs)
	return nil
}
