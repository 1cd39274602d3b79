package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/report"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/storage"
)

var (
	showTable   string
	showColumns string
)

var showCmd = &cobra.Command{
	Use:   "show <run-prefix>",
	Short: "Show a stored run's tables by run id prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVar(&showTable, "table", "", "table to print (default: list the run's tables)")
	showCmd.Flags().StringVar(&showColumns, "columns", "", "comma-separated columns to print")
}

func runShow(cmd *cobra.Command, args []string) error {
	prefix := args[0]

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(prefix)
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "No run found with id prefix %q\n", prefix)
		return nil
	}
	report.PrintRunSummary(os.Stdout, *run)

	if showTable == "" {
		names, err := db.TableNames(run.ID)
		if err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Tables:")
		for _, n := range names {
			fmt.Fprintf(os.Stdout, "  %s\n", n)
		}
		fmt.Fprintln(os.Stdout, "\nUse --table <name> to print one.")
		return nil
	}

	t, err := db.GetTable(run.ID, showTable)
	if err != nil {
		return fmt.Errorf("get table %s: %w", showTable, err)
	}
	if t == nil {
		fmt.Fprintf(os.Stderr, "Run %s has no table %q\n", run.ID[:8], showTable)
		return nil
	}

	var cols []string
	if showColumns != "" {
		for _, c := range strings.Split(showColumns, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
	}
	report.PrintTable(os.Stdout, t, cols)
	return nil
}
