package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/storage"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/table"
)

var (
	exportTable  string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <run-prefix>",
	Short: "Export a stored run's tables as CSV or JSON files",
	Long: `Reads a stored run's output tables back from the database and writes one
file per table, named <table>.csv or <table>.json.

JSON files hold {"name", "columns", "rows"} with rows as arrays in column
order; missing metrics are null. CSV files leave missing metrics empty.

Example:
  popmetrics export 3f2a --out-dir ./season-2024
  popmetrics export 3f2a --table season_in_possession --format json --out-dir .`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportTable, "table", "", "export only this table")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format: csv or json")
	exportCmd.Flags().StringVar(&exportOut, "out-dir", ".", "output directory")
}

func runExport(_ *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("unknown --format %q: use csv or json", exportFormat)
	}

	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	run, err := db.GetRunByPrefix(args[0])
	if err != nil {
		return fmt.Errorf("query run: %w", err)
	}
	if run == nil {
		return fmt.Errorf("no run found with id prefix %q", args[0])
	}

	names := []string{exportTable}
	if exportTable == "" {
		if names, err = db.TableNames(run.ID); err != nil {
			return fmt.Errorf("list tables: %w", err)
		}
	}

	if err := os.MkdirAll(exportOut, 0755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	for _, name := range names {
		t, err := db.GetTable(run.ID, name)
		if err != nil {
			return fmt.Errorf("get table %s: %w", name, err)
		}
		if t == nil {
			return fmt.Errorf("run %s has no table %q", run.ID, name)
		}
		path := filepath.Join(exportOut, name+"."+exportFormat)
		if err := writeTableFile(path, t, exportFormat); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s (%d rows)\n", path, len(t.Rows))
	}
	return nil
}

func writeTableFile(path string, t *table.Table, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if format == "json" {
		err = t.WriteJSON(f)
	} else {
		err = t.WriteCSV(f)
	}
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
