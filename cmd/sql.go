package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/storage"
)

var sqlCmd = &cobra.Command{
	Use:   "sql <query>",
	Short: "Run a raw SQL query against the metrics database",
	Long: `Run an arbitrary SQL query against the metrics database and print results as a table.

Schema overview:
  runs(id, created_at, phases_path, events_path, date_from, date_to, strict,
    taxonomy_version, n_phases, n_matches, n_teams)
  run_tables(run_id, name, n_rows)
  run_columns(run_id, table_name, position, name, kind)

Every output table is stored under its own name with run_id and row_num first:
  phases_in_possession, phases_out_of_possession,
  match_in_possession, match_out_of_possession,
  season_in_possession, season_out_of_possession, player_events

Example:
  popmetrics sql "SELECT team_name, count_build_up_phases_per_90 FROM season_in_possession
    WHERE run_id LIKE 'abcd%' ORDER BY 2 DESC"

Missing metrics are stored as NULL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSQL,
}

func runSQL(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()
	return printQuery(db, query)
}

// printQuery runs query and renders the result set.
func printQuery(db *storage.DB, query string) error {
	cols, rows, err := db.QueryRaw(query)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("(no rows)")
		return nil
	}

	table := tablewriter.NewTable(os.Stdout, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(os.Stdout, "\n(%d rows)\n", len(rows))
	return nil
}
