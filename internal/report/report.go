// Package report renders runs and output tables to the terminal.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/table"
)

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
		},
	}))
}

// PrintRunSummary prints a one-line header for a run.
func PrintRunSummary(w io.Writer, r model.RunSummary) {
	window := "all dates"
	if r.DateFrom != "" || r.DateTo != "" {
		window = fmt.Sprintf("%s .. %s", orDash(r.DateFrom), orDash(r.DateTo))
	}
	fmt.Fprintf(w, "\nRun: %s  |  Created: %s  |  Dates: %s  |  Matches: %d  |  Teams: %d  |  Phases: %d\n\n",
		shortID(r.ID), r.CreatedAt, window, r.Matches, r.Teams, r.Phases)
}

// PrintRuns prints the stored runs, newest first.
func PrintRuns(w io.Writer, runs []model.RunSummary) {
	t := newTable(w)
	t.Header("RUN", "CREATED", "FROM", "TO", "MATCHES", "TEAMS", "PHASES", "STRICT", "TAXONOMY")
	for _, r := range runs {
		strict := "no"
		if r.Strict {
			strict = "yes"
		}
		t.Append(
			shortID(r.ID),
			r.CreatedAt,
			orDash(r.DateFrom),
			orDash(r.DateTo),
			strconv.Itoa(r.Matches),
			strconv.Itoa(r.Teams),
			strconv.Itoa(r.Phases),
			strict,
			"v"+strconv.Itoa(r.TaxonomyVersion),
		)
	}
	t.Render()
}

// PrintTable prints tb. When cols is non-empty only those columns are shown,
// in that order; unknown names are skipped.
func PrintTable(w io.Writer, tb *table.Table, cols []string) {
	idx := make([]int, 0, len(tb.Columns))
	if len(cols) == 0 {
		for i := range tb.Columns {
			idx = append(idx, i)
		}
	} else {
		for _, c := range cols {
			if i := tb.ColumnIndex(c); i >= 0 {
				idx = append(idx, i)
			}
		}
	}

	t := newTable(w)
	header := make([]any, len(idx))
	for j, i := range idx {
		header[j] = tb.Columns[i].Name
	}
	t.Header(header...)
	for _, row := range tb.Rows {
		cells := make([]any, len(idx))
		for j, i := range idx {
			cells[j] = Cell(row[i])
		}
		t.Append(cells...)
	}
	t.Render()
	fmt.Fprintf(w, "%s: %d rows\n\n", tb.Name, len(tb.Rows))
}

// Cell formats one value for display. Missing values show as a dash.
func Cell(v any) string {
	if table.IsMissing(v) {
		return "—"
	}
	if f, ok := v.(float64); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1e15 {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
		return fmt.Sprintf("%.2f", f)
	}
	return table.Format(v)
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
