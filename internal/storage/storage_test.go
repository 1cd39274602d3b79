package storage

import (
	"math"
	"testing"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/table"
)

func openMemDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seasonTable() *table.Table {
	t := table.New("season_in_possession", "team_id", "team_name", "n_matches", "count_build_up", "score")
	t.Append("10", "Alpha", 2, 3.5, math.NaN())
	t.Append("20", "Beta", 1, 1.0, 0.25)
	return t
}

func TestSaveRunAndGetTable(t *testing.T) {
	db := openMemDB(t)

	id, err := db.SaveRun(model.RunSummary{PhasesPath: "phases.csv", Phases: 5, Matches: 2, Teams: 2}, []*table.Table{seasonTable()})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if len(id) != 36 {
		t.Fatalf("expected uuid run id, got %q", id)
	}

	got, err := db.GetTable(id, "season_in_possession")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if got == nil {
		t.Fatal("expected table, got nil")
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	want := []string{"team_id", "team_name", "n_matches", "count_build_up", "score"}
	for i, c := range got.ColumnNames() {
		if c != want[i] {
			t.Errorf("column %d: got %q want %q", i, c, want[i])
		}
	}
	if got.Rows[0][0] != "10" || got.Rows[0][2] != 2 || got.Rows[0][3] != 3.5 {
		t.Errorf("unexpected first row: %v", got.Rows[0])
	}
	if f, ok := got.Rows[0][4].(float64); !ok || !math.IsNaN(f) {
		t.Errorf("missing score should read back as NaN, got %v", got.Rows[0][4])
	}
	if got.Rows[1][4] != 0.25 {
		t.Errorf("second row score: got %v", got.Rows[1][4])
	}
}

func TestGetTableUnknown(t *testing.T) {
	db := openMemDB(t)
	id, err := db.SaveRun(model.RunSummary{}, []*table.Table{seasonTable()})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	got, err := db.GetTable(id, "player_events")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown table, got %v", got)
	}
}

func TestSaveRunWidensTable(t *testing.T) {
	db := openMemDB(t)
	if _, err := db.SaveRun(model.RunSummary{}, []*table.Table{seasonTable()}); err != nil {
		t.Fatalf("first SaveRun: %v", err)
	}

	wider := table.New("season_in_possession", "team_id", "count_finish")
	wider.Append("10", 4.0)
	id, err := db.SaveRun(model.RunSummary{}, []*table.Table{wider})
	if err != nil {
		t.Fatalf("second SaveRun: %v", err)
	}

	got, err := db.GetTable(id, "season_in_possession")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if len(got.Columns) != 2 || got.Rows[0][1] != 4.0 {
		t.Errorf("unexpected widened table: %v %v", got.ColumnNames(), got.Rows)
	}
}

func TestGetTableKeepsMissingInts(t *testing.T) {
	db := openMemDB(t)
	tb := table.New("phases_in_possession", "index", "frame_end")
	tb.Append(0, 100)
	tb.Append(1, nil)
	id, err := db.SaveRun(model.RunSummary{}, []*table.Table{tb})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := db.GetTable(id, "phases_in_possession")
	if err != nil {
		t.Fatalf("GetTable: %v", err)
	}
	if got.Rows[0][1] != 100 {
		t.Errorf("frame_end[0] = %v, want 100", got.Rows[0][1])
	}
	if got.Rows[1][1] != nil {
		t.Errorf("frame_end[1] = %v, want nil", got.Rows[1][1])
	}
}

func TestListRunsAndPrefix(t *testing.T) {
	db := openMemDB(t)

	runs := []model.RunSummary{
		{ID: "aaaa-1", CreatedAt: "2025-01-01T00:00:00Z", DateFrom: "2024-08-01", Strict: true},
		{ID: "bbbb-2", CreatedAt: "2025-02-01T00:00:00Z"},
	}
	for _, r := range runs {
		if _, err := db.SaveRun(r, nil); err != nil {
			t.Fatalf("SaveRun: %v", err)
		}
	}

	list, err := db.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(list))
	}
	if list[0].ID != "bbbb-2" {
		t.Errorf("expected newest first, got %s", list[0].ID)
	}

	r, err := db.GetRunByPrefix("aaaa")
	if err != nil {
		t.Fatalf("GetRunByPrefix: %v", err)
	}
	if r == nil || r.ID != "aaaa-1" || !r.Strict || r.DateFrom != "2024-08-01" {
		t.Errorf("unexpected run: %+v", r)
	}

	none, err := db.GetRunByPrefix("zzzz")
	if err != nil {
		t.Fatalf("GetRunByPrefix: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for unknown prefix, got %+v", none)
	}
}

func TestDeleteRun(t *testing.T) {
	db := openMemDB(t)
	keep, err := db.SaveRun(model.RunSummary{}, []*table.Table{seasonTable()})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	drop, err := db.SaveRun(model.RunSummary{}, []*table.Table{seasonTable()})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	if err := db.DeleteRun(drop); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	_, rows, err := db.QueryRaw(`SELECT COUNT(*) FROM season_in_possession`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if rows[0][0] != "2" {
		t.Errorf("expected 2 remaining rows, got %s", rows[0][0])
	}
	names, err := db.TableNames(drop)
	if err != nil {
		t.Fatalf("TableNames: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected no tables for deleted run, got %v", names)
	}
	names, _ = db.TableNames(keep)
	if len(names) != 1 || names[0] != "season_in_possession" {
		t.Errorf("kept run tables: %v", names)
	}
}

func TestQueryRaw(t *testing.T) {
	db := openMemDB(t)
	if _, err := db.SaveRun(model.RunSummary{}, []*table.Table{seasonTable()}); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	cols, rows, err := db.QueryRaw(`SELECT team_name, score FROM season_in_possession ORDER BY row_num`)
	if err != nil {
		t.Fatalf("QueryRaw: %v", err)
	}
	if len(cols) != 2 || cols[0] != "team_name" {
		t.Errorf("unexpected columns: %v", cols)
	}
	if len(rows) != 2 || rows[0][0] != "Alpha" || rows[0][1] != "" || rows[1][1] != "0.25" {
		t.Errorf("unexpected rows: %v", rows)
	}

	if _, _, err := db.QueryRaw(`SELECT * FROM no_such_table`); err == nil {
		t.Error("expected error for unknown table")
	}
}
