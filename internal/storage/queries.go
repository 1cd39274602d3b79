package storage

import (
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/table"
)

// SaveRun stores a run and all of its output tables in one transaction and
// returns the run id. A new uuid is assigned when run.ID is empty.
func (db *DB) SaveRun(run model.RunSummary, tables []*table.Table) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt == "" {
		run.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO runs(id, created_at, phases_path, events_path, date_from, date_to,
			strict, taxonomy_version, n_phases, n_matches, n_teams)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.PhasesPath, run.EventsPath, run.DateFrom, run.DateTo,
		boolInt(run.Strict), run.TaxonomyVersion, run.Phases, run.Matches, run.Teams,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for _, t := range tables {
		if err := insertTable(tx, run.ID, t); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return run.ID, nil
}

// insertTable records t's layout and bulk-inserts its rows.
func insertTable(tx *sql.Tx, runID string, t *table.Table) error {
	if err := ensureTable(tx, t); err != nil {
		return err
	}

	if _, err := tx.Exec(`INSERT OR REPLACE INTO run_tables(run_id, name, n_rows) VALUES (?, ?, ?)`,
		runID, t.Name, len(t.Rows)); err != nil {
		return fmt.Errorf("insert run_tables %s: %w", t.Name, err)
	}
	if _, err := tx.Exec(`DELETE FROM run_columns WHERE run_id = ? AND table_name = ?`, runID, t.Name); err != nil {
		return err
	}
	colStmt, err := tx.Prepare(`INSERT INTO run_columns(run_id, table_name, position, name, kind) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer colStmt.Close()
	for i, c := range t.Columns {
		if _, err := colStmt.Exec(runID, t.Name, i, c.Name, int(c.Kind)); err != nil {
			return fmt.Errorf("insert run_columns %s.%s: %w", t.Name, c.Name, err)
		}
	}

	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE run_id = ?`, quoteIdent(t.Name)), runID); err != nil {
		return err
	}
	names := make([]string, 0, len(t.Columns)+2)
	names = append(names, "run_id", "row_num")
	for _, c := range t.Columns {
		names = append(names, quoteIdent(c.Name))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
	stmt, err := tx.Prepare(fmt.Sprintf(`INSERT INTO %s(%s) VALUES (%s)`,
		quoteIdent(t.Name), strings.Join(names, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(names))
	for i, row := range t.Rows {
		args[0], args[1] = runID, i
		for j, v := range row {
			args[j+2] = sqlValue(v)
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("insert %s row %d: %w", t.Name, i, err)
		}
	}
	return nil
}

// ensureTable creates the data table for t, or adds any columns it lacks.
func ensureTable(tx *sql.Tx, t *table.Table) error {
	name := quoteIdent(t.Name)
	_, err := tx.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		run_id  TEXT NOT NULL,
		row_num INTEGER NOT NULL,
		PRIMARY KEY (run_id, row_num)
	)`, name))
	if err != nil {
		return fmt.Errorf("create %s: %w", t.Name, err)
	}

	existing, err := tableColumns(tx, t.Name)
	if err != nil {
		return err
	}
	for _, c := range t.Columns {
		if existing[c.Name] {
			continue
		}
		if _, err := tx.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`,
			name, quoteIdent(c.Name), c.Kind.SQLType())); err != nil {
			return fmt.Errorf("add column %s.%s: %w", t.Name, c.Name, err)
		}
		existing[c.Name] = true
	}
	return nil
}

func tableColumns(tx *sql.Tx, name string) (map[string]bool, error) {
	rows, err := tx.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(name)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := map[string]bool{}
	for rows.Next() {
		var (
			cid, notNull, pk int
			colName, typ     string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &colName, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[colName] = true
	}
	return cols, rows.Err()
}

// ListRuns returns all stored runs, newest first.
func (db *DB) ListRuns() ([]model.RunSummary, error) {
	rows, err := db.conn.Query(`
		SELECT id, created_at, phases_path, events_path, date_from, date_to,
			strict, taxonomy_version, n_phases, n_matches, n_teams
		FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRunByPrefix finds the first run whose id starts with the given prefix.
// It returns nil, nil when no run matches.
func (db *DB) GetRunByPrefix(prefix string) (*model.RunSummary, error) {
	row := db.conn.QueryRow(`
		SELECT id, created_at, phases_path, events_path, date_from, date_to,
			strict, taxonomy_version, n_phases, n_matches, n_teams
		FROM runs WHERE id LIKE ? ORDER BY created_at DESC LIMIT 1`, prefix+"%")
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (model.RunSummary, error) {
	var r model.RunSummary
	var strict int
	err := s.Scan(&r.ID, &r.CreatedAt, &r.PhasesPath, &r.EventsPath, &r.DateFrom, &r.DateTo,
		&strict, &r.TaxonomyVersion, &r.Phases, &r.Matches, &r.Teams)
	r.Strict = strict != 0
	return r, err
}

// TableNames returns the output tables stored for a run, in name order.
func (db *DB) TableNames(runID string) ([]string, error) {
	rows, err := db.conn.Query(`SELECT name FROM run_tables WHERE run_id = ? ORDER BY name`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// GetTable reads one stored output table back in its written column and row
// order. It returns nil, nil when the run has no such table.
func (db *DB) GetTable(runID, name string) (*table.Table, error) {
	rows, err := db.conn.Query(`
		SELECT name, kind FROM run_columns
		WHERE run_id = ? AND table_name = ? ORDER BY position`, runID, name)
	if err != nil {
		return nil, err
	}
	var cols []table.Column
	for rows.Next() {
		var c table.Column
		var kind int
		if err := rows.Scan(&c.Name, &kind); err != nil {
			rows.Close()
			return nil, err
		}
		c.Kind = table.Kind(kind)
		cols = append(cols, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		var n int
		err := db.conn.QueryRow(`SELECT COUNT(1) FROM run_tables WHERE run_id = ? AND name = ?`, runID, name).Scan(&n)
		if err != nil || n == 0 {
			return nil, err
		}
		return &table.Table{Name: name}, nil
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = quoteIdent(c.Name)
	}
	data, err := db.conn.Query(fmt.Sprintf(`SELECT %s FROM %s WHERE run_id = ? ORDER BY row_num`,
		strings.Join(quoted, ", "), quoteIdent(name)), runID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer data.Close()

	t := &table.Table{Name: name, Columns: cols}
	for data.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := data.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = cellValue(raw[i], c.Kind)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, data.Err()
}

// DeleteRun removes a run and its rows from every output table.
func (db *DB) DeleteRun(runID string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT name FROM run_tables WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return err
		}
		names = append(names, n)
	}
	rows.Close()

	for _, n := range names {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE run_id = ?`, quoteIdent(n)), runID); err != nil {
			return fmt.Errorf("delete %s rows: %w", n, err)
		}
	}
	for _, q := range []string{
		`DELETE FROM run_columns WHERE run_id = ?`,
		`DELETE FROM run_tables WHERE run_id = ?`,
		`DELETE FROM runs WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, runID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// QueryRaw runs an arbitrary read query and returns column names and
// stringified rows. NULL renders as "".
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	var out [][]string
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		rec := make([]string, len(cols))
		for i, v := range raw {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[i] = table.Format(v)
		}
		out = append(out, rec)
	}
	return cols, out, rows.Err()
}

// sqlValue maps a cell to its driver value. Missing floats become NULL.
func sqlValue(v any) any {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
	case bool:
		return boolInt(x)
	}
	return v
}

// cellValue maps a scanned driver value back to the cell type of kind.
func cellValue(v any, kind table.Kind) any {
	switch kind {
	case table.KindFloat:
		switch x := v.(type) {
		case float64:
			return x
		case int64:
			return float64(x)
		}
		return math.NaN()
	case table.KindInt:
		if x, ok := v.(int64); ok {
			return int(x)
		}
		return nil
	case table.KindBool:
		x, _ := v.(int64)
		return x != 0
	}
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case nil:
		return ""
	}
	return table.Format(v)
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
