// Package table is the generic output shape shared by the CSV writer, the
// terminal report and the run store.
package table

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindFloat
	KindBool
)

// SQLType returns the SQLite column affinity for k.
func (k Kind) SQLType() string {
	switch k {
	case KindInt, KindBool:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	}
	return "TEXT"
}

// Column is a named, typed column.
type Column struct {
	Name string
	Kind Kind
}

// Table is a named, ordered set of rows. Cell values are string, int, float64
// or bool; nil and NaN floats are missing values.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any

	typed []bool
}

// New returns an empty table with the given column names. Column kinds are
// taken from the first non-nil value appended to each column.
func New(name string, cols ...string) *Table {
	t := &Table{Name: name, Columns: make([]Column, len(cols))}
	for i, c := range cols {
		t.Columns[i] = Column{Name: c}
	}
	return t
}

// Append adds a row. It panics if the row width does not match the columns,
// which is always a programming error.
func (t *Table) Append(vals ...any) {
	if len(vals) != len(t.Columns) {
		panic(fmt.Sprintf("table %s: row has %d values, want %d", t.Name, len(vals), len(t.Columns)))
	}
	if t.typed == nil {
		t.typed = make([]bool, len(t.Columns))
	}
	for i, v := range vals {
		if !t.typed[i] && v != nil {
			t.Columns[i].Kind = KindOf(v)
			t.typed[i] = true
		}
	}
	t.Rows = append(t.Rows, vals)
}

// ColumnNames returns the column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// KindOf maps a cell value to its column kind.
func KindOf(v any) Kind {
	switch v.(type) {
	case int, int64:
		return KindInt
	case float64:
		return KindFloat
	case bool:
		return KindBool
	}
	return KindText
}

// Format renders a cell for text output. Missing values render as "".
func Format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return fmt.Sprint(v)
}

// IsMissing reports whether v is a missing value.
func IsMissing(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x) || math.IsInf(x, 0)
	}
	return false
}

// WriteCSV writes t with a header row. Missing values are empty cells.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name, err)
	}
	rec := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, v := range row {
			rec[i] = Format(v)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write %s row: %w", t.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonTable struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// WriteJSON writes t as {"name", "columns", "rows"} with rows as arrays in
// column order. Missing values are null.
func (t *Table) WriteJSON(w io.Writer) error {
	out := jsonTable{Name: t.Name, Columns: t.ColumnNames(), Rows: make([][]any, len(t.Rows))}
	for i, row := range t.Rows {
		rec := make([]any, len(row))
		for j, v := range row {
			if !IsMissing(v) {
				rec[j] = v
			}
		}
		out.Rows[i] = rec
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write %s json: %w", t.Name, err)
	}
	return nil
}
