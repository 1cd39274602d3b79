package report

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/table"
)

func TestCell(t *testing.T) {
	assert.Equal(t, "—", Cell(math.NaN()))
	assert.Equal(t, "—", Cell(nil))
	assert.Equal(t, "3", Cell(3.0))
	assert.Equal(t, "0.33", Cell(1.0/3))
	assert.Equal(t, "7", Cell(7))
	assert.Equal(t, "true", Cell(true))
	assert.Equal(t, "build_up", Cell("build_up"))
}

func TestPrintTableSubset(t *testing.T) {
	tb := table.New("season_in_possession", "team_id", "team_name", "score")
	tb.Append("10", "Alpha", math.NaN())

	var buf bytes.Buffer
	PrintTable(&buf, tb, []string{"team_name", "score", "missing"})
	out := buf.String()

	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "—")
	assert.NotContains(t, out, "10")
	assert.Contains(t, out, "season_in_possession: 1 rows")
}

func TestPrintRuns(t *testing.T) {
	var buf bytes.Buffer
	PrintRuns(&buf, []model.RunSummary{{
		ID: "0123456789abcdef", CreatedAt: "2025-01-01T00:00:00Z", DateFrom: "2024-08-01",
		Matches: 3, Teams: 4, Phases: 120, Strict: true, TaxonomyVersion: 1,
	}})
	out := buf.String()

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "2024-08-01")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "v1")
}
