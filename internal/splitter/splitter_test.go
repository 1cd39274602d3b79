package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

func enrichedRow(match string, index int) model.EnrichedPhase {
	return model.EnrichedPhase{
		Phase: model.Phase{
			MatchID:                      match,
			Index:                        index,
			FrameStart:                   index * 100,
			FrameEnd:                     index*100 + 100,
			TeamInPossessionID:           "10",
			TeamInPossessionShortname:    "A",
			TeamInPossessionPhaseType:    "build_up",
			TeamOutOfPossessionID:        "20",
			TeamOutOfPossessionShortname: "B",
			TeamOutOfPossessionPhaseType: "high_block",
			InPossessionNextPhase:        "create",
			OutOfPossessionNextPhase:     "medium_block",
			InPossessionWidthStart:       30,
			OutOfPossessionWidthStart:    25,
			PlayerPossessions:            4,
			LeadToShot:                   true,
		},
		TypeCounts:               map[string]int{"player_possession": 4, "passing_option": 3},
		SubtypeCounts:            map[string]int{"none": 4, "support": 2, "behind": 1},
		TeammatesAheadPhaseStart: 3,
		OpponentsAheadPhaseStart: 8,
		IPScoreStart:             1,
		OOPScoreStart:            2,
	}
}

func enrichedTable(rows ...model.EnrichedPhase) model.EnrichedTable {
	base := model.NewPhaseTable(nil, false)
	cols := base.Columns
	cols.Add(model.ColInPossessionNextPhase, model.ColOutOfPossessionNextPhase)
	counts := []string{"n_behind", "n_none", "n_passing_option", "n_player_possession", "n_support"}
	cols.Add(counts...)
	cols.Add(
		model.ColDefensiveLineHeightStartFirst, model.ColDefensiveLineHeightEndLast,
		model.ColTeammatesAheadPhaseStart, model.ColTeammatesAheadPhaseEnd,
		model.ColOpponentsAheadPhaseStart, model.ColOpponentsAheadPhaseEnd,
		model.ColIPScoreStart, model.ColOOPScoreStart,
	)
	return model.EnrichedTable{Rows: rows, Columns: cols, CountColumns: counts}
}

func TestSplit_RenamesPerPerspective(t *testing.T) {
	in, oop := Split(enrichedTable(enrichedRow("1", 0)))
	require.Len(t, in.Rows, 1)
	require.Len(t, oop.Rows, 1)

	ip := in.Rows[0]
	assert.Equal(t, "10", ip.TeamID)
	assert.Equal(t, "A", ip.TeamName)
	assert.Equal(t, "build_up", ip.PhaseType)
	assert.Equal(t, "create", ip.NextPhaseType)
	assert.Equal(t, 30.0, ip.TeamWidthStart)
	assert.Equal(t, 3.0, ip.PlayersAheadPhaseStart)
	assert.Equal(t, 1.0, ip.TeamScoreStart)
	assert.Equal(t, 2.0, ip.OpponentScoreStart)
	assert.Equal(t, 3, ip.Value("count_passing_option"))
	assert.Equal(t, 2, ip.Value("count_support"))

	op := oop.Rows[0]
	assert.Equal(t, "20", op.TeamID)
	assert.Equal(t, "B", op.TeamName)
	assert.Equal(t, "high_block", op.PhaseType)
	assert.Equal(t, "medium_block", op.NextPhaseType)
	assert.Equal(t, 25.0, op.TeamWidthStart)
	assert.Equal(t, 8.0, op.PlayersAheadPhaseStart)
	// scores swap to the defending team's side
	assert.Equal(t, 2.0, op.TeamScoreStart)
	assert.Equal(t, 1.0, op.OpponentScoreStart)
	assert.True(t, op.LeadToShot)
}

func TestSplit_Columns(t *testing.T) {
	in, oop := Split(enrichedTable(enrichedRow("1", 0)))

	assert.Contains(t, in.Columns, model.ColOpponentDefensiveLineHeightStart)
	assert.Contains(t, in.Columns, "count_behind")
	assert.Contains(t, in.Columns, model.ColCountPlayerPossessions)
	assert.NotContains(t, in.Columns, "count_overlap") // not produced upstream
	assert.NotContains(t, in.Columns, model.ColPeriod)

	assert.Contains(t, oop.Columns, model.ColTeamDefensiveLineHeightStart)
	assert.Contains(t, oop.Columns, "n_player_possession")
	assert.Contains(t, oop.Columns, model.ColTeammatesAheadPhaseStart)
	assert.Contains(t, oop.Columns, model.ColPlayerPossessionsInPhase)
	assert.NotContains(t, oop.Columns, model.ColOpponentsAheadPhaseStart)

	seen := map[string]bool{}
	for _, c := range oop.Columns {
		assert.False(t, seen[c], "duplicate column %s", c)
		seen[c] = true
	}

	tbl := oop.Table()
	assert.Equal(t, "phases_out_of_possession", tbl.Name)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, 4, tbl.Rows[0][tbl.ColumnIndex(model.ColPlayerPossessionsInPhase)])
	assert.Equal(t, 3, tbl.Rows[0][tbl.ColumnIndex(model.ColTeammatesAheadPhaseStart)])
}

func TestSplit_OmitsAbsentColumns(t *testing.T) {
	et := enrichedTable(enrichedRow("1", 0))
	delete(et.Columns, model.ColInPossessionWidthStart)
	delete(et.Columns, model.ColLeadToShot)

	in, oop := Split(et)
	assert.NotContains(t, in.Columns, model.ColTeamWidthStart)
	assert.NotContains(t, in.Columns, model.ColLeadToShot)
	// the out-of-possession width still exists
	assert.Contains(t, oop.Columns, model.ColTeamWidthStart)
}

func TestSplit_RoundTripOnPhaseIdentifiers(t *testing.T) {
	et := enrichedTable(enrichedRow("1", 0), enrichedRow("1", 1), enrichedRow("2", 0))
	in, oop := Split(et)

	type key struct {
		match string
		index int
	}
	joined := map[key]int{}
	for _, r := range in.Rows {
		joined[key{r.MatchID, r.Index}]++
	}
	for _, r := range oop.Rows {
		k := key{r.MatchID, r.Index}
		require.Equal(t, 1, joined[k], "oop row %v has no in-possession partner", k)
		joined[k]++
	}
	assert.Len(t, joined, len(et.Rows))
	for k, n := range joined {
		assert.Equal(t, 2, n, "%v", k)
	}
}

func TestSplit_MissingNextPhaseBecomesSentinel(t *testing.T) {
	row := enrichedRow("1", 0)
	row.OutOfPossessionNextPhase = ""
	_, oop := Split(enrichedTable(row))
	assert.Equal(t, model.NoNextPhase, oop.Rows[0].NextPhaseType)
}
