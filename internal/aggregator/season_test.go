package aggregator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

func matchAgg(match, team, name string, metrics map[string]float64) model.MatchTeamAggregate {
	return model.MatchTeamAggregate{MatchID: match, TeamID: team, TeamName: name, Metrics: metrics}
}

func findTeam(t *testing.T, tbl model.SeasonTable, team string) model.SeasonTeamAggregate {
	t.Helper()
	for _, r := range tbl.Rows {
		if r.TeamID == team {
			return r
		}
	}
	t.Fatalf("no season row for team %s", team)
	return model.SeasonTeamAggregate{}
}

func TestSeasonRollup_SumsRatesAndPercentages(t *testing.T) {
	aggs := model.MatchAggregateTable{Rows: []model.MatchTeamAggregate{
		matchAgg("1", "10", "A", map[string]float64{
			"count_build_up":                          10,
			"count_into_create_from_build_up":         4,
			"count_possession_lost_in_phase_build_up": 2,
			"avg_end_width_build_up":                  30,
		}),
		matchAgg("2", "10", "A", map[string]float64{
			"count_build_up":                          5,
			"count_into_create_from_build_up":         math.NaN(),
			"count_possession_lost_in_phase_build_up": 1,
			"avg_end_width_build_up":                  math.NaN(),
		}),
	}}
	matches := []model.MatchInfo{
		{MatchID: "1", MatchDurationMinutes: 90},
		{MatchID: "2", MatchDurationMinutes: 90},
	}

	out := SeasonRollup(aggs, matches, InPossessionRollup())
	require.Len(t, out.Rows, 1)
	a := out.Rows[0]

	assert.Equal(t, 2, a.Matches)
	assert.Equal(t, 180.0, a.MinutesPlayed)
	assert.Equal(t, 15.0, a.Metrics["count_build_up"])
	assert.Equal(t, 4.0, a.Metrics["count_into_create_from_build_up"])
	assert.Equal(t, 30.0, a.Metrics["avg_width_build_up"])
	assert.InDelta(t, 7.5, a.Metrics["count_build_up_phases_per_90"], 1e-9)
	assert.InDelta(t, 20.0, a.Metrics["possession_loss_in_build_up_percentage"], 1e-9)
	assert.InDelta(t, 100.0*4/15, a.Metrics["progressed_to_create_from_build_up_percentage"], 1e-9)

	// no finish phases at all: zero denominator
	assert.True(t, math.IsNaN(a.Metrics["finish_lead_to_shot_percentage"]))
	assert.Len(t, a.Metrics, len(out.MetricColumns))
}

func TestSeasonRollup_ZeroMinutesPer90IsNaN(t *testing.T) {
	aggs := model.MatchAggregateTable{Rows: []model.MatchTeamAggregate{
		matchAgg("1", "10", "A", map[string]float64{"count_build_up": 3}),
	}}
	out := SeasonRollup(aggs, []model.MatchInfo{{MatchID: "1", MatchDurationMinutes: 0}}, InPossessionRollup())
	require.Len(t, out.Rows, 1)
	assert.Equal(t, 0.0, out.Rows[0].MinutesPlayed)
	assert.True(t, math.IsNaN(out.Rows[0].Metrics["count_build_up_phases_per_90"]))

	// no match metadata behaves the same
	out = SeasonRollup(aggs, nil, InPossessionRollup())
	assert.True(t, math.IsNaN(out.Rows[0].Metrics["count_build_up_phases_per_90"]))
}

func TestSeasonRollup_CompetitionScores(t *testing.T) {
	var rows []model.MatchTeamAggregate
	for i, team := range []string{"1", "2", "3"} {
		rows = append(rows, matchAgg("m"+team, team, "T"+team, map[string]float64{
			"count_build_up":         float64(10 * (i + 1)),
			"avg_end_width_build_up": 40, // identical for every team
		}))
	}
	matches := []model.MatchInfo{
		{MatchID: "m1", MatchDurationMinutes: 90},
		{MatchID: "m2", MatchDurationMinutes: 90},
		{MatchID: "m3", MatchDurationMinutes: 90},
	}
	out := SeasonRollup(model.MatchAggregateTable{Rows: rows}, matches, InPossessionRollup())
	require.Len(t, out.Rows, 3)

	// per-90 of 10, 20, 30: mean 20, sample std 10
	col := CompetitionScore("count_build_up_phases_per_90")
	assert.InDelta(t, -1.0, findTeam(t, out, "1").Metrics[col], 1e-9)
	assert.InDelta(t, 0.0, findTeam(t, out, "2").Metrics[col], 1e-9)
	assert.InDelta(t, 1.0, findTeam(t, out, "3").Metrics[col], 1e-9)

	// zero variance
	for _, r := range out.Rows {
		assert.True(t, math.IsNaN(r.Metrics[CompetitionScore("avg_width_build_up")]))
	}
}

func TestZScores(t *testing.T) {
	nan := math.NaN()

	z := zScores([]float64{1, nan, 3})
	assert.InDelta(t, -0.7071067811865475, z[0], 1e-12)
	assert.True(t, math.IsNaN(z[1]))
	assert.InDelta(t, 0.7071067811865475, z[2], 1e-12)

	// one value has no spread
	z = zScores([]float64{5, nan})
	assert.True(t, math.IsNaN(z[0]))

	z = zScores([]float64{0.1 * 3, 0.1 * 3, 0.1 * 3})
	for _, v := range z {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSeasonRollup_OutOfPossession(t *testing.T) {
	aggs := model.MatchAggregateTable{Rows: []model.MatchTeamAggregate{
		matchAgg("1", "20", "B", map[string]float64{
			"count_high_block":                         8,
			"count_into_medium_block_from_high_block":  2,
			"count_possession_lead_to_shot_high_block": 1,
		}),
	}}
	out := SeasonRollup(aggs, []model.MatchInfo{{MatchID: "1", MatchDurationMinutes: 90}}, OutOfPossessionRollup())
	require.Len(t, out.Rows, 1)
	m := out.Rows[0].Metrics
	assert.InDelta(t, 25.0, m["pushed_back_to_medium_block_from_high_block_percentage"], 1e-9)
	assert.InDelta(t, 12.5, m["shot_conceded_in_high_block_percentage"], 1e-9)
	assert.InDelta(t, 8.0, m["count_high_block_phases_per_90"], 1e-9)
	assert.Equal(t, model.OutOfPossession, out.Perspective)
}

func TestRollupDefsHaveUniqueColumns(t *testing.T) {
	for _, def := range []RollupDef{InPossessionRollup(), OutOfPossessionRollup()} {
		seen := map[string]bool{}
		for _, c := range def.MetricColumns() {
			assert.False(t, seen[c], "duplicate column %s", c)
			seen[c] = true
		}
	}
}
