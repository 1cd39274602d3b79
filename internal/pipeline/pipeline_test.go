package pipeline

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/config"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/loader"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

const phasesCSV = `match_id,index,match_date,frame_start,frame_end,duration,team_in_possession_id,team_in_possession_shortname,team_in_possession_phase_type,team_out_of_possession_phase_type,n_player_possessions_in_phase,team_possession_loss_in_phase,team_possession_lead_to_shot,team_possession_lead_to_goal,team_in_possession_width_end,team_out_of_possession_width_end
1,0,2024-08-17,0,100,10,10,A,build_up,high_block,3,False,False,False,40,30
1,1,2024-08-17,100,220,12,10,A,create,medium_block,4,False,True,False,45,28
1,2,2024-08-17,220,300,8,20,B,build_up,high_block,2,True,False,False,38,32
2,0,2024-09-01,0,50,5,10,A,finish,low_block,1,False,True,True,50,20
2,1,2024-09-01,50,90,4,30,C,transition,defending_transition,1,False,False,False,35,25
`

const eventsCSV = `match_id,index,phase_index,match_date,event_type,event_subtype,frame_start,team_score,opponent_team_score,first_player_possession_in_team_possession,last_player_possession_in_team_possession,last_defensive_line_height_start,last_defensive_line_height_end,n_teammates_ahead_start,n_teammates_ahead_end,n_opponents_ahead_start,n_opponents_ahead_end
1,0,0,2024-08-17,player_possession,,1,0,0,true,false,30,31,2,3,8,7
1,1,0,2024-08-17,player_possession,,40,0,0,false,true,32,33,2,4,8,6
1,2,0,2024-08-17,passing_option,support,50,0,0,false,false,,,,,,
1,3,1,2024-08-17,player_possession,,105,0,0,true,true,40,41,3,5,7,5
1,4,2,2024-08-17,player_possession,,230,0,1,true,true,20,21,1,1,9,9
2,0,0,2024-09-01,player_possession,,2,1,1,true,true,50,55,4,6,6,4
`

const matchesCSV = `match_id,match_date,match_period_1_duration_minutes,match_period_2_duration_minutes
1,2024-08-17,46,49
2,2024-09-01,45,50
`

func loadInputs(t *testing.T) Inputs {
	t.Helper()
	phases, err := loader.ReadPhases(strings.NewReader(phasesCSV))
	require.NoError(t, err)
	events, err := loader.ReadEvents(strings.NewReader(eventsCSV))
	require.NoError(t, err)
	matches, err := loader.ReadMatches(strings.NewReader(matchesCSV))
	require.NoError(t, err)
	return Inputs{Phases: phases, Events: events, Matches: matches}
}

func defaultOptions() Options {
	return Options{Taxonomy: config.DefaultTaxonomy()}
}

func TestRun_EndToEnd(t *testing.T) {
	log, hook := test.NewNullLogger()
	res, err := Run(context.Background(), loadInputs(t), defaultOptions(), log)
	require.NoError(t, err)

	require.Len(t, res.Enriched.Rows, 5)
	p0 := res.Enriched.Rows[0]
	assert.Equal(t, "20", p0.TeamOutOfPossessionID)
	assert.Equal(t, "create", p0.InPossessionNextPhase)
	assert.Equal(t, 2, p0.TypeCounts["player_possession"])
	assert.Equal(t, 1, p0.SubtypeCounts["support"])
	assert.Equal(t, 30.0, p0.DefensiveLineHeightStartFirst)
	assert.Equal(t, 33.0, p0.DefensiveLineHeightEndLast)

	// match 2 pairs team 10 with team 30
	assert.Equal(t, "30", res.Enriched.Rows[3].TeamOutOfPossessionID)

	require.Len(t, res.InPossession.Rows, 5)
	require.Len(t, res.OutOfPossession.Rows, 5)

	a := findSeason(t, res.SeasonInPossession.Rows, "10")
	assert.Equal(t, 2, a.Matches)
	assert.Equal(t, 190.0, a.MinutesPlayed)
	assert.Equal(t, 1.0, a.Metrics["count_build_up"])
	assert.Equal(t, 1.0, a.Metrics["count_into_create_from_build_up"])
	assert.InDelta(t, 100.0, a.Metrics["progressed_to_create_from_build_up_percentage"], 1e-9)

	names := []string{}
	for _, tb := range res.Tables() {
		names = append(names, tb.Name)
	}
	assert.Equal(t, []string{
		"phases_in_possession", "phases_out_of_possession",
		"match_in_possession", "match_out_of_possession",
		"season_in_possession", "season_out_of_possession",
	}, names)

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "warning", e.Level.String(), e.Message)
	}
}

func TestRun_DateFilter(t *testing.T) {
	opts := defaultOptions()
	opts.DateFrom = "2024-09-01"
	log, _ := test.NewNullLogger()
	res, err := Run(context.Background(), loadInputs(t), opts, log)
	require.NoError(t, err)

	require.Len(t, res.Enriched.Rows, 2)
	a := findSeason(t, res.SeasonInPossession.Rows, "10")
	assert.Equal(t, 1, a.Matches)
	assert.Equal(t, 95.0, a.MinutesPlayed)
}

func TestRun_DateFilterNeedsMatchDate(t *testing.T) {
	in := loadInputs(t)
	delete(in.Phases.Columns, model.ColMatchDate)
	opts := defaultOptions()
	opts.DateTo = "2024-12-31"

	log, _ := test.NewNullLogger()
	_, err := Run(context.Background(), in, opts, log)
	var se *model.SchemaError
	require.True(t, errors.As(err, &se))
}

func TestRun_StrictCardinality(t *testing.T) {
	in := loadInputs(t)
	in.Phases.Rows[4].TeamInPossessionID = "10" // match 2 now has one team id, two names
	delete(in.Phases.Columns, model.ColTeamOutOfPossessionID)

	log, _ := test.NewNullLogger()
	opts := defaultOptions()
	opts.Strict = true
	_, err := Run(context.Background(), in, opts, log)
	var ce *model.CardinalityError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "2", ce.MatchID)

	opts.Strict = false
	res, err := Run(context.Background(), in, opts, log)
	require.NoError(t, err)
	assert.Empty(t, res.Enriched.Rows[3].TeamOutOfPossessionID)
	assert.Equal(t, "20", res.Enriched.Rows[0].TeamOutOfPossessionID)
}

func TestRun_PlayerEvents(t *testing.T) {
	in := loadInputs(t)
	in.Performances = []model.PlayerPerformance{}
	log, _ := test.NewNullLogger()
	res, err := Run(context.Background(), in, defaultOptions(), log)
	require.NoError(t, err)
	require.NotNil(t, res.Players)
	assert.Len(t, res.Tables(), 7)
	assert.Equal(t, "player_events", res.Tables()[6].Name)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	log, _ := test.NewNullLogger()
	_, err := Run(ctx, loadInputs(t), defaultOptions(), log)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_MissingScoreIsNaN(t *testing.T) {
	in := loadInputs(t)
	in.Events.Rows = nil
	log, _ := test.NewNullLogger()
	res, err := Run(context.Background(), in, defaultOptions(), log)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.Enriched.Rows[0].IPScoreStart))
	assert.Equal(t, 0, res.Enriched.Rows[0].TypeCounts["player_possession"])
}

func TestRun_BlankPhaseIndexAndFrames(t *testing.T) {
	phases := strings.Replace(phasesCSV, "1,1,2024-08-17,100,220,", "1,1,2024-08-17,100,,", 1)
	events := eventsCSV +
		"1,5,,2024-08-17,player_possession,,60,0,0,false,false,,,,,,\n" +
		"1,6,nan,2024-08-17,player_possession,,70,0,0,false,false,,,,,,\n"

	in := loadInputs(t)
	var err error
	in.Phases, err = loader.ReadPhases(strings.NewReader(phases))
	require.NoError(t, err)
	in.Events, err = loader.ReadEvents(strings.NewReader(events))
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	res, err := Run(context.Background(), in, defaultOptions(), log)
	require.NoError(t, err)

	// unowned events are not folded into phase 0
	assert.Equal(t, 2, res.Enriched.Rows[0].TypeCounts["player_possession"])
	assert.Equal(t, "create", res.Enriched.Rows[0].InPossessionNextPhase)
	assert.Equal(t, model.NoNextPhase, res.Enriched.Rows[1].InPossessionNextPhase)

	tb := res.InPossession.Table()
	col := tb.ColumnIndex(model.ColFrameEnd)
	require.GreaterOrEqual(t, col, 0)
	assert.Nil(t, tb.Rows[1][col])
	assert.Equal(t, 220, tb.Rows[2][tb.ColumnIndex(model.ColFrameStart)])
}

func findSeason(t *testing.T, rows []model.SeasonTeamAggregate, team string) model.SeasonTeamAggregate {
	t.Helper()
	for _, r := range rows {
		if r.TeamID == team {
			return r
		}
	}
	t.Fatalf("no season row for team %s", team)
	return model.SeasonTeamAggregate{}
}
