package model

import (
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/table"
)

// Possession view column names.
const (
	ColTeamName                         = "team_name"
	ColTeamScoreStart                   = "team_score_start"
	ColOpponentScoreStart               = "opponent_score_start"
	ColPhaseType                        = "phase_type"
	ColNextPhaseType                    = "next_phase_type"
	ColTeamWidthStart                   = "team_width_start"
	ColTeamWidthEnd                     = "team_width_end"
	ColTeamLengthStart                  = "team_length_start"
	ColTeamLengthEnd                    = "team_length_end"
	ColOpponentDefensiveLineHeightStart = "opponent_defensive_line_height_start"
	ColOpponentDefensiveLineHeightEnd   = "opponent_defensive_line_height_end"
	ColTeamDefensiveLineHeightStart     = "team_defensive_line_height_start"
	ColTeamDefensiveLineHeightEnd       = "team_defensive_line_height_end"
	ColCountPlayersAheadPhaseStart      = "count_players_ahead_phase_start"
	ColCountPlayersAheadPhaseEnd        = "count_players_ahead_phase_end"
	ColCountPlayerPossessions           = "count_player_possessions"
)

// Value returns the cell of the named output column. Count columns not stored
// on a field are read from Counts and default to zero.
func (p *PossessionPhase) Value(col string) any {
	switch col {
	case ColMatchID:
		return p.MatchID
	case ColIndex:
		return p.Index
	case ColPeriod:
		return p.Period
	case ColMatchDate:
		return p.MatchDate
	case ColFrameStart:
		return frameValue(p.FrameStart)
	case ColFrameEnd:
		return frameValue(p.FrameEnd)
	case ColDuration:
		return p.Duration
	case ColTimeStart:
		return p.TimeStart
	case ColTimeEnd:
		return p.TimeEnd
	case ColMinuteStart:
		return p.MinuteStart
	case ColSecondStart:
		return p.SecondStart
	case ColTeamScoreStart:
		return p.TeamScoreStart
	case ColOpponentScoreStart:
		return p.OpponentScoreStart
	case ColTeamID:
		return p.TeamID
	case ColTeamName:
		return p.TeamName
	case ColPhaseType:
		return p.PhaseType
	case ColNextPhaseType:
		return p.NextPhaseType
	case ColPossessionLoss:
		return p.PossessionLoss
	case ColLeadToShot:
		return p.LeadToShot
	case ColLeadToGoal:
		return p.LeadToGoal
	case ColChannelStart:
		return p.ChannelStart
	case ColThirdStart:
		return p.ThirdStart
	case ColPenaltyAreaStart:
		return p.PenaltyAreaStart
	case ColChannelEnd:
		return p.ChannelEnd
	case ColThirdEnd:
		return p.ThirdEnd
	case ColPenaltyAreaEnd:
		return p.PenaltyAreaEnd
	case ColTeamWidthStart:
		return p.TeamWidthStart
	case ColTeamWidthEnd:
		return p.TeamWidthEnd
	case ColTeamLengthStart:
		return p.TeamLengthStart
	case ColTeamLengthEnd:
		return p.TeamLengthEnd
	case ColOpponentDefensiveLineHeightStart, ColTeamDefensiveLineHeightStart:
		return p.DefensiveLineHeightStart
	case ColOpponentDefensiveLineHeightEnd, ColTeamDefensiveLineHeightEnd:
		return p.DefensiveLineHeightEnd
	case ColCountPlayersAheadPhaseStart:
		return p.PlayersAheadPhaseStart
	case ColCountPlayersAheadPhaseEnd:
		return p.PlayersAheadPhaseEnd
	case ColCountPlayerPossessions:
		return p.PlayerPossessions
	}
	return p.Counts[col]
}

// Table converts the view to a named output table.
func (t PossessionTable) Table() *table.Table {
	out := table.New("phases_"+t.Perspective.String(), t.Columns...)
	for i := range t.Rows {
		row := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = t.Rows[i].Value(c)
		}
		out.Append(row...)
	}
	return out
}

// Table converts match aggregates to a named output table.
func (t MatchAggregateTable) Table() *table.Table {
	cols := append([]string{ColMatchID, ColTeamID, ColTeamName}, t.MetricColumns...)
	out := table.New("match_"+t.Perspective.String(), cols...)
	for _, r := range t.Rows {
		row := []any{r.MatchID, r.TeamID, r.TeamName}
		for _, m := range t.MetricColumns {
			row = append(row, metric(r.Metrics, m))
		}
		out.Append(row...)
	}
	return out
}

// Table converts a season rollup to a named output table.
func (t SeasonTable) Table() *table.Table {
	cols := append([]string{ColTeamID, ColTeamName, "n_matches", "minutes_played"}, t.MetricColumns...)
	out := table.New("season_"+t.Perspective.String(), cols...)
	for _, r := range t.Rows {
		row := []any{r.TeamID, r.TeamName, r.Matches, r.MinutesPlayed}
		for _, m := range t.MetricColumns {
			row = append(row, metric(r.Metrics, m))
		}
		out.Append(row...)
	}
	return out
}

// Table converts player event aggregates to a named output table.
func (t PlayerTable) Table() *table.Table {
	cols := append([]string{ColPlayerID, ColPlayerName, ColTeamID, ColTeamShortname,
		ColTeamInPossessionPhaseType, "minutes_played"}, t.MetricColumns...)
	out := table.New("player_events", cols...)
	for _, r := range t.Rows {
		row := []any{r.PlayerID, r.PlayerName, r.TeamID, r.TeamName, r.PhaseType, r.MinutesPlayed}
		for _, m := range t.MetricColumns {
			row = append(row, metric(r.Metrics, m))
		}
		out.Append(row...)
	}
	return out
}

func metric(m map[string]float64, col string) float64 {
	if v, ok := m[col]; ok {
		return v
	}
	return Null()
}

// frameValue leaves a blank frame bound missing in output tables.
func frameValue(f int) any {
	if f == NoFrame {
		return nil
	}
	return f
}
