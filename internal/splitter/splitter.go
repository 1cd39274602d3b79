// Package splitter projects enriched phases into the in-possession and
// out-of-possession team views.
package splitter

import (
	"math"
	"strings"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

// projection is one output column and the enriched column it comes from.
type projection struct {
	source string
	name   string
}

// Shared leading columns, kept under their own names.
var commonColumns = []projection{
	{model.ColMatchID, model.ColMatchID},
	{model.ColIndex, model.ColIndex},
	{model.ColFrameStart, model.ColFrameStart},
	{model.ColFrameEnd, model.ColFrameEnd},
	{model.ColTimeStart, model.ColTimeStart},
	{model.ColTimeEnd, model.ColTimeEnd},
	{model.ColMinuteStart, model.ColMinuteStart},
	{model.ColSecondStart, model.ColSecondStart},
	{model.ColDuration, model.ColDuration},
	{model.ColPeriod, model.ColPeriod},
	{model.ColMatchDate, model.ColMatchDate},
}

var outcomeColumns = []projection{
	{model.ColPossessionLoss, model.ColPossessionLoss},
	{model.ColLeadToShot, model.ColLeadToShot},
	{model.ColLeadToGoal, model.ColLeadToGoal},
}

var inPossessionColumns = concat(commonColumns, []projection{
	{model.ColIPScoreStart, model.ColTeamScoreStart},
	{model.ColOOPScoreStart, model.ColOpponentScoreStart},
	{model.ColTeamInPossessionID, model.ColTeamID},
	{model.ColTeamInPossessionShortname, model.ColTeamName},
	{model.ColTeamInPossessionPhaseType, model.ColPhaseType},
	{model.ColInPossessionNextPhase, model.ColNextPhaseType},
}, outcomeColumns, []projection{
	{model.ColChannelStart, model.ColChannelStart},
	{model.ColThirdStart, model.ColThirdStart},
	{model.ColPenaltyAreaStart, model.ColPenaltyAreaStart},
	{model.ColChannelEnd, model.ColChannelEnd},
	{model.ColThirdEnd, model.ColThirdEnd},
	{model.ColPenaltyAreaEnd, model.ColPenaltyAreaEnd},
	{model.ColInPossessionWidthStart, model.ColTeamWidthStart},
	{model.ColInPossessionWidthEnd, model.ColTeamWidthEnd},
	{model.ColInPossessionLengthStart, model.ColTeamLengthStart},
	{model.ColInPossessionLengthEnd, model.ColTeamLengthEnd},
	{model.ColDefensiveLineHeightStartFirst, model.ColOpponentDefensiveLineHeightStart},
	{model.ColDefensiveLineHeightEndLast, model.ColOpponentDefensiveLineHeightEnd},
	{model.ColTeammatesAheadPhaseStart, model.ColCountPlayersAheadPhaseStart},
	{model.ColTeammatesAheadPhaseEnd, model.ColCountPlayersAheadPhaseEnd},
	{model.ColPlayerPossessionsInPhase, model.ColCountPlayerPossessions},
})

// inPossessionActions are the run and option counts carried by the
// in-possession view, renamed n_<x> -> count_<x>.
var inPossessionActions = []string{
	"passing_option", "cross_receiver", "behind", "coming_short", "dropping_off", "overlap",
	"pulling_half_space", "pulling_wide", "run_ahead_of_the_ball", "support", "underlap",
}

var outOfPossessionColumns = concat(commonColumns, []projection{
	{model.ColOOPScoreStart, model.ColTeamScoreStart},
	{model.ColIPScoreStart, model.ColOpponentScoreStart},
	{model.ColTeamOutOfPossessionID, model.ColTeamID},
	{model.ColTeamOutOfPossessionShortname, model.ColTeamName},
	{model.ColTeamOutOfPossessionPhaseType, model.ColPhaseType},
	{model.ColOutOfPossessionNextPhase, model.ColNextPhaseType},
}, outcomeColumns, []projection{
	{model.ColOutOfPossessionWidthStart, model.ColTeamWidthStart},
	{model.ColOutOfPossessionWidthEnd, model.ColTeamWidthEnd},
	{model.ColOutOfPossessionLengthStart, model.ColTeamLengthStart},
	{model.ColOutOfPossessionLengthEnd, model.ColTeamLengthEnd},
	{model.ColDefensiveLineHeightStartFirst, model.ColTeamDefensiveLineHeightStart},
	{model.ColDefensiveLineHeightEndLast, model.ColTeamDefensiveLineHeightEnd},
	{model.ColOpponentsAheadPhaseStart, model.ColCountPlayersAheadPhaseStart},
	{model.ColOpponentsAheadPhaseEnd, model.ColCountPlayersAheadPhaseEnd},
})

// Split returns the in-possession and out-of-possession views of t. Columns the
// source does not carry are left out of each view's column list.
func Split(t model.EnrichedTable) (in, oop model.PossessionTable) {
	in = model.PossessionTable{Perspective: model.InPossession}
	oop = model.PossessionTable{Perspective: model.OutOfPossession}

	// In possession: fixed projection plus the selected action counts.
	in.Columns = keep(t.Columns, inPossessionColumns)
	var inCounts []string // source n_ columns, parallel to the count_ names appended
	for _, a := range inPossessionActions {
		src := "n_" + a
		if t.Columns.Has(src) {
			in.Columns = append(in.Columns, "count_"+a)
			inCounts = append(inCounts, src)
		}
	}

	// Out of possession: fixed projection plus every n_ column not already renamed.
	oop.Columns = keep(t.Columns, outOfPossessionColumns)
	renamed := map[string]bool{model.ColOpponentsAheadPhaseStart: true, model.ColOpponentsAheadPhaseEnd: true}
	var oopCounts []string
	for _, c := range nColumns(t) {
		if !renamed[c] {
			oop.Columns = append(oop.Columns, c)
			oopCounts = append(oopCounts, c)
		}
	}

	in.Rows = make([]model.PossessionPhase, len(t.Rows))
	oop.Rows = make([]model.PossessionPhase, len(t.Rows))
	for i := range t.Rows {
		ep := &t.Rows[i]

		ip := common(ep)
		ip.TeamScoreStart, ip.OpponentScoreStart = ep.IPScoreStart, ep.OOPScoreStart
		ip.TeamID = ep.TeamInPossessionID
		ip.TeamName = ep.TeamInPossessionShortname
		ip.PhaseType = ep.TeamInPossessionPhaseType
		ip.NextPhaseType = nextPhase(ep.InPossessionNextPhase)
		ip.ChannelStart, ip.ThirdStart, ip.PenaltyAreaStart = ep.ChannelStart, ep.ThirdStart, ep.PenaltyAreaStart
		ip.ChannelEnd, ip.ThirdEnd, ip.PenaltyAreaEnd = ep.ChannelEnd, ep.ThirdEnd, ep.PenaltyAreaEnd
		ip.TeamWidthStart, ip.TeamWidthEnd = ep.InPossessionWidthStart, ep.InPossessionWidthEnd
		ip.TeamLengthStart, ip.TeamLengthEnd = ep.InPossessionLengthStart, ep.InPossessionLengthEnd
		ip.PlayersAheadPhaseStart, ip.PlayersAheadPhaseEnd = ep.TeammatesAheadPhaseStart, ep.TeammatesAheadPhaseEnd
		ip.Counts = make(map[string]int, len(inCounts))
		for _, src := range inCounts {
			n, _ := ep.Count(src)
			ip.Counts["count_"+strings.TrimPrefix(src, "n_")] = n
		}
		in.Rows[i] = ip

		op := common(ep)
		op.TeamScoreStart, op.OpponentScoreStart = ep.OOPScoreStart, ep.IPScoreStart
		op.TeamID = ep.TeamOutOfPossessionID
		op.TeamName = ep.TeamOutOfPossessionShortname
		op.PhaseType = ep.TeamOutOfPossessionPhaseType
		op.NextPhaseType = nextPhase(ep.OutOfPossessionNextPhase)
		op.TeamWidthStart, op.TeamWidthEnd = ep.OutOfPossessionWidthStart, ep.OutOfPossessionWidthEnd
		op.TeamLengthStart, op.TeamLengthEnd = ep.OutOfPossessionLengthStart, ep.OutOfPossessionLengthEnd
		op.PlayersAheadPhaseStart, op.PlayersAheadPhaseEnd = ep.OpponentsAheadPhaseStart, ep.OpponentsAheadPhaseEnd
		op.Counts = make(map[string]int, len(oopCounts))
		for _, c := range oopCounts {
			op.Counts[c] = nValue(ep, c)
		}
		oop.Rows[i] = op
	}
	return in, oop
}

// common copies the perspective-independent fields.
func common(ep *model.EnrichedPhase) model.PossessionPhase {
	return model.PossessionPhase{
		MatchID:     ep.MatchID,
		Index:       ep.Index,
		Period:      ep.Period,
		MatchDate:   ep.MatchDate,
		FrameStart:  ep.FrameStart,
		FrameEnd:    ep.FrameEnd,
		Duration:    ep.Duration,
		TimeStart:   ep.TimeStart,
		TimeEnd:     ep.TimeEnd,
		MinuteStart: ep.MinuteStart,
		SecondStart: ep.SecondStart,

		PossessionLoss: ep.PossessionLoss,
		LeadToShot:     ep.LeadToShot,
		LeadToGoal:     ep.LeadToGoal,

		DefensiveLineHeightStart: ep.DefensiveLineHeightStartFirst,
		DefensiveLineHeightEnd:   ep.DefensiveLineHeightEndLast,
		PlayerPossessions:        ep.PlayerPossessions,
	}
}

// keep returns the output names of the projections whose source is present.
func keep(cols model.ColumnSet, ps []projection) []string {
	var out []string
	for _, p := range ps {
		if cols.Has(p.source) {
			out = append(out, p.name)
		}
	}
	return out
}

// nColumns lists every n_ column of the enriched table: the phase's own
// possession count, the event counts and the players-ahead counts.
func nColumns(t model.EnrichedTable) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(c string) {
		if t.Columns.Has(c) && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	add(model.ColPlayerPossessionsInPhase)
	for _, c := range t.CountColumns {
		add(c)
	}
	add(model.ColTeammatesAheadPhaseStart)
	add(model.ColTeammatesAheadPhaseEnd)
	return out
}

// nValue reads an n_ column as an integer count.
func nValue(ep *model.EnrichedPhase, col string) int {
	switch col {
	case model.ColPlayerPossessionsInPhase:
		return round(ep.PlayerPossessions)
	case model.ColTeammatesAheadPhaseStart:
		return round(ep.TeammatesAheadPhaseStart)
	case model.ColTeammatesAheadPhaseEnd:
		return round(ep.TeammatesAheadPhaseEnd)
	}
	n, _ := ep.Count(col)
	return n
}

func round(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

func nextPhase(s string) string {
	if s == "" {
		return model.NoNextPhase
	}
	return s
}

func concat(groups ...[]projection) []projection {
	var out []projection
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
