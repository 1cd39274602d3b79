package aggregator

import (
	"sort"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

// offBallRuns are the associated_off_ball_run_subtype values counted per
// player, with the metric stem each one feeds.
var offBallRuns = []struct{ subtype, stem string }{
	{"cross_receiver", "cross_receiver_runs"},
	{"behind", "runs_in_behind"},
	{"run_ahead_of_the_ball", "runs_ahead_of_the_ball"},
	{"support", "support_runs"},
	{"overlap", "overlap_runs"},
	{"underlap", "underlap_runs"},
	{"coming_short", "coming_short_runs"},
	{"pulling_wide", "pulling_wide_runs"},
	{"pulling_half_space", "pulling_half_space_runs"},
	{"dropping_off", "dropping_off_runs"},
}

// lineBreaks are the "<furthest_line_break_type>_<furthest_line_break>" values
// counted per player.
var lineBreaks = []struct{ info, stem string }{
	{"around_first", "around_first_line"},
	{"through_first", "through_first_line"},
	{"around_second_last", "around_second_last_line"},
	{"through_second_last", "through_second_last_line"},
	{"around_last", "around_last_line"},
	{"through_last", "through_last_line"},
}

const passingOption = "passing_option"

// PlayerMetricColumns returns the player event columns, counts first and then
// their per-90 rates.
func PlayerMetricColumns() []string {
	var counts []string
	for _, r := range offBallRuns {
		counts = append(counts, "count_"+r.stem)
	}
	for _, l := range lineBreaks {
		counts = append(counts, "count_"+l.stem)
	}
	for _, r := range offBallRuns {
		counts = append(counts, "count_pass_attempts_to_"+r.stem)
	}
	for _, l := range lineBreaks {
		counts = append(counts, "count_pass_attempts_"+l.stem)
	}
	cols := append([]string(nil), counts...)
	for _, c := range counts {
		cols = append(cols, c+"_per_90")
	}
	return cols
}

type playerKey struct {
	playerID, playerName, teamID, teamName, phaseType string
}

// PlayerEventAggregates counts each player's off-ball runs (as the runner) and
// the passes they attempted to runs (as the player in possession), per phase
// type. Only players with both kinds of event and known minutes are kept.
func PlayerEventAggregates(events model.EventTable, performances []model.PlayerPerformance) model.PlayerTable {
	out := model.PlayerTable{MetricColumns: PlayerMetricColumns()}

	// ---- Pass 1: runs by runner, pass attempts by passer. ----

	runs := make(map[playerKey]map[string]float64)
	passes := make(map[playerKey]map[string]float64)
	inScope := make(map[string]bool)
	for _, ev := range events.Rows {
		inScope[ev.MatchID] = true
		if ev.EventType != passingOption {
			continue
		}
		info := ev.FurthestLineBreakType + "_" + ev.FurthestLineBreak

		runner := playerKey{ev.PlayerID, ev.PlayerName, ev.TeamID, ev.TeamShortname, ev.TeamInPossessionPhaseType}
		if runner.complete() {
			countInto(runs, runner, "count_", "count_", ev.AssociatedOffBallRunSubtype, info)
		}
		if ev.Targeted {
			passer := playerKey{ev.PlayerInPossessionID, ev.PlayerInPossessionName, ev.TeamID, ev.TeamShortname, ev.TeamInPossessionPhaseType}
			if passer.complete() {
				countInto(passes, passer, "count_pass_attempts_to_", "count_pass_attempts_", ev.AssociatedOffBallRunSubtype, info)
			}
		}
	}

	// ---- Pass 2: minutes per (player, team) over the matches in scope. ----

	type minutesKey struct{ playerID, teamID string }
	minutes := make(map[minutesKey]float64)
	seen := make(map[minutesKey]bool)
	for _, p := range performances {
		if !inScope[p.MatchID] {
			continue
		}
		k := minutesKey{p.PlayerID, p.TeamID}
		seen[k] = true
		if !model.IsNull(p.MinutesPlayed) {
			minutes[k] += p.MinutesPlayed
		}
	}

	// ---- Pass 3: inner join and per-90 rates. ----

	for k, runMetrics := range runs {
		passMetrics, ok := passes[k]
		if !ok {
			continue
		}
		mk := minutesKey{k.playerID, k.teamID}
		if !seen[mk] {
			continue
		}
		agg := model.PlayerEventAggregate{
			PlayerID:      k.playerID,
			PlayerName:    k.playerName,
			TeamID:        k.teamID,
			TeamName:      k.teamName,
			PhaseType:     k.phaseType,
			MinutesPlayed: minutes[mk],
			Metrics:       make(map[string]float64, len(out.MetricColumns)),
		}
		for _, c := range out.MetricColumns {
			agg.Metrics[c] = 0
		}
		for c, v := range runMetrics {
			agg.Metrics[c] = v
		}
		for c, v := range passMetrics {
			agg.Metrics[c] = v
		}
		for _, c := range out.MetricColumns[:len(out.MetricColumns)/2] {
			agg.Metrics[c+"_per_90"] = ratio(agg.Metrics[c], agg.MinutesPlayed) * 90
		}
		out.Rows = append(out.Rows, agg)
	}

	sort.Slice(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if c := model.CompareIDs(a.TeamID, b.TeamID); c != 0 {
			return c < 0
		}
		if c := model.CompareIDs(a.PlayerID, b.PlayerID); c != 0 {
			return c < 0
		}
		return a.PhaseType < b.PhaseType
	})
	return out
}

func (k playerKey) complete() bool {
	return k.playerID != "" && k.playerName != "" && k.teamID != "" && k.teamName != "" && k.phaseType != ""
}

// countInto adds one event to k's run-subtype and line-break counters.
func countInto(dst map[playerKey]map[string]float64, k playerKey, runPrefix, linePrefix, subtype, info string) {
	m := dst[k]
	if m == nil {
		m = make(map[string]float64)
		dst[k] = m
	}
	for _, r := range offBallRuns {
		if subtype == r.subtype {
			m[runPrefix+r.stem]++
		}
	}
	for _, l := range lineBreaks {
		if info == l.info {
			m[linePrefix+l.stem]++
		}
	}
}
