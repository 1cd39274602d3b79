package aggregator

import (
	"fmt"
	"math"
	"sort"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/config"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

// BaseMetrics are computed for every observed (match, team, phase type) group.
var BaseMetrics = []string{
	"count", "total_time", "count_player_possessions", "count_possession_lost_in_phase",
	"count_possession_lead_to_shot", "count_possession_lead_to_goal",
	"avg_start_width", "avg_start_length", "avg_end_width", "avg_end_length",
}

// TransitionMetric names the count of phases of a type followed by next.
func TransitionMetric(next string) string { return "count_into_" + next + "_from" }

// MetricColumn names a pivoted metric column.
func MetricColumn(metric, phaseType string) string { return metric + "_" + phaseType }

// MatchAggregates pivots one perspective's phases into one row per
// (match, team) with a column per (metric, phase type). Only observed groups
// produce rows; every configured column exists on every row, NaN when the team
// never had that phase type in the match.
func MatchAggregates(view model.PossessionTable, tax config.Taxonomy) model.MatchAggregateTable {
	phases := tax.Phases(view.Perspective == model.OutOfPossession)

	metrics := append([]string(nil), BaseMetrics...)
	for _, t := range tax.TransitionTargets {
		metrics = append(metrics, TransitionMetric(t))
	}
	var cols []string
	for _, ph := range phases {
		for _, m := range metrics {
			cols = append(cols, MetricColumn(m, ph))
		}
	}
	out := model.MatchAggregateTable{Perspective: view.Perspective, MetricColumns: cols}

	// ---- Pass 1: observed (match, team, name, phase type) groups. ----

	type groupKey struct {
		matchID, teamID, teamName, phaseType string
	}
	type groupAcc struct {
		count                       int
		totalTime, playerPossession float64
		lost, shot, goal            int
		startWidth, startLength     meanAcc
		endWidth, endLength         meanAcc
	}
	groups := make(map[groupKey]*groupAcc)
	for i := range view.Rows {
		r := &view.Rows[i]
		if r.MatchID == "" || r.TeamID == "" || r.TeamName == "" || r.PhaseType == "" {
			continue
		}
		k := groupKey{r.MatchID, r.TeamID, r.TeamName, r.PhaseType}
		g := groups[k]
		if g == nil {
			g = &groupAcc{}
			groups[k] = g
		}
		g.count++
		g.totalTime += zeroIfNaN(r.Duration)
		g.playerPossession += zeroIfNaN(r.PlayerPossessions)
		if r.PossessionLoss {
			g.lost++
		}
		if r.LeadToShot {
			g.shot++
		}
		if r.LeadToGoal {
			g.goal++
		}
		g.startWidth.add(r.TeamWidthStart)
		g.startLength.add(r.TeamLengthStart)
		g.endWidth.add(r.TeamWidthEnd)
		g.endLength.add(r.TeamLengthEnd)
	}

	// ---- Pass 2: transitions keyed by "<match>_<team>_<phase>". ----

	transitions := make(map[string]map[string]int) // team phase id -> next phase -> count
	for i := range view.Rows {
		r := &view.Rows[i]
		if r.MatchID == "" || r.TeamID == "" || r.PhaseType == "" || r.NextPhaseType == "" {
			continue
		}
		id := teamPhaseID(r.MatchID, r.TeamID, r.PhaseType)
		if transitions[id] == nil {
			transitions[id] = make(map[string]int)
		}
		transitions[id][r.NextPhaseType]++
	}

	// ---- Pass 3: pivot phase type into columns, one row per (match, team, name). ----

	type rowKey struct {
		matchID, teamID, teamName string
	}
	rows := make(map[rowKey]*model.MatchTeamAggregate)
	for k, g := range groups {
		rk := rowKey{k.matchID, k.teamID, k.teamName}
		agg := rows[rk]
		if agg == nil {
			agg = &model.MatchTeamAggregate{
				MatchID:  k.matchID,
				TeamID:   k.teamID,
				TeamName: k.teamName,
				Metrics:  make(map[string]float64, len(cols)),
			}
			for _, c := range cols {
				agg.Metrics[c] = math.NaN()
			}
			rows[rk] = agg
		}

		vals := map[string]float64{
			"count":                          float64(g.count),
			"total_time":                     g.totalTime,
			"count_player_possessions":       g.playerPossession,
			"count_possession_lost_in_phase": float64(g.lost),
			"count_possession_lead_to_shot":  float64(g.shot),
			"count_possession_lead_to_goal":  float64(g.goal),
			"avg_start_width":                g.startWidth.mean(),
			"avg_start_length":               g.startLength.mean(),
			"avg_end_width":                  g.endWidth.mean(),
			"avg_end_length":                 g.endLength.mean(),
		}
		for next, n := range transitions[teamPhaseID(k.matchID, k.teamID, k.phaseType)] {
			vals[TransitionMetric(next)] = float64(n)
		}
		for m, v := range vals {
			c := MetricColumn(m, k.phaseType)
			if _, ok := agg.Metrics[c]; ok {
				agg.Metrics[c] = v
			}
		}
	}

	out.Rows = make([]model.MatchTeamAggregate, 0, len(rows))
	for _, agg := range rows {
		out.Rows = append(out.Rows, *agg)
	}
	sort.Slice(out.Rows, func(i, j int) bool {
		a, b := out.Rows[i], out.Rows[j]
		if c := model.CompareIDs(a.MatchID, b.MatchID); c != 0 {
			return c < 0
		}
		if c := model.CompareIDs(a.TeamID, b.TeamID); c != 0 {
			return c < 0
		}
		return a.TeamName < b.TeamName
	})
	return out
}

// teamPhaseID keeps transition keys unique across matches.
func teamPhaseID(matchID, teamID, phaseType string) string {
	return fmt.Sprintf("%s_%s_%s", matchID, teamID, phaseType)
}

// meanAcc is a running mean that skips missing values.
type meanAcc struct {
	sum float64
	n   int
}

func (m *meanAcc) add(v float64) {
	if model.IsNull(v) {
		return
	}
	m.sum += v
	m.n++
}

func (m meanAcc) mean() float64 {
	if m.n == 0 {
		return math.NaN()
	}
	return m.sum / float64(m.n)
}

func zeroIfNaN(v float64) float64 {
	if model.IsNull(v) {
		return 0
	}
	return v
}
