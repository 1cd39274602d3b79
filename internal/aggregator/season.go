package aggregator

import (
	"math"
	"sort"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

// Reduce is how a match-level column is rolled up across matches.
type Reduce int

const (
	Sum Reduce = iota
	Mean
)

// Rollup is one season column computed from a match aggregate column.
type Rollup struct {
	Name   string
	Source string
	Reduce Reduce
}

// Rate is a derived season column: Num/minutes*90 for per-90 rates, Num/Den*100
// for percentages.
type Rate struct {
	Name string
	Num  string
	Den  string
}

// RollupDef describes a season table.
type RollupDef struct {
	Perspective model.Perspective
	Columns     []Rollup
	Per90       []Rate
	Percentages []Rate
	// Scored metrics also get a <metric>_competition_score column.
	Scored []string
}

// InPossessionRollup is the season definition for teams in possession.
func InPossessionRollup() RollupDef {
	def := RollupDef{Perspective: model.InPossession}
	def.Columns = []Rollup{
		{"total_build_up_duration", "total_time_build_up", Sum},
		{"total_create_duration", "total_time_create", Sum},
		{"total_finish_duration", "total_time_finish", Sum},
	}
	for _, ph := range []string{"build_up", "create", "finish", "direct", "transition", "quick_break", "chaotic"} {
		def.Columns = append(def.Columns, Rollup{"count_" + ph, "count_" + ph, Sum})
	}
	def.Columns = append(def.Columns,
		Rollup{"count_into_create_from_build_up", "count_into_create_from_build_up", Sum},
		Rollup{"count_into_direct_from_build_up", "count_into_direct_from_build_up", Sum},
		Rollup{"count_possession_loss_in_build_up", "count_possession_lost_in_phase_build_up", Sum},
		Rollup{"avg_width_build_up", "avg_end_width_build_up", Mean},
		Rollup{"avg_length_build_up", "avg_end_length_build_up", Mean},

		Rollup{"count_into_finish_from_create", "count_into_finish_from_create", Sum},
		Rollup{"count_into_build_up_from_create", "count_into_build_up_from_create", Sum},
		Rollup{"count_possession_loss_in_create", "count_possession_lost_in_phase_create", Sum},
		Rollup{"avg_width_create", "avg_end_width_create", Mean},
		Rollup{"avg_length_create", "avg_end_length_create", Mean},

		Rollup{"count_possession_lead_to_shot_finish", "count_possession_lead_to_shot_finish", Sum},
		Rollup{"count_into_create_from_finish", "count_into_create_from_finish", Sum},
		Rollup{"count_possession_loss_in_finish", "count_possession_lost_in_phase_finish", Sum},
		Rollup{"avg_width_finish", "avg_end_width_finish", Mean},
		Rollup{"avg_length_finish", "avg_end_length_finish", Mean},
	)

	for _, ph := range []string{"build_up", "create", "finish", "direct", "transition", "chaotic"} {
		def.Per90 = append(def.Per90, Rate{Name: "count_" + ph + "_phases_per_90", Num: "count_" + ph})
	}
	for _, ph := range []string{"build_up", "create", "finish"} {
		def.Percentages = append(def.Percentages, Rate{
			Name: "possession_loss_in_" + ph + "_percentage",
			Num:  "count_possession_loss_in_" + ph,
			Den:  "count_" + ph,
		})
	}
	def.Percentages = append(def.Percentages,
		Rate{"progressed_to_create_from_build_up_percentage", "count_into_create_from_build_up", "count_build_up"},
		Rate{"progressed_to_direct_from_build_up_percentage", "count_into_direct_from_build_up", "count_build_up"},
		Rate{"progressed_to_finish_from_create_percentage", "count_into_finish_from_create", "count_create"},
		Rate{"played_back_to_build_up_from_create_percentage", "count_into_build_up_from_create", "count_create"},
		Rate{"finish_lead_to_shot_percentage", "count_possession_lead_to_shot_finish", "count_finish"},
		Rate{"played_back_to_create_from_finish_percentage", "count_into_create_from_finish", "count_finish"},
	)

	def.Scored = rateNames(def.Per90)
	def.Scored = append(def.Scored,
		"avg_width_build_up", "avg_length_build_up",
		"avg_width_create", "avg_length_create",
		"avg_width_finish", "avg_length_finish",
	)
	def.Scored = append(def.Scored, rateNames(def.Percentages)...)
	return def
}

// OutOfPossessionRollup is the season definition for defending teams.
func OutOfPossessionRollup() RollupDef {
	def := RollupDef{Perspective: model.OutOfPossession}
	blocks := []string{"high_block", "medium_block", "low_block"}
	for _, b := range blocks {
		def.Columns = append(def.Columns, Rollup{"total_" + b + "_duration", "total_time_" + b, Sum})
	}
	for _, ph := range []string{
		"high_block", "medium_block", "low_block",
		"defending_transition", "defending_quick_break", "defending_direct", "chaotic",
	} {
		def.Columns = append(def.Columns, Rollup{"count_" + ph, "count_" + ph, Sum})
	}
	def.Columns = append(def.Columns,
		Rollup{"count_into_medium_block_from_high_block", "count_into_medium_block_from_high_block", Sum},
		Rollup{"count_into_low_block_from_medium_block", "count_into_low_block_from_medium_block", Sum},
		Rollup{"count_into_low_block_from_high_block", "count_into_low_block_from_high_block", Sum},
	)
	for _, b := range blocks {
		def.Columns = append(def.Columns,
			Rollup{"count_shot_conceded_in_" + b, "count_possession_lead_to_shot_" + b, Sum},
			Rollup{"avg_width_" + b, "avg_end_width_" + b, Mean},
			Rollup{"avg_length_" + b, "avg_end_length_" + b, Mean},
		)
	}

	for _, ph := range []string{"high_block", "medium_block", "low_block", "defending_transition", "defending_direct", "chaotic"} {
		def.Per90 = append(def.Per90, Rate{Name: "count_" + ph + "_phases_per_90", Num: "count_" + ph})
	}
	def.Percentages = []Rate{
		{"pushed_back_to_medium_block_from_high_block_percentage", "count_into_medium_block_from_high_block", "count_high_block"},
		{"pushed_back_to_low_block_from_medium_block_percentage", "count_into_low_block_from_medium_block", "count_medium_block"},
		{"pushed_back_to_low_block_from_high_block_percentage", "count_into_low_block_from_high_block", "count_high_block"},
	}
	for _, b := range blocks {
		def.Percentages = append(def.Percentages, Rate{
			Name: "shot_conceded_in_" + b + "_percentage",
			Num:  "count_shot_conceded_in_" + b,
			Den:  "count_" + b,
		})
	}

	def.Scored = rateNames(def.Per90)
	for _, b := range blocks {
		def.Scored = append(def.Scored, "avg_width_"+b, "avg_length_"+b)
	}
	def.Scored = append(def.Scored, rateNames(def.Percentages)...)
	return def
}

// CompetitionScore names the z-score column of a metric.
func CompetitionScore(metric string) string { return metric + "_competition_score" }

// MetricColumns returns the season columns def produces, in output order.
func (def RollupDef) MetricColumns() []string {
	var cols []string
	for _, c := range def.Columns {
		cols = append(cols, c.Name)
	}
	cols = append(cols, rateNames(def.Per90)...)
	cols = append(cols, rateNames(def.Percentages)...)
	for _, m := range def.Scored {
		cols = append(cols, CompetitionScore(m))
	}
	return cols
}

// SeasonRollup rolls match aggregates up to one row per team, adding per-90
// rates, percentages and competition scores. Minutes come from the matches'
// match_duration_minutes.
func SeasonRollup(matchAggs model.MatchAggregateTable, matches []model.MatchInfo, def RollupDef) model.SeasonTable {
	out := model.SeasonTable{Perspective: def.Perspective, MetricColumns: def.MetricColumns()}

	minutesByMatch := make(map[string]float64, len(matches))
	for _, m := range matches {
		minutesByMatch[m.MatchID] = m.MatchDurationMinutes
	}

	// ---- Pass 1: group match rows by team. ----

	type teamKey struct{ teamID, teamName string }
	type teamAcc struct {
		matches map[string]bool
		minutes float64
		sums    map[string]float64
		means   map[string]*meanAcc
	}
	teams := make(map[teamKey]*teamAcc)
	var order []teamKey
	for _, r := range matchAggs.Rows {
		k := teamKey{r.TeamID, r.TeamName}
		acc := teams[k]
		if acc == nil {
			acc = &teamAcc{
				matches: make(map[string]bool),
				sums:    make(map[string]float64),
				means:   make(map[string]*meanAcc),
			}
			teams[k] = acc
			order = append(order, k)
		}
		acc.matches[r.MatchID] = true
		// One row per (match, team) so every row adds its match once.
		if v, ok := minutesByMatch[r.MatchID]; ok && !model.IsNull(v) {
			acc.minutes += v
		}
		for _, c := range def.Columns {
			v, ok := r.Metrics[c.Source]
			if !ok {
				v = math.NaN()
			}
			switch c.Reduce {
			case Sum:
				acc.sums[c.Name] += zeroIfNaN(v)
			case Mean:
				if acc.means[c.Name] == nil {
					acc.means[c.Name] = &meanAcc{}
				}
				acc.means[c.Name].add(v)
			}
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if c := model.CompareIDs(order[i].teamID, order[j].teamID); c != 0 {
			return c < 0
		}
		return order[i].teamName < order[j].teamName
	})

	// ---- Pass 2: per-team columns, rates and percentages. ----

	for _, k := range order {
		acc := teams[k]
		row := model.SeasonTeamAggregate{
			TeamID:        k.teamID,
			TeamName:      k.teamName,
			Matches:       len(acc.matches),
			MinutesPlayed: acc.minutes,
			Metrics:       make(map[string]float64, len(out.MetricColumns)),
		}
		for _, c := range def.Columns {
			switch c.Reduce {
			case Sum:
				row.Metrics[c.Name] = acc.sums[c.Name]
			case Mean:
				row.Metrics[c.Name] = math.NaN()
				if m := acc.means[c.Name]; m != nil {
					row.Metrics[c.Name] = m.mean()
				}
			}
		}
		for _, r := range def.Per90 {
			row.Metrics[r.Name] = ratio(row.Metrics[r.Num], row.MinutesPlayed) * 90
		}
		for _, r := range def.Percentages {
			row.Metrics[r.Name] = ratio(row.Metrics[r.Num], row.Metrics[r.Den]) * 100
		}
		out.Rows = append(out.Rows, row)
	}

	// ---- Pass 3: competition scores across all teams. ----

	for _, m := range def.Scored {
		vals := make([]float64, len(out.Rows))
		for i, r := range out.Rows {
			vals[i] = r.Metrics[m]
		}
		scores := zScores(vals)
		for i := range out.Rows {
			out.Rows[i].Metrics[CompetitionScore(m)] = scores[i]
		}
	}
	return out
}

// ratio divides, returning NaN for a zero or missing denominator.
func ratio(num, den float64) float64 {
	if model.IsNull(num) || model.IsNull(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}

// zScores standardizes vals against their mean and sample standard deviation,
// skipping missing values. Fewer than two values or zero spread gives NaN
// everywhere.
func zScores(vals []float64) []float64 {
	out := make([]float64, len(vals))
	var sum float64
	n := 0
	constant := true
	var ref float64
	for _, v := range vals {
		if model.IsNull(v) {
			continue
		}
		if n == 0 {
			ref = v
		} else if v != ref {
			constant = false
		}
		sum += v
		n++
	}
	std := math.NaN()
	mean := math.NaN()
	if n > 1 && !constant {
		mean = sum / float64(n)
		var ss float64
		for _, v := range vals {
			if !model.IsNull(v) {
				ss += (v - mean) * (v - mean)
			}
		}
		std = math.Sqrt(ss / float64(n-1))
	}
	for i, v := range vals {
		if model.IsNull(v) || math.IsNaN(std) || std == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - mean) / std
	}
	return out
}

func rateNames(rs []Rate) []string {
	names := make([]string, len(rs))
	for i, r := range rs {
		names[i] = r.Name
	}
	return names
}
