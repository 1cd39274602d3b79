// Package enricher rolls dynamic events up to the phase they belong to:
// per-type counts, first/last possession signals and the score at phase start.
package enricher

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

// Options tunes enrichment.
type Options struct {
	// EventTypes and EventSubtypes are always emitted as count columns, even
	// when no event of that value occurs in the batch.
	EventTypes    []string
	EventSubtypes []string

	// PossessionEventType selects the events that carry possession signals.
	PossessionEventType string

	// ScoreToleranceFrames bounds the distance of the score lookup. Zero means
	// unbounded.
	ScoreToleranceFrames int
}

// Required columns of each input.
var (
	eventRequired = []string{
		model.ColMatchID, model.ColPhaseIndex, model.ColEventType, model.ColEventSubtype,
		model.ColIndex, model.ColFrameStart,
		model.ColTeamScore, model.ColOpponentTeamScore,
		model.ColFirstPlayerPossession, model.ColLastPlayerPossession,
		model.ColLastDefensiveLineHeightStart, model.ColLastDefensiveLineHeightEnd,
		model.ColTeammatesAheadStart, model.ColOpponentsAheadStart,
		model.ColTeammatesAheadEnd, model.ColOpponentsAheadEnd,
	}
	phaseRequired = []string{model.ColMatchID, model.ColIndex, model.ColFrameStart}
)

var (
	reSpace    = regexp.MustCompile(`\s+`)
	reNonSlug  = regexp.MustCompile(`[^a-z0-9_]+`)
	reUnderRun = regexp.MustCompile(`_+`)
)

// Slugify lower-cases s and collapses every run of non-alphanumeric characters
// into a single underscore.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = reSpace.ReplaceAllString(s, "_")
	s = reNonSlug.ReplaceAllString(s, "_")
	s = reUnderRun.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// CountColumn is the column name of a count over an event type or subtype value.
func CountColumn(value string) string { return "n_" + Slugify(value) }

// phaseKey joins events to phases: (match_id, phase_index) == (match_id, index).
type phaseKey struct {
	matchID string
	index   int
}

// scoreKey scopes the nearest-score lookup.
type scoreKey struct {
	matchID string
	period  int
}

// phaseSignals accumulates everything derived for one phase.
type phaseSignals struct {
	types    map[string]int
	subtypes map[string]int

	possessions []model.DynamicEvent // possession events, sorted by index before use
}

// Enrich returns one enriched row per phase, in phase order. Neither input is
// modified.
func Enrich(phases model.PhaseTable, events model.EventTable, opts Options, log logrus.FieldLogger) (model.EnrichedTable, error) {
	if err := model.RequireColumns("dynamic_events", events.Columns, eventRequired...); err != nil {
		return model.EnrichedTable{}, err
	}
	if err := model.RequireColumns("phases", phases.Columns, phaseRequired...); err != nil {
		return model.EnrichedTable{}, err
	}
	if opts.PossessionEventType == "" {
		opts.PossessionEventType = "player_possession"
	}

	// 1. Bucket events by owning phase.
	signals := make(map[phaseKey]*phaseSignals)
	typeCols := make(map[string]bool)
	subtypeCols := make(map[string]bool)
	for _, v := range opts.EventTypes {
		typeCols[Slugify(v)] = true
	}
	for _, v := range opts.EventSubtypes {
		subtypeCols[Slugify(v)] = true
	}
	unknown := make(map[string]bool)

	var possessionEvents []model.DynamicEvent
	orphaned := 0
	for _, ev := range events.Rows {
		if ev.PhaseIndex == model.NoPhase {
			// No owning phase: counts nowhere, but its score still anchors lookups.
			orphaned++
			if ev.EventType == opts.PossessionEventType {
				possessionEvents = append(possessionEvents, ev)
			}
			continue
		}
		k := phaseKey{matchID: ev.MatchID, index: ev.PhaseIndex}
		s := signals[k]
		if s == nil {
			s = &phaseSignals{types: make(map[string]int), subtypes: make(map[string]int)}
			signals[k] = s
		}

		subtype := ev.EventSubtype
		if subtype == "" {
			subtype = "None"
		}
		ts, ss := Slugify(ev.EventType), Slugify(subtype)
		s.types[ts]++
		s.subtypes[ss]++
		if !typeCols[ts] {
			unknown["type:"+ts] = true
			typeCols[ts] = true
		}
		if !subtypeCols[ss] {
			unknown["subtype:"+ss] = true
			subtypeCols[ss] = true
		}

		if ev.EventType == opts.PossessionEventType {
			s.possessions = append(s.possessions, ev)
			possessionEvents = append(possessionEvents, ev)
		}
	}
	if orphaned > 0 {
		log.WithField("events", orphaned).Warn("events without a phase_index are not counted")
	}
	if len(unknown) > 0 && (len(opts.EventTypes) > 0 || len(opts.EventSubtypes) > 0) {
		log.WithField("values", sortedKeys(unknown)).Debug("event values outside the configured taxonomy")
	}

	// 2. Score lookup index.
	usePeriod := phases.HasPeriod() && events.HasPeriod()
	scores := buildScoreIndex(possessionEvents, usePeriod)

	// 3. One enriched row per phase.
	countCols := countColumns(typeCols, subtypeCols)
	out := model.EnrichedTable{
		Rows:         make([]model.EnrichedPhase, 0, len(phases.Rows)),
		Columns:      phases.Columns.Clone(),
		CountColumns: countCols,
	}
	matched := 0
	for _, p := range phases.Rows {
		ep := model.EnrichedPhase{
			Phase:                         p,
			TypeCounts:                    zeroCounts(typeCols),
			SubtypeCounts:                 zeroCounts(subtypeCols),
			DefensiveLineHeightStartFirst: math.NaN(),
			DefensiveLineHeightEndLast:    math.NaN(),
			IPScoreStart:                  math.NaN(),
			OOPScoreStart:                 math.NaN(),
		}

		if s := signals[phaseKey{matchID: p.MatchID, index: p.Index}]; s != nil {
			matched++
			for k, n := range s.types {
				ep.TypeCounts[k] = n
			}
			for k, n := range s.subtypes {
				ep.SubtypeCounts[k] = n
			}
			applyPossessionSignals(&ep, s.possessions)
		}

		if p.FrameStart != model.NoFrame {
			sk := scoreKey{matchID: p.MatchID}
			if usePeriod {
				sk.period = p.Period
			}
			if ev, ok := scores.nearest(sk, float64(p.FrameStart), opts.ScoreToleranceFrames); ok {
				ep.IPScoreStart = ev.TeamScore
				ep.OOPScoreStart = ev.OpponentTeamScore
			}
		}
		out.Rows = append(out.Rows, ep)
	}

	out.Columns.Add(countCols...)
	out.Columns.Add(
		model.ColDefensiveLineHeightStartFirst, model.ColDefensiveLineHeightEndLast,
		model.ColTeammatesAheadPhaseStart, model.ColTeammatesAheadPhaseEnd,
		model.ColOpponentsAheadPhaseStart, model.ColOpponentsAheadPhaseEnd,
		model.ColIPScoreStart, model.ColOOPScoreStart,
	)

	log.WithFields(logrus.Fields{
		"phases":         len(phases.Rows),
		"events":         len(events.Rows),
		"phases_matched": matched,
		"count_columns":  len(countCols),
	}).Debug("enriched phases")
	return out, nil
}

// applyPossessionSignals sets line heights and players-ahead from a phase's
// possession events. Players-ahead counts default to zero like every n_ column.
func applyPossessionSignals(ep *model.EnrichedPhase, evs []model.DynamicEvent) {
	if len(evs) == 0 {
		return
	}
	sorted := make([]model.DynamicEvent, len(evs))
	copy(sorted, evs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	for _, ev := range sorted {
		if ev.FirstPlayerPossessionInTeamPossession {
			ep.DefensiveLineHeightStartFirst = ev.LastDefensiveLineHeightStart
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].LastPlayerPossessionInTeamPossession {
			ep.DefensiveLineHeightEndLast = sorted[i].LastDefensiveLineHeightEnd
			break
		}
	}

	first, last := sorted[0], sorted[len(sorted)-1]
	ep.TeammatesAheadPhaseStart = zeroIfNull(first.TeammatesAheadStart)
	ep.OpponentsAheadPhaseStart = zeroIfNull(first.OpponentsAheadStart)
	ep.TeammatesAheadPhaseEnd = zeroIfNull(last.TeammatesAheadEnd)
	ep.OpponentsAheadPhaseEnd = zeroIfNull(last.OpponentsAheadEnd)
}

// ---- nearest score ----

type scoreIndex map[scoreKey][]model.DynamicEvent

// buildScoreIndex groups possession events with a known frame_start and sorts
// each group by frame.
func buildScoreIndex(evs []model.DynamicEvent, usePeriod bool) scoreIndex {
	idx := make(scoreIndex)
	for _, ev := range evs {
		if math.IsNaN(ev.FrameStart) {
			continue
		}
		k := scoreKey{matchID: ev.MatchID}
		if usePeriod {
			k.period = ev.Period
		}
		idx[k] = append(idx[k], ev)
	}
	for k := range idx {
		g := idx[k]
		sort.SliceStable(g, func(i, j int) bool { return g[i].FrameStart < g[j].FrameStart })
	}
	return idx
}

// nearest returns the event closest in frames to frame. On equal distance the
// preceding event wins; among events on the same frame the last preceding or
// first following one is taken.
func (idx scoreIndex) nearest(k scoreKey, frame float64, tolerance int) (model.DynamicEvent, bool) {
	g := idx[k]
	if len(g) == 0 {
		return model.DynamicEvent{}, false
	}
	// first event strictly after frame
	after := sort.Search(len(g), func(i int) bool { return g[i].FrameStart > frame })

	var best model.DynamicEvent
	bestDist := math.Inf(1)
	found := false
	if after > 0 {
		best = g[after-1]
		bestDist = frame - best.FrameStart
		found = true
	}
	if after < len(g) {
		if d := g[after].FrameStart - frame; d < bestDist {
			best, bestDist, found = g[after], d, true
		}
	}
	if !found {
		return model.DynamicEvent{}, false
	}
	if tolerance > 0 && bestDist > float64(tolerance) {
		return model.DynamicEvent{}, false
	}
	return best, true
}

// ---- helpers ----

func countColumns(typeCols, subtypeCols map[string]bool) []string {
	seen := make(map[string]bool, len(typeCols)+len(subtypeCols))
	var cols []string
	for _, set := range []map[string]bool{typeCols, subtypeCols} {
		for slug := range set {
			c := "n_" + slug
			if slug == "" || seen[c] {
				continue
			}
			seen[c] = true
			cols = append(cols, c)
		}
	}
	sort.Strings(cols)
	return cols
}

func zeroCounts(domain map[string]bool) map[string]int {
	m := make(map[string]int, len(domain))
	for slug := range domain {
		m[slug] = 0
	}
	return m
}

func zeroIfNull(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
