// Package pipeline chains the phase linker, enricher, splitter and aggregators
// into a single batch run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/aggregator"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/config"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/enricher"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/linker"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/splitter"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/table"
)

// Inputs are the loaded source tables. Matches and Performances are optional.
type Inputs struct {
	Phases       model.PhaseTable
	Events       model.EventTable
	Matches      []model.MatchInfo
	Performances []model.PlayerPerformance
}

// Options configures a run.
type Options struct {
	Strict               bool
	DateFrom, DateTo     string // inclusive "YYYY-MM-DD" bounds on match_date; empty = open
	ScoreToleranceFrames int
	Taxonomy             config.Taxonomy
}

// OptionsFromConfig maps loaded configuration onto run options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Strict:               cfg.Strict,
		DateFrom:             cfg.DateFrom,
		DateTo:               cfg.DateTo,
		ScoreToleranceFrames: cfg.ScoreToleranceFrames,
		Taxonomy:             cfg.Taxonomy,
	}
}

// Result holds every stage's output.
type Result struct {
	Linked   model.PhaseTable
	Enriched model.EnrichedTable

	InPossession    model.PossessionTable
	OutOfPossession model.PossessionTable

	MatchInPossession    model.MatchAggregateTable
	MatchOutOfPossession model.MatchAggregateTable

	SeasonInPossession    model.SeasonTable
	SeasonOutOfPossession model.SeasonTable

	Players *model.PlayerTable // nil without player performances
}

// Tables returns the output tables in a fixed order.
func (r *Result) Tables() []*table.Table {
	out := []*table.Table{
		r.InPossession.Table(),
		r.OutOfPossession.Table(),
		r.MatchInPossession.Table(),
		r.MatchOutOfPossession.Table(),
		r.SeasonInPossession.Table(),
		r.SeasonOutOfPossession.Table(),
	}
	if r.Players != nil {
		out = append(out, r.Players.Table())
	}
	return out
}

// Run executes the full pipeline. Schema errors stop the run; in batch mode a
// match without two possession teams only degrades its own rows.
func Run(ctx context.Context, in Inputs, opts Options, log logrus.FieldLogger) (*Result, error) {
	if err := opts.Taxonomy.Validate(); err != nil {
		return nil, err
	}

	phases, err := filterPhases(in.Phases, opts.DateFrom, opts.DateTo)
	if err != nil {
		return nil, err
	}
	events, err := filterEvents(in.Events, opts.DateFrom, opts.DateTo)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"phases": len(phases.Rows),
		"events": len(events.Rows),
		"from":   opts.DateFrom,
		"to":     opts.DateTo,
	}).Debug("inputs in date range")

	mode := linker.ModeBatch
	if opts.Strict {
		mode = linker.ModeStrict
	}

	res := &Result{}

	// ---- Link ----
	withOOP, err := linker.AssignOutOfPossession(phases, mode, log)
	if err != nil {
		return nil, fmt.Errorf("assign out-of-possession team: %w", err)
	}
	res.Linked, err = linker.ComputeNextPhase(withOOP, log)
	if err != nil {
		return nil, fmt.Errorf("compute next phase: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ---- Enrich ----
	res.Enriched, err = enricher.Enrich(res.Linked, events, enricher.Options{
		EventTypes:           opts.Taxonomy.EventTypes,
		EventSubtypes:        opts.Taxonomy.EventSubtypes,
		PossessionEventType:  opts.Taxonomy.PossessionEventType,
		ScoreToleranceFrames: opts.ScoreToleranceFrames,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("enrich phases: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ---- Split and aggregate ----
	res.InPossession, res.OutOfPossession = splitter.Split(res.Enriched)
	res.MatchInPossession = aggregator.MatchAggregates(res.InPossession, opts.Taxonomy)
	res.MatchOutOfPossession = aggregator.MatchAggregates(res.OutOfPossession, opts.Taxonomy)
	res.SeasonInPossession = aggregator.SeasonRollup(res.MatchInPossession, in.Matches, aggregator.InPossessionRollup())
	res.SeasonOutOfPossession = aggregator.SeasonRollup(res.MatchOutOfPossession, in.Matches, aggregator.OutOfPossessionRollup())

	if in.Performances != nil {
		players := aggregator.PlayerEventAggregates(events, in.Performances)
		res.Players = &players
	}

	log.WithFields(logrus.Fields{
		"phases":       len(res.Enriched.Rows),
		"match_rows":   len(res.MatchInPossession.Rows),
		"season_teams": len(res.SeasonInPossession.Rows),
	}).Info("pipeline complete")
	return res, nil
}

// filterPhases keeps phases whose match_date falls in [from, to].
func filterPhases(t model.PhaseTable, from, to string) (model.PhaseTable, error) {
	if from == "" && to == "" {
		return t, nil
	}
	if err := model.RequireColumns("phases", t.Columns, model.ColMatchDate); err != nil {
		return model.PhaseTable{}, err
	}
	out := model.PhaseTable{Columns: t.Columns.Clone()}
	for _, p := range t.Rows {
		if inRange(p.MatchDate, from, to) {
			out.Rows = append(out.Rows, p)
		}
	}
	return out, nil
}

// filterEvents keeps events whose match_date falls in [from, to].
func filterEvents(t model.EventTable, from, to string) (model.EventTable, error) {
	if from == "" && to == "" {
		return t, nil
	}
	if err := model.RequireColumns("dynamic_events", t.Columns, model.ColMatchDate); err != nil {
		return model.EventTable{}, err
	}
	out := model.EventTable{Columns: t.Columns.Clone()}
	for _, ev := range t.Rows {
		if inRange(ev.MatchDate, from, to) {
			out.Rows = append(out.Rows, ev)
		}
	}
	return out, nil
}

// inRange compares ISO dates lexically. Rows without a date are excluded.
func inRange(date, from, to string) bool {
	if date == "" {
		return false
	}
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}
