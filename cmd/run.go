package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/aggregator"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/loader"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/pipeline"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/report"
	"github.com/liamMichaelBailey/team-analysis-helpers/internal/storage"
)

var (
	phasesPath  string
	eventsPath  string
	matchesPath string
	playersPath string
	runFrom     string
	runTo       string
	outDir      string
	runStrict   bool
	noStore     bool
	tolerance   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the phases-of-play pipeline over CSV inputs and store the results",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&phasesPath, "phases", "", "phases of play CSV (required)")
	runCmd.Flags().StringVar(&eventsPath, "events", "", "dynamic events CSV (required)")
	runCmd.Flags().StringVar(&matchesPath, "matches", "", "match metadata CSV with period durations")
	runCmd.Flags().StringVar(&playersPath, "players", "", "player performances CSV; enables the player_events table")
	runCmd.Flags().StringVar(&runFrom, "from", "", "first match_date to include (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runTo, "to", "", "last match_date to include (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&outDir, "out-dir", "", "also write every output table as <name>.csv here")
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "fail on matches without exactly two possession teams")
	runCmd.Flags().BoolVar(&noStore, "no-store", false, "do not persist the run to the database")
	runCmd.Flags().IntVar(&tolerance, "tolerance", 0, "max frames between a phase and its nearest score event (0 = unbounded)")
	_ = runCmd.MarkFlagRequired("phases")
	_ = runCmd.MarkFlagRequired("events")
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	opts := pipeline.OptionsFromConfig(cfg)
	if cmd.Flags().Changed("strict") {
		opts.Strict = runStrict
	}
	if cmd.Flags().Changed("tolerance") {
		opts.ScoreToleranceFrames = tolerance
	}
	if runFrom != "" {
		opts.DateFrom = runFrom
	}
	if runTo != "" {
		opts.DateTo = runTo
	}

	in, err := loadInputs(ctx)
	if err != nil {
		return err
	}

	res, err := pipeline.Run(ctx, in, opts, log)
	if err != nil {
		return fmt.Errorf("run pipeline: %w", err)
	}
	tables := res.Tables()

	summary := model.RunSummary{
		PhasesPath:      phasesPath,
		EventsPath:      eventsPath,
		DateFrom:        opts.DateFrom,
		DateTo:          opts.DateTo,
		Strict:          opts.Strict,
		TaxonomyVersion: opts.Taxonomy.Version,
		Phases:          len(res.Enriched.Rows),
		Matches:         countMatches(res.Enriched.Rows),
		Teams:           len(res.SeasonInPossession.Rows),
	}

	if !noStore {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return fmt.Errorf("create db dir: %w", err)
		}
		db, err := storage.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open storage: %w", err)
		}
		defer db.Close()

		summary.ID, err = db.SaveRun(summary, tables)
		if err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		log.WithFields(logrus.Fields{"run": summary.ID, "tables": len(tables)}).Info("run stored")
	}

	if outDir != "" {
		if err := exportCSV(outDir, res); err != nil {
			return err
		}
	}

	report.PrintRunSummary(os.Stdout, summary)
	report.PrintTable(os.Stdout, res.SeasonInPossession.Table(), seasonColumns(aggregator.InPossessionRollup()))
	report.PrintTable(os.Stdout, res.SeasonOutOfPossession.Table(), seasonColumns(aggregator.OutOfPossessionRollup()))
	return nil
}

// loadInputs reads the input CSVs concurrently.
func loadInputs(ctx context.Context) (pipeline.Inputs, error) {
	var in pipeline.Inputs
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		t, err := loader.LoadPhases(phasesPath)
		in.Phases = t
		return err
	})
	g.Go(func() error {
		t, err := loader.LoadEvents(eventsPath)
		in.Events = t
		return err
	})
	if matchesPath != "" {
		g.Go(func() error {
			m, err := loader.LoadMatches(matchesPath)
			in.Matches = m
			return err
		})
	}
	if playersPath != "" {
		g.Go(func() error {
			p, err := loader.LoadPerformances(playersPath)
			if p == nil && err == nil {
				p = []model.PlayerPerformance{}
			}
			in.Performances = p
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return pipeline.Inputs{}, err
	}

	log.WithFields(logrus.Fields{
		"phases":       len(in.Phases.Rows),
		"events":       len(in.Events.Rows),
		"matches":      len(in.Matches),
		"performances": len(in.Performances),
	}).Debug("inputs loaded")
	return in, nil
}

func exportCSV(dir string, res *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	for _, t := range res.Tables() {
		path := filepath.Join(dir, t.Name+".csv")
		if err := writeTableFile(path, t, "csv"); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"path": path, "rows": len(t.Rows)}).Debug("table exported")
	}
	fmt.Fprintf(os.Stdout, "Wrote %d tables to %s\n", len(res.Tables()), dir)
	return nil
}

// seasonColumns is the terminal summary of a season table: identity columns
// followed by the competition scores.
func seasonColumns(def aggregator.RollupDef) []string {
	cols := []string{"team_name", "n_matches", "minutes_played"}
	for _, m := range def.Scored {
		cols = append(cols, aggregator.CompetitionScore(m))
	}
	return cols
}

func countMatches(rows []model.EnrichedPhase) int {
	seen := map[string]bool{}
	for _, r := range rows {
		seen[r.MatchID] = true
	}
	return len(seen)
}
