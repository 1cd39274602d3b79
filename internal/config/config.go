// Package config loads popmetrics settings from an optional YAML file, a .env
// file and POPMETRICS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	LogLevel             string   `mapstructure:"log_level"`
	Strict               bool     `mapstructure:"strict"`
	ScoreToleranceFrames int      `mapstructure:"score_tolerance_frames"` // 0 = unbounded
	DateFrom             string   `mapstructure:"date_from"`              // inclusive, "YYYY-MM-DD"
	DateTo               string   `mapstructure:"date_to"`                // inclusive, "YYYY-MM-DD"
	DBPath               string   `mapstructure:"db_path"`
	Taxonomy             Taxonomy `mapstructure:"taxonomy"`
}

// Taxonomy is the fixed, versioned domain of categorical values. Output schemas
// are derived from it so batches with different observed values line up.
type Taxonomy struct {
	Version               int      `mapstructure:"version"`
	InPossessionPhases    []string `mapstructure:"in_possession_phases"`
	OutOfPossessionPhases []string `mapstructure:"out_of_possession_phases"`
	TransitionTargets     []string `mapstructure:"transition_targets"`
	EventTypes            []string `mapstructure:"event_types"`
	EventSubtypes         []string `mapstructure:"event_subtypes"`
	PossessionEventType   string   `mapstructure:"possession_event_type"`
}

// DefaultTaxonomy returns the phase and event domains of the tracking provider.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Version: 1,
		InPossessionPhases: []string{
			"build_up", "create", "finish", "transition",
			"quick_break", "direct", "chaotic", "set_play",
		},
		OutOfPossessionPhases: []string{
			"low_block", "medium_block", "high_block", "defending_transition",
			"defending_quick_break", "defending_direct", "chaotic", "defending_set_play",
		},
		TransitionTargets: []string{
			"build_up", "create", "finish", "transition", "quick_break", "direct", "chaotic",
			"low_block", "medium_block", "high_block",
			"defending_quick_break", "defending_transition", "defending_direct",
		},
		EventTypes: []string{
			"player_possession", "passing_option", "off_ball_run", "on_ball_engagement",
		},
		EventSubtypes: []string{
			"None", "cross_receiver", "behind", "coming_short", "dropping_off", "overlap",
			"pulling_half_space", "pulling_wide", "run_ahead_of_the_ball", "support", "underlap",
			"pressing", "pressure", "counter_press", "recovery_press", "other",
		},
		PossessionEventType: "player_possession",
	}
}

// Phases returns the phase types pivoted into columns for a perspective.
func (t Taxonomy) Phases(outOfPossession bool) []string {
	if outOfPossession {
		return t.OutOfPossessionPhases
	}
	return t.InPossessionPhases
}

// Validate checks the taxonomy can drive the pipeline.
func (t Taxonomy) Validate() error {
	switch {
	case len(t.InPossessionPhases) == 0:
		return errors.New("taxonomy.in_possession_phases is empty")
	case len(t.OutOfPossessionPhases) == 0:
		return errors.New("taxonomy.out_of_possession_phases is empty")
	case t.PossessionEventType == "":
		return errors.New("taxonomy.possession_event_type is empty")
	}
	return nil
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		DBPath:   filepath.Join(mustUserHome(), ".popmetrics", "popmetrics.db"),
		Taxonomy: DefaultTaxonomy(),
	}
}

// Load reads configuration. An empty path looks for popmetrics.yaml in the
// working directory and ~/.popmetrics; a missing file is not an error then.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // .env is optional

	def := Default()
	v := viper.New()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("strict", def.Strict)
	v.SetDefault("score_tolerance_frames", def.ScoreToleranceFrames)
	v.SetDefault("date_from", "")
	v.SetDefault("date_to", "")
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("taxonomy.version", def.Taxonomy.Version)
	v.SetDefault("taxonomy.in_possession_phases", def.Taxonomy.InPossessionPhases)
	v.SetDefault("taxonomy.out_of_possession_phases", def.Taxonomy.OutOfPossessionPhases)
	v.SetDefault("taxonomy.transition_targets", def.Taxonomy.TransitionTargets)
	v.SetDefault("taxonomy.event_types", def.Taxonomy.EventTypes)
	v.SetDefault("taxonomy.event_subtypes", def.Taxonomy.EventSubtypes)
	v.SetDefault("taxonomy.possession_event_type", def.Taxonomy.PossessionEventType)

	v.SetEnvPrefix("POPMETRICS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("popmetrics")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(mustUserHome(), ".popmetrics"))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Taxonomy.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
