package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/config"
)

var (
	cfgPath string
	dbPath  string

	cfg *config.Config
	log = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "popmetrics",
	Short: "Football phases-of-play metrics tool",
	Long: "Link phases of play, enrich them with dynamic events and aggregate " +
		"in-possession and out-of-possession team and player metrics.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default ./popmetrics.yaml when present)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "path to SQLite database (default from config)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(shellCmd)
}

// loadConfig reads configuration and sets up the shared logger before any
// subcommand runs.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg = c
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log_level %q: %w", cfg.LogLevel, err)
	}
	log.SetLevel(level)
	log.WithField("db", dbPath).Debug("config loaded")
	return nil
}
