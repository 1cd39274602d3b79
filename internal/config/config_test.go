package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "popmetrics.yaml")
	yaml := `
log_level: debug
strict: true
score_tolerance_frames: 125
date_from: "2024-08-01"
taxonomy:
  in_possession_phases: [build_up, create]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 125, cfg.ScoreToleranceFrames)
	assert.Equal(t, "2024-08-01", cfg.DateFrom)
	assert.Equal(t, []string{"build_up", "create"}, cfg.Taxonomy.InPossessionPhases)
	// Untouched keys keep their defaults.
	assert.Equal(t, DefaultTaxonomy().OutOfPossessionPhases, cfg.Taxonomy.OutOfPossessionPhases)
	assert.Equal(t, "player_possession", cfg.Taxonomy.PossessionEventType)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "popmetrics.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))
	t.Setenv("POPMETRICS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestTaxonomyValidate(t *testing.T) {
	tax := DefaultTaxonomy()
	require.NoError(t, tax.Validate())

	tax.PossessionEventType = ""
	assert.Error(t, tax.Validate())

	tax = DefaultTaxonomy()
	tax.InPossessionPhases = nil
	assert.Error(t, tax.Validate())
}

func TestTaxonomyPhases(t *testing.T) {
	tax := DefaultTaxonomy()
	assert.Equal(t, "build_up", tax.Phases(false)[0])
	assert.Equal(t, "low_block", tax.Phases(true)[0])
}
