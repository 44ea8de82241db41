package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "bc_roads.geojson", cfg.Input)
	assert.Equal(t, "bc_fsrs_merged.geojson", cfg.Output)
	assert.Equal(t, StrategyAttribute, cfg.Group.Strategy)
	assert.Equal(t, "ROAD_NAME_FULL", cfg.Group.Key)
	assert.Zero(t, cfg.Merge.SimplifyTolerance)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
input: roads.geojson
group:
  strategy: both
  key: ROAD_NAME_ID
  distance: 2.5
merge:
  properties: first
  simplify_tolerance: 0.5
memory:
  limit: 2GiB
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "roads.geojson", cfg.Input)
	assert.Equal(t, "bc_fsrs_merged.geojson", cfg.Output, "unset keys keep defaults")
	assert.Equal(t, StrategyBoth, cfg.Group.Strategy)
	assert.Equal(t, 2.5, cfg.Group.Distance)
	assert.Equal(t, PropertiesFirst, cfg.Merge.Properties)
	assert.Equal(t, "title", cfg.Merge.Title)

	limit, err := cfg.MemoryLimit()
	require.NoError(t, err)
	assert.Equal(t, uint64(2<<30), limit)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"output over input", func(c *Config) { c.Output = c.Input }},
		{"empty input", func(c *Config) { c.Input = "" }},
		{"unknown strategy", func(c *Config) { c.Group.Strategy = "nearest" }},
		{"attribute without key", func(c *Config) { c.Group.Key = "" }},
		{"both without key", func(c *Config) { c.Group.Strategy = StrategyBoth; c.Group.Key = "" }},
		{"negative distance", func(c *Config) { c.Group.Strategy = StrategyAdjacency; c.Group.Distance = -1 }},
		{"negative tolerance", func(c *Config) { c.Merge.SimplifyTolerance = -0.1 }},
		{"unknown properties policy", func(c *Config) { c.Merge.Properties = "union" }},
		{"unknown geometry policy", func(c *Config) { c.GeometryErrors = "ignore" }},
		{"rule with both matchers", func(c *Config) { c.Filter[0].Contains = "res" }},
		{"rule without property", func(c *Config) { c.Filter[0].Property = "" }},
		{"bad memory limit", func(c *Config) { c.Memory.Limit = "lots" }},
		{"report over output", func(c *Config) { c.Report = c.Output }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestAdjacencyNeedsNoKey(t *testing.T) {
	cfg := Default()
	cfg.Group = Group{Strategy: StrategyAdjacency}
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"ROAD_CLASS", "ROAD_NAME_FULL"}, cfg.Properties())
}

func TestProperties(t *testing.T) {
	cfg := Default()
	cfg.Group.Key = "ROAD_NAME_ID"
	assert.Equal(t, []string{"ROAD_CLASS", "ROAD_NAME_FULL", "ROAD_NAME_ID"}, cfg.Properties())

	cfg.Filter = nil
	assert.Equal(t, []string{"ROAD_NAME_ID"}, cfg.Properties())
}
