package main

import (
	"fmt"
	"testing"

	"github.com/woozymasta/fsrmerge/internal/config"
	"github.com/woozymasta/fsrmerge/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) (*config.Config, *Options) {
	t.Helper()
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	_, err := parser.ParseArgs(args)
	require.NoError(t, err)

	cfg := config.Default()
	applyOptions(&cfg, &opts, parser)
	return &cfg, &opts
}

func TestApplyOptionsDefaults(t *testing.T) {
	cfg, _ := parse(t)
	assert.Equal(t, config.Default(), *cfg)
}

func TestApplyOptionsOverrides(t *testing.T) {
	t.Setenv("FSRMERGE_TOLERANCE", "0")

	cfg, _ := parse(t,
		"-i", "roads.geojson.zst",
		"-o", "out.geojson",
		"-s", "both",
		"-d", "0",
		"-p", "first",
		"--no-filter", "--strict", "--minify", "--precision", "5",
	)

	assert.Equal(t, "roads.geojson.zst", cfg.Input)
	assert.Equal(t, "out.geojson", cfg.Output)
	assert.Equal(t, config.StrategyBoth, cfg.Group.Strategy)
	assert.Equal(t, "ROAD_NAME_FULL", cfg.Group.Key)
	assert.Zero(t, cfg.Group.Distance)
	assert.Zero(t, cfg.Merge.SimplifyTolerance)
	assert.Equal(t, config.PropertiesFirst, cfg.Merge.Properties)
	assert.Empty(t, cfg.Filter)
	assert.Equal(t, config.GeometryFail, cfg.GeometryErrors)
	assert.True(t, cfg.Minify.Enabled)
	assert.Equal(t, 5, cfg.Minify.Precision)
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{config.ErrInvalid, exitUsage},
		{processor.ErrInputNotFound, exitInputNotFound},
		{&processor.ParseError{Err: fmt.Errorf("eof"), Feature: -1}, exitParse},
		{&processor.GeometryError{Reason: "null geometry"}, exitGeometry},
		{processor.ErrOutOfMemory, exitOutOfMemory},
		{fmt.Errorf("load: %w", processor.ErrMissingProperty), exitMissingProperty},
		{fmt.Errorf("disk full"), exitFailure},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, exitCode(fmt.Errorf("run: %w", tc.err)), tc.err.Error())
	}
}
