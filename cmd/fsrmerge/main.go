package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/woozymasta/fsrmerge/internal/config"
	"github.com/woozymasta/fsrmerge/internal/logger"
	"github.com/woozymasta/fsrmerge/internal/processor"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string  `short:"c" long:"config"       env:"FSRMERGE_CONFIG"       description:"Path to YAML configuration file"`
	Input       string  `short:"i" long:"input"        env:"FSRMERGE_INPUT"        description:"Input GeoJSON file, .gz .zst and .lz4 are decompressed"`
	Output      string  `short:"o" long:"output"       env:"FSRMERGE_OUTPUT"       description:"Output GeoJSON file"`
	Report      string  `short:"r" long:"report"       env:"FSRMERGE_REPORT"       description:"Write an analysis report to this file"`
	Strategy    string  `short:"s" long:"strategy"     env:"FSRMERGE_STRATEGY"     description:"Grouping strategy" choice:"attribute" choice:"adjacency" choice:"both"`
	GroupKey    string  `short:"k" long:"group-key"    env:"FSRMERGE_GROUP_KEY"    description:"Property features are grouped by"`
	Distance    float64 `short:"d" long:"distance"     env:"FSRMERGE_DISTANCE"     description:"Endpoint distance for adjacency grouping, in CRS units"`
	Tolerance   float64 `short:"t" long:"tolerance"    env:"FSRMERGE_TOLERANCE"    description:"Douglas-Peucker simplification tolerance, 0 keeps every vertex"`
	Properties  string  `short:"p" long:"properties"   env:"FSRMERGE_PROPERTIES"   description:"Property reduction policy" choice:"common" choice:"first"`
	MemoryLimit string  `short:"m" long:"memory-limit" env:"FSRMERGE_MEMORY_LIMIT" description:"Memory budget, e.g. 4GiB; physical memory when empty"`
	Precision   int     `long:"precision"              env:"FSRMERGE_PRECISION"    description:"Significant digits kept when minifying"`
	NoFilter    bool    `long:"no-filter"              description:"Merge every feature, ignore the configured filter rules"`
	Strict      bool    `long:"strict"                 description:"Fail on the first feature with unusable geometry"`
	Minify      bool    `long:"minify"                 description:"Minify the output"`
	PrintConfig string  `long:"print-config"           description:"Print the effective configuration and exit" choice:"yaml" choice:"json" optional:"yes" optional-value:"yaml"`
}

// Exit codes per error kind.
const (
	exitOK = iota
	exitUsage
	exitInputNotFound
	exitParse
	exitGeometry
	exitOutOfMemory
	exitMissingProperty
	exitFailure
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error reading .env: %v\n", err)
		os.Exit(exitUsage)
	}

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(exitOK)
		}
		os.Exit(exitUsage)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Error().Err(err).Str("path", opts.ConfigFile).Msg("Failed to load configuration")
		os.Exit(exitUsage)
	}
	applyOptions(cfg, &opts, parser)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		os.Exit(exitUsage)
	}

	if opts.PrintConfig != "" {
		if err := printConfig(cfg, opts.PrintConfig); err != nil {
			log.Error().Err(err).Msg("Failed to print configuration")
			os.Exit(exitFailure)
		}
		os.Exit(exitOK)
	}

	summary, err := processor.Run(cfg)
	if err != nil {
		code := exitCode(err)
		ev := log.Error().Err(err)
		if code == exitInputNotFound {
			ev = ev.Str("hint", fmt.Sprintf("download BC road data and save it as %s", cfg.Input))
		}
		ev.Msg("Merge failed")
		os.Exit(code)
	}

	log.Info().
		Int("input_features", summary.Total).
		Int("merged_segments", summary.Kept).
		Int("output_features", summary.Groups).
		Float64("reduction_pct", summary.Reduction()).
		Dur("duration", summary.Duration).
		Msg("Merge finished successfully")
}

// applyOptions overlays flags and environment values on the loaded config.
func applyOptions(cfg *config.Config, opts *Options, parser *flags.Parser) {
	if opts.Input != "" {
		cfg.Input = opts.Input
	}
	if opts.Output != "" {
		cfg.Output = opts.Output
	}
	if opts.Report != "" {
		cfg.Report = opts.Report
	}
	if opts.Strategy != "" {
		cfg.Group.Strategy = opts.Strategy
	}
	if opts.GroupKey != "" {
		cfg.Group.Key = opts.GroupKey
	}
	if changed(parser, "distance") {
		cfg.Group.Distance = opts.Distance
	}
	if changed(parser, "tolerance") {
		cfg.Merge.SimplifyTolerance = opts.Tolerance
	}
	if opts.Properties != "" {
		cfg.Merge.Properties = opts.Properties
	}
	if opts.MemoryLimit != "" {
		cfg.Memory.Limit = opts.MemoryLimit
	}
	if changed(parser, "precision") {
		cfg.Minify.Precision = opts.Precision
	}
	if opts.NoFilter {
		cfg.Filter = nil
	}
	if opts.Strict {
		cfg.GeometryErrors = config.GeometryFail
	}
	if opts.Minify {
		cfg.Minify.Enabled = true
	}
}

// changed reports whether an option was given on the command line or in
// its environment variable, so explicit zero values still apply.
func changed(parser *flags.Parser, long string) bool {
	opt := parser.FindOptionByLongName(long)
	if opt == nil {
		return false
	}
	if opt.IsSet() {
		return true
	}
	if key := opt.EnvKeyWithNamespace(); key != "" {
		_, ok := os.LookupEnv(key)
		return ok
	}
	return false
}

func printConfig(cfg *config.Config, format string) error {
	var (
		data []byte
		err  error
	)
	if format == "json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Println(string(data))
	return err
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalid):
		return exitUsage
	case errors.Is(err, processor.ErrInputNotFound):
		return exitInputNotFound
	case errors.Is(err, processor.ErrParse):
		return exitParse
	case errors.Is(err, processor.ErrGeometry):
		return exitGeometry
	case errors.Is(err, processor.ErrOutOfMemory):
		return exitOutOfMemory
	case errors.Is(err, processor.ErrMissingProperty):
		return exitMissingProperty
	}
	return exitFailure
}
