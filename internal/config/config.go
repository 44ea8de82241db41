// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Grouping strategies.
const (
	StrategyAttribute = "attribute"
	StrategyAdjacency = "adjacency"
	StrategyBoth      = "both"
)

// Property reduction policies.
const (
	PropertiesCommon = "common"
	PropertiesFirst  = "first"
)

// Geometry error policies.
const (
	GeometryReject = "reject"
	GeometryFail   = "fail"
)

// ErrInvalid is returned by Validate for any rejected setting.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the root configuration file structure.
type Config struct {
	Input          string       `yaml:"input" json:"input"`
	Output         string       `yaml:"output" json:"output"`
	Report         string       `yaml:"report,omitempty" json:"report,omitempty"`
	GeometryErrors string       `yaml:"geometry_errors" json:"geometry_errors"`
	Filter         []FilterRule `yaml:"filter,omitempty" json:"filter,omitempty"`
	Group          Group        `yaml:"group" json:"group"`
	Merge          Merge        `yaml:"merge" json:"merge"`
	Minify         Minify       `yaml:"minify" json:"minify"`
	Memory         Memory       `yaml:"memory" json:"memory"`
}

// FilterRule keeps features whose property matches. Equals compares the
// string value exactly, Contains matches a case-insensitive substring.
type FilterRule struct {
	Property string `yaml:"property" json:"property"`
	Equals   string `yaml:"equals,omitempty" json:"equals,omitempty"`
	Contains string `yaml:"contains,omitempty" json:"contains,omitempty"`
}

// Group selects how features are partitioned before merging.
type Group struct {
	Strategy string  `yaml:"strategy" json:"strategy"`
	Key      string  `yaml:"key,omitempty" json:"key,omitempty"`
	Distance float64 `yaml:"distance,omitempty" json:"distance,omitempty"` // CRS units
}

// Merge controls geometry simplification and property reduction.
type Merge struct {
	Properties        string  `yaml:"properties" json:"properties"`
	Title             string  `yaml:"title,omitempty" json:"title,omitempty"`
	SimplifyTolerance float64 `yaml:"simplify_tolerance" json:"simplify_tolerance"`
}

// Minify enables compact output with reduced number precision.
type Minify struct {
	Enabled   bool `yaml:"enabled" json:"enabled"`
	Precision int  `yaml:"precision,omitempty" json:"precision,omitempty"` // significant digits, 0 keeps all
}

// Memory bounds the in-memory working set.
type Memory struct {
	Limit  string  `yaml:"limit,omitempty" json:"limit,omitempty"` // e.g. "4GiB", empty probes available RAM
	Factor float64 `yaml:"factor,omitempty" json:"factor,omitempty"`
}

// Default returns the configuration that merges BC Forest Service Roads by name.
func Default() Config {
	return Config{
		Input:          "bc_roads.geojson",
		Output:         "bc_fsrs_merged.geojson",
		GeometryErrors: GeometryReject,
		Filter: []FilterRule{
			{Property: "ROAD_CLASS", Equals: "resource"},
			{Property: "ROAD_NAME_FULL", Contains: "FSR"},
		},
		Group: Group{
			Strategy: StrategyAttribute,
			Key:      "ROAD_NAME_FULL",
		},
		Merge: Merge{
			Properties: PropertiesCommon,
			Title:      "title",
		},
		Memory: Memory{
			Factor: 3,
		},
	}
}

// Load reads and parses the YAML configuration file from the specified path
// on top of the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks the configuration for unusable combinations.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("%w: input path is empty", ErrInvalid)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output path is empty", ErrInvalid)
	}
	if samePath(c.Input, c.Output) {
		return fmt.Errorf("%w: output %q would overwrite the input", ErrInvalid, c.Output)
	}
	if c.Report != "" && (samePath(c.Report, c.Input) || samePath(c.Report, c.Output)) {
		return fmt.Errorf("%w: report %q collides with input or output", ErrInvalid, c.Report)
	}

	switch c.GeometryErrors {
	case GeometryReject, GeometryFail:
	default:
		return fmt.Errorf("%w: geometry_errors must be %q or %q, got %q", ErrInvalid, GeometryReject, GeometryFail, c.GeometryErrors)
	}

	for i, r := range c.Filter {
		if r.Property == "" {
			return fmt.Errorf("%w: filter rule %d has no property", ErrInvalid, i)
		}
		if (r.Equals == "") == (r.Contains == "") {
			return fmt.Errorf("%w: filter rule %d must set exactly one of equals or contains", ErrInvalid, i)
		}
	}

	switch c.Group.Strategy {
	case StrategyAttribute:
		if c.Group.Key == "" {
			return fmt.Errorf("%w: strategy %q needs a group key", ErrInvalid, c.Group.Strategy)
		}
	case StrategyBoth:
		if c.Group.Key == "" {
			return fmt.Errorf("%w: strategy %q needs a group key", ErrInvalid, c.Group.Strategy)
		}
		fallthrough
	case StrategyAdjacency:
		if c.Group.Distance < 0 {
			return fmt.Errorf("%w: group distance must be >= 0", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown group strategy %q", ErrInvalid, c.Group.Strategy)
	}

	switch c.Merge.Properties {
	case PropertiesCommon, PropertiesFirst:
	default:
		return fmt.Errorf("%w: merge properties must be %q or %q, got %q", ErrInvalid, PropertiesCommon, PropertiesFirst, c.Merge.Properties)
	}
	if c.Merge.SimplifyTolerance < 0 {
		return fmt.Errorf("%w: simplify_tolerance must be >= 0", ErrInvalid)
	}

	if c.Minify.Precision < 0 {
		return fmt.Errorf("%w: minify precision must be >= 0", ErrInvalid)
	}

	if c.Memory.Factor < 0 {
		return fmt.Errorf("%w: memory factor must be >= 0", ErrInvalid)
	}
	if _, err := c.MemoryLimit(); err != nil {
		return fmt.Errorf("%w: memory limit: %v", ErrInvalid, err)
	}

	return nil
}

// MemoryLimit returns the configured limit in bytes, 0 when unset.
func (c *Config) MemoryLimit() (uint64, error) {
	if c.Memory.Limit == "" {
		return 0, nil
	}
	return humanize.ParseBytes(c.Memory.Limit)
}

// Properties returns the property names the filter and grouping depend on.
func (c *Config) Properties() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, r := range c.Filter {
		add(r.Property)
	}
	if c.Group.Strategy != StrategyAdjacency {
		add(c.Group.Key)
	}

	return out
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
