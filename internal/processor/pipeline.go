package processor

import (
	"os"
	"time"

	"github.com/woozymasta/fsrmerge/internal/config"
	"github.com/woozymasta/fsrmerge/internal/geo"

	"github.com/rs/zerolog/log"
)

// Summary describes a finished run.
type Summary struct {
	Input      string
	Output     string
	CRS        string
	Strategy   Strategy
	Properties string
	Tolerance  float64

	Total    int // features in the input
	Rejected int // features with unusable geometry
	Filtered int // features dropped by the filter rules
	Kept     int // features that went into grouping
	Groups   int // features written

	Duration time.Duration
}

// AverageSegments returns the mean number of input features per output feature.
func (s *Summary) AverageSegments() float64 {
	if s.Groups == 0 {
		return 0
	}
	return float64(s.Kept) / float64(s.Groups)
}

// Reduction returns the percentage of features removed by merging.
func (s *Summary) Reduction() float64 {
	if s.Kept == 0 {
		return 0
	}
	return float64(s.Kept-s.Groups) / float64(s.Kept) * 100
}

// Run executes load, filter, group, merge and write in sequence.
func Run(cfg *config.Config) (*Summary, error) {
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strategy, err := StrategyFromConfig(cfg.Group)
	if err != nil {
		return nil, err
	}
	limit, err := cfg.MemoryLimit()
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("input", cfg.Input).
		Str("output", cfg.Output).
		Str("strategy", strategy.Kind.String()).
		Str("group_key", strategy.Key).
		Float64("group_distance", strategy.Distance).
		Float64("simplify_tolerance", cfg.Merge.SimplifyTolerance).
		Str("properties", cfg.Merge.Properties).
		Str("geometry_errors", cfg.GeometryErrors).
		Msg("Starting merge")

	loaded, err := Load(LoadOptions{
		Path:           cfg.Input,
		GeometryErrors: cfg.GeometryErrors,
		Budget:         MemoryBudget{Factor: cfg.Memory.Factor, Limit: limit},
	})
	if err != nil {
		return nil, err
	}
	coll := loaded.Collection

	summary := &Summary{
		Input:      cfg.Input,
		Output:     cfg.Output,
		CRS:        geo.CRSName(coll.CRS),
		Strategy:   strategy,
		Properties: cfg.Merge.Properties,
		Tolerance:  cfg.Merge.SimplifyTolerance,
		Total:      loaded.Total,
		Rejected:   len(loaded.Rejected),
	}

	log.Info().
		Int("features", loaded.Total).
		Int("rejected", summary.Rejected).
		Str("crs", summary.CRS).
		Msg("Loaded road segments")

	if err := CheckProperties(coll.Features, cfg.Properties()); err != nil {
		return nil, err
	}

	kept, filtered := Filter(coll.Features, cfg.Filter)
	summary.Filtered = filtered
	summary.Kept = len(kept)
	if len(cfg.Filter) > 0 {
		log.Info().
			Int("kept", len(kept)).
			Int("filtered", filtered).
			Msg("Filtered road segments")
	}
	if len(kept) == 0 && len(coll.Features) > 0 {
		log.Warn().Msg("No features left after filtering, writing an empty collection")
	}

	groups := GroupFeatures(kept, strategy)
	summary.Groups = len(groups)

	merged := MergeGroups(groups, MergeOptions{
		Properties: cfg.Merge.Properties,
		Key:        strategy.Key,
		Title:      cfg.Merge.Title,
		Tolerance:  cfg.Merge.SimplifyTolerance,
		Geographic: geo.IsGeographic(coll.CRS),
	})

	log.Info().
		Int("segments", summary.Kept).
		Int("groups", summary.Groups).
		Float64("reduction_pct", summary.Reduction()).
		Float64("average_segments", summary.AverageSegments()).
		Msg("Merged road segments")

	for _, gc := range TopGroups(groups, 10) {
		log.Info().Str("group", gc.Label).Int("segments", gc.Segments).Msg("Top group")
	}

	summary.Duration = time.Since(start)

	// report before output: a failed output write removes it again
	if cfg.Report != "" {
		if err := WriteReport(cfg.Report, Report{
			Summary:  summary,
			Groups:   groups,
			Rejected: loaded.Rejected,
		}); err != nil {
			return nil, err
		}
	}

	if err := Write(coll, merged, WriteOptions{
		Path:      cfg.Output,
		Minify:    cfg.Minify.Enabled,
		Precision: cfg.Minify.Precision,
	}); err != nil {
		if cfg.Report != "" {
			if rmErr := os.Remove(cfg.Report); rmErr != nil {
				log.Error().Err(rmErr).Str("path", cfg.Report).Msg("Failed to remove report")
			}
		}
		return nil, err
	}

	log.Info().Str("path", cfg.Output).Int("features", len(merged)).Msg("Saved merged roads")
	if cfg.Report != "" {
		log.Info().Str("path", cfg.Report).Msg("Saved analysis report")
	}

	return summary, nil
}
