package processor

import (
	"fmt"
	"runtime/debug"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
)

// compressedExpansion is the assumed text-to-compressed ratio of GeoJSON.
const compressedExpansion = 8

// MemoryBudget decides whether an input of a given size can be held in memory.
type MemoryBudget struct {
	Factor float64 // resident bytes per decoded input byte
	Limit  uint64  // 0 probes available RAM

	available func() (uint64, bool)
}

// Estimate returns the expected working set for an input of size bytes.
func (b MemoryBudget) Estimate(size int64, c Compression) uint64 {
	factor := b.Factor
	if factor <= 0 {
		factor = 3
	}
	decoded := float64(size)
	if c != CompressionNone {
		decoded *= compressedExpansion
	}
	return uint64(decoded * factor)
}

// Check fails with ErrOutOfMemory when the estimate does not fit. When a
// limit is configured it is also handed to the runtime as a soft limit.
func (b MemoryBudget) Check(path string, size int64, c Compression) error {
	need := b.Estimate(size, c)

	limit := b.Limit
	source := "configured limit"
	if limit == 0 {
		probe := b.available
		if probe == nil {
			probe = availableMemory
		}
		avail, ok := probe()
		if !ok {
			log.Debug().Msg("Available memory unknown, skipping memory check")
			return nil
		}
		limit = avail
		source = "physical memory"
	}

	log.Debug().
		Str("input", path).
		Str("input_size", humanize.IBytes(uint64(size))).
		Str("estimate", humanize.IBytes(need)).
		Str("budget", humanize.IBytes(limit)).
		Str("budget_source", source).
		Msg("Memory check")

	if need > limit {
		return fmt.Errorf("%w: %s (%s) needs about %s but the %s is %s; "+
			"shrink the area of interest before downloading, or raise memory.limit",
			ErrOutOfMemory, path, humanize.IBytes(uint64(size)),
			humanize.IBytes(need), source, humanize.IBytes(limit))
	}

	if b.Limit > 0 {
		debug.SetMemoryLimit(int64(b.Limit))
	}

	return nil
}
