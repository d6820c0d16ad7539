package windows

import (
	"fmt"

	"github.com/forPelevin/clipscan/internal/types"
)

// Config holds the analysis window parameters. Values are seconds.
type Config struct {
	ChunkDuration float64 `koanf:"chunk_duration"`
	Overlap       float64 `koanf:"overlap"`

	// MergeGap is the maximum distance between two hits of the same track
	// before they are reported as separate occurrences. Because windows
	// overlap, consecutive hits always merge; the gap only matters for
	// non-adjacent re-detections, so a merged range does not guarantee
	// continuous music coverage.
	MergeGap float64 `koanf:"merge_gap"`
}

// DefaultConfig returns the scanning defaults: 12s windows advancing 8s at a
// time, with 30s of tolerated silence between same-track hits.
func DefaultConfig() Config {
	return Config{
		ChunkDuration: 12,
		Overlap:       4,
		MergeGap:      30,
	}
}

func (c Config) Validate() error {
	if c.ChunkDuration <= 0 {
		return fmt.Errorf("chunk duration must be > 0, got %v", c.ChunkDuration)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap must be >= 0, got %v", c.Overlap)
	}
	if c.ChunkDuration <= c.Overlap {
		return fmt.Errorf("chunk duration (%v) must exceed overlap (%v)", c.ChunkDuration, c.Overlap)
	}
	if c.MergeGap < 0 {
		return fmt.Errorf("merge gap must be >= 0, got %v", c.MergeGap)
	}
	return nil
}

// Plan produces the ordered window sequence covering [0, totalDuration).
// The last window is clamped to the total duration and may be shorter than
// the configured chunk. Plan is a pure function of its inputs.
func Plan(totalDuration float64, cfg Config) ([]types.Window, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid window config: %w", err)
	}

	stride := cfg.ChunkDuration - cfg.Overlap
	var out []types.Window
	for t := 0.0; t < totalDuration; t += stride {
		end := t + cfg.ChunkDuration
		if end > totalDuration {
			end = totalDuration
		}
		out = append(out, types.Window{Start: t, Length: end - t})
	}
	return out, nil
}
