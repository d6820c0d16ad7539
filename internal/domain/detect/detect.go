// Package detect turns per-window recognition hits into consolidated
// per-track detections.
package detect

import (
	"sort"

	"github.com/forPelevin/clipscan/internal/types"
)

// Hit is one window that matched a track. The end is capped by the caller
// at the source duration, so a clamped final window never spills past the
// stream.
type Hit struct {
	Window types.Window
	Match  types.Match
}

type rawHit struct {
	start float64
	end   float64
}

// Aggregate groups hits by track identity and merges each track's raw hit
// spans into ranges, tolerating up to mergeGap seconds of non-detection
// between two hits of the same track. Results are ordered by the start of
// each track's first merged range; ties keep first-encounter order.
func Aggregate(hits []Hit, sourceDuration, mergeGap float64) []types.Detection {
	type group struct {
		match      types.Match
		timestamps []float64
		raw        []rawHit
	}

	groups := make(map[types.TrackKey]*group)
	var order []types.TrackKey

	for _, h := range hits {
		key := h.Match.Key()
		g, ok := groups[key]
		if !ok {
			// First occurrence wins for display fields; later windows only
			// contribute time ranges.
			g = &group{match: h.Match}
			groups[key] = g
			order = append(order, key)
		}
		end := h.Window.End()
		if end > sourceDuration {
			end = sourceDuration
		}
		g.timestamps = append(g.timestamps, h.Window.Start)
		g.raw = append(g.raw, rawHit{start: h.Window.Start, end: end})
	}

	out := make([]types.Detection, 0, len(order))
	for _, key := range order {
		g := groups[key]
		out = append(out, types.Detection{
			Match:      g.match,
			Timestamps: g.timestamps,
			Ranges:     merge(g.raw, mergeGap),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return firstStart(out[i]) < firstStart(out[j])
	})
	return out
}

// merge consolidates one track's hits into ranges. Hits are sorted by start
// (stable, so equal starts keep encounter order) and folded left to right:
// a hit within mergeGap of the open range extends it, anything further away
// opens a new range. The open range's end never shrinks.
func merge(raw []rawHit, mergeGap float64) []types.Range {
	if len(raw) == 0 {
		return nil
	}

	sorted := make([]rawHit, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].start < sorted[j].start
	})

	out := []types.Range{{Start: sorted[0].start, End: sorted[0].end}}
	for _, h := range sorted[1:] {
		open := &out[len(out)-1]
		if h.start <= open.End+mergeGap {
			if h.end > open.End {
				open.End = h.end
			}
			continue
		}
		out = append(out, types.Range{Start: h.start, End: h.end})
	}
	return out
}

// firstStart orders a detection by its first merged range; a detection with
// no ranges sorts to the front.
func firstStart(d types.Detection) float64 {
	if len(d.Ranges) == 0 {
		return 0
	}
	return d.Ranges[0].Start
}
