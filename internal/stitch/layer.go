package stitch

import "time"

// buildLayers implements Phase 2: scan fragments left to right,
// splitting into a new layer whenever a fragment has no labels, has no
// label overlap with the previous fragment in the current layer, or
// the overlap carries no anchoring signal (max value zero on either
// side). When ignoreNoOverlap is true (Phase 3's fallback and the
// no-daily-anchor degraded mode) the overlap-based split rules are
// disabled and only the no-labels rule still applies.
func buildLayers(frags []fragment, ignoreNoOverlap bool) [][]fragment {
	var layers [][]fragment
	var current []fragment

	for _, f := range frags {
		split := false
		switch {
		case len(f.labels) == 0:
			split = true
		case len(current) == 0:
			split = false
		case !ignoreNoOverlap:
			prev := current[len(current)-1]
			overlap := overlapLabels(prev, f)
			if len(overlap) == 0 {
				split = true
			} else if maxOnOverlap(prev, overlap) == 0 || maxOnOverlap(f, overlap) == 0 {
				split = true
			}
		}

		if split && len(current) > 0 {
			layers = append(layers, current)
			current = nil
		}
		current = append(current, f)
	}
	if len(current) > 0 {
		layers = append(layers, current)
	}
	return layers
}

// overlapLabels returns the timestamps common to both fragments.
func overlapLabels(a, b fragment) []time.Time {
	seen := make(map[time.Time]bool, len(a.labels))
	for _, t := range a.labels {
		seen[t] = true
	}
	var out []time.Time
	for _, t := range b.labels {
		if seen[t] {
			out = append(out, t)
		}
	}
	return out
}

// maxOnOverlap returns the maximum value f takes at the given
// timestamps.
func maxOnOverlap(f fragment, overlap []time.Time) float64 {
	index := make(map[time.Time]float64, len(f.labels))
	for i, t := range f.labels {
		index[t] = f.values[i]
	}
	var max float64
	for _, t := range overlap {
		if v, ok := index[t]; ok && v > max {
			max = v
		}
	}
	return max
}
