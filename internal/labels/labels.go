// Package labels reconstructs the timestamp sequence implicitly assigned
// to each sample in a fetched window. The upstream service never sends
// timestamps for a sample vector — only a window and a count — so the
// labels must be rederived deterministically from the same arithmetic
// the service itself uses.
package labels

import (
	"time"

	"github.com/trendvane/siftcore/internal/types"
)

// resolution is one supported sampling cadence.
type resolution struct {
	name string
	step time.Duration
}

// supportedResolutions lists the only cadences the upstream service is
// known to emit. Ordered finest to coarsest; Reconstruct matches the
// closest one and rejects anything else rather than guess.
var supportedResolutions = []resolution{
	{name: "hourly", step: time.Hour},
	{name: "4hourly", step: 4 * time.Hour},
	{name: "daily", step: 24 * time.Hour},
	{name: "weekly", step: 7 * 24 * time.Hour},
}

// tolerance bounds how far window-end may drift from start plus
// sampleCount canonical steps before reconstruction is rejected as
// unreliable.
const tolerance = 2 * time.Minute

// Reconstruct deterministically produces the ordered sequence of
// timestamps implied by (start, end, sampleCount). It is pure and safe
// to call repeatedly with the same inputs, including across process
// restarts.
func Reconstruct(start, end time.Time, sampleCount int) ([]time.Time, error) {
	if sampleCount == 0 {
		return nil, nil
	}
	if !end.After(start) {
		return nil, &types.UnreconstructibleLabels{
			WindowStart: start.Format(time.RFC3339),
			WindowEnd:   end.Format(time.RFC3339),
			SampleCount: sampleCount,
			Reason:      "window end does not follow window start",
		}
	}

	span := end.Sub(start)
	observed := span / time.Duration(sampleCount)

	res, ok := closestResolution(observed)
	if !ok {
		return nil, &types.UnreconstructibleLabels{
			WindowStart: start.Format(time.RFC3339),
			WindowEnd:   end.Format(time.RFC3339),
			SampleCount: sampleCount,
			Reason:      "observed cadence matches no supported resolution",
		}
	}

	labels := make([]time.Time, sampleCount)
	for i := 0; i < sampleCount; i++ {
		labels[i] = start.Add(time.Duration(i) * res.step)
	}

	// The window is [start, end) at the canonical step: end should equal
	// start plus sampleCount steps. Compare against the whole span
	// rather than the last label directly, since the last label itself
	// sits one step before end by construction.
	expectedSpan := time.Duration(sampleCount) * res.step
	if diff := span - expectedSpan; diff > tolerance || diff < -tolerance {
		return nil, &types.UnreconstructibleLabels{
			WindowStart: start.Format(time.RFC3339),
			WindowEnd:   end.Format(time.RFC3339),
			SampleCount: sampleCount,
			Reason:      "reconstructed span disagrees with window bounds beyond tolerance",
		}
	}

	return labels, nil
}

// closestResolution returns the supported resolution whose step is
// closest to observed, accepting only a match within a 10% band — wide
// enough to absorb integer-division rounding, narrow enough to reject
// an ambiguous cadence (the spec explicitly forbids guessing between,
// say, 4-hour and 3-hour).
func closestResolution(observed time.Duration) (resolution, bool) {
	var best resolution
	var bestDiff time.Duration = -1
	for _, r := range supportedResolutions {
		diff := observed - r.step
		if diff < 0 {
			diff = -diff
		}
		if bestDiff == -1 || diff < bestDiff {
			best = r
			bestDiff = diff
		}
	}
	band := best.step / 10
	if bestDiff > band {
		return resolution{}, false
	}
	return best, true
}

// Resolution reports which reserved tag (types.TagResolutionHourly or
// types.TagResolutionDaily) a set of reconstructed labels corresponds
// to, based on the inter-label step. Returns "" if the step matches
// neither reserved tag (4-hourly and weekly fragments are untagged).
func Resolution(ts []time.Time) string {
	if len(ts) < 2 {
		return ""
	}
	step := ts[1].Sub(ts[0])
	switch {
	case step == time.Hour:
		return types.TagResolutionHourly
	case step == 24*time.Hour:
		return types.TagResolutionDaily
	default:
		return ""
	}
}
