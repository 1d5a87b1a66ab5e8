// Package stitch reassembles overlapping, variably-scaled time-series
// fragments pulled from completed requests into one coherent series per
// (keyword, optional location), and persists the result to a
// standalone analytics database.
package stitch

import (
	"time"

	"github.com/trendvane/siftcore/internal/labels"
	"github.com/trendvane/siftcore/internal/store"
)

// fragment is one reconstructed (labels, values) pair, the unit Phase 2
// layers and Phase 2a stitches.
type fragment struct {
	rid    int64
	start  time.Time
	end    time.Time
	labels []time.Time
	values []float64
}

// buildFragment reconstructs labels for a store.Fragment and converts
// its integer samples to float64, the currency the rescaling math
// works in. A fragment whose labels cannot be reconstructed (the
// single-sample geo case, or an ambiguous cadence) is still usable:
// Phase 2's "no labels" rule only applies when reconstruction fails
// entirely, which buildFragment reports via a nil labels slice rather
// than an error, since a single unlabeled fragment should split rather
// than abort the whole run.
func buildFragment(f store.Fragment) fragment {
	values := make([]float64, len(f.Samples))
	for i, v := range f.Samples {
		values[i] = float64(v)
	}

	if len(f.Samples) == 1 {
		// A geo-scoped fragment: one sample per completed request,
		// timestamped at the window start rather than reconstructed,
		// since a single point carries no cadence to reconstruct.
		return fragment{rid: f.RID, start: f.WindowStart, end: f.WindowEnd, labels: []time.Time{f.WindowStart}, values: values}
	}

	ts, err := labels.Reconstruct(f.WindowStart, f.WindowEnd, len(f.Samples))
	if err != nil {
		return fragment{rid: f.RID, start: f.WindowStart, end: f.WindowEnd, labels: nil, values: values}
	}
	return fragment{rid: f.RID, start: f.WindowStart, end: f.WindowEnd, labels: ts, values: values}
}

// averageDuplicates implements Phase 1: group fragments with an
// identical (start, end) window, element-wise average their values
// (requiring matching length within a group), and emit one fragment
// per group, ordered by start.
func averageDuplicates(raw []store.Fragment) ([]fragment, error) {
	type key struct {
		start, end time.Time
	}
	groups := make(map[key][]store.Fragment)
	var order []key
	for _, f := range raw {
		k := key{f.WindowStart, f.WindowEnd}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], f)
	}

	out := make([]fragment, 0, len(order))
	for _, k := range order {
		members := groups[k]
		n := len(members[0].Samples)
		for _, m := range members[1:] {
			if len(m.Samples) != n {
				return nil, &mismatchedLengthError{start: k.start, end: k.end}
			}
		}
		sums := make([]int, n)
		for _, m := range members {
			for i, v := range m.Samples {
				sums[i] += v
			}
		}
		frag := buildFragment(store.Fragment{
			RID: members[0].RID, WindowStart: k.start, WindowEnd: k.end, Samples: sums,
		})
		for i := range frag.values {
			frag.values[i] /= float64(len(members))
		}
		out = append(out, frag)
	}
	return out, nil
}

type mismatchedLengthError struct {
	start, end time.Time
}

func (e *mismatchedLengthError) Error() string {
	return "duplicate fragments for window [" + e.start.String() + ", " + e.end.String() + "] have mismatched sample vector lengths"
}
