package ingest

import (
	"fmt"
	"time"

	"github.com/trendvane/siftcore/internal/labels"
)

// validateLabels reconstructs the time labels from (windowStart,
// windowEnd, len(samples)) and requires the result to equal the
// payload's own label sequence (Step C). A mismatch is not staged data
// loss — the raw payload remains in the staging table for manual
// repair — so this returns a plain error rather than a fault type.
func validateLabels(windowStart, windowEnd time.Time, p *parsed) error {
	reconstructed, err := labels.Reconstruct(windowStart, windowEnd, len(p.Samples))
	if err != nil {
		return fmt.Errorf("reconstruct labels: %w", err)
	}
	if len(reconstructed) != len(p.Labels) {
		return fmt.Errorf("reconstructed %d labels, payload carries %d", len(reconstructed), len(p.Labels))
	}
	for i := range reconstructed {
		if !reconstructed[i].Equal(p.Labels[i]) {
			return fmt.Errorf("label %d mismatch: reconstructed %v, payload %v", i, reconstructed[i], p.Labels[i])
		}
	}
	return nil
}

// resolutionTag derives the reserved tag the stitching engine consumes,
// from the reconstructed labels' inter-label step (glossary: resolution
// tag).
func resolutionTag(reconstructed []time.Time) string {
	return labels.Resolution(reconstructed)
}
