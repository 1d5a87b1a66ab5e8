package store

import (
	"fmt"
	"time"

	"context"
)

// Fragment is one completed request's contribution to a keyword's
// series: its window and the samples observed inside it. Used by the
// Stitching Engine as the unit it averages, layers, and rescales.
type Fragment struct {
	RID         int64
	WindowStart time.Time
	WindowEnd   time.Time
	Samples     []int
}

// EnumerateResolutionTaggedFragments returns every completed request's
// time-series fragment for kid tagged with the given resolution
// (types.TagResolutionHourly or types.TagResolutionDaily), ordered by
// window start. When locationCode is empty this reads the worldwide
// (country-scope-independent) series from time_series; otherwise it
// reads the single-value-per-window geo breakdown from geo_rows,
// packaging each as a one-sample fragment.
func (s *Store) EnumerateResolutionTaggedFragments(ctx context.Context, kid int64, locationCode, tag string) ([]Fragment, error) {
	if locationCode == "" {
		return s.enumerateSeriesFragments(ctx, kid, tag)
	}
	return s.enumerateGeoFragments(ctx, kid, locationCode, tag)
}

func (s *Store) enumerateSeriesFragments(ctx context.Context, kid int64, tag string) ([]Fragment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.r_id, r.window_start, r.window_end, ts.samples
		FROM time_series ts
		JOIN requests r ON r.r_id = ts.r_id
		JOIN request_tags rt ON rt.r_id = r.r_id
		WHERE ts.k_id = $1 AND rt.tag = $2
		ORDER BY r.window_start ASC
	`, kid, tag)
	if err != nil {
		return nil, fmt.Errorf("enumerate series fragments for keyword %d: %w", kid, err)
	}
	defer rows.Close()

	var out []Fragment
	for rows.Next() {
		var f Fragment
		if err := rows.Scan(&f.RID, &f.WindowStart, &f.WindowEnd, &f.Samples); err != nil {
			return nil, fmt.Errorf("scan series fragment: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (s *Store) enumerateGeoFragments(ctx context.Context, kid int64, locationCode, tag string) ([]Fragment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.r_id, r.window_start, r.window_end, g.value
		FROM geo_rows g
		JOIN requests r ON r.r_id = g.r_id
		JOIN request_tags rt ON rt.r_id = r.r_id
		WHERE g.k_id = $1 AND g.location_code = $2 AND rt.tag = $3
		ORDER BY r.window_start ASC
	`, kid, locationCode, tag)
	if err != nil {
		return nil, fmt.Errorf("enumerate geo fragments for keyword %d location %s: %w", kid, locationCode, err)
	}
	defer rows.Close()

	var out []Fragment
	for rows.Next() {
		var f Fragment
		var value int
		if err := rows.Scan(&f.RID, &f.WindowStart, &f.WindowEnd, &value); err != nil {
			return nil, fmt.Errorf("scan geo fragment: %w", err)
		}
		f.Samples = []int{value}
		out = append(out, f)
	}
	return out, rows.Err()
}
