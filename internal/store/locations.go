package store

import (
	"context"
	"fmt"
)

// ListLocationsForKeyword returns every distinct geo location code for
// which kid has at least one geo_rows entry, used by the stitching CLI
// to discover which (keyword, location) series exist in addition to
// the always-present worldwide series.
func (s *Store) ListLocationsForKeyword(ctx context.Context, kid int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT location_code FROM geo_rows WHERE k_id = $1 ORDER BY location_code
	`, kid)
	if err != nil {
		return nil, fmt.Errorf("list locations for keyword %d: %w", kid, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan location code: %w", err)
		}
		out = append(out, code)
	}
	return out, rows.Err()
}
