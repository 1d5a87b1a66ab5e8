package store

import (
	"context"
	"fmt"
	"time"

	"github.com/trendvane/siftcore/internal/types"
)

// GeoEntry is one parsed per-location value awaiting interning and
// write, keyed by scope.
type GeoEntry struct {
	Scope        string
	LocationCode string
	LocationName string
	Value        int
}

// RelatedEntry is one parsed recommended-keyword row. Kind is "query"
// or "topic"; only the fields for that kind are populated.
type RelatedEntry struct {
	Kind      string
	IsTop     bool
	Value     float64
	Query     string
	MID       string
	Title     string
	TopicName string
}

// IngestInput bundles everything Step D of the ingestion pipeline needs
// to write in one transaction.
type IngestInput struct {
	StagingID   string
	RID         int64
	KID         int64
	FetcherID   int64
	Geo         string
	Samples     []int
	GeoEntries  []GeoEntry
	Related     []RelatedEntry
	CompletedAt time.Time
}

// IngestStructuredPayload writes Step D's four record kinds and drops
// the staging row (Step E) in one transaction. Scope "region" is
// suppressed when in.Geo == "US" per the upstream service's known
// region/states duplication. Returns *types.IngestionFault if the
// terminal request update does not affect exactly one row — that can
// only happen from a logic bug, since the request is guaranteed
// `running` by the control loop that invoked the transport.
func (s *Store) IngestStructuredPayload(ctx context.Context, in IngestInput) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin ingest tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `
		INSERT INTO time_series (r_id, k_id, samples) VALUES ($1, $2, $3)
	`, in.RID, in.KID, in.Samples); err != nil {
		return &types.IngestionFault{Stage: "write time series", Err: err}
	}

	for _, g := range in.GeoEntries {
		if suppressGeoRow(g.Scope, in.Geo) {
			continue
		}
		if err := InternLocation(ctx, tx, g.LocationCode, g.LocationName); err != nil {
			return &types.IngestionFault{Stage: "intern location", Err: err}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO geo_rows (r_id, location_code, k_id, scope, value)
			VALUES ($1, $2, $3, $4, $5)
		`, in.RID, g.LocationCode, in.KID, g.Scope, g.Value); err != nil {
			return &types.IngestionFault{Stage: "write geo row", Err: err}
		}
	}

	for _, rk := range in.Related {
		var recommendedID int64
		var err error
		switch rk.Kind {
		case "query":
			recommendedID, err = InternQueryKeyword(ctx, tx, rk.Query)
		case "topic":
			recommendedID, err = InternTopicKeyword(ctx, tx, rk.MID, rk.Title, rk.TopicName)
		default:
			return &types.IngestionFault{Stage: "write related keyword", Err: fmt.Errorf("unknown related-keyword kind %q", rk.Kind)}
		}
		if err != nil {
			return &types.IngestionFault{Stage: "intern related keyword", Err: err}
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO related_keywords (r_id, source_keyword_id, recommended_keyword_id, is_top, value)
			VALUES ($1, $2, $3, $4, $5)
		`, in.RID, in.KID, recommendedID, rk.IsTop, rk.Value); err != nil {
			return &types.IngestionFault{Stage: "write related keyword", Err: err}
		}
	}

	tag, err := tx.Exec(ctx, `
		UPDATE requests
		SET status = $1, completed_at = $2, fetcher_id = $3
		WHERE r_id = $4 AND status = $5
	`, types.StatusDone, in.CompletedAt, in.FetcherID, in.RID, types.StatusRunning)
	if err != nil {
		return &types.IngestionFault{Stage: "mark request done", Err: err}
	}
	if tag.RowsAffected() != 1 {
		return &types.IngestionFault{Stage: "mark request done", Err: fmt.Errorf("expected 1 row, affected %d", tag.RowsAffected())}
	}

	if in.StagingID != "" {
		tag, err = tx.Exec(ctx, `DELETE FROM raw_fetcher_output WHERE id = $1`, in.StagingID)
		if err != nil {
			return &types.IngestionFault{Stage: "drop staging row", Err: err}
		}
		if tag.RowsAffected() != 1 {
			return &types.IngestionFault{Stage: "drop staging row", Err: fmt.Errorf("expected 1 row, affected %d", tag.RowsAffected())}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit ingest tx: %w", err)
	}
	return nil
}

// suppressGeoRow reports whether a geo row should be dropped: the
// upstream service returns identical data for "region" and "states"
// scopes when geo is US, which would otherwise violate the
// (request, location, keyword) uniqueness constraint.
func suppressGeoRow(scope, geo string) bool {
	return scope == types.ScopeRegion && geo == "US"
}

// TagRequest adds a free-form label to a request, insert-or-ignore.
func (s *Store) TagRequest(ctx context.Context, rid int64, tag string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO request_tags (r_id, tag) VALUES ($1, $2)
		ON CONFLICT (r_id, tag) DO NOTHING
	`, rid, tag)
	if err != nil {
		return fmt.Errorf("tag request %d with %q: %w", rid, tag, err)
	}
	return nil
}
