package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trendvane/siftcore/internal/types"
)

// StoreRawPayload durably stages a fetched payload in its own committed
// transaction, independent of the structured write that follows. This
// is the write-ahead log: once this commits, the payload is never lost
// even if parsing or ingestion later fails.
func (s *Store) StoreRawPayload(ctx context.Context, rid, kid, fetcherID int64, rawText string, fetchedAt time.Time) (string, error) {
	id := uuid.New().String()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO raw_fetcher_output (id, raw_text, fetcher_id, r_id, k_id, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, rawText, fetcherID, rid, kid, fetchedAt)
	if err != nil {
		return "", fmt.Errorf("stage raw payload for request %d: %w", rid, err)
	}
	return id, nil
}

// StagingRow is one pending write-ahead-log entry.
type StagingRow struct {
	ID        string
	RawText   string
	FetcherID int64
	RID       int64
	KID       int64
	FetchedAt time.Time
}

// ListStaging returns every pending staging row, used by startup
// recovery (§4.6) to detect and replay crashes between stage and
// ingest.
func (s *Store) ListStaging(ctx context.Context) ([]StagingRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, raw_text, fetcher_id, r_id, k_id, fetched_at FROM raw_fetcher_output
		ORDER BY fetched_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list staging rows: %w", err)
	}
	defer rows.Close()

	var out []StagingRow
	for rows.Next() {
		var r StagingRow
		if err := rows.Scan(&r.ID, &r.RawText, &r.FetcherID, &r.RID, &r.KID, &r.FetchedAt); err != nil {
			return nil, fmt.Errorf("scan staging row: %w", err)
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return nil, types.ErrStagingEmpty
	}
	return out, rows.Err()
}
