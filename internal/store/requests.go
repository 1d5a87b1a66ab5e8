package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trendvane/siftcore/internal/types"
)

// ClaimedRequest is the request row claimed for dispatch, joined with
// the single keyword it targets (the spec's "one keyword per request
// in practice" case of the KeywordsInRequest relation).
type ClaimedRequest struct {
	types.Request
	KID            int64
	QueryOrTopicID string
}

// materializeLag is the third-party service's window before a window
// is considered fully materialized; requests whose window-end is more
// recent than this are not yet claimable.
//
// ClaimNext claims the single highest-priority eligible request:
//   - status = open
//   - not_before < now, not_after > now
//   - window_end < now - materializeLag
//   - not already present in the staging table
//
// Ties break by priority desc, then not_after asc. Claiming is a
// two-step SELECT-then-UPDATE...RETURNING inside one transaction: if
// the UPDATE affects zero rows, another dispatcher won the race and
// the caller should restart its iteration (ErrClaimLost). If the
// SELECT itself finds nothing, ErrNoWork is returned and the caller
// should idle.
func (s *Store) ClaimNext(ctx context.Context, materializeLag time.Duration) (*ClaimedRequest, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var rid int64
	err = tx.QueryRow(ctx, `
		SELECT r.r_id
		FROM requests r
		WHERE r.status = $1
		  AND r.not_before < now()
		  AND r.not_after > now()
		  AND r.window_end < now() - $2::interval
		  AND NOT EXISTS (
		      SELECT 1 FROM raw_fetcher_output rfo WHERE rfo.r_id = r.r_id
		  )
		ORDER BY r.priority DESC, r.not_after ASC
		LIMIT 1
	`, types.StatusOpen, materializeLag).Scan(&rid)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNoWork
	}
	if err != nil {
		return nil, fmt.Errorf("select claimable request: %w", err)
	}

	var claimed ClaimedRequest
	err = tx.QueryRow(ctx, `
		UPDATE requests
		SET status = $1
		WHERE r_id = $2 AND status = $3
		RETURNING r_id, submitter, submitted_at, api_flavor, priority, geo,
		          window_start, window_end, status, not_before, not_after, note
	`, types.StatusRunning, rid, types.StatusOpen).Scan(
		&claimed.RID, &claimed.Submitter, &claimed.SubmittedAt, &claimed.APIFlavor,
		&claimed.Priority, &claimed.Geo, &claimed.WindowStart, &claimed.WindowEnd,
		&claimed.Status, &claimed.NotBefore, &claimed.NotAfter, &claimed.Note,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrClaimLost
	}
	if err != nil {
		return nil, fmt.Errorf("claim request: %w", err)
	}

	err = tx.QueryRow(ctx, `
		SELECT k.k_id, k.query_or_topic_id
		FROM keywords_in_requests kir
		JOIN keywords k ON k.k_id = kir.k_id
		WHERE kir.r_id = $1
		LIMIT 1
	`, claimed.RID).Scan(&claimed.KID, &claimed.QueryOrTopicID)
	if err != nil {
		return nil, fmt.Errorf("load request keyword: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}
	return &claimed, nil
}

// GetRequest loads a request's current row by id, used by startup
// recovery to recover the window and geo needed to re-run ingestion
// for a staged payload.
func (s *Store) GetRequest(ctx context.Context, rid int64) (*types.Request, error) {
	var r types.Request
	err := s.pool.QueryRow(ctx, `
		SELECT r_id, submitter, submitted_at, api_flavor, priority, geo,
		       window_start, window_end, status, not_before, not_after, note
		FROM requests WHERE r_id = $1
	`, rid).Scan(
		&r.RID, &r.Submitter, &r.SubmittedAt, &r.APIFlavor, &r.Priority, &r.Geo,
		&r.WindowStart, &r.WindowEnd, &r.Status, &r.NotBefore, &r.NotAfter, &r.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("get request %d: %w", rid, err)
	}
	return &r, nil
}

// ReleaseRequest reverts a running request back to open. Used by the
// dispatcher on transport failure (§4.4 step 6) and when interning the
// fetcher fails after a fetch.
func (s *Store) ReleaseRequest(ctx context.Context, rid int64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE requests SET status = $1 WHERE r_id = $2 AND status = $3
	`, types.StatusOpen, rid, types.StatusRunning)
	if err != nil {
		return fmt.Errorf("release request %d: %w", rid, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("release request %d: expected 1 row, affected %d", rid, tag.RowsAffected())
	}
	return nil
}
