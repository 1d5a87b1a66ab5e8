package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/trendvane/siftcore/internal/types"
)

// TestClaimAndIngestRoundtrip exercises the full claim -> stage ->
// ingest -> drop-staging lifecycle against a real Postgres instance.
// Requires SIFTCORE_TEST_DSN; skipped otherwise and under -short.
func TestClaimAndIngestRoundtrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping store integration test")
	}
	dsn := os.Getenv("SIFTCORE_TEST_DSN")
	if dsn == "" {
		t.Skip("SIFTCORE_TEST_DSN not set")
	}

	ctx := context.Background()
	s, err := Open(ctx, dsn, 5, 1)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	fid, err := InternFetcher(ctx, s.pool, "test-fetcher", "localhost", "web")
	if err != nil {
		t.Fatalf("intern fetcher: %v", err)
	}
	kid, err := InternQueryKeyword(ctx, s.pool, "golang")
	if err != nil {
		t.Fatalf("intern keyword: %v", err)
	}

	start := time.Now().Add(-48 * time.Hour)
	end := start.Add(12 * time.Hour)
	var rid int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO requests (submitter, api_flavor, priority, window_start, window_end)
		VALUES ('test', 'web', 0, $1, $2) RETURNING r_id
	`, start, end).Scan(&rid)
	if err != nil {
		t.Fatalf("insert request: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `INSERT INTO keywords_in_requests (r_id, k_id) VALUES ($1, $2)`, rid, kid); err != nil {
		t.Fatalf("link keyword: %v", err)
	}

	claimed, err := s.ClaimNext(ctx, 10*time.Minute)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.RID != rid {
		t.Fatalf("claimed wrong request: got %d, want %d", claimed.RID, rid)
	}

	stagingID, err := s.StoreRawPayload(ctx, rid, kid, fid, `{"time":{}}`, time.Now())
	if err != nil {
		t.Fatalf("stage: %v", err)
	}

	err = s.IngestStructuredPayload(ctx, IngestInput{
		StagingID:   stagingID,
		RID:         rid,
		KID:         kid,
		FetcherID:   fid,
		Geo:         "",
		Samples:     []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120},
		CompletedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	var status string
	if err := s.pool.QueryRow(ctx, `SELECT status FROM requests WHERE r_id = $1`, rid).Scan(&status); err != nil {
		t.Fatalf("read status: %v", err)
	}
	if status != types.StatusDone {
		t.Errorf("status = %q, want %q", status, types.StatusDone)
	}

	rows, err := s.ListStaging(ctx)
	if err == nil && len(rows) > 0 {
		for _, r := range rows {
			if r.ID == stagingID {
				t.Errorf("staging row %s still present after ingest", stagingID)
			}
		}
	}
}
