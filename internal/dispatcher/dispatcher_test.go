package dispatcher

import "testing"

func TestStatsSnapshot(t *testing.T) {
	s := &Stats{}
	s.Dispatched.Add(3)
	s.IngestOK.Add(2)
	s.IngestFailed.Add(1)
	s.IdleCycles.Add(5)
	s.RateLimitHits.Add(1)

	snap := s.Snapshot()
	want := map[string]int64{
		"dispatched":      3,
		"ingest_ok":       2,
		"ingest_failed":   1,
		"idle_cycles":     5,
		"rate_limit_hits": 1,
	}
	for k, v := range want {
		if snap[k] != v {
			t.Errorf("snapshot[%q] = %d, want %d", k, snap[k], v)
		}
	}
}
