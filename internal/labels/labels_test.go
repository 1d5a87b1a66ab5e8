package labels

import (
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

func TestReconstructHourly(t *testing.T) {
	start := mustParse(t, "2022-01-01T00:00:00Z")
	end := mustParse(t, "2022-01-01T12:00:00Z")

	got, err := Reconstruct(start, end, 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("expected 12 labels, got %d", len(got))
	}
	if !got[0].Equal(start) {
		t.Errorf("first label = %v, want %v", got[0], start)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Sub(got[i-1]) != time.Hour {
			t.Fatalf("label %d step = %v, want 1h", i, got[i].Sub(got[i-1]))
		}
		if !got[i].After(got[i-1]) {
			t.Fatalf("labels not monotonically increasing at index %d", i)
		}
	}
}

func TestReconstructDaily(t *testing.T) {
	start := mustParse(t, "2022-01-01T00:00:00Z")
	end := mustParse(t, "2022-01-08T00:00:00Z")

	got, err := Reconstruct(start, end, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 7 {
		t.Fatalf("expected 7 labels, got %d", len(got))
	}
	if got[6].Sub(got[0]) != 6*24*time.Hour {
		t.Errorf("span = %v, want 6 days", got[6].Sub(got[0]))
	}
}

func TestReconstructZeroSamples(t *testing.T) {
	start := mustParse(t, "2022-01-01T00:00:00Z")
	end := mustParse(t, "2022-01-02T00:00:00Z")

	got, err := Reconstruct(start, end, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestReconstructAmbiguousCadenceRejected(t *testing.T) {
	// 3-hour cadence: ambiguous between 4-hourly and hourly, must reject.
	start := mustParse(t, "2022-01-01T00:00:00Z")
	end := mustParse(t, "2022-01-01T09:00:00Z")

	_, err := Reconstruct(start, end, 3)
	if err == nil {
		t.Fatal("expected error for ambiguous 3-hour cadence, got nil")
	}
}

func TestReconstructWindowEndBeforeStart(t *testing.T) {
	start := mustParse(t, "2022-01-02T00:00:00Z")
	end := mustParse(t, "2022-01-01T00:00:00Z")

	_, err := Reconstruct(start, end, 5)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestResolutionTag(t *testing.T) {
	hourly := []time.Time{
		mustParse(t, "2022-01-01T00:00:00Z"),
		mustParse(t, "2022-01-01T01:00:00Z"),
	}
	if got := Resolution(hourly); got != "resolution:hourly" {
		t.Errorf("got %q, want resolution:hourly", got)
	}

	daily := []time.Time{
		mustParse(t, "2022-01-01T00:00:00Z"),
		mustParse(t, "2022-01-02T00:00:00Z"),
	}
	if got := Resolution(daily); got != "resolution:daily" {
		t.Errorf("got %q, want resolution:daily", got)
	}

	if got := Resolution(nil); got != "" {
		t.Errorf("got %q, want empty for nil input", got)
	}
}
