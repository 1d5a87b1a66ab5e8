package ingest

import (
	"testing"
	"time"
)

func TestParsePayloadBasic(t *testing.T) {
	raw := []byte(`{
		"time": {
			"2022-01-01T00:00:00Z": 10,
			"2022-01-01T01:00:00Z": 20
		},
		"geo": {
			"country": {"US": ["United States", 55]}
		},
		"related": {
			"query": {"top": [["golang tutorial", 100]]},
			"topic": {"rising": [["/m/0n4x", "Go", "Programming language", 250]]}
		}
	}`)

	p, err := parsePayload(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Samples) != 2 || p.Samples[0] != 10 || p.Samples[1] != 20 {
		t.Fatalf("unexpected samples: %v", p.Samples)
	}
	if !p.Labels[0].Before(p.Labels[1]) {
		t.Fatalf("labels not ordered: %v", p.Labels)
	}
	if len(p.GeoEntries) != 1 || p.GeoEntries[0].Value != 55 {
		t.Fatalf("unexpected geo entries: %v", p.GeoEntries)
	}
	if len(p.Related) != 2 {
		t.Fatalf("expected 2 related entries, got %d", len(p.Related))
	}
}

func TestValidateLabelsSucceedsOnMatchingCadence(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2022-01-01T00:00:00Z")
	end, _ := time.Parse(time.RFC3339, "2022-01-01T02:00:00Z")
	p := &parsed{
		Labels:  []time.Time{start, start.Add(time.Hour)},
		Samples: []int{10, 20},
	}
	if err := validateLabels(start, end, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateLabelsFailsOnMismatch(t *testing.T) {
	start, _ := time.Parse(time.RFC3339, "2022-01-01T00:00:00Z")
	end, _ := time.Parse(time.RFC3339, "2022-01-01T02:00:00Z")
	wrongLabel, _ := time.Parse(time.RFC3339, "2022-01-01T03:00:00Z")
	p := &parsed{
		Labels:  []time.Time{start, wrongLabel},
		Samples: []int{10, 20},
	}
	if err := validateLabels(start, end, p); err == nil {
		t.Fatal("expected error for mismatched label, got nil")
	}
}

func TestResolutionTagHourly(t *testing.T) {
	ts := []time.Time{
		mustParse(t, "2022-01-01T00:00:00Z"),
		mustParse(t, "2022-01-01T01:00:00Z"),
	}
	if got := resolutionTag(ts); got != "resolution:hourly" {
		t.Errorf("got %q", got)
	}
}

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}
