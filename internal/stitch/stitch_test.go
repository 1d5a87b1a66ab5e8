package stitch

import (
	"testing"
	"time"

	"github.com/trendvane/siftcore/internal/store"
)

func hourly(start string, values ...int) store.Fragment {
	t, err := time.Parse(time.RFC3339, start)
	if err != nil {
		panic(err)
	}
	end := t.Add(time.Duration(len(values)) * time.Hour)
	return store.Fragment{WindowStart: t, WindowEnd: end, Samples: values}
}

func TestAverageDuplicatesAveragesMatchingWindows(t *testing.T) {
	raw := []store.Fragment{
		hourly("2022-01-01T00:00:00Z", 10, 20),
		hourly("2022-01-01T00:00:00Z", 30, 40),
	}
	frags, err := averageDuplicates(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("expected 1 fragment, got %d", len(frags))
	}
	if frags[0].values[0] != 20 || frags[0].values[1] != 30 {
		t.Fatalf("unexpected averaged values: %v", frags[0].values)
	}
}

func TestAverageDuplicatesRejectsMismatchedLengths(t *testing.T) {
	raw := []store.Fragment{
		hourly("2022-01-01T00:00:00Z", 10, 20),
		hourly("2022-01-01T00:00:00Z", 30, 40, 50),
	}
	if _, err := averageDuplicates(raw); err == nil {
		t.Fatal("expected error for mismatched lengths, got nil")
	}
}

func TestStitchOverlappingFragmentsRescales(t *testing.T) {
	// A covers hours 0-2, B covers hours 1-3; overlap at hour 1.
	// A's value at hour 1 is 50, B's value at hour 1 is 25: scale = 2.
	raw := []store.Fragment{
		hourly("2022-01-01T00:00:00Z", 100, 50),
		hourly("2022-01-01T01:00:00Z", 25, 10),
	}
	frags, err := averageDuplicates(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layers := stitchAll(frags, false)
	if len(layers) != 1 {
		t.Fatalf("expected 1 layer (overlap present), got %d", len(layers))
	}
	stitched := layers[0]
	if len(stitched.labels) != 3 {
		t.Fatalf("expected 3 unique labels after union, got %d", len(stitched.labels))
	}
	// hour 2 comes from B, rescaled by 2: 10*2=20.
	idx := map[time.Time]float64{}
	for i, ts := range stitched.labels {
		idx[ts] = stitched.values[i]
	}
	hour2, _ := time.Parse(time.RFC3339, "2022-01-01T02:00:00Z")
	if got := idx[hour2]; got != 20 {
		t.Errorf("rescaled value at hour 2 = %v, want 20", got)
	}
}

func TestStitchSplitsOnZeroOverlap(t *testing.T) {
	raw := []store.Fragment{
		hourly("2022-01-01T00:00:00Z", 10, 20),
		hourly("2022-01-01T03:00:00Z", 30, 40), // no shared timestamps
	}
	frags, err := averageDuplicates(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layers := buildLayers(frags, false)
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers (no overlap), got %d", len(layers))
	}
}

func TestStitchSplitsWhenOverlapHasNoSignal(t *testing.T) {
	raw := []store.Fragment{
		hourly("2022-01-01T00:00:00Z", 0, 0),
		hourly("2022-01-01T01:00:00Z", 0, 10),
	}
	frags, err := averageDuplicates(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	layers := buildLayers(frags, false)
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers (zero-max overlap), got %d", len(layers))
	}
}

func TestAnchorToDailyRescalesHourlyLayer(t *testing.T) {
	day, _ := time.Parse(time.RFC3339, "2022-01-01T00:00:00Z")
	hourlyFrag := fragment{
		labels: []time.Time{day, day.Add(time.Hour)},
		values: []float64{10, 30}, // average 20
	}
	daily := map[time.Time]float64{
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC): 40, // anchor wants average 40, scale 2
	}
	anchored, err := anchorToDaily(hourlyFrag, daily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if anchored.values[0] != 20 || anchored.values[1] != 60 {
		t.Fatalf("unexpected anchored values: %v", anchored.values)
	}
}

func TestAnchorToDailyFailsWhenDailyIsZero(t *testing.T) {
	day, _ := time.Parse(time.RFC3339, "2022-01-01T00:00:00Z")
	hourlyFrag := fragment{
		labels: []time.Time{day},
		values: []float64{10},
	}
	daily := map[time.Time]float64{
		time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC): 0,
	}
	if _, err := anchorToDaily(hourlyFrag, daily); err == nil {
		t.Fatal("expected error when daily anchor has no signal, got nil")
	}
}
