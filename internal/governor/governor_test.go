package governor

import (
	"testing"
	"time"
)

func TestWaitFirstCallNoSleep(t *testing.T) {
	base := time.Now()
	g := NewWithClock(func() time.Time { return base })

	got := g.Wait(time.Time{}, 21*time.Second)
	if !got.Equal(base) {
		t.Errorf("expected first call to return immediately with %v, got %v", base, got)
	}
}

func TestWaitBlocksUntilInterval(t *testing.T) {
	base := time.Now()
	last := base
	calls := 0
	clock := func() time.Time {
		calls++
		// advance 150ms of simulated time per poll.
		return base.Add(time.Duration(calls) * 150 * time.Millisecond)
	}
	g := NewWithClock(clock)

	got := g.Wait(last, 500*time.Millisecond)
	if got.Sub(last) < 500*time.Millisecond {
		t.Errorf("returned before interval elapsed: %v", got.Sub(last))
	}
}

func TestInterval(t *testing.T) {
	cases := []struct {
		n    int
		want time.Duration
	}{
		{3, 21 * time.Second},
		{1, 61 * time.Second},
		{0, 61 * time.Second}, // clamps to 1
	}
	for _, c := range cases {
		got := Interval(c.n, 1)
		if got != c.want {
			t.Errorf("Interval(%d) = %v, want %v", c.n, got, c.want)
		}
	}
}
