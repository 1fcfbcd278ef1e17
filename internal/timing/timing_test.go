package timing

import (
	"math"
	"testing"
)

func TestElapsedSimple(t *testing.T) {
	clock := &ManualClock{}
	svc := NewService(clock, 64_000_000) // 64 cycles per microsecond

	start := svc.Start()
	clock.Advance(6400)

	if got := svc.Elapsed(start); got != 100 {
		t.Errorf("Elapsed = %d us, want 100", got)
	}
}

func TestElapsedWraparound(t *testing.T) {
	clock := &ManualClock{Now: math.MaxUint32 - 5}
	svc := NewService(clock, 1_000_000) // 1 cycle per microsecond

	start := svc.Start()
	clock.Advance(16) // wraps: 6 cycles to the boundary, 10 past it

	if got := svc.Elapsed(start); got != 16 {
		t.Errorf("Elapsed across wrap = %d us, want 16", got)
	}
}

func TestElapsedZero(t *testing.T) {
	clock := &ManualClock{Now: 1000}
	svc := NewService(clock, 1_000_000)

	if got := svc.Elapsed(svc.Start()); got != 0 {
		t.Errorf("Elapsed with no advance = %d, want 0", got)
	}
}

func TestServiceClampsLowFrequency(t *testing.T) {
	clock := &ManualClock{}
	svc := NewService(clock, 32_768) // below 1 MHz

	start := svc.Start()
	clock.Advance(50)

	// Degraded mode: durations come back in raw cycles.
	if got := svc.Elapsed(start); got != 50 {
		t.Errorf("Elapsed = %d, want 50 cycles", got)
	}
}

func TestStatsRecord(t *testing.T) {
	var st Stats

	st.Record(100)
	st.Record(300)
	st.Record(200)

	if st.Count != 3 {
		t.Errorf("Count = %d, want 3", st.Count)
	}
	if st.MinUS != 100 {
		t.Errorf("MinUS = %d, want 100", st.MinUS)
	}
	if st.MaxUS != 300 {
		t.Errorf("MaxUS = %d, want 300", st.MaxUS)
	}
	if st.AvgUS != 200 {
		t.Errorf("AvgUS = %d, want 200", st.AvgUS)
	}
}

func TestStatsMinIgnoresZero(t *testing.T) {
	var st Stats

	st.Record(0)
	if st.MinUS != 0 {
		t.Fatalf("MinUS after zero sample = %d, want 0", st.MinUS)
	}

	st.Record(50)
	if st.MinUS != 50 {
		t.Errorf("MinUS = %d, want 50 (first non-zero establishes the minimum)", st.MinUS)
	}

	st.Record(0)
	if st.MinUS != 50 {
		t.Errorf("MinUS after later zero = %d, want 50", st.MinUS)
	}
}

func TestStatsReset(t *testing.T) {
	var st Stats
	st.Record(100)
	st.Reset()

	if st != (Stats{}) {
		t.Errorf("Reset left %+v, want zero value", st)
	}
}

func TestManualClockWraps(t *testing.T) {
	clock := &ManualClock{Now: math.MaxUint32}
	clock.Advance(1)
	if clock.Cycles() != 0 {
		t.Errorf("Cycles after wrap = %d, want 0", clock.Cycles())
	}
}
