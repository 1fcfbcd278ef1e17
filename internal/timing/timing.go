// Package timing provides duration measurement over a wrapping 32-bit cycle
// counter, plus a rolling min/max/avg accumulator. The counter deliberately
// mimics a hardware cycle register: it wraps at the 32-bit boundary and
// elapsed-time math handles the wrap explicitly, so profiling code behaves
// the same on a dev host as it would against a real counter.
package timing

import (
	"log"
	"math"
	"time"
)

// Clock is a monotonic cycle counter source.
type Clock interface {
	// Cycles returns the current counter value. Wraps at math.MaxUint32.
	Cycles() uint32
}

// CycleClock derives a wrapping cycle counter from the monotonic clock at a
// fixed frequency.
type CycleClock struct {
	start time.Time
	hz    uint64
}

// NewCycleClock creates a counter ticking at hz cycles per second.
func NewCycleClock(hz uint64) *CycleClock {
	return &CycleClock{start: time.Now(), hz: hz}
}

// Cycles returns elapsed cycles since construction, wrapping at 32 bits.
// Whole seconds and the sub-second remainder are scaled separately so the
// intermediate products cannot overflow for any realistic frequency.
func (c *CycleClock) Cycles() uint32 {
	ns := uint64(time.Since(c.start).Nanoseconds())
	sec := ns / uint64(time.Second)
	rem := ns % uint64(time.Second)
	return uint32(sec*c.hz + rem*c.hz/uint64(time.Second))
}

// ManualClock is a hand-advanced counter for tests.
type ManualClock struct {
	Now uint32
}

// Cycles returns the current manual value.
func (m *ManualClock) Cycles() uint32 { return m.Now }

// Advance moves the counter forward, wrapping naturally.
func (m *ManualClock) Advance(cycles uint32) { m.Now += cycles }

// Service converts counter readings into elapsed microseconds. The
// cycles-per-microsecond ratio is fixed at construction.
type Service struct {
	clock       Clock
	cyclesPerUS uint32
}

// NewService creates a Service over the given clock running at hz cycles per
// second. Frequencies below 1 MHz would round the ratio to zero; the ratio is
// clamped to 1 so Elapsed never divides by zero, at the cost of reporting
// cycles instead of microseconds.
func NewService(clock Clock, hz uint64) *Service {
	per := uint32(hz / 1_000_000)
	if per == 0 {
		per = 1
		log.Printf("timing: clock below 1 MHz, durations degrade to cycle resolution")
	}
	return &Service{clock: clock, cyclesPerUS: per}
}

// Start captures the current counter value.
func (s *Service) Start() uint32 {
	return s.clock.Cycles()
}

// Elapsed returns microseconds since start, handling counter wraparound.
func (s *Service) Elapsed(start uint32) uint32 {
	now := s.clock.Cycles()

	var cycles uint32
	if now >= start {
		cycles = now - start
	} else {
		cycles = (math.MaxUint32 - start) + now + 1
	}
	return cycles / s.cyclesPerUS
}

// Stats accumulates rolling duration statistics. It is pure and never
// blocks; a Stats instance belongs to one owner, which must serialize
// access itself.
type Stats struct {
	MinUS   uint32
	MaxUS   uint32
	AvgUS   uint32
	Count   uint32
	TotalUS uint64
}

// Record folds one duration into the accumulator. Min is only established by
// the first non-zero measurement; a genuine zero-duration sample leaves it
// untouched.
func (st *Stats) Record(durationUS uint32) {
	st.Count++
	st.TotalUS += uint64(durationUS)

	if durationUS < st.MinUS || st.MinUS == 0 {
		st.MinUS = durationUS
	}
	if durationUS > st.MaxUS {
		st.MaxUS = durationUS
	}
	st.AvgUS = uint32(st.TotalUS / uint64(st.Count))
}

// Reset zeroes all fields.
func (st *Stats) Reset() {
	*st = Stats{}
}
