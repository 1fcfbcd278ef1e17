package classify

import (
	"log"
	"time"
)

// SimConfig configures the simulated engine.
type SimConfig struct {
	// InputSize is the expected quantized window length (samples * axes).
	InputSize int

	// Latency is the simulated per-inference compute time. Defaults to
	// 5ms; set to zero (via LatencySet) for fast tests.
	Latency time.Duration

	// LatencySet marks Latency as explicitly configured, allowing zero.
	LatencySet bool

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// SimEngine produces deterministic synthetic classifications on a fixed
// schedule: mostly confident IDLE, with a WAVE and a TAP detection at fixed
// points in every run of fifty inferences. Useful for exercising the full
// pipeline without a model.
type SimEngine struct {
	cfg      SimConfig
	now      func() time.Time
	start    time.Time
	init     bool
	sequence uint32
	stats    Stats
}

// NewSimEngine creates a simulated engine for the given input size.
func NewSimEngine(cfg SimConfig) *SimEngine {
	if cfg.Latency == 0 && !cfg.LatencySet {
		cfg.Latency = 5 * time.Millisecond
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &SimEngine{cfg: cfg, now: now}
}

// Init prepares the engine.
func (e *SimEngine) Init() error {
	e.start = e.now()
	e.sequence = 0
	e.stats = Stats{MinUS: ^uint32(0)}
	e.init = true
	log.Printf("classify: simulated engine ready (input=%d latency=%v)",
		e.cfg.InputSize, e.cfg.Latency)
	return nil
}

// Infer returns the next scheduled synthetic result.
func (e *SimEngine) Infer(input []int8) (Result, error) {
	if !e.init {
		return Result{}, ErrNotInitialized
	}
	if e.cfg.InputSize > 0 && len(input) != e.cfg.InputSize {
		return Result{}, ErrBadInput
	}

	if e.cfg.Latency > 0 {
		time.Sleep(e.cfg.Latency)
	}

	e.sequence++

	res := Result{
		Label:      LabelIdle,
		Confidence: 0.95,
		Scores:     [NumClasses]float32{0.95, 0.02, 0.02, 0.01},
	}
	switch e.sequence % 50 {
	case 25:
		res.Label = LabelWave
		res.Confidence = 0.85
		res.Scores = [NumClasses]float32{0.10, 0.85, 0.03, 0.02}
	case 35:
		res.Label = LabelTap
		res.Confidence = 0.90
		res.Scores = [NumClasses]float32{0.05, 0.02, 0.90, 0.03}
	}

	res.DurationUS = uint32(e.cfg.Latency.Microseconds())
	res.TimestampUS = uint32(e.now().Sub(e.start).Microseconds())
	res.Sequence = e.sequence

	e.recordTiming(res.DurationUS)
	return res, nil
}

// Stats returns engine counters.
func (e *SimEngine) Stats() Stats {
	s := e.stats
	if s.Count == 0 {
		s.MinUS = 0
	}
	return s
}

// ResetStats zeroes engine counters.
func (e *SimEngine) ResetStats() {
	e.stats = Stats{MinUS: ^uint32(0)}
}

func (e *SimEngine) recordTiming(durationUS uint32) {
	e.stats.Count++
	e.stats.TotalUS += uint64(durationUS)
	if durationUS < e.stats.MinUS {
		e.stats.MinUS = durationUS
	}
	if durationUS > e.stats.MaxUS {
		e.stats.MaxUS = durationUS
	}
}
