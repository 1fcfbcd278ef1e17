package sensor

import (
	"log"
	"math"
	"math/rand"
	"sync"
	"time"
)

// Gesture waveform parameters, in raw sensor units at ±2 g.
const (
	// gestureDuration is how long each simulated gesture lasts.
	gestureDuration = 500 * time.Millisecond

	// noiseAmplitude is the idle jitter around the baseline.
	noiseAmplitude = 100

	// gestureAmplitude is roughly 0.5 g.
	gestureAmplitude = 4000

	// gravityOffset is 1 g on the Z axis.
	gravityOffset = 8192
)

type simGesture int

const (
	simIdle simGesture = iota
	simWave
	simTap
	simCircle
	simGestureCount
)

func (g simGesture) String() string {
	switch g {
	case simWave:
		return "WAVE"
	case simTap:
		return "TAP"
	case simCircle:
		return "CIRCLE"
	default:
		return "IDLE"
	}
}

// SimConfig configures the simulated accelerometer.
type SimConfig struct {
	// SampleRateHz paces DataReady. Defaults to 100.
	SampleRateHz int

	// GestureInterval is the idle time between gestures. Defaults to 3s.
	GestureInterval time.Duration

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time

	// Rand overrides the noise source, for tests.
	Rand *rand.Rand
}

// SimReader generates gesture-shaped accelerometer data: idle noise around
// the gravity baseline, interrupted by wave, tap and circle patterns cycled
// on a fixed schedule. It runs anywhere, no hardware required.
type SimReader struct {
	mu sync.Mutex

	now  func() time.Time
	rng  *rand.Rand
	cfg  SimConfig
	init bool

	start       time.Time
	gesture     simGesture
	gestureAt   time.Time // when the current gesture started
	nextGesture time.Time
	sequence    int // cycles WAVE -> TAP -> CIRCLE

	samplePeriod time.Duration
	lastReady    time.Time

	stats Stats
}

// NewSimReader creates a simulated accelerometer.
func NewSimReader(cfg SimConfig) *SimReader {
	if cfg.SampleRateHz <= 0 {
		cfg.SampleRateHz = 100
	}
	if cfg.GestureInterval <= 0 {
		cfg.GestureInterval = 3 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimReader{
		now:          now,
		rng:          rng,
		cfg:          cfg,
		samplePeriod: time.Second / time.Duration(cfg.SampleRateHz),
	}
}

// Init starts the gesture schedule.
func (s *SimReader) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	s.start = t
	s.gesture = simIdle
	s.nextGesture = t.Add(s.cfg.GestureInterval)
	s.sequence = 0
	s.init = true

	log.Printf("sensor: simulated accelerometer ready (rate=%dHz interval=%v)",
		s.cfg.SampleRateHz, s.cfg.GestureInterval)
	return nil
}

// Read returns the next simulated sample.
func (s *SimReader) Read() (Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.init {
		return Sample{}, ErrNotInitialized
	}

	t := s.now()

	// Start a new gesture once the idle interval has passed.
	if s.gesture == simIdle && !t.Before(s.nextGesture) {
		s.gesture = simGesture(s.sequence%(int(simGestureCount)-1) + 1) // skip IDLE
		s.sequence++
		s.gestureAt = t
		log.Printf("sensor: starting gesture %s", s.gesture)
	}

	elapsed := t.Sub(s.gestureAt)
	if s.gesture != simIdle && elapsed >= gestureDuration {
		s.gesture = simIdle
		s.nextGesture = t.Add(s.cfg.GestureInterval)
	}

	var sample Sample
	switch s.gesture {
	case simWave:
		sample = s.wave(elapsed)
	case simTap:
		sample = s.tap(elapsed)
	case simCircle:
		sample = s.circle(elapsed)
	default:
		sample = s.idle()
	}
	sample.TimestampUS = uint32(t.Sub(s.start).Microseconds())

	s.stats.SamplesRead++
	return sample, nil
}

// DataReady reports true at most once per sample period.
func (s *SimReader) DataReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.init {
		return false
	}
	t := s.now()
	if t.Sub(s.lastReady) >= s.samplePeriod {
		s.lastReady = t
		return true
	}
	return false
}

// Close is a no-op for the simulator.
func (s *SimReader) Close() error { return nil }

// Stats returns read counters.
func (s *SimReader) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *SimReader) noise(amplitude int16) int16 {
	return int16(s.rng.Intn(int(2*amplitude+1))) - amplitude
}

func (s *SimReader) idle() Sample {
	return Sample{
		X: s.noise(noiseAmplitude),
		Y: s.noise(noiseAmplitude),
		Z: gravityOffset + s.noise(noiseAmplitude),
	}
}

// wave is side-to-side motion: a decaying sinusoid on X with a smaller Y
// component.
func (s *SimReader) wave(elapsed time.Duration) Sample {
	t := float64(elapsed) / float64(gestureDuration)
	phase := t * 4 * math.Pi
	envelope := 1 - t
	return Sample{
		X: int16(math.Sin(phase) * gestureAmplitude * envelope),
		Y: int16(math.Cos(phase*0.5) * gestureAmplitude * 0.3 * envelope),
		Z: gravityOffset + s.noise(noiseAmplitude),
	}
}

// tap is a sharp impulse with exponentially decaying oscillation.
func (s *SimReader) tap(elapsed time.Duration) Sample {
	t := float64(elapsed) / float64(gestureDuration)
	decay := math.Exp(-t * 8)
	oscillation := math.Sin(t * 30)
	return Sample{
		X: s.noise(noiseAmplitude),
		Y: int16(gestureAmplitude * 1.5 * decay * oscillation),
		Z: gravityOffset + int16(gestureAmplitude*0.5*decay),
	}
}

// circle is circular motion on the X-Y plane with a sine envelope.
func (s *SimReader) circle(elapsed time.Duration) Sample {
	t := float64(elapsed) / float64(gestureDuration)
	phase := t * 2 * math.Pi
	envelope := math.Sin(t * math.Pi)
	return Sample{
		X: int16(math.Cos(phase) * gestureAmplitude * envelope),
		Y: int16(math.Sin(phase) * gestureAmplitude * envelope),
		Z: gravityOffset + s.noise(noiseAmplitude),
	}
}
