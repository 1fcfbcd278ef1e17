// Package window accumulates accelerometer samples into fixed-size windows
// and prepares them for classification: per-axis DC offset removal via an
// exponential moving average, then quantization to the signed 8-bit range
// the classifier expects.
//
// The accumulator is single-producer / single-consumer: the sampling task
// appends, the classification task drains. Windows are disjoint: when one
// fills, the write position restarts at zero for the next.
package window

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sweeney/gesture-sensor/internal/sensor"
)

// Axes is the number of values emitted per sample, in X, Y, Z order.
const Axes = 3

const (
	// quantScale maps the ±16384 raw range onto ±127.
	quantScale = 127.0 / 16384.0

	// dcFilterAlpha weights the DC offset EMA. Close to 1 so the estimate
	// tracks slow drift rather than chasing transients.
	dcFilterAlpha = 0.95

	// zBaseline seeds the Z-axis offset at 1 g so the estimate starts
	// near gravity instead of converging up from zero.
	zBaseline = 8192
)

// ErrNotReady is returned by ReadInto when no complete window is pending.
// It is a normal control-flow signal, not a failure.
var ErrNotReady = errors.New("window: not ready")

// ErrShortBuffer is returned by ReadInto when the output buffer cannot hold
// a full quantized window.
var ErrShortBuffer = errors.New("window: output buffer too small")

// Accumulator is a mutex-guarded sliding-window buffer.
type Accumulator struct {
	mu sync.Mutex

	samples []sensor.Sample
	pos     int
	ready   bool

	// dcOffset holds the per-axis running DC estimate. It is a slow-moving
	// calibration value, not window-scoped state, and persists across
	// windows and across Clear.
	dcOffset [Axes]float64
}

// New creates an Accumulator holding size samples per window.
func New(size int) (*Accumulator, error) {
	if size <= 0 {
		return nil, fmt.Errorf("window: invalid size %d", size)
	}
	a := &Accumulator{samples: make([]sensor.Sample, size)}
	a.resetOffsets()
	return a, nil
}

// Reset discards all progress and restores the DC offset estimate to its
// configured defaults.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pos = 0
	a.ready = false
	for i := range a.samples {
		a.samples[i] = sensor.Sample{}
	}
	a.resetOffsets()
}

func (a *Accumulator) resetOffsets() {
	a.dcOffset[0] = 0
	a.dcOffset[1] = 0
	a.dcOffset[2] = zBaseline
}

// Size returns the number of samples per window.
func (a *Accumulator) Size() int { return len(a.samples) }

// InputSize returns the length of the quantized output a full window
// produces.
func (a *Accumulator) InputSize() int { return len(a.samples) * Axes }

// AddSample updates the DC offset estimate and appends the sample. When the
// window fills, it becomes ready and the write position restarts.
func (a *Accumulator) AddSample(s sensor.Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.dcOffset[0] = dcFilterAlpha*a.dcOffset[0] + (1-dcFilterAlpha)*float64(s.X)
	a.dcOffset[1] = dcFilterAlpha*a.dcOffset[1] + (1-dcFilterAlpha)*float64(s.Y)
	a.dcOffset[2] = dcFilterAlpha*a.dcOffset[2] + (1-dcFilterAlpha)*float64(s.Z)

	a.samples[a.pos] = s
	a.pos++

	if a.pos >= len(a.samples) {
		a.ready = true
		a.pos = 0
	}
}

// Ready reports whether a complete window is pending. Point-in-time; the
// producer may complete another window immediately after this returns.
func (a *Accumulator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

// Fill returns the number of samples accumulated toward the next window.
func (a *Accumulator) Fill() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pos
}

// ReadInto writes the quantized, offset-compensated window into out and
// marks the window consumed. Each sample yields three int8 values in X, Y, Z
// order. At most one caller retrieves a given window; a second immediate
// call returns ErrNotReady.
func (a *Accumulator) ReadInto(out []int8) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(out) < len(a.samples)*Axes {
		return ErrShortBuffer
	}
	if !a.ready {
		return ErrNotReady
	}

	i := 0
	for _, s := range a.samples {
		out[i] = quantize(float64(s.X) - a.dcOffset[0])
		out[i+1] = quantize(float64(s.Y) - a.dcOffset[1])
		out[i+2] = quantize(float64(s.Z) - a.dcOffset[2])
		i += Axes
	}

	a.ready = false
	return nil
}

// Clear discards partial progress and any pending window. The DC offset
// estimate is left untouched.
func (a *Accumulator) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pos = 0
	a.ready = false
	for i := range a.samples {
		a.samples[i] = sensor.Sample{}
	}
}

// DCOffset returns the current per-axis offset estimate, for diagnostics.
func (a *Accumulator) DCOffset() [Axes]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dcOffset
}

// quantize scales a DC-compensated value to the int8 range, clamping at the
// boundaries.
func quantize(v float64) int8 {
	q := int32(v * quantScale)
	if q < -128 {
		q = -128
	} else if q > 127 {
		q = 127
	}
	return int8(q)
}
