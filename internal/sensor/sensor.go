// Package sensor provides 3-axis accelerometer reading with hardware abstraction.
// The real implementation reads the Linux IIO subsystem and watches the
// sensor's data-ready interrupt line. The simulated implementation generates
// gesture-shaped waveforms for running without hardware.
package sensor

import "errors"

// Sample is a single accelerometer reading. Values are raw sensor units at
// ±2 g full scale, so 1 g is 8192. Samples are copied by value; once read
// they are never mutated.
type Sample struct {
	X, Y, Z     int16
	TimestampUS uint32
}

// Reader reads accelerometer samples.
type Reader interface {
	// Init prepares the sensor. Must be called once before Read.
	Init() error

	// Read returns the next sample. A failed read is not fatal; callers
	// log and skip the cycle.
	Read() (Sample, error)

	// DataReady reports whether a new sample is available. Advisory and
	// rate-limited; Read may still be called without it.
	DataReady() bool

	// Close releases sensor resources.
	Close() error
}

// ErrNotInitialized is returned by Read before Init has succeeded.
var ErrNotInitialized = errors.New("sensor: not initialized")

// Stats tracks read activity for a Reader.
type Stats struct {
	SamplesRead uint32
	ReadErrors  uint32
}
