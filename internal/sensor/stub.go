//go:build !linux

package sensor

import "errors"

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// RealConfig locates the hardware.
type RealConfig struct {
	IIODir   string
	GPIOChip string
	IntPin   int
}

// NewRealReader returns an error on non-Linux platforms.
func NewRealReader(cfg RealConfig) (*RealReader, error) {
	return nil, errors.New("sensor: real accelerometer not supported on this platform (requires Linux)")
}

// Init is not implemented on non-Linux platforms.
func (r *RealReader) Init() error {
	return errors.New("sensor: not supported")
}

// Read is not implemented on non-Linux platforms.
func (r *RealReader) Read() (Sample, error) {
	return Sample{}, errors.New("sensor: not supported")
}

// DataReady is not implemented on non-Linux platforms.
func (r *RealReader) DataReady() bool { return false }

// Close is not implemented on non-Linux platforms.
func (r *RealReader) Close() error { return nil }

// Stats returns empty counters on non-Linux platforms.
func (r *RealReader) Stats() Stats { return Stats{} }
