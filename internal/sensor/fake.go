package sensor

import "errors"

// FakeReader is a test double that returns scripted samples.
type FakeReader struct {
	// Samples contains scripted values to return. Each call to Read()
	// consumes the next sample; when exhausted, the last sample is
	// returned repeatedly.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Ready controls the return value of DataReady.
	Ready bool

	// Closed tracks if Close was called.
	Closed bool

	// InitError, if set, will be returned by Init.
	InitError error

	// ReadError, if set, will be returned by Read.
	ReadError error

	// initialized tracks if Init was called.
	initialized bool
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples, Ready: true}
}

// Init marks the reader as initialized.
func (f *FakeReader) Init() error {
	if f.InitError != nil {
		return f.InitError
	}
	f.initialized = true
	return nil
}

// Read returns the next scripted sample.
func (f *FakeReader) Read() (Sample, error) {
	if !f.initialized {
		return Sample{}, ErrNotInitialized
	}
	if f.ReadError != nil {
		return Sample{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return sample, nil
}

// DataReady returns the scripted readiness.
func (f *FakeReader) DataReady() bool { return f.Ready }

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
	f.initialized = false
}
