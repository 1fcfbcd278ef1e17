package output

import (
	"sync"
	"time"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/health"
)

// FakeEmitter records everything emitted to it, for tests.
type FakeEmitter struct {
	mu sync.Mutex

	// Results holds every emitted result with its snapshot annotation.
	Results []FakeResult

	// Health holds every emitted health report.
	Health []health.Snapshot

	// Heartbeats holds every emitted uptime.
	Heartbeats []time.Duration

	// Errors holds every emitted error record.
	Errors []FakeError

	// Banners holds every emitted startup record.
	Banners []Info

	// Closed reports whether Close was called.
	Closed bool

	// EmitErr, when set, is returned by every Emit method.
	EmitErr error
}

// FakeResult is one recorded EmitResult call.
type FakeResult struct {
	Result   classify.Result
	Snapshot *health.Snapshot
}

// FakeError is one recorded EmitError call.
type FakeError struct {
	Code    int
	Message string
}

// NewFake creates an empty recording emitter.
func NewFake() *FakeEmitter {
	return &FakeEmitter{}
}

// EmitResult records the call.
func (f *FakeEmitter) EmitResult(res classify.Result, snap *health.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var copied *health.Snapshot
	if snap != nil {
		c := *snap
		copied = &c
	}
	f.Results = append(f.Results, FakeResult{Result: res, Snapshot: copied})
	return f.EmitErr
}

// EmitHealth records the call.
func (f *FakeEmitter) EmitHealth(snap health.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Health = append(f.Health, snap)
	return f.EmitErr
}

// EmitHeartbeat records the call.
func (f *FakeEmitter) EmitHeartbeat(uptime time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Heartbeats = append(f.Heartbeats, uptime)
	return f.EmitErr
}

// EmitError records the call.
func (f *FakeEmitter) EmitError(code int, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Errors = append(f.Errors, FakeError{Code: code, Message: message})
	return f.EmitErr
}

// EmitBanner records the call.
func (f *FakeEmitter) EmitBanner(info Info) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Banners = append(f.Banners, info)
	return f.EmitErr
}

// Close marks the emitter closed.
func (f *FakeEmitter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// ResultCount returns the number of recorded results.
func (f *FakeEmitter) ResultCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Results)
}

// HealthCount returns the number of recorded health reports.
func (f *FakeEmitter) HealthCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Health)
}

// LastResult returns the most recent recorded result.
func (f *FakeEmitter) LastResult() (FakeResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Results) == 0 {
		return FakeResult{}, false
	}
	return f.Results[len(f.Results)-1], true
}
