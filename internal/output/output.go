// Package output forwards pipeline results and health reports to their
// consumers. The core treats every emitter as fire-and-forget: errors are
// returned for logging but never stop the pipeline.
//
// Emitters: serial (UART line protocol), MQTT, console, a fanout combining
// several, and a fake for tests. Records are formatted either as
// newline-delimited JSON for machine parsing or as human-readable lines.
package output

import (
	"time"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/health"
)

// Format selects the wire representation.
type Format int

const (
	// FormatJSON emits newline-delimited JSON records.
	FormatJSON Format = iota

	// FormatHuman emits human-readable lines.
	FormatHuman
)

// ParseFormat converts a config string into a Format.
func ParseFormat(s string) (Format, bool) {
	switch s {
	case "json", "":
		return FormatJSON, true
	case "human":
		return FormatHuman, true
	}
	return FormatJSON, false
}

// Info describes the running process for the startup banner.
type Info struct {
	Version   string
	Platform  string
	SessionID string
}

// Emitter forwards records to an output channel. Implementations are safe
// for concurrent use; the pipeline's emitter and monitor tasks both write.
type Emitter interface {
	// EmitResult forwards a classification result, optionally annotated
	// with a health snapshot.
	EmitResult(res classify.Result, snap *health.Snapshot) error

	// EmitHealth forwards a periodic health report.
	EmitHealth(snap health.Snapshot) error

	// EmitHeartbeat signals liveness.
	EmitHeartbeat(uptime time.Duration) error

	// EmitError reports a non-fatal error condition.
	EmitError(code int, message string) error

	// EmitBanner announces startup.
	EmitBanner(info Info) error

	// Close releases output resources.
	Close() error
}

// Multi fans out to several emitters. Emit methods try every child and
// return the first error encountered.
type Multi struct {
	emitters []Emitter
}

// NewMulti creates a fanout emitter.
func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

// EmitResult forwards to all children.
func (m *Multi) EmitResult(res classify.Result, snap *health.Snapshot) error {
	var first error
	for _, e := range m.emitters {
		if err := e.EmitResult(res, snap); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// EmitHealth forwards to all children.
func (m *Multi) EmitHealth(snap health.Snapshot) error {
	var first error
	for _, e := range m.emitters {
		if err := e.EmitHealth(snap); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// EmitHeartbeat forwards to all children.
func (m *Multi) EmitHeartbeat(uptime time.Duration) error {
	var first error
	for _, e := range m.emitters {
		if err := e.EmitHeartbeat(uptime); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// EmitError forwards to all children.
func (m *Multi) EmitError(code int, message string) error {
	var first error
	for _, e := range m.emitters {
		if err := e.EmitError(code, message); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// EmitBanner forwards to all children.
func (m *Multi) EmitBanner(info Info) error {
	var first error
	for _, e := range m.emitters {
		if err := e.EmitBanner(info); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes all children.
func (m *Multi) Close() error {
	var first error
	for _, e := range m.emitters {
		if err := e.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
