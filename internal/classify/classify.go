// Package classify defines the gesture classification contract and provides
// a simulated engine for running without a real model. The real inference
// engine is an external collaborator behind the Engine interface.
//
// Engines need not be safe for concurrent use: the pipeline serializes all
// Infer calls through a single task.
package classify

import "errors"

// Label identifies a gesture class.
type Label uint8

// Gesture classes, in model output order.
const (
	LabelIdle Label = iota
	LabelWave
	LabelTap
	LabelCircle

	// NumClasses is the number of gesture classes.
	NumClasses = 4
)

var labelNames = [NumClasses]string{"IDLE", "WAVE", "TAP", "CIRCLE"}

// String returns the human-readable class name.
func (l Label) String() string {
	if int(l) >= NumClasses {
		return "UNKNOWN"
	}
	return labelNames[l]
}

// Result is one classification outcome. Immutable once produced; owned by
// the result queue until popped.
type Result struct {
	Label       Label
	Confidence  float32
	Scores      [NumClasses]float32
	DurationUS  uint32
	TimestampUS uint32
	Sequence    uint32
}

// Stats tracks engine activity.
type Stats struct {
	Count    uint32
	MinUS    uint32
	MaxUS    uint32
	TotalUS  uint64
	Failures uint32
}

// Engine runs gesture classification over a quantized sample window.
type Engine interface {
	// Init prepares the engine. Must be called once before Infer.
	Init() error

	// Infer classifies one quantized window. Input length must equal the
	// engine's configured input size.
	Infer(input []int8) (Result, error)
}

// ErrNotInitialized is returned by Infer before Init has succeeded.
var ErrNotInitialized = errors.New("classify: not initialized")

// ErrBadInput is returned when the input length does not match the engine's
// expected input size.
var ErrBadInput = errors.New("classify: bad input size")
