// Package pipeline wires the sampling, classification, emission, and
// monitoring tasks into one running unit. Each task is a goroutine with a
// declared priority rank and stack budget; the ranks document relative
// importance (the sampler must never starve) and the budgets bound the
// health monitor's stack warnings.
//
// Data flows sampler -> window -> classifier -> queue -> emitter. The
// sampler signals window completion through a one-slot channel so a burst
// of completions collapses into a single wakeup; the classifier also wakes
// on a bounded timeout so a stalled producer cannot park it forever.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/health"
	"github.com/sweeney/gesture-sensor/internal/output"
	"github.com/sweeney/gesture-sensor/internal/results"
	"github.com/sweeney/gesture-sensor/internal/sensor"
	"github.com/sweeney/gesture-sensor/internal/timing"
	"github.com/sweeney/gesture-sensor/internal/window"
)

// Task names, as registered with the health monitor.
const (
	TaskSampler    = "sampler"
	TaskClassifier = "classifier"
	TaskEmitter    = "emitter"
	TaskMonitor    = "monitor"
)

// Priority ranks, lower is more important. The ranks are declarative: Go
// does not schedule goroutines by priority, but the ordering documents
// which task must win when the system is overloaded and is reported
// through the health registry.
const (
	PrioritySampler    = 5
	PriorityClassifier = 7
	PriorityEmitter    = 9
	PriorityMonitor    = 11
)

// Stack budgets in bytes, per task.
const (
	samplerStackBudget    = 1024
	classifierStackBudget = 4096
	emitterStackBudget    = 2048
	monitorStackBudget    = 2048
)

// Defaults for Config zero values.
const (
	DefaultClassifyWait  = time.Second
	DefaultEmitPoll      = 10 * time.Millisecond
	DefaultMonitorPeriod = time.Second
)

// Config tunes task cadence.
type Config struct {
	// SamplePeriod is the sampler tick. Required.
	SamplePeriod time.Duration

	// ClassifyWait bounds the classifier's wait for a window signal.
	// Defaults to DefaultClassifyWait.
	ClassifyWait time.Duration

	// EmitPoll is the result queue polling interval. Defaults to
	// DefaultEmitPoll.
	EmitPoll time.Duration

	// MonitorPeriod is the interval between health sweeps. Defaults to
	// DefaultMonitorPeriod.
	MonitorPeriod time.Duration
}

// Deps are the pipeline's collaborators. All fields are required.
type Deps struct {
	Sensor  sensor.Reader
	Engine  classify.Engine
	Emitter output.Emitter
	Health  *health.Monitor
	Timing  *timing.Service
	Window  *window.Accumulator
	Queue   *results.Queue
}

// Stats is a point-in-time copy of the pipeline counters.
type Stats struct {
	SamplesRead       uint32
	ReadErrors        uint32
	WindowsClassified uint32
	InferErrors       uint32
	ResultsDropped    uint32
	ResultsEmitted    uint32
	EmitErrors        uint32

	// Infer aggregates classification latency as measured around the
	// engine call.
	Infer timing.Stats
}

// Pipeline owns the four task goroutines and their shared state.
type Pipeline struct {
	cfg  Config
	deps Deps

	// windowReady holds at most one pending wakeup. Completing a window
	// while a wakeup is already pending is a no-op; the classifier drains
	// the window itself, not the channel.
	windowReady chan struct{}

	sampler    *health.Task
	classifier *health.Task
	emitter    *health.Task
	monitor    *health.Task

	samplesRead       atomic.Uint32
	readErrors        atomic.Uint32
	windowsClassified atomic.Uint32
	inferErrors       atomic.Uint32
	resultsDropped    atomic.Uint32
	resultsEmitted    atomic.Uint32
	emitErrors        atomic.Uint32

	statsMu    sync.Mutex
	inferStats timing.Stats
}

// New assembles a pipeline and registers its tasks with the health monitor.
func New(cfg Config, deps Deps) (*Pipeline, error) {
	if deps.Sensor == nil || deps.Engine == nil || deps.Emitter == nil ||
		deps.Health == nil || deps.Timing == nil || deps.Window == nil || deps.Queue == nil {
		return nil, errors.New("pipeline: missing dependency")
	}
	if cfg.SamplePeriod <= 0 {
		return nil, errors.New("pipeline: sample period must be positive")
	}
	if cfg.ClassifyWait <= 0 {
		cfg.ClassifyWait = DefaultClassifyWait
	}
	if cfg.EmitPoll <= 0 {
		cfg.EmitPoll = DefaultEmitPoll
	}
	if cfg.MonitorPeriod <= 0 {
		cfg.MonitorPeriod = DefaultMonitorPeriod
	}

	p := &Pipeline{
		cfg:         cfg,
		deps:        deps,
		windowReady: make(chan struct{}, 1),
		sampler:     health.NewTask(TaskSampler, PrioritySampler, samplerStackBudget),
		classifier:  health.NewTask(TaskClassifier, PriorityClassifier, classifierStackBudget),
		emitter:     health.NewTask(TaskEmitter, PriorityEmitter, emitterStackBudget),
		monitor:     health.NewTask(TaskMonitor, PriorityMonitor, monitorStackBudget),
	}

	for _, t := range []*health.Task{p.sampler, p.classifier, p.emitter, p.monitor} {
		if err := deps.Health.Register(t); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Run starts the four tasks and blocks until ctx is cancelled and every
// task has stopped.
func (p *Pipeline) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); p.samplerLoop(ctx) }()
	go func() { defer wg.Done(); p.classifierLoop(ctx) }()
	go func() { defer wg.Done(); p.emitterLoop(ctx) }()
	go func() { defer wg.Done(); p.monitorLoop(ctx) }()
	wg.Wait()
	return ctx.Err()
}

// Stats returns a copy of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	p.statsMu.Lock()
	infer := p.inferStats
	p.statsMu.Unlock()

	return Stats{
		SamplesRead:       p.samplesRead.Load(),
		ReadErrors:        p.readErrors.Load(),
		WindowsClassified: p.windowsClassified.Load(),
		InferErrors:       p.inferErrors.Load(),
		ResultsDropped:    p.resultsDropped.Load(),
		ResultsEmitted:    p.resultsEmitted.Load(),
		EmitErrors:        p.emitErrors.Load(),
		Infer:             infer,
	}
}

// signalWindow posts a wakeup unless one is already pending.
func (p *Pipeline) signalWindow() {
	select {
	case p.windowReady <- struct{}{}:
	default:
	}
}
