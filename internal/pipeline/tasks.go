package pipeline

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sweeney/gesture-sensor/internal/window"
)

// Error record codes.
const (
	errCodeSensorRead = 1
	errCodeInference  = 2
)

// samplerLoop polls the sensor at the configured rate, feeds the window
// accumulator, and signals the classifier when a window completes.
func (p *Pipeline) samplerLoop(ctx context.Context) {
	p.sampler.Begin()

	ticker := time.NewTicker(p.cfg.SamplePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		start := time.Now()
		if p.deps.Sensor.DataReady() {
			s, err := p.deps.Sensor.Read()
			if err != nil {
				p.readErrors.Add(1)
				log.Printf("pipeline: sensor read: %v", err)
				_ = p.deps.Emitter.EmitError(errCodeSensorRead, err.Error())
			} else {
				p.samplesRead.Add(1)
				p.deps.Window.AddSample(s)
				if p.deps.Window.Ready() {
					p.signalWindow()
				}
			}
		}
		p.sampler.AddBusy(time.Since(start))
		p.sampler.SampleStack()
	}
}

// classifierLoop waits for window signals, runs inference, and queues
// results. The wait is bounded: waking with nothing to classify is a
// normal idle tick, which also covers a signal lost to a crashed sampler.
func (p *Pipeline) classifierLoop(ctx context.Context) {
	p.classifier.Begin()

	buf := make([]int8, p.deps.Window.InputSize())
	timer := time.NewTimer(p.cfg.ClassifyWait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.windowReady:
			if !timer.Stop() {
				<-timer.C
			}
		case <-timer.C:
		}
		timer.Reset(p.cfg.ClassifyWait)

		start := time.Now()
		p.classifyPending(buf)
		p.classifier.AddBusy(time.Since(start))
		p.classifier.SampleStack()
	}
}

// classifyPending drains at most one completed window through the engine.
func (p *Pipeline) classifyPending(buf []int8) {
	err := p.deps.Window.ReadInto(buf)
	if errors.Is(err, window.ErrNotReady) {
		return // idle tick
	}
	if err != nil {
		log.Printf("pipeline: read window: %v", err)
		return
	}

	ts := p.deps.Timing.Start()
	res, err := p.deps.Engine.Infer(buf)
	elapsed := p.deps.Timing.Elapsed(ts)
	if err != nil {
		p.inferErrors.Add(1)
		log.Printf("pipeline: inference: %v", err)
		_ = p.deps.Emitter.EmitError(errCodeInference, err.Error())
		return
	}

	// The pipeline's cycle-counter measurement is the reported latency;
	// any engine-internal figure is diagnostic only.
	res.DurationUS = elapsed
	res.TimestampUS = ts

	p.statsMu.Lock()
	p.inferStats.Record(elapsed)
	p.statsMu.Unlock()

	p.windowsClassified.Add(1)
	if p.deps.Queue.Push(res) {
		p.resultsDropped.Add(1)
		log.Printf("pipeline: result queue full, dropped oldest")
	}
}

// emitterLoop polls the result queue and forwards results to the emitter,
// each annotated with a health snapshot taken once per drain.
func (p *Pipeline) emitterLoop(ctx context.Context) {
	p.emitter.Begin()

	ticker := time.NewTicker(p.cfg.EmitPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		start := time.Now()
		p.drainResults()
		p.emitter.AddBusy(time.Since(start))
		p.emitter.SampleStack()
	}
}

func (p *Pipeline) drainResults() {
	res, ok := p.deps.Queue.Pop()
	if !ok {
		return
	}

	// One snapshot covers every result in this drain; ReadMemStats is too
	// heavy to repeat per result at queue depth 16.
	snap := p.deps.Health.Snapshot(p.emitter)
	for {
		if err := p.deps.Emitter.EmitResult(res, &snap); err != nil {
			p.emitErrors.Add(1)
			log.Printf("pipeline: emit result: %v", err)
		} else {
			p.resultsEmitted.Add(1)
		}

		res, ok = p.deps.Queue.Pop()
		if !ok {
			return
		}
	}
}

// monitorLoop sweeps task health and publishes periodic reports.
func (p *Pipeline) monitorLoop(ctx context.Context) {
	p.monitor.Begin()

	ticker := time.NewTicker(p.cfg.MonitorPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		start := time.Now()
		if issues := p.deps.Health.Check(); issues > 0 {
			log.Printf("pipeline: health check found %d issue(s)", issues)
		}
		snap := p.deps.Health.Snapshot(p.monitor)
		if err := p.deps.Emitter.EmitHealth(snap); err != nil {
			p.emitErrors.Add(1)
			log.Printf("pipeline: emit health: %v", err)
		}
		p.monitor.AddBusy(time.Since(start))
		p.monitor.SampleStack()
	}
}
