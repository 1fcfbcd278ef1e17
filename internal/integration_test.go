package internal

import (
	"bytes"
	"encoding/json"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/health"
	"github.com/sweeney/gesture-sensor/internal/output"
	"github.com/sweeney/gesture-sensor/internal/results"
	"github.com/sweeney/gesture-sensor/internal/sensor"
	"github.com/sweeney/gesture-sensor/internal/timing"
	"github.com/sweeney/gesture-sensor/internal/window"
)

// TestIntegrationFullFlow drives the full path sensor -> window -> engine ->
// queue -> emitter with a hand-advanced clock, no goroutines involved.
func TestIntegrationFullFlow(t *testing.T) {
	current := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return current }

	reader := sensor.NewSimReader(sensor.SimConfig{
		SampleRateHz:    100,
		GestureInterval: time.Hour, // idle only, deterministic labels
		Now:             now,
		Rand:            rand.New(rand.NewSource(42)),
	})
	if err := reader.Init(); err != nil {
		t.Fatalf("init reader: %v", err)
	}

	const windowSize = 50
	acc, err := window.New(windowSize)
	if err != nil {
		t.Fatal(err)
	}
	engine := classify.NewSimEngine(classify.SimConfig{
		InputSize:  acc.InputSize(),
		LatencySet: true,
		Now:        now,
	})
	if err := engine.Init(); err != nil {
		t.Fatalf("init engine: %v", err)
	}
	queue, err := results.New(16)
	if err != nil {
		t.Fatal(err)
	}
	emitter := output.NewFake()

	// Two full windows of sampling.
	buf := make([]int8, acc.InputSize())
	for i := 0; i < 2*windowSize; i++ {
		current = current.Add(10 * time.Millisecond)
		if !reader.DataReady() {
			t.Fatalf("sample %d: DataReady = false after a full period", i)
		}
		s, err := reader.Read()
		if err != nil {
			t.Fatalf("sample %d: %v", i, err)
		}
		acc.AddSample(s)

		if acc.Ready() {
			if err := acc.ReadInto(buf); err != nil {
				t.Fatalf("read window: %v", err)
			}
			res, err := engine.Infer(buf)
			if err != nil {
				t.Fatalf("infer: %v", err)
			}
			queue.Push(res)
		}
	}

	// Drain and emit.
	for {
		res, ok := queue.Pop()
		if !ok {
			break
		}
		if err := emitter.EmitResult(res, nil); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}

	if got := emitter.ResultCount(); got != 2 {
		t.Fatalf("emitted %d results, want 2 (one per window)", got)
	}
	for i, fr := range emitter.Results {
		if fr.Result.Sequence != uint32(i+1) {
			t.Errorf("result %d: Sequence = %d, want %d", i, fr.Result.Sequence, i+1)
		}
		if fr.Result.Label != classify.LabelIdle {
			t.Errorf("result %d: Label = %s, want IDLE early in the schedule", i, fr.Result.Label)
		}
	}
}

// TestIntegrationJSONWireFormat checks the line protocol as an external
// consumer would parse it.
func TestIntegrationJSONWireFormat(t *testing.T) {
	var buf bytes.Buffer
	emitter := output.NewConsole(&buf, output.FormatJSON)

	res := classify.Result{
		Label:       classify.LabelTap,
		Confidence:  0.90,
		DurationUS:  4870,
		TimestampUS: 2_500_000,
		Sequence:    35,
	}
	snap := &health.Snapshot{HeapUsed: 18432, StackUsed: 1200}
	if err := emitter.EmitResult(res, snap); err != nil {
		t.Fatal(err)
	}
	if err := emitter.EmitHeartbeat(90 * time.Second); err != nil {
		t.Fatal(err)
	}
	if err := emitter.EmitError(7, "sensor timeout"); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("line 0: %v", err)
	}
	if rec["type"] != "inference" || rec["gesture"] != "TAP" {
		t.Errorf("line 0 = %v, want inference/TAP", rec)
	}
	if rec["latency_us"] != float64(4870) {
		t.Errorf("latency_us = %v, want 4870", rec["latency_us"])
	}
	if rec["heap"] != float64(18432) {
		t.Errorf("heap = %v, want 18432", rec["heap"])
	}

	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatalf("line 1: %v", err)
	}
	if rec["type"] != "heartbeat" || rec["uptime_ms"] != float64(90000) {
		t.Errorf("line 1 = %v, want heartbeat/90000", rec)
	}

	if err := json.Unmarshal([]byte(lines[2]), &rec); err != nil {
		t.Fatalf("line 2: %v", err)
	}
	if rec["type"] != "error" || rec["code"] != float64(7) {
		t.Errorf("line 2 = %v, want error/7", rec)
	}
}

// TestIntegrationQueueBackpressure verifies the drop-oldest policy across
// the classify/emit boundary.
func TestIntegrationQueueBackpressure(t *testing.T) {
	queue, err := results.New(16)
	if err != nil {
		t.Fatal(err)
	}

	dropped := 0
	for seq := uint32(1); seq <= 20; seq++ {
		if queue.Push(classify.Result{Sequence: seq}) {
			dropped++
		}
	}
	if dropped != 4 {
		t.Errorf("dropped = %d, want 4", dropped)
	}

	// The consumer sees the newest sixteen, oldest first.
	first, ok := queue.Pop()
	if !ok || first.Sequence != 5 {
		t.Errorf("first popped Sequence = %d, want 5", first.Sequence)
	}
}

// TestIntegrationHealthWarningFlow exercises the monitor end to end: a task
// breaching its budget must surface in warnings and in emitted reports.
func TestIntegrationHealthWarningFlow(t *testing.T) {
	monitor := health.New(health.Config{WarnThresholdPercent: 80, TargetTask: "classifier"})

	task := health.NewTask("classifier", 7, 4096)
	if err := monitor.Register(task); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		task.Begin()
		task.SampleStack()
	}()
	<-done

	if issues := monitor.Check(); issues != 0 {
		t.Fatalf("Check = %d issues on a shallow stack, want 0", issues)
	}

	emitter := output.NewFake()
	snap := monitor.Snapshot(nil)
	if err := emitter.EmitHealth(snap); err != nil {
		t.Fatal(err)
	}
	if emitter.HealthCount() != 1 {
		t.Fatalf("HealthCount = %d, want 1", emitter.HealthCount())
	}
	if emitter.Health[0].TargetStackSize != 4096 {
		t.Errorf("TargetStackSize = %d, want 4096", emitter.Health[0].TargetStackSize)
	}
	if emitter.Health[0].StackWarnings != 0 {
		t.Errorf("StackWarnings = %d, want 0", emitter.Health[0].StackWarnings)
	}

	// Quick timing round trip through the same wire the pipeline uses.
	clock := &timing.ManualClock{}
	svc := timing.NewService(clock, 64_000_000)
	start := svc.Start()
	clock.Advance(64 * 250) // 250us
	if got := svc.Elapsed(start); got != 250 {
		t.Errorf("Elapsed = %d us, want 250", got)
	}
}
