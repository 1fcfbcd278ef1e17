package health

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestTaskMetadata(t *testing.T) {
	task := NewTask("classifier", 7, 4096)
	if task.Name() != "classifier" {
		t.Errorf("Name = %q, want classifier", task.Name())
	}
	if task.Priority() != 7 {
		t.Errorf("Priority = %d, want 7", task.Priority())
	}
	if task.StackBudget() != 4096 {
		t.Errorf("StackBudget = %d, want 4096", task.StackBudget())
	}
}

func TestTaskStackSampling(t *testing.T) {
	task := NewTask("t", 1, 64*1024)

	done := make(chan struct{})
	go func() {
		defer close(done)
		task.Begin()
		burnStack(task, 20)
	}()
	<-done

	if task.StackUsed() <= 0 {
		t.Errorf("StackUsed = %d, want > 0 after deep sample", task.StackUsed())
	}
	if task.StackPeak() < task.StackUsed() {
		t.Errorf("StackPeak %d < StackUsed %d", task.StackPeak(), task.StackUsed())
	}
}

// burnStack recurses to push the sample point away from the base mark.
func burnStack(task *Task, depth int) int {
	var pad [256]byte
	pad[0] = byte(depth)
	if depth == 0 {
		task.SampleStack()
		return int(pad[0])
	}
	return burnStack(task, depth-1) + int(pad[0])
}

func TestTaskPeakMonotonic(t *testing.T) {
	task := NewTask("t", 1, 64*1024)

	done := make(chan struct{})
	go func() {
		defer close(done)
		task.Begin()
		burnStack(task, 30)
		peak := task.StackPeak()
		task.SampleStack() // shallow sample, gauge drops
		if task.StackPeak() < peak {
			t.Errorf("peak dropped from %d to %d", peak, task.StackPeak())
		}
	}()
	<-done
}

func TestTaskSampleBeforeBegin(t *testing.T) {
	task := NewTask("t", 1, 1024)
	task.SampleStack() // no base mark yet; must not panic or record
	if task.StackUsed() != 0 {
		t.Errorf("StackUsed = %d before Begin, want 0", task.StackUsed())
	}
}

func TestTaskStackPercent(t *testing.T) {
	task := NewTask("t", 1, 1000)
	task.stackUsed.Store(850)
	if got := task.StackPercent(); got != 85 {
		t.Errorf("StackPercent = %d, want 85", got)
	}

	unbudgeted := NewTask("t", 1, 0)
	unbudgeted.stackUsed.Store(500)
	if got := unbudgeted.StackPercent(); got != 0 {
		t.Errorf("StackPercent without budget = %d, want 0", got)
	}
}

func TestTaskBusyAccumulates(t *testing.T) {
	task := NewTask("t", 1, 1024)
	task.AddBusy(10 * time.Millisecond)
	task.AddBusy(5 * time.Millisecond)
	task.AddBusy(-time.Millisecond) // ignored
	if task.Busy() != 15*time.Millisecond {
		t.Errorf("Busy = %v, want 15ms", task.Busy())
	}
}

func TestRegisterCap(t *testing.T) {
	m := New(Config{MaxTasks: 2})

	if err := m.Register(NewTask("a", 1, 100)); err != nil {
		t.Fatalf("Register a: %v", err)
	}
	if err := m.Register(NewTask("b", 2, 100)); err != nil {
		t.Fatalf("Register b: %v", err)
	}
	if err := m.Register(NewTask("c", 3, 100)); !errors.Is(err, ErrRegistryFull) {
		t.Errorf("Register past cap = %v, want ErrRegistryFull", err)
	}
}

func TestRegisterNil(t *testing.T) {
	m := New(Config{})
	if err := m.Register(nil); err == nil {
		t.Error("Register(nil) succeeded, want error")
	}
}

func TestRegisterDefaultCap(t *testing.T) {
	m := New(Config{})
	for i := 0; i < DefaultMaxTasks; i++ {
		if err := m.Register(NewTask(fmt.Sprintf("t%d", i), i, 100)); err != nil {
			t.Fatalf("Register %d: %v", i, err)
		}
	}
	if err := m.Register(NewTask("extra", 99, 100)); !errors.Is(err, ErrRegistryFull) {
		t.Errorf("Register past default cap = %v, want ErrRegistryFull", err)
	}
}

func TestCheckCountsBreaches(t *testing.T) {
	m := New(Config{WarnThresholdPercent: 80})

	ok := NewTask("ok", 1, 1000)
	ok.stackUsed.Store(500)
	hot := NewTask("hot", 2, 1000)
	hot.stackUsed.Store(900)

	if err := m.Register(ok); err != nil {
		t.Fatal(err)
	}
	if err := m.Register(hot); err != nil {
		t.Fatal(err)
	}

	if issues := m.Check(); issues != 1 {
		t.Errorf("Check = %d issues, want 1", issues)
	}
	if m.Healthy() {
		t.Error("Healthy = true with a task over threshold")
	}
	if m.Warnings() < 2 {
		t.Errorf("Warnings = %d, want >= 2 after two sweeps", m.Warnings())
	}
}

func TestCheckThresholdBoundary(t *testing.T) {
	m := New(Config{WarnThresholdPercent: 80})

	at := NewTask("at", 1, 1000)
	at.stackUsed.Store(800) // exactly 80%: not a breach
	if err := m.Register(at); err != nil {
		t.Fatal(err)
	}

	if issues := m.Check(); issues != 0 {
		t.Errorf("Check = %d issues at exactly the threshold, want 0", issues)
	}
}

func TestSnapshotFields(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	m := New(Config{TargetTask: "classifier", Now: func() time.Time { return current }})

	target := NewTask("classifier", 7, 4096)
	target.stackUsed.Store(1234)
	if err := m.Register(target); err != nil {
		t.Fatal(err)
	}

	self := NewTask("monitor", 11, 2048)
	self.stackUsed.Store(256)

	current = base.Add(5 * time.Second)
	snap := m.Snapshot(self)

	if snap.UptimeMS != 5000 {
		t.Errorf("UptimeMS = %d, want 5000", snap.UptimeMS)
	}
	if snap.HeapUsed == 0 {
		t.Error("HeapUsed = 0, want live heap figure")
	}
	if snap.StackUsed != 256 || snap.StackSize != 2048 {
		t.Errorf("self stack = %d/%d, want 256/2048", snap.StackUsed, snap.StackSize)
	}
	if snap.TargetStackUsed != 1234 || snap.TargetStackSize != 4096 {
		t.Errorf("target stack = %d/%d, want 1234/4096", snap.TargetStackUsed, snap.TargetStackSize)
	}
	if snap.CPUPercent != 0 {
		t.Errorf("CPUPercent = %v on first snapshot, want 0", snap.CPUPercent)
	}
}

func TestSnapshotNilSelf(t *testing.T) {
	m := New(Config{})
	snap := m.Snapshot(nil)
	if snap.StackUsed != 0 || snap.StackSize != 0 {
		t.Errorf("stack = %d/%d with nil self, want 0/0", snap.StackUsed, snap.StackSize)
	}
}

func TestSnapshotCPUEstimate(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	m := New(Config{Now: func() time.Time { return current }})

	task := NewTask("worker", 1, 1024)
	if err := m.Register(task); err != nil {
		t.Fatal(err)
	}

	m.Snapshot(nil) // establish the reference point

	// 250ms busy across a 1s wall interval = 25%.
	task.AddBusy(250 * time.Millisecond)
	current = current.Add(time.Second)
	snap := m.Snapshot(nil)

	if snap.CPUPercent < 24.9 || snap.CPUPercent > 25.1 {
		t.Errorf("CPUPercent = %v, want ~25", snap.CPUPercent)
	}
}
