package health

import (
	"sync/atomic"
	"time"
	"unsafe"
)

// Task is the monitoring handle for one pipeline goroutine. The task itself
// updates its stack gauge and busy-time accumulator from inside its loop;
// the monitor reads them.
type Task struct {
	name        string
	priority    int
	stackBudget int

	// base is the stack address recorded by Begin, used as the reference
	// point for usage estimates.
	base atomic.Uintptr

	stackUsed atomic.Int64 // last sampled usage, bytes
	stackPeak atomic.Int64 // monotonic high-water mark, bytes
	busyNS    atomic.Int64 // accumulated working time
}

// NewTask creates a handle with the given name, priority rank (lower rank =
// more important) and stack budget in bytes.
func NewTask(name string, priority, stackBudget int) *Task {
	return &Task{name: name, priority: priority, stackBudget: stackBudget}
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Priority returns the declared priority rank.
func (t *Task) Priority() int { return t.priority }

// StackBudget returns the declared stack budget in bytes.
func (t *Task) StackBudget() int { return t.stackBudget }

// Begin records the reference stack position. Call once at the top of the
// task's goroutine, before any deep calls.
func (t *Task) Begin() {
	t.base.Store(stackMark())
}

// SampleStack updates the usage gauge and peak from the caller's current
// stack position. Must be called from the task's own goroutine. The figure
// is an estimate and a floor: Go may move goroutine stacks, and frames
// above the sample point are not seen.
func (t *Task) SampleStack() {
	base := t.base.Load()
	if base == 0 {
		return
	}
	cur := stackMark()

	var used int64
	if base >= cur {
		used = int64(base - cur)
	} else {
		used = int64(cur - base)
	}
	t.stackUsed.Store(used)
	for {
		peak := t.stackPeak.Load()
		if used <= peak || t.stackPeak.CompareAndSwap(peak, used) {
			return
		}
	}
}

// StackUsed returns the last sampled stack usage in bytes.
func (t *Task) StackUsed() int { return int(t.stackUsed.Load()) }

// StackPeak returns the high-water mark in bytes. Monotonic non-decreasing
// for the task's lifetime.
func (t *Task) StackPeak() int { return int(t.stackPeak.Load()) }

// StackPercent returns current usage as a percentage of the budget. Returns
// 0 when the budget is unknown or nothing has been sampled; never fails.
func (t *Task) StackPercent() int {
	if t.stackBudget <= 0 {
		return 0
	}
	return int(t.stackUsed.Load() * 100 / int64(t.stackBudget))
}

// AddBusy accumulates working time for the CPU usage estimate.
func (t *Task) AddBusy(d time.Duration) {
	if d > 0 {
		t.busyNS.Add(int64(d))
	}
}

// Busy returns the total accumulated working time.
func (t *Task) Busy() time.Duration {
	return time.Duration(t.busyNS.Load())
}

// stackMark returns an address on the caller's stack.
func stackMark() uintptr {
	var b byte
	return uintptr(unsafe.Pointer(&b))
}
