// Package health provides runtime health monitoring for the pipeline:
// per-task stack usage with high-water tracking and threshold warnings, heap
// figures, and a CPU-load estimate. Gradual stack growth past a task's
// budget is flagged while it is still just a warning.
package health

import (
	"errors"
	"log"
	"runtime"
	"sync"
	"time"
)

// Defaults for Config zero values.
const (
	DefaultMaxTasks      = 8
	DefaultWarnThreshold = 80
)

// ErrRegistryFull is returned by Register once the task cap is reached.
var ErrRegistryFull = errors.New("health: max monitored tasks reached")

// Config configures a Monitor.
type Config struct {
	// MaxTasks caps the registry. Defaults to DefaultMaxTasks.
	MaxTasks int

	// WarnThresholdPercent is the stack usage level that counts as an
	// issue. Defaults to DefaultWarnThreshold.
	WarnThresholdPercent int

	// TargetTask names the task whose stack figures are surfaced in
	// every snapshot (the classifier in this system).
	TargetTask string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Snapshot is a point-in-time health report. Field groups are read under
// independent brief locks, so values may be mutually inconsistent by a few
// microseconds; consumers are dashboards and logs, which tolerate that.
type Snapshot struct {
	UptimeMS int64

	HeapUsed uint64
	HeapFree uint64

	// Calling task's stack figures; zero when unknown.
	StackUsed int
	StackSize int

	// Target task's stack figures; zero when not registered.
	TargetStackUsed int
	TargetStackSize int

	CPUPercent float32

	StackWarnings uint32
}

// Monitor samples registered tasks and assembles health snapshots.
type Monitor struct {
	cfg   Config
	now   func() time.Time
	start time.Time

	mu       sync.Mutex
	tasks    []*Task
	warnings uint32

	// previous snapshot reference point for the CPU estimate
	lastSnapAt time.Time
	lastBusy   time.Duration
}

// New creates a Monitor.
func New(cfg Config) *Monitor {
	if cfg.MaxTasks <= 0 {
		cfg.MaxTasks = DefaultMaxTasks
	}
	if cfg.WarnThresholdPercent <= 0 {
		cfg.WarnThresholdPercent = DefaultWarnThreshold
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		cfg:   cfg,
		now:   now,
		start: now(),
	}
}

// Register adds a task to the registry. Fails once the cap is reached.
// Duplicate registration is not deduplicated; that is the caller's
// responsibility.
func (m *Monitor) Register(t *Task) error {
	if t == nil {
		return errors.New("health: nil task")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.tasks) >= m.cfg.MaxTasks {
		log.Printf("health: max monitored tasks reached, cannot register %q", t.Name())
		return ErrRegistryFull
	}
	m.tasks = append(m.tasks, t)
	return nil
}

// Check sweeps all registered tasks, compares usage against the warning
// threshold, and returns the number of issues found. Zero issues is
// healthy. Each breach also increments the cumulative warning counter.
func (m *Monitor) Check() int {
	m.mu.Lock()
	tasks := make([]*Task, len(m.tasks))
	copy(tasks, m.tasks)
	m.mu.Unlock()

	issues := 0
	for _, t := range tasks {
		pct := t.StackPercent()
		if pct > m.cfg.WarnThresholdPercent {
			log.Printf("health: task %q stack at %d%% of %d bytes",
				t.Name(), pct, t.StackBudget())
			issues++
			m.mu.Lock()
			m.warnings++
			m.mu.Unlock()
		}
	}
	return issues
}

// Healthy reports whether the last sweep found no issues.
func (m *Monitor) Healthy() bool { return m.Check() == 0 }

// Warnings returns the cumulative stack warning count.
func (m *Monitor) Warnings() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.warnings
}

// Snapshot assembles a health report. self identifies the calling task and
// may be nil. The CPU figure is the share of wall time the pipeline tasks
// spent working since the previous snapshot; the first call reports 0.
func (m *Monitor) Snapshot(self *Task) Snapshot {
	var snap Snapshot
	snap.UptimeMS = m.now().Sub(m.start).Milliseconds()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	snap.HeapUsed = ms.HeapAlloc
	snap.HeapFree = ms.HeapIdle

	if self != nil {
		snap.StackUsed = self.StackUsed()
		snap.StackSize = self.StackBudget()
	}

	m.mu.Lock()
	var totalBusy time.Duration
	for _, t := range m.tasks {
		totalBusy += t.Busy()
		if m.cfg.TargetTask != "" && t.Name() == m.cfg.TargetTask {
			snap.TargetStackUsed = t.StackUsed()
			snap.TargetStackSize = t.StackBudget()
		}
	}

	now := m.now()
	if !m.lastSnapAt.IsZero() {
		wall := now.Sub(m.lastSnapAt)
		busy := totalBusy - m.lastBusy
		if wall > 0 && busy >= 0 {
			snap.CPUPercent = float32(busy) * 100 / float32(wall)
		}
	}
	m.lastSnapAt = now
	m.lastBusy = totalBusy

	snap.StackWarnings = m.warnings
	m.mu.Unlock()

	return snap
}
