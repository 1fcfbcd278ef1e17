package output

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/gesture-sensor/internal/classify"
	"github.com/sweeney/gesture-sensor/internal/health"
)

// ResultRecord is the JSON envelope for a classification result.
type ResultRecord struct {
	Type      string  `json:"type"`
	Seq       uint32  `json:"seq"`
	TS        uint32  `json:"ts"`
	Gesture   string  `json:"gesture"`
	Conf      float32 `json:"conf"`
	LatencyUS uint32  `json:"latency_us"`
	Heap      *uint64 `json:"heap,omitempty"`
	Stack     *int    `json:"stack,omitempty"`
}

// HealthRecord is the JSON envelope for a health report.
type HealthRecord struct {
	Type            string  `json:"type"`
	UptimeMS        int64   `json:"uptime_ms"`
	HeapUsed        uint64  `json:"heap_used"`
	HeapFree        uint64  `json:"heap_free"`
	StackUsed       int     `json:"stack_used"`
	StackSize       int     `json:"stack_size"`
	TargetStackUsed int     `json:"target_stack_used"`
	TargetStackSize int     `json:"target_stack_size"`
	CPUUsage        float32 `json:"cpu_usage"`
	StackWarnings   uint32  `json:"stack_warnings"`
}

// HeartbeatRecord is the JSON envelope for a liveness signal.
type HeartbeatRecord struct {
	Type     string `json:"type"`
	UptimeMS int64  `json:"uptime_ms"`
}

// ErrorRecord is the JSON envelope for a reported error.
type ErrorRecord struct {
	Type    string `json:"type"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// StartupRecord is the JSON envelope for the banner.
type StartupRecord struct {
	Type    string `json:"type"`
	Version string `json:"version"`
	Board   string `json:"board"`
	Session string `json:"session"`
}

// formatter renders records into output lines in one Format. Sequence
// numbering belongs to the emitter that owns the formatter.
type formatter struct {
	format Format
}

func (f formatter) result(seq uint32, res classify.Result, snap *health.Snapshot) ([]byte, error) {
	if f.format == FormatHuman {
		return []byte(fmt.Sprintf("[%d] GESTURE: %s (conf=%.2f, lat=%dus)",
			seq, res.Label, res.Confidence, res.DurationUS)), nil
	}

	rec := ResultRecord{
		Type:      "inference",
		Seq:       seq,
		TS:        res.TimestampUS,
		Gesture:   res.Label.String(),
		Conf:      res.Confidence,
		LatencyUS: res.DurationUS,
	}
	if snap != nil {
		rec.Heap = &snap.HeapUsed
		rec.Stack = &snap.StackUsed
	}
	return json.Marshal(rec)
}

func (f formatter) health(snap health.Snapshot) ([]byte, error) {
	if f.format == FormatHuman {
		return []byte(fmt.Sprintf("[DEBUG] Heap: %d/%d, Stack: %d/%d, CPU: %.1f%%",
			snap.HeapUsed, snap.HeapUsed+snap.HeapFree,
			snap.StackUsed, snap.StackSize, snap.CPUPercent)), nil
	}

	return json.Marshal(HealthRecord{
		Type:            "debug",
		UptimeMS:        snap.UptimeMS,
		HeapUsed:        snap.HeapUsed,
		HeapFree:        snap.HeapFree,
		StackUsed:       snap.StackUsed,
		StackSize:       snap.StackSize,
		TargetStackUsed: snap.TargetStackUsed,
		TargetStackSize: snap.TargetStackSize,
		CPUUsage:        snap.CPUPercent,
		StackWarnings:   snap.StackWarnings,
	})
}

func (f formatter) heartbeat(uptime time.Duration) ([]byte, error) {
	if f.format == FormatHuman {
		return []byte(fmt.Sprintf("[HEARTBEAT] Uptime: %d ms", uptime.Milliseconds())), nil
	}
	return json.Marshal(HeartbeatRecord{Type: "heartbeat", UptimeMS: uptime.Milliseconds()})
}

func (f formatter) error(code int, message string) ([]byte, error) {
	if message == "" {
		message = "unknown"
	}
	if f.format == FormatHuman {
		return []byte(fmt.Sprintf("[ERROR] Code %d: %s", code, message)), nil
	}
	return json.Marshal(ErrorRecord{Type: "error", Code: code, Message: message})
}

func (f formatter) banner(info Info) ([]byte, error) {
	if f.format == FormatHuman {
		return []byte(fmt.Sprintf("=== gesture-sensor %s (%s) session %s ===",
			info.Version, info.Platform, info.SessionID)), nil
	}
	return json.Marshal(StartupRecord{
		Type:    "startup",
		Version: info.Version,
		Board:   info.Platform,
		Session: info.SessionID,
	})
}
