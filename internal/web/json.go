package web

import (
	"encoding/json"
	"time"

	"github.com/sweeney/gesture-sensor/internal/health"
	"github.com/sweeney/gesture-sensor/internal/pipeline"
)

// HealthJSON is the JSON representation of the daemon's health report.
type HealthJSON struct {
	Health HealthInner `json:"health"`
}

// HealthInner contains the report details.
type HealthInner struct {
	Healthy       bool   `json:"healthy"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`

	Heap     HeapJSON     `json:"heap"`
	Stack    StackJSON    `json:"stack"`
	CPU      float32      `json:"cpu_usage"`
	Counters CountersJSON `json:"counters"`
	Infer    InferJSON    `json:"inference"`
}

// HeapJSON reports heap figures in bytes.
type HeapJSON struct {
	Used uint64 `json:"used"`
	Free uint64 `json:"free"`
}

// StackJSON reports the classifier task's stack figures.
type StackJSON struct {
	Used     int    `json:"used"`
	Size     int    `json:"size"`
	Warnings uint32 `json:"warnings"`
}

// CountersJSON is the JSON representation of the pipeline counters.
type CountersJSON struct {
	SamplesRead       uint32 `json:"samples_read"`
	ReadErrors        uint32 `json:"read_errors"`
	WindowsClassified uint32 `json:"windows_classified"`
	InferErrors       uint32 `json:"infer_errors"`
	ResultsDropped    uint32 `json:"results_dropped"`
	ResultsEmitted    uint32 `json:"results_emitted"`
	EmitErrors        uint32 `json:"emit_errors"`
}

// InferJSON is the JSON representation of inference latency statistics.
type InferJSON struct {
	MinUS uint32 `json:"min_us"`
	MaxUS uint32 `json:"max_us"`
	AvgUS uint32 `json:"avg_us"`
	Count uint32 `json:"count"`
}

func formatJSON(snap health.Snapshot, stats pipeline.Stats, healthy bool, now time.Time) []byte {
	hj := HealthJSON{
		Health: HealthInner{
			Healthy:       healthy,
			UptimeSeconds: snap.UptimeMS / 1000,
			Timestamp:     now.UTC().Format(time.RFC3339),
			Heap:          HeapJSON{Used: snap.HeapUsed, Free: snap.HeapFree},
			Stack: StackJSON{
				Used:     snap.TargetStackUsed,
				Size:     snap.TargetStackSize,
				Warnings: snap.StackWarnings,
			},
			CPU: snap.CPUPercent,
			Counters: CountersJSON{
				SamplesRead:       stats.SamplesRead,
				ReadErrors:        stats.ReadErrors,
				WindowsClassified: stats.WindowsClassified,
				InferErrors:       stats.InferErrors,
				ResultsDropped:    stats.ResultsDropped,
				ResultsEmitted:    stats.ResultsEmitted,
				EmitErrors:        stats.EmitErrors,
			},
			Infer: InferJSON{
				MinUS: stats.Infer.MinUS,
				MaxUS: stats.Infer.MaxUS,
				AvgUS: stats.Infer.AvgUS,
				Count: stats.Infer.Count,
			},
		},
	}

	data, _ := json.MarshalIndent(hj, "", "  ")
	return data
}
