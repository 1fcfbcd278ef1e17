//go:build linux

package sensor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads an accelerometer exposed through the Linux IIO subsystem.
// Raw axis values come from the device's sysfs attributes; the sensor's INT1
// data-ready interrupt line is watched through the GPIO character device.
type RealReader struct {
	iioDir string

	chip    *gpiocdev.Chip
	intLine *gpiocdev.Line

	start       time.Time
	initialized bool
	stats       Stats
}

// RealConfig locates the hardware.
type RealConfig struct {
	// IIODir is the IIO device directory, e.g. /sys/bus/iio/devices/iio:device0.
	IIODir string

	// GPIOChip is the GPIO chip name for the data-ready line, e.g. gpiochip0.
	GPIOChip string

	// IntPin is the offset of the sensor's INT1 line on GPIOChip.
	IntPin int
}

// NewRealReader creates a reader for real accelerometer hardware.
func NewRealReader(cfg RealConfig) (*RealReader, error) {
	if cfg.IIODir == "" {
		return nil, fmt.Errorf("sensor: iio device directory not configured")
	}

	chip, err := gpiocdev.NewChip(cfg.GPIOChip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// The INT1 pin is driven by the sensor, so request it as a plain input.
	line, err := chip.RequestLine(cfg.IntPin, gpiocdev.AsInput)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request data-ready pin %d: %w", cfg.IntPin, err)
	}

	return &RealReader{
		iioDir:  cfg.IIODir,
		chip:    chip,
		intLine: line,
	}, nil
}

// Init verifies the IIO attributes are readable.
func (r *RealReader) Init() error {
	for _, axis := range []string{"x", "y", "z"} {
		if _, err := r.readAxis(axis); err != nil {
			return fmt.Errorf("probe in_accel_%s_raw: %w", axis, err)
		}
	}
	r.start = time.Now()
	r.initialized = true
	return nil
}

// Read returns one sample from the IIO raw attributes.
func (r *RealReader) Read() (Sample, error) {
	if !r.initialized {
		return Sample{}, ErrNotInitialized
	}

	x, err := r.readAxis("x")
	if err != nil {
		r.stats.ReadErrors++
		return Sample{}, err
	}
	y, err := r.readAxis("y")
	if err != nil {
		r.stats.ReadErrors++
		return Sample{}, err
	}
	z, err := r.readAxis("z")
	if err != nil {
		r.stats.ReadErrors++
		return Sample{}, err
	}

	r.stats.SamplesRead++
	return Sample{
		X:           x,
		Y:           y,
		Z:           z,
		TimestampUS: uint32(time.Since(r.start).Microseconds()),
	}, nil
}

// DataReady samples the INT1 line. An unreadable line reports not-ready
// rather than failing; DataReady is advisory only.
func (r *RealReader) DataReady() bool {
	if !r.initialized || r.intLine == nil {
		return false
	}
	v, err := r.intLine.Value()
	if err != nil {
		return false
	}
	return v != 0
}

// Close releases the GPIO resources.
func (r *RealReader) Close() error {
	var errs []error
	if r.intLine != nil {
		if err := r.intLine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close data-ready pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// Stats returns read counters.
func (r *RealReader) Stats() Stats { return r.stats }

func (r *RealReader) readAxis(axis string) (int16, error) {
	path := filepath.Join(r.iioDir, "in_accel_"+axis+"_raw")
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return int16(v), nil
}
