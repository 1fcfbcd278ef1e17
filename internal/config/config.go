// Package config loads daemon settings from a YAML file, environment
// variables, and defaults, in that order of precedence.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the daemon configuration.
type Config struct {
	// SampleRateHz is the accelerometer sampling rate.
	SampleRateHz int `mapstructure:"sample_rate_hz"`

	// WindowSize is the number of samples per classification window.
	WindowSize int `mapstructure:"window_size"`

	// QueueCapacity bounds the result queue; oldest results are dropped
	// when it is full.
	QueueCapacity int `mapstructure:"queue_capacity"`

	// StackWarnPercent is the stack usage threshold that counts as a
	// health warning.
	StackWarnPercent int `mapstructure:"stack_warn_percent"`

	// MaxMonitoredTasks caps the health monitor's task registry.
	MaxMonitoredTasks int `mapstructure:"max_monitored_tasks"`

	// MonitorPeriod is the interval between health sweeps.
	MonitorPeriod time.Duration `mapstructure:"monitor_period"`

	// ClassifyWait bounds how long the classifier waits for a window
	// before ticking idle.
	ClassifyWait time.Duration `mapstructure:"classify_wait"`

	// EmitPoll is the result queue polling interval.
	EmitPoll time.Duration `mapstructure:"emit_poll"`

	// HeartbeatPeriod is the interval between liveness records.
	HeartbeatPeriod time.Duration `mapstructure:"heartbeat_period"`

	// ClockHz is the virtual cycle counter frequency.
	ClockHz uint64 `mapstructure:"clock_hz"`

	// Sensor selects the accelerometer backend: "sim" or "real".
	Sensor string `mapstructure:"sensor"`

	// Outputs lists enabled emitters: console, serial, mqtt.
	Outputs []string `mapstructure:"outputs"`

	// Format selects the record encoding: "json" or "human".
	Format string `mapstructure:"format"`

	// HTTPAddr is the debug HTTP listen address; empty disables it.
	HTTPAddr string `mapstructure:"http_addr"`

	Serial SerialConfig `mapstructure:"serial"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
	Real   RealConfig   `mapstructure:"real"`
	Sim    SimConfig    `mapstructure:"sim"`
}

// SerialConfig locates the UART output.
type SerialConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
}

// MQTTConfig locates the broker.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
}

// RealConfig locates the hardware accelerometer.
type RealConfig struct {
	IIODir   string `mapstructure:"iio_dir"`
	GPIOChip string `mapstructure:"gpio_chip"`
	IntPin   int    `mapstructure:"int_pin"`
}

// SimConfig tunes the simulated accelerometer.
type SimConfig struct {
	// GestureInterval is the spacing between injected gestures.
	GestureInterval time.Duration `mapstructure:"gesture_interval"`
}

// Load reads configuration from the given file (or the default search
// path when path is empty), layered under GESTURE_* environment
// variables and the built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("gesture-sensor")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/gesture-sensor/")
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("GESTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("sample_rate_hz", 100)
	v.SetDefault("window_size", 50)
	v.SetDefault("queue_capacity", 16)
	v.SetDefault("stack_warn_percent", 80)
	v.SetDefault("max_monitored_tasks", 8)
	v.SetDefault("monitor_period", "1s")
	v.SetDefault("classify_wait", "1s")
	v.SetDefault("emit_poll", "10ms")
	v.SetDefault("heartbeat_period", "10s")
	v.SetDefault("clock_hz", 64_000_000)
	v.SetDefault("sensor", "sim")
	v.SetDefault("outputs", []string{"console"})
	v.SetDefault("format", "json")
	v.SetDefault("http_addr", "")
	v.SetDefault("serial.baud_rate", 115200)
	v.SetDefault("mqtt.client_id", "gesture-sensor")
	v.SetDefault("real.iio_dir", "/sys/bus/iio/devices/iio:device0")
	v.SetDefault("real.gpio_chip", "gpiochip0")
	v.SetDefault("real.int_pin", 17)
	v.SetDefault("sim.gesture_interval", "3s")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		log.Printf("no config file found, using defaults")
	} else {
		log.Printf("using config file: %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("sample_rate_hz must be positive, got %d", c.SampleRateHz)
	}
	if c.WindowSize <= 0 {
		return fmt.Errorf("window_size must be positive, got %d", c.WindowSize)
	}
	if c.QueueCapacity <= 0 {
		return fmt.Errorf("queue_capacity must be positive, got %d", c.QueueCapacity)
	}
	if c.StackWarnPercent <= 0 || c.StackWarnPercent > 100 {
		return fmt.Errorf("stack_warn_percent must be in (0,100], got %d", c.StackWarnPercent)
	}
	if c.MaxMonitoredTasks <= 0 {
		return fmt.Errorf("max_monitored_tasks must be positive, got %d", c.MaxMonitoredTasks)
	}
	switch c.Sensor {
	case "sim", "real":
	default:
		return fmt.Errorf("unknown sensor backend %q", c.Sensor)
	}
	switch c.Format {
	case "json", "human", "":
	default:
		return fmt.Errorf("unknown output format %q", c.Format)
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("at least one output is required")
	}
	for _, o := range c.Outputs {
		switch o {
		case "console", "serial", "mqtt":
		default:
			return fmt.Errorf("unknown output %q", o)
		}
	}
	for _, o := range c.Outputs {
		if o == "serial" && c.Serial.Port == "" {
			return fmt.Errorf("serial output enabled but serial.port not set")
		}
		if o == "mqtt" && c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt output enabled but mqtt.broker not set")
		}
	}
	return nil
}

// SamplePeriod derives the sampler tick from the sample rate.
func (c *Config) SamplePeriod() time.Duration {
	return time.Second / time.Duration(c.SampleRateHz)
}
