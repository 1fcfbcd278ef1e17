package output

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialConfig locates and configures the UART.
type SerialConfig struct {
	// Port is the device path, e.g. /dev/ttyUSB0.
	Port string

	// BaudRate defaults to 115200.
	BaudRate int
}

// NewSerial opens a serial port and returns an emitter writing
// newline-terminated records to it.
func NewSerial(cfg SerialConfig, format Format) (*LineEmitter, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("output: serial port not configured")
	}
	baud := cfg.BaudRate
	if baud <= 0 {
		baud = 115200
	}

	port, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", cfg.Port, err)
	}

	e := NewConsole(port, format)
	e.closer = port
	return e, nil
}
