package serialcomm

import (
	"errors"
	"fmt"

	"github.com/tarm/serial"

	"github.com/clint456/sirflink/frame"
	"github.com/clint456/sirflink/internal/metrics"
)

// OpenPort opens the configured serial device as 8N1.
func OpenPort(cfg *SerialConfig) (*serial.Port, error) {
	c := withDefaults(cfg)
	port, err := serial.OpenPort(&serial.Config{
		Name:        c.PortName,
		Baud:        c.BaudRate,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: c.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", c.PortName, err)
	}
	return port, nil
}

func withDefaults(cfg *SerialConfig) SerialConfig {
	var c SerialConfig
	if cfg != nil {
		c = *cfg
	}
	if c.PortName == "" {
		c.PortName = DefaultPortName
	}
	if c.BaudRate <= 0 {
		c.BaudRate = DefaultBaudRate
	}
	return c
}

// failureReasons classifies a validation error for telemetry. A body that
// fails both field checks yields both reasons.
func failureReasons(err error) []string {
	switch {
	case errors.Is(err, frame.ErrShortBody):
		return []string{metrics.ReasonShort}
	case errors.Is(err, frame.ErrEmptyPayload):
		return []string{metrics.ReasonEmpty}
	}
	var reasons []string
	if errors.Is(err, frame.ErrLengthMismatch) {
		reasons = append(reasons, metrics.ReasonLength)
	}
	if errors.Is(err, frame.ErrChecksumMismatch) {
		reasons = append(reasons, metrics.ReasonChecksum)
	}
	return reasons
}
