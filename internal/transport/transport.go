// Package transport contains the sinks that LED frames are written to.
package transport

import (
	"context"
	"io"
	"log/slog"

	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/pkg/errors"
)

// Transport writes frames to an LED device.
type Transport interface {
	// Write pushes a frame to the device. The transport must not retain leds
	// after Write returns.
	Write(leds led.LEDs) error
	io.Closer
}

// Runner is implemented by transports that need background work, such as
// reading packets from a device or serving clients. Run blocks until ctx is
// canceled or the transport fails.
type Runner interface {
	Run(ctx context.Context) error
}

// Kind is the kind of transport.
type Kind string

const (
	// FrameworkKind drives the Framework Laptop's RGB fan through
	// framework_tool.
	FrameworkKind Kind = "framework"
	// SerialKind drives a microcontroller speaking the ledserial protocol.
	SerialKind Kind = "serial"
	// SPIKind drives a WS2812 strip over SPI.
	SPIKind Kind = "spi"
	// PreviewKind streams frames to websocket clients.
	PreviewKind Kind = "preview"
	// TextKind prints frames as hex.
	TextKind Kind = "text"
)

// Kinds lists every transport kind.
var Kinds = []Kind{FrameworkKind, SerialKind, SPIKind, PreviewKind, TextKind}

func (k *Kind) UnmarshalText(text []byte) error {
	for _, kind := range Kinds {
		if string(text) == string(kind) {
			*k = kind
			return nil
		}
	}
	return errors.Errorf("unknown transport %q (valid: %v)", text, Kinds)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k), nil
}

// Config is the configuration of a transport. Only the fields relevant to
// Kind are used.
type Config struct {
	Kind Kind

	// FrameworkTool is the path to the framework_tool binary.
	FrameworkTool string

	// Device is the serial device, usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string
	// Baud is the serial baud rate.
	Baud int

	// SPIPort is the SPI port name. An empty name picks the first port.
	SPIPort string
	// SPIFreqKHz is the SPI clock in kHz.
	SPIFreqKHz int

	// Addr is the preview server's listen address.
	Addr string

	// Output is where the text transport writes. It defaults to stdout.
	Output io.Writer
}

// DefaultConfig returns the defaults of every transport.
func DefaultConfig() Config {
	return Config{
		Kind:          FrameworkKind,
		FrameworkTool: "framework_tool",
		Device:        "/dev/ttyACM0",
		Baud:          115200,
		SPIFreqKHz:    2500,
		Addr:          "localhost:8080",
	}
}

// Open opens the transport described by cfg for a strip of numLEDs LEDs.
func Open(cfg Config, numLEDs int, logger *slog.Logger) (Transport, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("transport", cfg.Kind)

	switch cfg.Kind {
	case FrameworkKind:
		return NewFramework(cfg.FrameworkTool, logger), nil
	case SerialKind:
		s, err := OpenSerial(cfg.Device, cfg.Baud, numLEDs, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case SPIKind:
		s, err := OpenSPI(cfg.SPIPort, cfg.SPIFreqKHz, numLEDs, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case PreviewKind:
		return NewPreview(cfg.Addr, logger), nil
	case TextKind:
		return NewText(cfg.Output), nil
	default:
		return nil, errors.Errorf("unknown transport %q", cfg.Kind)
	}
}
