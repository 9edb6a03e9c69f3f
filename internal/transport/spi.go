package transport

import (
	"log/slog"

	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPI drives a WS2812 (NRZ) strip wired to an SPI port's MOSI pin.
type SPI struct {
	port   spi.PortCloser
	dev    *nrzled.Dev
	logger *slog.Logger
}

var _ Transport = (*SPI)(nil)

// OpenSPI initializes the host drivers and opens the named SPI port. An
// empty name opens the first available port.
func OpenSPI(name string, freqKHz, numLEDs int, logger *slog.Logger) (*SPI, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize host drivers")
	}

	port, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open SPI port %q", name)
	}

	return NewSPI(port, freqKHz, numLEDs, logger)
}

// NewSPI creates an SPI transport on an open port. The port is closed if the
// strip cannot be set up.
func NewSPI(port spi.PortCloser, freqKHz, numLEDs int, logger *slog.Logger) (*SPI, error) {
	dev, err := nrzled.NewSPI(port, &nrzled.Opts{
		NumPixels: numLEDs,
		Channels:  3,
		Freq:      physic.Frequency(freqKHz) * physic.KiloHertz,
	})
	if err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to create NRZ LED device")
	}

	logger.Debug(
		"opened SPI LED strip",
		"device", dev.String(),
		"leds", numLEDs)

	return &SPI{
		port:   port,
		dev:    dev,
		logger: logger,
	}, nil
}

// Write sends the frame down the strip.
func (s *SPI) Write(leds led.LEDs) error {
	if _, err := s.dev.Write(leds.AsPixels()); err != nil {
		return errors.Wrap(err, "failed to write to SPI strip")
	}
	return nil
}

// Close turns the strip off and closes the port.
func (s *SPI) Close() error {
	haltErr := s.dev.Halt()
	if err := s.port.Close(); err != nil {
		return errors.Wrap(err, "failed to close SPI port")
	}
	return errors.Wrap(haltErr, "failed to halt SPI strip")
}
