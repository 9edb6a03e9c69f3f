package transport

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/jazz-g/framework-rgbafan/ledserial"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
)

// Serial drives an LED controller over a serial port using the ledserial
// protocol. The strip is initialized when Run starts, and a frame is only sent
// once the controller has acknowledged the previous packet; frames written
// while the controller is busy are dropped.
type Serial struct {
	port    io.ReadWriteCloser
	numLEDs int
	logger  *slog.Logger

	writeMu sync.Mutex
	ready   chan struct{}
}

var (
	_ Transport = (*Serial)(nil)
	_ Runner    = (*Serial)(nil)
)

// OpenSerial opens the serial device at the given baud rate.
func OpenSerial(device string, baud, numLEDs int, logger *slog.Logger) (*Serial, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open serial port")
	}

	if err := port.SetReadTimeout(serial.NoTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "failed to reset read timeout")
	}

	return NewSerial(port, numLEDs, logger), nil
}

// NewSerial creates a Serial transport over an already open port.
func NewSerial(port io.ReadWriteCloser, numLEDs int, logger *slog.Logger) *Serial {
	return &Serial{
		port:    port,
		numLEDs: numLEDs,
		logger:  logger,
		ready:   make(chan struct{}, 1),
	}
}

// Run initializes the strip and handles packets from the controller until
// ctx is canceled or the controller reports an error.
func (s *Serial) Run(ctx context.Context) error {
	errg, ctx := errgroup.WithContext(ctx)

	errg.Go(func() error {
		<-ctx.Done()
		s.logger.Debug("closing serial port")
		if err := s.port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})

	errg.Go(func() error {
		s.logger.Debug("sending initialize packet")
		if err := s.writePacket(ledserial.InitializePacket{NumLEDs: uint16(s.numLEDs)}); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "failed to initialize LEDs")
		}
		return nil
	})

	errg.Go(func() error {
		return s.readPackets(ctx)
	})

	return errg.Wait()
}

// Write sends the frame if the controller is ready for it.
func (s *Serial) Write(leds led.LEDs) error {
	select {
	case <-s.ready:
	default:
		s.logger.Debug("controller busy, dropping frame")
		return nil
	}

	return s.writePacket(ledserial.SetPacket{Pix: leds.AsPixels()})
}

// Close closes the serial port.
func (s *Serial) Close() error {
	return s.port.Close()
}

func (s *Serial) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadDevicePacket(s.port)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A short read indicates a timeout. This is expected.
			if errors.Is(err, io.EOF) {
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		if err := s.handlePacket(p); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func (s *Serial) handlePacket(p ledserial.DevicePacket) error {
	switch p := p.(type) {
	case ledserial.AckPacket:
		s.logger.Debug(
			"received ack packet from controller",
			"acked_for", p.For)

		select {
		case s.ready <- struct{}{}:
		default:
		}

	case ledserial.ErrorPacket:
		s.logger.Warn(
			"received error packet from controller",
			"message", p.Message)
		return errors.Errorf("controller reported error: %s", p.Message)

	case ledserial.PanicPacket:
		s.logger.Error(
			"controller unrecoverably panicked",
			"message", p.Message)
		return errors.Errorf("controller panicked: %s", p.Message)

	case ledserial.LogPacket:
		s.logger.Info(
			"received log packet from controller",
			"message", p.Message)

	default:
		return errors.Errorf("received unknown packet from controller: %s", p.Type())
	}

	return nil
}

func (s *Serial) writePacket(p ledserial.HostPacket) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.logger.Debug(
		"writing packet",
		"type", p.Type())

	return ledserial.WriteHostPacket(s.port, p)
}
