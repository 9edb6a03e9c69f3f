// Package ledvis implements the audio-reactive visualizer. It reads raw PCM
// from a named pipe, runs an FFT over fixed-size windows and maps the energy
// of a handful of frequency bands onto the LEDs.
package ledvis

import (
	"log/slog"
	"time"

	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/dsp/fourier"
)

// DefaultPipePath is the named pipe that MPD's fifo output writes to.
const DefaultPipePath = "/tmp/rgb.fifo"

// Fallback is the animation rendered when no audio has been heard for a while.
type Fallback interface {
	// Render advances the fallback animation by one step and draws it into
	// leds.
	Render(leds led.LEDs)
}

// Config is the configuration for the visualizer.
type Config struct {
	// PipePath is the path of the named pipe to read PCM from.
	PipePath string
	// ReadSize is the maximum number of bytes read from the pipe per tick.
	ReadSize int
	// FFTSize is the number of mono samples per FFT window.
	FFTSize int
	// Bands are the FFT bin ranges mapped to the LEDs, one band per LED.
	Bands []Band
	// BandColors are the colors of each band at full amplitude.
	BandColors []led.RGBColor
	// Gain scales band magnitudes before log compression.
	Gain float64
	// Decay is the factor applied to every channel on ticks between FFT
	// windows.
	Decay float64
	// Silence is how long the pipe may stay quiet before the fallback
	// animation takes over.
	Silence time.Duration
	// Flip draws the bands from the last LED backwards.
	Flip bool

	// Open opens the audio source. It defaults to OpenPipe.
	Open func(path string) (Source, error)
	// Now returns the current time. It defaults to time.Now.
	Now func() time.Time
	// Logger is the logger to use. It defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the configuration tuned for 16-bit stereo PCM at
// 44.1 kHz.
func DefaultConfig() Config {
	return Config{
		PipePath:   DefaultPipePath,
		ReadSize:   2048,
		FFTSize:    1024,
		Bands:      DefaultBands(),
		BandColors: DefaultBandColors(),
		Gain:       0.1,
		Decay:      0.85,
		Silence:    time.Second,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ReadSize < bytesPerFrame {
		return errors.Errorf("read size %d is smaller than one PCM frame", c.ReadSize)
	}
	if c.FFTSize < 2 {
		return errors.Errorf("invalid FFT size %d", c.FFTSize)
	}
	if len(c.BandColors) < len(c.Bands) {
		return errors.Errorf("%d bands but only %d band colors", len(c.Bands), len(c.BandColors))
	}
	for _, band := range c.Bands {
		if band.Start < 0 || band.End <= band.Start || band.End > c.FFTSize/2 {
			return errors.Errorf("band %v out of range for FFT size %d", band, c.FFTSize)
		}
	}
	if c.Decay < 0 || c.Decay > 1 {
		return errors.Errorf("decay %v must be within [0, 1]", c.Decay)
	}
	return nil
}

// Visualizer renders LED frames from the audio pipe. It is not safe for
// concurrent use; Tick is meant to be called from a single render loop.
type Visualizer struct {
	cfg      Config
	fallback Fallback
	logger   *slog.Logger

	src       Source
	openErr   bool // the last open attempt failed and was logged
	lastAudio time.Time

	readBuf []byte
	pending []byte // partial PCM frame carried between reads
	samples []float64
	fft     *fourier.CmplxFFT
	fftBuf  []complex128
}

// New creates a new visualizer. fallback is rendered whenever the pipe has
// been silent for longer than cfg.Silence.
func New(cfg Config, fallback Fallback) (*Visualizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid visualizer config")
	}

	if cfg.Open == nil {
		cfg.Open = OpenPipe
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Visualizer{
		cfg:       cfg,
		fallback:  fallback,
		logger:    cfg.Logger,
		lastAudio: cfg.Now(),
		readBuf:   make([]byte, cfg.ReadSize),
		pending:   make([]byte, 0, bytesPerFrame),
		samples:   make([]float64, 0, 2*cfg.FFTSize),
		fft:       fourier.NewCmplxFFT(cfg.FFTSize),
		fftBuf:    make([]complex128, cfg.FFTSize),
	}, nil
}

// Tick advances the visualizer by one step and renders into leds.
func (v *Visualizer) Tick(leds led.LEDs) {
	v.ensureOpen()

	if v.readAudio(leds) {
		return
	}

	if v.cfg.Now().Sub(v.lastAudio) > v.cfg.Silence {
		// Forget stale audio so it doesn't flash once playback resumes.
		v.resetBuffers()
		v.fallback.Render(leds)
		return
	}

	leds.Scale(v.cfg.Decay)
}

// Close closes the audio source, if any.
func (v *Visualizer) Close() error {
	if v.src == nil {
		return nil
	}
	err := v.src.Close()
	v.src = nil
	return err
}

// Buffered returns the number of decoded samples waiting for the next FFT
// window.
func (v *Visualizer) Buffered() int {
	return len(v.samples)
}

func (v *Visualizer) ensureOpen() {
	if v.src != nil {
		return
	}

	src, err := v.cfg.Open(v.cfg.PipePath)
	if err != nil {
		if !v.openErr {
			v.logger.Debug(
				"audio pipe unavailable",
				"path", v.cfg.PipePath,
				"error", err)
			v.openErr = true
		}
		return
	}

	v.logger.Debug(
		"opened audio pipe",
		"path", v.cfg.PipePath)
	v.openErr = false
	v.src = src
}

// readAudio reads one chunk from the source and reports whether any audio
// was processed.
func (v *Visualizer) readAudio(leds led.LEDs) bool {
	if v.src == nil {
		return false
	}

	n, err := v.src.Read(v.readBuf)
	switch {
	case err == nil:
		if n == 0 {
			return false
		}
	case errors.Is(err, ErrWouldBlock):
		return false
	default:
		v.logger.Debug(
			"dropping audio pipe after read error",
			"path", v.cfg.PipePath,
			"error", err)
		if err := v.Close(); err != nil {
			v.logger.Debug(
				"failed to close audio pipe",
				"error", err)
		}
		return false
	}

	v.lastAudio = v.cfg.Now()
	v.ingest(v.readBuf[:n], leds)
	return true
}

func (v *Visualizer) ingest(data []byte, leds led.LEDs) {
	v.decode(data)

	for len(v.samples) >= v.cfg.FFTSize {
		v.analyze(v.samples[:v.cfg.FFTSize], leds)
		v.samples = append(v.samples[:0], v.samples[v.cfg.FFTSize:]...)
	}
}

func (v *Visualizer) resetBuffers() {
	v.samples = v.samples[:0]
	v.pending = v.pending[:0]
}
