// Package anim implements the animation state machine that renders one frame
// of LED colors per tick.
package anim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/jazz-g/framework-rgbafan/internal/ledvis"
	"github.com/pkg/errors"
)

// Mode is the name of an animation mode.
type Mode string

const (
	// SolidMode sets every LED to a single color.
	SolidMode Mode = "solid"
	// BlinkMode flashes the whole strip through the colors, with an unlit
	// frame between each color.
	BlinkMode Mode = "blink"
	// SmoothSpinMode rotates a blended gradient of the colors around the
	// strip.
	SmoothSpinMode Mode = "smoothspin"
	// AudioReactiveMode visualizes audio from the pipe, spinning the colors
	// while the pipe is silent.
	AudioReactiveMode Mode = "audio-reactive"
	// MPDMode is an alias of AudioReactiveMode.
	MPDMode Mode = "mpd"
)

// Modes lists the accepted mode names.
var Modes = []Mode{SolidMode, BlinkMode, SmoothSpinMode, AudioReactiveMode}

var (
	// ErrUnknownMode is returned for mode names that are not one of Modes.
	ErrUnknownMode = errors.New("unknown animation mode")
	// ErrTooManyColors is returned when there are more colors than LEDs.
	ErrTooManyColors = errors.New("there can't be more colors than LEDs")
	// ErrNoColors is returned when a mode is given no colors.
	ErrNoColors = errors.New("mode requires at least one color")
)

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case SolidMode, BlinkMode, SmoothSpinMode, AudioReactiveMode:
		return m, nil
	case MPDMode:
		return AudioReactiveMode, nil
	default:
		return "", fmt.Errorf("%w %q (valid: %v)", ErrUnknownMode, s, Modes)
	}
}

func (m *Mode) UnmarshalText(text []byte) error {
	mode, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m), nil
}

// Config holds the timing and sizing constants of the animations.
type Config struct {
	// NumLEDs is the number of LEDs in the strip.
	NumLEDs int
	// TickInterval paces the smoothspin and audio-reactive modes.
	TickInterval time.Duration
	// RefreshInterval paces the solid mode. The color is rewritten this often
	// in case the device lost it, e.g. after the computer slept.
	RefreshInterval time.Duration
	// BlinkInterval is how long each lit or unlit blink frame is shown.
	BlinkInterval time.Duration
	// SpinPeriod is the number of ticks for one full rotation.
	SpinPeriod int
	// Visualizer configures the audio-reactive mode.
	Visualizer ledvis.Config

	// Sleep blocks for d or until ctx is done. It defaults to a timer-based
	// sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	// Logger is the logger to use. It defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the defaults for the 8-LED fan.
func DefaultConfig() Config {
	return Config{
		NumLEDs:         8,
		TickInterval:    16 * time.Millisecond,
		RefreshInterval: 10 * time.Second,
		BlinkInterval:   992 * time.Millisecond,
		SpinPeriod:      310,
		Visualizer:      ledvis.DefaultConfig(),
	}
}

// state is one animation variant. The set of variants is closed: solid,
// blink, smoothSpin and audioReactive.
type state interface {
	// pace returns how long to wait before rendering the next step.
	pace() time.Duration
	// step advances the animation and overwrites leds.
	step(leds led.LEDs)
}

// Animation is a running animation. Its mode is fixed at construction.
type Animation struct {
	mode  Mode
	state state
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an animation of the given mode over colors.
func New(mode Mode, colors []led.RGBColor, cfg Config) (*Animation, error) {
	if cfg.NumLEDs <= 0 {
		return nil, fmt.Errorf("invalid number of LEDs %d", cfg.NumLEDs)
	}
	if len(colors) > cfg.NumLEDs {
		return nil, fmt.Errorf("%w (%d colors, %d LEDs)", ErrTooManyColors, len(colors), cfg.NumLEDs)
	}

	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}
	if len(colors) == 0 {
		return nil, fmt.Errorf("%s %w", mode, ErrNoColors)
	}

	if cfg.Sleep == nil {
		cfg.Sleep = sleepContext
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// Copy so the caller's slice can't change the animation.
	colors = append([]led.RGBColor(nil), colors...)

	var s state
	switch mode {
	case SolidMode:
		s = &solid{
			color:    colors[0],
			interval: cfg.RefreshInterval,
		}
	case BlinkMode:
		s = &blink{
			colors:   colors,
			interval: cfg.BlinkInterval,
		}
	case SmoothSpinMode:
		s = newSmoothSpin(colors, cfg)
	case AudioReactiveMode:
		a, err := newAudioReactive(colors, cfg)
		if err != nil {
			return nil, err
		}
		s = a
	}

	return &Animation{
		mode:  mode,
		state: s,
		sleep: cfg.Sleep,
	}, nil
}

// Mode returns the animation's mode.
func (a *Animation) Mode() Mode {
	return a.mode
}

// Tick waits for the mode's pace, then advances the animation by one step
// and overwrites leds. If ctx is canceled while waiting, leds is left
// untouched and the context's error is returned.
func (a *Animation) Tick(ctx context.Context, leds led.LEDs) error {
	if err := a.sleep(ctx, a.state.pace()); err != nil {
		return err
	}
	a.state.step(leds)
	return nil
}

// Close releases the resources held by the animation.
func (a *Animation) Close() error {
	if c, ok := a.state.(interface{ close() error }); ok {
		return c.close()
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
