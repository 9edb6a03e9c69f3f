// Package rgbafan drives the RGB fan LEDs with a chosen animation.
package rgbafan

import (
	"context"
	"log/slog"

	"github.com/jazz-g/framework-rgbafan/internal/anim"
	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/jazz-g/framework-rgbafan/internal/transport"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Daemon is the main rgbafan daemon. It ticks the animation and writes each
// frame to the transport.
type Daemon struct {
	cfg    *Config
	logger *slog.Logger
	anim   *anim.Animation
	leds   led.LEDs
}

// NewDaemon creates a new rgbafan daemon. Configuration errors are reported
// here, before anything is opened.
func NewDaemon(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	animCfg := cfg.AnimationConfig()
	animCfg.Logger = logger.With("component", "animation")

	a, err := anim.New(cfg.Mode, cfg.Colors, animCfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create animation")
	}

	return &Daemon{
		cfg:    cfg,
		logger: logger,
		anim:   a,
		leds:   led.NewLEDs(cfg.NumLEDs),
	}, nil
}

// Run opens the transport and starts the daemon. It blocks until the given
// context is canceled or the transport fails.
func (d *Daemon) Run(ctx context.Context) error {
	t, err := transport.Open(
		d.cfg.TransportConfig(),
		d.cfg.NumLEDs,
		d.logger.With("component", "transport"))
	if err != nil {
		return errors.Wrap(err, "failed to open transport")
	}
	defer func() {
		if err := t.Close(); err != nil {
			d.logger.Warn(
				"failed to close transport",
				"error", err)
		}
	}()

	return d.RunTransport(ctx, t)
}

// RunTransport is like Run, but writes to the given transport instead of
// opening the configured one. The transport is not closed.
func (d *Daemon) RunTransport(ctx context.Context, t transport.Transport) error {
	defer func() {
		if err := d.anim.Close(); err != nil {
			d.logger.Debug(
				"failed to close animation",
				"error", err)
		}
	}()

	errg, ctx := errgroup.WithContext(ctx)

	if r, ok := t.(transport.Runner); ok {
		errg.Go(func() error {
			return r.Run(ctx)
		})
	}

	errg.Go(func() error {
		return d.mainLoop(ctx, t)
	})

	return errg.Wait()
}

func (d *Daemon) mainLoop(ctx context.Context, t transport.Transport) error {
	d.logger.Info(
		"starting animation",
		"mode", d.anim.Mode(),
		"colors", led.LEDs(d.cfg.Colors).String(),
		"transport", d.cfg.Transport.Kind)

	for {
		if err := d.anim.Tick(ctx, d.leds); err != nil {
			return err
		}

		if err := t.Write(d.leds); err != nil {
			d.logger.Warn(
				"failed to write frame",
				"error", err)
		}
	}
}
