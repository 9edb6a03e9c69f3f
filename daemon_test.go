package rgbafan

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jazz-g/framework-rgbafan/internal/anim"
	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/jazz-g/framework-rgbafan/internal/transport"
	"github.com/neilotoole/slogt"
	"github.com/pkg/errors"
)

var (
	red  = led.RGBColor{R: 255, G: 0, B: 0}
	blue = led.RGBColor{R: 0, G: 0, B: 255}
)

func TestDaemonBlink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = anim.BlinkMode
	cfg.Colors = []led.RGBColor{red, blue}
	cfg.NumLEDs = 2
	cfg.Timing.Blink = Duration(time.Millisecond)

	d, err := NewDaemon(cfg, slogt.New(t))
	if err != nil {
		t.Fatal("failed to create daemon:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &recordingTransport{
		stopAfter: 4,
		stop:      cancel,
		// The first write fails and must not stop the daemon.
		failFirst: true,
	}

	if err := d.RunTransport(ctx, tr); !errors.Is(err, context.Canceled) {
		t.Fatalf("got error %v, want context.Canceled", err)
	}

	assertEq(t, []led.LEDs{
		{red, red},
		{led.Off, led.Off},
		{blue, blue},
		{led.Off, led.Off},
	}, tr.frames[:4])
}

func TestDaemonRunnerError(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = anim.SolidMode
	cfg.Colors = []led.RGBColor{red}

	d, err := NewDaemon(cfg, slogt.New(t))
	if err != nil {
		t.Fatal("failed to create daemon:", err)
	}

	runnerErr := errors.New("controller unplugged")
	tr := &failingRunner{err: runnerErr}

	done := make(chan error, 1)
	go func() { done <- d.RunTransport(context.Background(), tr) }()

	select {
	case err := <-done:
		if !errors.Is(err, runnerErr) {
			t.Fatalf("got error %v, want %v", err, runnerErr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after the transport failed")
	}
}

func TestNewDaemonInvalid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = anim.SolidMode

	_, err := NewDaemon(cfg, slogt.New(t))
	if !errors.Is(err, anim.ErrNoColors) {
		t.Fatalf("got error %v, want ErrNoColors", err)
	}
}

type recordingTransport struct {
	mu        sync.Mutex
	frames    []led.LEDs
	stopAfter int
	stop      context.CancelFunc
	failFirst bool
}

func (r *recordingTransport) Write(leds led.LEDs) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.frames = append(r.frames, append(led.LEDs(nil), leds...))
	if len(r.frames) == r.stopAfter {
		r.stop()
	}

	if r.failFirst && len(r.frames) == 1 {
		return errors.New("device not ready")
	}
	return nil
}

func (r *recordingTransport) Close() error { return nil }

type failingRunner struct {
	err error
}

var (
	_ transport.Transport = (*failingRunner)(nil)
	_ transport.Runner    = (*failingRunner)(nil)
)

func (f *failingRunner) Write(led.LEDs) error { return nil }
func (f *failingRunner) Close() error         { return nil }

func (f *failingRunner) Run(ctx context.Context) error {
	return f.err
}
