package anim

import (
	"fmt"
	"math"
	"time"

	"github.com/jazz-g/framework-rgbafan/internal/led"
	"github.com/jazz-g/framework-rgbafan/internal/ledvis"
)

type solid struct {
	color    led.RGBColor
	interval time.Duration
}

func (s *solid) pace() time.Duration { return s.interval }

func (s *solid) step(leds led.LEDs) {
	leds.Fill(s.color)
}

type blink struct {
	colors   []led.RGBColor
	interval time.Duration
	index    int
	lit      bool
}

func (b *blink) pace() time.Duration { return b.interval }

func (b *blink) step(leds led.LEDs) {
	if b.index < 0 || b.index >= len(b.colors) {
		panic(fmt.Sprintf("blink index %d out of range [0, %d)", b.index, len(b.colors)))
	}

	b.lit = !b.lit
	if b.lit {
		leds.Fill(b.colors[b.index])
		return
	}

	leds.Fill(led.Off)
	// The next lit frame shows the next color.
	b.index = (b.index + 1) % len(b.colors)
}

// smoothSpin rotates a gradient around the strip. It also serves as the
// visualizer's fallback while the audio pipe is silent.
type smoothSpin struct {
	gradient led.Gradient
	interval time.Duration
	numLEDs  int
	stride   float64 // LED positions per tick
	rotation float64 // within [0, numLEDs)
}

var _ ledvis.Fallback = (*smoothSpin)(nil)

func newSmoothSpin(colors []led.RGBColor, cfg Config) *smoothSpin {
	var stride float64
	if cfg.SpinPeriod > 0 {
		stride = float64(cfg.NumLEDs) / float64(cfg.SpinPeriod)
	}

	return &smoothSpin{
		gradient: led.Gradient(colors),
		interval: cfg.TickInterval,
		numLEDs:  cfg.NumLEDs,
		stride:   stride,
	}
}

func (s *smoothSpin) pace() time.Duration { return s.interval }

func (s *smoothSpin) step(leds led.LEDs) {
	s.Render(leds)
}

// Render advances the rotation by one tick and draws the gradient.
func (s *smoothSpin) Render(leds led.LEDs) {
	s.rotation = math.Mod(s.rotation+s.stride, float64(s.numLEDs))

	for i := range leds {
		pos := math.Mod(s.rotation+float64(i), float64(s.numLEDs))
		leds[i] = s.gradient.Sample(pos, s.numLEDs)
	}
}

type audioReactive struct {
	vis      *ledvis.Visualizer
	interval time.Duration
}

func newAudioReactive(colors []led.RGBColor, cfg Config) (*audioReactive, error) {
	vcfg := cfg.Visualizer
	if vcfg.Logger == nil {
		vcfg.Logger = cfg.Logger
	}

	vis, err := ledvis.New(vcfg, newSmoothSpin(colors, cfg))
	if err != nil {
		return nil, err
	}

	return &audioReactive{
		vis:      vis,
		interval: cfg.TickInterval,
	}, nil
}

func (a *audioReactive) pace() time.Duration { return a.interval }

func (a *audioReactive) step(leds led.LEDs) {
	a.vis.Tick(leds)
}

func (a *audioReactive) close() error {
	return a.vis.Close()
}
