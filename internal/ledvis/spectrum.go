package ledvis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/jazz-g/framework-rgbafan/internal/led"
)

// Band is a half-open range of FFT bins, [Start, End).
type Band struct {
	Start int
	End   int
}

func (b Band) String() string {
	return fmt.Sprintf("[%d,%d)", b.Start, b.End)
}

// DefaultBands returns eight roughly logarithmic bands for a 1024-point FFT
// of 44.1 kHz audio, where each bin is about 43 Hz wide:
//
//	~43 Hz, ~86 Hz, 170-430 Hz, 430 Hz-1 kHz, 1-2.5 kHz, 2.5-6 kHz, 6-13 kHz, 13 kHz+
func DefaultBands() []Band {
	return []Band{
		{1, 2},
		{2, 4},
		{4, 10},
		{10, 25},
		{25, 60},
		{60, 150},
		{150, 300},
		{300, 511},
	}
}

// DefaultBandColors returns the full-amplitude color of each default band,
// running from magenta in the deep bass to pink in the treble.
func DefaultBandColors() []led.RGBColor {
	return []led.RGBColor{
		{R: 255, G: 0, B: 255}, // deep bass
		{R: 0, G: 0, B: 255},   // bass
		{R: 0, G: 100, B: 255}, // low mid
		{R: 0, G: 255, B: 0},   // mid
		{R: 255, G: 255, B: 0}, // high mid
		{R: 255, G: 50, B: 0},  // presence
		{R: 255, G: 0, B: 0},   // treble
		{R: 255, G: 80, B: 80}, // air
	}
}

// analyze runs the FFT over window and draws each band's amplitude onto its
// LED.
func (v *Visualizer) analyze(window []float64, leds led.LEDs) {
	for i, s := range window {
		v.fftBuf[i] = complex(s, 0)
	}
	v.fft.Coefficients(v.fftBuf, v.fftBuf)

	// Bins above Nyquist mirror the lower half for real input.
	spectrum := v.fftBuf[:len(v.fftBuf)/2]

	for i, band := range v.cfg.Bands {
		if i >= len(leds) {
			break
		}

		amp := bandAmplitude(spectrum, band, v.cfg.Gain)
		c := v.cfg.BandColors[i].Scale(amp)

		if v.cfg.Flip {
			leds[len(leds)-1-i] = c
		} else {
			leds[i] = c
		}
	}
}

// bandAmplitude returns the log-compressed average magnitude of the band,
// clamped to [0, 1].
func bandAmplitude(spectrum []complex128, band Band, gain float64) float64 {
	var sum float64
	for bin := band.Start; bin < band.End && bin < len(spectrum); bin++ {
		sum += cmplx.Abs(spectrum[bin])
	}
	avg := sum / float64(band.End-band.Start)

	amp := math.Log1p(avg * gain)
	return math.Max(0, math.Min(1, amp))
}
