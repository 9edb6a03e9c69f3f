package led

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

var (
	red   = RGBColor{255, 0, 0}
	green = RGBColor{0, 255, 0}
	blue  = RGBColor{0, 0, 255}
)

func TestLerp(t *testing.T) {
	colors := []RGBColor{Off, red, green, blue, {12, 34, 56}, {255, 255, 255}, {7, 200, 99}}

	for _, a := range colors {
		for _, b := range colors {
			if got := Lerp(a, b, 0); got != a {
				t.Errorf("Lerp(%v, %v, 0) = %v, want %v", a, b, got, a)
			}
			if got := Lerp(a, b, 1); got != b {
				t.Errorf("Lerp(%v, %v, 1) = %v, want %v", a, b, got, b)
			}
		}
	}

	// 0 + 255*0.5 = 127.5 rounds away from zero.
	assertEq(t, RGBColor{128, 0, 128}, Lerp(red, blue, 0.5))
	assertEq(t, RGBColor{64, 0, 191}, Lerp(red, blue, 0.75))
}

func TestGradientSample(t *testing.T) {
	const wheel = 8
	g := Gradient{red, green, blue, {10, 20, 30}}

	tests := []struct {
		name string
		pos  float64
		want RGBColor
	}{
		{"first stop", 0, red},
		{"second stop", 2, green},
		{"between stops", 1, Lerp(red, green, 0.5)},
		{"last wraps to first", 7, Lerp(RGBColor{10, 20, 30}, red, 0.5)},
		{"negative wraps", -2, RGBColor{10, 20, 30}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assertEq(t, test.want, g.Sample(test.pos, wheel))
		})
	}
}

func TestGradientSamplePeriodic(t *testing.T) {
	const wheel = 8
	g := Gradient{red, green, blue}

	for _, pos := range []float64{0, 0.25, 0.5, 1.5, 2.75, 3, 5.125, 7.5} {
		a := g.Sample(pos, wheel)
		b := g.Sample(pos+wheel, wheel)
		if a != b {
			t.Errorf("Sample(%v) = %v but Sample(%v) = %v", pos, a, pos+wheel, b)
		}
	}
}

func TestGradientSampleSingle(t *testing.T) {
	c := RGBColor{1, 2, 3}
	g := Gradient{c}

	for _, pos := range []float64{0, 0.3, 1, 4.7, 7.99, 8, -3} {
		if got := g.Sample(pos, 8); got != c {
			t.Errorf("Sample(%v) = %v, want %v", pos, got, c)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want RGBColor
		err  bool
	}{
		{in: "ff0000", want: red},
		{in: "#00ff00", want: green},
		{in: "0000FF", want: blue},
		{in: "f00", want: red},
		{in: "abcdef", want: RGBColor{0xab, 0xcd, 0xef}},
		{in: "ff00", err: true},
		{in: "ff00zz", err: true},
		{in: "ff00ff00", err: true},
		{in: "", err: true},
	}

	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, err := ParseHex(test.in)
			if test.err {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatal("unexpected error:", err)
			}
			assertEq(t, test.want, got)
		})
	}
}

func TestScale(t *testing.T) {
	assertEq(t, RGBColor{84, 42, 0}, RGBColor{99, 50, 1}.Scale(0.85))
	assertEq(t, Off, red.Scale(0))
	assertEq(t, red, red.Scale(1))
}

func TestLEDs(t *testing.T) {
	leds := NewLEDs(4)
	leds.Fill(red)
	leds[1] = green
	leds.SetRange(2, 4, blue)

	assertEq(t, []uint8{255, 0, 0, 0, 255, 0, 0, 0, 255, 0, 0, 255}, leds.AsPixels())
	assertEq(t, "ff0000 00ff00 0000ff 0000ff", leds.String())

	leds.Scale(0.5)
	assertEq(t, "7f0000 007f00 00007f 00007f", leds.String())

	assertEq(t, []uint8(nil), LEDs{}.AsPixels())
}

func assertEq[T any](t *testing.T, expected, actual T, opts ...cmp.Option) {
	t.Helper()

	if diff := cmp.Diff(expected, actual, opts...); diff != "" {
		t.Errorf("unexpected diff (-want +got):\n%s", diff)
	}
}
