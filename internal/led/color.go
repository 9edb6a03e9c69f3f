// Package led contains the color and strip types shared by the animations, the
// visualizer and the transports.
package led

import (
	"encoding"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/pkg/errors"
)

// RGBColor is a single 8-bit-per-channel color.
type RGBColor struct {
	R, G, B uint8
}

// Off is the color of an unlit LED.
var Off = RGBColor{}

var (
	_ encoding.TextUnmarshaler = (*RGBColor)(nil)
	_ encoding.TextMarshaler   = RGBColor{}
)

// ParseHex parses a color in the form "rrggbb". A leading "#" is allowed, as is
// the short form "rgb".
func ParseHex(s string) (RGBColor, error) {
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return RGBColor{}, errors.Errorf("invalid hex color %q: wrong length", s)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return RGBColor{}, errors.Wrapf(err, "invalid hex color %q", s)
	}

	r, g, b := c.RGB255()
	return RGBColor{r, g, b}, nil
}

// String returns the color as "rrggbb".
func (c RGBColor) String() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

// Uint32 returns the color packed as 0x00RRGGBB.
func (c RGBColor) Uint32() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

func (c *RGBColor) UnmarshalText(text []byte) error {
	v, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c RGBColor) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Scale multiplies every channel by f, truncating toward zero. f is expected
// to be within [0, 1].
func (c RGBColor) Scale(f float64) RGBColor {
	return RGBColor{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
	}
}

// Lerp linearly interpolates between a and b. t must be within [0, 1]; t = 0
// yields a and t = 1 yields b.
func Lerp(a, b RGBColor, t float64) RGBColor {
	return RGBColor{
		R: lerpChannel(a.R, b.R, t),
		G: lerpChannel(a.G, b.G, t),
		B: lerpChannel(a.B, b.B, t),
	}
}

func lerpChannel(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*t))
}
