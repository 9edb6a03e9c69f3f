package led

import (
	"strings"
	"unsafe"
)

// LEDs describes a strip of LEDs. It is a preallocated slice of RGBColor and
// is reused as the frame buffer every tick.
type LEDs []RGBColor

// NewLEDs creates a new strip of LEDs. Colors are initialized to black
// (off).
func NewLEDs(numLEDs int) LEDs {
	return make(LEDs, numLEDs)
}

// AsPixels returns the LED strip as a slice of uint8 values. Each LED is
// represented by three values, one for each color channel. The returned slice
// aliases the strip.
func (l LEDs) AsPixels() []uint8 {
	if len(l) == 0 {
		return nil
	}
	return unsafe.Slice((*uint8)(unsafe.Pointer(&l[0])), 3*len(l))
}

// SetRange sets the color of the LEDs in the given range.
func (l LEDs) SetRange(start, end int, c RGBColor) {
	for i := start; i < end; i++ {
		l[i] = c
	}
}

// Fill sets every LED to c.
func (l LEDs) Fill(c RGBColor) {
	l.SetRange(0, len(l), c)
}

// Scale scales every LED by f. See RGBColor.Scale.
func (l LEDs) Scale(f float64) {
	for i, c := range l {
		l[i] = c.Scale(f)
	}
}

// String formats the strip as space-separated hex colors.
func (l LEDs) String() string {
	var b strings.Builder
	for i, c := range l {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(c.String())
	}
	return b.String()
}
