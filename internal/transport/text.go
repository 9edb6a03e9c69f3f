package transport

import (
	"io"
	"os"

	"github.com/jazz-g/framework-rgbafan/internal/led"
)

// Text prints every frame as a line of space-separated hex colors. It is
// useful for dry runs without any hardware.
type Text struct {
	w io.Writer
}

// NewText creates a Text transport writing to w, or to stdout if w is nil.
func NewText(w io.Writer) *Text {
	if w == nil {
		w = os.Stdout
	}
	return &Text{w: w}
}

func (t *Text) Write(leds led.LEDs) error {
	_, err := io.WriteString(t.w, leds.String()+"\n")
	return err
}

func (t *Text) Close() error {
	return nil
}
