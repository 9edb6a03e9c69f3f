package led

import "math"

// Gradient is a cyclic color wheel. The colors are spread evenly around the
// wheel and blended linearly between neighbors, with the last color blending
// back into the first.
type Gradient []RGBColor

// Sample returns the color at the given position on a wheel of wheelSize
// positions. Positions outside [0, wheelSize) wrap around. The gradient must
// not be empty.
func (g Gradient) Sample(pos float64, wheelSize int) RGBColor {
	n := len(g)
	if n == 1 {
		return g[0]
	}

	scaled := pos * float64(n) / float64(wheelSize)
	floor := math.Floor(scaled)

	idx := int(floor) % n
	if idx < 0 {
		idx += n
	}
	next := (idx + 1) % n

	return Lerp(g[idx], g[next], scaled-floor)
}
