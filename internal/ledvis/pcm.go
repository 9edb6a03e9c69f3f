package ledvis

import "encoding/binary"

// PCM is 16-bit signed little-endian stereo: left then right, two bytes each.
const (
	bytesPerSample = 2
	bytesPerFrame  = 2 * bytesPerSample
	sampleScale    = 32768.0
)

// decode appends the mono samples of data to the sample buffer. Bytes of a
// trailing partial frame are kept until the next call completes it.
func (v *Visualizer) decode(data []byte) {
	if len(v.pending) > 0 {
		need := bytesPerFrame - len(v.pending)
		if len(data) < need {
			v.pending = append(v.pending, data...)
			return
		}
		v.pending = append(v.pending, data[:need]...)
		v.samples = append(v.samples, monoSample(v.pending))
		v.pending = v.pending[:0]
		data = data[need:]
	}

	for len(data) >= bytesPerFrame {
		v.samples = append(v.samples, monoSample(data))
		data = data[bytesPerFrame:]
	}

	v.pending = append(v.pending, data...)
}

// monoSample downmixes the stereo frame at the start of b into a sample
// within [-1, 1].
func monoSample(b []byte) float64 {
	l := int16(binary.LittleEndian.Uint16(b[0:]))
	r := int16(binary.LittleEndian.Uint16(b[bytesPerSample:]))
	return (float64(l) + float64(r)) / 2 / sampleScale
}
