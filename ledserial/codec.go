package ledserial

import (
	"encoding/binary"
	"hash/crc32"
	"io"
	"math"

	"github.com/pkg/errors"
)

// ErrChecksum is returned when a packet's CRC does not match its contents.
var ErrChecksum = errors.New("packet checksum mismatch")

// byteOrder is the byte order of every multi-byte field.
var byteOrder = binary.LittleEndian

const checksumSize = 4

// AppendHostPacket appends the encoded packet to b.
func AppendHostPacket(b []byte, p HostPacket) ([]byte, error) {
	start := len(b)
	b = append(b, byte(p.Type()))

	switch p := p.(type) {
	case InitializePacket:
		b = byteOrder.AppendUint16(b, p.NumLEDs)
	case ClearPacket:
	case SetPacket:
		b = append(b, p.Pix...)
	default:
		return nil, errors.Errorf("unknown host packet %T", p)
	}

	return appendChecksum(b, start), nil
}

// WriteHostPacket encodes p and writes it to w in a single Write call.
func WriteHostPacket(w io.Writer, p HostPacket) error {
	b, err := AppendHostPacket(nil, p)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}

// ReadHostPacket reads a host packet from r. numLEDs is the strip length
// announced by the last InitializePacket; it sizes the body of SetPacket.
func ReadHostPacket(r io.Reader, numLEDs uint16) (HostPacket, error) {
	cr := newCRCReader(r)

	var typ [1]byte
	if _, err := io.ReadFull(cr, typ[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read packet type")
	}

	var p HostPacket
	switch t := HostPacketType(typ[0]); t {
	case TypeInitialize:
		var body [2]byte
		if _, err := io.ReadFull(cr, body[:]); err != nil {
			return nil, errors.Wrap(err, "failed to read number of LEDs")
		}
		p = InitializePacket{NumLEDs: byteOrder.Uint16(body[:])}
	case TypeClear:
		p = ClearPacket{}
	case TypeSet:
		pix := make([]uint8, 3*int(numLEDs))
		if _, err := io.ReadFull(cr, pix); err != nil {
			return nil, errors.Wrap(err, "failed to read pixel data")
		}
		p = SetPacket{Pix: pix}
	default:
		return nil, errors.Errorf("unknown host packet type %s", t)
	}

	if err := cr.verify(); err != nil {
		return nil, err
	}
	return p, nil
}

// AppendDevicePacket appends the encoded packet to b.
func AppendDevicePacket(b []byte, p DevicePacket) ([]byte, error) {
	start := len(b)
	b = append(b, byte(p.Type()))

	var err error
	switch p := p.(type) {
	case AckPacket:
		b = append(b, byte(p.For))
	case ErrorPacket:
		b, err = appendString(b, p.Message)
	case PanicPacket:
		b, err = appendString(b, p.Message)
	case LogPacket:
		b, err = appendString(b, p.Message)
	default:
		return nil, errors.Errorf("unknown device packet %T", p)
	}
	if err != nil {
		return nil, err
	}

	return appendChecksum(b, start), nil
}

// WriteDevicePacket encodes p and writes it to w in a single Write call.
func WriteDevicePacket(w io.Writer, p DevicePacket) error {
	b, err := AppendDevicePacket(nil, p)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}

// ReadDevicePacket reads a device packet from r.
func ReadDevicePacket(r io.Reader) (DevicePacket, error) {
	cr := newCRCReader(r)

	var typ [1]byte
	if _, err := io.ReadFull(cr, typ[:]); err != nil {
		return nil, errors.Wrap(err, "failed to read packet type")
	}

	var p DevicePacket
	switch t := DevicePacketType(typ[0]); t {
	case TypeAck:
		var body [1]byte
		if _, err := io.ReadFull(cr, body[:]); err != nil {
			return nil, errors.Wrap(err, "failed to read acked packet type")
		}
		p = AckPacket{For: HostPacketType(body[0])}
	case TypeError, TypePanic, TypeLog:
		msg, err := readString(cr)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s message", t)
		}
		switch t {
		case TypeError:
			p = ErrorPacket{Message: msg}
		case TypePanic:
			p = PanicPacket{Message: msg}
		case TypeLog:
			p = LogPacket{Message: msg}
		}
	default:
		return nil, errors.Errorf("unknown device packet type %s", t)
	}

	if err := cr.verify(); err != nil {
		return nil, err
	}
	return p, nil
}

func appendString(b []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint16 {
		return nil, errors.Errorf("message of %d bytes is too long", len(s))
	}
	b = byteOrder.AppendUint16(b, uint16(len(s)))
	return append(b, s...), nil
}

func readString(r io.Reader) (string, error) {
	var length [2]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return "", err
	}
	buf := make([]byte, byteOrder.Uint16(length[:]))
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// appendChecksum appends the CRC of b[start:] to b.
func appendChecksum(b []byte, start int) []byte {
	return byteOrder.AppendUint32(b, crc32.ChecksumIEEE(b[start:]))
}

// crcReader hashes everything read through it.
type crcReader struct {
	r   io.Reader
	crc uint32
}

func newCRCReader(r io.Reader) *crcReader {
	return &crcReader{r: r}
}

func (r *crcReader) Read(b []byte) (int, error) {
	n, err := r.r.Read(b)
	r.crc = crc32.Update(r.crc, crc32.IEEETable, b[:n])
	return n, err
}

// verify reads the checksum trailer from the underlying reader and compares
// it against everything read so far.
func (r *crcReader) verify() error {
	var trailer [checksumSize]byte
	if _, err := io.ReadFull(r.r, trailer[:]); err != nil {
		return errors.Wrap(err, "failed to read packet checksum")
	}
	if byteOrder.Uint32(trailer[:]) != r.crc {
		return ErrChecksum
	}
	return nil
}
