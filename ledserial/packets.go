// Package ledserial implements the serial protocol spoken between the host and
// an LED controller.
//
// Every packet is a single type byte followed by a little-endian body and a
// CRC-32 (IEEE) of the type byte and body:
//
//	type (1) | body (variable) | crc32 (4)
//
// Host packets flow from the host to the controller. Device packets flow from
// the controller back to the host.
package ledserial

import "fmt"

// HostPacketType is the type of a packet sent by the host.
type HostPacketType uint8

const (
	TypeInitialize HostPacketType = iota
	TypeClear
	TypeSet
)

func (t HostPacketType) String() string {
	switch t {
	case TypeInitialize:
		return "initialize"
	case TypeClear:
		return "clear"
	case TypeSet:
		return "set"
	default:
		return fmt.Sprintf("HostPacketType(%d)", t)
	}
}

// HostPacket is a packet sent by the host.
type HostPacket interface {
	Type() HostPacketType
}

// InitializePacket tells the controller how many LEDs the strip has. It must
// be sent before any SetPacket.
type InitializePacket struct {
	NumLEDs uint16
}

// ClearPacket turns every LED off.
type ClearPacket struct{}

// SetPacket sets every LED. Pix holds packed RGB triplets, three bytes per
// LED.
type SetPacket struct {
	Pix []uint8
}

func (InitializePacket) Type() HostPacketType { return TypeInitialize }
func (ClearPacket) Type() HostPacketType      { return TypeClear }
func (SetPacket) Type() HostPacketType        { return TypeSet }

// DevicePacketType is the type of a packet sent by the controller.
type DevicePacketType uint8

const (
	TypeAck DevicePacketType = iota
	TypeError
	TypePanic
	TypeLog
)

func (t DevicePacketType) String() string {
	switch t {
	case TypeAck:
		return "ack"
	case TypeError:
		return "error"
	case TypePanic:
		return "panic"
	case TypeLog:
		return "log"
	default:
		return fmt.Sprintf("DevicePacketType(%d)", t)
	}
}

// DevicePacket is a packet sent by the controller.
type DevicePacket interface {
	Type() DevicePacketType
}

// AckPacket acknowledges a host packet once the controller has applied it.
type AckPacket struct {
	For HostPacketType
}

// ErrorPacket reports that the controller rejected a host packet.
type ErrorPacket struct {
	Message string
}

// PanicPacket reports that the controller cannot recover and has stopped.
type PanicPacket struct {
	Message string
}

// LogPacket carries a log line from the controller.
type LogPacket struct {
	Message string
}

func (AckPacket) Type() DevicePacketType   { return TypeAck }
func (ErrorPacket) Type() DevicePacketType { return TypeError }
func (PanicPacket) Type() DevicePacketType { return TypePanic }
func (LogPacket) Type() DevicePacketType   { return TypeLog }
