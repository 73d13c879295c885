package device

import (
	"strconv"

	"github.com/benz9527/xhome/lib/infra"
)

// Capability is what the chain algorithms need from a payload.
type Capability interface {
	Name() string
	// Status is a multi-line human-readable snapshot.
	Status() string
}

type Kind uint8

const (
	KindNone Kind = iota
	KindSocket
	KindThermometer
	_kindMax
)

const noDeviceText = "not device"

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSocket:
		return "socket"
	case KindThermometer:
		return "thermometer"
	default:
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

func unknownKind(k Kind) infra.ErrorStack {
	return infra.NewErrorStack("[device] unknown kind " + k.String())
}

var _ Capability = Device{}

// Device is a closed sum over the supported device kinds.
// The zero value is the no-device placeholder used by chain sentinels.
// Adding a kind means extending every switch on Kind in this package.
type Device struct {
	kind        Kind
	socket      Socket
	thermometer Thermometer
}

func FromSocket(s Socket) Device {
	return Device{kind: KindSocket, socket: s}
}

func FromThermometer(t Thermometer) Device {
	return Device{kind: KindThermometer, thermometer: t}
}

func (d Device) Kind() Kind {
	return d.kind
}

// AsSocket borrows the socket variant for in-place mutation.
func (d *Device) AsSocket() (*Socket, bool) {
	if d == nil || d.kind != KindSocket {
		return nil, false
	}
	return &d.socket, true
}

// AsThermometer borrows the thermometer variant for in-place mutation.
func (d *Device) AsThermometer() (*Thermometer, bool) {
	if d == nil || d.kind != KindThermometer {
		return nil, false
	}
	return &d.thermometer, true
}

func (d Device) Name() string {
	switch d.kind {
	case KindNone:
		return noDeviceText
	case KindSocket:
		return d.socket.Text
	case KindThermometer:
		return d.thermometer.Text
	default:
	}
	panic(unknownKind(d.kind))
}

func (d Device) Status() string {
	switch d.kind {
	case KindNone:
		return noDeviceText
	case KindSocket:
		return d.socket.Status()
	case KindThermometer:
		return d.thermometer.Status()
	default:
	}
	panic(unknownKind(d.kind))
}

// Refresh pulls the current reading of the device. No-device ignores it.
func (d *Device) Refresh() {
	switch d.kind {
	case KindNone:
	case KindSocket:
		d.socket.Refresh()
	case KindThermometer:
		d.thermometer.Refresh()
	default:
		panic(unknownKind(d.kind))
	}
}

func (d Device) String() string {
	switch d.kind {
	case KindNone:
		return noDeviceText
	case KindSocket:
		return d.socket.String()
	case KindThermometer:
		return d.thermometer.String()
	default:
	}
	panic(unknownKind(d.kind))
}
