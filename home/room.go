package home

import (
	"errors"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xhome/device"
	"github.com/benz9527/xhome/lib/infra"
	"github.com/benz9527/xhome/lib/list"
)

const (
	DefaultRoomText = "Room"
	infoSeparator   = "\n"
)

var (
	ErrNilRoom      = errors.New("[home] nil room")
	ErrRoomAttached = errors.New("[home] room already belongs to a house")
)

var _ device.Capability = (*Room)(nil)

// Room owns a chain of devices. It is not safe for concurrent mutation,
// wrap the house in a SyncHouse when it is shared.
type Room struct {
	text     string
	devices  *list.Arena[device.Device]
	sentinel list.Handle
	attached bool
	opts     homeOptions
}

func NewRoom(text string, opts ...Option) *Room {
	devices := list.NewArena[device.Device]()
	return &Room{
		text:     text,
		devices:  devices,
		sentinel: devices.NewSentinel(),
		opts:     applyOptions(opts),
	}
}

func DefaultRoom(opts ...Option) *Room {
	return NewRoom(DefaultRoomText, opts...)
}

func (r *Room) Name() string {
	return r.text
}

// Status is the room report, so that a House can aggregate its rooms.
func (r *Room) Status() string {
	return r.Info()
}

// The sentinel lives as long as the room, so resolving it cannot fail.
func (r *Room) chain() list.ChainView[device.Device] {
	return lo.Must(r.devices.Chain(r.sentinel))
}

// NewDeviceNode creates a detached node in this room's arena, ready for
// AddDeviceNodeAtHead or AddDeviceNodeAtTail.
func (r *Room) NewDeviceNode(d device.Device) list.Detached[device.Device] {
	return r.devices.New(d)
}

func (r *Room) AddDeviceAtHead(d device.Device) list.Handle {
	h := lo.Must(r.devices.PushFront(r.sentinel, d))
	r.logAdded(d, h, "head")
	return h
}

func (r *Room) AddDeviceAtTail(d device.Device) list.Handle {
	h := lo.Must(r.devices.PushBack(r.sentinel, d))
	r.logAdded(d, h, "tail")
	return h
}

func (r *Room) AddDeviceNodeAtHead(n list.Detached[device.Device]) (list.Handle, error) {
	h, err := r.devices.InsertAfter(r.sentinel, n)
	return r.nodeAdded(n, h, err, "head")
}

func (r *Room) AddDeviceNodeAtTail(n list.Detached[device.Device]) (list.Handle, error) {
	h, err := r.devices.InsertBefore(r.sentinel, n)
	return r.nodeAdded(n, h, err, "tail")
}

func (r *Room) nodeAdded(n list.Detached[device.Device], h list.Handle, err error, at string) (list.Handle, error) {
	if err != nil {
		r.opts.logger.ErrorStack(err, "device node rejected",
			zap.String("room", r.text),
			zap.Stringer("node", n.Handle()),
			zap.String("at", at),
		)
		return list.Handle{}, err
	}
	d, _ := r.devices.Value(h)
	r.logAdded(d, h, at)
	return h, nil
}

func (r *Room) logAdded(d device.Device, h list.Handle, at string) {
	r.opts.logger.Debug("device added",
		zap.String("room", r.text),
		zap.String("device", d.Name()),
		zap.Stringer("kind", d.Kind()),
		zap.Stringer("handle", h),
		zap.String("at", at),
	)
}

// FindDevice returns the most recently added device named name. The pointer
// is valid until the next insert into this room.
func (r *Room) FindDevice(name string) (*device.Device, bool) {
	_, d, ok := FindByName(r.chain(), name)
	r.opts.recorder.RecordLookup(LookupDevice, ok)
	return d, ok
}

// Device resolves a handle returned by one of the add methods.
func (r *Room) Device(h list.Handle) (*device.Device, bool) {
	return r.devices.Ref(h)
}

// DetachDevice unlinks the device and hands back its node, which can be
// reinserted into this room.
func (r *Room) DetachDevice(h list.Handle) (list.Detached[device.Device], error) {
	n, err := r.devices.Detach(h)
	if err != nil {
		r.opts.logger.ErrorStack(err, "device detach rejected",
			zap.String("room", r.text),
			zap.Stringer("handle", h),
		)
		return list.Detached[device.Device]{}, err
	}
	r.opts.logger.Debug("device detached", zap.String("room", r.text), zap.Stringer("handle", h))
	return n, nil
}

// RemoveDevice unlinks and frees the most recently added device named name.
func (r *Room) RemoveDevice(name string) (device.Device, bool) {
	h, _, ok := FindByName(r.chain(), name)
	if !ok {
		return device.Device{}, false
	}
	d, err := r.devices.Release(h)
	if err != nil {
		// A handle just found in the chain always resolves.
		panic(infra.WrapErrorStack(err, "release device "+name))
	}
	r.opts.logger.Debug("device removed", zap.String("room", r.text), zap.String("device", name))
	return d, true
}

// Info renders the room text followed by every device status, most
// recently added first, each one terminated by a newline.
func (r *Room) Info() string {
	return r.text + infoSeparator + AggregateStatus(r.chain(), infoSeparator)
}

func (r *Room) IsEmpty() bool {
	return r.chain().IsEmpty()
}

func (r *Room) Len() int64 {
	return r.chain().Len()
}

// Devices copies the devices in forward order.
func (r *Room) Devices() []device.Device {
	return r.chain().Values()
}

func (r *Room) DeviceNames() []string {
	return lo.Map(r.chain().Values(), func(d device.Device, _ int) string {
		return d.Name()
	})
}

// Refresh pulls a new reading from every device.
func (r *Room) Refresh() {
	_ = r.chain().Foreach(func(_ int64, _ list.Handle, d *device.Device) error {
		d.Refresh()
		return nil
	})
}

// Clone deep-copies the room into a fresh arena, keeping the device order.
// The copy belongs to no house.
func (r *Room) Clone() *Room {
	clone := &Room{
		text:    r.text,
		devices: list.NewArena[device.Device](int(r.devices.Len())),
		opts:    r.opts,
	}
	clone.sentinel = clone.devices.NewSentinel()
	_ = r.chain().Foreach(func(_ int64, _ list.Handle, d *device.Device) error {
		lo.Must(clone.devices.PushBack(clone.sentinel, *d))
		return nil
	})
	return clone
}
