package home

import (
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/benz9527/xhome/device"
	"github.com/benz9527/xhome/lib/infra"
	"github.com/benz9527/xhome/lib/list"
)

// House owns a chain of rooms. The rooms are held by pointer so a *Room
// returned by FindRoom stays valid while rooms are added.
type House struct {
	text     string
	rooms    *list.Arena[*Room]
	sentinel list.Handle
	opts     homeOptions
}

func NewHouse(text string, opts ...Option) *House {
	rooms := list.NewArena[*Room]()
	return &House{
		text:     text,
		rooms:    rooms,
		sentinel: rooms.NewSentinel(),
		opts:     applyOptions(opts),
	}
}

func (h *House) Name() string {
	return h.text
}

func (h *House) chain() list.ChainView[*Room] {
	return lo.Must(h.rooms.Chain(h.sentinel))
}

func (h *House) checkRoom(r *Room) error {
	if r == nil {
		return infra.WrapErrorStack(ErrNilRoom, h.text)
	}
	if r.attached {
		return infra.WrapErrorStack(ErrRoomAttached, r.text)
	}
	return nil
}

// AddRoomAtHead takes ownership of r. A room can belong to one house only.
func (h *House) AddRoomAtHead(r *Room) (list.Handle, error) {
	return h.addRoom(r, "head")
}

func (h *House) AddRoomAtTail(r *Room) (list.Handle, error) {
	return h.addRoom(r, "tail")
}

func (h *House) addRoom(r *Room, at string) (list.Handle, error) {
	if err := h.checkRoom(r); err != nil {
		h.opts.logger.ErrorStack(err, "room rejected", zap.String("house", h.text), zap.String("at", at))
		return list.Handle{}, err
	}
	var (
		handle list.Handle
		err    error
	)
	if at == "tail" {
		handle, err = h.rooms.PushBack(h.sentinel, r)
	} else {
		handle, err = h.rooms.PushFront(h.sentinel, r)
	}
	if err != nil {
		return list.Handle{}, err
	}
	r.attached = true
	h.opts.logger.Debug("room added",
		zap.String("house", h.text),
		zap.String("room", r.text),
		zap.Stringer("handle", handle),
		zap.String("at", at),
	)
	return handle, nil
}

func (h *House) FindRoom(name string) (*Room, bool) {
	_, r, ok := FindByName(h.chain(), name)
	h.opts.recorder.RecordLookup(LookupRoom, ok)
	if !ok {
		return nil, false
	}
	return *r, true
}

// FindRoomAndDevice resolves the room first, then the device inside it.
// A miss at either stage is an overall miss.
func (h *House) FindRoomAndDevice(roomName, deviceName string) (*device.Device, bool) {
	r, ok := h.FindRoom(roomName)
	if !ok {
		return nil, false
	}
	return r.FindDevice(deviceName)
}

// RemoveRoom unlinks the most recently added room named name and gives it
// back to the caller, free to join another house.
func (h *House) RemoveRoom(name string) (*Room, bool) {
	handle, _, ok := FindByName(h.chain(), name)
	if !ok {
		return nil, false
	}
	r, err := h.rooms.Release(handle)
	if err != nil {
		panic(infra.WrapErrorStack(err, "release room "+name))
	}
	r.attached = false
	h.opts.logger.Debug("room removed", zap.String("house", h.text), zap.String("room", name))
	return r, true
}

// Info renders the house text followed by every room report, most recently
// added first, each one terminated by a newline.
func (h *House) Info() string {
	return h.text + infoSeparator + AggregateStatus(h.chain(), infoSeparator)
}

func (h *House) Len() int64 {
	return h.chain().Len()
}

// DeviceCount sums the devices of every room.
func (h *House) DeviceCount() int64 {
	return lo.SumBy(h.chain().Values(), func(r *Room) int64 {
		return r.Len()
	})
}

func (h *House) RoomNames() []string {
	return lo.Map(h.chain().Values(), func(r *Room, _ int) string {
		return r.text
	})
}

// Rooms lists the rooms in forward order.
func (h *House) Rooms() []*Room {
	return h.chain().Values()
}

func (h *House) Refresh() {
	_ = h.chain().Foreach(func(_ int64, _ list.Handle, r **Room) error {
		(*r).Refresh()
		return nil
	})
	h.opts.logger.Debug("house refreshed", zap.String("house", h.text))
}

// Clone deep-copies every room into a new house, keeping the room order.
func (h *House) Clone() *House {
	clone := &House{
		text:  h.text,
		rooms: list.NewArena[*Room](int(h.rooms.Len())),
		opts:  h.opts,
	}
	clone.sentinel = clone.rooms.NewSentinel()
	_ = h.chain().Foreach(func(_ int64, _ list.Handle, r **Room) error {
		room := (*r).Clone()
		room.attached = true
		lo.Must(clone.rooms.PushBack(clone.sentinel, room))
		return nil
	})
	return clone
}
