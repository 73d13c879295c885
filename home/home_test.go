package home

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benz9527/xhome/device"
	"github.com/benz9527/xhome/lib/list"
)

type testRecorder struct {
	hits   atomic.Int64
	misses atomic.Int64
	scopes sync.Map
}

func (r *testRecorder) RecordLookup(scope LookupScope, hit bool) {
	r.scopes.Store(scope, struct{}{})
	if hit {
		r.hits.Add(1)
		return
	}
	r.misses.Add(1)
}

func enabledSocket(name string) device.Device {
	s := device.NewSocket(name)
	s.Enable()
	s.Refresh()
	return device.FromSocket(s)
}

func thermometerAt(name string, kelvin uint16) device.Device {
	return device.FromThermometer(device.Thermometer{Text: name, Kelvin: kelvin})
}

func TestRoom_Room0Scenario(t *testing.T) {
	recorder := &testRecorder{}
	room0 := NewRoom("room0", WithRecorder(recorder))
	room0.AddDeviceAtHead(enabledSocket("socket0"))
	room0.AddDeviceAtHead(thermometerAt("thermometer0", 293))

	socket, ok := room0.FindDevice("socket0")
	require.True(t, ok)
	require.Equal(t, device.KindSocket, socket.Kind())
	require.Equal(t, "socket0", socket.Name())

	missing, ok := room0.FindDevice("missing")
	require.False(t, ok)
	require.Nil(t, missing)
	require.Equal(t, int64(1), recorder.hits.Load())
	require.Equal(t, int64(1), recorder.misses.Load())

	expected := "room0\n" +
		"name: thermometer0\ntemp: 293\n" +
		"name: socket0\nstatus: on\npower: 10000 mW\n"
	require.Equal(t, expected, room0.Info())
	require.Equal(t, []string{"thermometer0", "socket0"}, room0.DeviceNames())
}

func TestAggregateStatus_HeadInsertOrder(t *testing.T) {
	arena := list.NewArena[device.Device]()
	sentinel := arena.NewSentinel()
	c, err := arena.Chain(sentinel)
	require.NoError(t, err)
	require.Equal(t, "", AggregateStatus(c, "|"))

	for _, name := range []string{"A", "B", "C"} {
		_, err = arena.PushFront(sentinel, thermometerAt(name, 1))
		require.NoError(t, err)
	}
	require.Equal(t, "name: C\ntemp: 1|name: B\ntemp: 1|name: A\ntemp: 1|", AggregateStatus(c, "|"))
}

func TestFindByName_RoundTripAndDuplicates(t *testing.T) {
	arena := list.NewArena[device.Device]()
	sentinel := arena.NewSentinel()
	c, err := arena.Chain(sentinel)
	require.NoError(t, err)

	_, _, ok := FindByName(c, "anything")
	require.False(t, ok)

	first, err := arena.PushFront(sentinel, thermometerAt("dup", 100))
	require.NoError(t, err)
	_, err = arena.PushFront(sentinel, enabledSocket("unique"))
	require.NoError(t, err)
	second, err := arena.PushFront(sentinel, thermometerAt("dup", 200))
	require.NoError(t, err)

	h, d, ok := FindByName(c, "unique")
	require.True(t, ok)
	require.Equal(t, enabledSocket("unique"), *d)
	require.False(t, h.IsZero())

	h, d, ok = FindByName(c, "dup")
	require.True(t, ok)
	require.Equal(t, second, h)
	require.NotEqual(t, first, h)
	thermometer, ok := d.AsThermometer()
	require.True(t, ok)
	require.Equal(t, uint16(200), thermometer.Kelvin)

	_, _, ok = FindByName(c, "Dup")
	require.False(t, ok)
}

func TestRoom_FindDeviceMutatesInPlace(t *testing.T) {
	room := NewRoom("kitchen")
	room.AddDeviceAtHead(device.FromSocket(device.NewSocket("kettle")))
	d, ok := room.FindDevice("kettle")
	require.True(t, ok)
	socket, ok := d.AsSocket()
	require.True(t, ok)
	socket.Enable()
	room.Refresh()
	require.Equal(t, "kitchen\nname: kettle\nstatus: on\npower: 10000 mW\n", room.Info())
}

func TestRoom_TailInsertAndNodes(t *testing.T) {
	room := DefaultRoom()
	require.Equal(t, DefaultRoomText, room.Name())
	require.True(t, room.IsEmpty())
	require.Equal(t, "Room\n", room.Info())

	room.AddDeviceAtTail(thermometerAt("t0", 1))
	room.AddDeviceAtTail(thermometerAt("t1", 1))
	h, err := room.AddDeviceNodeAtHead(room.NewDeviceNode(thermometerAt("t2", 1)))
	require.NoError(t, err)
	_, err = room.AddDeviceNodeAtTail(room.NewDeviceNode(thermometerAt("t3", 1)))
	require.NoError(t, err)
	require.Equal(t, []string{"t2", "t0", "t1", "t3"}, room.DeviceNames())
	require.Equal(t, int64(4), room.Len())

	d, ok := room.Device(h)
	require.True(t, ok)
	require.Equal(t, "t2", d.Name())

	// Detach t2 and link it back at the head.
	node, err := room.DetachDevice(h)
	require.NoError(t, err)
	require.Equal(t, []string{"t0", "t1", "t3"}, room.DeviceNames())
	_, err = room.AddDeviceNodeAtHead(node)
	require.NoError(t, err)

	// The token was consumed by the insert above.
	_, err = room.AddDeviceNodeAtTail(node)
	require.ErrorIs(t, err, list.ErrNodeLinked)
	require.Equal(t, []string{"t2", "t0", "t1", "t3"}, room.DeviceNames())
}

func TestRoom_ForeignNodeRejected(t *testing.T) {
	r1, r2 := NewRoom("r1"), NewRoom("r2")
	_, err := r1.AddDeviceNodeAtHead(r2.NewDeviceNode(thermometerAt("t", 1)))
	require.ErrorIs(t, err, list.ErrForeignNode)
	require.True(t, r1.IsEmpty())

	_, err = r1.DetachDevice(list.Handle{})
	require.ErrorIs(t, err, list.ErrStaleHandle)
}

func TestRoom_RemoveDevice(t *testing.T) {
	room := NewRoom("hall")
	room.AddDeviceAtHead(thermometerAt("a", 1))
	h := room.AddDeviceAtHead(thermometerAt("b", 2))
	room.AddDeviceAtHead(thermometerAt("c", 3))

	d, ok := room.RemoveDevice("b")
	require.True(t, ok)
	require.Equal(t, "b", d.Name())
	require.Equal(t, []string{"c", "a"}, room.DeviceNames())
	_, ok = room.Device(h)
	require.False(t, ok)

	_, ok = room.RemoveDevice("b")
	require.False(t, ok)
}

func TestRoom_CloneIsIndependent(t *testing.T) {
	room := NewRoom("lab")
	room.AddDeviceAtHead(device.FromSocket(device.NewSocket("s")))
	room.AddDeviceAtHead(thermometerAt("t", 280))
	room.AddDeviceAtHead(thermometerAt("u", 281))

	clone := room.Clone()
	require.Equal(t, room.Info(), clone.Info())
	require.Equal(t, room.DeviceNames(), clone.DeviceNames())

	d, ok := clone.FindDevice("s")
	require.True(t, ok)
	socket, _ := d.AsSocket()
	socket.Enable()
	clone.RemoveDevice("u")

	require.Equal(t, int64(3), room.Len())
	require.Equal(t, int64(2), clone.Len())
	original, _ := room.FindDevice("s")
	require.Equal(t, "name: s\nstatus: off", original.Status())
}

func newTestHouse(t *testing.T, opts ...Option) *House {
	t.Helper()
	house := NewHouse("House0", opts...)
	for i := 0; i < 2; i++ {
		idx := strconv.Itoa(i)
		room := NewRoom("room"+idx, opts...)
		room.AddDeviceAtHead(enabledSocket("socket" + idx))
		room.AddDeviceAtHead(thermometerAt("thermometer"+idx, 293))
		_, err := house.AddRoomAtHead(room)
		require.NoError(t, err)
	}
	return house
}

func TestHouse_InfoAndLookups(t *testing.T) {
	recorder := &testRecorder{}
	house := newTestHouse(t, WithRecorder(recorder))
	require.Equal(t, int64(2), house.Len())
	require.Equal(t, int64(4), house.DeviceCount())
	require.Equal(t, []string{"room1", "room0"}, house.RoomNames())

	expected := "House0\n" +
		"room1\nname: thermometer1\ntemp: 293\nname: socket1\nstatus: on\npower: 10000 mW\n\n" +
		"room0\nname: thermometer0\ntemp: 293\nname: socket0\nstatus: on\npower: 10000 mW\n\n"
	require.Equal(t, expected, house.Info())

	room, ok := house.FindRoom("room0")
	require.True(t, ok)
	require.Equal(t, "room0", room.Name())

	d, ok := house.FindRoomAndDevice("room1", "socket1")
	require.True(t, ok)
	require.Equal(t, "socket1", d.Name())

	testcases := []struct {
		name   string
		room   string
		device string
	}{
		{"missing room", "room9", "socket0"},
		{"missing device", "room0", "socket9"},
		{"device of another room", "room0", "socket1"},
	}
	for _, tc := range testcases {
		t.Run(tc.name, func(tt *testing.T) {
			d, ok := house.FindRoomAndDevice(tc.room, tc.device)
			assert.False(tt, ok)
			assert.Nil(tt, d)
		})
	}
	_, ok = recorder.scopes.Load(LookupRoom)
	require.True(t, ok)
	_, ok = recorder.scopes.Load(LookupDevice)
	require.True(t, ok)
}

func TestHouse_RoomOwnership(t *testing.T) {
	house := NewHouse("h")
	other := NewHouse("other")
	room := NewRoom("r")

	_, err := house.AddRoomAtHead(nil)
	require.ErrorIs(t, err, ErrNilRoom)

	_, err = house.AddRoomAtTail(room)
	require.NoError(t, err)
	_, err = other.AddRoomAtHead(room)
	require.ErrorIs(t, err, ErrRoomAttached)
	_, err = house.AddRoomAtHead(room)
	require.ErrorIs(t, err, ErrRoomAttached)

	removed, ok := house.RemoveRoom("r")
	require.True(t, ok)
	require.Same(t, room, removed)
	require.Equal(t, int64(0), house.Len())
	_, ok = house.RemoveRoom("r")
	require.False(t, ok)

	_, err = other.AddRoomAtHead(removed)
	require.NoError(t, err)
	require.Equal(t, []string{"r"}, other.RoomNames())
}

func TestHouse_TailOrderAndRefresh(t *testing.T) {
	house := NewHouse("h")
	for _, name := range []string{"a", "b", "c"} {
		room := NewRoom(name)
		room.AddDeviceAtHead(device.FromThermometer(device.NewThermometer(name + "-t")))
		_, err := house.AddRoomAtTail(room)
		require.NoError(t, err)
	}
	require.Equal(t, []string{"a", "b", "c"}, house.RoomNames())

	house.Refresh()
	for _, room := range house.Rooms() {
		d, ok := room.FindDevice(room.Name() + "-t")
		require.True(t, ok)
		require.Equal(t, "name: "+room.Name()+"-t\ntemp: 293", d.Status())
	}
}

func TestHouse_CloneIsIndependent(t *testing.T) {
	house := newTestHouse(t)
	clone := house.Clone()
	require.Equal(t, house.Info(), clone.Info())

	room, ok := clone.FindRoom("room0")
	require.True(t, ok)
	_, err := house.AddRoomAtHead(room)
	require.ErrorIs(t, err, ErrRoomAttached)

	room.RemoveDevice("socket0")
	clone.RemoveRoom("room1")
	require.Equal(t, int64(4), house.DeviceCount())
	require.Equal(t, int64(1), clone.DeviceCount())
}

func TestSyncHouse_ConcurrentReaders(t *testing.T) {
	sh := NewSyncHouse(newTestHouse(t))
	expected := sh.Info()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if i%4 == 0 {
					sh.Refresh()
					continue
				}
				assert.Equal(t, expected, sh.Info())
				_ = sh.View(func(h *House) error {
					_, ok := h.FindRoomAndDevice("room0", "thermometer0")
					assert.True(t, ok)
					return nil
				})
			}
		}(i)
	}
	wg.Wait()
	require.Equal(t, "House0", sh.Name())
}

func TestSyncHouse_UpdateAndSwap(t *testing.T) {
	sh := NewSyncHouse(NewHouse("old"))
	errBoom := errors.New("boom")
	err := sh.Update(func(h *House) error {
		_, err := h.AddRoomAtHead(NewRoom("attic"))
		require.NoError(t, err)
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, "old\nattic\n\n", sh.Info())

	prev := sh.Swap(NewHouse("new"))
	require.Equal(t, "old", prev.Name())
	require.Equal(t, "new\n", sh.Info())
}

func BenchmarkRoom_FindDevice(b *testing.B) {
	room := NewRoom("bench")
	for i := 0; i < 64; i++ {
		room.AddDeviceAtHead(thermometerAt("t"+strconv.Itoa(i), 1))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = room.FindDevice("t0")
	}
	b.ReportAllocs()
}
