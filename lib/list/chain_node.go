package list

import (
	"strconv"
)

// Handle addresses a node slot inside one Arena. The generation changes
// every time the slot is released, so a handle kept past Release never
// resolves to the slot's next occupant.
// The zero Handle never resolves.
type Handle struct {
	idx uint32
	gen uint32
}

func (h Handle) IsZero() bool {
	return h.idx == 0
}

func (h Handle) String() string {
	return "#" + strconv.FormatUint(uint64(h.idx), 10) + "." + strconv.FormatUint(uint64(h.gen), 10)
}

type nodeFlag uint8

const (
	nodeInUse nodeFlag = 1 << iota
	nodeSentinel
)

func (f nodeFlag) isSet(bit nodeFlag) bool {
	return f&bit == bit
}

// chainNode owns its payload. forward and backward are slot indices into
// the same arena and only describe position, never lifetime.
type chainNode[T any] struct {
	forward, backward uint32
	gen               uint32
	flags             nodeFlag
	value             T // It should be placed at the end of the struct to avoid taking too much padding.
}

func (n *chainNode[T]) selfLooped(idx uint32) bool {
	return n.forward == idx && n.backward == idx
}

// Detached is the ownership token of a self-looped node. Only New, Detach
// and Clone produce it, and only InsertAfter/InsertBefore consume it, so a
// handle that is part of a chain cannot reach an insert without going
// through Detach first. Reusing a token after it has been inserted fails
// with ErrNodeLinked.
type Detached[T any] struct {
	arena *Arena[T]
	h     Handle
}

// Handle returns the handle the node keeps once inserted.
func (d Detached[T]) Handle() Handle {
	return d.h
}

// Value returns a copy of the payload, or false if the node was released.
func (d Detached[T]) Value() (T, bool) {
	if d.arena == nil {
		var zero T
		return zero, false
	}
	return d.arena.Value(d.h)
}
