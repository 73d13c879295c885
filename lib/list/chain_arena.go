package list

import (
	"math"

	"github.com/benz9527/xhome/lib/infra"
)

var _ ChainManager[struct{}] = (*Arena[struct{}])(nil) // Type check assertion

// reservedSlot keeps index 0 unused so that the zero Handle never resolves.
const reservedSlot = 0

// Arena is a flat growable store of chain nodes addressed by Handle.
// Released slots are recycled LIFO. Growing the backing slice moves the
// nodes, which is harmless because links are indices, but any *T obtained
// from Ref, FindFirst or Foreach is only valid until the next New/Push/Clone.
type Arena[T any] struct {
	nodes    []chainNode[T]
	recycled []uint32
	live     int64
}

func NewArena[T any](capacity ...int) *Arena[T] {
	c := 16
	if len(capacity) > 0 && capacity[0] > 0 {
		c = capacity[0]
	}
	arena := &Arena[T]{
		nodes:    make([]chainNode[T], 1, c+1),
		recycled: make([]uint32, 0, 8),
	}
	return arena
}

// Len returns the number of live nodes, sentinels included.
func (a *Arena[T]) Len() int64 {
	return a.live
}

// Cap returns the number of slots allocated so far, reserved slot excluded.
func (a *Arena[T]) Cap() int {
	return len(a.nodes) - 1
}

func (a *Arena[T]) alloc(v T, flags nodeFlag) uint32 {
	var idx uint32
	if l := len(a.recycled); l > 0 {
		idx = a.recycled[l-1]
		a.recycled = a.recycled[:l-1]
	} else {
		if uint64(len(a.nodes)) > math.MaxUint32 {
			panic(infra.NewErrorStack("[chain] arena exhausted"))
		}
		a.nodes = append(a.nodes, chainNode[T]{gen: 1})
		idx = uint32(len(a.nodes) - 1)
	}
	n := &a.nodes[idx]
	n.flags = nodeInUse | flags
	n.value = v
	n.forward, n.backward = idx, idx
	a.live++
	return idx
}

func (a *Arena[T]) free(idx uint32) T {
	n := &a.nodes[idx]
	v := n.value
	var zero T
	n.value = zero
	n.flags = 0
	n.forward, n.backward = idx, idx
	if n.gen++; n.gen == 0 {
		n.gen = 1
	}
	a.recycled = append(a.recycled, idx)
	a.live--
	return v
}

func (a *Arena[T]) handleOf(idx uint32) Handle {
	return Handle{idx: idx, gen: a.nodes[idx].gen}
}

func (a *Arena[T]) resolve(h Handle) (uint32, error) {
	if h.idx == reservedSlot || int(h.idx) >= len(a.nodes) {
		return 0, infra.WrapErrorStack(ErrStaleHandle, h.String())
	}
	n := &a.nodes[h.idx]
	if !n.flags.isSet(nodeInUse) || n.gen != h.gen {
		return 0, infra.WrapErrorStack(ErrStaleHandle, h.String())
	}
	return h.idx, nil
}

// splice links the self-looped node idx right after prev. Afterwards
// prev.forward.backward == prev holds again for every touched node.
func (a *Arena[T]) splice(prev, idx uint32) {
	next := a.nodes[prev].forward
	a.nodes[idx].backward = prev
	a.nodes[idx].forward = next
	a.nodes[next].backward = idx
	a.nodes[prev].forward = idx
}

// unlink relinks the neighbours of idx to each other and self-loops idx.
// On an already self-looped node it writes the same values back.
func (a *Arena[T]) unlink(idx uint32) {
	n := &a.nodes[idx]
	a.nodes[n.backward].forward = n.forward
	a.nodes[n.forward].backward = n.backward
	n.forward, n.backward = idx, idx
}

func (a *Arena[T]) New(v T) Detached[T] {
	idx := a.alloc(v, 0)
	return Detached[T]{arena: a, h: a.handleOf(idx)}
}

func (a *Arena[T]) NewSentinel() Handle {
	var zero T
	return a.handleOf(a.alloc(zero, nodeSentinel))
}

// checkInsert validates both sides of an insert before any link is written.
func (a *Arena[T]) checkInsert(anchor Handle, node Detached[T]) (at, idx uint32, err error) {
	if node.arena != a {
		return 0, 0, infra.WrapErrorStack(ErrForeignNode, node.h.String())
	}
	if at, err = a.resolve(anchor); err != nil {
		return 0, 0, err
	}
	if idx, err = a.resolve(node.h); err != nil {
		return 0, 0, err
	}
	switch n := &a.nodes[idx]; {
	case at == idx:
		return 0, 0, infra.WrapErrorStack(ErrSelfAnchor, node.h.String())
	case n.flags.isSet(nodeSentinel):
		return 0, 0, infra.WrapErrorStack(ErrSentinelNode, node.h.String())
	case !n.selfLooped(idx):
		return 0, 0, infra.WrapErrorStack(ErrNodeLinked, node.h.String())
	default:
	}
	return at, idx, nil
}

func (a *Arena[T]) InsertAfter(anchor Handle, node Detached[T]) (Handle, error) {
	at, idx, err := a.checkInsert(anchor, node)
	if err != nil {
		return Handle{}, err
	}
	a.splice(at, idx)
	return a.handleOf(idx), nil
}

func (a *Arena[T]) InsertBefore(anchor Handle, node Detached[T]) (Handle, error) {
	at, idx, err := a.checkInsert(anchor, node)
	if err != nil {
		return Handle{}, err
	}
	a.splice(a.nodes[at].backward, idx)
	return a.handleOf(idx), nil
}

func (a *Arena[T]) checkSentinel(sentinel Handle) (uint32, error) {
	idx, err := a.resolve(sentinel)
	if err != nil {
		return 0, err
	}
	if !a.nodes[idx].flags.isSet(nodeSentinel) {
		return 0, infra.WrapErrorStack(ErrNotSentinel, sentinel.String())
	}
	return idx, nil
}

func (a *Arena[T]) PushFront(sentinel Handle, v T) (Handle, error) {
	at, err := a.checkSentinel(sentinel)
	if err != nil {
		return Handle{}, err
	}
	idx := a.alloc(v, 0)
	a.splice(at, idx)
	return a.handleOf(idx), nil
}

func (a *Arena[T]) PushBack(sentinel Handle, v T) (Handle, error) {
	at, err := a.checkSentinel(sentinel)
	if err != nil {
		return Handle{}, err
	}
	idx := a.alloc(v, 0)
	a.splice(a.nodes[at].backward, idx)
	return a.handleOf(idx), nil
}

func (a *Arena[T]) Detach(h Handle) (Detached[T], error) {
	idx, err := a.resolve(h)
	if err != nil {
		return Detached[T]{}, err
	}
	if a.nodes[idx].flags.isSet(nodeSentinel) {
		return Detached[T]{}, infra.WrapErrorStack(ErrSentinelNode, h.String())
	}
	a.unlink(idx)
	return Detached[T]{arena: a, h: h}, nil
}

func (a *Arena[T]) Release(h Handle) (T, error) {
	idx, err := a.resolve(h)
	if err != nil {
		var zero T
		return zero, err
	}
	if n := &a.nodes[idx]; n.flags.isSet(nodeSentinel) && !n.selfLooped(idx) {
		var zero T
		return zero, infra.WrapErrorStack(ErrChainInUse, h.String())
	}
	a.unlink(idx)
	return a.free(idx), nil
}

func (a *Arena[T]) Clone(h Handle) (Detached[T], error) {
	idx, err := a.resolve(h)
	if err != nil {
		return Detached[T]{}, err
	}
	if a.nodes[idx].flags.isSet(nodeSentinel) {
		return Detached[T]{}, infra.WrapErrorStack(ErrSentinelNode, h.String())
	}
	v := a.nodes[idx].value
	if c, ok := any(v).(Cloner[T]); ok {
		v = c.Clone()
	}
	return a.New(v), nil
}

func (a *Arena[T]) IsEmpty(anchor Handle) (bool, error) {
	idx, err := a.resolve(anchor)
	if err != nil {
		return false, err
	}
	return a.nodes[idx].forward == idx, nil
}

// IsDetached reports whether h resolves to a self-looped, non-sentinel node.
func (a *Arena[T]) IsDetached(h Handle) bool {
	idx, err := a.resolve(h)
	if err != nil {
		return false
	}
	n := &a.nodes[idx]
	return !n.flags.isSet(nodeSentinel) && n.selfLooped(idx)
}

// Value returns a copy of the payload held by h.
func (a *Arena[T]) Value(h Handle) (T, bool) {
	idx, err := a.resolve(h)
	if err != nil {
		var zero T
		return zero, false
	}
	return a.nodes[idx].value, true
}

// Ref borrows the payload held by h for in-place mutation.
func (a *Arena[T]) Ref(h Handle) (*T, bool) {
	idx, err := a.resolve(h)
	if err != nil {
		return nil, false
	}
	return &a.nodes[idx].value, true
}

// Update runs fn against the payload held by h.
func (a *Arena[T]) Update(h Handle, fn func(v *T)) error {
	idx, err := a.resolve(h)
	if err != nil {
		return err
	}
	if fn != nil {
		fn(&a.nodes[idx].value)
	}
	return nil
}

func (a *Arena[T]) next(idx uint32) uint32 {
	return a.nodes[idx].forward
}

func (a *Arena[T]) prev(idx uint32) uint32 {
	return a.nodes[idx].backward
}

func (a *Arena[T]) Chain(sentinel Handle) (ChainView[T], error) {
	idx, err := a.checkSentinel(sentinel)
	if err != nil {
		return nil, err
	}
	return &chainView[T]{arena: a, sentinel: idx}, nil
}
