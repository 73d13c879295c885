package list

var _ ChainView[struct{}] = (*chainView[struct{}])(nil)

// chainView is a short-lived borrow of one chain. It holds the sentinel slot
// resolved once by Arena.Chain and must not outlive a Release of that sentinel.
type chainView[T any] struct {
	arena    *Arena[T]
	sentinel uint32
}

func (c *chainView[T]) Sentinel() Handle {
	return c.arena.handleOf(c.sentinel)
}

func (c *chainView[T]) IsEmpty() bool {
	return c.arena.next(c.sentinel) == c.sentinel
}

func (c *chainView[T]) Len() int64 {
	var l int64
	for iterator := c.arena.next(c.sentinel); iterator != c.sentinel; iterator = c.arena.next(iterator) {
		l++
	}
	return l
}

func (c *chainView[T]) Front() (Handle, bool) {
	if c.IsEmpty() {
		return Handle{}, false
	}
	return c.arena.handleOf(c.arena.next(c.sentinel)), true
}

func (c *chainView[T]) Back() (Handle, bool) {
	if c.IsEmpty() {
		return Handle{}, false
	}
	return c.arena.handleOf(c.arena.prev(c.sentinel)), true
}

// advance picks the node after visited once fn has returned. A visited node
// that is still linked gives its current neighbour, so fn may detach nodes
// ahead of it. Otherwise the neighbour read before fn ran is used.
func (c *chainView[T]) advance(visited Handle, pending uint32, step func(uint32) uint32) uint32 {
	n := &c.arena.nodes[visited.idx]
	if n.flags.isSet(nodeInUse) && n.gen == visited.gen && !n.selfLooped(visited.idx) {
		return step(visited.idx)
	}
	return pending
}

// Foreach, allows detaching the visited node while iterating.
func (c *chainView[T]) Foreach(fn func(idx int64, h Handle, v *T) error) error {
	if fn == nil || c.IsEmpty() {
		return nil
	}

	var (
		iterator       = c.arena.next(c.sentinel)
		idx      int64 = 0
	)
	for iterator != c.sentinel {
		h, n := c.arena.handleOf(iterator), c.arena.next(iterator)
		if err := fn(idx, h, &c.arena.nodes[iterator].value); err != nil {
			return err
		}
		iterator = c.advance(h, n, c.arena.next)
		idx++
	}
	return nil
}

// ReverseForeach, allows detaching the visited node while iterating.
func (c *chainView[T]) ReverseForeach(fn func(idx int64, h Handle, v *T) error) error {
	if fn == nil || c.IsEmpty() {
		return nil
	}

	var (
		iterator       = c.arena.prev(c.sentinel)
		idx      int64 = 0
	)
	for iterator != c.sentinel {
		h, p := c.arena.handleOf(iterator), c.arena.prev(iterator)
		if err := fn(idx, h, &c.arena.nodes[iterator].value); err != nil {
			return err
		}
		iterator = c.advance(h, p, c.arena.prev)
		idx++
	}
	return nil
}

func (c *chainView[T]) FindFirst(matchFn func(v *T) bool) (Handle, *T, bool) {
	if matchFn == nil {
		return Handle{}, nil, false
	}
	for iterator := c.arena.next(c.sentinel); iterator != c.sentinel; iterator = c.arena.next(iterator) {
		if v := &c.arena.nodes[iterator].value; matchFn(v) {
			return c.arena.handleOf(iterator), v, true
		}
	}
	return Handle{}, nil, false
}

func (c *chainView[T]) Values() []T {
	values := make([]T, 0, 8)
	for iterator := c.arena.next(c.sentinel); iterator != c.sentinel; iterator = c.arena.next(iterator) {
		values = append(values, c.arena.nodes[iterator].value)
	}
	return values
}
