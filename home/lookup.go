package home

import (
	"strings"

	"github.com/benz9527/xhome/device"
	"github.com/benz9527/xhome/lib/list"
)

// FindByName walks the chain forward from the sentinel and stops at the
// first payload named name. With head inserts that is the most recently
// added one. The pointer is valid until the next insert into the arena.
func FindByName[T device.Capability](c list.ChainView[T], name string) (list.Handle, *T, bool) {
	return c.FindFirst(func(v *T) bool {
		return (*v).Name() == name
	})
}

// AggregateStatus concatenates every payload status in forward order,
// each one followed by sep, the last one included.
func AggregateStatus[T device.Capability](c list.ChainView[T], sep string) string {
	builder := strings.Builder{}
	_ = c.Foreach(func(_ int64, _ list.Handle, v *T) error {
		_, _ = builder.WriteString((*v).Status())
		_, _ = builder.WriteString(sep)
		return nil
	})
	return builder.String()
}
