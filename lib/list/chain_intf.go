package list

import (
	"errors"
)

// Note that the chain is not thread safe.
// Every structural mutation must be serialized by the owner of the arena.
// Read-only traversals may run concurrently with each other, never with a
// mutation of the same arena.

var (
	ErrStaleHandle  = errors.New("[chain] stale or unknown node handle")
	ErrNodeLinked   = errors.New("[chain] node is still linked into a chain")
	ErrForeignNode  = errors.New("[chain] node belongs to another arena")
	ErrSentinelNode = errors.New("[chain] operation not permitted on a sentinel")
	ErrNotSentinel  = errors.New("[chain] node is not a sentinel")
	ErrSelfAnchor   = errors.New("[chain] node cannot be anchored to itself")
	ErrChainInUse   = errors.New("[chain] sentinel still anchors linked nodes")
)

// Cloner is implemented by payloads that need a deep copy when their node
// is cloned. Payloads without it are copied by value.
type Cloner[T any] interface {
	Clone() T
}

// ChainView is the read-only surface of a chain anchored at a sentinel.
type ChainView[T any] interface {
	// Sentinel returns the anchor of the chain.
	Sentinel() Handle
	// IsEmpty reports whether the sentinel is self-looped.
	IsEmpty() bool
	// Len walks the chain and counts its nodes, the sentinel excluded.
	Len() int64
	// Front returns the node right after the sentinel.
	Front() (Handle, bool)
	// Back returns the node right before the sentinel.
	Back() (Handle, bool)
	// Foreach traverses the chain in forward order and executes fn for each node.
	// If fn returns an error, the traversal stops and returns the error.
	// fn may detach or release the node it is visiting, and may detach nodes
	// it has not reached yet while the visited node stays linked. Detaching
	// both the visited node and its neighbour in one call, or inserting into
	// the traversed chain, breaks the walk and is a contract violation.
	Foreach(fn func(idx int64, h Handle, v *T) error) error
	// ReverseForeach traverses the chain in backward order, under the same
	// rules as Foreach.
	ReverseForeach(fn func(idx int64, h Handle, v *T) error) error
	// FindFirst returns the first node in forward order whose payload satisfies matchFn.
	FindFirst(matchFn func(v *T) bool) (Handle, *T, bool)
	// Values copies every payload in forward order.
	Values() []T
}

// ChainManager owns the nodes of one arena and is the only writer of their
// forward/backward links.
type ChainManager[T any] interface {
	// New creates a self-looped node holding v.
	New(v T) Detached[T]
	// NewSentinel creates a self-looped anchor holding the zero value of T.
	NewSentinel() Handle
	// InsertAfter splices a detached node immediately after anchor.
	InsertAfter(anchor Handle, node Detached[T]) (Handle, error)
	// InsertBefore splices a detached node immediately before anchor.
	// With a sentinel anchor it is an insert at the chain tail.
	InsertBefore(anchor Handle, node Detached[T]) (Handle, error)
	// PushFront creates a node holding v and inserts it right after the sentinel.
	PushFront(sentinel Handle, v T) (Handle, error)
	// PushBack creates a node holding v and inserts it right before the sentinel.
	PushBack(sentinel Handle, v T) (Handle, error)
	// Detach removes the node from its chain and restores its self-loop.
	// Detaching a detached node is a no-op.
	Detach(h Handle) (Detached[T], error)
	// Release detaches the node, frees its slot and invalidates every handle to it.
	Release(h Handle) (T, error)
	// Clone creates a new self-looped node holding a deep copy of h's payload.
	// The copy never joins the chain of the original.
	Clone(h Handle) (Detached[T], error)
	// IsEmpty reports whether the anchor is self-looped.
	IsEmpty(anchor Handle) (bool, error)
	// Chain returns a read-only view of the chain anchored at sentinel.
	Chain(sentinel Handle) (ChainView[T], error)
}
