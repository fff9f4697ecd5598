// Package eventual implements a lazy, single-shot, push-based continuation
// pipeline: the composable core described for the dispatch runtime. A Node
// is started at most once; it drives exactly one of Start/Fail/Stop on
// whatever continuation (K) it is composed with. Composition is the Pipe
// method, which plays the role of the source design's binary "|" operator:
// it threads a downstream continuation adapter into the upstream node the
// way pipe.Pipe threads a Callback chain through a Direction in the teacher
// library this package is modeled on.
//
// Nodes carry type-erased values (any) rather than a compile-time-threaded
// value type. This is the tagged-node-plus-uniform-vtable rewrite the
// design notes call for: Go has no template-like mechanism to thread
// arbitrary heterogeneous value types through an operator chain the way the
// original C++ library does, so Start/Fail/Stop take `any` and callers use
// type assertions at the edges (Then, Lambda) where the concrete type is
// locally known.
package eventual

import (
	"fmt"
	"sync/atomic"
)

// K is the continuation a Node is started with. Exactly one of Start, Fail,
// or Stop is ever called on a given K.
type K interface {
	Start(v any)
	Fail(err error)
	Stop()
}

// Node is a lazy, single-shot, push-based computation. Starting it with a
// continuation k begins work; k eventually receives exactly one terminal
// signal. A Node must not be started more than once — doing so fails k with
// ErrMisuse instead of running the computation again.
type Node struct {
	used       *atomic.Bool
	startFn    func(k K)
	registerFn func(i *Interrupt)
}

// newNode builds a Node from raw start/register functions. Every exported
// leaf and combinator constructor funnels through this so the single-shot
// guard is always present.
func newNode(start func(k K), register func(i *Interrupt)) Node {
	return Node{used: new(atomic.Bool), startFn: start, registerFn: register}
}

// Start begins the computation, delivering its single terminal signal to k.
// Calling Start a second time on the same Node (including copies produced by
// Pipe, which share the single-shot guard with their upstream) fails k with
// ErrMisuse and performs no work.
func (n Node) Start(k K) {
	if n.used == nil {
		k.Fail(fmt.Errorf("%w: zero-value Node started", ErrMisuse))
		return
	}
	if n.used.Swap(true) {
		k.Fail(fmt.Errorf("%w: eventual node started more than once", ErrMisuse))
		return
	}
	n.startFn(k)
}

// Register propagates an interrupt token upstream so that leaf nodes which
// own cancellable resources (a pending transport Read, a parked Wait) can
// install a handler that releases them when the token fires. Composition
// (Pipe) forwards Register to the upstream node; it does not need to look
// at k because k is not yet known at composition time.
func (n Node) Register(i *Interrupt) {
	if n.registerFn != nil {
		n.registerFn(i)
	}
}

// Pipe composes n with a downstream continuation adapter, producing a new
// Node equivalent to the source design's "n | adapt". Starting the result
// starts n with adapt(k) as its continuation: adapt receives whatever n
// would have delivered to k directly, and decides what (if anything) to
// forward to the real k. Then, Lambda and Catch are the adapters this
// package provides.
func (n Node) Pipe(adapt func(down K) K) Node {
	return Node{
		used: n.used,
		startFn: func(k K) {
			n.startFn(adapt(k))
		},
		registerFn: n.registerFn,
	}
}

// Eventual builds a leaf Node from a raw start function. Most callers want
// Succeed, Fail, or a package like asyncmu/server that builds leaves which
// submit transport operations and resume k from a completion callback.
func Eventual(start func(k K)) Node {
	return newNode(start, nil)
}

// WithRegister attaches a Register hook to a leaf built with Eventual,
// letting a resource-owning leaf react to interruption (e.g. to cancel a
// pending transport read).
func WithRegister(n Node, register func(i *Interrupt)) Node {
	return Node{used: n.used, startFn: n.startFn, registerFn: register}
}

// Succeed returns a Node that immediately starts with value v.
func Succeed(v any) Node {
	return Eventual(func(k K) { k.Start(v) })
}

// Fail returns a Node that immediately fails with err.
func Fail(err error) Node {
	return Eventual(func(k K) { k.Fail(err) })
}

// Stopped returns a Node that immediately stops.
func Stopped() Node {
	return Eventual(func(k K) { k.Stop() })
}
