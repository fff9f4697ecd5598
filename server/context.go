// Package server implements the dispatch side of §4.3-4.6: ServerContext's
// finish/done sequencer, the per-(path,host) Endpoint rendezvous queue, and
// the Server/Builder pair that drives a grpc.Server in generic/raw mode.
// Grounded on the teacher's pipe.go/direction.go Start-Stop-Wait lifecycle
// and on original_source/stout/eventuals/grpc/handler.h for the concrete
// finish-then-done mechanics §3 only describes abstractly.
package server

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"

	"github.com/evrpc/evrpc/eventual"
	"github.com/evrpc/evrpc/transport"
)

// ServerContext owns one call's transport handle (§3): it tracks the call's
// method/host/deadline, and normalizes the transport's unordered
// finish/done callbacks via FinishThenOnDone so that a user's cleanup
// watcher always observes finish before done, regardless of which the
// underlying stream actually delivers first.
type ServerContext struct {
	stream grpc.ServerStream
	method string
	host   string

	finishCh   chan transport.Status
	finishOnce sync.Once
	finished   atomic.Bool

	doneMu        sync.Mutex
	doneFired     bool
	doneCancelled bool
	doneWatchers  []func(cancelled bool)
}

func newServerContext(stream grpc.ServerStream) *ServerContext {
	method, host := transport.MethodAndHost(stream)
	sc := &ServerContext{
		stream:   stream,
		method:   method,
		host:     host,
		finishCh: make(chan transport.Status, 1),
	}
	go sc.watchContextDone()
	return sc
}

// Method returns the dispatched method path ("/pkg.Svc/Method").
func (sc *ServerContext) Method() string { return sc.method }

// Host returns the call's declared host; when none was set it is the peer's
// address, or "" if that is unknown too (see transport.MethodAndHost).
func (sc *ServerContext) Host() string { return sc.host }

// Deadline returns the call's deadline, carried through from the stream's
// context, per the "supplemented" context() accessor.
func (sc *ServerContext) Deadline() (time.Time, bool) {
	return sc.stream.Context().Deadline()
}

// watchContextDone waits for the stream's context to end, which grpc-go
// does unconditionally once the handler returns - including on an ordinary,
// successful completion. So ctx.Err() alone cannot distinguish "the call
// finished normally" from "the call was cancelled/deadline-exceeded": both
// end the context. What distinguishes them is whether Finish was ever
// submitted before the context ended - a call that finished normally always
// has a submitted Finish by the time its handler returns and dispatch's
// select unblocks on finishCh, while a cancelled/expired call's handler may
// never submit one at all.
func (sc *ServerContext) watchContextDone() {
	<-sc.stream.Context().Done()
	sc.fireDone(!sc.finished.Load())
}

func (sc *ServerContext) fireDone(cancelled bool) {
	sc.doneMu.Lock()
	if sc.doneFired {
		sc.doneMu.Unlock()
		return
	}
	sc.doneFired = true
	sc.doneCancelled = cancelled
	watchers := sc.doneWatchers
	sc.doneWatchers = nil
	sc.doneMu.Unlock()

	for _, w := range watchers {
		w(cancelled)
	}
}

// OnDone registers f to observe the call's cancellation flag. f runs
// exactly once, whether installed before or after done fires (§8: "a
// watcher registered via OnDone is invoked exactly once").
func (sc *ServerContext) OnDone(f func(cancelled bool)) {
	sc.doneMu.Lock()
	if sc.doneFired {
		cancelled := sc.doneCancelled
		sc.doneMu.Unlock()
		f(cancelled)
		return
	}
	sc.doneWatchers = append(sc.doneWatchers, f)
	sc.doneMu.Unlock()
}

// Finish submits st as the call's terminal status. The returned Node
// succeeds once the status has been handed to the stream; it fails with
// ErrMisuse if Finish was already submitted (directly or via
// FinishThenOnDone).
func (sc *ServerContext) Finish(st transport.Status) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		// dispatch drains finishCh, so an empty channel alone does not mean
		// Finish was never submitted; the finished flag records that.
		if sc.finished.Swap(true) {
			k.Fail(fmt.Errorf("%w: Finish submitted more than once", eventual.ErrMisuse))
			return
		}
		select {
		case sc.finishCh <- st:
			k.Start(nil)
		default:
			k.Fail(fmt.Errorf("%w: Finish submitted more than once", eventual.ErrMisuse))
		}
	})
}

// FinishThenOnDone implements §4.3's sequencer: it submits st as the call's
// terminal status, then registers f as a done watcher only once that
// submission is accepted — so f always observes finish-then-done ordering
// no matter which the transport actually fires first. Calling it (or
// Finish) a second time on the same context fails fast with ErrMisuse.
func (sc *ServerContext) FinishThenOnDone(st transport.Status, f func(cancelled bool)) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		already := true
		sc.finishOnce.Do(func() { already = false })
		if already {
			k.Fail(fmt.Errorf("%w: FinishThenOnDone called more than once", eventual.ErrMisuse))
			return
		}
		select {
		case sc.finishCh <- st:
			sc.finished.Store(true)
		default:
			k.Fail(fmt.Errorf("%w: Finish already submitted", eventual.ErrMisuse))
			return
		}
		sc.OnDone(f)
		k.Start(nil)
	})
}

// WaitForDone returns a Node that succeeds with the call's cancellation
// flag once done fires.
func (sc *ServerContext) WaitForDone() eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		sc.OnDone(func(cancelled bool) { k.Start(cancelled) })
	})
}

// rawRead returns the untyped byte-buffer stream behind Reader.Read (§4.4):
// one Emit per inbound message, Ended on a clean stream close, Fail on a
// genuine transport error.
func (sc *ServerContext) rawRead() eventual.StreamNode {
	return eventual.NewStream(func(k eventual.StreamK) {
		go func() {
			for {
				var buf []byte
				err := sc.stream.RecvMsg(&buf)
				if err != nil {
					if errors.Is(err, io.EOF) {
						k.Ended()
						return
					}
					k.Fail(fmt.Errorf("read failed: %w", err))
					return
				}
				if !k.Emit(buf) {
					return
				}
			}
		}()
	})
}

// rawWrite submits buf as a non-final message.
func (sc *ServerContext) rawWrite(buf []byte) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		if err := sc.stream.SendMsg(&buf); err != nil {
			k.Fail(fmt.Errorf("failed to write: %w", err))
			return
		}
		k.Start(nil)
	})
}

// rawWriteLast submits buf and resolves immediately, per §4.4: completion
// is deferred to Finish, which the caller must still invoke to observe any
// delivery error.
func (sc *ServerContext) rawWriteLast(buf []byte) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		go func() { _ = sc.stream.SendMsg(&buf) }()
		k.Start(nil)
	})
}
