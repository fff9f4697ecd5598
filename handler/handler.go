// Package handler implements the fluent, single-assignment handler builder
// described in §4.2: a record of optional callbacks for the stages
// prepare/ready/body/finished/stop/interrupt, plus an optional shared
// context, that is driven as an eventuals continuation. A server wanting
// only body+finished and a client wanting only prepare+ready build from the
// same Builder.
//
// Values and contexts are carried as `any`, the same type-erasure the
// eventual package uses; the generics live one layer up, at the
// server.ServerCall[Req,Resp] boundary, where the concrete Req/Resp types
// are known.
package handler

import (
	"fmt"

	"github.com/evrpc/evrpc/eventual"
)

// PrepareFunc runs before a call's body, e.g. to configure a deadline or
// install request-level metadata.
type PrepareFunc func(ctx any, args ...any) error

// ReadyFunc runs once the call is ready to proceed (after a successful
// Prepare and, for servers, after the interrupt check in §4.2).
type ReadyFunc func(ctx any, args ...any)

// BodyFunc is the main per-call logic.
type BodyFunc func(ctx any, args ...any)

// FinishedFunc is responsible for completing k itself; if unset,
// Handler.Finished succeeds k with the stage's first argument (or nil).
type FinishedFunc func(ctx any, k eventual.K, args ...any)

// StopFunc handles a Stop signal; required whenever a handler can observe
// one (§4.2: "stop must be defined").
type StopFunc func(ctx any, k eventual.K)

// InterruptFunc handles an already- or soon-to-be-triggered Interrupt.
type InterruptFunc func(ctx any)

// Builder accumulates single-assignment callback slots. Each setter method
// returns a new Builder; once any setter is called twice, Build reports a
// construction-time error and all following setter calls are no-ops.
type Builder struct {
	ctx          any
	ctxSet       bool
	prepare      PrepareFunc
	prepareSet   bool
	ready        ReadyFunc
	readySet     bool
	body         BodyFunc
	bodySet      bool
	finished     FinishedFunc
	finishedSet  bool
	stop         StopFunc
	stopSet      bool
	interrupt    InterruptFunc
	interruptSet bool
	err          error
}

// New returns an empty Builder.
func New() Builder {
	return Builder{}
}

func (b Builder) fail(slot string) Builder {
	if b.err == nil {
		b.err = fmt.Errorf("%w: handler slot %q set more than once", eventual.ErrMisuse, slot)
	}
	return b
}

// Context attaches a shared value threaded into every stage callback.
func (b Builder) Context(ctx any) Builder {
	if b.ctxSet {
		return b.fail("context")
	}
	b.ctx, b.ctxSet = ctx, true
	return b
}

// Prepare sets the prepare callback.
func (b Builder) Prepare(f PrepareFunc) Builder {
	if b.prepareSet {
		return b.fail("prepare")
	}
	b.prepare, b.prepareSet = f, true
	return b
}

// Ready sets the ready callback.
func (b Builder) Ready(f ReadyFunc) Builder {
	if b.readySet {
		return b.fail("ready")
	}
	b.ready, b.readySet = f, true
	return b
}

// Body sets the body callback.
func (b Builder) Body(f BodyFunc) Builder {
	if b.bodySet {
		return b.fail("body")
	}
	b.body, b.bodySet = f, true
	return b
}

// Finished sets the finished callback.
func (b Builder) Finished(f FinishedFunc) Builder {
	if b.finishedSet {
		return b.fail("finished")
	}
	b.finished, b.finishedSet = f, true
	return b
}

// Stop sets the stop callback.
func (b Builder) Stop(f StopFunc) Builder {
	if b.stopSet {
		return b.fail("stop")
	}
	b.stop, b.stopSet = f, true
	return b
}

// Interrupt sets the interrupt callback.
func (b Builder) Interrupt(f InterruptFunc) Builder {
	if b.interruptSet {
		return b.fail("interrupt")
	}
	b.interrupt, b.interruptSet = f, true
	return b
}

// Handler is the immutable record produced by Builder.Build.
type Handler struct {
	ctx       any
	prepare   PrepareFunc
	ready     ReadyFunc
	body      BodyFunc
	finished  FinishedFunc
	stop      StopFunc
	interrupt InterruptFunc
}

// Build finalizes the Builder. It fails if any slot was assigned twice.
func (b Builder) Build() (*Handler, error) {
	if b.err != nil {
		return nil, b.err
	}
	return &Handler{
		ctx:       b.ctx,
		prepare:   b.prepare,
		ready:     b.ready,
		body:      b.body,
		finished:  b.finished,
		stop:      b.stop,
		interrupt: b.interrupt,
	}, nil
}

// Prepare runs the Prepare stage (§4.2): if an interrupt callback exists,
// it attempts to install a handler on i first; if i was already triggered,
// the interrupt callback runs instead of prepare and Prepare returns false
// (abort). Otherwise it runs the user's prepare callback, if any.
func (h *Handler) Prepare(i *eventual.Interrupt, args ...any) (proceed bool, err error) {
	if h.interrupt != nil && i != nil {
		if already := i.Install(func() { h.interrupt(h.ctx) }); already {
			return false, nil
		}
	}
	if h.prepare != nil {
		if err := h.prepare(h.ctx, args...); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Ready runs the Ready stage.
func (h *Handler) Ready(args ...any) {
	if h.ready != nil {
		h.ready(h.ctx, args...)
	}
}

// Body runs the Body stage.
func (h *Handler) Body(args ...any) {
	if h.body != nil {
		h.body(h.ctx, args...)
	}
}

// Finished runs the Finished stage, completing k. If no finished callback
// was set, it defaults to succeeding k with the first argument (or nil).
func (h *Handler) Finished(k eventual.K, args ...any) {
	if h.finished != nil {
		h.finished(h.ctx, k, args...)
		return
	}
	var v any
	if len(args) > 0 {
		v = args[0]
	}
	k.Start(v)
}

// Stop runs the Stop stage. Per §4.2 this must be defined whenever the
// handler can observe a Stop signal; calling it unset is a programmer
// misuse fail-fast rather than a silent no-op.
func (h *Handler) Stop(k eventual.K) {
	if h.stop == nil {
		k.Fail(fmt.Errorf("%w: Stop() reached a handler with no stop callback", eventual.ErrMisuse))
		return
	}
	h.stop(h.ctx, k)
}
