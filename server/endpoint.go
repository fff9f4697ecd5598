package server

import (
	"time"

	"golang.org/x/time/rate"

	"github.com/evrpc/evrpc/asyncmu"
	"github.com/evrpc/evrpc/eventual"
)

// AcceptOptions configures an Endpoint at registration time. LimitRate
// mirrors the teacher's Callback.LimitRate *rate.Limiter (pipe/options.go):
// an optional cap protecting a slow accept() consumer from an unbounded
// producer, rather than a required knob.
type AcceptOptions struct {
	LimitRate *rate.Limiter
}

// Endpoint is the per-(path,host) rendezvous queue of §3/§4.6: a FIFO of
// pending ServerContexts with a single notify_ callback waking whatever
// consumer is parked in Dequeue. Access is serialized through an
// asyncmu.Mutex so neither Enqueue nor Dequeue ever blocks the goroutine
// that calls them.
type Endpoint struct {
	opts AcceptOptions

	mu     asyncmu.Mutex
	queue  []*ServerContext
	notify func()
}

func newEndpoint(opts AcceptOptions) *Endpoint {
	return &Endpoint{opts: opts}
}

// Enqueue appends sc to the endpoint's queue and wakes any parked
// consumer. It never blocks.
func (e *Endpoint) Enqueue(sc *ServerContext) eventual.Node {
	return e.mu.Synchronized(eventual.Eventual(func(k eventual.K) {
		e.queue = append(e.queue, sc)
		if e.notify != nil {
			n := e.notify
			e.notify = nil
			n()
		}
		k.Start(nil)
	}))
}

// Dequeue pops the oldest pending ServerContext, parking (without blocking
// a goroutine) until Enqueue makes one available. Dequeue ordering is FIFO
// relative to Enqueue ordering (§8). An optional rate limiter throttles how
// quickly the consumer is allowed to pop successive contexts.
func (e *Endpoint) Dequeue() eventual.Node {
	wait := e.mu.Wait(
		func() bool { return len(e.queue) == 0 },
		func(notify func()) { e.notify = notify },
	)
	pop := wait.Pipe(eventual.Then(func(any) (eventual.Node, error) {
		sc := e.queue[0]
		e.queue = e.queue[1:]
		e.mu.Unlock()
		return eventual.Succeed(sc), nil
	}))
	if e.opts.LimitRate == nil {
		return pop
	}
	return pop.Pipe(eventual.Then(func(v any) (eventual.Node, error) {
		return eventual.Eventual(func(k eventual.K) {
			r := e.opts.LimitRate.Reserve()
			if d := r.Delay(); d > 0 {
				time.AfterFunc(d, func() { k.Start(v) })
				return
			}
			k.Start(v)
		}), nil
	}))
}
