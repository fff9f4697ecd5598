package server

import (
	"github.com/evrpc/evrpc/eventual"
	"github.com/evrpc/evrpc/handler"
)

// Serve drives every call emitted by calls (the stream Accept returns)
// through h's Prepare/Ready/Body/Finished/Stop lifecycle (§4.2). It is the
// dispatch-side counterpart to Accept: Accept turns an endpoint's queue into
// a stream of typed calls, Serve is what actually runs a handler.Handler
// against each one.
//
// A fresh eventual.Interrupt is installed per call and wired to the call's
// own cancellation via ServerContext.OnDone, so a handler's Interrupt
// callback runs for real when a client cancels or a deadline fires, not only
// when a test triggers it directly. If the call was already cancelled when
// Prepare runs, the Stop stage runs in place of Ready/Body/Finished; a
// cancellation that arrives after Prepare runs only the Interrupt callback.
//
// Serve is a free function rather than a method for the same reason Accept
// and Call are: Go methods cannot declare type parameters of their own.
func Serve[Req, Resp any](calls eventual.StreamNode, h *handler.Handler) eventual.Node {
	return calls.ForEach(func(v any) eventual.Node {
		call := v.(*ServerCall[Req, Resp])
		return eventual.Eventual(func(k eventual.K) {
			i := eventual.NewInterrupt()
			call.ctx.OnDone(func(cancelled bool) {
				if cancelled {
					i.Trigger()
				}
			})

			proceed, err := h.Prepare(i, call)
			if err != nil {
				k.Fail(err)
				return
			}
			if !proceed {
				h.Stop(k)
				return
			}

			h.Ready(call)
			h.Body(call)
			h.Finished(k, call)
		})
	})
}
