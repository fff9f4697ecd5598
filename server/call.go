package server

import (
	"fmt"

	"github.com/evrpc/evrpc/eventual"
	"github.com/evrpc/evrpc/transport"
)

// Codec describes how to move a (Req, Resp) pair across the wire and what
// descriptor names they must validate against (§4.5's Validate<Req,Resp>).
// The generics live at this boundary, one layer above ServerContext's
// type-erased byte buffers, matching the design notes' "trait-object
// boxing at composition boundaries" guidance.
type Codec[Req, Resp any] struct {
	RequestType  string
	ResponseType string
	Unmarshal    func([]byte) (Req, error)
	Marshal      func(Resp) ([]byte, error)
}

// ServerCall is the typed facade over a ServerContext (§3): Reader/Writer
// for the call's messages, Finish to complete it, WaitForDone/Context for
// lifecycle and metadata.
type ServerCall[Req, Resp any] struct {
	ctx   *ServerContext
	codec Codec[Req, Resp]
}

func newServerCall[Req, Resp any](ctx *ServerContext, codec Codec[Req, Resp]) *ServerCall[Req, Resp] {
	return &ServerCall[Req, Resp]{ctx: ctx, codec: codec}
}

// Context returns the call's untyped ServerContext (method/host/deadline,
// the finish/done sequencer).
func (c *ServerCall[Req, Resp]) Context() *ServerContext { return c.ctx }

// Reader returns the call's request reader.
func (c *ServerCall[Req, Resp]) Reader() *Reader[Req] {
	return &Reader[Req]{
		stream: eventual.StreamThen(c.ctx.rawRead(), func(v any) (any, error) {
			req, err := c.codec.Unmarshal(v.([]byte))
			if err != nil {
				return nil, fmt.Errorf("request failed to deserialize: %w", err)
			}
			return req, nil
		}),
	}
}

// Writer returns the call's response writer.
func (c *ServerCall[Req, Resp]) Writer() *Writer[Resp] {
	return &Writer[Resp]{ctx: c.ctx, marshal: c.codec.Marshal}
}

// Finish submits st as the call's terminal status.
func (c *ServerCall[Req, Resp]) Finish(st transport.Status) eventual.Node {
	return c.ctx.Finish(st)
}

// FinishThenOnDone submits st, then invokes f exactly once the call's
// cancellation is known, only after Finish itself has been accepted.
func (c *ServerCall[Req, Resp]) FinishThenOnDone(st transport.Status, f func(cancelled bool)) eventual.Node {
	return c.ctx.FinishThenOnDone(st, f)
}

// WaitForDone resolves with the call's cancellation flag.
func (c *ServerCall[Req, Resp]) WaitForDone() eventual.Node {
	return c.ctx.WaitForDone()
}

// Reader is a typed stream of inbound requests (§4.4).
type Reader[Req any] struct {
	stream eventual.StreamNode
}

// Read returns the lazy request stream. Values emitted are of dynamic type
// Req; callers compose it with ForEach/Head the way any eventuals stream is
// consumed, asserting the type at the point of use — the same type-erased
// boundary the eventual package documents for Then/Lambda.
func (r *Reader[Req]) Read() eventual.StreamNode { return r.stream }

// Writer is a typed response writer (§4.4).
type Writer[Resp any] struct {
	ctx     *ServerContext
	marshal func(Resp) ([]byte, error)
}

// Write serializes resp and submits it as a non-final message.
func (w *Writer[Resp]) Write(resp Resp) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		b, err := w.marshal(resp)
		if err != nil {
			k.Fail(fmt.Errorf("failed to serialize: %w", err))
			return
		}
		w.ctx.rawWrite(b).Start(k)
	})
}

// WriteLast serializes resp, submits it as the call's final message, and
// resolves immediately: completion (and any write error) is deferred to
// Finish, per §4.4 and the Open Question in §9 about WriteLast's no-op
// completion callback.
func (w *Writer[Resp]) WriteLast(resp Resp) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		b, err := w.marshal(resp)
		if err != nil {
			k.Fail(fmt.Errorf("failed to serialize: %w", err))
			return
		}
		w.ctx.rawWriteLast(b).Start(k)
	})
}
