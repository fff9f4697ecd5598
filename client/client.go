// Package client is the thin caller-side counterpart of the server
// package: opening a raw-bytes grpc stream against a method path and
// moving typed Req/Resp values across it. It is deliberately small — the
// spec's testable properties (§8) only require a caller capable of driving
// deadline/unavailable/unimplemented scenarios against a server built with
// this module, not a full eventuals-based client pipeline.
package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/evrpc/evrpc/descriptor"
	"github.com/evrpc/evrpc/transport"
)

// Codec describes how to serialize a request and deserialize a response for
// one method, mirroring server.Codec on the caller's side.
type Codec[Req, Resp any] struct {
	Marshal   func(Req) ([]byte, error)
	Unmarshal func([]byte) (Resp, error)
}

// Dial opens an insecure client connection to target. Credentials are
// fixed to insecure for this module's scope (§1 has no TLS/auth
// non-goal to satisfy); callers needing transport security should build
// their own *grpc.ClientConn and use Call directly.
func Dial(target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	allOpts := make([]grpc.DialOption, 0, len(opts)+1)
	allOpts = append(allOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	allOpts = append(allOpts, opts...)
	return grpc.NewClient(target, allOpts...)
}

// Call opens a client stream for the RPC method name (dotted form, e.g.
// "helloworld.Greeter.SayHello") against cc. host is sent via
// transport.HostMetadataKey so the server can select a specific endpoint
// registration instead of its wildcard one.
func Call[Req, Resp any](ctx context.Context, cc *grpc.ClientConn, name, host string, codec Codec[Req, Resp]) (*ClientCall[Req, Resp], error) {
	path := descriptor.MethodPath(name)
	if host != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, transport.HostMetadataKey, host)
	}
	desc := &grpc.StreamDesc{StreamName: path, ClientStreams: true, ServerStreams: true}
	stream, err := cc.NewStream(ctx, desc, path, grpc.CallContentSubtype(transport.CodecName))
	if err != nil {
		return nil, err
	}
	return &ClientCall[Req, Resp]{stream: stream, codec: codec}, nil
}

// ClientCall is the caller-side counterpart of server.ServerCall.
type ClientCall[Req, Resp any] struct {
	stream grpc.ClientStream
	codec  Codec[Req, Resp]
}

// Send serializes and submits req.
func (c *ClientCall[Req, Resp]) Send(req Req) error {
	b, err := c.codec.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	return c.stream.SendMsg(&b)
}

// CloseSend half-closes the stream; no further Send calls are valid.
func (c *ClientCall[Req, Resp]) CloseSend() error { return c.stream.CloseSend() }

// Recv reads and deserializes the next response. A nil error with the
// stream exhausted surfaces as io.EOF from the underlying transport;
// RecvMsg returns the call's final Status as an error once the server
// finishes the call.
func (c *ClientCall[Req, Resp]) Recv() (Resp, error) {
	var zero Resp
	var buf []byte
	if err := c.stream.RecvMsg(&buf); err != nil {
		return zero, err
	}
	resp, err := c.codec.Unmarshal(buf)
	if err != nil {
		return zero, fmt.Errorf("response failed to deserialize: %w", err)
	}
	return resp, nil
}

// Unary performs a single request/response round trip and reports the
// call's status alongside any local (non-status) error.
func Unary[Req, Resp any](ctx context.Context, cc *grpc.ClientConn, name, host string, codec Codec[Req, Resp], req Req) (Resp, transport.Status, error) {
	var zero Resp

	call, err := Call[Req, Resp](ctx, cc, name, host, codec)
	if err != nil {
		return zero, transport.FromError(err), err
	}
	if err := call.Send(req); err != nil {
		return zero, transport.FromError(err), err
	}
	if err := call.CloseSend(); err != nil {
		return zero, transport.FromError(err), err
	}
	resp, err := call.Recv()
	if err != nil {
		return zero, transport.FromError(err), err
	}
	return resp, transport.OK(), nil
}
