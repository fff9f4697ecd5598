package server

import (
	"github.com/evrpc/evrpc/descriptor"
	"github.com/evrpc/evrpc/eventual"
)

// Accept implements §4.5's registration pipeline:
//
//  1. Validate<Req,Resp>(name) against the server's descriptor pool.
//  2. Insert the endpoint under the server's registry (unique per
//     (path, host); duplicates fail ErrAlreadyServing).
//  3. Repeat(Dequeue then wrap as ServerCall[Req,Resp]) — an infinite
//     stream, one emission per incoming call, for the caller to compose
//     further (typically with StreamNode.ForEach or Head for a single call).
//
// Accept is a free function, not a method, because Go methods cannot
// declare their own type parameters independently of their receiver's.
func Accept[Req, Resp any](s *Server, name string, codec Codec[Req, Resp], host string, opts ...AcceptOptions) (eventual.StreamNode, error) {
	if host == "" {
		host = "*"
	}
	if _, err := s.descriptors.Validate(name, codec.RequestType, codec.ResponseType); err != nil {
		return eventual.StreamNode{}, err
	}

	path := descriptor.MethodPath(name)

	var o AcceptOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	ep, err := s.insertEndpoint(path, host, o)
	if err != nil {
		return eventual.StreamNode{}, err
	}

	return eventual.Repeat(func() eventual.Node {
		return ep.Dequeue().Pipe(eventual.Lambda(func(v any) any {
			return newServerCall[Req, Resp](v.(*ServerContext), codec)
		}))
	}), nil
}
