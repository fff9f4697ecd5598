// Package transport adapts this module's generic (untyped) byte-buffer RPC
// core onto google.golang.org/grpc's "unknown service" generic-call path —
// the Go analog of the grpc-core completion-queue API the distilled spec
// wraps (grpc::GenericServerContext / grpc::ServerCompletionQueue /
// grpc::ServerBuilder in the original C++ source). Wire encoding itself
// stays delegated to grpc-go per §1's non-goal: this package never
// interprets message bytes, it only moves them.
package transport

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered with grpc's encoding package so that a
// *grpc.Server configured with this codec delivers and accepts raw,
// unparsed byte buffers instead of requiring a proto.Message.
const CodecName = "raw-bytes"

// RawCodec is a passthrough grpc codec: Marshal/Unmarshal just move bytes
// in and out of a *[]byte, the same "untyped byte-buffer" contract §1
// describes for the underlying transport.
type RawCodec struct{}

// Marshal implements encoding.Codec.
func (RawCodec) Marshal(v any) ([]byte, error) {
	b, ok := v.(*[]byte)
	if !ok {
		return nil, fmt.Errorf("transport: RawCodec.Marshal: expected *[]byte, got %T", v)
	}
	return *b, nil
}

// Unmarshal implements encoding.Codec.
func (RawCodec) Unmarshal(data []byte, v any) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("transport: RawCodec.Unmarshal: expected *[]byte, got %T", v)
	}
	*b = append((*b)[:0], data...)
	return nil
}

// Name implements encoding.Codec.
func (RawCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(RawCodec{})
}
