package transport

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// HostMetadataKey is the metadata key clients set to choose a specific
// endpoint host, falling back to the wildcard "*" endpoint when unset.
// grpc-go does not expose the HTTP/2 ":authority" pseudo-header through its
// metadata API, so unlike a raw grpc-core generic service (which reads the
// host directly off the call), this module asks callers to pass it
// explicitly — an Open Question in §9 the source leaves undefined; this is
// this module's resolution, recorded in DESIGN.md.
const HostMetadataKey = "rpc-host"

// MethodAndHost extracts the RPC method path and the call's declared host
// from an inbound server stream, for endpoint lookup per §4.5 step 3.
func MethodAndHost(stream grpc.ServerStream) (method, host string) {
	method, _ = grpc.MethodFromServerStream(stream)

	ctx := stream.Context()
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vs := md.Get(HostMetadataKey); len(vs) > 0 {
			host = vs[0]
		}
	}
	if host == "" {
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			host = p.Addr.String()
		}
	}
	return method, host
}
