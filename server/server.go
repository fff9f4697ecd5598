package server

import (
	"fmt"
	"net"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"

	"github.com/evrpc/evrpc/descriptor"
	"github.com/evrpc/evrpc/transport"
)

// Server owns the transport server and the endpoint registry of §3: a map
// from (path, host) to Endpoint, grown monotonically by insertEndpoint and
// read by dispatch on every inbound stream. Concurrent dispatch goroutines
// read the map far more often than Accept mutates it, the same
// read-heavy/write-rare shape the teacher's pipe.KV addresses with
// xsync.MapOf.
type Server struct {
	descriptors *descriptor.Pool
	logger      *zerolog.Logger

	grpcServer *grpc.Server
	listener   net.Listener

	endpoints *xsync.MapOf[string, *Endpoint]

	stopped      chan struct{}
	shutdownOnce sync.Once
}

// noopK discards a terminal signal; used where a leaf's completion is
// observed some other way (here, Enqueue's own success is never in
// question — the interesting event is the later Finish on the channel).
type noopK struct{}

func (noopK) Start(any)  {}
func (noopK) Fail(error) {}
func (noopK) Stop()      {}

// dispatch is the body of grpc.UnknownServiceHandler: the dispatch loop of
// §4.5 steps 3-5, re-armed implicitly by grpc-go calling it once per
// inbound stream for the server's lifetime (see SUPPLEMENTED FEATURES).
func (s *Server) dispatch(_ any, stream grpc.ServerStream) error {
	sc := newServerContext(stream)

	ep, ok := s.lookupEndpoint(sc.method, sc.host)
	if !ok {
		s.logger.Warn().Str("method", sc.method).Str("host", sc.host).Msg("server: unimplemented method")
		return transport.Errorf(codes.Unimplemented, "unimplemented method %s", sc.method).Err()
	}

	ep.Enqueue(sc).Start(noopK{})

	// The handler's own goroutine is the stream's lifetime: it must not
	// return before Finish is submitted, but it also must not outlive the
	// call's context (a deadline or client cancellation the handler's
	// pipeline never observes directly) — otherwise this goroutine, and
	// grpc-go's bookkeeping for it, leaks for the life of the server.
	select {
	case st := <-sc.finishCh:
		return st.Err()
	case <-stream.Context().Done():
		return stream.Context().Err()
	}
}

func (s *Server) lookupEndpoint(path, host string) (*Endpoint, bool) {
	if host != "" {
		if ep, ok := s.endpoints.Load(endpointKey(path, host)); ok {
			return ep, true
		}
	}
	return s.endpoints.Load(endpointKey(path, "*"))
}

// insertEndpoint registers a new Endpoint for (path, host). Re-registering
// the same pair fails with ErrAlreadyServing (§3/§8).
func (s *Server) insertEndpoint(path, host string, opts AcceptOptions) (*Endpoint, error) {
	ep := newEndpoint(opts)
	actual, loaded := s.endpoints.LoadOrStore(endpointKey(path, host), ep)
	if loaded {
		return nil, fmt.Errorf("%w: %s for host %s", ErrAlreadyServing, path, host)
	}
	return actual, nil
}

func endpointKey(path, host string) string { return path + "\x00" + host }

// Shutdown stops accepting new streams and gracefully drains in-flight
// ones (§4.5). It is safe to call more than once.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.grpcServer.GracefulStop()
	})
}

// ForceStop aborts the server immediately, without draining in-flight
// calls — useful for simulating an abrupt process crash in tests. It is
// safe to call more than once, and safe to call alongside Shutdown (the
// first of either wins).
func (s *Server) ForceStop() {
	s.shutdownOnce.Do(func() {
		s.grpcServer.Stop()
	})
}

// Wait blocks until the server has fully stopped serving.
func (s *Server) Wait() {
	<-s.stopped
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
