package server

import (
	"fmt"
	"net"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"google.golang.org/grpc"

	"github.com/evrpc/evrpc/descriptor"
	"github.com/evrpc/evrpc/transport"
)

// Builder is the fluent construction API of §6: each setter returns a new
// Builder, mirroring the teacher's pipe.Options chain (options.go).
// SetCompletionQueues/SetMinPollersPerCQ/SetMaxPollersPerCQ reproduce the
// three knobs original_source/stout/grpc/server.h exposes; grpc-go has no
// literal completion-queue abstraction, so they are translated into
// grpc.NumStreamWorkers, the closest Go analog (a bounded pool of
// goroutines pulling inbound streams off a shared queue, rather than one
// goroutine per stream).
type Builder struct {
	descriptors *descriptor.Pool
	logger      *zerolog.Logger

	completionQueues int
	minPollersPerCQ  int
	maxPollersPerCQ  int

	listenNetwork string
	listenAddr    string
}

// NewBuilder returns a Builder validating Accept calls against descriptors.
func NewBuilder(descriptors *descriptor.Pool) Builder {
	return Builder{descriptors: descriptors, completionQueues: 1}
}

// Logger attaches a *zerolog.Logger to the built Server; defaults to
// zerolog.Nop() when unset.
func (b Builder) Logger(l *zerolog.Logger) Builder {
	b.logger = l
	return b
}

// SetCompletionQueues sets the number of completion queues.
func (b Builder) SetCompletionQueues(n int) Builder {
	b.completionQueues = n
	return b
}

// SetMinPollersPerCQ sets the minimum worker count per completion queue.
func (b Builder) SetMinPollersPerCQ(n int) Builder {
	b.minPollersPerCQ = n
	return b
}

// SetMaxPollersPerCQ sets the maximum worker count per completion queue.
func (b Builder) SetMaxPollersPerCQ(n int) Builder {
	b.maxPollersPerCQ = n
	return b
}

// AddListeningPort adds a bind point; network is a net.Listen network
// ("tcp", "unix").
func (b Builder) AddListeningPort(network, addr string) Builder {
	b.listenNetwork, b.listenAddr = network, addr
	return b
}

// FromEnv overlays the builder's numeric knobs from environment variables,
// using cast to coerce loosely-typed strings the way the teacher's config
// loading does. getenv is typically os.Getenv; passed explicitly so tests
// don't need a real process environment.
func (b Builder) FromEnv(getenv func(string) string) (Builder, error) {
	for env, dst := range map[string]*int{
		"EVRPC_COMPLETION_QUEUES":  &b.completionQueues,
		"EVRPC_MIN_POLLERS_PER_CQ": &b.minPollersPerCQ,
		"EVRPC_MAX_POLLERS_PER_CQ": &b.maxPollersPerCQ,
	} {
		v := getenv(env)
		if v == "" {
			continue
		}
		n, err := cast.ToIntE(v)
		if err != nil {
			return b, fmt.Errorf("%s: %w", env, err)
		}
		*dst = n
	}
	return b, nil
}

// BuildAndStart binds the listening port and starts serving, returning a
// ServerStatus alongside the Server (nil on failure) rather than panicking
// on bind failure (§6, SUPPLEMENTED FEATURES).
func (b Builder) BuildAndStart() (transport.Status, *Server) {
	if b.listenNetwork == "" {
		return transport.FromError(ErrNotListening), nil
	}

	lis, err := net.Listen(b.listenNetwork, b.listenAddr)
	if err != nil {
		return transport.FromError(fmt.Errorf("listen %s %s: %w", b.listenNetwork, b.listenAddr, err)), nil
	}

	logger := b.logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	s := &Server{
		descriptors: b.descriptors,
		logger:      logger,
		listener:    lis,
		endpoints:   xsync.NewMapOf[string, *Endpoint](),
		stopped:     make(chan struct{}),
	}

	grpcOpts := []grpc.ServerOption{
		grpc.UnknownServiceHandler(s.dispatch),
		grpc.ForceServerCodec(transport.RawCodec{}),
	}
	if workers := effectiveStreamWorkers(b.completionQueues, b.minPollersPerCQ, b.maxPollersPerCQ); workers > 0 {
		grpcOpts = append(grpcOpts, grpc.NumStreamWorkers(uint32(workers)))
	}
	s.grpcServer = grpc.NewServer(grpcOpts...)

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("server: Serve exited")
		}
		close(s.stopped)
	}()

	return transport.OK(), s
}

func effectiveStreamWorkers(completionQueues, minPollers, maxPollers int) int {
	if completionQueues <= 0 {
		completionQueues = 1
	}
	perQueue := maxPollers
	if perQueue <= 0 {
		perQueue = minPollers
	}
	if perQueue <= 0 {
		return 0 // let grpc-go use its own default (one goroutine per stream)
	}
	return completionQueues * perQueue
}
