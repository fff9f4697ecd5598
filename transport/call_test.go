package transport

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

type fakeServerStream struct {
	ctx context.Context
}

func (s *fakeServerStream) SetHeader(metadata.MD) error  { return nil }
func (s *fakeServerStream) SendHeader(metadata.MD) error { return nil }
func (s *fakeServerStream) SetTrailer(metadata.MD)       {}
func (s *fakeServerStream) Context() context.Context     { return s.ctx }
func (s *fakeServerStream) SendMsg(any) error            { return nil }
func (s *fakeServerStream) RecvMsg(any) error            { return nil }

func TestMethodAndHostUsesExplicitMetadata(t *testing.T) {
	md := metadata.Pairs(HostMetadataKey, "explicit-host")
	ctx := metadata.NewIncomingContext(context.Background(), md)
	s := &fakeServerStream{ctx: ctx}

	_, host := MethodAndHost(s)
	assert.Equal(t, "explicit-host", host)
}

func TestMethodAndHostFallsBackToPeerAddr(t *testing.T) {
	ctx := peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 1234},
	})
	s := &fakeServerStream{ctx: ctx}

	_, host := MethodAndHost(s)
	assert.Equal(t, "127.0.0.1:1234", host)
}
