package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evrpc/evrpc/eventual"
)

func mustRun(n eventual.Node) eventual.Result {
	starter, fut := eventual.Terminate(n)
	starter.Start()
	return fut.Wait()
}

func TestEndpointFIFOOrder(t *testing.T) {
	ep := newEndpoint(AcceptOptions{})
	a, b, c := &ServerContext{}, &ServerContext{}, &ServerContext{}

	for _, sc := range []*ServerContext{a, b, c} {
		res := mustRun(ep.Enqueue(sc))
		require.NoError(t, res.Err)
	}

	for _, want := range []*ServerContext{a, b, c} {
		res := mustRun(ep.Dequeue())
		require.NoError(t, res.Err)
		assert.Same(t, want, res.Value)
	}
}

func TestEndpointDequeueParksUntilEnqueue(t *testing.T) {
	ep := newEndpoint(AcceptOptions{})
	sc := &ServerContext{}

	starter, fut := eventual.Terminate(ep.Dequeue())
	starter.Start()

	resCh := make(chan eventual.Result, 1)
	go func() { resCh <- fut.Wait() }()

	select {
	case <-resCh:
		t.Fatal("dequeue resolved before any enqueue happened")
	case <-time.After(20 * time.Millisecond):
	}

	mustRun(ep.Enqueue(sc))

	res := <-resCh
	require.NoError(t, res.Err)
	assert.Same(t, sc, res.Value)
}

func TestEndpointDequeueIsSingleShot(t *testing.T) {
	ep := newEndpoint(AcceptOptions{})
	d := ep.Dequeue()

	mustRun(ep.Enqueue(&ServerContext{}))

	res := mustRun(d)
	require.NoError(t, res.Err)

	res = mustRun(d)
	assert.Error(t, res.Err)
}
