package asyncmu

import (
	"testing"
	"time"

	"github.com/evrpc/evrpc/eventual"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSynchronizedSerializesAccess(t *testing.T) {
	var mu Mutex
	counter := 0
	const n = 50

	results := make(chan int, n)
	for i := 0; i < n; i++ {
		node := mu.Synchronized(eventual.Eventual(func(k eventual.K) {
			counter++
			k.Start(counter)
		}))
		starter, fut := eventual.Terminate(node)
		go func() {
			starter.Start()
			r := fut.Wait()
			results <- r.Value.(int)
		}()
	}

	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		select {
		case v := <-results:
			require.False(t, seen[v], "value %d delivered twice: no two increments observed the same counter", v)
			seen[v] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for synchronized results")
		}
	}
	assert.Equal(t, n, counter)
}

// TestWaitDequeue models Endpoint.Dequeue: a consumer parks via Wait until
// a producer pushes an item and calls notify.
func TestWaitDequeue(t *testing.T) {
	var mu Mutex
	var queue []int
	var notify func()

	push := func(v int) {
		starter, fut := eventual.Terminate(mu.Synchronized(eventual.Eventual(func(k eventual.K) {
			queue = append(queue, v)
			if notify != nil {
				n := notify
				notify = nil
				n()
			}
			k.Start(nil)
		})))
		starter.Start()
		fut.Wait()
	}

	dequeue := func() int {
		node := mu.Wait(
			func() bool { return len(queue) == 0 },
			func(n func()) { notify = n },
		).Pipe(eventual.Then(func(any) (eventual.Node, error) {
			v := queue[0]
			queue = queue[1:]
			mu.Unlock()
			return eventual.Succeed(v), nil
		}))
		starter, fut := eventual.Terminate(node)
		starter.Start()
		r := fut.Wait()
		require.NoError(t, r.Err)
		return r.Value.(int)
	}

	done := make(chan int, 1)
	go func() { done <- dequeue() }()

	time.Sleep(20 * time.Millisecond) // let the consumer park
	push(7)

	select {
	case v := <-done:
		assert.Equal(t, 7, v)
	case <-time.After(2 * time.Second):
		t.Fatal("dequeue never woke up after push")
	}
}

func TestTryLock(t *testing.T) {
	var mu Mutex
	assert.True(t, mu.TryLock())
	assert.False(t, mu.TryLock())
	mu.Unlock()
	assert.True(t, mu.TryLock())
}
