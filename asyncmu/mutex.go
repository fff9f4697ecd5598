// Package asyncmu provides a non-blocking mutex and a wait/notify primitive
// fused into the eventuals pipeline (eventual.Node), so that serializing
// access to cross-pipeline shared state — the endpoint registry, an
// endpoint's pending-call queue — never parks a worker thread the way a
// blocking sync.Mutex would. The design notes call this out explicitly:
// blocking locks inside worker goroutines starve the dispatch loop.
//
// The implementation itself still uses a small internal sync.Mutex, but
// only to protect the in-memory queue of parked continuations — it is held
// for the handful of instructions needed to enqueue/dequeue a waiter, never
// across a suspension point.
package asyncmu

import (
	"sync"

	"github.com/evrpc/evrpc/eventual"
)

// Mutex is an asynchronous mutual-exclusion lock: acquiring it through
// Synchronized never blocks a goroutine, it instead parks the continuation
// that wants the lock until Unlock hands it off.
type Mutex struct {
	mu      sync.Mutex
	locked  bool
	waiters []func() // FIFO of parked "you now hold the lock" callbacks
}

// TryLock acquires the lock without waiting, reporting whether it
// succeeded.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// lockAsync acquires the lock, invoking resume immediately if it was free
// or queuing it (FIFO) to run once Unlock reaches the front of the line.
func (m *Mutex) lockAsync(resume func()) {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		resume()
		return
	}
	m.waiters = append(m.waiters, resume)
	m.mu.Unlock()
}

// Unlock releases the lock. If another continuation is parked waiting for
// it, Unlock hands the lock directly to the oldest one (FIFO) instead of
// releasing it to be raced for.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	if len(m.waiters) == 0 {
		m.locked = false
		m.mu.Unlock()
		return
	}
	next := m.waiters[0]
	m.waiters = m.waiters[1:]
	m.mu.Unlock()
	next()
}

// Synchronized returns a Node equivalent to e, except that starting it
// first acquires m (without blocking the calling goroutine — if the lock
// is busy, the start of e is parked and resumed from whatever goroutine
// calls Unlock) and releases m when e reaches any terminal signal.
func (m *Mutex) Synchronized(e eventual.Node) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		m.lockAsync(func() {
			e.Start(&unlockThenK{mu: m, down: k})
		})
	})
}

type unlockThenK struct {
	mu   *Mutex
	down eventual.K
}

func (u *unlockThenK) Start(v any) {
	u.mu.Unlock()
	u.down.Start(v)
}

func (u *unlockThenK) Fail(err error) {
	u.mu.Unlock()
	u.down.Fail(err)
}

func (u *unlockThenK) Stop() {
	u.mu.Unlock()
	u.down.Stop()
}
