package asyncmu

import "github.com/evrpc/evrpc/eventual"

// Wait returns a Node implementing the lock/condition-wait pattern that
// backs Endpoint.Dequeue (see server package): it acquires m, evaluates
// cond under the lock, and either proceeds (Start(nil), still holding m —
// the caller is responsible for Unlock once its critical section is done)
// or parks.
//
// Parking means: while still holding m, it calls install(notify) so that
// whoever eventually wakes this waiter (typically an Enqueue running under
// the same Mutex) can reach it — only once notify is safely stored does
// Wait release m. Storing notify before unlocking is what prevents the
// classic missed-wakeup race: if m were released first, a concurrent
// Enqueue could acquire the lock, mutate state, and call notify before this
// waiter had registered it.
//
// When notify is eventually called, Wait re-acquires m and re-evaluates
// cond — spurious wakeups are tolerated, matching §4.6's invariant that the
// predicate is only ever evaluated while the lock is held.
func (m *Mutex) Wait(cond func() bool, install func(notify func())) eventual.Node {
	return eventual.Eventual(func(k eventual.K) {
		var loop func()
		loop = func() {
			m.lockAsync(func() {
				if !cond() {
					k.Start(nil) // m stays locked; caller unlocks after its critical section
					return
				}
				install(func() { loop() })
				m.Unlock()
			})
		}
		loop()
	})
}
