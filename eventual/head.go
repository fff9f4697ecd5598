package eventual

import "sync/atomic"

// Head converts a stream into a single value: the first emission becomes
// the resulting Node's Start value, and the stream is told to stop (Emit
// returns false) so its producer releases any upstream resources. If the
// stream ends without ever emitting, the result fails with ErrStreamEmpty.
func Head(s StreamNode) Node {
	return WithRegister(Eventual(func(k K) {
		s.Start(&headCont{down: k})
	}), s.Register)
}

type headCont struct {
	down K
	got  atomic.Bool
}

func (h *headCont) Emit(v any) bool {
	if h.got.Swap(true) {
		return false
	}
	h.down.Start(v)
	return false
}

func (h *headCont) Ended() {
	if !h.got.Load() {
		h.down.Fail(ErrStreamEmpty)
	}
}

func (h *headCont) Fail(err error) { h.down.Fail(err) }
