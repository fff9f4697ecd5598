package eventual

import "sync/atomic"

// StreamK is the continuation a StreamNode is started with. Emit is called
// once per value produced before the stream terminates via Ended or Fail.
// Emit's return value plays the same role as the teacher library's
// CallbackFunc/HandlerFunc "keep going?" booleans: returning false tells the
// producer to stop emitting; it need not call Ended afterwards.
type StreamK interface {
	Emit(v any) (cont bool)
	Ended()
	Fail(err error)
}

// StreamNode is the streaming analog of Node: a single-shot, push-based
// computation that may deliver zero or more values via Emit before a
// terminal Ended or Fail.
type StreamNode struct {
	used       *atomic.Bool
	startFn    func(k StreamK)
	registerFn func(i *Interrupt)
}

// NewStream builds a leaf StreamNode from a raw start function.
func NewStream(start func(k StreamK)) StreamNode {
	return StreamNode{used: new(atomic.Bool), startFn: start}
}

// Start begins the stream, delivering values to k until Ended or Fail.
func (s StreamNode) Start(k StreamK) {
	if s.used == nil {
		k.Fail(ErrMisuse)
		return
	}
	if s.used.Swap(true) {
		k.Fail(ErrMisuse)
		return
	}
	s.startFn(k)
}

// Register propagates an interrupt token upstream, same contract as
// Node.Register.
func (s StreamNode) Register(i *Interrupt) {
	if s.registerFn != nil {
		s.registerFn(i)
	}
}

// WithStreamRegister attaches a Register hook to a stream leaf.
func WithStreamRegister(s StreamNode, register func(i *Interrupt)) StreamNode {
	return StreamNode{used: s.used, startFn: s.startFn, registerFn: register}
}

// ForEach drives the stream to completion, running f for every emission and
// starting its returned Node before accepting the next value. The resulting
// Node finishes (Start(nil)) when the stream ends, or fails if the stream
// fails; the outcome of each per-item Node is discarded (see discardK). This
// is how server.Serve turns the infinite Repeat(Dequeue) stream returned by
// server.Accept into a single pipeline that runs a user handler per call.
func (s StreamNode) ForEach(f func(v any) Node) Node {
	return Eventual(func(k K) {
		s.Start(&forEachK{f: f, down: k})
	})
}

type forEachK struct {
	f    func(any) Node
	down K
}

func (c *forEachK) Emit(v any) bool {
	item := c.f(v)
	item.Start(discardK{})
	return true
}

func (c *forEachK) Ended()          { c.down.Start(nil) }
func (c *forEachK) Fail(err error)  { c.down.Fail(err) }

// discardK silently absorbs a per-item pipeline's terminal signal; ForEach
// callers that need to observe per-item outcomes should do so from inside
// f's own Node (e.g. by logging failures before returning).
type discardK struct{}

func (discardK) Start(any)       {}
func (discardK) Fail(error)      {}
func (discardK) Stop()           {}
