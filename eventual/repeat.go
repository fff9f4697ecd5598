package eventual

// Repeat returns a StreamNode that re-constructs and starts gen() each time
// the previous iteration terminates with Start, emitting its value
// downstream. Iteration continues until the downstream consumer returns
// false from Emit (see StreamK) or an iteration fails; a Stop from gen's
// Node is treated as the end of the stream rather than a failure, since the
// dispatch loop (§4.5) uses Repeat(Dequeue) to build an infinite per-
// endpoint stream that only ever ends via shutdown, never via an ordinary
// "no more values" condition.
func Repeat(gen func() Node) StreamNode {
	return NewStream(func(k StreamK) {
		var run func()
		run = func() {
			gen().Start(repeatCont{k: k, run: &run})
		}
		run()
	})
}

type repeatCont struct {
	k   StreamK
	run *func()
}

func (c repeatCont) Start(v any) {
	if c.k.Emit(v) {
		(*c.run)()
	} else {
		c.k.Ended()
	}
}

func (c repeatCont) Fail(err error) { c.k.Fail(err) }
func (c repeatCont) Stop()          { c.k.Ended() }
