package eventual

// StreamThen maps each value emitted by s through f, the streaming analog
// of Then: a failure returned by f ends the stream with that error instead
// of emitting. Used by typed Readers to turn a raw byte-buffer stream into
// a stream of deserialized request values.
func StreamThen(s StreamNode, f func(v any) (any, error)) StreamNode {
	return WithStreamRegister(NewStream(func(k StreamK) {
		s.Start(&streamThenK{f: f, down: k})
	}), s.Register)
}

type streamThenK struct {
	f    func(any) (any, error)
	down StreamK
}

func (c *streamThenK) Emit(v any) bool {
	mapped, err := c.f(v)
	if err != nil {
		c.down.Fail(err)
		return false
	}
	return c.down.Emit(mapped)
}

func (c *streamThenK) Ended()         { c.down.Ended() }
func (c *streamThenK) Fail(err error) { c.down.Fail(err) }
