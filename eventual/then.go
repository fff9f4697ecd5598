package eventual

// Then returns a Pipe adapter that applies f to the upstream value. f
// returns a new Node representing asynchronous follow-up work; Then starts
// it with the real downstream continuation, which is how this package
// supports chains like n.Pipe(Then(deserialize)).Pipe(Then(dispatch)):
// each stage's continuation is only attached once the previous stage's
// value is available.
func Then(f func(v any) (Node, error)) func(down K) K {
	return func(down K) K {
		return &thenCont{f: f, down: down}
	}
}

type thenCont struct {
	f    func(any) (Node, error)
	down K
}

func (c *thenCont) Start(v any) {
	next, err := c.f(v)
	if err != nil {
		c.down.Fail(err)
		return
	}
	next.Start(c.down)
}

func (c *thenCont) Fail(err error) { c.down.Fail(err) }
func (c *thenCont) Stop()          { c.down.Stop() }

// Lambda returns a Pipe adapter that synchronously transforms the upstream
// value: Start(v) becomes downstream.Start(f(v)). Unlike Then, f cannot
// itself suspend — use Then when the transformation needs to perform
// further asynchronous work.
func Lambda(f func(v any) any) func(down K) K {
	return func(down K) K {
		return &lambdaCont{f: f, down: down}
	}
}

type lambdaCont struct {
	f    func(any) any
	down K
}

func (c *lambdaCont) Start(v any) { c.down.Start(c.f(v)) }
func (c *lambdaCont) Fail(err error) { c.down.Fail(err) }
func (c *lambdaCont) Stop()          { c.down.Stop() }

// Catch returns a Pipe adapter that lets f observe and optionally recover
// from an upstream failure. If f returns ok=true, the result of the Node it
// returns replaces the failure; if f returns ok=false the original error
// propagates downstream unchanged.
func Catch(f func(err error) (Node, bool)) func(down K) K {
	return func(down K) K {
		return &catchCont{f: f, down: down}
	}
}

type catchCont struct {
	f    func(error) (Node, bool)
	down K
}

func (c *catchCont) Start(v any) { c.down.Start(v) }
func (c *catchCont) Stop()       { c.down.Stop() }
func (c *catchCont) Fail(err error) {
	if recovery, ok := c.f(err); ok {
		recovery.Start(c.down)
		return
	}
	c.down.Fail(err)
}
