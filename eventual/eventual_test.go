package eventual

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSucceedFailStop(t *testing.T) {
	testCases := []struct {
		name string
		node Node
		want Result
	}{
		{"succeed", Succeed(42), Result{Value: 42}},
		{"fail", Fail(errBoom), Result{Err: errBoom}},
		{"stop", Stopped(), Result{Cancelled: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			starter, fut := Terminate(tc.node)
			starter.Start()
			got := fut.Wait()
			assert.Equal(t, tc.want.Value, got.Value)
			assert.Equal(t, tc.want.Cancelled, got.Cancelled)
			if tc.want.Err != nil {
				assert.ErrorIs(t, got.Err, tc.want.Err)
			} else {
				assert.NoError(t, got.Err)
			}
		})
	}
}

var errBoom = errors.New("boom")

func TestPipeLambda(t *testing.T) {
	n := Succeed(2).Pipe(Lambda(func(v any) any {
		return v.(int) * 21
	}))

	starter, fut := Terminate(n)
	starter.Start()
	got := fut.Wait()
	require.NoError(t, got.Err)
	assert.Equal(t, 42, got.Value)
}

func TestPipeThenChain(t *testing.T) {
	n := Succeed(1).
		Pipe(Then(func(v any) (Node, error) {
			return Succeed(v.(int) + 1), nil
		})).
		Pipe(Then(func(v any) (Node, error) {
			return Succeed(v.(int) + 1), nil
		}))

	starter, fut := Terminate(n)
	starter.Start()
	got := fut.Wait()
	require.NoError(t, got.Err)
	assert.Equal(t, 3, got.Value)
}

func TestThenPropagatesError(t *testing.T) {
	n := Succeed(1).Pipe(Then(func(v any) (Node, error) {
		return Node{}, errBoom
	}))

	starter, fut := Terminate(n)
	starter.Start()
	got := fut.Wait()
	assert.ErrorIs(t, got.Err, errBoom)
}

func TestCatchRecovers(t *testing.T) {
	n := Fail(errBoom).Pipe(Catch(func(err error) (Node, bool) {
		if errors.Is(err, errBoom) {
			return Succeed("recovered"), true
		}
		return Node{}, false
	}))

	starter, fut := Terminate(n)
	starter.Start()
	got := fut.Wait()
	require.NoError(t, got.Err)
	assert.Equal(t, "recovered", got.Value)
}

func TestSingleShotReuseFails(t *testing.T) {
	n := Succeed(1)

	starter, fut := Terminate(n)
	starter.Start()
	require.NoError(t, fut.Wait().Err)

	// starting the same underlying node again (via a second Pipe/Terminate
	// built on the same Node value) must fail fast rather than re-run.
	starter2, fut2 := Terminate(n)
	starter2.Start()
	assert.ErrorIs(t, fut2.Wait().Err, ErrMisuse)
}

func TestRepeatAndHead(t *testing.T) {
	count := 0
	gen := func() Node {
		count++
		return Succeed(count)
	}

	n := Head(Repeat(gen))
	starter, fut := Terminate(n)
	starter.Start()
	got := fut.Wait()
	require.NoError(t, got.Err)
	assert.Equal(t, 1, got.Value)
	assert.Equal(t, 1, count, "Repeat must stop after Head's single emission")
}

func TestHeadOnEmptyStreamFails(t *testing.T) {
	s := NewStream(func(k StreamK) {
		k.Ended()
	})

	starter, fut := Terminate(Head(s))
	starter.Start()
	got := fut.Wait()
	assert.ErrorIs(t, got.Err, ErrStreamEmpty)
}

func TestForEachCountsEmissions(t *testing.T) {
	emitted := 0
	remaining := 3

	s := NewStream(func(k StreamK) {
		for remaining > 0 {
			remaining--
			if !k.Emit(remaining) {
				return
			}
			emitted++
		}
		k.Ended()
	})

	n := s.ForEach(func(v any) Node {
		return Succeed(v)
	})

	starter, fut := Terminate(n)
	starter.Start()
	got := fut.Wait()
	require.NoError(t, got.Err)
	assert.Equal(t, 3, emitted)
}

func TestInterruptInstallAfterTrigger(t *testing.T) {
	i := NewInterrupt()
	i.Trigger()

	ran := false
	already := i.Install(func() { ran = true })
	assert.True(t, already)
	assert.True(t, ran)
}

func TestInterruptInstallBeforeTrigger(t *testing.T) {
	i := NewInterrupt()

	ran := false
	already := i.Install(func() { ran = true })
	assert.False(t, already)
	assert.False(t, ran)

	i.Trigger()
	assert.True(t, ran)

	// a second Trigger must not re-run the handler
	ran = false
	i.Trigger()
	assert.False(t, ran)
}
