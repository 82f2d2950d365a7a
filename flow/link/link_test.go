package link

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/flow/flowtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stageError struct {
	reason string
	cause  error
}

func (e *stageError) Error() string {
	if e.cause != nil {
		return e.reason + ": " + e.cause.Error()
	}
	return e.reason
}

func (e *stageError) Unwrap() error { return e.cause }

func upstreamFailed(err error) *stageError { return &stageError{reason: "upstream", cause: err} }

func itoa(_ context.Context, n int) core.Result[string, *stageError] {
	return core.Success[string, *stageError](strconv.Itoa(n))
}

type collector[B any, EB error] struct {
	mu  sync.Mutex
	got []core.Result[B, EB]
}

func (c *collector[B, EB]) out(_ context.Context, r core.Result[B, EB]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, r)
}

func (c *collector[B, EB]) values() []B {
	c.mu.Lock()
	defer c.mu.Unlock()
	var vs []B
	for _, r := range c.got {
		vs = append(vs, r.Value())
	}
	return vs
}

func TestPolicy_String(t *testing.T) {
	assert.Equal(t, "merge", Merge.String())
	assert.Equal(t, "switch", Switch.String())
	assert.Equal(t, "unknown", Policy(9).String())
}

func TestLift_ShortCircuitsUpstreamFailure(t *testing.T) {
	called := false
	stage := Lift(func(ctx context.Context, n int) core.Result[string, *stageError] {
		called = true
		return itoa(ctx, n)
	}, upstreamFailed)

	cause := errors.New("no input")
	got := stage(context.Background(), core.Failure[int](cause))

	assert.False(t, called, "the value stage must not run for an upstream failure")
	require.True(t, got.IsFailure())
	assert.Equal(t, "upstream", got.Error().reason)
	assert.ErrorIs(t, got.Error(), cause)

	ok := stage(context.Background(), core.Success[int, error](7))
	assert.Equal(t, "7", ok.Value())
}

func TestGuard_RecoversPanics(t *testing.T) {
	boom := Guard(Lift(func(context.Context, int) core.Result[string, *stageError] {
		panic("kaboom")
	}, upstreamFailed), func(p core.ErrPanic) *stageError {
		return &stageError{reason: "panicked", cause: p}
	})

	got := boom(context.Background(), core.Success[int, error](1))
	require.True(t, got.IsFailure())
	assert.Equal(t, "panicked", got.Error().reason)

	var p core.ErrPanic
	require.ErrorAs(t, got.Error(), &p)
	assert.Equal(t, "kaboom", p.Value)
}

func TestGuardValue_PassesThrough(t *testing.T) {
	stage := GuardValue(itoa, func(p core.ErrPanic) *stageError { return &stageError{reason: "panicked"} })
	assert.Equal(t, "3", stage(context.Background(), 3).Value())
}

func TestLink_MergeDeliversEveryCompletionInCompletionOrder(t *testing.T) {
	sched := flowtest.NewScheduler()
	var c collector[string, *stageError]
	l := New(Lift(itoa, upstreamFailed), sched, c.out, WithName("merge"))

	for i := 1; i <= 3; i++ {
		l.Send(core.Success[int, error](i))
	}
	require.Equal(t, 3, sched.Pending())

	// Resolve out of arrival order: 3, 1, 2.
	sched.RunAt(2)
	sched.RunAt(0)
	sched.RunAt(0)

	assert.Equal(t, []string{"3", "1", "2"}, c.values())
}

func TestLink_MergeForwardsUpstreamFailures(t *testing.T) {
	var c collector[string, *stageError]
	l := New(Lift(itoa, upstreamFailed), core.Inline(), c.out)

	l.Send(core.Success[int, error](1))
	l.Send(core.Failure[int](errors.New("bad input")))

	require.Len(t, c.got, 2, "every upstream Result yields exactly one downstream Result")
	assert.True(t, c.got[0].IsSuccess())
	assert.True(t, c.got[1].IsFailure())
	assert.Equal(t, "upstream: bad input", c.got[1].Error().Error())
}

func TestLink_SwitchDiscardsSupersededResults(t *testing.T) {
	sched := flowtest.NewScheduler()
	var c collector[string, *stageError]
	l := New(Lift(itoa, upstreamFailed), sched, c.out, WithPolicy(Switch))

	l.Send(core.Success[int, error](1))
	l.Send(core.Success[int, error](2))

	// The first producer resolves after the second input was accepted.
	sched.RunAt(1)
	sched.RunAt(0)

	assert.Equal(t, []string{"2"}, c.values())
}

func TestLink_SwitchDiscardsEvenWhenStaleResolvesFirst(t *testing.T) {
	sched := flowtest.NewScheduler()
	var c collector[string, *stageError]
	l := New(Lift(itoa, upstreamFailed), sched, c.out, WithPolicy(Switch))

	l.Send(core.Success[int, error](1))
	l.Send(core.Success[int, error](2))
	sched.Step() // 1 resolves, but 2 was already accepted
	sched.Step()

	assert.Equal(t, []string{"2"}, c.values())
}

func TestLink_SwitchDeliversInSubmissionOrder(t *testing.T) {
	sched := flowtest.NewScheduler()
	var c collector[string, *stageError]
	l := New(Lift(itoa, upstreamFailed), sched, c.out, WithPolicy(Switch))

	l.Send(core.Success[int, error](1))
	sched.Step()
	l.Send(core.Success[int, error](2))
	l.Send(core.Success[int, error](3))
	sched.Drain()
	l.Send(core.Success[int, error](4))
	sched.Drain()

	assert.Equal(t, []string{"1", "3", "4"}, c.values())
}

func TestLink_SwitchSupersededFailureIsDiscardedToo(t *testing.T) {
	sched := flowtest.NewScheduler()
	var c collector[string, *stageError]
	l := New(Lift(itoa, upstreamFailed), sched, c.out, WithPolicy(Switch))

	l.Send(core.Failure[int](errors.New("no file")))
	l.Send(core.Success[int, error](5))
	sched.Drain()

	require.Len(t, c.got, 1)
	assert.Equal(t, "5", c.got[0].Value())
}

func TestLink_TicketAndDetachedDownstreamContext(t *testing.T) {
	type key struct{}
	var seen Ticket
	var downstream context.Context

	stage := func(ctx context.Context, n int) core.Result[string, *stageError] {
		seen, _ = TicketFrom(ctx)
		return itoa(ctx, n)
	}
	l := New(Lift(stage, upstreamFailed), core.Inline(),
		func(ctx context.Context, _ core.Result[string, *stageError]) { downstream = ctx },
		WithName("content"), WithPolicy(Switch), WithCancelSuperseded())

	ctx := context.WithValue(context.Background(), key{}, "v")
	l.SendContext(ctx, core.Success[int, error](1))

	assert.Equal(t, "content", seen.Link)
	assert.Equal(t, uint64(1), seen.Generation)
	assert.False(t, seen.Accepted.IsZero())

	require.NotNil(t, downstream)
	assert.Equal(t, "v", downstream.Value(key{}))
	assert.NoError(t, downstream.Err(), "downstream context must not inherit task cancellation")
}

func TestLink_CancelSuperseded(t *testing.T) {
	sched := flowtest.NewScheduler()
	var ctxs []context.Context
	stage := func(ctx context.Context, n int) core.Result[string, *stageError] {
		return itoa(ctx, n)
	}
	var c collector[string, *stageError]
	l := New(func(ctx context.Context, in core.Result[int, error]) core.Result[string, *stageError] {
		ctxs = append(ctxs, ctx)
		return Lift(stage, upstreamFailed)(ctx, in)
	}, core.ExecutorFunc(func(task func()) { sched.Execute(task) }), c.out,
		WithPolicy(Switch), WithCancelSuperseded())

	l.Send(core.Success[int, error](1))
	l.Send(core.Success[int, error](2))
	sched.Drain()

	require.Len(t, ctxs, 2)
	assert.ErrorIs(t, ctxs[0].Err(), context.Canceled)
	assert.Equal(t, []string{"2"}, c.values())
}

func TestLink_Hooks(t *testing.T) {
	sched := flowtest.NewScheduler()
	var events []string
	hooks := Hooks{
		OnDispatch: func(link string, gen uint64) { events = append(events, fmt.Sprintf("dispatch %s %d", link, gen)) },
		OnDeliver: func(link string, gen uint64, failed bool, _ time.Duration) {
			events = append(events, fmt.Sprintf("deliver %s %d %t", link, gen, failed))
		},
		OnSupersede: func(link string, gen uint64, _ time.Duration) {
			events = append(events, fmt.Sprintf("supersede %s %d", link, gen))
		},
	}
	var c collector[string, *stageError]
	l := New(Lift(itoa, upstreamFailed), sched, c.out, WithName("c"), WithPolicy(Switch), WithHooks(hooks))

	l.Send(core.Success[int, error](1))
	l.Send(core.Failure[int](errors.New("x")))
	sched.Drain()

	assert.Equal(t, []string{
		"dispatch c 1",
		"dispatch c 2",
		"supersede c 1",
		"deliver c 2 true",
	}, events)
	assert.Equal(t, "c", l.Name())
	assert.Equal(t, Switch, l.Policy())
}

func TestChain(t *testing.T) {
	var order []int
	h := Chain(
		Hooks{OnDispatch: func(string, uint64) { order = append(order, 1) }},
		Hooks{},
		Hooks{OnDispatch: func(string, uint64) { order = append(order, 2) }},
	)
	h.dispatch("x", 1)
	h.deliver("x", 1, false, 0)
	h.supersede("x", 1, 0)
	assert.Equal(t, []int{1, 2}, order)
}

func TestLink_SwitchUnderRealConcurrency(t *testing.T) {
	pool := core.NewPool(16)
	var c collector[string, *stageError]
	stage := func(ctx context.Context, n int) core.Result[string, *stageError] {
		time.Sleep(time.Duration(rand.Intn(200)) * time.Microsecond)
		return itoa(ctx, n)
	}
	l := New(Lift(stage, upstreamFailed), pool, c.out, WithPolicy(Switch))

	const n = 200
	for i := 0; i < n; i++ {
		l.Send(core.Success[int, error](i))
	}
	pool.Wait()

	vals := c.values()
	require.NotEmpty(t, vals)
	assert.Equal(t, strconv.Itoa(n-1), vals[len(vals)-1], "the latest input is never superseded")
	prev := -1
	for _, v := range vals {
		cur, err := strconv.Atoi(v)
		require.NoError(t, err)
		assert.Greater(t, cur, prev, "delivered results follow submission order")
		prev = cur
	}
}
