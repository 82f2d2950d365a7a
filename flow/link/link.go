// Package link composes pipeline stages. A Link accepts upstream Results,
// runs its Stage for each one on a background executor and hands exactly
// one downstream Result to its output for every upstream Result it does
// not discard as superseded.
package link

import (
	"context"
	"sync"
	"time"

	"github.com/lguimbarda/reportflow/flow/core"
)

// Policy selects how a Link treats overlapping upstream Results.
type Policy int

const (
	// Merge runs a task for every upstream Result and delivers every
	// completion. Overlapping tasks deliver in completion order, which is
	// not necessarily the order their inputs arrived in.
	Merge Policy = iota
	// Switch delivers only the Result of the most recently accepted
	// upstream Result. A task that resolves after a newer upstream Result
	// was accepted is discarded. Delivered Results leave the link in the
	// order their inputs were accepted.
	Switch
)

func (p Policy) String() string {
	switch p {
	case Merge:
		return "merge"
	case Switch:
		return "switch"
	default:
		return "unknown"
	}
}

// Ticket identifies one task of a Link. It is attached to the task's
// context; read it with TicketFrom.
type Ticket struct {
	Link       string
	Generation uint64
	Accepted   time.Time
}

// TicketFrom returns the Ticket of the task running with ctx.
func TicketFrom(ctx context.Context) (Ticket, bool) {
	return core.ValueFrom[Ticket](ctx)
}

// Option configures a Link.
type Option func(*options)

type options struct {
	name        string
	policy      Policy
	hooks       Hooks
	cancelStale bool
}

// WithName names the Link in tickets and hooks.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithPolicy sets the Link's Policy. The default is Merge.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithHooks attaches observation hooks. Multiple calls compose in order.
func WithHooks(h Hooks) Option {
	return func(o *options) { o.hooks = Chain(o.hooks, h) }
}

// WithCancelSuperseded makes a Switch link cancel the context of a task
// once a newer upstream Result is accepted. Cancellation is only a hint to
// the stage: the stale Result is discarded whether or not the stage
// honours it.
func WithCancelSuperseded() Option {
	return func(o *options) { o.cancelStale = true }
}

// Output receives the downstream Result of a task, together with a context
// carrying the task's values but detached from its cancellation.
type Output[B any, EB error] func(ctx context.Context, out core.Result[B, EB])

// Link runs a Stage for each upstream Result.
type Link[A any, EA error, B any, EB error] struct {
	stage Stage[A, EA, B, EB]
	exec  core.Executor
	out   Output[B, EB]
	opts  options

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc

	// deliverMu orders the staleness check and hand-off of Switch links.
	deliverMu sync.Mutex
}

// New creates a Link that runs stage on exec and passes results to out.
func New[A any, EA error, B any, EB error](stage Stage[A, EA, B, EB], exec core.Executor, out Output[B, EB], opts ...Option) *Link[A, EA, B, EB] {
	l := &Link[A, EA, B, EB]{
		stage: stage,
		exec:  exec,
		out:   out,
	}
	for _, opt := range opts {
		opt(&l.opts)
	}
	return l
}

// Name returns the Link's name.
func (l *Link[A, EA, B, EB]) Name() string { return l.opts.name }

// Policy returns the Link's Policy.
func (l *Link[A, EA, B, EB]) Policy() Policy { return l.opts.policy }

// Send accepts one upstream Result.
func (l *Link[A, EA, B, EB]) Send(in core.Result[A, EA]) {
	l.SendContext(context.Background(), in)
}

// SendContext accepts one upstream Result. Values of ctx are visible to
// the stage; with WithCancelSuperseded so is a cancellation on supersede.
func (l *Link[A, EA, B, EB]) SendContext(ctx context.Context, in core.Result[A, EA]) {
	accepted := time.Now()

	l.mu.Lock()
	l.gen++
	gen := l.gen
	var cancel context.CancelFunc
	if l.opts.cancelStale && l.opts.policy == Switch {
		if l.cancel != nil {
			l.cancel()
		}
		ctx, cancel = context.WithCancel(ctx)
		l.cancel = cancel
	}
	l.mu.Unlock()

	ctx = core.WithValue(ctx, Ticket{Link: l.opts.name, Generation: gen, Accepted: accepted})

	l.opts.hooks.dispatch(l.opts.name, gen)
	l.exec.Execute(func() {
		l.run(ctx, gen, accepted, in)
		if cancel != nil {
			cancel()
		}
	})
}

func (l *Link[A, EA, B, EB]) run(ctx context.Context, gen uint64, accepted time.Time, in core.Result[A, EA]) {
	res := l.stage(ctx, in)
	elapsed := time.Since(accepted)
	downstream := context.WithoutCancel(ctx)

	if l.opts.policy != Switch {
		l.opts.hooks.deliver(l.opts.name, gen, res.IsFailure(), elapsed)
		l.out(downstream, res)
		return
	}

	l.deliverMu.Lock()
	defer l.deliverMu.Unlock()

	l.mu.Lock()
	stale := gen != l.gen
	l.mu.Unlock()

	if stale {
		l.opts.hooks.supersede(l.opts.name, gen, elapsed)
		return
	}
	l.opts.hooks.deliver(l.opts.name, gen, res.IsFailure(), elapsed)
	l.out(downstream, res)
}
