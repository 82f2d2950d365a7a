package link

import (
	"context"

	"github.com/lguimbarda/reportflow/flow/core"
)

// Stage is one fallible transform of a pipeline, operating on the whole
// upstream Result. It must return exactly one Result; it is made
// asynchronous by the Link that runs it on a background executor.
// A Stage that sees an upstream failure maps it into its own error type.
type Stage[A any, EA error, B any, EB error] func(ctx context.Context, in core.Result[A, EA]) core.Result[B, EB]

// ValueStage is a transform that only accepts an unwrapped upstream value.
// Use Lift to turn it into a Stage.
type ValueStage[A, B any, EB error] func(ctx context.Context, in A) core.Result[B, EB]

// Lift builds a Stage from a ValueStage. Upstream failures never reach
// stage: they short-circuit into a failure built by upstream, which
// declares how the upstream error type becomes part of this stage's.
func Lift[A any, EA error, B any, EB error](stage ValueStage[A, B, EB], upstream func(EA) EB) Stage[A, EA, B, EB] {
	return func(ctx context.Context, in core.Result[A, EA]) core.Result[B, EB] {
		v, err, ok := in.Get()
		if !ok {
			return core.Failure[B](upstream(err))
		}
		return stage(ctx, v)
	}
}

// Guard wraps a Stage so that a panic inside it becomes a failure built
// by onPanic from a core.ErrPanic, instead of crashing the executor.
func Guard[A any, EA error, B any, EB error](stage Stage[A, EA, B, EB], onPanic func(core.ErrPanic) EB) Stage[A, EA, B, EB] {
	return func(ctx context.Context, in core.Result[A, EA]) (out core.Result[B, EB]) {
		defer func() {
			if r := recover(); r != nil {
				out = core.Failure[B](onPanic(stagePanic(r)))
			}
		}()
		return stage(ctx, in)
	}
}

// GuardValue is Guard for a ValueStage.
func GuardValue[A, B any, EB error](stage ValueStage[A, B, EB], onPanic func(core.ErrPanic) EB) ValueStage[A, B, EB] {
	return func(ctx context.Context, in A) (out core.Result[B, EB]) {
		defer func() {
			if r := recover(); r != nil {
				out = core.Failure[B](onPanic(stagePanic(r)))
			}
		}()
		return stage(ctx, in)
	}
}
