package core

import (
	"context"
)

// valueKey is a typed context key. Each value type gets its own key, so
// packages can attach metadata to a stage context without coordinating
// key names.
type valueKey[C any] struct{}

// WithValue attaches v to the context, keyed by its type. Only one value of
// each type can be stored; later calls with the same type override earlier
// ones.
//
// Example:
//
//	ctx := core.WithValue(ctx, link.Ticket{Link: "content", Generation: 3})
func WithValue[C any](ctx context.Context, v C) context.Context {
	return context.WithValue(ctx, valueKey[C]{}, v)
}

// ValueFrom retrieves the value of type C from the context.
// Returns the value and true if found, or zero value and false if not present.
func ValueFrom[C any](ctx context.Context) (C, bool) {
	if v, ok := ctx.Value(valueKey[C]{}).(C); ok {
		return v, true
	}
	return *new(C), false
}
