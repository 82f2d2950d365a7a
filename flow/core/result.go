// Package core defines the building blocks of a reactive pipeline: a
// two-state Result carrying either a value or a typed error, and the
// executors that stage work and slot delivery run on.
//
// NOTE: this package should have no dependencies outside the standard
// library, including other flow packages.
package core

import (
	"errors"
	"fmt"
	"reflect"
)

// Result represents the outcome of one pipeline stage for one input.
// It exists in exactly one of two states:
//   - Success: the stage produced a value (IsSuccess() returns true)
//   - Failure: the stage produced a typed error (IsFailure() returns true)
//
// Results are immutable values. Two Results are equal when they carry the
// same tag and equal payloads; see Equal.
type Result[V any, E error] struct {
	value V
	err   E
	ok    bool
}

// Success creates a successful Result containing the given value.
func Success[V any, E error](value V) Result[V, E] {
	return Result[V, E]{value: value, ok: true}
}

// Failure creates a failed Result carrying err.
func Failure[V any, E error](err E) Result[V, E] {
	return Result[V, E]{err: err}
}

// From adapts a Go (value, error) pair. A nil err yields Success(value);
// otherwise wrap converts err into the Result's error type.
func From[V any, E error](value V, err error, wrap func(error) E) Result[V, E] {
	if err != nil {
		return Failure[V](wrap(err))
	}
	return Success[V, E](value)
}

// IsSuccess returns true if this Result contains a value.
func (r Result[V, E]) IsSuccess() bool {
	return r.ok
}

// IsFailure returns true if this Result contains an error.
func (r Result[V, E]) IsFailure() bool {
	return !r.ok
}

// Value returns the contained value. Only meaningful when IsSuccess() is true.
// Returns the zero value for failures.
func (r Result[V, E]) Value() V {
	return r.value
}

// Error returns the typed error. Only meaningful when IsFailure() is true.
// Returns the zero value of E for successes.
func (r Result[V, E]) Error() E {
	return r.err
}

// Get returns the value, the typed error and whether the Result is a success.
func (r Result[V, E]) Get() (V, E, bool) {
	return r.value, r.err, r.ok
}

// Unwrap returns the Result as a Go (value, error) pair. The error is nil
// for successes, so a typed nil E never leaks into an error interface.
func (r Result[V, E]) Unwrap() (V, error) {
	if r.ok {
		return r.value, nil
	}
	return r.value, r.err
}

func (r Result[V, E]) String() string {
	if r.ok {
		return fmt.Sprintf("success(%v)", r.value)
	}
	return fmt.Sprintf("failure(%v)", any(r.err))
}

// Equal reports whether r and o have the same tag and equal payloads.
// Values are compared with reflect.DeepEqual and errors with SameError,
// so equality does not depend on how either Result was constructed.
func (r Result[V, E]) Equal(o Result[V, E]) bool {
	if r.ok != o.ok {
		return false
	}
	if r.ok {
		return reflect.DeepEqual(r.value, o.value)
	}
	return SameError(r.err, o.err)
}

// SameError reports whether a and b describe the same failure. Errors are
// the same when errors.Is holds in either direction, or when they have the
// same dynamic type and render the same message. Causes that cannot be
// compared directly are therefore compared by description.
func SameError(a, b error) bool {
	aNil, bNil := isNil(a), isNil(b)
	if aNil || bNil {
		return aNil == bNil
	}
	if errors.Is(a, b) || errors.Is(b, a) {
		return true
	}
	return reflect.TypeOf(a) == reflect.TypeOf(b) && a.Error() == b.Error()
}

// isNil treats typed nil pointers stored in an error interface as nil.
func isNil(err error) bool {
	if err == nil {
		return true
	}
	v := reflect.ValueOf(err)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Map transforms the success payload of r, leaving failures untouched.
func Map[V, W any, E error](r Result[V, E], f func(V) W) Result[W, E] {
	if !r.ok {
		return Failure[W](r.err)
	}
	return Success[W, E](f(r.value))
}

// MapError transforms the failure payload of r, leaving successes untouched.
func MapError[V any, E, F error](r Result[V, E], f func(E) F) Result[V, F] {
	if r.ok {
		return Success[V, F](r.value)
	}
	return Failure[V](f(r.err))
}

// Then chains a fallible function onto a success. Failures short-circuit.
func Then[V, W any, E error](r Result[V, E], f func(V) Result[W, E]) Result[W, E] {
	if !r.ok {
		return Failure[W](r.err)
	}
	return f(r.value)
}

// Fold collapses r into a single value using the branch matching its tag.
func Fold[V any, E error, T any](r Result[V, E], onSuccess func(V) T, onFailure func(E) T) T {
	if r.ok {
		return onSuccess(r.value)
	}
	return onFailure(r.err)
}
