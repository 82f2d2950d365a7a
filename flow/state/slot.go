// Package state holds published values: cells that keep the latest value
// of one pipeline stage and broadcast every change to their observers.
package state

import (
	"sync"
	"sync/atomic"

	"github.com/lguimbarda/reportflow/flow/core"
)

// Observable is the read side of a Slot.
type Observable[T any] interface {
	// Current returns the latest value.
	Current() T
	// Observe registers fn for every future value. The current value is
	// replayed to fn before any later one. The returned function cancels
	// the registration.
	Observe(fn func(T)) (cancel func())
}

// Slot keeps the latest value of type T and notifies observers of every
// new value. Only the Writer returned alongside it can change the value.
//
// A write is visible to Current as soon as it returns. Notifications for
// one Slot never overlap: each write queues one notification, snapshotted
// with the value and observers at the moment of the write, in a single
// FIFO. The FIFO is drained by whichever goroutine finds it idle, or by the
// executor given with WithExecutor. Without an executor, an uncontended
// Set therefore notifies every observer, in subscription order, before it
// returns; a write issued from inside an observer callback, or while
// another goroutine is delivering, is delivered after the delivery in
// progress.
type Slot[T any] struct {
	exec core.Executor

	mu        sync.Mutex
	value     T
	version   uint64
	observers []*observer[T]
	pending   []func()
	draining  bool
}

type observer[T any] struct {
	fn     func(T)
	active atomic.Bool
}

// Writer is the write side of a Slot.
type Writer[T any] struct {
	slot *Slot[T]
}

// Option configures a Slot.
type Option func(*config)

type config struct {
	exec core.Executor
}

// WithExecutor delivers the Slot's notifications on exec instead of on
// the writing goroutine. Values are still written synchronously.
func WithExecutor(exec core.Executor) Option {
	return func(c *config) { c.exec = exec }
}

// New creates a Slot holding initial and the Writer that updates it.
func New[T any](initial T, opts ...Option) (*Slot[T], *Writer[T]) {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	s := &Slot[T]{value: initial, exec: c.exec}
	return s, &Writer[T]{slot: s}
}

// Current returns the latest value.
func (s *Slot[T]) Current() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Version returns how many values have been written since creation.
func (s *Slot[T]) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Observe registers fn and replays the current value to it. fn receives
// every value written after the call. fn must not block: it runs on the
// goroutine delivering the Slot's values.
func (s *Slot[T]) Observe(fn func(T)) (cancel func()) {
	o := &observer[T]{fn: fn}
	o.active.Store(true)

	s.mu.Lock()
	s.observers = append(s.observers, o)
	v := s.value
	s.push(func() {
		if o.active.Load() {
			o.fn(v)
		}
	})

	return func() {
		if !o.active.CompareAndSwap(true, false) {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, cur := range s.observers {
			if cur == o {
				s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
				break
			}
		}
	}
}

// Set publishes v.
func (w *Writer[T]) Set(v T) {
	w.Update(func(T) T { return v })
}

// Update publishes fn(current). fn runs with the Slot locked and must not
// call back into the Slot.
func (w *Writer[T]) Update(fn func(T) T) {
	w.UpdateIf(func(v T) (T, bool) { return fn(v), true })
}

// UpdateIf is Update for transitions that may not apply: when fn reports
// false, nothing is written and observers are not notified.
func (w *Writer[T]) UpdateIf(fn func(T) (T, bool)) {
	s := w.slot
	s.mu.Lock()
	v, ok := fn(s.value)
	if !ok {
		s.mu.Unlock()
		return
	}
	s.value = v
	s.version++
	observers := make([]*observer[T], len(s.observers))
	copy(observers, s.observers)
	s.push(func() {
		for _, o := range observers {
			if o.active.Load() {
				o.fn(v)
			}
		}
	})
}

// push queues job and unlocks s.mu, which the caller must hold. The FIFO
// is drained here, or on the executor, unless a drain is in progress.
func (s *Slot[T]) push(job func()) {
	s.pending = append(s.pending, job)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	s.mu.Unlock()

	if s.exec != nil {
		s.exec.Execute(s.drain)
		return
	}
	s.drain()
}

func (s *Slot[T]) drain() {
	// Release ownership if an observer panics so later writes still drain.
	defer func() {
		if r := recover(); r != nil {
			s.mu.Lock()
			s.draining = false
			s.mu.Unlock()
			panic(r)
		}
	}()

	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.draining = false
			s.mu.Unlock()
			return
		}
		job := s.pending[0]
		s.pending[0] = nil
		s.pending = s.pending[1:]
		s.mu.Unlock()

		job()
	}
}
