// Package flowtest provides deterministic doubles for testing pipelines:
// a manually driven Scheduler to stand in for real executors, and a
// Recorder that captures every value an Observable publishes.
package flowtest

import (
	"sync"
	"time"

	"github.com/lguimbarda/reportflow/flow/state"
)

// Scheduler is a core.Executor that only queues tasks. Tests decide when,
// and in which order, queued tasks run. This replaces wall-clock delays
// when a test needs one stage to resolve before or after another.
type Scheduler struct {
	mu    sync.Mutex
	queue []func()
}

// NewScheduler creates an empty Scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Execute queues task.
func (s *Scheduler) Execute(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, task)
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Step runs the oldest queued task. It returns false if nothing was queued.
func (s *Scheduler) Step() bool {
	return s.RunAt(0)
}

// RunAt runs the i-th queued task (0 is the oldest) and removes it from
// the queue. It returns false if there is no such task.
func (s *Scheduler) RunAt(i int) bool {
	s.mu.Lock()
	if i < 0 || i >= len(s.queue) {
		s.mu.Unlock()
		return false
	}
	task := s.queue[i]
	s.queue = append(s.queue[:i:i], s.queue[i+1:]...)
	s.mu.Unlock()

	task()
	return true
}

// RunLast runs the most recently queued task.
func (s *Scheduler) RunLast() bool {
	return s.RunAt(s.Pending() - 1)
}

// Drain runs queued tasks oldest first, including tasks queued while
// draining, until the queue is empty. It returns how many ran.
func (s *Scheduler) Drain() int {
	n := 0
	for s.Step() {
		n++
	}
	return n
}

// Recorder captures every value published by an Observable, including the
// value replayed on subscription.
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
	cancel func()
}

// Record starts recording o.
func Record[T any](o state.Observable[T]) *Recorder[T] {
	r := &Recorder[T]{}
	r.cancel = o.Observe(func(v T) {
		r.mu.Lock()
		r.values = append(r.values, v)
		r.mu.Unlock()
	})
	return r
}

// Values returns a copy of everything recorded so far.
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

// Since returns the values recorded after the first one, i.e. without the
// replay that happened on subscription.
func (r *Recorder[T]) Since() []T {
	v := r.Values()
	if len(v) == 0 {
		return v
	}
	return v[1:]
}

// Len returns the number of recorded values.
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// WaitFor blocks until at least n values are recorded or timeout elapses,
// and reports whether n was reached. Use it only with real executors.
func (r *Recorder[T]) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if r.Len() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// Stop stops recording.
func (r *Recorder[T]) Stop() {
	r.cancel()
}
