package core

import (
	"sync"
)

// Executor runs tasks. The pipeline hands stage work to a background
// executor and slot delivery to a foreground executor; tests substitute a
// manual executor to control interleavings.
//
// Execute must not block waiting for the task to finish.
type Executor interface {
	Execute(task func())
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(task func())

// Execute calls f(task).
func (f ExecutorFunc) Execute(task func()) { f(task) }

// Inline returns an Executor that runs each task on the caller's goroutine
// before Execute returns.
func Inline() Executor {
	return ExecutorFunc(func(task func()) { task() })
}

// DefaultWorkers is the default concurrency limit of a Pool.
const DefaultWorkers = 8

// Pool runs tasks on their own goroutines with at most n running at once.
// Execute never blocks: tasks over the limit wait for a free slot on their
// own goroutine, so a running task may schedule more work without risking
// a deadlock.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewPool creates a Pool allowing n concurrent tasks.
// If n <= 0, defaults to DefaultWorkers.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = DefaultWorkers
	}
	return &Pool{sem: make(chan struct{}, n)}
}

// Execute starts task as soon as a worker slot is free.
func (p *Pool) Execute(task func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sem <- struct{}{}
		defer func() { <-p.sem }()
		task()
	}()
}

// Wait blocks until every task executed so far, and every task those tasks
// executed in turn, has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Serial runs tasks one at a time, in the order they were executed, on a
// single goroutine. The queue is unbounded so producers never block.
type Serial struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	closed  bool
	stopped chan struct{}
}

// NewSerial starts a Serial executor. Call Close to stop it.
func NewSerial() *Serial {
	s := &Serial{stopped: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Execute enqueues task. Tasks executed after Close are dropped.
func (s *Serial) Execute(task func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, task)
	s.cond.Signal()
}

// Sync blocks until every task enqueued before the call has run.
// It returns immediately if the executor is closed.
func (s *Serial) Sync() {
	done := make(chan struct{})
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, func() { close(done) })
	s.cond.Signal()
	s.mu.Unlock()
	<-done
}

// Close stops accepting tasks, runs the ones already queued and waits for
// the loop to exit.
func (s *Serial) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		s.cond.Signal()
	}
	s.mu.Unlock()
	<-s.stopped
}

func (s *Serial) loop() {
	defer close(s.stopped)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}
