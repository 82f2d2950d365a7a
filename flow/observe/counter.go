// Package observe turns link hooks into logs and metrics. Every function
// here returns a link.Hooks value; attach it with link.WithHooks or, for a
// whole pipeline, with report.WithHooks.
package observe

import (
	"sync/atomic"
	"time"

	"github.com/lguimbarda/reportflow/flow/link"
)

// Counter provides simple atomic counters across every link it is attached to.
type Counter struct {
	dispatched atomic.Int64
	delivered  atomic.Int64
	failed     atomic.Int64
	superseded atomic.Int64
}

// NewCounter creates a new Counter.
func NewCounter() *Counter {
	return &Counter{}
}

// Hooks returns the hooks that feed the counter.
func (c *Counter) Hooks() link.Hooks {
	return link.Hooks{
		OnDispatch: func(string, uint64) { c.dispatched.Add(1) },
		OnDeliver: func(_ string, _ uint64, failed bool, _ time.Duration) {
			c.delivered.Add(1)
			if failed {
				c.failed.Add(1)
			}
		},
		OnSupersede: func(string, uint64, time.Duration) { c.superseded.Add(1) },
	}
}

// Dispatched returns the number of tasks handed to executors.
func (c *Counter) Dispatched() int64 { return c.dispatched.Load() }

// Delivered returns the number of Results handed downstream.
func (c *Counter) Delivered() int64 { return c.delivered.Load() }

// Failed returns how many delivered Results were failures.
func (c *Counter) Failed() int64 { return c.failed.Load() }

// Superseded returns the number of discarded stale Results.
func (c *Counter) Superseded() int64 { return c.superseded.Load() }
