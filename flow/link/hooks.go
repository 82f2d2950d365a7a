package link

import "time"

// Hooks holds observation callbacks for a Link. All fields are optional;
// nil means no observation for that event. Hooks run synchronously on the
// goroutine that triggers the event, so they should be fast.
type Hooks struct {
	// OnDispatch is called when an upstream Result is accepted and its
	// task handed to the executor.
	OnDispatch func(link string, gen uint64)
	// OnDeliver is called when a task's Result is handed downstream.
	OnDeliver func(link string, gen uint64, failed bool, elapsed time.Duration)
	// OnSupersede is called when a Switch link discards a stale Result.
	OnSupersede func(link string, gen uint64, elapsed time.Duration)
}

// Chain composes hook sets. Callbacks run in the order the sets are given.
func Chain(hooks ...Hooks) Hooks {
	var out Hooks
	for _, h := range hooks {
		out.OnDispatch = chain2(out.OnDispatch, h.OnDispatch)
		out.OnDeliver = chain4(out.OnDeliver, h.OnDeliver)
		out.OnSupersede = chain3(out.OnSupersede, h.OnSupersede)
	}
	return out
}

func chain2(a, b func(string, uint64)) func(string, uint64) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(link string, gen uint64) {
		a(link, gen)
		b(link, gen)
	}
}

func chain3(a, b func(string, uint64, time.Duration)) func(string, uint64, time.Duration) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(link string, gen uint64, elapsed time.Duration) {
		a(link, gen, elapsed)
		b(link, gen, elapsed)
	}
}

func chain4(a, b func(string, uint64, bool, time.Duration)) func(string, uint64, bool, time.Duration) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(link string, gen uint64, failed bool, elapsed time.Duration) {
		a(link, gen, failed, elapsed)
		b(link, gen, failed, elapsed)
	}
}

func (h Hooks) dispatch(link string, gen uint64) {
	if h.OnDispatch != nil {
		h.OnDispatch(link, gen)
	}
}

func (h Hooks) deliver(link string, gen uint64, failed bool, elapsed time.Duration) {
	if h.OnDeliver != nil {
		h.OnDeliver(link, gen, failed, elapsed)
	}
}

func (h Hooks) supersede(link string, gen uint64, elapsed time.Duration) {
	if h.OnSupersede != nil {
		h.OnSupersede(link, gen, elapsed)
	}
}
