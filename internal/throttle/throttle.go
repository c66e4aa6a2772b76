// Package throttle implements a trailing-edge throttle with explicit flush.
//
// The first Schedule call in an idle period arms a timer for the wait
// interval. Further calls inside that interval only replace the pending
// value. When the timer fires the most recent value is delivered once.
// Nothing is ever delivered on the leading edge.
package throttle

import (
	"sync"
	"time"

	"github.com/danieljhkim/statekeep/internal/clock"
)

// Throttler coalesces scheduled values and delivers at most one per window.
type Throttler[T any] struct {
	clock clock.Clock
	wait  time.Duration
	fn    func(T)

	mu      sync.Mutex
	timer   clock.Timer
	gen     uint64
	pending bool
	value   T
	seq     uint64

	deliverMu sync.Mutex
	delivered uint64
}

// New returns a Throttler that calls fn with the latest scheduled value at
// most once per wait.
func New[T any](clk clock.Clock, wait time.Duration, fn func(T)) *Throttler[T] {
	return &Throttler[T]{clock: clk, wait: wait, fn: fn}
}

// Schedule records v as the value to deliver at the end of the current
// window, opening a new window if none is running.
func (t *Throttler[T]) Schedule(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	t.value = v
	t.pending = true
	if t.timer == nil {
		t.gen++
		gen := t.gen
		t.timer = t.clock.AfterFunc(t.wait, func() { t.fire(gen) })
	}
}

// Flush delivers the pending value immediately, if any, and closes the
// current window. It reports whether a value was delivered.
func (t *Throttler[T]) Flush() bool {
	t.mu.Lock()
	t.disarm()
	v, seq, ok := t.take()
	t.mu.Unlock()

	if !ok {
		return false
	}
	t.deliver(v, seq)
	return true
}

// Cancel drops the pending value and closes the current window.
func (t *Throttler[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disarm()
	t.take()
}

// Pending reports whether a value is waiting to be delivered.
func (t *Throttler[T]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

func (t *Throttler[T]) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.timer == nil {
		// Superseded by Flush or Cancel.
		t.mu.Unlock()
		return
	}
	t.timer = nil
	v, seq, ok := t.take()
	t.mu.Unlock()

	if ok {
		t.deliver(v, seq)
	}
}

// disarm stops the running timer. Caller holds t.mu.
func (t *Throttler[T]) disarm() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// take removes and returns the pending value. Caller holds t.mu.
func (t *Throttler[T]) take() (T, uint64, bool) {
	var zero T
	if !t.pending {
		return zero, 0, false
	}
	v := t.value
	t.value = zero
	t.pending = false
	return v, t.seq, true
}

// deliver calls fn unless a newer value has already been delivered.
func (t *Throttler[T]) deliver(v T, seq uint64) {
	t.deliverMu.Lock()
	defer t.deliverMu.Unlock()
	if seq <= t.delivered {
		return
	}
	t.delivered = seq
	t.fn(v)
}
