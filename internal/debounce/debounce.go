// Package debounce coalesces rapidly changing values into a single
// emission once input has been quiet for a fixed window.
package debounce

import (
	"sync"
	"time"

	"github.com/xaenox/supportlens/internal/clock"
)

// DefaultDelay is the quiet period used for search input.
const DefaultDelay = 300 * time.Millisecond

// Debouncer delivers the latest value passed to Update once no further
// Update has arrived for the configured delay. It is safe for concurrent use.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   clock.Clock
	delay   time.Duration
	fn      func(T)
	timer   *clock.Timer
	gen     uint64
	stopped bool
}

// New returns a Debouncer that calls fn with settled values. fn runs on the
// clock's timer goroutine without the Debouncer's lock held, so it may call
// Update or Stop. It must not block for long.
func New[T any](c clock.Clock, delay time.Duration, fn func(T)) *Debouncer[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{clock: c, delay: delay, fn: fn}
}

// Update supersedes any pending value with v and restarts the quiet period.
func (d *Debouncer[T]) Update(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen, v) })
}

func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	// a real timer may already be running when Stop or Update lands
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Pending reports whether a value is waiting for the quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending emission and ignores later Updates. An emission
// whose callback has already started is not interrupted; fn may call Stop.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
