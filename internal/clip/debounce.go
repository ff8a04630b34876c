package clip

import (
	"sync"
	"time"
)

// DefaultDebounce is how long in-gesture edits settle before being published.
const DefaultDebounce = 100 * time.Millisecond

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// SystemAfterFunc; hosts with an event loop wrap it to post f onto the loop.
type AfterFunc func(d time.Duration, f func()) Timer

// SystemAfterFunc runs f on its own goroutine after d.
func SystemAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer holds at most one pending action and runs it once the delay has
// passed without a newer Trigger.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	after   AfterFunc
	timer   Timer
	gen     uint64
	pending func()
}

func NewDebouncer(delay time.Duration, after AfterFunc) *Debouncer {
	if after == nil {
		after = SystemAfterFunc
	}
	return &Debouncer{delay: delay, after: after}
}

// Trigger replaces the pending action with fn and restarts the delay.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = fn
	d.timer = d.after(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	fn()
}

// Flush runs the pending action now. It reports whether there was one.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.cancelLocked()
	d.mu.Unlock()

	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop drops the pending action without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.cancelLocked()
	d.mu.Unlock()
}

// Pending reports whether an action is waiting.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}
