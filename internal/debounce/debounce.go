// Package debounce runs a function once after a burst of calls settles.
package debounce

import (
	"sync"
	"time"
)

// Debouncer coalesces Schedule calls: fn runs once, delay after the last
// call. Runs never overlap; a Schedule that lands while fn is running
// re-arms the timer when it returns.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	arm     uint64 // identifies the live timer; stale callbacks compare unequal
	pending bool
	running bool
	stopped bool
}

// New returns a Debouncer for fn. A non-positive delay defaults to one second.
func New(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = time.Second
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Delay returns the configured quiet period.
func (d *Debouncer) Delay() time.Duration { return d.delay }

// Schedule (re)starts the quiet period.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = true
	if d.running {
		return
	}
	d.rearm()
}

// rearm replaces the timer. Callers hold mu.
func (d *Debouncer) rearm() {
	if d.timer != nil {
		d.timer.Stop()
	}
	d.arm++
	arm := d.arm
	d.timer = time.AfterFunc(d.delay, func() { d.onTimer(arm) })
}

// Pending reports whether a run is scheduled and has not started.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops a scheduled run. A run already in progress is not interrupted.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = false
	d.arm++
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Stop cancels and makes later Schedule calls no-ops.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}

func (d *Debouncer) onTimer(arm uint64) {
	d.mu.Lock()
	if arm != d.arm || !d.pending || d.running || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.running = true
	d.mu.Unlock()

	d.fn()

	d.mu.Lock()
	d.running = false
	if d.pending && !d.stopped {
		d.rearm()
	}
	d.mu.Unlock()
}
