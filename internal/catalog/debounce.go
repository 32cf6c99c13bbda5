package catalog

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Debouncer runs fn once calls have been quiet for the configured delay
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	timer   *clock.Timer
	stopped bool
	mu      sync.Mutex
}

// NewDebouncer creates a debouncer
func NewDebouncer(clk clock.Clock, delay time.Duration) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	return &Debouncer{clock: clk, delay: delay}
}

// Trigger schedules fn after the delay, cancelling any call still waiting
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}

	var timer *clock.Timer
	timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.timer == timer && !d.stopped
		if current {
			d.timer = nil
		}
		d.mu.Unlock()

		if current {
			fn()
		}
	})
	d.timer = timer
}

// Flush runs fn immediately when a call is waiting and reports whether it did
func (d *Debouncer) Flush(fn func()) bool {
	d.mu.Lock()
	pending := d.timer != nil && !d.stopped
	if pending {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if pending {
		fn()
	}
	return pending
}

// Stop cancels the pending call and disables the debouncer
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.stopped = true
}
