package session

import (
	"sync"
	"time"
)

// debouncer coalesces rapid triggers into one deferred call. Each trigger
// supersedes any pending one, so only the last scheduled function runs after
// a quiet period of the configured delay.
type debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(delay time.Duration) *debouncer {
	return &debouncer{delay: delay}
}

// trigger schedules fn to run after the delay, replacing any pending call.
func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil && d.timer.Stop() {
		// The pending call was cancelled before firing; settle its
		// accounting here since its callback will never run.
		d.wg.Done()
	}
	d.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if d.stopped || d.timer != t {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		fn()
	})
	d.timer = t
}

// cancel discards any pending call without running it.
func (d *debouncer) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}

// stopAndWait cancels pending work, refuses new triggers, and waits up to
// timeout for any in-flight call to finish. It reports whether everything
// settled within the timeout.
func (d *debouncer) stopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
