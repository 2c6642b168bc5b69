package sync

import (
	"context"
	stdsync "sync"
	"time"
)

// Debouncer runs at most one pending function, delayed. A new Call while
// one is pending replaces it and restarts the delay.
type Debouncer struct {
	delay time.Duration

	mu    stdsync.Mutex
	timer *time.Timer
}

// NewDebouncer builds a debouncer with the given settle delay.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Call schedules fn after the delay, cancelling any pending call.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// AvailabilityResult reports whether a candidate value is free to claim.
// Superseded means a newer keystroke replaced this check before its lookup
// ran; every check gets exactly one result, superseded or settled.
type AvailabilityResult struct {
	Value      string `json:"value"`
	Available  bool   `json:"available"`
	Superseded bool   `json:"-"`
	Err        string `json:"error,omitempty"`
}

type availabilityFn func(ctx context.Context, value string) (bool, error)

type pendingCheck struct {
	value   string
	deliver func(AvailabilityResult)
}

// fieldDebounce holds one field's debounce window and the check waiting on
// it. Replacing the pending check resolves the old one as superseded, so no
// waiter outlives its keystroke.
type fieldDebounce struct {
	lookup   availabilityFn
	debounce *Debouncer

	mu      stdsync.Mutex
	pending *pendingCheck
}

func newFieldDebounce(lookup availabilityFn, delay time.Duration) *fieldDebounce {
	return &fieldDebounce{lookup: lookup, debounce: NewDebouncer(delay)}
}

func (f *fieldDebounce) check(ctx context.Context, value string, deliver func(AvailabilityResult)) {
	next := &pendingCheck{value: value, deliver: deliver}
	f.mu.Lock()
	prev := f.pending
	f.pending = next
	f.mu.Unlock()
	if prev != nil {
		prev.deliver(AvailabilityResult{Value: prev.value, Superseded: true})
	}

	f.debounce.Call(func() {
		f.mu.Lock()
		if f.pending != next {
			f.mu.Unlock()
			return
		}
		f.pending = nil
		f.mu.Unlock()

		available, err := f.lookup(ctx, value)
		out := AvailabilityResult{Value: value, Available: available}
		if err != nil {
			out.Err = err.Error()
		}
		deliver(out)
	})
}

func (f *fieldDebounce) stop() {
	f.debounce.Stop()
	f.mu.Lock()
	prev := f.pending
	f.pending = nil
	f.mu.Unlock()
	if prev != nil {
		prev.deliver(AvailabilityResult{Value: prev.value, Superseded: true})
	}
}

// AvailabilityChecker debounces username and email availability lookups
// during signup. Each field has its own debounce window; a check replaced
// before its lookup runs resolves as superseded, a lookup already in flight
// still delivers its result.
type AvailabilityChecker struct {
	username *fieldDebounce
	email    *fieldDebounce
}

// NewAvailabilityChecker wires the two lookup calls behind per-field
// debouncers.
func NewAvailabilityChecker(username, email availabilityFn, delay time.Duration) *AvailabilityChecker {
	return &AvailabilityChecker{
		username: newFieldDebounce(username, delay),
		email:    newFieldDebounce(email, delay),
	}
}

// CheckUsername schedules a username lookup; result delivers asynchronously.
func (c *AvailabilityChecker) CheckUsername(ctx context.Context, value string, result func(AvailabilityResult)) {
	c.username.check(ctx, value, result)
}

// CheckEmail schedules an email lookup; result delivers asynchronously.
func (c *AvailabilityChecker) CheckEmail(ctx context.Context, value string, result func(AvailabilityResult)) {
	c.email.check(ctx, value, result)
}

// Stop cancels pending lookups on both fields, resolving their waiters as
// superseded.
func (c *AvailabilityChecker) Stop() {
	c.username.stop()
	c.email.stop()
}
