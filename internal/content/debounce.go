package content

import (
	"sync"
	"time"
)

// Clock abstracts time for the debouncer.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the subset of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

type burst struct {
	start time.Time
	timer Timer
	fn    func()
	gen   uint64
}

// Debouncer coalesces bursts of Schedule calls per identity.
type Debouncer struct {
	mu     sync.Mutex
	clock  Clock
	bursts map[string]*burst
	gen    uint64
	closed bool
}

// NewDebouncer creates a debouncer on clock, the wall clock when nil.
func NewDebouncer(clock Clock) *Debouncer {
	if clock == nil {
		clock = RealClock
	}
	return &Debouncer{clock: clock, bursts: make(map[string]*burst)}
}

// Schedule arms or re-arms the delay timer for id. If the current burst began
// at least maxDelay ago, fn runs immediately on the caller's goroutine and the
// burst ends. The latest fn of a burst is the one that runs. maxDelay <= 0
// disables the cap.
func (d *Debouncer) Schedule(id string, delay, maxDelay time.Duration, fn func()) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}

	now := d.clock.Now()
	b, ok := d.bursts[id]
	if !ok {
		b = &burst{start: now}
		d.bursts[id] = b
	} else {
		b.timer.Stop()
		if maxDelay > 0 && now.Sub(b.start) >= maxDelay {
			delete(d.bursts, id)
			d.mu.Unlock()
			fn()
			return
		}
	}

	d.gen++
	gen := d.gen
	b.fn = fn
	b.gen = gen
	b.timer = d.clock.AfterFunc(delay, func() { d.fire(id, gen) })
	d.mu.Unlock()
}

func (d *Debouncer) fire(id string, gen uint64) {
	d.mu.Lock()
	b, ok := d.bursts[id]
	if !ok || b.gen != gen || d.closed {
		d.mu.Unlock()
		return
	}
	delete(d.bursts, id)
	fn := b.fn
	d.mu.Unlock()

	fn()
}

// Pending reports whether id has an armed burst.
func (d *Debouncer) Pending(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.bursts[id]
	return ok
}

// Close stops every armed timer; pending bursts never fire.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	for id, b := range d.bursts {
		b.timer.Stop()
		delete(d.bursts, id)
	}
}
