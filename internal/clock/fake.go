package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced clock. Ticker callbacks run synchronously
// inside Advance, on the caller's goroutine.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*fakeTicker
}

// NewFake returns a fake clock set to start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) NewTicker(d time.Duration, fn func(Tick)) Ticker {
	t := &fakeTicker{clock: f, period: d, fn: fn}
	f.mu.Lock()
	f.tickers = append(f.tickers, t)
	f.mu.Unlock()
	return t
}

// Advance moves the clock forward by d, firing every running ticker each
// time its period elapses. Tickers started or stopped by a callback take
// effect for the remainder of the advance.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.next
		next.next = next.next.Add(next.period)
		fn, tick := next.fn, next.run
		f.mu.Unlock()

		fn(tick)
	}
}

// Running reports how many tickers are currently started.
func (f *Fake) Running() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.tickers {
		if t.running {
			n++
		}
	}
	return n
}

// nextDue returns the running ticker with the earliest fire time not after
// target. Ties go to the ticker created first. Caller holds f.mu.
func (f *Fake) nextDue(target time.Time) *fakeTicker {
	var best *fakeTicker
	for _, t := range f.tickers {
		if !t.running || t.next.After(target) {
			continue
		}
		if best == nil || t.next.Before(best.next) {
			best = t
		}
	}
	return best
}

type fakeTicker struct {
	clock   *Fake
	period  time.Duration
	fn      func(Tick)
	running bool
	run     Tick
	next    time.Time
}

func (t *fakeTicker) Start() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.run++
	t.next = t.clock.now.Add(t.period)
}

func (t *fakeTicker) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.running = false
}

func (t *fakeTicker) Current(tick Tick) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.running && tick == t.run
}
