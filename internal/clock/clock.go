// Package clock provides the time source and periodic tickers used by the
// session engine. Tests use Fake to drive timers deterministically.
package clock

import (
	"sync"
	"time"
)

// Clock is a source of the current time and of periodic callbacks.
type Clock interface {
	Now() time.Time
	// NewTicker returns a stopped ticker that calls fn every d once started.
	NewTicker(d time.Duration, fn func(Tick)) Ticker
}

// Tick identifies one run of a ticker, from a Start to the following Stop.
type Tick uint64

// Ticker calls its function periodically while running.
// Start and Stop are idempotent.
type Ticker interface {
	Start()
	Stop()
	// Current reports whether tick belongs to the ticker's current run.
	// Callbacks that wait on a lock use it to drop ticks delivered after a
	// Stop, including when the ticker has been started again since.
	Current(tick Tick) bool
}

// Real is the wall clock.
type Real struct{}

// New returns the wall clock.
func New() Real { return Real{} }

func (Real) Now() time.Time { return time.Now() }

func (Real) NewTicker(d time.Duration, fn func(Tick)) Ticker {
	return &realTicker{period: d, fn: fn}
}

// realTicker runs fn on its own goroutine. Stop does not wait for the
// goroutine, so fn may take locks the caller of Stop is holding.
type realTicker struct {
	period time.Duration
	fn     func(Tick)

	mu   sync.Mutex
	stop chan struct{}
	run  Tick
}

func (t *realTicker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	stop := make(chan struct{})
	t.stop = stop
	t.run++
	go t.loop(stop, t.run)
}

func (t *realTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop == nil {
		return
	}
	close(t.stop)
	t.stop = nil
}

func (t *realTicker) Current(tick Tick) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil && tick == t.run
}

func (t *realTicker) loop(stop chan struct{}, tick Tick) {
	tk := time.NewTicker(t.period)
	defer tk.Stop()
	for {
		select {
		case <-stop:
			return
		case <-tk.C:
			select {
			case <-stop:
				return
			default:
			}
			t.fn(tick)
		}
	}
}
