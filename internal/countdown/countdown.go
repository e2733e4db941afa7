// Package countdown runs a cancellable per-unit countdown on a
// clockwork.Clock, so tests can drive it with a fake clock.
package countdown

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Handle controls a running countdown.
type Handle struct {
	mu        sync.Mutex
	clock     clockwork.Clock
	unit      time.Duration
	remaining int
	timer     clockwork.Timer
	done      bool
	onTick    func(remaining int)
	onExpire  func()
}

// Start begins a countdown of units steps of length unit. After each step
// onTick receives the remaining count; when it reaches zero onExpire runs
// once instead. Either callback may be nil. A non-positive units value
// expires on the first step. The next step is scheduled before onTick
// runs. A nil clock means the real one.
func Start(clock clockwork.Clock, unit time.Duration, units int, onTick func(remaining int), onExpire func()) *Handle {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	h := &Handle{
		clock:     clock,
		unit:      unit,
		remaining: units,
		onTick:    onTick,
		onExpire:  onExpire,
	}
	h.mu.Lock()
	h.timer = clock.AfterFunc(unit, h.step)
	h.mu.Unlock()
	return h
}

func (h *Handle) step() {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	h.remaining--
	if h.remaining <= 0 {
		h.remaining = 0
		h.done = true
		h.timer = nil
		expire := h.onExpire
		h.mu.Unlock()
		if expire != nil {
			expire()
		}
		return
	}
	remaining := h.remaining
	h.timer = h.clock.AfterFunc(h.unit, h.step)
	tick := h.onTick
	h.mu.Unlock()

	if tick != nil {
		tick(remaining)
	}
}

// Cancel stops the countdown. No callback is delivered after Cancel
// returns, except one already running. Cancel is idempotent.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done {
		return
	}
	h.done = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// Active reports whether the countdown is still running.
func (h *Handle) Active() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.done
}

// Remaining returns the units left.
func (h *Handle) Remaining() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.remaining
}
