package ratelimit

import (
	"sync"
	"time"
)

// Tracker enforces a maximum action count over a rolling time window.
type Tracker interface {
	// TryConsume checks whether another action is allowed right now and,
	// if so, records it.
	TryConsume() bool
	// NextAllowed returns when the next action becomes allowed. It returns
	// the zero time if an action is allowed immediately.
	NextAllowed() time.Time
	// Remaining returns how many actions the current window still permits.
	Remaining() int
	// Reset clears all recorded actions.
	Reset()
}

// Window tracks action timestamps over a rolling window. Timestamps are kept
// per action rather than as a single counter so that no sliding span of the
// window size ever exceeds the cap, including across what a fixed-window
// implementation would treat as a boundary.
type Window struct {
	windowSize time.Duration
	maxActions int
	stamps     []time.Time
	now        func() time.Time
	mu         sync.Mutex
}

// NewWindow creates a tracker allowing maxActions per windowSize.
func NewWindow(maxActions int, windowSize time.Duration) *Window {
	return &Window{
		windowSize: windowSize,
		maxActions: maxActions,
		stamps:     make([]time.Time, 0, maxActions),
		now:        time.Now,
	}
}

// SetClock overrides the time source. Tests use this to drive simulated time.
func (w *Window) SetClock(now func() time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.now = now
}

// TryConsume records an action if the window has room.
func (w *Window) TryConsume() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.stamps) < w.maxActions {
		w.stamps = append(w.stamps, now)
		return true
	}

	return false
}

// NextAllowed returns when the oldest recorded action ages out of the window.
func (w *Window) NextAllowed() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.stamps) < w.maxActions {
		return time.Time{}
	}
	return w.stamps[0].Add(w.windowSize)
}

// Remaining returns the number of actions still allowed in the window.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(w.now())
	return w.maxActions - len(w.stamps)
}

// Reset clears all recorded actions.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stamps = w.stamps[:0]
}

// prune removes timestamps that have aged out of the window.
func (w *Window) prune(now time.Time) {
	cutoff := now.Add(-w.windowSize)

	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(w.stamps, w.stamps[i:])
		w.stamps = w.stamps[:len(w.stamps)-i]
	}
}
