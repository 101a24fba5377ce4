package ratelimit

import (
	"testing"
	"time"
)

// fakeClock advances only when told to, so tests never sleep for real.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestWindowAllowsUpToCap(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	w := NewWindow(3, time.Hour)
	w.SetClock(clock.now)

	for i := 0; i < 3; i++ {
		if !w.TryConsume() {
			t.Errorf("expected action %d to be allowed", i+1)
		}
	}

	if w.TryConsume() {
		t.Error("expected denial once the cap is reached")
	}
	if w.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", w.Remaining())
	}
}

func TestWindowNextAllowed(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := &fakeClock{t: start}
	w := NewWindow(1, time.Hour)
	w.SetClock(clock.now)

	if next := w.NextAllowed(); !next.IsZero() {
		t.Errorf("expected immediate allowance, got %v", next)
	}

	w.TryConsume()

	next := w.NextAllowed()
	if want := start.Add(time.Hour); !next.Equal(want) {
		t.Errorf("expected next allowed at %v, got %v", want, next)
	}

	clock.advance(61 * time.Minute)
	if !w.TryConsume() {
		t.Error("expected allowance after the window rolled past the stamp")
	}
}

// TestWindowSlidingProperty checks that no sliding 1-hour span ever contains
// more allowed actions than the cap, regardless of the consumption pattern.
func TestWindowSlidingProperty(t *testing.T) {
	const maxPerWindow = 5
	clock := &fakeClock{t: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)}
	w := NewWindow(maxPerWindow, time.Hour)
	w.SetClock(clock.now)

	var allowed []time.Time
	// Hammer TryConsume every 90 simulated seconds for 6 hours.
	for i := 0; i < 240; i++ {
		if w.TryConsume() {
			allowed = append(allowed, clock.t)
		}
		clock.advance(90 * time.Second)
	}

	if len(allowed) == 0 {
		t.Fatal("expected some actions to be allowed")
	}

	for i := range allowed {
		count := 1
		for j := i + 1; j < len(allowed); j++ {
			if allowed[j].Sub(allowed[i]) < time.Hour {
				count++
			}
		}
		if count > maxPerWindow {
			t.Fatalf("sliding span starting at %v contains %d allowed actions (cap %d)",
				allowed[i], count, maxPerWindow)
		}
	}
}

func TestWindowReset(t *testing.T) {
	w := NewWindow(2, time.Hour)
	w.TryConsume()
	w.TryConsume()
	if w.TryConsume() {
		t.Error("expected denial before reset")
	}

	w.Reset()
	if !w.TryConsume() {
		t.Error("expected allowance after reset")
	}
}
