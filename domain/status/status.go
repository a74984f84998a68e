package status

import (
	"log/slog"
	"sync"
)

// WindowState describes what the poller last saw of its target window.
type WindowState int

const (
	Uninitialized WindowState = iota
	Active
	Inactive
	NotFound
)

func (s WindowState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Active:
		return "active"
	case Inactive:
		return "inactive"
	case NotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Listener is notified on every state change.
type Listener func(prev, next WindowState)

// Tracker remembers the window state across poll cycles and reports each
// change exactly once. Observing the current state again is a no-op, so a
// window that stays inactive is logged once, not every cycle.
type Tracker struct {
	mu        sync.Mutex
	state     WindowState
	logger    *slog.Logger
	title     string
	listeners []Listener
}

// NewTracker returns a tracker in Uninitialized for the window named title.
func NewTracker(title string, logger *slog.Logger) *Tracker {
	return &Tracker{title: title, logger: logger}
}

// AddListener registers l for future transitions.
func (t *Tracker) AddListener(l Listener) {
	t.mu.Lock()
	t.listeners = append(t.listeners, l)
	t.mu.Unlock()
}

// Current returns the last observed state.
func (t *Tracker) Current() WindowState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Observe records next and reports whether it was a transition. Uninitialized
// can only be left, never re-entered.
func (t *Tracker) Observe(next WindowState) bool {
	t.mu.Lock()
	prev := t.state
	if prev == next || next == Uninitialized {
		t.mu.Unlock()
		return false
	}
	t.state = next
	listeners := append([]Listener(nil), t.listeners...)
	t.mu.Unlock()

	t.log(prev, next)
	for _, l := range listeners {
		l(prev, next)
	}
	return true
}

func (t *Tracker) log(prev, next WindowState) {
	if t.logger == nil {
		return
	}
	attrs := []any{"window", t.title, "from", prev.String(), "to", next.String()}
	switch next {
	case Active:
		t.logger.Info("window active", attrs...)
	case Inactive:
		t.logger.Info("window inactive", attrs...)
	case NotFound:
		t.logger.Warn("window not found", attrs...)
	}
}
