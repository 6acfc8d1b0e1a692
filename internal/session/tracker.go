package session

import (
	"sync"
	"time"
)

// State is a snapshot of the session. Empty screen names mean "none".
type State struct {
	StartedAt      time.Time
	CurrentScreen  string
	PreviousScreen string
}

// Tracker records the session start and a two-deep screen history.
type Tracker struct {
	mu    sync.Mutex
	state State
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Start sets the session start time. Only the first call has effect.
func (t *Tracker) Start(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.StartedAt.IsZero() {
		t.state.StartedAt = at
	}
}

// Rotate makes screen the current screen and returns the new state.
func (t *Tracker) Rotate(screen string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.PreviousScreen = t.state.CurrentScreen
	t.state.CurrentScreen = screen
	return t.state
}

// Clear forgets the screen history. The session start time is kept.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.CurrentScreen = ""
	t.state.PreviousScreen = ""
}

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
