package engine

import "sync"

// RestTimer is the single countdown for an active workout. Only one countdown
// runs at a time; starting a new one cancels the previous. The tick source is
// external (a 1 Hz callback) and touches only timer state, never the workout
// aggregate, so the timer carries its own lock.
type RestTimer struct {
	mu        sync.Mutex
	active    bool
	remaining int
	total     int
	custom    int // sticky user override for the rest of the session, 0 = none
}

// TimerState is a read-only snapshot for the rendering layer.
type TimerState struct {
	IsActive  bool `json:"isActive"`
	Remaining int  `json:"remaining"`
	Total     int  `json:"total"`
	Custom    int  `json:"customDuration,omitempty"`
}

// Start begins a countdown of the given length, cancelling any running one.
// Non-positive durations deactivate the timer.
func (t *RestTimer) Start(seconds int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seconds <= 0 {
		t.active = false
		t.remaining = 0
		t.total = 0
		return
	}
	t.active = true
	t.remaining = seconds
	t.total = seconds
}

// Skip stops the countdown immediately.
func (t *RestTimer) Skip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = false
	t.remaining = 0
}

// Tick decrements the countdown by one second. Returns true exactly once,
// on the tick that reaches zero.
func (t *RestTimer) Tick() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return false
	}
	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.active = false
		return true
	}
	return false
}

// SetCustomDuration overrides prescribed rest periods for the remainder of
// the session and immediately starts a countdown of that length.
func (t *RestTimer) SetCustomDuration(seconds int) {
	t.mu.Lock()
	t.custom = seconds
	t.mu.Unlock()
	t.Start(seconds)
}

// CustomDuration returns the session override, or 0 when none is set.
func (t *RestTimer) CustomDuration() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.custom
}

// State returns a snapshot of the timer.
func (t *RestTimer) State() TimerState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TimerState{IsActive: t.active, Remaining: t.remaining, Total: t.total, Custom: t.custom}
}
