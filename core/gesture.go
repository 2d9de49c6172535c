package core

import "time"

// Key identifies one of the two logical input keys.
type Key int

const (
	KeyBack Key = iota
	KeyOk
)

func (k Key) String() string {
	if k == KeyOk {
		return "Ok"
	}
	return "Back"
}

// Action is the discrete outcome of a classified gesture.
type Action int

const (
	ActionNone Action = iota
	ActionShutdown
	ActionToggleMode
	ActionToggleLogging
)

// DefaultHoldThreshold is the press duration from which a release
// counts as a held gesture.
const DefaultHoldThreshold = time.Second

// Detector classifies raw press/release events per key as short or
// held gestures. Each key tracks its own press timestamp, so at most
// one action results from any single release.
type Detector struct {
	hold    time.Duration
	pressed map[Key]time.Time
}

// NewDetector creates a Detector with the given hold threshold. A
// threshold of zero or below falls back to DefaultHoldThreshold.
func NewDetector(hold time.Duration) *Detector {
	if hold <= 0 {
		hold = DefaultHoldThreshold
	}
	return &Detector{
		hold:    hold,
		pressed: make(map[Key]time.Time),
	}
}

// SetHoldThreshold changes the hold classification threshold. Used
// when the runtime configuration is reloaded.
func (d *Detector) SetHoldThreshold(hold time.Duration) {
	if hold > 0 {
		d.hold = hold
	}
}

// HandleKey feeds one press or release event into the state machine
// and returns the resulting action. Press events only record the
// timestamp and never produce an action. A release without a matching
// press is ignored; spurious events like this do occur on real
// hardware. The current mode gates the Ok-short gesture: it toggles
// logging only while the menu is shown.
func (d *Detector) HandleKey(key Key, pressed bool, at time.Time, mode Mode) Action {
	if pressed {
		d.pressed[key] = at
		return ActionNone
	}

	t0, ok := d.pressed[key]
	if !ok {
		return ActionNone
	}
	delete(d.pressed, key)

	held := at.Sub(t0) >= d.hold
	switch {
	case key == KeyBack && held:
		return ActionShutdown
	case key == KeyOk && held:
		return ActionToggleMode
	case key == KeyOk && mode == ModeMenu:
		return ActionToggleLogging
	}
	return ActionNone
}
