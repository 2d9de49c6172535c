package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestPressNeverEmitsAction(t *testing.T) {
	d := NewDetector(time.Second)
	assert.Equal(t, ActionNone, d.HandleKey(KeyBack, true, t0, ModeNormal))
	assert.Equal(t, ActionNone, d.HandleKey(KeyOk, true, t0, ModeMenu))
}

func TestHoldBoundary(t *testing.T) {
	d := NewDetector(time.Second)

	// 999 ms is still a short press.
	d.HandleKey(KeyOk, true, t0, ModeNormal)
	action := d.HandleKey(KeyOk, false, t0.Add(999*time.Millisecond), ModeNormal)
	assert.Equal(t, ActionNone, action)

	// 1000 ms exactly counts as held.
	d.HandleKey(KeyOk, true, t0, ModeNormal)
	action = d.HandleKey(KeyOk, false, t0.Add(time.Second), ModeNormal)
	assert.Equal(t, ActionToggleMode, action)
}

func TestBackHeldRequestsShutdown(t *testing.T) {
	d := NewDetector(time.Second)
	d.HandleKey(KeyBack, true, t0, ModeNormal)
	action := d.HandleKey(KeyBack, false, t0.Add(2*time.Second), ModeNormal)
	assert.Equal(t, ActionShutdown, action)
}

func TestBackShortDoesNothing(t *testing.T) {
	d := NewDetector(time.Second)
	d.HandleKey(KeyBack, true, t0, ModeMenu)
	action := d.HandleKey(KeyBack, false, t0.Add(100*time.Millisecond), ModeMenu)
	assert.Equal(t, ActionNone, action)
}

func TestOkShortTogglesLoggingOnlyInMenu(t *testing.T) {
	d := NewDetector(time.Second)

	d.HandleKey(KeyOk, true, t0, ModeNormal)
	action := d.HandleKey(KeyOk, false, t0.Add(200*time.Millisecond), ModeNormal)
	assert.Equal(t, ActionNone, action)

	d.HandleKey(KeyOk, true, t0, ModeMenu)
	action = d.HandleKey(KeyOk, false, t0.Add(200*time.Millisecond), ModeMenu)
	assert.Equal(t, ActionToggleLogging, action)
}

func TestSpuriousReleaseIgnored(t *testing.T) {
	d := NewDetector(time.Second)
	assert.Equal(t, ActionNone, d.HandleKey(KeyOk, false, t0, ModeMenu))
	assert.Equal(t, ActionNone, d.HandleKey(KeyBack, false, t0, ModeNormal))

	// The spurious release must not disturb a following real gesture.
	d.HandleKey(KeyOk, true, t0, ModeNormal)
	action := d.HandleKey(KeyOk, false, t0.Add(time.Second), ModeNormal)
	assert.Equal(t, ActionToggleMode, action)
}

func TestKeysTrackIndependentState(t *testing.T) {
	d := NewDetector(time.Second)
	d.HandleKey(KeyBack, true, t0, ModeNormal)
	d.HandleKey(KeyOk, true, t0.Add(500*time.Millisecond), ModeNormal)

	// Ok released short while Back is still down.
	action := d.HandleKey(KeyOk, false, t0.Add(700*time.Millisecond), ModeNormal)
	assert.Equal(t, ActionNone, action)

	// Back held long enough counts from its own press time.
	action = d.HandleKey(KeyBack, false, t0.Add(1100*time.Millisecond), ModeNormal)
	assert.Equal(t, ActionShutdown, action)
}

func TestReleaseConsumesPress(t *testing.T) {
	d := NewDetector(time.Second)
	d.HandleKey(KeyOk, true, t0, ModeNormal)
	d.HandleKey(KeyOk, false, t0.Add(2*time.Second), ModeNormal)

	// A second release without a new press is spurious again.
	action := d.HandleKey(KeyOk, false, t0.Add(4*time.Second), ModeNormal)
	assert.Equal(t, ActionNone, action)
}

func TestSetHoldThreshold(t *testing.T) {
	d := NewDetector(time.Second)
	d.SetHoldThreshold(100 * time.Millisecond)
	d.HandleKey(KeyOk, true, t0, ModeNormal)
	action := d.HandleKey(KeyOk, false, t0.Add(150*time.Millisecond), ModeNormal)
	assert.Equal(t, ActionToggleMode, action)

	// Nonsense thresholds are ignored.
	d.SetHoldThreshold(0)
	d.HandleKey(KeyOk, true, t0, ModeNormal)
	action = d.HandleKey(KeyOk, false, t0.Add(150*time.Millisecond), ModeNormal)
	assert.Equal(t, ActionToggleMode, action)
}
