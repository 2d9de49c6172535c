package platform

import (
	"io"
	"time"

	"lautenbacher.net/flametunnel/config"
	"lautenbacher.net/flametunnel/core"
)

// Platform defines the interface for abstracting away the real
// hardware from the TUI simulation.
type Platform interface {
	// Start acquires the platform resources (serial line, GPIO, IR
	// receiver - or the terminal UI). On error nothing is left
	// acquired.
	Start() error

	// Stop cleans up all platform resources in reverse acquisition
	// order.
	Stop()

	// SignalEvents returns the channel delivering received infrared
	// signals.
	SignalEvents() <-chan *PulseEvent

	// InputEvents returns the channel delivering key press/release
	// events.
	InputEvents() <-chan *KeyEvent

	// SerialSink returns the writer transmitting outgoing records.
	// Only valid after a successful Start.
	SerialSink() io.Writer

	// Render shows the given state snapshot. Called periodically by
	// the application's render tick.
	Render(snap core.Snapshot)

	// ApplyRuntimeConfig hands a reloaded runtime configuration to the
	// platform. Platforms read reloaded values only through this call,
	// never through the Config they were constructed with, so the
	// event loop and the platform goroutines share no mutable config.
	ApplyRuntimeConfig(rc config.RuntimeConfig)

	// Ready is closed once the platform can display output.
	Ready() <-chan bool
}

// PulseEvent is one received infrared signal: the measured pulse
// durations in microseconds.
type PulseEvent struct {
	Pulses    []uint32
	Timestamp time.Time
}

// NewPulseEvent creates a new PulseEvent instance.
func NewPulseEvent(pulses []uint32, ts time.Time) *PulseEvent {
	inst := PulseEvent{
		Pulses:    pulses,
		Timestamp: ts,
	}
	return &inst
}

// KeyEvent is one discrete press or release of a logical key.
type KeyEvent struct {
	Key       core.Key
	Pressed   bool
	Timestamp time.Time
}

// NewKeyEvent creates a new KeyEvent instance.
func NewKeyEvent(key core.Key, pressed bool, ts time.Time) *KeyEvent {
	inst := KeyEvent{
		Key:       key,
		Pressed:   pressed,
		Timestamp: ts,
	}
	return &inst
}
